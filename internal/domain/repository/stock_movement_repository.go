package repository

import (
	"context"
	"time"

	"github.com/jhoicas/kardex-api/internal/domain/entity"
)

// MovementFilter filtros para reconstruir el kardex de un producto.
type MovementFilter struct {
	CompanyID   string
	ProductID   string
	WarehouseID string // vacío = todas las bodegas
	DateFrom    *time.Time
	DateTo      *time.Time
	Ascending   bool // false = más recientes primero
	Limit       int
	Offset      int
}

// StockMovementRepository define el puerto de persistencia del kardex.
// Solo inserción y lectura: las entradas son inmutables.
type StockMovementRepository interface {
	// Create inserta la entrada y asigna movement.ID con el consecutivo generado.
	Create(ctx context.Context, movement *entity.StockMovement) error
	List(ctx context.Context, filter MovementFilter) ([]*entity.StockMovement, error)
}
