package repository

import (
	"context"

	"github.com/jhoicas/kardex-api/internal/domain/entity"
)

// WarehouseRepository puerto de lectura del registro de bodegas (existencia y pertenencia a la empresa).
type WarehouseRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Warehouse, error)
}
