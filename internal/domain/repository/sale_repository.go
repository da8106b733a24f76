package repository

import (
	"context"

	"github.com/jhoicas/kardex-api/internal/domain/entity"
)

// SaleRepository puerto de persistencia de ventas. Create se invoca dentro de
// la transacción del commit de venta (cabecera + líneas + pago, todo o nada).
type SaleRepository interface {
	Create(ctx context.Context, sale *entity.Sale, items []*entity.SaleItem, payment *entity.Payment) error
	GetByID(ctx context.Context, id string) (*entity.Sale, error)
	GetItemsBySaleID(ctx context.Context, saleID string) ([]*entity.SaleItem, error)
	// GetByIdempotencyKey devuelve la venta ya creada con esa clave (nil si no hay).
	// Respaldo durable de la deduplicación: la clave es única por empresa en DB.
	GetByIdempotencyKey(ctx context.Context, companyID, key string) (*entity.Sale, error)
}
