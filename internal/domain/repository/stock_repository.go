package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
)

// StockRepository define el puerto para consultar/actualizar existencias por
// (empresa, producto, bodega). Las variantes ForUpdate se usan dentro de
// transacciones: el bloqueo de fila es el único primitivo de concurrencia del kardex.
type StockRepository interface {
	Get(ctx context.Context, companyID, productID, warehouseID string) (*entity.Stock, error)
	// GetForUpdate bloquea la fila (SELECT FOR UPDATE). Si no existe, la crea
	// con cantidad 0 dentro de la misma transacción y la bloquea.
	GetForUpdate(ctx context.Context, companyID, productID, warehouseID string) (*entity.Stock, error)
	// ListByProductForUpdate bloquea todas las filas del producto en el orden
	// canónico global (warehouse id ascendente, el mismo de los traslados):
	// consumo determinista en ventas multi-bodega sin deadlocks cruzados.
	ListByProductForUpdate(ctx context.Context, companyID, productID string) ([]*entity.Stock, error)
	Upsert(ctx context.Context, stock *entity.Stock) error
	// AggregateByProduct suma cantidad y reservado del producto en todas las bodegas.
	AggregateByProduct(ctx context.Context, companyID, productID string) (quantity, reserved decimal.Decimal, err error)
}
