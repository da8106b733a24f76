package sales

import (
	"context"
	"time"

	"github.com/jhoicas/kardex-api/internal/application/inventory"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
	"github.com/jhoicas/kardex-api/internal/domain/repository"
)

// SaleTxRunner ejecuta el commit de venta dentro de una transacción con
// repositorios de inventario y ventas atados a la misma tx (todo o nada).
type SaleTxRunner interface {
	RunSale(ctx context.Context, fn func(
		movRepo repository.StockMovementRepository,
		stockRepo repository.StockRepository,
		saleRepo repository.SaleRepository,
	) error) error
}

// InventoryUseCase es lo que el commit de ventas necesita del motor de
// inventario: el primitivo de movimiento dentro de la tx del caller, para que
// cada descuento de stock quede en el kardex con referencia a la venta.
type InventoryUseCase interface {
	RegisterMovementInTx(
		ctx context.Context,
		movRepo repository.StockMovementRepository,
		stockRepo repository.StockRepository,
		input inventory.MovementInput,
		now time.Time,
	) (*entity.StockMovement, error)
	Notifier() *inventory.Notifier
}

// IdempotencyCache mapa clave → sale_id con TTL corto. Deduplicación
// best-effort: el respaldo durable es la restricción única en la tabla sales.
type IdempotencyCache interface {
	// GetSaleID devuelve "" si la clave no está en cache.
	GetSaleID(ctx context.Context, companyID, key string) (string, error)
	StoreSaleID(ctx context.Context, companyID, key, saleID string) error
}
