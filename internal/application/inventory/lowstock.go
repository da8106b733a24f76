package inventory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
	"github.com/jhoicas/kardex-api/pkg/logger"
)

// Notifier evalúa el stock recién escrito contra el stock_min del producto y
// emite ProductStockLow. Se invoca después del commit de cada movimiento: un
// fallo aquí se loguea y jamás afecta la durabilidad del movimiento.
type Notifier struct {
	publisher EventPublisher
	log       *logger.Logger
}

// NewNotifier construye el notificador de stock bajo.
func NewNotifier(publisher EventPublisher, log *logger.Logger) *Notifier {
	return &Notifier{publisher: publisher, log: log.WithComponent("lowstock-notifier")}
}

// Check emite ProductStockLow si stock_min > 0 y la cantidad quedó por debajo.
// Best-effort: el error de publicación solo se loguea.
func (n *Notifier) Check(ctx context.Context, product *entity.Product, warehouseID string, newQty decimal.Decimal) {
	if product == nil || n.publisher == nil {
		return
	}
	if !product.StockMin.GreaterThan(decimal.Zero) || !newQty.LessThan(product.StockMin) {
		return
	}
	event := entity.ProductStockLowEvent{
		CompanyID:   product.CompanyID,
		ProductID:   product.ID,
		SKU:         product.SKU,
		ProductName: product.Name,
		WarehouseID: warehouseID,
		Quantity:    newQty,
		StockMin:    product.StockMin,
		OccurredAt:  time.Now(),
	}
	if err := n.publisher.Publish(ctx, event); err != nil {
		n.log.Warn().Err(err).
			Str("product_id", product.ID).
			Str("quantity", newQty.String()).
			Msg("no se pudo publicar evento de stock bajo")
	}
}
