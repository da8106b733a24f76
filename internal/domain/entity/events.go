package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Nombres de eventos de dominio publicados al event sink.
const (
	EventProductStockLow = "product.stock_low"
	EventSaleCreated     = "sale.created"
)

// DomainEvent es lo mínimo que el publicador necesita: nombre de evento y payload serializable.
type DomainEvent interface {
	EventName() string
}

// ProductStockLowEvent se emite cuando, tras un movimiento, la cantidad queda
// por debajo del stock_min configurado del producto.
type ProductStockLowEvent struct {
	CompanyID   string          `json:"company_id"`
	ProductID   string          `json:"product_id"`
	SKU         string          `json:"sku"`
	ProductName string          `json:"product_name"`
	WarehouseID string          `json:"warehouse_id,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	StockMin    decimal.Decimal `json:"stock_min"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

func (ProductStockLowEvent) EventName() string { return EventProductStockLow }

// SaleCreatedEvent se emite tras confirmar una venta (para facturación,
// sincronización externa y notificaciones; los consumidores están fuera de este módulo).
type SaleCreatedEvent struct {
	CompanyID  string          `json:"company_id"`
	SaleID     string          `json:"sale_id"`
	Number     string          `json:"number"`
	GrandTotal decimal.Decimal `json:"grand_total"`
	Items      int             `json:"items"`
	OccurredAt time.Time       `json:"occurred_at"`
}

func (SaleCreatedEvent) EventName() string { return EventSaleCreated }
