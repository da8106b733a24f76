package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados del ciclo de vida de una venta.
const (
	SaleStatusCompleted = "COMPLETED"
	SaleStatusVoided    = "VOIDED"
)

// Sale representa una venta finalizada. Los totales se calculan redondeados a 2
// decimales en el momento del cómputo. IdempotencyKey deduplica reintentos del
// cliente: único por empresa a nivel de base de datos.
type Sale struct {
	ID             string
	CompanyID      string
	CustomerID     string // opcional (venta de mostrador)
	Number         string
	Status         string
	Subtotal       decimal.Decimal
	TaxTotal       decimal.Decimal
	Discount       decimal.Decimal // descuento a nivel de orden
	GrandTotal     decimal.Decimal
	IdempotencyKey string
	CreatedBy      string
	CreatedAt      time.Time
}

// SaleItem es una línea de la venta.
type SaleItem struct {
	ID        string
	SaleID    string
	ProductID string
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	Discount  decimal.Decimal // descuento por línea
	TaxRate   decimal.Decimal
	Subtotal  decimal.Decimal // qty*precio - descuento, redondeado a 2
}

// Payment registra un pago asociado a la venta (opcional).
type Payment struct {
	ID     string
	SaleID string
	Method string // cash, card, transfer...
	Amount decimal.Decimal
	PaidAt time.Time
}
