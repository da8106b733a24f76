package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleItemRequest línea de venta. Si UnitPrice es 0 se toma el precio del catálogo.
type SaleItemRequest struct {
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Discount  decimal.Decimal `json:"discount,omitempty"` // descuento por línea
}

// PaymentRequest pago asociado a la venta (opcional).
type PaymentRequest struct {
	Method string          `json:"method"`
	Amount decimal.Decimal `json:"amount"`
}

// CreateSaleRequest body para POST /api/sales. IdempotencyKey también puede
// venir en el header Idempotency-Key; el header tiene prioridad.
type CreateSaleRequest struct {
	CustomerID     string           `json:"customer_id,omitempty"`
	Number         string           `json:"number,omitempty"`
	IdempotencyKey string           `json:"idempotency_key,omitempty"`
	Items          []SaleItemRequest `json:"items"`
	TaxRate        *decimal.Decimal `json:"tax_rate,omitempty"` // sobreescribe la tasa por defecto
	Discount       decimal.Decimal  `json:"discount,omitempty"` // descuento a nivel de orden
	Payment        *PaymentRequest  `json:"payment,omitempty"`
}

// SaleItemResponse línea de venta en la respuesta.
type SaleItemResponse struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Discount  decimal.Decimal `json:"discount"`
	TaxRate   decimal.Decimal `json:"tax_rate"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// SaleResponse venta creada (o recuperada por clave de idempotencia).
type SaleResponse struct {
	ID           string             `json:"id"`
	CustomerID   string             `json:"customer_id,omitempty"`
	Number       string             `json:"number"`
	Status       string             `json:"status"`
	Subtotal     decimal.Decimal    `json:"subtotal"`
	TaxTotal     decimal.Decimal    `json:"tax_total"`
	Discount     decimal.Decimal    `json:"discount"`
	GrandTotal   decimal.Decimal    `json:"grand_total"`
	Deduplicated bool               `json:"deduplicated,omitempty"` // true si se devolvió una venta ya existente
	CreatedAt    time.Time          `json:"created_at"`
	Items        []SaleItemResponse `json:"items"`
}
