package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto o SKU del catálogo (colaborador de solo lectura
// para el kardex). StockMin es el umbral configurado para alertas de stock bajo;
// 0 significa sin umbral.
type Product struct {
	ID        string
	CompanyID string
	SKU       string // código único por empresa
	Name      string
	Price     decimal.Decimal // precio de venta
	TaxRate   decimal.Decimal // 0, 0.05 (5%), 0.19 (19%)
	StockMin  decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}
