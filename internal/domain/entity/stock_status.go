package entity

import "github.com/shopspring/decimal"

// Estado de stock derivado. Nunca se persiste: se recalcula en cada consulta
// a partir de la cantidad viva y el stock_min del producto.
type StockStatus string

const (
	StockStatusOK    StockStatus = "OK"
	StockStatusLow   StockStatus = "LOW_STOCK"
	StockStatusEmpty StockStatus = "OUT_OF_STOCK"
)

// DeriveStockStatus calcula el estado: OUT_OF_STOCK si qty <= 0,
// LOW_STOCK si 0 < qty < stockMin (con stockMin > 0), OK en el resto.
func DeriveStockStatus(quantity, stockMin decimal.Decimal) StockStatus {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return StockStatusEmpty
	}
	if stockMin.GreaterThan(decimal.Zero) && quantity.LessThan(stockMin) {
		return StockStatusLow
	}
	return StockStatusOK
}
