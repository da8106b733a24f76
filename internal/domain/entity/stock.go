package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Stock representa la existencia actual de un producto en una bodega.
// Fila única por (company_id, product_id, warehouse_id); se crea perezosamente
// con cantidad 0 en el primer movimiento y nunca se elimina.
// Quantity nunca se persiste negativa; Reserved es lo apartado para pedidos pendientes.
type Stock struct {
	ID          int64
	CompanyID   string
	ProductID   string
	WarehouseID string
	Quantity    decimal.Decimal
	Reserved    decimal.Decimal
	Meta        map[string]string
	UpdatedAt   time.Time
}

// Available devuelve la cantidad disponible para venta (quantity - reserved).
func (s *Stock) Available() decimal.Decimal {
	return s.Quantity.Sub(s.Reserved)
}
