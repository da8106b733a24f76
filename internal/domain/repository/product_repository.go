package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
)

// LowStockItem resultado crudo de la consulta agregada de stock bajo.
type LowStockItem struct {
	ProductID    string
	SKU          string
	ProductName  string
	CurrentStock decimal.Decimal
	StockMin     decimal.Decimal
}

// ProductRepository puerto de lectura del catálogo de productos. El kardex
// nunca escribe sobre productos; solo consulta stock_min, precio e impuestos.
type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	// ListBelowStockMin devuelve, en una sola consulta agregada, los productos
	// de la empresa con stock_min > 0 cuyo stock total está por debajo del umbral
	// (incluye los agotados), ordenados por mayor déficit primero.
	ListBelowStockMin(ctx context.Context, companyID string) ([]LowStockItem, error)
}
