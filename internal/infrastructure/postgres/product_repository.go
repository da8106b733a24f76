package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
	"github.com/jhoicas/kardex-api/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo acceso de solo lectura al catálogo de productos.
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

// GetByID obtiene un producto por ID (nil si no existe).
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	query := `
		SELECT id, company_id, sku, name, price, tax_rate, stock_min, created_at, updated_at
		FROM products WHERE id = $1`
	var p entity.Product
	err := r.q.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.CompanyID, &p.SKU, &p.Name,
		&p.Price, &p.TaxRate, &p.StockMin, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, dbErr("get product", err)
	}
	return &p, nil
}

// ListBelowStockMin devuelve en una sola consulta agregada los productos con
// stock_min > 0 cuyo stock total (todas las bodegas) está por debajo del
// umbral, incluidos los agotados. Ordena por mayor déficit primero.
func (r *ProductRepo) ListBelowStockMin(ctx context.Context, companyID string) ([]repository.LowStockItem, error) {
	query := `
		SELECT
			p.id,
			p.sku,
			p.name,
			COALESCE(SUM(s.quantity), 0) AS current_stock,
			p.stock_min
		FROM products p
		LEFT JOIN stock s ON s.product_id = p.id AND s.company_id = p.company_id
		WHERE p.company_id = $1 AND p.stock_min > 0
		GROUP BY p.id, p.sku, p.name, p.stock_min
		HAVING COALESCE(SUM(s.quantity), 0) < p.stock_min
		ORDER BY p.stock_min - COALESCE(SUM(s.quantity), 0) DESC`
	rows, err := r.q.Query(ctx, query, companyID)
	if err != nil {
		return nil, dbErr("list products below stock_min", err)
	}
	defer rows.Close()
	var list []repository.LowStockItem
	for rows.Next() {
		var item repository.LowStockItem
		if err := rows.Scan(&item.ProductID, &item.SKU, &item.ProductName,
			&item.CurrentStock, &item.StockMin); err != nil {
			return nil, dbErr("scan low stock item", err)
		}
		list = append(list, item)
	}
	return list, rows.Err()
}
