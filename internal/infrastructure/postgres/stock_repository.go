package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
	"github.com/jhoicas/kardex-api/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

const stockColumns = `id, company_id, product_id, warehouse_id, quantity, reserved, meta, updated_at`

// Get obtiene el stock actual de un producto en una bodega. Si la fila no
// existe todavía, devuelve una entidad en cero (la fila se crea perezosamente
// en el primer movimiento).
func (r *StockRepo) Get(ctx context.Context, companyID, productID, warehouseID string) (*entity.Stock, error) {
	query := `
		SELECT ` + stockColumns + `
		FROM stock WHERE company_id = $1 AND product_id = $2 AND warehouse_id = $3`
	s, err := scanStock(r.q.QueryRow(ctx, query, companyID, productID, warehouseID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return zeroStock(companyID, productID, warehouseID), nil
		}
		return nil, dbErr("get stock", err)
	}
	return s, nil
}

// GetForUpdate obtiene el stock y bloquea la fila (SELECT FOR UPDATE). Si no
// existe, la crea con cantidad 0 dentro de la transacción y la bloquea: el lock
// queda tomado también para el primer movimiento de la pareja producto-bodega.
func (r *StockRepo) GetForUpdate(ctx context.Context, companyID, productID, warehouseID string) (*entity.Stock, error) {
	s, err := r.lockRow(ctx, companyID, productID, warehouseID)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, dbErr("get stock for update", err)
	}
	insert := `
		INSERT INTO stock (company_id, product_id, warehouse_id, quantity, reserved, meta, updated_at)
		VALUES ($1, $2, $3, 0, 0, '{}'::jsonb, now())
		ON CONFLICT (company_id, product_id, warehouse_id) DO NOTHING`
	if _, err := r.q.Exec(ctx, insert, companyID, productID, warehouseID); err != nil {
		return nil, dbErr("create stock row", err)
	}
	s, err = r.lockRow(ctx, companyID, productID, warehouseID)
	if err != nil {
		return nil, dbErr("get stock for update", err)
	}
	return s, nil
}

func (r *StockRepo) lockRow(ctx context.Context, companyID, productID, warehouseID string) (*entity.Stock, error) {
	query := `
		SELECT ` + stockColumns + `
		FROM stock WHERE company_id = $1 AND product_id = $2 AND warehouse_id = $3
		FOR UPDATE`
	return scanStock(r.q.QueryRow(ctx, query, companyID, productID, warehouseID))
}

// ListByProductForUpdate bloquea todas las filas de stock del producto en el
// orden canónico global (warehouse_id ascendente, el mismo que usan los
// traslados): ventas y traslados concurrentes sobre el mismo producto nunca
// adquieren los locks en órdenes opuestos, y el consumo greedy queda determinista.
func (r *StockRepo) ListByProductForUpdate(ctx context.Context, companyID, productID string) ([]*entity.Stock, error) {
	query := `
		SELECT ` + stockColumns + `
		FROM stock WHERE company_id = $1 AND product_id = $2
		ORDER BY warehouse_id ASC
		FOR UPDATE`
	rows, err := r.q.Query(ctx, query, companyID, productID)
	if err != nil {
		return nil, dbErr("list stock for update", err)
	}
	defer rows.Close()
	var list []*entity.Stock
	for rows.Next() {
		s, err := scanStock(rows)
		if err != nil {
			return nil, dbErr("scan stock", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// Upsert inserta o actualiza cantidad/reservado (por empresa, producto y bodega).
func (r *StockRepo) Upsert(ctx context.Context, stock *entity.Stock) error {
	meta := stock.Meta
	if meta == nil {
		meta = map[string]string{}
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return dbErr("marshal stock meta", err)
	}
	query := `
		INSERT INTO stock (company_id, product_id, warehouse_id, quantity, reserved, meta, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (company_id, product_id, warehouse_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, reserved = EXCLUDED.reserved,
		              meta = EXCLUDED.meta, updated_at = now()`
	_, err = r.q.Exec(ctx, query,
		stock.CompanyID, stock.ProductID, stock.WarehouseID,
		stock.Quantity, stock.Reserved, metaJSON,
	)
	if err != nil {
		return dbErr("upsert stock", err)
	}
	return nil
}

// AggregateByProduct suma cantidad y reservado del producto en todas las bodegas.
func (r *StockRepo) AggregateByProduct(ctx context.Context, companyID, productID string) (decimal.Decimal, decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(quantity), 0), COALESCE(SUM(reserved), 0)
		FROM stock WHERE company_id = $1 AND product_id = $2`
	var quantity, reserved decimal.Decimal
	err := r.q.QueryRow(ctx, query, companyID, productID).Scan(&quantity, &reserved)
	if err != nil {
		return decimal.Zero, decimal.Zero, dbErr("aggregate stock", err)
	}
	return quantity, reserved, nil
}

func zeroStock(companyID, productID, warehouseID string) *entity.Stock {
	return &entity.Stock{
		CompanyID:   companyID,
		ProductID:   productID,
		WarehouseID: warehouseID,
		Quantity:    decimal.Zero,
		Reserved:    decimal.Zero,
	}
}

func scanStock(row pgx.Row) (*entity.Stock, error) {
	var s entity.Stock
	var metaJSON []byte
	if err := row.Scan(&s.ID, &s.CompanyID, &s.ProductID, &s.WarehouseID,
		&s.Quantity, &s.Reserved, &metaJSON, &s.UpdatedAt); err != nil {
		return nil, err
	}
	if len(metaJSON) > 0 {
		_ = json.Unmarshal(metaJSON, &s.Meta)
	}
	return &s, nil
}
