package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/kardex-api/internal/domain/entity"
	"github.com/jhoicas/kardex-api/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo implementación del kardex sobre PostgreSQL (usable con pool o tx).
// Solo INSERT y SELECT: las entradas son inmutables.
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

// Create persiste la entrada del kardex y asigna el consecutivo generado.
func (r *StockMovementRepo) Create(ctx context.Context, movement *entity.StockMovement) error {
	query := `
		INSERT INTO stock_movements
			(company_id, product_id, warehouse_id, movement_type, quantity,
			 before_qty, after_qty, reference_type, reference_id, description,
			 created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`
	warehouseID := nullable(movement.WarehouseID)
	referenceType := nullable(string(movement.Reference.Kind))
	referenceID := nullable(movement.Reference.ID)
	createdBy := nullable(movement.CreatedBy)

	err := r.q.QueryRow(ctx, query,
		movement.CompanyID, movement.ProductID, warehouseID,
		movement.Type, movement.Quantity, movement.BeforeQty, movement.AfterQty,
		referenceType, referenceID, nullable(movement.Description),
		createdBy, movement.CreatedAt,
	).Scan(&movement.ID)
	if err != nil {
		return dbErr("create stock movement", err)
	}
	return nil
}

// List devuelve el kardex filtrado por producto (y opcionalmente bodega y
// rango de fechas), ordenado por fecha de creación e id.
func (r *StockMovementRepo) List(ctx context.Context, filter repository.MovementFilter) ([]*entity.StockMovement, error) {
	query := `
		SELECT id, company_id, product_id, warehouse_id, movement_type, quantity,
		       before_qty, after_qty, reference_type, reference_id, description,
		       created_by, created_at
		FROM stock_movements WHERE company_id = $1 AND product_id = $2`
	args := []any{filter.CompanyID, filter.ProductID}
	pos := 3
	if filter.WarehouseID != "" {
		query += fmt.Sprintf(" AND warehouse_id = $%d", pos)
		args = append(args, filter.WarehouseID)
		pos++
	}
	if filter.DateFrom != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", pos)
		args = append(args, *filter.DateFrom)
		pos++
	}
	if filter.DateTo != nil {
		query += fmt.Sprintf(" AND created_at <= $%d", pos)
		args = append(args, *filter.DateTo)
		pos++
	}
	order := "DESC"
	if filter.Ascending {
		order = "ASC"
	}
	query += fmt.Sprintf(" ORDER BY created_at %s, id %s LIMIT $%d OFFSET $%d", order, order, pos, pos+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, dbErr("list stock movements", err)
	}
	defer rows.Close()
	var list []*entity.StockMovement
	for rows.Next() {
		var m entity.StockMovement
		var warehouseID, referenceType, referenceID, description, createdBy *string
		if err := rows.Scan(&m.ID, &m.CompanyID, &m.ProductID, &warehouseID,
			&m.Type, &m.Quantity, &m.BeforeQty, &m.AfterQty,
			&referenceType, &referenceID, &description, &createdBy, &m.CreatedAt); err != nil {
			return nil, dbErr("scan stock movement", err)
		}
		m.WarehouseID = deref(warehouseID)
		m.Reference = entity.Reference{
			Kind: entity.ReferenceKind(deref(referenceType)),
			ID:   deref(referenceID),
		}
		m.Description = deref(description)
		m.CreatedBy = deref(createdBy)
		list = append(list, &m)
	}
	return list, rows.Err()
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
