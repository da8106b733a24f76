package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/kardex-api/internal/domain"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
	"github.com/jhoicas/kardex-api/internal/domain/repository"
)

var _ repository.SaleRepository = (*SaleRepo)(nil)

// SaleRepo implementación de SaleRepository sobre PostgreSQL (usable con pool o tx).
type SaleRepo struct {
	q Querier
}

// NewSaleRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q}
}

// Create persiste cabecera, líneas y pago opcional. Debe llamarse dentro de la
// transacción del commit de venta. Una violación de la restricción única
// (company_id, idempotency_key) se traduce a domain.ErrDuplicate.
func (r *SaleRepo) Create(ctx context.Context, sale *entity.Sale, items []*entity.SaleItem, payment *entity.Payment) error {
	saleQuery := `
		INSERT INTO sales
			(id, company_id, customer_id, number, status, subtotal, tax_total,
			 discount, grand_total, idempotency_key, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, saleQuery,
		sale.ID, sale.CompanyID, nullable(sale.CustomerID), sale.Number, sale.Status,
		sale.Subtotal, sale.TaxTotal, sale.Discount, sale.GrandTotal,
		nullable(sale.IdempotencyKey), nullable(sale.CreatedBy), sale.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return dbErr("create sale", err)
	}

	itemQuery := `
		INSERT INTO sale_items
			(id, sale_id, product_id, quantity, unit_price, discount, tax_rate, subtotal)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	for _, item := range items {
		if _, err := r.q.Exec(ctx, itemQuery,
			item.ID, item.SaleID, item.ProductID, item.Quantity,
			item.UnitPrice, item.Discount, item.TaxRate, item.Subtotal,
		); err != nil {
			return dbErr("create sale item", err)
		}
	}

	if payment != nil {
		paymentQuery := `
			INSERT INTO payments (id, sale_id, method, amount, paid_at)
			VALUES ($1, $2, $3, $4, $5)`
		if _, err := r.q.Exec(ctx, paymentQuery,
			payment.ID, payment.SaleID, payment.Method, payment.Amount, payment.PaidAt,
		); err != nil {
			return dbErr("create payment", err)
		}
	}
	return nil
}

const saleColumns = `id, company_id, customer_id, number, status, subtotal, tax_total,
	discount, grand_total, idempotency_key, created_by, created_at`

// GetByID obtiene una venta por ID (nil si no existe).
func (r *SaleRepo) GetByID(ctx context.Context, id string) (*entity.Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM sales WHERE id = $1`
	return r.scanSale(r.q.QueryRow(ctx, query, id))
}

// GetByIdempotencyKey devuelve la venta creada con esa clave (nil si no hay).
func (r *SaleRepo) GetByIdempotencyKey(ctx context.Context, companyID, key string) (*entity.Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM sales WHERE company_id = $1 AND idempotency_key = $2`
	return r.scanSale(r.q.QueryRow(ctx, query, companyID, key))
}

func (r *SaleRepo) scanSale(row pgx.Row) (*entity.Sale, error) {
	var s entity.Sale
	var customerID, idempotencyKey, createdBy *string
	err := row.Scan(&s.ID, &s.CompanyID, &customerID, &s.Number, &s.Status,
		&s.Subtotal, &s.TaxTotal, &s.Discount, &s.GrandTotal,
		&idempotencyKey, &createdBy, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, dbErr("get sale", err)
	}
	s.CustomerID = deref(customerID)
	s.IdempotencyKey = deref(idempotencyKey)
	s.CreatedBy = deref(createdBy)
	return &s, nil
}

// GetItemsBySaleID obtiene las líneas de una venta.
func (r *SaleRepo) GetItemsBySaleID(ctx context.Context, saleID string) ([]*entity.SaleItem, error) {
	query := `
		SELECT id, sale_id, product_id, quantity, unit_price, discount, tax_rate, subtotal
		FROM sale_items WHERE sale_id = $1
		ORDER BY id`
	rows, err := r.q.Query(ctx, query, saleID)
	if err != nil {
		return nil, dbErr("list sale items", err)
	}
	defer rows.Close()
	var list []*entity.SaleItem
	for rows.Next() {
		var item entity.SaleItem
		if err := rows.Scan(&item.ID, &item.SaleID, &item.ProductID, &item.Quantity,
			&item.UnitPrice, &item.Discount, &item.TaxRate, &item.Subtotal); err != nil {
			return nil, dbErr("scan sale item", err)
		}
		list = append(list, &item)
	}
	return list, rows.Err()
}
