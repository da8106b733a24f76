package inventory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/jhoicas/kardex-api/internal/domain"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
	"github.com/jhoicas/kardex-api/internal/domain/repository"
	"github.com/jhoicas/kardex-api/pkg/logger"
)

// Engine es el único escritor de stock y kardex. Registra movimientos de forma
// transaccional con bloqueo de fila (SELECT FOR UPDATE) y Commit/Rollback:
// callers concurrentes sobre la misma (empresa, producto, bodega) se serializan
// detrás del lock, sin updates perdidos ni stock negativo.
type Engine struct {
	txRunner      TxRunner
	stockRepo     repository.StockRepository
	movementRepo  repository.StockMovementRepository
	productRepo   repository.ProductRepository
	warehouseRepo repository.WarehouseRepository
	notifier      *Notifier
	log           *logger.Logger
}

// NewEngine construye el motor de inventario.
func NewEngine(
	txRunner TxRunner,
	stockRepo repository.StockRepository,
	movementRepo repository.StockMovementRepository,
	productRepo repository.ProductRepository,
	warehouseRepo repository.WarehouseRepository,
	notifier *Notifier,
	log *logger.Logger,
) *Engine {
	return &Engine{
		txRunner:      txRunner,
		stockRepo:     stockRepo,
		movementRepo:  movementRepo,
		productRepo:   productRepo,
		warehouseRepo: warehouseRepo,
		notifier:      notifier,
		log:           log.WithComponent("inventory-engine"),
	}
}

// MovementInput entrada para registrar un movimiento.
// Quantity lleva signo; para tipos de salida (out, sale, transfer_out) una
// magnitud positiva se normaliza a negativa (la dirección la implica el tipo).
type MovementInput struct {
	CompanyID   string
	UserID      string
	ProductID   string
	WarehouseID string
	Type        string
	Quantity    decimal.Decimal
	Reference   entity.Reference
	Description string
}

// TransferInput entrada para trasladar stock entre bodegas.
type TransferInput struct {
	CompanyID       string
	UserID          string
	ProductID       string
	FromWarehouseID string
	ToWarehouseID   string
	Quantity        decimal.Decimal
	Description     string
}

// TransferResult las dos entradas del kardex generadas por un traslado.
type TransferResult struct {
	Out *entity.StockMovement
	In  *entity.StockMovement
}

// StockSummary cantidad actual de un producto (por bodega o agregada).
type StockSummary struct {
	ProductID   string
	WarehouseID string // vacío = agregado de todas las bodegas
	Quantity    decimal.Decimal
	Reserved    decimal.Decimal
	Available   decimal.Decimal
}

// StatusResult estado de stock derivado (nunca persistido).
type StatusResult struct {
	Status    entity.StockStatus
	Quantity  decimal.Decimal
	Available decimal.Decimal
	Reserved  decimal.Decimal
	StockMin  decimal.Decimal
}

// HistoryInput filtros para el kardex de un producto.
type HistoryInput struct {
	CompanyID   string
	ProductID   string
	WarehouseID string
	DateFrom    *time.Time
	DateTo      *time.Time
	Ascending   bool
	Limit       int
	Offset      int
}

// LowStockRow fila del reporte de stock bajo.
type LowStockRow struct {
	ProductID    string
	ProductName  string
	SKU          string
	CurrentStock decimal.Decimal
	StockMin     decimal.Decimal
	Status       entity.StockStatus
}

// RegisterMovement valida, inicia una transacción, bloquea la fila de stock,
// verifica el invariante quantity >= 0 y persiste stock + entrada del kardex.
// Tras el commit dispara la verificación de stock bajo (best-effort).
func (e *Engine) RegisterMovement(ctx context.Context, input MovementInput) (*entity.StockMovement, error) {
	signed, err := normalizeSigned(input.Type, input.Quantity)
	if err != nil {
		return nil, err
	}
	if !input.Reference.Valid() {
		return nil, domain.ErrInvalidMovement
	}
	product, err := e.resolveProduct(ctx, input.CompanyID, input.ProductID)
	if err != nil {
		return nil, err
	}
	if _, err := e.resolveWarehouse(ctx, input.CompanyID, input.WarehouseID); err != nil {
		return nil, err
	}

	now := time.Now()
	var mov *entity.StockMovement
	err = e.txRunner.Run(ctx, func(
		movRepo repository.StockMovementRepository,
		stockRepo repository.StockRepository,
	) error {
		mov, err = e.applyMovement(ctx, movRepo, stockRepo, applySpec{
			companyID:   input.CompanyID,
			productID:   input.ProductID,
			warehouseID: input.WarehouseID,
			movType:     input.Type,
			signed:      signed,
			reference:   input.Reference,
			description: input.Description,
			userID:      input.UserID,
			now:         now,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	// Fuera de la transacción: un fallo del notificador no revierte el movimiento.
	e.notifier.Check(ctx, product, input.WarehouseID, mov.AfterQty)
	return mov, nil
}

// RegisterMovementInTx aplica un movimiento usando repositorios atados a la
// transacción del caller (mismo primitivo que RegisterMovement, sin abrir tx
// propia). Lo usa el commit de ventas para que cada descuento de stock quede en
// el kardex con referencia a la venta. El caller es responsable de la
// verificación de stock bajo después de su commit.
func (e *Engine) RegisterMovementInTx(
	ctx context.Context,
	movRepo repository.StockMovementRepository,
	stockRepo repository.StockRepository,
	input MovementInput,
	now time.Time,
) (*entity.StockMovement, error) {
	signed, err := normalizeSigned(input.Type, input.Quantity)
	if err != nil {
		return nil, err
	}
	if !input.Reference.Valid() {
		return nil, domain.ErrInvalidMovement
	}
	return e.applyMovement(ctx, movRepo, stockRepo, applySpec{
		companyID:   input.CompanyID,
		productID:   input.ProductID,
		warehouseID: input.WarehouseID,
		movType:     input.Type,
		signed:      signed,
		reference:   input.Reference,
		description: input.Description,
		userID:      input.UserID,
		now:         now,
	})
}

// Transfer descuenta en la bodega origen y acredita en la destino dentro de UNA
// sola transacción: un fallo a mitad de traslado no deja débito sin crédito.
// Las filas se bloquean en orden canónico (warehouse id ascendente) para evitar
// deadlocks entre traslados cruzados.
func (e *Engine) Transfer(ctx context.Context, input TransferInput) (*TransferResult, error) {
	if input.FromWarehouseID == "" || input.ToWarehouseID == "" ||
		input.FromWarehouseID == input.ToWarehouseID ||
		!input.Quantity.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidMovement
	}
	product, err := e.resolveProduct(ctx, input.CompanyID, input.ProductID)
	if err != nil {
		return nil, err
	}
	if _, err := e.resolveWarehouse(ctx, input.CompanyID, input.FromWarehouseID); err != nil {
		return nil, err
	}
	if _, err := e.resolveWarehouse(ctx, input.CompanyID, input.ToWarehouseID); err != nil {
		return nil, err
	}

	now := time.Now()
	reference := entity.Reference{Kind: entity.ReferenceTransfer, ID: uuid.New().String()}
	result := &TransferResult{}

	err = e.txRunner.Run(ctx, func(
		movRepo repository.StockMovementRepository,
		stockRepo repository.StockRepository,
	) error {
		// Bloqueo en orden canónico; applyMovement re-lee las filas ya bloqueadas.
		first, second := input.FromWarehouseID, input.ToWarehouseID
		if strings.Compare(second, first) < 0 {
			first, second = second, first
		}
		if _, err := stockRepo.GetForUpdate(ctx, input.CompanyID, input.ProductID, first); err != nil {
			return err
		}
		if _, err := stockRepo.GetForUpdate(ctx, input.CompanyID, input.ProductID, second); err != nil {
			return err
		}

		out, err := e.applyMovement(ctx, movRepo, stockRepo, applySpec{
			companyID:   input.CompanyID,
			productID:   input.ProductID,
			warehouseID: input.FromWarehouseID,
			movType:     entity.MovementTypeTransferOUT,
			signed:      input.Quantity.Neg(),
			reference:   reference,
			description: input.Description,
			userID:      input.UserID,
			now:         now,
		})
		if err != nil {
			return err
		}
		in, err := e.applyMovement(ctx, movRepo, stockRepo, applySpec{
			companyID:   input.CompanyID,
			productID:   input.ProductID,
			warehouseID: input.ToWarehouseID,
			movType:     entity.MovementTypeTransferIN,
			signed:      input.Quantity,
			reference:   reference,
			description: input.Description,
			userID:      input.UserID,
			now:         now,
		})
		if err != nil {
			return err
		}
		result.Out, result.In = out, in
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.notifier.Check(ctx, product, input.FromWarehouseID, result.Out.AfterQty)
	return result, nil
}

// CurrentStock devuelve cantidad/reservado/disponible de un producto.
// Con warehouseID vacío agrega todas las bodegas. Lectura sin bloqueo:
// eventualmente consistente frente a escritores en vuelo.
func (e *Engine) CurrentStock(ctx context.Context, companyID, productID, warehouseID string) (*StockSummary, error) {
	if _, err := e.resolveProduct(ctx, companyID, productID); err != nil {
		return nil, err
	}
	summary := &StockSummary{ProductID: productID, WarehouseID: warehouseID}
	if warehouseID != "" {
		stock, err := e.stockRepo.Get(ctx, companyID, productID, warehouseID)
		if err != nil {
			return nil, err
		}
		summary.Quantity = stock.Quantity
		summary.Reserved = stock.Reserved
	} else {
		quantity, reserved, err := e.stockRepo.AggregateByProduct(ctx, companyID, productID)
		if err != nil {
			return nil, err
		}
		summary.Quantity = quantity
		summary.Reserved = reserved
	}
	summary.Available = summary.Quantity.Sub(summary.Reserved)
	return summary, nil
}

// StockStatus deriva el estado (OK / LOW_STOCK / OUT_OF_STOCK) de la cantidad
// viva contra el stock_min configurado del producto. Se recalcula en cada llamada.
func (e *Engine) StockStatus(ctx context.Context, companyID, productID, warehouseID string) (*StatusResult, error) {
	product, err := e.resolveProduct(ctx, companyID, productID)
	if err != nil {
		return nil, err
	}
	summary, err := e.CurrentStock(ctx, companyID, productID, warehouseID)
	if err != nil {
		return nil, err
	}
	return &StatusResult{
		Status:    entity.DeriveStockStatus(summary.Quantity, product.StockMin),
		Quantity:  summary.Quantity,
		Available: summary.Available,
		Reserved:  summary.Reserved,
		StockMin:  product.StockMin,
	}, nil
}

// History devuelve el kardex del producto con filtros de bodega y fechas,
// ordenado por fecha de creación ascendente o descendente.
func (e *Engine) History(ctx context.Context, input HistoryInput) ([]*entity.StockMovement, error) {
	if _, err := e.resolveProduct(ctx, input.CompanyID, input.ProductID); err != nil {
		return nil, err
	}
	limit := input.Limit
	if limit <= 0 {
		limit = 50
	}
	return e.movementRepo.List(ctx, repository.MovementFilter{
		CompanyID:   input.CompanyID,
		ProductID:   input.ProductID,
		WarehouseID: input.WarehouseID,
		DateFrom:    input.DateFrom,
		DateTo:      input.DateTo,
		Ascending:   input.Ascending,
		Limit:       limit,
		Offset:      input.Offset,
	})
}

// LowStockReport lista los productos con stock_min configurado que están en
// LOW_STOCK u OUT_OF_STOCK. Una sola consulta agregada, no un CurrentStock por producto.
func (e *Engine) LowStockReport(ctx context.Context, companyID string) ([]LowStockRow, error) {
	items, err := e.productRepo.ListBelowStockMin(ctx, companyID)
	if err != nil {
		return nil, err
	}
	rows := make([]LowStockRow, 0, len(items))
	for _, item := range items {
		rows = append(rows, LowStockRow{
			ProductID:    item.ProductID,
			ProductName:  item.ProductName,
			SKU:          item.SKU,
			CurrentStock: item.CurrentStock,
			StockMin:     item.StockMin,
			Status:       entity.DeriveStockStatus(item.CurrentStock, item.StockMin),
		})
	}
	return rows, nil
}

// applySpec parámetros ya validados/normalizados del primitivo de aplicación.
type applySpec struct {
	companyID   string
	productID   string
	warehouseID string
	movType     string
	signed      decimal.Decimal
	reference   entity.Reference
	description string
	userID      string
	now         time.Time
}

// applyMovement es el primitivo central: bloquea (o crea) la fila de stock,
// calcula after = before + delta, rechaza si queda negativo y persiste la nueva
// cantidad junto con la entrada inmutable del kardex. Siempre dentro de la
// transacción de los repos recibidos.
func (e *Engine) applyMovement(
	ctx context.Context,
	movRepo repository.StockMovementRepository,
	stockRepo repository.StockRepository,
	spec applySpec,
) (*entity.StockMovement, error) {
	stock, err := stockRepo.GetForUpdate(ctx, spec.companyID, spec.productID, spec.warehouseID)
	if err != nil {
		return nil, err
	}
	before := stock.Quantity
	after := before.Add(spec.signed)
	if after.IsNegative() {
		return nil, domain.NewInsufficientStock(spec.productID, spec.warehouseID, before, spec.signed.Abs())
	}

	stock.Quantity = after
	stock.UpdatedAt = spec.now
	if err := stockRepo.Upsert(ctx, stock); err != nil {
		return nil, err
	}

	mov := &entity.StockMovement{
		CompanyID:   spec.companyID,
		ProductID:   spec.productID,
		WarehouseID: spec.warehouseID,
		Type:        spec.movType,
		Quantity:    spec.signed.Abs(),
		BeforeQty:   before,
		AfterQty:    after,
		Reference:   spec.reference,
		Description: spec.description,
		CreatedBy:   spec.userID,
		CreatedAt:   spec.now,
	}
	if err := movRepo.Create(ctx, mov); err != nil {
		return nil, err
	}
	return mov, nil
}

// normalizeSigned valida tipo y cantidad, y resuelve el signo según el tipo:
// out/sale/transfer_out restan (magnitud positiva se normaliza a negativa);
// in/return/transfer_in suman (negativo es inválido); adjustment respeta el signo.
func normalizeSigned(movementType string, qty decimal.Decimal) (decimal.Decimal, error) {
	if !entity.ValidMovementType(movementType) || qty.IsZero() {
		return decimal.Zero, domain.ErrInvalidMovement
	}
	if movementType == entity.MovementTypeADJUSTMENT {
		return qty, nil
	}
	if entity.MovementDirection(movementType) < 0 {
		if qty.GreaterThan(decimal.Zero) {
			return qty.Neg(), nil
		}
		return qty, nil
	}
	if qty.LessThan(decimal.Zero) {
		return decimal.Zero, domain.ErrInvalidMovement
	}
	return qty, nil
}

func (e *Engine) resolveProduct(ctx context.Context, companyID, productID string) (*entity.Product, error) {
	if companyID == "" || productID == "" {
		return nil, domain.ErrInvalidInput
	}
	product, err := e.productRepo.GetByID(ctx, productID)
	if err != nil || product == nil {
		return nil, domain.ErrNotFound
	}
	if product.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	return product, nil
}

func (e *Engine) resolveWarehouse(ctx context.Context, companyID, warehouseID string) (*entity.Warehouse, error) {
	if warehouseID == "" {
		return nil, domain.ErrInvalidInput
	}
	warehouse, err := e.warehouseRepo.GetByID(ctx, warehouseID)
	if err != nil || warehouse == nil {
		return nil, domain.ErrNotFound
	}
	if warehouse.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	return warehouse, nil
}

// Notifier expone el notificador para que el commit de ventas pueda disparar
// las verificaciones de stock bajo después de su propio commit.
func (e *Engine) Notifier() *Notifier {
	return e.notifier
}
