package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/jhoicas/kardex-api/internal/application/dto"
	"github.com/jhoicas/kardex-api/internal/application/inventory"
	"github.com/jhoicas/kardex-api/internal/domain"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
	"github.com/jhoicas/kardex-api/internal/domain/repository"
	"github.com/jhoicas/kardex-api/pkg/logger"
)

// Config parámetros del commit de ventas.
type Config struct {
	// DefaultTaxRate tasa de impuesto por defecto de la empresa (fracción).
	DefaultTaxRate decimal.Decimal
}

// errDuplicateSale señal interna: la restricción única de idempotencia saltó al
// insertar; la venta ya existe y hay que devolver la original.
var errDuplicateSale = errors.New("venta duplicada por clave de idempotencia")

// CreateSaleUseCase orquesta los efectos atómicos de una venta: deduplicación
// por clave de idempotencia, validación de disponibilidad, precios con
// redondeo a 2 decimales, consumo de stock multi-bodega vía el motor de
// inventario (cada descuento queda en el kardex con referencia a la venta),
// persistencia de venta/líneas/pago y evento SaleCreated. Todo o nada.
type CreateSaleUseCase struct {
	txRunner    SaleTxRunner
	inventoryUC InventoryUseCase
	productRepo repository.ProductRepository
	stockRepo   repository.StockRepository
	saleRepo    repository.SaleRepository
	cache       IdempotencyCache
	publisher   inventory.EventPublisher
	cfg         Config
	log         *logger.Logger
}

// NewCreateSaleUseCase construye el caso de uso.
func NewCreateSaleUseCase(
	txRunner SaleTxRunner,
	inventoryUC InventoryUseCase,
	productRepo repository.ProductRepository,
	stockRepo repository.StockRepository,
	saleRepo repository.SaleRepository,
	cache IdempotencyCache,
	publisher inventory.EventPublisher,
	cfg Config,
	log *logger.Logger,
) *CreateSaleUseCase {
	return &CreateSaleUseCase{
		txRunner:    txRunner,
		inventoryUC: inventoryUC,
		productRepo: productRepo,
		stockRepo:   stockRepo,
		saleRepo:    saleRepo,
		cache:       cache,
		publisher:   publisher,
		cfg:         cfg,
		log:         log.WithComponent("sale-commit"),
	}
}

// lowStockCheck verificación diferida hasta después del commit.
type lowStockCheck struct {
	product     *entity.Product
	warehouseID string
	afterQty    decimal.Decimal
}

// CreateSale crea la venta. Si la clave de idempotencia ya fue usada dentro de
// la ventana del cache (o ya existe en DB), devuelve la venta original sin
// repetir ningún efecto.
func (uc *CreateSaleUseCase) CreateSale(ctx context.Context, companyID, userID string, in dto.CreateSaleRequest) (*dto.SaleResponse, error) {
	if companyID == "" || userID == "" || len(in.Items) == 0 {
		return nil, domain.ErrInvalidInput
	}
	if in.Discount.LessThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}

	// Deduplicación: primero el cache (TTL corto), luego el respaldo durable en DB.
	if in.IdempotencyKey != "" {
		if existing, err := uc.findExisting(ctx, companyID, in.IdempotencyKey); err != nil {
			return nil, err
		} else if existing != nil {
			existing.Deduplicated = true
			return existing, nil
		}
	}

	// Validar productos y precios (fuera de la tx, solo lectura).
	productsByID := make(map[string]*entity.Product, len(in.Items))
	for i := range in.Items {
		item := &in.Items[i]
		if item.ProductID == "" || !item.Quantity.GreaterThan(decimal.Zero) {
			return nil, domain.ErrInvalidInput
		}
		if item.UnitPrice.LessThan(decimal.Zero) || item.Discount.LessThan(decimal.Zero) {
			return nil, domain.ErrInvalidInput
		}
		product, err := uc.productRepo.GetByID(ctx, item.ProductID)
		if err != nil || product == nil {
			return nil, domain.ErrNotFound
		}
		if product.CompanyID != companyID {
			return nil, domain.ErrForbidden
		}
		productsByID[item.ProductID] = product
		if item.UnitPrice.IsZero() {
			in.Items[i].UnitPrice = product.Price
		}
	}

	// Disponibilidad agregada por producto ANTES de mutar nada: si una línea no
	// alcanza, la venta completa se rechaza identificando el producto.
	required := make(map[string]decimal.Decimal, len(in.Items))
	for _, item := range in.Items {
		required[item.ProductID] = required[item.ProductID].Add(item.Quantity)
	}
	for productID, qty := range required {
		quantity, reserved, err := uc.stockRepo.AggregateByProduct(ctx, companyID, productID)
		if err != nil {
			return nil, err
		}
		available := quantity.Sub(reserved)
		if available.LessThan(qty) {
			return nil, domain.NewInsufficientStock(productID, "", available, qty)
		}
	}

	taxRate := uc.effectiveTaxRate(in.TaxRate)
	now := time.Now()
	saleID := uuid.New().String()
	number := in.Number
	if number == "" {
		number = fmt.Sprintf("POS-%d", now.Unix())
	}

	// Precios: cada valor monetario se redondea a 2 decimales en el momento del
	// cómputo, no al final.
	var subtotal decimal.Decimal
	items := make([]*entity.SaleItem, 0, len(in.Items))
	for _, item := range in.Items {
		lineSubtotal := item.Quantity.Mul(item.UnitPrice).Sub(item.Discount).Round(2)
		// El descuento de línea no puede exceder el monto de la línea.
		if lineSubtotal.IsNegative() {
			return nil, domain.ErrInvalidInput
		}
		subtotal = subtotal.Add(lineSubtotal)
		items = append(items, &entity.SaleItem{
			ID:        uuid.New().String(),
			SaleID:    saleID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Discount:  item.Discount,
			TaxRate:   taxRate,
			Subtotal:  lineSubtotal,
		})
	}
	taxTotal := subtotal.Mul(taxRate).Round(2)
	grandTotal := subtotal.Add(taxTotal).Sub(in.Discount).Round(2)
	// El descuento de orden no puede exceder el total de la venta.
	if grandTotal.IsNegative() {
		return nil, domain.ErrInvalidInput
	}

	sale := &entity.Sale{
		ID:             saleID,
		CompanyID:      companyID,
		CustomerID:     in.CustomerID,
		Number:         number,
		Status:         entity.SaleStatusCompleted,
		Subtotal:       subtotal,
		TaxTotal:       taxTotal,
		Discount:       in.Discount,
		GrandTotal:     grandTotal,
		IdempotencyKey: in.IdempotencyKey,
		CreatedBy:      userID,
		CreatedAt:      now,
	}

	var payment *entity.Payment
	if in.Payment != nil {
		if in.Payment.Amount.LessThan(decimal.Zero) || in.Payment.Method == "" {
			return nil, domain.ErrInvalidInput
		}
		payment = &entity.Payment{
			ID:     uuid.New().String(),
			SaleID: saleID,
			Method: in.Payment.Method,
			Amount: in.Payment.Amount,
			PaidAt: now,
		}
	}

	reference := entity.Reference{Kind: entity.ReferenceSale, ID: saleID}
	var checks []lowStockCheck

	err := uc.txRunner.RunSale(ctx, func(
		movRepo repository.StockMovementRepository,
		stockRepo repository.StockRepository,
		saleRepo repository.SaleRepository,
	) error {
		// Consumo por línea: filas de stock del producto bloqueadas en el orden
		// canónico (warehouse id ascendente, el mismo de los traslados),
		// descontando cada fila vía el motor de inventario para que el kardex
		// quede completo.
		for productID, qty := range required {
			remaining := qty
			rows, err := stockRepo.ListByProductForUpdate(ctx, companyID, productID)
			if err != nil {
				return err
			}
			for _, row := range rows {
				if !remaining.GreaterThan(decimal.Zero) {
					break
				}
				available := row.Available()
				if !available.GreaterThan(decimal.Zero) {
					continue
				}
				take := decimal.Min(remaining, available)
				mov, err := uc.inventoryUC.RegisterMovementInTx(ctx, movRepo, stockRepo, inventory.MovementInput{
					CompanyID:   companyID,
					UserID:      userID,
					ProductID:   productID,
					WarehouseID: row.WarehouseID,
					Type:        entity.MovementTypeSALE,
					Quantity:    take,
					Reference:   reference,
					Description: "venta " + number,
				}, now)
				if err != nil {
					return err
				}
				checks = append(checks, lowStockCheck{
					product:     productsByID[productID],
					warehouseID: row.WarehouseID,
					afterQty:    mov.AfterQty,
				})
				remaining = remaining.Sub(take)
			}
			// La disponibilidad pudo cambiar entre la validación y el bloqueo de filas.
			if remaining.GreaterThan(decimal.Zero) {
				return domain.NewInsufficientStock(productID, "", qty.Sub(remaining), qty)
			}
		}

		if err := saleRepo.Create(ctx, sale, items, payment); err != nil {
			if errors.Is(err, domain.ErrDuplicate) && in.IdempotencyKey != "" {
				// Otro reintento ganó la carrera: revertir el consumo y devolver la original.
				return errDuplicateSale
			}
			return err
		}
		return nil
	})
	if errors.Is(err, errDuplicateSale) {
		existing, findErr := uc.findExisting(ctx, companyID, in.IdempotencyKey)
		if findErr != nil || existing == nil {
			return nil, domain.ErrConflict
		}
		existing.Deduplicated = true
		return existing, nil
	}
	if err != nil {
		return nil, err
	}

	// Efectos post-commit, todos best-effort: cache de idempotencia, evento
	// SaleCreated y verificaciones de stock bajo. Ninguno revierte la venta.
	if in.IdempotencyKey != "" && uc.cache != nil {
		if err := uc.cache.StoreSaleID(ctx, companyID, in.IdempotencyKey, saleID); err != nil {
			uc.log.Warn().Err(err).Str("sale_id", saleID).Msg("no se pudo guardar clave de idempotencia en cache")
		}
	}
	if uc.publisher != nil {
		event := entity.SaleCreatedEvent{
			CompanyID:  companyID,
			SaleID:     saleID,
			Number:     number,
			GrandTotal: grandTotal,
			Items:      len(items),
			OccurredAt: now,
		}
		if err := uc.publisher.Publish(ctx, event); err != nil {
			uc.log.Warn().Err(err).Str("sale_id", saleID).Msg("no se pudo publicar evento de venta creada")
		}
	}
	notifier := uc.inventoryUC.Notifier()
	for _, check := range checks {
		notifier.Check(ctx, check.product, check.warehouseID, check.afterQty)
	}

	return toSaleResponse(sale, items), nil
}

// GetSale obtiene una venta por ID con sus líneas.
func (uc *CreateSaleUseCase) GetSale(ctx context.Context, companyID, id string) (*dto.SaleResponse, error) {
	sale, err := uc.saleRepo.GetByID(ctx, id)
	if err != nil || sale == nil {
		return nil, domain.ErrNotFound
	}
	if sale.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	items, err := uc.saleRepo.GetItemsBySaleID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toSaleResponse(sale, items), nil
}

// findExisting busca la venta ya creada con la clave: cache primero, DB después
// (el cache puede haber expirado; la restricción única no).
func (uc *CreateSaleUseCase) findExisting(ctx context.Context, companyID, key string) (*dto.SaleResponse, error) {
	if uc.cache != nil {
		saleID, err := uc.cache.GetSaleID(ctx, companyID, key)
		if err != nil {
			uc.log.Warn().Err(err).Msg("fallo consultando cache de idempotencia; se usa la DB")
		} else if saleID != "" {
			return uc.GetSale(ctx, companyID, saleID)
		}
	}
	sale, err := uc.saleRepo.GetByIdempotencyKey(ctx, companyID, key)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, nil
	}
	items, err := uc.saleRepo.GetItemsBySaleID(ctx, sale.ID)
	if err != nil {
		return nil, err
	}
	return toSaleResponse(sale, items), nil
}

// effectiveTaxRate resuelve la tasa: override del request o la por defecto.
// Acepta porcentajes (19) o fracciones (0.19) y normaliza a fracción.
func (uc *CreateSaleUseCase) effectiveTaxRate(override *decimal.Decimal) decimal.Decimal {
	rate := uc.cfg.DefaultTaxRate
	if override != nil && !override.LessThan(decimal.Zero) {
		rate = *override
	}
	if rate.GreaterThan(decimal.NewFromInt(1)) {
		rate = rate.Div(decimal.NewFromInt(100))
	}
	return rate
}

// toSaleResponse arma la respuesta; Deduplicated lo marca el caller cuando
// devuelve una venta ya existente.
func toSaleResponse(sale *entity.Sale, items []*entity.SaleItem) *dto.SaleResponse {
	resp := &dto.SaleResponse{
		ID:         sale.ID,
		CustomerID: sale.CustomerID,
		Number:     sale.Number,
		Status:     sale.Status,
		Subtotal:   sale.Subtotal,
		TaxTotal:   sale.TaxTotal,
		Discount:   sale.Discount,
		GrandTotal: sale.GrandTotal,
		CreatedAt:  sale.CreatedAt,
		Items:      make([]dto.SaleItemResponse, 0, len(items)),
	}
	for _, item := range items {
		resp.Items = append(resp.Items, dto.SaleItemResponse{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Discount:  item.Discount,
			TaxRate:   item.TaxRate,
			Subtotal:  item.Subtotal,
		})
	}
	return resp
}
