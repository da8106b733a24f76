package sales_test

import (
	"context"
	"fmt"
	"sort"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/kardex-api/internal/application/dto"
	"github.com/jhoicas/kardex-api/internal/application/inventory"
	"github.com/jhoicas/kardex-api/internal/application/sales"
	"github.com/jhoicas/kardex-api/internal/domain"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
	"github.com/jhoicas/kardex-api/internal/domain/repository"
	"github.com/jhoicas/kardex-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes en memoria
// ──────────────────────────────────────────────────────────────────────────────

const (
	companyID  = "00000000-0000-0000-0000-00000000c001"
	userID     = "00000000-0000-0000-0000-00000000u001"
	cafeID     = "00000000-0000-0000-0000-00000000p001"
	azucarID   = "00000000-0000-0000-0000-00000000p002"
	warehouse1 = "00000000-0000-0000-0000-00000000w001"
	warehouse2 = "00000000-0000-0000-0000-00000000w002"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

type memStockRepo struct {
	nextID int64
	rows   map[string]*entity.Stock
}

func newMemStockRepo() *memStockRepo {
	return &memStockRepo{nextID: 1, rows: make(map[string]*entity.Stock)}
}

func key(companyID, productID, warehouseID string) string {
	return fmt.Sprintf("%s|%s|%s", companyID, productID, warehouseID)
}

// seed crea la fila de stock; el consumo sigue el orden canónico por bodega.
func (r *memStockRepo) seed(productID, warehouseID string, qty, reserved decimal.Decimal) {
	r.rows[key(companyID, productID, warehouseID)] = &entity.Stock{
		ID:          r.nextID,
		CompanyID:   companyID,
		ProductID:   productID,
		WarehouseID: warehouseID,
		Quantity:    qty,
		Reserved:    reserved,
	}
	r.nextID++
}

func (r *memStockRepo) snapshot() map[string]entity.Stock {
	snap := make(map[string]entity.Stock, len(r.rows))
	for k, v := range r.rows {
		snap[k] = *v
	}
	return snap
}

func (r *memStockRepo) restore(snap map[string]entity.Stock) {
	r.rows = make(map[string]*entity.Stock, len(snap))
	for k, v := range snap {
		row := v
		r.rows[k] = &row
	}
}

func (r *memStockRepo) Get(_ context.Context, companyID, productID, warehouseID string) (*entity.Stock, error) {
	if row, ok := r.rows[key(companyID, productID, warehouseID)]; ok {
		cp := *row
		return &cp, nil
	}
	return &entity.Stock{CompanyID: companyID, ProductID: productID, WarehouseID: warehouseID}, nil
}

func (r *memStockRepo) GetForUpdate(_ context.Context, companyID, productID, warehouseID string) (*entity.Stock, error) {
	k := key(companyID, productID, warehouseID)
	if _, ok := r.rows[k]; !ok {
		r.rows[k] = &entity.Stock{
			ID: r.nextID, CompanyID: companyID, ProductID: productID, WarehouseID: warehouseID,
		}
		r.nextID++
	}
	cp := *r.rows[k]
	return &cp, nil
}

func (r *memStockRepo) ListByProductForUpdate(_ context.Context, companyID, productID string) ([]*entity.Stock, error) {
	var rows []*entity.Stock
	for _, row := range r.rows {
		if row.CompanyID == companyID && row.ProductID == productID {
			cp := *row
			rows = append(rows, &cp)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].WarehouseID < rows[j].WarehouseID })
	return rows, nil
}

func (r *memStockRepo) Upsert(_ context.Context, stock *entity.Stock) error {
	k := key(stock.CompanyID, stock.ProductID, stock.WarehouseID)
	if existing, ok := r.rows[k]; ok {
		existing.Quantity = stock.Quantity
		existing.Reserved = stock.Reserved
		existing.UpdatedAt = stock.UpdatedAt
		return nil
	}
	cp := *stock
	cp.ID = r.nextID
	r.nextID++
	r.rows[k] = &cp
	return nil
}

func (r *memStockRepo) AggregateByProduct(_ context.Context, companyID, productID string) (decimal.Decimal, decimal.Decimal, error) {
	quantity, reserved := decimal.Zero, decimal.Zero
	for _, row := range r.rows {
		if row.CompanyID == companyID && row.ProductID == productID {
			quantity = quantity.Add(row.Quantity)
			reserved = reserved.Add(row.Reserved)
		}
	}
	return quantity, reserved, nil
}

func (r *memStockRepo) quantity(t *testing.T, productID, warehouseID string) decimal.Decimal {
	t.Helper()
	row, ok := r.rows[key(companyID, productID, warehouseID)]
	require.True(t, ok, "debe existir la fila de stock %s/%s", productID, warehouseID)
	return row.Quantity
}

type memMovementRepo struct {
	nextID    int64
	movements []*entity.StockMovement
}

func (r *memMovementRepo) Create(_ context.Context, movement *entity.StockMovement) error {
	r.nextID++
	movement.ID = r.nextID
	cp := *movement
	r.movements = append(r.movements, &cp)
	return nil
}

func (r *memMovementRepo) List(_ context.Context, _ repository.MovementFilter) ([]*entity.StockMovement, error) {
	return r.movements, nil
}

type memProductRepo struct {
	products map[string]*entity.Product
}

func (r *memProductRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	return r.products[id], nil
}

func (r *memProductRepo) ListBelowStockMin(_ context.Context, _ string) ([]repository.LowStockItem, error) {
	return nil, nil
}

type memWarehouseRepo struct{}

func (memWarehouseRepo) GetByID(_ context.Context, id string) (*entity.Warehouse, error) {
	return &entity.Warehouse{ID: id, CompanyID: companyID}, nil
}

type memSaleRepo struct {
	sales    map[string]*entity.Sale
	items    map[string][]*entity.SaleItem
	payments map[string]*entity.Payment
	// createErr fuerza el resultado del próximo Create (simula carrera de idempotencia).
	createErr error
}

func newMemSaleRepo() *memSaleRepo {
	return &memSaleRepo{
		sales:    make(map[string]*entity.Sale),
		items:    make(map[string][]*entity.SaleItem),
		payments: make(map[string]*entity.Payment),
	}
}

func (r *memSaleRepo) Create(_ context.Context, sale *entity.Sale, items []*entity.SaleItem, payment *entity.Payment) error {
	if r.createErr != nil {
		err := r.createErr
		r.createErr = nil
		return err
	}
	if sale.IdempotencyKey != "" {
		for _, existing := range r.sales {
			if existing.CompanyID == sale.CompanyID && existing.IdempotencyKey == sale.IdempotencyKey {
				return domain.ErrDuplicate
			}
		}
	}
	cp := *sale
	r.sales[sale.ID] = &cp
	r.items[sale.ID] = items
	if payment != nil {
		r.payments[sale.ID] = payment
	}
	return nil
}

func (r *memSaleRepo) GetByID(_ context.Context, id string) (*entity.Sale, error) {
	return r.sales[id], nil
}

func (r *memSaleRepo) GetItemsBySaleID(_ context.Context, saleID string) ([]*entity.SaleItem, error) {
	return r.items[saleID], nil
}

func (r *memSaleRepo) GetByIdempotencyKey(_ context.Context, companyID, key string) (*entity.Sale, error) {
	// Mientras hay una carrera simulada pendiente, la venta ganadora aún "no se
	// ve": se hace visible después del conflicto, como en la DB real.
	if r.createErr != nil {
		return nil, nil
	}
	for _, sale := range r.sales {
		if sale.CompanyID == companyID && sale.IdempotencyKey == key {
			return sale, nil
		}
	}
	return nil, nil
}

type memCache struct {
	entries map[string]string
}

func (c *memCache) GetSaleID(_ context.Context, companyID, key string) (string, error) {
	return c.entries[companyID+"|"+key], nil
}

func (c *memCache) StoreSaleID(_ context.Context, companyID, key, saleID string) error {
	c.entries[companyID+"|"+key] = saleID
	return nil
}

type capturePublisher struct {
	events []entity.DomainEvent
}

func (p *capturePublisher) Publish(_ context.Context, event entity.DomainEvent) error {
	p.events = append(p.events, event)
	return nil
}

// memTxRunner simula la transacción del commit de venta: si fn falla, stock,
// kardex y ventas vuelven al estado previo.
type memTxRunner struct {
	stockRepo    *memStockRepo
	movementRepo *memMovementRepo
	saleRepo     *memSaleRepo
}

func (r *memTxRunner) Run(_ context.Context, fn func(
	movRepo repository.StockMovementRepository,
	stockRepo repository.StockRepository,
) error) error {
	snap := r.stockRepo.snapshot()
	movCount := len(r.movementRepo.movements)
	if err := fn(r.movementRepo, r.stockRepo); err != nil {
		r.stockRepo.restore(snap)
		r.movementRepo.movements = r.movementRepo.movements[:movCount]
		return err
	}
	return nil
}

func (r *memTxRunner) RunSale(_ context.Context, fn func(
	movRepo repository.StockMovementRepository,
	stockRepo repository.StockRepository,
	saleRepo repository.SaleRepository,
) error) error {
	snap := r.stockRepo.snapshot()
	movCount := len(r.movementRepo.movements)
	if err := fn(r.movementRepo, r.stockRepo, r.saleRepo); err != nil {
		r.stockRepo.restore(snap)
		r.movementRepo.movements = r.movementRepo.movements[:movCount]
		return err
	}
	return nil
}

type saleFixture struct {
	uc        *sales.CreateSaleUseCase
	stocks    *memStockRepo
	movements *memMovementRepo
	saleRepo  *memSaleRepo
	cache     *memCache
	publisher *capturePublisher
}

func newSaleFixture() *saleFixture {
	stocks := newMemStockRepo()
	movements := &memMovementRepo{}
	saleRepo := newMemSaleRepo()
	products := &memProductRepo{products: map[string]*entity.Product{
		cafeID: {
			ID: cafeID, CompanyID: companyID, SKU: "SKU-001",
			Name: "Café molido 500g", Price: dec("1000"),
		},
		azucarID: {
			ID: azucarID, CompanyID: companyID, SKU: "SKU-002",
			Name: "Azúcar 1kg", Price: dec("250"), StockMin: dec("10"),
		},
	}}
	cache := &memCache{entries: make(map[string]string)}
	publisher := &capturePublisher{}
	log := logger.Nop()

	txRunner := &memTxRunner{stockRepo: stocks, movementRepo: movements, saleRepo: saleRepo}
	notifier := inventory.NewNotifier(publisher, log)
	engine := inventory.NewEngine(txRunner, stocks, movements, products, memWarehouseRepo{}, notifier, log)

	uc := sales.NewCreateSaleUseCase(
		txRunner, engine, products, stocks, saleRepo, cache, publisher,
		sales.Config{DefaultTaxRate: dec("0.19")}, log,
	)
	return &saleFixture{uc: uc, stocks: stocks, movements: movements, saleRepo: saleRepo, cache: cache, publisher: publisher}
}

func saleEvents(events []entity.DomainEvent) []entity.SaleCreatedEvent {
	var out []entity.SaleCreatedEvent
	for _, e := range events {
		if se, ok := e.(entity.SaleCreatedEvent); ok {
			out = append(out, se)
		}
	}
	return out
}

// ──────────────────────────────────────────────────────────────────────────────
// CreateSale
// ──────────────────────────────────────────────────────────────────────────────

func TestCreateSale_VentaSimpleDescuentaStockYCalculaTotales(t *testing.T) {
	f := newSaleFixture()
	f.stocks.seed(cafeID, warehouse1, dec("100"), decimal.Zero)

	resp, err := f.uc.CreateSale(context.Background(), companyID, userID, dto.CreateSaleRequest{
		IdempotencyKey: "idem-001",
		Items: []dto.SaleItemRequest{
			{ProductID: cafeID, Quantity: dec("2"), UnitPrice: dec("1000")},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, entity.SaleStatusCompleted, resp.Status)
	assert.True(t, resp.Subtotal.Equal(dec("2000")), "2 x 1000")
	assert.True(t, resp.TaxTotal.Equal(dec("380")), "19%% de 2000")
	assert.True(t, resp.GrandTotal.Equal(dec("2380")))
	assert.False(t, resp.Deduplicated)
	require.Len(t, resp.Items, 1)

	// Stock descontado y kardex con referencia a la venta.
	assert.True(t, f.stocks.quantity(t, cafeID, warehouse1).Equal(dec("98")))
	require.Len(t, f.movements.movements, 1)
	mov := f.movements.movements[0]
	assert.Equal(t, entity.MovementTypeSALE, mov.Type)
	assert.Equal(t, entity.ReferenceSale, mov.Reference.Kind)
	assert.Equal(t, resp.ID, mov.Reference.ID)
	assert.True(t, mov.Quantity.Equal(dec("2")))

	// Post-commit: cache de idempotencia y evento SaleCreated.
	assert.Equal(t, resp.ID, f.cache.entries[companyID+"|idem-001"])
	created := saleEvents(f.publisher.events)
	require.Len(t, created, 1)
	assert.Equal(t, resp.ID, created[0].SaleID)
}

// El consumo multi-bodega es determinista: filas en orden canónico por bodega,
// agotando cada una antes de pasar a la siguiente.
func TestCreateSale_ConsumoMultiBodegaEnOrden(t *testing.T) {
	f := newSaleFixture()
	f.stocks.seed(cafeID, warehouse1, dec("5"), decimal.Zero)
	f.stocks.seed(cafeID, warehouse2, dec("10"), decimal.Zero)

	resp, err := f.uc.CreateSale(context.Background(), companyID, userID, dto.CreateSaleRequest{
		Items: []dto.SaleItemRequest{
			{ProductID: cafeID, Quantity: dec("8"), UnitPrice: dec("1000")},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, resp)

	assert.True(t, f.stocks.quantity(t, cafeID, warehouse1).Equal(decimal.Zero), "la primera fila se agota")
	assert.True(t, f.stocks.quantity(t, cafeID, warehouse2).Equal(dec("7")), "la segunda aporta el resto")

	require.Len(t, f.movements.movements, 2)
	assert.Equal(t, warehouse1, f.movements.movements[0].WarehouseID)
	assert.True(t, f.movements.movements[0].Quantity.Equal(dec("5")))
	assert.Equal(t, warehouse2, f.movements.movements[1].WarehouseID)
	assert.True(t, f.movements.movements[1].Quantity.Equal(dec("3")))
}

// El orden de consumo es el canónico por bodega (el mismo con el que los
// traslados toman sus locks), no el orden de creación de las filas: sembrando
// la bodega 2 primero, la 1 se consume igualmente de primera.
func TestCreateSale_ConsumoSigueOrdenCanonicoDeBodega(t *testing.T) {
	f := newSaleFixture()
	f.stocks.seed(cafeID, warehouse2, dec("10"), decimal.Zero)
	f.stocks.seed(cafeID, warehouse1, dec("5"), decimal.Zero)

	_, err := f.uc.CreateSale(context.Background(), companyID, userID, dto.CreateSaleRequest{
		Items: []dto.SaleItemRequest{
			{ProductID: cafeID, Quantity: dec("8"), UnitPrice: dec("1000")},
		},
	})
	require.NoError(t, err)

	assert.True(t, f.stocks.quantity(t, cafeID, warehouse1).Equal(decimal.Zero),
		"la bodega 1 se agota primero aunque su fila se creó después")
	assert.True(t, f.stocks.quantity(t, cafeID, warehouse2).Equal(dec("7")))
	require.Len(t, f.movements.movements, 2)
	assert.Equal(t, warehouse1, f.movements.movements[0].WarehouseID)
	assert.Equal(t, warehouse2, f.movements.movements[1].WarehouseID)
}

// La venta completa se rechaza antes de mutar nada si un producto no alcanza.
func TestCreateSale_StockInsuficienteNoMutaNada(t *testing.T) {
	f := newSaleFixture()
	f.stocks.seed(cafeID, warehouse1, dec("3"), decimal.Zero)

	_, err := f.uc.CreateSale(context.Background(), companyID, userID, dto.CreateSaleRequest{
		Items: []dto.SaleItemRequest{
			{ProductID: cafeID, Quantity: dec("5"), UnitPrice: dec("1000")},
		},
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	var detail *domain.InsufficientStockError
	require.ErrorAs(t, err, &detail)
	assert.Equal(t, cafeID, detail.ProductID)
	assert.True(t, detail.Available.Equal(dec("3")))
	assert.True(t, detail.Requested.Equal(dec("5")))

	assert.True(t, f.stocks.quantity(t, cafeID, warehouse1).Equal(dec("3")))
	assert.Empty(t, f.movements.movements)
	assert.Empty(t, f.saleRepo.sales)
}

// El stock reservado no está disponible para venta.
func TestCreateSale_RespetaReservado(t *testing.T) {
	f := newSaleFixture()
	f.stocks.seed(cafeID, warehouse1, dec("10"), dec("4"))

	_, err := f.uc.CreateSale(context.Background(), companyID, userID, dto.CreateSaleRequest{
		Items: []dto.SaleItemRequest{
			{ProductID: cafeID, Quantity: dec("8"), UnitPrice: dec("1000")},
		},
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	var detail *domain.InsufficientStockError
	require.ErrorAs(t, err, &detail)
	assert.True(t, detail.Available.Equal(dec("6")), "disponible = 10 - 4 reservado")
}

// Reintento con la misma clave dentro de la ventana del cache: devuelve la
// venta original sin repetir ningún efecto.
func TestCreateSale_IdempotenciaPorCache(t *testing.T) {
	f := newSaleFixture()
	f.stocks.seed(cafeID, warehouse1, dec("100"), decimal.Zero)

	req := dto.CreateSaleRequest{
		IdempotencyKey: "idem-retry",
		Items: []dto.SaleItemRequest{
			{ProductID: cafeID, Quantity: dec("2"), UnitPrice: dec("1000")},
		},
	}
	first, err := f.uc.CreateSale(context.Background(), companyID, userID, req)
	require.NoError(t, err)

	second, err := f.uc.CreateSale(context.Background(), companyID, userID, req)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.True(t, second.Deduplicated, "el reintento debe marcarse como deduplicado")
	assert.True(t, f.stocks.quantity(t, cafeID, warehouse1).Equal(dec("98")), "el stock se descuenta una sola vez")
	assert.Len(t, f.movements.movements, 1)
	assert.Len(t, saleEvents(f.publisher.events), 1, "el evento se publica una sola vez")
}

// Si el cache expiró, la restricción única en DB sigue deduplicando.
func TestCreateSale_IdempotenciaDurableSinCache(t *testing.T) {
	f := newSaleFixture()
	f.stocks.seed(cafeID, warehouse1, dec("100"), decimal.Zero)

	req := dto.CreateSaleRequest{
		IdempotencyKey: "idem-durable",
		Items: []dto.SaleItemRequest{
			{ProductID: cafeID, Quantity: dec("1"), UnitPrice: dec("1000")},
		},
	}
	first, err := f.uc.CreateSale(context.Background(), companyID, userID, req)
	require.NoError(t, err)

	// Simular expiración del cache.
	f.cache.entries = make(map[string]string)

	second, err := f.uc.CreateSale(context.Background(), companyID, userID, req)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.True(t, second.Deduplicated)
	assert.True(t, f.stocks.quantity(t, cafeID, warehouse1).Equal(dec("99")))
}

// Carrera entre reintentos concurrentes: el INSERT pierde contra la restricción
// única, el consumo se revierte y se devuelve la venta ganadora.
func TestCreateSale_CarreraDeIdempotenciaRevierteConsumo(t *testing.T) {
	f := newSaleFixture()
	f.stocks.seed(cafeID, warehouse1, dec("100"), decimal.Zero)

	// La venta "ganadora" se confirma mientras este reintento está en vuelo:
	// la validación inicial no la ve, pero el INSERT choca contra la única.
	winner := &entity.Sale{
		ID:             "winner-id",
		CompanyID:      companyID,
		Number:         "POS-1",
		Status:         entity.SaleStatusCompleted,
		IdempotencyKey: "idem-race",
	}
	f.saleRepo.sales[winner.ID] = winner
	f.saleRepo.createErr = domain.ErrDuplicate

	resp, err := f.uc.CreateSale(context.Background(), companyID, userID, dto.CreateSaleRequest{
		IdempotencyKey: "idem-race",
		Items: []dto.SaleItemRequest{
			{ProductID: cafeID, Quantity: dec("2"), UnitPrice: dec("1000")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, winner.ID, resp.ID)
	assert.True(t, resp.Deduplicated)

	// El consumo del perdedor quedó revertido.
	assert.True(t, f.stocks.quantity(t, cafeID, warehouse1).Equal(dec("100")))
	assert.Empty(t, f.movements.movements)
}

// Precios: redondeo a 2 decimales en cada cómputo y tasa en porcentaje normalizada.
func TestCreateSale_PreciosYRedondeo(t *testing.T) {
	f := newSaleFixture()
	f.stocks.seed(cafeID, warehouse1, dec("100"), decimal.Zero)

	override := dec("19") // porcentaje, debe normalizarse a 0.19
	resp, err := f.uc.CreateSale(context.Background(), companyID, userID, dto.CreateSaleRequest{
		TaxRate: &override,
		Items: []dto.SaleItemRequest{
			{ProductID: cafeID, Quantity: dec("3"), UnitPrice: dec("3.333")},
		},
	})
	require.NoError(t, err)

	assert.True(t, resp.Subtotal.Equal(dec("10")), "3 x 3.333 = 9.999 -> 10.00")
	assert.True(t, resp.TaxTotal.Equal(dec("1.9")), "19%% de 10.00")
	assert.True(t, resp.GrandTotal.Equal(dec("11.9")))
	require.Len(t, resp.Items, 1)
	assert.True(t, resp.Items[0].TaxRate.Equal(dec("0.19")))
}

func TestCreateSale_DescuentosPorLineaYPorOrden(t *testing.T) {
	f := newSaleFixture()
	f.stocks.seed(cafeID, warehouse1, dec("100"), decimal.Zero)

	resp, err := f.uc.CreateSale(context.Background(), companyID, userID, dto.CreateSaleRequest{
		Discount: dec("100"),
		Items: []dto.SaleItemRequest{
			{ProductID: cafeID, Quantity: dec("2"), UnitPrice: dec("1000"), Discount: dec("50")},
		},
	})
	require.NoError(t, err)

	assert.True(t, resp.Subtotal.Equal(dec("1950")), "2x1000 - 50 de línea")
	assert.True(t, resp.TaxTotal.Equal(dec("370.5")))
	assert.True(t, resp.GrandTotal.Equal(dec("2220.5")), "subtotal + impuesto - descuento de orden")
}

// Un descuento mayor que el monto que descuenta invalida la venta: ni la línea
// ni el total pueden quedar negativos.
func TestCreateSale_DescuentoExcesivoEsInvalido(t *testing.T) {
	f := newSaleFixture()
	f.stocks.seed(cafeID, warehouse1, dec("100"), decimal.Zero)

	// descuento de línea mayor que qty x precio
	_, err := f.uc.CreateSale(context.Background(), companyID, userID, dto.CreateSaleRequest{
		Items: []dto.SaleItemRequest{
			{ProductID: cafeID, Quantity: dec("1"), UnitPrice: dec("1000"), Discount: dec("1500")},
		},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	// descuento de orden mayor que subtotal + impuesto
	_, err = f.uc.CreateSale(context.Background(), companyID, userID, dto.CreateSaleRequest{
		Discount: dec("5000"),
		Items: []dto.SaleItemRequest{
			{ProductID: cafeID, Quantity: dec("1"), UnitPrice: dec("1000")},
		},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	// descuento de orden negativo
	_, err = f.uc.CreateSale(context.Background(), companyID, userID, dto.CreateSaleRequest{
		Discount: dec("-1"),
		Items: []dto.SaleItemRequest{
			{ProductID: cafeID, Quantity: dec("1"), UnitPrice: dec("1000")},
		},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	// nada quedó persistido
	assert.True(t, f.stocks.quantity(t, cafeID, warehouse1).Equal(dec("100")))
	assert.Empty(t, f.movements.movements)
	assert.Empty(t, f.saleRepo.sales)
}

// Con UnitPrice en 0 se toma el precio del catálogo.
func TestCreateSale_PrecioDeCatalogoPorDefecto(t *testing.T) {
	f := newSaleFixture()
	f.stocks.seed(azucarID, warehouse1, dec("50"), decimal.Zero)

	resp, err := f.uc.CreateSale(context.Background(), companyID, userID, dto.CreateSaleRequest{
		Items: []dto.SaleItemRequest{
			{ProductID: azucarID, Quantity: dec("4")},
		},
	})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.True(t, resp.Items[0].UnitPrice.Equal(dec("250")))
	assert.True(t, resp.Subtotal.Equal(dec("1000")))
}

// Una venta que deja un producto bajo su stock_min publica ProductStockLow
// después del commit.
func TestCreateSale_DisparaStockBajoTrasCommit(t *testing.T) {
	f := newSaleFixture()
	f.stocks.seed(azucarID, warehouse1, dec("12"), decimal.Zero) // stock_min = 10

	_, err := f.uc.CreateSale(context.Background(), companyID, userID, dto.CreateSaleRequest{
		Items: []dto.SaleItemRequest{
			{ProductID: azucarID, Quantity: dec("5")},
		},
	})
	require.NoError(t, err)

	var lowEvents []entity.ProductStockLowEvent
	for _, e := range f.publisher.events {
		if le, ok := e.(entity.ProductStockLowEvent); ok {
			lowEvents = append(lowEvents, le)
		}
	}
	require.Len(t, lowEvents, 1)
	assert.Equal(t, azucarID, lowEvents[0].ProductID)
	assert.True(t, lowEvents[0].Quantity.Equal(dec("7")))
}

func TestCreateSale_ValidacionDeEntrada(t *testing.T) {
	f := newSaleFixture()
	f.stocks.seed(cafeID, warehouse1, dec("100"), decimal.Zero)

	// sin líneas
	_, err := f.uc.CreateSale(context.Background(), companyID, userID, dto.CreateSaleRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	// cantidad no positiva
	_, err = f.uc.CreateSale(context.Background(), companyID, userID, dto.CreateSaleRequest{
		Items: []dto.SaleItemRequest{{ProductID: cafeID, Quantity: decimal.Zero}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	// producto inexistente
	_, err = f.uc.CreateSale(context.Background(), companyID, userID, dto.CreateSaleRequest{
		Items: []dto.SaleItemRequest{{ProductID: "nope", Quantity: dec("1")}},
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// pago sin método
	_, err = f.uc.CreateSale(context.Background(), companyID, userID, dto.CreateSaleRequest{
		Items:   []dto.SaleItemRequest{{ProductID: cafeID, Quantity: dec("1"), UnitPrice: dec("1000")}},
		Payment: &dto.PaymentRequest{Amount: dec("1000")},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestGetSale_DeOtraEmpresaEsForbidden(t *testing.T) {
	f := newSaleFixture()
	f.saleRepo.sales["s1"] = &entity.Sale{ID: "s1", CompanyID: "otra-empresa"}

	_, err := f.uc.GetSale(context.Background(), companyID, "s1")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.uc.GetSale(context.Background(), companyID, "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
