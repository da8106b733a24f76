package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/kardex-api/internal/application/dto"
	"github.com/jhoicas/kardex-api/internal/application/inventory"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
)

// InventoryHandler maneja las peticiones HTTP del kardex (protegido).
type InventoryHandler struct {
	engine *inventory.Engine
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(engine *inventory.Engine) *InventoryHandler {
	return &InventoryHandler{engine: engine}
}

// RegisterMovement godoc
// @Summary      Registrar movimiento de inventario
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterMovementRequest  true  "product_id, warehouse_id, type, quantity, reference opcional"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [post]
func (h *InventoryHandler) RegisterMovement(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	userID := GetUserID(c)
	if companyID == "" || userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.RegisterMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	mov, err := h.engine.RegisterMovement(c.Context(), inventory.MovementInput{
		CompanyID:   companyID,
		UserID:      userID,
		ProductID:   in.ProductID,
		WarehouseID: in.WarehouseID,
		Type:        in.Type,
		Quantity:    in.Quantity,
		Reference: entity.Reference{
			Kind: entity.ReferenceKind(in.ReferenceType),
			ID:   in.ReferenceID,
		},
		Description: in.Description,
	})
	if err != nil {
		return domainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toMovementResponse(mov))
}

// Transfer godoc
// @Summary      Trasladar stock entre bodegas
// @Description  Descuenta en origen y acredita en destino dentro de una sola transacción.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TransferRequest  true  "product_id, from_warehouse_id, to_warehouse_id, quantity"
// @Success      201   {object}  map[string]dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/transfers [post]
func (h *InventoryHandler) Transfer(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	userID := GetUserID(c)
	if companyID == "" || userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.TransferRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	result, err := h.engine.Transfer(c.Context(), inventory.TransferInput{
		CompanyID:       companyID,
		UserID:          userID,
		ProductID:       in.ProductID,
		FromWarehouseID: in.FromWarehouseID,
		ToWarehouseID:   in.ToWarehouseID,
		Quantity:        in.Quantity,
		Description:     in.Description,
	})
	if err != nil {
		return domainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"out": toMovementResponse(result.Out),
		"in":  toMovementResponse(result.In),
	})
}

// GetStock godoc
// @Summary      Stock actual de un producto
// @Description  Por bodega o agregado de todas las bodegas si warehouse_id está vacío.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id    query  string  true   "Producto (UUID)"
// @Param        warehouse_id  query  string  false  "Bodega (UUID). Vacío = agregado."
// @Success      200  {object}  dto.StockResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/stock [get]
func (h *InventoryHandler) GetStock(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	summary, err := h.engine.CurrentStock(c.Context(), companyID, c.Query("product_id"), c.Query("warehouse_id"))
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(dto.StockResponse{
		ProductID:   summary.ProductID,
		WarehouseID: summary.WarehouseID,
		Quantity:    summary.Quantity,
		Reserved:    summary.Reserved,
		Available:   summary.Available,
	})
}

// GetStockStatus godoc
// @Summary      Estado de stock derivado (OK / LOW_STOCK / OUT_OF_STOCK)
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id    query  string  true   "Producto (UUID)"
// @Param        warehouse_id  query  string  false  "Bodega (UUID). Vacío = agregado."
// @Success      200  {object}  dto.StockStatusResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/stock/status [get]
func (h *InventoryHandler) GetStockStatus(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	status, err := h.engine.StockStatus(c.Context(), companyID, c.Query("product_id"), c.Query("warehouse_id"))
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(dto.StockStatusResponse{
		Status:    string(status.Status),
		Quantity:  status.Quantity,
		Available: status.Available,
		Reserved:  status.Reserved,
		StockMin:  status.StockMin,
	})
}

// GetHistory godoc
// @Summary      Kardex de un producto
// @Description  Historial de movimientos con filtros de bodega y fechas (YYYY-MM-DD).
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id    query  string  true   "Producto (UUID)"
// @Param        warehouse_id  query  string  false  "Bodega (UUID)"
// @Param        date_from     query  string  false  "Fecha inicial YYYY-MM-DD"
// @Param        date_to       query  string  false  "Fecha final YYYY-MM-DD"
// @Param        order         query  string  false  "asc | desc (default desc)"
// @Success      200  {array}   dto.MovementResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [get]
func (h *InventoryHandler) GetHistory(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var page dto.PageRequest
	if err := c.QueryParser(&page); err == nil {
		page.DefaultPage()
	}
	dateFrom, err := parseDate(c.Query("date_from"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "date_from inválida (YYYY-MM-DD)"})
	}
	dateTo, err := parseDate(c.Query("date_to"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "date_to inválida (YYYY-MM-DD)"})
	}
	movements, err := h.engine.History(c.Context(), inventory.HistoryInput{
		CompanyID:   companyID,
		ProductID:   c.Query("product_id"),
		WarehouseID: c.Query("warehouse_id"),
		DateFrom:    dateFrom,
		DateTo:      dateTo,
		Ascending:   c.Query("order") == "asc",
		Limit:       page.Limit,
		Offset:      page.Offset,
	})
	if err != nil {
		return domainError(c, err)
	}
	out := make([]dto.MovementResponse, 0, len(movements))
	for _, mov := range movements {
		out = append(out, toMovementResponse(mov))
	}
	return c.JSON(fiber.Map{"total": len(out), "movements": out})
}

// GetLowStockReport godoc
// @Summary      Reporte de stock bajo
// @Description  Productos con stock_min configurado en LOW_STOCK u OUT_OF_STOCK (una sola consulta agregada).
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Success      200  {array}   dto.LowStockItemResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/inventory/low-stock [get]
func (h *InventoryHandler) GetLowStockReport(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	report, err := h.engine.LowStockReport(c.Context(), companyID)
	if err != nil {
		return domainError(c, err)
	}
	out := make([]dto.LowStockItemResponse, 0, len(report))
	for _, row := range report {
		out = append(out, dto.LowStockItemResponse{
			ProductID:    row.ProductID,
			ProductName:  row.ProductName,
			SKU:          row.SKU,
			CurrentStock: row.CurrentStock,
			StockMin:     row.StockMin,
			Status:       string(row.Status),
		})
	}
	return c.JSON(fiber.Map{"total": len(out), "products": out})
}

func toMovementResponse(mov *entity.StockMovement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:            mov.ID,
		ProductID:     mov.ProductID,
		WarehouseID:   mov.WarehouseID,
		Type:          mov.Type,
		Quantity:      mov.Quantity,
		BeforeQty:     mov.BeforeQty,
		AfterQty:      mov.AfterQty,
		ReferenceType: string(mov.Reference.Kind),
		ReferenceID:   mov.Reference.ID,
		Description:   mov.Description,
		CreatedBy:     mov.CreatedBy,
		CreatedAt:     mov.CreatedAt,
	}
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
