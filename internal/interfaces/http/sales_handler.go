package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/kardex-api/internal/application/dto"
	"github.com/jhoicas/kardex-api/internal/application/sales"
)

// SalesHandler maneja las peticiones HTTP de ventas (protegido).
type SalesHandler struct {
	createSaleUC *sales.CreateSaleUseCase
}

// NewSalesHandler construye el handler.
func NewSalesHandler(createSaleUC *sales.CreateSaleUseCase) *SalesHandler {
	return &SalesHandler{createSaleUC: createSaleUC}
}

// CreateSale godoc
// @Summary      Crear venta (commit atómico de stock)
// @Description  Valida disponibilidad, descuenta stock multi-bodega y persiste la venta en una transacción. Reintentos con la misma Idempotency-Key devuelven la venta original.
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string  false  "Clave de idempotencia (prioridad sobre el body)"
// @Param        body  body  dto.CreateSaleRequest  true  "items, payment opcional, tax_rate opcional"
// @Success      201   {object}  dto.SaleResponse
// @Success      200   {object}  dto.SaleResponse  "Venta ya existente (deduplicada)"
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/sales [post]
func (h *SalesHandler) CreateSale(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	userID := GetUserID(c)
	if companyID == "" || userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.CreateSaleRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if headerKey := c.Get("Idempotency-Key"); headerKey != "" {
		in.IdempotencyKey = headerKey
	}
	resp, err := h.createSaleUC.CreateSale(c.Context(), companyID, userID, in)
	if err != nil {
		return domainError(c, err)
	}
	if resp.Deduplicated {
		return c.Status(fiber.StatusOK).JSON(resp)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// GetSale godoc
// @Summary      Obtener venta por ID
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "Sale ID (UUID)"
// @Success      200  {object}  dto.SaleResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sales/{id} [get]
func (h *SalesHandler) GetSale(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	resp, err := h.createSaleUC.GetSale(c.Context(), companyID, c.Params("id"))
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(resp)
}
