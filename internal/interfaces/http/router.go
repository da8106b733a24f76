package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/kardex-api/internal/application/inventory"
	"github.com/jhoicas/kardex-api/internal/application/sales"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	InventoryEngine *inventory.Engine
	CreateSale      *sales.CreateSaleUseCase
	JWTSecret       string
}

// Router registra las rutas de la API. Todo el kardex y las ventas requieren
// Bearer Token: el CompanyID del token particiona cada operación.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Inventario (protegido). Escrituras solo para admin y bodeguero.
	invGroup := protected.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.InventoryEngine)
	invGroup.Post("/movements", RequireRole("admin", "bodeguero"), inventoryHandler.RegisterMovement)
	invGroup.Get("/movements", inventoryHandler.GetHistory)
	invGroup.Post("/transfers", RequireRole("admin", "bodeguero"), inventoryHandler.Transfer)
	invGroup.Get("/stock", inventoryHandler.GetStock)
	invGroup.Get("/stock/status", inventoryHandler.GetStockStatus)
	invGroup.Get("/low-stock", inventoryHandler.GetLowStockReport)

	// Ventas (protegido). Vende el mostrador (vendedor) o el admin.
	salesGroup := protected.Group("/sales")
	salesHandler := NewSalesHandler(deps.CreateSale)
	salesGroup.Post("/", RequireRole("admin", "vendedor"), salesHandler.CreateSale)
	salesGroup.Get("/:id", salesHandler.GetSale)
}
