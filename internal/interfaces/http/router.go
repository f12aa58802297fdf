package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Fabrica-api/internal/application/auth"
	"github.com/jhoicas/Fabrica-api/internal/application/finance"
	"github.com/jhoicas/Fabrica-api/internal/application/inventory"
	"github.com/jhoicas/Fabrica-api/internal/application/production"
	"github.com/jhoicas/Fabrica-api/internal/application/purchasing"
	"github.com/jhoicas/Fabrica-api/internal/application/sales"
	"github.com/jhoicas/Fabrica-api/internal/application/usecase"
	"github.com/jhoicas/Fabrica-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC           *auth.AuthUseCase
	ProductUC        *usecase.ProductUseCase
	CustomerUC       *usecase.CustomerUseCase
	CreateSale       *sales.CreateSaleUseCase
	ReceivePurchase  *purchasing.ReceivePurchaseUseCase
	Production       *production.RegisterProductionUseCase
	Recipes          *inventory.RecipeUseCase
	RegisterMovement *inventory.RegisterMovementUseCase
	Returns          *inventory.ReturnsUseCase
	Replenishment    *inventory.ReplenishmentUseCase
	Transactions     *finance.TransactionUseCase
	Balances         *finance.BalanceRecalculator
	Recurring        *finance.RecurringExpenseUseCase
	RecurringQueue   RecurringEnqueuer // nil = generación en línea
	ExpiryAlertDays  int
	JWTSecret        string
	Validator        *Validator
	Responder        *Responder
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	val, resp := deps.Validator, deps.Responder

	app.Get("/health", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"status": "ok"}) })

	api := app.Group("/api")

	// Auth (público)
	authHandler := NewAuthHandler(deps.AuthUC, val, resp)
	api.Post("/auth/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))
	sellers := RequireRole(entity.RoleAdmin, entity.RoleVentas)
	producers := RequireRole(entity.RoleAdmin, entity.RoleProduccion)
	floor := RequireRole(entity.RoleAdmin, entity.RoleVentas, entity.RoleProduccion)
	accountants := RequireRole(entity.RoleAdmin, entity.RoleFinanzas)

	// Products
	productHandler := NewProductHandler(deps.ProductUC, val, resp)
	protected.Get("/products", productHandler.List)
	protected.Get("/products/:id", productHandler.GetByID)
	protected.Post("/products", producers, productHandler.Create)
	protected.Put("/products/:id/price", producers, productHandler.UpdatePrice)

	// Customers
	customerHandler := NewCustomerHandler(deps.CustomerUC, val, resp)
	protected.Get("/customers", sellers, customerHandler.List)
	protected.Post("/customers", sellers, customerHandler.Create)

	// Sales
	saleHandler := NewSaleHandler(deps.CreateSale, val, resp)
	protected.Post("/sales", sellers, saleHandler.Create)
	protected.Get("/sales/:id", sellers, saleHandler.GetByID)

	// Purchases
	purchaseHandler := NewPurchaseHandler(deps.ReceivePurchase, val, resp)
	protected.Post("/purchases", producers, purchaseHandler.Create)

	// Production, recetas y planeación
	productionHandler := NewProductionHandler(deps.Production, deps.Recipes, val, resp)
	protected.Post("/production", producers, productionHandler.Register)
	protected.Put("/recipes/:productId", producers, productionHandler.DefineRecipe)
	protected.Get("/planning/producible/:productId", productionHandler.Producible)

	// Inventory
	inventoryHandler := NewInventoryHandler(deps.RegisterMovement, deps.Returns, deps.Replenishment, deps.ExpiryAlertDays, val, resp)
	protected.Post("/inventory/movements", producers, inventoryHandler.RegisterMovement)
	protected.Get("/inventory/products/:id/movements", inventoryHandler.ListMovements)
	protected.Get("/inventory/replenishment-list", inventoryHandler.GetReplenishmentList)
	protected.Get("/inventory/expiring-lots", inventoryHandler.GetExpiringLots)
	protected.Post("/returns", floor, inventoryHandler.RegisterReturn)
	protected.Post("/lots/:id/discard", producers, inventoryHandler.Discard)

	// Finance
	financeHandler := NewFinanceHandler(deps.Transactions, deps.Balances, deps.Recurring, deps.RecurringQueue, val, resp)
	fin := protected.Group("/finance", accountants)
	fin.Post("/transactions", financeHandler.CreateTransaction)
	fin.Get("/transactions/:id", financeHandler.GetTransaction)
	fin.Put("/transactions/:id", financeHandler.UpdateTransaction)
	fin.Delete("/transactions/:id", financeHandler.DeleteTransaction)
	fin.Get("/balance", financeHandler.GetBalance)
	fin.Post("/balance/close", financeHandler.ClosePeriod)
	fin.Post("/balance/reopen", financeHandler.ReopenPeriod)
	fin.Post("/recurring-expenses/run", financeHandler.RunRecurringExpenses)
}
