package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/kardex-api/internal/application/alerts"
	"github.com/jhoicas/kardex-api/internal/application/inventory"
	"github.com/jhoicas/kardex-api/internal/application/reorder"
	"github.com/jhoicas/kardex-api/internal/domain/repository"
	"github.com/jhoicas/kardex-api/pkg/jwt"
	"github.com/jhoicas/kardex-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Ledger      *inventory.Ledger
	Projection  *inventory.Projection
	AlertEngine *alerts.Engine
	Optimizer   *reorder.Optimizer
	ProductRepo repository.ProductRepository
	Integrity   integrityLister
	JWTSecret   string // vacío = sin autenticación (solo desarrollo)
	Log         *logger.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	auth := func(c *fiber.Ctx) error { return c.Next() }
	role := func(...string) fiber.Handler { return func(c *fiber.Ctx) error { return c.Next() } }
	if deps.JWTSecret != "" {
		auth = AuthMiddleware(deps.JWTSecret)
		role = RequireRole
	}

	protected := api.Group("/", auth)
	readers := role(jwt.RoleAdmin, jwt.RoleBodeguero, jwt.RoleComprador, jwt.RoleAuditor)
	warehouse := role(jwt.RoleAdmin, jwt.RoleBodeguero)
	buyers := role(jwt.RoleAdmin, jwt.RoleComprador)
	admins := role(jwt.RoleAdmin)

	// Kardex
	kardexHandler := NewKardexHandler(deps.Ledger, deps.Log)
	kardex := protected.Group("/kardex")
	kardex.Post("/movements", warehouse, kardexHandler.Append)
	kardex.Get("/movements/:id", readers, kardexHandler.Get)
	kardex.Post("/movements/:id/void", admins, kardexHandler.Void)
	kardex.Post("/movements/:id/restore", admins, kardexHandler.Restore)
	kardex.Get("/products/:product_id/movements", readers, kardexHandler.List)
	kardex.Get("/products/:product_id/balance", readers, kardexHandler.Balance)

	// Stock (las rutas fijas van antes de :product_id)
	stockHandler := NewStockHandler(deps.Projection, deps.Integrity, deps.Log)
	stock := protected.Group("/stock")
	stock.Get("/", readers, stockHandler.List)
	stock.Get("/integrity", role(jwt.RoleAdmin, jwt.RoleAuditor), stockHandler.Integrity)
	stock.Post("/reconcile", role(jwt.RoleAdmin, jwt.RoleAuditor), stockHandler.ReconcileAll)
	stock.Get("/:product_id", readers, stockHandler.Get)
	stock.Put("/:product_id/thresholds", buyers, stockHandler.SetThresholds)
	stock.Post("/:product_id/reconcile", role(jwt.RoleAdmin, jwt.RoleAuditor), stockHandler.Reconcile)

	// Alertas
	alertHandler := NewAlertHandler(deps.AlertEngine, deps.Log)
	al := protected.Group("/alerts")
	al.Get("/", readers, alertHandler.List)
	al.Post("/", buyers, alertHandler.Create)
	al.Post("/batch", buyers, alertHandler.TransitionBatch)
	al.Post("/evaluate/:product_id", buyers, alertHandler.Evaluate)
	al.Get("/:id", readers, alertHandler.Get)
	al.Patch("/:id", buyers, alertHandler.Transition)

	// Reorden
	reorderHandler := NewReorderHandler(deps.Optimizer, deps.Log)
	ro := protected.Group("/reorder")
	ro.Get("/:product_id", readers, reorderHandler.Latest)
	ro.Post("/:product_id/optimize", buyers, reorderHandler.Optimize)
	ro.Get("/:product_id/history", readers, reorderHandler.History)
	ro.Get("/:product_id/purchase-order", buyers, reorderHandler.PurchaseOrder)
	ro.Get("/:product_id/purchase-order/pdf", buyers, reorderHandler.PurchaseOrderPDF)

	// Catálogo
	productHandler := NewProductHandler(deps.ProductRepo, deps.Log)
	products := protected.Group("/products")
	products.Get("/:id", readers, productHandler.GetByID)
	products.Put("/:id", buyers, productHandler.Upsert)
}
