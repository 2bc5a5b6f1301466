// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"pharmaledger/internal/app"
	"pharmaledger/internal/domain/auth"
	"pharmaledger/internal/domain/catalogs/customer"
	"pharmaledger/internal/domain/catalogs/employee"
	"pharmaledger/internal/domain/catalogs/product"
	"pharmaledger/internal/domain/documents/damaged_item"
	"pharmaledger/internal/domain/documents/purchase"
	"pharmaledger/internal/domain/documents/purchase_return"
	"pharmaledger/internal/domain/documents/salary_payment"
	"pharmaledger/internal/domain/documents/sale"
	"pharmaledger/internal/domain/documents/sales_return"
	"pharmaledger/internal/domain/documents/supplier_payment"
	"pharmaledger/internal/infrastructure/http/v1/dto"
	"pharmaledger/internal/infrastructure/http/v1/handlers"
	"pharmaledger/internal/infrastructure/http/v1/middleware"
	"pharmaledger/pkg/logger"
	"pharmaledger/pkg/metrics"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	Services *app.Services

	// Logger for request logging
	Logger *logger.Logger

	// Tokens verifies bearer tokens. When nil every request runs as the
	// system actor and role checks are skipped.
	Tokens middleware.TokenVerifier

	// Metrics and Gatherer back the /metrics endpoint; both optional.
	Metrics  *metrics.HTTPMetrics
	Gatherer prometheus.Gatherer

	// DB is pinged by the readiness check; nil for the in-memory store.
	DB handlers.Pinger

	// Debug enables gin debug mode.
	Debug bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.Metrics(cfg.Metrics))
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.DB)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}
	if cfg.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(metrics.Handler(cfg.Gatherer)))
	}

	v1 := router.Group("/api/v1")
	if cfg.Tokens != nil {
		v1.Use(middleware.Auth(cfg.Tokens))
	} else {
		v1.Use(middleware.Anonymous())
	}

	base := handlers.NewBaseHandler()
	registerCatalogRoutes(v1, base, cfg.Services)
	registerRegisterRoutes(v1, base, cfg)
	registerDocumentRoutes(v1, base, cfg.Services)
	registerSystemRoutes(v1, base, cfg)

	return router
}

// adminOnly returns the role guard, or a pass-through when auth is off.
func adminOnly(cfg RouterConfig) gin.HandlerFunc {
	if cfg.Tokens == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return middleware.RequireRole(auth.RoleAdmin)
}

func registerCatalogRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, svc *app.Services) {
	catalogs := rg.Group("/catalog")

	mount(catalogs.Group("/products"),
		handlers.NewCatalogHandler[*product.Product, dto.CreateProductRequest, dto.UpdateProductRequest](
			base, svc.Products.CatalogService))

	mount(catalogs.Group("/customers"),
		handlers.NewCatalogHandler[*customer.Customer, dto.CreateCustomerRequest, dto.UpdateCustomerRequest](
			base, svc.Customers.CatalogService))

	mount(catalogs.Group("/employees"),
		handlers.NewCatalogHandler[*employee.Employee, dto.CreateEmployeeRequest, dto.UpdateEmployeeRequest](
			base, svc.Employees.CatalogService))
}

func registerRegisterRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	svc := cfg.Services
	registers := rg.Group("/registers")

	stockHandler := handlers.NewStockHandler(base, svc.Stock)
	stockGroup := registers.Group("/stock")
	{
		stockGroup.GET("", stockHandler.List)
		stockGroup.GET("/:productId", stockHandler.Get)
		stockGroup.POST("/:productId/adjust", adminOnly(cfg), stockHandler.Adjust)
	}

	accountHandler := handlers.NewAccountHandler(base, svc.Accounts)
	accounts := registers.Group("/accounts")
	{
		accounts.GET("", accountHandler.List)
		accounts.POST("", accountHandler.Open)
		accounts.GET("/:id", accountHandler.Get)
	}

	supplierHandler := handlers.NewSupplierHandler(base, svc.Ledger)
	suppliers := registers.Group("/suppliers")
	{
		suppliers.GET("", supplierHandler.List)
		suppliers.POST("", supplierHandler.Register)
		suppliers.GET("/:id", supplierHandler.Get)
		suppliers.PUT("/:id", supplierHandler.Update)
		suppliers.GET("/:id/statement", supplierHandler.Statement)
	}
}

func registerDocumentRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, svc *app.Services) {
	docs := rg.Group("/document")

	mount(docs.Group("/sales"),
		handlers.NewDocumentHandler[*sale.Sale, dto.CreateSaleRequest, sale.CreateInput](base, svc.Sales))

	mount(docs.Group("/sales-returns"),
		handlers.NewDocumentHandler[*sales_return.SalesReturn, dto.CreateSalesReturnRequest, sales_return.CreateInput](
			base, svc.SalesReturns))

	purchases := mount(docs.Group("/purchases"),
		handlers.NewDocumentHandler[*purchase.Purchase, dto.CreatePurchaseRequest, purchase.CreateInput](base, svc.Purchases))
	purchases.DELETE("/:id", base.DeleteHandler(svc.Purchases))

	mount(docs.Group("/purchase-returns"),
		handlers.NewDocumentHandler[*purchase_return.PurchaseReturn, dto.CreatePurchaseReturnRequest, purchase_return.CreateInput](
			base, svc.PurchaseReturns))

	mount(docs.Group("/supplier-payments"),
		handlers.NewDocumentHandler[*supplier_payment.SupplierPayment, dto.CreateSupplierPaymentRequest, supplier_payment.CreateInput](
			base, svc.SupplierPayments))

	mount(docs.Group("/damaged-items"),
		handlers.NewDocumentHandler[*damaged_item.DamagedItem, dto.CreateDamagedItemRequest, damaged_item.CreateInput](
			base, svc.DamagedItems))

	mount(docs.Group("/salary-payments"),
		handlers.NewDocumentHandler[*salary_payment.SalaryPayment, dto.CreateSalaryPaymentRequest, salary_payment.CreateInput](
			base, svc.SalaryPayments))
}

func registerSystemRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	auditHandler := handlers.NewAuditHandler(base, cfg.Services.Audit)
	auditGroup := rg.Group("/audit")
	{
		auditGroup.GET("", auditHandler.List)
		auditGroup.POST("", adminOnly(cfg), auditHandler.Record)
	}

	reconcileHandler := handlers.NewReconcileHandler(base, cfg.Services.Reconcile)
	rg.POST("/reconcile", adminOnly(cfg), reconcileHandler.Run)
}
