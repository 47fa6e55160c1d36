// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"trackit/internal/domain/audit"
	"trackit/internal/domain/auth"
	"trackit/internal/domain/directory"
	"trackit/internal/domain/ledger"
	"trackit/internal/infrastructure/http/v1/handlers"
	"trackit/internal/infrastructure/http/v1/middleware"
	"trackit/internal/infrastructure/storage/postgres"
	"trackit/pkg/logger"
)

// RouterConfig holds the dependencies of the HTTP surface.
type RouterConfig struct {
	Pool   *postgres.Pool
	Logger *logger.Logger

	AuthService    *auth.Service
	LedgerService  *ledger.Service
	Products       *directory.CatalogService[*directory.Product]
	Warehouses     *directory.CatalogService[*directory.Warehouse]
	Counterparties *directory.CatalogService[*directory.Counterparty]
	Trail          audit.Trail
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	baseHandler := handlers.NewBaseHandler()

	// Health endpoints (no auth)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	apiV1 := router.Group("/api/v1")
	{
		authHandler := handlers.NewAuthHandler(baseHandler, cfg.AuthService)
		apiV1.POST("/auth/login", authHandler.Login)

		protected := apiV1.Group("")
		protected.Use(middleware.Auth(cfg.AuthService))

		protected.GET("/auth/me", authHandler.Me)
		protected.POST("/auth/register", middleware.RequireAdmin(), authHandler.Register)

		registerStockRoutes(protected, baseHandler, cfg)
		registerDirectoryRoutes(protected, baseHandler, cfg)

		auditHandler := handlers.NewAuditHandler(baseHandler, cfg.Trail)
		protected.GET("/audit", middleware.RequireAdmin(), auditHandler.List)
	}

	return router
}

func registerStockRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	ledgerHandler := handlers.NewLedgerHandler(base, cfg.LedgerService)
	stockHandler := handlers.NewStockHandler(base, cfg.LedgerService)

	stock := rg.Group("/stock")
	{
		stock.POST("/entries", ledgerHandler.RecordEntry)
		stock.POST("/exits", ledgerHandler.RecordExit)
		stock.POST("/transfers", ledgerHandler.RecordTransfer)

		stock.GET("/levels", stockHandler.ListLevels)
		stock.GET("/by-product", stockHandler.AggregateByProduct)

		stock.GET("/movements", ledgerHandler.ListMovements)
		stock.DELETE("/movements/:id", middleware.RequireAdmin(), ledgerHandler.DeleteMovement)
	}
}

func registerDirectoryRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	dir := rg.Group("/directory")

	registerCatalogCRUD(dir.Group("/products"),
		handlers.NewProductHandler(base, cfg.Products, cfg.Trail))
	registerCatalogCRUD(dir.Group("/warehouses"),
		handlers.NewWarehouseHandler(base, cfg.Warehouses, cfg.Trail))
	registerCatalogCRUD(dir.Group("/counterparties"),
		handlers.NewCounterpartyHandler(base, cfg.Counterparties, cfg.Trail))
}

// catalogCRUD is the route shape shared by all reference entities.
type catalogCRUD interface {
	Create(c *gin.Context)
	Get(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
	List(c *gin.Context)
}

func registerCatalogCRUD(rg *gin.RouterGroup, h catalogCRUD) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
}
