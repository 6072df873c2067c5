// internal/router/router.go
package router

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/javajoker/apparel-inventory/internal/config"
	"github.com/javajoker/apparel-inventory/internal/handlers"
	"github.com/javajoker/apparel-inventory/internal/messaging"
	"github.com/javajoker/apparel-inventory/internal/middleware"
	"github.com/javajoker/apparel-inventory/internal/services"
)

func Initialize(db *gorm.DB, cfg *config.Config, publisher messaging.Publisher) (*gin.Engine, error) {
	// Initialize services
	storageService, err := services.NewStorageService(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	inventoryService := services.NewInventoryService(db, publisher)
	catalogService := services.NewCatalogService(db, inventoryService)
	orderService := services.NewOrderService(db, inventoryService, publisher, cfg.App.DefaultCustomerName)
	reportService := services.NewReportService(db)
	spreadsheetService := services.NewSpreadsheetService(db, catalogService)

	// Initialize handlers
	catalogHandler := handlers.NewCatalogHandler(catalogService)
	inventoryHandler := handlers.NewInventoryHandler(inventoryService)
	orderHandler := handlers.NewOrderHandler(orderService)
	reportHandler := handlers.NewReportHandler(reportService, cfg.App.LowStockThreshold)
	importExportHandler := handlers.NewImportExportHandler(spreadsheetService, storageService)

	// Initialize Gin router
	r := gin.New()
	r.MaxMultipartMemory = cfg.App.MaxUploadSize

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.Server.CORSOrigins))
	r.Use(middleware.I18nMiddleware())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		status, code := "healthy", http.StatusOK
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			status, code = "unhealthy", http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":  status,
			"version": "1.0.0",
		})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	v1.Use(middleware.GeneralRateLimit(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst))
	{
		v1.GET("/product-types", catalogHandler.GetProductTypes)

		// Catalog routes
		products := v1.Group("/products")
		{
			products.GET("", catalogHandler.GetProducts)
			products.POST("", catalogHandler.CreateProduct)
			products.GET("/:id", catalogHandler.GetProduct)
			products.DELETE("/:id", catalogHandler.DeleteProduct)
			products.POST("/:id/variants", catalogHandler.CreateVariant)
		}

		variants := v1.Group("/variants")
		{
			variants.GET("", catalogHandler.GetVariants)
			variants.GET("/:id", catalogHandler.GetVariant)
			variants.PUT("/:id/price", catalogHandler.UpdateVariantPrice)
			variants.POST("/:id/adjust", inventoryHandler.AdjustStock)
			variants.GET("/:id/movements", inventoryHandler.GetMovements)
		}

		// Inventory routes
		inventory := v1.Group("/inventory")
		{
			inventory.GET("/reconcile", inventoryHandler.Reconcile)
			inventory.POST("/import", middleware.ImportRateLimit(), importExportHandler.ImportInventory)
		}

		// Order routes
		orders := v1.Group("/orders")
		{
			orders.GET("", orderHandler.GetOrders)
			orders.POST("", orderHandler.CreateOrder)
			orders.GET("/:id", orderHandler.GetOrder)
		}
		v1.GET("/order-numbers/:number", orderHandler.GetOrderByNumber)

		// Report routes
		v1.GET("/reports/dashboard", reportHandler.GetDashboard)

		// Export routes
		export := v1.Group("/export")
		{
			export.GET("/template.xlsx", importExportHandler.ExportTemplate)
			export.GET("/inventory.xlsx", importExportHandler.ExportInventory)
			export.GET("/orders.xlsx", importExportHandler.ExportOrders)
		}
	}

	return r, nil
}
