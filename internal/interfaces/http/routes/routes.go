// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/interfaces/http/handlers"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
	"gorm.io/gorm"
)

// SetupRoutes wires all API routes
func SetupRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, cfg *config.Config) {
	SetupProductRoutes(rg, db, cfg)
	SetupCollectionRoutes(rg, db, cfg)
	SetupCartRoutes(rg, db, cfg)
	SetupOrderRoutes(rg, db, cfg)
}

// SetupProductRoutes sets up product related routes
func SetupProductRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config) {
	productHandler := handlers.NewProductHandler(db, cfg)

	products := rg.Group("/products")
	{
		products.GET("", productHandler.GetProducts)
		products.GET("/:id", productHandler.GetProduct)
		products.GET("/handle/:handle", productHandler.GetProductByHandle)
		products.POST("", productHandler.CreateProduct)
		products.PUT("/:id", productHandler.UpdateProduct)
		products.DELETE("/:id", productHandler.DeleteProduct)
		products.PUT("/variants/:id/inventory", productHandler.SetVariantInventory)
	}
}

// SetupCollectionRoutes sets up collection related routes
func SetupCollectionRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config) {
	collectionHandler := handlers.NewCollectionHandler(db, cfg)

	collections := rg.Group("/collections")
	{
		collections.GET("", collectionHandler.GetCollections)
		collections.GET("/:handle", collectionHandler.GetCollectionByHandle)
		collections.POST("", collectionHandler.CreateCollection)
	}
}

// SetupCartRoutes sets up cart related routes. Carts work for guests
// and authenticated users alike.
func SetupCartRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config) {
	cartHandler := handlers.NewCartHandler(db, cfg)

	carts := rg.Group("/carts")
	carts.Use(middleware.OptionalAuthMiddleware(cfg))
	{
		carts.POST("", cartHandler.CreateCart)
		carts.GET("/:id", cartHandler.GetCart)
		carts.GET("/session/:session_id", cartHandler.GetCartBySession)
		carts.DELETE("/:id", cartHandler.DeleteCart)

		carts.POST("/:id/items", cartHandler.AddItems)
		carts.PUT("/:id/items", cartHandler.UpdateItems)
		carts.DELETE("/:id/items", cartHandler.RemoveItems)
		carts.DELETE("/:id/items/all", cartHandler.ClearCart)
	}
}

// SetupOrderRoutes sets up order and checkout related routes
func SetupOrderRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config) {
	orderHandler := handlers.NewOrderHandler(db, cfg)
	invoiceHandler := handlers.NewInvoiceHandler(db, cfg)

	orders := rg.Group("/orders")
	orders.Use(middleware.OptionalAuthMiddleware(cfg))
	{
		orders.POST("", orderHandler.CreateOrder)
		orders.GET("", orderHandler.GetUserOrders)
		orders.GET("/:id", orderHandler.GetOrder)
		orders.GET("/number/:number", orderHandler.GetOrderByNumber)
		orders.GET("/:id/invoice", invoiceHandler.GetInvoice)
		orders.PUT("/:id/status", orderHandler.UpdateOrderStatus)
		orders.PUT("/:id/payment", orderHandler.UpdatePaymentStatus)
		orders.PUT("/:id/cancel", orderHandler.CancelOrder)
	}
}
