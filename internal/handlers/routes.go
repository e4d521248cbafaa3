package handlers

import (
	"catalog-service/internal/middleware"
	"catalog-service/internal/models"

	"github.com/gin-gonic/gin"
)

// Handlers groups everything the router mounts
type Handlers struct {
	Catalog    *CatalogHandler
	Products   *ProductHandler
	Uploads    *UploadHandler
	Orders     *OrderHandler
	Storefront *StorefrontHandler
	Import     *ImportHandler
}

// RouteConfig carries the per-group middleware settings
type RouteConfig struct {
	JWTSecret       string
	CheckoutLimiter *middleware.IPRateLimiter
}

// RegisterRoutes mounts the admin, storefront and object routes on router
func RegisterRoutes(router *gin.Engine, h Handlers, cfg RouteConfig) {
	RegisterValidators()

	// Admin routes
	admin := router.Group("/api/admin/delivery")
	admin.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	admin.Use(middleware.RequireAnyRole(middleware.RoleAdmin, middleware.RoleStaff))
	{
		categories := admin.Group("/categories")
		{
			categories.GET("", h.Catalog.ListCategories)
			categories.POST("", h.Catalog.CreateCategory)
			categories.POST("/reorder", h.Catalog.ReorderCategories)
			categories.GET("/:id", h.Catalog.GetCategory)
			categories.PATCH("/:id", h.Catalog.UpdateCategory)
			categories.DELETE("/:id", h.Catalog.DeleteCategory)
			categories.PUT("/:id/featured", h.Catalog.SetFeatured(models.LevelCategory))
		}

		brands := admin.Group("/brands")
		{
			brands.GET("", h.Catalog.ListBrands)
			brands.POST("", h.Catalog.CreateBrand)
			brands.POST("/reorder", h.Catalog.ReorderBrands)
			brands.GET("/:id", h.Catalog.GetBrand)
			brands.PATCH("/:id", h.Catalog.UpdateBrand)
			brands.DELETE("/:id", h.Catalog.DeleteBrand)
			brands.PUT("/:id/featured", h.Catalog.SetFeatured(models.LevelBrand))
		}

		lines := admin.Group("/product-lines")
		{
			lines.GET("", h.Catalog.ListProductLines)
			lines.POST("", h.Catalog.CreateProductLine)
			lines.POST("/reorder", h.Catalog.ReorderProductLines)
			lines.GET("/:id", h.Catalog.GetProductLine)
			lines.PATCH("/:id", h.Catalog.UpdateProductLine)
			lines.DELETE("/:id", h.Catalog.DeleteProductLine)
			lines.PUT("/:id/featured", h.Catalog.SetFeatured(models.LevelProductLine))
		}

		products := admin.Group("/products")
		{
			products.GET("", h.Products.ListProducts)
			products.POST("", h.Products.CreateProduct)
			products.POST("/upload-url", h.Uploads.RequestUploadURL)
			products.GET("/:id", h.Products.GetProduct)
			products.PATCH("/:id", h.Products.UpdateProduct)
			products.PATCH("/:id/enabled", h.Products.SetProductEnabled)
			products.DELETE("/:id", h.Products.DeleteProduct)
		}

		catalog := admin.Group("/catalog")
		{
			catalog.GET("/tree", h.Catalog.GetTree)
			catalog.GET("/export", h.Import.ExportCatalog)
			catalog.GET("/import/template", h.Import.GetImportTemplate)
			catalog.POST("/import", h.Import.ImportCatalog)
		}

		admin.GET("/orders", h.Orders.ListOrders)
		admin.GET("/orders/:id", h.Orders.GetOrder)
		admin.PATCH("/orders/:id/status", h.Orders.UpdateOrderStatus)
		admin.GET("/customers", h.Orders.ListCustomers)
		admin.GET("/customers/:id", h.Orders.GetCustomer)
	}

	// Public storefront routes, read-only except checkout
	storefront := router.Group("/api/storefront")
	{
		storefront.GET("/categories", h.Storefront.ListCategories)
		storefront.GET("/categories/:slug", h.Storefront.GetCategory)
		storefront.GET("/categories/:slug/products", h.Storefront.NodeProducts(models.LevelCategory))
		storefront.GET("/brands/:slug", h.Storefront.GetBrand)
		storefront.GET("/brands/:slug/products", h.Storefront.NodeProducts(models.LevelBrand))
		storefront.GET("/product-lines/:slug", h.Storefront.GetProductLine)
		storefront.GET("/product-lines/:slug/products", h.Storefront.NodeProducts(models.LevelProductLine))
		storefront.GET("/tree", h.Storefront.GetTree)
		storefront.GET("/products/:id", h.Storefront.GetProduct)

		checkout := []gin.HandlerFunc{h.Orders.PlaceOrder}
		if cfg.CheckoutLimiter != nil {
			checkout = append([]gin.HandlerFunc{middleware.RateLimit(cfg.CheckoutLimiter)}, checkout...)
		}
		storefront.POST("/orders", checkout...)
	}

	// Object storage: the upload token is the credential for PUT
	router.PUT("/objects/uploads/:token", h.Uploads.PutObject)
	router.GET("/objects/*path", h.Uploads.GetObject)
}
