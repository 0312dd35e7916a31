// internal/router/router.go
package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mercadito/backoffice/internal/config"
	"github.com/mercadito/backoffice/internal/handlers"
	"github.com/mercadito/backoffice/internal/middleware"
	"github.com/mercadito/backoffice/internal/services"
)

// Dependencies are the collaborators the HTTP surface needs beyond the
// database handle.
type Dependencies struct {
	Storage       *services.StorageService
	Cache         services.CacheClient
	Notifications *services.NotificationService
}

func Initialize(db *gorm.DB, cfg *config.Config, deps Dependencies) *gin.Engine {
	// Initialize services
	vocabulary := services.NewAttributeVocabulary(db)
	businessService := services.NewBusinessService(db)
	categoryService := services.NewCategoryService(db)
	productService := services.NewProductService(db, vocabulary, deps.Storage, deps.Cache,
		time.Duration(cfg.Redis.ProductCacheTTL)*time.Second)
	saleService := services.NewSaleService(db)
	authService := services.NewAuthService(db, cfg.JWT, deps.Notifications)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, cfg.JWT)
	businessHandler := handlers.NewBusinessHandler(businessService)
	categoryHandler := handlers.NewCategoryHandler(categoryService, businessService)
	productHandler := handlers.NewProductHandler(productService, businessService, vocabulary)
	saleHandler := handlers.NewSaleHandler(saleService)

	generalLimiter := middleware.NewGeneralLimiter(cfg.RateLimit)
	authLimiter := middleware.NewAuthLimiter(cfg.RateLimit)
	authRequired := middleware.AuthRequired(cfg.JWT.AccessCookieName)

	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.Frontend))
	r.Use(middleware.I18nMiddleware())
	r.Use(generalLimiter.Middleware())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		status := "healthy"
		code := http.StatusOK
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			status = "unhealthy"
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{"status": status})
	})

	if deps.Storage != nil && deps.Storage.IsLocal() && cfg.AWS.LocalMediaPath != "" {
		r.Static(cfg.AWS.LocalMediaPath, cfg.AWS.LocalMediaDir)
	}

	api := r.Group("/api")
	{
		// Authentication routes
		auth := api.Group("/auth")
		auth.Use(authLimiter.Middleware())
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/token/refresh", authHandler.RefreshToken)
			auth.POST("/token/refresh-cookie", authHandler.RefreshTokenCookie)
			auth.GET("/me", authRequired, authHandler.Me)
			auth.POST("/logout", authHandler.Logout)
			auth.POST("/logout-cookie", authHandler.LogoutCookie)
			auth.POST("/send-reset-code", authHandler.SendResetCode)
			auth.POST("/validate-reset-code", authHandler.ValidateResetCode)
		}

		businesses := api.Group("/businesses")
		businesses.Use(authRequired)
		{
			businesses.POST("", businessHandler.CreateBusiness)
			businesses.GET("/mine", businessHandler.GetMyBusiness)
		}

		// Products, vocabulary and categories of the caller's business
		business := api.Group("/business")
		business.Use(authRequired)
		{
			business.POST("/register", productHandler.CreateProduct)
			business.GET("/business/:business_id", productHandler.ListProducts)
			business.GET("/attribute-names", productHandler.ListAttributeNames)
			business.POST("/attribute-names/create", productHandler.CreateAttributeName)
			business.GET("/unidad-medida", productHandler.ListUnitsOfMeasure)
			business.GET("/categories", categoryHandler.ListCategories)
			business.POST("/categories", categoryHandler.CreateCategory)
			business.GET("/:id", productHandler.GetProduct)
			business.PUT("/:id", productHandler.UpdateProduct)
			business.DELETE("/:id", productHandler.DeleteProduct)
			business.POST("/:id/images", productHandler.UploadImages)
		}

		sales := api.Group("/sales")
		sales.Use(authRequired)
		{
			sales.GET("/payment-methods", saleHandler.ListPaymentMethods)
			sales.POST("", saleHandler.RecordSale)
			sales.GET("/business/:business_id", saleHandler.ListSales)
		}
	}

	return r
}
