package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/storefront-api/config"
	"github.com/kendall-kelly/storefront-api/controllers"
	"github.com/kendall-kelly/storefront-api/logger"
	"github.com/kendall-kelly/storefront-api/middleware"
	"github.com/kendall-kelly/storefront-api/models"
	"github.com/kendall-kelly/storefront-api/services"
	"github.com/kendall-kelly/storefront-api/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Get().WithError(err).Fatal("Failed to load configuration")
	}

	if err := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: cfg.LogOutput,
		Path:   cfg.LogPath,
	}); err != nil {
		logger.Get().WithError(err).Fatal("Failed to initialize logger")
	}
	defer logger.Close()
	log := logger.Get()

	log.WithField("env", cfg.GoEnv).Info("Starting Storefront API server...")

	if err := config.ConnectDatabase(); err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	if err := config.GetDB().AutoMigrate(models.AllModels()...); err != nil {
		log.WithError(err).Fatal("Failed to migrate database")
	}
	log.Info("Database migration completed successfully")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := initServices(ctx, cfg); err != nil {
		log.WithError(err).Fatal("Failed to initialize services")
	}

	router := setupRouter(cfg, middleware.EnsureValidToken(cfg))

	addr := ":" + cfg.Port
	log.WithField("addr", addr).Info("Server is running")
	if err := router.Run(addr); err != nil {
		log.WithError(err).Fatal("Failed to start server")
	}
}

// initServices wires the process-wide services. Optional backends (S3, redis, SMTP)
// fall back to local or no-op implementations when not configured.
func initServices(ctx context.Context, cfg *config.Config) error {
	log := logger.Get()

	if cfg.S3Enabled() {
		s3, err := services.NewS3Service(ctx, cfg)
		if err != nil {
			return err
		}
		services.InitImageService(s3)
		log.WithField("bucket", cfg.AWSS3Bucket).Info("Images are stored in S3")
	} else {
		services.InitImageService(services.NewLocalStorage(utils.UploadDir))
		log.WithField("dir", utils.UploadDir).Warn("AWS_S3_BUCKET not set, storing images on local disk")
	}

	if cfg.RedisURL != "" {
		cache, err := services.NewRedisStorefrontCache(ctx, cfg.RedisURL, func(op string, err error) {
			log.WithError(err).WithField("op", op).Warn("Storefront cache error")
		})
		if err != nil {
			log.WithError(err).Warn("Redis unavailable, storefront cache disabled")
		} else {
			services.SetStorefrontCache(cache)
		}
	}

	if cfg.SMTPEnabled() {
		services.InitEmailSender(services.NewSMTPEmailSender(cfg))
	} else {
		log.Warn("SMTP not configured, broadcasts are disabled")
	}

	if _, err := services.InitPixelRenderer(); err != nil {
		return err
	}
	return nil
}

// setupRouter builds the HTTP routes. auth authenticates the bearer token; tests pass a
// stand-in that sets the same context keys.
func setupRouter(cfg *config.Config, auth gin.HandlerFunc) *gin.Engine {
	if err := utils.RegisterValidators(); err != nil {
		logger.Get().WithError(err).Fatal("Failed to register validators")
	}

	router := gin.New()
	router.Use(middleware.RequestLogger(logger.Get()), gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSAllowedOrigins
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	api := router.Group("/api")
	{
		api.GET("/health", healthCheck)
		api.GET("/database/status", databaseStatus)

		// Public storefront
		checkoutLimiter := middleware.NewIPRateLimiter(cfg.CheckoutRateLimit)
		api.GET("/stores/:slug", controllers.GetStorefront)
		api.POST("/stores/:slug/orders", middleware.RateLimit(checkoutLimiter), controllers.PlaceOrder)
		api.POST("/stores/:slug/discounts/validate", middleware.RateLimit(checkoutLimiter), controllers.QuoteCart)
		api.POST("/stores/:slug/delivery-quote", middleware.RateLimit(checkoutLimiter), controllers.QuoteDelivery)
		api.GET("/orders/:id", controllers.GetInvoice)
		api.GET("/orders/:id/kaspi-qr", controllers.GetKaspiQR)
		api.GET("/uploads/:filename", controllers.GetUploadedImage)

		// Authenticated
		api.POST("/me", auth, controllers.SyncMe)

		authed := api.Group("", auth, middleware.LoadCurrentUser())
		authed.GET("/me", controllers.GetMe)
		authed.GET("/yandex-maps-key", controllers.GetYandexMapsKey)
		authed.POST("/my-store", controllers.CreateMyStore)

		store := authed.Group("", middleware.LoadOwnerStore())
		store.POST("/upload", controllers.UploadImage)

		myStore := store.Group("/my-store")
		{
			myStore.GET("", controllers.GetMyStore)
			myStore.PUT("", controllers.UpdateMyStore)
			myStore.GET("/theme", controllers.GetTheme)
			myStore.PUT("/theme", controllers.UpdateTheme)
			myStore.GET("/settings", controllers.GetSettings)
			myStore.PUT("/settings", controllers.UpdateSettings)
			myStore.GET("/delivery", controllers.GetDelivery)
			myStore.PUT("/delivery", controllers.UpdateDelivery)
			myStore.GET("/whatsapp", controllers.GetWhatsApp)
			myStore.PUT("/whatsapp", controllers.UpdateWhatsApp)
			myStore.POST("/whatsapp/preview", controllers.PreviewWhatsApp)
			myStore.GET("/kaspi", controllers.GetKaspi)
			myStore.PUT("/kaspi", controllers.UpdateKaspi)
			myStore.GET("/usage", controllers.GetUsage)

			myStore.GET("/discounts/types", controllers.GetDiscountTypes)
			myStore.GET("/discounts", controllers.ListDiscounts)
			myStore.POST("/discounts", controllers.CreateDiscount)
			myStore.GET("/discounts/:id", controllers.GetDiscount)
			myStore.PUT("/discounts/:id", controllers.UpdateDiscount)
			myStore.DELETE("/discounts/:id", controllers.DeleteDiscount)

			myStore.GET("/products", controllers.ListProducts)
			myStore.POST("/products", controllers.CreateProduct)
			myStore.GET("/products/:id", controllers.GetProduct)
			myStore.PUT("/products/:id", controllers.UpdateProduct)
			myStore.DELETE("/products/:id", controllers.DeleteProduct)

			myStore.GET("/categories", controllers.ListCategories)
			myStore.POST("/categories", controllers.CreateCategory)
			myStore.PUT("/categories/:id", controllers.UpdateCategory)
			myStore.DELETE("/categories/:id", controllers.DeleteCategory)

			myStore.GET("/orders", controllers.ListStoreOrders)
			myStore.GET("/orders/:id", controllers.GetStoreOrder)
			myStore.PATCH("/orders/:id/status", controllers.UpdateStoreOrderStatus)
			myStore.PATCH("/orders/:id/payment-status", controllers.UpdateStorePaymentStatus)
			myStore.PATCH("/orders/:id/fulfillment-status", controllers.UpdateStoreFulfillmentStatus)
			myStore.POST("/orders/:id/delivery-claim", controllers.CreateDeliveryClaim)
			myStore.GET("/orders/:id/delivery-claim", controllers.GetDeliveryClaim)
			myStore.POST("/orders/:id/delivery-claim/accept", controllers.AcceptDeliveryClaim)
			myStore.POST("/orders/:id/delivery-claim/cancel", controllers.CancelDeliveryClaim)
		}

		admin := authed.Group("/superadmin", middleware.RequireSuperadmin())
		{
			admin.GET("/orders", controllers.AdminListOrders)
			admin.GET("/users", controllers.AdminListUsers)
			admin.PATCH("/users/:id", controllers.AdminUpdateUser)
			admin.DELETE("/stores/:id", controllers.AdminDeleteStore)
			admin.GET("/events", controllers.AdminListEvents)
			admin.GET("/tracking-pixels", controllers.AdminListTrackingPixels)
			admin.POST("/tracking-pixels", controllers.AdminCreateTrackingPixel)
			admin.PUT("/tracking-pixels/:id", controllers.AdminUpdateTrackingPixel)
			admin.DELETE("/tracking-pixels/:id", controllers.AdminDeleteTrackingPixel)
			admin.POST("/broadcasts", controllers.AdminSendBroadcast)
			admin.GET("/broadcasts", controllers.AdminListBroadcasts)
		}
	}

	return router
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Storefront API is running",
	})
}

// databaseStatus checks database connectivity and lists the tables
func databaseStatus(c *gin.Context) {
	db := config.GetDB()
	if db == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Database is not initialized",
			},
		})
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to get database instance",
			},
		})
		return
	}

	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_CONNECTION_ERROR",
				"message": "Database connection failed",
			},
		})
		return
	}

	tables, err := db.Migrator().GetTables()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_QUERY_ERROR",
				"message": "Failed to query tables",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Database connected",
		"tables":  tables,
	})
}
