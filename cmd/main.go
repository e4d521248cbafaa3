package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"catalog-service/internal/config"
	"catalog-service/internal/events"
	"catalog-service/internal/handlers"
	"catalog-service/internal/middleware"
	"catalog-service/internal/repository"
	"catalog-service/internal/services"
	"catalog-service/internal/storage"
	"catalog-service/internal/subscribers"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title Delivery Catalog API
// @version 1.0.0
// @description Catalog, storefront and checkout service for the delivery store

// @contact.name Catalog API Support
// @contact.email support@example.com

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8083
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load environment variables
	envErr := godotenv.Load()

	cfg := config.Load()
	log := config.NewLogger(cfg)
	if envErr != nil {
		log.Info("No .env file found, using system environment variables")
	}

	// Initialize database
	db, err := config.InitDB(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}

	// Initialize Redis client. Caching is skipped when Redis is unreachable.
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.WithError(err).Warn("Failed to parse Redis URL (caching will be disabled)")
		} else {
			redisClient = redis.NewClient(redisOpts)
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := redisClient.Ping(ctx).Err(); err != nil {
				log.WithError(err).Warn("Failed to connect to Redis (caching will be disabled)")
				redisClient.Close()
				redisClient = nil
			} else {
				log.Info("✓ Redis connected successfully")
			}
			cancel()
		}
	}

	// Initialize NATS events publisher
	var publisher services.EventPublisher
	var eventsPublisher *events.Publisher
	if cfg.NATSURL != "" {
		eventsPublisher, err = events.NewPublisher(cfg.NATSURL, log)
		if err != nil {
			log.WithError(err).Warn("Failed to initialize events publisher (events won't be published)")
		} else {
			publisher = eventsPublisher
			log.Info("✓ NATS events publisher initialized")
		}
	}

	// Repositories and services
	catalogRepo := repository.NewCatalogRepository(db, redisClient)
	productRepo := repository.NewProductRepository(db, redisClient)
	orderRepo := repository.NewOrderRepository(db)

	catalogService := services.NewCatalogService(catalogRepo, productRepo, publisher, cfg.FeaturedRequireSubtree, log)
	productService := services.NewProductService(productRepo, catalogRepo, publisher, log)
	storefrontService := services.NewStorefrontService(catalogRepo, productRepo)
	orderService := services.NewOrderService(orderRepo, productRepo, publisher, services.Pricing{
		DeliveryFee:           cfg.DeliveryFee,
		FreeDeliveryThreshold: cfg.FreeDeliveryThreshold,
	}, log)

	store, err := storage.NewObjectStore(cfg.UploadDir, cfg.PublicBaseURL, cfg.UploadURLTTL, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize object storage")
	}

	// Payment outcomes arrive from the payment service over NATS
	var paymentSubscriber *subscribers.PaymentSubscriber
	if cfg.NATSURL != "" {
		paymentSubscriber, err = subscribers.NewPaymentSubscriber(cfg.NATSURL, orderService, log)
		if err != nil {
			log.WithError(err).Warn("Failed to initialize payment subscriber (continuing without payment events)")
		} else if err := paymentSubscriber.Start(context.Background()); err != nil {
			log.WithError(err).Warn("Failed to start payment subscriber")
			paymentSubscriber.Stop()
			paymentSubscriber = nil
		} else {
			log.Info("✓ Payment subscriber initialized (listening for payment.> events)")
		}
	}

	// Initialize Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.CORS(cfg.CORSOrigins))

	// Health check endpoints (no auth required)
	router.GET("/health", handlers.HealthCheck)
	router.GET("/ready", handlers.ReadinessCheck(db, redisClient))

	pagination := handlers.Pagination{DefaultLimit: cfg.DefaultPageSize, MaxLimit: cfg.MaxPageSize}
	handlers.RegisterRoutes(router, handlers.Handlers{
		Catalog:    handlers.NewCatalogHandler(catalogService),
		Products:   handlers.NewProductHandler(productService, pagination),
		Uploads:    handlers.NewUploadHandler(store, log),
		Orders:     handlers.NewOrderHandler(orderService, pagination),
		Storefront: handlers.NewStorefrontHandler(storefrontService),
		Import:     handlers.NewImportHandler(catalogService, log),
	}, handlers.RouteConfig{
		JWTSecret:       cfg.JWTSecret,
		CheckoutLimiter: middleware.NewIPRateLimiter(cfg.CheckoutRateLimit, checkoutBurst(cfg.CheckoutRateLimit)),
	})
	if cfg.JWTSecret == "" {
		log.Warn("JWT_SECRET is not set, admin routes are open")
	}

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof("Catalog service starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down catalog-service...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}

	if paymentSubscriber != nil {
		paymentSubscriber.Stop()
		log.Info("✓ Payment subscriber stopped")
	}
	if eventsPublisher != nil {
		eventsPublisher.Close()
		log.Info("✓ Events publisher closed")
	}
	if redisClient != nil {
		redisClient.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}

	log.Info("Catalog service stopped")
}

// checkoutBurst lets a client place a few orders back to back
func checkoutBurst(perSecond float64) int {
	burst := int(perSecond * 5)
	if burst < 1 {
		return 1
	}
	return burst
}
