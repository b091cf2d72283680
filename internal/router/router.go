// internal/router/router.go
package router

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/marketplace-backend/internal/config"
	"github.com/javajoker/marketplace-backend/internal/handlers"
	"github.com/javajoker/marketplace-backend/internal/middleware"
	"github.com/javajoker/marketplace-backend/internal/services"
	"github.com/javajoker/marketplace-backend/internal/utils"
)

// Initialize wires services, handlers and routes. Background work started
// here (limiter cleanup) stops when ctx is cancelled.
func Initialize(ctx context.Context, db *gorm.DB, cfg *config.Config) (*gin.Engine, error) {
	// Initialize services
	payments, err := services.NewPaymentConfirmer(cfg.Payment)
	if err != nil {
		return nil, err
	}
	storageService, err := services.NewStorageService(cfg)
	if err != nil {
		return nil, err
	}

	authService := services.NewAuthService(db, cfg)
	productService := services.NewProductService(db)
	orderService := services.NewOrderService(db, payments, cfg.Order)
	cartService := services.NewCartService(db, orderService)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	productHandler := handlers.NewProductHandler(productService, storageService)
	cartHandler := handlers.NewCartHandler(cartService)
	orderHandler := handlers.NewOrderHandler(orderService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	generalLimit, authLimit, err := rateLimiters(ctx, cfg)
	if err != nil {
		return nil, err
	}

	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.I18nMiddleware(cfg.I18n.DefaultLocale))
	r.Use(generalLimit)
	if cfg.Server.AuditLog {
		r.Use(middleware.AuditLogMiddleware(db))
	}

	// Health check
	r.GET("/health", func(c *gin.Context) {
		status := "healthy"
		code := http.StatusOK
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			status = "unhealthy"
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":  status,
			"version": "1.0.0",
		})
	})

	// Locally stored product images
	if cfg.AWS.AccessKeyID == "" {
		r.Static("/uploads", cfg.Storage.LocalDir)
	}

	authRequired := middleware.AuthRequired(authService)
	sellerRequired := middleware.SellerRequired()

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		auth.Use(authLimit)
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.GET("/me", authRequired, authHandler.GetProfile)
			auth.DELETE("/me", authRequired, authHandler.Deactivate)
		}

		// Product routes
		products := v1.Group("/products")
		{
			products.GET("", productHandler.GetProducts)
			products.GET("/mine", authRequired, sellerRequired, productHandler.GetMyProducts)
			products.GET("/:id", productHandler.GetProduct)

			// Seller routes
			seller := products.Group("")
			seller.Use(authRequired, sellerRequired)
			{
				seller.POST("", productHandler.CreateProduct)
				seller.POST("/upload-image", productHandler.UploadImage)
				seller.PUT("/:id", productHandler.UpdateProduct)
				seller.DELETE("/:id", productHandler.DeleteProduct)
			}
		}

		// Cart routes
		cart := v1.Group("/cart")
		cart.Use(authRequired)
		{
			cart.POST("", cartHandler.AddItem)
			cart.GET("", cartHandler.GetCart)
			cart.DELETE("", cartHandler.Clear)
			cart.POST("/checkout", cartHandler.Checkout)
			cart.PUT("/:id", cartHandler.UpdateItem)
			cart.DELETE("/:id", cartHandler.RemoveItem)
		}

		// Order routes
		orders := v1.Group("/orders")
		orders.Use(authRequired)
		{
			orders.POST("", orderHandler.CreateOrder)
			orders.GET("", orderHandler.GetOrders)
			orders.GET("/extended", orderHandler.GetOrdersExtended)
			orders.GET("/:id", orderHandler.GetOrder)
			orders.POST("/:id/pay", orderHandler.PayOrder)
		}
	}

	return r, nil
}

func passThrough(c *gin.Context) { c.Next() }

// rateLimiters returns the general and auth limit middleware.
func rateLimiters(ctx context.Context, cfg *config.Config) (gin.HandlerFunc, gin.HandlerFunc, error) {
	if !cfg.RateLimit.Enabled {
		return passThrough, passThrough, nil
	}

	switch cfg.RateLimit.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			logrus.WithError(err).WithField("addr", cfg.Redis.Addr()).Warn("Redis unreachable, rate limiting fails open until it recovers")
		}
		go func() {
			<-ctx.Done()
			client.Close()
		}()

		return middleware.RateLimit(middleware.NewRedisLimiter(client, "ratelimit", cfg.RateLimit.RequestsPerMin), "api"),
			middleware.RateLimit(middleware.NewRedisLimiter(client, "ratelimit", cfg.RateLimit.AuthPerMin), "auth"),
			nil
	case "memory", "":
		general := middleware.NewMemoryLimiter(cfg.RateLimit.RequestsPerMin, cfg.RateLimit.Burst)
		auth := middleware.NewMemoryLimiter(cfg.RateLimit.AuthPerMin, cfg.RateLimit.AuthPerMin/6+1)
		go general.Cleanup(ctx)
		go auth.Cleanup(ctx)

		return middleware.RateLimit(general, "api"), middleware.RateLimit(auth, "auth"), nil
	default:
		return nil, nil, fmt.Errorf("unsupported rate limit backend %q", cfg.RateLimit.Backend)
	}
}
