package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	ledgerapp "github.com/SilvaGabriel011/Dani-Cosmeticos-sub001/internal/application/ledger"
	"github.com/SilvaGabriel011/Dani-Cosmeticos-sub001/internal/domain/ledger"
	"github.com/SilvaGabriel011/Dani-Cosmeticos-sub001/internal/infrastructure/cache"
	"github.com/SilvaGabriel011/Dani-Cosmeticos-sub001/internal/infrastructure/config"
	"github.com/SilvaGabriel011/Dani-Cosmeticos-sub001/internal/infrastructure/event"
	"github.com/SilvaGabriel011/Dani-Cosmeticos-sub001/internal/infrastructure/logger"
	"github.com/SilvaGabriel011/Dani-Cosmeticos-sub001/internal/infrastructure/persistence"
	"github.com/SilvaGabriel011/Dani-Cosmeticos-sub001/internal/interfaces/http/handler"
	"github.com/SilvaGabriel011/Dani-Cosmeticos-sub001/internal/interfaces/http/middleware"
	"github.com/SilvaGabriel011/Dani-Cosmeticos-sub001/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting credit ledger backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize database connection
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLogLevel)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize repositories and unit of work
	saleRepo := persistence.NewGormSaleRepository(db.DB)
	recvRepo := persistence.NewGormReceivableRepository(db.DB)
	payRepo := persistence.NewGormPaymentRepository(db.DB)
	summaryReader := persistence.NewGormSummaryReader(db.DB)
	uow := persistence.NewGormUnitOfWork(db.DB)

	// Summary cache: Redis when enabled, process-local map otherwise
	var summaryCache ledgerapp.SummaryCache
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedisClient(&cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("Error closing Redis client", zap.Error(err))
			}
		}()
		summaryCache = cache.NewRedisSummaryCache(redisClient, log)
		log.Info("Redis summary cache enabled", zap.String("addr", cfg.Redis.Addr()))
	} else {
		summaryCache = cache.NewInMemorySummaryCache()
		log.Info("In-memory summary cache enabled")
	}

	// Event bus: ledger events invalidate cached summaries
	eventBus := event.NewInMemoryEventBus(log)
	invalidator := ledgerapp.NewSummaryInvalidator(summaryCache, log)
	eventBus.Subscribe(invalidator)
	log.Info("Event handlers registered",
		zap.Strings("summary_invalidation_events", invalidator.EventTypes()),
	)

	// Initialize application services
	clock := ledger.SystemClock{}
	saleService := ledgerapp.NewSaleService(uow, saleRepo, recvRepo, payRepo, eventBus, clock)
	paymentService := ledgerapp.NewPaymentService(uow, eventBus, clock)
	repairService := ledgerapp.NewRepairService(uow, saleRepo, recvRepo, log)
	importService := ledgerapp.NewImportService(uow, clock, log)
	summaryService := ledgerapp.NewSummaryService(summaryReader, summaryCache, clock, cfg.Summary.CacheTTL, log)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	middleware.SetupValidator()

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware stack, in order: request ID, panic recovery, request
	// logging, security headers, CORS.
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Register API routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(handler.NewSaleHandler(saleService)).
		Register(handler.NewPaymentHandler(paymentService)).
		Register(handler.NewReceivableHandler(saleService)).
		Register(handler.NewRepairHandler(repairService)).
		Register(handler.NewImportHandler(importService)).
		Register(handler.NewSummaryHandler(summaryService)).
		Register(handler.NewSystemHandler(db))
	r.Setup()

	// Unversioned health endpoint for load balancer probes
	engine.GET("/health", healthHandler(db))

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
