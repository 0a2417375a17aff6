package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	billingapp "github.com/tasheel/backend/internal/application/billing"
	financeapp "github.com/tasheel/backend/internal/application/finance"
	"github.com/tasheel/backend/internal/infrastructure/cache"
	"github.com/tasheel/backend/internal/infrastructure/config"
	"github.com/tasheel/backend/internal/infrastructure/event"
	"github.com/tasheel/backend/internal/infrastructure/lock"
	"github.com/tasheel/backend/internal/infrastructure/logger"
	"github.com/tasheel/backend/internal/infrastructure/persistence"
	"github.com/tasheel/backend/internal/interfaces/http/handler"
	"github.com/tasheel/backend/internal/interfaces/http/middleware"
	"github.com/tasheel/backend/internal/interfaces/http/router"
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

	log.Info("Starting Tasheel billing backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Database connection with zap-backed GORM logging
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Repositories
	billingRepo := persistence.NewGormBillingRepository(db.DB)
	dueRepo := persistence.NewGormDueRepository(db.DB)
	receiptRepo := persistence.NewGormAdvanceReceiptRepository(db.DB)
	allocationRepo := persistence.NewGormAllocationRepository(db.DB)
	profileRepo := persistence.NewGormCreditProfileRepository(db.DB)

	// Caches: Redis when enabled so invalidations reach every instance,
	// in-memory otherwise
	var creditCache financeapp.CreditUsageCache
	var balanceCache financeapp.BalanceCache
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedisClient(&cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer func() {
			_ = redisClient.Close()
		}()
		creditCache = cache.NewRedisCreditUsageCache(redisClient, cfg.Billing.CacheTTL, log)
		balanceCache = cache.NewRedisBalanceCache(redisClient, cfg.Billing.CacheTTL, log)
		log.Info("Redis cache enabled", zap.String("addr", cfg.Redis.Addr()))
	} else {
		memCreditCache := cache.NewInMemoryCreditUsageCache(cfg.Billing.CacheTTL, log)
		defer memCreditCache.Stop()
		memBalanceCache := cache.NewInMemoryBalanceCache(cfg.Billing.CacheTTL, log)
		defer memBalanceCache.Stop()
		creditCache = memCreditCache
		balanceCache = memBalanceCache
	}

	// Event bus
	eventBus := event.NewInMemoryEventBus(log)

	// Application services
	creditService := financeapp.NewCreditService(profileRepo, dueRepo, creditCache, log)
	advanceService := financeapp.NewAdvanceService(receiptRepo, allocationRepo, balanceCache, eventBus, log)
	dueService := financeapp.NewDueService(dueRepo, creditCache, eventBus, log)
	billingService := billingapp.NewBillingService(
		billingRepo, dueRepo, creditService, advanceService,
		lock.NewCustomerLocks(), eventBus, log,
	)

	// Handlers
	billingHandler := handler.NewBillingHandler(billingService)
	advanceHandler := handler.NewAdvanceHandler(advanceService)
	dueHandler := handler.NewDueHandler(dueService)
	creditHandler := handler.NewCreditHandler(creditService)

	// Gin engine
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(middleware.BodySizeLimit(1 << 20))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.SecurityHeaders())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Routes
	billingRoutes := router.NewDomainGroup("billing", "/billings")
	billingRoutes.POST("", billingHandler.Submit)
	billingRoutes.GET("", billingHandler.List)
	billingRoutes.GET("/:id", billingHandler.Get)
	billingRoutes.PUT("/:id", billingHandler.Edit)
	billingRoutes.POST("/:id/status", billingHandler.UpdateStatus)
	billingRoutes.POST("/:id/retry-settlement", billingHandler.RetrySettlement)
	billingRoutes.GET("/:id/due", dueHandler.GetForBilling)
	billingRoutes.GET("/:id/allocations", advanceHandler.ListAllocationsForBilling)

	dueRoutes := router.NewDomainGroup("dues", "/dues")
	dueRoutes.GET("", dueHandler.List)
	dueRoutes.GET("/:id", dueHandler.Get)
	dueRoutes.POST("/:id/payments", dueHandler.RecordPayment)
	dueRoutes.POST("/:id/cancel", dueHandler.Cancel)
	dueRoutes.POST("/sweep-overdue", dueHandler.SweepOverdue)

	advanceRoutes := router.NewDomainGroup("advances", "/advances")
	advanceRoutes.POST("/receipts", advanceHandler.RecordReceipt)
	advanceRoutes.GET("/receipts/:id", advanceHandler.Get)
	advanceRoutes.PUT("/receipts/:id/amount", advanceHandler.AmendReceipt)

	customerRoutes := router.NewDomainGroup("customers", "/customers")
	customerRoutes.GET("/:id/billings", billingHandler.ListByCustomer)
	customerRoutes.GET("/:id/dues", dueHandler.ListOutstanding)
	customerRoutes.GET("/:id/receipts", advanceHandler.ListByCustomer)
	customerRoutes.GET("/:id/balance", advanceHandler.CustomerBalance)
	customerRoutes.GET("/:id/credit", creditHandler.GetUsage)
	customerRoutes.GET("/:id/credit/profile", creditHandler.GetProfile)
	customerRoutes.PUT("/:id/credit/profile", creditHandler.SetProfile)

	apiRouter := router.NewRouter(engine, router.WithAPIVersion("v1"))
	apiRouter.Register(billingRoutes)
	apiRouter.Register(dueRoutes)
	apiRouter.Register(advanceRoutes)
	apiRouter.Register(customerRoutes)
	apiRouter.Setup()

	engine.GET("/health", healthHandler(db))
	engine.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Periodic overdue sweep
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	if cfg.Sweep.Enabled {
		go runOverdueSweep(sweepCtx, dueService, cfg.Sweep.Interval, log)
	}

	// HTTP server
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

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
	stopSweep()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// runOverdueSweep transitions past-due records on a fixed interval until the
// context is cancelled
func runOverdueSweep(ctx context.Context, dueService *financeapp.DueService, interval time.Duration, log *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info("Overdue sweep scheduled", zap.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := dueService.SweepOverdue(ctx); err != nil {
				log.Error("Overdue sweep failed", zap.Error(err))
			}
		}
	}
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
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
