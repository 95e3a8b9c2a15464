package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	directoryapp "github.com/screentime/backend/internal/application/directory"
	usageapp "github.com/screentime/backend/internal/application/usage"
	wellbeingapp "github.com/screentime/backend/internal/application/wellbeing"
	"github.com/screentime/backend/internal/infrastructure/auth"
	"github.com/screentime/backend/internal/infrastructure/cache"
	"github.com/screentime/backend/internal/infrastructure/config"
	"github.com/screentime/backend/internal/infrastructure/event"
	"github.com/screentime/backend/internal/infrastructure/logger"
	"github.com/screentime/backend/internal/infrastructure/notify"
	"github.com/screentime/backend/internal/infrastructure/persistence"
	"github.com/screentime/backend/internal/infrastructure/telemetry"
	"github.com/screentime/backend/internal/interfaces/http/handler"
	"github.com/screentime/backend/internal/interfaces/http/middleware"
	"github.com/screentime/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting screen time backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize OpenTelemetry providers. Disabled telemetry yields no-op
	// providers, so the rest of the wiring is unconditional.
	ctx := context.Background()
	tracerProvider, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	meterProvider, err := telemetry.NewMeterProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() {
		if err := meterProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()

	loggerProvider, err := telemetry.NewLoggerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	defer func() {
		if err := loggerProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down logger provider", zap.Error(err))
		}
	}()
	// Mirror application logs to the OTLP collector
	log = loggerProvider.BridgeZap(log)

	usageMetrics, err := telemetry.NewUsageMetrics(meterProvider)
	if err != nil {
		log.Fatal("Failed to create usage metrics", zap.Error(err))
	}

	// Initialize database connection with zap-backed GORM logging
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, log, logger.MapGormLogLevel(cfg.Log.Level))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	if err := telemetry.RegisterOtelGorm(db.DB, tracerProvider, log); err != nil {
		log.Warn("Failed to register database tracing", zap.Error(err))
	}

	// Summary cache is optional; without Redis, summaries are recomputed on
	// every read.
	var summaryCache usageapp.SummaryCache
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
		summaryCache = cache.NewRedisSummaryCache(redisClient)
		log.Info("Summary cache enabled", zap.String("addr", cfg.Redis.Addr()))
	}

	// Initialize repositories
	deviceRepo := persistence.NewDeviceRepository(db.DB)
	appRepo := persistence.NewAppRepository(db.DB)
	eventRepo := persistence.NewUsageEventRepository(db.DB)
	snapshotRepo := persistence.NewDailySnapshotRepository(db.DB)
	goalRepo := persistence.NewGoalRepository(db.DB)
	categoryRepo := persistence.NewCategoryRepository(db.DB)
	limitRepo := persistence.NewAppLimitRepository(db.DB)

	// Initialize event bus and handlers
	eventBus := event.NewInMemoryEventBus(log)
	alertNotifier := notify.NewAlertNotifier(log)
	eventBus.Subscribe(alertNotifier, alertNotifier.EventTypes()...)
	log.Info("Event handlers registered",
		zap.Strings("alert_notifier_events", alertNotifier.EventTypes()))

	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Initialize application services
	deviceService := directoryapp.NewDeviceService(deviceRepo, log)
	ingestionService := usageapp.NewIngestionService(
		eventRepo, snapshotRepo, deviceRepo, appRepo, eventBus, summaryCache, log)
	aggregationService := usageapp.NewAggregationService(
		eventRepo, snapshotRepo, deviceRepo, appRepo, summaryCache, cfg.Usage.SummaryCacheTTL, log)
	hourlyService := usageapp.NewHourlyService(eventRepo, deviceRepo, log)
	goalService := wellbeingapp.NewGoalService(
		goalRepo, categoryRepo, deviceRepo, aggregationService, eventBus, log)
	categoryService := wellbeingapp.NewCategoryService(
		categoryRepo, limitRepo, deviceRepo, appRepo, log)
	insightService := wellbeingapp.NewInsightService(
		limitRepo, deviceRepo, aggregationService, goalService, eventBus, log)

	jwtService := auth.NewJWTService(cfg.JWT)

	// Initialize HTTP handlers
	deviceHandler := handler.NewDeviceHandler(deviceService)
	usageHandler := handler.NewUsageHandler(ingestionService, aggregationService, hourlyService, cfg.Usage)
	usageHandler.SetMetrics(usageMetrics)
	goalHandler := handler.NewGoalHandler(goalService)
	categoryHandler := handler.NewCategoryHandler(categoryService)
	insightHandler := handler.NewInsightHandler(insightService, cfg.Usage)
	insightHandler.SetMetrics(usageMetrics)
	systemHandler := handler.NewSystemHandler(db)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	middleware.SetupValidator()

	engine := gin.New()

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware stack, outermost first: request IDs, panic recovery,
	// request logging, tracing, security headers, CORS, body limit.
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	if cfg.Telemetry.Enabled {
		engine.Use(otelgin.Middleware(cfg.Telemetry.ServiceName))
	}
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db))

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Ingestion endpoints authenticate by device identifier, not bearer
	// token, so devices can report without user credentials.
	r.Use(middleware.JWTAuthMiddleware(middleware.JWTMiddlewareConfig{
		Service: jwtService,
		SkipPaths: []string{
			"/api/v1/ping",
			"/api/v1/system/ping",
			"/api/v1/system/info",
			"/api/v1/usage/events",
			"/api/v1/usage/snapshots",
		},
		Logger: log,
	}))

	// Device directory
	deviceRoutes := router.NewDomainGroup("devices", "/devices")
	deviceRoutes.POST("", deviceHandler.Register)
	deviceRoutes.GET("", deviceHandler.List)
	deviceRoutes.GET("/:identifier", deviceHandler.Get)

	// Usage ingestion and summaries
	usageRoutes := router.NewDomainGroup("usage", "/usage")
	usageRoutes.POST("/events", usageHandler.RecordEvent)
	usageRoutes.POST("/snapshots", usageHandler.SyncSnapshots)
	usageRoutes.GET("/summary/daily", usageHandler.GetDailySummary)
	usageRoutes.GET("/summary/weekly", usageHandler.GetWeeklySummary)
	usageRoutes.GET("/summary/range", usageHandler.GetRangeSummary)
	usageRoutes.GET("/summary/combined/daily", usageHandler.GetCombinedDailySummary)
	usageRoutes.GET("/summary/combined/range", usageHandler.GetCombinedRangeSummary)
	usageRoutes.GET("/hourly", usageHandler.GetHourlyUsage)
	usageRoutes.GET("/hourly/daily", usageHandler.GetDailyHourly)
	usageRoutes.GET("/peak-hours", usageHandler.GetPeakHours)

	// Goals and progress
	goalRoutes := router.NewDomainGroup("goals", "/goals")
	goalRoutes.POST("", goalHandler.Create)
	goalRoutes.GET("", goalHandler.List)
	goalRoutes.GET("/progress", goalHandler.GetAllProgress)
	goalRoutes.GET("/:id", goalHandler.Get)
	goalRoutes.PUT("/:id", goalHandler.Update)
	goalRoutes.DELETE("/:id", goalHandler.Delete)
	goalRoutes.GET("/:id/progress", goalHandler.GetProgress)

	// App categories
	categoryRoutes := router.NewDomainGroup("categories", "/categories")
	categoryRoutes.POST("", categoryHandler.CreateCategory)
	categoryRoutes.GET("", categoryHandler.ListCategories)
	categoryRoutes.GET("/:id/apps", categoryHandler.ListApps)
	categoryRoutes.POST("/:id/apps", categoryHandler.AddApp)
	categoryRoutes.DELETE("/:id/apps/:app_id", categoryHandler.RemoveApp)

	// Per-app daily limits
	limitRoutes := router.NewDomainGroup("limits", "/limits")
	limitRoutes.POST("", categoryHandler.CreateLimit)
	limitRoutes.GET("", categoryHandler.ListLimits)
	limitRoutes.DELETE("/:id", categoryHandler.DeleteLimit)

	// Insights
	insightRoutes := router.NewDomainGroup("insights", "/insights")
	insightRoutes.GET("", insightHandler.GetInsights)

	// System
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/health", systemHandler.GetHealth)
	systemRoutes.GET("/ping", systemHandler.Ping)

	r.Register(deviceRoutes).
		Register(usageRoutes).
		Register(goalRoutes).
		Register(categoryRoutes).
		Register(limitRoutes).
		Register(insightRoutes).
		Register(systemRoutes)

	r.Setup()

	// Also keep a simple ping at root API level for basic health checks
	engine.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for the load balancer health check
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.FromContext(c.Request.Context())
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
