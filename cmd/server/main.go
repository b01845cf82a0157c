package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	_ "github.com/storefront/backend/docs"
	appcart "github.com/storefront/backend/internal/application/cart"
	"github.com/storefront/backend/internal/application/checkout"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/event"
	"github.com/storefront/backend/internal/infrastructure/identity"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/notification"
	"github.com/storefront/backend/internal/infrastructure/payment"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"github.com/storefront/backend/internal/interfaces/http/handler"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
	"github.com/storefront/backend/internal/interfaces/http/router"
)

//	@title			Storefront Cart API
//	@version		1.0
//	@description	Cart state and checkout for the multilingual storefront.

//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Optional access token. Format: "Bearer {token}"

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

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

	ctx := context.Background()
	tel, err := setupTelemetry(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer tel.shutdown(log)
	log = tel.logger

	log.Info("Starting storefront cart API",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", telemetry.ServiceVersion),
	)

	// Remote cart store
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))
	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithLogger(gormLog))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBName:          cfg.Database.DBName,
	}, log)
	if err := dbTracing.Register(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	if sqlDB, err := db.DB.DB(); err == nil {
		if err := telemetry.RegisterDBPoolMetrics(tel.meter, sqlDB); err != nil {
			log.Warn("Failed to register database pool metrics", zap.Error(err))
		}
	}
	remoteStore := persistence.NewGormCartLineRepository(db.DB)
	log.Info("Database connected successfully")

	// Guest cart store
	guestFactory := cache.NewGuestCartStoreFactory(
		cache.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		cache.WithLogger(log),
		cache.WithInMemoryFallback(!cfg.Cart.LocalStoreStrict),
		cache.WithKeyPrefix(cfg.Cart.GuestKeyPrefix),
		cache.WithTTL(cfg.Cart.GuestTTL),
	)
	guestStore, err := guestFactory.CreateStore(ctx, cfg.Cart.LocalStore)
	if err != nil {
		log.Fatal("Failed to create guest cart store", zap.Error(err))
	}
	defer func() {
		if err := guestStore.Close(); err != nil {
			log.Error("Error closing guest cart store", zap.Error(err))
		}
	}()

	// Identity, notifications and events
	hub := identity.NewHub(log)
	verifier := identity.NewTokenVerifier(cfg.JWT)
	toasts := notification.NewCenter(cfg.Cart.NotificationDuration)
	defer toasts.Close()

	bus := event.NewInMemoryEventBus(log)
	bus.Subscribe(appcart.NewItemAddedNotificationHandler(toasts, log))
	bus.Subscribe(appcart.NewGuestCartMergedHandler(log))
	if err := bus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		_ = bus.Stop(context.Background())
	}()

	// Cart engines
	cartMetrics, err := telemetry.NewCartMetrics(tel.meter)
	if err != nil {
		log.Fatal("Failed to create cart metrics", zap.Error(err))
	}
	sessions := appcart.NewSessionRegistry(func(sessionID string) *appcart.Engine {
		return appcart.NewEngine(sessionID, guestStore, remoteStore, hub, log,
			appcart.WithMetrics(cartMetrics),
			appcart.WithEventPublisher(bus),
			appcart.WithQueueSize(cfg.Cart.QueueSize),
			appcart.WithStepTimeout(cfg.Cart.StepTimeout),
		)
	}, cfg.Cart.SessionIdleTimeout, cfg.Cart.SessionSweepInterval, log)
	defer sessions.Close()
	if err := telemetry.RegisterSessionGauge(tel.meter, sessions.Len); err != nil {
		log.Warn("Failed to register session gauge", zap.Error(err))
	}

	// Checkout bridge
	gateway, err := payment.NewHTTPCheckoutGateway(payment.CheckoutGatewayConfig{
		Endpoint:   cfg.Checkout.Endpoint,
		SecretKey:  cfg.Checkout.SecretKey,
		Timeout:    cfg.Checkout.Timeout,
		SuccessURL: cfg.Checkout.SuccessURL,
		CancelURL:  cfg.Checkout.CancelURL,
	})
	if err != nil {
		log.Fatal("Failed to create checkout gateway", zap.Error(err))
	}
	checkoutService := checkout.NewService(gateway, checkout.Config{
		NameMaxLength:    cfg.Checkout.NameMaxLength,
		DefaultLocale:    cfg.Checkout.DefaultLocale,
		SupportedLocales: cfg.Checkout.SupportedLocales,
	}, log)

	engine, err := newEngine(cfg, log, tel, verifier, hub)
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}

	systemHandler := handler.NewSystemHandler(telemetry.ServiceVersion, db, sessions.Len)
	engine.GET("/health", systemHandler.Health)
	router.RegisterSwagger(engine, middleware.SwaggerConfig{
		Enabled:    cfg.Swagger.Enabled,
		AllowedIPs: cfg.Swagger.AllowedIPs,
	})
	router.NewRouter(engine, router.WithAPIVersion("v1")).
		Register(
			router.CartRoutes(handler.NewCartHandler(sessions, toasts)),
			router.CheckoutRoutes(handler.NewCheckoutHandler(sessions, checkoutService)),
			router.SystemRoutes(systemHandler),
		).
		Setup()

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
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// newEngine builds gin with the storefront middleware stack:
// request id, recovery, request log, tracing, metrics, security headers,
// CORS, body limit, session, identity and span attributes.
func newEngine(cfg *config.Config, log *zap.Logger, tel *telemetryStack, verifier *identity.TokenVerifier, hub *identity.Hub) (*gin.Engine, error) {
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

	var meter = tel.meter
	if !tel.meters.IsEnabled() {
		meter = nil
	}
	httpMetrics, err := middleware.HTTPMetrics(meter)
	if err != nil {
		return nil, err
	}

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}

	engine.Use(
		middleware.RequestID(),
		logger.Recovery(log),
		logger.GinMiddleware(log),
		middleware.Tracing(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     tel.tracer.IsEnabled(),
		}),
		httpMetrics,
		middleware.Secure(),
		middleware.CORSWithConfig(corsConfig),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
		middleware.Session(cfg.Session),
		middleware.Identity(verifier, hub, log),
		middleware.SpanAttributes(),
	)
	return engine, nil
}
