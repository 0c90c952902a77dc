package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	eventapp "github.com/storefront/backend/internal/application/event"
	inventoryapp "github.com/storefront/backend/internal/application/inventory"
	tradeapp "github.com/storefront/backend/internal/application/trade"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/trade"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/event"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	"github.com/storefront/backend/internal/infrastructure/scheduler"
	"github.com/storefront/backend/internal/infrastructure/storage"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"github.com/storefront/backend/internal/interfaces/http/handler"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
	"github.com/storefront/backend/internal/interfaces/http/router"
)

//	@title			Storefront Backend API
//	@version		1.0
//	@description	Orders, payment holds, inventory ledger and returns for the storefront.

//	@host		localhost:8080
//	@BasePath	/api/v1

const meterName = "github.com/storefront/backend"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: cfg.Log.TimeFormat,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Error("Server stopped with error", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, baseLog *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	providers, err := telemetry.Setup(ctx, telemetryConfig(cfg), baseLog)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			baseLog.Warn("Telemetry shutdown failed", zap.Error(err))
		}
	}()

	log := baseLog
	if level, err := logger.ParseLevel(cfg.Telemetry.LogsLevel); err == nil {
		log = providers.Logs.Bridge(baseLog, cfg.Telemetry.ServiceName, level)
	}

	log.Info("Starting storefront backend",
		zap.String("app", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Database.SlowThreshold))
	db, err := persistence.Open(ctx, &cfg.Database, gormLog)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		DBName:          cfg.Database.DBName,
		WithVariables:   cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
	}, log); err != nil {
		return err
	}
	log.Info("Database connected")

	// Repositories
	productRepo := persistence.NewGormProductRepository(db.DB)
	variantRepo := persistence.NewGormVariantRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	returnRepo := persistence.NewGormReturnRequestRepository(db.DB)
	reservationRepo := persistence.NewGormStockReservationRepository(db.DB)
	movementRepo := persistence.NewGormStockMovementRepository(db.DB)
	ledger := persistence.NewGormStockLedger(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	// Metrics and events
	businessMetrics, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter:        providers.Meter.Meter(meterName),
		Logger:       log,
		Reservations: reservationRepo,
	})
	if err != nil {
		return err
	}
	businessMetrics.StartPeriodicCollection(ctx, cfg.Telemetry.MetricsInterval)
	defer businessMetrics.Stop()

	idempotencyStore, err := cache.NewIdempotencyStoreFactory(redisConfig(cfg),
		cache.WithLogger(log),
		cache.WithRedisEnabled(cfg.Redis.Enabled),
		cache.WithInMemoryFallback(cfg.Redis.FallbackInMemory || !cfg.App.IsProduction()),
	).CreateStore(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Warn("Error closing idempotency store", zap.Error(err))
		}
	}()

	bus := event.NewInMemoryEventBus(log, event.WithHandlerTimeout(cfg.Event.HandlerTimeout))
	subscribe(bus, idempotencyStore, cfg.Event, log,
		eventapp.NewNotificationHandler(log),
		eventapp.NewMetricsHandler(businessMetrics),
	)
	if err := bus.Start(ctx); err != nil {
		return err
	}
	defer func() { _ = bus.Stop(context.Background()) }()

	// Services
	checkoutService := tradeapp.NewCheckoutService(productRepo, variantRepo, txScope, log)
	checkoutService.SetEventPublisher(bus)
	shipping, err := trade.NewShippingPolicy(cfg.Checkout.ShippingFee, cfg.Checkout.FreeShippingThreshold)
	if err != nil {
		return err
	}
	checkoutService.SetShippingPolicy(shipping)

	reservationService := tradeapp.NewReservationService(txScope, orderRepo, tradeapp.ReservationConfig{
		Hold:           cfg.Reservation.HoldDuration,
		ResolveRetries: cfg.Reservation.ResolveRetries,
		RetryBackoff:   cfg.Reservation.RetryBackoff,
		IdempotencyTTL: cfg.Reservation.IdempotencyTTL,
		TimerTimeout:   cfg.Reservation.TimerTimeout,
	}, log)
	reservationService.SetEventPublisher(bus)
	reservationService.SetIdempotencyStore(idempotencyStore)
	defer reservationService.Stop()

	orderService := tradeapp.NewOrderService(orderRepo, txScope, reservationService, log)
	orderService.SetEventPublisher(bus)

	returnService := tradeapp.NewReturnService(txScope, orderRepo, returnRepo, productRepo, tradeapp.ReturnConfig{
		Window:          cfg.Return.Window,
		UploadURLExpiry: cfg.Return.UploadURLExpiry,
	}, log)
	returnService.SetEventPublisher(bus)
	if cfg.Storage.Enabled {
		evidence, err := storage.NewS3EvidenceStorage(ctx, cfg.Storage,
			storage.WithLogger(log),
			storage.WithPresignExpiration(cfg.Storage.PresignExpiration))
		if err != nil {
			return err
		}
		if cfg.Storage.CreateBucket {
			if err := evidence.EnsureBucket(ctx); err != nil {
				return err
			}
		}
		returnService.SetEvidenceStorage(evidence)
	}

	inventoryService := inventoryapp.NewInventoryService(ledger, movementRepo)

	// Background sweep of holds whose timer was lost
	jobs := scheduler.New(log)
	if cfg.Reservation.AutoReleaseEnabled {
		expiration := inventoryapp.NewReservationExpirationService(reservationRepo, reservationService, log)
		expiration.SetBatchSize(cfg.Reservation.SweepBatchSize)
		if err := jobs.Register(scheduler.NewReservationSweepJob(scheduler.ReservationSweepConfig{
			Interval: cfg.Reservation.SweepInterval,
		}, expiration, businessMetrics, log)); err != nil {
			return err
		}
	}
	jobs.Start(ctx)
	defer jobs.Stop()

	// HTTP
	var limiter *middleware.RateLimiter
	if cfg.HTTP.RateLimit > 0 {
		limiter = middleware.NewRateLimiter(cfg.HTTP.RateLimit, cfg.HTTP.RateLimitWindow)
		defer limiter.Stop()
	}

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine, err := router.NewEngine(router.Config{
		ServiceName:    cfg.Telemetry.ServiceName,
		TracingEnabled: cfg.Telemetry.Enabled,
		Meter:          providers.Meter.Meter(meterName),
		Logger:         log,
		CORS: middleware.CORSConfig{
			AllowOrigins: cfg.HTTP.CORSAllowOrigins,
			AllowMethods: cfg.HTTP.CORSAllowMethods,
			AllowHeaders: cfg.HTTP.CORSAllowHeaders,
		},
		MaxBodySize:    cfg.HTTP.MaxBodySize,
		TrustedProxies: cfg.HTTP.TrustedProxies,
		RateLimiter:    limiter,
	}, router.Handlers{
		Checkout:  handler.NewCheckoutHandler(checkoutService),
		Orders:    handler.NewOrderHandler(orderService),
		Payments:  handler.NewPaymentHandler(reservationService),
		Inventory: handler.NewInventoryHandler(inventoryService),
		Returns:   handler.NewReturnHandler(returnService),
		Health:    handler.NewHealthHandler(db, cfg.App.Version),
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}
	log.Info("Shutting down server...", zap.Int("armed_holds", reservationService.ArmedTimers()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("Server exited gracefully")
	return nil
}

// subscribe registers each handler on the bus, deduplicated by event ID
// when idempotency is enabled.
func subscribe(bus *event.InMemoryEventBus, store shared.IdempotencyStore, cfg config.EventConfig, log *zap.Logger, handlers ...shared.EventHandler) {
	idem := shared.IdempotencyConfig{Enabled: cfg.IdempotencyEnabled, TTL: cfg.IdempotencyTTL}
	for _, h := range handlers {
		wrapped := h
		if idem.Enabled {
			wrapped = event.NewIdempotentHandler(h, store, idem, log)
		}
		bus.Subscribe(wrapped, h.EventTypes()...)
	}
}

func telemetryConfig(cfg *config.Config) telemetry.Config {
	return telemetry.Config{
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: cfg.App.Version,
		Endpoint:       cfg.Telemetry.CollectorEndpoint,
		Insecure:       cfg.Telemetry.Insecure,
		TracesEnabled:  cfg.Telemetry.Enabled,
		SamplingRatio:  cfg.Telemetry.SamplingRatio,
		MetricsEnabled: cfg.Telemetry.MetricsEnabled,
		ExportInterval: cfg.Telemetry.MetricsInterval,
		LogsEnabled:    cfg.Telemetry.LogsEnabled,
	}
}

func redisConfig(cfg *config.Config) cache.RedisConfig {
	return cache.RedisConfig{
		Host:        cfg.Redis.Host,
		Port:        cfg.Redis.Port,
		Password:    cfg.Redis.Password,
		DB:          cfg.Redis.DB,
		DialTimeout: cfg.Redis.DialTimeout,
		KeyPrefix:   cfg.Redis.KeyPrefix,
	}
}
