package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appconstruction "github.com/egp/construction-control/internal/application/construction"
	appevent "github.com/egp/construction-control/internal/application/event"
	"github.com/egp/construction-control/internal/infrastructure/auth"
	"github.com/egp/construction-control/internal/infrastructure/cache"
	"github.com/egp/construction-control/internal/infrastructure/config"
	"github.com/egp/construction-control/internal/infrastructure/event"
	"github.com/egp/construction-control/internal/infrastructure/logger"
	"github.com/egp/construction-control/internal/infrastructure/persistence"
	"github.com/egp/construction-control/internal/infrastructure/scheduler"
	"github.com/egp/construction-control/internal/infrastructure/telemetry"
	"github.com/egp/construction-control/internal/interfaces/http/handler"
	"github.com/egp/construction-control/internal/interfaces/http/middleware"
	"github.com/egp/construction-control/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

//	@title			Construction Control API
//	@version		1.0
//	@description	Construction contract tracking with quality and property control batches

//	@contact.name	API Support
//	@contact.url	https://github.com/egp/construction-control

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	baseLog, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = baseLog.Sync() }()

	ctx := context.Background()

	// Telemetry providers come first so the log bridge and instrumentation
	// below pick them up
	logsProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, baseLog)
	if err != nil {
		baseLog.Fatal("Failed to initialize OTEL logs", zap.Error(err))
	}
	log := logsProvider.Bridge(baseLog, zapcore.InfoLevel)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    30 * time.Second,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}
	meter := meterProvider.Meter(cfg.Telemetry.ServiceName)

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Telemetry.ProfilingEnabled,
		ServerAddress:   cfg.Telemetry.ProfilingServer,
		ApplicationName: cfg.Telemetry.ServiceName,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize profiler", zap.Error(err))
	}
	if profiler.IsEnabled() && cfg.Telemetry.ProfilingSpanEnabled {
		tracerProvider.EnableSpanProfiles()
	}

	log.Info("Starting construction control",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), cfg.Telemetry.DBSlowQueryThresh)
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBSystem:        "postgresql",
	}, log)
	if err := dbTracing.RegisterOtelGorm(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	dbMetrics, err := telemetry.RegisterDBMetrics(db.DB, meter, cfg.Telemetry.DBSlowQueryThresh, log)
	if err != nil {
		log.Fatal("Failed to register database metrics", zap.Error(err))
	}
	defer func() { _ = dbMetrics.Unregister() }()
	log.Info("Database connected")

	businessMetrics, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{Meter: meter, Logger: log})
	if err != nil {
		log.Fatal("Failed to initialize business metrics", zap.Error(err))
	}

	// Events recorded by aggregates are written to the outbox in the same
	// transaction as the aggregate
	serializer := event.NewEventSerializer()
	event.RegisterConstructionEvents(serializer)
	outboxPublisher := event.NewOutboxPublisher(serializer)
	outboxPublisher.SetMaxRetries(cfg.Event.MaxRetries)
	outboxRepo := event.NewGormOutboxRepository(db.DB)

	contractRepo := persistence.NewGormContractRepository(db.DB)
	contractRepo.SetOutboxEventSaver(outboxPublisher)
	batchRepo := persistence.NewGormBatchRepository(db.DB)
	batchRepo.SetOutboxEventSaver(outboxPublisher)
	noteRepo := persistence.NewGormNoteRepository(db.DB)
	procurementReader := persistence.NewGormProcurementContractReader(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB, outboxPublisher)

	idempotencyStore, err := cache.NewIdempotencyStoreFactory(cfg.Redis, cache.WithLogger(log)).CreateStore(ctx)
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	defer func() {
		if closer, ok := idempotencyStore.(io.Closer); ok {
			_ = closer.Close()
		}
	}()

	contractService := appconstruction.NewContractService(contractRepo, noteRepo, procurementReader)
	dispatchService := appconstruction.NewDispatchService(txScope, log.Named("dispatch"))
	dispatchService.SetIdempotencyStore(idempotencyStore, cfg.Event.IdempotencyTTL)
	dispatchService.SetBusinessMetrics(businessMetrics)
	inspectionService := appconstruction.NewInspectionService(batchRepo, contractRepo)
	inspectionService.SetBusinessMetrics(businessMetrics)
	summaryService := appconstruction.NewSummaryService(contractRepo, batchRepo)
	outboxService := appevent.NewOutboxService(outboxRepo, log.Named("outbox"))

	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(event.NewIdempotentHandler(
		appconstruction.NewBatchCompletedHandler(noteRepo, log),
		idempotencyStore,
		log,
		event.WithKeyPrefix("batch-completed-note"),
	))
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	jobs := scheduler.New(scheduler.DefaultConfig(), log.Named("scheduler"))
	if cfg.Event.ProcessorEnabled {
		processor := event.NewOutboxProcessor(outboxRepo, eventBus, serializer, event.OutboxProcessorConfig{
			BatchSize:        cfg.Event.BatchSize,
			PollInterval:     cfg.Event.PollInterval,
			CleanupRetention: cfg.Event.CleanupRetention,
		}, log.Named("outbox"))
		if err := processor.Start(ctx); err != nil {
			log.Fatal("Failed to start outbox processor", zap.Error(err))
		}
		defer func() {
			if err := processor.Stop(context.Background()); err != nil {
				log.Error("Error stopping outbox processor", zap.Error(err))
			}
		}()
		if err := jobs.AddJob("outbox-cleanup", cfg.Event.CleanupCron, processor.Cleanup); err != nil {
			log.Fatal("Failed to schedule outbox cleanup", zap.Error(err))
		}
		log.Info("Outbox processor started",
			zap.Int("batch_size", cfg.Event.BatchSize),
			zap.Duration("poll_interval", cfg.Event.PollInterval),
			zap.String("cleanup_cron", cfg.Event.CleanupCron),
		)
	}
	jobs.Start()
	defer func() {
		if err := jobs.Stop(context.Background()); err != nil {
			log.Error("Error stopping scheduler", zap.Error(err))
		}
	}()

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := middleware.SetupValidator(); err != nil {
		log.Fatal("Failed to set up validator", zap.Error(err))
	}
	httpMetrics, err := middleware.HTTPMetrics(meter)
	if err != nil {
		log.Fatal("Failed to create HTTP metrics", zap.Error(err))
	}

	// Middleware order: request id, recovery, access log, security headers,
	// CORS, body limit, tracing, metrics
	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		logger.Recovery(log),
		logger.GinMiddleware(log),
		middleware.Secure(),
		middleware.CORS(corsConfig(cfg.HTTP)),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
		middleware.Tracing(cfg.Telemetry.ServiceName),
		httpMetrics,
	)

	engine.GET("/health", handler.NewHealthHandler(db, outboxService).Check)

	jwtService := auth.NewJWTService(cfg.JWT)
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Use(middleware.JWTAuth(middleware.JWTConfig{Validator: jwtService, Logger: log}))
	r.Register(router.ConstructionRoutes(router.Handlers{
		Contract: handler.NewContractHandler(contractService, dispatchService, inspectionService, summaryService),
		Batch:    handler.NewBatchHandler(inspectionService),
		Outbox:   handler.NewOutboxHandler(outboxService),
	})...)
	r.Setup()

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           engine,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down tracer provider", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down meter provider", zap.Error(err))
	}
	if err := profiler.Stop(); err != nil {
		log.Error("Error stopping profiler", zap.Error(err))
	}
	if err := logsProvider.Shutdown(shutdownCtx); err != nil {
		baseLog.Error("Error shutting down logger provider", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

func corsConfig(cfg config.HTTPConfig) middleware.CORSConfig {
	c := middleware.DefaultCORSConfig()
	c.AllowOrigins = cfg.CORSAllowOrigins
	return c
}
