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
	"github.com/hibiken/asynq"
	commissionapp "github.com/selimmarslann-cyber/hizmetgo-sub000/internal/application/commission"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/domain/commission"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/infrastructure/accounting"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/infrastructure/auth"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/infrastructure/cache"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/infrastructure/config"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/infrastructure/event"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/infrastructure/idgen"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/infrastructure/logger"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/infrastructure/persistence"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/infrastructure/queue"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/infrastructure/storage"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/infrastructure/telemetry"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/interfaces/http/handler"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/interfaces/http/middleware"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/interfaces/http/router"
	"go.uber.org/zap"
)

const version = "1.0.0"

//	@title			Commission API
//	@version		1.0
//	@description	Referral commission distribution, invoicing and accounting submission

//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	ctx := context.Background()
	logCfg := &logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	}

	// The console logger reports telemetry setup; once the OTLP log pipeline
	// exists it is rebuilt with the bridge core attached.
	log, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	logProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize OTLP log export", zap.Error(err))
	}
	if logProvider.IsEnabled() {
		log, err = logger.New(logCfg, telemetry.NewZapOTELCore(telemetry.ZapBridgeConfig{
			ServiceName:    cfg.Telemetry.ServiceName,
			LoggerProvider: logProvider,
			Level:          logger.ParseLevel(cfg.Log.Level),
		}))
		if err != nil {
			panic("Failed to initialize logger: " + err.Error())
		}
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting commission engine",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("queue_driver", cfg.Queue.Driver),
	)

	// Tracing, metrics and profiling
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Telemetry.ProfilerEnabled,
		ServerAddress:   cfg.Telemetry.ProfilerAddress,
		ApplicationName: cfg.Telemetry.ServiceName,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if profiler.IsRunning() {
		tracerProvider.EnableSpanProfiles()
	}
	defer shutdownTelemetry(log, tracerProvider, meterProvider, logProvider, profiler)

	// Create GORM logger backed by zap
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
	if err := telemetry.InstrumentGorm(db.DB, telemetry.DBConfig{
		TraceEnabled: cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:   cfg.Telemetry.DBLogFullSQL,
		DBName:       cfg.Database.DBName,
	}, meterProvider, log); err != nil {
		log.Fatal("Failed to instrument database", zap.Error(err))
	}
	log.Info("Database connected successfully")

	// Repositories and collaborator read models
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	ledgerRepo := persistence.NewGormLedgerRepository(db.DB)
	reviewRepo := persistence.NewGormReviewCaseRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)
	profiles := persistence.NewGormBillingProfileReader(db.DB)

	rates, err := cfg.Commission.ToRateConfig()
	if err != nil {
		log.Fatal("Invalid commission rate table", zap.Error(err))
	}
	numbers, err := idgen.NewSnowflakeGenerator(cfg.App.NodeID)
	if err != nil {
		log.Fatal("Failed to create invoice number generator", zap.Error(err))
	}
	metrics, err := telemetry.NewCommissionMetrics(meterProvider)
	if err != nil {
		log.Fatal("Failed to create commission metrics", zap.Error(err))
	}

	// Redis backs asynq, submission leases and token revocation. The local
	// queue driver runs without it.
	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		if cfg.Queue.Driver == "asynq" {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		log.Warn("Redis unavailable, continuing with in-memory leases and revocations", zap.Error(err))
	}
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("Error closing Redis client", zap.Error(err))
			}
		}()
	}
	leases := cache.NewLeaseStoreFactory(redisClient, log).Create()

	gateway, err := accounting.NewGateway(cfg.Accounting, log)
	if err != nil {
		log.Fatal("Failed to create accounting gateway", zap.Error(err))
	}
	pdfStore, err := storage.NewPDFStore(ctx, &cfg.Storage, cfg.App.Env != "production", log)
	if err != nil {
		log.Fatal("Failed to create PDF store", zap.Error(err))
	}

	eventBus := event.NewInMemoryEventBus(log)

	// Application services
	orderService := commissionapp.NewOrderCompletionService(commissionapp.OrderCompletionDeps{
		TxScope:     txScope,
		InvoiceRepo: invoiceRepo,
		ReviewRepo:  reviewRepo,
		Profiles:    profiles,
		Calculator:  commission.NewFeeCalculator(rates),
		Chain:       commission.NewChainResolver(persistence.NewGormReferralGraph(db.DB), rates),
		Ranks:       commission.NewRankEngine(persistence.NewGormNetworkGMVSource(db.DB), commission.NewRankPolicy(rates)),
		Numbers:     numbers,
		Publisher:   eventBus,
		Metrics:     metrics,
		Logger:      log,
	})
	orderService.SetRankLookupConcurrency(cfg.Commission.RankLookupConcurrency)

	submitter := commissionapp.NewAccountingSubmitter(commissionapp.AccountingSubmitterDeps{
		InvoiceRepo: invoiceRepo,
		Profiles:    profiles,
		Gateway:     gateway,
		Leases:      leases,
		Publisher:   eventBus,
		VATRate:     rates.VATRate,
		Config: commissionapp.AccountingSubmitterConfig{
			MaxAttempts:     cfg.Accounting.MaxAttempts,
			AttemptTimeout:  cfg.Accounting.RequestTimeout,
			InitialInterval: cfg.Accounting.InitialInterval,
			MaxInterval:     cfg.Accounting.MaxInterval,
			LeaseTTL:        cfg.Accounting.LeaseTTL,
			RecoveryDelay:   cfg.Accounting.RetryDelay,
		},
		Metrics: metrics,
		Logger:  log,
	})

	taskQueue, stopQueue := setupQueue(cfg, submitter, orderService, log)
	defer stopQueue()

	dispatcher := commissionapp.NewDeliveryDispatcher(taskQueue, pdfStore, log)
	dispatcher.SetUploadExpiry(cfg.Storage.UploadExpiry)
	eventBus.Subscribe(dispatcher)
	eventBus.Subscribe(commissionapp.NewAccountingReviewHandler(reviewRepo, log))

	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := eventBus.Stop(stopCtx); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	queryService := commissionapp.NewInvoiceQueryService(invoiceRepo, pdfStore, eventBus, log)
	queryService.SetDownloadExpiry(cfg.Storage.DownloadExpiry)
	reviewService := commissionapp.NewReviewService(reviewRepo, invoiceRepo, ledgerRepo, taskQueue, log)

	if cfg.Queue.RecoveryEnabled {
		recovery := commissionapp.NewAccountingRecovery(invoiceRepo, taskQueue, commissionapp.AccountingRecoveryConfig{
			BatchSize:    cfg.Queue.RecoveryBatchSize,
			PollInterval: cfg.Queue.RecoveryInterval,
		}, log)
		if err := recovery.Start(ctx); err != nil {
			log.Fatal("Failed to start accounting recovery", zap.Error(err))
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := recovery.Stop(stopCtx); err != nil {
				log.Error("Error stopping accounting recovery", zap.Error(err))
			}
		}()
	}

	// Token verification and revocation
	jwtService := auth.NewJWTService(cfg.JWT)
	var revocations auth.RevocationList = auth.NewInMemoryRevocationList()
	if redisClient != nil {
		revocations = auth.NewRedisRevocationList(redisClient)
	}

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Request id first; every later layer logs it
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Tracing(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     tracerProvider.IsEnabled(),
	}))
	engine.Use(middleware.HTTPMetrics(meterProvider, log))
	engine.Use(middleware.Profiling(profiler.IsRunning()))
	engine.Use(middleware.Secure())

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	jwtConfig := middleware.DefaultJWTConfig(jwtService)
	jwtConfig.Revocations = revocations
	jwtConfig.Logger = log

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	router.RegisterCommission(engine, r, router.Handlers{
		Invoices: handler.NewInvoiceHandler(queryService),
		Orders:   handler.NewOrderHandler(orderService),
		Reviews:  handler.NewReviewHandler(reviewService),
		System:   handler.NewSystemHandler(db, cfg.App.Name, version),
	}, middleware.JWTAuthMiddlewareWithConfig(jwtConfig), middleware.TracingAttributeInjector())
	r.Setup()

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
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// setupQueue wires the task queue for the configured driver. The returned
// func stops whatever was started.
func setupQueue(
	cfg *config.Config,
	submitter *commissionapp.AccountingSubmitter,
	orderService *commissionapp.OrderCompletionService,
	log *zap.Logger,
) (commissionapp.TaskQueue, func()) {
	if cfg.Queue.Driver == "local" {
		local := queue.NewLocalQueue(submitter, cfg.Queue.Concurrency, log)
		log.Warn("Using in-process task queue; tasks are lost on restart")
		return local, local.Close
	}

	redisOpt := queue.RedisOpt(cfg.Redis)
	client := asynq.NewClient(redisOpt)
	worker := queue.NewWorker(redisOpt, cfg.Queue, queue.NewHandlers(submitter, orderService, log), log)
	if err := worker.Start(); err != nil {
		log.Fatal("Failed to start task worker", zap.Error(err))
	}
	inspector := asynq.NewInspector(redisOpt)
	asynqQueue := queue.NewAsynqQueue(client, log)
	asynqQueue.SetInspector(inspector)
	return asynqQueue, func() {
		worker.Shutdown()
		if err := inspector.Close(); err != nil {
			log.Error("Error closing asynq inspector", zap.Error(err))
		}
		if err := client.Close(); err != nil {
			log.Error("Error closing asynq client", zap.Error(err))
		}
	}
}

func shutdownTelemetry(
	log *zap.Logger,
	tp *telemetry.TracerProvider,
	mp *telemetry.MeterProvider,
	lp *telemetry.LoggerProvider,
	profiler *telemetry.Profiler,
) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := profiler.Stop(); err != nil {
		log.Warn("Error stopping profiler", zap.Error(err))
	}
	if err := tp.Shutdown(ctx); err != nil {
		log.Warn("Error shutting down tracer provider", zap.Error(err))
	}
	if err := mp.Shutdown(ctx); err != nil {
		log.Warn("Error shutting down meter provider", zap.Error(err))
	}
	if err := lp.Shutdown(ctx); err != nil {
		log.Warn("Error shutting down logger provider", zap.Error(err))
	}
}
