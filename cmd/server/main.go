package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/erp/wmsconnector/internal/application/wmssync"
	"github.com/erp/wmsconnector/internal/infrastructure/auth"
	"github.com/erp/wmsconnector/internal/infrastructure/cache"
	"github.com/erp/wmsconnector/internal/infrastructure/config"
	"github.com/erp/wmsconnector/internal/infrastructure/logger"
	"github.com/erp/wmsconnector/internal/infrastructure/persistence"
	"github.com/erp/wmsconnector/internal/infrastructure/scheduler"
	"github.com/erp/wmsconnector/internal/infrastructure/telemetry"
	"github.com/erp/wmsconnector/internal/infrastructure/wmsapi"
	"github.com/erp/wmsconnector/internal/interfaces/http/handler"
	"github.com/erp/wmsconnector/internal/interfaces/http/middleware"
	"github.com/erp/wmsconnector/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	issueFor := flag.String("issue-token", "", "print an admin API token for the given operator and exit")
	tokenTTL := flag.Duration("token-ttl", 24*time.Hour, "lifetime of a token printed by -issue-token")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	if *issueFor != "" {
		if err := printToken(cfg.Admin, *issueFor, *tokenTTL); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		Service:    cfg.App.Name,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting WMS connector",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tracerProvider, err := telemetry.NewTracerProvider(rootCtx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Environment:       cfg.App.Env,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	// Create GORM logger backed by zap. Slow queries are reported by the tracing plugin when it is on.
	dbTraced := cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled
	slowThreshold := cfg.Telemetry.DBSlowQueryThresh
	if dbTraced {
		slowThreshold = 0
	}
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), logger.WithSlowThreshold(slowThreshold))

	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connected successfully")

	dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         dbTraced,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
	}, log)
	if err := dbTracing.RegisterOtelGorm(db.DB); err != nil {
		log.Warn("Failed to register database tracing", zap.Error(err))
	}

	// Repositories over the ERP tables
	productRepo := persistence.NewGormProductRepository(db.DB)
	salesOrderRepo := persistence.NewGormSalesOrderRepository(db.DB)
	purchaseOrderRepo := persistence.NewGormPurchaseOrderRepository(db.DB)
	notifier := persistence.NewGormActivityNotifier(db.DB)
	fulfillment := persistence.NewGormFulfillment(db.DB)

	// WMS API
	clientCfg := wmsapi.NewClientConfig()
	clientCfg.BaseURL = cfg.WMS.BaseURL
	clientCfg.Username = cfg.WMS.Username
	clientCfg.Password = cfg.WMS.Password
	clientCfg.ClientID = cfg.WMS.ClientID
	clientCfg.ClientSecret = cfg.WMS.ClientSecret
	clientCfg.TimeoutSeconds = cfg.WMS.TimeoutSeconds
	clientCfg.RateLimitPerSecond = cfg.WMS.RateLimitPerSecond
	client := wmsapi.NewClient(clientCfg, wmsapi.WithLogger(log))
	if err := client.ConfigError(); err != nil {
		log.Warn("WMS API not configured, every sync will fail until it is", zap.Error(err))
	}
	gateway := wmsapi.NewGateway(client)

	guard, err := cache.NewPushGuardFactory(cfg.Redis, cache.WithLogger(log)).CreateGuard()
	if err != nil {
		log.Fatal("Failed to create push guard", zap.Error(err))
	}

	deps := wmssync.Deps{
		Gateway:  gateway,
		Notifier: notifier,
		Throttle: wmssync.NewFailureThrottle(notifier, cfg.Sync.ThrottleWindow, log),
		Guard:    guard,
		GuardTTL: cfg.Sync.PushGuardTTL,
		Logger:   log,
	}
	products := wmssync.NewProductSyncDriver(productRepo, deps)
	jobs := wmssync.NewJobs(wmssync.JobsConfig{
		Products:     products,
		Orders:       wmssync.NewOrderSyncDriver(salesOrderRepo, products, deps),
		Inbound:      wmssync.NewInboundSyncDriver(purchaseOrderRepo, products, cfg.WMS.InboundSyncEnabled, deps),
		OrderRecon:   wmssync.NewOrderReconciler(gateway, salesOrderRepo, fulfillment, notifier, cfg.Sync.OrderWindow, log),
		StockRecon:   wmssync.NewStockReconciler(gateway, productRepo, notifier, log),
		ProductRepo:  productRepo,
		OrderRepo:    salesOrderRepo,
		PurchaseRepo: purchaseOrderRepo,
		Gateway:      gateway,
		BatchLimit:   cfg.Sync.BatchLimit,
		Logger:       log,
	})

	sched := scheduler.NewScheduler(scheduler.Config{
		Enabled:    cfg.Sync.Enabled,
		JobTimeout: cfg.Sync.JobTimeout,
	}, log)
	if err := registerJobs(sched, jobs, cfg.Sync); err != nil {
		log.Fatal("Failed to register jobs", zap.Error(err))
	}
	if err := sched.Start(rootCtx); err != nil {
		log.Fatal("Failed to start scheduler", zap.Error(err))
	}

	// Admin API
	gin.SetMode(ginMode(cfg.App.Env))
	middleware.SetupValidator()

	health := handler.NewHealthHandler(db, jobs, sched)
	routerCfg := router.Config{
		ServiceName:    cfg.Telemetry.ServiceName,
		TracingEnabled: tracerProvider.IsEnabled(),
		TrustedProxies: cfg.HTTP.TrustedProxies,
		Logger:         log,
		Liveness:       health.Liveness,
		Registrars: []router.RouteRegistrar{
			health,
			handler.NewSyncHandler(jobs),
			handler.NewNotesHandler(notifier),
		},
	}
	if cfg.Admin.JWTSecret != "" {
		tokens, err := auth.NewTokenService(cfg.Admin)
		if err != nil {
			log.Fatal("Failed to initialize admin authentication", zap.Error(err))
		}
		routerCfg.Tokens = tokens
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        router.New(routerCfg),
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed", zap.Error(err))
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := sched.Stop(ctx); err != nil {
		log.Error("Scheduler did not stop cleanly", zap.Error(err))
	}
	if err := guard.Close(); err != nil {
		log.Error("Error closing push guard", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(ctx); err != nil {
		log.Error("Error shutting down tracing", zap.Error(err))
	}
	if err := db.Close(); err != nil {
		log.Error("Error closing database", zap.Error(err))
	}

	log.Info("WMS connector exited gracefully")
}

// registerJobs schedules the four connector jobs. Each run is traced and reports its
// run-level error to the scheduler; per-record failures stay in the activity trail.
func registerJobs(sched *scheduler.Scheduler, jobs *wmssync.Jobs, cfg config.SyncConfig) error {
	specs := []scheduler.JobSpec{
		{
			Name:     wmssync.JobPushPendingOrders,
			Interval: cfg.PendingPushInterval,
			Run: telemetry.TraceJob(wmssync.JobPushPendingOrders, func(ctx context.Context) error {
				return jobs.PushPendingOrders(ctx, 0).Err
			}),
		},
		{
			Name:     wmssync.JobPullOrderStatus,
			Interval: cfg.OrderPullInterval,
			Run: telemetry.TraceJob(wmssync.JobPullOrderStatus, func(ctx context.Context) error {
				return jobs.PullOrderStatus(ctx).Err
			}),
		},
		{
			Name:   wmssync.JobSyncProductsAndInbound,
			Daily:  true,
			Hour:   cfg.NightlyHour,
			Minute: cfg.NightlyMinute,
			Run: telemetry.TraceJob(wmssync.JobSyncProductsAndInbound, func(ctx context.Context) error {
				return jobs.SyncProductsAndInbound(ctx, 0).Err
			}),
		},
		{
			Name:     wmssync.JobPullStockLevels,
			Interval: cfg.StockPullInterval,
			Run: telemetry.TraceJob(wmssync.JobPullStockLevels, func(ctx context.Context) error {
				return jobs.PullStockLevels(ctx).Err
			}),
		},
	}

	for _, spec := range specs {
		if err := sched.Register(spec); err != nil {
			return err
		}
	}
	return nil
}

func printToken(cfg config.AdminConfig, operator string, ttl time.Duration) error {
	tokens, err := auth.NewTokenService(cfg)
	if err != nil {
		return err
	}
	token, expiresAt, err := tokens.Issue(operator, ttl)
	if err != nil {
		return err
	}
	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "expires %s\n", expiresAt.Format(time.RFC3339))
	return nil
}

func ginMode(env string) string {
	if env == "production" {
		return gin.ReleaseMode
	}
	return gin.DebugMode
}
