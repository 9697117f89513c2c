package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/stallbook/stallbook/internal/app"
	"github.com/stallbook/stallbook/internal/audit"
	audithttp "github.com/stallbook/stallbook/internal/audit/http"
	"github.com/stallbook/stallbook/internal/auth"
	"github.com/stallbook/stallbook/internal/backup"
	"github.com/stallbook/stallbook/internal/export"
	"github.com/stallbook/stallbook/internal/fairs"
	"github.com/stallbook/stallbook/internal/investments"
	"github.com/stallbook/stallbook/internal/observability"
	"github.com/stallbook/stallbook/internal/platform/cache"
	"github.com/stallbook/stallbook/internal/platform/db"
	"github.com/stallbook/stallbook/internal/products"
	"github.com/stallbook/stallbook/internal/purchases"
	"github.com/stallbook/stallbook/internal/reports"
	"github.com/stallbook/stallbook/internal/sales"
	"github.com/stallbook/stallbook/jobs"
	"github.com/stallbook/stallbook/migrations"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	if cfg.DBAutoMigrate {
		if err := db.Migrate(ctx, cfg.PGDSN, migrations.FS, logger); err != nil {
			logger.Error("migrate database", slog.Any("error", err))
			os.Exit(1)
		}
	}

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	var redisClient *redis.Client
	if client, err := cache.New(ctx, cfg.RedisAddr); err != nil {
		logger.Warn("redis unavailable, caching disabled", slog.Any("error", err))
	} else {
		redisClient = client
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}
	versioned := cache.NewVersioned(redisClient, cfg.CacheTTL)

	metrics := observability.NewMetrics()

	var (
		sink      audit.Sink
		inspector jobs.QueueInspector
	)
	switch cfg.AuditSink {
	case app.AuditSinkQueue:
		redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
		client := jobs.NewClient(redisOpts)
		defer func() {
			if err := client.Close(); err != nil {
				logger.Warn("asynq client close", slog.Any("error", err))
			}
		}()
		ins := asynq.NewInspector(redisOpts)
		defer func() { _ = ins.Close() }()
		sink, inspector = client, ins
	default:
		sink = audit.NewRepository(pool)
	}
	dispatcher := audit.NewDispatcher(audit.DispatcherConfig{
		Sink:     sink,
		SinkName: cfg.AuditSink,
		Buffer:   cfg.AuditBuffer,
		Logger:   logger,
		Observer: metrics,
	})

	auditService := audit.NewService(audit.NewRepository(pool))
	productService := products.NewService(products.NewRepository(pool), dispatcher, versioned, logger)
	purchaseService := purchases.NewService(purchases.NewRepository(pool), dispatcher, versioned, logger)
	saleService := sales.NewService(sales.NewRepository(pool), dispatcher, versioned, logger)
	investmentService := investments.NewService(investments.NewRepository(pool), dispatcher, versioned, logger)
	fairService := fairs.NewService(fairs.NewRepository(pool), dispatcher, versioned, logger)
	reportService := reports.NewService(reports.NewRepository(pool), versioned)

	backupStore := backup.NewStore(pool)
	builder := backup.NewBuilder(backupStore, dispatcher, logger)
	restorer := backup.NewRestorer(backup.RestorerConfig{
		Store:    backupStore,
		Audit:    dispatcher,
		Cache:    versioned,
		Observer: metrics,
		Logger:   logger,
	})

	exportService := export.NewService(export.Sources{
		Products:    productService,
		Purchases:   purchaseService,
		Sales:       saleService,
		Investments: investmentService,
		Reports:     reportService,
		Audit:       auditService,
	}, dispatcher)

	router := app.NewRouter(app.RouterParams{
		Logger:   logger,
		Config:   cfg,
		Verifier: auth.NewVerifier(cfg.JWTSecret, cfg.JWTIssuer),
		Metrics:  metrics,

		AuthHandler:       auth.NewHandler(logger, auth.NewRepository(pool)),
		ProductHandler:    products.NewHandler(logger, productService),
		PurchaseHandler:   purchases.NewHandler(logger, purchaseService),
		SaleHandler:       sales.NewHandler(logger, saleService),
		InvestmentHandler: investments.NewHandler(logger, investmentService),
		FairHandler:       fairs.NewHandler(logger, fairService),
		ReportHandler:     reports.NewHandler(logger, reportService),
		AuditHandler:      audithttp.NewHandler(logger, auditService),
		BackupHandler:     backup.NewHandler(logger, builder, restorer, auditService, cfg.RestoreMaxBytes),
		ExportHandler:     export.NewHandler(logger, exportService),
		JobHandler:        jobs.NewHandler(inspector, logger),
	})

	server := &http.Server{
		Addr:              cfg.AppAddr,
		Handler:           router,
		ReadTimeout:       cfg.AppReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.AppWriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	// The dispatcher outlives the server so entries recorded by in-flight
	// requests are flushed after shutdown.
	dispatchCtx, stopDispatch := context.WithCancel(context.Background())
	dispatchDone := make(chan struct{})
	go func() {
		defer close(dispatchDone)
		dispatcher.Run(dispatchCtx)
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr), slog.String("audit_sink", cfg.AuditSink))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	stopDispatch()
	<-dispatchDone
	if err != nil {
		logger.Error("http server", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("server stopped")
}
