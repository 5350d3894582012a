package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/chaiyo-erp/chaiyo-erp/internal/app"
	"github.com/chaiyo-erp/chaiyo-erp/internal/contracts"
	"github.com/chaiyo-erp/chaiyo-erp/internal/debt"
	debthttp "github.com/chaiyo-erp/chaiyo-erp/internal/debt/http"
	"github.com/chaiyo-erp/chaiyo-erp/internal/observability"
	"github.com/chaiyo-erp/chaiyo-erp/internal/recon"
	reconhttp "github.com/chaiyo-erp/chaiyo-erp/internal/recon/http"
	"github.com/chaiyo-erp/chaiyo-erp/internal/shared"
	"github.com/chaiyo-erp/chaiyo-erp/jobs"
)

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

	dbpool, err := pgxpool.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()

	criteriaStore := debt.NewCriteriaStore(debt.NewPGCriteriaHistory(dbpool))
	if err := criteriaStore.Warm(ctx); err != nil {
		logger.Warn("criteria warm failed, using defaults", slog.Any("error", err))
	}

	debtCache := debt.NewCache(redisClient, cfg.ReportCacheTTL)
	if err := debtCache.ListenForInvalidation(ctx, ""); err != nil {
		logger.Warn("cache invalidation listener", slog.Any("error", err))
	}
	debtRepo := debt.NewRepository(dbpool)
	debtService := debt.NewService(debtRepo, criteriaStore, debtCache, logger, metrics)
	debtHandler := debthttp.NewHandler(logger, debtService)

	contractRepo := contracts.NewRepository(dbpool)
	mirrorRepo := recon.NewMirrorRepository(dbpool)
	outbox := recon.NewOutbox(dbpool)
	locks := shared.NewContractLocks()
	reconService := recon.NewService(contractRepo, mirrorRepo, outbox, locks, logger, metrics, debtService)

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	reconHandler := reconhttp.NewHandler(logger, reconService, jobClient)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:       logger,
		Config:       cfg,
		DebtHandler:  debtHandler,
		ReconHandler: reconHandler,
		JobHandler:   jobHandler,
		ExportGuard:  shared.NewAPIKeyGuard(cfg.ExportKeyHash),
		Metrics:      metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
