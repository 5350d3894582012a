package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/chaiyo-erp/chaiyo-erp/internal/app"
	"github.com/chaiyo-erp/chaiyo-erp/internal/contracts"
	"github.com/chaiyo-erp/chaiyo-erp/internal/debt"
	"github.com/chaiyo-erp/chaiyo-erp/internal/observability"
	"github.com/chaiyo-erp/chaiyo-erp/internal/recon"
	"github.com/chaiyo-erp/chaiyo-erp/internal/shared"
	"github.com/chaiyo-erp/chaiyo-erp/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	pool, err := pgxpool.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}

	metrics := observability.NewMetrics()

	criteriaStore := debt.NewCriteriaStore(debt.NewPGCriteriaHistory(pool))
	if err := criteriaStore.Warm(ctx); err != nil {
		logger.Warn("criteria warm failed, using defaults", slog.Any("error", err))
	}
	debtCache := debt.NewCache(redisClient, cfg.ReportCacheTTL)
	debtService := debt.NewService(debt.NewRepository(pool), criteriaStore, debtCache, logger, metrics)

	contractRepo := contracts.NewRepository(pool)
	mirrorRepo := recon.NewMirrorRepository(pool)
	outbox := recon.NewOutbox(pool)
	locks := shared.NewContractLocks()
	reconService := recon.NewService(contractRepo, mirrorRepo, outbox, locks, logger, metrics, debtService)

	handlers := jobs.NewReconHandlers(reconService, logger)

	drainTask, err := jobs.NewDrainOutboxTask(jobs.DrainPayload{Limit: 200})
	if err != nil {
		logger.Error("build drain task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskReconcileContract, Handler: handlers.HandleReconcile},
			{Type: jobs.TaskDrainOutbox, Handler: handlers.HandleDrainOutbox},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "*/10 * * * *", Task: drainTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("worker starting")
	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
