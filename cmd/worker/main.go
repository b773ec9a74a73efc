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

	"github.com/odyssey-erp/purchase-insights/internal/app"
	"github.com/odyssey-erp/purchase-insights/internal/observability"
	"github.com/odyssey-erp/purchase-insights/internal/platform/cache"
	"github.com/odyssey-erp/purchase-insights/internal/purchase"
	"github.com/odyssey-erp/purchase-insights/jobs"
)

const metricsAddr = ":9091"

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

	backend, closeBackend, err := app.NewQueryBackend(ctx, cfg)
	if err != nil {
		logger.Error("init query backend", slog.String("backend", cfg.QueryBackend), slog.Any("error", err))
		os.Exit(1)
	}
	defer closeBackend()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	reportCache := purchase.NewCache(redisClient, cfg.ReportCacheTTL)
	service := purchase.NewService(backend, reportCache, logger, purchase.ServiceOptions{
		QueryTimeout: cfg.QueryTimeout,
		Observer:     metrics,
	})

	warmupJob := jobs.NewReportWarmupJob(service, cfg.WarmupCompanyCodes, logger, metrics.Jobs())
	bumpJob := jobs.NewCacheBumpJob(reportCache, logger, metrics.Jobs())

	var cron []jobs.CronRegistration
	if len(cfg.WarmupCompanyCodes) > 0 && cfg.WarmupSchedule != "" {
		warmupTask, err := jobs.NewReportWarmupTask()
		if err != nil {
			logger.Error("build warmup task", slog.Any("error", err))
			os.Exit(1)
		}
		cron = append(cron, jobs.CronRegistration{
			Spec:    cfg.WarmupSchedule,
			Task:    warmupTask,
			Options: []asynq.Option{asynq.MaxRetry(3), asynq.Unique(time.Hour)},
		})
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskReportWarmup, Handler: warmupJob.Handle},
			{Type: jobs.TaskCacheBump, Handler: bumpJob.Handle},
		},
		Cron: cron,
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	metricsServer := &http.Server{Addr: metricsAddr, Handler: metrics.Handler(), ReadTimeout: 5 * time.Second}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Warn("metrics server", slog.Any("error", err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logger.Info("starting worker", slog.Int("warmup_company_codes", len(cfg.WarmupCompanyCodes)))
	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
