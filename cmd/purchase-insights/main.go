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
	"github.com/odyssey-erp/purchase-insights/internal/purchase/export"
	purchasehttp "github.com/odyssey-erp/purchase-insights/internal/purchase/http"
	"github.com/odyssey-erp/purchase-insights/jobs"
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

	codeMode, err := cfg.CodeMode()
	if err != nil {
		logger.Error("company code mode", slog.Any("error", err))
		os.Exit(1)
	}

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
	if err := reportCache.ListenForInvalidation(ctx, purchase.BumpChannel); err != nil {
		logger.Warn("subscribe cache invalidation", slog.Any("error", err))
	}
	service := purchase.NewService(backend, reportCache, logger, purchase.ServiceOptions{
		QueryTimeout: cfg.QueryTimeout,
		Observer:     metrics,
	})

	sessions := purchase.NewRedisSessionStore(redisClient, cfg.SessionTTL)
	pdfExporter := &export.PDFExporter{Endpoint: cfg.GotenbergURL, Client: &http.Client{Timeout: 60 * time.Second}}
	purchaseHandler := purchasehttp.NewHandler(logger, service, sessions, purchase.NewBoards(cfg.SessionTTL), pdfExporter, purchasehttp.Options{
		CookieTTL:       cfg.SessionTTL,
		SecureCookie:    cfg.SessionCookieSecure || cfg.IsProduction(),
		CompanyCodeMode: codeMode,
		ExportsPerMin:   cfg.ExportsPerMin,
	})

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobClient, err := jobs.NewClient(redisOpts)
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, jobClient, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		PurchaseHandler: purchaseHandler,
		JobHandler:      jobHandler,
		Metrics:         metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("backend", cfg.QueryBackend))
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
