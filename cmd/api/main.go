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

	"github.com/facturio/stocksync/pkg/config"
	"github.com/facturio/stocksync/pkg/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format)

	logger.Info("configuration loaded",
		slog.String("addr", cfg.Server.Addr()),
		slog.String("products_cache", cfg.Paths.ProductsCache),
		slog.Bool("lookups", cfg.Endpoints.LookupURL != ""),
		slog.Bool("stock_updates", cfg.Endpoints.UpdateStockURL != ""),
		slog.String("refresh_cron", cfg.Refresh.Cron),
	)

	deps, err := InitDependencies(cfg, logger)
	if err != nil {
		logger.Error("failed to init dependencies", slog.Any("error", err))
		os.Exit(1)
	}

	if deps.Scheduler != nil {
		if err := deps.Scheduler.Start(); err != nil {
			logger.Error("failed to start refresh scheduler", slog.Any("error", err))
			deps.Cleanup()
			os.Exit(1)
		}
	}

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           deps.PipelineHandler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		logger.Info("shutting down...")

		if deps.Scheduler != nil {
			<-deps.Scheduler.Stop().Done()
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", slog.Any("error", err))
		}
	}()

	logger.Info("server starting", slog.String("addr", server.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server stopped unexpectedly", slog.Any("error", err))
	}

	deps.Cleanup()
}
