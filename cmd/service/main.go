package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/weather-display-service/internal/config"
	httphandler "github.com/kjstillabower/weather-display-service/internal/http"
	"github.com/kjstillabower/weather-display-service/internal/lifecycle"
	"github.com/kjstillabower/weather-display-service/internal/observability"
)

func main() {
	logger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	a, err := newApp(cfg, logger)
	if err != nil {
		logger.Fatal("wiring", zap.Error(err))
	}
	logger.Info("display configured",
		zap.String("locale", cfg.DisplayLocale),
		zap.String("timezone", cfg.DisplayTimezone.String()),
		zap.String("accuracy", cfg.LocationAccuracy),
		zap.String("network_transport", cfg.NetworkTransport),
	)
	if cfg.TestingMode {
		logger.Warn("Testing mode enabled; /test endpoint exposed")
	}

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      a.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", ":"+cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	if cfg.RefreshOnStart {
		go a.initialCycle(ctx)
	}
	<-ctx.Done()
	stop()

	logger.Info("graceful shutdown triggered")
	lifecycle.SetShuttingDown(true)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	inFlight := httphandler.InFlightCount()
	logger.Info("waiting for in-flight requests", zap.Int64("count", inFlight))
	if err := httphandler.WaitForInFlight(shutdownCtx, 50*time.Millisecond); err != nil {
		logger.Warn("in-flight requests not completed", zap.Error(err), zap.Int64("remaining", httphandler.InFlightCount()))
	}

	a.teardown.Run()

	if err := observability.FlushTelemetry(context.Background(), logger); err != nil {
		logger.Error("telemetry flush", zap.Error(err))
	}
	logger.Info("shutdown complete")
}
