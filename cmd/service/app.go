package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/weather-display-service/internal/client"
	"github.com/kjstillabower/weather-display-service/internal/config"
	"github.com/kjstillabower/weather-display-service/internal/connectivity"
	"github.com/kjstillabower/weather-display-service/internal/display"
	httphandler "github.com/kjstillabower/weather-display-service/internal/http"
	"github.com/kjstillabower/weather-display-service/internal/lifecycle"
	"github.com/kjstillabower/weather-display-service/internal/location"
	"github.com/kjstillabower/weather-display-service/internal/observability"
	"github.com/kjstillabower/weather-display-service/internal/permissions"
	"github.com/kjstillabower/weather-display-service/internal/pipeline"
	"github.com/kjstillabower/weather-display-service/internal/presentation"
)

// app is the wired service: one details screen behind an HTTP router.
type app struct {
	router    http.Handler
	runner    *pipeline.Runner
	store     *display.Store
	indicator *presentation.ProgressIndicator
	teardown  *lifecycle.Teardown
	logger    *zap.Logger
}

func newApp(cfg *config.Config, logger *zap.Logger) (*app, error) {
	logger = observability.LoggerOrNop(logger)

	indicator := presentation.NewProgressIndicator(logger)
	weatherClient, err := client.NewOpenWeatherClient(cfg.WeatherAPIKey, cfg.WeatherAPIURL, cfg.WeatherAPITimeout)
	if err != nil {
		return nil, fmt.Errorf("weather client: %w", err)
	}
	weatherClient.SetLoadingIndicator(indicator)

	provider := location.NewProvider(cfg.LocationTimeout, logger,
		location.NewStaticBackend(cfg.GPSCoordinate),
		location.NewIPBackend(cfg.NetworkLocationURL, cfg.NetworkLocationEnabled, cfg.LocationTimeout),
	)
	inspector := inspectorFromConfig(cfg.NetworkTransport)
	store := display.NewStore()

	runner, err := pipeline.NewRunner(pipeline.Deps{
		Checker: permissions.NewConfigChecker(map[permissions.Permission]permissions.State{
			permissions.FineLocation:   permissions.State(cfg.FineLocationPermission),
			permissions.CoarseLocation: permissions.State(cfg.CoarseLocationPermission),
		}),
		Settings:  permissions.NewLogSettings(observability.ServiceName, logger),
		Locator:   provider,
		Network:   inspector,
		Weather:   weatherClient,
		Presenter: presentation.NewPresenter(cfg.DisplayTimezone),
		Sink:      store,
		Logger:    logger,
	}, pipeline.Options{
		APIKey:       cfg.WeatherAPIKey,
		Accuracy:     accuracyFromConfig(cfg.LocationAccuracy),
		UnitHint:     presentation.UnitHintFromLocale(cfg.DisplayLocale),
		CycleTimeout: cfg.RequestTimeout,
	})
	if err != nil {
		return nil, err
	}

	healthConfig := &httphandler.HealthConfig{
		StartTime:        time.Now(),
		LocationEnabled:  provider.IsLocationEnabled,
		NetworkAvailable: func() bool { return connectivity.IsNetworkAvailable(inspector) },
		Loading:          indicator.Visible,
	}
	handler := httphandler.NewHandler(runner, store, healthConfig, logger)

	teardown := &lifecycle.Teardown{}
	teardown.OnTeardown(store.Clear)

	return &app{
		router:    httphandler.NewRouter(handler, logger, cfg.RequestTimeout, cfg.TestingMode),
		runner:    runner,
		store:     store,
		indicator: indicator,
		teardown:  teardown,
		logger:    logger,
	}, nil
}

// initialCycle runs the cycle that a granted permission triggers at startup. Its outcome
// lands in the store either way; the error is only logged.
func (a *app) initialCycle(ctx context.Context) {
	res, err := a.runner.Run(ctx)
	if err != nil {
		a.logger.Warn("initial cycle failed", zap.String("outcome", string(pipeline.Classify(err))), zap.Error(err))
		return
	}
	a.logger.Info("initial cycle rendered", zap.String("cycle_id", res.CycleID))
}

func inspectorFromConfig(transport string) connectivity.Inspector {
	if transport == "system" {
		return connectivity.NewSystemInspector()
	}
	return connectivity.NewStaticInspector(transport)
}

func accuracyFromConfig(s string) location.Accuracy {
	if s == "balanced" {
		return location.AccuracyBalanced
	}
	return location.AccuracyHigh
}
