//go:build integration
// +build integration

package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/weather-display-service/internal/client"
	"github.com/kjstillabower/weather-display-service/internal/connectivity"
	"github.com/kjstillabower/weather-display-service/internal/display"
	"github.com/kjstillabower/weather-display-service/internal/location"
	"github.com/kjstillabower/weather-display-service/internal/models"
	"github.com/kjstillabower/weather-display-service/internal/observability"
	"github.com/kjstillabower/weather-display-service/internal/permissions"
	"github.com/kjstillabower/weather-display-service/internal/pipeline"
	"github.com/kjstillabower/weather-display-service/internal/presentation"
	"github.com/kjstillabower/weather-display-service/internal/testhelpers"
)

var testLogger *zap.Logger

func init() {
	var err error
	testLogger, err = observability.NewLogger()
	if err != nil {
		panic(err)
	}
}

// setupIntegrationRouter wires the live weather API behind the full router with a fixed gps position.
func setupIntegrationRouter(t *testing.T) (http.Handler, *display.Store) {
	t.Helper()
	cfg := testhelpers.GetIntegrationConfig(t)

	weatherClient, err := client.NewOpenWeatherClient(cfg.APIKey, cfg.APIURL, cfg.Timeout)
	if err != nil {
		t.Fatalf("NewOpenWeatherClient() error = %v", err)
	}
	coord := cfg.Coordinate
	provider := location.NewProvider(5*time.Second, testLogger, location.NewStaticBackend(&coord))
	store := display.NewStore()
	runner, err := pipeline.NewRunner(pipeline.Deps{
		Checker:   permissions.NewConfigChecker(nil),
		Settings:  permissions.NewLogSettings("weather-display-service", testLogger),
		Locator:   provider,
		Network:   connectivity.NewStaticInspector("wifi"),
		Weather:   weatherClient,
		Presenter: presentation.NewPresenter(time.UTC),
		Sink:      store,
		Logger:    testLogger,
	}, pipeline.Options{APIKey: cfg.APIKey, Accuracy: location.AccuracyHigh, UnitHint: models.UnitMetric})
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}
	handler := NewHandler(runner, store, nil, testLogger)
	return NewRouter(handler, testLogger, 20*time.Second, false), store
}

func TestIntegration_RefreshThenGet(t *testing.T) {
	router, store := setupIntegrationRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/weather/refresh", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("refresh status = %d, body %s", w.Code, w.Body.String())
	}
	var refreshed weatherResponse
	if err := json.NewDecoder(w.Body).Decode(&refreshed); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if refreshed.Details.Country == "" || refreshed.Details.Temperature == "" {
		t.Errorf("details not populated: %+v", refreshed.Details)
	}
	if store.Snapshot().Current == nil {
		t.Fatal("store not updated after refresh")
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/weather", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	var current weatherResponse
	if err := json.NewDecoder(w.Body).Decode(&current); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if current.CycleID != refreshed.CycleID {
		t.Errorf("GET /weather cycle = %q, want %q", current.CycleID, refreshed.CycleID)
	}
}

func TestIntegration_GetMetrics_Format(t *testing.T) {
	router, _ := setupIntegrationRouter(t)
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/weather/refresh", nil))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", w.Code)
	}
	for _, name := range []string{"weatherApiCallsTotal", "pipelineCyclesTotal", "locationFixDurationSeconds"} {
		if !strings.Contains(w.Body.String(), name) {
			t.Errorf("metrics output missing %s", name)
		}
	}
}
