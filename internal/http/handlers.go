package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/kjstillabower/weather-display-service/internal/client"
	"github.com/kjstillabower/weather-display-service/internal/display"
	"github.com/kjstillabower/weather-display-service/internal/lifecycle"
	"github.com/kjstillabower/weather-display-service/internal/models"
	"github.com/kjstillabower/weather-display-service/internal/observability"
	"github.com/kjstillabower/weather-display-service/internal/pipeline"
	"github.com/kjstillabower/weather-display-service/internal/presentation"
)

// Refresher runs (or joins) one display cycle.
type Refresher interface {
	Run(ctx context.Context) (pipeline.Result, error)
	Generation() uint64
}

// Screen is the read side of the display store.
type Screen interface {
	Snapshot() display.Snapshot
	Clear()
}

// HealthConfig holds the probes consulted by the health handler. Nil probes are skipped.
type HealthConfig struct {
	StartTime        time.Time
	LocationEnabled  func() bool
	NetworkAvailable func() bool
	Loading          func() bool
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	refresher        Refresher
	screen           Screen
	healthConfig     *HealthConfig
	logger           *zap.Logger
	healthStatusMu   sync.Mutex
	healthStatusPrev string
}

// NewHandler returns a new Handler.
func NewHandler(refresher Refresher, screen Screen, healthConfig *HealthConfig, logger *zap.Logger) *Handler {
	return &Handler{
		refresher:    refresher,
		screen:       screen,
		healthConfig: healthConfig,
		logger:       observability.LoggerOrNop(logger),
	}
}

// NewRouter wires every route and middleware. /test routes exist only when testingMode is set.
func NewRouter(h *Handler, logger *zap.Logger, requestTimeout time.Duration, testingMode bool) *mux.Router {
	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(logger))
	router.Use(MetricsMiddleware)
	router.HandleFunc("/health", h.GetHealth).Methods(http.MethodGet)
	router.Handle("/metrics", observability.MetricsHandler()).Methods(http.MethodGet)

	weatherRouter := router.PathPrefix("/weather").Subrouter()
	weatherRouter.Use(TimeoutMiddleware(requestTimeout))
	weatherRouter.HandleFunc("", h.GetWeather).Methods(http.MethodGet)
	weatherRouter.HandleFunc("/refresh", h.PostRefresh).Methods(http.MethodPost)

	if testingMode {
		router.HandleFunc("/test", h.GetTestStatus).Methods(http.MethodGet)
		router.HandleFunc("/test/{action}", h.PostTestAction).Methods(http.MethodPost)
	}
	return router
}

type weatherResponse struct {
	CycleID     string               `json:"cycleId"`
	Generation  uint64               `json:"generation"`
	Coordinate  models.Coordinate    `json:"coordinate"`
	Details     presentation.Details `json:"details"`
	FetchedAt   string               `json:"fetchedAt"`
	Loading     bool                 `json:"loading"`
	LastFailure *failureResponse     `json:"lastFailure,omitempty"`
}

type failureResponse struct {
	CycleID string `json:"cycleId"`
	Code    string `json:"code"`
	Message string `json:"message"`
	At      string `json:"at"`
}

// GetWeather handles GET /weather: the screen as last rendered.
func (h *Handler) GetWeather(w http.ResponseWriter, r *http.Request) {
	snap := h.screen.Snapshot()
	if snap.Current == nil {
		if snap.LastFailure != nil {
			writeCycleError(w, r, snap.LastFailure.Err)
			return
		}
		writeError(w, r, http.StatusNotFound, "NO_DATA", "No weather has been rendered yet")
		return
	}
	resp := h.toResponse(*snap.Current)
	if f := snap.LastFailure; f != nil {
		_, code, msg := describeCycleError(f.Err)
		resp.LastFailure = &failureResponse{
			CycleID: f.CycleID,
			Code:    code,
			Message: msg,
			At:      f.At.UTC().Format(time.RFC3339),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// PostRefresh handles POST /weather/refresh: runs the pipeline from the top.
func (h *Handler) PostRefresh(w http.ResponseWriter, r *http.Request) {
	res, err := h.refresher.Run(r.Context())
	if err != nil {
		writeCycleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.toResponse(res))
}

func (h *Handler) toResponse(res pipeline.Result) weatherResponse {
	return weatherResponse{
		CycleID:    res.CycleID,
		Generation: res.Generation,
		Coordinate: res.Coordinate,
		Details:    res.Details,
		FetchedAt:  res.FetchedAt.UTC().Format(time.RFC3339),
		Loading:    h.loading(),
	}
}

func (h *Handler) loading() bool {
	return h.healthConfig != nil && h.healthConfig.Loading != nil && h.healthConfig.Loading()
}

// healthResult holds the computed health status and metadata for logging.
type healthResult struct {
	status     string
	statusCode int
	reason     string
}

// GetHealth handles GET /health.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	result := h.computeHealthStatus()

	h.healthStatusMu.Lock()
	prev := h.healthStatusPrev
	if prev != "" && prev != result.status {
		h.logger.Info("health status transition",
			zap.String("previous_status", prev),
			zap.String("current_status", result.status),
			zap.String("reason", result.reason))
	}
	h.healthStatusPrev = result.status
	h.healthStatusMu.Unlock()

	checks := map[string]string{}
	if h.healthConfig != nil {
		if h.healthConfig.LocationEnabled != nil {
			checks["location"] = onOff(h.healthConfig.LocationEnabled(), "enabled", "disabled")
		}
		if h.healthConfig.NetworkAvailable != nil {
			checks["network"] = onOff(h.healthConfig.NetworkAvailable(), "available", "unavailable")
		}
	}
	snap := h.screen.Snapshot()
	switch {
	case snap.LastFailure != nil:
		checks["lastCycle"] = string(snap.LastFailure.Outcome)
	case snap.Current != nil:
		checks["lastCycle"] = string(pipeline.OutcomeSuccess)
	default:
		checks["lastCycle"] = "none"
	}

	resp := map[string]interface{}{
		"status":     result.status,
		"service":    observability.ServiceName,
		"version":    "dev",
		"checks":     checks,
		"generation": h.refresher.Generation(),
		"loading":    h.loading(),
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	}
	if h.healthConfig != nil && !h.healthConfig.StartTime.IsZero() {
		resp["uptimeSeconds"] = int64(time.Since(h.healthConfig.StartTime).Seconds())
	}
	writeJSON(w, result.statusCode, resp)
}

// computeHealthStatus evaluates conditions in priority order:
// shutting-down > location-disabled > offline > healthy.
func (h *Handler) computeHealthStatus() healthResult {
	if lifecycle.IsShuttingDown() {
		return healthResult{"shutting-down", http.StatusServiceUnavailable, "signal"}
	}
	if h.healthConfig == nil {
		return healthResult{"healthy", http.StatusOK, ""}
	}
	if h.healthConfig.LocationEnabled != nil && !h.healthConfig.LocationEnabled() {
		return healthResult{"location-disabled", http.StatusServiceUnavailable, "no_location_backend"}
	}
	if h.healthConfig.NetworkAvailable != nil && !h.healthConfig.NetworkAvailable() {
		return healthResult{"offline", http.StatusServiceUnavailable, "no_network"}
	}
	return healthResult{"healthy", http.StatusOK, ""}
}

func onOff(v bool, on, off string) string {
	if v {
		return on
	}
	return off
}

// describeCycleError maps a cycle error to its HTTP status, error code and message.
func describeCycleError(err error) (int, string, string) {
	switch pipeline.Classify(err) {
	case pipeline.OutcomePermissionDenied:
		return http.StatusForbidden, "PERMISSION_DENIED", "Location permission denied"
	case pipeline.OutcomeLocationDisabled:
		return http.StatusConflict, "LOCATION_DISABLED", "Location services are disabled"
	case pipeline.OutcomeNoFix:
		return http.StatusServiceUnavailable, "NO_FIX", "No location fix available"
	case pipeline.OutcomeOffline:
		return http.StatusServiceUnavailable, "OFFLINE", "No network connection"
	case pipeline.OutcomeTransportFailure:
		return http.StatusBadGateway, "UPSTREAM_UNAVAILABLE", "Unable to reach weather provider"
	case pipeline.OutcomeHTTPError:
		msg := "Weather provider returned an error"
		var statusErr *client.StatusError
		if errors.As(err, &statusErr) {
			msg += ": " + client.DescribeStatus(statusErr.Code)
		}
		return http.StatusBadGateway, "UPSTREAM_ERROR", msg
	case pipeline.OutcomeDecodeFailure:
		return http.StatusBadGateway, "UPSTREAM_INVALID", "Weather provider returned an unreadable response"
	case pipeline.OutcomeCancelled:
		return http.StatusGatewayTimeout, "TIMEOUT", "Request timed out"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "Unable to render weather"
	}
}

// writeJSON writes a JSON response with the specified HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes an error response in the standard error format with code, message,
// and requestId (correlation ID) if available in request context.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":      code,
			"message":   message,
			"requestId": observability.CorrelationID(r.Context()),
		},
	})
}

// writeCycleError writes the error body for a failed cycle and logs the cause at DEBUG.
func writeCycleError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, msg := describeCycleError(err)
	writeError(w, r, status, code, msg)
	observability.LoggerFromContext(r.Context(), nil).Debug("cycle error", zap.String("code", code), zap.Error(err))
}

// GetTestStatus handles GET /test. Returns pipeline and server state.
func (h *Handler) GetTestStatus(w http.ResponseWriter, r *http.Request) {
	snap := h.screen.Snapshot()
	resp := map[string]interface{}{
		"generation":    h.refresher.Generation(),
		"loading":       h.loading(),
		"in_flight":     InFlightCount(),
		"shutting_down": lifecycle.IsShuttingDown(),
		"has_screen":    snap.Current != nil,
		"last_failure":  nil,
		"health":        h.computeHealthStatus().status,
	}
	if snap.LastFailure != nil {
		resp["last_failure"] = string(snap.LastFailure.Outcome)
	}
	writeJSON(w, http.StatusOK, resp)
}

// PostTestAction handles POST /test/{action} for shutdown, reset and clear.
func (h *Handler) PostTestAction(w http.ResponseWriter, r *http.Request) {
	action := mux.Vars(r)["action"]
	switch action {
	case "shutdown":
		lifecycle.SetShuttingDown(true)
		writeJSON(w, http.StatusOK, testActionResponse(action, "Shutting-down flag set"))
	case "clear":
		h.screen.Clear()
		writeJSON(w, http.StatusOK, testActionResponse(action, "Screen cleared"))
	case "reset":
		lifecycle.SetShuttingDown(false)
		h.screen.Clear()
		writeJSON(w, http.StatusOK, testActionResponse(action, "All simulated state cleared"))
	default:
		writeError(w, r, http.StatusNotFound, "UNKNOWN_ACTION", "unknown test action: "+action)
	}
}

func testActionResponse(action, message string) map[string]interface{} {
	return map[string]interface{}{
		"ok":      true,
		"action":  action,
		"message": message,
	}
}
