package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry *prometheus.Registry

	// HTTP request rate on the display API.
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTP request latency per request.
	HTTPRequestDuration *prometheus.HistogramVec

	// Concurrent requests in flight.
	HTTPRequestsInFlight prometheus.Gauge

	// Weather API call rate by status class. Watch for: error vs success ratio.
	WeatherAPICallsTotal *prometheus.CounterVec

	// Weather API latency. One call per cycle, so this is also the dominant share of cycle time.
	WeatherAPIDuration *prometheus.HistogramVec

	// Pipeline cycles by outcome (success, offline, no_fix, http_error, ...).
	PipelineCyclesTotal *prometheus.CounterVec

	// End-to-end cycle latency, gate to render.
	PipelineCycleDuration prometheus.Histogram

	// Refreshes that joined an in-flight cycle instead of starting a new one.
	PipelineCoalescedTotal prometheus.Counter

	// Time from subscribe to first delivered fix, by backend.
	LocationFixDuration *prometheus.HistogramVec

	// 1 while a fetch is in flight. Must always return to 0.
	LoadingIndicatorVisible prometheus.Gauge
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpRequestsTotal",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "statusCode"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "httpRequestDurationSeconds",
			Help:    "HTTP request latency in seconds (per request)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "httpRequestsInFlight",
			Help: "Number of HTTP requests currently being served",
		},
	)
	WeatherAPICallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherApiCallsTotal",
			Help: "Total number of current-weather API calls",
		},
		[]string{"status"},
	)
	WeatherAPIDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "weatherApiDurationSeconds",
			Help:    "Current-weather API latency in seconds (per request)",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"status"},
	)
	PipelineCyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipelineCyclesTotal",
			Help: "Completed location-to-weather cycles by outcome",
		},
		[]string{"outcome"},
	)
	PipelineCycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pipelineCycleDurationSeconds",
			Help:    "Cycle latency from permission gate to rendered details",
			Buckets: []float64{.25, .5, 1, 2.5, 5, 10, 30},
		},
	)
	PipelineCoalescedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pipelineCoalescedTotal",
			Help: "Refresh requests that joined an in-flight cycle",
		},
	)
	LocationFixDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "locationFixDurationSeconds",
			Help:    "Time to first delivered location fix",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"backend"},
	)
	LoadingIndicatorVisible = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "loadingIndicatorVisible",
			Help: "1 while a weather fetch is in flight",
		},
	)

	registry.MustRegister(
		HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight,
		WeatherAPICallsTotal, WeatherAPIDuration,
		PipelineCyclesTotal, PipelineCycleDuration, PipelineCoalescedTotal,
		LocationFixDuration, LoadingIndicatorVisible,
	)
}

// RecordCycle records one finished pipeline cycle.
func RecordCycle(outcome string, seconds float64) {
	PipelineCyclesTotal.WithLabelValues(outcome).Inc()
	PipelineCycleDuration.Observe(seconds)
}

// MetricsHandler returns an http.Handler that serves application and runtime metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
