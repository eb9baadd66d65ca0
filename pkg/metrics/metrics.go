package metrics

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Custom histogram buckets optimized for API response times ranging from
	// milliseconds (parse) to 30+ seconds (Salesforce SOAP login on a cold path)
	CustomAPIBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5, 8, 13, 21, 34, 55}

	// HTTP Metrics
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_server_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: CustomAPIBuckets,
		},
		[]string{"http_request_method", "http_route", "http_response_status_code"},
	)

	HTTPRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_server_request_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"http_request_method", "http_route", "http_response_status_code"},
	)

	ActiveRequests = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "http_server_active_requests",
			Help: "Number of active HTTP requests",
		},
		[]string{"http_request_method"},
	)

	// Pipeline Metrics
	PipelineStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sync_pipeline_stage_duration_seconds",
			Help:    "Sync pipeline stage duration in seconds",
			Buckets: CustomAPIBuckets,
		},
		[]string{"stage", "status"},
	)

	PipelineStageTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_pipeline_stage_total",
			Help: "Total number of sync pipeline stage executions",
		},
		[]string{"stage", "status"},
	)

	PipelineRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_pipeline_runs_total",
			Help: "Total number of sync pipeline invocations by outcome",
		},
		[]string{"outcome"},
	)

	// Warehouse Metrics
	WarehouseInsertTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warehouse_insert_total",
			Help: "Total number of warehouse row inserts",
		},
		[]string{"status"},
	)

	// Notifier Metrics
	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Total number of notification emails sent by variant",
		},
		[]string{"variant", "status"},
	)

	// Secret Provider Metrics
	SecretResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "secret_resolutions_total",
			Help: "Total number of credential bundle resolutions",
		},
		[]string{"status"},
	)

	// Infrastructure Metrics
	GoroutineCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "go_app_goroutines",
			Help: "Number of goroutines currently running",
		},
	)

	// Registry is the prometheus registry exposed on /api/metrics
	Registry = prometheus.DefaultRegisterer.(*prometheus.Registry)
)

var serviceName string

// Init stores the service name used as a constant label source for dashboards
func Init(name string) {
	serviceName = name
}

// ServiceName returns the configured service name
func ServiceName() string {
	return serviceName
}

// MeasureDuration returns the elapsed seconds since start
func MeasureDuration(start time.Time) float64 {
	return time.Since(start).Seconds()
}

// RecordInfrastructureMetrics starts a background collector for process-level gauges
func RecordInfrastructureMetrics() {
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()

		for range ticker.C {
			GoroutineCount.Set(float64(runtime.NumGoroutine()))
		}
	}()
}
