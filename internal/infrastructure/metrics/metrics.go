package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "backoffice"

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "route"},
	)

	configMutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "config",
			Name:      "mutations_total",
			Help:      "Module configuration mutations by operation and result.",
		},
		[]string{"module", "operation", "result"},
	)

	configFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "config",
			Name:      "default_fallbacks_total",
			Help:      "Initial loads that fell back to built-in defaults because the store was unavailable.",
		},
		[]string{"module"},
	)

	listDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "list",
			Name:      "pipeline_duration_seconds",
			Help:      "Duration of filter, sort and paginate over a record set.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
		[]string{"module"},
	)

	exports = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "export",
			Name:      "requests_total",
			Help:      "Exports by format and outcome (ok, empty, error).",
		},
		[]string{"module", "format", "result"},
	)

	bulkItems = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "records",
			Name:      "bulk_items_total",
			Help:      "Items processed by bulk record operations.",
		},
		[]string{"module", "result"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		configMutations,
		configFallbacks,
		listDuration,
		exports,
		bulkItems,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// GinMiddleware records request count and latency per matched route.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RecordConfigMutation counts one configuration mutation.
func RecordConfigMutation(module, operation string, err error) {
	configMutations.WithLabelValues(module, operation, result(err)).Inc()
}

// RecordConfigFallback counts an initial load served from built-in defaults.
func RecordConfigFallback(module string) {
	configFallbacks.WithLabelValues(module).Inc()
}

// ObserveListPipeline records the duration of one list computation.
func ObserveListPipeline(module string, duration time.Duration) {
	listDuration.WithLabelValues(module).Observe(duration.Seconds())
}

// RecordExport counts an export; empty exports are counted separately.
func RecordExport(module, format string, empty bool, err error) {
	outcome := result(err)
	if err == nil && empty {
		outcome = "empty"
	}
	exports.WithLabelValues(module, format, outcome).Inc()
}

// RecordBulkItems counts the successes and failures of a bulk operation.
func RecordBulkItems(module string, succeeded, failed int) {
	bulkItems.WithLabelValues(module, "ok").Add(float64(succeeded))
	bulkItems.WithLabelValues(module, "error").Add(float64(failed))
}
