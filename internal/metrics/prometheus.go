package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusMetrics wraps the prometheus collectors for the agent.
type PrometheusMetrics struct {
	registry *prometheus.Registry

	queriesTotal    *prometheus.CounterVec
	queryDuration   *prometheus.HistogramVec
	seriesAppends   *prometheus.CounterVec
	seriesBytes     *prometheus.GaugeVec
	seriesEvictions *prometheus.CounterVec
	injectionsTotal *prometheus.CounterVec
	backtraceTotal  *prometheus.CounterVec
	backtraceMs     prometheus.Histogram
	configSetsTotal *prometheus.CounterVec

	uptime prometheus.GaugeFunc
}

var defaultBuckets = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000}

var promMetrics *PrometheusMetrics

// InitPrometheus initializes the Prometheus metrics subsystem under the
// given namespace (typically "probe").
func InitPrometheus(namespace string) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	pm := &PrometheusMetrics{
		registry: registry,

		queriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "queries_total",
				Help:      "Total number of SQL queries executed, by status",
			},
			[]string{"status"},
		),
		queryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "query_duration_milliseconds",
				Help:      "Duration of SQL query execution in milliseconds",
				Buckets:   defaultBuckets,
			},
			[]string{"status"},
		),
		seriesAppends: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "series_appends_total",
				Help:      "Total number of elements appended to time series, by series name",
			},
			[]string{"series"},
		),
		seriesBytes: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "series_bytes",
				Help:      "Current committed byte size of a time series",
			},
			[]string{"series"},
		),
		seriesEvictions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "series_evictions_total",
				Help:      "Total number of slices evicted from the head of a series",
			},
			[]string{"series"},
		),
		injectionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "injections_total",
				Help:      "Total ptrace injection attempts, by outcome",
			},
			[]string{"outcome"},
		),
		backtraceTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "backtrace_total",
				Help:      "Total backtrace() calls, by outcome",
			},
			[]string{"outcome"},
		),
		backtraceMs: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "backtrace_duration_milliseconds",
				Help:      "Duration of successful backtrace() calls in milliseconds",
				Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2000, 3000},
			},
		),
		configSetsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "config_sets_total",
				Help:      "Total SET key=value dispatches, by outcome",
			},
			[]string{"outcome"},
		),
	}

	pm.uptime = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "uptime_seconds",
			Help:      "Time since the agent's metrics subsystem started",
		},
		func() float64 {
			return time.Since(StartTime()).Seconds()
		},
	)

	registry.MustRegister(
		pm.queriesTotal,
		pm.queryDuration,
		pm.seriesAppends,
		pm.seriesBytes,
		pm.seriesEvictions,
		pm.injectionsTotal,
		pm.backtraceTotal,
		pm.backtraceMs,
		pm.configSetsTotal,
		pm.uptime,
	)

	promMetrics = pm
}

// RecordQuery records the outcome and duration of a query execution.
func RecordQuery(success bool, durationMs int64) {
	if promMetrics == nil {
		return
	}
	status := "ok"
	if !success {
		status = "error"
	}
	promMetrics.queriesTotal.WithLabelValues(status).Inc()
	promMetrics.queryDuration.WithLabelValues(status).Observe(float64(durationMs))
}

// RecordSeriesAppend records a successful append to a named series.
func RecordSeriesAppend(series string) {
	if promMetrics == nil {
		return
	}
	promMetrics.seriesAppends.WithLabelValues(series).Inc()
}

// SetSeriesBytes sets the current committed byte gauge for a named series.
func SetSeriesBytes(series string, bytes int64) {
	if promMetrics == nil {
		return
	}
	promMetrics.seriesBytes.WithLabelValues(series).Set(float64(bytes))
}

// RecordSeriesEviction records a head-slice eviction for a named series.
func RecordSeriesEviction(series string) {
	if promMetrics == nil {
		return
	}
	promMetrics.seriesEvictions.WithLabelValues(series).Inc()
}

// RecordInjection records a ptrace injection attempt outcome ("ok", "error").
func RecordInjection(outcome string) {
	if promMetrics == nil {
		return
	}
	promMetrics.injectionsTotal.WithLabelValues(outcome).Inc()
}

// RecordBacktrace records a backtrace() call outcome and, on success, its
// duration in milliseconds.
func RecordBacktrace(outcome string, durationMs int64) {
	if promMetrics == nil {
		return
	}
	promMetrics.backtraceTotal.WithLabelValues(outcome).Inc()
	if outcome == "ok" {
		promMetrics.backtraceMs.Observe(float64(durationMs))
	}
}

// RecordConfigSet records a SET key=value dispatch outcome.
func RecordConfigSet(outcome string) {
	if promMetrics == nil {
		return
	}
	promMetrics.configSetsTotal.WithLabelValues(outcome).Inc()
}

// PrometheusHandler returns an HTTP handler for Prometheus metrics scraping.
func PrometheusHandler() http.Handler {
	if promMetrics == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("prometheus metrics not initialized"))
		})
	}
	return promhttp.HandlerFor(promMetrics.registry, promhttp.HandlerOpts{})
}

// PrometheusRegistry returns the prometheus registry for custom collectors.
func PrometheusRegistry() *prometheus.Registry {
	if promMetrics == nil {
		return nil
	}
	return promMetrics.registry
}
