package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ltsactl",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ltsactl",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
	analyzerRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ltsactl",
			Subsystem: "analyzer",
			Name:      "runs_total",
			Help:      "Analyzer invocations by mode and outcome.",
		},
		[]string{"node", "mode", "outcome"},
	)
	analyzerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ltsactl",
			Subsystem: "analyzer",
			Name:      "run_duration_seconds",
			Help:      "Analyzer invocation duration in seconds.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"node", "mode", "outcome"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, analyzerRuns, analyzerDuration)
	})
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	code := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, code).Inc()
	httpDuration.WithLabelValues(node, method, path, code).Observe(duration.Seconds())
}

func RecordAnalyzerRun(node, mode, outcome string, duration time.Duration) {
	RegisterMetrics()
	analyzerRuns.WithLabelValues(node, mode, outcome).Inc()
	analyzerDuration.WithLabelValues(node, mode, outcome).Observe(duration.Seconds())
}
