package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "relay",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests, labeled by route pattern, method and status code.",
	}, []string{"route", "method", "status"})

	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "relay",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Time spent serving HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})

	ProviderCallsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "relay",
		Subsystem: "provider",
		Name:      "calls_total",
		Help:      "Total number of generative provider calls, labeled by operation and result (ok|error).",
	}, []string{"operation", "result"})

	ProviderCallDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "relay",
		Subsystem: "provider",
		Name:      "call_duration_seconds",
		Help:      "Latency of generative provider calls.",
		Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
	}, []string{"operation"})

	ExtractionFallbackTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "relay",
		Subsystem: "provider",
		Name:      "extraction_fallback_total",
		Help:      "Provider responses with no generated text at a known location, returned as serialized JSON.",
	})
)

// Register registers relay metrics with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDurationSeconds,
			ProviderCallsTotal,
			ProviderCallDurationSeconds,
			ExtractionFallbackTotal,
		)
	})
}

// ObserveProviderCall records the outcome and latency of one provider call.
func ObserveProviderCall(operation string, startedAt time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	ProviderCallsTotal.WithLabelValues(operation, result).Inc()
	ProviderCallDurationSeconds.WithLabelValues(operation).Observe(time.Since(startedAt).Seconds())
}
