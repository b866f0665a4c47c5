package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chkin_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status_code"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chkin_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	consentEvaluations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chkin_consent_evaluations_total",
			Help: "Consent status computations by resulting status",
		},
		[]string{"status"},
	)

	consentEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chkin_consent_events_total",
			Help: "Consent lifecycle events and access decisions by action",
		},
		[]string{"action"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal, httpRequestDuration, consentEvaluations, consentEvents)
}

func ObserveHTTPRequest(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func ObserveConsentStatus(status string) {
	consentEvaluations.WithLabelValues(status).Inc()
}

func ObserveConsentEvent(action string) {
	consentEvents.WithLabelValues(action).Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
