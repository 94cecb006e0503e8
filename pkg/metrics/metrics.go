// Package metrics defines the Prometheus collectors exported by the service.
// All collectors live in the default registry and are served by Handler.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeSuccess    = "success"
	OutcomeInvalid    = "invalid_credentials"
	OutcomeBadRequest = "bad_request"
	OutcomeError      = "error"

	authNamespace = "auth"
	httpNamespace = "http"
)

// LoginAttemptsTotal counts POST /api/login outcomes.
// Label:
//   - outcome: success, invalid_credentials, bad_request or error
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: authNamespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts, by outcome.",
	},
	[]string{"outcome"},
)

// HTTPRequestsTotal counts served requests.
// Labels:
//   - method: HTTP method
//   - route: chi route pattern (e.g. "/api/user/{id}"), never the raw path
//   - status: response status code
var HTTPRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: httpNamespace,
		Name:      "requests_total",
		Help:      "Total number of HTTP requests served.",
	},
	[]string{"method", "route", "status"},
)

var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: httpNamespace,
		Name:      "request_duration_seconds",
		Help:      "Duration of HTTP requests from first byte read to last byte written.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "route"},
)

func Handler() http.Handler {
	return promhttp.Handler()
}
