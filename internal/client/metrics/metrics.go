// Package metrics holds the Prometheus collectors of the client. A nil
// *Metrics is valid: every method is a no-op on it, so library users that
// do not care about metrics pass nothing.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "pinshare"

type Metrics struct {
	requests           *prometheus.CounterVec
	transportErrors    prometheus.Counter
	sessionExpirations prometheus.Counter
	pinFailures        prometheus.Counter
	orphanedPins       prometheus.Counter
	bestEffortFailures *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Backend requests by method and HTTP status code.",
		}, []string{"method", "code"}),
		transportErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transport_errors_total",
			Help:      "Requests that failed before an HTTP response was received.",
		}),
		sessionExpirations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_expirations_total",
			Help:      "Authenticated to unauthenticated transitions caused by expiry or 401.",
		}),
		pinFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pin_failures_total",
			Help:      "Uploads aborted because the pinning service rejected the content.",
		}),
		orphanedPins: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orphaned_pins_total",
			Help:      "Content pinned without a metadata record because registration failed.",
		}),
		bestEffortFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "best_effort_failures_total",
			Help:      "Failures of steps whose errors are reported but not propagated.",
		}, []string{"step"}),
	}

	for _, c := range []prometheus.Collector{
		m.requests, m.transportErrors, m.sessionExpirations,
		m.pinFailures, m.orphanedPins, m.bestEffortFailures,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) ObserveRequest(method string, status int) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

func (m *Metrics) TransportError() {
	if m == nil {
		return
	}
	m.transportErrors.Inc()
}

func (m *Metrics) SessionExpired() {
	if m == nil {
		return
	}
	m.sessionExpirations.Inc()
}

func (m *Metrics) PinFailed() {
	if m == nil {
		return
	}
	m.pinFailures.Inc()
}

func (m *Metrics) OrphanedPin() {
	if m == nil {
		return
	}
	m.orphanedPins.Inc()
}

func (m *Metrics) BestEffortFailed(step string) {
	if m == nil {
		return
	}
	m.bestEffortFailures.WithLabelValues(step).Inc()
}
