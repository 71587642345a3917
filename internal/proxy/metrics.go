package proxy

import (
	"github.com/prometheus/client_golang/prometheus"
)

// metrics are the proxy's Prometheus instruments, registered on the
// server's private registry and exposed at /metrics.
type metrics struct {
	requests   *prometheus.CounterVec
	normalized prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "glowchat",
			Subsystem: "proxy",
			Name:      "requests_total",
			Help:      "Chat requests handled, by outcome.",
		}, []string{"outcome"}),
		normalized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "glowchat",
			Subsystem: "proxy",
			Name:      "replies_normalized_total",
			Help:      "Replies with an embedded payload pre-parsed server-side.",
		}),
	}
	reg.MustRegister(m.requests, m.normalized)
	return m
}
