package listener

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type serverMetrics struct {
	registry *prometheus.Registry
	received *prometheus.CounterVec
	queries  *prometheus.CounterVec
}

func newServerMetrics() *serverMetrics {
	m := &serverMetrics{
		registry: prometheus.NewRegistry(),
		received: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eventcheck",
			Subsystem: "listener",
			Name:      "events_received_total",
			Help:      "Events recorded by the listener, by target type.",
		}, []string{"target_type"}),
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eventcheck",
			Subsystem: "listener",
			Name:      "queries_total",
			Help:      "Event queries answered by the listener, by outcome.",
		}, []string{"result"}),
	}
	m.registry.MustRegister(
		m.received,
		m.queries,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *serverMetrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *serverMetrics) recordQuery(found int, err error) {
	switch {
	case err != nil:
		m.queries.WithLabelValues("error").Inc()
	case found == 0:
		m.queries.WithLabelValues("empty").Inc()
	default:
		m.queries.WithLabelValues("found").Inc()
	}
}
