// Package prometheus provides the Prometheus-backed implementation of the
// metrics interfaces, plus the optional HTTP exporter that serves them.
package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/lineserv/pkg/metrics"
)

// serverMetrics is the Prometheus implementation of metrics.ServerMetrics.
type serverMetrics struct {
	connectionsAccepted prometheus.Counter
	connectionsClosed   prometheus.Counter
	activeConnections   prometheus.Gauge
	logins              *prometheus.CounterVec
	commands            *prometheus.CounterVec
	protocolViolations  *prometheus.CounterVec
}

// NewServerMetrics creates a Prometheus-backed ServerMetrics registered on
// a fresh registry. The registry is returned so the exporter can serve it.
func NewServerMetrics() (metrics.ServerMetrics, *prometheus.Registry) {
	reg := prometheus.NewRegistry()

	m := &serverMetrics{
		connectionsAccepted: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "lineserv_connections_accepted_total",
			Help: "Total number of accepted TCP connections",
		}),
		connectionsClosed: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "lineserv_connections_closed_total",
			Help: "Total number of closed TCP connections",
		}),
		activeConnections: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "lineserv_active_connections",
			Help: "Current number of open client connections",
		}),
		logins: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "lineserv_logins_total",
			Help: "Total number of completed login exchanges by outcome",
		}, []string{"outcome"}), // "success", "failure"
		commands: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "lineserv_commands_total",
			Help: "Total number of dispatched commands by name",
		}, []string{"command"}),
		protocolViolations: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "lineserv_protocol_violations_total",
			Help: "Total number of connections closed for protocol violations",
		}, []string{"reason"}),
	}

	return m, reg
}

func (m *serverMetrics) RecordConnectionAccepted() {
	m.connectionsAccepted.Inc()
}

func (m *serverMetrics) RecordConnectionClosed() {
	m.connectionsClosed.Inc()
}

func (m *serverMetrics) SetActiveConnections(count int32) {
	m.activeConnections.Set(float64(count))
}

func (m *serverMetrics) RecordLogin(outcome string) {
	m.logins.WithLabelValues(outcome).Inc()
}

func (m *serverMetrics) RecordCommand(name string) {
	m.commands.WithLabelValues(name).Inc()
}

func (m *serverMetrics) RecordProtocolViolation(reason string) {
	m.protocolViolations.WithLabelValues(reason).Inc()
}
