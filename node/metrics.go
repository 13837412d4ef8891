package node

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the Prometheus instruments a running Service keeps current,
// mirroring the teacher's health-logger gauge set but scoped to peer/session
// accounting instead of chain height and supply.
type Metrics struct {
	registry      *prometheus.Registry
	peerCount     prometheus.Gauge
	sessionCount  prometheus.Gauge
	outboxDepth   prometheus.Gauge
	cobOpsTotal   prometheus.Counter
}

// NewMetrics registers the gauge/counter set on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		peerCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "collabnode_peer_count",
			Help: "Number of addresses currently tracked in the address book.",
		}),
		sessionCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "collabnode_session_count",
			Help: "Number of active link sessions.",
		}),
		outboxDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "collabnode_outbox_depth",
			Help: "Number of undrained items in the reactor outbox.",
		}),
		cobOpsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "collabnode_cob_ops_total",
			Help: "Total number of collaborative-object create/update operations observed.",
		}),
	}
	reg.MustRegister(m.peerCount, m.sessionCount, m.outboxDepth, m.cobOpsTotal)
	return m
}

// Registry exposes the underlying Prometheus registry, e.g. for promhttp.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) SetPeerCount(n int)    { m.peerCount.Set(float64(n)) }
func (m *Metrics) SetSessionCount(n int) { m.sessionCount.Set(float64(n)) }
func (m *Metrics) SetOutboxDepth(n int)  { m.outboxDepth.Set(float64(n)) }
func (m *Metrics) IncCobOps()            { m.cobOpsTotal.Inc() }
