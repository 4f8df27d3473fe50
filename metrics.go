package mqtt5

import "github.com/prometheus/client_golang/prometheus"

// Metrics exposes Prometheus instrumentation for a client. Its methods are
// safe to call on a nil *Metrics (what the client holds when WithMetrics is
// never called) and then do no work, so the hot path never has to branch on
// whether metrics are enabled.
type Metrics struct {
	packetsSent     *prometheus.CounterVec
	packetsReceived *prometheus.CounterVec
	bytesSent       prometheus.Counter
	bytesReceived   prometheus.Counter
	reconnects      prometheus.Counter
	inflight        prometheus.Gauge
	pendingOps      prometheus.Gauge
}

// NewMetrics builds a Metrics registered under namespace. Register it with
// a prometheus.Registerer separately; NewMetrics only constructs the
// collectors.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		packetsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "packets_sent_total", Help: "Control packets sent, by type.",
		}, []string{"type"}),
		packetsReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "packets_received_total", Help: "Control packets received, by type.",
		}, []string{"type"}),
		bytesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "bytes_sent_total", Help: "Bytes written to the transport.",
		}),
		bytesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "bytes_received_total", Help: "Bytes read from the transport.",
		}),
		reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "reconnects_total", Help: "Completed reconnect attempts.",
		}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "inflight_publishes", Help: "QoS>0 PUBLISHes awaiting a terminal ack.",
		}),
		pendingOps: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "pending_operations", Help: "SUBSCRIBE/UNSUBSCRIBE awaiting SUBACK/UNSUBACK.",
		}),
	}
}

// Collectors returns every collector so the caller can register them, e.g.
// prometheus.MustRegister(m.Collectors()...).
func (m *Metrics) Collectors() []prometheus.Collector {
	if m == nil {
		return nil
	}
	return []prometheus.Collector{
		m.packetsSent, m.packetsReceived, m.bytesSent, m.bytesReceived,
		m.reconnects, m.inflight, m.pendingOps,
	}
}

func (m *Metrics) packetSent(packetType string, n int) {
	if m == nil {
		return
	}
	m.packetsSent.WithLabelValues(packetType).Inc()
	m.bytesSent.Add(float64(n))
}

func (m *Metrics) packetReceived(packetType string, n int) {
	if m == nil {
		return
	}
	m.packetsReceived.WithLabelValues(packetType).Inc()
	m.bytesReceived.Add(float64(n))
}

func (m *Metrics) reconnected() {
	if m == nil {
		return
	}
	m.reconnects.Inc()
}

func (m *Metrics) setInflight(n int) {
	if m == nil {
		return
	}
	m.inflight.Set(float64(n))
}

func (m *Metrics) setPendingOps(n int) {
	if m == nil {
		return
	}
	m.pendingOps.Set(float64(n))
}
