// Package ipcmetrics exposes a handful of Prometheus counters/gauges for
// the connection engine, registered against a caller-supplied registerer.
// A nil registerer makes every recorded metric a no-op, so hosts that don't
// care about observability pay nothing.
package ipcmetrics

import "github.com/prometheus/client_golang/prometheus"

// QueueName labels the queue-drop counter.
type QueueName string

const (
	QueueOutbound QueueName = "outbound"
	QueueInbound  QueueName = "inbound"
)

// Metrics is the set of counters/gauges the engine reports to. Every field
// is nil-safe: a Metrics built with a nil Registerer records nothing.
type Metrics struct {
	reconnects     prometheus.Counter
	framesSent     prometheus.Counter
	framesReceived prometheus.Counter
	queueDrops     *prometheus.CounterVec
	state          prometheus.Gauge
}

// New registers the engine's metrics against reg. A nil reg disables all
// recording.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ipc_reconnects_total",
			Help: "Number of reconnect attempts made by the RPC connection engine.",
		}),
		framesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ipc_frames_sent_total",
			Help: "Number of frames written to the local IPC transport.",
		}),
		framesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ipc_frames_received_total",
			Help: "Number of frames read from the local IPC transport.",
		}),
		queueDrops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ipc_queue_drops_total",
			Help: "Number of items dropped to bounded-queue overflow, by queue.",
		}, []string{"queue"}),
		state: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ipc_state",
			Help: "Current RPC connection state (0=disconnected, 1=connecting, 2=connected).",
		}),
	}

	if reg == nil {
		return m
	}

	for _, c := range []prometheus.Collector{m.reconnects, m.framesSent, m.framesReceived, m.queueDrops, m.state} {
		if err := reg.Register(c); err != nil {
			// Already registered (e.g. a second client sharing a registry):
			// construction does not fail, but this Metrics keeps its own
			// unregistered collector, so what it records is not exported
			// through reg and is not added to the registered collector.
			continue
		}
	}

	return m
}

func (m *Metrics) ReconnectAttempted() {
	if m == nil {
		return
	}
	m.reconnects.Inc()
}

func (m *Metrics) FrameSent() {
	if m == nil {
		return
	}
	m.framesSent.Inc()
}

func (m *Metrics) FrameReceived() {
	if m == nil {
		return
	}
	m.framesReceived.Inc()
}

func (m *Metrics) QueueDropped(queue QueueName) {
	if m == nil {
		return
	}
	m.queueDrops.WithLabelValues(string(queue)).Inc()
}

func (m *Metrics) SetState(state int) {
	if m == nil {
		return
	}
	m.state.Set(float64(state))
}
