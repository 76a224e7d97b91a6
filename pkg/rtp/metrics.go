package rtp

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics is the engine's operational telemetry: packet and participant
// counters distinct from RTCP report *content* (spec.md §9 open question
// on report metrics staying zero-filled — these are ambient counters, not
// report fields). Grounded on the teacher's MetricsConfig/MetricsCollector
// (pkg/dialog/metrics.go), which wires promauto collectors the same way.
type Metrics struct {
	dataPacketsSent     prometheus.Counter
	dataPacketsReceived prometheus.Counter
	dataPacketsDropped  *prometheus.CounterVec
	controlCompoundsOut prometheus.Counter
	controlCompoundsIn  prometheus.Counter
	participants        prometheus.Gauge
	collisions          prometheus.Counter
}

// NewMetrics registers a fresh set of efflux collectors against reg. Pass
// prometheus.DefaultRegisterer for process-global metrics, or a dedicated
// registry in tests to avoid collisions between engine instances.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		dataPacketsSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "efflux",
			Subsystem: "rtp",
			Name:      "data_packets_sent_total",
			Help:      "RTP data packets written to transport.",
		}),
		dataPacketsReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "efflux",
			Subsystem: "rtp",
			Name:      "data_packets_received_total",
			Help:      "RTP data packets accepted past the collision and payload-type checks.",
		}),
		dataPacketsDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "efflux",
			Subsystem: "rtp",
			Name:      "data_packets_dropped_total",
			Help:      "RTP data packets dropped, labeled by reason.",
		}, []string{"reason"}),
		controlCompoundsOut: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "efflux",
			Subsystem: "rtcp",
			Name:      "compounds_sent_total",
			Help:      "RTCP compound packets emitted, automated or explicit.",
		}),
		controlCompoundsIn: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "efflux",
			Subsystem: "rtcp",
			Name:      "compounds_received_total",
			Help:      "RTCP compound packets processed from the control transport.",
		}),
		participants: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "efflux",
			Subsystem: "rtp",
			Name:      "participants",
			Help:      "Participants currently tracked in the registry.",
		}),
		collisions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "efflux",
			Subsystem: "rtp",
			Name:      "ssrc_collisions_total",
			Help:      "Foreign-origin SSRC collisions observed.",
		}),
	}
}

// noopMetrics lets the engine run without a registry without nil-checking
// every call site.
func noopMetrics() *Metrics {
	return NewMetrics(prometheus.NewRegistry())
}
