package homa

//
// Metrics: the counters named in §7's error-handling table, exposed as
// real Prometheus instruments rather than bare integers.
//

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the counters this engine increments. The zero value is
// not valid; use [NewMetrics].
type Metrics struct {
	controlXmitErrors prometheus.Counter
	dataXmitErrors    prometheus.Counter
	resentPackets     prometheus.Counter
}

// NewMetrics creates a [Metrics] and registers its counters with reg. A
// nil reg creates a private, unregistered registry, which is what tests
// should pass so that repeated construction within one process never
// collides on global registration.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		controlXmitErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "homa",
			Subsystem: "outgoing",
			Name:      "control_xmit_errors_total",
			Help:      "Control packets that failed submit_to_network.",
		}),
		dataXmitErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "homa",
			Subsystem: "outgoing",
			Name:      "data_xmit_errors_total",
			Help:      "Data packets that failed submit_to_network.",
		}),
		resentPackets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "homa",
			Subsystem: "outgoing",
			Name:      "resent_packets_total",
			Help:      "Data packets retransmitted by Resend.",
		}),
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	reg.MustRegister(m.controlXmitErrors, m.dataXmitErrors, m.resentPackets)
	return m
}

// IncControlXmitErrors increments control_xmit_errors.
func (m *Metrics) IncControlXmitErrors() { m.controlXmitErrors.Inc() }

// IncDataXmitErrors increments data_xmit_errors.
func (m *Metrics) IncDataXmitErrors() { m.dataXmitErrors.Inc() }

// IncResentPackets increments resent_packets.
func (m *Metrics) IncResentPackets() { m.resentPackets.Inc() }
