// Package metrics exposes a FIX session's liveness and sequencing state
// as Prometheus collectors, grounded on the Describe/Collect pattern the
// pack uses for per-connection stats exporters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry bundles the gauges and counters one session reports.
type Registry struct {
	OutboundSeq         prometheus.Gauge
	InboundSeqExpected  prometheus.Gauge
	MissedHeartbeats    prometheus.Gauge
	ConnectionState     prometheus.Gauge
	MessagesSentTotal   prometheus.Counter
	MessagesRecvTotal   prometheus.Counter
	SequenceGapsTotal   prometheus.Counter
	ReconnectsTotal     prometheus.Counter
}

// NewRegistry constructs a Registry and registers every collector with
// reg.
func NewRegistry(reg prometheus.Registerer, senderCompID string) *Registry {
	labels := prometheus.Labels{"sender_comp_id": senderCompID}

	r := &Registry{
		OutboundSeq: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "fix_outbound_seq",
			Help:        "Last stamped outbound MsgSeqNum.",
			ConstLabels: labels,
		}),
		InboundSeqExpected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "fix_inbound_seq_expected",
			Help:        "Next expected inbound MsgSeqNum.",
			ConstLabels: labels,
		}),
		MissedHeartbeats: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "fix_missed_heartbeats",
			Help:        "Consecutive missed heartbeats since the last inbound message.",
			ConstLabels: labels,
		}),
		ConnectionState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "fix_connection_state",
			Help:        "Current connection state as an enum: 0=Disconnected 1=Connected 2=LoggedIn 3=LoggedOut.",
			ConstLabels: labels,
		}),
		MessagesSentTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "fix_messages_sent_total",
			Help:        "Total messages sent.",
			ConstLabels: labels,
		}),
		MessagesRecvTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "fix_messages_received_total",
			Help:        "Total messages received.",
			ConstLabels: labels,
		}),
		SequenceGapsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "fix_sequence_gaps_total",
			Help:        "Total inbound sequence gaps detected.",
			ConstLabels: labels,
		}),
		ReconnectsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "fix_reconnects_total",
			Help:        "Total reconnect/re-logon attempts.",
			ConstLabels: labels,
		}),
	}

	reg.MustRegister(
		r.OutboundSeq,
		r.InboundSeqExpected,
		r.MissedHeartbeats,
		r.ConnectionState,
		r.MessagesSentTotal,
		r.MessagesRecvTotal,
		r.SequenceGapsTotal,
		r.ReconnectsTotal,
	)
	return r
}
