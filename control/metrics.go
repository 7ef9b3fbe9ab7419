// File: control/metrics.go
// Package control exposes runtime counters for system-level monitoring.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package control

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics aggregates the per-worker counters of the connection engine.
type Metrics struct {
	Admitted   prometheus.Counter
	Refused    prometheus.Counter
	Evicted    prometheus.Counter
	Replies    prometheus.Counter
	ReplyBytes prometheus.Counter
}

// NewMetrics registers the engine counters with reg. Pass
// prometheus.DefaultRegisterer for the process-global registry, or a
// dedicated registry per worker.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Admitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "hioload_rpc_connections_admitted_total",
			Help: "Connections admitted into the scheduler ring.",
		}),
		Refused: factory.NewCounter(prometheus.CounterOpts{
			Name: "hioload_rpc_connections_refused_total",
			Help: "Connections refused because ring or pool capacity was exhausted.",
		}),
		Evicted: factory.NewCounter(prometheus.CounterOpts{
			Name: "hioload_rpc_connections_evicted_total",
			Help: "Connections evicted from the scheduler tail.",
		}),
		Replies: factory.NewCounter(prometheus.CounterOpts{
			Name: "hioload_rpc_replies_total",
			Help: "JSON-RPC reply envelopes encoded.",
		}),
		ReplyBytes: factory.NewCounter(prometheus.CounterOpts{
			Name: "hioload_rpc_reply_bytes_total",
			Help: "Total reply bytes handed to the write path.",
		}),
	}
}
