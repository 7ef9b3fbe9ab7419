// File: server/types.go
// Package server wires the core containers into a running connection
// engine: one scheduler ring, one connection pool, and one scratch arena
// per worker, fed by the platform reactor.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import "time"

// Config holds all engine configuration parameters.
type Config struct {
	ListenAddr        string        // TCP bind address, e.g. ":8545"
	Workers           int           // independent worker loops (one scheduler each)
	MaxConnections    int           // ring/pool capacity per worker
	ScratchBytes      int           // embedded per-connection scratch region size
	EventBatch        int           // max readiness events drained per wait
	WaitTimeout       time.Duration // reactor wait timeout per loop iteration
	MaxSkippedCycles  uint32        // tail staleness bound before eviction
	MaxEmptyTransmits uint32        // empty read bound before a connection expires
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		ListenAddr:        ":8545",
		Workers:           1,
		MaxConnections:    1024,
		ScratchBytes:      4096,
		EventBatch:        128,
		WaitTimeout:       100 * time.Millisecond,
		MaxSkippedCycles:  64,
		MaxEmptyTransmits: 100,
	}
}
