// File: server/connection.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"github.com/momentics/hioload-rpc/api"
	"github.com/momentics/hioload-rpc/internal/exchange"
)

// Stage is the state the connection automaton has arrived at.
type Stage uint8

const (
	StageIdle Stage = iota
	StageReceiving
	StageResponding
	StageClosing
)

// Connection is the per-connection state stored in the worker's slot pool.
// Connections are overwritten in place on admission and eviction; no
// per-connection heap allocation happens after worker start.
type Connection struct {
	// Pipes holds the mounted scratch regions and overflow storage.
	Pipes exchange.Pipes

	// Descriptor of the stateful TCP connection.
	Descriptor api.Descriptor

	Stage Stage

	// HTTPFramed records whether the current request arrived with an HTTP
	// preamble, so the reply carries one too.
	HTTPFramed bool

	// EmptyTransmits counts consecutive reads that produced no bytes.
	EmptyTransmits uint32
	// Exchanges counts completed request/reply round trips on this
	// connection.
	Exchanges uint32

	// serviced marks traffic since the last fairness pass.
	serviced bool
}

// Expired reports whether the connection exceeded the idle policy bound.
func (c *Connection) Expired(maxEmptyTransmits uint32) bool {
	return c.EmptyTransmits > maxEmptyTransmits
}

// Reset prepares the state for reuse by the next admitted connection.
// The mounted scratch regions are retained.
func (c *Connection) Reset() {
	c.Stage = StageIdle
	c.Descriptor = api.BadDescriptor
	c.HTTPFramed = false
	c.EmptyTransmits = 0
	c.Exchanges = 0
	c.serviced = false
	c.Pipes.ReleaseInputs()
	c.Pipes.ReleaseOutputs()
}
