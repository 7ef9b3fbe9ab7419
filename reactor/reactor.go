// File: reactor/reactor.go
// Package reactor wraps the OS readiness multiplexer consumed by the
// connection engine. The engine itself never blocks; all waiting happens
// here.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package reactor

import "github.com/momentics/hioload-rpc/api"

// EventKind classifies a readiness notification.
type EventKind uint8

const (
	// EventReadable signals pending inbound bytes.
	EventReadable EventKind = 1 << iota
	// EventWritable signals the socket accepts more outbound bytes.
	EventWritable
	// EventError signals a hangup or socket error; the connection should
	// be evicted.
	EventError
)

// Event is one readiness notification for a registered descriptor.
type Event struct {
	Descriptor api.Descriptor
	Kind       EventKind
}

// Reactor is the platform readiness multiplexer.
type Reactor interface {
	// Register starts watching a descriptor for read/write readiness.
	Register(d api.Descriptor) error
	// Unregister stops watching a descriptor.
	Unregister(d api.Descriptor) error
	// Wait blocks up to timeoutMs (-1 blocks indefinitely), filling events
	// and returning the count written.
	Wait(events []Event, timeoutMs int) (int, error)
	// Close releases the multiplexer.
	Close() error
}
