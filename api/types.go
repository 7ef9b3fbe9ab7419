// File: api/types.go
// Package api defines the shared types and contracts of the hioload-rpc core.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// The core never talks to sockets itself. It exchanges descriptors and byte
// ranges with an external readiness multiplexer, which performs the actual
// read/write/writev syscalls.

package api

// Descriptor is an opaque handle identifying one network connection to the
// OS/multiplexer. The sentinel BadDescriptor is reserved and must never be
// issued for a live connection.
type Descriptor int32

// BadDescriptor marks an empty scheduler slot.
const BadDescriptor Descriptor = -1

// Valid reports whether d refers to a live connection.
func (d Descriptor) Valid() bool { return d >= 0 }

// ResponseState accumulates the write-state of one in-flight reply:
// how many fragments were linearized into the connection scratch, and how
// many scatter-gather segments are still pending submission.
type ResponseState struct {
	Copies uint32
	Iovecs uint32
}

// Reset zeroes the counters between requests.
func (r *ResponseState) Reset() {
	r.Copies = 0
	r.Iovecs = 0
}
