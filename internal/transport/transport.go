// File: internal/transport/transport.go
// Package transport performs the actual socket syscalls on behalf of the
// connection engine: accepting, nonblocking reads, scatter-gather writes,
// and close. The engine only sees descriptors and byte ranges.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package transport

import "github.com/momentics/hioload-rpc/api"

// Transport is the syscall boundary used by a worker.
type Transport interface {
	// Accept takes one pending connection from the listener, nonblocking.
	// Returns api.BadDescriptor and false when none is pending.
	Accept(listener api.Descriptor) (api.Descriptor, bool, error)

	// ReadInto reads available bytes into buf without blocking. A zero
	// count with a nil error means the peer closed the connection.
	ReadInto(d api.Descriptor, buf []byte) (int, error)

	// Writev submits an ordered fragment list in one scatter-gather write
	// and returns the bytes accepted by the kernel. Retrying short writes
	// is the caller's policy.
	Writev(d api.Descriptor, iov [][]byte) (int, error)

	// Close releases the descriptor.
	Close(d api.Descriptor) error
}

// Listen opens a nonblocking listening socket on addr ("host:port").
func Listen(addr string) (api.Descriptor, error) {
	return listen(addr)
}

// New returns the platform transport.
func New() (Transport, error) {
	return newTransport()
}
