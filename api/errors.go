// File: api/errors.go
// Package api
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Common error values shared across the library. Resource exhaustion is a
// recoverable, caller-visible condition: under load it surfaces as connection
// admission refusal, never as a crash.

package api

import "errors"

var (
	// ErrResourceExhausted reports a full pool, a full ring, or a failed
	// fixed-capacity allocation. Callers should treat it as backpressure.
	ErrResourceExhausted = errors.New("resource exhausted")

	// ErrEncodingOverflow reports a Content-Length that does not fit the
	// reserved digit width of the HTTP preamble.
	ErrEncodingOverflow = errors.New("content length exceeds reserved width")

	// ErrTransportClosed reports IO on a closed descriptor.
	ErrTransportClosed = errors.New("transport is closed")

	// ErrNotSupported reports an operation unavailable on this platform.
	ErrNotSupported = errors.New("operation not supported")
)
