// File: server/options.go
// Package server defines functional options for engine initialization.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"go.uber.org/zap"

	"github.com/momentics/hioload-rpc/control"
)

// Option customizes server initialization.
type Option func(*Server)

// WithLogger attaches a structured logger. Defaults to zap.NewNop.
func WithLogger(log *zap.Logger) Option {
	return func(s *Server) {
		s.log = log
	}
}

// WithMetrics attaches engine counters. Defaults to an unregistered set.
func WithMetrics(m *control.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithWorkers overrides the worker count.
func WithWorkers(n int) Option {
	return func(s *Server) {
		s.cfg.Workers = n
	}
}

// WithMaxConnections sets the per-worker ring and pool capacity.
func WithMaxConnections(n int) Option {
	return func(s *Server) {
		s.cfg.MaxConnections = n
	}
}

// WithScratchBytes sets the embedded per-connection scratch region size.
func WithScratchBytes(n int) Option {
	return func(s *Server) {
		s.cfg.ScratchBytes = n
	}
}
