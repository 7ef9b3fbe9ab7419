// File: server/server.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Server assembles the listening socket and the worker set. Each worker is
// an independent single-threaded engine with its own reactor; they share
// only the listener descriptor, from which the kernel distributes pending
// connections.

package server

import (
	"context"
	"errors"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/momentics/hioload-rpc/api"
	"github.com/momentics/hioload-rpc/control"
	"github.com/momentics/hioload-rpc/internal/transport"
	"github.com/momentics/hioload-rpc/reactor"
)

// Server runs the configured number of workers over one shared listener.
type Server struct {
	cfg     *Config
	log     *zap.Logger
	metrics *control.Metrics
	handler Handler

	tr       transport.Transport
	listener api.Descriptor
	workers  []*Worker
}

// New binds the listen address and prepares the worker set. The server does
// not start serving until Run.
func New(cfg *Config, handler Handler, opts ...Option) (*Server, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if handler == nil {
		return nil, errors.New("server: nil handler")
	}
	s := &Server{
		cfg:      cfg,
		log:      zap.NewNop(),
		handler:  handler,
		listener: api.BadDescriptor,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = control.NewMetrics(nil)
	}
	if s.cfg.Workers < 1 {
		s.cfg.Workers = 1
	}

	tr, err := transport.New()
	if err != nil {
		return nil, err
	}
	listener, err := transport.Listen(s.cfg.ListenAddr)
	if err != nil {
		return nil, err
	}
	s.tr = tr
	s.listener = listener

	s.workers = make([]*Worker, 0, s.cfg.Workers)
	for i := 0; i < s.cfg.Workers; i++ {
		rx, err := reactor.NewReactor()
		if err != nil {
			return nil, multierr.Append(err, s.Close())
		}
		if err := rx.Register(listener); err != nil {
			err = multierr.Append(err, rx.Close())
			return nil, multierr.Append(err, s.Close())
		}
		w, err := newWorker(s.cfg, s.log.With(zap.Int("worker", i)), s.metrics,
			s.handler, s.tr, rx, listener)
		if err != nil {
			err = multierr.Append(err, rx.Close())
			return nil, multierr.Append(err, s.Close())
		}
		s.workers = append(s.workers, w)
	}
	return s, nil
}

// Run serves until ctx is canceled or a worker fails. Cancellation is a
// clean shutdown and returns nil.
func (s *Server) Run(ctx context.Context) error {
	s.log.Info("serving",
		zap.String("addr", s.cfg.ListenAddr),
		zap.Int("workers", len(s.workers)),
		zap.Int("max_connections", s.cfg.MaxConnections))

	g, ctx := errgroup.WithContext(ctx)
	for _, w := range s.workers {
		w := w
		g.Go(func() error { return w.run(ctx) })
	}
	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Close evicts all live connections, releases the per-worker reactors and
// the listener. Safe to call after a failed New.
func (s *Server) Close() error {
	var err error
	for _, w := range s.workers {
		err = multierr.Append(err, w.close())
	}
	if s.listener.Valid() && s.tr != nil {
		err = multierr.Append(err, s.tr.Close(s.listener))
		s.listener = api.BadDescriptor
	}
	return err
}
