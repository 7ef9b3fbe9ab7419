// File: server/worker.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Worker is one single-threaded connection engine: a scheduler ring, a slot
// pool of connection states, and one scratch arena, fed by its own reactor.
// All mutation is single-writer from the worker's own loop iteration, so the
// core containers need no locks. A multi-worker deployment runs independent
// Worker instances with connections sharded by the listener.

package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/eapache/queue"
	"go.uber.org/zap"

	"github.com/momentics/hioload-rpc/api"
	"github.com/momentics/hioload-rpc/control"
	"github.com/momentics/hioload-rpc/core/mem"
	"github.com/momentics/hioload-rpc/core/protocol"
	"github.com/momentics/hioload-rpc/core/sched"
	"github.com/momentics/hioload-rpc/internal/transport"
	"github.com/momentics/hioload-rpc/reactor"
)

// connRef ties a live descriptor to its pool offset and ring slot.
type connRef struct {
	off  int
	slot *sched.Slot
}

// Worker owns one ring/pool pair end-to-end.
type Worker struct {
	cfg     *Config
	log     *zap.Logger
	metrics *control.Metrics
	handler Handler

	tr       transport.Transport
	rx       reactor.Reactor
	listener api.Descriptor

	conns   mem.Pool[Connection]
	ring    sched.RoundRobin
	scratch mem.Arena[byte]

	// refs maps a live descriptor to its pool offset and ring slot. Slot
	// pointers are stable: ring positions never move while a connection is
	// live. Mutated only on admission and eviction, never per request.
	refs map[api.Descriptor]connRef

	// completed buffers readiness events between the reactor wait and the
	// servicing pass.
	completed *queue.Queue

	events []reactor.Event
}

func newWorker(cfg *Config, log *zap.Logger, metrics *control.Metrics, handler Handler,
	tr transport.Transport, rx reactor.Reactor, listener api.Descriptor) (*Worker, error) {

	// The embedded output region must hold at least the HTTP preamble plus
	// a batch bracket before the overflow spill takes over.
	if cfg.ScratchBytes <= protocol.HeaderSize {
		return nil, fmt.Errorf("scratch region of %d bytes cannot hold a %d byte response preamble",
			cfg.ScratchBytes, protocol.HeaderSize)
	}
	w := &Worker{
		cfg:       cfg,
		log:       log,
		metrics:   metrics,
		handler:   handler,
		tr:        tr,
		rx:        rx,
		listener:  listener,
		refs:      make(map[api.Descriptor]connRef, cfg.MaxConnections),
		completed: queue.New(),
		events:    make([]reactor.Event, cfg.EventBatch),
	}
	if !w.conns.Reserve(cfg.MaxConnections) {
		return nil, api.ErrResourceExhausted
	}
	if !w.ring.Alloc(cfg.MaxConnections) {
		return nil, api.ErrResourceExhausted
	}
	if !w.scratch.Resize(2 * cfg.ScratchBytes * cfg.MaxConnections) {
		return nil, api.ErrResourceExhausted
	}
	// Mount a fixed input/output scratch pair into every pool element once;
	// the hot path never allocates for small payloads.
	for i := 0; i < cfg.MaxConnections; i++ {
		base := 2 * cfg.ScratchBytes * i
		conn := w.conns.At(i)
		conn.Descriptor = api.BadDescriptor
		conn.Pipes.Mount(
			w.scratch.Slice(base, base+cfg.ScratchBytes),
			w.scratch.Slice(base+cfg.ScratchBytes, base+2*cfg.ScratchBytes),
		)
	}
	return w, nil
}

func (w *Worker) run(ctx context.Context) error {
	timeoutMs := int(w.cfg.WaitTimeout.Milliseconds())
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := w.rx.Wait(w.events, timeoutMs)
		if err != nil {
			return err
		}
		for i := 0; i < n; i++ {
			ev := w.events[i]
			if ev.Descriptor == w.listener {
				w.acceptPending()
				continue
			}
			w.completed.Add(ev)
		}
		w.drainCompleted()
		w.rotate()
		w.evictStale()
	}
}

// drainCompleted services the events staged for this iteration. Servicing
// may defer an event by re-queueing it; only the entry snapshot is drained,
// so deferred events carry over to the next loop iteration.
func (w *Worker) drainCompleted() {
	for n := w.completed.Length(); n > 0; n-- {
		ev := w.completed.Remove().(reactor.Event)
		w.service(ev)
	}
}

// acceptPending drains the listener backlog, admitting until capacity.
func (w *Worker) acceptPending() {
	for {
		d, ok, err := w.tr.Accept(w.listener)
		if err != nil {
			w.log.Warn("accept failed", zap.Error(err))
			return
		}
		if !ok {
			return
		}
		if err := w.admit(d); err != nil {
			return
		}
	}
}

// admit is the checked admission boundary: capacity exhaustion refuses the
// connection instead of violating ring preconditions.
func (w *Worker) admit(d api.Descriptor) error {
	if w.ring.Size() >= w.ring.Capacity() {
		return w.refuse(d)
	}
	off, ok := w.conns.Alloc()
	if !ok {
		return w.refuse(d)
	}
	conn := w.conns.At(off)
	conn.Reset()
	conn.Descriptor = d
	conn.Stage = StageReceiving
	if err := w.rx.Register(d); err != nil {
		w.conns.Release(off)
		_ = w.tr.Close(d)
		w.log.Warn("register failed", zap.Int32("fd", int32(d)), zap.Error(err))
		return err
	}
	w.ring.PushAhead(d)
	w.refs[d] = connRef{off: off, slot: w.ring.Head()}
	w.metrics.Admitted.Inc()
	return nil
}

func (w *Worker) refuse(d api.Descriptor) error {
	w.metrics.Refused.Inc()
	_ = w.tr.Close(d)
	w.log.Warn("connection refused, ring at capacity",
		zap.Int("live", w.ring.Size()), zap.Int("capacity", w.ring.Capacity()))
	return api.ErrResourceExhausted
}

func (w *Worker) service(ev reactor.Event) {
	ref, ok := w.refs[ev.Descriptor]
	if !ok {
		return
	}
	conn := w.conns.At(ref.off)
	if ev.Kind&reactor.EventError != 0 {
		conn.Stage = StageClosing
		return
	}
	if ev.Kind&reactor.EventReadable != 0 && conn.Stage != StageClosing {
		if conn.Pipes.HasRemainingOutputs() {
			// Backpressure: leave inbound bytes in the kernel until the
			// pending reply drains, retrying on a later iteration. The
			// event must be retained, edge-triggered epoll will not raise
			// it again.
			w.completed.Add(ev)
		} else {
			w.receive(conn, ref.slot)
		}
	}
	if ev.Kind&reactor.EventWritable != 0 && conn.Pipes.HasRemainingOutputs() {
		w.flush(conn, ref.slot)
	}
}

// receive drains the socket until a short or empty read. The reactor is
// edge-triggered: one readable event covers everything the kernel has
// buffered so far, so stopping after one read would strand the remainder
// until the peer sends again.
func (w *Worker) receive(conn *Connection, slot *sched.Slot) {
	total := 0
	for {
		buf := conn.Pipes.NextInputBuffer()
		n, err := w.tr.ReadInto(conn.Descriptor, buf)
		if err != nil {
			if !errors.Is(err, api.ErrTransportClosed) {
				w.log.Debug("read failed", zap.Int32("fd", int32(conn.Descriptor)), zap.Error(err))
			}
			conn.Stage = StageClosing
			return
		}
		if n == 0 {
			break
		}
		total += n
		if !conn.Pipes.AbsorbInput(n) {
			conn.Stage = StageClosing
			return
		}
		if n < len(buf) {
			break
		}
		// Full read: more bytes may sit in the kernel buffer. Free the
		// embedded region before reading again.
		if !conn.Pipes.ShiftInputToDynamic() {
			conn.Stage = StageClosing
			return
		}
	}
	if total == 0 {
		conn.EmptyTransmits++
		return
	}
	conn.EmptyTransmits = 0
	conn.serviced = true

	body, httpFramed, complete := splitRequest(conn.Pipes.InputSpan())
	if !complete {
		// Multi-chunk request: park the received prefix in dynamic
		// storage and free the scratch for the next read.
		if !conn.Pipes.ShiftInputToDynamic() {
			conn.Stage = StageClosing
		}
		return
	}
	conn.HTTPFramed = httpFramed
	w.process(conn, slot, body)
}

func (w *Worker) process(conn *Connection, slot *sched.Slot, body []byte) {
	if conn.Pipes.HasRemainingOutputs() {
		// The previous reply is still draining; park the request in
		// dynamic storage until the socket accepts the backlog.
		if !conn.Pipes.ShiftInputToDynamic() {
			conn.Stage = StageClosing
		}
		return
	}
	conn.Stage = StageResponding
	if conn.HTTPFramed {
		conn.Pipes.AppendReserved(protocol.Header())
	}

	call := Call{w: w, conn: conn, slot: slot}
	w.handler.Handle(&call, body)

	if conn.HTTPFramed && conn.Pipes.HasOutputs() {
		out := conn.Pipes.OutputSpan()
		if !protocol.SetContentLength(out, len(out)-protocol.HeaderSize) {
			w.log.Error("dropping reply",
				zap.Int("bytes", len(out)-protocol.HeaderSize),
				zap.Error(api.ErrEncodingOverflow))
			conn.Pipes.ReleaseOutputs()
			conn.Stage = StageClosing
			return
		}
	}

	conn.Pipes.ReleaseInputs()
	conn.Exchanges++
	if slot != nil {
		slot.SkippedCycles = 0
	}
	w.flush(conn, slot)
	if conn.Stage == StageResponding && !conn.Pipes.HasRemainingOutputs() {
		conn.Stage = StageIdle
	}
}

// submit performs the zero-copy scatter-gather write of a fragment list.
// Unsent tails are linearized into the connection's output pipe, since the
// fragment buffers are only valid during the call.
func (w *Worker) submit(conn *Connection, iov [][]byte, total int) error {
	n, err := w.tr.Writev(conn.Descriptor, iov)
	if err != nil {
		conn.Stage = StageClosing
		return err
	}
	w.metrics.Replies.Inc()
	w.metrics.ReplyBytes.Add(float64(n))
	if n < total {
		if !w.spillUnsent(conn, iov, n) {
			conn.Stage = StageClosing
			return api.ErrResourceExhausted
		}
		conn.Stage = StageResponding
	}
	return nil
}

// spillUnsent copies the fragment bytes beyond the first sent bytes into the
// output pipe for a later writable-readiness flush.
func (w *Worker) spillUnsent(conn *Connection, iov [][]byte, sent int) bool {
	for _, v := range iov {
		if sent >= len(v) {
			sent -= len(v)
			continue
		}
		if !conn.Pipes.AppendOutputs([][]byte{v[sent:]}) {
			return false
		}
		sent = 0
	}
	return true
}

func (w *Worker) flush(conn *Connection, slot *sched.Slot) {
	if !conn.Pipes.HasRemainingOutputs() {
		return
	}
	pending := conn.Pipes.NextOutput()
	n, err := w.tr.Writev(conn.Descriptor, [][]byte{pending})
	if err != nil {
		conn.Stage = StageClosing
		return
	}
	conn.Pipes.MarkSubmitted(n)
	w.metrics.ReplyBytes.Add(float64(n))
	if conn.Pipes.HasRemainingOutputs() {
		conn.Stage = StageResponding
		return
	}
	conn.Pipes.ReleaseOutputs()
	if slot != nil {
		slot.Response.Reset()
	}
	if conn.Stage == StageResponding {
		conn.Stage = StageIdle
	}
	// A request may have been parked while the previous reply drained.
	if parked := conn.Pipes.InputSpan(); len(parked) > 0 {
		if body, httpFramed, complete := splitRequest(parked); complete {
			conn.HTTPFramed = httpFramed
			w.process(conn, slot, body)
		}
	}
}

// rotate makes one fairness pass across the live window: drains pending
// outputs and advances the staleness counters of slots that saw no traffic.
func (w *Worker) rotate() {
	for i := 0; i < w.ring.Size(); i++ {
		slot := w.ring.Poll()
		ref, ok := w.refs[slot.Descriptor]
		if !ok {
			continue
		}
		conn := w.conns.At(ref.off)
		if conn.Pipes.HasRemainingOutputs() {
			w.flush(conn, slot)
		}
		if conn.serviced {
			conn.serviced = false
			slot.SkippedCycles = 0
		} else {
			slot.SkippedCycles++
		}
	}
}

// evictStale applies the tail eviction policy: closing, expired, or starved
// connections drain from the FIFO head.
func (w *Worker) evictStale() {
	for w.ring.Size() > 0 {
		tail := w.ring.Tail()
		ref, ok := w.refs[tail.Descriptor]
		if !ok {
			w.ring.DropTail()
			continue
		}
		conn := w.conns.At(ref.off)
		if conn.Stage != StageClosing &&
			!conn.Expired(w.cfg.MaxEmptyTransmits) &&
			tail.SkippedCycles <= w.cfg.MaxSkippedCycles {
			return
		}
		w.evictTail()
	}
}

func (w *Worker) evictTail() {
	d := w.ring.DropTail()
	if !d.Valid() {
		return
	}
	ref, ok := w.refs[d]
	if !ok {
		return
	}
	conn := w.conns.At(ref.off)
	_ = w.rx.Unregister(d)
	_ = w.tr.Close(d)
	conn.Reset()
	w.conns.Release(ref.off)
	delete(w.refs, d)
	w.metrics.Evicted.Inc()
}

// close drains the ring and releases the reactor.
func (w *Worker) close() error {
	for w.ring.Size() > 0 {
		w.evictTail()
	}
	return w.rx.Close()
}
