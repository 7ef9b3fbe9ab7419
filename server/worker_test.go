// File: server/worker_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"bytes"
	"testing"

	"go.uber.org/zap"

	"github.com/momentics/hioload-rpc/api"
	"github.com/momentics/hioload-rpc/control"
	"github.com/momentics/hioload-rpc/core/protocol"
	"github.com/momentics/hioload-rpc/reactor"
)

const testListener = api.Descriptor(3)

func newTestWorker(t *testing.T, cfg *Config, h Handler) (*Worker, *fakeTransport) {
	t.Helper()
	if cfg == nil {
		cfg = DefaultConfig()
		cfg.MaxConnections = 4
		cfg.ScratchBytes = 256
	}
	tr := newFakeTransport()
	w, err := newWorker(cfg, zap.NewNop(), control.NewMetrics(nil), h, tr, newFakeReactor(), testListener)
	if err != nil {
		t.Fatalf("newWorker: %v", err)
	}
	return w, tr
}

// echoHandler replies with a fixed id/result pair, ignoring the body.
func echoHandler(id, result string) Handler {
	return HandlerFunc(func(call *Call, body []byte) {
		if err := call.Reply([]byte(id), []byte(result)); err != nil {
			panic(err)
		}
	})
}

func readable(d api.Descriptor) reactor.Event {
	return reactor.Event{Descriptor: d, Kind: reactor.EventReadable}
}

func writable(d api.Descriptor) reactor.Event {
	return reactor.Event{Descriptor: d, Kind: reactor.EventWritable}
}

func TestWorkerRefusesAtCapacity(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxConnections = 2
	cfg.ScratchBytes = 256
	w, tr := newTestWorker(t, cfg, echoHandler("1", "19"))

	tr.dial(10, nil)
	tr.dial(11, nil)
	third := tr.dial(12, nil)
	w.acceptPending()

	if got := w.ring.Size(); got != 2 {
		t.Fatalf("ring size = %d, want 2", got)
	}
	if len(w.refs) != 2 {
		t.Fatalf("live refs = %d, want 2", len(w.refs))
	}
	if !third.closed {
		t.Fatal("refused connection left open")
	}
}

func TestWorkerRawExchange(t *testing.T) {
	w, tr := newTestWorker(t, nil, echoHandler("1", "19"))
	s := tr.dial(10, []byte(`{"jsonrpc":"2.0","id":1,"method":"ping"}`))
	w.acceptPending()
	w.service(readable(10))

	want := `{"jsonrpc":"2.0","id":1,"result":19}`
	if got := string(s.out); got != want {
		t.Fatalf("reply = %q, want %q", got, want)
	}
	conn := w.conns.At(w.refs[10].off)
	if conn.Exchanges != 1 {
		t.Fatalf("exchanges = %d, want 1", conn.Exchanges)
	}
	if conn.Pipes.HasRemainingOutputs() {
		t.Fatal("outputs left pending after full write")
	}
}

func TestWorkerHTTPExchange(t *testing.T) {
	w, tr := newTestWorker(t, nil, echoHandler("1", "19"))
	body := `{"jsonrpc":"2.0","id":1,"method":"ping"}`
	request := "POST / HTTP/1.1\r\nContent-Length: 40\r\n\r\n" + body
	s := tr.dial(10, []byte(request))
	w.acceptPending()
	w.service(readable(10))

	if len(s.out) <= protocol.HeaderSize {
		t.Fatalf("reply too short: %d bytes", len(s.out))
	}
	wantBody := `{"jsonrpc":"2.0","id":1,"result":19}`
	if got := string(s.out[protocol.HeaderSize:]); got != wantBody {
		t.Fatalf("reply body = %q, want %q", got, wantBody)
	}
	declared, ok := protocol.ContentLength(s.out[:protocol.HeaderSize])
	if !ok || declared != len(wantBody) {
		t.Fatalf("declared content length = %d (ok=%v), want %d", declared, ok, len(wantBody))
	}
	if !bytes.HasPrefix(s.out, []byte("HTTP/1.1 200 OK\r\n")) {
		t.Fatalf("missing status line: %q", s.out[:17])
	}
}

func TestWorkerRejectsShortScratch(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ScratchBytes = 64
	_, err := newWorker(cfg, zap.NewNop(), control.NewMetrics(nil), echoHandler("1", "19"),
		newFakeTransport(), newFakeReactor(), testListener)
	if err == nil {
		t.Fatal("scratch region smaller than the response preamble accepted")
	}
}

// A request larger than the embedded scratch that is already fully buffered
// by the kernel raises a single edge; the worker must keep reading until a
// short read instead of waiting for another readable event.
func TestWorkerDrainsKernelBufferedRequest(t *testing.T) {
	w, tr := newTestWorker(t, nil, echoHandler("1", "19"))
	payload := bytes.Repeat([]byte{'x'}, 600)
	request := append([]byte("POST / HTTP/1.1\r\nContent-Length: 600\r\n\r\n"), payload...)
	s := tr.dial(10, request)
	w.acceptPending()
	w.service(readable(10))

	if len(s.in) != 0 {
		t.Fatalf("%d request bytes left unread after one readable event", len(s.in))
	}
	wantBody := `{"jsonrpc":"2.0","id":1,"result":19}`
	if len(s.out) <= protocol.HeaderSize {
		t.Fatalf("no reply produced, got %d bytes", len(s.out))
	}
	if got := string(s.out[protocol.HeaderSize:]); got != wantBody {
		t.Fatalf("reply body = %q, want %q", got, wantBody)
	}
}

func TestWorkerMultiChunkRequest(t *testing.T) {
	w, tr := newTestWorker(t, nil, echoHandler("1", "19"))
	body := `{"jsonrpc":"2.0","id":1,"method":"ping"}`
	request := "POST / HTTP/1.1\r\nContent-Length: 40\r\n\r\n" + body

	s := tr.dial(10, []byte(request[:20]))
	w.acceptPending()
	w.service(readable(10))
	if len(s.out) != 0 {
		t.Fatalf("premature reply after partial request: %q", s.out)
	}

	s.in = []byte(request[20:])
	w.service(readable(10))
	wantBody := `{"jsonrpc":"2.0","id":1,"result":19}`
	if got := string(s.out[protocol.HeaderSize:]); got != wantBody {
		t.Fatalf("reply body = %q, want %q", got, wantBody)
	}
}

func TestWorkerBatchReply(t *testing.T) {
	h := HandlerFunc(func(call *Call, body []byte) {
		call.BeginBatch()
		if err := call.Reply([]byte("1"), []byte("19")); err != nil {
			t.Errorf("reply 1: %v", err)
		}
		if err := call.Reply([]byte("2"), []byte("23")); err != nil {
			t.Errorf("reply 2: %v", err)
		}
		call.EndBatch()
	})
	w, tr := newTestWorker(t, nil, h)
	s := tr.dial(10, []byte(`[{"id":1},{"id":2}]`))
	w.acceptPending()
	w.service(readable(10))

	want := `[{"jsonrpc":"2.0","id":1,"result":19},{"jsonrpc":"2.0","id":2,"result":23}]`
	if got := string(s.out); got != want {
		t.Fatalf("batch reply = %q, want %q", got, want)
	}
}

func TestWorkerErrorReply(t *testing.T) {
	h := HandlerFunc(func(call *Call, body []byte) {
		if err := call.ReplyError([]byte(`"1"`), -32601, "Method not found"); err != nil {
			t.Errorf("reply error: %v", err)
		}
	})
	w, tr := newTestWorker(t, nil, h)
	s := tr.dial(10, []byte(`{"id":"1","method":"nope"}`))
	w.acceptPending()
	w.service(readable(10))

	want := `{"jsonrpc":"2.0","id":"1","error":{"code":-32601,"message":"Method not found"}}`
	if got := string(s.out); got != want {
		t.Fatalf("error reply = %q, want %q", got, want)
	}
}

func TestWorkerPartialWriteDrains(t *testing.T) {
	w, tr := newTestWorker(t, nil, echoHandler("1", "19"))
	tr.writeLimit = 10
	s := tr.dial(10, []byte(`{"jsonrpc":"2.0","id":1,"method":"ping"}`))
	w.acceptPending()
	w.service(readable(10))

	conn := w.conns.At(w.refs[10].off)
	if !conn.Pipes.HasRemainingOutputs() {
		t.Fatal("expected a pending tail after the capped write")
	}
	for i := 0; i < 16 && conn.Pipes.HasRemainingOutputs(); i++ {
		w.service(writable(10))
	}

	want := `{"jsonrpc":"2.0","id":1,"result":19}`
	if got := string(s.out); got != want {
		t.Fatalf("drained reply = %q, want %q", got, want)
	}
	if conn.Stage != StageIdle {
		t.Fatalf("stage = %d, want StageIdle", conn.Stage)
	}
}

// A readable event arriving while the previous reply is still draining is
// deferred to a later iteration, leaving the bytes in the kernel buffer
// instead of copying them aside.
func TestWorkerDefersReadsWhileDraining(t *testing.T) {
	w, tr := newTestWorker(t, nil, echoHandler("1", "19"))
	tr.writeLimit = 10
	s := tr.dial(10, []byte(`{"jsonrpc":"2.0","id":1,"method":"ping"}`))
	w.acceptPending()
	w.service(readable(10))

	conn := w.conns.At(w.refs[10].off)
	if !conn.Pipes.HasRemainingOutputs() {
		t.Fatal("expected a pending tail after the capped write")
	}

	second := `{"jsonrpc":"2.0","id":1,"method":"ping"}`
	s.in = []byte(second)
	w.completed.Add(readable(10))
	w.drainCompleted()
	if len(s.in) != len(second) {
		t.Fatal("read performed while the previous reply was still draining")
	}
	if w.completed.Length() != 1 {
		t.Fatalf("deferred events = %d, want 1", w.completed.Length())
	}

	tr.writeLimit = 0
	w.service(writable(10))
	if conn.Pipes.HasRemainingOutputs() {
		t.Fatal("first reply not drained")
	}
	w.drainCompleted()

	env := `{"jsonrpc":"2.0","id":1,"result":19}`
	if got := string(s.out); got != env+env {
		t.Fatalf("replies = %q, want two envelopes", got)
	}
}

func TestWorkerEvictsClosedPeer(t *testing.T) {
	w, tr := newTestWorker(t, nil, echoHandler("1", "19"))
	s := tr.dial(10, nil)
	w.acceptPending()

	s.closed = true
	w.service(readable(10))
	w.evictStale()

	if w.ring.Size() != 0 {
		t.Fatalf("ring size = %d after eviction, want 0", w.ring.Size())
	}
	if len(w.refs) != 0 {
		t.Fatalf("refs = %d after eviction, want 0", len(w.refs))
	}
}

func TestWorkerEvictsStarvedTail(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxConnections = 4
	cfg.ScratchBytes = 256
	cfg.MaxSkippedCycles = 2
	w, tr := newTestWorker(t, cfg, echoHandler("1", "19"))
	tr.dial(10, nil)
	w.acceptPending()

	for i := 0; i < 3; i++ {
		w.rotate()
		w.evictStale()
	}
	if w.ring.Size() != 0 {
		t.Fatalf("starved connection not evicted, ring size = %d", w.ring.Size())
	}
	if !tr.socks[10].closed {
		t.Fatal("evicted descriptor left open")
	}
}

func TestWorkerCloseDrainsRing(t *testing.T) {
	w, tr := newTestWorker(t, nil, echoHandler("1", "19"))
	tr.dial(10, nil)
	tr.dial(11, nil)
	w.acceptPending()

	if err := w.close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if w.ring.Size() != 0 || len(w.refs) != 0 {
		t.Fatalf("state left after close: ring=%d refs=%d", w.ring.Size(), len(w.refs))
	}
	if !tr.socks[10].closed || !tr.socks[11].closed {
		t.Fatal("descriptors left open after close")
	}
}
