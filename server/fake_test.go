// File: server/fake_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// In-memory transport and reactor doubles. The worker only sees descriptors
// and byte ranges, so the whole engine runs against byte slices in tests.

package server

import (
	"github.com/momentics/hioload-rpc/api"
	"github.com/momentics/hioload-rpc/internal/transport"
	"github.com/momentics/hioload-rpc/reactor"
)

type fakeSocket struct {
	in     []byte
	out    []byte
	closed bool
}

// fakeTransport serves sockets from memory. writeLimit caps the bytes one
// Writev accepts, to exercise the short-write spill path.
type fakeTransport struct {
	pending    []api.Descriptor
	socks      map[api.Descriptor]*fakeSocket
	writeLimit int
}

var _ transport.Transport = (*fakeTransport)(nil)

func newFakeTransport() *fakeTransport {
	return &fakeTransport{socks: make(map[api.Descriptor]*fakeSocket)}
}

// dial enqueues a connection with the given inbound bytes for Accept.
func (t *fakeTransport) dial(d api.Descriptor, in []byte) *fakeSocket {
	s := &fakeSocket{in: in}
	t.socks[d] = s
	t.pending = append(t.pending, d)
	return s
}

func (t *fakeTransport) Accept(api.Descriptor) (api.Descriptor, bool, error) {
	if len(t.pending) == 0 {
		return api.BadDescriptor, false, nil
	}
	d := t.pending[0]
	t.pending = t.pending[1:]
	return d, true, nil
}

func (t *fakeTransport) ReadInto(d api.Descriptor, buf []byte) (int, error) {
	s := t.socks[d]
	if s.closed {
		return 0, api.ErrTransportClosed
	}
	if len(s.in) == 0 {
		return 0, nil
	}
	n := copy(buf, s.in)
	s.in = s.in[n:]
	return n, nil
}

func (t *fakeTransport) Writev(d api.Descriptor, iov [][]byte) (int, error) {
	s := t.socks[d]
	if s.closed {
		return 0, api.ErrTransportClosed
	}
	budget := t.writeLimit
	if budget <= 0 {
		budget = 1 << 30
	}
	total := 0
	for _, v := range iov {
		take := len(v)
		if take > budget {
			take = budget
		}
		s.out = append(s.out, v[:take]...)
		total += take
		budget -= take
		if budget == 0 {
			break
		}
	}
	return total, nil
}

func (t *fakeTransport) Close(d api.Descriptor) error {
	if s, ok := t.socks[d]; ok {
		s.closed = true
	}
	return nil
}

type fakeReactor struct {
	watched map[api.Descriptor]bool
}

var _ reactor.Reactor = (*fakeReactor)(nil)

func newFakeReactor() *fakeReactor {
	return &fakeReactor{watched: make(map[api.Descriptor]bool)}
}

func (r *fakeReactor) Register(d api.Descriptor) error {
	r.watched[d] = true
	return nil
}

func (r *fakeReactor) Unregister(d api.Descriptor) error {
	delete(r.watched, d)
	return nil
}

func (r *fakeReactor) Wait([]reactor.Event, int) (int, error) { return 0, nil }

func (r *fakeReactor) Close() error { return nil }
