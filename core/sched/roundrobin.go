// File: core/sched/roundrobin.go
// Package sched implements the per-worker connection scheduler: a fixed
// circular buffer of connection slots with FIFO admission, fair round-robin
// servicing, and age-based eviction from the tail.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// The scheduler is single-writer. One worker owns one RoundRobin instance;
// all mutation happens from that worker's own loop iteration, so no locking
// is needed here.

package sched

import "github.com/momentics/hioload-rpc/api"

// Slot is one fixed-size record representing one connection's scheduling and
// response state. A slot is either live (valid, unique descriptor) or empty
// (the api.BadDescriptor sentinel); empty slots are never polled as live.
type Slot struct {
	// Descriptor identifies the connection, or api.BadDescriptor when the
	// slot is unused.
	Descriptor api.Descriptor
	// SkippedCycles counts scheduler passes since this slot was last
	// serviced. Interpreting it (idle timeouts, backpressure) is the
	// caller's policy; the scheduler only maintains the counter.
	SkippedCycles uint32
	// Response is the write-state of the in-flight reply.
	Response api.ResponseState
}

// RoundRobin is a fixed-capacity circular buffer of Slots with three cursors:
// idxOldest (FIFO head, first to be evicted), idxNewest (where the next
// admission is written), and idxPoll (rotating cursor across the live window
// [idxOldest, idxNewest)).
//
// Live slots always occupy the circular range of length Size() starting at
// idxOldest. Capacity planning is the caller's responsibility: PushAhead on a
// full ring and Poll on an empty ring are undefined, callers check Size()
// against Capacity() beforehand.
type RoundRobin struct {
	circle    []Slot
	count     int
	idxNewest int
	idxOldest int
	idxPoll   int
}

// Alloc sizes the ring for n slots, all empty. Returns false on an
// unsatisfiable size with no partial mutation.
func (r *RoundRobin) Alloc(n int) bool {
	if n <= 0 {
		return false
	}
	circle := make([]Slot, n)
	for i := range circle {
		circle[i].Descriptor = api.BadDescriptor
	}
	r.circle = circle
	r.count = 0
	r.idxNewest = 0
	r.idxOldest = 0
	r.idxPoll = 0
	return true
}

// PushAhead admits a new connection at the newest position, resetting its
// skip and response state. Precondition: Size() < Capacity().
func (r *RoundRobin) PushAhead(d api.Descriptor) {
	s := &r.circle[r.idxNewest]
	s.Descriptor = d
	s.SkippedCycles = 0
	s.Response.Reset()
	r.idxNewest = (r.idxNewest + 1) % len(r.circle)
	r.count++
}

// DropTail evicts the oldest live connection and returns its descriptor so
// the caller can close and release it. If the poll cursor pointed at the
// evicted slot it advances to the new oldest, so a dropped slot is never
// serviced.
func (r *RoundRobin) DropTail() api.Descriptor {
	s := &r.circle[r.idxOldest]
	old := s.Descriptor
	s.Descriptor = api.BadDescriptor
	if r.idxPoll == r.idxOldest {
		r.idxPoll = (r.idxPoll + 1) % len(r.circle)
	}
	r.idxOldest = (r.idxOldest + 1) % len(r.circle)
	r.count--
	return old
}

// Poll returns the slot at the current poll cursor and advances the cursor
// one position within the live window, wrapping from just before the newest
// back to the oldest. Every live slot is visited exactly once per full cycle
// through the window, regardless of admission order. Precondition:
// Size() > 0.
func (r *RoundRobin) Poll() *Slot {
	s := &r.circle[r.idxPoll]
	next := (r.idxPoll + 1) % len(r.circle)
	if next == r.idxNewest {
		next = r.idxOldest
	}
	r.idxPoll = next
	return s
}

// Tail returns the oldest live slot, for staleness inspection.
func (r *RoundRobin) Tail() *Slot { return &r.circle[r.idxOldest] }

// Head returns the newest live slot.
func (r *RoundRobin) Head() *Slot {
	return &r.circle[(r.idxNewest-1+len(r.circle))%len(r.circle)]
}

// Size returns the live connection count.
func (r *RoundRobin) Size() int { return r.count }

// Capacity returns the fixed slot count.
func (r *RoundRobin) Capacity() int { return len(r.circle) }
