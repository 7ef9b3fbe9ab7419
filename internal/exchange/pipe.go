// File: internal/exchange/pipe.go
// Package exchange implements the per-connection reception and response
// pipes: a fixed embedded scratch region for the common small-payload case,
// spilling into a growable array only when a payload outgrows it.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// The embedded regions are not owned here. A worker carves them out of one
// arena sized at start and mounts a pair into every connection, so the
// request hot path performs no heap allocation for small payloads.

package exchange

import (
	"github.com/momentics/hioload-rpc/core/mem"
	"github.com/momentics/hioload-rpc/core/protocol"
)

type pipe struct {
	embedded []byte
	used     int
	dynamic  mem.Array[byte]
}

// span returns the live contents: the dynamic overflow once it is in use,
// the embedded prefix otherwise.
func (p *pipe) span() []byte {
	if p.dynamic.Len() > 0 {
		return p.dynamic.Data()
	}
	return p.embedded[:p.used]
}

// Pipes combines one input and one output pipe plus submission bookkeeping
// for partially written replies.
type Pipes struct {
	in        pipe
	out       pipe
	submitted int
}

// Mount attaches the caller-owned scratch regions. Must be called before
// any piping; regions must outlive the Pipes.
func (pp *Pipes) Mount(inputs, outputs []byte) {
	pp.in.embedded = inputs
	pp.out.embedded = outputs
}

// ReleaseInputs drops accumulated input, retaining the mounted scratch.
func (pp *Pipes) ReleaseInputs() {
	pp.in.dynamic.Reset()
	pp.in.used = 0
}

// ReleaseOutputs drops the pending response, retaining the mounted scratch.
func (pp *Pipes) ReleaseOutputs() {
	pp.out.dynamic.Reset()
	pp.out.used = 0
	pp.submitted = 0
}

// InputSpan returns the accumulated request bytes.
func (pp *Pipes) InputSpan() []byte { return pp.in.span() }

// OutputSpan returns the accumulated response bytes.
func (pp *Pipes) OutputSpan() []byte { return pp.out.span() }

// NextInputBuffer returns the region the multiplexer should read into next.
func (pp *Pipes) NextInputBuffer() []byte { return pp.in.embedded }

// AbsorbInput accounts n freshly received bytes sitting in the embedded
// input region. If earlier chunks already spilled to dynamic storage the new
// bytes are shifted there too, keeping the request contiguous.
func (pp *Pipes) AbsorbInput(n int) bool {
	pp.in.used = n
	if pp.in.dynamic.Len() == 0 {
		return true
	}
	return pp.ShiftInputToDynamic()
}

// ShiftInputToDynamic moves the embedded input into the dynamic overflow,
// freeing the embedded region for the next read of a multi-chunk request.
func (pp *Pipes) ShiftInputToDynamic() bool {
	if !pp.in.dynamic.AppendN(pp.in.embedded[:pp.in.used]) {
		return false
	}
	pp.in.used = 0
	return true
}

// AppendOutputs absorbs a reply fragment list. Fragments are linearized into
// the embedded region while they fit; the first overflow migrates everything
// into the dynamic array and appends there. Returns false on allocation
// failure with the prior contents intact.
func (pp *Pipes) AppendOutputs(iov [][]byte) bool {
	added := protocol.IovecsLength(iov)
	wasEmbedded := pp.out.dynamic.Len() == 0
	fitsEmbedded := pp.out.used+added < len(pp.out.embedded)

	if wasEmbedded && fitsEmbedded {
		protocol.IovecsMemcpy(pp.out.embedded[pp.out.used:], iov)
		pp.out.used += added
		return true
	}
	if !pp.out.dynamic.Reserve(pp.out.dynamic.Len() + pp.out.used + added) {
		return false
	}
	if wasEmbedded {
		if !pp.out.dynamic.AppendN(pp.out.embedded[:pp.out.used]) {
			return false
		}
		pp.out.used = 0
	}
	for _, v := range iov {
		if !pp.out.dynamic.AppendN(v) {
			return false
		}
	}
	return true
}

// AppendReserved appends raw bytes to the output, embedded or dynamic.
// The caller guarantees room in the active storage.
func (pp *Pipes) AppendReserved(b []byte) {
	if pp.out.dynamic.Len() > 0 {
		pp.out.dynamic.AppendN(b)
		return
	}
	copy(pp.out.embedded[pp.out.used:], b)
	pp.out.used += len(b)
}

// PushBackReserved appends a single byte, used for batch array brackets.
func (pp *Pipes) PushBackReserved(c byte) {
	if pp.out.dynamic.Len() > 0 {
		pp.out.dynamic.Reserve(pp.out.dynamic.Len() + 1)
		pp.out.dynamic.PushBackReserved(c)
		return
	}
	pp.out.embedded[pp.out.used] = c
	pp.out.used++
}

// OutputPopBack drops the last output byte, replacing a trailing batch comma
// with a closing bracket.
func (pp *Pipes) OutputPopBack() {
	if pp.out.dynamic.Len() > 0 {
		pp.out.dynamic.PopBack(1)
		return
	}
	pp.out.used--
}

// MarkSubmitted records n bytes accepted by the write path.
func (pp *Pipes) MarkSubmitted(n int) { pp.submitted += n }

// HasOutputs reports whether any response bytes were produced.
func (pp *Pipes) HasOutputs() bool { return len(pp.out.span()) > 0 }

// HasRemainingOutputs reports whether unsubmitted response bytes remain.
func (pp *Pipes) HasRemainingOutputs() bool { return pp.submitted < len(pp.out.span()) }

// NextOutput returns the response bytes still pending submission.
func (pp *Pipes) NextOutput() []byte { return pp.out.span()[pp.submitted:] }
