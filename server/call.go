// File: server/call.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Call is the reply context handed to the application dispatch layer. The
// engine does not parse JSON; the handler extracts the request id and method
// itself and answers through this context.

package server

import (
	"strconv"

	"github.com/momentics/hioload-rpc/api"
	"github.com/momentics/hioload-rpc/core/protocol"
	"github.com/momentics/hioload-rpc/core/sched"
)

// Handler is the external dispatch collaborator. It receives one decoded
// request body per call and produces zero or more replies through the
// context. Bodies passed in are only valid for the duration of Handle.
type Handler interface {
	Handle(call *Call, body []byte)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(call *Call, body []byte)

// Handle implements Handler.
func (f HandlerFunc) Handle(call *Call, body []byte) { f(call, body) }

// Call accumulates the reply to one request.
type Call struct {
	w     *Worker
	conn  *Connection
	slot  *sched.Slot
	batch bool
}

// BeginBatch opens a JSON array for a batch reply. Every subsequent Reply
// and ReplyError appends a trailing separator; EndBatch fixes up the last
// one and closes the array.
func (c *Call) BeginBatch() {
	c.batch = true
	c.conn.Pipes.PushBackReserved('[')
}

// EndBatch replaces the final batch separator with the closing bracket.
func (c *Call) EndBatch() {
	c.batch = false
	if c.conn.Pipes.HasOutputs() {
		c.conn.Pipes.OutputPopBack()
	}
	c.conn.Pipes.PushBackReserved(']')
}

// Reply encodes a success envelope for id with the given result payload.
// For an unframed single reply the fragment list is submitted to the socket
// directly, without copying; id and result only need to stay valid until
// Reply returns. Framed and batched replies are linearized into the
// connection's output pipe instead.
func (c *Call) Reply(id, result []byte) error {
	var iov [protocol.SuccessVecs][]byte
	total := protocol.FillSuccess(iov[:], id, result, c.batch)

	if c.batch || c.conn.HTTPFramed || c.conn.Pipes.HasOutputs() {
		if !c.conn.Pipes.AppendOutputs(iov[:]) {
			return api.ErrResourceExhausted
		}
		c.slot.Response.Copies += protocol.SuccessVecs
		c.w.metrics.Replies.Inc()
		return nil
	}
	c.slot.Response.Iovecs += protocol.SuccessVecs
	return c.w.submit(c.conn, iov[:], total)
}

// ReplyError encodes an error envelope for id. The code is printed in
// decimal; the message must not contain unescaped quotes.
func (c *Call) ReplyError(id []byte, code int, message string) error {
	var codeBuf [20]byte
	codeBytes := strconv.AppendInt(codeBuf[:0], int64(code), 10)

	var iov [protocol.ErrorVecs][]byte
	protocol.FillError(iov[:], id, codeBytes, []byte(message), c.batch)
	if !c.conn.Pipes.AppendOutputs(iov[:]) {
		return api.ErrResourceExhausted
	}
	c.slot.Response.Copies += protocol.ErrorVecs
	c.w.metrics.Replies.Inc()
	return nil
}
