// File: core/protocol/reply.go
// Package protocol assembles JSON-RPC/HTTP replies as scatter-gather
// fragment lists instead of serializing into a fresh buffer per request.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// A fragment is a non-owning byte range referencing either a static protocol
// literal or a caller-supplied id/body. Fragment lists are built fresh per
// reply, consumed once by the write path, then discarded; all referenced
// memory must outlive the write that consumes the list.

package protocol

// Fragment counts per envelope kind. Callers pass fixed-length fragment
// lists sized with these constants.
const (
	// SuccessVecs fragments assemble one success envelope.
	SuccessVecs = 5
	// ErrorVecs fragments assemble one error envelope.
	ErrorVecs = 7
	// HeaderVecs fragments prefix an HTTP-framed reply.
	HeaderVecs = 1
)

var (
	replyPrefix  = []byte(`{"jsonrpc":"2.0","id":`)
	resultSep    = []byte(`,"result":`)
	resultClose  = []byte(`},`)
	errorCodeSep = []byte(`,"error":{"code":`)
	errorMsgSep  = []byte(`,"message":"`)
	errorClose   = []byte(`"}},`)
)

// FillSuccess fills iov[0:SuccessVecs] with the fragments of a success
// envelope:
//
//	{"jsonrpc":"2.0","id":<id>,"result":<body>}
//
// appendComma adds the trailing separator used between elements of a batch
// reply (all but the last element need one). Returns the total byte length
// of the fragments, so the caller can size a Content-Length or a contiguous
// copy target without re-scanning the list.
func FillSuccess(iov [][]byte, id, body []byte, appendComma bool) int {
	_ = iov[SuccessVecs-1]
	iov[0] = replyPrefix
	iov[1] = id
	iov[2] = resultSep
	iov[3] = body
	iov[4] = resultClose[:1+btoi(appendComma)]
	return len(replyPrefix) + len(id) + len(resultSep) + len(body) + len(iov[4])
}

// FillError fills iov[0:ErrorVecs] with the fragments of an error envelope:
//
//	{"jsonrpc":"2.0","id":<id>,"error":{"code":<code>,"message":"<message>"}}
//
// Same length-return and appendComma contract as FillSuccess.
func FillError(iov [][]byte, id, code, message []byte, appendComma bool) int {
	_ = iov[ErrorVecs-1]
	iov[0] = replyPrefix
	iov[1] = id
	iov[2] = errorCodeSep
	iov[3] = code
	iov[4] = errorMsgSep
	iov[5] = message
	iov[6] = errorClose[:3+btoi(appendComma)]
	return len(replyPrefix) + len(id) + len(errorCodeSep) + len(code) +
		len(errorMsgSep) + len(message) + len(iov[6])
}

// IovecsLength sums the byte lengths of a fragment list.
func IovecsLength(iov [][]byte) int {
	total := 0
	for _, v := range iov {
		total += len(v)
	}
	return total
}

// IovecsMemcpy linearizes a fragment list into dst, for transports that
// cannot consume scatter-gather writes directly. dst must hold
// IovecsLength(iov) bytes. Returns the bytes written.
func IovecsMemcpy(dst []byte, iov [][]byte) int {
	n := 0
	for _, v := range iov {
		n += copy(dst[n:], v)
	}
	return n
}

func btoi(b bool) int {
	if b {
		return 1
	}
	return 0
}
