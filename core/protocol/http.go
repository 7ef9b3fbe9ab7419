// File: core/protocol/http.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Fixed-layout HTTP response preamble. The Content-Length field is
// pre-padded to a known maximum width and patched by a direct offset write
// once the body length is known, instead of re-serializing the header per
// response. The trade-off: the representable Content-Length is bounded by
// the reserved digit width.

package protocol

import "strconv"

const (
	httpHeader = "HTTP/1.1 200 OK\r\nContent-Length:          \r\nContent-Type: application/json\r\n\r\n"

	// HeaderSize is the exact preamble length in bytes.
	HeaderSize = 78
	// headerLengthOffset is where the Content-Length digits start.
	headerLengthOffset = 33
	// headerLengthCapacity is the reserved decimal digit width.
	headerLengthCapacity = 9

	maxContentLength = 999_999_999
)

var headerTemplate = []byte(httpHeader)

// Header returns the shared preamble template with the Content-Length field
// blank. Callers must copy it into their output before patching; the
// template itself must never be mutated.
func Header() []byte { return headerTemplate }

// NewResponseHeader returns a fresh copy of the preamble template. The copy
// is safe to patch in place.
func NewResponseHeader() []byte {
	h := make([]byte, HeaderSize)
	copy(h, httpHeader)
	return h
}

// SetContentLength writes the decimal content length directly into the
// reserved byte range of header. Returns false when the value does not fit
// the reserved digit width; the header is untouched in that case and the
// caller is expected to reframe or reject the response.
func SetContentLength(header []byte, contentLen int) bool {
	if contentLen < 0 || contentLen > maxContentLength {
		return false
	}
	var digits [headerLengthCapacity]byte
	copy(header[headerLengthOffset:], strconv.AppendInt(digits[:0], int64(contentLen), 10))
	return true
}

// ContentLength decodes the patched field back. Used by tests and by
// fallback paths that need to re-inspect a prepared header.
func ContentLength(header []byte) (int, bool) {
	field := header[headerLengthOffset : headerLengthOffset+headerLengthCapacity]
	end := 0
	for end < len(field) && field[end] >= '0' && field[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(string(field[:end]))
	if err != nil {
		return 0, false
	}
	return n, true
}
