// File: server/frame.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Minimal HTTP request framing: enough to find the body boundary and the
// declared Content-Length. Header semantics beyond that, and all JSON
// parsing, belong to external collaborators.

package server

import (
	"bytes"
	"strconv"
)

var (
	crlfcrlf            = []byte("\r\n\r\n")
	contentLengthPrefix = []byte("Content-Length:")
)

// looksLikeHTTP sniffs for an HTTP request line. JSON-RPC over raw TCP
// starts with the payload itself.
func looksLikeHTTP(span []byte) bool {
	return bytes.HasPrefix(span, []byte("POST ")) ||
		bytes.HasPrefix(span, []byte("PUT ")) ||
		bytes.HasPrefix(span, []byte("GET ")) ||
		bytes.HasPrefix(span, []byte("DELETE "))
}

// splitRequest locates the request body inside the accumulated input.
// complete is false while more bytes are expected.
func splitRequest(span []byte) (body []byte, httpFramed, complete bool) {
	if !looksLikeHTTP(span) {
		return span, false, true
	}
	idx := bytes.Index(span, crlfcrlf)
	if idx < 0 {
		return nil, true, false
	}
	head := span[:idx]
	body = span[idx+len(crlfcrlf):]
	if expected, ok := parseContentLength(head); ok && len(body) < expected {
		return nil, true, false
	}
	return body, true, true
}

// parseContentLength scans the header block for a Content-Length field.
func parseContentLength(head []byte) (int, bool) {
	for len(head) > 0 {
		line := head
		if nl := bytes.Index(head, []byte("\r\n")); nl >= 0 {
			line = head[:nl]
			head = head[nl+2:]
		} else {
			head = nil
		}
		if len(line) < len(contentLengthPrefix) ||
			!bytes.EqualFold(line[:len(contentLengthPrefix)], contentLengthPrefix) {
			continue
		}
		value := bytes.TrimSpace(line[len(contentLengthPrefix):])
		n, err := strconv.Atoi(string(value))
		if err != nil || n < 0 {
			return 0, false
		}
		return n, true
	}
	return 0, false
}
