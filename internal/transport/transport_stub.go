//go:build !linux
// +build !linux

// File: internal/transport/transport_stub.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package transport

import "github.com/momentics/hioload-rpc/api"

type stubTransport struct{}

func newTransport() (Transport, error) {
	return nil, api.ErrNotSupported
}

func listen(string) (api.Descriptor, error) {
	return api.BadDescriptor, api.ErrNotSupported
}

func (stubTransport) Accept(api.Descriptor) (api.Descriptor, bool, error) {
	return api.BadDescriptor, false, api.ErrNotSupported
}
func (stubTransport) ReadInto(api.Descriptor, []byte) (int, error) { return 0, api.ErrNotSupported }
func (stubTransport) Writev(api.Descriptor, [][]byte) (int, error) { return 0, api.ErrNotSupported }
func (stubTransport) Close(api.Descriptor) error                   { return api.ErrNotSupported }
