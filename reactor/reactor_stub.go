//go:build !linux
// +build !linux

// File: reactor/reactor_stub.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Stub reactor for platforms without epoll support.

package reactor

import "github.com/momentics/hioload-rpc/api"

type stubReactor struct{}

// NewReactor reports the platform as unsupported.
func NewReactor() (Reactor, error) {
	return nil, api.ErrNotSupported
}

func (stubReactor) Register(api.Descriptor) error      { return api.ErrNotSupported }
func (stubReactor) Unregister(api.Descriptor) error    { return api.ErrNotSupported }
func (stubReactor) Wait([]Event, int) (int, error)     { return 0, api.ErrNotSupported }
func (stubReactor) Close() error                       { return nil }
