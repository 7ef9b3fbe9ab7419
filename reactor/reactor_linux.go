//go:build linux
// +build linux

// File: reactor/reactor_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Linux epoll(7)-based readiness reactor.

package reactor

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-rpc/api"
)

type linuxReactor struct {
	epfd int
	raw  []unix.EpollEvent // reused across Wait calls, single-owner
}

// NewReactor constructs the platform readiness multiplexer.
func NewReactor() (Reactor, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("epoll create: %w", err)
	}
	return &linuxReactor{epfd: epfd}, nil
}

func (r *linuxReactor) Register(d api.Descriptor) error {
	ev := &unix.EpollEvent{
		Events: unix.EPOLLIN | unix.EPOLLOUT | unix.EPOLLET,
		Fd:     int32(d),
	}
	if err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_ADD, int(d), ev); err != nil {
		return fmt.Errorf("epoll ctl add: %w", err)
	}
	return nil
}

func (r *linuxReactor) Unregister(d api.Descriptor) error {
	if err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_DEL, int(d), nil); err != nil {
		return fmt.Errorf("epoll ctl del: %w", err)
	}
	return nil
}

func (r *linuxReactor) Wait(events []Event, timeoutMs int) (int, error) {
	if len(r.raw) < len(events) {
		r.raw = make([]unix.EpollEvent, len(events))
	}
	raw := r.raw[:len(events)]
	n, err := unix.EpollWait(r.epfd, raw, timeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, fmt.Errorf("epoll wait: %w", err)
	}
	for i := 0; i < n; i++ {
		var kind EventKind
		if raw[i].Events&unix.EPOLLIN != 0 {
			kind |= EventReadable
		}
		if raw[i].Events&unix.EPOLLOUT != 0 {
			kind |= EventWritable
		}
		if raw[i].Events&(unix.EPOLLERR|unix.EPOLLHUP) != 0 {
			kind |= EventError
		}
		events[i] = Event{Descriptor: api.Descriptor(raw[i].Fd), Kind: kind}
	}
	return n, nil
}

func (r *linuxReactor) Close() error {
	return unix.Close(r.epfd)
}
