//go:build linux
// +build linux

// File: internal/transport/transport_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Linux transport: nonblocking TCP sockets, readv-style reception into
// caller scratch, and zero-copy batch transmission via writev.

package transport

import (
	"fmt"
	"net"
	"strconv"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-rpc/api"
)

type linuxTransport struct{}

func newTransport() (Transport, error) {
	return &linuxTransport{}, nil
}

func listen(addr string) (api.Descriptor, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return api.BadDescriptor, fmt.Errorf("listen addr: %w", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return api.BadDescriptor, fmt.Errorf("listen port: %w", err)
	}
	ip := net.IPv4zero
	if host != "" {
		if parsed := net.ParseIP(host); parsed != nil && parsed.To4() != nil {
			ip = parsed.To4()
		}
	}

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, unix.IPPROTO_TCP)
	if err != nil {
		return api.BadDescriptor, fmt.Errorf("socket create: %w", err)
	}
	_ = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	_ = unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1)

	sa := &unix.SockaddrInet4{Port: port}
	copy(sa.Addr[:], ip)
	if err := unix.Bind(fd, sa); err != nil {
		_ = unix.Close(fd)
		return api.BadDescriptor, fmt.Errorf("bind %s: %w", addr, err)
	}
	if err := unix.Listen(fd, unix.SOMAXCONN); err != nil {
		_ = unix.Close(fd)
		return api.BadDescriptor, fmt.Errorf("listen %s: %w", addr, err)
	}
	return api.Descriptor(fd), nil
}

func (t *linuxTransport) Accept(listener api.Descriptor) (api.Descriptor, bool, error) {
	fd, _, err := unix.Accept4(int(listener), unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return api.BadDescriptor, false, nil
		}
		return api.BadDescriptor, false, fmt.Errorf("accept: %w", err)
	}
	_ = unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1)
	return api.Descriptor(fd), true, nil
}

func (t *linuxTransport) ReadInto(d api.Descriptor, buf []byte) (int, error) {
	n, err := unix.Read(int(d), buf)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return 0, nil
		}
		return 0, fmt.Errorf("read: %w", err)
	}
	if n == 0 && len(buf) > 0 {
		return 0, api.ErrTransportClosed
	}
	return n, nil
}

func (t *linuxTransport) Writev(d api.Descriptor, iov [][]byte) (int, error) {
	n, err := unix.Writev(int(d), iov)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return 0, nil
		}
		if err == unix.EPIPE || err == unix.ECONNRESET {
			return 0, api.ErrTransportClosed
		}
		return 0, fmt.Errorf("writev: %w", err)
	}
	return n, nil
}

func (t *linuxTransport) Close(d api.Descriptor) error {
	return unix.Close(int(d))
}
