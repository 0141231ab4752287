// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"errors"
	"fmt"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// Ready is the set of endpoints with data waiting to be read.
type Ready uint8

const (
	// DeviceReady means a frame can be read from the device.
	DeviceReady Ready = 1 << iota
	// SocketReady means a datagram can be received from the socket.
	SocketReady
)

// Has reports whether every endpoint in other is ready.
func (r Ready) Has(other Ready) bool {
	return r&other == other
}

func (r Ready) String() string {
	switch r {
	case 0:
		return "none"
	case DeviceReady:
		return "device"
	case SocketReady:
		return "socket"
	case DeviceReady | SocketReady:
		return "device|socket"
	}
	return fmt.Sprintf("Ready(%#x)", uint8(r))
}

// Poller blocks until at least one endpoint is readable or timeout
// elapses. An empty set with a nil error means the timeout expired.
type Poller interface {
	Wait(timeout time.Duration) (Ready, error)
}

// ErrDescriptorClosed is returned by FDPoller.Wait when one of its
// descriptors is no longer open (POLLNVAL).
var ErrDescriptorClosed = errors.New("relay: polled descriptor is closed")

// FDPoller waits on the device and socket file descriptors with poll(2).
type FDPoller struct {
	deviceFD int
	socketFD int
}

// NewFDPoller returns a Poller over the two raw descriptors. The caller
// keeps ownership of both.
func NewFDPoller(deviceFD, socketFD int) *FDPoller {
	return &FDPoller{deviceFD: deviceFD, socketFD: socketFD}
}

// Wait polls both descriptors for input. Sub-millisecond timeouts are
// rounded up so a short timeout never degenerates into a busy loop. A
// negative timeout is treated as zero and never blocks.
// An interrupted poll (EINTR) is reported as an expired timeout; the
// caller re-checks its stop condition and waits again.
//
// POLLHUP and POLLERR count as readable: the read that follows returns
// the actual error.
func (p *FDPoller) Wait(timeout time.Duration) (Ready, error) {
	// poll(2) treats a negative timeout as infinite.
	timeout = max(timeout, 0)
	milliseconds := int((timeout + time.Millisecond - 1) / time.Millisecond)

	pollDescriptors := []unix.PollFd{
		{Fd: int32(p.deviceFD), Events: unix.POLLIN},
		{Fd: int32(p.socketFD), Events: unix.POLLIN},
	}
	count, err := unix.Poll(pollDescriptors, milliseconds)
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, fmt.Errorf("poll: %w", err)
	}
	if count == 0 {
		return 0, nil
	}

	var ready Ready
	for index, endpoint := range []Ready{DeviceReady, SocketReady} {
		events := pollDescriptors[index].Revents
		if events&unix.POLLNVAL != 0 {
			return 0, ErrDescriptorClosed
		}
		if events&(unix.POLLIN|unix.POLLHUP|unix.POLLERR) != 0 {
			ready |= endpoint
		}
	}
	return ready, nil
}

// FileDescriptor returns the descriptor behind an endpoint: anything with
// an Fd method (*os.File, the endpoint package types) or a syscall.Conn
// (*net.UDPConn).
func FileDescriptor(handle any) (int, error) {
	switch h := handle.(type) {
	case interface{ Fd() uintptr }:
		return int(h.Fd()), nil
	case syscall.Conn:
		rawConnection, err := h.SyscallConn()
		if err != nil {
			return -1, fmt.Errorf("relay: %T: %w", handle, err)
		}
		descriptor := -1
		if err := rawConnection.Control(func(fd uintptr) { descriptor = int(fd) }); err != nil {
			return -1, fmt.Errorf("relay: %T: %w", handle, err)
		}
		return descriptor, nil
	}
	return -1, fmt.Errorf("relay: %T has no file descriptor", handle)
}
