// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package endpoint

import (
	"fmt"
	"net"
	"sync"

	"github.com/bureau-foundation/wpanrelay/lib/config"
)

// Socket is a UDP socket bound to the local address, paired with the
// peer it relays to. It is connectionless: the destination is given on
// every send.
type Socket struct {
	conn *net.UDPConn
	peer *net.UDPAddr

	closeOnce sync.Once
	closeErr  error
}

// ListenSocket resolves both addresses and binds a UDP socket to me.
func ListenSocket(me, peer config.Address) (*Socket, error) {
	localAddress, err := net.ResolveUDPAddr("udp", me.String())
	if err != nil {
		return nil, fmt.Errorf("resolving local address %s: %w", me, err)
	}
	peerAddress, err := net.ResolveUDPAddr("udp", peer.String())
	if err != nil {
		return nil, fmt.Errorf("resolving peer address %s: %w", peer, err)
	}
	conn, err := net.ListenUDP("udp", localAddress)
	if err != nil {
		return nil, fmt.Errorf("binding %s: %w", localAddress, err)
	}
	return &Socket{conn: conn, peer: peerAddress}, nil
}

// ReadFrom receives one datagram. The source is nil when err is set.
func (s *Socket) ReadFrom(p []byte) (int, net.Addr, error) {
	n, source, err := s.conn.ReadFromUDP(p)
	if source == nil {
		// Keep a nil *net.UDPAddr from becoming a non-nil net.Addr.
		return n, nil, err
	}
	return n, source, err
}

// WriteTo sends p as one datagram to destination.
func (s *Socket) WriteTo(p []byte, destination net.Addr) (int, error) {
	return s.conn.WriteTo(p, destination)
}

// Close closes the socket. Later calls return the first result.
func (s *Socket) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.conn.Close()
	})
	return s.closeErr
}

// Fd returns the socket's file descriptor, or ^uintptr(0) once the
// socket is closed. The socket stays owned by the runtime poller; the
// descriptor is only for readiness waits.
func (s *Socket) Fd() uintptr {
	descriptor := ^uintptr(0)
	rawConnection, err := s.conn.SyscallConn()
	if err != nil {
		return descriptor
	}
	if err := rawConnection.Control(func(fd uintptr) { descriptor = fd }); err != nil {
		return ^uintptr(0)
	}
	return descriptor
}

// LocalAddr is the bound address.
func (s *Socket) LocalAddr() *net.UDPAddr {
	return s.conn.LocalAddr().(*net.UDPAddr)
}

// Peer is the resolved peer address.
func (s *Socket) Peer() *net.UDPAddr {
	return s.peer
}
