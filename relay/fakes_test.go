// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"context"
	"net"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/bureau-foundation/wpanrelay/lib/testutil"
)

// eventLog records endpoint operations in the order the relay performs
// them, across both fakes.
type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(event string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

func (l *eventLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

type deviceRead struct {
	data []byte
	err  error
}

// fakeDevice serves queued reads and records writes. Once closed, every
// operation fails with os.ErrClosed, like *os.File.
type fakeDevice struct {
	mu       sync.Mutex
	log      *eventLog
	reads    []deviceRead
	written  [][]byte
	writeErr error
	closeErr error
	closes   int
}

func (d *fakeDevice) Read(p []byte) (int, error) {
	d.log.add("device.read")
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closes > 0 {
		return 0, os.ErrClosed
	}
	if len(d.reads) == 0 {
		return 0, nil
	}
	next := d.reads[0]
	d.reads = d.reads[1:]
	return copy(p, next.data), next.err
}

func (d *fakeDevice) Write(p []byte) (int, error) {
	d.log.add("device.write")
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closes > 0 {
		return 0, os.ErrClosed
	}
	if d.writeErr != nil {
		return 0, d.writeErr
	}
	d.written = append(d.written, append([]byte(nil), p...))
	return len(p), nil
}

func (d *fakeDevice) Close() error {
	d.log.add("device.close")
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closes++
	return d.closeErr
}

func (d *fakeDevice) writes() [][]byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([][]byte(nil), d.written...)
}

func (d *fakeDevice) closeCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closes
}

type datagram struct {
	data   []byte
	source net.Addr
	err    error
}

type sentDatagram struct {
	data        []byte
	destination net.Addr
}

// fakeSocket serves queued datagrams and records sends.
type fakeSocket struct {
	mu       sync.Mutex
	log      *eventLog
	incoming []datagram
	sent     []sentDatagram
	sendErr  error
	closeErr error
	closes   int
}

func (s *fakeSocket) ReadFrom(p []byte) (int, net.Addr, error) {
	s.log.add("socket.readfrom")
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closes > 0 {
		return 0, nil, net.ErrClosed
	}
	if len(s.incoming) == 0 {
		return 0, nil, os.ErrDeadlineExceeded
	}
	next := s.incoming[0]
	s.incoming = s.incoming[1:]
	if next.err != nil {
		return 0, nil, next.err
	}
	return copy(p, next.data), next.source, nil
}

func (s *fakeSocket) WriteTo(p []byte, destination net.Addr) (int, error) {
	s.log.add("socket.writeto")
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closes > 0 {
		return 0, net.ErrClosed
	}
	if s.sendErr != nil {
		return 0, s.sendErr
	}
	s.sent = append(s.sent, sentDatagram{data: append([]byte(nil), p...), destination: destination})
	return len(p), nil
}

func (s *fakeSocket) Close() error {
	s.log.add("socket.close")
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closes++
	return s.closeErr
}

func (s *fakeSocket) sends() []sentDatagram {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sentDatagram(nil), s.sent...)
}

func (s *fakeSocket) closeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closes
}

type pollStep struct {
	before func()
	ready  Ready
	err    error
}

// scriptedPoller returns one step per Wait call. When the script runs
// out it calls idle (typically a context cancel) and reports a timeout.
type scriptedPoller struct {
	mu       sync.Mutex
	steps    []pollStep
	timeouts []time.Duration
	idle     func()
}

func (p *scriptedPoller) Wait(timeout time.Duration) (Ready, error) {
	p.mu.Lock()
	p.timeouts = append(p.timeouts, timeout)
	if len(p.steps) == 0 {
		idle := p.idle
		p.mu.Unlock()
		if idle != nil {
			idle()
		}
		return 0, nil
	}
	step := p.steps[0]
	p.steps = p.steps[1:]
	p.mu.Unlock()

	if step.before != nil {
		step.before()
	}
	return step.ready, step.err
}

func (p *scriptedPoller) waits() []time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]time.Duration(nil), p.timeouts...)
}

// runScript runs the relay against poller until the script is exhausted
// (or Run returns on its own) and returns Run's result.
func runScript(t *testing.T, relay *Relay, poller *scriptedPoller) error {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if poller.idle == nil {
		poller.idle = cancel
	}
	relay.Poller = poller

	done := make(chan error, 1)
	go func() { done <- relay.Run(ctx) }()
	return testutil.RequireReceive(t, done, 5*time.Second, "relay did not stop")
}
