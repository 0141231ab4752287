// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bureau-foundation/wpanrelay/lib/clock"
	"github.com/bureau-foundation/wpanrelay/lib/netutil"
)

// Defaults applied to zero-valued Relay fields.
const (
	DefaultPollTimeout  = 500 * time.Millisecond
	DefaultMaxFrameSize = 1024

	// FCSSize is the length of the 802.15.4 frame check sequence that
	// datagrams from the peer carry and device frames do not.
	FCSSize = 2
)

// Device is the local virtual network interface.
type Device interface {
	io.Reader
	io.Writer
	io.Closer
}

// Socket is the datagram transport to the peer. *net.UDPConn satisfies it.
type Socket interface {
	ReadFrom(p []byte) (n int, addr net.Addr, err error)
	WriteTo(p []byte, addr net.Addr) (n int, err error)
	Close() error
}

// errStopped ends Run quietly when an endpoint read fails because Close
// released it.
var errStopped = errors.New("relay: endpoints closed")

// Relay owns one device and one socket and ferries frames between them.
// Configure the exported fields, call Run, and call Close when done.
type Relay struct {
	// Device is the local virtual interface. Required.
	Device Device

	// Socket is the UDP socket bound to the local address. Required.
	Socket Socket

	// Peer is the fixed destination of every frame read from the device.
	// Required.
	Peer net.Addr

	// Poller waits for either endpoint to become readable. If nil, Run
	// builds an FDPoller from the descriptors of Device and Socket.
	Poller Poller

	// Logger receives structured log output. If nil, slog.Default() is
	// used. Per-frame events are logged at Debug level; lifecycle at
	// Info; non-fatal I/O failures at Warn.
	Logger *slog.Logger

	// Clock drives the periodic stats report. If nil, clock.Real().
	Clock clock.Clock

	// PollTimeout bounds each readiness wait and therefore how long a
	// stop request can go unnoticed. Zero means DefaultPollTimeout.
	PollTimeout time.Duration

	// MaxFrameSize is the read buffer size for both endpoints. Longer
	// datagrams are truncated by the kernel. Zero means
	// DefaultMaxFrameSize.
	MaxFrameSize int

	// TrailerSize is the number of bytes removed from the end of each
	// datagram before it is written to the device. Zero means FCSSize.
	TrailerSize int

	// StatsInterval is how often counters are logged while running.
	// Zero disables the periodic report.
	StatsInterval time.Duration

	// StrictPeer drops datagrams whose source address is not Peer. When
	// false, any host that can reach the socket can inject frames.
	StrictPeer bool

	stats     counters
	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

func (r *Relay) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

func (r *Relay) clock() clock.Clock {
	if r.Clock != nil {
		return r.Clock
	}
	return clock.Real()
}

func (r *Relay) pollTimeout() time.Duration {
	if r.PollTimeout > 0 {
		return r.PollTimeout
	}
	return DefaultPollTimeout
}

func (r *Relay) maxFrameSize() int {
	if r.MaxFrameSize > 0 {
		return r.MaxFrameSize
	}
	return DefaultMaxFrameSize
}

func (r *Relay) trailerSize() int {
	if r.TrailerSize > 0 {
		return r.TrailerSize
	}
	return FCSSize
}

// Stats returns a snapshot of the counters. Safe to call while Run is
// executing.
func (r *Relay) Stats() Stats {
	return r.stats.snapshot()
}

// Run relays frames until ctx is cancelled or Close is called, then
// returns nil. It returns an error only when the relay is misconfigured
// or the readiness wait fails in a way that retrying cannot fix. Run does
// not close the endpoints; call Close afterwards.
func (r *Relay) Run(ctx context.Context) error {
	if r.Device == nil {
		return fmt.Errorf("relay: Device is required")
	}
	if r.Socket == nil {
		return fmt.Errorf("relay: Socket is required")
	}
	if r.Peer == nil {
		return fmt.Errorf("relay: Peer is required")
	}

	poller := r.Poller
	if poller == nil {
		var err error
		if poller, err = r.descriptorPoller(); err != nil {
			return err
		}
	}

	logger := r.logger()
	timeout := r.pollTimeout()
	deviceBuffer := make([]byte, r.maxFrameSize())
	socketBuffer := make([]byte, r.maxFrameSize())

	relayClock := r.clock()
	started := relayClock.Now()

	var statsTicks <-chan time.Time
	if r.StatsInterval > 0 {
		ticker := relayClock.NewTicker(r.StatsInterval)
		defer ticker.Stop()
		statsTicks = ticker.C
	}

	logger.Info("relay started",
		"peer", r.Peer,
		"poll_timeout", timeout,
		"max_frame_size", len(deviceBuffer),
		"trailer_size", r.trailerSize(),
		"strict_peer", r.StrictPeer,
	)
	defer func() {
		logger.Info("relay stopped",
			"uptime", relayClock.Now().Sub(started),
			"stats", r.Stats(),
		)
	}()

	for {
		if ctx.Err() != nil || r.closed.Load() {
			return nil
		}

		select {
		case <-statsTicks:
			logger.Info("relay stats", "stats", r.Stats())
		default:
		}

		ready, err := poller.Wait(timeout)
		if err != nil {
			if r.closed.Load() || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("relay: waiting for endpoints: %w", err)
		}

		// Device before socket. The two directions are independent; the
		// order only has to be fixed.
		if ready.Has(DeviceReady) {
			if err := r.forwardDeviceFrame(logger, deviceBuffer); errors.Is(err, errStopped) {
				return nil
			}
		}
		if ready.Has(SocketReady) {
			if err := r.forwardPeerDatagram(logger, socketBuffer); errors.Is(err, errStopped) {
				return nil
			}
		}
	}
}

func (r *Relay) descriptorPoller() (Poller, error) {
	deviceFD, err := FileDescriptor(r.Device)
	if err != nil {
		return nil, fmt.Errorf("relay: device: %w", err)
	}
	socketFD, err := FileDescriptor(r.Socket)
	if err != nil {
		return nil, fmt.Errorf("relay: socket: %w", err)
	}
	return NewFDPoller(deviceFD, socketFD), nil
}

// forwardDeviceFrame reads one frame from the device and sends it to the
// peer unmodified.
func (r *Relay) forwardDeviceFrame(logger *slog.Logger, buffer []byte) error {
	n, err := r.Device.Read(buffer)
	if err != nil && !errors.Is(err, io.EOF) {
		if r.stoppedBy(err) {
			return errStopped
		}
		r.stats.readErrors.Add(1)
		logger.Warn("device read failed", "error", err)
		return nil
	}
	if n == 0 {
		// The device does not signal end of stream while open; an empty
		// read just means there is nothing to relay this time.
		r.stats.emptyDeviceReads.Add(1)
		logger.Debug("empty read from device")
		return nil
	}

	frame := buffer[:n]
	logger.Debug("frame from device", "bytes", n)

	if _, err := r.Socket.WriteTo(frame, r.Peer); err != nil {
		if r.stoppedBy(err) {
			return errStopped
		}
		r.stats.sendErrors.Add(1)
		logger.Warn("send to peer failed", "peer", r.Peer, "bytes", n, "error", err)
		return nil
	}

	r.stats.framesFromDevice.Add(1)
	r.stats.bytesFromDevice.Add(uint64(n))
	return nil
}

// forwardPeerDatagram receives one datagram, strips its trailer, and
// writes the remainder to the device.
func (r *Relay) forwardPeerDatagram(logger *slog.Logger, buffer []byte) error {
	n, source, err := r.Socket.ReadFrom(buffer)
	if err != nil {
		if r.stoppedBy(err) {
			return errStopped
		}
		r.stats.readErrors.Add(1)
		logger.Warn("socket receive failed", "error", err)
		return nil
	}

	r.stats.datagramsFromPeer.Add(1)
	r.stats.bytesFromPeer.Add(uint64(n))
	logger.Debug("datagram from peer", "bytes", n, "source", source)

	if !sameAddress(source, r.Peer) {
		r.stats.unexpectedSenders.Add(1)
		if r.StrictPeer {
			r.stats.rejectedDatagrams.Add(1)
			logger.Debug("dropping datagram from unexpected sender", "source", source, "peer", r.Peer)
			return nil
		}
	}

	frame, ok := StripTrailer(buffer[:n], r.trailerSize())
	if !ok {
		r.stats.shortDatagrams.Add(1)
		logger.Debug("discarding datagram shorter than trailer", "bytes", n, "trailer_size", r.trailerSize())
		return nil
	}

	if _, err := r.Device.Write(frame); err != nil {
		if r.stoppedBy(err) {
			return errStopped
		}
		r.stats.deviceWriteErrors.Add(1)
		logger.Warn("device write failed", "bytes", len(frame), "error", err)
		return nil
	}

	r.stats.framesToDevice.Add(1)
	r.stats.bytesToDevice.Add(uint64(len(frame)))
	return nil
}

// stoppedBy reports whether err is the consequence of Close releasing the
// endpoints rather than a fault worth logging.
func (r *Relay) stoppedBy(err error) bool {
	return r.closed.Load() && netutil.IsExpectedCloseError(err)
}

// StripTrailer returns datagram without its last size bytes. It reports
// false, and returns nil, when the datagram is shorter than the trailer;
// such a datagram has no frame to deliver. A datagram of exactly size
// bytes yields an empty frame.
func StripTrailer(datagram []byte, size int) ([]byte, bool) {
	if size < 0 || len(datagram) < size {
		return nil, false
	}
	return datagram[:len(datagram)-size], true
}

func sameAddress(a, b net.Addr) bool {
	if a == nil || b == nil {
		return false
	}
	udpA, okA := a.(*net.UDPAddr)
	udpB, okB := b.(*net.UDPAddr)
	if okA && okB {
		return udpA.Port == udpB.Port && udpA.IP.Equal(udpB.IP)
	}
	return a.String() == b.String()
}

// Close releases the socket and then the device. Only the first call
// closes anything; every call returns the first call's result. Close may
// run concurrently with Run, which returns within one poll timeout.
func (r *Relay) Close() error {
	r.closeOnce.Do(func() {
		r.closed.Store(true)

		var errs []error
		if r.Socket != nil {
			if err := r.Socket.Close(); err != nil {
				errs = append(errs, fmt.Errorf("closing socket: %w", err))
			}
		}
		if r.Device != nil {
			if err := r.Device.Close(); err != nil {
				errs = append(errs, fmt.Errorf("closing device: %w", err))
			}
		}
		r.closeErr = errors.Join(errs...)
	})
	return r.closeErr
}
