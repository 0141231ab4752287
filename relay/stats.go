// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"log/slog"
	"sync/atomic"
)

// Stats is a snapshot of the relay's counters.
type Stats struct {
	// FramesFromDevice and BytesFromDevice count frames read from the
	// device and successfully sent to the peer.
	FramesFromDevice uint64
	BytesFromDevice  uint64

	// EmptyDeviceReads counts readiness events that yielded no bytes.
	EmptyDeviceReads uint64

	// DatagramsFromPeer and BytesFromPeer count everything received on
	// the socket, before any filtering.
	DatagramsFromPeer uint64
	BytesFromPeer     uint64

	// FramesToDevice and BytesToDevice count trailer-stripped frames
	// written to the device.
	FramesToDevice uint64
	BytesToDevice  uint64

	// ShortDatagrams counts datagrams too short to carry the trailer.
	// They are discarded.
	ShortDatagrams uint64

	// UnexpectedSenders counts datagrams whose source is not the
	// configured peer. RejectedDatagrams is the subset dropped because
	// StrictPeer is set.
	UnexpectedSenders uint64
	RejectedDatagrams uint64

	SendErrors        uint64
	DeviceWriteErrors uint64
	ReadErrors        uint64
}

// LogValue groups the counters under one log attribute.
func (s Stats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("frames_from_device", s.FramesFromDevice),
		slog.Uint64("bytes_from_device", s.BytesFromDevice),
		slog.Uint64("empty_device_reads", s.EmptyDeviceReads),
		slog.Uint64("datagrams_from_peer", s.DatagramsFromPeer),
		slog.Uint64("bytes_from_peer", s.BytesFromPeer),
		slog.Uint64("frames_to_device", s.FramesToDevice),
		slog.Uint64("bytes_to_device", s.BytesToDevice),
		slog.Uint64("short_datagrams", s.ShortDatagrams),
		slog.Uint64("unexpected_senders", s.UnexpectedSenders),
		slog.Uint64("rejected_datagrams", s.RejectedDatagrams),
		slog.Uint64("send_errors", s.SendErrors),
		slog.Uint64("device_write_errors", s.DeviceWriteErrors),
		slog.Uint64("read_errors", s.ReadErrors),
	)
}

// counters is the live, concurrently readable form of Stats.
type counters struct {
	framesFromDevice  atomic.Uint64
	bytesFromDevice   atomic.Uint64
	emptyDeviceReads  atomic.Uint64
	datagramsFromPeer atomic.Uint64
	bytesFromPeer     atomic.Uint64
	framesToDevice    atomic.Uint64
	bytesToDevice     atomic.Uint64
	shortDatagrams    atomic.Uint64
	unexpectedSenders atomic.Uint64
	rejectedDatagrams atomic.Uint64
	sendErrors        atomic.Uint64
	deviceWriteErrors atomic.Uint64
	readErrors        atomic.Uint64
}

func (c *counters) snapshot() Stats {
	return Stats{
		FramesFromDevice:  c.framesFromDevice.Load(),
		BytesFromDevice:   c.bytesFromDevice.Load(),
		EmptyDeviceReads:  c.emptyDeviceReads.Load(),
		DatagramsFromPeer: c.datagramsFromPeer.Load(),
		BytesFromPeer:     c.bytesFromPeer.Load(),
		FramesToDevice:    c.framesToDevice.Load(),
		BytesToDevice:     c.bytesToDevice.Load(),
		ShortDatagrams:    c.shortDatagrams.Load(),
		UnexpectedSenders: c.unexpectedSenders.Load(),
		RejectedDatagrams: c.rejectedDatagrams.Load(),
		SendErrors:        c.sendErrors.Load(),
		DeviceWriteErrors: c.deviceWriteErrors.Load(),
		ReadErrors:        c.readErrors.Load(),
	}
}
