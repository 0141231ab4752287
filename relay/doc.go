// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package relay moves link-layer frames between a local virtual network
// interface and a single remote peer over UDP.
//
// Two machines each running a [Relay] appear to share one 802.15.4
// radio link: frames the local stack transmits on the wpantap device are
// sent to the peer as-is, and datagrams from the peer are written to the
// device after their 2-byte FCS trailer is removed (frames read from the
// device carry no FCS, frames written to it must not either).
//
// The loop is single-goroutine. Each iteration waits on both endpoints at
// once through a [Poller] with a bounded timeout, then services whichever
// became readable: the device first, then the socket. The timeout is
// what lets the loop notice a cancelled context (the signal path) or a
// concurrent [Relay.Close] within one wait interval, even when no
// traffic arrives. [FDPoller] implements the wait with poll(2).
//
// Operational failures (a send the network refuses, a device write the
// driver rejects) are logged, counted in [Stats], and skipped; UDP is
// best effort and there is no retry. Only a wait that can never succeed
// again ends Run with an error.
//
// [Relay.Close] releases both endpoints exactly once no matter how many
// times, or from how many goroutines, it is called.
package relay
