// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package endpoint opens the two ends of a relay: the local virtual
// network device and the UDP socket that talks to the peer.
//
// Both types close their handle at most once and expose the raw file
// descriptor so the relay can wait on them with poll(2). They satisfy
// the relay.Device and relay.Socket interfaces.
//
// The device is normally the wpantap character device, which carries
// 802.15.4 frames without their FCS. For testing the tunnel on hosts
// without that module, a Linux TAP interface can be created instead.
package endpoint
