// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// wpan-relay tunnels IEEE 802.15.4 frames between a local wpantap device
// and one remote relay over UDP.
//
// Frames read from the device are sent to the peer unchanged. Datagrams
// from the peer lose their two-byte FCS trailer before being written to
// the device. Two relays pointed at each other join two radio-less
// 802.15.4 stacks into one network.
//
// The relay reads its addresses from a JSONC or YAML file named by
// --config or WPAN_RELAY_CONFIG:
//
//	{
//	  "me":   {"ip": "10.0.2.5", "port": 12001},
//	  "peer": {"ip": "10.0.2.6", "port": 12001}
//	}
//
// SIGINT or SIGTERM stops the relay, closes both endpoints, and exits 0.
// Startup failures (missing config, device, or bind address) exit 1.
package main
