// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process holds the one raw-output path a relay binary needs
// before its structured logger exists: reporting a fatal startup error
// (unreadable config, device that will not open, address that will not
// bind) on stderr and exiting non-zero.
package process
