// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil classifies I/O errors produced while tearing down the
// relay's endpoints.
//
// The relay closes its UDP socket and device handle from the shutdown
// path, possibly while the loop is parked in poll(2) or has just been
// told a descriptor is readable. The read that follows then fails with
// one of a small set of errors that mean "the handle is gone", not "the
// network is broken". [IsExpectedCloseError] recognizes them so callers
// can end quietly instead of logging a spurious failure.
package netutil
