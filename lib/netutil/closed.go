// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"errors"
	"io"
	"net"
	"os"
	"syscall"
)

// IsExpectedCloseError reports whether err is a normal termination of an
// endpoint: EOF, a closed net connection or file, a descriptor that was
// closed underneath the caller (EBADF), broken pipe, or connection reset.
//
// Datagram sockets never produce EOF, but the device side can, and a
// socketpair standing in for the device produces EPIPE and ECONNRESET when
// the far end goes away.
func IsExpectedCloseError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.Is(err, os.ErrClosed) {
		return true
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.EBADF || errno == syscall.EPIPE || errno == syscall.ECONNRESET
	}
	return false
}
