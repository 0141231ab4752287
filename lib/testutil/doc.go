// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers.
//
// [RequireReceive] wraps the select-with-timeout pattern tests use when
// waiting on a goroutine, such as a relay loop returning. It fails the
// test with t.Fatalf instead of returning an error.
package testutil
