// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source.
//
// The relay loop reports its counters on a fixed interval. It takes the
// interval ticker from a [Clock] rather than from the time package so
// tests can drive reports deterministically:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	r := &relay.Relay{Clock: c, StatsInterval: time.Minute, ...}
//	go r.Run(ctx)
//	c.WaitForTickers(1)
//	c.Advance(time.Minute) // next loop iteration logs the stats
//
// Production code uses [Real].
package clock
