// Copyright (c) 2026 The fieldbridge authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package clock produces per-read (start, end) timestamp pairs for
// acquisition cycles. Two implementations exist: SoftwareTimed, for devices
// with no steady hardware clock, and HardwareTimed, which interpolates
// sample timestamps from a known sample rate and PID-corrects the
// interpolation against wall-clock drift without ever regressing a
// timestamp.
package clock

import (
	"time"

	"github.com/fieldbridge/driver/pkg/breaker"
	"github.com/fieldbridge/driver/pkg/looptimer"
)

// TimeStamp is nanoseconds since the Unix epoch, the driver's single
// timestamp representation (mirrors the cluster wire format).
type TimeStamp int64

// Now returns the current wall-clock time as a TimeStamp.
func Now() TimeStamp { return TimeStamp(time.Now().UnixNano()) }

func (t TimeStamp) Time() time.Time { return time.Unix(0, int64(t)) }
func (t TimeStamp) Add(d time.Duration) TimeStamp {
	return t + TimeStamp(d)
}
func (t TimeStamp) Sub(o TimeStamp) time.Duration {
	return time.Duration(t - o)
}

// Clock is the contract shared by SoftwareTimed and HardwareTimed.
type Clock interface {
	Reset()
	// Wait blocks (or returns the already-decided start immediately, for
	// HardwareTimed) until the next cycle may begin, returning its start
	// timestamp.
	Wait(b *breaker.Breaker) TimeStamp
	// End finalizes the cycle and returns its end timestamp. For
	// HardwareTimed this is also the next cycle's start; SoftwareTimed
	// takes each cycle's start from the wall clock in Wait.
	End() TimeStamp
}

// SoftwareTimed clocks a stream by sleeping to the stream's period; both
// endpoints are the observed wall-clock time around the sleep, since the
// hardware gives no steadier guarantee than that.
type SoftwareTimed struct {
	timer      *looptimer.Timer
	cycleStart TimeStamp
}

// NewSoftwareTimed constructs a SoftwareTimed clock for the given stream
// rate.
func NewSoftwareTimed(streamRate float64) *SoftwareTimed {
	return &SoftwareTimed{timer: looptimer.FromRate(streamRate)}
}

func (c *SoftwareTimed) Reset() {}

func (c *SoftwareTimed) Wait(b *breaker.Breaker) TimeStamp {
	c.cycleStart = Now()
	c.timer.Wait(b)
	return c.cycleStart
}

func (c *SoftwareTimed) End() TimeStamp {
	return Now()
}
