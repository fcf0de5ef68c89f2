// Copyright (c) 2026 The fieldbridge authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package clock

import (
	"time"

	"github.com/fieldbridge/driver/pkg/breaker"
)

// PIDConfig tunes HardwareTimed's drift correction. Zero gains disable
// correction entirely (useful on drift-free buses where the hardware clock
// is trusted as-is).
type PIDConfig struct {
	Kp, Ki, Kd float64
	// MaxIntegral clamps the accumulated integral term to prevent windup.
	MaxIntegral float64
	// MaxBackCorrectionFactor bounds how far a single cycle may pull end()
	// backward, as a fraction of StreamPeriod. Defaults to 0.1 (10%) when
	// zero/unset via DefaultPIDConfig.
	MaxBackCorrectionFactor float64
}

// DefaultPIDConfig returns gains disabled (correction off); callers tune
// Kp/Ki/Kd explicitly per device.
func DefaultPIDConfig() PIDConfig {
	return PIDConfig{MaxBackCorrectionFactor: 0.1}
}

// HardwareTimed interpolates sample timestamps for a device that guarantees
// fixed sample spacing but has no wall-clock-synced timestamp of its own.
// Each End() call nudges the interpolated clock toward wall time with a PID
// controller, clamped so a correction can never pull a timestamp before the
// previous cycle's end — the invariant that keeps the stream strictly
// non-decreasing even under aggressive correction.
type HardwareTimed struct {
	streamPeriod time.Duration
	pid          PIDConfig

	started            bool
	currStartSampleNs  TimeStamp
	prevSystemEnd      TimeStamp
	integral           float64
	prevError          float64
}

// NewHardwareTimed constructs a HardwareTimed clock for a device streaming
// at streamPeriod intervals, correcting drift per pid.
func NewHardwareTimed(streamPeriod time.Duration, pid PIDConfig) *HardwareTimed {
	return &HardwareTimed{streamPeriod: streamPeriod, pid: pid}
}

func (c *HardwareTimed) Reset() {
	c.started = false
	c.integral = 0
	c.prevError = 0
}

// Wait returns the interpolated start of the cycle immediately; hardware
// timing means there is nothing to sleep for here, only to account.
func (c *HardwareTimed) Wait(b *breaker.Breaker) TimeStamp {
	if !c.started {
		now := Now()
		c.currStartSampleNs = now
		c.prevSystemEnd = now
		c.started = true
	}
	return c.currStartSampleNs
}

// End computes the expected end of the cycle from the stream period, then
// applies the PID correction described in spec.md §4.2, and returns the
// corrected end (which becomes the next cycle's start).
func (c *HardwareTimed) End() TimeStamp {
	expectedEnd := c.currStartSampleNs.Add(c.streamPeriod)
	now := Now()

	// error > 0 means the interpolated clock is ahead of wall time.
	errNs := float64(expectedEnd - now)
	dtSeconds := c.streamPeriod.Seconds()
	if dtSeconds <= 0 {
		dtSeconds = 1
	}

	p := c.pid.Kp * errNs

	c.integral += errNs * dtSeconds
	if c.pid.MaxIntegral > 0 {
		if c.integral > c.pid.MaxIntegral {
			c.integral = c.pid.MaxIntegral
		} else if c.integral < -c.pid.MaxIntegral {
			c.integral = -c.pid.MaxIntegral
		}
	}
	i := c.pid.Ki * c.integral

	d := c.pid.Kd * (errNs - c.prevError) / dtSeconds
	c.prevError = errNs

	correction := p + i + d

	maxBack := c.pid.MaxBackCorrectionFactor
	if maxBack <= 0 {
		maxBack = 0.1
	}
	maxBackCorrection := float64(c.streamPeriod) * maxBack
	if correction > maxBackCorrection {
		correction = maxBackCorrection
	}

	// correction is clamped to at most maxBack * streamPeriod and
	// expectedEnd is always prevSystemEnd + streamPeriod, so end can
	// never regress before prevSystemEnd.
	end := expectedEnd.Add(-time.Duration(correction))

	c.prevSystemEnd = end
	c.currStartSampleNs = end
	return end
}
