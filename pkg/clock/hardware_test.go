// Copyright (c) 2026 The fieldbridge authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// zeroGainClock returns a HardwareTimed with correction fully disabled, so
// end(i) - start(i) must equal the stream period exactly (invariant #1).
func zeroGainClock(period time.Duration) *HardwareTimed {
	return NewHardwareTimed(period, PIDConfig{})
}

func TestNoDriftWithZeroGains(t *testing.T) {
	period := 500 * time.Millisecond // 2 Hz
	c := zeroGainClock(period)

	start1 := c.Wait(nil)
	end1 := c.End()
	assert.Equal(t, period, end1.Sub(start1))

	start2 := c.Wait(nil)
	assert.Equal(t, end1, start2)
	end2 := c.End()
	assert.Equal(t, period, end2.Sub(start2))
}

func TestEndNeverRegresses(t *testing.T) {
	c := NewHardwareTimed(10*time.Millisecond, PIDConfig{Kp: 5, Ki: 2, Kd: 1, MaxIntegral: 1e9, MaxBackCorrectionFactor: 0.1})

	c.Wait(nil)
	prev := c.End()
	for i := 0; i < 200; i++ {
		c.Wait(nil)
		next := c.End()
		assert.GreaterOrEqual(t, int64(next), int64(prev))
		prev = next
	}
}

func TestPIDConvergesSteadyState(t *testing.T) {
	// Simulate a clock whose expected_end is persistently ahead of wall
	// time (positive error every cycle) and check the PID narrows the
	// error over time rather than leaving it constant.
	c := NewHardwareTimed(time.Millisecond, PIDConfig{Kp: 0.3, Ki: 0.05, Kd: 0.01, MaxIntegral: 1e6, MaxBackCorrectionFactor: 0.5})
	c.Wait(nil)

	var early, late []float64
	for i := 0; i < 100; i++ {
		expected := c.currStartSampleNs.Add(c.streamPeriod)
		now := Now()
		errBefore := float64(expected - now)

		c.Wait(nil)
		c.End()

		if i < 20 {
			early = append(early, absF(errBefore))
		}
		if i >= 80 {
			late = append(late, absF(errBefore))
		}
	}

	assert.LessOrEqual(t, meanF(late), meanF(early)+1e6, "late error should not exceed early error by a wide margin")
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func meanF(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}
