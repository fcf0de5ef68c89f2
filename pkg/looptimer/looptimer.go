// Copyright (c) 2026 The fieldbridge authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package looptimer implements a high-resolution periodic waiter used to
// drive software-timed sample clocks at a fixed rate without the jitter of a plain time.Sleep at sub-millisecond periods.
package looptimer

import (
	"math"
	"time"

	"github.com/fieldbridge/driver/pkg/breaker"
)

const (
	highRateThreshold   = 5 * time.Millisecond
	mediumRateThreshold = 50 * time.Millisecond
	sleepChunk          = 100 * time.Microsecond
)

// Timer waits out a fixed period each call to Wait, choosing a strategy
// based on how short that period is: a Welford-calibrated busy-sleep hybrid
// for sub-5ms periods, a plain sleep for sub-50ms periods, and a
// breaker-aware (cancellable) wait otherwise.
type Timer struct {
	period time.Duration
	last   time.Time

	welford welford
}

// FromRate constructs a Timer that fires at the given rate in Hz.
func FromRate(hz float64) *Timer {
	return FromPeriod(time.Duration(float64(time.Second) / hz))
}

// FromPeriod constructs a Timer with an explicit period.
func FromPeriod(period time.Duration) *Timer {
	return &Timer{period: period, last: time.Now()}
}

// Wait blocks until period has elapsed since the previous Wait call (or
// since construction, for the first call), returning how long it actually
// took and whether it slept at all. It returns immediately, without
// sleeping, if the period has already elapsed. b is consulted only on the
// breaker-aware strategy, making long waits cancellable.
func (t *Timer) Wait(b *breaker.Breaker) (elapsed time.Duration, didSleep bool) {
	now := time.Now()
	if t.last.IsZero() {
		t.last = now
	}
	target := t.last.Add(t.period)
	remaining := target.Sub(now)

	if remaining <= 0 {
		elapsed = now.Sub(t.last)
		t.last = now
		return elapsed, false
	}

	switch {
	case t.period < highRateThreshold:
		t.preciseSleep(remaining)
	case t.period < mediumRateThreshold:
		time.Sleep(remaining)
	default:
		t.breakerWait(remaining, b)
	}

	end := time.Now()
	elapsed = end.Sub(t.last)
	t.last = end
	return elapsed, true
}

// preciseSleep sleeps in small fixed chunks while the remaining time
// comfortably exceeds the observed sleep overhead, then busy-waits for the
// last sliver. The per-chunk overhead estimate is refined online via
// Welford's algorithm (mean + one stddev) so the busy-wait tail shrinks as
// the process learns the host's actual scheduler granularity.
func (t *Timer) preciseSleep(remaining time.Duration) {
	deadline := time.Now().Add(remaining)

	for {
		now := time.Now()
		left := deadline.Sub(now)
		if left <= t.welford.estimate() {
			break
		}

		chunkStart := time.Now()
		time.Sleep(sleepChunk)
		t.welford.observe(time.Since(chunkStart))
	}

	for time.Now().Before(deadline) {
		// busy-wait the remainder
	}
}

func (t *Timer) breakerWait(remaining time.Duration, b *breaker.Breaker) {
	timer := time.NewTimer(remaining)
	defer timer.Stop()
	if b == nil {
		<-timer.C
		return
	}
	stopped := make(chan struct{})
	go func() {
		<-timer.C
		close(stopped)
	}()
	for {
		select {
		case <-stopped:
			return
		default:
		}
		if b.Stopped() {
			return
		}
		select {
		case <-stopped:
			return
		case <-time.After(time.Millisecond):
		}
	}
}

// welford tracks a running mean and variance of observed sleep durations
// (Welford's online algorithm), used to estimate how long a single
// sleepChunk call actually takes on this host so preciseSleep can stop
// sleeping before it would overshoot the deadline.
type welford struct {
	n     int
	mean  time.Duration
	m2    float64
	count int
}

func (w *welford) observe(d time.Duration) {
	w.n++
	delta := float64(d - w.mean)
	w.mean += time.Duration(delta / float64(w.n))
	delta2 := float64(d - w.mean)
	w.m2 += delta * delta2
}

func (w *welford) estimate() time.Duration {
	if w.n == 0 {
		return sleepChunk
	}
	variance := 0.0
	if w.n > 1 {
		variance = w.m2 / float64(w.n-1)
	}
	return w.mean + time.Duration(math.Sqrt(variance))
}
