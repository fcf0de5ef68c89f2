// Copyright (c) 2026 The fieldbridge authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package breaker implements the driver's retry circuit: a scaled-interval
// backoff with an optional max-retry cutoff, used as the shared cancellation
// and retry token threaded through every blocking loop in the driver
// (pipelines, the task manager, the rack heartbeat).
//
// The scaling itself is delegated to github.com/jpillora/backoff, which
// already implements "interval *= scale, clamped to a ceiling" — exactly
// the policy spec.md prescribes — rather than hand-rolling it again.
package breaker

import (
	"math"
	"sync"
	"time"

	"github.com/jpillora/backoff"
)

// Infinite designates a Breaker that never stops retrying.
const Infinite = ^uint32(0)

// Config configures a Breaker's retry policy.
type Config struct {
	// Name identifies the breaker; Breaker itself does not read it.
	Name string
	// BaseInterval is the first, and minimum, wait interval.
	BaseInterval time.Duration
	// MaxRetries caps the number of scaled waits; use Infinite for
	// long-running pipelines that should retry forever.
	MaxRetries uint32
	// Scale multiplies the interval after each wait. A Scale of 1 (or 0,
	// normalized to 1) disables growth, retrying at BaseInterval forever.
	Scale float64
	// MaxInterval caps the scaled interval; zero means no cap.
	MaxInterval time.Duration
}

// Breaker is a stateful retry controller: each Wait call sleeps for the
// current interval (or returns early if stopped), then scales the interval
// up for next time and increments the retry counter.
type Breaker struct {
	cfg Config
	bo  *backoff.Backoff

	mu      sync.Mutex
	retries uint32
	stopCh  chan struct{}
	stopped bool
}

// New constructs a Breaker from cfg.
func New(cfg Config) *Breaker {
	scale := cfg.Scale
	if scale <= 0 {
		scale = 1
	}
	maxInterval := cfg.MaxInterval
	if maxInterval <= 0 {
		maxInterval = time.Duration(math.MaxInt64)
	}
	return &Breaker{
		cfg: cfg,
		bo: &backoff.Backoff{
			Min:    cfg.BaseInterval,
			Max:    maxInterval,
			Factor: scale,
		},
		stopCh: make(chan struct{}),
	}
}

// Wait sleeps for the current interval, then scales up and increments the
// retry count. It returns false without sleeping once MaxRetries has been
// reached, or immediately if Stop has been called (cancellation). Breaker
// itself does no logging; a caller wrapping Wait decides how to report each
// retry.
func (b *Breaker) Wait() bool {
	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		return false
	}
	if b.cfg.MaxRetries != Infinite && b.retries >= b.cfg.MaxRetries {
		b.mu.Unlock()
		return false
	}
	interval := b.bo.Duration()
	b.retries++
	stopCh := b.stopCh
	b.mu.Unlock()

	if interval <= 0 {
		return true
	}

	t := time.NewTimer(interval)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-stopCh:
		return false
	}
}

// Reset restores the Breaker to its base interval and zero retries,
// called by callers on a successful operation after prior retries.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bo.Reset()
	b.retries = 0
}

// Retries returns the number of Wait calls since the last Reset.
func (b *Breaker) Retries() uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.retries
}

// Stop cancels any in-flight or future Wait, making it return false
// immediately. Used to unwind a pipeline thread on task stop.
func (b *Breaker) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.stopped {
		b.stopped = true
		close(b.stopCh)
	}
}

// Stopped reports whether Stop has been called.
func (b *Breaker) Stopped() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stopped
}
