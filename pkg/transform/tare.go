// Copyright (c) 2026 The fieldbridge authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package transform

import (
	"sync"

	"github.com/fieldbridge/driver/pkg/telem"
)

// Tare zeroes a set of channels (or every channel in the frame, if none
// configured) by subtracting a per-channel average captured on demand.
// Calling Set schedules the *next* Transform call to capture fresh
// averages from the frame it receives and subtract them from that same
// frame; every call after that subtracts those captured averages until Set
// is called again. Safe for concurrent use: a
// command thread may call Set while the acquisition thread is mid-Transform.
type Tare struct {
	mu       sync.Mutex
	channels map[uint32]bool // nil means "all channels"
	pending  bool
	averages map[uint32]float64
}

// NewTare constructs a Tare transform scoped to the given channel keys. An
// empty/nil set means every channel in each frame is eligible.
func NewTare(channels []uint32) *Tare {
	t := &Tare{averages: map[uint32]float64{}}
	if len(channels) > 0 {
		t.channels = make(map[uint32]bool, len(channels))
		for _, c := range channels {
			t.channels[c] = true
		}
	}
	return t
}

// Set schedules the next Transform call to capture new per-channel
// averages rather than subtract the existing ones. Calling Set twice in a
// row (before an intervening Transform) is idempotent: the second call's
// pending state simply overrides the first's, per spec.md's "pending state
// overrides pending state" invariant.
func (t *Tare) Set(channels []uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending = true
	if len(channels) > 0 {
		t.channels = make(map[uint32]bool, len(channels))
		for _, c := range channels {
			t.channels[c] = true
		}
	} else {
		t.channels = nil
	}
}

func (t *Tare) eligible(channel uint32) bool {
	return t.channels == nil || t.channels[channel]
}

func (t *Tare) Transform(frame *telem.Frame) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.pending {
		t.captureAverages(frame)
		t.pending = false
	}

	for i, key := range frame.Channels {
		if !t.eligible(key) {
			continue
		}
		avg, ok := t.averages[key]
		if !ok {
			continue
		}
		series := frame.Series[i]
		for j := 0; j < series.Len(); j++ {
			v, err := series.Float64At(j)
			if err != nil {
				continue
			}
			_ = series.SetFloat64At(j, v-avg)
		}
	}
	return nil
}

func (t *Tare) captureAverages(frame *telem.Frame) {
	for i, key := range frame.Channels {
		if !t.eligible(key) {
			continue
		}
		series := frame.Series[i]
		n := series.Len()
		if n == 0 {
			continue
		}
		sum := 0.0
		valid := 0
		for j := 0; j < n; j++ {
			v, err := series.Float64At(j)
			if err != nil {
				continue
			}
			sum += v
			valid++
		}
		if valid > 0 {
			t.averages[key] = sum / float64(valid)
		}
	}
}
