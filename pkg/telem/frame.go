// Copyright (c) 2026 The fieldbridge authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package telem

import "fmt"

// Frame carries one Series per channel key. channels and series are kept as
// parallel slices (rather than a map) so a Source can pre-size both once
// and mutate series in place on every read without touching channel order
// or re-hashing.
type Frame struct {
	Channels []uint32
	Series   []*Series
}

// NewFrame validates the invariant |channels| == |series| and returns a
// Frame.
func NewFrame(channels []uint32, series []*Series) (*Frame, error) {
	if len(channels) != len(series) {
		return nil, fmt.Errorf("telem: frame channel/series length mismatch: %d channels, %d series", len(channels), len(series))
	}
	return &Frame{Channels: channels, Series: series}, nil
}

// Get returns the Series for the given channel key, or nil if absent.
func (f *Frame) Get(channel uint32) *Series {
	for i, c := range f.Channels {
		if c == channel {
			return f.Series[i]
		}
	}
	return nil
}

// Clear clears every series in the frame in place, preserving capacity.
func (f *Frame) Clear() {
	for _, s := range f.Series {
		s.Clear()
	}
}

// Len returns the length of the frame's longest series, or 0 for an empty
// frame.
func (f *Frame) Len() int {
	max := 0
	for _, s := range f.Series {
		if n := s.Len(); n > max {
			max = n
		}
	}
	return max
}

// NewFrameForChannels allocates a Frame with one empty Series per channel,
// sized to capacity, plus one additional slot per distinct index channel
// referenced by those channels that isn't already present — the invariant
// spec.md requires for read tasks ("a read task always initializes the
// frame with one slot per configured channel plus one slot per index
// channel referenced by those channels").
func NewFrameForChannels(channels []Channel, byKey map[uint32]Channel, capacity int) *Frame {
	seen := make(map[uint32]bool, len(channels))
	var keys []uint32
	var series []*Series

	add := func(ch Channel) {
		if seen[ch.Key] {
			return
		}
		seen[ch.Key] = true
		keys = append(keys, ch.Key)
		series = append(series, NewSeries(ch.DataType, capacity))
	}

	for _, ch := range channels {
		add(ch)
		if ch.RequiresIndex() {
			if idx, ok := byKey[ch.Index]; ok {
				add(idx)
			}
		}
	}

	return &Frame{Channels: keys, Series: series}
}
