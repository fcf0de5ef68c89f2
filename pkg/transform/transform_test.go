// Copyright (c) 2026 The fieldbridge authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package transform

import (
	"testing"

	"github.com/fieldbridge/driver/pkg/telem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frameWithFloats(channel uint32, values []float64) *telem.Frame {
	s := telem.NewSeries(telem.Float64, len(values))
	for _, v := range values {
		_ = s.AppendFloat64(v)
	}
	f, _ := telem.NewFrame([]uint32{channel}, []*telem.Series{s})
	return f
}

func seriesValues(f *telem.Frame, channel uint32) []float64 {
	s := f.Get(channel)
	out := make([]float64, s.Len())
	for i := range out {
		out[i], _ = s.Float64At(i)
	}
	return out
}

func TestTareScenarioS5(t *testing.T) {
	tare := NewTare([]uint32{42})
	tare.Set([]uint32{42})

	frame1 := frameWithFloats(42, []float64{1.0, 3.0, 5.0})
	require.NoError(t, tare.Transform(frame1))
	assert.Equal(t, []float64{-2.0, 0.0, 2.0}, seriesValues(frame1, 42))

	frame2 := frameWithFloats(42, []float64{4.0, 5.0, 6.0})
	require.NoError(t, tare.Transform(frame2))
	assert.Equal(t, []float64{1.0, 2.0, 3.0}, seriesValues(frame2, 42))
}

func TestTareSetTwiceIsIdempotent(t *testing.T) {
	tare := NewTare([]uint32{1})
	tare.Set([]uint32{1})
	tare.Set([]uint32{1}) // pending state overrides pending state

	frame := frameWithFloats(1, []float64{10, 20})
	require.NoError(t, tare.Transform(frame))
	// one capture (single pending flag, not stacked): the average 15 is
	// captured from this frame and subtracted from it
	assert.Equal(t, []float64{-5, 5}, seriesValues(frame, 1))
}

func TestLinearScale(t *testing.T) {
	frame := frameWithFloats(1, []float64{0, 1, 2})
	xf := LinearScale{Channel: 1, Slope: 2, Offset: 1}
	require.NoError(t, xf.Transform(frame))
	assert.Equal(t, []float64{1, 3, 5}, seriesValues(frame, 1))
}

func TestMapScale(t *testing.T) {
	frame := frameWithFloats(1, []float64{0, 5, 10})
	xf := MapScale{Channel: 1, PreMin: 0, PreMax: 10, ScaledMin: 0, ScaledMax: 100}
	require.NoError(t, xf.Transform(frame))
	assert.Equal(t, []float64{0, 50, 100}, seriesValues(frame, 1))
}

func TestClamp(t *testing.T) {
	frame := frameWithFloats(1, []float64{-5, 0, 5, 15})
	xf := Clamp{Channel: 1, Min: 0, Max: 10}
	require.NoError(t, xf.Transform(frame))
	assert.Equal(t, []float64{0, 0, 5, 10}, seriesValues(frame, 1))
}

func TestChainAppliesInOrder(t *testing.T) {
	frame := frameWithFloats(1, []float64{1, 2, 3})
	chain := NewChain(
		LinearScale{Channel: 1, Slope: 2, Offset: 0},
		Clamp{Channel: 1, Min: 0, Max: 5},
	)
	require.NoError(t, chain.Transform(frame))
	assert.Equal(t, []float64{2, 4, 5}, seriesValues(frame, 1))
}
