// Copyright (c) 2026 The fieldbridge authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package transform

import (
	"fmt"

	"github.com/fieldbridge/driver/pkg/telem"
)

// LinearScale rewrites a channel's series in place as series*Slope+Offset.
type LinearScale struct {
	Channel     uint32
	Slope, Offset float64
}

func (l LinearScale) Transform(frame *telem.Frame) error {
	series := frame.Get(l.Channel)
	if series == nil {
		return nil
	}
	if err := validateNumeric(series); err != nil {
		return fmt.Errorf("transform: linear scale channel %d: %w", l.Channel, err)
	}
	for i := 0; i < series.Len(); i++ {
		v, _ := series.Float64At(i)
		_ = series.SetFloat64At(i, v*l.Slope+l.Offset)
	}
	return nil
}

// MapScale rewrites a channel's series in place, remapping
// [PreMin,PreMax] to [ScaledMin,ScaledMax].
type MapScale struct {
	Channel              uint32
	PreMin, PreMax       float64
	ScaledMin, ScaledMax float64
}

func (m MapScale) Transform(frame *telem.Frame) error {
	series := frame.Get(m.Channel)
	if series == nil {
		return nil
	}
	if err := validateNumeric(series); err != nil {
		return fmt.Errorf("transform: map scale channel %d: %w", m.Channel, err)
	}
	span := m.PreMax - m.PreMin
	if span == 0 {
		return fmt.Errorf("transform: map scale channel %d: pre_min == pre_max", m.Channel)
	}
	for i := 0; i < series.Len(); i++ {
		v, _ := series.Float64At(i)
		scaled := (v-m.PreMin)/span*(m.ScaledMax-m.ScaledMin) + m.ScaledMin
		_ = series.SetFloat64At(i, scaled)
	}
	return nil
}

// Clamp restricts a channel's series to [Min,Max] in place.
type Clamp struct {
	Channel  uint32
	Min, Max float64
}

func (c Clamp) Transform(frame *telem.Frame) error {
	series := frame.Get(c.Channel)
	if series == nil {
		return nil
	}
	if err := validateNumeric(series); err != nil {
		return fmt.Errorf("transform: clamp channel %d: %w", c.Channel, err)
	}
	for i := 0; i < series.Len(); i++ {
		v, _ := series.Float64At(i)
		switch {
		case v < c.Min:
			v = c.Min
		case v > c.Max:
			v = c.Max
		}
		_ = series.SetFloat64At(i, v)
	}
	return nil
}

func validateNumeric(s *telem.Series) error {
	if s.DataType != telem.Float32 && s.DataType != telem.Float64 {
		return fmt.Errorf("unsupported data type %s, expected a float series", s.DataType)
	}
	return nil
}
