// Copyright (c) 2026 The fieldbridge authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package telem defines the driver's wire-level data model: channels,
// typed sample series, and the frames that carry them between a hardware
// Source/Sink and the cluster.
package telem

import "fmt"

// DataType identifies the element type and width of a Series.
type DataType uint8

const (
	Float32 DataType = iota
	Float64
	Int32
	Int64
	Uint8
	Uint32
	Uint64
	TimestampType
	StringType
	JSONType
)

func (d DataType) String() string {
	switch d {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Uint8:
		return "uint8"
	case Uint32:
		return "uint32"
	case Uint64:
		return "uint64"
	case TimestampType:
		return "timestamp"
	case StringType:
		return "string"
	case JSONType:
		return "json"
	default:
		return "unknown"
	}
}

// Density returns the element width in bytes for fixed-width types, or 0
// for variable-width types (String, JSON).
func (d DataType) Density() int {
	switch d {
	case Float32, Int32, Uint32:
		return 4
	case Float64, Int64, Uint64, TimestampType:
		return 8
	case Uint8:
		return 1
	default:
		return 0
	}
}

// Channel describes one addressable signal within a task.
type Channel struct {
	Key       uint32
	Name      string
	DataType  DataType
	Index     uint32 // key of the index (timestamp) channel this samples against; 0 if none
	IsIndex   bool
	IsVirtual bool
}

// RequiresIndex reports whether ch must be accompanied by its index
// channel's timestamp series in any frame that carries it.
func (ch Channel) RequiresIndex() bool {
	return !ch.IsVirtual && ch.Index != 0
}

// Series is a contiguous, typed sample buffer plus a logical length (which
// may be less than the buffer's capacity, since Source implementations
// size buffers once and Clear+rewrite them on every read).
type Series struct {
	DataType DataType

	f32  []float32
	f64  []float64
	i32  []int32
	i64  []int64
	u8   []uint8
	u32  []uint32
	u64  []uint64
	ts   []int64
	str  []string
}

// NewSeries allocates a Series of the given type with the given capacity,
// length zero.
func NewSeries(dt DataType, capacity int) *Series {
	s := &Series{DataType: dt}
	switch dt {
	case Float32:
		s.f32 = make([]float32, 0, capacity)
	case Float64:
		s.f64 = make([]float64, 0, capacity)
	case Int32:
		s.i32 = make([]int32, 0, capacity)
	case Int64:
		s.i64 = make([]int64, 0, capacity)
	case Uint8:
		s.u8 = make([]uint8, 0, capacity)
	case Uint32:
		s.u32 = make([]uint32, 0, capacity)
	case Uint64:
		s.u64 = make([]uint64, 0, capacity)
	case TimestampType:
		s.ts = make([]int64, 0, capacity)
	case StringType, JSONType:
		s.str = make([]string, 0, capacity)
	}
	return s
}

// Len returns the number of valid samples currently held.
func (s *Series) Len() int {
	switch s.DataType {
	case Float32:
		return len(s.f32)
	case Float64:
		return len(s.f64)
	case Int32:
		return len(s.i32)
	case Int64:
		return len(s.i64)
	case Uint8:
		return len(s.u8)
	case Uint32:
		return len(s.u32)
	case Uint64:
		return len(s.u64)
	case TimestampType:
		return len(s.ts)
	default:
		return len(s.str)
	}
}

// Clear resets the logical length to zero without releasing capacity, so
// a Source can reuse the same Series across reads with no allocation.
func (s *Series) Clear() {
	switch s.DataType {
	case Float32:
		s.f32 = s.f32[:0]
	case Float64:
		s.f64 = s.f64[:0]
	case Int32:
		s.i32 = s.i32[:0]
	case Int64:
		s.i64 = s.i64[:0]
	case Uint8:
		s.u8 = s.u8[:0]
	case Uint32:
		s.u32 = s.u32[:0]
	case Uint64:
		s.u64 = s.u64[:0]
	case TimestampType:
		s.ts = s.ts[:0]
	default:
		s.str = s.str[:0]
	}
}

func (s *Series) AppendFloat64(v float64) error {
	switch s.DataType {
	case Float64:
		s.f64 = append(s.f64, v)
	case Float32:
		s.f32 = append(s.f32, float32(v))
	default:
		return fmt.Errorf("telem: cannot append float64 to %s series", s.DataType)
	}
	return nil
}

func (s *Series) Float64At(i int) (float64, error) {
	switch s.DataType {
	case Float64:
		return s.f64[i], nil
	case Float32:
		return float64(s.f32[i]), nil
	case Int32:
		return float64(s.i32[i]), nil
	case Int64:
		return float64(s.i64[i]), nil
	case Uint32:
		return float64(s.u32[i]), nil
	case Uint64:
		return float64(s.u64[i]), nil
	case Uint8:
		return float64(s.u8[i]), nil
	default:
		return 0, fmt.Errorf("telem: cannot read %s series as float64", s.DataType)
	}
}

func (s *Series) SetFloat64At(i int, v float64) error {
	switch s.DataType {
	case Float64:
		s.f64[i] = v
	case Float32:
		s.f32[i] = float32(v)
	default:
		return fmt.Errorf("telem: cannot set float64 on %s series", s.DataType)
	}
	return nil
}

func (s *Series) AppendInt64(v int64) error {
	switch s.DataType {
	case Int64:
		s.i64 = append(s.i64, v)
	case Int32:
		s.i32 = append(s.i32, int32(v))
	case Uint64:
		s.u64 = append(s.u64, uint64(v))
	case Uint32:
		s.u32 = append(s.u32, uint32(v))
	case TimestampType:
		s.ts = append(s.ts, v)
	default:
		return fmt.Errorf("telem: cannot append int64 to %s series", s.DataType)
	}
	return nil
}

func (s *Series) Int64At(i int) (int64, error) {
	switch s.DataType {
	case Int64:
		return s.i64[i], nil
	case Int32:
		return int64(s.i32[i]), nil
	case Uint64:
		return int64(s.u64[i]), nil
	case Uint32:
		return int64(s.u32[i]), nil
	case TimestampType:
		return s.ts[i], nil
	default:
		return 0, fmt.Errorf("telem: cannot read %s series as int64", s.DataType)
	}
}

func (s *Series) AppendString(v string) error {
	switch s.DataType {
	case StringType, JSONType:
		s.str = append(s.str, v)
	default:
		return fmt.Errorf("telem: cannot append string to %s series", s.DataType)
	}
	return nil
}

func (s *Series) StringAt(i int) (string, error) {
	switch s.DataType {
	case StringType, JSONType:
		return s.str[i], nil
	default:
		return "", fmt.Errorf("telem: cannot read %s series as string", s.DataType)
	}
}

// AppendUint8 appends a byte-width sample. Uint8 is kept as its own append
// path rather than folded into AppendInt64, since a bool/byte source
// (OPC UA BOOLEAN/BYTE, a digital line) should not need to round-trip
// through a wider integer to write the narrowest series type.
func (s *Series) AppendUint8(v uint8) error {
	switch s.DataType {
	case Uint8:
		s.u8 = append(s.u8, v)
	default:
		return fmt.Errorf("telem: cannot append uint8 to %s series", s.DataType)
	}
	return nil
}

func (s *Series) Uint8At(i int) (uint8, error) {
	switch s.DataType {
	case Uint8:
		return s.u8[i], nil
	default:
		return 0, fmt.Errorf("telem: cannot read %s series as uint8", s.DataType)
	}
}
