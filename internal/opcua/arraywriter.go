// Copyright (c) 2026 The fieldbridge authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package opcua converts OPC UA array read-responses into the driver's
// typed telem series. It intentionally has no client of its own: this
// module vendors no OPC UA SDK, so session/subscription handling and the
// actual node reads are a wrapper this module does not ship (see
// internal/factory's vendor stubs). ArrayWriter is the piece that is
// fully self-contained: bulk variant-array -> series conversion plus
// synthetic per-sample timestamp generation, the same shape the line-
// protocol decoder (internal/cluster) uses for inbound cluster frames.
package opcua

import (
	"fmt"
	"time"

	"github.com/fieldbridge/driver/pkg/status"
	"github.com/fieldbridge/driver/pkg/telem"
)

// OPC UA built-in type node IDs (ns=0), the subset this driver converts.
const (
	TypeBoolean uint32 = 1
	TypeSByte   uint32 = 2
	TypeByte    uint32 = 3
	TypeInt16   uint32 = 4
	TypeUInt16  uint32 = 5
	TypeInt32   uint32 = 6
	TypeUInt32  uint32 = 7
	TypeInt64   uint32 = 8
	TypeUInt64  uint32 = 9
	TypeFloat   uint32 = 10
	TypeDouble  uint32 = 11
	TypeString  uint32 = 12
	TypeDateTime uint32 = 13
)

// ChannelDataType maps an OPC UA built-in type to the telem.DataType a
// channel carrying it should declare. Narrower OPC UA integer types
// (SByte, Int16, UInt16) widen to the nearest type telem represents.
func ChannelDataType(opcType uint32) (telem.DataType, bool) {
	switch opcType {
	case TypeBoolean, TypeByte:
		return telem.Uint8, true
	case TypeSByte, TypeInt16, TypeInt32:
		return telem.Int32, true
	case TypeUInt16, TypeUInt32:
		return telem.Uint32, true
	case TypeInt64:
		return telem.Int64, true
	case TypeUInt64:
		return telem.Uint64, true
	case TypeFloat:
		return telem.Float32, true
	case TypeDouble:
		return telem.Float64, true
	case TypeString:
		return telem.StringType, true
	case TypeDateTime:
		return telem.TimestampType, true
	default:
		return 0, false
	}
}

// Variant is a decoded OPC UA read-response value: its declared type plus
// the (possibly array) elements an SDK's own decoding produced.
type Variant struct {
	TypeID uint32
	Values []any
}

// ArrayWriter bulk-converts a Variant into Channel's series and, if
// TimestampChannel is set, a matching linspace of sample timestamps.
type ArrayWriter struct {
	Channel          telem.Channel
	TimestampChannel telem.Channel
	SamplePeriod     time.Duration
	Status           *status.Handler
}

// Write appends up to arraySize elements of v into frame. If v is
// malformed (wrong TypeID for Channel) or any element can't convert to
// Channel's data type, the entire frame is discarded and a warning is
// reported — a partially-written frame would desynchronize the channel's
// series from its index.
func (w *ArrayWriter) Write(frame *telem.Frame, v Variant, arraySize int, now time.Time) error {
	want, ok := ChannelDataType(v.TypeID)
	if !ok || want != w.Channel.DataType {
		return w.reject(frame, fmt.Errorf("opcua: variant type %d does not match channel %q (%s)", v.TypeID, w.Channel.Name, w.Channel.DataType))
	}

	n := len(v.Values)
	if arraySize > 0 && arraySize < n {
		n = arraySize
	}

	series := frame.Get(w.Channel.Key)
	for i := 0; i < n; i++ {
		if err := appendElement(series, v.Values[i]); err != nil {
			return w.reject(frame, fmt.Errorf("opcua: element %d: %w", i, err))
		}
	}

	if w.TimestampChannel.Key != 0 {
		ts := frame.Get(w.TimestampChannel.Key)
		for i := 0; i < n; i++ {
			sampleTime := now.Add(time.Duration(i) * w.SamplePeriod)
			if err := ts.AppendInt64(sampleTime.UnixNano()); err != nil {
				return w.reject(frame, fmt.Errorf("opcua: timestamp %d: %w", i, err))
			}
		}
	}

	return nil
}

func (w *ArrayWriter) reject(frame *telem.Frame, cause error) error {
	frame.Clear()
	if w.Status != nil {
		w.Status.Warn(cause.Error())
	}
	return cause
}

func appendElement(series *telem.Series, v any) error {
	switch val := v.(type) {
	case bool:
		if val {
			return series.AppendUint8(1)
		}
		return series.AppendUint8(0)
	case uint8:
		return series.AppendUint8(val)
	case int8:
		return series.AppendInt64(int64(val))
	case int16:
		return series.AppendInt64(int64(val))
	case uint16:
		return series.AppendInt64(int64(val))
	case int32:
		return series.AppendInt64(int64(val))
	case uint32:
		return series.AppendInt64(int64(val))
	case int64:
		return series.AppendInt64(val)
	case uint64:
		return series.AppendInt64(int64(val))
	case float32:
		return series.AppendFloat64(float64(val))
	case float64:
		return series.AppendFloat64(val)
	case string:
		return series.AppendString(val)
	case time.Time:
		return series.AppendInt64(val.UnixNano())
	default:
		return fmt.Errorf("cannot convert %T to a series element", v)
	}
}
