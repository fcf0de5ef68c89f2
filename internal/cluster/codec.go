// Copyright (c) 2026 The fieldbridge authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package cluster

import (
	"fmt"
	"time"

	"github.com/fieldbridge/driver/pkg/telem"
	influx "github.com/influxdata/line-protocol/v2/lineprotocol"
)

// EncodeFrame serializes every row of frame as an influx line-protocol point
// under measurement, one line per row. indexKey identifies the channel whose
// series holds each row's timestamp; each row's fields are written in the
// frame's channel order, so output is deterministic.
func EncodeFrame(enc *influx.Encoder, frame *telem.Frame, channelsByKey map[uint32]telem.Channel, measurement string, indexKey uint32) ([]byte, error) {
	enc.Reset()
	enc.SetPrecision(influx.Nanosecond)

	n := frame.Len()
	for row := 0; row < n; row++ {
		enc.StartLine(measurement)

		ts := time.Time{}
		wroteField := false
		for i, key := range frame.Channels {
			ch, ok := channelsByKey[key]
			if !ok || key == indexKey {
				continue
			}
			series := frame.Series[i]
			if row >= series.Len() {
				continue
			}
			v, err := series.Float64At(row)
			if err != nil {
				return nil, fmt.Errorf("cluster: encode channel %d: %w", key, err)
			}
			enc.AddField(ch.Name, influx.MustNewValue(v))
			wroteField = true
		}
		if !wroteField {
			enc.EndLine(ts)
			continue
		}

		if idxSeries := frame.Get(indexKey); idxSeries != nil && row < idxSeries.Len() {
			tsNs, err := idxSeries.Int64At(row)
			if err == nil {
				ts = time.Unix(0, tsNs)
			}
		}
		enc.EndLine(ts)
	}
	if err := enc.Err(); err != nil {
		return nil, fmt.Errorf("cluster: encode frame: %w", err)
	}
	return enc.Bytes(), nil
}

// DecodeFrame decodes every line-protocol point in d and appends a row to
// frame for each field, resolving field names against channelsByName. The
// index channel (if present in channelsByName) receives the point's
// timestamp.
func DecodeFrame(d *influx.Decoder, channelsByName map[string]telem.Channel, frame *telem.Frame) error {
	for d.Next() {
		if _, err := d.Measurement(); err != nil {
			return fmt.Errorf("cluster: decode measurement: %w", err)
		}
		for {
			key, _, err := d.NextTag()
			if err != nil {
				return fmt.Errorf("cluster: decode tag: %w", err)
			}
			if key == nil {
				break
			}
		}

		rowTime := time.Time{}
		fields := map[string]float64{}
		for {
			key, value, err := d.NextField()
			if err != nil {
				return fmt.Errorf("cluster: decode field: %w", err)
			}
			if key == nil {
				break
			}
			switch value.Kind() {
			case influx.Float:
				fields[string(key)] = value.FloatV()
			case influx.Int:
				fields[string(key)] = float64(value.IntV())
			case influx.Uint:
				fields[string(key)] = float64(value.UintV())
			default:
				continue
			}
		}

		rowTime, err := d.Time(influx.Nanosecond, rowTime)
		if err != nil {
			return fmt.Errorf("cluster: decode time: %w", err)
		}

		for name, ch := range channelsByName {
			series := frame.Get(ch.Key)
			if series == nil {
				continue
			}
			if ch.IsIndex {
				if err := series.AppendInt64(rowTime.UnixNano()); err != nil {
					return err
				}
				continue
			}
			v, ok := fields[name]
			if !ok {
				continue
			}
			if err := series.AppendFloat64(v); err != nil {
				return err
			}
		}
	}
	return nil
}
