// Copyright (c) 2026 The fieldbridge authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package cluster

import (
	"fmt"

	"github.com/fieldbridge/driver/pkg/telem"
	influx "github.com/influxdata/line-protocol/v2/lineprotocol"
)

// Writer publishes frames to the cluster as influx line-protocol points on a
// fixed subject. It satisfies pkg/pipeline.ClusterWriter.
type Writer struct {
	client        *Client
	subject       string
	measurement   string
	channelsByKey map[uint32]telem.Channel
	indexKey      uint32
	enc           influx.Encoder
}

// NewWriter opens a Writer publishing frames matching cfg's channel set to
// subject, identified on the wire as measurement.
func NewWriter(client *Client, subject, measurement string, cfg WriterConfig) *Writer {
	byKey := make(map[uint32]telem.Channel, len(cfg.Channels))
	for _, ch := range cfg.Channels {
		byKey[ch.Key] = ch
	}
	return &Writer{
		client:        client,
		subject:       subject,
		measurement:   measurement,
		channelsByKey: byKey,
		indexKey:      cfg.Index,
	}
}

// WriterConfig mirrors pkg/pipeline.WriterConfig without importing it, to
// avoid a cluster<->pipeline import cycle; pipeline adapts between the two.
type WriterConfig struct {
	Channels []telem.Channel
	Index    uint32
}

func (w *Writer) Write(frame *telem.Frame) error {
	data, err := EncodeFrame(&w.enc, frame, w.channelsByKey, w.measurement, w.indexKey)
	if err != nil {
		return fmt.Errorf("cluster: writer encode: %w", err)
	}
	if len(data) == 0 {
		return nil
	}
	return w.client.Publish(w.subject, data)
}

func (w *Writer) Close() error {
	return w.client.Flush()
}
