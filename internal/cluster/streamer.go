// Copyright (c) 2026 The fieldbridge authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package cluster

import (
	"sync"

	"github.com/fieldbridge/driver/pkg/log"
	"github.com/fieldbridge/driver/pkg/telem"
	influx "github.com/influxdata/line-protocol/v2/lineprotocol"
)

// Streamer subscribes to a subject and decodes each message into a frame
// matching the given channel set, delivering frames on a buffered channel.
// It satisfies pkg/pipeline.ClusterStreamer.
type Streamer struct {
	client         *Client
	subject        string
	channelsByName map[string]telem.Channel
	channelsByKey  map[uint32]telem.Channel
	frames         chan *telem.Frame
	closeOnce      sync.Once
}

// NewStreamer subscribes to subject, decoding incoming messages against the
// channel set in cfg. bufferSize bounds how many decoded frames may queue
// before Frames() is drained.
func NewStreamer(client *Client, subject string, cfg WriterConfig, bufferSize int) (*Streamer, error) {
	byName := make(map[string]telem.Channel, len(cfg.Channels))
	byKey := make(map[uint32]telem.Channel, len(cfg.Channels))
	for _, ch := range cfg.Channels {
		byName[ch.Name] = ch
		byKey[ch.Key] = ch
	}

	s := &Streamer{
		client:         client,
		subject:        subject,
		channelsByName: byName,
		channelsByKey:  byKey,
		frames:         make(chan *telem.Frame, bufferSize),
	}

	keys := make([]uint32, 0, len(cfg.Channels))
	for k := range byKey {
		keys = append(keys, k)
	}

	err := client.Subscribe(subject, func(_ string, data []byte) {
		dec := influx.NewDecoderWithBytes(data)
		frame := telem.NewFrameForChannels(cfg.Channels, byKey, 1)
		if err := DecodeFrame(dec, byName, frame); err != nil {
			log.Warnf("cluster: streamer decode on '%s': %v", subject, err)
			return
		}
		select {
		case s.frames <- frame:
		default:
			log.Warnf("cluster: streamer buffer full on '%s', dropping frame", subject)
		}
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Streamer) Frames() <-chan *telem.Frame {
	return s.frames
}

func (s *Streamer) Close() error {
	s.closeOnce.Do(func() {
		close(s.frames)
	})
	return nil
}
