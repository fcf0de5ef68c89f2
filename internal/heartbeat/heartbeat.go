// Copyright (c) 2026 The fieldbridge authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package heartbeat publishes a periodic liveness signal for this rack:
// one sample per tick on the rack_heartbeat channel, packing the rack's
// identity and a monotonically increasing version into a single uint64 so
// an observer can both recognize the rack and detect a restart (the
// version resets to 1 each process start, the "generation" being the
// process's boot epoch).
package heartbeat

import (
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/fieldbridge/driver/pkg/breaker"
	"github.com/fieldbridge/driver/pkg/log"
	"github.com/fieldbridge/driver/pkg/telem"
)

// Writer is the cluster-facing sink a Heartbeat publishes to.
// internal/cluster.Writer satisfies this structurally.
type Writer interface {
	Write(frame *telem.Frame) error
}

// Heartbeat ticks once a second (configurable) and writes
// (rack_key<<32)|version to Channel.
type Heartbeat struct {
	RackKey uint32
	Channel telem.Channel
	Writer  Writer
	Breaker *breaker.Breaker
	Period  time.Duration

	version   uint32
	scheduler gocron.Scheduler
}

// New builds a Heartbeat for rackKey, publishing through w on channel (a
// Uint64-typed channel, conventionally named "rack_heartbeat").
func New(rackKey uint32, channel telem.Channel, w Writer, b *breaker.Breaker) *Heartbeat {
	return &Heartbeat{RackKey: rackKey, Channel: channel, Writer: w, Breaker: b, Period: time.Second}
}

// Start schedules the periodic tick and returns immediately; call Stop to
// tear the scheduler down.
func (h *Heartbeat) Start() error {
	s, err := gocron.NewScheduler()
	if err != nil {
		return err
	}

	period := h.Period
	if period <= 0 {
		period = time.Second
	}

	if _, err := s.NewJob(
		gocron.DurationJob(period),
		gocron.NewTask(h.tick),
	); err != nil {
		return err
	}

	h.scheduler = s
	s.Start()
	return nil
}

// Stop halts the scheduler. Safe to call even if Start failed or was never
// called.
func (h *Heartbeat) Stop() error {
	if h.scheduler == nil {
		return nil
	}
	return h.scheduler.Shutdown()
}

func (h *Heartbeat) tick() {
	h.version++
	packed := int64(uint64(h.RackKey)<<32 | uint64(h.version))

	channels := []telem.Channel{h.Channel}
	frame := telem.NewFrameForChannels(channels, map[uint32]telem.Channel{h.Channel.Key: h.Channel}, 1)
	series := frame.Get(h.Channel.Key)
	if err := series.AppendInt64(packed); err != nil {
		log.Errorf("heartbeat: encode failed: %v", err)
		return
	}

	for {
		err := h.Writer.Write(frame)
		if err == nil {
			if h.Breaker != nil {
				h.Breaker.Reset()
			}
			return
		}
		log.Warnf("heartbeat: publish failed: %v", err)
		if h.Breaker == nil || !h.Breaker.Wait() {
			return
		}
	}
}
