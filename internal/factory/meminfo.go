// Copyright (c) 2026 The fieldbridge authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package factory

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fieldbridge/driver/internal/cluster"
	"github.com/fieldbridge/driver/internal/task"
	"github.com/fieldbridge/driver/pkg/breaker"
	"github.com/fieldbridge/driver/pkg/errors"
	"github.com/fieldbridge/driver/pkg/pipeline"
	"github.com/fieldbridge/driver/pkg/status"
	"github.com/fieldbridge/driver/pkg/telem"
)

// MeminfoFactory builds the rack's own memory-usage sample task ("meminfo").
// It needs no vendor SDK: readMemoryUsedPercent is a thin, platform-gated
// wrapper (see meminfo_linux.go / meminfo_other.go), the same build-tag
// split pkg/rtpolicy uses for its scheduling syscalls.
type MeminfoFactory struct{}

type meminfoConfig struct {
	Channel  uint32 `json:"channel"`
	PeriodMS int    `json:"period_ms"`
}

func (MeminfoFactory) CanConfigure(taskType string) bool {
	return hasPrefix(taskType, "meminfo")
}

func (MeminfoFactory) Configure(ctx Context, desc task.Descriptor, h *status.Handler) (task.Task, task.ConfigureResult, error) {
	cfg := meminfoConfig{PeriodMS: 1000}
	if len(desc.Config) > 0 {
		if err := json.Unmarshal(desc.Config, &cfg); err != nil {
			return nil, task.ConfigureResult{}, fmt.Errorf("meminfo: config: %w", err)
		}
	}
	period := time.Duration(cfg.PeriodMS) * time.Millisecond
	if period <= 0 {
		period = time.Second
	}
	channel := telem.Channel{Key: cfg.Channel, Name: "mem_used_pct", DataType: telem.Float64}

	writer := cluster.NewWriter(ctx.Client, subjectForTask(desc.Key), "meminfo", cluster.WriterConfig{Channels: []telem.Channel{channel}})

	acq := &pipeline.Acquisition{
		Source:  &meminfoSource{channel: channel, period: period},
		Writer:  writer,
		Status:  h,
		Breaker: ctx.Breaker,
	}
	return task.NewReadTask(desc.Key, acq, nil, h), task.ConfigureResult{AutoStart: true}, nil
}

// InitialTasks materializes the rack's own meminfo sample as a task the
// rack always runs, with no cluster-assigned key: meminfo is ambient
// self-monitoring, not a field acquisition the operator configures.
func (MeminfoFactory) InitialTasks(ctx Context) []task.Descriptor {
	key := initialTaskKey(ctx.RackKey, "meminfo")
	return []task.Descriptor{{Key: key, Name: "meminfo", Type: "meminfo", StatusKey: key}}
}

type meminfoSource struct {
	channel telem.Channel
	period  time.Duration
}

func (s *meminfoSource) Start() error { return nil }
func (s *meminfoSource) Stop() error  { return nil }

func (s *meminfoSource) Channels() []telem.Channel { return []telem.Channel{s.channel} }

func (s *meminfoSource) WriterConfig() pipeline.WriterConfig {
	return pipeline.WriterConfig{Channels: s.Channels()}
}

func (s *meminfoSource) Read(b *breaker.Breaker, frame *telem.Frame) pipeline.ReadResult {
	time.Sleep(s.period)
	used, err := readMemoryUsedPercent()
	if err != nil {
		return pipeline.ReadResult{Err: errors.Unreachable(err.Error())}
	}
	if err := frame.Get(s.channel.Key).AppendFloat64(used); err != nil {
		return pipeline.ReadResult{Err: errors.New(task.TypeConfigError, err.Error())}
	}
	return pipeline.ReadResult{}
}
