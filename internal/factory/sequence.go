// Copyright (c) 2026 The fieldbridge authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package factory

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/fieldbridge/driver/internal/task"
	"github.com/fieldbridge/driver/pkg/arc"
	"github.com/fieldbridge/driver/pkg/status"
)

// SequenceFactory builds a computed-channel task from a user-authored node
// graph: a chain of arc.Node kinds (source/gain/sum, ...) ticked on a
// fixed period. It is how a rack derives values (unit conversions, rate
// limiting, cross-channel math) without a dedicated per-computation task
// type.
type SequenceFactory struct{}

type sequenceConfig struct {
	Nodes    []arc.NodeConfig `json:"nodes"`
	PeriodMS int              `json:"period_ms"`
}

func (SequenceFactory) CanConfigure(taskType string) bool {
	return hasPrefix(taskType, "sequence")
}

func (SequenceFactory) Configure(ctx Context, desc task.Descriptor, h *status.Handler) (task.Task, task.ConfigureResult, error) {
	var cfg sequenceConfig
	if err := json.Unmarshal(desc.Config, &cfg); err != nil {
		return nil, task.ConfigureResult{}, fmt.Errorf("sequence: config: %w", err)
	}
	if len(cfg.Nodes) == 0 {
		return nil, task.ConfigureResult{}, fmt.Errorf("sequence: at least one node is required")
	}
	period := time.Duration(cfg.PeriodMS) * time.Millisecond
	if period <= 0 {
		period = 100 * time.Millisecond
	}

	chain := arc.NewFactoryChain(arc.BuiltinFactories()...)
	scheduler, err := arc.BuildScheduler(cfg.Nodes, chain, len(cfg.Nodes))
	if err != nil {
		return nil, task.ConfigureResult{}, fmt.Errorf("sequence: %w", err)
	}

	return &sequenceTask{key: desc.Key, scheduler: scheduler, period: period, status: h}, task.ConfigureResult{AutoStart: true}, nil
}

// sequenceTask ticks an arc.Scheduler on a fixed period until stopped.
type sequenceTask struct {
	key       uint64
	scheduler *arc.Scheduler
	period    time.Duration
	status    *status.Handler

	mu      sync.Mutex
	stop    chan struct{}
	done    chan error
	running bool
}

func (t *sequenceTask) Key() uint64 { return t.key }

func (t *sequenceTask) Exec(cmd task.Command) error {
	switch cmd.Type {
	case "start":
		return t.start(cmd.Key)
	case "stop":
		return t.stopWithCmd(cmd.Key)
	default:
		return fmt.Errorf("sequence task %d: unsupported command %q", t.key, cmd.Type)
	}
}

func (t *sequenceTask) start(cmdKey string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return nil
	}
	t.stop = make(chan struct{})
	t.done = make(chan error, 1)
	t.running = true
	stop := t.stop
	done := t.done
	if t.status != nil {
		t.status.Start(cmdKey)
	}
	go func() { done <- t.run(stop) }()
	return nil
}

func (t *sequenceTask) run(stop <-chan struct{}) error {
	ticker := time.NewTicker(t.period)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return nil
		case <-ticker.C:
			if err := t.scheduler.Next(); err != nil && t.status != nil {
				t.status.Warn(err.Error())
			}
		}
	}
}

// Stop tears the task down unconditionally, used by the task manager on
// task_delete — there is no task_cmd correlation key for this path.
func (t *sequenceTask) Stop() error { return t.stopWithCmd("") }

func (t *sequenceTask) stopWithCmd(cmdKey string) error {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return nil
	}
	close(t.stop)
	done := t.done
	t.running = false
	t.mu.Unlock()

	<-done
	if t.status != nil {
		return t.status.Stop(cmdKey)
	}
	return nil
}
