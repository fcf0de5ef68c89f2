// Copyright (c) 2026 The fieldbridge authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package factory

import (
	"fmt"

	"github.com/fieldbridge/driver/internal/cluster"
	"github.com/fieldbridge/driver/internal/heartbeat"
	"github.com/fieldbridge/driver/internal/task"
	"github.com/fieldbridge/driver/pkg/status"
	"github.com/fieldbridge/driver/pkg/telem"
)

// HeartbeatFactory builds the rack's liveness-beacon task. Like
// MeminfoFactory it owns an InitialTask: the rack always beats, whether or
// not the cluster ever task_sets one explicitly.
type HeartbeatFactory struct{}

func (HeartbeatFactory) CanConfigure(taskType string) bool {
	return hasPrefix(taskType, "heartbeat")
}

func (HeartbeatFactory) Configure(ctx Context, desc task.Descriptor, h *status.Handler) (task.Task, task.ConfigureResult, error) {
	channel := telem.Channel{Key: 0, Name: "rack_heartbeat", DataType: telem.Uint64}
	writer := cluster.NewWriter(ctx.Client, subjectForTask(desc.Key), "heartbeat", cluster.WriterConfig{Channels: []telem.Channel{channel}})
	hb := heartbeat.New(ctx.RackKey, channel, writer, ctx.Breaker)
	return &heartbeatTask{key: desc.Key, hb: hb, status: h}, task.ConfigureResult{AutoStart: true}, nil
}

func (HeartbeatFactory) InitialTasks(ctx Context) []task.Descriptor {
	key := initialTaskKey(ctx.RackKey, "heartbeat")
	return []task.Descriptor{{Key: key, Name: "heartbeat", Type: "heartbeat", StatusKey: key}}
}

// heartbeatTask adapts internal/heartbeat.Heartbeat to the task.Task
// contract so the task manager can drive it like any other task.
type heartbeatTask struct {
	key    uint64
	hb     *heartbeat.Heartbeat
	status *status.Handler
}

func (t *heartbeatTask) Key() uint64 { return t.key }

func (t *heartbeatTask) Exec(cmd task.Command) error {
	switch cmd.Type {
	case "start":
		if err := t.hb.Start(); err != nil {
			return err
		}
		if t.status != nil {
			return t.status.Start(cmd.Key)
		}
		return nil
	case "stop":
		return t.stopWithCmd(cmd.Key)
	default:
		return fmt.Errorf("heartbeat task %d: unsupported command %q", t.key, cmd.Type)
	}
}

// Stop tears the task down unconditionally, used by the task manager on
// task_delete — there is no task_cmd correlation key for this path.
func (t *heartbeatTask) Stop() error { return t.stopWithCmd("") }

func (t *heartbeatTask) stopWithCmd(cmdKey string) error {
	if err := t.hb.Stop(); err != nil {
		return err
	}
	if t.status != nil {
		return t.status.Stop(cmdKey)
	}
	return nil
}
