// Copyright (c) 2026 The fieldbridge authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package taskmanager

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldbridge/driver/internal/task"
	"github.com/fieldbridge/driver/pkg/status"
)

type recordingEmitter struct {
	mu       sync.Mutex
	messages []status.Message
}

func (e *recordingEmitter) Emit(msg status.Message) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.messages = append(e.messages, msg)
	return nil
}

type fakeTask struct {
	key      uint64
	execd    []task.Command
	stopped  int32
	execErr  error
}

func (t *fakeTask) Key() uint64 { return t.key }
func (t *fakeTask) Exec(cmd task.Command) error {
	t.execd = append(t.execd, cmd)
	return t.execErr
}
func (t *fakeTask) Stop() error { t.stopped++; return nil }

type fakeRegistry struct {
	task   *fakeTask
	result task.ConfigureResult
	err    error
}

func (r *fakeRegistry) Configure(desc task.Descriptor, h *status.Handler) (task.Task, task.ConfigureResult, error) {
	if r.err != nil {
		return nil, task.ConfigureResult{}, r.err
	}
	r.task.key = desc.Key
	return r.task, r.result, nil
}

func TestHandleSetConfiguresAndStartsTask(t *testing.T) {
	ft := &fakeTask{}
	registry := &fakeRegistry{task: ft, result: task.ConfigureResult{AutoStart: true}}
	emitter := &recordingEmitter{}
	m := newManager(nil, registry, nil, emitter)

	m.handleSet(task.Descriptor{Key: 5, StatusKey: 50, Type: "ni.ai"})

	m.mu.Lock()
	_, ok := m.tasks[5]
	m.mu.Unlock()
	require.True(t, ok)
	require.Len(t, ft.execd, 1)
	assert.Equal(t, "start", ft.execd[0].Type)
}

func TestHandleSetReplacesExistingTask(t *testing.T) {
	oldTask := &fakeTask{key: 5}
	newTask := &fakeTask{}
	registry := &fakeRegistry{task: newTask}
	emitter := &recordingEmitter{}
	m := newManager(nil, registry, nil, emitter)
	m.tasks[5] = oldTask

	m.handleSet(task.Descriptor{Key: 5, StatusKey: 50})

	assert.Equal(t, int32(1), oldTask.stopped)
}

func TestHandleSetLatchesConfigError(t *testing.T) {
	registry := &fakeRegistry{err: fmt.Errorf("bad config")}
	emitter := &recordingEmitter{}
	m := newManager(nil, registry, nil, emitter)

	m.handleSet(task.Descriptor{Key: 5, StatusKey: 50})

	m.mu.Lock()
	_, ok := m.tasks[5]
	m.mu.Unlock()
	assert.False(t, ok)

	require.NotEmpty(t, emitter.messages)
	assert.Equal(t, status.VariantError, emitter.messages[len(emitter.messages)-1].Variant)
}

func TestHandleDeleteStopsAndForgetsTask(t *testing.T) {
	ft := &fakeTask{key: 5}
	m := newManager(nil, &fakeRegistry{}, nil, &recordingEmitter{})
	m.tasks[5] = ft

	m.handleDelete(5)

	assert.Equal(t, int32(1), ft.stopped)
	m.mu.Lock()
	_, ok := m.tasks[5]
	m.mu.Unlock()
	assert.False(t, ok)
}

func TestHandleDeleteUnknownKeyIsNoop(t *testing.T) {
	m := newManager(nil, &fakeRegistry{}, nil, &recordingEmitter{})
	m.handleDelete(999) // must not panic
}

func TestHandleCmdDispatchesToTask(t *testing.T) {
	ft := &fakeTask{key: 5}
	m := newManager(nil, &fakeRegistry{}, nil, &recordingEmitter{})
	m.tasks[5] = ft

	m.handleCmd(task.Command{Task: 5, Type: "stop"})

	require.Len(t, ft.execd, 1)
	assert.Equal(t, "stop", ft.execd[0].Type)
}

func TestHandleCmdUnknownTaskDropped(t *testing.T) {
	m := newManager(nil, &fakeRegistry{}, nil, &recordingEmitter{})
	m.handleCmd(task.Command{Task: 999, Type: "stop"}) // must not panic
}

func TestStopAllStopsEveryTask(t *testing.T) {
	a := &fakeTask{key: 1}
	b := &fakeTask{key: 2}
	m := newManager(nil, &fakeRegistry{}, nil, &recordingEmitter{})
	m.tasks[1] = a
	m.tasks[2] = b

	m.stopAll()

	assert.Equal(t, int32(1), a.stopped)
	assert.Equal(t, int32(1), b.stopped)
	assert.Empty(t, m.tasks)
}
