// Copyright (c) 2026 The fieldbridge authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package factory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldbridge/driver/internal/task"
	"github.com/fieldbridge/driver/pkg/status"
)

type stubFactory struct {
	prefix string
	built  *fakeTask
	err    error
	result task.ConfigureResult
}

type fakeTask struct {
	key     uint64
	execd   []task.Command
	stopped int
}

func (t *fakeTask) Key() uint64 { return t.key }
func (t *fakeTask) Exec(cmd task.Command) error {
	t.execd = append(t.execd, cmd)
	return nil
}
func (t *fakeTask) Stop() error { t.stopped++; return nil }

func (f stubFactory) CanConfigure(taskType string) bool { return hasPrefix(taskType, f.prefix) }

func (f stubFactory) Configure(_ Context, desc task.Descriptor, _ *status.Handler) (task.Task, task.ConfigureResult, error) {
	if f.err != nil {
		return nil, task.ConfigureResult{}, f.err
	}
	f.built.key = desc.Key
	return f.built, f.result, nil
}

type initialSourceFactory struct {
	stubFactory
	descs []task.Descriptor
}

func (f initialSourceFactory) InitialTasks(Context) []task.Descriptor { return f.descs }

func TestMultiFactoryConfigureRoutesToFirstMatch(t *testing.T) {
	ft := &fakeTask{}
	m := New(Context{}, stubFactory{prefix: "meminfo", built: ft})

	built, _, err := m.Configure(task.Descriptor{Key: 1, Type: "meminfo"}, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), built.Key())
}

func TestMultiFactoryConfigureNoMatchIsDescriptiveError(t *testing.T) {
	m := New(Context{}, stubFactory{prefix: "meminfo", built: &fakeTask{}})

	_, _, err := m.Configure(task.Descriptor{Key: 2, Type: "ni.ai"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no factory registered")
}

func TestMultiFactoryConfigurePropagatesRealBuildError(t *testing.T) {
	m := New(Context{}, stubFactory{prefix: "ni", err: assertErr("bad wiring")})

	_, _, err := m.Configure(task.Descriptor{Key: 3, Type: "ni.ai"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad wiring")
}

func TestMultiFactoryFirstRegisteredWins(t *testing.T) {
	first := &fakeTask{}
	second := &fakeTask{}
	m := New(Context{},
		stubFactory{prefix: "ni", built: first},
		stubFactory{prefix: "ni", built: second},
	)

	built, _, err := m.Configure(task.Descriptor{Key: 4, Type: "ni.ai"}, nil)
	require.NoError(t, err)
	assert.Same(t, first, built)
}

func TestConfigureInitialTasksSkipsAlreadyPresent(t *testing.T) {
	ft := &fakeTask{}
	src := initialSourceFactory{
		stubFactory: stubFactory{prefix: "meminfo", built: ft, result: task.ConfigureResult{AutoStart: true}},
		descs:       []task.Descriptor{{Key: 42, Type: "meminfo"}},
	}
	m := New(Context{}, src)

	existing := map[uint64]task.Task{42: &fakeTask{key: 42}}
	built, err := m.ConfigureInitialTasks(existing, &recordingStatusEmitter{})
	require.NoError(t, err)
	assert.Empty(t, built)
}

func TestConfigureInitialTasksBuildsAndStartsMissing(t *testing.T) {
	ft := &fakeTask{}
	src := initialSourceFactory{
		stubFactory: stubFactory{prefix: "meminfo", built: ft, result: task.ConfigureResult{AutoStart: true}},
		descs:       []task.Descriptor{{Key: 42, Type: "meminfo", StatusKey: 42}},
	}
	m := New(Context{}, src)

	built, err := m.ConfigureInitialTasks(map[uint64]task.Task{}, &recordingStatusEmitter{})
	require.NoError(t, err)
	require.Len(t, built, 1)
	require.Len(t, ft.execd, 1)
	assert.Equal(t, "start", ft.execd[0].Type)
}

type recordingStatusEmitter struct{}

func (recordingStatusEmitter) Emit(status.Message) error { return nil }

type assertErr string

func (e assertErr) Error() string { return string(e) }
