// Copyright (c) 2026 The fieldbridge authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package taskmanager demultiplexes the cluster's task lifecycle and
// command channels onto the individual tasks running on this rack.
package taskmanager

import (
	"errors"
	"sync"

	"github.com/fieldbridge/driver/pkg/log"

	"github.com/fieldbridge/driver/internal/cluster"
	"github.com/fieldbridge/driver/internal/task"
	"github.com/fieldbridge/driver/pkg/breaker"
	"github.com/fieldbridge/driver/pkg/status"
)

// ErrEOF signals the cluster connection closed cleanly (not a failure to
// retry), matching the "eof is clean shutdown" rule.
var ErrEOF = errors.New("taskmanager: stream closed")

// ErrUnreachable is returned when startup gives up retrying the initial
// subscribe because the breaker's retry budget was exhausted or it was
// cancelled.
var ErrUnreachable = errors.New("taskmanager: cluster unreachable")

// Registry builds or reconfigures a Task from its Descriptor, choosing the
// concrete implementation by descriptor.Type. internal/factory.MultiFactory
// implements this.
type Registry interface {
	Configure(desc task.Descriptor, statusHandler *status.Handler) (task.Task, task.ConfigureResult, error)
}

// Manager owns every task currently running on this rack and the single
// worker goroutine that applies task_set/task_delete/task_cmd events to
// them in order.
type Manager struct {
	client   *cluster.Client
	registry Registry
	breaker  *breaker.Breaker
	emitter  status.Emitter

	// OnTaskCountChanged, if set, is called with the current task count
	// after every Seed/task_set/task_delete/stopAll — the hook
	// internal/httpapi's driver_tasks_running gauge is wired through.
	OnTaskCountChanged func(n int)

	mu    sync.Mutex
	tasks map[uint64]task.Task
}

// New builds a Manager. b governs retrying the initial subscribe if the
// cluster is unreachable at startup.
func New(client *cluster.Client, registry Registry, b *breaker.Breaker) *Manager {
	return newManager(client, registry, b, cluster.NewStatusEmitter(client, cluster.SubjectTaskState))
}

func newManager(client *cluster.Client, registry Registry, b *breaker.Breaker, emitter status.Emitter) *Manager {
	return &Manager{
		client:   client,
		registry: registry,
		breaker:  b,
		emitter:  emitter,
		tasks:    make(map[uint64]task.Task),
	}
}

// Run opens the task_set/task_delete/task_cmd subscriptions (retrying
// under the breaker while the cluster is unreachable) and processes events
// until stop is closed. On return, every still-running task is stopped.
func (m *Manager) Run(stop <-chan struct{}) error {
	setCh := make(chan task.Descriptor, 16)
	delCh := make(chan uint64, 16)
	cmdCh := make(chan task.Command, 64)

	if err := m.openStreams(setCh, delCh, cmdCh); err != nil {
		m.stopAll()
		return err
	}

	for {
		select {
		case <-stop:
			m.stopAll()
			return nil
		case desc := <-setCh:
			m.handleSet(desc)
		case key := <-delCh:
			m.handleDelete(key)
		case cmd := <-cmdCh:
			m.handleCmd(cmd)
		}
	}
}

// openStreams retries subscribing while the cluster connection is simply
// not up yet (transient, breaker-governed); any other subscribe failure
// (e.g. malformed subject) is fatal and propagates immediately.
func (m *Manager) openStreams(setCh chan task.Descriptor, delCh chan uint64, cmdCh chan task.Command) error {
	for {
		if !m.client.IsConnected() {
			if m.breaker == nil || !m.breaker.Wait() {
				return ErrUnreachable
			}
			log.Warnf("taskmanager: cluster unreachable, retrying")
			continue
		}
		return m.subscribeAll(setCh, delCh, cmdCh)
	}
}

func (m *Manager) subscribeAll(setCh chan task.Descriptor, delCh chan uint64, cmdCh chan task.Command) error {
	if err := cluster.SubscribeJSON(m.client, cluster.SubjectTaskSet, func(d task.Descriptor) { setCh <- d }); err != nil {
		return err
	}
	if err := cluster.SubscribeJSON(m.client, cluster.SubjectTaskDelete, func(k uint64) { delCh <- k }); err != nil {
		return err
	}
	if err := cluster.SubscribeJSON(m.client, cluster.SubjectTaskCmd, func(c task.Command) { cmdCh <- c }); err != nil {
		return err
	}
	return nil
}

// handleSet stops and discards any existing task under desc.Key, then asks
// the registry to (re)configure it. A config error is latched via the
// task's status handler rather than propagated: one bad task must not
// bring the manager down.
func (m *Manager) handleSet(desc task.Descriptor) {
	m.mu.Lock()
	if existing, ok := m.tasks[desc.Key]; ok {
		existing.Stop()
		delete(m.tasks, desc.Key)
	}
	n := len(m.tasks)
	m.mu.Unlock()

	h := status.NewHandler(desc.StatusKey, m.emitter)
	t, result, err := m.registry.Configure(desc, h)
	startErr := task.HandleConfigErr(h, result, err, func() error {
		return t.Exec(task.Command{Task: desc.Key, Type: "start"})
	})
	if startErr != nil {
		log.Warnf("taskmanager: task %d configuration failed: %v", desc.Key, startErr)
		m.reportCount(n)
		return
	}
	if t == nil {
		m.reportCount(n)
		return
	}

	m.mu.Lock()
	m.tasks[desc.Key] = t
	n = len(m.tasks)
	m.mu.Unlock()
	m.reportCount(n)
}

func (m *Manager) handleDelete(key uint64) {
	m.mu.Lock()
	t, ok := m.tasks[key]
	delete(m.tasks, key)
	n := len(m.tasks)
	m.mu.Unlock()

	if !ok {
		return
	}
	if err := t.Stop(); err != nil {
		log.Warnf("taskmanager: task %d stop failed: %v", key, err)
	}
	m.reportCount(n)
}

func (m *Manager) handleCmd(cmd task.Command) {
	m.mu.Lock()
	t, ok := m.tasks[cmd.Task]
	m.mu.Unlock()

	if !ok {
		log.Warnf("taskmanager: command for unknown task %d dropped", cmd.Task)
		return
	}
	if err := t.Exec(cmd); err != nil {
		log.Warnf("taskmanager: task %d command %q failed: %v", cmd.Task, cmd.Type, err)
	}
}

// Seed registers tasks that were already built and started outside the
// normal task_set flow — factory-owned initial tasks (C16) materialized
// before the cluster subscriptions are even open. Call before Run.
func (m *Manager) Seed(tasks []task.Task) {
	m.mu.Lock()
	for _, t := range tasks {
		m.tasks[t.Key()] = t
	}
	n := len(m.tasks)
	m.mu.Unlock()
	m.reportCount(n)
}

func (m *Manager) stopAll() {
	m.mu.Lock()
	for key, t := range m.tasks {
		if err := t.Stop(); err != nil {
			log.Warnf("taskmanager: task %d stop on shutdown failed: %v", key, err)
		}
	}
	m.tasks = make(map[uint64]task.Task)
	m.mu.Unlock()
	m.reportCount(0)
}

func (m *Manager) reportCount(n int) {
	if m.OnTaskCountChanged != nil {
		m.OnTaskCountChanged(n)
	}
}
