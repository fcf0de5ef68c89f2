// Copyright (c) 2026 The fieldbridge authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package factory builds a rack's tasks from their Descriptor. Each
// integration contributes one Factory claiming a type prefix (e.g. "ni.",
// "opcua."); MultiFactory is the chain-of-responsibility composing them,
// so new integrations register themselves instead of editing a shared
// switch.
package factory

import (
	"fmt"
	"strings"

	"github.com/fieldbridge/driver/internal/cluster"
	"github.com/fieldbridge/driver/internal/task"
	"github.com/fieldbridge/driver/pkg/breaker"
	"github.com/fieldbridge/driver/pkg/status"
)

// Context is the shared environment every Factory needs to build a task:
// the rack's identity and its cluster connection.
type Context struct {
	RackKey uint32
	Client  *cluster.Client
	Breaker *breaker.Breaker
}

// Factory builds tasks of the types it recognizes, by prefix match against
// descriptor.Type (e.g. a Factory claiming "ni." builds "ni.ai",
// "ni.ao", ...).
type Factory interface {
	// CanConfigure reports whether this factory owns taskType.
	CanConfigure(taskType string) bool
	// Configure (re)builds the task described by desc. h is the status
	// handler the task should report through.
	Configure(ctx Context, desc task.Descriptor, h *status.Handler) (task.Task, task.ConfigureResult, error)
}

// InitialTaskSource is implemented by factories that own tasks the rack
// should always run without being told to by the cluster (a per-integration
// device scan loop, the rack heartbeat).
type InitialTaskSource interface {
	// InitialTasks returns the descriptors this factory wants
	// materialized at startup if not already present.
	InitialTasks(ctx Context) []task.Descriptor
}

// MultiFactory routes a task Descriptor to the first registered Factory
// that claims its type, per the chain-of-responsibility contract: the
// first match wins, later factories are never consulted for that type. It
// implements internal/taskmanager.Registry.
type MultiFactory struct {
	ctx       Context
	factories []Factory
}

// New builds a MultiFactory that builds tasks with ctx, trying factories in
// registration order.
func New(ctx Context, factories ...Factory) *MultiFactory {
	return &MultiFactory{ctx: ctx, factories: factories}
}

// Register appends f to the end of the chain.
func (m *MultiFactory) Register(f Factory) {
	m.factories = append(m.factories, f)
}

// Configure routes desc to the first factory claiming desc.Type.
func (m *MultiFactory) Configure(desc task.Descriptor, h *status.Handler) (task.Task, task.ConfigureResult, error) {
	for _, f := range m.factories {
		if !f.CanConfigure(desc.Type) {
			continue
		}
		t, result, err := f.Configure(m.ctx, desc, h)
		if err != nil {
			return nil, task.ConfigureResult{}, fmt.Errorf("factory: task %d (type %q): %w", desc.Key, desc.Type, err)
		}
		return t, result, nil
	}
	return nil, task.ConfigureResult{}, fmt.Errorf("factory: no factory registered for type %q (task %d)", desc.Type, desc.Key)
}

// ConfigureInitialTasks walks every registered InitialTaskSource and
// configures any descriptor not already present in existing (by Key),
// returning the newly built tasks.
func (m *MultiFactory) ConfigureInitialTasks(existing map[uint64]task.Task, emitter status.Emitter) ([]task.Task, error) {
	var built []task.Task
	for _, f := range m.factories {
		src, ok := f.(InitialTaskSource)
		if !ok {
			continue
		}
		for _, desc := range src.InitialTasks(m.ctx) {
			if _, present := existing[desc.Key]; present {
				continue
			}
			h := status.NewHandler(desc.StatusKey, emitter)
			t, result, err := m.Configure(desc, h)
			if err != nil {
				return built, err
			}
			if result.AutoStart {
				if err := t.Exec(task.Command{Task: desc.Key, Type: "start"}); err != nil {
					return built, fmt.Errorf("factory: starting initial task %d: %w", desc.Key, err)
				}
			}
			built = append(built, t)
		}
	}
	return built, nil
}

// hasPrefix is the shared type-claim predicate: taskType is owned by prefix
// if it equals prefix or starts with "prefix.".
func hasPrefix(taskType, prefix string) bool {
	return taskType == prefix || strings.HasPrefix(taskType, prefix+".")
}
