// Copyright (c) 2026 The fieldbridge authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package status aggregates a task's errors and warnings into the status
// messages the cluster displays to an operator: each message carries a
// variant (success, info, warning or error), whether the task is running,
// and the most recent problem's text.
package status

import (
	"sync"

	"github.com/fieldbridge/driver/pkg/errors"
)

// Variant is the severity tier of a Message.
type Variant string

const (
	VariantSuccess Variant = "success"
	VariantInfo    Variant = "info"
	VariantWarning Variant = "warning"
	VariantError   Variant = "error"
)

// Details carries the task-identifying fields every Message includes. Cmd
// is the correlation key of the task_cmd that caused a start/stop message;
// it is empty for messages not triggered by an explicit command.
type Details struct {
	Task    uint64 `json:"task"`
	Running bool   `json:"running"`
	Cmd     string `json:"cmd,omitempty"`
}

// Message is the JSON payload published to the cluster's task status
// channel.
type Message struct {
	Variant Variant `json:"variant"`
	Message string  `json:"message"`
	Details Details `json:"details"`
}

// Emitter publishes a status Message; internal/cluster.StatusEmitter and
// test doubles both implement it.
type Emitter interface {
	Emit(Message) error
}

// Handler latches a task's most severe outstanding problem and turns C1
// errors into cluster-facing Message values. A read or control pipeline
// calls Error/Warn from its acquisition loop and Handler decides whether
// the change is worth re-emitting.
type Handler struct {
	mu      sync.Mutex
	task    uint64
	emitter Emitter

	running bool
	variant Variant
	last    string
	cmd     string
}

// NewHandler builds a Handler for task, publishing through emitter.
func NewHandler(task uint64, emitter Emitter) *Handler {
	return &Handler{task: task, emitter: emitter, variant: VariantSuccess}
}

// Start marks the task running and emits a success message tagged with
// cmdKey, the task_cmd correlation key that triggered it ("" if started
// without an explicit command, e.g. AutoStart).
func (h *Handler) Start(cmdKey string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.running = true
	h.variant = VariantSuccess
	h.last = ""
	h.cmd = cmdKey
	return h.emitLocked("task started")
}

// Stop marks the task stopped and emits a success message tagged with
// cmdKey, the task_cmd correlation key that triggered it ("" if stopped
// without an explicit command, e.g. task_delete teardown).
func (h *Handler) Stop(cmdKey string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.running = false
	h.variant = VariantSuccess
	h.last = ""
	h.cmd = cmdKey
	return h.emitLocked("task stopped")
}

// Warn records a recoverable condition and emits msg — unless a fatal
// error is currently latched, in which case the latched error is
// re-emitted instead, so a transient warning never papers over a real
// failure.
func (h *Handler) Warn(msg string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.variant == VariantError {
		return h.emitLocked(h.last)
	}
	h.variant = VariantWarning
	return h.emitLocked(msg)
}

// Error latches err as the task's current problem and emits it, skipping
// re-emission if err is identical to the last one reported (so a retry loop
// hammering the same failure doesn't flood the cluster with duplicates).
func (h *Handler) Error(err errors.Error) error {
	if err.Ok() {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	msg := err.Message()
	if h.variant == VariantError && h.last == msg {
		return nil
	}
	h.variant = VariantError
	h.running = false
	return h.emitLocked(msg)
}

// Clear drops a latched warning and returns the task to a running success
// state, without re-emitting "task started". A latched fatal error is left
// alone: only a warning variant is cleared, matching clear_warning — a
// successful read must not silently erase an outstanding error.
func (h *Handler) Clear() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.variant != VariantWarning {
		return nil
	}
	h.variant = VariantSuccess
	h.last = ""
	return h.emitLocked("")
}

func (h *Handler) emitLocked(msg string) error {
	h.last = msg
	if h.emitter == nil {
		return nil
	}
	return h.emitter.Emit(Message{
		Variant: h.variant,
		Message: msg,
		Details: Details{Task: h.task, Running: h.running, Cmd: h.cmd},
	})
}
