// Copyright (c) 2026 The fieldbridge authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package task implements the three task templates every integration's
// factory builds on: ReadTask wraps an acquisition pipeline, WriteTask
// wraps a control pipeline, and ScanTask periodically probes for new
// devices. All three share the same command dispatch shape, so the task
// manager (internal/taskmanager) can treat every task uniformly.
package task

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/fieldbridge/driver/pkg/breaker"
	"github.com/fieldbridge/driver/pkg/errors"
	"github.com/fieldbridge/driver/pkg/pipeline"
	"github.com/fieldbridge/driver/pkg/status"
	"github.com/fieldbridge/driver/pkg/transform"
)

// TypeConfigError is the fatal error type latched when a task's
// configuration cannot be applied. It deliberately falls outside the
// canonical transient/restart lists in pkg/errors, so ClassifyKind treats
// it as fatal: a bad config never self-heals by retrying.
const TypeConfigError = "driver.config_error"

// Descriptor is a task's persisted identity and configuration, as stored
// by the cluster and delivered on task_set.
type Descriptor struct {
	Key       uint64          `json:"key"`
	Name      string          `json:"name"`
	Type      string          `json:"type"`
	Config    json.RawMessage `json:"config"`
	StatusKey uint64          `json:"status_key"`
}

// Command is one instruction delivered on task_cmd: start/stop/tare/
// set_authority/scan, each task type recognizing the subset relevant to it.
type Command struct {
	Task uint64          `json:"task"`
	Type string          `json:"type"`
	Key  string          `json:"key"`
	Args json.RawMessage `json:"args"`
}

// Task is the uniform interface the task manager drives: dispatch a
// command, or tear the task down entirely.
type Task interface {
	Key() uint64
	Exec(cmd Command) error
	Stop() error
}

// ConfigureResult is what a factory's configure step returns alongside any
// error: whether the newly (re)configured task should immediately start.
type ConfigureResult struct {
	AutoStart bool
}

// HandleConfigErr reports a task's (re)configuration outcome to its status
// handler: a non-nil err latches as a fatal config-error status (no
// retry — bad config does not self-heal); on success, AutoStart issues the
// task's own start command immediately rather than waiting for an explicit
// one from the cluster.
func HandleConfigErr(h *status.Handler, result ConfigureResult, err error, start func() error) error {
	if err != nil {
		if h != nil {
			h.Error(errors.New(TypeConfigError, err.Error()))
		}
		return err
	}
	if result.AutoStart && start != nil {
		return start()
	}
	return nil
}

// ReadTask wraps an Acquisition pipeline with start/stop/tare commands.
type ReadTask struct {
	key         uint64
	Acquisition *pipeline.Acquisition
	Tare        *transform.Tare
	Status      *status.Handler

	mu      sync.Mutex
	stop    chan struct{}
	done    chan error
	running bool
}

// NewReadTask builds a ReadTask for the given task key.
func NewReadTask(key uint64, acq *pipeline.Acquisition, tare *transform.Tare, h *status.Handler) *ReadTask {
	return &ReadTask{key: key, Acquisition: acq, Tare: tare, Status: h}
}

func (t *ReadTask) Key() uint64 { return t.key }

// Exec dispatches start, stop, and tare commands.
func (t *ReadTask) Exec(cmd Command) error {
	switch cmd.Type {
	case "start":
		return t.start(cmd.Key)
	case "stop":
		return t.stopLocked(cmd.Key)
	case "tare":
		return t.tare(cmd.Args)
	default:
		return fmt.Errorf("task %d: unsupported read command %q", t.key, cmd.Type)
	}
}

func (t *ReadTask) start(cmdKey string) error {
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
	if t.Status != nil {
		t.Status.Start(cmdKey)
	}
	go func() { done <- t.Acquisition.Run(stop) }()
	return nil
}

func (t *ReadTask) stopLocked(cmdKey string) error {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return nil
	}
	close(t.stop)
	done := t.done
	t.running = false
	t.mu.Unlock()
	err := <-done
	if t.Status != nil {
		t.Status.Stop(cmdKey)
	}
	return err
}

func (t *ReadTask) tare(args json.RawMessage) error {
	if t.Tare == nil {
		return fmt.Errorf("task %d: tare not supported", t.key)
	}
	var payload struct {
		Channels []uint32 `json:"channels"`
	}
	if len(args) > 0 {
		if err := json.Unmarshal(args, &payload); err != nil {
			return fmt.Errorf("task %d: tare args: %w", t.key, err)
		}
	}
	t.Tare.Set(payload.Channels)
	return nil
}

// Stop tears the task down unconditionally, used by the task manager on
// task_delete.
func (t *ReadTask) Stop() error { return t.stopLocked("") }

// WriteTask wraps a Control pipeline with start/stop/set_authority
// commands.
type WriteTask struct {
	key     uint64
	Control *pipeline.Control
	Sink    pipeline.Sink
	Status  *status.Handler

	mu      sync.Mutex
	stop    chan struct{}
	done    chan error
	running bool
}

// NewWriteTask builds a WriteTask for the given task key.
func NewWriteTask(key uint64, control *pipeline.Control, sink pipeline.Sink, h *status.Handler) *WriteTask {
	return &WriteTask{key: key, Control: control, Sink: sink, Status: h}
}

func (t *WriteTask) Key() uint64 { return t.key }

// Exec dispatches start, stop, and set_authority commands.
func (t *WriteTask) Exec(cmd Command) error {
	switch cmd.Type {
	case "start":
		return t.start(cmd.Key)
	case "stop":
		return t.stopLocked(cmd.Key)
	case "set_authority":
		return t.setAuthority(cmd.Args)
	default:
		return fmt.Errorf("task %d: unsupported write command %q", t.key, cmd.Type)
	}
}

func (t *WriteTask) start(cmdKey string) error {
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
	if t.Status != nil {
		t.Status.Start(cmdKey)
	}
	go func() { done <- t.Control.Run(stop) }()
	return nil
}

func (t *WriteTask) stopLocked(cmdKey string) error {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return nil
	}
	close(t.stop)
	done := t.done
	t.running = false
	t.mu.Unlock()
	err := <-done
	if t.Status != nil {
		t.Status.Stop(cmdKey)
	}
	return err
}

func (t *WriteTask) setAuthority(args json.RawMessage) error {
	var payload struct {
		Keys        []uint32 `json:"keys"`
		Authorities []uint8  `json:"authorities"`
	}
	if err := json.Unmarshal(args, &payload); err != nil {
		return fmt.Errorf("task %d: set_authority args: %w", t.key, err)
	}
	return t.Sink.SetAuthority(payload.Keys, payload.Authorities)
}

// Stop tears the task down unconditionally, used by the task manager on
// task_delete.
func (t *WriteTask) Stop() error { return t.stopLocked("") }

// Device is one piece of hardware a ScanTask's Scanner discovered.
type Device struct {
	Key        string         `json:"key"`
	Name       string         `json:"name"`
	Make       string         `json:"make"`
	Model      string         `json:"model"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Scanner is the integration-specific probe a ScanTask drives on a timer:
// NI DAQmx enumerates its chassis, LabJack polls USB/Ethernet discovery,
// EtherCAT walks the bus. A transient failure (bus temporarily
// unreachable) should be reported via errors.IsTransient-classified errors
// so the breaker governs retry instead of the task aborting.
type Scanner interface {
	Scan() ([]Device, error)
}

// ScanTask periodically invokes a Scanner and reports discovered devices.
type ScanTask struct {
	key        uint64
	Scanner    Scanner
	Period     time.Duration
	Status     *status.Handler
	Breaker    *breaker.Breaker
	OnDiscover func([]Device)

	mu      sync.Mutex
	stop    chan struct{}
	done    chan error
	running bool
}

// NewScanTask builds a ScanTask for the given task key.
func NewScanTask(key uint64, scanner Scanner, period time.Duration, h *status.Handler) *ScanTask {
	return &ScanTask{key: key, Scanner: scanner, Period: period, Status: h}
}

func (t *ScanTask) Key() uint64 { return t.key }

// Exec dispatches start and stop; "scan" forces one probe immediately
// without waiting for the next tick.
func (t *ScanTask) Exec(cmd Command) error {
	switch cmd.Type {
	case "start":
		return t.start(cmd.Key)
	case "stop":
		return t.stopLocked(cmd.Key)
	case "scan":
		return t.probe()
	default:
		return fmt.Errorf("task %d: unsupported scan command %q", t.key, cmd.Type)
	}
}

func (t *ScanTask) start(cmdKey string) error {
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
	if t.Status != nil {
		t.Status.Start(cmdKey)
	}
	go func() { done <- t.run(stop) }()
	return nil
}

func (t *ScanTask) run(stop <-chan struct{}) error {
	period := t.Period
	if period <= 0 {
		period = 30 * time.Second
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return nil
		case <-ticker.C:
			if err := t.probe(); err != nil && !errors.IsTransient(asDriverError(err)) {
				return err
			}
		}
	}
}

func (t *ScanTask) probe() error {
	devices, err := t.Scanner.Scan()
	if err != nil {
		if t.Status != nil {
			t.Status.Warn(err.Error())
		}
		if t.Breaker != nil {
			t.Breaker.Wait()
		}
		return err
	}
	if t.Status != nil {
		t.Status.Clear()
	}
	if t.OnDiscover != nil {
		t.OnDiscover(devices)
	}
	return nil
}

func (t *ScanTask) stopLocked(cmdKey string) error {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return nil
	}
	close(t.stop)
	done := t.done
	t.running = false
	t.mu.Unlock()
	err := <-done
	if t.Status != nil {
		t.Status.Stop(cmdKey)
	}
	return err
}

// Stop tears the task down unconditionally, used by the task manager on
// task_delete.
func (t *ScanTask) Stop() error { return t.stopLocked("") }

// asDriverError best-effort recovers a pkg/errors.Error from a generic
// error, so ScanTask can apply the same transient/fatal classification a
// pipeline would. Scanners that return plain errors are always treated as
// fatal (never auto-retried), which is the safe default.
func asDriverError(err error) errors.Error {
	if de, ok := err.(errors.Error); ok {
		return de
	}
	return errors.Error{}
}
