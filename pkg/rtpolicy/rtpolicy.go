// Copyright (c) 2026 The fieldbridge authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package rtpolicy applies and reports real-time scheduling capabilities for
// the threads driving a task's hot loop (acquisition reads, the arc
// scheduler). Behavior is platform-specific; this file holds the
// cross-platform configuration and capability types, with the actual
// syscalls in rtpolicy_linux.go / rtpolicy_darwin.go / rtpolicy_windows.go /
// rtpolicy_other.go (the fallback for unsupported platforms).
package rtpolicy

import "time"

// Config is a per-thread real-time scheduling request.
type Config struct {
	Enabled bool
	// Priority is 1-99 (POSIX real-time priority band); interpreted
	// per-platform.
	Priority int
	// CPUAffinity lists CPU indices the thread should be pinned to; nil
	// means no affinity request.
	CPUAffinity []int
	LockMemory  bool

	// Period/Computation/Deadline describe a deadline-scheduled task
	// (SCHED_DEADLINE on Linux, a time-constraint policy on macOS).
	// Zero Period means "not a deadline task".
	Period      time.Duration
	Computation time.Duration
	Deadline    time.Duration

	PreferDeadlineScheduler bool
	// UseMMCSS requests enrollment into Windows MMCSS "Pro Audio" at
	// critical priority.
	UseMMCSS bool
}

// HasTiming reports whether cfg carries enough information to request
// deadline/time-constraint scheduling.
func (c Config) HasTiming() bool {
	return c.Period > 0 && c.Computation > 0
}

// Capability describes one platform real-time feature: whether the kernel
// supports it at all, and whether this process is currently permitted to
// use it (capabilities/limits/entitlements notwithstanding support).
type Capability struct {
	Supported bool
	Permitted bool
}

// Capabilities is the full probe result returned by GetCapabilities.
type Capabilities struct {
	PriorityScheduling Capability
	DeadlineScheduling Capability
	TimeConstraint     Capability
	MMCSS              Capability
	CPUAffinity        Capability
	MemoryLocking      Capability
}

// ApplyConfig applies cfg to the calling OS thread. Callers must invoke
// this from the goroutine that will run the hot loop and must have pinned
// that goroutine to its OS thread via runtime.LockOSThread first — Go's
// scheduler otherwise migrates goroutines across threads, silently
// discarding any thread-local scheduling policy.
func ApplyConfig(cfg Config) error {
	if !cfg.Enabled {
		return nil
	}
	return applyConfig(cfg)
}

// GetCapabilities probes every real-time feature non-destructively. The
// result is cached after the first call since capabilities do not change
// over a process's lifetime.
func GetCapabilities() Capabilities {
	capOnce.Do(func() {
		cachedCapabilities = probeCapabilities()
	})
	return cachedCapabilities
}
