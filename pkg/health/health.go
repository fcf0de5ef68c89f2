// Copyright (c) 2026 The fieldbridge authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package health turns pkg/rtpolicy's raw scheduling capability probe into
// the human-readable permissions report a rack serves at /healthz, so an
// operator immediately sees whether they need to grant CAP_SYS_NICE, run as
// root, or adjust ulimits before real-time acquisition will actually work.
package health

import (
	"fmt"
	"strings"

	"github.com/fieldbridge/driver/pkg/rtpolicy"
)

// Status is one capability's reported state.
type Status struct {
	Name      string
	Supported bool
	Permitted bool
}

// OK reports whether this capability is both supported by the platform and
// permitted for the current process.
func (s Status) OK() bool {
	return s.Supported && s.Permitted
}

// Advice returns a one-line remediation hint, or "" if the capability is OK.
func (s Status) Advice() string {
	switch {
	case s.OK():
		return ""
	case !s.Supported:
		return fmt.Sprintf("%s is not available on this platform; real-time guarantees will be degraded", s.Name)
	default:
		return fmt.Sprintf("%s is supported but not permitted; grant CAP_SYS_NICE or run with elevated privileges", s.Name)
	}
}

// Report is the full set of real-time capability checks for a rack.
type Report struct {
	Statuses []Status
}

// Probe builds a Report from the platform's current scheduling capabilities.
func Probe() Report {
	caps := rtpolicy.GetCapabilities()
	return Report{Statuses: []Status{
		{Name: "priority scheduling", Supported: caps.PriorityScheduling.Supported, Permitted: caps.PriorityScheduling.Permitted},
		{Name: "deadline scheduling", Supported: caps.DeadlineScheduling.Supported, Permitted: caps.DeadlineScheduling.Permitted},
		{Name: "time-constraint policy", Supported: caps.TimeConstraint.Supported, Permitted: caps.TimeConstraint.Permitted},
		{Name: "MMCSS", Supported: caps.MMCSS.Supported, Permitted: caps.MMCSS.Permitted},
		{Name: "CPU affinity", Supported: caps.CPUAffinity.Supported, Permitted: caps.CPUAffinity.Permitted},
		{Name: "memory locking", Supported: caps.MemoryLocking.Supported, Permitted: caps.MemoryLocking.Permitted},
	}}
}

// Healthy reports whether every capability in the report is OK.
func (r Report) Healthy() bool {
	for _, s := range r.Statuses {
		if !s.OK() {
			return false
		}
	}
	return true
}

// String renders the report as operator-facing text, one line per
// capability that needs attention, or a single all-clear line.
func (r Report) String() string {
	var lines []string
	for _, s := range r.Statuses {
		if advice := s.Advice(); advice != "" {
			lines = append(lines, "- "+advice)
		}
	}
	if len(lines) == 0 {
		return "real-time scheduling: all capabilities available and permitted"
	}
	return "real-time scheduling: degraded\n" + strings.Join(lines, "\n")
}
