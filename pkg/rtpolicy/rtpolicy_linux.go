//go:build linux

package rtpolicy

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// schedAttr mirrors struct sched_attr from <linux/sched/types.h>, used with
// the sched_setattr(2) syscall to request SCHED_DEADLINE. golang.org/x/sys
// does not wrap sched_setattr directly, so the struct and raw syscall are
// defined here.
type schedAttr struct {
	size     uint32
	policy   uint32
	flags    uint64
	nice     int32
	priority uint32
	runtime  uint64
	deadline uint64
	period   uint64
}

const schedDeadline = 6

func sysSchedSetattr(attr *schedAttr) error {
	_, _, errno := unix.Syscall(unix.SYS_SCHED_SETATTR, 0, uintptr(unsafe.Pointer(attr)), 0)
	if errno != 0 {
		return errno
	}
	return nil
}

func applyConfig(cfg Config) error {
	if cfg.PreferDeadlineScheduler && cfg.HasTiming() {
		attr := schedAttr{
			size:     uint32(unsafe.Sizeof(schedAttr{})),
			policy:   schedDeadline,
			runtime:  uint64(cfg.Computation.Nanoseconds()),
			deadline: uint64(cfg.Deadline.Nanoseconds()),
			period:   uint64(cfg.Period.Nanoseconds()),
		}
		if err := sysSchedSetattr(&attr); err == nil {
			return applyAffinityAndMemlock(cfg)
		}
		// fall through to SCHED_FIFO below
	}

	param := unix.SchedParam{Priority: int32(cfg.Priority)}
	if err := unix.SchedSetscheduler(0, unix.SCHED_FIFO, &param); err != nil {
		return fmt.Errorf("rtpolicy: SCHED_FIFO priority %d: %w", cfg.Priority, err)
	}
	return applyAffinityAndMemlock(cfg)
}

func applyAffinityAndMemlock(cfg Config) error {
	if len(cfg.CPUAffinity) > 0 {
		var set unix.CPUSet
		set.Zero()
		for _, cpu := range cfg.CPUAffinity {
			set.Set(cpu)
		}
		if err := unix.SchedSetaffinity(0, &set); err != nil {
			return fmt.Errorf("rtpolicy: set cpu affinity: %w", err)
		}
	}
	if cfg.LockMemory {
		if err := unix.Mlockall(unix.MCL_CURRENT | unix.MCL_FUTURE); err != nil {
			return fmt.Errorf("rtpolicy: mlockall: %w", err)
		}
	}
	return nil
}

func probeCapabilities() Capabilities {
	var c Capabilities

	c.PriorityScheduling.Supported = true
	param := unix.SchedParam{Priority: 1}
	if err := unix.SchedSetscheduler(0, unix.SCHED_FIFO, &param); err == nil {
		c.PriorityScheduling.Permitted = true
		_ = restoreNormalScheduler()
	}

	c.DeadlineScheduling.Supported = true
	probe := schedAttr{
		size:     uint32(unsafe.Sizeof(schedAttr{})),
		policy:   schedDeadline,
		runtime:  1_000_000,
		deadline: 10_000_000,
		period:   10_000_000,
	}
	if err := sysSchedSetattr(&probe); err == nil {
		c.DeadlineScheduling.Permitted = true
		_ = restoreNormalScheduler()
	}

	c.CPUAffinity.Supported = true
	var set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &set); err == nil {
		c.CPUAffinity.Permitted = true
	}

	c.MemoryLocking.Supported = true
	if err := unix.Mlockall(unix.MCL_CURRENT); err == nil {
		c.MemoryLocking.Permitted = true
		_ = unix.Munlockall()
	}

	// macOS/Windows-only features are unsupported here.
	c.TimeConstraint = Capability{}
	c.MMCSS = Capability{}

	return c
}

func restoreNormalScheduler() error {
	param := unix.SchedParam{Priority: 0}
	return unix.SchedSetscheduler(0, unix.SCHED_OTHER, &param)
}
