//go:build windows

package rtpolicy

import (
	"fmt"
	"syscall"
	"unsafe"
)

var (
	modkernel32            = syscall.NewLazyDLL("kernel32.dll")
	modavrt                = syscall.NewLazyDLL("avrt.dll")
	procSetThreadPriority   = modkernel32.NewProc("SetThreadPriority")
	procGetCurrentThread    = modkernel32.NewProc("GetCurrentThread")
	procSetThreadAffinity   = modkernel32.NewProc("SetThreadAffinityMask")
	procAvSetMmThreadChars  = modavrt.NewProc("AvSetMmThreadCharacteristicsW")
	procAvSetMmThreadPrio   = modavrt.NewProc("AvSetMmThreadPriority")
)

const (
	threadPriorityTimeCritical = 15
	threadPriorityHighest      = 2
	threadPriorityAboveNormal  = 1
	avrtPriorityCritical       = 2
)

func priorityBand(priority int) int32 {
	switch {
	case priority >= 90:
		return threadPriorityTimeCritical
	case priority >= 70:
		return threadPriorityHighest
	case priority >= 50:
		return threadPriorityAboveNormal
	default:
		return 0 // THREAD_PRIORITY_NORMAL
	}
}

func applyConfig(cfg Config) error {
	handle, _, _ := procGetCurrentThread.Call()

	if cfg.UseMMCSS {
		taskIdx := uint32(0)
		nameUTF16, _ := syscall.UTF16PtrFromString("Pro Audio")
		h, _, _ := procAvSetMmThreadChars.Call(uintptr(unsafe.Pointer(nameUTF16)), uintptr(unsafe.Pointer(&taskIdx)))
		if h != 0 {
			procAvSetMmThreadPrio.Call(h, uintptr(avrtPriorityCritical))
		}
	} else {
		ret, _, _ := procSetThreadPriority.Call(handle, uintptr(priorityBand(cfg.Priority)))
		if ret == 0 {
			return fmt.Errorf("rtpolicy: SetThreadPriority failed")
		}
	}

	if len(cfg.CPUAffinity) > 0 {
		var mask uintptr
		for _, cpu := range cfg.CPUAffinity {
			mask |= 1 << uint(cpu)
		}
		procSetThreadAffinity.Call(handle, mask)
	}

	return nil
}

func probeCapabilities() Capabilities {
	return Capabilities{
		PriorityScheduling: Capability{Supported: true, Permitted: true},
		MMCSS:              Capability{Supported: true, Permitted: true},
		CPUAffinity:        Capability{Supported: true, Permitted: true},
		MemoryLocking:      Capability{Supported: false, Permitted: false},
	}
}
