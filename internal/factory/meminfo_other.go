//go:build !linux

package factory

import "fmt"

// readMemoryUsedPercent has no non-Linux implementation: Sysinfo is a
// Linux-specific syscall, and the racks this driver targets run Linux.
func readMemoryUsedPercent() (float64, error) {
	return 0, fmt.Errorf("meminfo: not supported on this platform")
}
