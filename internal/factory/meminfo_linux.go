//go:build linux

package factory

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// readMemoryUsedPercent reports the percentage (0-100) of physical RAM in use, per
// unix.Sysinfo. Mirrors the Linux branch of pkg/rtpolicy's build-tag split.
func readMemoryUsedPercent() (float64, error) {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return 0, fmt.Errorf("meminfo: sysinfo: %w", err)
	}
	total := float64(info.Totalram) * float64(info.Unit)
	if total == 0 {
		return 0, fmt.Errorf("meminfo: reported zero total memory")
	}
	free := float64(info.Freeram) * float64(info.Unit)
	return (total - free) / total * 100, nil
}
