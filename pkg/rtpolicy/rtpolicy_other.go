//go:build !linux && !darwin && !windows

package rtpolicy

import "fmt"

func applyConfig(cfg Config) error {
	return fmt.Errorf("rtpolicy: real-time scheduling not supported on this platform")
}

func probeCapabilities() Capabilities {
	return Capabilities{}
}
