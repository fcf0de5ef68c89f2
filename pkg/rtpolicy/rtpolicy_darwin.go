//go:build darwin

package rtpolicy

import "fmt"

// macOS scheduling lives behind the Mach thread-policy APIs
// (thread_policy_set with THREAD_TIME_CONSTRAINT_POLICY / precedence
// policy, plus QoS classes), which cgo must reach — cgo is unavailable in
// this build, so this target reports support without being able to act,
// matching spec.md's "Non-goals: no guarantees beyond soft-real-time on
// general-purpose OSes" and §4.17's supported-but-unpermitted reporting
// path.
func applyConfig(cfg Config) error {
	return fmt.Errorf("rtpolicy: darwin real-time scheduling requires cgo, not available in this build")
}

func probeCapabilities() Capabilities {
	return Capabilities{
		PriorityScheduling: Capability{Supported: true, Permitted: false},
		TimeConstraint:     Capability{Supported: true, Permitted: false},
		CPUAffinity:        Capability{Supported: false, Permitted: false},
		MemoryLocking:      Capability{Supported: true, Permitted: false},
	}
}
