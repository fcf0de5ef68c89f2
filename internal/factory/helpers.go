package factory

import (
	"fmt"
	"hash/fnv"
)

// subjectForTask names the per-task cluster subject a ReadTask publishes
// its acquired data to.
func subjectForTask(taskKey uint64) string {
	return fmt.Sprintf("task.%d.data", taskKey)
}

// initialTaskKey derives a stable task key for a factory-owned task that
// has no cluster-assigned key (it was never explicitly task_set), by
// hashing the rack key and the task's well-known name together.
func initialTaskKey(rackKey uint32, name string) uint64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	return uint64(rackKey)<<32 | uint64(h.Sum32())
}
