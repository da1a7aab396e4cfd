package dispatcher

import (
	"github.com/shirou/gopsutil/v3/cpu"
	"golang.org/x/sync/semaphore"
)

// defaultPoolSize sizes the bounded worker pool at 2x logical CPU count,
// falling back to a fixed size if the host's CPU count can't be determined
// (containers with restricted /proc access).
func defaultPoolSize() int64 {
	count, err := cpu.Counts(true)
	if err != nil || count <= 0 {
		return 8
	}
	return int64(count * 2)
}

// newPool builds a counting semaphore bounding concurrent dispatch
// executions.
func newPool(size int64) *semaphore.Weighted {
	if size <= 0 {
		size = defaultPoolSize()
	}
	return semaphore.NewWeighted(size)
}
