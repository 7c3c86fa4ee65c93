//go:build linux

package pipeline

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// pinReaderThread locks the calling goroutine to its current OS thread and
// restricts that thread to cpu (SPEC_FULL.md §C.5). It is a best-effort
// hint: correctness never depends on it, so any syscall failure is simply
// ignored. Call it as the first statement of the Reader stage's goroutine,
// before it touches the InputSource.
func pinReaderThread(logger interface{ Warnf(string, ...any) }, cpu int) {
	runtime.LockOSThread()

	var mask unix.CPUSet
	mask.Set(cpu)
	if err := unix.SchedSetaffinity(0, &mask); err != nil {
		logger.Warnf("CPU affinity hint failed, continuing unpinned: %v", err)
	}
}
