//go:build !linux

package pipeline

// pinReaderThread is a no-op on platforms without unix.SchedSetaffinity
// (SPEC_FULL.md §C.5); CPU affinity is never load-bearing for correctness.
func pinReaderThread(logger interface{ Warnf(string, ...any) }, cpu int) {}
