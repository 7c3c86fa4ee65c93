package sink

import (
	"io"
	"sync/atomic"
)

// Stdout is the stdout-variant Writer (spec §4.7 "stdout variant"). Any
// short write is treated by the Writer stage as a benign "downstream
// closed" condition, not a fatal error (spec §7).
type Stdout struct {
	w     io.Writer
	total atomic.Uint64
}

// NewStdout wraps w (typically os.Stdout) as a Writer.
func NewStdout(w io.Writer) *Stdout {
	return &Stdout{w: w}
}

// Write writes p to the underlying stream, returning the number of bytes
// actually written. A short write is not itself an error here; callers
// compare the returned count against len(p) (spec §4.7).
func (s *Stdout) Write(p []byte) (int, error) {
	n, err := s.w.Write(p)
	s.total.Add(uint64(n))
	return n, err
}

// TotalBytesWritten returns the cumulative byte count written so far.
func (s *Stdout) TotalBytesWritten() uint64 {
	return s.total.Load()
}
