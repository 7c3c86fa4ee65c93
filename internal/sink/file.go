package sink

import (
	"io"
	"os"
	"sync/atomic"
)

// File is the file-variant Writer (spec §4.7 "file variant"). The Writer
// stage drains the ByteRing and hands blocks here; any short write is
// treated as fatal (spec §7).
type File struct {
	f     *os.File
	total atomic.Uint64
}

// NewFile creates (truncating) the file at path for writing.
func NewFile(path string) (*File, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &File{f: f}, nil
}

// Write writes p to the file, returning the number of bytes actually
// written.
func (s *File) Write(p []byte) (int, error) {
	n, err := s.f.Write(p)
	s.total.Add(uint64(n))
	return n, err
}

// TotalBytesWritten returns the cumulative byte count written so far.
func (s *File) TotalBytesWritten() uint64 {
	return s.total.Load()
}

// Close flushes and closes the underlying file.
func (s *File) Close() error {
	return s.f.Close()
}

var _ io.Writer = (*File)(nil)
