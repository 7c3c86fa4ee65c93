package source

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/rfdsp/iqpipe/internal/chunk"
	"github.com/rfdsp/iqpipe/internal/format"
	"github.com/rfdsp/iqpipe/internal/queue"
)

// File is an InputSource backed by a regular file or an already-open
// io.Reader (e.g. os.Stdin for "-").
type File struct {
	path       string
	sampleRate float64
	fmt        format.Format

	reader     io.Reader
	closer     io.Closer
	totalBytes int64 // -1 if unknown (e.g. stdin)

	stopped atomic.Bool
	once    sync.Once
}

// NewFile builds a file-backed InputSource. path may be "-" to read from
// stdin, in which case the total frame count is reported as unknown.
func NewFile(path string, sampleRate float64, fmt format.Format) *File {
	return &File{path: path, sampleRate: sampleRate, fmt: fmt}
}

// Initialize opens the underlying file (or stdin) and fills Info.
func (f *File) Initialize(ctx context.Context) (Info, error) {
	if f.path == "-" {
		f.reader = os.Stdin
		f.totalBytes = -1
		return Info{SampleRate: f.sampleRate, Format: f.fmt, TotalFrames: -1}, nil
	}

	fh, err := os.Open(f.path)
	if err != nil {
		return Info{}, err
	}
	f.reader = fh
	f.closer = fh

	st, err := fh.Stat()
	if err != nil {
		fh.Close()
		return Info{}, err
	}
	f.totalBytes = st.Size()

	bpp := int64(f.fmt.BytesPerPair())
	totalFrames := f.totalBytes / bpp
	return Info{SampleRate: f.sampleRate, Format: f.fmt, TotalFrames: totalFrames}, nil
}

// HasKnownLength reports whether the underlying source is a regular file
// with a known byte length (stdin reports false, spec §6).
func (f *File) HasKnownLength() bool {
	return f.totalBytes >= 0
}

// StartStream reads MAX_FRAMES-sized chunks until EOF or shutdown, then
// enqueues a final is_last_chunk sentinel (spec §6 start_stream contract).
func (f *File) StartStream(ctx context.Context, pool *queue.Pool, rawQ *queue.Queue[*chunk.Chunk]) error {
	bpp := f.fmt.BytesPerPair()

	for {
		if f.stopped.Load() {
			return nil
		}

		c, ok := pool.Get()
		if !ok {
			return nil // pool shut down underneath us
		}

		n, err := io.ReadFull(f.reader, c.RawInput)
		switch {
		case err == nil:
			c.FramesRead = len(c.RawInput) / bpp
			if ok := rawQ.Enqueue(c); !ok {
				pool.Put(c)
				return nil
			}
		case errors.Is(err, io.ErrUnexpectedEOF) && n > 0:
			// A short final read: only the first FramesRead frames of
			// RawInput are valid, the rest of the buffer is stale.
			c.FramesRead = n / bpp
			if ok := rawQ.Enqueue(c); !ok {
				pool.Put(c)
				return nil
			}
			return f.emitSentinel(pool, rawQ)
		case errors.Is(err, io.EOF):
			pool.Put(c)
			return f.emitSentinel(pool, rawQ)
		default:
			pool.Put(c)
			return err
		}
	}
}

func (f *File) emitSentinel(pool *queue.Pool, rawQ *queue.Queue[*chunk.Chunk]) error {
	sentinel, ok := pool.Get()
	if !ok {
		return nil
	}
	sentinel.AsLastChunk()
	rawQ.Enqueue(sentinel)
	return nil
}

// StopStream is idempotent and safe to call from any goroutine; it aborts
// the next blocking read by short-circuiting the loop above.
func (f *File) StopStream() {
	f.stopped.Store(true)
}

// Cleanup releases the file handle, if any (stdin is left open).
func (f *File) Cleanup() error {
	var err error
	f.once.Do(func() {
		if f.closer != nil {
			err = f.closer.Close()
		}
	})
	return err
}
