package iqpipe

import (
	"context"
	"sync"

	"github.com/rfdsp/iqpipe/internal/chunk"
	"github.com/rfdsp/iqpipe/internal/format"
	"github.com/rfdsp/iqpipe/internal/queue"
	"github.com/rfdsp/iqpipe/internal/sink"
	"github.com/rfdsp/iqpipe/internal/source"
)

// MockInputSource is a mock implementation of source.InputSource for
// testing callers of the pipeline without a real file or device. It
// replays a fixed slice of samples, optionally failing StartStream, and
// tracks method call counts for verification.
type MockInputSource struct {
	Samples     []complex64
	Rate        float64
	Format      format.Format
	TotalFrames int64
	StartErr    error

	mu            sync.Mutex
	initCalls     int
	startCalls    int
	stopCalls     int
	cleanupCalls  int
	stopRequested bool
}

// NewMockInputSource builds a MockInputSource that replays samples.
func NewMockInputSource(samples []complex64, rate float64, fmt format.Format) *MockInputSource {
	return &MockInputSource{
		Samples:     samples,
		Rate:        rate,
		Format:      fmt,
		TotalFrames: int64(len(samples)),
	}
}

// Initialize implements source.InputSource.
func (m *MockInputSource) Initialize(ctx context.Context) (source.Info, error) {
	m.mu.Lock()
	m.initCalls++
	m.mu.Unlock()
	return source.Info{SampleRate: m.Rate, Format: m.Format, TotalFrames: m.TotalFrames}, nil
}

// StartStream implements source.InputSource: it encodes Samples into
// pool-sized chunks and enqueues them, then emits the end-of-stream
// sentinel, exactly like a real InputSource (spec §6).
func (m *MockInputSource) StartStream(ctx context.Context, pool *queue.Pool, rawQ *queue.Queue[*chunk.Chunk]) error {
	m.mu.Lock()
	m.startCalls++
	startErr := m.StartErr
	m.mu.Unlock()

	if startErr != nil {
		return startErr
	}

	maxFrames := pool.MaxFrames()
	offset := 0
	for offset < len(m.Samples) {
		m.mu.Lock()
		stopped := m.stopRequested
		m.mu.Unlock()
		if stopped {
			return nil
		}

		c, ok := pool.Get()
		if !ok {
			return nil
		}
		n := maxFrames
		if remaining := len(m.Samples) - offset; n > remaining {
			n = remaining
		}
		m.Format.Encode(m.Samples[offset:offset+n], n, c.RawInput)
		c.FramesRead = n
		offset += n
		if !rawQ.Enqueue(c) {
			pool.Put(c)
			return nil
		}
	}

	sentinel, ok := pool.Get()
	if !ok {
		return nil
	}
	sentinel.AsLastChunk()
	rawQ.Enqueue(sentinel)
	return nil
}

// StopStream implements source.InputSource.
func (m *MockInputSource) StopStream() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopCalls++
	m.stopRequested = true
}

// Cleanup implements source.InputSource.
func (m *MockInputSource) Cleanup() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleanupCalls++
	return nil
}

// HasKnownLength implements source.InputSource.
func (m *MockInputSource) HasKnownLength() bool {
	return m.TotalFrames >= 0
}

// CallCounts reports how many times each method has been invoked, for
// assertions in caller tests.
func (m *MockInputSource) CallCounts() map[string]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return map[string]int{
		"initialize": m.initCalls,
		"start":      m.startCalls,
		"stop":       m.stopCalls,
		"cleanup":    m.cleanupCalls,
	}
}

var _ source.InputSource = (*MockInputSource)(nil)

// MockWriter is a mock implementation of sink.Writer for testing. It
// accumulates written bytes and can be configured to simulate a short
// write or a hard error on demand.
type MockWriter struct {
	ShortWriteAt int // byte offset (cumulative) at which to start short-writing; 0 disables
	WriteErr     error

	mu      sync.Mutex
	written []byte
	total   uint64
	calls   int
}

// NewMockWriter builds an empty MockWriter.
func NewMockWriter() *MockWriter {
	return &MockWriter{}
}

// Write implements sink.Writer.
func (m *MockWriter) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.WriteErr != nil {
		return 0, m.WriteErr
	}

	n := len(p)
	if m.ShortWriteAt > 0 && int(m.total)+n > m.ShortWriteAt {
		n = m.ShortWriteAt - int(m.total)
		if n < 0 {
			n = 0
		}
	}
	m.written = append(m.written, p[:n]...)
	m.total += uint64(n)
	return n, nil
}

// TotalBytesWritten implements sink.Writer.
func (m *MockWriter) TotalBytesWritten() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.total
}

// Written returns a copy of every byte accepted so far.
func (m *MockWriter) Written() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]byte, len(m.written))
	copy(out, m.written)
	return out
}

// CallCount returns the number of Write calls made.
func (m *MockWriter) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

var _ sink.Writer = (*MockWriter)(nil)
