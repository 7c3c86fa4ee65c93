// Package source provides the InputSource interface (spec §6) plus the two
// concrete implementations this repo ships: a file reader and a synthetic
// tone generator used for tests and demos (SPEC_FULL.md §C.1).
package source

import (
	"context"

	"github.com/rfdsp/iqpipe/internal/chunk"
	"github.com/rfdsp/iqpipe/internal/format"
	"github.com/rfdsp/iqpipe/internal/queue"
)

// Info describes the properties an InputSource discovers at Initialize time
// (spec §6 "fills source_info").
type Info struct {
	SampleRate  float64
	Format      format.Format
	TotalFrames int64 // -1 if unknown/live (spec §6 has_known_length)
}

// InputSource is the external-collaborator interface the Reader stage
// drives (spec §6). Implementations own a device or file handle and produce
// chunks onto rawQ until a clean end-of-stream or a shutdown request.
type InputSource interface {
	// Initialize opens the device/file and fills Info.
	Initialize(ctx context.Context) (Info, error)

	// StartStream runs on the Reader's goroutine: it dequeues free chunks
	// from pool, fills RawInput, sets FramesRead and
	// StreamDiscontinuity, and enqueues onto rawQ. It must terminate
	// either by enqueueing a final IsLastChunk sentinel and returning, or
	// by observing shutdown via rawQ's shutdown signal.
	StartStream(ctx context.Context, pool *queue.Pool, rawQ *queue.Queue[*chunk.Chunk]) error

	// StopStream aborts a blocking read; safe to call from any goroutine,
	// idempotent.
	StopStream()

	// Cleanup releases device/file handles.
	Cleanup() error

	// HasKnownLength reports whether Info.TotalFrames is meaningful,
	// driving the progress display mode (SPEC_FULL.md §C.3).
	HasKnownLength() bool
}
