package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	iqpipe "github.com/rfdsp/iqpipe"
	"github.com/rfdsp/iqpipe/internal/bytering"
	"github.com/rfdsp/iqpipe/internal/chunk"
	"github.com/rfdsp/iqpipe/internal/format"
	"github.com/rfdsp/iqpipe/internal/queue"
)

func TestRunPostProcStdoutVariantEncodesAndForwards(t *testing.T) {
	cfg := baseConfig()
	cfg.InputFormat = format.CF32
	cfg.OutputFormat = format.CF32

	pool := queue.NewPool(4, cfg.ChunkSize, cfg.MaxOutFrames(), 8, 8)
	resQ := queue.New[*chunk.Chunk](4)
	stdoutQ := queue.New[*chunk.Chunk](4)

	c, ok := pool.Get()
	require.True(t, ok)
	c.FramesToWrite = 3
	c.ComplexResampled[0] = 1
	c.ComplexResampled[1] = 2
	c.ComplexResampled[2] = 3
	require.True(t, resQ.Enqueue(c))

	sentinel, ok := pool.Get()
	require.True(t, ok)
	sentinel.AsLastChunk()
	require.True(t, resQ.Enqueue(sentinel))

	p := newPostProc(cfg)
	runPostProc(p, resQ, stdoutQ, nil, pool, iqpipe.NewProgress(), testLogger())

	got, ok := stdoutQ.Dequeue()
	require.True(t, ok)
	assert.Equal(t, 3, got.FramesToWrite)

	last, ok := stdoutQ.Dequeue()
	require.True(t, ok)
	assert.True(t, last.IsLastChunk)
}

func TestRunPostProcFileVariantWritesRingAndSignalsEndOfStream(t *testing.T) {
	cfg := baseConfig()
	cfg.InputFormat = format.CF32
	cfg.OutputFormat = format.CF32

	pool := queue.NewPool(4, cfg.ChunkSize, cfg.MaxOutFrames(), 8, 8)
	resQ := queue.New[*chunk.Chunk](4)
	ring := bytering.New(1 << 16)

	c, ok := pool.Get()
	require.True(t, ok)
	c.FramesToWrite = 2
	c.ComplexResampled[0] = 1
	c.ComplexResampled[1] = 2
	require.True(t, resQ.Enqueue(c))

	sentinel, ok := pool.Get()
	require.True(t, ok)
	sentinel.AsLastChunk()
	require.True(t, resQ.Enqueue(sentinel))

	p := newPostProc(cfg)
	runPostProc(p, resQ, nil, ring, pool, iqpipe.NewProgress(), testLogger())

	buf := make([]byte, 64)
	n := ring.Read(buf)
	assert.Equal(t, 2*8, n)

	n = ring.Read(buf)
	assert.Equal(t, 0, n, "ring must report end-of-stream once drained")
}
