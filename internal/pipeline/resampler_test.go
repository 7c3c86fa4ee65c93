package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rfdsp/iqpipe/internal/chunk"
	"github.com/rfdsp/iqpipe/internal/format"
	"github.com/rfdsp/iqpipe/internal/queue"
)

func TestRunResamplerUnityRatioCopiesSamples(t *testing.T) {
	cfg := baseConfig()
	cfg.InputFormat = format.CF32
	cfg.OutputFormat = format.CF32

	pool := queue.NewPool(4, cfg.ChunkSize, cfg.MaxOutFrames(), 8, 8)
	preQ := queue.New[*chunk.Chunk](4)
	resQ := queue.New[*chunk.Chunk](4)

	c, ok := pool.Get()
	require.True(t, ok)
	c.FramesRead = 4
	for i := range c.ComplexPreResample[:4] {
		c.ComplexPreResample[i] = complex(float32(i), float32(-i))
	}
	require.True(t, preQ.Enqueue(c))

	sentinel, ok := pool.Get()
	require.True(t, ok)
	sentinel.AsLastChunk()
	require.True(t, preQ.Enqueue(sentinel))

	runResampler(cfg, preQ, resQ, pool)

	got, ok := resQ.Dequeue()
	require.True(t, ok)
	assert.Equal(t, 4, got.FramesToWrite)
	assert.Equal(t, c.ComplexPreResample[:4], got.ComplexResampled[:4])

	last, ok := resQ.Dequeue()
	require.True(t, ok)
	assert.True(t, last.IsLastChunk)
}

func TestRunResamplerUpsamplingExpandsFrameCount(t *testing.T) {
	cfg := baseConfig()
	cfg.InputFormat = format.CF32
	cfg.OutputFormat = format.CF32
	cfg.OutputRate = cfg.InputRate * 2

	pool := queue.NewPool(4, cfg.ChunkSize, cfg.MaxOutFrames(), 8, 8)
	preQ := queue.New[*chunk.Chunk](4)
	resQ := queue.New[*chunk.Chunk](4)

	c, ok := pool.Get()
	require.True(t, ok)
	c.FramesRead = 64
	for i := range c.ComplexPreResample[:64] {
		c.ComplexPreResample[i] = complex(float32(i%8), float32(-(i % 8)))
	}
	require.True(t, preQ.Enqueue(c))

	sentinel, ok := pool.Get()
	require.True(t, ok)
	sentinel.AsLastChunk()
	require.True(t, preQ.Enqueue(sentinel))

	runResampler(cfg, preQ, resQ, pool)

	got, ok := resQ.Dequeue()
	require.True(t, ok)
	assert.Greater(t, got.FramesToWrite, 64)
}

func TestRunResamplerDiscontinuityResetsResamplerState(t *testing.T) {
	cfg := baseConfig()
	cfg.InputFormat = format.CF32
	cfg.OutputFormat = format.CF32
	cfg.OutputRate = cfg.InputRate / 2

	pool := queue.NewPool(4, cfg.ChunkSize, cfg.MaxOutFrames(), 8, 8)
	preQ := queue.New[*chunk.Chunk](4)
	resQ := queue.New[*chunk.Chunk](4)

	disc, ok := pool.Get()
	require.True(t, ok)
	disc.AsDiscontinuity()
	require.True(t, preQ.Enqueue(disc))

	sentinel, ok := pool.Get()
	require.True(t, ok)
	sentinel.AsLastChunk()
	require.True(t, preQ.Enqueue(sentinel))

	runResampler(cfg, preQ, resQ, pool)

	got, ok := resQ.Dequeue()
	require.True(t, ok)
	assert.True(t, got.StreamDiscontinuity)
}
