package source

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rfdsp/iqpipe/internal/chunk"
	"github.com/rfdsp/iqpipe/internal/format"
	"github.com/rfdsp/iqpipe/internal/queue"
)

func TestSynthInitializeReportsConfiguredInfo(t *testing.T) {
	s := NewSynth(1000, 48000, 100, 1)
	info, err := s.Initialize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 48000.0, info.SampleRate)
	assert.Equal(t, format.CF32, info.Format)
	assert.Equal(t, int64(100), info.TotalFrames)
}

func TestSynthHasKnownLength(t *testing.T) {
	assert.True(t, NewSynth(1000, 48000, 100, 1).HasKnownLength())
	assert.False(t, NewSynth(1000, 48000, -1, 1).HasKnownLength())
}

func TestSynthStartStreamEmitsExactFrameCountThenSentinel(t *testing.T) {
	pool := queue.NewPool(4, 64, 64, 8, 8)
	rawQ := queue.New[*chunk.Chunk](8)
	s := NewSynth(1000, 48000, 100, 1)
	err := s.StartStream(context.Background(), pool, rawQ)
	require.NoError(t, err)

	var totalFrames int
	var sawSentinel bool
	for {
		c, ok := rawQ.TryDequeue()
		if !ok {
			break
		}
		if c.IsLastChunk {
			sawSentinel = true
			break
		}
		totalFrames += c.FramesRead
		pool.Put(c)
	}
	assert.Equal(t, 100, totalFrames)
	assert.True(t, sawSentinel)
}

func TestSynthStopStreamHaltsEmission(t *testing.T) {
	pool := queue.NewPool(4, 64, 64, 8, 8)
	rawQ := queue.New[*chunk.Chunk](8)
	s := NewSynth(1000, 48000, -1, 1)
	s.StopStream()

	err := s.StartStream(context.Background(), pool, rawQ)
	require.NoError(t, err)
	_, ok := rawQ.TryDequeue()
	assert.False(t, ok, "a pre-stopped synth source should emit nothing")
}

func TestSynthCleanupIsNoOp(t *testing.T) {
	s := NewSynth(1000, 48000, 10, 1)
	assert.NoError(t, s.Cleanup())
}
