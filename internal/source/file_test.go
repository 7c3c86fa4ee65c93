package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rfdsp/iqpipe/internal/chunk"
	"github.com/rfdsp/iqpipe/internal/format"
	"github.com/rfdsp/iqpipe/internal/queue"
)

func writeCF32File(t *testing.T, pairs int) string {
	t.Helper()
	samples := make([]complex64, pairs)
	for i := range samples {
		samples[i] = complex(float32(i), float32(-i))
	}
	raw := make([]byte, pairs*8)
	format.CF32.Encode(samples, pairs, raw)

	path := filepath.Join(t.TempDir(), "input.cf32")
	require.NoError(t, os.WriteFile(path, raw, 0o644))
	return path
}

func TestFileInitializeReportsFrameCount(t *testing.T) {
	path := writeCF32File(t, 100)
	f := NewFile(path, 48000, format.CF32)
	info, err := f.Initialize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(100), info.TotalFrames)
	assert.True(t, f.HasKnownLength())
}

func TestFileStdinReportsUnknownLength(t *testing.T) {
	f := NewFile("-", 48000, format.CF32)
	_, err := f.Initialize(context.Background())
	require.NoError(t, err)
	assert.False(t, f.HasKnownLength())
}

func TestFileStartStreamEmitsAllFramesThenSentinel(t *testing.T) {
	path := writeCF32File(t, 150) // spans two 64-frame chunks + a short tail
	f := NewFile(path, 48000, format.CF32)
	_, err := f.Initialize(context.Background())
	require.NoError(t, err)

	pool := queue.NewPool(4, 64, 64, 8, 8)
	rawQ := queue.New[*chunk.Chunk](8)

	require.NoError(t, f.StartStream(context.Background(), pool, rawQ))

	var total int
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
		total += c.FramesRead
		pool.Put(c)
	}
	assert.Equal(t, 150, total)
	assert.True(t, sawSentinel)
}

func TestFileInitializeMissingFileErrors(t *testing.T) {
	f := NewFile(filepath.Join(t.TempDir(), "nope.cf32"), 48000, format.CF32)
	_, err := f.Initialize(context.Background())
	assert.Error(t, err)
}

func TestFileCleanupClosesHandle(t *testing.T) {
	path := writeCF32File(t, 10)
	f := NewFile(path, 48000, format.CF32)
	_, err := f.Initialize(context.Background())
	require.NoError(t, err)
	assert.NoError(t, f.Cleanup())
}
