package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rfdsp/iqpipe/internal/chunk"
	"github.com/rfdsp/iqpipe/internal/queue"
	"github.com/rfdsp/iqpipe/internal/source"
)

func TestRunReaderMarksEndOfStreamOnCleanFinish(t *testing.T) {
	pool := queue.NewPool(4, 16, 16, 8, 8)
	rawQ := queue.New[*chunk.Chunk](4)
	coord := newCoordinator(testLogger(), rawQ)
	src := source.NewSynth(1000, 48000, 16, 1)

	done := make(chan struct{})
	go func() {
		runReader(context.Background(), baseConfig(), src, pool, rawQ, coord)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("runReader never returned")
	}

	assert.True(t, coord.EndOfStreamReached())
	assert.True(t, coord.ShuttingDown())
	assert.False(t, coord.HasError())
}

type failingSource struct{ source.InputSource }

func (f *failingSource) StartStream(ctx context.Context, pool *queue.Pool, rawQ *queue.Queue[*chunk.Chunk]) error {
	return errors.New("device vanished")
}

func TestRunReaderFatalsOnStartStreamError(t *testing.T) {
	pool := queue.NewPool(4, 16, 16, 8, 8)
	rawQ := queue.New[*chunk.Chunk](4)
	coord := newCoordinator(testLogger(), rawQ)

	runReader(context.Background(), baseConfig(), &failingSource{}, pool, rawQ, coord)

	require.True(t, coord.HasError())
	assert.False(t, coord.EndOfStreamReached())
	assert.Equal(t, 2, coord.ExitCode())
}
