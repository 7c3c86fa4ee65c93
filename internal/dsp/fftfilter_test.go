package dsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFFTFilterBlockSize(t *testing.T) {
	f := NewFFTFilterSymmetric([]float32{0.5}, 2, 64)
	assert.Equal(t, 64, f.BlockSize())
	assert.Equal(t, 0, f.RemainderLen())
}

func TestFFTFilterAccumulatesPartialBlocks(t *testing.T) {
	f := NewFFTFilterSymmetric([]float32{0.5}, 2, 64)

	input := make([]complex64, 40)
	out := make([]complex64, 128)
	n := f.ProcessChunk(input, len(input), out)

	assert.Equal(t, 0, n, "a sub-block chunk should produce no output yet")
	assert.Equal(t, 40, f.RemainderLen())
}

func TestFFTFilterEmitsOnceBlockFills(t *testing.T) {
	f := NewFFTFilterSymmetric([]float32{0.5}, 2, 64)
	out := make([]complex64, 256)

	n1 := f.ProcessChunk(make([]complex64, 40), 40, out)
	require.Equal(t, 0, n1)

	n2 := f.ProcessChunk(make([]complex64, 30), 30, out)
	assert.Equal(t, 64, n2, "remainder + new input crossed one block boundary")
	assert.Equal(t, 6, f.RemainderLen(), "the 6 leftover samples stay buffered")
}

func TestFFTFilterProcessesMultipleFullBlocksInOneChunk(t *testing.T) {
	f := NewFFTFilterSymmetric([]float32{0.5}, 2, 64)
	out := make([]complex64, 256)

	n := f.ProcessChunk(make([]complex64, 150), 150, out)
	assert.Equal(t, 128, n, "two full blocks of 64")
	assert.Equal(t, 22, f.RemainderLen())
}

func TestFFTFilterFlushZeroPadsRemainder(t *testing.T) {
	f := NewFFTFilterSymmetric([]float32{0.5}, 2, 64)
	out := make([]complex64, 256)

	f.ProcessChunk(make([]complex64, 10), 10, out)
	require.Equal(t, 10, f.RemainderLen())

	n := f.FlushAtEndOfStream(out)
	assert.Equal(t, 64, n)
	assert.Equal(t, 0, f.RemainderLen())
}

func TestFFTFilterFlushIsNoOpWhenRemainderEmpty(t *testing.T) {
	f := NewFFTFilterSymmetric([]float32{0.5}, 2, 64)
	out := make([]complex64, 256)
	n := f.FlushAtEndOfStream(out)
	assert.Equal(t, 0, n)
}

func TestFFTFilterResetClearsRemainderAndTail(t *testing.T) {
	f := NewFFTFilterSymmetric([]float32{0.5, 0.25}, 4, 64)
	out := make([]complex64, 256)
	f.ProcessChunk(make([]complex64, 70), 70, out)
	require.Greater(t, f.RemainderLen(), 0)

	f.Reset()
	assert.Equal(t, 0, f.RemainderLen())
	for _, v := range f.overlapTail {
		assert.Equal(t, complex64(0), v)
	}
}

func TestFFTFilterDCGainPassesThroughLowpass(t *testing.T) {
	// A normalized low-pass impulse response should pass a DC input through
	// at roughly unity gain once the overlap-save pipeline has filled.
	half := []float32{0.05, 0.1, 0.15, 0.2}
	f := NewFFTFilterSymmetric(half, 8, 32)
	out := make([]complex64, 128)

	dc := make([]complex64, 32)
	for i := range dc {
		dc[i] = 1
	}
	// Prime the overlap history with a few blocks of steady DC.
	f.ProcessChunk(dc, len(dc), out)
	f.ProcessChunk(dc, len(dc), out)
	n := f.ProcessChunk(dc, len(dc), out)
	require.Equal(t, 32, n)

	sum := float32(0)
	for _, v := range out[8:n] {
		sum += real(v)
	}
	mean := sum / float32(n-8)
	assert.InDelta(t, 1.0, float64(mean), 0.2)
}
