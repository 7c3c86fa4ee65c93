package dsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFIRSymmetricImpulseResponse(t *testing.T) {
	half := []float32{0.25, 0.5} // taps = [0.25, 0.5, 0.5, 0.25], len 4
	f := NewFIRSymmetric(half, 4)

	input := make([]complex64, 8)
	input[0] = 1
	dst := make([]complex64, 8)
	f.Process(input, dst, len(input))

	require.Len(t, dst, 8)
	assert.InDelta(t, 0.25, real(dst[0]), 1e-6)
	assert.InDelta(t, 0.5, real(dst[1]), 1e-6)
	assert.InDelta(t, 0.5, real(dst[2]), 1e-6)
	assert.InDelta(t, 0.25, real(dst[3]), 1e-6)
	for i := 4; i < 8; i++ {
		assert.InDelta(t, 0, real(dst[i]), 1e-6)
	}
}

func TestFIRHistoryCarriesAcrossChunks(t *testing.T) {
	half := []float32{0.25, 0.5} // effective taps [0.25, 0.5, 0.5, 0.25]
	f := NewFIRSymmetric(half, 4)

	chunk1 := []complex64{0, 0, 0, 1} // impulse at the very end of chunk 1
	out1 := make([]complex64, 4)
	f.Process(chunk1, out1, 4)
	assert.InDelta(t, 0.25, real(out1[3]), 1e-6)

	chunk2 := []complex64{0, 0, 0, 0}
	out2 := make([]complex64, 4)
	f.Process(chunk2, out2, 4)

	// The impulse's tail spills into the next chunk purely via history.
	assert.InDelta(t, 0.5, real(out2[0]), 1e-6)
	assert.InDelta(t, 0.5, real(out2[1]), 1e-6)
	assert.InDelta(t, 0.25, real(out2[2]), 1e-6)
	assert.InDelta(t, 0, real(out2[3]), 1e-6)
}

func TestFIRResetClearsHistory(t *testing.T) {
	half := []float32{0.5}
	f := NewFIRSymmetric(half, 2)
	chunk := []complex64{1, 1, 1, 1}
	out := make([]complex64, 4)
	f.Process(chunk, out, 4)
	f.Reset()
	for _, h := range f.history {
		assert.Equal(t, complex64(0), h)
	}
}
