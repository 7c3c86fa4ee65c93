package dsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNCOZeroShiftIsIdentity(t *testing.T) {
	n := NewNCO(0, 1_000_000)
	buf := []complex64{1 + 2i, 3 - 1i}
	n.MixInPlace(buf, 2)
	assert.Equal(t, complex64(1+2i), buf[0])
	assert.Equal(t, complex64(3-1i), buf[1])
}

func TestNCOResetReturnsToPhaseZero(t *testing.T) {
	n := NewNCO(1000, 48000)
	buf := make([]complex64, 100)
	for i := range buf {
		buf[i] = 1
	}
	n.MixInPlace(buf, len(buf))
	n.Reset()

	out := []complex64{1}
	n.MixInPlace(out, 1)
	assert.InDelta(t, 1.0, real(out[0]), 1e-6)
	assert.InDelta(t, 0.0, imag(out[0]), 1e-6)
}
