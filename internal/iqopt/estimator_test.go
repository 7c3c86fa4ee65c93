package iqopt

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEstimatorStartsAtIdentity(t *testing.T) {
	e := New()
	p := e.ActiveParams()
	assert.Equal(t, float32(0), p.Magnitude)
	assert.Equal(t, float32(0), p.Phase)
}

func TestProcessBlockRejectsWrongLength(t *testing.T) {
	e := New()
	assert.Panics(t, func() {
		e.ProcessBlock(make([]complex64, 10))
	})
}

func TestProcessBlockOnSilenceDoesNotPublish(t *testing.T) {
	e := New()
	block := make([]complex64, fftSize) // all zero: no signal
	e.ProcessBlock(block)

	p := e.ActiveParams()
	assert.Equal(t, float32(0), p.Magnitude)
	assert.Equal(t, float32(0), p.Phase)
}

func TestProcessBlockOnStrongSignalPublishesUpdate(t *testing.T) {
	e := New()
	block := make([]complex64, fftSize)
	for i := range block {
		theta := 2 * math.Pi * 7 * float64(i) / float64(fftSize)
		block[i] = complex64(complex(math.Cos(theta), math.Sin(theta)*1.3)) // imbalanced tone
	}

	e.ProcessBlock(block)
	p := e.ActiveParams()
	// Smoothing guarantees the update moves only a small, bounded step
	// away from the identity starting point.
	assert.LessOrEqual(t, math.Abs(float64(p.Magnitude)), smoothingAlpha*maxHillClimbPasses*baseIncrement+1e-6)
}

func TestInnerBinRangeDiscardsOuterFivePercentEachSide(t *testing.T) {
	lo, hi := innerBinRange(1000)
	assert.Equal(t, 50, lo)
	assert.Equal(t, 950, hi)
}

func TestToDBOfZeroIsNegativeInfinity(t *testing.T) {
	assert.True(t, math.IsInf(toDB(0), -1))
}

func TestActiveParamsFlipsAfterPublish(t *testing.T) {
	e := New()
	before := e.ActiveParams()

	block := make([]complex64, fftSize)
	for i := range block {
		theta := 2 * math.Pi * 11 * float64(i) / float64(fftSize)
		block[i] = complex64(complex(math.Cos(theta), math.Sin(theta)*0.5))
	}
	e.ProcessBlock(block)

	after := e.ActiveParams()
	require.NotEqual(t, before, after)
}
