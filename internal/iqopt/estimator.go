// Package iqopt implements the adaptive IQ-imbalance estimator that runs as
// the pipeline's side service (spec §4.4): it consumes snapshots of the
// post-correction sample stream, estimates how well-corrected the image
// sidebands are, and publishes improved {magnitude, phase} correction
// parameters back to PreProc via a lock-free double buffer.
package iqopt

import (
	"math"
	"math/rand"
	"sync/atomic"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"

	"github.com/rfdsp/iqpipe/internal/dsp"
)

const (
	// fftSize matches dsp.IQFFTSize; the estimator only ever sees blocks
	// of exactly this length (spec §4.4 "blocks of exactly IQ_FFT_SIZE").
	fftSize = dsp.IQFFTSize

	maxHillClimbPasses = 25
	baseIncrement      = 0.0001
	smoothingAlpha     = 0.05

	noSignalThresholdDB = -60.0
	innerBinFraction    = 0.90
)

// Params is the {magnitude, phase} correction pair consumed by
// dsp.ApplyIQCorrectionInPlace.
type Params struct {
	Magnitude float32
	Phase     float32
}

// Estimator owns the double-buffered active parameter slot and the FFT
// machinery used to score candidate corrections. A single goroutine feeds it
// via ProcessBlock (the IQ-optimization stage); any number of goroutines may
// call ActiveParams concurrently (PreProc's per-sample read path).
type Estimator struct {
	fft        *fourier.CmplxFFT
	hammingWin []float64

	slots     [2]Params
	activeIdx int32 // atomic index into slots

	rng *rand.Rand

	// scratch buffers reused across ProcessBlock calls to avoid per-block
	// allocation in the hot estimation loop.
	windowed []complex128
	spectrum []complex128
}

// New builds an estimator with both slots initialized to the identity
// correction (no magnitude or phase adjustment).
func New() *Estimator {
	e := &Estimator{
		fft:        fourier.NewCmplxFFT(fftSize),
		hammingWin: window.Hamming(make([]float64, fftSize)),
		rng:        rand.New(rand.NewSource(1)),
		windowed:   make([]complex128, fftSize),
		spectrum:   make([]complex128, fftSize),
	}
	return e
}

// ActiveParams atomically loads the currently published correction
// parameters (spec §4.4 "Concurrency guarantee").
func (e *Estimator) ActiveParams() Params {
	idx := atomic.LoadInt32(&e.activeIdx)
	return e.slots[idx]
}

// ProcessBlock consumes exactly fftSize complex samples, estimates signal
// presence, runs the randomized hill-climb when a signal is present, and
// publishes a smoothed update (spec §4.4 steps 1-5). Must be called from a
// single goroutine (the IQ-optimization stage).
func (e *Estimator) ProcessBlock(block []complex64) {
	if len(block) != fftSize {
		panic("iqopt: ProcessBlock requires exactly fftSize samples")
	}

	active := e.ActiveParams()

	avgDB, peakDB := e.spectrumPower(block)
	_ = avgDB
	if peakDB < noSignalThresholdDB {
		return
	}

	candidate := e.hillClimb(block, active)

	next := Params{
		Magnitude: smooth(active.Magnitude, candidate.Magnitude),
		Phase:     smooth(active.Phase, candidate.Phase),
	}

	idx := atomic.LoadInt32(&e.activeIdx)
	inactive := 1 - idx
	e.slots[inactive] = next
	atomic.StoreInt32(&e.activeIdx, inactive)
}

func smooth(active, candidate float32) float32 {
	return float32((1-smoothingAlpha)*float64(active) + smoothingAlpha*float64(candidate))
}

// spectrumPower computes the Hamming-windowed power spectrum of block and
// returns the average and peak power, in dB, over the inner 90% of bins
// (spec §4.4 step 2).
func (e *Estimator) spectrumPower(block []complex64) (avgDB, peakDB float64) {
	for i, s := range block {
		e.windowed[i] = complex(real(s)*e.hammingWin[i], imag(s)*e.hammingWin[i])
	}
	e.fft.Coefficients(e.spectrum, e.windowed)

	lo, hi := innerBinRange(fftSize)
	var sum float64
	peak := math.Inf(-1)
	count := 0
	for i := lo; i < hi; i++ {
		p := power(e.spectrum[i])
		sum += p
		if p > peak {
			peak = p
		}
		count++
	}
	avg := sum / float64(count)
	return toDB(avg), toDB(peak)
}

// hillClimb performs up to maxHillClimbPasses randomized perturbations of
// (magnitude, phase), scoring each candidate against the image-rejection
// metric and keeping only strict improvements (spec §4.4 step 4).
func (e *Estimator) hillClimb(block []complex64, start Params) Params {
	best := start
	bestMetric := e.imbalanceMetric(block, best)

	scratch := make([]complex64, len(block))
	for pass := 0; pass < maxHillClimbPasses; pass++ {
		candidate := Params{
			Magnitude: best.Magnitude + float32(randomStep(e.rng)),
			Phase:     best.Phase + float32(randomStep(e.rng)),
		}

		copy(scratch, block)
		dsp.ApplyIQCorrectionInPlace(scratch, len(scratch), candidate.Magnitude, candidate.Phase)
		metric := e.imbalanceMetric(scratch, Params{})

		if metric < bestMetric {
			bestMetric = metric
			best = candidate
		}
	}
	return best
}

func randomStep(rng *rand.Rand) float64 {
	if rng.Intn(2) == 0 {
		return baseIncrement
	}
	return -baseIncrement
}

// imbalanceMetric applies extra in the same way PreProc would apply the
// active correction, then scores image rejection as
// Σ (P(+f) - P(-f))² over the inner 90% of bins, counting only bins where
// either side exceeds the no-signal threshold (spec §4.4 step 4).
func (e *Estimator) imbalanceMetric(block []complex64, extra Params) float64 {
	var buf []complex64
	if extra.Magnitude != 0 || extra.Phase != 0 {
		buf = make([]complex64, len(block))
		copy(buf, block)
		dsp.ApplyIQCorrectionInPlace(buf, len(buf), extra.Magnitude, extra.Phase)
	} else {
		buf = block
	}

	for i, s := range buf {
		e.windowed[i] = complex(real(s)*e.hammingWin[i], imag(s)*e.hammingWin[i])
	}
	e.fft.Coefficients(e.spectrum, e.windowed)

	lo, hi := innerBinRange(fftSize)
	var metric float64
	for i := lo; i < hi; i++ {
		posIdx := i
		negIdx := fftSize - i
		if negIdx >= fftSize {
			negIdx -= fftSize
		}
		pPos := power(e.spectrum[posIdx])
		pNeg := power(e.spectrum[negIdx])
		if toDB(pPos) <= noSignalThresholdDB && toDB(pNeg) <= noSignalThresholdDB {
			continue
		}
		d := pPos - pNeg
		metric += d * d
	}
	return metric
}

// innerBinRange returns the [lo, hi) bin indices covering the inner 90% of
// an n-point spectrum, discarding the outermost 5% on either edge.
func innerBinRange(n int) (lo, hi int) {
	margin := int(float64(n) * (1 - innerBinFraction) / 2)
	return margin, n - margin
}

func power(c complex128) float64 {
	return real(c)*real(c) + imag(c)*imag(c)
}

func toDB(p float64) float64 {
	if p <= 0 {
		return math.Inf(-1)
	}
	return 10 * math.Log10(p)
}
