package dsp

import (
	"math"

	"gonum.org/v1/gonum/dsp/window"
)

// tapsPerPhase is the number of taps contributed by each polyphase branch.
// A larger value buys more stopband attenuation at the cost of more
// multiplies per output sample and more streaming history.
const tapsPerPhase = 24

// Resampler is a streaming single-stage rational polyphase resampler (spec §4.5,
// §3 GLOSSARY "Polyphase resampler"). No corpus repo ships a library with
// this exact "process one chunk, carry fractional position across calls"
// streaming contract, so this is implemented directly from the rational
// interpolate-by-L/decimate-by-M construction; the windowing (for
// ≥60dB stopband attenuation, spec §6) reuses gonum's Blackman window
// rather than a hand-rolled one, since gonum is already a dependency
// (internal/iqopt, internal/dsp/fftfilter.go).
type Resampler struct {
	ratio float64
	l, m  int

	// polyphase[p][k] is tap k of branch p of the prototype low-pass
	// filter, decomposed so that output sample i uses
	// polyphase[(i*m) % l].
	polyphase [][]float32

	history []complex64 // last tapsPerPhase-1 input samples, oldest first
	// posUp is the position, in upsampled-domain sample units, of the
	// next output sample relative to the start of the current input
	// chunk (i.e. relative to the sample immediately following history).
	posUp int64
}

// NewResampler builds a resampler for the given input->output sample-rate
// ratio (output_rate / input_rate), bounded to [0.001, 1000.0] by the caller
// (spec §4.5 "Ratio bounds").
func NewResampler(ratio float64) *Resampler {
	l, m := rationalApproximation(ratio, 2000)
	cutoff := 0.5 / math.Max(float64(l), float64(m))
	proto := designLowpass(tapsPerPhase*l, cutoff, float64(l))

	polyphase := make([][]float32, l)
	for p := 0; p < l; p++ {
		branch := make([]float32, tapsPerPhase)
		for k := 0; k < tapsPerPhase; k++ {
			idx := k*l + p
			if idx < len(proto) {
				branch[k] = proto[idx]
			}
		}
		polyphase[p] = branch
	}

	return &Resampler{
		ratio:     ratio,
		l:         l,
		m:         m,
		polyphase: polyphase,
		history:   make([]complex64, tapsPerPhase-1),
	}
}

// Reset clears the resampler's streaming history and fractional position,
// required on a discontinuity event (spec §4.5, "resampler reset on
// discontinuity").
func (r *Resampler) Reset() {
	for i := range r.history {
		r.history[i] = 0
	}
	r.posUp = 0
}

// Process resamples the first n samples of input into output, which must be
// large enough for the maximum possible output length (ceil(n*ratio)+1 is
// always sufficient). It returns the number of output samples produced; the
// resampler may produce a variable number of output frames per input chunk
// (spec §4.5).
func (r *Resampler) Process(input []complex64, n int, output []complex64) int {
	historyLen := len(r.history)
	working := make([]complex64, historyLen+n)
	copy(working, r.history)
	copy(working[historyLen:], input[:n])

	outN := 0
	endUp := int64(n) * int64(r.l)
	for r.posUp < endUp && outN < len(output) {
		branch := int(r.posUp % int64(r.l))
		centerIdx := historyLen + int(r.posUp/int64(r.l))

		var acc complex64
		taps := r.polyphase[branch]
		lo := centerIdx - (tapsPerPhase - 1)
		for k := 0; k < tapsPerPhase; k++ {
			idx := lo + k
			if idx >= 0 && idx < len(working) {
				acc += complex64(complex(float64(taps[k]), 0)) * working[idx]
			}
		}
		output[outN] = acc
		outN++
		r.posUp += int64(r.m)
	}

	r.posUp -= int64(n) * int64(r.l)
	if historyLen > 0 {
		copy(r.history, working[len(working)-historyLen:])
	}

	return outN
}

// rationalApproximation finds small integers l, m with l/m close to ratio,
// via a bounded continued-fraction expansion.
func rationalApproximation(ratio float64, maxDenominator int) (l, m int) {
	if ratio <= 0 {
		return 1, 1
	}
	bestL, bestM := 1, 1
	bestErr := math.Abs(ratio - 1)
	h0, h1 := 0.0, 1.0
	k0, k1 := 1.0, 0.0
	x := ratio
	for i := 0; i < 32; i++ {
		a := math.Floor(x)
		h2 := a*h1 + h0
		k2 := a*k1 + k0
		if k2 > float64(maxDenominator) || h2 > float64(maxDenominator) {
			break
		}
		h0, h1 = h1, h2
		k0, k1 = k1, k2
		if k1 != 0 {
			approx := h1 / k1
			if err := math.Abs(ratio - approx); err < bestErr {
				bestErr = err
				bestL, bestM = int(h1), int(k1)
			}
		}
		frac := x - a
		if frac < 1e-9 {
			break
		}
		x = 1 / frac
	}
	if bestL < 1 {
		bestL = 1
	}
	if bestM < 1 {
		bestM = 1
	}
	return bestL, bestM
}

// designLowpass builds a windowed-sinc low-pass prototype of the given
// length and normalized cutoff (cycles/sample in the upsampled domain),
// scaled to unity passband gain times the interpolation factor gainL (so
// that inserting L-1 zeros between input samples and filtering restores the
// original amplitude).
func designLowpass(numTaps int, cutoff, gainL float64) []float32 {
	taps := make([]float64, numTaps)
	mid := float64(numTaps-1) / 2
	for i := 0; i < numTaps; i++ {
		x := float64(i) - mid
		if x == 0 {
			taps[i] = 2 * cutoff
		} else {
			taps[i] = math.Sin(2*math.Pi*cutoff*x) / (math.Pi * x)
		}
	}
	taps = window.Blackman(taps)

	sum := 0.0
	for _, t := range taps {
		sum += t
	}
	if sum != 0 {
		scale := gainL / sum
		for i := range taps {
			taps[i] *= scale
		}
	}

	out := make([]float32, numTaps)
	for i, t := range taps {
		out[i] = float32(t)
	}
	return out
}
