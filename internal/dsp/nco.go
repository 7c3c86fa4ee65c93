// Package dsp implements the stateful DSP primitives the pipeline stages
// drive: the NCO, the four filter-kernel variants, the polyphase resampler,
// the DC-block high-pass, and I/Q-imbalance correction (spec §3 "NCO",
// "Filter object"; §4.3, §4.5, §4.6).
package dsp

import "math/cmplx"

// NCO is a numerically controlled oscillator: an opaque stateful phase
// accumulator producing a complex exponential at a configured frequency
// (spec §3 "NCO"). Two independent instances are used by the pipeline, one
// pre-resample and one post-resample; each must be reset on a discontinuity
// before the next sample is processed (spec §3 invariant).
type NCO struct {
	phaseIncrement float64 // radians per sample
	phase          float64 // radians, kept within [-2*pi, 2*pi]
}

// NewNCO creates an NCO at the given shift frequency (Hz) and sample rate
// (Hz). A zero shiftHz NCO is a no-op mixer (multiplies by 1+0i).
func NewNCO(shiftHz, sampleRate float64) *NCO {
	return &NCO{
		phaseIncrement: 2 * 3.141592653589793 * shiftHz / sampleRate,
	}
}

// Reset zeroes the phase accumulator. Spec §5: "each post-discontinuity
// output frame begins at NCO phase 0."
func (n *NCO) Reset() {
	n.phase = 0
}

// MixInPlace multiplies the first count samples of buf by the NCO's complex
// exponential, advancing the phase accumulator by phaseIncrement per sample
// (spec §4.3 step 7, §4.6 step 4).
func (n *NCO) MixInPlace(buf []complex64, count int) {
	if n.phaseIncrement == 0 {
		return
	}
	const twoPi = 2 * 3.141592653589793
	for i := 0; i < count; i++ {
		rot := cmplx.Exp(complex(0, n.phase))
		buf[i] = complex64(complex128(buf[i]) * rot)
		n.phase += n.phaseIncrement
		if n.phase > twoPi {
			n.phase -= twoPi
		} else if n.phase < -twoPi {
			n.phase += twoPi
		}
	}
}
