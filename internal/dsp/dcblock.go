package dsp

import "math"

// biquad is a single second-order IIR section in direct-form-II-transposed,
// applied independently to the real and imaginary rails of a complex
// sample stream.
type biquad struct {
	b0, b1, b2 float64
	a1, a2     float64
	z1i, z2i   float64 // state for the I rail
	z1q, z2q   float64 // state for the Q rail
}

func newButterworthHighpassSection(cutoffHz, sampleRateHz, q float64) biquad {
	k := math.Tan(math.Pi * cutoffHz / sampleRateHz)
	norm := 1 / (1 + k/q + k*k)
	return biquad{
		b0: 1 * norm,
		b1: -2 * norm,
		b2: 1 * norm,
		a1: 2 * (k*k - 1) * norm,
		a2: (1 - k/q + k*k) * norm,
	}
}

func (b *biquad) stepI(x float64) float64 {
	y := b.b0*x + b.z1i
	b.z1i = b.b1*x - b.a1*y + b.z2i
	b.z2i = b.b2*x - b.a2*y
	return y
}

func (b *biquad) stepQ(x float64) float64 {
	y := b.b0*x + b.z1q
	b.z1q = b.b1*x - b.a1*y + b.z2q
	b.z2q = b.b2*x - b.a2*y
	return y
}

func (b *biquad) reset() {
	b.z1i, b.z2i, b.z1q, b.z2q = 0, 0, 0, 0
}

// DCBlock is a 4th-order Butterworth high-pass filter, cutoff fixed at 10Hz
// (spec §4.3 step 4, §6 "DSP constants"). It is implemented as a cascade of
// two 2nd-order sections with the standard Butterworth Q values
// (0.5412, 1.3066) rather than one 4th-order direct-form section, for
// numerical stability at low cutoff-to-sample-rate ratios.
//
// No corpus library exposes Butterworth biquad coefficient design (gonum's
// dsp package covers FFT and windows, not filter synthesis), so this cascade
// is implemented directly from the bilinear-transform formula.
type DCBlock struct {
	stage1 biquad
	stage2 biquad
}

// NewDCBlock builds a DC-block high-pass for the given input sample rate.
func NewDCBlock(sampleRateHz float64) *DCBlock {
	const cutoffHz = 10.0
	return &DCBlock{
		stage1: newButterworthHighpassSection(cutoffHz, sampleRateHz, 0.5411961001461969),
		stage2: newButterworthHighpassSection(cutoffHz, sampleRateHz, 1.3065629648763766),
	}
}

// Reset clears all filter state, required on a discontinuity event.
func (d *DCBlock) Reset() {
	d.stage1.reset()
	d.stage2.reset()
}

// ProcessInPlace high-pass filters the first count samples of buf in place.
func (d *DCBlock) ProcessInPlace(buf []complex64, count int) {
	for i := 0; i < count; i++ {
		re := float64(real(buf[i]))
		im := float64(imag(buf[i]))
		re = d.stage1.stepI(re)
		re = d.stage2.stepI(re)
		im = d.stage1.stepQ(im)
		im = d.stage2.stepQ(im)
		buf[i] = complex(float32(re), float32(im))
	}
}
