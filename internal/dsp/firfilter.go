package dsp

// FIRFilter is a streaming complex FIR filter. Symmetric filters store only
// the real half-length tap vector and exploit tap symmetry in the
// convolution (half the multiplies); asymmetric filters store full complex
// taps. Both carry a history tail across calls so a chunk boundary never
// truncates the filter's memory.
type FIRFilter struct {
	symmetric bool

	// realTaps is used when symmetric is true: taps[i] == taps[len-1-i],
	// so only the first half (plus the center tap for odd lengths) is
	// stored.
	realTaps []float32

	// complexTaps is used when symmetric is false.
	complexTaps []complex64

	numTaps int
	history []complex64 // last numTaps-1 input samples, oldest first
}

// NewFIRSymmetric builds a symmetric real-tapped FIR filter from the
// half-length tap vector halfTaps (see internal/dsp.LoadRealTaps).
func NewFIRSymmetric(halfTaps []float32, numTaps int) *FIRFilter {
	return &FIRFilter{
		symmetric: true,
		realTaps:  halfTaps,
		numTaps:   numTaps,
		history:   make([]complex64, numTaps-1),
	}
}

// NewFIRAsymmetric builds an asymmetric complex-tapped FIR filter.
func NewFIRAsymmetric(taps []complex64) *FIRFilter {
	return &FIRFilter{
		symmetric:   false,
		complexTaps: taps,
		numTaps:     len(taps),
		history:     make([]complex64, len(taps)-1),
	}
}

// Reset clears the filter's history, as required on a discontinuity event
// (spec §4.3 step 2, §4.6 step 2).
func (f *FIRFilter) Reset() {
	for i := range f.history {
		f.history[i] = 0
	}
}

func (f *FIRFilter) tap(i int) complex64 {
	if f.symmetric {
		n := f.numTaps
		if i < n-1-i {
			return complex(f.realTaps[i], 0)
		}
		return complex(f.realTaps[n-1-i], 0)
	}
	return f.complexTaps[i]
}

// Process filters the first count samples of src into dst (which must not
// alias src: each output reads earlier src samples, and the history update
// reads src after the loop; the pipeline passes ComplexScratch as dst).
// Filter history carries across calls.
func (f *FIRFilter) Process(src, dst []complex64, count int) {
	n := f.numTaps
	hlen := len(f.history)

	// sample(k) for k in [-(hlen), count) using history for negative
	// indices and src for non-negative indices.
	sample := func(k int) complex64 {
		if k < 0 {
			idx := hlen + k
			if idx < 0 {
				return 0
			}
			return f.history[idx]
		}
		return src[k]
	}

	for i := 0; i < count; i++ {
		var acc complex64
		for t := 0; t < n; t++ {
			acc += f.tap(t) * sample(i-(n-1)+t)
		}
		dst[i] = acc
	}

	// Slide history: keep the last hlen samples seen (from src, padded
	// with old history if count < hlen).
	if hlen == 0 {
		return
	}
	if count >= hlen {
		copy(f.history, src[count-hlen:count])
	} else {
		copy(f.history, f.history[count:])
		copy(f.history[hlen-count:], src[:count])
	}
}
