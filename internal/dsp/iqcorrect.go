package dsp

// ApplyIQCorrectionInPlace applies the I/Q imbalance correction
// I' = I*(1+magnitude); Q' = Q + I*phase (spec §4.3 step 5).
func ApplyIQCorrectionInPlace(buf []complex64, count int, magnitude, phase float32) {
	for i := 0; i < count; i++ {
		iv := real(buf[i])
		qv := imag(buf[i])
		buf[i] = complex(iv*(1+magnitude), qv+iv*phase)
	}
}

// IQFFTSize is the fixed accumulator/analysis block length for the
// IQ-optimization side stage (spec §6 "IQ FFT size 1024").
const IQFFTSize = 1024

// IQDefaultPeriod is the minimum sample count between successive
// IQ-optimization submissions (spec §6 "default period 2,000,000 samples").
const IQDefaultPeriod = 2_000_000

// IQAccumulator is the circular buffer PreProc fills with corrected samples
// (spec §4.3 step 5, "accumulate the output into a circular IQ-optimization
// accumulator of length IQ_FFT_SIZE"). It reports when a full block is ready
// and whether enough samples have elapsed since the last submission to
// justify handing the block to the IQ-optimization stage.
type IQAccumulator struct {
	buf                [IQFFTSize]complex64
	pos                int
	samplesSinceSubmit int64
}

// Feed appends count samples, wrapping the circular buffer as needed.
// Whenever the buffer completes a full cycle it reports ready=true with a
// snapshot of the most recent IQFFTSize samples in natural time order.
func (a *IQAccumulator) Feed(samples []complex64, count int, snapshot []complex64) (ready bool) {
	for i := 0; i < count; i++ {
		a.buf[a.pos] = samples[i]
		a.pos++
		a.samplesSinceSubmit++
		if a.pos == IQFFTSize {
			a.pos = 0
			if a.samplesSinceSubmit >= IQDefaultPeriod {
				copy(snapshot, a.buf[:])
				a.samplesSinceSubmit = 0
				ready = true
			}
		}
	}
	return ready
}
