package dsp

import "gonum.org/v1/gonum/dsp/fourier"

// FFTFilter is a streaming overlap-save FFT filter operating on fixed-size
// blocks (spec §3 "Filter object", §4.3.1 "FFT block accumulator"). It
// maintains a remainder buffer of leftover input samples (< BlockSize) that
// must be flushed with zero-padding at end-of-stream.
type FFTFilter struct {
	blockSize int
	numTaps   int
	fftSize   int

	fft      *fourier.CmplxFFT
	freqTaps []complex128 // FFT of the zero-padded tap vector

	overlapTail []complex64 // last numTaps-1 samples of the previous block's input
	remainder   []complex64 // leftover input samples, len < blockSize
	remainderN  int

	scratchTime []complex128
	scratchFreq []complex128
	blockOut    []complex64 // reused runBlock destination, copied into pending

	// pending holds filtered output samples produced but not yet handed to
	// a caller, because ProcessChunk's block accumulator can complete more
	// than one BlockSize's worth of output in a single call (when the
	// caller's chunk size is not a multiple of BlockSize) while the
	// destination it was given only has room for its own chunk size.
	// ProcessChunk only ever grows this by at most one block per call beyond
	// what it drains, so it never needs more than a couple of blocks of capacity
	// in a well-formed configuration (Config.Validate requires ChunkSize >=
	// the configured BlockSize).
	pending []complex64
}

// NewFFTFilterSymmetric builds an overlap-save FFT filter from a symmetric
// real half-tap vector.
func NewFFTFilterSymmetric(halfTaps []float32, numTaps, blockSize int) *FFTFilter {
	taps := make([]complex128, numTaps)
	for i := 0; i < numTaps; i++ {
		var v float32
		if i < numTaps-1-i {
			v = halfTaps[i]
		} else {
			v = halfTaps[numTaps-1-i]
		}
		taps[i] = complex(float64(v), 0)
	}
	return newFFTFilter(taps, numTaps, blockSize)
}

// NewFFTFilterAsymmetric builds an overlap-save FFT filter from a full
// complex tap vector.
func NewFFTFilterAsymmetric(taps []complex64, numTaps, blockSize int) *FFTFilter {
	full := make([]complex128, numTaps)
	for i, t := range taps {
		full[i] = complex128(t)
	}
	return newFFTFilter(full, numTaps, blockSize)
}

func newFFTFilter(taps []complex128, numTaps, blockSize int) *FFTFilter {
	fftSize := 1
	for fftSize < blockSize+numTaps-1 {
		fftSize *= 2
	}

	fft := fourier.NewCmplxFFT(fftSize)

	padded := make([]complex128, fftSize)
	copy(padded, taps)
	freqTaps := fft.Coefficients(nil, padded)

	return &FFTFilter{
		blockSize:   blockSize,
		numTaps:     numTaps,
		fftSize:     fftSize,
		fft:         fft,
		freqTaps:    freqTaps,
		overlapTail: make([]complex64, numTaps-1),
		remainder:   make([]complex64, blockSize),
		scratchTime: make([]complex128, fftSize),
		scratchFreq: make([]complex128, fftSize),
		blockOut:    make([]complex64, blockSize),
		pending:     make([]complex64, 0, 2*blockSize),
	}
}

// BlockSize returns the filter's required block granularity.
func (f *FFTFilter) BlockSize() int { return f.blockSize }

// RemainderLen reports how many samples are currently buffered waiting for a
// full block.
func (f *FFTFilter) RemainderLen() int { return f.remainderN }

// PendingLen reports how many already-filtered output samples are buffered
// waiting for room in a future ProcessChunk or FlushAtEndOfStream
// destination (see the pending field's doc comment).
func (f *FFTFilter) PendingLen() int { return len(f.pending) }

// Reset clears the remainder, pending output, and overlap-save history, as
// required on a discontinuity event (spec §4.3 step 2, §4.6 step 2).
func (f *FFTFilter) Reset() {
	f.remainderN = 0
	f.pending = f.pending[:0]
	for i := range f.overlapTail {
		f.overlapTail[i] = 0
	}
}

// Drain copies as much of the pending output backlog as fits into out and
// compacts whatever does not fit to the front of the backlog, returning the
// number of samples written.
func (f *FFTFilter) Drain(out []complex64) int {
	outN := copy(out, f.pending)
	remaining := copy(f.pending, f.pending[outN:])
	f.pending = f.pending[:remaining]
	return outN
}

// runBlock executes the overlap-save FFT filter on exactly one block_size
// slice of input (block), writing block_size output samples into out, and
// updates the overlap tail for the next block.
func (f *FFTFilter) runBlock(block []complex64, out []complex64) {
	tail := f.numTaps - 1

	for i := 0; i < f.fftSize; i++ {
		switch {
		case i < tail:
			f.scratchTime[i] = complex128(f.overlapTail[i])
		case i < tail+f.blockSize:
			f.scratchTime[i] = complex128(block[i-tail])
		default:
			f.scratchTime[i] = 0
		}
	}

	freq := f.fft.Coefficients(f.scratchFreq, f.scratchTime)
	for i := range freq {
		freq[i] *= f.freqTaps[i]
	}
	timeDomain := f.fft.Sequence(f.scratchTime, freq)

	// Sequence is unnormalized (it scales by fftSize), so divide it out.
	scale := complex(1/float64(f.fftSize), 0)
	for i := 0; i < f.blockSize; i++ {
		out[i] = complex64(timeDomain[tail+i] * scale)
	}

	if tail > 0 {
		copy(f.overlapTail, block[f.blockSize-tail:f.blockSize])
	}
}

// ProcessChunk feeds n input samples through the block accumulator (spec
// §4.3.1): it tops up the remainder first (emitting one block if that fills
// it), then runs as many full blocks as remain in the input, then stores the
// new tail back into the remainder. Every completed block is appended to the
// pending backlog; ProcessChunk then drains as much of that backlog as fits
// in out. The return value is therefore bounded by len(out), not by a
// multiple of BlockSize() — callers that need the rest call Drain (or the
// next ProcessChunk/FlushAtEndOfStream) to retrieve it.
func (f *FFTFilter) ProcessChunk(input []complex64, n int, out []complex64) int {
	pos := 0

	if f.remainderN > 0 {
		need := f.blockSize - f.remainderN
		take := need
		if take > n-pos {
			take = n - pos
		}
		copy(f.remainder[f.remainderN:f.remainderN+take], input[pos:pos+take])
		f.remainderN += take
		pos += take

		if f.remainderN == f.blockSize {
			f.runBlock(f.remainder, f.blockOut)
			f.pending = append(f.pending, f.blockOut...)
			f.remainderN = 0
		}
	}

	for pos+f.blockSize <= n {
		f.runBlock(input[pos:pos+f.blockSize], f.blockOut)
		f.pending = append(f.pending, f.blockOut...)
		pos += f.blockSize
	}

	if pos < n {
		tailLen := n - pos
		copy(f.remainder[f.remainderN:f.remainderN+tailLen], input[pos:n])
		f.remainderN += tailLen
	}

	return f.Drain(out)
}

// FlushAtEndOfStream zero-pads any non-empty remainder to BlockSize and
// filters it once (spec §4.3 step 1, §4.3.1 "at end-of-stream the tail is
// zero-padded and filtered once"), then drains as much of the pending
// backlog (this flushed block plus anything ProcessChunk could not deliver
// earlier) as fits in out. Callers must keep calling PendingLen/Drain until
// the backlog is empty before forwarding the end-of-stream sentinel, since a
// single out buffer is not guaranteed to hold all of it.
func (f *FFTFilter) FlushAtEndOfStream(out []complex64) int {
	if f.remainderN > 0 {
		for i := f.remainderN; i < f.blockSize; i++ {
			f.remainder[i] = 0
		}
		f.runBlock(f.remainder, f.blockOut)
		f.pending = append(f.pending, f.blockOut...)
		f.remainderN = 0
	}
	return f.Drain(out)
}
