// Package chunk defines the fixed-capacity buffer that circulates through
// every pipeline stage (spec §3, "SampleChunk").
package chunk

// Chunk is the unit of work handed between pipeline stages. Every buffer is
// sized at construction to the pipeline's configured max frame count and is
// never resized or heap-freed mid-stream; stages only ever slice into the
// prefix indicated by the relevant length field.
//
// Exactly one stage owns a Chunk at any time. Ownership transfers happen by
// queue handoff (internal/queue.Queue) only; a Chunk must never be touched by
// two goroutines concurrently.
type Chunk struct {
	// RawInput holds the native input-format bytes for this chunk, filled
	// by the Reader stage / InputSource. Capacity is MaxFrames *
	// bytesPerInputPair.
	RawInput []byte

	// ComplexPreResample holds decoded I/Q samples before resampling.
	ComplexPreResample []complex64

	// ComplexResampled holds I/Q samples after resampling.
	ComplexResampled []complex64

	// ComplexScratch is scratch space for DSP that cannot operate in
	// place on ComplexPreResample/ComplexResampled (e.g. FFT filter
	// overlap-save needs a block-sized scratch distinct from its input).
	ComplexScratch []complex64

	// FinalOutput holds the target-format output bytes produced by
	// PostProc, ready for the writer path.
	FinalOutput []byte

	// FramesRead is the number of valid frames in ComplexPreResample
	// after conversion (and after any FFT block accumulation, see
	// spec §4.3.1).
	FramesRead int

	// FramesToWrite is the number of valid frames in FinalOutput.
	FramesToWrite int

	// IsLastChunk marks the single end-of-stream sentinel. Mutually
	// exclusive with StreamDiscontinuity. When set, FramesRead and
	// FramesToWrite are both 0.
	IsLastChunk bool

	// StreamDiscontinuity marks a reset event: filter/NCO state must be
	// flushed by every stage before the next data chunk is processed.
	// Mutually exclusive with IsLastChunk.
	StreamDiscontinuity bool
}

// New allocates a Chunk whose input-side buffers (RawInput,
// ComplexPreResample) hold maxFrames I/Q pairs and whose output-side buffers
// (ComplexResampled, FinalOutput) hold maxOutFrames I/Q pairs. The two
// capacities differ whenever the resample ratio is not 1.0: a chunk that
// reads maxFrames input frames can produce up to maxOutFrames output frames
// (spec §4.5, "the resampler may produce a variable number of output frames
// per input chunk"). ComplexScratch is sized to whichever of the two is
// larger, since both PreProc (pre-resample domain) and PostProc
// (post-resample domain) borrow it as an aliasing-safe filter destination.
func New(maxFrames, maxOutFrames, bytesPerInputPair, bytesPerOutputPair int) *Chunk {
	scratchLen := maxFrames
	if maxOutFrames > scratchLen {
		scratchLen = maxOutFrames
	}
	return &Chunk{
		RawInput:           make([]byte, maxFrames*bytesPerInputPair),
		ComplexPreResample: make([]complex64, maxFrames),
		ComplexResampled:   make([]complex64, maxOutFrames),
		ComplexScratch:     make([]complex64, scratchLen),
		FinalOutput:        make([]byte, maxOutFrames*bytesPerOutputPair),
	}
}

// Reset clears the scalar fields in preparation for reuse from the free
// pool. The sample buffers keep their previous contents; it does not zero,
// shrink or reallocate any buffer.
func (c *Chunk) Reset() {
	c.FramesRead = 0
	c.FramesToWrite = 0
	c.IsLastChunk = false
	c.StreamDiscontinuity = false
}

// AsLastChunk configures c as the single end-of-stream sentinel.
func (c *Chunk) AsLastChunk() {
	c.Reset()
	c.IsLastChunk = true
}

// AsDiscontinuity configures c as a stream-discontinuity event carrying no
// samples.
func (c *Chunk) AsDiscontinuity() {
	c.Reset()
	c.StreamDiscontinuity = true
}
