package dsp

// FilterKind is the tagged-variant discriminant for user filter kernels
// (spec §9 "Filter kernels are a tagged variant ... dispatched by enum
// discriminant; no virtual dispatch in the hot loop").
type FilterKind int

const (
	FilterNone FilterKind = iota
	FilterFIRSymmetric
	FilterFIRAsymmetric
	FilterFFTSymmetric
	FilterFFTAsymmetric
)

// Filter wraps one of the four concrete kernel implementations behind a
// single enum-dispatched Process call. Exactly one of fir/fftf is non-nil
// (except when Kind is FilterNone).
type Filter struct {
	Kind FilterKind
	fir  *FIRFilter
	fftf *FFTFilter
}

// NewFilterFIRSymmetric wraps a symmetric FIR kernel.
func NewFilterFIRSymmetric(halfTaps []float32, numTaps int) *Filter {
	return &Filter{Kind: FilterFIRSymmetric, fir: NewFIRSymmetric(halfTaps, numTaps)}
}

// NewFilterFIRAsymmetric wraps an asymmetric complex FIR kernel.
func NewFilterFIRAsymmetric(taps []complex64) *Filter {
	return &Filter{Kind: FilterFIRAsymmetric, fir: NewFIRAsymmetric(taps)}
}

// NewFilterFFTSymmetric wraps a symmetric overlap-save FFT kernel.
func NewFilterFFTSymmetric(halfTaps []float32, numTaps, blockSize int) *Filter {
	return &Filter{Kind: FilterFFTSymmetric, fftf: NewFFTFilterSymmetric(halfTaps, numTaps, blockSize)}
}

// NewFilterFFTAsymmetric wraps an asymmetric complex overlap-save FFT kernel.
func NewFilterFFTAsymmetric(taps []complex64, numTaps, blockSize int) *Filter {
	return &Filter{Kind: FilterFFTAsymmetric, fftf: NewFFTFilterAsymmetric(taps, numTaps, blockSize)}
}

// IsFFT reports whether this filter requires the block accumulator (spec
// §4.3.1) rather than being applicable sample-by-sample within a chunk.
func (f *Filter) IsFFT() bool {
	return f.Kind == FilterFFTSymmetric || f.Kind == FilterFFTAsymmetric
}

// FIR returns the underlying FIR kernel (nil unless Kind is one of the FIR
// variants).
func (f *Filter) FIR() *FIRFilter { return f.fir }

// FFT returns the underlying FFT kernel (nil unless Kind is one of the FFT
// variants).
func (f *Filter) FFT() *FFTFilter { return f.fftf }

// Reset dispatches to the active kernel's Reset, a no-op for FilterNone.
func (f *Filter) Reset() {
	switch f.Kind {
	case FilterFIRSymmetric, FilterFIRAsymmetric:
		f.fir.Reset()
	case FilterFFTSymmetric, FilterFFTAsymmetric:
		f.fftf.Reset()
	}
}
