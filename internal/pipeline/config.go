// Package pipeline wires the chunk pool, the six queues, the DSP primitives
// and the InputSource/Writer collaborators into the running five-stage
// pipeline plus its IQ-optimization side stage, and implements the
// orchestrator and shutdown coordinator that supervise them (spec
// §4.3-§4.8, §5).
package pipeline

import (
	"fmt"
	"math"

	iqpipe "github.com/rfdsp/iqpipe"
	"github.com/rfdsp/iqpipe/internal/dsp"
	"github.com/rfdsp/iqpipe/internal/format"
)

// FilterStage selects whether the configured user filter runs in PreProc
// (pre-resample) or PostProc (post-resample), per spec §4.3 step 6 / §4.6
// step 3.
type FilterStage int

const (
	FilterStagePre FilterStage = iota
	FilterStagePost
)

// FilterSpec describes the optional user filter (spec §3 "Filter object",
// §9 "tagged variant"). Kind == dsp.FilterNone means no filter is configured.
type FilterSpec struct {
	Kind        dsp.FilterKind
	Stage       FilterStage
	HalfTaps    []float32   // symmetric FIR/FFT variants (internal/dsp.LoadRealTaps)
	ComplexTaps []complex64 // asymmetric FIR/FFT variants (internal/dsp.LoadComplexTaps)
	NumTaps     int
	BlockSize   int // FFT variants only
}

// stageCount is the number of concurrent pipeline stages the orchestrator
// starts (Reader, PreProc, Resamp, PostProc, Writer, IqOpt) — the pool-size
// minimum is derived from it (spec §3 "count >= number of stages + 1").
const stageCount = 6

// Defaults for the CLI flags that feed this struct (SPEC_FULL.md §A.2).
// DefaultPoolSize must stay >= stageCount+1 or the default CLI invocation
// fails its own Validate call.
const (
	DefaultChunkSize        = 8192
	DefaultPoolSize         = stageCount + 1
	DefaultByteRingCapacity = 64 << 20
)

// Config is the fully-resolved pipeline configuration the orchestrator
// builds chunks, queues and DSP objects from.
type Config struct {
	InputRate    float64
	OutputRate   float64
	InputFormat  format.Format
	OutputFormat format.Format

	Gain float32

	ShiftPreHz  float64
	ShiftPostHz float64

	Filter FilterSpec

	DCBlock   bool
	IQCorrect bool

	// Passthrough bypasses PreProc/PostProc DSP and the resampler (gain,
	// filter, shift, DC-block, IQ-correct are all skipped) while still
	// exercising the chunk pool, all six queues, format conversion, and the
	// shutdown protocol (SPEC_FULL.md §C, "--passthrough").
	Passthrough bool

	ChunkSize int // MAX_FRAMES, spec §3
	PoolSize  int // total chunk count, spec §3 "Lifecycle"

	ByteRingCapacity int // spec §3 "typically >= 64 MiB"

	// ReaderCPU, when >= 0, pins the Reader stage's OS thread to that CPU
	// (SPEC_FULL.md §C.5). -1 (the default) leaves it unpinned.
	ReaderCPU int
}

// ResampleRatio is output_rate / input_rate (spec §4.5).
func (c Config) ResampleRatio() float64 {
	return c.OutputRate / c.InputRate
}

// MaxOutFrames is the largest number of output frames a single chunk may
// need to carry: ceil(ChunkSize*ratio)+1 when upsampling, ChunkSize
// otherwise (spec §4.5, "the resampler may produce a variable number of
// output frames per input chunk"; chunk.New sizes ComplexResampled and
// FinalOutput from this value, independently of the input-side buffers).
func (c Config) MaxOutFrames() int {
	ratio := c.ResampleRatio()
	if ratio <= 1.0 {
		return c.ChunkSize
	}
	return int(math.Ceil(float64(c.ChunkSize)*ratio)) + 1
}

// Validate runs every configuration-error check spec §7 names, before any
// thread starts. This is also the entirety of --validate-only
// (SPEC_FULL.md §C.4).
func (c Config) Validate() error {
	if c.InputRate <= 0 {
		return iqpipe.NewError("validate", iqpipe.CodeConfig, "input rate must be positive")
	}
	if c.OutputRate <= 0 {
		return iqpipe.NewError("validate", iqpipe.CodeConfig, "output rate must be positive")
	}
	ratio := c.ResampleRatio()
	if ratio < 0.001 || ratio > 1000.0 {
		return iqpipe.NewError("validate", iqpipe.CodeConfig,
			fmt.Sprintf("resample ratio %.6f outside [0.001, 1000.0]", ratio))
	}
	if c.ChunkSize <= 0 {
		return iqpipe.NewError("validate", iqpipe.CodeConfig, "chunk size must be positive")
	}
	if c.PoolSize < stageCount+1 {
		return iqpipe.NewError("validate", iqpipe.CodeConfig,
			fmt.Sprintf("pool size %d below minimum %d (stage count + 1)", c.PoolSize, stageCount+1))
	}
	if c.Filter.Kind != dsp.FilterNone {
		switch c.Filter.Kind {
		case dsp.FilterFIRSymmetric, dsp.FilterFFTSymmetric:
			if len(c.Filter.HalfTaps) == 0 {
				return iqpipe.NewError("validate", iqpipe.CodeConfig, "symmetric filter configured with no taps")
			}
		case dsp.FilterFIRAsymmetric, dsp.FilterFFTAsymmetric:
			if len(c.Filter.ComplexTaps) == 0 {
				return iqpipe.NewError("validate", iqpipe.CodeConfig, "asymmetric filter configured with no taps")
			}
		}
		if c.Filter.Kind == dsp.FilterFFTSymmetric || c.Filter.Kind == dsp.FilterFFTAsymmetric {
			if c.Filter.BlockSize <= 0 {
				return iqpipe.NewError("validate", iqpipe.CodeConfig, "FFT filter configured with a non-positive block size")
			}
			if c.ChunkSize < c.Filter.BlockSize {
				return iqpipe.NewError("validate", iqpipe.CodeConfig,
					fmt.Sprintf("chunk size %d below FFT filter block size %d: the block accumulator's backlog is only bounded when chunks are at least one block", c.ChunkSize, c.Filter.BlockSize))
			}
		}
	}
	if c.IQCorrect && c.ChunkSize < dsp.IQFFTSize {
		return iqpipe.NewError("validate", iqpipe.CodeConfig,
			fmt.Sprintf("chunk size %d below IQ-optimization snapshot size %d required by --iq-correct", c.ChunkSize, dsp.IQFFTSize))
	}
	return nil
}

// buildFilter constructs the configured filter kernel, or nil if none is
// configured.
func buildFilter(spec FilterSpec) *dsp.Filter {
	switch spec.Kind {
	case dsp.FilterFIRSymmetric:
		return dsp.NewFilterFIRSymmetric(spec.HalfTaps, spec.NumTaps)
	case dsp.FilterFIRAsymmetric:
		return dsp.NewFilterFIRAsymmetric(spec.ComplexTaps)
	case dsp.FilterFFTSymmetric:
		return dsp.NewFilterFFTSymmetric(spec.HalfTaps, spec.NumTaps, spec.BlockSize)
	case dsp.FilterFFTAsymmetric:
		return dsp.NewFilterFFTAsymmetric(spec.ComplexTaps, spec.NumTaps, spec.BlockSize)
	default:
		return nil
	}
}
