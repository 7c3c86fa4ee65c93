package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	iqpipe "github.com/rfdsp/iqpipe"
	"github.com/rfdsp/iqpipe/internal/dsp"
	"github.com/rfdsp/iqpipe/internal/format"
	"github.com/rfdsp/iqpipe/internal/logging"
	"github.com/rfdsp/iqpipe/internal/pipeline"
	"github.com/rfdsp/iqpipe/internal/sink"
	"github.com/rfdsp/iqpipe/internal/source"
)

// flags mirrors the CLI surface in SPEC_FULL.md §A.2, one field per flag.
type flags struct {
	input       string
	inputFormat string
	inputRate   float64

	output       string
	outputFormat string
	outputRate   float64

	gain       float64
	shiftPre   float64
	shiftPost  float64

	filter        string
	filterTaps    string
	filterStage   string

	dcBlock   bool
	iqCorrect bool

	passthrough bool

	chunkSize int
	poolSize  int

	metricsAddr string

	validateOnly bool
}

func main() {
	var f flags

	root := &cobra.Command{
		Use:   "iqpipe",
		Short: "A concurrent I/Q sample pipeline: decode, condition, resample, re-encode.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), f)
		},
	}

	fl := root.Flags()
	fl.StringVar(&f.input, "input", "", "input path, \"-\" for stdin, or \"synth:<hz>\" for a synthetic tone (required)")
	fl.StringVar(&f.inputFormat, "input-format", "", "input sample format: CS8|CU8|CS16|CU16|CS32|CU32|CF32|SC16Q11 (required)")
	fl.Float64Var(&f.inputRate, "input-rate", 0, "input sample rate in Hz (required)")
	fl.StringVar(&f.output, "output", "-", "output path, or \"-\" for stdout")
	fl.StringVar(&f.outputFormat, "output-format", "", "output sample format (required)")
	fl.Float64Var(&f.outputRate, "output-rate", 0, "output sample rate in Hz (required)")
	fl.Float64Var(&f.gain, "gain", 1.0, "linear gain applied on decode")
	fl.Float64Var(&f.shiftPre, "shift-pre", 0, "pre-resample frequency shift in Hz")
	fl.Float64Var(&f.shiftPost, "shift-post", 0, "post-resample frequency shift in Hz")
	fl.StringVar(&f.filter, "filter", "none", "user filter kernel: none|fir-sym|fir-asym|fft-sym|fft-asym")
	fl.StringVar(&f.filterTaps, "filter-taps-file", "", "path to a raw float32 tap file (required if --filter is not none)")
	fl.StringVar(&f.filterStage, "filter-stage", "pre", "where the user filter runs: pre|post")
	fl.BoolVar(&f.dcBlock, "dc-block", false, "enable the 4th-order Butterworth DC-block high-pass")
	fl.BoolVar(&f.iqCorrect, "iq-correct", false, "enable adaptive I/Q imbalance correction")
	fl.BoolVar(&f.passthrough, "passthrough", false, "bypass all DSP, exercising only format conversion and the pipeline plumbing")
	fl.IntVar(&f.chunkSize, "chunk-size", pipeline.DefaultChunkSize, "frames per chunk")
	fl.IntVar(&f.poolSize, "pool-size", pipeline.DefaultPoolSize, "chunk pool size (minimum: stage count + 1)")
	fl.StringVar(&f.metricsAddr, "metrics-addr", "", "optional host:port to serve /metrics on")
	fl.BoolVar(&f.validateOnly, "validate-only", false, "validate configuration and exit without running the pipeline")

	if err := root.Execute(); err != nil {
		os.Exit(exitCodeForError(err))
	}
}

// cliError carries the process exit code alongside the error, since cobra's
// RunE only gives us an error, not a code (spec §4.8, SPEC_FULL.md §A.2).
type cliError struct {
	code int
	err  error
}

func (e *cliError) Error() string { return e.err.Error() }

func exitCodeForError(err error) int {
	if ce, ok := err.(*cliError); ok {
		return ce.code
	}
	return 1
}

func run(ctx context.Context, f flags) error {
	logger := logging.Default()

	cfg, src, w, fileVariant, err := buildPipeline(f, logger)
	if err != nil {
		return &cliError{code: 1, err: err}
	}

	if verr := cfg.Validate(); verr != nil {
		return &cliError{code: 1, err: verr}
	}

	if f.validateOnly {
		fmt.Fprintf(os.Stdout, "configuration OK: %.0f Hz -> %.0f Hz (ratio %.6f), chunk=%d pool=%d\n",
			cfg.InputRate, cfg.OutputRate, cfg.ResampleRatio(), cfg.ChunkSize, cfg.PoolSize)
		return nil
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	orch := pipeline.NewOrchestrator(cfg, src, logger, nil)

	if f.metricsAddr != "" {
		stopMetrics := serveMetrics(f.metricsAddr, orch.Progress(), logger)
		defer stopMetrics()
	}

	stopProgress := reportProgress(orch.Progress(), src, logger)
	defer stopProgress()

	code := orch.Run(ctx, w, fileVariant)

	if closer, ok := w.(interface{ Close() error }); ok {
		closer.Close()
	}

	if code != 0 {
		return &cliError{code: code, err: fmt.Errorf("pipeline exited with code %d", code)}
	}
	return nil
}

// buildPipeline resolves flags into a pipeline.Config plus the concrete
// InputSource/Writer pair, per SPEC_FULL.md §A.2.
func buildPipeline(f flags, logger *logging.Logger) (pipeline.Config, source.InputSource, sink.Writer, bool, error) {
	cfg := pipeline.Config{
		Gain:             float32(f.gain),
		ShiftPreHz:       f.shiftPre,
		ShiftPostHz:      f.shiftPost,
		DCBlock:          f.dcBlock,
		IQCorrect:        f.iqCorrect,
		Passthrough:      f.passthrough,
		ChunkSize:        f.chunkSize,
		PoolSize:         f.poolSize,
		ByteRingCapacity: pipeline.DefaultByteRingCapacity,
		ReaderCPU:        -1,
	}

	inFmt, err := format.ParseFormat(f.inputFormat)
	if err != nil {
		return cfg, nil, nil, false, iqpipe.NewError("validate", iqpipe.CodeConfig, err.Error())
	}
	outFmt, err := format.ParseFormat(f.outputFormat)
	if err != nil {
		return cfg, nil, nil, false, iqpipe.NewError("validate", iqpipe.CodeConfig, err.Error())
	}
	cfg.InputFormat = inFmt
	cfg.OutputFormat = outFmt
	cfg.InputRate = f.inputRate
	cfg.OutputRate = f.outputRate

	filterSpec, err := buildFilterSpec(f)
	if err != nil {
		return cfg, nil, nil, false, err
	}
	cfg.Filter = filterSpec

	src, err := buildSource(f)
	if err != nil {
		return cfg, nil, nil, false, err
	}

	w, fileVariant, err := buildSink(f)
	if err != nil {
		return cfg, nil, nil, false, err
	}

	return cfg, src, w, fileVariant, nil
}

func buildFilterSpec(f flags) (pipeline.FilterSpec, error) {
	spec := pipeline.FilterSpec{BlockSize: 4096}

	var stage pipeline.FilterStage
	switch f.filterStage {
	case "pre":
		stage = pipeline.FilterStagePre
	case "post":
		stage = pipeline.FilterStagePost
	default:
		return spec, iqpipe.NewError("validate", iqpipe.CodeConfig, "filter-stage must be pre or post")
	}
	spec.Stage = stage

	switch f.filter {
	case "none":
		spec.Kind = dsp.FilterNone
		return spec, nil
	case "fir-sym":
		spec.Kind = dsp.FilterFIRSymmetric
	case "fir-asym":
		spec.Kind = dsp.FilterFIRAsymmetric
	case "fft-sym":
		spec.Kind = dsp.FilterFFTSymmetric
	case "fft-asym":
		spec.Kind = dsp.FilterFFTAsymmetric
	default:
		return spec, iqpipe.NewError("validate", iqpipe.CodeConfig, "filter must be none|fir-sym|fir-asym|fft-sym|fft-asym")
	}

	if f.filterTaps == "" {
		return spec, iqpipe.NewError("validate", iqpipe.CodeConfig, "filter-taps-file required when --filter is not none")
	}

	switch spec.Kind {
	case dsp.FilterFIRSymmetric, dsp.FilterFFTSymmetric:
		taps, err := dsp.LoadRealTaps(f.filterTaps)
		if err != nil {
			return spec, iqpipe.NewError("validate", iqpipe.CodeConfig, err.Error())
		}
		spec.HalfTaps = taps
		spec.NumTaps = 2*len(taps) - 1
	case dsp.FilterFIRAsymmetric, dsp.FilterFFTAsymmetric:
		taps, err := dsp.LoadComplexTaps(f.filterTaps)
		if err != nil {
			return spec, iqpipe.NewError("validate", iqpipe.CodeConfig, err.Error())
		}
		spec.ComplexTaps = taps
		spec.NumTaps = len(taps)
	}

	return spec, nil
}

// buildSource implements SPEC_FULL.md §A.2's two InputSource variants: a
// file (or stdin) reader, and "synth:<hz>" for the synthetic tone generator
// used for demos and tests without real hardware (SPEC_FULL.md §C.1).
func buildSource(f flags) (source.InputSource, error) {
	if f.input == "" {
		return nil, iqpipe.NewError("validate", iqpipe.CodeConfig, "--input is required")
	}
	if strings.HasPrefix(f.input, "synth:") {
		toneHz, err := strconv.ParseFloat(strings.TrimPrefix(f.input, "synth:"), 64)
		if err != nil {
			return nil, iqpipe.NewError("validate", iqpipe.CodeConfig, "synth: frequency must be numeric: "+err.Error())
		}
		return source.NewSynth(toneHz, f.inputRate, -1, 1), nil
	}

	inFmt, err := format.ParseFormat(f.inputFormat)
	if err != nil {
		return nil, iqpipe.NewError("validate", iqpipe.CodeConfig, err.Error())
	}
	return source.NewFile(f.input, f.inputRate, inFmt), nil
}

// buildSink resolves --output into a Writer plus whether the file-variant
// ByteRing wiring is needed (stdout never uses one, spec §4.2/§4.7).
func buildSink(f flags) (sink.Writer, bool, error) {
	if f.output == "-" {
		return sink.NewStdout(os.Stdout), false, nil
	}
	w, err := sink.NewFile(f.output)
	if err != nil {
		return nil, false, iqpipe.NewError("open output", iqpipe.CodeIO, err.Error())
	}
	return w, true, nil
}

// serveMetrics starts an HTTP server exposing /metrics and a goroutine
// copying the shared Progress counters into it (SPEC_FULL.md §A.2
// --metrics-addr). It is diagnostic tooling, not part of the pipeline's
// data path.
func serveMetrics(addr string, progress *iqpipe.Progress, logger *logging.Logger) func() {
	reg := prometheus.NewRegistry()
	m := iqpipe.NewPromMetrics(reg)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Warnf("metrics server stopped: %v", err)
		}
	}()

	stopTicker := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		var lastRead, lastWritten, lastOverruns, lastIQOptPasses uint64
		for {
			select {
			case <-ticker.C:
				snap := progress.Snapshot()
				if d := snap.FramesRead - lastRead; d > 0 {
					m.FramesRead.Add(float64(d))
				}
				if d := snap.OutputFrames - lastWritten; d > 0 {
					m.FramesWritten.Add(float64(d))
				}
				if d := snap.ByteRingOverruns - lastOverruns; d > 0 {
					m.ByteRingOverruns.Add(float64(d))
				}
				if d := snap.IQOptPasses - lastIQOptPasses; d > 0 {
					m.IQOptPasses.Add(float64(d))
				}
				lastRead, lastWritten = snap.FramesRead, snap.OutputFrames
				lastOverruns, lastIQOptPasses = snap.ByteRingOverruns, snap.IQOptPasses
			case <-stopTicker:
				return
			}
		}
	}()

	return func() {
		close(stopTicker)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}
}

// reportProgress prints a periodic human-readable progress line (frames
// read and input frame rate; no ETA is computed), SPEC_FULL.md §C.3.
func reportProgress(progress *iqpipe.Progress, src source.InputSource, logger *logging.Logger) func() {
	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				snap := progress.Snapshot()
				if src.HasKnownLength() {
					logger.Infof("progress: %d frames read, %.0f frames/sec", snap.FramesRead, snap.InputFrameRate)
				} else {
					logger.Infof("progress: %d frames read, %.0f frames/sec (unknown total length)", snap.FramesRead, snap.InputFrameRate)
				}
			case <-stop:
				return
			}
		}
	}()
	return func() { close(stop) }
}
