package pipeline

import (
	"context"

	iqpipe "github.com/rfdsp/iqpipe"
	"github.com/rfdsp/iqpipe/internal/bytering"
	"github.com/rfdsp/iqpipe/internal/chunk"
	"github.com/rfdsp/iqpipe/internal/iqopt"
	"github.com/rfdsp/iqpipe/internal/logging"
	"github.com/rfdsp/iqpipe/internal/queue"
	"github.com/rfdsp/iqpipe/internal/sink"
	"github.com/rfdsp/iqpipe/internal/source"
)

// Orchestrator owns the pool, the queues, and the DSP/estimator state shared
// across stage goroutines, and drives the startup/shutdown protocol in spec
// §4.8 (start in reverse-dataflow order, join in dataflow order).
type Orchestrator struct {
	cfg      Config
	src      source.InputSource
	logger   *logging.Logger
	progress *iqpipe.Progress
}

// NewOrchestrator wires an Orchestrator for cfg, reading from src. progress
// may be nil, in which case a fresh counter is allocated.
func NewOrchestrator(cfg Config, src source.InputSource, logger *logging.Logger, progress *iqpipe.Progress) *Orchestrator {
	if progress == nil {
		progress = iqpipe.NewProgress()
	}
	return &Orchestrator{cfg: cfg, src: src, logger: logger, progress: progress}
}

// Progress exposes the shared frame counters for a caller running a
// periodic progress display alongside Run (SPEC_FULL.md §C.3).
func (o *Orchestrator) Progress() *iqpipe.Progress { return o.progress }

// Run executes the full pipeline to completion and returns the process exit
// code (spec §4.8: 0 clean, 2 fatal error, 3 signal-driven shutdown without
// natural end-of-stream). Exactly one of w's two variants is driven,
// selected by fileVariant: the stdout variant wires PostProc directly onto
// stdout_q; the file variant interposes a ByteRing and runs the file
// Writer's read/write loop.
//
// Run calls src.Initialize before starting any stage (spec §6, "Initialize
// opens the device/file and fills Info") and honors whatever sample rate the
// source discovers there, overriding the configured one — this is the only
// place a live/hardware source's actual rate can reach the DSP objects built
// below. src.Cleanup runs on every exit path.
func (o *Orchestrator) Run(ctx context.Context, w sink.Writer, fileVariant bool) int {
	info, err := o.src.Initialize(ctx)
	if err != nil {
		o.logger.Error("failed to initialize input source", "error", err)
		return 2
	}
	defer o.src.Cleanup()

	cfg := o.cfg
	if info.SampleRate > 0 {
		cfg.InputRate = info.SampleRate
	}

	pool := queue.NewPool(cfg.PoolSize, cfg.ChunkSize, cfg.MaxOutFrames(),
		cfg.InputFormat.BytesPerPair(), cfg.OutputFormat.BytesPerPair())

	rawQ := queue.New[*chunk.Chunk](cfg.PoolSize)
	preQ := queue.New[*chunk.Chunk](cfg.PoolSize)
	resQ := queue.New[*chunk.Chunk](cfg.PoolSize)

	var stdoutQ *queue.Queue[*chunk.Chunk]
	var ring *bytering.ByteRing
	if fileVariant {
		ring = bytering.New(cfg.ByteRingCapacity)
	} else {
		stdoutQ = queue.New[*chunk.Chunk](cfg.PoolSize)
	}

	var iqOptQ *queue.Queue[*chunk.Chunk]
	var estimator *iqopt.Estimator
	if cfg.IQCorrect {
		iqOptQ = queue.New[*chunk.Chunk](cfg.PoolSize)
		estimator = iqopt.New()
	}

	targets := []shutdownable{rawQ, preQ, resQ}
	if stdoutQ != nil {
		targets = append(targets, stdoutQ)
	}
	if iqOptQ != nil {
		targets = append(targets, iqOptQ)
	}
	if ring != nil {
		targets = append(targets, ring)
	}
	coord := newCoordinator(o.logger, targets...)

	// ctx cancellation (SIGINT/SIGTERM via signal.NotifyContext upstream, or
	// a caller-supplied deadline) is shutdown trigger (a) in spec §4.8: stop
	// the Reader's blocking read/generate loop and fan the shutdown signal
	// out to every queue exactly like a fatal error or natural end-of-stream
	// would. runDone lets this watcher exit once Run itself is done, rather
	// than leaking for the lifetime of a ctx that outlives the pipeline.
	runDone := make(chan struct{})
	defer close(runDone)
	go func() {
		select {
		case <-ctx.Done():
			o.src.StopStream()
			coord.RequestShutdown()
		case <-runDone:
		}
	}()

	readerDone := make(chan struct{})
	preProcDone := make(chan struct{})
	iqOptDone := make(chan struct{})
	resamplerDone := make(chan struct{})
	postProcDone := make(chan struct{})
	writerDone := make(chan struct{})

	// Start in reverse-dataflow order so every consumer is already
	// draining before its producer can enqueue anything (spec §4.8).
	go func() {
		defer close(iqOptDone)
		if iqOptQ != nil {
			runIQOpt(estimator, iqOptQ, pool, o.progress)
		}
	}()

	go func() {
		defer close(writerDone)
		if fileVariant {
			runWriterFile(w, ring, o.progress, cfg.OutputFormat.BytesPerPair(), coord)
		} else {
			runWriterStdout(cfg, w, stdoutQ, pool, o.progress, coord)
		}
	}()

	postProc := newPostProc(cfg)
	go func() {
		defer close(postProcDone)
		runPostProc(postProc, resQ, stdoutQ, ring, pool, o.progress, o.logger)
	}()

	go func() {
		defer close(resamplerDone)
		runResampler(cfg, preQ, resQ, pool)
	}()

	preProc := newPreProc(cfg, estimator)
	go func() {
		defer close(preProcDone)
		runPreProc(preProc, rawQ, preQ, iqOptQ, pool, o.progress, coord)
	}()

	go func() {
		defer close(readerDone)
		runReader(ctx, cfg, o.src, pool, rawQ, coord)
	}()

	// Join in dataflow order (spec §4.8).
	<-readerDone
	<-preProcDone
	<-iqOptDone
	<-resamplerDone
	<-postProcDone
	<-writerDone

	return coord.ExitCode()
}
