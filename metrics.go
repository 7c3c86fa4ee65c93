package iqpipe

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Progress tracks the pipeline's frame counters under a single mutex (spec
// §3 "Progress counters... protected by one mutex"). PreProc increments
// FramesRead as it decodes each chunk, the Writer stage (both variants)
// increments OutputFrames.
type Progress struct {
	mu               sync.Mutex
	framesRead       uint64
	outputFrames     uint64
	byteRingOverruns uint64
	iqOptPasses      uint64
	startTime        time.Time
}

// NewProgress returns a Progress counter set with its clock started now.
func NewProgress() *Progress {
	return &Progress{startTime: time.Now()}
}

// AddFramesRead adds n to total_frames_read (spec §3).
func (p *Progress) AddFramesRead(n uint64) {
	p.mu.Lock()
	p.framesRead += n
	p.mu.Unlock()
}

// AddOutputFrames adds n to total_output_frames (spec §3).
func (p *Progress) AddOutputFrames(n uint64) {
	p.mu.Lock()
	p.outputFrames += n
	p.mu.Unlock()
}

// AddByteRingOverruns adds n to the count of bytes dropped because the file
// variant's ByteRing was full (internal/pipeline/postproc.go's writeOut).
func (p *Progress) AddByteRingOverruns(n uint64) {
	p.mu.Lock()
	p.byteRingOverruns += n
	p.mu.Unlock()
}

// AddIQOptPasses adds n to the count of snapshot blocks the IQ-optimization
// side stage has processed, one per estimator ProcessBlock call
// (internal/pipeline/iqopt.go).
func (p *Progress) AddIQOptPasses(n uint64) {
	p.mu.Lock()
	p.iqOptPasses += n
	p.mu.Unlock()
}

// ProgressSnapshot is a point-in-time read of the progress counters.
type ProgressSnapshot struct {
	FramesRead       uint64
	OutputFrames     uint64
	ByteRingOverruns uint64
	IQOptPasses      uint64
	Elapsed          time.Duration
	InputFrameRate   float64 // frames_read per elapsed second
}

// Snapshot returns a consistent read of the progress counters plus a derived
// frames/second figure, used by the periodic progress line
// (SPEC_FULL.md §C.3) and by the optional Prometheus exporter.
func (p *Progress) Snapshot() ProgressSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	elapsed := time.Since(p.startTime)
	snap := ProgressSnapshot{
		FramesRead:       p.framesRead,
		OutputFrames:     p.outputFrames,
		ByteRingOverruns: p.byteRingOverruns,
		IQOptPasses:      p.iqOptPasses,
		Elapsed:          elapsed,
	}
	if elapsed > 0 {
		snap.InputFrameRate = float64(snap.FramesRead) / elapsed.Seconds()
	}
	return snap
}

// PromMetrics wires the pipeline's counters into Prometheus, exposed
// optionally via `--metrics-addr` (SPEC_FULL.md §A.2); the pipeline data
// path itself has no network transport, matching the Non-goal — this is
// diagnostic tooling only.
type PromMetrics struct {
	FramesRead       prometheus.Counter
	FramesWritten    prometheus.Counter
	ByteRingOverruns prometheus.Counter
	IQOptPasses      prometheus.Counter
}

// NewPromMetrics creates and registers the pipeline's Prometheus
// instrumentation on reg.
func NewPromMetrics(reg prometheus.Registerer) *PromMetrics {
	m := &PromMetrics{
		FramesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "iqpipe_frames_read_total",
			Help: "Total I/Q sample frames read from the input source.",
		}),
		FramesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "iqpipe_frames_written_total",
			Help: "Total I/Q sample frames written to the sink.",
		}),
		ByteRingOverruns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "iqpipe_byte_ring_overruns_total",
			Help: "Bytes dropped because the decoupling ByteRing was full.",
		}),
		IQOptPasses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "iqpipe_iq_opt_passes_total",
			Help: "Total snapshot blocks processed by the IQ-optimization stage.",
		}),
	}
	reg.MustRegister(m.FramesRead, m.FramesWritten, m.ByteRingOverruns, m.IQOptPasses)
	return m
}
