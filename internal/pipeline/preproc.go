package pipeline

import (
	iqpipe "github.com/rfdsp/iqpipe"
	"github.com/rfdsp/iqpipe/internal/chunk"
	"github.com/rfdsp/iqpipe/internal/dsp"
	"github.com/rfdsp/iqpipe/internal/iqopt"
	"github.com/rfdsp/iqpipe/internal/queue"
)

// preProc holds a PreProc stage run's stateful DSP objects (spec §4.3). One
// instance lives for the lifetime of the Reader→PreProc handoff; none of its
// fields are touched by any other goroutine.
type preProc struct {
	cfg       Config
	nco       *dsp.NCO
	filter    *dsp.Filter // nil unless cfg.Filter.Stage == FilterStagePre
	dcBlock   *dsp.DCBlock
	estimator *iqopt.Estimator // nil unless cfg.IQCorrect
	accum     dsp.IQAccumulator
	snapshot  [dsp.IQFFTSize]complex64
}

func newPreProc(cfg Config, estimator *iqopt.Estimator) *preProc {
	p := &preProc{
		cfg: cfg,
		nco: dsp.NewNCO(cfg.ShiftPreHz, cfg.InputRate),
	}
	if cfg.Filter.Kind != dsp.FilterNone && cfg.Filter.Stage == FilterStagePre {
		p.filter = buildFilter(cfg.Filter)
	}
	if cfg.DCBlock {
		p.dcBlock = dsp.NewDCBlock(cfg.InputRate)
	}
	if cfg.IQCorrect {
		p.estimator = estimator
	}
	return p
}

// runPreProc drains raw_q, converts/conditions each chunk, and forwards it
// on pre_q (spec §4.3 steps 1-8). It returns when raw_q reports shutdown.
func runPreProc(p *preProc, rawQ, preQ, iqOptQ *queue.Queue[*chunk.Chunk], pool *queue.Pool, progress *iqpipe.Progress, coord *coordinator) {
	for {
		c, ok := rawQ.Dequeue()
		if !ok {
			return
		}

		if c.IsLastChunk {
			p.handleSentinel(c, preQ, pool)
			return
		}

		if c.StreamDiscontinuity {
			p.handleDiscontinuity(c, preQ)
			continue
		}

		p.process(c, progress)

		if p.cfg.IQCorrect {
			p.maybeSubmitIQOpt(c, pool, iqOptQ)
		}

		if c.FramesRead > 0 {
			if !preQ.Enqueue(c) {
				pool.Put(c)
				return
			}
		} else {
			pool.Put(c)
		}
	}
}

// handleSentinel implements spec §4.3 step 1. If an FFT filter is active and
// has a pending remainder or output backlog, it is flushed into one or more
// normal data chunks ahead of a fresh sentinel (the backlog can exceed one
// chunk's capacity when ChunkSize is not an exact multiple of the filter's
// block size); otherwise the incoming sentinel is forwarded as-is.
func (p *preProc) handleSentinel(c *chunk.Chunk, preQ *queue.Queue[*chunk.Chunk], pool *queue.Pool) {
	if p.filter != nil && p.filter.IsFFT() {
		fft := p.filter.FFT()
		if fft.RemainderLen() > 0 || fft.PendingLen() > 0 {
			n := fft.FlushAtEndOfStream(c.ComplexPreResample)
			c.IsLastChunk = false
			c.FramesRead = n
			if !preQ.Enqueue(c) {
				pool.Put(c)
				return
			}
			for fft.PendingLen() > 0 {
				extra, ok := pool.Get()
				if !ok {
					return
				}
				extra.FramesRead = fft.Drain(extra.ComplexPreResample)
				if !preQ.Enqueue(extra) {
					pool.Put(extra)
					return
				}
			}
			sentinel, ok := pool.Get()
			if !ok {
				return
			}
			sentinel.AsLastChunk()
			preQ.Enqueue(sentinel)
			return
		}
	}
	preQ.Enqueue(c)
}

// handleDiscontinuity implements spec §4.3 step 2.
func (p *preProc) handleDiscontinuity(c *chunk.Chunk, preQ *queue.Queue[*chunk.Chunk]) {
	p.nco.Reset()
	if p.filter != nil {
		p.filter.Reset()
	}
	if p.dcBlock != nil {
		p.dcBlock.Reset()
	}
	preQ.Enqueue(c)
}

// process implements spec §4.3 steps 3-7: convert, DC-block, IQ-correct,
// user filter, pre-resample shift. c.FramesRead is left holding the final
// valid sample count, per §4.3.1 when an FFT filter changes it.
func (p *preProc) process(c *chunk.Chunk, progress *iqpipe.Progress) {
	n := c.FramesRead
	gain := p.cfg.Gain
	if p.cfg.Passthrough {
		gain = 1
	}
	p.cfg.InputFormat.Decode(c.RawInput, n, gain, c.ComplexPreResample)
	progress.AddFramesRead(uint64(n))

	if p.cfg.Passthrough {
		c.FramesRead = n
		return
	}

	if p.dcBlock != nil {
		p.dcBlock.ProcessInPlace(c.ComplexPreResample, n)
	}

	if p.cfg.IQCorrect {
		params := p.estimator.ActiveParams()
		dsp.ApplyIQCorrectionInPlace(c.ComplexPreResample, n, params.Magnitude, params.Phase)
	}

	if p.filter != nil {
		if p.filter.IsFFT() {
			n = p.filter.FFT().ProcessChunk(c.ComplexPreResample, n, c.ComplexScratch)
		} else {
			p.filter.FIR().Process(c.ComplexPreResample[:n], c.ComplexScratch[:n], n)
		}
		copy(c.ComplexPreResample[:n], c.ComplexScratch[:n])
	}

	p.nco.MixInPlace(c.ComplexPreResample, n)
	c.FramesRead = n
}

// maybeSubmitIQOpt implements the accumulation half of spec §4.3 step 5:
// feed the post-correction samples into the circular IQ-optimization
// accumulator, and hand a snapshot to the side stage once it both fills and
// enough samples have elapsed since the last submission. Per spec, this is
// non-blocking: a missing free chunk simply means this submission is
// skipped.
func (p *preProc) maybeSubmitIQOpt(c *chunk.Chunk, pool *queue.Pool, iqOptQ *queue.Queue[*chunk.Chunk]) {
	if !p.accum.Feed(c.ComplexPreResample, c.FramesRead, p.snapshot[:]) {
		return
	}
	iqChunk, ok := pool.TryDequeue()
	if !ok {
		return
	}
	copy(iqChunk.ComplexPreResample[:dsp.IQFFTSize], p.snapshot[:])
	iqChunk.FramesRead = dsp.IQFFTSize
	iqOptQ.Enqueue(iqChunk)
}
