package pipeline

import (
	iqpipe "github.com/rfdsp/iqpipe"
	"github.com/rfdsp/iqpipe/internal/bytering"
	"github.com/rfdsp/iqpipe/internal/chunk"
	"github.com/rfdsp/iqpipe/internal/dsp"
	"github.com/rfdsp/iqpipe/internal/logging"
	"github.com/rfdsp/iqpipe/internal/queue"
)

// postProc holds a PostProc stage run's stateful DSP objects (spec §4.6).
type postProc struct {
	cfg    Config
	nco    *dsp.NCO
	filter *dsp.Filter // nil unless cfg.Filter.Stage == FilterStagePost
}

func newPostProc(cfg Config) *postProc {
	p := &postProc{
		cfg: cfg,
		nco: dsp.NewNCO(cfg.ShiftPostHz, cfg.OutputRate),
	}
	if cfg.Filter.Kind != dsp.FilterNone && cfg.Filter.Stage == FilterStagePost {
		p.filter = buildFilter(cfg.Filter)
	}
	return p
}

// runPostProc drains res_q, applies the post-resample DSP chain, converts
// to the output wire format, and hands chunks to whichever sink variant is
// wired: stdoutQ for the stdout variant, ring for the file variant (spec
// §4.6). Exactly one of stdoutQ/ring is non-nil.
func runPostProc(p *postProc, resQ *queue.Queue[*chunk.Chunk], stdoutQ *queue.Queue[*chunk.Chunk], ring *bytering.ByteRing, pool *queue.Pool, progress *iqpipe.Progress, logger *logging.Logger) {
	bpp := p.cfg.OutputFormat.BytesPerPair()

	for {
		c, ok := resQ.Dequeue()
		if !ok {
			return
		}

		if c.IsLastChunk {
			p.handleSentinel(c, stdoutQ, ring, pool, bpp, progress, logger)
			return
		}

		if c.StreamDiscontinuity {
			p.nco.Reset()
			if p.filter != nil {
				p.filter.Reset()
			}
			p.writeOut(c, stdoutQ, ring, pool, bpp, progress, logger)
			continue
		}

		p.process(c)
		p.writeOut(c, stdoutQ, ring, pool, bpp, progress, logger)
	}
}

// handleSentinel mirrors PreProc's (spec §4.6 step 1, "symmetric to §4.3
// step 1"), flushing any pending post-filter FFT remainder/backlog (which
// may span more than one chunk, see preProc.handleSentinel) before
// forwarding the sentinel, then signals end-of-stream on the ByteRing for
// the file variant (spec §4.6 step 7).
func (p *postProc) handleSentinel(c *chunk.Chunk, stdoutQ *queue.Queue[*chunk.Chunk], ring *bytering.ByteRing, pool *queue.Pool, bpp int, progress *iqpipe.Progress, logger *logging.Logger) {
	if p.filter != nil && p.filter.IsFFT() {
		fft := p.filter.FFT()
		if fft.RemainderLen() > 0 || fft.PendingLen() > 0 {
			n := fft.FlushAtEndOfStream(c.ComplexResampled)
			c.IsLastChunk = false
			c.FramesToWrite = n
			p.cfg.OutputFormat.Encode(c.ComplexResampled, n, c.FinalOutput)
			p.writeOut(c, stdoutQ, ring, pool, bpp, progress, logger)

			for fft.PendingLen() > 0 {
				extra, ok := pool.Get()
				if !ok {
					if ring != nil {
						ring.SignalEndOfStream()
					}
					return
				}
				extraN := fft.Drain(extra.ComplexResampled)
				extra.FramesToWrite = extraN
				p.cfg.OutputFormat.Encode(extra.ComplexResampled, extraN, extra.FinalOutput)
				p.writeOut(extra, stdoutQ, ring, pool, bpp, progress, logger)
			}

			sentinel, ok := pool.Get()
			if !ok {
				if ring != nil {
					ring.SignalEndOfStream()
				}
				return
			}
			sentinel.AsLastChunk()
			p.deliverSentinel(sentinel, stdoutQ, pool)
			if ring != nil {
				ring.SignalEndOfStream()
			}
			return
		}
	}

	p.deliverSentinel(c, stdoutQ, pool)
	if ring != nil {
		ring.SignalEndOfStream()
	}
}

func (p *postProc) deliverSentinel(c *chunk.Chunk, stdoutQ *queue.Queue[*chunk.Chunk], pool *queue.Pool) {
	if stdoutQ != nil {
		stdoutQ.Enqueue(c)
		return
	}
	pool.Put(c)
}

// process implements spec §4.6 steps 3-5: post-resample user filter,
// post-resample shift, format conversion.
func (p *postProc) process(c *chunk.Chunk) {
	n := c.FramesToWrite

	if !p.cfg.Passthrough {
		if p.filter != nil {
			if p.filter.IsFFT() {
				n = p.filter.FFT().ProcessChunk(c.ComplexResampled, n, c.ComplexScratch)
			} else {
				p.filter.FIR().Process(c.ComplexResampled[:n], c.ComplexScratch[:n], n)
			}
			copy(c.ComplexResampled[:n], c.ComplexScratch[:n])
		}
		p.nco.MixInPlace(c.ComplexResampled, n)
	}

	c.FramesToWrite = n
	p.cfg.OutputFormat.Encode(c.ComplexResampled, n, c.FinalOutput)
}

// writeOut implements spec §4.6 step 6: enqueue on stdout_q for the stdout
// variant, or write into the ByteRing (non-blocking, logging overrun) and
// return the chunk to the free pool for the file variant.
func (p *postProc) writeOut(c *chunk.Chunk, stdoutQ *queue.Queue[*chunk.Chunk], ring *bytering.ByteRing, pool *queue.Pool, bpp int, progress *iqpipe.Progress, logger *logging.Logger) {
	if stdoutQ != nil {
		if c.FramesToWrite > 0 {
			if !stdoutQ.Enqueue(c) {
				pool.Put(c)
			}
		} else {
			pool.Put(c)
		}
		return
	}

	n := c.FramesToWrite * bpp
	if n > 0 {
		written := ring.Write(c.FinalOutput, n)
		if written < n {
			dropped := uint64(n - written)
			logger.Warn("ByteRing overrun", "dropped_bytes", dropped)
			progress.AddByteRingOverruns(dropped)
		}
	}
	pool.Put(c)
}
