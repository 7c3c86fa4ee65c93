package pipeline

import (
	"github.com/rfdsp/iqpipe/internal/chunk"
	"github.com/rfdsp/iqpipe/internal/dsp"
	"github.com/rfdsp/iqpipe/internal/queue"
)

// runResampler drains pre_q and forwards resampled chunks on res_q (spec
// §4.5). A ratio of exactly 1.0, or --passthrough, copies samples straight
// across instead of constructing a resampler.
func runResampler(cfg Config, preQ, resQ *queue.Queue[*chunk.Chunk], pool *queue.Pool) {
	var resampler *dsp.Resampler
	ratio := cfg.ResampleRatio()
	if ratio != 1.0 && !cfg.Passthrough {
		resampler = dsp.NewResampler(ratio)
	}

	for {
		c, ok := preQ.Dequeue()
		if !ok {
			return
		}

		if c.IsLastChunk {
			resQ.Enqueue(c)
			return
		}

		if c.StreamDiscontinuity {
			if resampler != nil {
				resampler.Reset()
			}
			resQ.Enqueue(c)
			continue
		}

		n := c.FramesRead
		if resampler == nil {
			copy(c.ComplexResampled[:n], c.ComplexPreResample[:n])
			c.FramesToWrite = n
		} else {
			c.FramesToWrite = resampler.Process(c.ComplexPreResample, n, c.ComplexResampled)
		}

		if c.FramesToWrite > 0 {
			if !resQ.Enqueue(c) {
				pool.Put(c)
				return
			}
		} else {
			pool.Put(c)
		}
	}
}
