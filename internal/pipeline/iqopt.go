package pipeline

import (
	iqpipe "github.com/rfdsp/iqpipe"
	"github.com/rfdsp/iqpipe/internal/chunk"
	"github.com/rfdsp/iqpipe/internal/dsp"
	"github.com/rfdsp/iqpipe/internal/iqopt"
	"github.com/rfdsp/iqpipe/internal/queue"
)

// runIQOpt drains iq_opt_q and feeds each snapshot into the estimator (spec
// §4.4). It is the one stage PreProc does not block on: PreProc submits a
// snapshot only when a free chunk is available, and iq_opt_q has a slot for
// every chunk, so its enqueue never waits. This loop only ever returns the
// chunk to the free pool, never forwards it further.
func runIQOpt(estimator *iqopt.Estimator, iqOptQ *queue.Queue[*chunk.Chunk], pool *queue.Pool, progress *iqpipe.Progress) {
	for {
		c, ok := iqOptQ.Dequeue()
		if !ok {
			return
		}

		estimator.ProcessBlock(c.ComplexPreResample[:dsp.IQFFTSize])
		progress.AddIQOptPasses(1)
		pool.Put(c)
	}
}
