package pipeline

import (
	"context"

	iqpipe "github.com/rfdsp/iqpipe"
	"github.com/rfdsp/iqpipe/internal/chunk"
	"github.com/rfdsp/iqpipe/internal/queue"
	"github.com/rfdsp/iqpipe/internal/source"
)

// runReader is the pipeline's Reader stage thread (spec §5, "one per
// stage"). The InputSource itself performs the pool.Get/read/enqueue loop
// (internal/source) and emits the end-of-stream sentinel; this wrapper
// supplies the stage's place in the startup/shutdown protocol (spec §4.8)
// and resolves end_of_stream_reached.
//
// Reader reaching natural end-of-stream is itself one of the three shutdown
// triggers (spec §4.8), so a clean return here requests shutdown just like
// the fatal-error helper does — the difference is whether error_flag ends
// up set, which is what ExitCode inspects.
func runReader(ctx context.Context, cfg Config, src source.InputSource, pool *queue.Pool, rawQ *queue.Queue[*chunk.Chunk], coord *coordinator) {
	if cfg.ReaderCPU >= 0 {
		pinReaderThread(coord.logger, cfg.ReaderCPU)
	}

	err := src.StartStream(ctx, pool, rawQ)
	if err != nil {
		coord.Fatal("Reader", "StartStream", iqpipe.WrapError("Reader", "StartStream", err))
		return
	}
	if !coord.ShuttingDown() {
		coord.MarkEndOfStream()
	}
	coord.RequestShutdown()
}
