package pipeline

import (
	iqpipe "github.com/rfdsp/iqpipe"
	"github.com/rfdsp/iqpipe/internal/bytering"
	"github.com/rfdsp/iqpipe/internal/chunk"
	"github.com/rfdsp/iqpipe/internal/queue"
	"github.com/rfdsp/iqpipe/internal/sink"
)

// writerChunkBytes is the size of the local buffer the file-variant Writer
// stage reads from the ByteRing per iteration (spec §4.7).
const writerChunkBytes = 1 << 20

// progressUpdateInterval is how many file-variant read/write iterations
// pass between progress counter updates (spec §4.7).
const progressUpdateInterval = 50

// runWriterStdout is the stdout-variant Writer stage (spec §4.7): it drains
// stdout_q directly, writing each chunk's encoded bytes straight through.
// A short write with no shutdown already requested is a benign
// downstream-closed condition (spec §7), not a fatal error, so it triggers
// a clean RequestShutdown rather than coord.Fatal.
func runWriterStdout(cfg Config, w sink.Writer, stdoutQ *queue.Queue[*chunk.Chunk], pool *queue.Pool, progress *iqpipe.Progress, coord *coordinator) {
	bpp := cfg.OutputFormat.BytesPerPair()

	for {
		c, ok := stdoutQ.Dequeue()
		if !ok {
			return
		}

		last := c.IsLastChunk
		if !last {
			n := c.FramesToWrite * bpp
			if n > 0 {
				written, err := w.Write(c.FinalOutput[:n])
				progress.AddOutputFrames(uint64(c.FramesToWrite))
				if err != nil || written < n {
					pool.Put(c)
					if !coord.ShuttingDown() {
						coord.RequestShutdown()
					}
					return
				}
			}
		}

		pool.Put(c)
		if last {
			return
		}
	}
}

// runWriterFile is the file-variant Writer stage (spec §4.7): it drains the
// ByteRing into a local buffer and writes it through to the sink. Any
// short write here is fatal (spec §7) since, unlike stdout, a file sink
// closing mid-stream is never an expected condition.
func runWriterFile(w sink.Writer, ring *bytering.ByteRing, progress *iqpipe.Progress, bytesPerFrame int, coord *coordinator) {
	buf := make([]byte, writerChunkBytes)
	iterations := 0
	var pendingFrames uint64

	for {
		n := ring.Read(buf)
		if n == 0 {
			if pendingFrames > 0 {
				progress.AddOutputFrames(pendingFrames)
			}
			return
		}

		written, err := w.Write(buf[:n])
		if err != nil || written < n {
			coord.Fatal("Writer", "Write", iqpipe.NewError("Write", iqpipe.CodeIO, "short write to output sink"))
			return
		}

		if bytesPerFrame > 0 {
			pendingFrames += uint64(n / bytesPerFrame)
		}
		iterations++
		if iterations%progressUpdateInterval == 0 {
			progress.AddOutputFrames(pendingFrames)
			pendingFrames = 0
		}
	}
}
