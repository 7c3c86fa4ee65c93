package queue

import "github.com/rfdsp/iqpipe/internal/chunk"

// Pool is the fixed-count SampleChunk free list (spec §2 "free_pool", §3
// "Lifecycle"). It is itself a Queue[*chunk.Chunk]: the free pool and the
// five stage-to-stage queues are the same primitive, matching the pipeline
// diagram in spec §2, where free_pool feeds back into the Reader exactly
// like any other inter-stage queue.
type Pool struct {
	*Queue[*chunk.Chunk]
	total        int
	maxFrames    int
	maxOutFrames int
}

// NewPool allocates count chunks — each with maxFrames of input-side
// capacity and maxOutFrames of output-side capacity (see chunk.New) — and
// fills the pool with them. count must be >= stage-count+1 per spec §3;
// callers validate that bound before calling NewPool (see internal/pipeline
// validation, spec §7 "Configuration errors").
func NewPool(count, maxFrames, maxOutFrames, bytesPerInputPair, bytesPerOutputPair int) *Pool {
	p := &Pool{
		Queue:        New[*chunk.Chunk](count),
		total:        count,
		maxFrames:    maxFrames,
		maxOutFrames: maxOutFrames,
	}
	for i := 0; i < count; i++ {
		p.Queue.Enqueue(chunk.New(maxFrames, maxOutFrames, bytesPerInputPair, bytesPerOutputPair))
	}
	return p
}

// Total returns the fixed chunk count the pool was constructed with. Used by
// the conservation-of-chunks property (spec §8 property 1): at any instant,
// the sum of this pool's Len() plus every in-flight/queued chunk across the
// other five queues equals Total().
func (p *Pool) Total() int {
	return p.total
}

// MaxFrames returns the per-chunk input-side frame capacity the pool was
// constructed with, used by producers (InputSource implementations) to size
// a fill.
func (p *Pool) MaxFrames() int {
	return p.maxFrames
}

// MaxOutFrames returns the per-chunk output-side frame capacity (the
// largest number of resampled frames a single chunk may carry).
func (p *Pool) MaxOutFrames() int {
	return p.maxOutFrames
}

// Get removes a chunk from the pool, blocking until one is available or
// shutdown is signalled.
func (p *Pool) Get() (*chunk.Chunk, bool) {
	return p.Dequeue()
}

// Put returns a chunk to the pool after resetting its scalar fields. Put
// never blocks: the pool's capacity equals its total chunk count, so an
// Enqueue here can never find the channel full.
func (p *Pool) Put(c *chunk.Chunk) {
	c.Reset()
	p.Enqueue(c)
}
