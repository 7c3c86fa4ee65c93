// Package bytering implements the SPSC decoupling buffer that sits between
// the file-variant Writer stage and its sink (spec §4.2): a large circular
// byte buffer with a non-blocking producer side and a blocking consumer
// side, terminated by an idempotent end-of-stream marker.
package bytering

import (
	"sync"

	"github.com/smallnest/ringbuffer"
)

// ByteRing is a single-producer single-consumer circular byte buffer (spec
// §4.2). Exactly one goroutine may call Write and exactly one goroutine may
// call Read; SignalEndOfStream may be called from the writer goroutine only.
//
// The underlying storage and wrap-around bookkeeping are delegated to
// smallnest/ringbuffer; this type layers the spec's exact contract on top:
// Write never blocks (it short-writes on overrun instead of stalling the hot
// path) and Read blocks until data is available, end-of-stream has drained,
// or shutdown is requested.
type ByteRing struct {
	mu   sync.Mutex
	cond sync.Cond
	buf  *ringbuffer.RingBuffer

	eof       bool
	shutdown  bool
}

// New allocates a ByteRing with the given capacity in bytes (typically ≥ 64
// MiB per spec §3).
func New(capacityBytes int) *ByteRing {
	r := &ByteRing{
		buf: ringbuffer.New(capacityBytes),
	}
	r.cond.L = &r.mu
	return r
}

// Write stores as many of src's n bytes as currently fit and returns that
// count. m < n indicates overrun; the caller is responsible for logging a
// warning with the dropped byte count (spec §4.2, §7 "ByteRing overrun").
// Write never blocks.
func (r *ByteRing) Write(src []byte, n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.shutdown || r.eof {
		return 0
	}

	free := r.buf.Free()
	m := n
	if m > free {
		m = free
	}
	if m > 0 {
		written, _ := r.buf.Write(src[:m])
		m = written
	}
	if m > 0 {
		r.cond.Broadcast()
	}
	return m
}

// Read blocks until at least one byte is available, end-of-stream has been
// signaled and the ring has fully drained, or shutdown is requested. It
// returns the number of bytes copied into dst (up to len(dst)); 0 only in
// the end-of-stream-and-empty or shutdown case.
func (r *ByteRing) Read(dst []byte) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	for r.buf.Length() == 0 && !r.eof && !r.shutdown {
		r.cond.Wait()
	}

	if r.buf.Length() == 0 {
		return 0
	}

	n, _ := r.buf.Read(dst)
	return n
}

// SignalEndOfStream marks the producer done. Idempotent. Reads continue to
// drain buffered bytes and then return 0.
func (r *ByteRing) SignalEndOfStream() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.eof {
		return
	}
	r.eof = true
	r.cond.Broadcast()
}

// SignalShutdown unblocks any Read immediately. Bytes already buffered are
// still returned by later Reads; Read returns 0 once the buffer is empty, and
// Write accepts nothing more.
// Used by the shutdown coordinator (spec §4.8) to release a Writer stage
// blocked on a ByteRing that will never receive more input.
func (r *ByteRing) SignalShutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.shutdown {
		return
	}
	r.shutdown = true
	r.cond.Broadcast()
}

// Len reports the number of bytes currently buffered, for diagnostics.
func (r *ByteRing) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buf.Length()
}
