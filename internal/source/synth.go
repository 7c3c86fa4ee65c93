package source

import (
	"context"
	"math"
	"math/rand"
	"sync/atomic"

	"github.com/rfdsp/iqpipe/internal/chunk"
	"github.com/rfdsp/iqpipe/internal/format"
	"github.com/rfdsp/iqpipe/internal/queue"
)

// Synth is a synthetic InputSource: a complex tone at a configured
// frequency, with optional artificial I/Q imbalance and optional injected
// discontinuities (SPEC_FULL.md §C.1). It requires no hardware or fixture
// files, which is what lets the discontinuity-recovery and IQ-adaptive-
// convergence scenarios (spec §8) run in a test binary.
type Synth struct {
	ToneHz     float64
	SampleRate float64
	// TotalFrames is the number of frames to emit before the end-of-stream
	// sentinel; -1 means indefinite (used to exercise graceful shutdown
	// mid-stream, spec §8 scenario 6).
	TotalFrames int64

	// ImbalanceMagnitude/ImbalancePhase apply a fixed artificial I/Q
	// imbalance to the generated tone, so the IQ-optimization stage has
	// something to converge against.
	ImbalanceMagnitude float64
	ImbalancePhase     float64

	// DiscontinuityEvery, if > 0, injects a stream_discontinuity_event
	// chunk every N emitted data chunks.
	DiscontinuityEvery int

	phase    float64
	emitted  int64
	chunks   int64 // data chunks emitted
	discAt   int64 // value of chunks when the last discontinuity was injected
	stopped  atomic.Bool
	rng      *rand.Rand
}

// NewSynth builds a synthetic tone generator. rngSeed is fixed so tests
// that assert on the generated waveform are deterministic.
func NewSynth(toneHz, sampleRate float64, totalFrames int64, rngSeed int64) *Synth {
	return &Synth{
		ToneHz:      toneHz,
		SampleRate:  sampleRate,
		TotalFrames: totalFrames,
		rng:         rand.New(rand.NewSource(rngSeed)),
	}
}

// Initialize reports the configured rate/format/length; Synth always
// writes CF32 wire bytes into RawInput. PreProc decodes RawInput with the
// configured input format and does not convert, so a Synth source is read
// correctly only when that format is CF32.
func (s *Synth) Initialize(ctx context.Context) (Info, error) {
	return Info{SampleRate: s.SampleRate, Format: format.CF32, TotalFrames: s.TotalFrames}, nil
}

// HasKnownLength reports false when TotalFrames is -1 (indefinite mode).
func (s *Synth) HasKnownLength() bool {
	return s.TotalFrames >= 0
}

// StartStream generates chunks of the configured tone until TotalFrames
// have been emitted (or indefinitely), injecting discontinuity events per
// DiscontinuityEvery, then emits the end-of-stream sentinel.
func (s *Synth) StartStream(ctx context.Context, pool *queue.Pool, rawQ *queue.Queue[*chunk.Chunk]) error {
	maxFrames := pool.MaxFrames()

	for {
		if s.stopped.Load() {
			return nil
		}
		if s.TotalFrames >= 0 && s.emitted >= s.TotalFrames {
			break
		}

		c, ok := pool.Get()
		if !ok {
			return nil
		}

		if s.DiscontinuityEvery > 0 && s.chunks > 0 && s.chunks%int64(s.DiscontinuityEvery) == 0 && s.discAt != s.chunks {
			c.AsDiscontinuity()
			s.discAt = s.chunks
			if ok := rawQ.Enqueue(c); !ok {
				pool.Put(c)
				return nil
			}
			continue
		}

		n := maxFrames
		if s.TotalFrames >= 0 {
			remaining := s.TotalFrames - s.emitted
			if int64(n) > remaining {
				n = int(remaining)
			}
		}

		s.fill(c, n)
		c.FramesRead = n
		s.emitted += int64(n)
		s.chunks++

		if ok := rawQ.Enqueue(c); !ok {
			pool.Put(c)
			return nil
		}
	}

	sentinel, ok := pool.Get()
	if !ok {
		return nil
	}
	sentinel.AsLastChunk()
	rawQ.Enqueue(sentinel)
	return nil
}

// fill writes n complex samples of the configured tone (plus artificial
// imbalance) into c.RawInput, pre-encoded as CF32 wire bytes.
func (s *Synth) fill(c *chunk.Chunk, n int) {
	phaseInc := 2 * math.Pi * s.ToneHz / s.SampleRate
	samples := make([]complex64, n)
	for i := 0; i < n; i++ {
		re := math.Cos(s.phase)
		im := math.Sin(s.phase) * (1 + s.ImbalanceMagnitude)
		im += re * s.ImbalancePhase
		samples[i] = complex(float32(re), float32(im))
		s.phase += phaseInc
		if s.phase > 2*math.Pi {
			s.phase -= 2 * math.Pi
		}
	}
	format.CF32.Encode(samples, n, c.RawInput)
}

// StopStream is idempotent and safe to call from any goroutine.
func (s *Synth) StopStream() {
	s.stopped.Store(true)
}

// Cleanup is a no-op; Synth owns no external resources.
func (s *Synth) Cleanup() error {
	return nil
}
