package pipeline

import (
	"sync/atomic"

	"github.com/rfdsp/iqpipe/internal/logging"
)

// shutdownable is anything the coordinator can wake on shutdown: every
// pipeline queue and, for the file sink variant, the ByteRing (spec §4.8
// "signal_shutdown on all six queues").
type shutdownable interface {
	SignalShutdown()
}

// coordinator implements the shutdown protocol in spec §4.8: a sticky
// shutdown_flag, an error_flag set at most once, and the
// fatal-error-then-broadcast sequence every stage calls on an unrecoverable
// condition. It is the "context structure passed to every stage" spec §9
// calls for instead of ambient globals.
type coordinator struct {
	logger *logging.Logger

	shutdownFlag atomic.Bool
	errorFlag    atomic.Bool
	eosReached   atomic.Bool

	targets []shutdownable
}

func newCoordinator(logger *logging.Logger, targets ...shutdownable) *coordinator {
	return &coordinator{logger: logger, targets: targets}
}

// Fatal logs err attributed to stage/op, sets error_flag (first caller
// wins), and requests shutdown. Safe to call from any stage goroutine any
// number of times (spec §4.8, "sets error_flag (once)").
func (c *coordinator) Fatal(stage, op string, err error) {
	if c.errorFlag.CompareAndSwap(false, true) {
		c.logger.Error("fatal pipeline error", "stage", stage, "op", op, "error", err)
	}
	c.RequestShutdown()
}

// RequestShutdown sets shutdown_flag and wakes every queue/ByteRing waiter.
// Idempotent: SignalShutdown on every target is itself idempotent.
func (c *coordinator) RequestShutdown() {
	c.shutdownFlag.Store(true)
	for _, t := range c.targets {
		t.SignalShutdown()
	}
}

// ShuttingDown reports the current value of shutdown_flag.
func (c *coordinator) ShuttingDown() bool { return c.shutdownFlag.Load() }

// HasError reports the current value of error_flag.
func (c *coordinator) HasError() bool { return c.errorFlag.Load() }

// MarkEndOfStream records that the Reader drained its input naturally,
// distinguishing clean completion from signal-driven termination (spec §3
// "end_of_stream_reached").
func (c *coordinator) MarkEndOfStream() { c.eosReached.Store(true) }

// EndOfStreamReached reports whether MarkEndOfStream has been called.
func (c *coordinator) EndOfStreamReached() bool { return c.eosReached.Load() }

// ExitCode resolves the orchestrator's process exit status (spec §4.8,
// SPEC_FULL.md §A.2): 2 if any stage hit a fatal error, 3 if shutdown was
// requested without a natural end-of-stream (signal-driven termination), 0
// on clean completion.
func (c *coordinator) ExitCode() int {
	switch {
	case c.errorFlag.Load():
		return 2
	case !c.eosReached.Load():
		return 3
	default:
		return 0
	}
}
