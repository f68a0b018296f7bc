package stream

import "time"

const (
	// DefaultFlushEveryN is the count threshold: flush after this many
	// marked frames without a flush.
	DefaultFlushEveryN = 20

	// DefaultFlushInterval is the time threshold: flush after this much
	// wall-clock time without a flush.
	DefaultFlushInterval = 500 * time.Millisecond
)

// Flusher is the transport's flush primitive: it forces buffered but unsent
// frames to leave the process toward the client.
type Flusher interface {
	Flush() error
}

// FlushFunc adapts a plain function to the [Flusher] interface.
type FlushFunc func() error

func (f FlushFunc) Flush() error { return f() }

// FlushOpts configures a [FlushController]. Zero values fall back to the
// defaults.
type FlushOpts struct {
	EveryN   int           // flush after this many marks without a flush
	Interval time.Duration // flush after this much elapsed time without a flush
}

// FlushController decides when already-written frames must be forced out to
// the transport. It never buffers frame contents itself; it only gates when
// the transport's flush primitive is invoked.
//
// A controller belongs to exactly one streaming operation and assumes a
// single writer. Multiple logical writers must serialize through it (see
// [Emitter]).
type FlushController struct {
	flusher   Flusher
	everyN    int
	interval  time.Duration
	pending   int
	lastFlush time.Time
	now       func() time.Time
}

// NewFlushController creates a controller gating the given flusher.
func NewFlushController(flusher Flusher, opts FlushOpts) *FlushController {
	if opts.EveryN <= 0 {
		opts.EveryN = DefaultFlushEveryN
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultFlushInterval
	}

	c := &FlushController{
		flusher:  flusher,
		everyN:   opts.EveryN,
		interval: opts.Interval,
		now:      time.Now,
	}
	c.lastFlush = c.now()
	return c
}

// Mark records that one frame was written to the transport.
func (c *FlushController) Mark() {
	c.pending++
}

// MaybeFlush flushes if either the count or the time threshold is met.
//
// Counters reset only on a successful flush. A failed flush leaves them
// untouched so the threshold re-triggers on the next call, and the failure
// is returned to the caller rather than absorbed.
func (c *FlushController) MaybeFlush() error {
	elapsed := c.now().Sub(c.lastFlush)
	if c.pending < c.everyN && elapsed < c.interval {
		return nil
	}
	return c.flush()
}

// ForceFlush flushes unconditionally.
func (c *FlushController) ForceFlush() error {
	return c.flush()
}

// Pending returns the number of frames written since the last successful
// flush.
func (c *FlushController) Pending() int {
	return c.pending
}

func (c *FlushController) flush() error {
	if err := c.flusher.Flush(); err != nil {
		return err
	}
	c.pending = 0
	c.lastFlush = c.now()
	return nil
}
