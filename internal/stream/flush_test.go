package stream

import (
	"errors"
	"testing"
	"time"

	th "github.com/soundslope/vibedj/internal/testing"
)

// fakeClock lets tests advance wall-clock time deterministically.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newFakeClock() *fakeClock { return &fakeClock{t: time.Unix(1700000000, 0)} }

func newTestController(f Flusher, opts FlushOpts) (*FlushController, *fakeClock) {
	clock := newFakeClock()
	c := NewFlushController(f, opts)
	c.now = clock.now
	c.lastFlush = clock.now()
	return c, clock
}

func TestFlushController(t *testing.T) {
	t.Run("count threshold", func(t *testing.T) {
		flusher := &th.CountingFlusher{}
		c, _ := newTestController(flusher, FlushOpts{EveryN: 3, Interval: time.Hour})

		for i := 0; i < 2; i++ {
			c.Mark()
			if err := c.MaybeFlush(); err != nil {
				t.Fatalf("MaybeFlush failed: %v", err)
			}
		}
		if flusher.Count != 0 {
			t.Fatalf("flushed before threshold: %d", flusher.Count)
		}

		c.Mark()
		if err := c.MaybeFlush(); err != nil {
			t.Fatalf("MaybeFlush failed: %v", err)
		}
		if flusher.Count != 1 {
			t.Errorf("flushes = %d, want 1", flusher.Count)
		}
		if c.Pending() != 0 {
			t.Errorf("pending = %d after flush, want 0", c.Pending())
		}
	})

	t.Run("time threshold with zero marks", func(t *testing.T) {
		flusher := &th.CountingFlusher{}
		c, clock := newTestController(flusher, FlushOpts{EveryN: 100, Interval: 500 * time.Millisecond})

		if err := c.MaybeFlush(); err != nil {
			t.Fatalf("MaybeFlush failed: %v", err)
		}
		if flusher.Count != 0 {
			t.Fatal("flushed before interval elapsed")
		}

		clock.advance(500 * time.Millisecond)
		if err := c.MaybeFlush(); err != nil {
			t.Fatalf("MaybeFlush failed: %v", err)
		}
		if flusher.Count != 1 {
			t.Errorf("flushes = %d, want exactly 1", flusher.Count)
		}

		// Interval restarts from the successful flush.
		if err := c.MaybeFlush(); err != nil {
			t.Fatalf("MaybeFlush failed: %v", err)
		}
		if flusher.Count != 1 {
			t.Errorf("flushes = %d, want still 1", flusher.Count)
		}
	})

	t.Run("force flush resets pending", func(t *testing.T) {
		flusher := &th.CountingFlusher{}
		c, _ := newTestController(flusher, FlushOpts{EveryN: 100, Interval: time.Hour})

		for i := 0; i < 7; i++ {
			c.Mark()
		}
		if err := c.ForceFlush(); err != nil {
			t.Fatalf("ForceFlush failed: %v", err)
		}
		if flusher.Count != 1 {
			t.Errorf("flushes = %d, want 1", flusher.Count)
		}
		if c.Pending() != 0 {
			t.Errorf("pending = %d, want 0", c.Pending())
		}
	})

	t.Run("failed flush keeps counters and propagates", func(t *testing.T) {
		failure := errors.New("connection reset")
		flusher := &th.CountingFlusher{Err: failure}
		c, _ := newTestController(flusher, FlushOpts{EveryN: 2, Interval: time.Hour})

		c.Mark()
		c.Mark()
		if err := c.MaybeFlush(); !errors.Is(err, failure) {
			t.Fatalf("expected flush failure, got %v", err)
		}
		if c.Pending() != 2 {
			t.Errorf("pending = %d after failed flush, want 2", c.Pending())
		}

		// The threshold re-triggers once the transport recovers.
		flusher.Err = nil
		if err := c.MaybeFlush(); err != nil {
			t.Fatalf("MaybeFlush failed after recovery: %v", err)
		}
		if flusher.Count != 1 {
			t.Errorf("flushes = %d, want 1", flusher.Count)
		}
		if c.Pending() != 0 {
			t.Errorf("pending = %d, want 0", c.Pending())
		}
	})

	t.Run("defaults", func(t *testing.T) {
		c := NewFlushController(&th.CountingFlusher{}, FlushOpts{})
		if c.everyN != DefaultFlushEveryN {
			t.Errorf("everyN = %d, want %d", c.everyN, DefaultFlushEveryN)
		}
		if c.interval != DefaultFlushInterval {
			t.Errorf("interval = %v, want %v", c.interval, DefaultFlushInterval)
		}
	})

	t.Run("flush no later than Nth mark", func(t *testing.T) {
		const everyN = 5
		flusher := &th.CountingFlusher{}
		c, _ := newTestController(flusher, FlushOpts{EveryN: everyN, Interval: time.Hour})

		for i := 1; i <= everyN*3; i++ {
			c.Mark()
			if err := c.MaybeFlush(); err != nil {
				t.Fatalf("MaybeFlush failed: %v", err)
			}
			if c.Pending() >= everyN {
				t.Fatalf("pending reached %d at mark %d", c.Pending(), i)
			}
		}
		if flusher.Count != 3 {
			t.Errorf("flushes = %d, want 3", flusher.Count)
		}
	})
}
