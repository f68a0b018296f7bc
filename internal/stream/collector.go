package stream

import (
	"sync"

	"github.com/soundslope/vibedj/internal/protocol"
)

// Collector is an in-memory [Transport]. It backs the non-streaming sibling
// endpoint, which runs an operation to completion and returns the
// accumulated history in one response.
type Collector struct {
	mu     sync.Mutex
	frames []protocol.Frame
}

func (c *Collector) WriteFrame(f protocol.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, f)
	return nil
}

// Flush is a no-op; collected frames are already in memory.
func (c *Collector) Flush() error { return nil }

// Frames returns the collected frames in write order.
func (c *Collector) Frames() []protocol.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]protocol.Frame, len(c.frames))
	copy(out, c.frames)
	return out
}
