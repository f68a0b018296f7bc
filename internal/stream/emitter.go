package stream

import (
	"sync"

	"github.com/soundslope/vibedj/internal/protocol"
)

// Transport is the write half of a progress channel. The connection
// lifecycle itself is owned elsewhere; the pipeline only needs the two
// primitives.
type Transport interface {
	WriteFrame(protocol.Frame) error
	Flusher
}

// Emitter sends frames over one transport, gated by one [FlushController].
//
// Send serializes all writers through an internal mutex: the producer and
// the logger's forwarding goroutine share a single emitter per operation,
// and the controller requires serialized access.
type Emitter struct {
	mu        sync.Mutex
	transport Transport
	flush     *FlushController
}

// NewEmitter creates an emitter for one streaming operation.
func NewEmitter(transport Transport, opts FlushOpts) *Emitter {
	return &Emitter{
		transport: transport,
		flush:     NewFlushController(transport, opts),
	}
}

// Send writes the frame and flushes if a threshold is met. Write failures
// and flush failures both propagate to the caller; a failed flush leaves
// the controller's counters pending.
func (e *Emitter) Send(f protocol.Frame) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.transport.WriteFrame(f); err != nil {
		return err
	}
	e.flush.Mark()
	return e.flush.MaybeFlush()
}

// Close force-flushes anything still pending. Called once when the
// operation's channel closes.
func (e *Emitter) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.flush.ForceFlush()
}
