// package testing contains shared testing utilities
package testing

import (
	"errors"
	"net/http"
	"sync"

	"github.com/soundslope/vibedj/internal/protocol"
)

// RecorderTransport is a test double for stream.Transport. It records every
// written frame and every flush, and can be programmed to fail either
// primitive. Safe for concurrent use because the logger's forwarding
// goroutine may write alongside the producer.
type RecorderTransport struct {
	mu       sync.Mutex
	frames   []protocol.Frame
	flushes  int
	WriteErr error
	FlushErr error
}

func (t *RecorderTransport) WriteFrame(f protocol.Frame) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.WriteErr != nil {
		return t.WriteErr
	}
	t.frames = append(t.frames, f)
	return nil
}

func (t *RecorderTransport) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.FlushErr != nil {
		return t.FlushErr
	}
	t.flushes++
	return nil
}

// SetFlushErr programs the next flushes to fail (nil clears).
func (t *RecorderTransport) SetFlushErr(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.FlushErr = err
}

// Frames returns a copy of the recorded frames in write order.
func (t *RecorderTransport) Frames() []protocol.Frame {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]protocol.Frame, len(t.frames))
	copy(out, t.frames)
	return out
}

// FrameTypes returns the recorded frame types in write order.
func (t *RecorderTransport) FrameTypes() []protocol.Type {
	t.mu.Lock()
	defer t.mu.Unlock()
	types := make([]protocol.Type, len(t.frames))
	for i, f := range t.frames {
		types[i] = f.Type
	}
	return types
}

// Flushes returns the number of successful flushes.
func (t *RecorderTransport) Flushes() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.flushes
}

// CountingFlusher counts flushes and fails while Err is set.
type CountingFlusher struct {
	Count int
	Err   error
}

func (f *CountingFlusher) Flush() error {
	if f.Err != nil {
		return f.Err
	}
	f.Count++
	return nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}
