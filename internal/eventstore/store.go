package eventstore

import (
	"time"

	"github.com/soundslope/vibedj/internal/protocol"
	"github.com/soundslope/vibedj/internal/shared"
)

// DefaultCapacity bounds the history when the caller does not choose one.
const DefaultCapacity = 250

// Category classifies an ingested event for filtering and display.
type Category string

const (
	CategoryAPI   Category = "api"
	CategorySSE   Category = "sse"
	CategoryError Category = "error"
	CategoryState Category = "state"
	CategorySteer Category = "steer"
)

// Categories lists every category in display order.
var Categories = []Category{CategoryAPI, CategorySSE, CategoryError, CategoryState, CategorySteer}

// DebugEvent is one classified entry in the history. Immutable after
// ingestion.
type DebugEvent struct {
	ID         string
	Timestamp  time.Time
	Category   Category
	Summary    string
	DurationMs int64  // from log frame fields, 0 when absent
	Status     string // from log frame fields, "" when absent
	Frame      protocol.Frame
}

// Store is the single consumer of a progress channel on the client side. It
// ingests raw frames, classifies them, keeps a capacity-bounded ordered
// history, and tracks aggregate counters.
//
// A store is a plain value held by its consuming component; create as many
// independent instances as needed. Ingestion is synchronous relative to
// frame arrival: there is one consumer, so the store does no locking.
type Store struct {
	capacity    int
	ring        []DebugEvent
	head        int // index of the oldest stored event
	size        int
	filter      Category // "" means no filter
	errorCount  int
	connectedAt time.Time
	subscribers []func()
	now         func() time.Time
}

// NewStore creates a store with the given history capacity. Non-positive
// capacities fall back to [DefaultCapacity].
func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{
		capacity: capacity,
		ring:     make([]DebugEvent, capacity),
		now:      time.Now,
	}
}

// Ingest classifies and stores one frame. Beyond capacity the single oldest
// event is evicted, strictly FIFO. Subscribers are notified after the new
// state is visible to reads.
func (s *Store) Ingest(frame protocol.Frame) DebugEvent {
	event := DebugEvent{
		ID:        shared.GenerateID(),
		Timestamp: s.now(),
		Category:  Classify(frame),
		Summary:   Summarize(frame),
		Frame:     frame,
	}
	event.DurationMs, event.Status = meta(frame)

	if s.connectedAt.IsZero() {
		s.connectedAt = event.Timestamp
	}

	if s.size == s.capacity {
		s.head = (s.head + 1) % s.capacity
		s.size--
	}
	s.ring[(s.head+s.size)%s.capacity] = event
	s.size++

	if event.Category == CategoryError {
		s.errorCount++
	}

	s.notify()
	return event
}

// Events returns the stored history, oldest first.
func (s *Store) Events() []DebugEvent {
	out := make([]DebugEvent, s.size)
	for i := 0; i < s.size; i++ {
		out[i] = s.ring[(s.head+i)%s.capacity]
	}
	return out
}

// FilteredEvents returns the history restricted to the active filter. With
// no filter set it is identical to [Store.Events].
func (s *Store) FilteredEvents() []DebugEvent {
	if s.filter == "" {
		return s.Events()
	}
	out := make([]DebugEvent, 0, s.size)
	for i := 0; i < s.size; i++ {
		event := s.ring[(s.head+i)%s.capacity]
		if event.Category == s.filter {
			out = append(out, event)
		}
	}
	return out
}

// SetFilter restricts the filtered view to one category. The empty category
// clears the filter. A filter is a view over the same history, never a copy.
func (s *Store) SetFilter(c Category) {
	s.filter = c
	s.notify()
}

// Filter returns the active filter category, or "" when unfiltered.
func (s *Store) Filter() Category { return s.filter }

// Len returns the number of stored events.
func (s *Store) Len() int { return s.size }

// ErrorCount returns how many error-category events have been ingested
// since construction or the last [Store.Clear]. Eviction does not decrement
// it.
func (s *Store) ErrorCount() int { return s.errorCount }

// ConnectedAt returns the timestamp of the first event of the current
// session, or the zero time before any ingestion.
func (s *Store) ConnectedAt() time.Time { return s.connectedAt }

// Clear empties the history and resets the error counter and session mark.
// The next ingested event starts a new session.
func (s *Store) Clear() {
	s.head = 0
	s.size = 0
	s.errorCount = 0
	s.connectedAt = time.Time{}
	s.notify()
}

// Subscribe registers fn to run after every mutation. Notifications fire
// strictly after the mutation is visible to reads, so a subscriber acting on
// store size never sees a stale count.
func (s *Store) Subscribe(fn func()) {
	s.subscribers = append(s.subscribers, fn)
}

func (s *Store) notify() {
	for _, fn := range s.subscribers {
		fn()
	}
}
