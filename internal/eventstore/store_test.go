package eventstore

import (
	"fmt"
	"testing"

	"github.com/soundslope/vibedj/internal/protocol"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name  string
		frame protocol.Frame
		want  Category
	}{
		{"error frame", protocol.NewError("rate limited"), CategoryError},
		{"vibe update", protocol.NewVibeUpdate([]string{"tempo up"}, nil), CategorySteer},
		{"suggestions", protocol.NewSuggestions(nil), CategorySteer},
		{"ack", protocol.NewAck("Starting"), CategorySSE},
		{"done", protocol.NewDone("Complete"), CategorySSE},
		{"thinking", protocol.NewThinking("hmm", ""), CategoryState},
		{"progress", protocol.NewProgress("Analyzing vibe", "analyze"), CategoryState},
		{"queue update", protocol.NewQueueUpdate(protocol.Track{Name: "A", Artist: "B"}, 1), CategoryState},
		{"api log", protocol.NewLog(protocol.LogPayload{Logger: "api:search", Message: "GET /search"}), CategoryAPI},
		{"api root log", protocol.NewLog(protocol.LogPayload{Logger: "api", Message: "request"}), CategoryAPI},
		{"dj log", protocol.NewLog(protocol.LogPayload{Logger: "dj:steer", Message: "adjusting"}), CategoryState},
		{"unknown type", protocol.Frame{Type: protocol.Type("mystery")}, CategoryState},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.frame); got != tc.want {
				t.Errorf("Classify(%s) = %q, want %q", tc.frame.Type, got, tc.want)
			}
		})
	}
}

func TestStoreIngest(t *testing.T) {
	t.Run("insertion order preserved", func(t *testing.T) {
		store := NewStore(10)
		store.Ingest(protocol.NewAck("Starting"))
		store.Ingest(protocol.NewProgress("Analyzing vibe", "analyze"))
		store.Ingest(protocol.NewDone("Complete"))

		events := store.Events()
		if len(events) != 3 {
			t.Fatalf("len = %d, want 3", len(events))
		}
		wantTypes := []protocol.Type{protocol.TypeAck, protocol.TypeProgress, protocol.TypeDone}
		for i, want := range wantTypes {
			if events[i].Frame.Type != want {
				t.Errorf("event %d = %q, want %q", i, events[i].Frame.Type, want)
			}
		}
	})

	t.Run("FIFO eviction beyond capacity", func(t *testing.T) {
		const capacity = 5
		const extra = 3
		store := NewStore(capacity)

		for i := 0; i < capacity+extra; i++ {
			store.Ingest(protocol.NewProgress(fmt.Sprintf("step %d", i), ""))
		}

		events := store.Events()
		if len(events) != capacity {
			t.Fatalf("len = %d, want %d", len(events), capacity)
		}
		// The K most recent remain, oldest evicted first.
		for i, event := range events {
			want := fmt.Sprintf("step %d", i+extra)
			if event.Summary != want {
				t.Errorf("event %d = %q, want %q", i, event.Summary, want)
			}
		}
	})

	t.Run("error count tracks ingested errors", func(t *testing.T) {
		store := NewStore(2)
		store.Ingest(protocol.NewError("first"))
		store.Ingest(protocol.NewProgress("ok", ""))
		store.Ingest(protocol.NewError("second"))

		// The first error has been evicted; the counter still reflects
		// every ingested error.
		if store.ErrorCount() != 2 {
			t.Errorf("errorCount = %d, want 2", store.ErrorCount())
		}

		store.Clear()
		if store.ErrorCount() != 0 {
			t.Errorf("errorCount after Clear = %d, want 0", store.ErrorCount())
		}
		if store.Len() != 0 {
			t.Errorf("len after Clear = %d, want 0", store.Len())
		}
	})

	t.Run("connectedAt set on first ingest only", func(t *testing.T) {
		store := NewStore(10)
		if !store.ConnectedAt().IsZero() {
			t.Fatal("connectedAt set before any ingest")
		}

		store.Ingest(protocol.NewAck("Starting"))
		first := store.ConnectedAt()
		if first.IsZero() {
			t.Fatal("connectedAt not set on first ingest")
		}

		store.Ingest(protocol.NewDone("Complete"))
		if !store.ConnectedAt().Equal(first) {
			t.Error("connectedAt changed on later ingest")
		}

		store.Clear()
		if !store.ConnectedAt().IsZero() {
			t.Error("connectedAt not reset by Clear")
		}
	})

	t.Run("error frames do not stop ingestion", func(t *testing.T) {
		store := NewStore(10)
		store.Ingest(protocol.NewError("rate limited"))
		store.Ingest(protocol.NewProgress("retrying", ""))

		if store.Len() != 2 {
			t.Errorf("len = %d, want 2", store.Len())
		}
	})
}

func TestStoreFilter(t *testing.T) {
	store := NewStore(10)
	store.Ingest(protocol.NewAck("Starting"))
	store.Ingest(protocol.NewError("boom"))
	store.Ingest(protocol.NewVibeUpdate([]string{"more bass"}, nil))
	store.Ingest(protocol.NewError("boom again"))

	store.SetFilter(CategoryError)
	filtered := store.FilteredEvents()
	if len(filtered) != 2 {
		t.Fatalf("filtered len = %d, want 2", len(filtered))
	}
	for _, event := range filtered {
		if event.Category != CategoryError {
			t.Errorf("unexpected category %q in filtered view", event.Category)
		}
	}

	// The filter is a view: the full history is untouched.
	if len(store.Events()) != 4 {
		t.Errorf("events len = %d, want 4", len(store.Events()))
	}

	store.SetFilter("")
	if len(store.FilteredEvents()) != 4 {
		t.Error("clearing the filter should restore the full view")
	}
}

func TestStoreSubscribe(t *testing.T) {
	store := NewStore(10)

	var sizeAtNotify int
	store.Subscribe(func() {
		sizeAtNotify = store.Len()
	})

	store.Ingest(protocol.NewAck("Starting"))
	if sizeAtNotify != 1 {
		t.Errorf("subscriber saw size %d, want 1 (notify must follow the mutation)", sizeAtNotify)
	}

	store.Clear()
	if sizeAtNotify != 0 {
		t.Errorf("subscriber saw size %d after Clear, want 0", sizeAtNotify)
	}
}

func TestSummarize(t *testing.T) {
	queued := protocol.NewQueueUpdate(protocol.Track{Name: "Song A", Artist: "Artist A"}, 1)
	if got := Summarize(queued); got != "Queued: Artist A - Song A" {
		t.Errorf("queue summary = %q", got)
	}

	logFrame := protocol.NewLog(protocol.LogPayload{Logger: "dj:search", Message: "no match"})
	if got := Summarize(logFrame); got != "[dj:search] no match" {
		t.Errorf("log summary = %q", got)
	}
}

func TestMeta(t *testing.T) {
	frame := protocol.NewLog(protocol.LogPayload{
		Logger:  "api:search",
		Message: "GET /search",
		Fields:  map[string]any{"duration_ms": 42.0, "status": "200"},
	})

	store := NewStore(10)
	event := store.Ingest(frame)
	if event.DurationMs != 42 {
		t.Errorf("durationMs = %d, want 42", event.DurationMs)
	}
	if event.Status != "200" {
		t.Errorf("status = %q, want 200", event.Status)
	}
}
