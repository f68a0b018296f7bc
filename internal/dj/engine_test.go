package dj

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/soundslope/vibedj/internal/protocol"
	"github.com/soundslope/vibedj/internal/stream"
	th "github.com/soundslope/vibedj/internal/testing"
)

func quietSink() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func fastOpts() stream.FlushOpts {
	return stream.FlushOpts{EveryN: 1, Interval: time.Hour}
}

func TestRunEngine(t *testing.T) {
	transport := &th.RecorderTransport{}
	engine := NewEngine(EngineOpts{
		Prompt:    "late night drive",
		RateLimit: 10000,
		Tracks: []protocol.Track{
			{Name: "Song A", Artist: "Artist A"},
			{Name: "Song B", Artist: "Artist B"},
		},
	})

	if err := Run(context.Background(), transport, engine, fastOpts(), quietSink()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	frames := transport.Frames()
	if len(frames) == 0 {
		t.Fatal("no frames emitted")
	}

	if frames[0].Type != protocol.TypeAck {
		t.Errorf("first frame = %q, want ack", frames[0].Type)
	}

	counts := make(map[protocol.Type]int)
	for _, f := range frames {
		counts[f.Type]++
	}
	if counts[protocol.TypeQueueUpdate] != 2 {
		t.Errorf("queue_update frames = %d, want 2", counts[protocol.TypeQueueUpdate])
	}
	if counts[protocol.TypeVibeUpdate] != 1 {
		t.Errorf("vibe_update frames = %d, want 1", counts[protocol.TypeVibeUpdate])
	}
	if counts[protocol.TypeSuggestions] != 1 {
		t.Errorf("suggestions frames = %d, want 1", counts[protocol.TypeSuggestions])
	}
	if counts[protocol.TypeDone] != 1 {
		t.Errorf("done frames = %d, want 1", counts[protocol.TypeDone])
	}
	if counts[protocol.TypeError] != 0 {
		t.Errorf("unexpected error frames: %d", counts[protocol.TypeError])
	}
	if counts[protocol.TypeLog] == 0 {
		t.Error("expected log frames multiplexed onto the channel")
	}

	// done is the terminal progress frame; only drained log frames may
	// follow it on the transport.
	var lastNonLog protocol.Type
	for _, f := range frames {
		if f.Type != protocol.TypeLog {
			lastNonLog = f.Type
		}
	}
	if lastNonLog != protocol.TypeDone {
		t.Errorf("last non-log frame = %q, want done", lastNonLog)
	}
}

func TestRunSteerMode(t *testing.T) {
	transport := &th.RecorderTransport{}
	engine := NewEngine(EngineOpts{
		Prompt:    "more bass, slower tempo",
		Mode:      ModeSteer,
		RateLimit: 10000,
		Tracks:    []protocol.Track{{Name: "Song A", Artist: "Artist A"}},
	})

	if err := Run(context.Background(), transport, engine, fastOpts(), quietSink()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	for _, f := range transport.Frames() {
		if f.Type != protocol.TypeVibeUpdate {
			continue
		}
		payload, err := protocol.Decode[protocol.VibeUpdatePayload](f)
		if err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		want := []string{"more bass", "slower tempo"}
		if len(payload.Changes) != len(want) {
			t.Fatalf("changes = %v, want %v", payload.Changes, want)
		}
		for i := range want {
			if payload.Changes[i] != want[i] {
				t.Errorf("changes[%d] = %q, want %q", i, payload.Changes[i], want[i])
			}
		}
		return
	}
	t.Fatal("no vibe_update frame emitted")
}

func TestRunProducerFailure(t *testing.T) {
	transport := &th.RecorderTransport{}
	failure := errors.New("catalog unavailable")
	producer := &Scripted{
		Frames: []protocol.Frame{protocol.NewAck("Starting")},
		Err:    failure,
	}

	err := Run(context.Background(), transport, producer, fastOpts(), quietSink())
	if !errors.Is(err, failure) {
		t.Fatalf("expected producer failure, got %v", err)
	}

	types := transport.FrameTypes()
	if len(types) != 2 || types[0] != protocol.TypeAck || types[1] != protocol.TypeError {
		t.Errorf("frames = %v, want [ack error]", types)
	}
	if msg := transport.Frames()[1].Message(); msg != "catalog unavailable" {
		t.Errorf("error frame message = %q", msg)
	}
}

func TestRunCancellation(t *testing.T) {
	transport := &th.RecorderTransport{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	engine := NewEngine(EngineOpts{Prompt: "anything", RateLimit: 10000})
	err := Run(ctx, transport, engine, fastOpts(), quietSink())
	if err == nil {
		t.Fatal("expected cancellation error")
	}

	// No error frame and no trailing flush once the channel is gone.
	for _, ft := range transport.FrameTypes() {
		if ft == protocol.TypeError {
			t.Error("error frame emitted after cancellation")
		}
	}
}
