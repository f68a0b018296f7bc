package stream

import (
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/soundslope/vibedj/internal/protocol"
	th "github.com/soundslope/vibedj/internal/testing"
)

func quietSink() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func TestLogger(t *testing.T) {
	t.Run("forwards log frames in order", func(t *testing.T) {
		transport := &th.RecorderTransport{}
		emitter := NewEmitter(transport, FlushOpts{EveryN: 100, Interval: time.Hour})
		logger := NewLogger("dj", quietSink(), emitter)

		logger.Info("warming up")
		logger.Warn("slow search", "elapsed_ms", 1200)
		logger.Close()

		frames := transport.Frames()
		if len(frames) != 2 {
			t.Fatalf("got %d frames, want 2", len(frames))
		}

		first, err := protocol.Decode[protocol.LogPayload](frames[0])
		if err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		if first.Level != "info" || first.Message != "warming up" || first.Logger != "dj" {
			t.Errorf("payload = %+v", first)
		}

		second, err := protocol.Decode[protocol.LogPayload](frames[1])
		if err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		if second.Level != "warn" {
			t.Errorf("level = %q", second.Level)
		}
		if got, ok := second.Fields["elapsed_ms"].(float64); !ok || got != 1200 {
			t.Errorf("elapsed_ms = %v", second.Fields["elapsed_ms"])
		}
	})

	t.Run("child joins tags and shares attachment", func(t *testing.T) {
		transport := &th.RecorderTransport{}
		emitter := NewEmitter(transport, FlushOpts{EveryN: 100, Interval: time.Hour})
		logger := NewLogger("dj", quietSink(), emitter)

		child := logger.Child("search")
		if child.Tag() != "dj:search" {
			t.Errorf("tag = %q, want dj:search", child.Tag())
		}

		child.Info("querying catalog")
		logger.Close()

		frames := transport.Frames()
		if len(frames) != 1 {
			t.Fatalf("got %d frames, want 1", len(frames))
		}
		payload, _ := protocol.Decode[protocol.LogPayload](frames[0])
		if payload.Logger != "dj:search" {
			t.Errorf("logger tag = %q", payload.Logger)
		}
	})

	t.Run("delivery failure stays local", func(t *testing.T) {
		transport := &th.RecorderTransport{WriteErr: errors.New("channel closed")}
		emitter := NewEmitter(transport, FlushOpts{EveryN: 100, Interval: time.Hour})

		var sb strings.Builder
		sink := log.NewWithOptions(&sb, log.Options{Level: log.DebugLevel})
		logger := NewLogger("dj", sink, emitter)

		// Must not panic or return; the failure is the pump's problem.
		logger.Info("doomed entry")
		logger.Close()

		if len(transport.Frames()) != 0 {
			t.Error("frame recorded despite write failure")
		}
		if !strings.Contains(sb.String(), "log frame delivery failed") {
			t.Errorf("local sink missing delivery failure report: %q", sb.String())
		}
	})

	t.Run("detached logger emits nothing", func(t *testing.T) {
		logger := NewLogger("dj", quietSink(), nil)
		logger.Info("local only")
		logger.Close()
	})

	t.Run("error entries carry message and stack", func(t *testing.T) {
		transport := &th.RecorderTransport{}
		emitter := NewEmitter(transport, FlushOpts{EveryN: 100, Interval: time.Hour})
		logger := NewLogger("dj", quietSink(), emitter)

		logger.Error("search failed", "err", errors.New("rate limited"))
		logger.Close()

		frames := transport.Frames()
		if len(frames) != 1 {
			t.Fatalf("got %d frames, want 1", len(frames))
		}
		payload, _ := protocol.Decode[protocol.LogPayload](frames[0])
		if payload.Fields["err"] != "rate limited" {
			t.Errorf("err field = %v", payload.Fields["err"])
		}
		if payload.Stack == "" {
			t.Error("error entry missing stack")
		}
	})
}

func TestFieldMap(t *testing.T) {
	type vibe struct{ Energy float64 }

	m := fieldMap([]any{
		"err", errors.New("boom"),
		"count", 3,
		"vibe", vibe{Energy: 0.9},
		"dangling",
	})

	if m["err"] != "boom" {
		t.Errorf("err = %v", m["err"])
	}
	if m["count"] != 3 {
		t.Errorf("count = %v", m["count"])
	}
	if _, ok := m["vibe"].(string); !ok {
		t.Errorf("vibe not coerced to string: %T", m["vibe"])
	}
	if _, ok := m["dangling"]; !ok {
		t.Error("dangling key dropped")
	}
}
