package repositories

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/soundslope/vibedj/internal/protocol"
	"github.com/soundslope/vibedj/internal/shared"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return db
}

func TestSessionRepository(t *testing.T) {
	t.Run("create and get", func(t *testing.T) {
		repo := NewSessionRepository(newTestDB(t))

		session := &Session{Prompt: "late night drive", Mode: "generate"}
		if err := repo.Create(session); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if session.ID == "" {
			t.Fatal("Create did not assign an ID")
		}

		got, err := repo.Get(session.ID)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got.Prompt != "late night drive" || got.Status != StatusRunning {
			t.Errorf("session = %+v", got)
		}
		if got.CompletedAt != nil {
			t.Error("new session should not be completed")
		}
	})

	t.Run("create requires prompt", func(t *testing.T) {
		repo := NewSessionRepository(newTestDB(t))
		err := repo.Create(&Session{Mode: "generate"})
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("complete", func(t *testing.T) {
		repo := NewSessionRepository(newTestDB(t))

		session := &Session{Prompt: "warmup", Mode: "generate"}
		if err := repo.Create(session); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if err := repo.Complete(session.ID, StatusDone); err != nil {
			t.Fatalf("Complete failed: %v", err)
		}

		got, err := repo.Get(session.ID)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got.Status != StatusDone {
			t.Errorf("status = %q, want done", got.Status)
		}
		if got.CompletedAt == nil {
			t.Error("completed_at not set")
		}

		if err := repo.Complete("missing-id", StatusDone); !errors.Is(err, shared.ErrSessionNotFound) {
			t.Errorf("expected ErrSessionNotFound, got %v", err)
		}
	})

	t.Run("frames round-trip in order", func(t *testing.T) {
		repo := NewSessionRepository(newTestDB(t))

		session := &Session{Prompt: "warmup", Mode: "generate"}
		if err := repo.Create(session); err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		emitted := []protocol.Frame{
			protocol.NewAck("Starting"),
			protocol.NewProgress("Analyzing vibe", "analyze"),
			protocol.NewQueueUpdate(protocol.Track{Name: "Song A", Artist: "Artist A"}, 1),
			protocol.NewDone("Complete"),
		}
		for i, frame := range emitted {
			if err := repo.AppendFrame(session.ID, i, frame); err != nil {
				t.Fatalf("AppendFrame %d failed: %v", i, err)
			}
		}

		frames, err := repo.Frames(session.ID)
		if err != nil {
			t.Fatalf("Frames failed: %v", err)
		}
		if len(frames) != len(emitted) {
			t.Fatalf("got %d frames, want %d", len(frames), len(emitted))
		}
		for i := range emitted {
			if frames[i].Type != emitted[i].Type {
				t.Errorf("frame %d type = %q, want %q", i, frames[i].Type, emitted[i].Type)
			}
		}
		if frames[3].Message() != "Complete" {
			t.Errorf("payload round-trip broken: %q", frames[3].Message())
		}
	})

	t.Run("duplicate seq rejected", func(t *testing.T) {
		repo := NewSessionRepository(newTestDB(t))

		session := &Session{Prompt: "warmup", Mode: "generate"}
		if err := repo.Create(session); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if err := repo.AppendFrame(session.ID, 0, protocol.NewAck("a")); err != nil {
			t.Fatalf("AppendFrame failed: %v", err)
		}
		if err := repo.AppendFrame(session.ID, 0, protocol.NewAck("b")); err == nil {
			t.Error("expected unique constraint violation")
		}
	})

	t.Run("list newest first", func(t *testing.T) {
		repo := NewSessionRepository(newTestDB(t))

		for _, prompt := range []string{"first", "second", "third"} {
			if err := repo.Create(&Session{Prompt: prompt, Mode: "generate"}); err != nil {
				t.Fatalf("Create failed: %v", err)
			}
		}

		sessions, err := repo.List(2)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(sessions) != 2 {
			t.Fatalf("got %d sessions, want 2", len(sessions))
		}
	})

	t.Run("get missing", func(t *testing.T) {
		repo := NewSessionRepository(newTestDB(t))
		if _, err := repo.Get("nope"); !errors.Is(err, shared.ErrSessionNotFound) {
			t.Errorf("expected ErrSessionNotFound, got %v", err)
		}
	})
}
