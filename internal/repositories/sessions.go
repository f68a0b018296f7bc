package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/soundslope/vibedj/internal/protocol"
	"github.com/soundslope/vibedj/internal/shared"
)

// Session statuses.
const (
	StatusRunning = "running"
	StatusDone    = "done"
	StatusError   = "error"
)

// Session represents one archived streaming operation.
type Session struct {
	ID          string
	Prompt      string
	Mode        string
	Status      string
	StartedAt   time.Time
	CompletedAt *time.Time
}

// SessionRepository stores sessions and their frame sequences.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a repository over an open database. The
// schema must already exist (see shared.RunMigrations).
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts a new running session and assigns it an ID.
func (r *SessionRepository) Create(session *Session) error {
	if session.Prompt == "" {
		return fmt.Errorf("%w: session prompt required", shared.ErrInvalidInput)
	}

	session.ID = shared.GenerateID()
	session.Status = StatusRunning
	session.StartedAt = time.Now().UTC()

	query := `
		INSERT INTO sessions (id, prompt, mode, status, started_at)
		VALUES (?, ?, ?, ?, ?)
	`
	if _, err := r.db.Exec(query, session.ID, session.Prompt, session.Mode, session.Status, session.StartedAt); err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

// Complete marks a session finished with the given terminal status.
func (r *SessionRepository) Complete(id, status string) error {
	now := time.Now().UTC()

	result, err := r.db.Exec(
		`UPDATE sessions SET status = ?, completed_at = ? WHERE id = ?`,
		status, now, id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrSessionNotFound, id)
	}
	return nil
}

// AppendFrame stores one delivered frame under the session. seq must be the
// frame's position in emission order; the unique index rejects duplicates.
func (r *SessionRepository) AppendFrame(sessionID string, seq int, frame protocol.Frame) error {
	query := `
		INSERT INTO frames (id, session_id, seq, type, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query,
		shared.GenerateID(),
		sessionID,
		seq,
		string(frame.Type),
		string(frame.Data),
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert frame: %w", err)
	}
	return nil
}

// Get retrieves a session by ID.
func (r *SessionRepository) Get(id string) (*Session, error) {
	query := `
		SELECT id, prompt, mode, status, started_at, completed_at
		FROM sessions
		WHERE id = ?
	`
	session, err := scanSession(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrSessionNotFound, id)
	}
	return session, err
}

// List returns the most recent sessions, newest first.
func (r *SessionRepository) List(limit int) ([]Session, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, prompt, mode, status, started_at, completed_at
		FROM sessions
		ORDER BY started_at DESC
		LIMIT ?
	`
	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	return sessions, rows.Err()
}

// Frames returns a session's archived frames in emission order.
func (r *SessionRepository) Frames(sessionID string) ([]protocol.Frame, error) {
	query := `
		SELECT type, payload
		FROM frames
		WHERE session_id = ?
		ORDER BY seq ASC
	`
	rows, err := r.db.Query(query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query frames: %w", err)
	}
	defer rows.Close()

	var frames []protocol.Frame
	for rows.Next() {
		var frameType, payload string
		if err := rows.Scan(&frameType, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan frame: %w", err)
		}
		frames = append(frames, protocol.Frame{
			Type: protocol.Type(frameType),
			Data: []byte(payload),
		})
	}
	return frames, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*Session, error) {
	var session Session
	var completedAt sql.NullTime

	err := row.Scan(&session.ID, &session.Prompt, &session.Mode, &session.Status, &session.StartedAt, &completedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan session: %w", err)
	}

	if completedAt.Valid {
		session.CompletedAt = &completedAt.Time
	}
	return &session, nil
}
