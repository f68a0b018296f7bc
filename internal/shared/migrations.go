package shared

import (
	"database/sql"
	"fmt"
)

// Schema for the session archive. Sessions record one streaming operation
// each; frames store the delivered sequence in emission order.
const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	prompt TEXT NOT NULL,
	mode TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'running',
	started_at TIMESTAMP NOT NULL,
	completed_at TIMESTAMP
);

CREATE TABLE IF NOT EXISTS frames (
	id TEXT PRIMARY KEY,
	session_id TEXT NOT NULL REFERENCES sessions(id),
	seq INTEGER NOT NULL,
	type TEXT NOT NULL,
	payload TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL,
	UNIQUE (session_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_frames_session ON frames(session_id, seq);
`

// RunMigrations creates the archive tables if they do not exist.
func RunMigrations(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
