package main

import (
	"context"
	"fmt"

	"github.com/soundslope/vibedj/internal/eventstore"
	"github.com/soundslope/vibedj/internal/progress"
	"github.com/soundslope/vibedj/internal/repositories"
	"github.com/soundslope/vibedj/internal/shared"
	"github.com/urfave/cli/v3"
)

// openSessions opens the archive database from the configuration. The caller
// must invoke the returned closer.
func (r *Runner) openSessions(cmd *cli.Command) (*repositories.SessionRepository, func(), error) {
	config := r.loadConfig(cmd.String("config"))

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	// Migrations are idempotent, so inspecting a fresh archive just works.
	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, nil, err
	}

	return repositories.NewSessionRepository(db), func() { db.Close() }, nil
}

// SessionsList prints archived sessions, newest first.
func (r *Runner) SessionsList(ctx context.Context, cmd *cli.Command) error {
	sessions, closeDB, err := r.openSessions(cmd)
	if err != nil {
		return err
	}
	defer closeDB()

	list, err := sessions.List(int(cmd.Int("limit")))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(list, true)
	}

	if len(list) == 0 {
		return r.writePlain("no archived sessions\n")
	}
	for _, session := range list {
		if err := r.writePlain("%s  %-8s %-8s %s  %q\n",
			session.ID,
			session.Status,
			session.Mode,
			session.StartedAt.Format("2006-01-02 15:04:05"),
			session.Prompt,
		); err != nil {
			return err
		}
	}
	return nil
}

// SessionsShow prints one session's metadata and archived frame sequence.
func (r *Runner) SessionsShow(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: session id", shared.ErrMissingArgument)
	}

	sessions, closeDB, err := r.openSessions(cmd)
	if err != nil {
		return err
	}
	defer closeDB()

	session, err := sessions.Get(id)
	if err != nil {
		return err
	}
	frames, err := sessions.Frames(id)
	if err != nil {
		return err
	}

	r.writePlain("session %s (%s, %s)\n", session.ID, session.Mode, session.Status)
	r.writePlain("prompt: %q\n", session.Prompt)
	r.writePlain("started: %s\n", session.StartedAt.Format("2006-01-02 15:04:05"))
	if session.CompletedAt != nil {
		r.writePlain("completed: %s\n", session.CompletedAt.Format("2006-01-02 15:04:05"))
	}
	r.writePlainln("frames (%d):", len(frames))
	for i, frame := range frames {
		if err := r.writePlain("  %3d  %-12s %s\n", i, frame.Type, frame.Message()); err != nil {
			return err
		}
	}
	return nil
}

// SessionsReplay recomputes the final progress view from an archived frame
// sequence, exactly as a live client would have derived it.
func (r *Runner) SessionsReplay(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: session id", shared.ErrMissingArgument)
	}

	sessions, closeDB, err := r.openSessions(cmd)
	if err != nil {
		return err
	}
	defer closeDB()

	frames, err := sessions.Frames(id)
	if err != nil {
		return err
	}

	store := eventstore.NewStore(len(frames) + 1)
	for _, frame := range frames {
		store.Ingest(frame)
	}
	view := progress.Derive(store.Events())

	return r.writeJSON(view, cmd.Bool("pretty"))
}
