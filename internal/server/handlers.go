package server

import (
	"encoding/json"
	"net/http"

	"github.com/soundslope/vibedj/internal/dj"
	"github.com/soundslope/vibedj/internal/eventstore"
	"github.com/soundslope/vibedj/internal/progress"
	"github.com/soundslope/vibedj/internal/repositories"
	"github.com/soundslope/vibedj/internal/stream"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleStream opens the one-shot progress channel and runs one operation
// over it. The channel closes when the operation finishes or the client
// disconnects; there is no resume.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	prompt := r.URL.Query().Get("prompt")
	if prompt == "" {
		http.Error(w, "prompt query parameter required", http.StatusBadRequest)
		return
	}
	mode, ok := parseMode(r.URL.Query().Get("mode"))
	if !ok {
		http.Error(w, "mode must be generate or steer", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	var transport stream.Transport = newSSETransport(w)
	sessionID := s.beginSession(prompt, mode, &transport)

	engine := dj.NewEngine(dj.EngineOpts{Prompt: prompt, Mode: mode})
	err := dj.Run(r.Context(), transport, engine, s.flushOpts(), s.logger)
	if err != nil {
		s.logger.Warn("stream operation failed", "session", sessionID, "err", err)
	}
	s.completeSession(sessionID, err)
}

// handleGenerate is the non-streaming sibling: it runs the same operation
// against an in-memory transport and returns the accumulated history in one
// aggregated response.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Prompt string `json:"prompt"`
		Mode   string `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Prompt == "" {
		http.Error(w, "prompt required", http.StatusBadRequest)
		return
	}
	mode, ok := parseMode(req.Mode)
	if !ok {
		http.Error(w, "mode must be generate or steer", http.StatusBadRequest)
		return
	}

	var transport stream.Transport = &stream.Collector{}
	sessionID := s.beginSession(req.Prompt, mode, &transport)

	// No client is waiting on individual frames, so emission is unpaced.
	engine := dj.NewEngine(dj.EngineOpts{Prompt: req.Prompt, Mode: mode, RateLimit: 100000})
	err := dj.Run(r.Context(), transport, engine, s.flushOpts(), s.logger)
	s.completeSession(sessionID, err)
	if err != nil {
		s.logger.Warn("generate operation failed", "session", sessionID, "err", err)
		http.Error(w, "generation failed", http.StatusInternalServerError)
		return
	}

	collector := collectorOf(transport)
	store := eventstore.NewStore(len(collector.Frames()) + 1)
	for _, frame := range collector.Frames() {
		store.Ingest(frame)
	}
	view := progress.Derive(store.Events())

	response := struct {
		SessionID string `json:"session_id,omitempty"`
		progress.View
	}{SessionID: sessionID, View: view}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.logger.Warn("failed to encode aggregate response", "err", err)
	}
}

func parseMode(raw string) (dj.Mode, bool) {
	switch raw {
	case "", string(dj.ModeGenerate):
		return dj.ModeGenerate, true
	case string(dj.ModeSteer):
		return dj.ModeSteer, true
	default:
		return "", false
	}
}

// beginSession archives the operation and tees the transport when a session
// repository is configured. Returns "" otherwise.
func (s *Server) beginSession(prompt string, mode dj.Mode, transport *stream.Transport) string {
	if s.sessions == nil {
		return ""
	}

	session := &repositories.Session{Prompt: prompt, Mode: string(mode)}
	if err := s.sessions.Create(session); err != nil {
		s.logger.Warn("failed to create session record", "err", err)
		return ""
	}

	*transport = newArchiveTransport(*transport, s.sessions, session.ID, s.logger)
	return session.ID
}

func (s *Server) completeSession(sessionID string, runErr error) {
	if s.sessions == nil || sessionID == "" {
		return
	}

	status := repositories.StatusDone
	if runErr != nil {
		status = repositories.StatusError
	}
	if err := s.sessions.Complete(sessionID, status); err != nil {
		s.logger.Warn("failed to complete session record", "session", sessionID, "err", err)
	}
}

// collectorOf unwraps the archive tee when present.
func collectorOf(t stream.Transport) *stream.Collector {
	if archive, ok := t.(*archiveTransport); ok {
		t = archive.inner
	}
	return t.(*stream.Collector)
}
