package server

import (
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/soundslope/vibedj/internal/protocol"
	"github.com/soundslope/vibedj/internal/repositories"
	"github.com/soundslope/vibedj/internal/shared"
	"github.com/soundslope/vibedj/internal/stream"
)

// sseTransport adapts an HTTP response into a [stream.Transport]: frames
// become server-sent events and flushes push the response buffer out to the
// client. A flush failure surfaces to the flush controller so its counters
// stay pending.
type sseTransport struct {
	w  http.ResponseWriter
	rc *http.ResponseController
}

func newSSETransport(w http.ResponseWriter) *sseTransport {
	return &sseTransport{w: w, rc: http.NewResponseController(w)}
}

func (t *sseTransport) WriteFrame(f protocol.Frame) error {
	return protocol.WriteSSE(t.w, f)
}

func (t *sseTransport) Flush() error {
	if err := t.rc.Flush(); err != nil {
		if errors.Is(err, http.ErrNotSupported) {
			return shared.ErrStreamUnsupported
		}
		return err
	}
	return nil
}

// archiveTransport tees every delivered frame into the session archive.
// Archive failures are reported locally and never disturb delivery.
type archiveTransport struct {
	inner     stream.Transport
	sessions  *repositories.SessionRepository
	sessionID string
	seq       int
	logger    *log.Logger
}

func newArchiveTransport(inner stream.Transport, sessions *repositories.SessionRepository, sessionID string, logger *log.Logger) *archiveTransport {
	return &archiveTransport{
		inner:     inner,
		sessions:  sessions,
		sessionID: sessionID,
		logger:    logger,
	}
}

func (t *archiveTransport) WriteFrame(f protocol.Frame) error {
	if err := t.inner.WriteFrame(f); err != nil {
		return err
	}
	if err := t.sessions.AppendFrame(t.sessionID, t.seq, f); err != nil {
		t.logger.Warn("failed to archive frame", "session", t.sessionID, "seq", t.seq, "err", err)
	}
	t.seq++
	return nil
}

func (t *archiveTransport) Flush() error {
	return t.inner.Flush()
}
