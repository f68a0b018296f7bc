package dj

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/soundslope/vibedj/internal/protocol"
	"github.com/soundslope/vibedj/internal/stream"
	"golang.org/x/time/rate"
)

// Mode selects the operation a producer performs.
type Mode string

const (
	ModeGenerate Mode = "generate"
	ModeSteer    Mode = "steer"
)

// Producer emits the frame sequence for one operation. Implementations are
// opaque to the pipeline: the pipeline only guarantees delivery, batching,
// and bounded flush latency.
type Producer interface {
	Produce(ctx context.Context, session *Session) error
}

// Session bundles the per-operation outbound pipeline handed to a producer.
// Sink is the local diagnostic logger; producers that open additional
// subsystem loggers on the emitter reuse it.
type Session struct {
	Emitter *stream.Emitter
	Logger  *stream.Logger
	Sink    *log.Logger
}

// Run wires a transport into a fresh per-operation pipeline, runs the
// producer, and closes the pipeline down: a producer failure becomes an
// error frame, queued log frames are drained, and pending writes are
// force-flushed. On context cancellation no further flush attempts are made.
func Run(ctx context.Context, transport stream.Transport, producer Producer, opts stream.FlushOpts, sink *log.Logger) error {
	emitter := stream.NewEmitter(transport, opts)
	logger := stream.NewLogger("dj", sink, emitter)
	session := &Session{Emitter: emitter, Logger: logger, Sink: sink}

	err := producer.Produce(ctx, session)
	if err != nil && ctx.Err() == nil {
		if sendErr := emitter.Send(protocol.NewError(err.Error())); sendErr != nil {
			logger.Warn("failed to deliver error frame", "err", sendErr)
		}
	}

	logger.Close()

	if ctx.Err() != nil {
		return err
	}
	if closeErr := emitter.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}

// EngineOpts configures the demo [Engine].
type EngineOpts struct {
	Prompt string
	Mode   Mode
	Tracks []protocol.Track // candidate pool, defaults to the built-in set
	// RateLimit paces frame emission in frames per second. Defaults to 25.
	RateLimit float64
}

// Engine is the demo producer standing in for the real playlist generator:
// it walks the generation stages and emits the full frame taxonomy, paced by
// a rate limiter the way a model-backed producer trickles output.
type Engine struct {
	prompt  string
	mode    Mode
	tracks  []protocol.Track
	limiter *rate.Limiter
}

var demoTracks = []protocol.Track{
	{Name: "Midnight City", Artist: "M83"},
	{Name: "Nightcall", Artist: "Kavinsky"},
	{Name: "Instant Crush", Artist: "Daft Punk"},
	{Name: "Innerbloom", Artist: "RÜFÜS DU SOL"},
	{Name: "Opus", Artist: "Eric Prydz"},
	{Name: "Strobe", Artist: "deadmau5"},
}

// NewEngine creates a demo producer for one prompt.
func NewEngine(opts EngineOpts) *Engine {
	if opts.Mode == "" {
		opts.Mode = ModeGenerate
	}
	if len(opts.Tracks) == 0 {
		opts.Tracks = demoTracks
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 25
	}
	return &Engine{
		prompt:  opts.Prompt,
		mode:    opts.Mode,
		tracks:  opts.Tracks,
		limiter: rate.NewLimiter(rate.Limit(opts.RateLimit), 1),
	}
}

// Produce emits one linear generation or steering sequence.
func (e *Engine) Produce(ctx context.Context, session *Session) error {
	send := func(f protocol.Frame) error {
		if err := e.limiter.Wait(ctx); err != nil {
			return err
		}
		return session.Emitter.Send(f)
	}

	searchLog := session.Logger.Child("search")

	// Catalog calls log under the api subsystem so the client files them
	// apart from producer state.
	apiLog := stream.NewLogger("api:catalog", session.Sink, session.Emitter)
	defer apiLog.Close()

	switch e.mode {
	case ModeSteer:
		if err := send(protocol.NewAck("Steering the vibe")); err != nil {
			return err
		}
	default:
		if err := send(protocol.NewAck("Starting")); err != nil {
			return err
		}
	}
	session.Logger.Info("operation accepted", "mode", string(e.mode), "prompt", e.prompt)

	if err := send(protocol.NewThinking("Reading the room", "analyze")); err != nil {
		return err
	}
	if err := send(protocol.NewProgress("Analyzing vibe", "analyze")); err != nil {
		return err
	}

	changes, vibe := e.analyzeVibe()
	if err := send(protocol.NewVibeUpdate(changes, vibe)); err != nil {
		return err
	}

	if err := send(protocol.NewProgress("Building queue", "queue")); err != nil {
		return err
	}

	for i, track := range e.tracks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := send(protocol.NewQueueUpdate(track, i+1)); err != nil {
			return err
		}
		searchLog.Info("matched track", "artist", track.Artist, "name", track.Name)
		apiLog.Debug("catalog lookup", "status", "200", "duration_ms", 12)
	}

	preview, err := json.Marshal(e.tracks[:min(3, len(e.tracks))])
	if err != nil {
		return fmt.Errorf("failed to build preview: %w", err)
	}
	if err := send(protocol.NewSuggestions(preview)); err != nil {
		return err
	}

	return send(protocol.NewDone(fmt.Sprintf("Playlist ready: %d tracks", len(e.tracks))))
}

// analyzeVibe turns the prompt into steering changes. The vibe object is
// opaque to the pipeline.
func (e *Engine) analyzeVibe() ([]string, json.RawMessage) {
	var changes []string
	if e.mode == ModeSteer {
		for _, part := range strings.Split(e.prompt, ",") {
			if part = strings.TrimSpace(part); part != "" {
				changes = append(changes, part)
			}
		}
	}
	if len(changes) == 0 {
		changes = []string{"fresh mix from prompt"}
	}

	vibe, err := json.Marshal(map[string]any{"prompt": e.prompt, "energy": 0.7})
	if err != nil {
		vibe = nil
	}
	return changes, vibe
}

// Scripted replays a fixed frame sequence. Used by tests and by session
// replay tooling.
type Scripted struct {
	Frames []protocol.Frame
	// Err, when set, is returned after the frames are sent so failure
	// handling can be exercised.
	Err error
}

func (s *Scripted) Produce(ctx context.Context, session *Session) error {
	for _, f := range s.Frames {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := session.Emitter.Send(f); err != nil {
			return err
		}
	}
	return s.Err
}

var _ Producer = (*Engine)(nil)
var _ Producer = (*Scripted)(nil)
