package protocol

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Type identifies a frame on the progress channel. The set is closed:
// producers must not invent new types, and consumers treat unknown types
// as routine state (see the eventstore package).
type Type string

const (
	TypeAck         Type = "ack"
	TypeThinking    Type = "thinking"
	TypeProgress    Type = "progress"
	TypeVibeUpdate  Type = "vibe_update"
	TypeSuggestions Type = "suggestions"
	TypeQueueUpdate Type = "queue_update"
	TypeLog         Type = "log"
	TypeError       Type = "error"
	TypeDone        Type = "done"
)

// Frame is one discrete, typed unit of data sent over the progress channel.
// Frames are immutable once emitted; delivery order equals emission order.
type Frame struct {
	Type Type            `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Terminal reports whether no further meaningful frames are expected after
// this one.
func (f Frame) Terminal() bool {
	return f.Type == TypeDone || f.Type == TypeError
}

// MessagePayload is the payload for ack, thinking, progress, error, and done
// frames.
type MessagePayload struct {
	Message string `json:"message"`
	Stage   string `json:"stage,omitempty"`
}

// Track is the queue entry payload fragment.
type Track struct {
	Name   string `json:"name"`
	Artist string `json:"artist"`
}

// QueueUpdatePayload announces one track appended to the build queue.
type QueueUpdatePayload struct {
	Track     Track `json:"track"`
	QueueSize int   `json:"queueSize,omitempty"`
}

// VibeUpdatePayload announces changed steering parameters. Vibe is opaque to
// the pipeline and passed through untouched.
type VibeUpdatePayload struct {
	Changes []string        `json:"changes"`
	Vibe    json.RawMessage `json:"vibe,omitempty"`
}

// SuggestionsPayload carries a preview of candidate results.
type SuggestionsPayload struct {
	Preview json.RawMessage `json:"preview,omitempty"`
}

// LogPayload is the logging frame shape multiplexed onto the channel by the
// stream logger.
type LogPayload struct {
	Level   string         `json:"level"`
	Logger  string         `json:"logger"`
	Message string         `json:"message"`
	Fields  map[string]any `json:"fields,omitempty"`
	Stack   string         `json:"stack,omitempty"`
}

func newFrame(t Type, payload any) Frame {
	data, err := json.Marshal(payload)
	if err != nil {
		data = []byte(`{}`)
	}
	return Frame{Type: t, Data: data}
}

// NewAck builds an ack frame: the operation was accepted and work is starting.
func NewAck(message string) Frame {
	return newFrame(TypeAck, MessagePayload{Message: message})
}

// NewThinking builds a thinking frame: model reasoning in progress.
func NewThinking(message, stage string) Frame {
	return newFrame(TypeThinking, MessagePayload{Message: message, Stage: stage})
}

// NewProgress builds a progress frame: a discrete step completed or started.
func NewProgress(message, stage string) Frame {
	return newFrame(TypeProgress, MessagePayload{Message: message, Stage: stage})
}

// NewVibeUpdate builds a vibe_update frame.
func NewVibeUpdate(changes []string, vibe json.RawMessage) Frame {
	return newFrame(TypeVibeUpdate, VibeUpdatePayload{Changes: changes, Vibe: vibe})
}

// NewSuggestions builds a suggestions frame.
func NewSuggestions(preview json.RawMessage) Frame {
	return newFrame(TypeSuggestions, SuggestionsPayload{Preview: preview})
}

// NewQueueUpdate builds a queue_update frame.
func NewQueueUpdate(track Track, queueSize int) Frame {
	return newFrame(TypeQueueUpdate, QueueUpdatePayload{Track: track, QueueSize: queueSize})
}

// NewLog builds a log frame.
func NewLog(payload LogPayload) Frame {
	return newFrame(TypeLog, payload)
}

// NewError builds an error frame. Error frames are data, not exceptions: the
// pipeline delivers them like any other frame.
func NewError(message string) Frame {
	return newFrame(TypeError, MessagePayload{Message: message})
}

// NewDone builds a done frame: terminal success.
func NewDone(message string) Frame {
	return newFrame(TypeDone, MessagePayload{Message: message})
}

// Decode unmarshals the frame payload into the given payload type.
func Decode[T any](f Frame) (T, error) {
	var payload T
	if len(f.Data) == 0 {
		return payload, nil
	}
	if err := json.Unmarshal(f.Data, &payload); err != nil {
		return payload, fmt.Errorf("failed to decode %s payload: %w", f.Type, err)
	}
	return payload, nil
}

// Message returns the message field of the frame payload, or "" when the
// payload has none.
func (f Frame) Message() string {
	switch f.Type {
	case TypeLog:
		payload, err := Decode[LogPayload](f)
		if err != nil {
			return ""
		}
		return payload.Message
	default:
		payload, err := Decode[MessagePayload](f)
		if err != nil {
			return ""
		}
		return payload.Message
	}
}

// WriteSSE writes the frame as one server-sent event: a single data line
// followed by a blank line.
func WriteSSE(w io.Writer, f Frame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to encode frame: %w", err)
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	return nil
}

// ParseSSELine extracts a frame from one "data:" line of an event stream.
// Lines without the data prefix are not frames and return ok=false.
func ParseSSELine(line string) (Frame, bool, error) {
	rest, found := strings.CutPrefix(line, "data:")
	if !found {
		return Frame{}, false, nil
	}
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return Frame{}, false, nil
	}

	var frame Frame
	if err := json.Unmarshal([]byte(rest), &frame); err != nil {
		return Frame{}, false, fmt.Errorf("malformed frame: %w", err)
	}
	return frame, true, nil
}

// ReadStream scans an event stream and invokes fn for every frame, in
// delivery order, until the stream ends or fn returns an error. Malformed
// data lines abort the read.
func ReadStream(r io.Reader, fn func(Frame) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		frame, ok, err := ParseSSELine(scanner.Text())
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if err := fn(frame); err != nil {
			return err
		}
	}
	return scanner.Err()
}
