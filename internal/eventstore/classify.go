package eventstore

import (
	"fmt"
	"strings"

	"github.com/soundslope/vibedj/internal/protocol"
)

// Classify maps a frame to exactly one category. The mapping is total:
// unknown frame types fall through to state.
//
//   - error frames → error
//   - steering frames (vibe_update, suggestions) → steer
//   - channel-level frames (ack, done) → sse
//   - log frames → api when the logger tag is under the api subsystem,
//     state otherwise
//   - everything else (thinking, progress, queue_update, unknown) → state
func Classify(frame protocol.Frame) Category {
	switch frame.Type {
	case protocol.TypeError:
		return CategoryError
	case protocol.TypeVibeUpdate, protocol.TypeSuggestions:
		return CategorySteer
	case protocol.TypeAck, protocol.TypeDone:
		return CategorySSE
	case protocol.TypeLog:
		payload, err := protocol.Decode[protocol.LogPayload](frame)
		if err == nil && isAPITag(payload.Logger) {
			return CategoryAPI
		}
		return CategoryState
	default:
		return CategoryState
	}
}

func isAPITag(tag string) bool {
	return tag == "api" || strings.HasPrefix(tag, "api:")
}

// Summarize renders a one-line human summary for the event list.
func Summarize(frame protocol.Frame) string {
	switch frame.Type {
	case protocol.TypeQueueUpdate:
		payload, err := protocol.Decode[protocol.QueueUpdatePayload](frame)
		if err != nil {
			return "queued track"
		}
		return fmt.Sprintf("Queued: %s - %s", payload.Track.Artist, payload.Track.Name)
	case protocol.TypeVibeUpdate:
		payload, err := protocol.Decode[protocol.VibeUpdatePayload](frame)
		if err != nil || len(payload.Changes) == 0 {
			return "vibe updated"
		}
		return "Vibe: " + strings.Join(payload.Changes, ", ")
	case protocol.TypeSuggestions:
		return "Suggestions available"
	case protocol.TypeLog:
		payload, err := protocol.Decode[protocol.LogPayload](frame)
		if err != nil {
			return "log entry"
		}
		return fmt.Sprintf("[%s] %s", payload.Logger, payload.Message)
	default:
		if msg := frame.Message(); msg != "" {
			return msg
		}
		return string(frame.Type)
	}
}

// meta extracts optional display metadata from log frame fields.
func meta(frame protocol.Frame) (durationMs int64, status string) {
	if frame.Type != protocol.TypeLog {
		return 0, ""
	}
	payload, err := protocol.Decode[protocol.LogPayload](frame)
	if err != nil {
		return 0, ""
	}
	if v, ok := payload.Fields["duration_ms"].(float64); ok {
		durationMs = int64(v)
	}
	if v, ok := payload.Fields["status"].(string); ok {
		status = v
	}
	return durationMs, status
}
