// Package progress derives the data a live progress UI needs from the
// client-side event history.
package progress

import (
	"github.com/soundslope/vibedj/internal/eventstore"
	"github.com/soundslope/vibedj/internal/protocol"
)

// queuePreviewSize is how many of the most recent queued tracks the view
// surfaces.
const queuePreviewSize = 5

// Terminal is the end state of an operation.
type Terminal string

const (
	TerminalNone  Terminal = ""
	TerminalDone  Terminal = "done"
	TerminalError Terminal = "error"
)

// View is the derived live-UI state for one operation.
type View struct {
	// ProgressMessages holds the message of every ack and progress frame,
	// in order.
	ProgressMessages []string `json:"messages"`

	// Changes is the changes list of the first vibe_update frame. Later
	// vibe_update frames are ignored here (a repeat on one stream is a
	// producer retry, not new information) but remain in the history.
	Changes []string `json:"changes,omitempty"`

	// QueuePreview holds the last five queued tracks, in arrival order.
	QueuePreview []protocol.Track `json:"queue"`

	// Terminal reports the end state. An error frame takes precedence over
	// done: it indicates a failure during otherwise-successful completion.
	Terminal Terminal `json:"terminal"`

	// Message is the terminal frame's message: the error message when
	// Terminal is error, otherwise the done message.
	Message string `json:"message,omitempty"`
}

// Derive computes the view from the event history. It is a pure function:
// recomputing it on an unchanged history yields an identical view, and it is
// cheap enough to call after every frame at the store's bounded capacity.
func Derive(history []eventstore.DebugEvent) View {
	view := View{
		ProgressMessages: []string{},
		QueuePreview:     []protocol.Track{},
	}

	var doneMessage, errorMessage string
	var sawDone, sawError bool
	var queue []protocol.Track

	for _, event := range history {
		frame := event.Frame
		switch frame.Type {
		case protocol.TypeAck, protocol.TypeProgress:
			view.ProgressMessages = append(view.ProgressMessages, frame.Message())

		case protocol.TypeVibeUpdate:
			if view.Changes != nil {
				continue
			}
			payload, err := protocol.Decode[protocol.VibeUpdatePayload](frame)
			if err != nil {
				continue
			}
			view.Changes = payload.Changes

		case protocol.TypeQueueUpdate:
			payload, err := protocol.Decode[protocol.QueueUpdatePayload](frame)
			if err != nil {
				continue
			}
			queue = append(queue, payload.Track)

		case protocol.TypeDone:
			if !sawDone {
				sawDone = true
				doneMessage = frame.Message()
			}

		case protocol.TypeError:
			if !sawError {
				sawError = true
				errorMessage = frame.Message()
			}
		}
	}

	if len(queue) > queuePreviewSize {
		queue = queue[len(queue)-queuePreviewSize:]
	}
	view.QueuePreview = append(view.QueuePreview, queue...)

	switch {
	case sawError:
		view.Terminal = TerminalError
		view.Message = errorMessage
	case sawDone:
		view.Terminal = TerminalDone
		view.Message = doneMessage
	}

	return view
}
