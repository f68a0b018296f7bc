package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/soundslope/vibedj/internal/eventstore"
	"github.com/soundslope/vibedj/internal/progress"
	"github.com/soundslope/vibedj/internal/protocol"
)

// Streamer starts one operation's progress stream and invokes fn for every
// frame in delivery order. The production implementation is
// [client.Client.Stream].
type Streamer func(ctx context.Context, prompt, mode string, fn func(protocol.Frame) error) error

// Model is the debug console: a live view of one operation's progress plus
// the classified event history behind it.
type Model struct {
	ctx    context.Context
	stream Streamer
	prompt string
	mode   string

	store *eventstore.Store
	view  progress.View

	frames    chan protocol.Frame
	streamErr error
	closed    bool

	spinner spinner.Model
	width   int
	height  int
	help    help.Model
	keys    keyMap
}

// keyMap defines the key bindings for the console.
type keyMap struct {
	all    key.Binding
	filter key.Binding
	clear  key.Binding
	quit   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		all: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "all events"),
		),
		filter: key.NewBinding(
			key.WithKeys("1", "2", "3", "4", "5"),
			key.WithHelp("1-5", "filter api/sse/error/state/steer"),
		),
		clear: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "clear history"),
		),
		quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.all, k.filter, k.clear, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.all, k.filter}, {k.clear, k.quit}}
}

type frameMsg protocol.Frame

type streamClosedMsg struct {
	err error
}

// NewModel creates a console for one operation.
func NewModel(ctx context.Context, stream Streamer, prompt, mode string, capacity int) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.ok

	return &Model{
		ctx:     ctx,
		stream:  stream,
		prompt:  prompt,
		mode:    mode,
		store:   eventstore.NewStore(capacity),
		spinner: s,
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Init starts the stream and the spinner.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.startStream())
}

// Update handles incoming messages and updates the model state. Frames are
// ingested here, on the program loop, so the store stays single-consumer.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case frameMsg:
		m.store.Ingest(protocol.Frame(msg))
		m.view = progress.Derive(m.store.Events())
		return m, m.waitForFrame()

	case streamClosedMsg:
		m.closed = true
		m.streamErr = msg.err
		return m, nil

	case spinner.TickMsg:
		if m.closed {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "a":
		m.store.SetFilter("")
	case "c":
		m.store.Clear()
		m.view = progress.Derive(m.store.Events())
	case "1", "2", "3", "4", "5":
		idx := int(msg.String()[0] - '1')
		if idx < len(eventstore.Categories) {
			m.store.SetFilter(eventstore.Categories[idx])
		}
	}
	return m, nil
}

// View renders the console.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(styles.title.Render(fmt.Sprintf("vibedj · %s", m.prompt)))
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n\n")
	b.WriteString(m.renderProgress())
	b.WriteString("\n")
	b.WriteString(m.renderQueue())
	b.WriteString("\n")
	b.WriteString(m.renderEvents())
	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView(m.keys.ShortHelp()))

	return b.String()
}

func (m *Model) renderStatus() string {
	connected := "waiting for first frame"
	if at := m.store.ConnectedAt(); !at.IsZero() {
		connected = "connected " + at.Format("15:04:05")
	}

	errors := fmt.Sprintf("errors: %d", m.store.ErrorCount())
	if m.store.ErrorCount() > 0 {
		errors = styles.err.Render(errors)
	}

	filter := "all"
	if f := m.store.Filter(); f != "" {
		filter = string(f)
	}

	return styles.dim.Render(fmt.Sprintf("%s · %s events · filter: %s · ", connected, fmt.Sprint(m.store.Len()), filter)) + errors
}

func (m *Model) renderProgress() string {
	var lines []string
	for _, message := range m.view.ProgressMessages {
		lines = append(lines, "  "+message)
	}

	switch {
	case m.view.Terminal == progress.TerminalError:
		lines = append(lines, styles.err.Render("  ✗ "+m.view.Message))
	case m.view.Terminal == progress.TerminalDone:
		lines = append(lines, styles.ok.Render("  ✓ "+m.view.Message))
	case m.closed:
		// The channel closed without a terminal frame: an unknown failure.
		message := "stream ended unexpectedly"
		if m.streamErr != nil {
			message = m.streamErr.Error()
		}
		lines = append(lines, styles.err.Render("  ✗ "+message))
	default:
		lines = append(lines, "  "+m.spinner.View()+" working...")
	}

	if len(m.view.Changes) > 0 {
		lines = append(lines, styles.warn.Render("  steering: "+strings.Join(m.view.Changes, ", ")))
	}

	return strings.Join(lines, "\n")
}

func (m *Model) renderQueue() string {
	if len(m.view.QueuePreview) == 0 {
		return ""
	}

	lines := []string{styles.title.Render("Up next")}
	for _, track := range m.view.QueuePreview {
		lines = append(lines, fmt.Sprintf("  %s — %s", track.Artist, track.Name))
	}
	return strings.Join(lines, "\n") + "\n"
}

// eventRows bounds the visible tail of the history.
const eventRows = 10

func (m *Model) renderEvents() string {
	events := m.store.FilteredEvents()
	if len(events) > eventRows {
		events = events[len(events)-eventRows:]
	}

	lines := []string{styles.title.Render("Events")}
	for _, event := range events {
		lines = append(lines, "  "+renderEvent(event))
	}
	if len(events) == 0 {
		lines = append(lines, styles.dim.Render("  (none)"))
	}
	return strings.Join(lines, "\n")
}

func renderEvent(event eventstore.DebugEvent) string {
	badge := styles.dim.Render(fmt.Sprintf("%-5s", event.Category))
	if event.Category == eventstore.CategoryError {
		badge = styles.err.Render(fmt.Sprintf("%-5s", event.Category))
	}

	line := fmt.Sprintf("%s %s %s", event.Timestamp.Format("15:04:05"), badge, event.Summary)
	if event.DurationMs > 0 {
		line += styles.dim.Render(fmt.Sprintf(" (%dms)", event.DurationMs))
	}
	if event.Status != "" {
		line += styles.dim.Render(" " + event.Status)
	}
	return line
}

// startStream launches the stream reader. Frames cross to the program loop
// over a channel so ingestion stays on one goroutine.
func (m *Model) startStream() tea.Cmd {
	m.frames = make(chan protocol.Frame, 64)

	go func() {
		err := m.stream(m.ctx, m.prompt, m.mode, func(f protocol.Frame) error {
			select {
			case m.frames <- f:
				return nil
			case <-m.ctx.Done():
				return m.ctx.Err()
			}
		})
		m.streamErr = err
		close(m.frames)
	}()

	return m.waitForFrame()
}

func (m *Model) waitForFrame() tea.Cmd {
	return func() tea.Msg {
		f, ok := <-m.frames
		if !ok {
			return streamClosedMsg{err: m.streamErr}
		}
		return frameMsg(f)
	}
}
