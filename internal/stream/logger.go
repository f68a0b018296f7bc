package stream

import (
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/soundslope/vibedj/internal/protocol"
	"github.com/soundslope/vibedj/internal/shared"
)

// outboxSize bounds the number of log frames waiting for the forwarding
// goroutine. Frames beyond it are dropped, never blocked on.
const outboxSize = 64

// Logger produces tagged, hierarchical log entries. Every entry goes to a
// local diagnostic sink; when the logger is attached to an [Emitter] the
// entry is also submitted as a log frame on the progress channel.
//
// Submission is fire-and-forget: a single forwarding goroutine drains an
// internal outbox in order, so the calling code never blocks or fails on
// channel delivery. Delivery failures are reported to the local sink only.
type Logger struct {
	tag  string
	sink *log.Logger
	out  *outbox
}

// NewLogger creates a logger for one streaming operation. The sink defaults
// to a stderr logger; emitter may be nil for a purely local logger.
func NewLogger(tag string, sink *log.Logger, emitter *Emitter) *Logger {
	if sink == nil {
		sink = shared.NewLogger(nil)
	}
	l := &Logger{tag: tag, sink: sink.WithPrefix(tag)}
	if emitter != nil {
		l.out = newOutbox(emitter, l.sink)
	}
	return l
}

// Child returns a logger whose tag is this logger's tag joined with name.
// The child shares the parent's channel attachment.
func (l *Logger) Child(name string) *Logger {
	tag := l.tag + ":" + name
	return &Logger{tag: tag, sink: l.sink.WithPrefix(tag), out: l.out}
}

// Tag returns the hierarchical logger name.
func (l *Logger) Tag() string { return l.tag }

// Debug logs at debug level.
func (l *Logger) Debug(msg string, fields ...any) { l.log(log.DebugLevel, msg, fields, false) }

// Info logs at info level.
func (l *Logger) Info(msg string, fields ...any) { l.log(log.InfoLevel, msg, fields, false) }

// Warn logs at warn level.
func (l *Logger) Warn(msg string, fields ...any) { l.log(log.WarnLevel, msg, fields, false) }

// Error logs at error level. The outbound frame additionally carries the
// current stack so the client can surface a trace.
func (l *Logger) Error(msg string, fields ...any) { l.log(log.ErrorLevel, msg, fields, true) }

// Close drains and stops the forwarding goroutine. Safe to call on a
// detached logger and safe to call more than once. Only the logger that
// created the attachment should close it; children share it.
func (l *Logger) Close() {
	if l.out != nil {
		l.out.close()
	}
}

func (l *Logger) log(level log.Level, msg string, fields []any, withStack bool) {
	l.sink.Log(level, msg, fields...)

	if l.out == nil {
		return
	}

	payload := protocol.LogPayload{
		Level:   level.String(),
		Logger:  l.tag,
		Message: msg,
		Fields:  fieldMap(fields),
	}
	if withStack {
		payload.Stack = string(debug.Stack())
	}
	l.out.submit(protocol.NewLog(payload))
}

// fieldMap pairs variadic key-values into a JSON-safe map. Errors are
// captured by message; other non-primitive values are coerced to their
// string form.
func fieldMap(fields []any) map[string]any {
	if len(fields) == 0 {
		return nil
	}

	m := make(map[string]any, len(fields)/2)
	for i := 0; i < len(fields); i += 2 {
		key := fmt.Sprint(fields[i])

		var value any
		if i+1 < len(fields) {
			value = fields[i+1]
		}

		switch v := value.(type) {
		case nil:
			m[key] = nil
		case error:
			m[key] = v.Error()
		case string, bool,
			int, int8, int16, int32, int64,
			uint, uint8, uint16, uint32, uint64,
			float32, float64:
			m[key] = v
		default:
			m[key] = fmt.Sprint(v)
		}
	}
	return m
}

// outbox is the fire-and-forget path between a logger family and its
// emitter. One goroutine drains it in submission order.
type outbox struct {
	frames chan protocol.Frame
	quit   chan struct{}
	done   chan struct{}
	once   sync.Once
}

func newOutbox(emitter *Emitter, sink *log.Logger) *outbox {
	o := &outbox{
		frames: make(chan protocol.Frame, outboxSize),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go o.pump(emitter, sink)
	return o
}

// submit enqueues a frame without blocking. A full outbox drops the frame
// and reports it locally.
func (o *outbox) submit(f protocol.Frame) {
	select {
	case o.frames <- f:
	default:
	}
}

func (o *outbox) pump(emitter *Emitter, sink *log.Logger) {
	defer close(o.done)

	deliver := func(f protocol.Frame) {
		defer func() {
			if r := recover(); r != nil {
				sink.Debug("log frame delivery panicked", "panic", r)
			}
		}()
		if err := emitter.Send(f); err != nil {
			sink.Debug("log frame delivery failed", "err", err)
		}
	}

	for {
		select {
		case f := <-o.frames:
			deliver(f)
		case <-o.quit:
			for {
				select {
				case f := <-o.frames:
					deliver(f)
				default:
					return
				}
			}
		}
	}
}

// close stops the pump after draining queued frames and waits for it to
// exit.
func (o *outbox) close() {
	o.once.Do(func() { close(o.quit) })
	<-o.done
}
