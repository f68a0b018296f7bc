// Package analysis inspects captured progress-channel traffic for failure
// patterns: error log frequencies grouped by subsystem tag, truncated log
// messages, and overall frame counts.
//
// Input is a raw SSE capture, one "data: {...}" line per frame, as written
// by server access logs or saved client sessions.
package analysis

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/soundslope/vibedj/internal/protocol"
)

const sampleLimit = 10

// Report summarizes one capture.
type Report struct {
	TotalFrames    int
	FramesByType   map[protocol.Type]int
	ErrorsByTag    map[string]int // error-level log messages grouped by leading [tag]
	BrokenMessages []string       // log messages that look truncated
	MalformedLines int            // data lines that failed to parse
}

// Analyze scans an SSE capture and accumulates the report. Malformed data
// lines are counted, not fatal: a capture interrupted mid-frame is exactly
// the kind of input this exists for.
func Analyze(r io.Reader) (*Report, error) {
	report := &Report{
		FramesByType: make(map[protocol.Type]int),
		ErrorsByTag:  make(map[string]int),
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read capture: %w", err)
	}

	for _, line := range strings.Split(string(data), "\n") {
		frame, ok, err := protocol.ParseSSELine(line)
		if err != nil {
			report.MalformedLines++
			continue
		}
		if !ok {
			continue
		}
		report.ingest(frame)
	}
	return report, nil
}

func (r *Report) ingest(frame protocol.Frame) {
	r.TotalFrames++
	r.FramesByType[frame.Type]++

	if frame.Type != protocol.TypeLog {
		return
	}
	payload, err := protocol.Decode[protocol.LogPayload](frame)
	if err != nil {
		return
	}

	if payload.Level == "error" {
		r.ErrorsByTag[errorTag(payload.Message)]++
	}
	if strings.HasSuffix(payload.Message, `"`) || strings.HasSuffix(payload.Message, `\`) {
		r.BrokenMessages = append(r.BrokenMessages, payload.Message)
	}
}

// errorTag extracts the leading bracket tag of an error message, e.g.
// "[Validation] bad track url" → "[Validation]". Untagged messages group
// under the message itself truncated to its first clause.
func errorTag(message string) string {
	if strings.HasPrefix(message, "[") {
		if idx := strings.Index(message, "]"); idx >= 0 {
			return message[:idx+1]
		}
	}
	if idx := strings.IndexAny(message, ":."); idx > 0 {
		return message[:idx]
	}
	return message
}

// Render writes a plain-text report.
func (r *Report) Render(w io.Writer) error {
	rule := strings.Repeat("-", 72)

	if _, err := fmt.Fprintf(w, "CAPTURE ANALYSIS\n%s\n", rule); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}

	fmt.Fprintf(w, "Frames: %d", r.TotalFrames)
	if r.MalformedLines > 0 {
		fmt.Fprintf(w, " (%d malformed lines skipped)", r.MalformedLines)
	}
	fmt.Fprintln(w)

	for _, t := range sortedTypes(r.FramesByType) {
		fmt.Fprintf(w, "  %5d  %s\n", r.FramesByType[t], t)
	}

	fmt.Fprintf(w, "\nERROR SUMMARY\n%s\n", rule)
	if len(r.ErrorsByTag) == 0 {
		fmt.Fprintln(w, "  no error-level log entries")
	}
	for _, tag := range sortedTags(r.ErrorsByTag) {
		fmt.Fprintf(w, "  %5dx %s\n", r.ErrorsByTag[tag], tag)
	}

	fmt.Fprintf(w, "\nBROKEN MESSAGES\n%s\n", rule)
	if len(r.BrokenMessages) == 0 {
		fmt.Fprintln(w, "  none found")
	} else {
		fmt.Fprintf(w, "  %d incomplete log messages\n", len(r.BrokenMessages))
		for i, msg := range r.BrokenMessages {
			if i == sampleLimit {
				break
			}
			if len(msg) > 100 {
				msg = msg[:100]
			}
			fmt.Fprintf(w, "    - %s\n", msg)
		}
	}

	_, err := fmt.Fprintln(w)
	return err
}

// sortedTypes orders frame types by descending count, then name.
func sortedTypes(counts map[protocol.Type]int) []protocol.Type {
	types := make([]protocol.Type, 0, len(counts))
	for t := range counts {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool {
		if counts[types[i]] != counts[types[j]] {
			return counts[types[i]] > counts[types[j]]
		}
		return types[i] < types[j]
	})
	return types
}

// sortedTags orders error tags by descending count, then name.
func sortedTags(counts map[string]int) []string {
	tags := make([]string, 0, len(counts))
	for tag := range counts {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool {
		if counts[tags[i]] != counts[tags[j]] {
			return counts[tags[i]] > counts[tags[j]]
		}
		return tags[i] < tags[j]
	})
	return tags
}
