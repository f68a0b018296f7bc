package main

import (
	"context"
	"fmt"
	"os"

	"github.com/soundslope/vibedj/internal/analysis"
	"github.com/soundslope/vibedj/internal/shared"
	"github.com/urfave/cli/v3"
)

// LogsAnalyze reads a captured SSE stream and prints its frame mix, error
// patterns, and truncated messages.
func (r *Runner) LogsAnalyze(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: capture path", shared.ErrMissingArgument)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open capture: %w", err)
	}
	defer f.Close()

	report, err := analysis.Analyze(f)
	if err != nil {
		return fmt.Errorf("failed to analyze capture: %w", err)
	}

	return report.Render(r.output)
}
