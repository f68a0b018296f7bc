package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/soundslope/vibedj/internal/protocol"
	"github.com/soundslope/vibedj/internal/shared"
	"github.com/soundslope/vibedj/internal/ui"
	"github.com/urfave/cli/v3"
)

// Generate streams one playlist generation to the terminal.
func (r *Runner) Generate(ctx context.Context, cmd *cli.Command) error {
	return r.runOperation(ctx, cmd, "generate")
}

// Steer streams one vibe adjustment to the terminal.
func (r *Runner) Steer(ctx context.Context, cmd *cli.Command) error {
	return r.runOperation(ctx, cmd, "steer")
}

func (r *Runner) runOperation(ctx context.Context, cmd *cli.Command, mode string) error {
	prompt := cmd.StringArg("prompt")
	if prompt == "" {
		return fmt.Errorf("%w: prompt", shared.ErrMissingArgument)
	}

	config := r.loadConfig(cmd.String("config"))
	c, err := r.newClient(config)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		result, err := c.Generate(ctx, prompt, mode)
		if err != nil {
			return err
		}
		return r.writeJSON(result, cmd.Bool("pretty"))
	}

	return c.Stream(ctx, prompt, mode, func(f protocol.Frame) error {
		return r.printFrame(f)
	})
}

// printFrame renders one frame as a terminal line. Log frames print dimly
// out of the way of the progress narrative.
func (r *Runner) printFrame(f protocol.Frame) error {
	switch f.Type {
	case protocol.TypeQueueUpdate:
		payload, err := protocol.Decode[protocol.QueueUpdatePayload](f)
		if err != nil {
			return r.writePlain("  + (unreadable queue update)\n")
		}
		return r.writePlain("  + %s — %s\n", payload.Track.Artist, payload.Track.Name)

	case protocol.TypeVibeUpdate:
		payload, err := protocol.Decode[protocol.VibeUpdatePayload](f)
		if err != nil {
			return nil
		}
		for _, change := range payload.Changes {
			if err := r.writePlain("  ~ %s\n", change); err != nil {
				return err
			}
		}
		return nil

	case protocol.TypeLog:
		payload, err := protocol.Decode[protocol.LogPayload](f)
		if err != nil {
			return nil
		}
		return r.writePlain("    [%s] %s\n", payload.Logger, payload.Message)

	case protocol.TypeError:
		return r.writePlain("✗ %s\n", f.Message())

	case protocol.TypeDone:
		return r.writePlain("✓ %s\n", f.Message())

	default:
		return r.writePlain("%s\n", f.Message())
	}
}

// Console launches the interactive debug console attached to one operation.
func (r *Runner) Console(ctx context.Context, cmd *cli.Command) error {
	prompt := cmd.StringArg("prompt")
	if prompt == "" {
		return fmt.Errorf("%w: prompt", shared.ErrMissingArgument)
	}
	mode := cmd.String("mode")
	if mode != "generate" && mode != "steer" {
		return fmt.Errorf("%w: mode must be generate or steer", shared.ErrInvalidFlag)
	}

	// Copy before applying flag overrides; the base config is shared.
	config := *r.loadConfig(cmd.String("config"))
	if url := cmd.String("url"); url != "" {
		config.Client.BaseURL = url
	}
	if token := cmd.String("token"); token != "" {
		config.Client.Token = token
	}

	c, err := r.newClient(&config)
	if err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/vibedj-console.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	model := ui.NewModel(ctx, c.Stream, prompt, mode, config.Debug.HistoryCapacity)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running console: %w", err)
	}

	return nil
}
