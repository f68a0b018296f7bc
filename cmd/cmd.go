// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// serveCommand runs the HTTP server hosting the progress stream.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the DJ server",
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "no-archive",
				Usage: "Disable session archiving",
			},
		},
		Action: r.Serve,
	}
}

// generateCommand streams one playlist generation to the terminal.
func generateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "generate",
		Aliases: []string{"gen"},
		Usage:   "Generate a playlist from a prompt",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "prompt",
			},
		},
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Request the aggregated response instead of streaming",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
				Value: true,
			},
		},
		Action: r.Generate,
	}
}

// steerCommand adjusts the vibe of the current mix.
func steerCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "steer",
		Usage: "Steer the current vibe (comma-separated changes)",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "prompt",
			},
		},
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Request the aggregated response instead of streaming",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
				Value: true,
			},
		},
		Action: r.Steer,
	}
}

// consoleCommand launches the interactive debug console.
func consoleCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "console",
		Aliases: []string{"ui"},
		Usage:   "Watch a generation in the interactive debug console",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "prompt",
			},
		},
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "mode",
				Usage: "Operation mode (generate or steer)",
				Value: "generate",
			},
			&cli.StringFlag{
				Name:  "url",
				Usage: "Server base URL (overrides config)",
			},
			&cli.StringFlag{
				Name:  "token",
				Usage: "Bearer credential (overrides config)",
			},
		},
		Action: r.Console,
	}
}

// sessionsCommand inspects archived sessions.
func sessionsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sessions",
		Usage: "Inspect archived sessions",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List archived sessions, newest first",
				Flags: []cli.Flag{
					configFlag(),
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of sessions to return",
						Value: 20,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.SessionsList,
			},
			{
				Name:  "show",
				Usage: "Show one session's archived frames",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Flags: []cli.Flag{
					configFlag(),
				},
				Action: r.SessionsShow,
			},
			{
				Name:  "replay",
				Usage: "Recompute the final progress view from an archived session",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.SessionsReplay,
			},
		},
	}
}

// logsCommand analyzes captured stream logs.
func logsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "logs",
		Usage: "Stream capture tooling",
		Commands: []*cli.Command{
			{
				Name:  "analyze",
				Usage: "Analyze a captured SSE stream for frame mix and error patterns",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Action: r.LogsAnalyze,
			},
		},
	}
}

// setupCommand handles setup operations for configuration and the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
		},
	}
}
