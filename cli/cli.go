package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/autograde/autograde/config"
	"github.com/autograde/autograde/metrics"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

const AppName = "autograde"

type App struct {
	logger zerolog.Logger
	cli    *cli.App
	out    io.Writer
}

func New() *App {

	// Set default log level to info
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	logger :=
		log.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339Nano,
		})

	app := &App{
		logger: logger,
		out:    os.Stdout,
		cli: &cli.App{
			Name:  AppName,
			Usage: "Grade assignments by running their unit tests and writing rubric reports",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "verbose",
					Usage: "Enable verbose (debug) logging",
				},
				&cli.StringFlag{
					Name:    "config",
					Aliases: []string{"c"},
					Usage:   "Assignment configuration file",
					Value:   config.DefaultFile,
				},
			},
			Before: func(ctx *cli.Context) error {
				if ctx.Bool("verbose") {
					zerolog.SetGlobalLevel(zerolog.DebugLevel)
				}
				return nil
			},
		},
	}
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:      "grade",
		Usage:     "Run the tests of a test directory and print the rubric report",
		ArgsUsage: "<test-dir> [dependency ...]",
		Action:    app.grade,
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "dependency",
				Aliases: []string{"d"},
				Usage:   "Module file staged next to the tests, relative to the test directory",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write the report to a file instead of stdout",
			},
			&cli.BoolFlag{
				Name:  "expose-all",
				Usage: "Expose every definition of the staged dependencies to the tests",
			},
		},
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:  "batch",
		Usage: "Operate on every submission of the assignment",
		Subcommands: []*cli.Command{
			{
				Name:      "grade",
				Usage:     "Grade submissions and record their scores in the roster",
				ArgsUsage: "[submission ...]",
				Action:    app.batchGrade,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "force",
						Aliases: []string{"f"},
						Usage:   "Regrade submissions that already have a report",
					},
				},
			},
			{
				Name:      "pull",
				Usage:     "Clone or update submission repositories",
				ArgsUsage: "[submission ...]",
				Action:    app.batchPull,
			},
			{
				Name:      "push",
				Usage:     "Commit and push the reports of graded submissions",
				ArgsUsage: "[submission ...]",
				Action:    app.batchPush,
			},
			{
				Name:      "late",
				Usage:     "Count late days of submissions and record them in the roster",
				ArgsUsage: "[submission ...]",
				Action:    app.batchLate,
			},
		},
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:   "list",
		Usage:  "List previous gradings",
		Action: app.list,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "submission",
				Aliases: []string{"s"},
				Usage:   "Filter by submission name",
			},
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Limit number of results (default: 20)",
				Value:   20,
			},
		},
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:            "view",
		Usage:           "View a grading from history",
		ArgsUsage:       "[ID|INDEX] [report|stdout|stderr ...]",
		Action:          app.view,
		SkipFlagParsing: true,
		Description: `View a grading from history.

Arguments:
  0           View last grading (default)
  -1          View 2nd last grading
  -2          View 3rd last grading
  <hex-id>    View grading matching the hex ID prefix

Examples:
  autograde view              # Report of the last grading
  autograde view -1           # Report of the 2nd last grading
  autograde view abc123       # Report of the grading with ID starting with abc123
  autograde view 0 stderr     # Harness stderr of the last grading`,
	})
	return app
}

// Run executes the command line. Interrupt and termination signals cancel
// the running command.
func (a *App) Run(args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.cli.RunContext(ctx, args)
}

// SetVersion sets the version information for the CLI application
func (a *App) SetVersion(version, commit, date string) {
	a.cli.Version = version
	if commit != "none" && commit != "" {
		if len(commit) > 8 {
			commit = commit[:8]
		}
		a.cli.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)
	}
}

// loadConfig reads the assignment file. The default file is optional: when
// it does not exist the built-in defaults are used.
func (a *App) loadConfig(ctx *cli.Context) (*config.Assignment, error) {
	path := ctx.String("config")
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) && !ctx.IsSet("config") {
		a.logger.Debug().Str("path", path).Msg("No config file, using defaults")
		return config.Default(), nil
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	a.logger.Debug().Str("path", path).Str("assignment", cfg.Assignment).Msg("Loaded config")
	return cfg, nil
}

// newRecorder returns a metrics recorder when a metrics file is configured.
func (a *App) newRecorder(cfg *config.Assignment) *metrics.Recorder {
	if cfg.MetricsFile == "" {
		return nil
	}
	return metrics.NewRecorder()
}

func (a *App) writeMetrics(cfg *config.Assignment, rec *metrics.Recorder) {
	if rec == nil {
		return
	}
	if err := rec.WriteTextfile(cfg.MetricsFile); err != nil {
		a.logger.Warn().Err(err).Str("path", cfg.MetricsFile).Msg("Failed to write metrics")
		return
	}
	a.logger.Debug().Str("path", cfg.MetricsFile).Msg("Wrote metrics")
}
