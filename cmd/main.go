package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"mailharvest/internal/pipeline"
)

func main() {
	// Load .env file first, but don't error if it doesn't exist.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "mailharvest",
		Usage: "Extract email addresses from calendar attendees and text files.",
		Commands: []*cli.Command{
			extractCommand(),
			eventsCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

func extractCommand() *cli.Command {
	return &cli.Command{
		Name:  "extract",
		Usage: "Extract, merge and deduplicate email addresses from all sources.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "ics-file", Required: true, Usage: "Path to the .ics calendar file."},
			&cli.StringFlag{Name: "output-file", Required: true, Usage: "Path to the output file for the combined email list."},
			&cli.StringFlag{Name: "start-date", Usage: "Start date for the calendar filter (YYYY-MM-DD, inclusive)."},
			&cli.StringFlag{Name: "end-date", Usage: "End date for the calendar filter (YYYY-MM-DD, exclusive)."},
			&cli.StringSliceFlag{Name: "name-email-file", Usage: "Path to a text file with name/email pairs. Repeatable."},
			&cli.StringFlag{Name: "newline-email-file", Usage: "Path to a text file with one email per line."},
			&cli.BoolFlag{Name: "dry-run", Usage: "Log what would be written without writing the output file."},
		},
		Action: func(c *cli.Context) error {
			logger := setupLogger(logLevel())

			if c.Bool("dry-run") {
				logger.Info("Performing a dry run. No output will be written.")
			}

			cfg, err := configFromFlags(c)
			if err != nil {
				return err
			}

			return pipeline.NewPipeline(logger, cfg).Run(c.Context)
		},
	}
}

func eventsCommand() *cli.Command {
	return &cli.Command{
		Name:  "events",
		Usage: "List the events parsed from a calendar file.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "ics-file", Required: true, Usage: "Path to the .ics calendar file."},
			&cli.StringFlag{Name: "start-date", Usage: "Start date for the calendar filter (YYYY-MM-DD, inclusive)."},
			&cli.StringFlag{Name: "end-date", Usage: "End date for the calendar filter (YYYY-MM-DD, exclusive)."},
		},
		Action: func(c *cli.Context) error {
			logger := setupLogger(logLevel())

			cfg, err := configFromFlags(c)
			if err != nil {
				return err
			}

			events, err := pipeline.NewPipeline(logger, cfg).LoadEvents()
			if err != nil {
				return err
			}

			for _, e := range events {
				line := fmt.Sprintf("%s  %s", e.Start.Format("2006-01-02 15:04"), e.Summary)
				if e.Location != "" {
					line += fmt.Sprintf(" @ %s", e.Location)
				}
				if e.Attendees != "" {
					line += fmt.Sprintf(" (attendees: %s)", e.Attendees)
				}
				fmt.Println(line)
			}
			logger.Info("Listed events.", "count", len(events))
			return nil
		},
	}
}

// configFromFlags builds a pipeline config from the shared CLI flags.
func configFromFlags(c *cli.Context) (pipeline.Config, error) {
	cfg := pipeline.Config{
		CalendarPath:     c.String("ics-file"),
		NameEmailPaths:   c.StringSlice("name-email-file"),
		NewlineEmailPath: c.String("newline-email-file"),
		OutputPath:       c.String("output-file"),
		DryRun:           c.Bool("dry-run"),
	}

	var err error
	if cfg.StartDate, err = parseDate(c.String("start-date")); err != nil {
		return pipeline.Config{}, fmt.Errorf("invalid --start-date: %w", err)
	}
	if cfg.EndDate, err = parseDate(c.String("end-date")); err != nil {
		return pipeline.Config{}, fmt.Errorf("invalid --end-date: %w", err)
	}
	return cfg, nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", s)
}

func logLevel() string {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "info"
	}
	return level
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}
