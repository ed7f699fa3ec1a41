package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"mailharvest/internal/calendar"
	"mailharvest/internal/extract"
	"mailharvest/internal/models"
)

// Config holds the input and output locations for one extraction run.
type Config struct {
	CalendarPath     string
	NameEmailPaths   []string
	NewlineEmailPath string
	OutputPath       string
	StartDate        time.Time // zero when unset
	EndDate          time.Time // zero when unset
	DryRun           bool
}

// Pipeline orchestrates the extraction: calendar attendees, free-form text
// files and a newline-delimited list are merged into one deduplicated set.
type Pipeline struct {
	logger *slog.Logger
	cfg    Config
}

// NewPipeline creates a new Pipeline.
func NewPipeline(logger *slog.Logger, cfg Config) *Pipeline {
	return &Pipeline{logger: logger, cfg: cfg}
}

// Run performs a full extraction cycle and writes the merged set to the
// output file. The first parse or I/O failure aborts the run.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("Starting extraction.", "calendar", p.cfg.CalendarPath)

	calendarEmails, err := p.calendarEmails()
	if err != nil {
		return err
	}
	p.logger.Info("Extracted calendar attendee emails.", "count", len(calendarEmails))

	var textEmails []string
	if len(p.cfg.NameEmailPaths) > 0 {
		textEmails, err = extract.FromTextFiles(p.cfg.NameEmailPaths)
		if err != nil {
			return fmt.Errorf("failed to extract from text files: %w", err)
		}
		p.logger.Info("Extracted emails from text files.", "files", len(p.cfg.NameEmailPaths), "count", len(textEmails))
	}

	var newlineEmails []string
	if p.cfg.NewlineEmailPath != "" {
		newlineEmails, err = extract.FromNewlineFile(p.cfg.NewlineEmailPath)
		if err != nil {
			return fmt.Errorf("failed to extract from newline file: %w", err)
		}
		p.logger.Info("Extracted emails from newline-delimited file.", "count", len(newlineEmails))
	}

	emails := extract.Unique(calendarEmails, textEmails, newlineEmails)
	p.logger.Info("Merged all sources.", "unique", len(emails))

	if p.cfg.DryRun {
		p.logger.Info("[DRY RUN] Would write email list", "file", p.cfg.OutputPath, "count", len(emails))
		return nil
	}

	if err := os.WriteFile(p.cfg.OutputPath, []byte(strings.Join(emails, "\n")), 0644); err != nil {
		return fmt.Errorf("failed to write email list: %w", err)
	}
	p.logger.Info("Email list saved.", "file", p.cfg.OutputPath)
	return nil
}

// LoadEvents parses the configured calendar and applies the date-range filter
// when both bounds are set.
func (p *Pipeline) LoadEvents() ([]*models.Event, error) {
	f, err := os.Open(p.cfg.CalendarPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open calendar file: %w", err)
	}
	defer f.Close()

	events, err := calendar.Parse(f)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("Parsed calendar.", "events", len(events))

	hasStart, hasEnd := !p.cfg.StartDate.IsZero(), !p.cfg.EndDate.IsZero()
	if hasStart && hasEnd {
		events = calendar.FilterRange(events, p.cfg.StartDate, p.cfg.EndDate)
		p.logger.Debug("Filtered events by date range.", "remaining", len(events))
	} else if hasStart || hasEnd {
		p.logger.Warn("Date filtering needs both --start-date and --end-date, loading all events.")
	}
	return events, nil
}

// calendarEmails runs the calendar leg: load, match attendee text, explode.
func (p *Pipeline) calendarEmails() ([]string, error) {
	events, err := p.LoadEvents()
	if err != nil {
		return nil, err
	}

	extract.AttachEmails(events)
	records := extract.Explode(events)

	emails := make([]string, 0, len(records))
	for _, r := range records {
		emails = append(emails, r.Address)
	}
	return emails, nil
}
