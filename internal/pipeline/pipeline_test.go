package pipeline

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testICS = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//mailharvest//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:evt-1\r\n" +
	"SUMMARY:Fall Minis\r\n" +
	"DTSTART:20230901T100000Z\r\n" +
	"ATTENDEE;CN=a@b.com:mailto:a@b.com\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:evt-2\r\n" +
	"SUMMARY:Out Of Range\r\n" +
	"DTSTART:20240601T100000Z\r\n" +
	"ATTENDEE;CN=out@range.com:mailto:out@range.com\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{
		CalendarPath:     writeFixture(t, dir, "invite.ics", testICS),
		NameEmailPaths:   []string{writeFixture(t, dir, "names.txt", "Jane jane@d.org, also a@b.com")},
		NewlineEmailPath: writeFixture(t, dir, "list.txt", "e@f.com\nnot-an-email\n"),
		OutputPath:       filepath.Join(dir, "out.txt"),
		StartDate:        time.Date(2023, 8, 1, 0, 0, 0, 0, time.UTC),
		EndDate:          time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	require.NoError(t, NewPipeline(testLogger(), cfg).Run(context.Background()))

	out, err := os.ReadFile(cfg.OutputPath)
	require.NoError(t, err)
	// evt-2 is outside the date range, so out@range.com must not appear.
	assert.Equal(t, "a@b.com\ne@f.com\njane@d.org", string(out))
}

func TestRunWithoutOptionalSources(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{
		CalendarPath: writeFixture(t, dir, "invite.ics", testICS),
		OutputPath:   filepath.Join(dir, "out.txt"),
	}

	require.NoError(t, NewPipeline(testLogger(), cfg).Run(context.Background()))

	out, err := os.ReadFile(cfg.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com\nout@range.com", string(out))
}

func TestRunDryRunWritesNothing(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{
		CalendarPath: writeFixture(t, dir, "invite.ics", testICS),
		OutputPath:   filepath.Join(dir, "out.txt"),
		DryRun:       true,
	}

	require.NoError(t, NewPipeline(testLogger(), cfg).Run(context.Background()))

	_, err := os.Stat(cfg.OutputPath)
	assert.True(t, os.IsNotExist(err))
}

func TestRunFailsFast(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		cfg  Config
	}{
		{
			"missing calendar",
			Config{
				CalendarPath: filepath.Join(dir, "missing.ics"),
				OutputPath:   filepath.Join(dir, "out1.txt"),
			},
		},
		{
			"malformed calendar",
			Config{
				CalendarPath: writeFixture(t, dir, "broken.ics", "not a calendar"),
				OutputPath:   filepath.Join(dir, "out2.txt"),
			},
		},
		{
			"missing text file",
			Config{
				CalendarPath:   writeFixture(t, dir, "invite.ics", testICS),
				NameEmailPaths: []string{filepath.Join(dir, "missing.txt")},
				OutputPath:     filepath.Join(dir, "out3.txt"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewPipeline(testLogger(), tt.cfg).Run(context.Background())
			require.Error(t, err)
			_, statErr := os.Stat(tt.cfg.OutputPath)
			assert.True(t, os.IsNotExist(statErr), "no partial output expected")
		})
	}
}

func TestLoadEventsSingleBoundLoadsAll(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{
		CalendarPath: writeFixture(t, dir, "invite.ics", testICS),
		StartDate:    time.Date(2023, 8, 1, 0, 0, 0, 0, time.UTC),
	}

	events, err := NewPipeline(testLogger(), cfg).LoadEvents()
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestRunOutputIsNewlineJoined(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{
		CalendarPath: writeFixture(t, dir, "invite.ics", testICS),
		OutputPath:   filepath.Join(dir, "out.txt"),
	}

	require.NoError(t, NewPipeline(testLogger(), cfg).Run(context.Background()))

	out, err := os.ReadFile(cfg.OutputPath)
	require.NoError(t, err)
	lines := strings.Split(string(out), "\n")
	assert.Len(t, lines, 2)
	for _, line := range lines {
		assert.NotEmpty(t, line)
	}
}
