package extract

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"mailharvest/internal/models"
)

// emailPattern is the shared best-effort address shape. It checks syntax only;
// deliverability and domain existence are out of scope.
var emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)

// AttachEmails fills each event's Emails field with every pattern match found
// in its Attendees text, joined with ", ". Events without matches get an empty
// Emails field.
func AttachEmails(events []*models.Event) {
	for _, e := range events {
		e.Emails = strings.Join(emailPattern.FindAllString(e.Attendees, -1), ", ")
	}
}

// Explode drops events with an empty Emails field and splits the rest into one
// record per address, trimming each part.
func Explode(events []*models.Event) []models.EmailRecord {
	var records []models.EmailRecord
	for _, e := range events {
		if e.Emails == "" {
			continue
		}
		for _, part := range strings.Split(e.Emails, ",") {
			records = append(records, models.EmailRecord{
				EventUID: e.UID,
				Address:  strings.TrimSpace(part),
			})
		}
	}
	return records
}

// FromTextFiles scans whole file bodies for address matches and concatenates
// the results in input order. Duplicates are kept; dedup happens at the merge.
func FromTextFiles(paths []string) ([]string, error) {
	var emails []string
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		emails = append(emails, emailPattern.FindAllString(string(content), -1)...)
	}
	return emails, nil
}

// FromNewlineFile reads a file line by line and accepts each trimmed line that
// starts with an address match. The whole trimmed line is kept, even when text
// follows the match; lines that don't match are skipped silently.
func FromNewlineFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var emails []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if loc := emailPattern.FindStringIndex(line); loc != nil && loc[0] == 0 {
			emails = append(emails, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return emails, nil
}

// Unique merges any number of address lists into one deduplicated, sorted
// slice. Addresses are compared case-sensitively, as matched.
func Unique(lists ...[]string) []string {
	seen := make(map[string]bool)
	for _, list := range lists {
		for _, email := range list {
			seen[email] = true
		}
	}

	unique := make([]string, 0, len(seen))
	for email := range seen {
		unique = append(unique, email)
	}
	sort.Strings(unique)
	return unique
}
