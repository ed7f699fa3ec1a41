package models

import "time"

// Event represents a single calendar event.
// This is an internal representation, independent of the iCalendar wire format.
type Event struct {
	UID         string    // The iCalendar UID, generated when the source omits one
	Summary     string    // Summary or title of the event
	Start       time.Time // Start time, converted to UTC when the source carries a zone
	End         time.Time // End time, zero when the event has no DTEND
	Location    string    // Location of the event
	Description string    // Detailed description of the event
	Attendees   string    // Attendee display names/addresses, joined with ", "
	Emails      string    // Email addresses matched in Attendees, joined with ", "
}

// EmailRecord is one extracted email address tied back to its originating event.
type EmailRecord struct {
	EventUID string
	Address  string
}
