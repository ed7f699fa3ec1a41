package calendar

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"

	"mailharvest/internal/models"
)

// Parse decodes an ICS document into internal events, one per VEVENT,
// preserving the component order of the document.
func Parse(r io.Reader) ([]*models.Event, error) {
	cal, err := ical.NewDecoder(r).Decode()
	if err != nil {
		return nil, fmt.Errorf("failed to parse calendar: %w", err)
	}

	var events []*models.Event
	for _, ve := range cal.Events() {
		event, err := toEvent(ve)
		if err != nil {
			return nil, fmt.Errorf("failed to read event: %w", err)
		}
		events = append(events, event)
	}
	return events, nil
}

// FilterRange keeps events whose start, stripped of its zone, falls within
// [start, end). Both bounds must be set; callers skip filtering otherwise.
func FilterRange(events []*models.Event, start, end time.Time) []*models.Event {
	var filtered []*models.Event
	for _, e := range events {
		naive := stripZone(e.Start)
		if !naive.Before(start) && naive.Before(end) {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

// toEvent converts a VEVENT component to the internal Event model.
func toEvent(ve ical.Event) (*models.Event, error) {
	startProp := ve.Props.Get(ical.PropDateTimeStart)
	if startProp == nil {
		return nil, fmt.Errorf("event %q has no start time", text(ve.Props, ical.PropSummary))
	}
	start, err := propTime(startProp)
	if err != nil {
		return nil, fmt.Errorf("invalid start time: %w", err)
	}

	var end time.Time
	if endProp := ve.Props.Get(ical.PropDateTimeEnd); endProp != nil {
		end, err = propTime(endProp)
		if err != nil {
			return nil, fmt.Errorf("invalid end time: %w", err)
		}
	}

	var attendees []string
	for _, prop := range ve.Props.Values(ical.PropAttendee) {
		attendees = append(attendees, attendeeDisplay(prop))
	}

	uid := text(ve.Props, ical.PropUID)
	if uid == "" {
		uid = uuid.New().String()
	}

	return &models.Event{
		UID:         uid,
		Summary:     text(ve.Props, ical.PropSummary),
		Start:       start,
		End:         end,
		Location:    text(ve.Props, ical.PropLocation),
		Description: text(ve.Props, ical.PropDescription),
		Attendees:   strings.Join(attendees, ", "),
	}, nil
}

// attendeeDisplay normalizes an ATTENDEE property to its displayable string:
// the CN parameter when present, otherwise the raw property value.
func attendeeDisplay(prop ical.Prop) string {
	if cn := prop.Params.Get(ical.ParamCommonName); cn != "" {
		return cn
	}
	return prop.Value
}

// propTime parses a DTSTART/DTEND property. Zoned date-times are converted to
// UTC; DATE values and floating times are kept as parsed.
func propTime(prop *ical.Prop) (time.Time, error) {
	t, err := prop.DateTime(time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	if prop.ValueType() == ical.ValueDateTime {
		t = t.UTC()
	}
	return t, nil
}

// stripZone reinterprets a timestamp's wall-clock reading as UTC so that
// date-only bounds compare against the calendar-local date.
func stripZone(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

func text(props ical.Props, name string) string {
	prop := props.Get(name)
	if prop == nil {
		return ""
	}
	v, err := prop.Text()
	if err != nil {
		return prop.Value
	}
	return v
}
