package calendar

import (
	"fmt"
	"strings"

	ics "github.com/arran4/golang-ical"
)

// Validate parses doc with an independent iCalendar parser and checks that
// it holds want events, each with a UID and a start time.
func Validate(doc string, want int) error {
	cal, err := ics.ParseCalendar(strings.NewReader(doc))
	if err != nil {
		return fmt.Errorf("parsing calendar: %w", err)
	}

	var events []*ics.VEvent
	for _, component := range cal.Components {
		if event, ok := component.(*ics.VEvent); ok {
			events = append(events, event)
		}
	}
	if len(events) != want {
		return fmt.Errorf("calendar has %d events, want %d", len(events), want)
	}

	for i, event := range events {
		if p := event.GetProperty(ics.ComponentPropertyUniqueId); p == nil || p.Value == "" {
			return fmt.Errorf("event %d has no UID", i)
		}
		if p := event.GetProperty(ics.ComponentPropertyDtStart); p == nil || p.Value == "" {
			return fmt.Errorf("event %d has no DTSTART", i)
		}
	}
	return nil
}
