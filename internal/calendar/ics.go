package calendar

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/pfrederiksen/kebiao-ics/internal/clock"
	"github.com/pfrederiksen/kebiao-ics/internal/schedule"
)

// ProdID identifies the generator in every calendar.
const ProdID = "-//kebiao-ics//kebiao-ics//ZH"

// maxLineOctets is the folding limit for content lines, CRLF excluded.
const maxLineOctets = 75

// Event is one VEVENT.
type Event struct {
	UID         string
	Summary     string
	Location    string
	Description string
	URL         string
	Start       time.Time
	End         time.Time
	Created     time.Time
}

// CalendarName is the display name of a student's calendar.
func CalendarName(studentID string) string {
	return studentID + "的课表"
}

// BuildEvents converts sessions into events, in order. Every event gets a
// fresh upper-case UUID and now (in UTC) as its creation time.
func BuildEvents(sessions []schedule.Session, clk *clock.Clock, now time.Time) ([]Event, error) {
	events := make([]Event, 0, len(sessions))
	for _, s := range sessions {
		start, end, err := clk.SessionSpan(s)
		if err != nil {
			return nil, err
		}
		events = append(events, Event{
			UID:         strings.ToUpper(uuid.NewString()),
			Summary:     s.CourseName,
			Location:    s.Location,
			Description: describe(s),
			URL:         s.DetailURL,
			Start:       start,
			End:         end,
			Created:     now.UTC().Truncate(time.Second),
		})
	}
	return events, nil
}

// describe summarizes a session for the DESCRIPTION property.
func describe(s schedule.Session) string {
	parts := []string{s.CourseName}
	if s.Teacher != "" {
		parts = append(parts, "教师: "+s.Teacher)
	}
	parts = append(parts, fmt.Sprintf("%s %s 第%d-%d节", s.WeekLabel, s.Weekday, s.FirstPeriod(), s.LastPeriod()))
	return strings.Join(parts, " | ")
}

// GenerateBulkICS generates a calendar holding all events. An empty event
// list still yields a complete, empty calendar. X-WR-CALNAME is omitted when
// name is empty.
func GenerateBulkICS(events []Event, name string) string {
	var ics strings.Builder

	writeLine(&ics, "BEGIN:VCALENDAR")
	writeLine(&ics, "VERSION:2.0")
	writeLine(&ics, "PRODID:"+ProdID)
	writeLine(&ics, "CALSCALE:GREGORIAN")
	if name != "" {
		writeLine(&ics, "X-WR-CALNAME:"+escapeICS(name))
	}

	for _, evt := range events {
		writeEvent(&ics, evt)
	}

	writeLine(&ics, "END:VCALENDAR")
	return ics.String()
}

func writeEvent(ics *strings.Builder, evt Event) {
	writeLine(ics, "BEGIN:VEVENT")
	writeLine(ics, "CREATED:"+formatICSTime(evt.Created))
	writeLine(ics, "UID:"+evt.UID)
	writeLine(ics, "SUMMARY:"+escapeICS(evt.Summary))
	writeLine(ics, "LOCATION:"+escapeICS(evt.Location))
	writeLine(ics, fmt.Sprintf("DTSTART;TZID=%s:%s", clock.ZoneName, formatLocalTime(evt.Start)))
	writeLine(ics, fmt.Sprintf("DTEND;TZID=%s:%s", clock.ZoneName, formatLocalTime(evt.End)))
	writeLine(ics, "DESCRIPTION:"+escapeICS(evt.Description))
	writeLine(ics, "URL;VALUE=URI:"+collapseBreaks(evt.URL))
	writeLine(ics, "END:VEVENT")
}

// writeLine writes a content line, folded so that no physical line exceeds
// 75 octets. Continuation lines start with a single space. Invalid UTF-8 is
// replaced with U+FFFD.
func writeLine(ics *strings.Builder, line string) {
	line = strings.ToValidUTF8(line, "\uFFFD")
	limit := maxLineOctets
	for len(line) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(line[cut]) {
			cut--
		}
		if cut == 0 {
			cut = limit
		}
		ics.WriteString(line[:cut])
		ics.WriteString("\r\n ")
		line = line[cut:]
		limit = maxLineOctets - 1
	}
	ics.WriteString(line)
	ics.WriteString("\r\n")
}

// formatICSTime formats a time.Time as an iCalendar UTC datetime string
func formatICSTime(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

// formatLocalTime formats t as a floating datetime in the schedule zone.
func formatLocalTime(t time.Time) string {
	return t.In(clock.Zone).Format("20060102T150405")
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

func collapseBreaks(s string) string {
	return lineBreaks.Replace(s)
}

// escapeICS collapses line breaks to a single space and escapes special
// characters according to RFC 5545
func escapeICS(s string) string {
	s = collapseBreaks(s)
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, ";", "\\;")
	return s
}
