package clock

import (
	"errors"
	"fmt"
	"time"

	"github.com/pfrederiksen/kebiao-ics/internal/schedule"
)

// ZoneName is the TZID written next to every local timestamp.
const ZoneName = "Asia/Shanghai"

// Zone is UTC+8 without daylight saving.
var Zone = time.FixedZone(ZoneName, 8*60*60)

// UnknownPeriodError reports a period index missing from the table.
type UnknownPeriodError struct {
	Period int
}

func (e *UnknownPeriodError) Error() string {
	return fmt.Sprintf("unknown period index: %d", e.Period)
}

// Clock computes session times for one term.
type Clock struct {
	anchor  time.Time
	periods PeriodTable
	loc     *time.Location
}

// New creates a Clock. anchor is the day before week 1's Monday; only its
// date is used.
func New(anchor time.Time, periods PeriodTable, loc *time.Location) (*Clock, error) {
	if len(periods) == 0 {
		return nil, errors.New("period table is empty")
	}
	if loc == nil {
		loc = Zone
	}
	return &Clock{
		anchor:  time.Date(anchor.Year(), anchor.Month(), anchor.Day(), 0, 0, 0, 0, loc),
		periods: periods,
		loc:     loc,
	}, nil
}

// ParseAnchor parses a "2006-01-02" anchor date.
func ParseAnchor(s string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", s, Zone)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing term anchor %q: %w", s, err)
	}
	return t, nil
}

// Anchor returns the term anchor date.
func (c *Clock) Anchor() time.Time {
	return c.anchor
}

// Day returns the calendar date of a week ordinal and weekday.
func (c *Clock) Day(week int, day schedule.Weekday) (time.Time, error) {
	if week < 1 {
		return time.Time{}, fmt.Errorf("week %d is not positive", week)
	}
	if !day.Valid() {
		return time.Time{}, fmt.Errorf("invalid weekday: %d", int(day))
	}
	return c.anchor.AddDate(0, 0, (week-1)*7+day.Ordinal()), nil
}

// Span returns the start of the first period and the end of the last period
// of a session. Gaps inside the range (such as the dinner break) are not
// checked.
func (c *Clock) Span(week int, day schedule.Weekday, periods []int) (time.Time, time.Time, error) {
	if len(periods) == 0 {
		return time.Time{}, time.Time{}, errors.New("session has no periods")
	}
	first, last := periods[0], periods[len(periods)-1]
	if last < first {
		return time.Time{}, time.Time{}, fmt.Errorf("last period %d precedes first period %d", last, first)
	}

	date, err := c.Day(week, day)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	startSlot, ok := c.periods[first]
	if !ok {
		return time.Time{}, time.Time{}, &UnknownPeriodError{Period: first}
	}
	endSlot, ok := c.periods[last]
	if !ok {
		return time.Time{}, time.Time{}, &UnknownPeriodError{Period: last}
	}

	return c.at(date, startSlot.Start), c.at(date, endSlot.End), nil
}

// SessionSpan is Span for a scraped session.
func (c *Clock) SessionSpan(s schedule.Session) (time.Time, time.Time, error) {
	week, err := s.Week()
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start, end, err := c.Span(week, s.Weekday, s.Periods)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%s %s %s: %w", s.CourseName, s.WeekLabel, s.Weekday, err)
	}
	return start, end, nil
}

func (c *Clock) at(date time.Time, ct ClockTime) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), ct.Hour, ct.Minute, 0, 0, c.loc)
}
