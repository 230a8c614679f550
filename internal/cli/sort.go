package cli

import (
	"sort"

	"github.com/pfrederiksen/kebiao-ics/internal/schedule"
)

// SortOrder represents the available sorting options
type SortOrder string

const (
	SortByWeek   SortOrder = "week"
	SortByCourse SortOrder = "course"
)

// sortSessions sorts sessions in place for display. The sort is stable, so
// sessions that compare equal keep their page order.
func sortSessions(sessions []schedule.Session, order SortOrder) {
	switch order {
	case SortByWeek:
		sort.SliceStable(sessions, func(i, j int) bool {
			return compareByTime(sessions[i], sessions[j])
		})
	case SortByCourse:
		sort.SliceStable(sessions, func(i, j int) bool {
			if sessions[i].CourseName != sessions[j].CourseName {
				return sessions[i].CourseName < sessions[j].CourseName
			}
			// If courses are equal, sort by time
			return compareByTime(sessions[i], sessions[j])
		})
	}
}

// compareByTime orders by week, weekday, then first period. Sessions with
// an unparsable week label sort last.
func compareByTime(a, b schedule.Session) bool {
	wa, errA := a.Week()
	wb, errB := b.Week()
	if errA != nil || errB != nil {
		return errA == nil && errB != nil
	}
	if wa != wb {
		return wa < wb
	}
	if a.Weekday != b.Weekday {
		return a.Weekday < b.Weekday
	}
	return a.FirstPeriod() < b.FirstPeriod()
}
