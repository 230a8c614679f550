package clock

import (
	"fmt"
	"sort"
	"time"
)

// ClockTime is a time of day with minute granularity.
type ClockTime struct {
	Hour   int
	Minute int
}

// ParseClockTime parses "HH:MM".
func ParseClockTime(s string) (ClockTime, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return ClockTime{}, fmt.Errorf("parsing clock time %q: %w", s, err)
	}
	return ClockTime{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// Period is one class slot.
type Period struct {
	Index int
	Start ClockTime
	End   ClockTime
}

// PeriodTable maps a 1-based period index to its slot.
type PeriodTable map[int]Period

// NewPeriodTable builds a table, rejecting duplicates and inverted slots.
func NewPeriodTable(periods []Period) (PeriodTable, error) {
	table := make(PeriodTable, len(periods))
	for _, p := range periods {
		if p.Index < 1 {
			return nil, fmt.Errorf("period index %d is not positive", p.Index)
		}
		if _, dup := table[p.Index]; dup {
			return nil, fmt.Errorf("period %d defined twice", p.Index)
		}
		if !p.Start.before(p.End) {
			return nil, fmt.Errorf("period %d ends (%s) before it starts (%s)", p.Index, p.End, p.Start)
		}
		table[p.Index] = p
	}
	return table, nil
}

// Indexes returns the defined period indexes in ascending order.
func (t PeriodTable) Indexes() []int {
	idx := make([]int, 0, len(t))
	for i := range t {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	return idx
}

func (c ClockTime) before(o ClockTime) bool {
	return c.Hour*60+c.Minute < o.Hour*60+o.Minute
}

// DefaultPeriods is the portal's 17-period day. Periods 13 and 14 are
// separated by the dinner break.
func DefaultPeriods() []Period {
	raw := [][2]string{
		{"08:00", "08:40"},
		{"08:45", "09:25"},
		{"09:40", "10:20"},
		{"10:25", "11:05"},
		{"11:10", "11:50"},
		{"11:55", "12:35"},
		{"12:40", "13:20"},
		{"13:30", "14:10"},
		{"14:15", "14:55"},
		{"15:00", "15:40"},
		{"15:45", "16:25"},
		{"16:30", "17:10"},
		{"17:15", "17:55"},
		{"18:20", "19:00"},
		{"19:05", "19:45"},
		{"19:50", "20:30"},
		{"20:35", "21:15"},
	}
	periods := make([]Period, len(raw))
	for i, r := range raw {
		start, _ := ParseClockTime(r[0])
		end, _ := ParseClockTime(r[1])
		periods[i] = Period{Index: i + 1, Start: start, End: end}
	}
	return periods
}
