package schedule

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Session is one class block scraped from a week page.
type Session struct {
	CourseName string  `json:"course_name"`
	WeekLabel  string  `json:"week_label"` // e.g. "第3周"
	Weekday    Weekday `json:"weekday"`
	Periods    []int   `json:"periods"`
	Teacher    string  `json:"teacher"`
	Location   string  `json:"location"`
	DetailURL  string  `json:"detail_url"`
}

var weekLabelPattern = regexp.MustCompile(`^第?\s*(\d+)\s*周?$`)

// ParseWeekLabel returns the 1-based week ordinal of a label like "第3周".
func ParseWeekLabel(label string) (int, error) {
	m := weekLabelPattern.FindStringSubmatch(strings.TrimSpace(label))
	if m == nil {
		return 0, fmt.Errorf("invalid week label: %q", label)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, fmt.Errorf("invalid week label %q: %w", label, err)
	}
	if n < 1 {
		return 0, fmt.Errorf("week label %q is not a positive week", label)
	}
	return n, nil
}

// WeekLabel formats a week ordinal the way the portal does.
func WeekLabel(week int) string {
	return fmt.Sprintf("第%d周", week)
}

// Week parses the session's week label.
func (s Session) Week() (int, error) {
	return ParseWeekLabel(s.WeekLabel)
}

// PeriodRange expands an inclusive "first -- last" range.
func PeriodRange(first, last int) ([]int, error) {
	if first < 1 {
		return nil, fmt.Errorf("period %d is not positive", first)
	}
	if last < first {
		return nil, fmt.Errorf("period range %d -- %d is descending", first, last)
	}
	periods := make([]int, 0, last-first+1)
	for p := first; p <= last; p++ {
		periods = append(periods, p)
	}
	return periods, nil
}

// FirstPeriod and LastPeriod return 0 when there are no periods.
func (s Session) FirstPeriod() int {
	if len(s.Periods) == 0 {
		return 0
	}
	return s.Periods[0]
}

func (s Session) LastPeriod() int {
	if len(s.Periods) == 0 {
		return 0
	}
	return s.Periods[len(s.Periods)-1]
}

// Validate checks the invariants every extracted session must hold.
func (s Session) Validate() error {
	if strings.TrimSpace(s.CourseName) == "" {
		return errors.New("course name is empty")
	}
	if _, err := s.Week(); err != nil {
		return err
	}
	if !s.Weekday.Valid() {
		return fmt.Errorf("invalid weekday: %d", int(s.Weekday))
	}
	if len(s.Periods) == 0 {
		return errors.New("session has no periods")
	}
	if s.Periods[0] < 1 {
		return fmt.Errorf("period %d is not positive", s.Periods[0])
	}
	for i := 1; i < len(s.Periods); i++ {
		if s.Periods[i] <= s.Periods[i-1] {
			return fmt.Errorf("periods %v are not strictly ascending", s.Periods)
		}
	}
	return nil
}

// DetailKey identifies a course detail page. Sections sharing a name but
// not a URL are fetched separately.
func (s Session) DetailKey() string {
	return s.DetailURL + "_" + s.CourseName
}

// Clone returns a deep copy of the session.
func (s Session) Clone() Session {
	c := s
	if s.Periods != nil {
		c.Periods = append([]int(nil), s.Periods...)
	}
	return c
}
