package schedule

import (
	"fmt"
	"strings"
)

// Weekday is the portal's weekday column, 1-based from Monday.
type Weekday int

const (
	Weekday1 Weekday = iota + 1 // 星期一
	Weekday2                    // 星期二
	Weekday3                    // 星期三
	Weekday4                    // 星期四
	Weekday5                    // 星期五
	Weekday6                    // 星期六
	Weekday7                    // 星期七, shown for Sunday
)

var weekdayLabels = [...]string{"星期一", "星期二", "星期三", "星期四", "星期五", "星期六", "星期七"}

// WeekdayFromColumn maps a 0-based grid column to its weekday.
func WeekdayFromColumn(col int) (Weekday, error) {
	if col < 0 || col >= len(weekdayLabels) {
		return 0, fmt.Errorf("weekday column %d out of range", col)
	}
	return Weekday(col + 1), nil
}

// ParseWeekday parses a label such as "星期三".
func ParseWeekday(label string) (Weekday, error) {
	label = strings.TrimSpace(label)
	for i, l := range weekdayLabels {
		if l == label {
			return Weekday(i + 1), nil
		}
	}
	return 0, fmt.Errorf("unknown weekday label: %q", label)
}

// Valid reports whether d is one of the seven portal weekdays.
func (d Weekday) Valid() bool {
	return d >= Weekday1 && d <= Weekday7
}

// Ordinal returns the day offset within a week, Monday = 1.
func (d Weekday) Ordinal() int {
	return int(d)
}

func (d Weekday) String() string {
	if !d.Valid() {
		return fmt.Sprintf("Weekday(%d)", int(d))
	}
	return weekdayLabels[d-1]
}

// MarshalText encodes the weekday as its portal label.
func (d Weekday) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("invalid weekday: %d", int(d))
	}
	return []byte(d.String()), nil
}

// UnmarshalText decodes a portal label.
func (d *Weekday) UnmarshalText(text []byte) error {
	parsed, err := ParseWeekday(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
