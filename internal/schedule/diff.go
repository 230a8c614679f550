package schedule

import "fmt"

// Change kinds reported by Diff.
const (
	ChangeLocation = "location"
	ChangeTeacher  = "teacher"
)

// SlotKey identifies a session by course and time slot. Two exports of the
// same timetable produce the same keys.
func (s Session) SlotKey() string {
	return fmt.Sprintf("%s|%s|%d|%d-%d", s.CourseName, s.WeekLabel, int(s.Weekday), s.FirstPeriod(), s.LastPeriod())
}

// Change is a field that differs between two exports of the same slot.
type Change struct {
	Session  Session `json:"session"`
	Field    string  `json:"field"`
	OldValue string  `json:"old_value"`
	NewValue string  `json:"new_value"`
}

// DiffResult contains the results of comparing two session lists.
type DiffResult struct {
	Added   []Session `json:"added"`
	Removed []Session `json:"removed"`
	Changes []Change  `json:"changes"`
}

// Empty reports whether the lists were equivalent.
func (d *DiffResult) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changes) == 0
}

// Diff compares the current sessions against a previous export. Sessions are
// matched by SlotKey; when a key repeats, occurrences are paired in order.
// Added and Changes follow current order, Removed follows previous order.
func Diff(previous, current []Session) *DiffResult {
	result := &DiffResult{
		Added:   make([]Session, 0),
		Removed: make([]Session, 0),
		Changes: make([]Change, 0),
	}

	index := make(map[string][]int)
	for i, s := range previous {
		key := s.SlotKey()
		index[key] = append(index[key], i)
	}
	matched := make([]bool, len(previous))

	for _, cur := range current {
		key := cur.SlotKey()
		candidates := index[key]
		if len(candidates) == 0 {
			result.Added = append(result.Added, cur)
			continue
		}
		i := candidates[0]
		index[key] = candidates[1:]
		matched[i] = true
		result.Changes = append(result.Changes, detectChanges(previous[i], cur)...)
	}

	for i, s := range previous {
		if !matched[i] {
			result.Removed = append(result.Removed, s)
		}
	}
	return result
}

func detectChanges(previous, current Session) []Change {
	var changes []Change
	if previous.Location != current.Location {
		changes = append(changes, Change{
			Session:  current,
			Field:    ChangeLocation,
			OldValue: previous.Location,
			NewValue: current.Location,
		})
	}
	if previous.Teacher != current.Teacher {
		changes = append(changes, Change{
			Session:  current,
			Field:    ChangeTeacher,
			OldValue: previous.Teacher,
			NewValue: current.Teacher,
		})
	}
	return changes
}
