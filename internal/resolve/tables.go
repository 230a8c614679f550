package resolve

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocationEntry is one row of the course→classroom table.
type LocationEntry struct {
	CourseName string `json:"course_name"`
	Classroom  string `json:"classroom"`
}

// Student is one enrolled student in a roster.
type Student struct {
	StudentID string `json:"student_id"`
}

// RosterEntry lists the students enrolled in a course.
type RosterEntry struct {
	CourseName string    `json:"course_name"`
	Enrolled   []Student `json:"enrolled"`
}

// Tables holds both auxiliary tables. Course names may repeat.
type Tables struct {
	Locations []LocationEntry
	Rosters   []RosterEntry
}

// Column headers used by the school's own exports.
const (
	headerCourseName = "课程名称"
	headerClassroom  = "校区、授课教室"
	headerStudents   = "学生信息"
	headerStudentID  = "学号"
)

// UnmarshalJSON accepts both snake_case keys and the school's export keys.
func (l *LocationEntry) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var err error
	if l.CourseName, err = stringField(raw, "course_name", headerCourseName); err != nil {
		return err
	}
	if l.Classroom, err = stringField(raw, "classroom", headerClassroom); err != nil {
		return err
	}
	return nil
}

// UnmarshalJSON accepts both snake_case keys and the school's export keys.
func (s *Student) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	id, err := stringField(raw, "student_id", headerStudentID)
	if err != nil {
		return err
	}
	s.StudentID = id
	return nil
}

// UnmarshalJSON accepts both snake_case keys and the school's export keys.
func (r *RosterEntry) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	name, err := stringField(raw, "course_name", headerCourseName)
	if err != nil {
		return err
	}
	r.CourseName = name
	r.Enrolled = nil

	for _, key := range []string{"enrolled", headerStudents} {
		if v, ok := raw[key]; ok {
			if err := json.Unmarshal(v, &r.Enrolled); err != nil {
				return fmt.Errorf("decoding %s: %w", key, err)
			}
			break
		}
	}
	return nil
}

// stringField reads the first present key. Numbers are kept as written so
// numeric student IDs survive.
func stringField(raw map[string]json.RawMessage, keys ...string) (string, error) {
	for _, key := range keys {
		v, ok := raw[key]
		if !ok {
			continue
		}
		v = bytes.TrimSpace(v)
		if len(v) == 0 || string(v) == "null" {
			return "", nil
		}
		if v[0] == '"' {
			var s string
			if err := json.Unmarshal(v, &s); err != nil {
				return "", fmt.Errorf("decoding %s: %w", key, err)
			}
			return strings.TrimSpace(s), nil
		}
		var n json.Number
		if err := json.Unmarshal(v, &n); err != nil {
			return "", fmt.Errorf("decoding %s: %w", key, err)
		}
		return n.String(), nil
	}
	return "", nil
}

// LoadTables reads both tables. An empty path or a missing file yields an
// empty table; the second return value lists the missing paths.
func LoadTables(locationPath, rosterPath string) (Tables, []string, error) {
	var tables Tables
	var missing []string

	found, err := loadTable(locationPath, &tables.Locations, readLocationsXLSX)
	if err != nil {
		return Tables{}, nil, fmt.Errorf("loading location table: %w", err)
	}
	if !found && locationPath != "" {
		missing = append(missing, locationPath)
	}

	found, err = loadTable(rosterPath, &tables.Rosters, readRostersXLSX)
	if err != nil {
		return Tables{}, nil, fmt.Errorf("loading roster table: %w", err)
	}
	if !found && rosterPath != "" {
		missing = append(missing, rosterPath)
	}

	return tables, missing, nil
}

func loadTable[T any](path string, dst *[]T, xlsx func(string) ([]T, error)) (bool, error) {
	if path == "" {
		return false, nil
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}

	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		rows, err := xlsx(path)
		if err != nil {
			return false, err
		}
		*dst = rows
		return true, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("parsing %s: %w", path, err)
	}
	return true, nil
}
