package resolve

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// readLocationsXLSX reads the first sheet; columns are found by header.
func readLocationsXLSX(path string) ([]LocationEntry, error) {
	rows, err := firstSheetRows(path)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []LocationEntry{}, nil
	}

	cols, err := findColumns(rows[0], []string{headerCourseName, "course_name"}, []string{headerClassroom, "classroom"})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	entries := make([]LocationEntry, 0, len(rows)-1)
	for _, row := range rows[1:] {
		name := cell(row, cols[0])
		if name == "" {
			continue
		}
		entries = append(entries, LocationEntry{CourseName: name, Classroom: cell(row, cols[1])})
	}
	return entries, nil
}

// readRostersXLSX reads one (course, student) pair per row and groups them
// by course in first-seen order.
func readRostersXLSX(path string) ([]RosterEntry, error) {
	rows, err := firstSheetRows(path)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []RosterEntry{}, nil
	}

	cols, err := findColumns(rows[0], []string{headerCourseName, "course_name"}, []string{headerStudentID, "student_id"})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	index := make(map[string]int)
	entries := make([]RosterEntry, 0)
	for _, row := range rows[1:] {
		name, id := cell(row, cols[0]), cell(row, cols[1])
		if name == "" || id == "" {
			continue
		}
		i, ok := index[name]
		if !ok {
			i = len(entries)
			index[name] = i
			entries = append(entries, RosterEntry{CourseName: name})
		}
		entries[i].Enrolled = append(entries[i].Enrolled, Student{StudentID: id})
	}
	return entries, nil
}

func firstSheetRows(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %s: %w", sheet, err)
	}
	return rows, nil
}

// findColumns returns, for each alias group, the index of the first header
// matching one of its names.
func findColumns(header []string, groups ...[]string) ([]int, error) {
	cols := make([]int, len(groups))
	for g, names := range groups {
		cols[g] = -1
		for i, h := range header {
			h = normalize(h)
			for _, n := range names {
				if strings.EqualFold(h, n) {
					cols[g] = i
					break
				}
			}
			if cols[g] >= 0 {
				break
			}
		}
		if cols[g] < 0 {
			return nil, fmt.Errorf("missing column %q", names[0])
		}
	}
	return cols, nil
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
