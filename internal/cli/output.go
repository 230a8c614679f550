package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/pfrederiksen/kebiao-ics/internal/schedule"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// OutputResult summarizes a run
type OutputResult struct {
	GeneratedAt  time.Time          `json:"generated_at"`
	StudentID    string             `json:"student_id"`
	Term         string             `json:"term"`
	Weeks        int                `json:"weeks"`
	Offline      bool               `json:"offline,omitempty"`
	SkippedWeeks []int              `json:"skipped_weeks,omitempty"`
	Sessions     int                `json:"sessions"`
	Events       int                `json:"events"`
	Resolutions  map[string]int     `json:"resolutions"`
	Changes      *ChangeSummary     `json:"changes,omitempty"`
	SessionsPath string             `json:"sessions_path"`
	CalendarPath string             `json:"calendar_path"`
	XLSXPath     string             `json:"xlsx_path,omitempty"`
	SessionList  []schedule.Session `json:"session_list,omitempty"`
}

// ChangeSummary counts the differences from the previous run's session list.
type ChangeSummary struct {
	Added   int `json:"added"`
	Removed int `json:"removed"`
	Changed int `json:"changed"`
}

// WriteOutput writes the result in the specified format. The session list
// is only included when verbose.
func WriteOutput(w io.Writer, result *OutputResult, format OutputFormat, verbose bool) error {
	if !verbose {
		trimmed := *result
		trimmed.SessionList = nil
		result = &trimmed
	}

	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeText(w, result)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, result *OutputResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// writeText outputs results as human-readable text
func writeText(w io.Writer, result *OutputResult) error {
	if len(result.SessionList) > 0 {
		for _, s := range result.SessionList {
			fmt.Fprintf(w, "%-12s %-6s %-4s %-8s %s\n",
				s.CourseName, s.WeekLabel, s.Weekday, periodLabel(s), s.Location)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Student %s, term %s: %d sessions over %d weeks\n",
		result.StudentID, result.Term, result.Sessions, result.Weeks)
	if len(result.SkippedWeeks) > 0 {
		fmt.Fprintf(w, "Skipped weeks: %s\n", joinInts(result.SkippedWeeks))
	}

	if len(result.Resolutions) > 0 {
		rules := make([]string, 0, len(result.Resolutions))
		for rule := range result.Resolutions {
			rules = append(rules, rule)
		}
		sort.Strings(rules)

		parts := make([]string, 0, len(rules))
		for _, rule := range rules {
			parts = append(parts, fmt.Sprintf("%s=%d", rule, result.Resolutions[rule]))
		}
		fmt.Fprintf(w, "Locations: %s\n", strings.Join(parts, ", "))
	}

	if c := result.Changes; c != nil {
		fmt.Fprintf(w, "Since last run: %d added, %d removed, %d changed\n", c.Added, c.Removed, c.Changed)
	}

	fmt.Fprintf(w, "Sessions: %s\n", result.SessionsPath)
	fmt.Fprintf(w, "Calendar: %s (%d events)\n", result.CalendarPath, result.Events)
	if result.XLSXPath != "" {
		fmt.Fprintf(w, "Spreadsheet: %s\n", result.XLSXPath)
	}
	return nil
}

func periodLabel(s schedule.Session) string {
	if s.FirstPeriod() == s.LastPeriod() {
		return fmt.Sprintf("%d", s.FirstPeriod())
	}
	return fmt.Sprintf("%d-%d", s.FirstPeriod(), s.LastPeriod())
}

func joinInts(ns []int) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = fmt.Sprint(n)
	}
	return strings.Join(parts, ", ")
}
