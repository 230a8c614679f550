package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/pfrederiksen/kebiao-ics/internal/schedule"
)

func testResult() *OutputResult {
	return &OutputResult{
		GeneratedAt:  time.Date(2023, 9, 1, 8, 0, 0, 0, time.UTC),
		StudentID:    "2023001",
		Term:         "2023/11",
		Weeks:        20,
		SkippedWeeks: []int{4, 7},
		Sessions:     2,
		Events:       2,
		Resolutions:  map[string]int{"unchanged": 1, "fixed": 1},
		Changes:      &ChangeSummary{Added: 1, Changed: 2},
		SessionsPath: "out/2023001_sessions.json",
		CalendarPath: "out/kcb_2023001.ics",
		SessionList: []schedule.Session{
			{CourseName: "病理学", WeekLabel: "第1周", Weekday: schedule.Weekday2, Periods: []int{3}, Location: "A101"},
			{CourseName: "生物信息学", WeekLabel: "第2周", Weekday: schedule.Weekday1, Periods: []int{14, 15}, Location: "钉钉"},
		},
	}
}

func TestWriteOutput_Text(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteOutput(&buf, testResult(), FormatText, false); err != nil {
		t.Fatalf("WriteOutput() error: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"Student 2023001, term 2023/11: 2 sessions over 20 weeks",
		"Skipped weeks: 4, 7",
		"Locations: fixed=1, unchanged=1",
		"Calendar: out/kcb_2023001.ics (2 events)",
		"Since last run: 1 added, 0 removed, 2 changed",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "病理学") {
		t.Error("sessions should only be listed when verbose")
	}
	if strings.Contains(out, "Spreadsheet:") {
		t.Error("spreadsheet line printed without an export")
	}
}

func TestWriteOutput_TextVerbose(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteOutput(&buf, testResult(), FormatText, true); err != nil {
		t.Fatalf("WriteOutput() error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "病理学") || !strings.Contains(out, "14-15") {
		t.Errorf("verbose output should list sessions:\n%s", out)
	}
}

func TestWriteOutput_JSON(t *testing.T) {
	result := testResult()
	var buf bytes.Buffer
	if err := WriteOutput(&buf, result, FormatJSON, false); err != nil {
		t.Fatalf("WriteOutput() error: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded["student_id"] != "2023001" {
		t.Errorf("student_id = %v", decoded["student_id"])
	}
	if _, ok := decoded["session_list"]; ok {
		t.Error("session_list should be omitted when not verbose")
	}
	if _, ok := decoded["xlsx_path"]; ok {
		t.Error("xlsx_path should be omitted when empty")
	}
	if len(result.SessionList) != 2 {
		t.Error("WriteOutput must not modify the caller's result")
	}
}

func TestWriteOutput_UnknownFormat(t *testing.T) {
	if err := WriteOutput(&bytes.Buffer{}, testResult(), OutputFormat("yaml"), false); err == nil {
		t.Error("expected error for unknown format")
	}
}
