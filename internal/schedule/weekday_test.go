package schedule

import "testing"

func TestWeekdayFromColumn(t *testing.T) {
	for col := 0; col < 7; col++ {
		d, err := WeekdayFromColumn(col)
		if err != nil {
			t.Fatalf("WeekdayFromColumn(%d) error = %v", col, err)
		}
		if d.Ordinal() != col+1 {
			t.Errorf("WeekdayFromColumn(%d).Ordinal() = %d, want %d", col, d.Ordinal(), col+1)
		}
	}
	if _, err := WeekdayFromColumn(7); err == nil {
		t.Error("WeekdayFromColumn(7) expected error")
	}
}

// The portal labels Sunday as 星期七; the enum keeps that label as-is.
func TestWeekday_SeventhLabel(t *testing.T) {
	if Weekday7.String() != "星期七" {
		t.Errorf("Weekday7.String() = %q, want 星期七", Weekday7.String())
	}
	if Weekday7.Ordinal() != 7 {
		t.Errorf("Weekday7.Ordinal() = %d, want 7", Weekday7.Ordinal())
	}
	if _, err := ParseWeekday("星期日"); err == nil {
		t.Error("ParseWeekday(星期日) should not be accepted as an alias")
	}
}

func TestParseWeekday(t *testing.T) {
	tests := []struct {
		label string
		want  Weekday
	}{
		{"星期一", Weekday1},
		{"星期三", Weekday3},
		{" 星期六 ", Weekday6},
		{"星期七", Weekday7},
	}
	for _, tt := range tests {
		got, err := ParseWeekday(tt.label)
		if err != nil {
			t.Fatalf("ParseWeekday(%q) error = %v", tt.label, err)
		}
		if got != tt.want {
			t.Errorf("ParseWeekday(%q) = %v, want %v", tt.label, got, tt.want)
		}
	}
}

func TestWeekday_MarshalTextInvalid(t *testing.T) {
	if _, err := Weekday(0).MarshalText(); err == nil {
		t.Error("MarshalText() expected error for zero weekday")
	}
	var d Weekday
	if err := d.UnmarshalText([]byte("Monday")); err == nil {
		t.Error("UnmarshalText(Monday) expected error")
	}
}
