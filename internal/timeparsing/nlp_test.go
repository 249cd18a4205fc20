package timeparsing

import (
	"testing"
	"time"
)

// Wednesday, January 15, 2025, 10:00.
var refNow = time.Date(2025, 1, 15, 10, 0, 0, 0, time.Local)

type dateCase struct {
	input   string
	month   time.Month
	day     int
	hour    int // -1 skips the hour check
	wantErr bool
}

func checkDates(t *testing.T, name string, parse func(string, time.Time) (time.Time, error), tests []dateCase) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parse(tt.input, refNow)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("%s(%q) = %v, want error", name, tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("%s(%q) error: %v", name, tt.input, err)
			}
			if got.Year() != 2025 || got.Month() != tt.month || got.Day() != tt.day {
				t.Errorf("%s(%q) = %v, want 2025-%02d-%02d", name, tt.input, got, tt.month, tt.day)
			}
			if tt.hour >= 0 && got.Hour() != tt.hour {
				t.Errorf("%s(%q) hour = %d, want %d", name, tt.input, got.Hour(), tt.hour)
			}
		})
	}
}

func TestParseNaturalLanguage(t *testing.T) {
	checkDates(t, "ParseNaturalLanguage", ParseNaturalLanguage, []dateCase{
		{input: "tomorrow", month: time.January, day: 16, hour: -1},
		{input: "yesterday", month: time.January, day: 14, hour: -1},
		{input: "next monday", month: time.January, day: 20, hour: -1},
		{input: "tomorrow at 9am", month: time.January, day: 16, hour: 9},
		{input: "next monday at 2pm", month: time.January, day: 20, hour: 14},
		{input: "in 3 days", month: time.January, day: 18, hour: -1},
		{input: "in 1 week", month: time.January, day: 22, hour: -1},
		{input: "3 days ago", month: time.January, day: 12, hour: -1},
		{input: "blorp zxq", wantErr: true},
		{input: "", wantErr: true},
	})
}

func TestParseRelativeTime(t *testing.T) {
	checkDates(t, "ParseRelativeTime", ParseRelativeTime, []dateCase{
		{input: "+1d", month: time.January, day: 16, hour: 10},
		{input: "+6h", month: time.January, day: 15, hour: 16},
		{input: "tomorrow", month: time.January, day: 16, hour: -1},
		{input: "next monday", month: time.January, day: 20, hour: -1},
		{input: "2025-02-01", month: time.February, day: 1, hour: 0},
		{input: "2025-03-15T14:30:00Z", month: time.March, day: 15, hour: 14},
		{input: "not-a-date", wantErr: true},
	})
}

func TestParseRelativeTimeCompactFirst(t *testing.T) {
	got, err := ParseRelativeTime("+1d", refNow)
	if err != nil {
		t.Fatal(err)
	}
	if want := refNow.AddDate(0, 0, 1); !got.Equal(want) {
		t.Errorf("+1d = %v, want exactly one calendar day later %v", got, want)
	}

	got, err = ParseRelativeTime("2025-01-20", refNow)
	if err != nil {
		t.Fatal(err)
	}
	if want := time.Date(2025, 1, 20, 0, 0, 0, 0, time.Local); !got.Equal(want) {
		t.Errorf("2025-01-20 = %v, want local midnight %v", got, want)
	}
}

func TestParseAbsolute(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)

	tests := []struct {
		input string
		want  time.Time
	}{
		{"2025-02-01", time.Date(2025, 2, 1, 0, 0, 0, 0, loc)},
		{"2025-02-01 09:30", time.Date(2025, 2, 1, 9, 30, 0, 0, loc)},
		{"2025-02-01T09:30:15", time.Date(2025, 2, 1, 9, 30, 15, 0, loc)},
		{"2025-02-01T09:30:00Z", time.Date(2025, 2, 1, 9, 30, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseAbsolute(tt.input, loc)
			if err != nil {
				t.Fatalf("ParseAbsolute(%q) error: %v", tt.input, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseAbsolute(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}

	if _, err := ParseAbsolute("02/01/2025", loc); err == nil {
		t.Error("ParseAbsolute should reject unsupported layouts")
	}
}

func TestParseRelativeTime_Empty(t *testing.T) {
	if _, err := ParseRelativeTime("   ", time.Now()); err == nil {
		t.Error("blank input should fail")
	}
}
