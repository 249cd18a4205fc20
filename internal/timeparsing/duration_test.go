package timeparsing

import (
	"testing"
	"time"
)

func TestParseCompactDuration(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		input   string
		want    time.Time
		wantErr bool
	}{
		{input: "+6h", want: time.Date(2025, 6, 15, 18, 0, 0, 0, time.UTC)},
		{input: "+1d", want: time.Date(2025, 6, 16, 12, 0, 0, 0, time.UTC)},
		{input: "2w", want: time.Date(2025, 6, 29, 12, 0, 0, 0, time.UTC)},
		{input: "+3m", want: time.Date(2025, 9, 15, 12, 0, 0, 0, time.UTC)},
		{input: "1y", want: time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)},
		{input: "-1d", want: time.Date(2025, 6, 14, 12, 0, 0, 0, time.UTC)},
		{input: "+0d", want: now},
		{input: "+48h", want: time.Date(2025, 6, 17, 12, 0, 0, 0, time.UTC)},
		{input: "", wantErr: true},
		{input: "+1x", wantErr: true},
		{input: "+d", wantErr: true},
		{input: "1.5d", wantErr: true},
		{input: " +1d", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseCompactDuration(tt.input, now)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseCompactDuration(%q) = %v, want error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCompactDuration(%q) error: %v", tt.input, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseCompactDuration(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestIsCompactDuration(t *testing.T) {
	for input, want := range map[string]bool{
		"+6h":        true,
		"-1d":        true,
		"3m":         true,
		"":           false,
		"tomorrow":   false,
		"2025-01-15": false,
		"6h+":        false,
		"++1d":       false,
	} {
		if got := IsCompactDuration(input); got != want {
			t.Errorf("IsCompactDuration(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestParseCompactDurationCalendar(t *testing.T) {
	leap := time.Date(2024, 2, 28, 9, 0, 0, 0, time.UTC)
	got, err := ParseCompactDuration("+1d", leap)
	if err != nil {
		t.Fatal(err)
	}
	if want := time.Date(2024, 2, 29, 9, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("+1d from %v = %v, want %v", leap, got, want)
	}

	// Jan 31 + 1 month overflows into March.
	jan31 := time.Date(2025, 1, 31, 9, 0, 0, 0, time.UTC)
	got, err = ParseCompactDuration("+1m", jan31)
	if err != nil {
		t.Fatal(err)
	}
	if want := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("+1m from %v = %v, want %v", jan31, got, want)
	}
}

func TestParseCompactDurationKeepsLocation(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*60*60)
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, loc)
	got, err := ParseCompactDuration("+1w", now)
	if err != nil {
		t.Fatal(err)
	}
	if got.Location() != loc {
		t.Errorf("location = %v, want %v", got.Location(), loc)
	}
}
