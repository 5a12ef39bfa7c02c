package utils

import (
	"testing"
	"time"
)

func TestLoadLocation(t *testing.T) {
	tests := []struct {
		name     string
		timezone string
		wantErr  bool
	}{
		{name: "empty is local", timezone: ""},
		{name: "Local", timezone: "Local"},
		{name: "UTC", timezone: "UTC"},
		{name: "IANA name", timezone: "America/New_York"},
		{name: "invalid", timezone: "Not/AZone", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := LoadLocation(tt.timezone)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %q", tt.timezone)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if loc == nil {
				t.Error("location is nil")
			}
		})
	}

	if !ValidateTimezone("UTC") || ValidateTimezone("Nope/Nope") {
		t.Error("ValidateTimezone returned unexpected results")
	}
}

func TestStartOfDayAndDayKey(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	// 2024-03-10 03:30 UTC is still 2024-03-09 in New York.
	ts := time.Date(2024, 3, 10, 3, 30, 0, 0, time.UTC)
	if got := DayKey(ts, loc); got != "2024-03-09" {
		t.Errorf("DayKey = %s, want 2024-03-09", got)
	}

	start := StartOfDay(ts, loc)
	if start.Hour() != 0 || start.Day() != 9 || start.Location() != loc {
		t.Errorf("unexpected start of day %v", start)
	}

	// DST starts on 2024-03-10 in New York; the next midnight is 23h later.
	next := AddDays(start, 1)
	if next.Day() != 10 || next.Hour() != 0 {
		t.Errorf("AddDays across DST = %v", next)
	}
	if DaysBetween(start, AddDays(start, 3), loc) != 3 {
		t.Error("DaysBetween across DST should be 3")
	}
}

func TestMondayIndex(t *testing.T) {
	if MondayIndex(time.Monday) != 0 || MondayIndex(time.Sunday) != 6 || MondayIndex(time.Wednesday) != 2 {
		t.Error("MondayIndex returned unexpected columns")
	}
}

func TestTimestampRoundTrip(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 600, time.FixedZone("X", 3600))
	s := FormatTimestamp(ts)
	if s != "2024-01-02T02:04:05.000000600Z" {
		t.Errorf("FormatTimestamp = %s", s)
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		t.Fatalf("ParseTimestamp: %v", err)
	}
	if !parsed.Equal(ts) {
		t.Errorf("round trip mismatch: %v vs %v", parsed, ts)
	}
	if _, err := ParseTimestamp("2024-01-02T02:04:05Z"); err != nil {
		t.Errorf("RFC3339 input should parse: %v", err)
	}

	// Fixed width keeps lexical order chronological.
	a := FormatTimestamp(time.Date(2024, 1, 1, 0, 0, 5, 0, time.UTC))
	b := FormatTimestamp(time.Date(2024, 1, 1, 0, 0, 5, 500, time.UTC))
	if !(a < b) {
		t.Errorf("expected %s < %s", a, b)
	}
}
