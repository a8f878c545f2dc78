package clock

import (
	"testing"
	"time"
)

func TestWeekKeys(t *testing.T) {
	tests := []struct {
		name string
		ref  time.Time
		want string
	}{
		{"monday", time.Date(2025, 1, 6, 9, 0, 0, 0, time.Local), "2025-01-06"},
		{"wednesday", time.Date(2025, 1, 8, 23, 59, 0, 0, time.Local), "2025-01-06"},
		{"sunday belongs to previous monday", time.Date(2025, 1, 12, 12, 0, 0, 0, time.Local), "2025-01-06"},
		{"across month boundary", time.Date(2025, 2, 1, 8, 0, 0, 0, time.Local), "2025-01-27"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keys := WeekKeys(tt.ref)
			if keys[0] != tt.want {
				t.Errorf("WeekKeys()[0] = %s, want %s", keys[0], tt.want)
			}
			last, err := ParseDateKey(keys[6])
			if err != nil {
				t.Fatalf("parse last key: %v", err)
			}
			if last.Weekday() != time.Sunday {
				t.Errorf("last key %s is %s, want Sunday", keys[6], last.Weekday())
			}
		})
	}
}

func TestTestClockAdvance(t *testing.T) {
	c := NewTestClock(time.Date(2025, 1, 1, 23, 59, 30, 0, time.Local))
	if got := Today(c); got != "2025-01-01" {
		t.Fatalf("Today() = %s, want 2025-01-01", got)
	}

	c.Advance(time.Minute)
	if got := Today(c); got != "2025-01-02" {
		t.Fatalf("Today() after advance = %s, want 2025-01-02", got)
	}
}
