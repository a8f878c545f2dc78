package habit

import (
	"reflect"
	"testing"
	"time"
)

func TestLogsWithLeavesOriginal(t *testing.T) {
	orig := Logs{"2025-01-01": 5}
	next := orig.With("2025-01-01", 9)

	if orig.Get("2025-01-01") != 5 {
		t.Fatalf("original changed to %v", orig.Get("2025-01-01"))
	}
	if next.Get("2025-01-01") != 9 {
		t.Fatalf("With() value = %v, want 9", next.Get("2025-01-01"))
	}
	if got := next.With("2025-01-02", -3).Get("2025-01-02"); got != 0 {
		t.Fatalf("negative value stored as %v, want 0", got)
	}
}

func TestLogsSumRange(t *testing.T) {
	logs := Logs{
		"2025-01-30": 1,
		"2025-01-31": 2,
		"2025-02-01": 4,
		"2025-02-02": 8,
		"2025-02-03": 16,
	}

	from := time.Date(2025, 1, 31, 18, 0, 0, 0, time.Local)
	to := time.Date(2025, 2, 2, 6, 0, 0, 0, time.Local)
	if got := logs.SumRange(from, to); got != 14 {
		t.Fatalf("SumRange() = %v, want 14", got)
	}
	if got := logs.SumRange(to, from); got != 0 {
		t.Fatalf("SumRange() with reversed bounds = %v, want 0", got)
	}
}

func TestLogsKeysAndClone(t *testing.T) {
	logs := Logs{"2025-01-03": 1, "2025-01-01": 1, "2024-12-31": 1}
	want := []string{"2024-12-31", "2025-01-01", "2025-01-03"}
	if got := logs.Keys(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Keys() = %v, want %v", got, want)
	}

	var empty Logs
	if c := empty.Clone(); c == nil || len(c) != 0 {
		t.Fatalf("Clone() of nil = %#v, want empty map", c)
	}
}
