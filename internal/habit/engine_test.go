package habit

import (
	"testing"
	"time"

	"github.com/goodtune/habitd/internal/clock"
	"github.com/rs/zerolog"
)

func newTestEngine(t *testing.T) (*Engine, *clock.TestClock) {
	t.Helper()
	c := clock.NewTestClock(time.Date(2025, 1, 1, 9, 0, 0, 0, time.Local))
	return NewEngine(c, zerolog.Nop()), c
}

// commit stores a mutation back on the habit the way a store would.
func commit(h *Habit, m Mutation) {
	h.Logs = m.Logs
	h.Streak = m.Streak
}

func TestEngineLogValueCompletesToday(t *testing.T) {
	e, _ := newTestEngine(t)
	h := minutesHabit()

	commit(h, e.LogValue(h, e.Today(), 30))

	p := e.GetProgress(h)
	if p.Completion != 100 || !p.CompletedToday {
		t.Fatalf("progress = %+v, want 100%% completed", p)
	}
	if h.Streak != 13 {
		t.Fatalf("streak = %d, want 13", h.Streak)
	}
}

func TestEngineToggleRoundTrip(t *testing.T) {
	e, _ := newTestEngine(t)

	tests := []struct {
		name  string
		habit *Habit
	}{
		{"boolean", &Habit{ID: "b", Frequency: FrequencyDaily, Unit: UnitNone, Streak: 4, Logs: Logs{}}},
		{"measured", &Habit{ID: "m", Frequency: FrequencyDaily, Unit: UnitPages, TargetValue: 20, Streak: 8, Logs: Logs{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := tt.habit
			before := h.Streak

			commit(h, e.ToggleComplete(h, e.Today(), true))
			if h.Streak != before+1 {
				t.Fatalf("streak after toggle on = %d, want %d", h.Streak, before+1)
			}
			if p := e.GetProgress(h); p.Completion != 100 {
				t.Fatalf("completion after toggle on = %d, want 100", p.Completion)
			}

			commit(h, e.ToggleComplete(h, e.Today(), false))
			if h.Streak != before {
				t.Fatalf("streak after toggle off = %d, want %d", h.Streak, before)
			}
			if h.Logs.Get(e.Today()) != 0 {
				t.Fatalf("value after toggle off = %v, want 0", h.Logs.Get(e.Today()))
			}
		})
	}
}

func TestEngineToggleOnFillsMeasuredTarget(t *testing.T) {
	e, _ := newTestEngine(t)
	h := &Habit{ID: "m", Frequency: FrequencyDaily, Unit: UnitPages, TargetValue: 20, Streak: 3, Logs: Logs{}}

	// Partial progress is logged but does not complete the day yet.
	commit(h, e.LogValue(h, e.Today(), 5))
	if h.Streak != 3 {
		t.Fatalf("streak after partial log = %d, want 3", h.Streak)
	}

	commit(h, e.ToggleComplete(h, e.Today(), true))
	if got := h.Logs.Get(e.Today()); got != 20 {
		t.Fatalf("value after toggle on = %v, want the target 20", got)
	}
	if h.Streak != 4 {
		t.Fatalf("streak after toggle on = %d, want 4", h.Streak)
	}
}

func TestEngineToggleInvalidTargetIsNoop(t *testing.T) {
	e, _ := newTestEngine(t)
	h := &Habit{ID: "x", Frequency: FrequencyDaily, Unit: UnitPages, TargetValue: 0, Streak: 3, Logs: Logs{"2024-12-30": 2}}

	m := e.ToggleComplete(h, e.Today(), true)
	if m.Streak != 3 || m.Delta != 0 {
		t.Fatalf("toggle on unusable habit changed streak: %+v", m)
	}
	if _, ok := m.Logs[e.Today()]; ok {
		t.Fatalf("toggle on unusable habit wrote a value: %v", m.Logs)
	}
	if m.Logs.Get("2024-12-30") != 2 {
		t.Fatalf("existing logs lost: %v", m.Logs)
	}
}

func TestEngineIncrement(t *testing.T) {
	e, _ := newTestEngine(t)
	h := &Habit{ID: "read", Frequency: FrequencyDaily, Unit: UnitPages, TargetValue: 3, Logs: Logs{}}

	for i := 0; i < 3; i++ {
		commit(h, e.Increment(h, 1))
	}
	if h.Logs.Get(e.Today()) != 3 || h.Streak != 1 {
		t.Fatalf("after three increments value=%v streak=%d", h.Logs.Get(e.Today()), h.Streak)
	}

	commit(h, e.Increment(h, -1))
	if h.Streak != 0 {
		t.Fatalf("streak after decrement = %d, want 0", h.Streak)
	}

	commit(h, e.Increment(h, -10))
	if h.Logs.Get(e.Today()) != 0 {
		t.Fatalf("value went below zero: %v", h.Logs.Get(e.Today()))
	}
}

func TestEngineTodayFollowsClock(t *testing.T) {
	e, c := newTestEngine(t)
	h := minutesHabit()

	commit(h, e.LogValue(h, e.Today(), 30))
	c.Advance(24 * time.Hour)

	if e.Today() != "2025-01-02" {
		t.Fatalf("Today() = %s, want 2025-01-02", e.Today())
	}
	p := e.GetProgress(h)
	if p.Completion != 0 || p.CompletedToday {
		t.Fatalf("new day should start at 0%%, got %+v", p)
	}

	// Editing yesterday no longer affects the streak.
	commit(h, e.LogValue(h, "2025-01-01", 0))
	if h.Streak != 13 {
		t.Fatalf("streak = %d, want 13", h.Streak)
	}
}
