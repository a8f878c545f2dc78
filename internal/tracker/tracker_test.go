package tracker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/goodtune/habitd/internal/clock"
	"github.com/goodtune/habitd/internal/habit"
	"github.com/goodtune/habitd/internal/storage"
	"github.com/goodtune/habitd/internal/storage/memory"
	"github.com/goodtune/habitd/internal/timer"
	"github.com/rs/zerolog"
)

func newTestTracker(t *testing.T) (*Tracker, *clock.TestClock) {
	t.Helper()
	c := clock.NewTestClock(time.Date(2025, 1, 1, 7, 30, 0, 0, time.Local))
	return New(memory.New().Habits(), habit.NewEngine(c, zerolog.Nop()), zerolog.Nop()), c
}

func mustCreate(t *testing.T, tr *Tracker, in CreateInput) *habit.Habit {
	t.Helper()
	h, err := tr.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("create habit: %v", err)
	}
	return h
}

var exercise = CreateInput{Name: "Morning Exercise", Frequency: habit.FrequencyDaily, Unit: habit.UnitMinutes, TargetValue: 30}

func TestCreateValidates(t *testing.T) {
	tr, _ := newTestTracker(t)

	tests := []struct {
		name string
		in   CreateInput
	}{
		{"blank name", CreateInput{Name: "  ", Frequency: habit.FrequencyDaily, Unit: habit.UnitNone}},
		{"unknown frequency", CreateInput{Name: "x", Frequency: "monthly", Unit: habit.UnitNone}},
		{"unknown unit", CreateInput{Name: "x", Frequency: habit.FrequencyDaily, Unit: "furlongs"}},
		{"zero target", CreateInput{Name: "x", Frequency: habit.FrequencyDaily, Unit: habit.UnitPages}},
		{"negative target", CreateInput{Name: "x", Frequency: habit.FrequencyDaily, Unit: habit.UnitPages, TargetValue: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tr.Create(context.Background(), tt.in); !errors.Is(err, habit.ErrInvalidHabit) {
				t.Fatalf("expected ErrInvalidHabit, got %v", err)
			}
		})
	}

	h := mustCreate(t, tr, CreateInput{Name: " Meditate ", Frequency: habit.FrequencyDaily})
	if h.Name != "Meditate" || h.Unit != habit.UnitNone || h.Streak != 0 || len(h.Logs) != 0 {
		t.Fatalf("created habit = %+v", h)
	}
}

func TestLogValueCompletesToday(t *testing.T) {
	tr, _ := newTestTracker(t)
	h := mustCreate(t, tr, exercise)

	res, err := tr.LogValue(context.Background(), h.ID, "2025-01-01", 30)
	if err != nil {
		t.Fatalf("LogValue() error = %v", err)
	}
	if res.Progress.Completion != 100 || !res.Progress.CompletedToday {
		t.Fatalf("progress = %+v", res.Progress)
	}
	if res.Habit.Streak != 1 || res.Delta != 1 {
		t.Fatalf("streak = %d delta = %d, want 1/+1", res.Habit.Streak, res.Delta)
	}

	again, err := tr.LogValue(context.Background(), h.ID, "", 30)
	if err != nil {
		t.Fatalf("LogValue() error = %v", err)
	}
	if again.Habit.Streak != 1 {
		t.Fatalf("repeated write changed streak to %d", again.Habit.Streak)
	}

	stored, err := tr.Get(context.Background(), h.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if stored.Logs.Get("2025-01-01") != 30 || stored.Streak != 1 {
		t.Fatalf("stored habit = %+v", stored)
	}
}

func TestLogValueRejectsBadDate(t *testing.T) {
	tr, _ := newTestTracker(t)
	h := mustCreate(t, tr, exercise)

	if _, err := tr.LogValue(context.Background(), h.ID, "01/02/2025", 3); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

func TestMutationsOnMissingHabit(t *testing.T) {
	tr, _ := newTestTracker(t)
	ctx := context.Background()

	if _, err := tr.LogValue(ctx, "missing", "", 1); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("LogValue: expected ErrNotFound, got %v", err)
	}
	if _, err := tr.Toggle(ctx, "missing", "", true); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Toggle: expected ErrNotFound, got %v", err)
	}
	if err := tr.Delete(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Delete: expected ErrNotFound, got %v", err)
	}
}

func TestToggleRoundTripRestoresStreak(t *testing.T) {
	tr, _ := newTestTracker(t)
	ctx := context.Background()
	h := mustCreate(t, tr, CreateInput{Name: "Journal", Frequency: habit.FrequencyDaily, Unit: habit.UnitPages, TargetValue: 1})

	on, err := tr.Toggle(ctx, h.ID, "", true)
	if err != nil {
		t.Fatalf("Toggle(on) error = %v", err)
	}
	if on.Habit.Streak != 1 || on.Habit.Logs.Get("2025-01-01") != 1 {
		t.Fatalf("after toggle on: %+v", on.Habit)
	}

	off, err := tr.Toggle(ctx, h.ID, "", false)
	if err != nil {
		t.Fatalf("Toggle(off) error = %v", err)
	}
	if off.Habit.Streak != 0 {
		t.Fatalf("streak after toggle off = %d, want 0", off.Habit.Streak)
	}
}

func TestWeeklyCompletion(t *testing.T) {
	tr, c := newTestTracker(t)
	ctx := context.Background()
	h := mustCreate(t, tr, CreateInput{Name: "Read", Frequency: habit.FrequencyWeekly, Unit: habit.UnitPages, TargetValue: 100})

	for date, v := range map[string]float64{"2025-01-06": 40, "2025-01-08": 30, "2025-01-10": 30} {
		if _, err := tr.LogValue(ctx, h.ID, date, v); err != nil {
			t.Fatalf("LogValue(%s) error = %v", date, err)
		}
	}

	c.Set(time.Date(2025, 1, 12, 20, 0, 0, 0, time.Local))
	p, err := tr.Progress(ctx, h.ID)
	if err != nil {
		t.Fatalf("Progress() error = %v", err)
	}
	if p.Completion != 100 {
		t.Fatalf("weekly completion on Sunday = %d, want 100", p.Completion)
	}

	c.Set(time.Date(2025, 1, 13, 8, 0, 0, 0, time.Local))
	p, err = tr.Progress(ctx, h.ID)
	if err != nil {
		t.Fatalf("Progress() error = %v", err)
	}
	if p.Completion != 0 {
		t.Fatalf("new week completion = %d, want 0", p.Completion)
	}
}

func TestIncrementNeverNegative(t *testing.T) {
	tr, _ := newTestTracker(t)
	ctx := context.Background()
	h := mustCreate(t, tr, CreateInput{Name: "Pushups", Frequency: habit.FrequencyDaily, Unit: habit.UnitCount, TargetValue: 2})

	if _, err := tr.Increment(ctx, h.ID, 1); err != nil {
		t.Fatalf("Increment() error = %v", err)
	}
	res, err := tr.Increment(ctx, h.ID, 1)
	if err != nil {
		t.Fatalf("Increment() error = %v", err)
	}
	if res.Habit.Streak != 1 {
		t.Fatalf("streak = %d, want 1", res.Habit.Streak)
	}

	res, err = tr.Increment(ctx, h.ID, -5)
	if err != nil {
		t.Fatalf("Increment() error = %v", err)
	}
	if res.Habit.Logs.Get("2025-01-01") != 0 || res.Habit.Streak != 0 {
		t.Fatalf("after large decrement: %+v", res.Habit)
	}
}

func TestUpdateKeepsLogsAndStreak(t *testing.T) {
	tr, _ := newTestTracker(t)
	ctx := context.Background()
	h := mustCreate(t, tr, exercise)

	if _, err := tr.LogValue(ctx, h.ID, "", 30); err != nil {
		t.Fatalf("LogValue() error = %v", err)
	}

	name := "Evening Exercise"
	target := 45.0
	updated, err := tr.Update(ctx, h.ID, UpdateInput{Name: &name, TargetValue: &target})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Name != name || updated.TargetValue != 45 || updated.Frequency != habit.FrequencyDaily {
		t.Fatalf("updated habit = %+v", updated)
	}
	if updated.Streak != 1 || updated.Logs.Get("2025-01-01") != 30 {
		t.Fatalf("update touched logs or streak: %+v", updated)
	}

	zero := 0.0
	if _, err := tr.Update(ctx, h.ID, UpdateInput{TargetValue: &zero}); !errors.Is(err, habit.ErrInvalidHabit) {
		t.Fatalf("expected ErrInvalidHabit, got %v", err)
	}
}

func TestInvalidConfigSurfacesWarning(t *testing.T) {
	tr, _ := newTestTracker(t)
	ctx := context.Background()

	// Stored directly: Create refuses a zero target.
	h, err := tr.store.Create(ctx, habit.Habit{Name: "Broken", Frequency: habit.FrequencyDaily, Unit: habit.UnitPages})
	if err != nil {
		t.Fatalf("store create: %v", err)
	}

	p, err := tr.Progress(ctx, h.ID)
	if err != nil {
		t.Fatalf("Progress() error = %v", err)
	}
	if p.Completion != 0 || !errors.Is(p.Warning, habit.ErrInvalidHabitConfig) {
		t.Fatalf("progress = %+v", p)
	}

	res, err := tr.Toggle(ctx, h.ID, "", true)
	if err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}
	if res.Habit.Streak != 0 || len(res.Habit.Logs) != 0 {
		t.Fatalf("toggle on unusable habit changed it: %+v", res.Habit)
	}

	s, err := tr.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if s.Misconfigured != 1 {
		t.Fatalf("summary = %+v", s)
	}
}

func TestSeedOnlyIntoEmptyStore(t *testing.T) {
	tr, _ := newTestTracker(t)
	ctx := context.Background()

	n, err := tr.Seed(ctx)
	if err != nil {
		t.Fatalf("Seed() error = %v", err)
	}
	if n != 5 {
		t.Fatalf("seeded %d habits, want 5", n)
	}

	n, err = tr.Seed(ctx)
	if err != nil {
		t.Fatalf("second Seed() error = %v", err)
	}
	if n != 0 {
		t.Fatalf("second seed created %d habits", n)
	}

	s, err := tr.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if s.TotalHabits != 5 || s.LongestStreak != 15 || s.AverageCompletion != 0 {
		t.Fatalf("summary = %+v", s)
	}
}

func TestConcurrentIncrementsAreSerialised(t *testing.T) {
	tr, _ := newTestTracker(t)
	h := mustCreate(t, tr, CreateInput{Name: "Water", Frequency: habit.FrequencyDaily, Unit: habit.UnitTimes, TargetValue: 100})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := tr.Increment(context.Background(), h.ID, 1); err != nil {
				t.Errorf("Increment() error = %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := tr.Get(context.Background(), h.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Logs.Get("2025-01-01") != 50 {
		t.Fatalf("value = %v, want 50", got.Logs.Get("2025-01-01"))
	}
}

func manualTicker(ch chan time.Time) timer.TickerFunc {
	return func(time.Duration) (<-chan time.Time, func()) { return ch, func() {} }
}

func TestTimerFlushesThroughTracker(t *testing.T) {
	tr, c := newTestTracker(t)
	ctx := context.Background()
	h := mustCreate(t, tr, exercise)

	ticks := make(chan time.Time)
	acc := timer.New(tr, timer.Config{Clock: c, NewTicker: manualTicker(ticks)}, zerolog.Nop())
	defer acc.Close()
	tr.OnDelete(acc)

	if err := acc.Bind(h); err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	if _, err := acc.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	for i := 0; i < 90; i++ {
		ticks <- time.Time{}
	}
	if _, err := acc.Pause(ctx); err != nil {
		t.Fatalf("Pause() error = %v", err)
	}

	got, err := tr.Get(ctx, h.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Logs.Get("2025-01-01") != 1.5 {
		t.Fatalf("logged value = %v, want 1.5", got.Logs.Get("2025-01-01"))
	}

	if err := tr.Delete(ctx, h.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if s := acc.Snapshot(); s.Bound() || s.ElapsedSeconds != 0 {
		t.Fatalf("timer still bound after delete: %+v", s)
	}
}
