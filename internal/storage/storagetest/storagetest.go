// Package storagetest holds the behaviour every storage.HabitStore backend
// must share. Backend tests call Run with a constructor for a fresh store.
package storagetest

import (
	"context"
	"errors"
	"testing"

	"github.com/goodtune/habitd/internal/habit"
	"github.com/goodtune/habitd/internal/storage"
)

// Run exercises store against the HabitStore contract.
func Run(t *testing.T, open func(t *testing.T) storage.Store) {
	t.Run("CreateAssignsIdentity", func(t *testing.T) { testCreate(t, open(t)) })
	t.Run("CreateKeepsGivenID", func(t *testing.T) { testCreateKeepsID(t, open(t)) })
	t.Run("GetMissing", func(t *testing.T) { testGetMissing(t, open(t)) })
	t.Run("UpdateRoundTrip", func(t *testing.T) { testUpdate(t, open(t)) })
	t.Run("UpdateMissing", func(t *testing.T) { testUpdateMissing(t, open(t)) })
	t.Run("DeleteCascades", func(t *testing.T) { testDelete(t, open(t)) })
	t.Run("ListOrdered", func(t *testing.T) { testList(t, open(t)) })
	t.Run("ReturnedCopiesAreDetached", func(t *testing.T) { testDetached(t, open(t)) })
}

func sample(name string) habit.Habit {
	return habit.Habit{
		Name:        name,
		Description: name + " every day",
		Frequency:   habit.FrequencyDaily,
		Unit:        habit.UnitPages,
		TargetValue: 20,
	}
}

func closeStore(t *testing.T, s storage.Store) {
	t.Helper()
	t.Cleanup(func() { _ = s.Close() })
}

func testCreate(t *testing.T, s storage.Store) {
	closeStore(t, s)
	ctx := context.Background()

	created, err := s.Habits().Create(ctx, sample("Read"))
	if err != nil {
		t.Fatalf("create habit: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected an assigned ID")
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Fatalf("expected timestamps, got %+v", created)
	}

	got, err := s.Habits().Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get habit: %v", err)
	}
	if got.Name != "Read" || got.Unit != habit.UnitPages || got.TargetValue != 20 || got.Frequency != habit.FrequencyDaily {
		t.Fatalf("stored habit = %+v", got)
	}
	if got.Description != "Read every day" {
		t.Fatalf("description = %q", got.Description)
	}
	if got.Streak != 0 || len(got.Logs) != 0 {
		t.Fatalf("new habit should start empty, got streak=%d logs=%v", got.Streak, got.Logs)
	}
}

func testCreateKeepsID(t *testing.T, s storage.Store) {
	closeStore(t, s)
	ctx := context.Background()

	h := sample("Journal")
	h.ID = "journal"
	h.Streak = 3
	created, err := s.Habits().Create(ctx, h)
	if err != nil {
		t.Fatalf("create habit: %v", err)
	}
	if created.ID != "journal" {
		t.Fatalf("ID = %q, want journal", created.ID)
	}

	got, err := s.Habits().Get(ctx, "journal")
	if err != nil {
		t.Fatalf("get habit: %v", err)
	}
	if got.Streak != 3 {
		t.Fatalf("streak = %d, want 3", got.Streak)
	}
}

func testGetMissing(t *testing.T, s storage.Store) {
	closeStore(t, s)

	_, err := s.Habits().Get(context.Background(), "nope")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func testUpdate(t *testing.T, s storage.Store) {
	closeStore(t, s)
	ctx := context.Background()

	created, err := s.Habits().Create(ctx, sample("Exercise"))
	if err != nil {
		t.Fatalf("create habit: %v", err)
	}

	created.Name = "Morning Exercise"
	created.Unit = habit.UnitMinutes
	created.TargetValue = 30
	created.Streak = 13
	created.Logs = habit.Logs{"2025-01-01": 30, "2024-12-31": 12.5, "2024-12-30": 0}
	if err := s.Habits().Update(ctx, *created); err != nil {
		t.Fatalf("update habit: %v", err)
	}

	got, err := s.Habits().Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get habit: %v", err)
	}
	if got.Name != "Morning Exercise" || got.Unit != habit.UnitMinutes || got.TargetValue != 30 || got.Streak != 13 {
		t.Fatalf("updated habit = %+v", got)
	}
	if len(got.Logs) != 3 || got.Logs.Get("2025-01-01") != 30 || got.Logs.Get("2024-12-31") != 12.5 {
		t.Fatalf("logs = %v", got.Logs)
	}
	if _, ok := got.Logs["2024-12-30"]; !ok {
		t.Fatalf("explicit zero entry was dropped: %v", got.Logs)
	}
	if !got.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("CreatedAt changed: %v -> %v", created.CreatedAt, got.CreatedAt)
	}
	if got.UpdatedAt.Before(created.UpdatedAt) {
		t.Fatalf("UpdatedAt went backwards")
	}

	// Replacing the log drops entries no longer present.
	got.Logs = habit.Logs{"2025-01-01": 10}
	if err := s.Habits().Update(ctx, *got); err != nil {
		t.Fatalf("second update: %v", err)
	}
	again, err := s.Habits().Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get habit: %v", err)
	}
	if len(again.Logs) != 1 || again.Logs.Get("2025-01-01") != 10 {
		t.Fatalf("logs after replace = %v", again.Logs)
	}
}

func testUpdateMissing(t *testing.T, s storage.Store) {
	closeStore(t, s)

	h := sample("Ghost")
	h.ID = "ghost"
	if err := s.Habits().Update(context.Background(), h); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.Habits().Get(context.Background(), "ghost"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("update of a missing habit created it: %v", err)
	}
}

func testDelete(t *testing.T, s storage.Store) {
	closeStore(t, s)
	ctx := context.Background()

	created, err := s.Habits().Create(ctx, sample("Meditate"))
	if err != nil {
		t.Fatalf("create habit: %v", err)
	}
	created.Logs = habit.Logs{"2025-01-01": 5}
	if err := s.Habits().Update(ctx, *created); err != nil {
		t.Fatalf("update habit: %v", err)
	}

	if err := s.Habits().Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete habit: %v", err)
	}
	if _, err := s.Habits().Get(ctx, created.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.Habits().Delete(ctx, created.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("second delete: expected ErrNotFound, got %v", err)
	}

	// A new habit reusing the ID starts without the old logs.
	h := sample("Meditate")
	h.ID = created.ID
	recreated, err := s.Habits().Create(ctx, h)
	if err != nil {
		t.Fatalf("recreate habit: %v", err)
	}
	if len(recreated.Logs) != 0 {
		t.Fatalf("logs survived delete: %v", recreated.Logs)
	}
	got, err := s.Habits().Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get recreated habit: %v", err)
	}
	if len(got.Logs) != 0 {
		t.Fatalf("logs survived delete: %v", got.Logs)
	}
}

func testList(t *testing.T, s storage.Store) {
	closeStore(t, s)
	ctx := context.Background()

	empty, err := s.Habits().List(ctx)
	if err != nil {
		t.Fatalf("list empty store: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected no habits, got %d", len(empty))
	}

	names := map[string]bool{"A": true, "B": true, "C": true}
	for name := range names {
		if _, err := s.Habits().Create(ctx, sample(name)); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}

	habits, err := s.Habits().List(ctx)
	if err != nil {
		t.Fatalf("list habits: %v", err)
	}
	if len(habits) != 3 {
		t.Fatalf("expected 3 habits, got %d", len(habits))
	}
	for i, h := range habits {
		if !names[h.Name] {
			t.Fatalf("unexpected habit %q", h.Name)
		}
		if i == 0 {
			continue
		}
		prev := habits[i-1]
		if h.CreatedAt.Before(prev.CreatedAt) || (h.CreatedAt.Equal(prev.CreatedAt) && h.ID < prev.ID) {
			t.Fatalf("habits out of order at %d: %v then %v", i, prev.CreatedAt, h.CreatedAt)
		}
	}
}

func testDetached(t *testing.T, s storage.Store) {
	closeStore(t, s)
	ctx := context.Background()

	created, err := s.Habits().Create(ctx, sample("Detached"))
	if err != nil {
		t.Fatalf("create habit: %v", err)
	}
	created.Logs = habit.Logs{"2025-01-01": 1}
	if err := s.Habits().Update(ctx, *created); err != nil {
		t.Fatalf("update habit: %v", err)
	}

	got, err := s.Habits().Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get habit: %v", err)
	}
	got.Logs["2025-01-01"] = 99
	got.Name = "Changed"

	again, err := s.Habits().Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get habit: %v", err)
	}
	if again.Logs.Get("2025-01-01") != 1 || again.Name != "Detached" {
		t.Fatalf("stored habit changed through a returned copy: %+v", again)
	}
}
