package storage

import (
	"sort"
	"time"

	"github.com/goodtune/habitd/internal/habit"
	"github.com/google/uuid"
)

// PrepareCreate fills in the fields a store owns on creation: a UUID when
// the ID is empty, both timestamps, and a non-nil log.
func PrepareCreate(h habit.Habit, now time.Time) habit.Habit {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	now = now.UTC()
	h.CreatedAt = now
	h.UpdatedAt = now
	if h.Streak < 0 {
		h.Streak = 0
	}
	h.Logs = h.Logs.Clone()
	return h
}

// SortHabits orders habits by creation time, breaking ties by ID.
func SortHabits(habits []habit.Habit) {
	sort.SliceStable(habits, func(i, j int) bool {
		if !habits[i].CreatedAt.Equal(habits[j].CreatedAt) {
			return habits[i].CreatedAt.Before(habits[j].CreatedAt)
		}
		return habits[i].ID < habits[j].ID
	})
}
