package storage

import (
	"context"
	"errors"

	"github.com/goodtune/habitd/internal/habit"
)

// ErrNotFound is returned when a record is missing from storage.
var ErrNotFound = errors.New("storage: record not found")

// Store represents the root storage interface.
type Store interface {
	Close() error
	Habits() HabitStore
}

// HabitStore persists habits together with their logs.
//
// Implementations return copies: mutating a returned habit never changes
// stored state until it is passed back to Update.
type HabitStore interface {
	// Create assigns an ID when h has none, stamps CreatedAt/UpdatedAt and
	// stores the habit.
	Create(ctx context.Context, h habit.Habit) (*habit.Habit, error)
	// List returns every habit ordered by creation time, then ID.
	List(ctx context.Context) ([]habit.Habit, error)
	Get(ctx context.Context, id string) (*habit.Habit, error)
	// Update replaces a stored habit, logs included, and stamps UpdatedAt.
	// It returns ErrNotFound when no habit has h.ID.
	Update(ctx context.Context, h habit.Habit) error
	// Delete removes a habit and all of its logs.
	Delete(ctx context.Context, id string) error
}
