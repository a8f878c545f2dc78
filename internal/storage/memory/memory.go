// Package memory is a process-local habit store used for tests and the
// "memory" storage type.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/goodtune/habitd/internal/habit"
	"github.com/goodtune/habitd/internal/storage"
)

// Store implements storage.Store in memory.
type Store struct {
	mu     sync.RWMutex
	habits map[string]habit.Habit
	now    func() time.Time
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		habits: make(map[string]habit.Habit),
		now:    time.Now,
	}
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

// Habits returns the habit store.
func (s *Store) Habits() storage.HabitStore { return s }

// Create stores a new habit.
func (s *Store) Create(ctx context.Context, h habit.Habit) (*habit.Habit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	h = storage.PrepareCreate(h, s.now())
	if _, exists := s.habits[h.ID]; exists {
		return nil, fmt.Errorf("habit %s already exists", h.ID)
	}
	s.habits[h.ID] = h.Clone()

	out := h.Clone()
	return &out, nil
}

// List returns all habits in creation order.
func (s *Store) List(ctx context.Context) ([]habit.Habit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	habits := make([]habit.Habit, 0, len(s.habits))
	for _, h := range s.habits {
		habits = append(habits, h.Clone())
	}
	storage.SortHabits(habits)
	return habits, nil
}

// Get returns a copy of one habit.
func (s *Store) Get(ctx context.Context, id string) (*habit.Habit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.habits[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := h.Clone()
	return &out, nil
}

// Update replaces an existing habit.
func (s *Store) Update(ctx context.Context, h habit.Habit) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.habits[h.ID]
	if !ok {
		return storage.ErrNotFound
	}
	h.CreatedAt = existing.CreatedAt
	h.UpdatedAt = s.now().UTC()
	s.habits[h.ID] = h.Clone()
	return nil
}

// Delete removes a habit.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.habits[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.habits, id)
	return nil
}
