package tracker

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/goodtune/habitd/internal/clock"
	"github.com/goodtune/habitd/internal/habit"
	"github.com/goodtune/habitd/internal/storage"
	"github.com/rs/zerolog"
)

// Tracker is the habit service: it owns the repository and the engine and
// serialises mutations per habit so a read-modify-write of the log and
// streak is never interleaved with another write to the same habit.
type Tracker struct {
	store  storage.HabitStore
	engine *habit.Engine
	logger zerolog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	listenersMu sync.RWMutex
	listeners   []DeleteListener
}

// New creates a tracker over store.
func New(store storage.HabitStore, engine *habit.Engine, logger zerolog.Logger) *Tracker {
	return &Tracker{
		store:  store,
		engine: engine,
		logger: logger.With().Str("component", "tracker").Logger(),
		locks:  make(map[string]*sync.Mutex),
	}
}

// Engine returns the engine used for derived values.
func (t *Tracker) Engine() *habit.Engine {
	return t.engine
}

// OnDelete registers l to be told about deleted habits.
func (t *Tracker) OnDelete(l DeleteListener) {
	t.listenersMu.Lock()
	defer t.listenersMu.Unlock()
	t.listeners = append(t.listeners, l)
}

// Create validates and stores a new habit with an empty log and zero streak.
func (t *Tracker) Create(ctx context.Context, in CreateInput) (*habit.Habit, error) {
	h := habit.Habit{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Frequency:   in.Frequency,
		Unit:        in.Unit,
		TargetValue: in.TargetValue,
	}
	if h.Unit == "" {
		h.Unit = habit.UnitNone
	}
	if err := h.Validate(); err != nil {
		return nil, err
	}

	created, err := t.store.Create(ctx, h)
	if err != nil {
		return nil, fmt.Errorf("create habit: %w", err)
	}

	t.logger.Info().
		Str("habit_id", created.ID).
		Str("name", created.Name).
		Str("unit", string(created.Unit)).
		Msg("Created habit")
	return created, nil
}

// List returns every habit.
func (t *Tracker) List(ctx context.Context) ([]habit.Habit, error) {
	habits, err := t.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}
	return habits, nil
}

// Get returns one habit.
func (t *Tracker) Get(ctx context.Context, id string) (*habit.Habit, error) {
	h, err := t.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get habit %s: %w", id, err)
	}
	return h, nil
}

// Update changes the definition fields of a habit.
func (t *Tracker) Update(ctx context.Context, id string, in UpdateInput) (*habit.Habit, error) {
	unlock := t.lock(id)
	defer unlock()

	h, err := t.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		h.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		h.Description = strings.TrimSpace(*in.Description)
	}
	if in.Frequency != nil {
		h.Frequency = *in.Frequency
	}
	if in.Unit != nil {
		h.Unit = *in.Unit
	}
	if in.TargetValue != nil {
		h.TargetValue = *in.TargetValue
	}
	if err := h.Validate(); err != nil {
		return nil, err
	}

	if err := t.store.Update(ctx, *h); err != nil {
		return nil, fmt.Errorf("update habit %s: %w", id, err)
	}

	t.logger.Info().Str("habit_id", id).Msg("Updated habit")
	return t.Get(ctx, id)
}

// Delete removes a habit and its logs, then notifies delete listeners.
func (t *Tracker) Delete(ctx context.Context, id string) error {
	unlock := t.lock(id)
	err := t.store.Delete(ctx, id)
	unlock()
	if err != nil {
		return fmt.Errorf("delete habit %s: %w", id, err)
	}

	t.mu.Lock()
	delete(t.locks, id)
	t.mu.Unlock()

	// Listeners run without the habit lock held: a timer flushing into this
	// habit takes the same lock.
	t.listenersMu.RLock()
	listeners := append([]DeleteListener(nil), t.listeners...)
	t.listenersMu.RUnlock()
	for _, l := range listeners {
		l.HabitDeleted(id)
	}

	t.logger.Info().Str("habit_id", id).Msg("Deleted habit")
	return nil
}

// Seed inserts the sample habits when the store is empty and returns how
// many were created.
func (t *Tracker) Seed(ctx context.Context) (int, error) {
	existing, err := t.List(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		t.logger.Debug().Int("habits", len(existing)).Msg("Store not empty, skipping seed")
		return 0, nil
	}

	for i, h := range sampleHabits {
		if _, err := t.store.Create(ctx, h.Clone()); err != nil {
			return i, fmt.Errorf("seed habit %q: %w", h.Name, err)
		}
	}

	t.logger.Info().Int("habits", len(sampleHabits)).Msg("Seeded sample habits")
	return len(sampleHabits), nil
}

// LogValue records value for dateKey. An empty dateKey means today.
func (t *Tracker) LogValue(ctx context.Context, id, dateKey string, value float64) (*Result, error) {
	dateKey, err := t.resolveDate(dateKey)
	if err != nil {
		return nil, err
	}
	return t.mutate(ctx, id, func(h *habit.Habit) habit.Mutation {
		return t.engine.LogValue(h, dateKey, value)
	})
}

// Toggle marks dateKey done or not done. An empty dateKey means today.
func (t *Tracker) Toggle(ctx context.Context, id, dateKey string, completed bool) (*Result, error) {
	dateKey, err := t.resolveDate(dateKey)
	if err != nil {
		return nil, err
	}
	return t.mutate(ctx, id, func(h *habit.Habit) habit.Mutation {
		return t.engine.ToggleComplete(h, dateKey, completed)
	})
}

// Increment adds delta (which may be negative) to today's value.
func (t *Tracker) Increment(ctx context.Context, id string, delta float64) (*Result, error) {
	return t.mutate(ctx, id, func(h *habit.Habit) habit.Mutation {
		return t.engine.Increment(h, delta)
	})
}

// Flush stores a timer value against today. It implements timer.Flusher.
func (t *Tracker) Flush(ctx context.Context, id string, value float64) error {
	today := t.engine.Today()
	_, err := t.mutate(ctx, id, func(h *habit.Habit) habit.Mutation {
		return t.engine.LogFrom(h, today, value, habit.SourceTimer)
	})
	return err
}

// Progress returns the current progress of one habit.
func (t *Tracker) Progress(ctx context.Context, id string) (habit.Progress, error) {
	h, err := t.Get(ctx, id)
	if err != nil {
		return habit.Progress{}, err
	}
	return t.engine.GetProgress(h), nil
}

// ListProgress returns the current progress of every habit.
func (t *Tracker) ListProgress(ctx context.Context) ([]habit.Progress, error) {
	habits, err := t.List(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]habit.Progress, 0, len(habits))
	for i := range habits {
		views = append(views, t.engine.GetProgress(&habits[i]))
	}
	return views, nil
}

// Summary returns dashboard statistics over every habit.
func (t *Tracker) Summary(ctx context.Context) (habit.Summary, error) {
	views, err := t.ListProgress(ctx)
	if err != nil {
		return habit.Summary{}, err
	}
	return habit.Summarize(views), nil
}

func (t *Tracker) mutate(ctx context.Context, id string, apply func(h *habit.Habit) habit.Mutation) (*Result, error) {
	unlock := t.lock(id)
	defer unlock()

	h, err := t.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	m := apply(h)
	h.Logs = m.Logs
	h.Streak = m.Streak

	if err := t.store.Update(ctx, *h); err != nil {
		return nil, fmt.Errorf("save habit %s: %w", id, err)
	}

	return &Result{
		Habit:    *h,
		Progress: t.engine.GetProgress(h),
		Delta:    m.Delta,
	}, nil
}

func (t *Tracker) resolveDate(dateKey string) (string, error) {
	dateKey = strings.TrimSpace(dateKey)
	if dateKey == "" {
		return t.engine.Today(), nil
	}
	d, err := clock.ParseDateKey(dateKey)
	if err != nil {
		return "", fmt.Errorf("%w: %q (want YYYY-MM-DD)", ErrInvalidDate, dateKey)
	}
	return clock.DateKey(d), nil
}

func (t *Tracker) lock(id string) func() {
	t.mu.Lock()
	l, ok := t.locks[id]
	if !ok {
		l = &sync.Mutex{}
		t.locks[id] = l
	}
	t.mu.Unlock()

	l.Lock()
	return l.Unlock
}
