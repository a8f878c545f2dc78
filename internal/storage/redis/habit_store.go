package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/goodtune/habitd/internal/habit"
	"github.com/goodtune/habitd/internal/storage"
	"github.com/redis/go-redis/v9"
)

type habitStore struct {
	client *redis.Client
	prefix string
	save   *redis.Script
	remove *redis.Script
	now    func() time.Time
}

func newHabitStore(client *redis.Client, prefix string) *habitStore {
	return &habitStore{
		client: client,
		prefix: prefix,
		save:   redis.NewScript(saveHabitScript),
		remove: redis.NewScript(deleteHabitScript),
		now:    time.Now,
	}
}

func (s *habitStore) habitKey(id string) string {
	return fmt.Sprintf("%s:habit:%s", s.prefix, id)
}

func (s *habitStore) logsKey(id string) string {
	return fmt.Sprintf("%s:habit:%s:logs", s.prefix, id)
}

func (s *habitStore) indexKey() string {
	return s.prefix + ":habits"
}

func (s *habitStore) keys(id string) []string {
	return []string{s.habitKey(id), s.logsKey(id), s.indexKey()}
}

// Create stores a new habit
func (s *habitStore) Create(ctx context.Context, h habit.Habit) (*habit.Habit, error) {
	h = storage.PrepareCreate(h, s.now())

	ok, err := s.save.Run(ctx, s.client, s.keys(h.ID), saveArgs("create", h)...).Int()
	if err != nil {
		return nil, fmt.Errorf("save habit %s: %w", h.ID, err)
	}
	if ok == 0 {
		return nil, fmt.Errorf("habit %s already exists", h.ID)
	}
	return &h, nil
}

// List returns all habits in creation order
func (s *habitStore) List(ctx context.Context) ([]habit.Habit, error) {
	ids, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		return []habit.Habit{}, nil
	}

	// Use pipeline for efficient batch retrieval
	pipe := s.client.Pipeline()
	habitCmds := make([]*redis.MapStringStringCmd, len(ids))
	logCmds := make([]*redis.MapStringStringCmd, len(ids))

	for i, id := range ids {
		habitCmds[i] = pipe.HGetAll(ctx, s.habitKey(id))
		logCmds[i] = pipe.HGetAll(ctx, s.logsKey(id))
	}

	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, err
	}

	habits := make([]habit.Habit, 0, len(ids))
	for i := range ids {
		data, err := habitCmds[i].Result()
		if err != nil || len(data) == 0 {
			continue
		}
		logData, err := logCmds[i].Result()
		if err != nil {
			return nil, err
		}
		h, err := parseHabit(data, logData)
		if err != nil {
			return nil, err
		}
		habits = append(habits, *h)
	}

	storage.SortHabits(habits)
	return habits, nil
}

// Get retrieves a habit by ID
func (s *habitStore) Get(ctx context.Context, id string) (*habit.Habit, error) {
	pipe := s.client.Pipeline()
	habitCmd := pipe.HGetAll(ctx, s.habitKey(id))
	logCmd := pipe.HGetAll(ctx, s.logsKey(id))
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, err
	}

	data, err := habitCmd.Result()
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, storage.ErrNotFound
	}

	logData, err := logCmd.Result()
	if err != nil {
		return nil, err
	}
	return parseHabit(data, logData)
}

// Update replaces an existing habit and its logs
func (s *habitStore) Update(ctx context.Context, h habit.Habit) error {
	h.UpdatedAt = s.now().UTC()

	ok, err := s.save.Run(ctx, s.client, s.keys(h.ID), saveArgs("update", h)...).Int()
	if err != nil {
		return fmt.Errorf("save habit %s: %w", h.ID, err)
	}
	if ok == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Delete removes a habit and its logs
func (s *habitStore) Delete(ctx context.Context, id string) error {
	ok, err := s.remove.Run(ctx, s.client, s.keys(id), id).Int()
	if err != nil {
		return fmt.Errorf("delete habit %s: %w", id, err)
	}
	if ok == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func saveArgs(mode string, h habit.Habit) []interface{} {
	args := []interface{}{
		mode,
		h.ID,
		h.Name,
		h.Description,
		string(h.Frequency),
		string(h.Unit),
		formatFloat(h.TargetValue),
		h.Streak,
		h.CreatedAt.Format(time.RFC3339Nano),
		h.UpdatedAt.Format(time.RFC3339Nano),
		h.CreatedAt.UnixMilli(),
	}
	for _, date := range h.Logs.Keys() {
		args = append(args, date, formatFloat(h.Logs[date]))
	}
	return args
}
