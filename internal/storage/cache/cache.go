// Package cache puts an LRU read cache in front of any habit store.
package cache

import (
	"context"
	"fmt"
	"sync"

	"github.com/goodtune/habitd/internal/habit"
	"github.com/goodtune/habitd/internal/metrics"
	"github.com/goodtune/habitd/internal/storage"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Store wraps a storage.Store so Get is served from memory when possible.
// Every write goes to the backend first and then refreshes the cache.
type Store struct {
	backend storage.Store
	habits  *habitCache
}

// Wrap returns backend behind an LRU cache holding up to size habits.
func Wrap(backend storage.Store, size int) (*Store, error) {
	c, err := lru.New[string, habit.Habit](size)
	if err != nil {
		return nil, fmt.Errorf("create habit cache: %w", err)
	}
	return &Store{
		backend: backend,
		habits:  &habitCache{next: backend.Habits(), cache: c},
	}, nil
}

// Close closes the backend.
func (s *Store) Close() error {
	s.habits.cache.Purge()
	return s.backend.Close()
}

// Habits returns the cached habit store.
func (s *Store) Habits() storage.HabitStore { return s.habits }

type habitCache struct {
	next  storage.HabitStore
	cache *lru.Cache[string, habit.Habit]

	// gen counts invalidations. A read only fills the cache when no write
	// finished while it was talking to the backend.
	mu  sync.Mutex
	gen uint64
}

func (c *habitCache) generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

func (c *habitCache) fill(gen uint64, habits ...habit.Habit) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return
	}
	for _, h := range habits {
		c.cache.Add(h.ID, h.Clone())
	}
}

func (c *habitCache) invalidate(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.cache.Remove(id)
}

func (c *habitCache) Create(ctx context.Context, h habit.Habit) (*habit.Habit, error) {
	gen := c.generation()
	created, err := c.next.Create(ctx, h)
	if err != nil {
		return nil, err
	}
	c.fill(gen, *created)
	return created, nil
}

func (c *habitCache) List(ctx context.Context) ([]habit.Habit, error) {
	gen := c.generation()
	habits, err := c.next.List(ctx)
	if err != nil {
		return nil, err
	}
	c.fill(gen, habits...)
	return habits, nil
}

func (c *habitCache) Get(ctx context.Context, id string) (*habit.Habit, error) {
	if h, ok := c.cache.Get(id); ok {
		metrics.CacheHits.Inc()
		out := h.Clone()
		return &out, nil
	}
	metrics.CacheMisses.Inc()

	gen := c.generation()
	h, err := c.next.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	c.fill(gen, *h)
	return h, nil
}

// Update drops the entry rather than storing h, since the backend owns
// the timestamps.
func (c *habitCache) Update(ctx context.Context, h habit.Habit) error {
	err := c.next.Update(ctx, h)
	c.invalidate(h.ID)
	return err
}

func (c *habitCache) Delete(ctx context.Context, id string) error {
	err := c.next.Delete(ctx, id)
	c.invalidate(id)
	return err
}
