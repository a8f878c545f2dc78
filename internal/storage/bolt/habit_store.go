package bolt

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/goodtune/habitd/internal/habit"
	"github.com/goodtune/habitd/internal/storage"
	"go.etcd.io/bbolt"
)

type habitStore struct {
	store *Store
	now   func() time.Time
}

// habitRecord is the stored definition; logs live in their own bucket.
type habitRecord struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Frequency   habit.Frequency `json:"frequency"`
	Unit        habit.Unit      `json:"unit"`
	TargetValue float64         `json:"target_value"`
	Streak      int             `json:"streak"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func toRecord(h habit.Habit) habitRecord {
	return habitRecord{
		ID:          h.ID,
		Name:        h.Name,
		Description: h.Description,
		Frequency:   h.Frequency,
		Unit:        h.Unit,
		TargetValue: h.TargetValue,
		Streak:      h.Streak,
		CreatedAt:   h.CreatedAt,
		UpdatedAt:   h.UpdatedAt,
	}
}

func (r habitRecord) habit(logs habit.Logs) habit.Habit {
	return habit.Habit{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Frequency:   r.Frequency,
		Unit:        r.Unit,
		TargetValue: r.TargetValue,
		Streak:      r.Streak,
		Logs:        logs,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func (s *habitStore) Create(ctx context.Context, h habit.Habit) (*habit.Habit, error) {
	h = storage.PrepareCreate(h, s.now())
	err := s.store.update(func(tx *bbolt.Tx) error {
		if tx.Bucket([]byte(bucketHabits)).Get([]byte(h.ID)) != nil {
			return fmt.Errorf("habit %s already exists", h.ID)
		}
		if err := putBucketValue(ctx, tx, bucketHabits, h.ID, toRecord(h)); err != nil {
			return err
		}
		return writeLogs(tx, h.ID, h.Logs)
	})
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (s *habitStore) List(ctx context.Context) ([]habit.Habit, error) {
	var habits []habit.Habit
	err := s.store.view(func(tx *bbolt.Tx) error {
		records, err := listBucket[habitRecord](ctx, tx, bucketHabits)
		if err != nil {
			return err
		}
		habits = make([]habit.Habit, 0, len(records))
		for _, r := range records {
			logs, err := readLogs(tx, r.ID)
			if err != nil {
				return err
			}
			habits = append(habits, r.habit(logs))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	storage.SortHabits(habits)
	return habits, nil
}

func (s *habitStore) Get(ctx context.Context, id string) (*habit.Habit, error) {
	var out *habit.Habit
	err := s.store.view(func(tx *bbolt.Tx) error {
		r, err := getBucketValue[habitRecord](ctx, tx, bucketHabits, id)
		if err != nil {
			return err
		}
		logs, err := readLogs(tx, id)
		if err != nil {
			return err
		}
		h := r.habit(logs)
		out = &h
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *habitStore) Update(ctx context.Context, h habit.Habit) error {
	return s.store.update(func(tx *bbolt.Tx) error {
		existing, err := getBucketValue[habitRecord](ctx, tx, bucketHabits, h.ID)
		if err != nil {
			return err
		}
		h.CreatedAt = existing.CreatedAt
		h.UpdatedAt = s.now().UTC()
		if err := putBucketValue(ctx, tx, bucketHabits, h.ID, toRecord(h)); err != nil {
			return err
		}
		if err := dropLogs(tx, h.ID); err != nil {
			return err
		}
		return writeLogs(tx, h.ID, h.Logs)
	})
}

func (s *habitStore) Delete(ctx context.Context, id string) error {
	return s.store.update(func(tx *bbolt.Tx) error {
		if err := deleteBucketValue(ctx, tx, bucketHabits, id); err != nil {
			return err
		}
		return dropLogs(tx, id)
	})
}

func readLogs(tx *bbolt.Tx, id string) (habit.Logs, error) {
	logs := habit.Logs{}
	b := tx.Bucket([]byte(bucketLogs)).Bucket([]byte(id))
	if b == nil {
		return logs, nil
	}
	err := b.ForEach(func(k, v []byte) error {
		value, err := strconv.ParseFloat(string(v), 64)
		if err != nil {
			return fmt.Errorf("parse log %s/%s: %w", id, k, err)
		}
		logs[string(k)] = value
		return nil
	})
	return logs, err
}

func writeLogs(tx *bbolt.Tx, id string, logs habit.Logs) error {
	b, err := tx.Bucket([]byte(bucketLogs)).CreateBucketIfNotExists([]byte(id))
	if err != nil {
		return fmt.Errorf("create log bucket %s: %w", id, err)
	}
	for date, value := range logs {
		if err := b.Put([]byte(date), []byte(strconv.FormatFloat(value, 'f', -1, 64))); err != nil {
			return err
		}
	}
	return nil
}

func dropLogs(tx *bbolt.Tx, id string) error {
	err := tx.Bucket([]byte(bucketLogs)).DeleteBucket([]byte(id))
	if errors.Is(err, bbolt.ErrBucketNotFound) {
		return nil
	}
	return err
}
