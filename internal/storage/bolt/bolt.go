package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/goodtune/habitd/internal/storage"
	"go.etcd.io/bbolt"
)

const (
	bucketHabits = "habits"
	// bucketLogs holds one nested bucket per habit ID, keyed by date.
	bucketLogs = "habit_logs"
)

// lockTimeout bounds the wait for another process's file lock.
const lockTimeout = 2 * time.Second

// Store implements the storage.Store interface using bbolt.
//
// bbolt holds an exclusive file lock while a database is open, so the file
// is opened for each transaction and closed again. Long-running commands
// such as `habitd serve` and `habitd timer` then share the file with
// short-lived ones instead of locking them out.
type Store struct {
	path string
	now  func() time.Time

	mu     sync.Mutex
	closed bool
}

// Open opens a BoltDB-backed store, creating the file and its buckets.
func Open(path string) (*Store, error) {
	if err := storage.EnsureParentDir(path); err != nil {
		return nil, err
	}

	store := &Store{path: path, now: time.Now}
	err := store.update(func(tx *bbolt.Tx) error {
		for _, name := range []string{bucketHabits, bucketLogs} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("create bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return store, nil
}

func (s *Store) view(fn func(tx *bbolt.Tx) error) error {
	return s.withDB(true, func(db *bbolt.DB) error { return db.View(fn) })
}

func (s *Store) update(fn func(tx *bbolt.Tx) error) error {
	return s.withDB(false, func(db *bbolt.DB) error { return db.Update(fn) })
}

// withDB opens the database for one operation. Read-only opens take a
// shared lock, so concurrent readers in other processes do not wait.
func (s *Store) withDB(readOnly bool, fn func(db *bbolt.DB) error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return bbolt.ErrDatabaseNotOpen
	}

	db, err := bbolt.Open(s.path, 0600, &bbolt.Options{Timeout: lockTimeout, ReadOnly: readOnly})
	if err != nil {
		return fmt.Errorf("open bolt db: %w", err)
	}
	defer func() {
		if cerr := db.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close bolt db: %w", cerr)
		}
	}()

	return fn(db)
}

// Close releases the store. The file is not held between operations.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Habits returns the habit store.
func (s *Store) Habits() storage.HabitStore { return &habitStore{store: s, now: s.now} }

func marshal(value any) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("marshal value: %w", err)
	}
	return data, nil
}

func unmarshal(data []byte, out any) error {
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("unmarshal value: %w", err)
	}
	return nil
}

func listBucket[T any](ctx context.Context, tx *bbolt.Tx, bucket string) ([]T, error) {
	items := make([]T, 0)
	b := tx.Bucket([]byte(bucket))
	if b == nil {
		return items, nil
	}
	err := b.ForEach(func(_, v []byte) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var item T
		if err := unmarshal(v, &item); err != nil {
			return err
		}
		items = append(items, item)
		return nil
	})
	return items, err
}

func getBucketValue[T any](ctx context.Context, tx *bbolt.Tx, bucket string, key string) (*T, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	b := tx.Bucket([]byte(bucket))
	if b == nil {
		return nil, storage.ErrNotFound
	}
	value := b.Get([]byte(key))
	if value == nil {
		return nil, storage.ErrNotFound
	}
	var result T
	if err := unmarshal(value, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func putBucketValue(ctx context.Context, tx *bbolt.Tx, bucket string, key string, value any) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	data, err := marshal(value)
	if err != nil {
		return err
	}
	b := tx.Bucket([]byte(bucket))
	if b == nil {
		return fmt.Errorf("bucket missing: %s", bucket)
	}
	return b.Put([]byte(key), data)
}

func deleteBucketValue(ctx context.Context, tx *bbolt.Tx, bucket string, key string) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	b := tx.Bucket([]byte(bucket))
	if b == nil {
		return storage.ErrNotFound
	}
	if b.Get([]byte(key)) == nil {
		return storage.ErrNotFound
	}
	return b.Delete([]byte(key))
}
