package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goodtune/habitd/internal/habit"
	"github.com/goodtune/habitd/internal/storage"
)

type habitStore struct {
	db  *sql.DB
	now func() time.Time
}

const habitColumns = `id, name, description, frequency, unit, target_value, streak, created_at, updated_at`

func (s *habitStore) Create(ctx context.Context, h habit.Habit) (*habit.Habit, error) {
	h = storage.PrepareCreate(h, s.now())

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO habits (`+habitColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			h.ID, h.Name, h.Description, string(h.Frequency), string(h.Unit), h.TargetValue, h.Streak,
			formatTime(h.CreatedAt), formatTime(h.UpdatedAt),
		)
		if err != nil {
			return fmt.Errorf("insert habit %s: %w", h.ID, err)
		}
		return insertLogs(ctx, tx, h.ID, h.Logs)
	})
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (s *habitStore) List(ctx context.Context) ([]habit.Habit, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+habitColumns+` FROM habits ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("query habits: %w", err)
	}
	defer func() { _ = rows.Close() }()

	habits := make([]habit.Habit, 0)
	index := make(map[string]int)
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, err
		}
		index[h.ID] = len(habits)
		habits = append(habits, *h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	_ = rows.Close()

	logRows, err := s.db.QueryContext(ctx, `SELECT habit_id, date, value FROM habit_logs`)
	if err != nil {
		return nil, fmt.Errorf("query habit logs: %w", err)
	}
	defer func() { _ = logRows.Close() }()

	for logRows.Next() {
		var id, date string
		var value float64
		if err := logRows.Scan(&id, &date, &value); err != nil {
			return nil, fmt.Errorf("scan habit log: %w", err)
		}
		if i, ok := index[id]; ok {
			habits[i].Logs[date] = value
		}
	}
	if err := logRows.Err(); err != nil {
		return nil, err
	}

	storage.SortHabits(habits)
	return habits, nil
}

func (s *habitStore) Get(ctx context.Context, id string) (*habit.Habit, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+habitColumns+` FROM habits WHERE id = ?`, id)
	h, err := scanHabit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT date, value FROM habit_logs WHERE habit_id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("query habit logs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var date string
		var value float64
		if err := rows.Scan(&date, &value); err != nil {
			return nil, fmt.Errorf("scan habit log: %w", err)
		}
		h.Logs[date] = value
	}
	return h, rows.Err()
}

func (s *habitStore) Update(ctx context.Context, h habit.Habit) error {
	h.UpdatedAt = s.now().UTC()

	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE habits SET name = ?, description = ?, frequency = ?, unit = ?, target_value = ?, streak = ?, updated_at = ?
			WHERE id = ?`,
			h.Name, h.Description, string(h.Frequency), string(h.Unit), h.TargetValue, h.Streak, formatTime(h.UpdatedAt), h.ID,
		)
		if err != nil {
			return fmt.Errorf("update habit %s: %w", h.ID, err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return storage.ErrNotFound
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM habit_logs WHERE habit_id = ?`, h.ID); err != nil {
			return fmt.Errorf("clear logs for %s: %w", h.ID, err)
		}
		return insertLogs(ctx, tx, h.ID, h.Logs)
	})
}

func (s *habitStore) Delete(ctx context.Context, id string) error {
	// habit_logs rows go with the habit through ON DELETE CASCADE
	res, err := s.db.ExecContext(ctx, `DELETE FROM habits WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete habit %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *habitStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func insertLogs(ctx context.Context, tx *sql.Tx, id string, logs habit.Logs) error {
	if len(logs) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO habit_logs (habit_id, date, value) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare log insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, date := range logs.Keys() {
		if _, err := stmt.ExecContext(ctx, id, date, logs[date]); err != nil {
			return fmt.Errorf("insert log %s/%s: %w", id, date, err)
		}
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanHabit(row scanner) (*habit.Habit, error) {
	var (
		h                    habit.Habit
		frequency, unit      string
		createdAt, updatedAt string
	)
	if err := row.Scan(&h.ID, &h.Name, &h.Description, &frequency, &unit, &h.TargetValue, &h.Streak, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan habit: %w", err)
	}

	var err error
	if h.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if h.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	h.Frequency = habit.Frequency(frequency)
	h.Unit = habit.Unit(unit)
	h.Logs = habit.Logs{}
	return &h, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
