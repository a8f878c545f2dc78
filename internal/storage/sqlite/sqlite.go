// Package sqlite stores habits in a SQLite database with one row per habit
// and one row per logged day.
package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/goodtune/habitd/internal/storage"
	_ "modernc.org/sqlite"
)

// Store implements the storage.Store interface using SQLite
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open creates a new database connection and runs migrations
func Open(dbPath string) (*Store, error) {
	if err := storage.EnsureParentDir(dbPath); err != nil {
		return nil, err
	}

	dsn := dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite limitation
	db.SetMaxIdleConns(1)

	// Run migrations
	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Habits returns the habit store
func (s *Store) Habits() storage.HabitStore {
	return &habitStore{db: s.db, now: s.now}
}

// runMigrations applies all database migrations
func runMigrations(db *sql.DB) error {
	// Create migrations table
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS migrations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			version INTEGER NOT NULL UNIQUE,
			applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM migrations").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get current migration version: %w", err)
	}

	// Apply migrations in order
	for i, migration := range migrations {
		version := i + 1
		if version <= currentVersion {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %d: %w", version, err)
		}

		if _, err := tx.Exec(migration); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to execute migration %d: %w", version, err)
		}

		if _, err := tx.Exec("INSERT INTO migrations (version) VALUES (?)", version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", version, err)
		}
	}

	return nil
}

// migrations are applied in slice order; version N is migrations[N-1].
var migrations = []string{
	migration001Habits,
	migration002HabitLogs,
}

// Migration schemas
const migration001Habits = `
CREATE TABLE IF NOT EXISTS habits (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	frequency TEXT NOT NULL, -- daily or weekly
	unit TEXT NOT NULL, -- minutes, hours, pages, count, times or none
	target_value REAL NOT NULL DEFAULT 0,
	streak INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL, -- RFC3339Nano
	updated_at TEXT NOT NULL
);

CREATE INDEX idx_habits_created ON habits(created_at);
`

const migration002HabitLogs = `
CREATE TABLE IF NOT EXISTS habit_logs (
	habit_id TEXT NOT NULL,
	date TEXT NOT NULL, -- YYYY-MM-DD
	value REAL NOT NULL DEFAULT 0,
	PRIMARY KEY (habit_id, date),
	FOREIGN KEY (habit_id) REFERENCES habits(id) ON DELETE CASCADE
);
`
