package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the
// application expects.
const ExpectedSchemaVersion = 2

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS sessions (
					session_id TEXT PRIMARY KEY,
					state TEXT NOT NULL,
					attempt_count INTEGER NOT NULL DEFAULT 0,
					field_count INTEGER NOT NULL DEFAULT 0,
					output_path TEXT,
					created_at DATETIME NOT NULL,
					finished_at DATETIME
				)`,
				`CREATE INDEX idx_sessions_state ON sessions(state)`,

				`CREATE TABLE IF NOT EXISTS resolved_values (
					session_id TEXT NOT NULL,
					field_key TEXT NOT NULL,
					value TEXT NOT NULL,
					provenance TEXT NOT NULL,
					confidence REAL NOT NULL DEFAULT 0,
					PRIMARY KEY (session_id, field_key),
					FOREIGN KEY (session_id) REFERENCES sessions(session_id)
				)`,
			}
			for _, q := range queries {
				if _, err := tx.Exec(q); err != nil {
					return fmt.Errorf("migration 1 failed: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Validation issues",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`CREATE TABLE IF NOT EXISTS validation_issues (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				session_id TEXT NOT NULL,
				position INTEGER NOT NULL,
				field_keys TEXT,
				severity TEXT NOT NULL,
				description TEXT NOT NULL,
				FOREIGN KEY (session_id) REFERENCES sessions(session_id)
			)`)
			if err != nil {
				return fmt.Errorf("migration 2 failed: %w", err)
			}
			return nil
		},
	},
}

// Migrate brings the database schema up to the expected version.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		description TEXT,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	var current int
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}

		tx, err := s.beginTx(ctx)
		if err != nil {
			return err
		}

		if err := m.Up(tx); err != nil {
			_ = tx.Rollback()
			return err
		}

		if _, err := tx.Exec(`INSERT INTO schema_migrations (version, description) VALUES (?, ?)`,
			m.Version, m.Description); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", m.Version, err)
		}

		slog.Info("Applied migration", "version", m.Version, "description", m.Description)
	}

	return nil
}
