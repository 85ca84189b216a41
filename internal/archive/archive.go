// Package archive keeps a long-term SQLite record of execution
// metrics evicted from the bounded active store, so the FIFO cap can
// stay small without discarding history.
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/thiagobutignon/spec-kit-clean-archicteture-sub001/internal/learning"
)

// Archive is an append-only metric archive backed by SQLite.
type Archive struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens or creates the archive database at path.
func Open(path string, logger *slog.Logger) (*Archive, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("archive: open db: %w", err)
	}
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		db.Close()
		return nil, fmt.Errorf("archive: wal mode: %w", err)
	}

	a := &Archive{db: db, logger: logger.With("component", "archive")}
	if err := a.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("archive: migrate: %w", err)
	}
	return a, nil
}

func (a *Archive) migrate() error {
	_, err := a.db.Exec(`CREATE TABLE IF NOT EXISTS executions (
		id            TEXT PRIMARY KEY,
		step_id       TEXT NOT NULL,
		step_type     TEXT NOT NULL,
		success       INTEGER NOT NULL,
		duration_ms   INTEGER NOT NULL,
		error_type    TEXT NOT NULL DEFAULT '',
		error_excerpt TEXT NOT NULL DEFAULT '',
		content_hash  TEXT NOT NULL DEFAULT '',
		created_at    TEXT NOT NULL
	)`)
	if err != nil {
		return err
	}
	_, err = a.db.Exec(`CREATE INDEX IF NOT EXISTS idx_executions_step_type ON executions(step_type)`)
	return err
}

// Insert archives a batch of evicted metrics in one transaction.
// Re-inserting an already archived ID is a no-op.
func (a *Archive) Insert(ctx context.Context, metrics []learning.ExecutionMetric) error {
	if len(metrics) == 0 {
		return nil
	}
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("archive: begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO executions
		(id, step_id, step_type, success, duration_ms, error_type, error_excerpt, content_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("archive: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, m := range metrics {
		success := 0
		if m.Success {
			success = 1
		}
		if _, err := stmt.ExecContext(ctx,
			m.ID, m.StepID, m.StepType, success, m.DurationMs,
			m.ErrorType, m.ErrorExcerpt, m.ContentHash,
			m.CreatedAt.UTC().Format(time.RFC3339Nano),
		); err != nil {
			return fmt.Errorf("archive: insert metric %s: %w", m.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("archive: commit: %w", err)
	}
	a.logger.Debug("metrics archived", "count", len(metrics))
	return nil
}

// Count returns the number of archived metrics.
func (a *Archive) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := a.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM executions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("archive: count: %w", err)
	}
	return n, nil
}

// CountByErrorType returns archived failure counts per error type.
func (a *Archive) CountByErrorType(ctx context.Context) (map[string]int64, error) {
	rows, err := a.db.QueryContext(ctx,
		`SELECT error_type, COUNT(*) FROM executions WHERE success = 0 GROUP BY error_type`)
	if err != nil {
		return nil, fmt.Errorf("archive: count by error type: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var errorType string
		var n int64
		if err := rows.Scan(&errorType, &n); err != nil {
			return nil, fmt.Errorf("archive: scan row: %w", err)
		}
		counts[errorType] = n
	}
	return counts, rows.Err()
}

// Close closes the underlying database.
func (a *Archive) Close() error {
	return a.db.Close()
}
