package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/chris/sprout/internal/store"
)

// RecordRun stores the outcome of an advisor run. CreatedAt is kept as
// given (RFC 3339); an empty one is stamped with the current time.
func (d *DB) RecordRun(ctx context.Context, run store.Run) error {
	if run.CreatedAt == "" {
		run.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	_, err := d.conn.ExecContext(ctx,
		"INSERT INTO runs (id, tasks, summary, created_at) VALUES (?, ?, ?, ?)",
		run.ID, run.Tasks, nullStr(run.Summary), run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("recording run: %w", err)
	}
	return nil
}

// LastRun returns the most recent run, or nil if there has been none.
func (d *DB) LastRun(ctx context.Context) (*store.Run, error) {
	var r store.Run
	err := d.conn.QueryRowContext(ctx,
		"SELECT id, tasks, COALESCE(summary,''), created_at FROM runs ORDER BY created_at DESC, rowid DESC LIMIT 1",
	).Scan(&r.ID, &r.Tasks, &r.Summary, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting last run: %w", err)
	}
	return &r, nil
}
