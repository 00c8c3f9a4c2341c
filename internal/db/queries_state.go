package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const lastSyncKey = "last_sync"

func (d *DB) getState(ctx context.Context, key string) (string, error) {
	var value string
	err := d.conn.QueryRowContext(ctx, "SELECT value FROM state WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("getting state %q: %w", key, err)
	}
	return value, nil
}

func (d *DB) setState(ctx context.Context, key, value string) error {
	_, err := d.conn.ExecContext(ctx,
		"INSERT INTO state (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	if err != nil {
		return fmt.Errorf("setting state %q: %w", key, err)
	}
	return nil
}

// LastSync returns when replies were last reconciled, or the zero time.
func (d *DB) LastSync(ctx context.Context) (time.Time, error) {
	v, err := d.getState(ctx, lastSyncKey)
	if err != nil || v == "" {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing last sync %q: %w", v, err)
	}
	return t, nil
}

func (d *DB) SetLastSync(ctx context.Context, t time.Time) error {
	return d.setState(ctx, lastSyncKey, t.UTC().Format(time.RFC3339Nano))
}
