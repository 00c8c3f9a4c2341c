package db

import (
	"context"
	"fmt"

	"github.com/chris/sprout/internal/care"
)

// LoadHistory returns every care history entry in insertion order.
func (d *DB) LoadHistory(ctx context.Context) ([]care.HistoryEntry, error) {
	rows, err := d.conn.QueryContext(ctx, "SELECT date, plant, action, COALESCE(notes,'') FROM care_history ORDER BY id ASC")
	if err != nil {
		return nil, fmt.Errorf("listing care history: %w", err)
	}
	defer rows.Close()

	var out []care.HistoryEntry
	for rows.Next() {
		var e care.HistoryEntry
		var action string
		if err := rows.Scan(&e.Date, &e.Plant, &action, &e.Notes); err != nil {
			return nil, fmt.Errorf("scanning care history: %w", err)
		}
		e.Action = care.Action(action)
		out = append(out, e)
	}
	return out, rows.Err()
}

// AppendHistory inserts entries in order within one transaction.
func (d *DB) AppendHistory(ctx context.Context, entries []care.HistoryEntry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning history append: %w", err)
	}
	defer tx.Rollback()

	for _, e := range entries {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO care_history (date, plant, action, notes) VALUES (?, ?, ?, ?)",
			e.Date, e.Plant, string(e.Action), nullStr(e.Notes),
		)
		if err != nil {
			return fmt.Errorf("logging %s for %s: %w", e.Action, e.Plant, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing history append: %w", err)
	}
	return nil
}
