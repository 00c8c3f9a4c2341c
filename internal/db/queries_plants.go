package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/chris/sprout/internal/care"
)

const plantColumns = "name, environment, last_watered, last_fertilized, notes, status, light, humidity"

// LoadPlants returns the plant table in its stored order.
func (d *DB) LoadPlants(ctx context.Context) ([]care.Plant, error) {
	rows, err := d.conn.QueryContext(ctx, "SELECT "+plantColumns+" FROM plants ORDER BY position ASC")
	if err != nil {
		return nil, fmt.Errorf("listing plants: %w", err)
	}
	defer rows.Close()
	return scanPlants(rows)
}

// SavePlants replaces the whole plant table in one transaction.
func (d *DB) SavePlants(ctx context.Context, plants []care.Plant) error {
	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning plant save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM plants"); err != nil {
		return fmt.Errorf("clearing plants: %w", err)
	}
	for i, p := range plants {
		if err := insertPlant(ctx, tx, i, p); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing plant save: %w", err)
	}
	return nil
}

// UpsertPlant adds a plant to the end of the table, or replaces the row with
// the same name in place.
func (d *DB) UpsertPlant(ctx context.Context, p care.Plant) error {
	_, err := d.conn.ExecContext(ctx, `
		INSERT INTO plants (position, `+plantColumns+`)
		VALUES ((SELECT COALESCE(MAX(position), -1) + 1 FROM plants), ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			environment = excluded.environment,
			last_watered = excluded.last_watered,
			last_fertilized = excluded.last_fertilized,
			notes = excluded.notes,
			status = excluded.status,
			light = excluded.light,
			humidity = excluded.humidity`,
		p.Name, p.Environment, p.LastWatered, p.LastFertilized, p.Notes, p.Status.String(), p.Light, p.Humidity,
	)
	if err != nil {
		return fmt.Errorf("saving plant %q: %w", p.Name, err)
	}
	return nil
}

func insertPlant(ctx context.Context, tx *sql.Tx, position int, p care.Plant) error {
	_, err := tx.ExecContext(ctx,
		"INSERT INTO plants (position, "+plantColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		position, p.Name, p.Environment, p.LastWatered, p.LastFertilized, p.Notes, p.Status.String(), p.Light, p.Humidity,
	)
	if err != nil {
		return fmt.Errorf("inserting plant %q: %w", p.Name, err)
	}
	return nil
}

func scanPlants(rows *sql.Rows) ([]care.Plant, error) {
	var out []care.Plant
	for rows.Next() {
		var p care.Plant
		var status string
		if err := rows.Scan(&p.Name, &p.Environment, &p.LastWatered, &p.LastFertilized, &p.Notes, &status, &p.Light, &p.Humidity); err != nil {
			return nil, fmt.Errorf("scanning plant: %w", err)
		}
		p.Status = care.ParsePending(status)
		out = append(out, p)
	}
	return out, rows.Err()
}
