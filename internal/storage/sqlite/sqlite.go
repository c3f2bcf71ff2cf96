// Package sqlite stores polled mower status in a local SQLite database
// so the history command can show recent samples without the cloud.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Juhni/RoopeRobotti/internal/telemetry"
)

// HistoryStore implements telemetry.Sink backed by SQLite.
type HistoryStore struct {
	db *sql.DB
}

// New opens (and if needed creates) the history database at dbPath.
func New(dbPath string) (*HistoryStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &HistoryStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// migrate creates the database schema
func (s *HistoryStore) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS mower_status (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			mower_id TEXT NOT NULL,
			name TEXT NOT NULL,
			recorded_at DATETIME NOT NULL,
			battery_percent INTEGER NOT NULL,
			activity TEXT NOT NULL,
			activity_code INTEGER NOT NULL,
			state TEXT NOT NULL,
			state_code INTEGER NOT NULL,
			mode TEXT NOT NULL,
			mode_code INTEGER NOT NULL,
			latitude REAL,
			longitude REAL,
			cutting_height INTEGER NOT NULL,
			connected INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_mower_status_mower_time
			ON mower_status(mower_id, recorded_at);
		CREATE INDEX IF NOT EXISTS idx_mower_status_name
			ON mower_status(name);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Write stores one snapshot.
func (s *HistoryStore) Write(ctx context.Context, snap telemetry.Snapshot) error {
	var lat, lng sql.NullFloat64
	if snap.HasPosition {
		lat = sql.NullFloat64{Float64: snap.Latitude, Valid: true}
		lng = sql.NullFloat64{Float64: snap.Longitude, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO mower_status (
			mower_id, name, recorded_at, battery_percent,
			activity, activity_code, state, state_code, mode, mode_code,
			latitude, longitude, cutting_height, connected
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, snap.MowerID, snap.Name, snap.Time.UTC(), snap.BatteryPercent,
		snap.Activity, snap.ActivityCode, snap.State, snap.StateCode, snap.Mode, snap.ModeCode,
		lat, lng, snap.CuttingHeight, snap.Connected)

	return err
}

// RecentByID returns stored snapshots for one mower id since the given
// time, newest first.
func (s *HistoryStore) RecentByID(ctx context.Context, mowerID string, since time.Time) ([]telemetry.Snapshot, error) {
	return s.recent(ctx, "mower_id", mowerID, since)
}

// RecentByName returns stored snapshots for one mower name since the
// given time, newest first.
func (s *HistoryStore) RecentByName(ctx context.Context, name string, since time.Time) ([]telemetry.Snapshot, error) {
	return s.recent(ctx, "name", name, since)
}

func (s *HistoryStore) recent(ctx context.Context, column, value string, since time.Time) ([]telemetry.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT mower_id, name, recorded_at, battery_percent,
			activity, activity_code, state, state_code, mode, mode_code,
			latitude, longitude, cutting_height, connected
		FROM mower_status
		WHERE `+column+` = ? AND recorded_at >= ?
		ORDER BY recorded_at DESC
	`, value, since.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []telemetry.Snapshot
	for rows.Next() {
		var snap telemetry.Snapshot
		var lat, lng sql.NullFloat64
		if err := rows.Scan(&snap.MowerID, &snap.Name, &snap.Time, &snap.BatteryPercent,
			&snap.Activity, &snap.ActivityCode, &snap.State, &snap.StateCode, &snap.Mode, &snap.ModeCode,
			&lat, &lng, &snap.CuttingHeight, &snap.Connected); err != nil {
			return nil, err
		}
		if lat.Valid && lng.Valid {
			snap.HasPosition = true
			snap.Latitude = lat.Float64
			snap.Longitude = lng.Float64
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

// Close closes the database connection.
func (s *HistoryStore) Close() error {
	return s.db.Close()
}
