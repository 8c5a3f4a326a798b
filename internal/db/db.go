// Package db stores everything the monitoring session accepts — decoded
// telemetry samples and the raw wire lines they came from — in a local
// sqlite database for later review.
package db

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/wycontir/rocketviewer/internal/telemetry"
)

// DB wraps the sqlite handle and implements monitor.Recorder.
type DB struct {
	*sql.DB
}

// New opens (or creates) the sqlite database at path and brings its schema
// up to date.
func New(path string) (*DB, error) {
	handle, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}

	db := &DB{handle}
	if err := db.MigrateUp(); err != nil {
		handle.Close()
		return nil, err
	}

	return db, nil
}

// RecordSample stores one accepted telemetry record.
func (db *DB) RecordSample(rec telemetry.Record) error {
	_, err := db.Exec(
		`INSERT INTO telemetry_samples (x, y, z, w, device_time) VALUES (?, ?, ?, ?, ?)`,
		rec.X, rec.Y, rec.Z, rec.W, rec.Time,
	)
	if err != nil {
		return fmt.Errorf("failed to record telemetry sample: %w", err)
	}
	return nil
}

// RecordRawFrame stores one complete frame exactly as received.
func (db *DB) RecordRawFrame(line string) error {
	_, err := db.Exec(`INSERT INTO raw_lines (line) VALUES (?)`, line)
	if err != nil {
		return fmt.Errorf("failed to record raw line: %w", err)
	}
	return nil
}

// Sample is one stored telemetry record with its storage metadata.
type Sample struct {
	ID         int64     `json:"id"`
	X          float32   `json:"x"`
	Y          float32   `json:"y"`
	Z          float32   `json:"z"`
	W          float32   `json:"w"`
	DeviceTime uint32    `json:"device_time"`
	ReceivedAt time.Time `json:"received_at"`
}

// RecentSamples returns up to limit samples, newest first.
func (db *DB) RecentSamples(limit int) ([]Sample, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := db.Query(
		`SELECT sample_id, x, y, z, w, device_time, received_at
		 FROM telemetry_samples ORDER BY sample_id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query samples: %w", err)
	}
	defer rows.Close()

	var samples []Sample
	for rows.Next() {
		var s Sample
		if err := rows.Scan(&s.ID, &s.X, &s.Y, &s.Z, &s.W, &s.DeviceTime, &s.ReceivedAt); err != nil {
			return nil, fmt.Errorf("failed to scan sample: %w", err)
		}
		samples = append(samples, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate samples: %w", err)
	}

	return samples, nil
}

// SampleCount returns the total number of stored samples.
func (db *DB) SampleCount() (int64, error) {
	var n int64
	if err := db.QueryRow(`SELECT COUNT(*) FROM telemetry_samples`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count samples: %w", err)
	}
	return n, nil
}
