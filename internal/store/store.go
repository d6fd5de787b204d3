// Package store persists monitor history in SQLite: one row per sensor
// reading, alert change, actuation and frame verdict, grouped by session.
package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sweeney/farm-monitor/internal/engine"
)

// Store wraps the history database. Methods are safe for use from a single
// run loop; database/sql serializes access underneath.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and ensures the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			started_at TIMESTAMP,
			config TEXT
		);
		CREATE TABLE IF NOT EXISTS readings (
			session TEXT,
			tick INTEGER,
			channel INTEGER,
			sample INTEGER,
			average INTEGER,
			threshold INTEGER,
			trend TEXT,
			timestamp TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS alerts (
			session TEXT,
			tick INTEGER,
			level INTEGER,
			timestamp TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS actuations (
			session TEXT,
			tick INTEGER,
			event TEXT,
			pump INTEGER,
			valve INTEGER,
			fertilizer INTEGER,
			lights INTEGER,
			timestamp TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS verdicts (
			session TEXT,
			tick INTEGER,
			green INTEGER,
			red INTEGER,
			brown INTEGER,
			total INTEGER,
			score INTEGER,
			harvest INTEGER,
			pest INTEGER,
			disease INTEGER,
			timestamp TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS readings_session_tick ON readings(session, tick);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// StartSession records the beginning of a monitor run.
func (s *Store) StartSession(id string, startedAt time.Time, config string) error {
	_, err := s.db.Exec("INSERT INTO sessions (id, started_at, config) VALUES (?, ?, ?)",
		id, startedAt.UTC(), config)
	return err
}

// RecordReading stores one channel update.
func (s *Store) RecordReading(session string, tick uint64, channel, sample uint8, ch engine.ChannelSnapshot) error {
	_, err := s.db.Exec(
		"INSERT INTO readings (session, tick, channel, sample, average, threshold, trend) VALUES (?, ?, ?, ?, ?, ?, ?)",
		session, tick, channel, sample, ch.Average, ch.Threshold, string(ch.Trend))
	return err
}

// RecordAlert stores an alert level change.
func (s *Store) RecordAlert(session string, tick uint64, level uint8) error {
	_, err := s.db.Exec("INSERT INTO alerts (session, tick, level) VALUES (?, ?, ?)",
		session, tick, level)
	return err
}

// RecordActuation stores an actuator transition with the full output state
// after the transition.
func (s *Store) RecordActuation(session string, tick uint64, event string, pump, valve, fertilizer, lights bool) error {
	_, err := s.db.Exec(
		"INSERT INTO actuations (session, tick, event, pump, valve, fertilizer, lights) VALUES (?, ?, ?, ?, ?, ?, ?)",
		session, tick, event, pump, valve, fertilizer, lights)
	return err
}

// RecordVerdict stores one completed frame classification.
func (s *Store) RecordVerdict(session string, tick uint64, f engine.FrameSnapshot) error {
	_, err := s.db.Exec(
		"INSERT INTO verdicts (session, tick, green, red, brown, total, score, harvest, pest, disease) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		session, tick, f.Green, f.Red, f.Brown, f.Total, f.Score, f.Harvest, f.Pest, f.Disease)
	return err
}

// Reading is one stored channel update.
type Reading struct {
	Tick      uint64
	Channel   uint8
	Sample    uint8
	Average   uint8
	Threshold uint8
	Trend     string
}

// RecentReadings returns up to limit readings for the session, newest
// first by tick.
func (s *Store) RecentReadings(session string, limit int) ([]Reading, error) {
	rows, err := s.db.Query(
		"SELECT tick, channel, sample, average, threshold, trend FROM readings WHERE session = ? ORDER BY tick DESC LIMIT ?",
		session, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var readings []Reading
	for rows.Next() {
		var r Reading
		if err := rows.Scan(&r.Tick, &r.Channel, &r.Sample, &r.Average, &r.Threshold, &r.Trend); err != nil {
			return nil, err
		}
		readings = append(readings, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return readings, nil
}

// ChannelSamples returns every stored sample for one channel of a session,
// oldest first, as float64 for the stats layer.
func (s *Store) ChannelSamples(session string, channel uint8) ([]float64, error) {
	rows, err := s.db.Query(
		"SELECT sample FROM readings WHERE session = ? AND channel = ? ORDER BY tick ASC",
		session, channel)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []float64
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		samples = append(samples, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return samples, nil
}

// Sessions returns the recorded session IDs, newest first.
func (s *Store) Sessions() ([]string, error) {
	rows, err := s.db.Query("SELECT id FROM sessions ORDER BY started_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}
