package db

import (
	"fmt"
	"time"
)

// CountEventRecord is the persisted form of one zone-crossing count: a
// row in the audit trail tying a counted unit to its session, track
// identity, and wall-clock time.
type CountEventRecord struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	TrackID   int64     `json:"track_id"`
	Label     string    `json:"label"`
	CountedAt time.Time `json:"counted_at"`
}

// InsertCountEvent appends one count event to the audit trail.
func (db *DB) InsertCountEvent(e *CountEventRecord) error {
	result, err := db.Exec(`
		INSERT INTO count_events (session_id, track_id, label, counted_at)
		VALUES (?, ?, ?, ?)`,
		e.SessionID, e.TrackID, e.Label, e.CountedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert count event: %w", err)
	}
	if id, err := result.LastInsertId(); err == nil {
		e.ID = id
	}
	return nil
}

// CountEvents returns the most recent events for the session, newest
// first, up to limit. A limit <= 0 defaults to 100.
func (db *DB) CountEvents(sessionID string, limit int) ([]CountEventRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.Query(`
		SELECT id, session_id, track_id, label, counted_at
		FROM count_events
		WHERE session_id = ?
		ORDER BY counted_at DESC, id DESC
		LIMIT ?`, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []CountEventRecord
	for rows.Next() {
		var e CountEventRecord
		if err := rows.Scan(&e.ID, &e.SessionID, &e.TrackID, &e.Label, &e.CountedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}

// CountsByLabel aggregates the session's events into per-label totals.
func (db *DB) CountsByLabel(sessionID string) (map[string]int, error) {
	rows, err := db.Query(`
		SELECT label, COUNT(*)
		FROM count_events
		WHERE session_id = ?
		GROUP BY label`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var label string
		var n int
		if err := rows.Scan(&label, &n); err != nil {
			return nil, err
		}
		counts[label] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return counts, nil
}

// CountsByLabelSince aggregates per-label totals across all sessions
// from the given time forward. Backs the reporting tool.
func (db *DB) CountsByLabelSince(since time.Time) (map[string]int, error) {
	rows, err := db.Query(`
		SELECT label, COUNT(*)
		FROM count_events
		WHERE counted_at >= ?
		GROUP BY label`, since.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var label string
		var n int
		if err := rows.Scan(&label, &n); err != nil {
			return nil, err
		}
		counts[label] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return counts, nil
}
