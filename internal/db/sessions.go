package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Session is one checkout interaction from scan start to payment. The
// running totals are written once at close from the cart ledger.
type Session struct {
	ID         string     `json:"id"`
	StartedAt  time.Time  `json:"started_at"`
	EndedAt    *time.Time `json:"ended_at,omitempty"`
	TotalCents int64      `json:"total_cents"`
	UnitCount  int        `json:"unit_count"`
}

// CreateSession opens a new session and returns its generated ID.
func (db *DB) CreateSession(startedAt time.Time) (*Session, error) {
	s := &Session{
		ID:        uuid.New().String(),
		StartedAt: startedAt.UTC(),
	}
	_, err := db.Exec(`INSERT INTO sessions (id, started_at) VALUES (?, ?)`, s.ID, s.StartedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return s, nil
}

// CloseSession stamps the session's end time and final totals.
func (db *DB) CloseSession(id string, endedAt time.Time, totalCents int64, unitCount int) error {
	result, err := db.Exec(`
		UPDATE sessions SET ended_at = ?, total_cents = ?, unit_count = ?
		WHERE id = ? AND ended_at IS NULL`,
		endedAt.UTC(), totalCents, unitCount, id)
	if err != nil {
		return fmt.Errorf("failed to close session %s: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("session %s not found or already closed", id)
	}
	return nil
}

// GetSession returns the session by ID, or sql.ErrNoRows.
func (db *DB) GetSession(id string) (*Session, error) {
	var s Session
	var endedAt sql.NullTime
	err := db.QueryRow(`
		SELECT id, started_at, ended_at, total_cents, unit_count
		FROM sessions WHERE id = ?`, id).
		Scan(&s.ID, &s.StartedAt, &endedAt, &s.TotalCents, &s.UnitCount)
	if err != nil {
		return nil, err
	}
	if endedAt.Valid {
		t := endedAt.Time
		s.EndedAt = &t
	}
	return &s, nil
}

// ListSessions returns the most recent sessions, newest first, up to
// limit. A limit <= 0 defaults to 50.
func (db *DB) ListSessions(limit int) ([]Session, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Query(`
		SELECT id, started_at, ended_at, total_cents, unit_count
		FROM sessions ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var s Session
		var endedAt sql.NullTime
		if err := rows.Scan(&s.ID, &s.StartedAt, &endedAt, &s.TotalCents, &s.UnitCount); err != nil {
			return nil, err
		}
		if endedAt.Valid {
			t := endedAt.Time
			s.EndedAt = &t
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}
