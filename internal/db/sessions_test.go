package db

import (
	"database/sql"
	"errors"
	"testing"
	"time"
)

func TestCreateAndCloseSession(t *testing.T) {
	database := setupTestDB(t)
	started := time.Now().UTC().Truncate(time.Second)

	s, err := database.CreateSession(started)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if s.ID == "" {
		t.Fatal("expected generated session ID")
	}

	got, err := database.GetSession(s.ID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got.EndedAt != nil {
		t.Error("expected open session")
	}
	if !got.StartedAt.Equal(started) {
		t.Errorf("StartedAt = %v, want %v", got.StartedAt, started)
	}

	ended := started.Add(90 * time.Second)
	if err := database.CloseSession(s.ID, ended, 899, 3); err != nil {
		t.Fatalf("CloseSession failed: %v", err)
	}

	got, err = database.GetSession(s.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.EndedAt == nil || !got.EndedAt.Equal(ended) {
		t.Errorf("EndedAt = %v, want %v", got.EndedAt, ended)
	}
	if got.TotalCents != 899 || got.UnitCount != 3 {
		t.Errorf("unexpected totals: %+v", got)
	}

	// Double close is rejected
	if err := database.CloseSession(s.ID, ended, 899, 3); err == nil {
		t.Error("expected error closing an already-closed session")
	}
}

func TestCloseSessionMissing(t *testing.T) {
	database := setupTestDB(t)
	if err := database.CloseSession("no-such-id", time.Now(), 0, 0); err == nil {
		t.Error("expected error for unknown session")
	}
}

func TestGetSessionMissing(t *testing.T) {
	database := setupTestDB(t)
	_, err := database.GetSession("no-such-id")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestListSessions(t *testing.T) {
	database := setupTestDB(t)
	base := time.Now().UTC().Truncate(time.Second)

	var ids []string
	for i := 0; i < 3; i++ {
		s, err := database.CreateSession(base.Add(time.Duration(i) * time.Minute))
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, s.ID)
	}

	sessions, err := database.ListSessions(0)
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(sessions) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(sessions))
	}
	// Newest first
	if sessions[0].ID != ids[2] {
		t.Errorf("expected newest session first, got %s", sessions[0].ID)
	}

	sessions, err = database.ListSessions(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 1 {
		t.Errorf("expected limit respected, got %d", len(sessions))
	}
}
