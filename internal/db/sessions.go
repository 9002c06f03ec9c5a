package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrSessionNotFound is returned when a session is not found.
var ErrSessionNotFound = errors.New("session not found")

// Session is one run of the command pipeline.
type Session struct {
	ID           string     `json:"id"`
	StartedAt    time.Time  `json:"started_at"`
	LastActiveAt time.Time  `json:"last_active_at"`
	EndedAt      *time.Time `json:"ended_at,omitempty"`
}

// Active reports whether the session has not ended.
func (s *Session) Active() bool {
	return s.EndedAt == nil
}

// CreateSession creates a new session. Generates a UUID if the ID is not
// set.
func (db *DB) CreateSession(s *Session) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	s.StartedAt = now
	s.LastActiveAt = now
	s.EndedAt = nil

	_, err := db.Exec(`
		INSERT INTO sessions (id, started_at, last_active_at, ended_at)
		VALUES (?, ?, ?, NULL)
	`, s.ID, s.StartedAt.Format(time.RFC3339), s.LastActiveAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}
	return nil
}

// GetSession retrieves a session by ID.
func (db *DB) GetSession(id string) (*Session, error) {
	row := db.QueryRow(`
		SELECT id, started_at, last_active_at, ended_at
		FROM sessions WHERE id = ?
	`, id)

	return scanSession(row)
}

// ListSessions returns sessions ordered most recent first. limit <= 0
// returns everything.
func (db *DB) ListSessions(limit int) ([]*Session, error) {
	query := `
		SELECT id, started_at, last_active_at, ended_at
		FROM sessions
		ORDER BY started_at DESC
	`
	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = db.Query(query+" LIMIT ?", limit)
	} else {
		rows, err = db.Query(query)
	}
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	return scanSessions(rows)
}

// UpdateSessionHeartbeat updates the last_active_at timestamp for an
// active session.
func (db *DB) UpdateSessionHeartbeat(id string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	result, err := db.Exec(`
		UPDATE sessions SET last_active_at = ? WHERE id = ? AND ended_at IS NULL
	`, now, id)
	if err != nil {
		return fmt.Errorf("updating session heartbeat: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// EndSession marks a session as ended by setting ended_at.
func (db *DB) EndSession(id string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	result, err := db.Exec(`
		UPDATE sessions SET ended_at = ? WHERE id = ? AND ended_at IS NULL
	`, now, id)
	if err != nil {
		return fmt.Errorf("ending session: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// PruneSessions deletes ended sessions (and their actions) whose last
// activity is older than the cutoff. Returns the number of sessions
// removed.
func (db *DB) PruneSessions(cutoff time.Time) (int64, error) {
	ts := cutoff.UTC().Format(time.RFC3339)

	if _, err := db.Exec(`
		DELETE FROM actions WHERE session_id IN (
			SELECT id FROM sessions WHERE ended_at IS NOT NULL AND last_active_at < ?
		)
	`, ts); err != nil {
		return 0, fmt.Errorf("pruning actions: %w", err)
	}

	result, err := db.Exec(`
		DELETE FROM sessions WHERE ended_at IS NOT NULL AND last_active_at < ?
	`, ts)
	if err != nil {
		return 0, fmt.Errorf("pruning sessions: %w", err)
	}
	return result.RowsAffected()
}

func scanSession(row *sql.Row) (*Session, error) {
	s := &Session{}
	var startedAt, lastActiveAt string
	var endedAt sql.NullString

	err := row.Scan(&s.ID, &startedAt, &lastActiveAt, &endedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("scanning session: %w", err)
	}
	return finishSession(s, startedAt, lastActiveAt, endedAt)
}

func scanSessions(rows *sql.Rows) ([]*Session, error) {
	var sessions []*Session
	for rows.Next() {
		s := &Session{}
		var startedAt, lastActiveAt string
		var endedAt sql.NullString

		if err := rows.Scan(&s.ID, &startedAt, &lastActiveAt, &endedAt); err != nil {
			return nil, fmt.Errorf("scanning session row: %w", err)
		}
		parsed, err := finishSession(s, startedAt, lastActiveAt, endedAt)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, parsed)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sessions: %w", err)
	}
	return sessions, nil
}

func finishSession(s *Session, startedAt, lastActiveAt string, endedAt sql.NullString) (*Session, error) {
	var err error
	s.StartedAt, err = time.Parse(time.RFC3339, startedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing started_at: %w", err)
	}
	s.LastActiveAt, err = time.Parse(time.RFC3339, lastActiveAt)
	if err != nil {
		return nil, fmt.Errorf("parsing last_active_at: %w", err)
	}
	if endedAt.Valid {
		t, err := time.Parse(time.RFC3339, endedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parsing ended_at: %w", err)
		}
		s.EndedAt = &t
	}
	return s, nil
}
