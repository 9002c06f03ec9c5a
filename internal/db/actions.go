package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrActionNotFound is returned when an action is not found.
var ErrActionNotFound = errors.New("action not found")

// Action is one audited entry in the command ledger: what was asked,
// how it was interpreted, what the policy decided, and how execution
// went.
type Action struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	ActionType  string    `json:"action_type"`
	Target      string    `json:"target,omitempty"`
	CommandText string    `json:"command_text,omitempty"`
	Intent      string    `json:"intent,omitempty"`
	Confidence  float64   `json:"confidence"`
	SafetyLevel string    `json:"safety_level"`
	Confirmed   bool      `json:"confirmed"`
	Success     bool      `json:"success"`
	Error       string    `json:"error,omitempty"`
	DurationMS  int64     `json:"duration_ms"`
	CreatedAt   time.Time `json:"created_at"`
}

// RecordAction inserts an action. Generates a UUID if the ID is not set.
func (db *DB) RecordAction(a *Action) error {
	if a.SessionID == "" {
		return fmt.Errorf("session_id is required")
	}
	if a.ActionType == "" {
		return fmt.Errorf("action_type is required")
	}
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	_, err := db.Exec(`
		INSERT INTO actions (id, session_id, action_type, target, command_text, intent, confidence, safety_level, confirmed, success, error, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, a.ID, a.SessionID, a.ActionType, a.Target, a.CommandText, a.Intent, a.Confidence,
		a.SafetyLevel, a.Confirmed, a.Success, a.Error, a.DurationMS, a.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("recording action: %w", err)
	}
	return nil
}

// GetAction retrieves an action by ID.
func (db *DB) GetAction(id string) (*Action, error) {
	row := db.QueryRow(`
		SELECT id, session_id, action_type, target, command_text, intent, confidence, safety_level, confirmed, success, error, duration_ms, created_at
		FROM actions WHERE id = ?
	`, id)

	a := &Action{}
	var createdAt string
	err := row.Scan(&a.ID, &a.SessionID, &a.ActionType, &a.Target, &a.CommandText, &a.Intent,
		&a.Confidence, &a.SafetyLevel, &a.Confirmed, &a.Success, &a.Error, &a.DurationMS, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrActionNotFound
		}
		return nil, fmt.Errorf("scanning action: %w", err)
	}
	a.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	return a, nil
}

// ListActions returns a session's actions, oldest first. limit <= 0
// returns everything.
func (db *DB) ListActions(sessionID string, limit int) ([]*Action, error) {
	query := `
		SELECT id, session_id, action_type, target, command_text, intent, confidence, safety_level, confirmed, success, error, duration_ms, created_at
		FROM actions
		WHERE session_id = ?
		ORDER BY created_at ASC
	`
	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = db.Query(query+" LIMIT ?", sessionID, limit)
	} else {
		rows, err = db.Query(query, sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("querying actions: %w", err)
	}
	defer rows.Close()

	return scanActions(rows)
}

// ListRecentActions returns the newest actions across all sessions.
func (db *DB) ListRecentActions(limit int) ([]*Action, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Query(`
		SELECT id, session_id, action_type, target, command_text, intent, confidence, safety_level, confirmed, success, error, duration_ms, created_at
		FROM actions
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying recent actions: %w", err)
	}
	defer rows.Close()

	return scanActions(rows)
}

// SessionStats summarizes a session's actions.
type SessionStats struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Confirmed int `json:"confirmed"`
	Blocked   int `json:"blocked"`
}

// GetSessionStats aggregates the action counters for a session.
func (db *DB) GetSessionStats(sessionID string) (*SessionStats, error) {
	stats := &SessionStats{}
	err := db.QueryRow(`
		SELECT
			COUNT(*),
			COALESCE(SUM(success), 0),
			COALESCE(SUM(CASE WHEN success = 0 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(confirmed), 0),
			COALESCE(SUM(CASE WHEN safety_level = 'blocked' THEN 1 ELSE 0 END), 0)
		FROM actions WHERE session_id = ?
	`, sessionID).Scan(&stats.Total, &stats.Succeeded, &stats.Failed, &stats.Confirmed, &stats.Blocked)
	if err != nil {
		return nil, fmt.Errorf("aggregating session stats: %w", err)
	}
	return stats, nil
}

func scanActions(rows *sql.Rows) ([]*Action, error) {
	var actions []*Action
	for rows.Next() {
		a := &Action{}
		var createdAt string
		err := rows.Scan(&a.ID, &a.SessionID, &a.ActionType, &a.Target, &a.CommandText, &a.Intent,
			&a.Confidence, &a.SafetyLevel, &a.Confirmed, &a.Success, &a.Error, &a.DurationMS, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("scanning action row: %w", err)
		}
		a.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		actions = append(actions, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating actions: %w", err)
	}
	return actions, nil
}
