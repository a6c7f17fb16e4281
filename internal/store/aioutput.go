package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ideawall/internal/plan"
)

// PutAIOutput persists a new AI output record for the board, trims history
// to the retention bound, and notifies latest-output listeners. Records are
// never mutated in place: every generation appends a fresh one and reads are
// latest-wins.
func (s *Store) PutAIOutput(boardID string, out plan.AIOutput) (string, error) {
	payload, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("encoding AI output: %w", err)
	}

	id := uuid.NewString()
	now := time.Now().UnixMilli()

	tx, err := s.conn.Begin()
	if err != nil {
		return "", fmt.Errorf("beginning AI output write: %w", err)
	}
	if _, err := tx.Exec(`
		INSERT INTO ai_outputs (id, board_id, payload, created_at)
		VALUES (?, ?, ?, ?)
	`, id, boardID, string(payload), now); err != nil {
		tx.Rollback()
		return "", fmt.Errorf("inserting AI output: %w", err)
	}
	if _, err := tx.Exec(`
		DELETE FROM ai_outputs WHERE board_id = ? AND id NOT IN (
			SELECT id FROM ai_outputs WHERE board_id = ?
			ORDER BY created_at DESC, id DESC LIMIT ?
		)
	`, boardID, boardID, MaxAIOutputHistory); err != nil {
		tx.Rollback()
		return "", fmt.Errorf("trimming AI output history: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing AI output write: %w", err)
	}

	s.emitOutput(boardID, &out)
	return id, nil
}

// LatestAIOutput returns the most recent AI output for the board, or nil if
// none has been generated yet.
func (s *Store) LatestAIOutput(boardID string) (*plan.AIOutput, error) {
	row := s.conn.QueryRow(`
		SELECT payload FROM ai_outputs WHERE board_id = ?
		ORDER BY created_at DESC, id DESC LIMIT 1
	`, boardID)

	var payload string
	if err := row.Scan(&payload); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	var out plan.AIOutput
	if err := json.Unmarshal([]byte(payload), &out); err != nil {
		return nil, fmt.Errorf("decoding AI output: %w", err)
	}
	return &out, nil
}

// AIOutputCount returns how many output records the board retains.
func (s *Store) AIOutputCount(boardID string) (int, error) {
	var n int
	err := s.conn.QueryRow(`SELECT COUNT(*) FROM ai_outputs WHERE board_id = ?`, boardID).Scan(&n)
	return n, err
}
