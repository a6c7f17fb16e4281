package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AppendTranscript appends a speech segment to the board's transcript log
// and trims the log to the retention bound. Listeners receive the bounded
// window after the append.
func (s *Store) AppendTranscript(e TranscriptEntry) (string, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Ts == 0 {
		e.Ts = time.Now().UnixMilli()
	}

	tx, err := s.conn.Begin()
	if err != nil {
		return "", fmt.Errorf("beginning transcript append: %w", err)
	}
	if _, err := tx.Exec(`
		INSERT INTO transcript (id, board_id, text, lang, confidence, ts)
		VALUES (?, ?, ?, ?, ?, ?)
	`, e.ID, e.BoardID, e.Text, e.Lang, e.Confidence, e.Ts); err != nil {
		tx.Rollback()
		return "", fmt.Errorf("inserting transcript entry: %w", err)
	}
	if _, err := tx.Exec(`
		DELETE FROM transcript WHERE board_id = ? AND id NOT IN (
			SELECT id FROM transcript WHERE board_id = ?
			ORDER BY ts DESC, id DESC LIMIT ?
		)
	`, e.BoardID, e.BoardID, MaxTranscriptEntries); err != nil {
		tx.Rollback()
		return "", fmt.Errorf("trimming transcript: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing transcript append: %w", err)
	}

	entries, err := s.TranscriptForBoard(e.BoardID)
	if err == nil {
		s.emitTranscript(e.BoardID, entries)
	}
	return e.ID, nil
}

// TranscriptForBoard returns the retained transcript ordered by timestamp.
func (s *Store) TranscriptForBoard(boardID string) ([]TranscriptEntry, error) {
	return s.TranscriptSince(boardID, 0)
}

// TranscriptSince returns retained entries with ts >= since, ordered by
// timestamp ascending.
func (s *Store) TranscriptSince(boardID string, since int64) ([]TranscriptEntry, error) {
	rows, err := s.conn.Query(`
		SELECT id, board_id, text, lang, confidence, ts FROM transcript
		WHERE board_id = ? AND ts >= ? ORDER BY ts ASC, id ASC
	`, boardID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []TranscriptEntry
	for rows.Next() {
		var e TranscriptEntry
		if err := rows.Scan(&e.ID, &e.BoardID, &e.Text, &e.Lang, &e.Confidence, &e.Ts); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
