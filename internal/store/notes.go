package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ideawall/internal/layout"
)

const noteColumns = `id, board_id, text, color, text_color, shape,
	pos_x, pos_y, pos_z, quat_x, quat_y, quat_z, quat_w,
	size, votes, ai_generated, created_at`

// scanNote scans a row into a Note. The row must carry all note columns in
// standard order.
func scanNote(scanner interface{ Scan(dest ...any) error }) (Note, error) {
	var n Note
	err := scanner.Scan(
		&n.ID, &n.BoardID, &n.Text, &n.Color, &n.TextColor, &n.Shape,
		&n.Pose.Position.X, &n.Pose.Position.Y, &n.Pose.Position.Z,
		&n.Pose.Orientation.X, &n.Pose.Orientation.Y, &n.Pose.Orientation.Z, &n.Pose.Orientation.W,
		&n.Size, &n.Votes, &n.AIGenerated, &n.CreatedAt,
	)
	return n, err
}

// AddNote inserts a note and returns its id. A blank incoming id is replaced
// with a fresh UUID; CreatedAt is stamped if unset.
func (s *Store) AddNote(n Note) (string, error) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt == 0 {
		n.CreatedAt = time.Now().UnixMilli()
	}
	_, err := s.conn.Exec(`
		INSERT INTO notes (`+noteColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		n.ID, n.BoardID, n.Text, n.Color, n.TextColor, n.Shape,
		n.Pose.Position.X, n.Pose.Position.Y, n.Pose.Position.Z,
		n.Pose.Orientation.X, n.Pose.Orientation.Y, n.Pose.Orientation.Z, n.Pose.Orientation.W,
		n.Size, n.Votes, n.AIGenerated, n.CreatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("inserting note: %w", err)
	}
	s.emitNote(n, ChangeAdded)
	return n.ID, nil
}

// GetNote returns a single note, or nil if not found.
func (s *Store) GetNote(id string) (*Note, error) {
	row := s.conn.QueryRow(`SELECT `+noteColumns+` FROM notes WHERE id = ?`, id)
	n, err := scanNote(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// NotesForBoard returns all notes on a board ordered by creation time.
func (s *Store) NotesForBoard(boardID string) ([]Note, error) {
	rows, err := s.conn.Query(`
		SELECT `+noteColumns+` FROM notes
		WHERE board_id = ? ORDER BY created_at ASC
	`, boardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

// TopVotedNotes returns up to limit notes ordered by votes descending,
// creation time ascending on ties.
func (s *Store) TopVotedNotes(boardID string, limit int) ([]Note, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.conn.Query(`
		SELECT `+noteColumns+` FROM notes
		WHERE board_id = ? ORDER BY votes DESC, created_at ASC LIMIT ?
	`, boardID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

// Vote adjusts a note's vote counter by delta and fires a modified event.
func (s *Store) Vote(id string, delta int) error {
	if _, err := s.conn.Exec(`UPDATE notes SET votes = votes + ? WHERE id = ?`, delta, id); err != nil {
		return fmt.Errorf("updating votes: %w", err)
	}
	return s.emitModified(id)
}

// MoveNote updates a note's pose.
func (s *Store) MoveNote(id string, pose layout.Transform) error {
	_, err := s.conn.Exec(`
		UPDATE notes SET pos_x = ?, pos_y = ?, pos_z = ?,
			quat_x = ?, quat_y = ?, quat_z = ?, quat_w = ?
		WHERE id = ?
	`,
		pose.Position.X, pose.Position.Y, pose.Position.Z,
		pose.Orientation.X, pose.Orientation.Y, pose.Orientation.Z, pose.Orientation.W,
		id,
	)
	if err != nil {
		return fmt.Errorf("moving note: %w", err)
	}
	return s.emitModified(id)
}

// ResizeNote updates a note's size.
func (s *Store) ResizeNote(id string, size float64) error {
	if _, err := s.conn.Exec(`UPDATE notes SET size = ? WHERE id = ?`, size, id); err != nil {
		return fmt.Errorf("resizing note: %w", err)
	}
	return s.emitModified(id)
}

// emitModified reloads a note and fires the modified event for it.
func (s *Store) emitModified(id string) error {
	n, err := s.GetNote(id)
	if err != nil {
		return err
	}
	if n != nil {
		s.emitNote(*n, ChangeModified)
	}
	return nil
}

// DeleteNote removes a single note.
func (s *Store) DeleteNote(id string) error {
	n, err := s.GetNote(id)
	if err != nil {
		return err
	}
	if _, err := s.conn.Exec(`DELETE FROM notes WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting note: %w", err)
	}
	if n != nil {
		s.emitNote(*n, ChangeRemoved)
	}
	return nil
}

// ClearAINotes removes every AI-generated note on the board, leaving user
// notes untouched. Idempotent: a second call is a no-op.
func (s *Store) ClearAINotes(boardID string) error {
	return s.clearNotes(boardID, true)
}

// ClearAllNotes removes every note on the board, user and AI alike.
func (s *Store) ClearAllNotes(boardID string) error {
	return s.clearNotes(boardID, false)
}

func (s *Store) clearNotes(boardID string, aiOnly bool) error {
	query := `SELECT ` + noteColumns + ` FROM notes WHERE board_id = ?`
	args := []any{boardID}
	if aiOnly {
		query += ` AND ai_generated = 1`
	}
	rows, err := s.conn.Query(query, args...)
	if err != nil {
		return err
	}
	var doomed []Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			rows.Close()
			return err
		}
		doomed = append(doomed, n)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	del := `DELETE FROM notes WHERE board_id = ?`
	if aiOnly {
		del += ` AND ai_generated = 1`
	}
	if _, err := s.conn.Exec(del, args...); err != nil {
		return fmt.Errorf("clearing notes: %w", err)
	}
	for _, n := range doomed {
		s.emitNote(n, ChangeRemoved)
	}
	return nil
}
