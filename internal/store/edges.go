package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const edgeColumns = `id, board_id, from_id, to_id, kind, ai_generated, created_at`

func scanEdge(scanner interface{ Scan(dest ...any) error }) (Edge, error) {
	var e Edge
	err := scanner.Scan(&e.ID, &e.BoardID, &e.From, &e.To, &e.Kind, &e.AIGenerated, &e.CreatedAt)
	return e, err
}

// AddEdge inserts a directed edge between two notes and returns its id.
// Dangling endpoints are tolerated here; the renderer simply won't draw them.
func (s *Store) AddEdge(e Edge) (string, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Kind == "" {
		e.Kind = EdgeFollows
	}
	if e.CreatedAt == 0 {
		e.CreatedAt = time.Now().UnixMilli()
	}
	_, err := s.conn.Exec(`
		INSERT INTO edges (`+edgeColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.BoardID, e.From, e.To, e.Kind, e.AIGenerated, e.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("inserting edge: %w", err)
	}
	s.emitEdge(e, ChangeAdded)
	return e.ID, nil
}

// GetEdge returns a single edge, or nil if not found.
func (s *Store) GetEdge(id string) (*Edge, error) {
	row := s.conn.QueryRow(`SELECT `+edgeColumns+` FROM edges WHERE id = ?`, id)
	e, err := scanEdge(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// EdgesForBoard returns all edges on a board in creation order.
func (s *Store) EdgesForBoard(boardID string) ([]Edge, error) {
	rows, err := s.conn.Query(`
		SELECT `+edgeColumns+` FROM edges
		WHERE board_id = ? ORDER BY created_at ASC
	`, boardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var edges []Edge
	for rows.Next() {
		e, err := scanEdge(rows)
		if err != nil {
			return nil, err
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// DeleteEdge removes a single edge.
func (s *Store) DeleteEdge(id string) error {
	e, err := s.GetEdge(id)
	if err != nil {
		return err
	}
	if _, err := s.conn.Exec(`DELETE FROM edges WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting edge: %w", err)
	}
	if e != nil {
		s.emitEdge(*e, ChangeRemoved)
	}
	return nil
}

// ClearAIEdges removes every AI-generated edge on the board. Idempotent.
func (s *Store) ClearAIEdges(boardID string) error {
	return s.clearEdges(boardID, true)
}

// ClearAllEdges removes every edge on the board.
func (s *Store) ClearAllEdges(boardID string) error {
	return s.clearEdges(boardID, false)
}

func (s *Store) clearEdges(boardID string, aiOnly bool) error {
	query := `SELECT ` + edgeColumns + ` FROM edges WHERE board_id = ?`
	if aiOnly {
		query += ` AND ai_generated = 1`
	}
	rows, err := s.conn.Query(query, boardID)
	if err != nil {
		return err
	}
	var doomed []Edge
	for rows.Next() {
		e, err := scanEdge(rows)
		if err != nil {
			rows.Close()
			return err
		}
		doomed = append(doomed, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	del := `DELETE FROM edges WHERE board_id = ?`
	if aiOnly {
		del += ` AND ai_generated = 1`
	}
	if _, err := s.conn.Exec(del, boardID); err != nil {
		return fmt.Errorf("clearing edges: %w", err)
	}
	for _, e := range doomed {
		s.emitEdge(e, ChangeRemoved)
	}
	return nil
}
