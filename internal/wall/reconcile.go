package wall

import (
	"fmt"

	"go.uber.org/zap"

	"ideawall/internal/store"
)

// Reconciler removes applied plans from a board so a new one can be applied
// without accumulating duplicates.
type Reconciler struct {
	store *store.Store
	log   *zap.Logger
}

// NewReconciler builds a reconciler over the given store.
func NewReconciler(s *store.Store, log *zap.Logger) *Reconciler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reconciler{store: s, log: log}
}

// ClearApplied removes every AI-generated note and edge on the board,
// leaving user content untouched. Calling it twice in a row is a no-op the
// second time.
func (r *Reconciler) ClearApplied(boardID string) error {
	if err := r.store.ClearAINotes(boardID); err != nil {
		return fmt.Errorf("clearing AI notes: %w", err)
	}
	if err := r.store.ClearAIEdges(boardID); err != nil {
		return fmt.Errorf("clearing AI edges: %w", err)
	}
	r.log.Info("cleared applied plan", zap.String("board", boardID))
	return nil
}

// ClearWall removes all notes and edges on the board, user and AI alike.
// Transcript history is preserved. Idempotent.
func (r *Reconciler) ClearWall(boardID string) error {
	if err := r.store.ClearAllNotes(boardID); err != nil {
		return fmt.Errorf("clearing notes: %w", err)
	}
	if err := r.store.ClearAllEdges(boardID); err != nil {
		return fmt.Errorf("clearing edges: %w", err)
	}
	r.log.Info("cleared wall", zap.String("board", boardID))
	return nil
}
