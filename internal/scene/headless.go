package scene

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"ideawall/internal/layout"
	"ideawall/internal/store"
)

// Headless is the renderer-less Adapter used by the CLI and the server. It
// mirrors store change notifications into structured logs and carries the
// board transform that apply operations need.
type Headless struct {
	boardID string
	store   *store.Store
	log     *zap.Logger

	mu        sync.Mutex
	transform *layout.Transform
	unsubs    []func()
}

var _ Adapter = (*Headless)(nil)

// NewHeadless builds a headless scene for one board.
func NewHeadless(boardID string, s *store.Store, log *zap.Logger) *Headless {
	if log == nil {
		log = zap.NewNop()
	}
	return &Headless{boardID: boardID, store: s, log: log}
}

// Start subscribes to the board's change notifications. Listeners are
// dropped when ctx is cancelled.
func (h *Headless) Start(ctx context.Context) error {
	unsubNotes := h.store.ListenNotes(h.boardID, func(id string, note store.Note, change store.ChangeType) {
		switch change {
		case store.ChangeAdded:
			h.AddNote(note)
		case store.ChangeRemoved:
			h.RemoveNote(id)
		default:
			h.log.Debug("note updated", zap.String("note", id), zap.Int("votes", note.Votes))
		}
	})
	unsubEdges := h.store.ListenEdges(h.boardID, func(id string, edge store.Edge, change store.ChangeType) {
		switch change {
		case store.ChangeAdded:
			h.AddEdge(edge)
		case store.ChangeRemoved:
			h.RemoveEdge(id)
		}
	})

	h.mu.Lock()
	h.unsubs = append(h.unsubs, unsubNotes, unsubEdges)
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		unsubs := h.unsubs
		h.unsubs = nil
		h.mu.Unlock()
		for _, u := range unsubs {
			u()
		}
	}()
	return nil
}

// PlaceBoard sets the board pose. Until this is called, BoardTransform
// returns nil and apply operations fail their placement precondition.
func (h *Headless) PlaceBoard(t layout.Transform) {
	h.mu.Lock()
	h.transform = &t
	h.mu.Unlock()
	h.log.Info("board placed",
		zap.String("board", h.boardID),
		zap.Float64("x", t.Position.X),
		zap.Float64("y", t.Position.Y),
		zap.Float64("z", t.Position.Z))
}

// BoardTransform returns the current board pose, nil if unplaced.
func (h *Headless) BoardTransform() *layout.Transform {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.transform
}

// AddNote logs a note appearing on the board.
func (h *Headless) AddNote(note store.Note) {
	h.log.Debug("note added",
		zap.String("note", note.ID),
		zap.Bool("ai", note.AIGenerated),
		zap.Float64("x", note.Pose.Position.X),
		zap.Float64("y", note.Pose.Position.Y))
}

// RemoveNote logs a note leaving the board.
func (h *Headless) RemoveNote(id string) {
	h.log.Debug("note removed", zap.String("note", id))
}

// AddEdge logs an edge appearing on the board.
func (h *Headless) AddEdge(edge store.Edge) {
	h.log.Debug("edge added",
		zap.String("edge", edge.ID),
		zap.String("from", edge.From),
		zap.String("to", edge.To),
		zap.String("kind", edge.Kind))
}

// RemoveEdge logs an edge leaving the board.
func (h *Headless) RemoveEdge(id string) {
	h.log.Debug("edge removed", zap.String("edge", id))
}
