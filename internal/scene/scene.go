// Package scene defines the rendering-surface contract. The pipeline only
// ever needs a board transform and note/edge lifecycle calls; concrete
// backends (AR, 2D canvas, headless) implement Adapter and are chosen by a
// factory, never by probing for optional callbacks.
package scene

import (
	"context"
	"sync"

	"ideawall/internal/layout"
	"ideawall/internal/store"
)

// Adapter is the capability contract a rendering backend must satisfy.
// Start is the single lifecycle entry point.
type Adapter interface {
	Start(ctx context.Context) error
	AddNote(note store.Note)
	RemoveNote(id string)
	AddEdge(edge store.Edge)
	RemoveEdge(id string)

	// BoardTransform returns the current board pose, or nil while no board
	// has been placed.
	BoardTransform() *layout.Transform
}

// CaptureState tracks the speech-capture lifecycle for one board session.
// It is owned by whoever manages the microphone and passed by reference;
// nothing global.
type CaptureState struct {
	mu        sync.Mutex
	capturing bool
	lang      string
}

// Begin marks capture as active for the given language. Returns false if
// capture was already running.
func (c *CaptureState) Begin(lang string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.capturing {
		return false
	}
	c.capturing = true
	c.lang = lang
	return true
}

// End marks capture as stopped. Safe to call when not capturing.
func (c *CaptureState) End() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.capturing = false
}

// Active reports whether capture is running and in which language.
func (c *CaptureState) Active() (bool, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.capturing, c.lang
}
