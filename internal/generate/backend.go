// Package generate turns transcript text into work plans. A model backend
// does the heavy lifting when a key is configured; the heuristic deriver
// guarantees the pipeline still produces a usable plan when it isn't, or
// when the upstream call fails.
package generate

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoBackendKey marks operations that need an upstream model credential.
var ErrNoBackendKey = errors.New("no model backend key configured")

// UpstreamError wraps a failed upstream model call with enough detail for
// the HTTP surface to report it.
type UpstreamError struct {
	Status int
	Detail string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream model call failed (status %d): %s", e.Status, e.Detail)
}

// Transcription is the result of a speech-to-text call.
type Transcription struct {
	Text       string  `json:"text"`
	Lang       string  `json:"lang"`
	Words      int     `json:"words"`
	Confidence float64 `json:"confidence"`
}

// Backend is a remote model capable of free-text generation and audio
// transcription.
type Backend interface {
	Name() string
	HasKey() bool
	Generate(ctx context.Context, prompt string) (string, error)
	Transcribe(ctx context.Context, data []byte, mimeType string) (Transcription, error)
}
