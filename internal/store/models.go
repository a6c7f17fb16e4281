package store

import "ideawall/internal/layout"

// Note is a sticky note on a board. Created by user action or by the wall
// applier; the ai_generated flag separates the two so applied plans can be
// cleared without touching user content.
type Note struct {
	ID          string           `json:"id"`
	BoardID     string           `json:"boardId"`
	Text        string           `json:"text"`
	Color       string           `json:"color"`
	TextColor   string           `json:"textColor,omitempty"`
	Shape       string           `json:"shape"`
	Pose        layout.Transform `json:"pose"`
	Size        float64          `json:"size"`
	Votes       int              `json:"votes"`
	AIGenerated bool             `json:"aiGenerated"`
	CreatedAt   int64            `json:"createdAt"` // Unix millis
}

// Edge kinds. Dangling edges are tolerated in storage but not drawn.
const (
	EdgeBlocks   = "blocks"
	EdgeFollows  = "follows"
	EdgeVerifies = "verifies"
	EdgeDepends  = "depends"
)

// Edge is a directed link between two notes.
type Edge struct {
	ID          string `json:"id"`
	BoardID     string `json:"boardId"`
	From        string `json:"from"`
	To          string `json:"to"`
	Kind        string `json:"kind"`
	AIGenerated bool   `json:"aiGenerated"`
	CreatedAt   int64  `json:"createdAt"`
}

// TranscriptEntry is one captured speech segment. The transcript is an
// append-only log ordered by Ts; the pipeline only ever reads it.
type TranscriptEntry struct {
	ID         string  `json:"id"`
	BoardID    string  `json:"boardId"`
	Text       string  `json:"text"`
	Lang       string  `json:"lang"`
	Confidence float64 `json:"confidence"`
	Ts         int64   `json:"ts"` // Unix millis
}

// ChangeType classifies a change notification.
type ChangeType string

const (
	ChangeAdded    ChangeType = "added"
	ChangeModified ChangeType = "modified"
	ChangeRemoved  ChangeType = "removed"
)
