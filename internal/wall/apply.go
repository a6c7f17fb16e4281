// Package wall materializes a normalized plan onto the board store as
// AI-tagged notes and edges, and clears applied plans back off again.
package wall

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"ideawall/internal/layout"
	"ideawall/internal/plan"
	"ideawall/internal/store"
)

// Precondition failures surfaced to the caller. Everything else the applier
// hits (unresolvable edges, self-loops) is absorbed as best-effort wiring.
var (
	ErrNoTasks        = errors.New("plan has no tasks to apply")
	ErrBoardNotPlaced = errors.New("no board transform available; place the board first")
)

// Config holds the visual parameters for applied notes.
type Config struct {
	HeaderGlyph     string `yaml:"header_glyph"`
	HeaderColor     string `yaml:"header_color"`
	HeaderTextColor string `yaml:"header_text_color"`
	NoteShape       string `yaml:"note_shape"`
}

// DefaultConfig returns the production wall defaults.
func DefaultConfig() Config {
	return Config{
		HeaderGlyph:     "◆ ",
		HeaderColor:     "#2B2D42",
		HeaderTextColor: "#FFFFFF",
		NoteShape:       "square",
	}
}

// Applier writes laid-out plans onto a board.
type Applier struct {
	store  *store.Store
	log    *zap.Logger
	cfg    Config
	layout layout.Config
}

// NewApplier builds an applier over the given store.
func NewApplier(s *store.Store, log *zap.Logger, cfg Config, layoutCfg layout.Config) *Applier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Applier{store: s, log: log, cfg: cfg, layout: layoutCfg}
}

// Apply lays out the plan and creates one header note per lane, one note per
// task, and one edge per resolvable workflow edge, all tagged AI-generated
// and positioned in world space through the board transform. Preconditions
// are checked before any write, so a failed Apply leaves the board unchanged.
func (a *Applier) Apply(boardID string, transform *layout.Transform, out plan.AIOutput) error {
	if transform == nil {
		return ErrBoardNotPlaced
	}
	if len(out.Workplan.Tasks) == 0 {
		return ErrNoTasks
	}

	laid := layout.Compute(out, a.layout)

	// Task key -> created note id. Keys are the task id when present, else
	// the raw title; a trimmed lowercase alias backs the second resolution
	// attempt for edges.
	noteByKey := make(map[string]string)
	noteCount := 0

	for _, lane := range laid.Lanes {
		headerID, err := a.store.AddNote(store.Note{
			BoardID:     boardID,
			Text:        a.cfg.HeaderGlyph + lane.Name,
			Color:       a.cfg.HeaderColor,
			TextColor:   a.cfg.HeaderTextColor,
			Shape:       a.cfg.NoteShape,
			Pose:        worldPose(transform, lane.Header.Position),
			Size:        lane.Header.Size,
			AIGenerated: true,
		})
		if err != nil {
			return fmt.Errorf("creating lane header %q: %w", lane.Name, err)
		}
		noteCount++
		a.log.Debug("created lane header",
			zap.String("board", boardID),
			zap.String("lane", lane.Name),
			zap.String("note", headerID))

		for _, row := range lane.Rows {
			t := row.Task
			noteID, err := a.store.AddNote(store.Note{
				BoardID:     boardID,
				Text:        noteText(t),
				Color:       lane.Color,
				Shape:       a.cfg.NoteShape,
				Pose:        worldPose(transform, row.Position),
				Size:        row.Size,
				AIGenerated: true,
			})
			if err != nil {
				return fmt.Errorf("creating task note %q: %w", t.Title, err)
			}
			noteCount++

			key := t.ID
			if key == "" {
				key = t.Title
			}
			registerKey(noteByKey, key, noteID)
			// Titles resolve edges too, even when the task has an id.
			registerKey(noteByKey, t.Title, noteID)
		}
	}

	edgeCount := 0
	for _, we := range collectEdges(out) {
		fromID, okFrom := resolveKey(noteByKey, we.From)
		toID, okTo := resolveKey(noteByKey, we.To)
		if !okFrom || !okTo || fromID == toID {
			a.log.Debug("skipping unresolvable workflow edge",
				zap.String("from", we.From), zap.String("to", we.To))
			continue
		}
		if _, err := a.store.AddEdge(store.Edge{
			BoardID:     boardID,
			From:        fromID,
			To:          toID,
			Kind:        edgeKind(we.Kind),
			AIGenerated: true,
		}); err != nil {
			return fmt.Errorf("creating workflow edge: %w", err)
		}
		edgeCount++
	}

	a.log.Info("applied plan to wall",
		zap.String("board", boardID),
		zap.Int("notes", noteCount),
		zap.Int("edges", edgeCount))
	return nil
}

// collectEdges merges the plan's explicit workflow edges with edges implied
// by task dependsOn lists, deduplicating by endpoint pair.
func collectEdges(out plan.AIOutput) []plan.WorkflowEdge {
	seen := make(map[string]bool)
	var edges []plan.WorkflowEdge
	add := func(e plan.WorkflowEdge) {
		key := e.From + "\x00" + e.To
		if seen[key] {
			return
		}
		seen[key] = true
		edges = append(edges, e)
	}
	for _, e := range out.WorkflowEdges {
		add(e)
	}
	for _, t := range out.Workplan.Tasks {
		target := t.ID
		if target == "" {
			target = t.Title
		}
		for _, dep := range t.DependsOn {
			add(plan.WorkflowEdge{From: dep, To: target, Kind: store.EdgeDepends})
		}
	}
	return edges
}

// noteText builds the task note body: "[priority] title — owner (eta)" with
// absent segments omitted, plus the description on a second line.
func noteText(t *plan.Task) string {
	var b strings.Builder
	prio := t.Priority
	if prio == "" {
		prio = plan.PriorityP2
	}
	b.WriteString("[" + string(prio) + "] " + t.Title)
	if t.Owner != "" {
		b.WriteString(" — " + t.Owner)
	}
	if t.ETA != "" {
		b.WriteString(" (" + t.ETA + ")")
	}
	if t.Description != "" {
		b.WriteString("\n" + t.Description)
	}
	return b.String()
}

func worldPose(transform *layout.Transform, local layout.Vec3) layout.Transform {
	return layout.Transform{
		Position:    transform.Apply(local),
		Orientation: transform.Orientation,
	}
}

func registerKey(m map[string]string, key, noteID string) {
	if key == "" {
		return
	}
	if _, exists := m[key]; !exists {
		m[key] = noteID
	}
	norm := strings.ToLower(strings.TrimSpace(key))
	if _, exists := m[norm]; !exists {
		m[norm] = noteID
	}
}

// resolveKey tries the raw key first, then the trimmed lowercase form.
func resolveKey(m map[string]string, key string) (string, bool) {
	if id, ok := m[key]; ok {
		return id, true
	}
	id, ok := m[strings.ToLower(strings.TrimSpace(key))]
	return id, ok
}

// edgeKind clamps a workflow edge kind to the board's edge vocabulary.
func edgeKind(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case store.EdgeBlocks:
		return store.EdgeBlocks
	case store.EdgeVerifies:
		return store.EdgeVerifies
	case store.EdgeDepends:
		return store.EdgeDepends
	default:
		return store.EdgeFollows
	}
}
