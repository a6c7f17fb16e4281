package wall

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"ideawall/internal/layout"
	"ideawall/internal/plan"
	"ideawall/internal/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testApplier(s *store.Store) *Applier {
	return NewApplier(s, nil, DefaultConfig(), layout.DefaultConfig())
}

func placedBoard() *layout.Transform {
	return &layout.Transform{Orientation: layout.IdentityQuaternion()}
}

func crossLaneOutput() plan.AIOutput {
	return plan.AIOutput{
		SummaryMD: "two lanes",
		Workplan: plan.Workplan{
			Lanes: []string{"Frontend", "Backend"},
			Tasks: []plan.Task{
				{Title: "A", Lane: "Frontend"},
				{Title: "B", Lane: "Backend"},
			},
		},
		WorkflowEdges: []plan.WorkflowEdge{{From: "A", To: "B", Kind: "depends"}},
	}
}

func TestApply_NoTasks(t *testing.T) {
	s := openTestStore(t)

	err := testApplier(s).Apply("b1", placedBoard(), plan.AIOutput{})
	if !errors.Is(err, ErrNoTasks) {
		t.Fatalf("err = %v, want ErrNoTasks", err)
	}

	notes, _ := s.NotesForBoard("b1")
	edges, _ := s.EdgesForBoard("b1")
	if len(notes) != 0 || len(edges) != 0 {
		t.Errorf("failed apply wrote to the board: %d notes, %d edges", len(notes), len(edges))
	}
}

func TestApply_BoardNotPlaced(t *testing.T) {
	s := openTestStore(t)

	err := testApplier(s).Apply("b1", nil, crossLaneOutput())
	if !errors.Is(err, ErrBoardNotPlaced) {
		t.Fatalf("err = %v, want ErrBoardNotPlaced", err)
	}

	notes, _ := s.NotesForBoard("b1")
	if len(notes) != 0 {
		t.Errorf("failed apply wrote %d notes", len(notes))
	}
}

func TestApply_FullScenario(t *testing.T) {
	s := openTestStore(t)

	if err := testApplier(s).Apply("b1", placedBoard(), crossLaneOutput()); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	notes, err := s.NotesForBoard("b1")
	if err != nil {
		t.Fatal(err)
	}
	if len(notes) != 4 {
		t.Fatalf("got %d notes, want 4 (2 headers + 2 tasks)", len(notes))
	}
	for _, n := range notes {
		if !n.AIGenerated {
			t.Errorf("note %q not tagged AI-generated", n.Text)
		}
	}

	edges, err := s.EdgesForBoard("b1")
	if err != nil {
		t.Fatal(err)
	}
	if len(edges) != 1 {
		t.Fatalf("got %d edges, want 1", len(edges))
	}

	var taskA, taskB *store.Note
	var frontX, backX float64
	for i := range notes {
		n := &notes[i]
		switch {
		case strings.Contains(n.Text, "] A"):
			taskA = n
		case strings.Contains(n.Text, "] B"):
			taskB = n
		case strings.HasSuffix(n.Text, "Frontend"):
			frontX = n.Pose.Position.X
		case strings.HasSuffix(n.Text, "Backend"):
			backX = n.Pose.Position.X
		}
	}
	if taskA == nil || taskB == nil {
		t.Fatalf("task notes missing: %+v", notes)
	}

	e := edges[0]
	if e.From != taskA.ID || e.To != taskB.ID {
		t.Errorf("edge endpoints = %s -> %s, want %s -> %s", e.From, e.To, taskA.ID, taskB.ID)
	}
	if e.Kind != store.EdgeDepends {
		t.Errorf("edge kind = %q", e.Kind)
	}
	if !e.AIGenerated {
		t.Error("edge not tagged AI-generated")
	}

	if frontX >= backX {
		t.Errorf("Frontend column x %f should be left of Backend %f", frontX, backX)
	}
	if taskA.Pose.Position.X >= taskB.Pose.Position.X {
		t.Errorf("task columns out of order: %f >= %f", taskA.Pose.Position.X, taskB.Pose.Position.X)
	}
}

func TestApply_CreationOrder(t *testing.T) {
	s := openTestStore(t)

	var order []string
	s.ListenNotes("b1", func(id string, n store.Note, change store.ChangeType) {
		order = append(order, n.Text)
	})
	edgesAfterNotes := true
	notesSeen := 0
	s.ListenEdges("b1", func(id string, e store.Edge, change store.ChangeType) {
		if notesSeen != 4 {
			edgesAfterNotes = false
		}
	})
	s.ListenNotes("b1", func(string, store.Note, store.ChangeType) { notesSeen++ })

	if err := testApplier(s).Apply("b1", placedBoard(), crossLaneOutput()); err != nil {
		t.Fatal(err)
	}

	if len(order) != 4 {
		t.Fatalf("saw %d note events, want 4", len(order))
	}
	// Lane header precedes its tasks; lanes in declaration order.
	if !strings.HasSuffix(order[0], "Frontend") || !strings.Contains(order[1], "] A") {
		t.Errorf("Frontend lane order wrong: %v", order)
	}
	if !strings.HasSuffix(order[2], "Backend") || !strings.Contains(order[3], "] B") {
		t.Errorf("Backend lane order wrong: %v", order)
	}
	if !edgesAfterNotes {
		t.Error("edge created before all notes")
	}
}

func TestApply_WorldSpaceConversion(t *testing.T) {
	s := openTestStore(t)

	transform := &layout.Transform{
		Position:    layout.Vec3{X: 10, Y: 20, Z: 30},
		Orientation: layout.IdentityQuaternion(),
	}
	out := plan.AIOutput{Workplan: plan.Workplan{Tasks: []plan.Task{{Title: "only"}}}}

	if err := testApplier(s).Apply("b1", transform, out); err != nil {
		t.Fatal(err)
	}

	notes, _ := s.NotesForBoard("b1")
	cfg := layout.DefaultConfig()
	for _, n := range notes {
		if strings.HasSuffix(n.Text, "Tasks") { // header
			if n.Pose.Position.X != 10 || n.Pose.Position.Y != 20+cfg.StartY || n.Pose.Position.Z != 30 {
				t.Errorf("header world pose = %+v", n.Pose.Position)
			}
		}
	}
}

func TestApply_NoteText(t *testing.T) {
	full := &plan.Task{Title: "Ship it", Owner: "sam", ETA: "friday", Priority: plan.PriorityP1, Description: "what it takes"}
	if got := noteText(full); got != "[P1] Ship it — sam (friday)\nwhat it takes" {
		t.Errorf("noteText = %q", got)
	}

	bare := &plan.Task{Title: "Ship it"}
	if got := noteText(bare); got != "[P2] Ship it" {
		t.Errorf("noteText = %q", got)
	}
}

func TestApply_DanglingAndSelfLoopEdgesSkipped(t *testing.T) {
	s := openTestStore(t)

	out := plan.AIOutput{
		Workplan: plan.Workplan{Tasks: []plan.Task{{Title: "A"}, {Title: "B"}}},
		WorkflowEdges: []plan.WorkflowEdge{
			{From: "A", To: "Nonexistent"},
			{From: "A", To: "A"},
			{From: "a", To: "B"}, // resolves via trimmed-lowercase alias
		},
	}

	if err := testApplier(s).Apply("b1", placedBoard(), out); err != nil {
		t.Fatal(err)
	}

	edges, _ := s.EdgesForBoard("b1")
	if len(edges) != 1 {
		t.Errorf("got %d edges, want 1 (dangling and self-loop skipped)", len(edges))
	}
}

func TestApply_DependsOnImpliesEdges(t *testing.T) {
	s := openTestStore(t)

	out := plan.AIOutput{
		Workplan: plan.Workplan{Tasks: []plan.Task{
			{Title: "A"},
			{Title: "B", DependsOn: []string{"A"}},
		}},
	}

	if err := testApplier(s).Apply("b1", placedBoard(), out); err != nil {
		t.Fatal(err)
	}

	edges, _ := s.EdgesForBoard("b1")
	if len(edges) != 1 {
		t.Fatalf("got %d edges, want 1", len(edges))
	}
	if edges[0].Kind != store.EdgeDepends {
		t.Errorf("kind = %q", edges[0].Kind)
	}
}

func TestReconciler_Selectivity(t *testing.T) {
	s := openTestStore(t)

	for i := 0; i < 3; i++ {
		if _, err := s.AddNote(store.Note{BoardID: "b1", Text: "user note"}); err != nil {
			t.Fatal(err)
		}
	}
	if err := testApplier(s).Apply("b1", placedBoard(), crossLaneOutput()); err != nil {
		t.Fatal(err)
	}

	rec := NewReconciler(s, nil)
	if err := rec.ClearApplied("b1"); err != nil {
		t.Fatal(err)
	}

	notes, _ := s.NotesForBoard("b1")
	if len(notes) != 3 {
		t.Errorf("got %d notes after ClearApplied, want 3 user notes", len(notes))
	}
	edges, _ := s.EdgesForBoard("b1")
	if len(edges) != 0 {
		t.Errorf("AI edges survived: %d", len(edges))
	}

	// Idempotent.
	if err := rec.ClearApplied("b1"); err != nil {
		t.Fatalf("second ClearApplied errored: %v", err)
	}
	notes, _ = s.NotesForBoard("b1")
	if len(notes) != 3 {
		t.Errorf("second ClearApplied removed user notes: %d left", len(notes))
	}
}

func TestReconciler_ClearWallPreservesTranscript(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.AddNote(store.Note{BoardID: "b1", Text: "user note"}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AppendTranscript(store.TranscriptEntry{BoardID: "b1", Text: "spoken"}); err != nil {
		t.Fatal(err)
	}
	if err := testApplier(s).Apply("b1", placedBoard(), crossLaneOutput()); err != nil {
		t.Fatal(err)
	}

	if err := NewReconciler(s, nil).ClearWall("b1"); err != nil {
		t.Fatal(err)
	}

	notes, _ := s.NotesForBoard("b1")
	edges, _ := s.EdgesForBoard("b1")
	if len(notes) != 0 || len(edges) != 0 {
		t.Errorf("wall not empty: %d notes, %d edges", len(notes), len(edges))
	}
	entries, _ := s.TranscriptForBoard("b1")
	if len(entries) != 1 {
		t.Errorf("transcript lost: %d entries", len(entries))
	}
}
