package plan

import (
	"reflect"
	"testing"
)

func TestNormalize_FencedBlocks(t *testing.T) {
	raw := "Here is the plan for the board.\n\n" +
		"```json\n" +
		`{"tasks":[{"title":"Build login page","lane":"Frontend","priority":"P1"},{"title":"Add auth endpoint","lane":"Backend","priority":"critical"}],"lanes":["Frontend","Backend"]}` +
		"\n```\n\nDependencies below.\n\n" +
		"```json\n" +
		`[{"from":"Build login page","to":"Add auth endpoint","kind":"depends"}]` +
		"\n```\n\nThat is everything."

	out := Normalize(raw)

	if len(out.Workplan.Tasks) != 2 {
		t.Fatalf("got %d tasks, want 2", len(out.Workplan.Tasks))
	}
	if out.Workplan.Tasks[0].Title != "Build login page" {
		t.Errorf("first task title = %q", out.Workplan.Tasks[0].Title)
	}
	if out.Workplan.Tasks[1].Priority != PriorityP0 {
		t.Errorf("'critical' should normalize to P0, got %s", out.Workplan.Tasks[1].Priority)
	}
	if !reflect.DeepEqual(out.Workplan.Lanes, []string{"Frontend", "Backend"}) {
		t.Errorf("lanes = %v", out.Workplan.Lanes)
	}

	if len(out.WorkflowEdges) != 1 {
		t.Fatalf("got %d edges, want 1", len(out.WorkflowEdges))
	}
	e := out.WorkflowEdges[0]
	if e.From != "Build login page" || e.To != "Add auth endpoint" || e.Kind != "depends" {
		t.Errorf("edge = %+v", e)
	}

	want := "Here is the plan for the board.\n\n\n\nDependencies below.\n\n\n\nThat is everything."
	if out.SummaryMD != want {
		t.Errorf("summary_md = %q, want %q", out.SummaryMD, want)
	}
}

func TestNormalize_EdgeBlockWithWrapperObject(t *testing.T) {
	raw := "```json\n" +
		`{"tasks":[{"title":"A"},{"title":"B"}]}` +
		"\n```\n```json\n" +
		`{"workflow_edges":[{"from":"A","to":"B"}]}` +
		"\n```"

	out := Normalize(raw)
	if len(out.WorkflowEdges) != 1 {
		t.Fatalf("got %d edges, want 1", len(out.WorkflowEdges))
	}
	if out.WorkflowEdges[0].From != "A" || out.WorkflowEdges[0].To != "B" {
		t.Errorf("edge = %+v", out.WorkflowEdges[0])
	}
}

func TestNormalize_MalformedBlockFallsBackPerField(t *testing.T) {
	raw := "Some prose.\n```json\nnot valid json at all\n```\nMore prose."
	out := Normalize(raw)

	if len(out.Workplan.Tasks) != 0 {
		t.Errorf("malformed workplan block should yield zero tasks, got %d", len(out.Workplan.Tasks))
	}
	if out.SummaryMD != "Some prose.\n\nMore prose." {
		t.Errorf("summary_md = %q", out.SummaryMD)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	in := AIOutput{
		SummaryMD: "summary",
		Workplan: Workplan{
			Tasks: []Task{
				{Title: "  Do the thing  ", Priority: "blocker"},
				{Title: "   "},
				{Title: "Second", Priority: "weird"},
			},
			Lanes: []string{"Frontend"},
		},
		WorkflowEdges: []WorkflowEdge{
			{From: " Do the thing ", To: "Second"},
			{From: "", To: "Second"},
		},
	}

	once := Normalize(in)
	twice := Normalize(once)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("normalize is not idempotent:\nonce:  %+v\ntwice: %+v", once, twice)
	}
}

func TestNormalize_TitleAndEdgeInvariants(t *testing.T) {
	in := AIOutput{
		Workplan: Workplan{Tasks: []Task{
			{Title: "  "},
			{Title: "\tkeep me\t"},
		}},
		WorkflowEdges: []WorkflowEdge{
			{From: "a", To: "  "},
			{From: "a", To: "b"},
		},
	}

	out := Normalize(in)
	for _, task := range out.Workplan.Tasks {
		if task.Title == "" || task.Title != trimmed(task.Title) {
			t.Errorf("task title %q violates non-empty-trimmed invariant", task.Title)
		}
	}
	if len(out.Workplan.Tasks) != 1 {
		t.Errorf("got %d tasks, want 1", len(out.Workplan.Tasks))
	}
	if len(out.WorkflowEdges) != 1 {
		t.Errorf("got %d edges, want 1", len(out.WorkflowEdges))
	}
}

func trimmed(s string) string {
	for len(s) > 0 && (s[0] == ' ' || s[0] == '\t') {
		s = s[1:]
	}
	for len(s) > 0 && (s[len(s)-1] == ' ' || s[len(s)-1] == '\t') {
		s = s[:len(s)-1]
	}
	return s
}

func TestNormalize_MapInput(t *testing.T) {
	m := map[string]any{
		"summary_md": " The summary ",
		"workplan": map[string]any{
			"tasks": []any{
				map[string]any{"title": "T1", "priority": float64(0), "dependsOn": []any{"T0", " "}},
			},
			"lanes": []any{"Backend"},
		},
		"workflow_edges": []any{
			map[string]any{"source": "T0", "target": "T1", "type": "blocks"},
		},
	}

	out := Normalize(m)
	if out.SummaryMD != "The summary" {
		t.Errorf("summary = %q", out.SummaryMD)
	}
	if len(out.Workplan.Tasks) != 1 {
		t.Fatalf("got %d tasks, want 1", len(out.Workplan.Tasks))
	}
	task := out.Workplan.Tasks[0]
	if task.Priority != PriorityP0 {
		t.Errorf("numeric priority 0 should map to P0, got %s", task.Priority)
	}
	if !reflect.DeepEqual(task.DependsOn, []string{"T0"}) {
		t.Errorf("dependsOn = %v", task.DependsOn)
	}
	if len(out.WorkflowEdges) != 1 || out.WorkflowEdges[0].Kind != "blocks" {
		t.Errorf("edges = %+v", out.WorkflowEdges)
	}
}

func TestNormalize_WorkPlanInput(t *testing.T) {
	wp := WorkPlan{
		Summary: "a plan",
		Steps: []Step{
			{ID: "s1", Text: " step one ", Owner: "kim", DueDate: "friday", Notes: "details"},
			{ID: "s2", Text: ""},
		},
	}

	out := Normalize(wp)
	if len(out.Workplan.Tasks) != 1 {
		t.Fatalf("got %d tasks, want 1", len(out.Workplan.Tasks))
	}
	task := out.Workplan.Tasks[0]
	if task.Title != "step one" || task.Owner != "kim" || task.ETA != "friday" || task.Description != "details" {
		t.Errorf("task = %+v", task)
	}
}

func TestNormalize_NilAndGarbage(t *testing.T) {
	for _, raw := range []any{nil, (*AIOutput)(nil), (*WorkPlan)(nil), 42, func() {}} {
		out := Normalize(raw)
		if out.Workplan.Tasks == nil || out.WorkflowEdges == nil {
			t.Errorf("Normalize(%T) returned nil collections", raw)
		}
		if len(out.Workplan.Tasks) != 0 {
			t.Errorf("Normalize(%T) invented tasks", raw)
		}
	}
}

func TestNormalizePriority_Tokens(t *testing.T) {
	cases := []struct {
		token string
		want  Priority
	}{
		{"P0", PriorityP0},
		{"p0", PriorityP0},
		{"0", PriorityP0},
		{"critical", PriorityP0},
		{"blocker", PriorityP0},
		{"must", PriorityP0},
		{"urgent", PriorityP0},
		{"P1", PriorityP1},
		{"1", PriorityP1},
		{"important", PriorityP1},
		{"high", PriorityP1},
		{"P2", PriorityP2},
		{"", PriorityP2},
		{"whenever", PriorityP2},
		{"  Critical  ", PriorityP0},
	}
	for _, tc := range cases {
		if got := NormalizePriority(tc.token); got != tc.want {
			t.Errorf("NormalizePriority(%q) = %s, want %s", tc.token, got, tc.want)
		}
	}
}
