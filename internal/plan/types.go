package plan

// Priority is the closed priority set for normalized tasks.
type Priority string

const (
	PriorityP0 Priority = "P0"
	PriorityP1 Priority = "P1"
	PriorityP2 Priority = "P2"
)

// Rank returns the sort rank for a priority (P0 first).
func (p Priority) Rank() int {
	switch p {
	case PriorityP0:
		return 0
	case PriorityP1:
		return 1
	default:
		return 2
	}
}

// StepStatus is the lifecycle state of a WorkPlan step.
type StepStatus string

const (
	StatusTodo  StepStatus = "todo"
	StatusDoing StepStatus = "doing"
	StatusDone  StepStatus = "done"
)

// Step is a single entry in a WorkPlan.
type Step struct {
	ID      string     `json:"id"`
	Text    string     `json:"text"`
	Status  StepStatus `json:"status"`
	Owner   string     `json:"owner,omitempty"`
	DueDate string     `json:"dueDate,omitempty"`
	Notes   string     `json:"notes,omitempty"`
}

// WorkPlan is the plan generator's native shape: a title plus ordered steps.
type WorkPlan struct {
	Title     string `json:"title"`
	Steps     []Step `json:"steps"`
	Summary   string `json:"summary"`
	UpdatedAt int64  `json:"updatedAt"` // Unix millis
	Version   int    `json:"version"`
}

// Task is one normalized work item inside an AIOutput.
type Task struct {
	ID          string   `json:"id,omitempty"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Owner       string   `json:"owner,omitempty"`
	ETA         string   `json:"eta,omitempty"`
	Priority    Priority `json:"priority,omitempty"`
	Lane        string   `json:"lane,omitempty"`
	DependsOn   []string `json:"dependsOn,omitempty"`
}

// WorkflowEdge is a directed dependency between two tasks, referenced by
// task id or task title. Resolution happens at apply time.
type WorkflowEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
	Kind string `json:"kind,omitempty"`
}

// Workplan groups the tasks and lane declarations of an AIOutput.
type Workplan struct {
	Tasks []Task   `json:"tasks"`
	Lanes []string `json:"lanes,omitempty"`
}

// AIOutput is the canonical plan representation: the sole artifact persisted
// as "the latest AI output" for a board and the sole input to the wall applier.
type AIOutput struct {
	SummaryMD     string         `json:"summary_md"`
	Workplan      Workplan       `json:"workplan"`
	WorkflowEdges []WorkflowEdge `json:"workflow_edges"`
}

// Lane labels used by the heuristic deriver.
const (
	LaneFrontend = "Frontend"
	LaneBackend  = "Backend"
)

// DerivedTask is the heuristic deriver's intermediate shape. Transient:
// it exists only within one derivation call and is never persisted.
type DerivedTask struct {
	ID    string
	Title string
	Lane  string // LaneFrontend or LaneBackend
	Prio  int    // 0, 1, or 2
}
