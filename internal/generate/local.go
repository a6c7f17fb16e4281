package generate

import (
	"fmt"
	"strings"

	"ideawall/internal/plan"
)

// HeuristicConfidence is reported for plans produced without a model.
const HeuristicConfidence = 0.4

// localOutput derives a canonical AIOutput directly from transcript text
// using the keyword heuristics. Lanes appear in first-use order.
func localOutput(text string, kw plan.Keywords) plan.AIOutput {
	derived := plan.DeriveWithKeywords(text, plan.DefaultMaxTasks, kw)

	out := plan.AIOutput{
		Workplan:      plan.Workplan{Tasks: []plan.Task{}},
		WorkflowEdges: []plan.WorkflowEdge{},
	}

	laneSeen := make(map[string]bool)
	for _, d := range derived {
		if !laneSeen[d.Lane] {
			laneSeen[d.Lane] = true
			out.Workplan.Lanes = append(out.Workplan.Lanes, d.Lane)
		}
		out.Workplan.Tasks = append(out.Workplan.Tasks, plan.Task{
			ID:       d.ID,
			Title:    d.Title,
			Lane:     d.Lane,
			Priority: prioLabel(d.Prio),
		})
	}

	out.SummaryMD = localSummary(out.Workplan.Tasks)
	return out
}

// localSummary renders a short markdown digest of the task list.
func localSummary(tasks []plan.Task) string {
	if len(tasks) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("## Plan (%d tasks, derived from transcript)\n\n", len(tasks)))
	for _, t := range tasks {
		b.WriteString(fmt.Sprintf("- **[%s]** %s", t.Priority, t.Title))
		if t.Lane != "" {
			b.WriteString(" _(" + t.Lane + ")_")
		}
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}

// planSummary renders a markdown digest of a WorkPlan's steps, used for
// local summarization.
func planSummary(wp plan.WorkPlan) string {
	var b strings.Builder
	title := wp.Title
	if title == "" {
		title = "Work Plan"
	}
	b.WriteString("## " + title + "\n\n")
	for _, s := range wp.Steps {
		mark := " "
		switch s.Status {
		case plan.StatusDone:
			mark = "x"
		case plan.StatusDoing:
			mark = "~"
		}
		b.WriteString(fmt.Sprintf("- [%s] %s", mark, s.Text))
		if s.Owner != "" {
			b.WriteString(" — " + s.Owner)
		}
		if s.DueDate != "" {
			b.WriteString(" (due " + s.DueDate + ")")
		}
		b.WriteString("\n")
	}
	if wp.Summary != "" {
		b.WriteString("\n" + wp.Summary + "\n")
	}
	return strings.TrimSpace(b.String())
}

func prioLabel(prio int) plan.Priority {
	switch prio {
	case 0:
		return plan.PriorityP0
	case 1:
		return plan.PriorityP1
	default:
		return plan.PriorityP2
	}
}
