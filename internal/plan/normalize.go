package plan

import (
	"encoding/json"
	"regexp"
	"strings"
)

// fencedBlockRe matches a markdown fenced code block with an optional language
// tag. The (?s) flag enables dot-all mode; the body match is non-greedy so
// multiple blocks in one document are extracted in order.
var fencedBlockRe = regexp.MustCompile("(?s)```[a-zA-Z0-9_-]*[ \t]*\r?\n?(.*?)```")

// Normalize converts heterogeneous plan-generator output into the canonical
// AIOutput shape. It never fails: missing or malformed fields are replaced
// with their empty defaults.
func Normalize(raw any) AIOutput {
	switch v := raw.(type) {
	case nil:
		return emptyOutput()
	case AIOutput:
		return normalizeOutput(v)
	case *AIOutput:
		if v == nil {
			return emptyOutput()
		}
		return normalizeOutput(*v)
	case WorkPlan:
		return fromWorkPlan(v)
	case *WorkPlan:
		if v == nil {
			return emptyOutput()
		}
		return fromWorkPlan(*v)
	case string:
		return NormalizeText(v)
	case []byte:
		return NormalizeText(string(v))
	case map[string]any:
		return fromMap(v)
	default:
		// Last resort: round-trip through JSON and retry as a map.
		data, err := json.Marshal(raw)
		if err != nil {
			return emptyOutput()
		}
		var m map[string]any
		if err := json.Unmarshal(data, &m); err != nil {
			return emptyOutput()
		}
		return fromMap(m)
	}
}

// NormalizeText extracts structured plan data from model prose. Fenced code
// blocks are pulled out in document order: the first block is treated as the
// work-plan object, the second (if present) as the workflow-edges array or an
// object carrying a workflow_edges key. The prose left after stripping all
// fenced blocks becomes summary_md. A block that fails to parse contributes
// its field's empty default instead of failing the whole call.
func NormalizeText(raw string) AIOutput {
	out := emptyOutput()

	matches := fencedBlockRe.FindAllStringSubmatch(raw, -1)

	if len(matches) > 0 {
		var m map[string]any
		if err := json.Unmarshal([]byte(matches[0][1]), &m); err == nil {
			parsed := fromMap(m)
			out.Workplan = parsed.Workplan
			if len(parsed.WorkflowEdges) > 0 {
				out.WorkflowEdges = parsed.WorkflowEdges
			}
		}
	}

	if len(matches) > 1 {
		if edges, ok := parseEdgeBlock(matches[1][1]); ok {
			out.WorkflowEdges = edges
		}
	}

	out.SummaryMD = strings.TrimSpace(fencedBlockRe.ReplaceAllString(raw, ""))
	return out
}

// parseEdgeBlock parses a fenced block that is either a bare JSON array of
// edges or an object containing a workflow_edges key.
func parseEdgeBlock(body string) ([]WorkflowEdge, bool) {
	var arr []any
	if err := json.Unmarshal([]byte(body), &arr); err == nil {
		return edgesFromList(arr), true
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(body), &obj); err == nil {
		if list, ok := obj["workflow_edges"].([]any); ok {
			return edgesFromList(list), true
		}
	}
	return nil, false
}

func emptyOutput() AIOutput {
	return AIOutput{
		Workplan:      Workplan{Tasks: []Task{}},
		WorkflowEdges: []WorkflowEdge{},
	}
}

// normalizeOutput re-applies the output invariants to an already-shaped
// AIOutput: priorities clamped to the closed set, empty titles and empty edge
// endpoints dropped. Running it on its own output is a no-op.
func normalizeOutput(in AIOutput) AIOutput {
	out := emptyOutput()
	out.SummaryMD = in.SummaryMD
	out.Workplan.Lanes = in.Workplan.Lanes

	for _, t := range in.Workplan.Tasks {
		t.Title = strings.TrimSpace(t.Title)
		if t.Title == "" {
			continue
		}
		t.Priority = NormalizePriority(string(t.Priority))
		out.Workplan.Tasks = append(out.Workplan.Tasks, t)
	}

	for _, e := range in.WorkflowEdges {
		e.From = strings.TrimSpace(e.From)
		e.To = strings.TrimSpace(e.To)
		if e.From == "" || e.To == "" {
			continue
		}
		out.WorkflowEdges = append(out.WorkflowEdges, e)
	}
	return out
}

// fromWorkPlan converts the generator's native WorkPlan into an AIOutput.
// Steps become tasks; there is no lane or edge information to carry over.
func fromWorkPlan(wp WorkPlan) AIOutput {
	out := emptyOutput()
	out.SummaryMD = strings.TrimSpace(wp.Summary)
	for _, s := range wp.Steps {
		title := strings.TrimSpace(s.Text)
		if title == "" {
			continue
		}
		out.Workplan.Tasks = append(out.Workplan.Tasks, Task{
			ID:          s.ID,
			Title:       title,
			Description: s.Notes,
			Owner:       s.Owner,
			ETA:         s.DueDate,
			Priority:    PriorityP2,
		})
	}
	return out
}

// fromMap interprets a decoded JSON object. Accepts both the canonical shape
// ({summary_md, workplan:{tasks,lanes}, workflow_edges}) and a bare workplan
// object ({tasks, lanes}).
func fromMap(m map[string]any) AIOutput {
	out := emptyOutput()
	out.SummaryMD = strings.TrimSpace(stringField(m, "summary_md", "summary"))

	wp := m
	if inner, ok := m["workplan"].(map[string]any); ok {
		wp = inner
	}

	if tasks, ok := wp["tasks"].([]any); ok {
		for _, raw := range tasks {
			tm, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			title := strings.TrimSpace(stringField(tm, "title", "text", "name"))
			if title == "" {
				continue
			}
			task := Task{
				ID:          stringField(tm, "id"),
				Title:       title,
				Description: stringField(tm, "description", "notes"),
				Owner:       stringField(tm, "owner"),
				ETA:         stringField(tm, "eta", "dueDate"),
				Priority:    normalizePriorityValue(tm["priority"]),
				Lane:        strings.TrimSpace(stringField(tm, "lane")),
			}
			if deps, ok := tm["dependsOn"].([]any); ok {
				for _, d := range deps {
					if s, ok := d.(string); ok && strings.TrimSpace(s) != "" {
						task.DependsOn = append(task.DependsOn, strings.TrimSpace(s))
					}
				}
			}
			out.Workplan.Tasks = append(out.Workplan.Tasks, task)
		}
	}

	if lanes, ok := wp["lanes"].([]any); ok {
		for _, l := range lanes {
			if s, ok := l.(string); ok && strings.TrimSpace(s) != "" {
				out.Workplan.Lanes = append(out.Workplan.Lanes, strings.TrimSpace(s))
			}
		}
	}

	if list, ok := m["workflow_edges"].([]any); ok {
		out.WorkflowEdges = edgesFromList(list)
	}

	return out
}

// edgesFromList converts a decoded JSON array into workflow edges, dropping
// entries whose endpoints are empty after trimming.
func edgesFromList(list []any) []WorkflowEdge {
	edges := []WorkflowEdge{}
	for _, raw := range list {
		em, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		from := strings.TrimSpace(stringField(em, "from", "source"))
		to := strings.TrimSpace(stringField(em, "to", "target"))
		if from == "" || to == "" {
			continue
		}
		edges = append(edges, WorkflowEdge{
			From: from,
			To:   to,
			Kind: strings.TrimSpace(stringField(em, "kind", "type")),
		})
	}
	return edges
}

// stringField returns the first present string value among the given keys.
func stringField(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok {
			return s
		}
	}
	return ""
}

// NormalizePriority maps a free-form priority token onto the closed set
// {P0, P1, P2}. Unknown or empty tokens default to P2.
func NormalizePriority(token string) Priority {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "p0", "0", "critical", "blocker", "must", "urgent":
		return PriorityP0
	case "p1", "1", "important", "high":
		return PriorityP1
	default:
		return PriorityP2
	}
}

// normalizePriorityValue handles priorities decoded from JSON, where the
// value may be a string token or a bare number.
func normalizePriorityValue(v any) Priority {
	switch p := v.(type) {
	case string:
		return NormalizePriority(p)
	case float64:
		switch int(p) {
		case 0:
			return PriorityP0
		case 1:
			return PriorityP1
		default:
			return PriorityP2
		}
	default:
		return PriorityP2
	}
}
