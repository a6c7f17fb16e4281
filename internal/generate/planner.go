package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ideawall/internal/plan"
)

// DefaultTimeout bounds one upstream model call. Past it the call is
// abandoned and its result discarded, and the heuristic path takes over.
const DefaultTimeout = 25 * time.Second

// Planner implements the plan-generator contract over an optional model
// backend. Every operation returns a usable result even without a key.
type Planner struct {
	backend  Backend
	keywords plan.Keywords
	timeout  time.Duration
	log      *zap.Logger
}

// NewPlanner builds a planner. backend may be nil (heuristics only).
func NewPlanner(backend Backend, kw plan.Keywords, timeout time.Duration, log *zap.Logger) *Planner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Planner{backend: backend, keywords: kw, timeout: timeout, log: log}
}

// HasBackendKey reports whether a remote model credential is configured.
func (p *Planner) HasBackendKey() bool {
	return p.backend != nil && p.backend.HasKey()
}

const planPromptHeader = `You are a planning assistant for a collaborative idea wall.
From the discussion transcript below, produce a prioritized work plan.

Respond with exactly two fenced json blocks followed by a short markdown summary:
1. A workplan object: {"tasks":[{"id","title","description","owner","eta","priority","lane","dependsOn"}],"lanes":["..."]}
   priority is one of P0, P1, P2. lane names must come from the lanes list.
2. A workflow edges array: [{"from":"<task id or title>","to":"<task id or title>","kind":"blocks|follows|verifies|depends"}]

Transcript:
`

// GenerateOutput produces the canonical plan for a transcript, preferring
// the model backend and degrading to the heuristic deriver when the backend
// is missing, times out, fails, or returns nothing usable. It never fails.
func (p *Planner) GenerateOutput(ctx context.Context, text string) (plan.AIOutput, float64) {
	if p.HasBackendKey() {
		out, err := p.GenerateRemote(ctx, text)
		if err == nil && len(out.Workplan.Tasks) > 0 {
			return out, 0.9
		}
		if err != nil {
			p.log.Warn("model plan generation failed, falling back to heuristics", zap.Error(err))
		} else {
			p.log.Warn("model returned no usable tasks, falling back to heuristics")
		}
	}
	return localOutput(text, p.keywords), HeuristicConfidence
}

// GenerateRemote runs the model call without the heuristic fallback. Used by
// the HTTP surface, which reports upstream failures instead of hiding them.
func (p *Planner) GenerateRemote(ctx context.Context, text string) (plan.AIOutput, error) {
	if !p.HasBackendKey() {
		return plan.AIOutput{}, ErrNoBackendKey
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	raw, err := p.backend.Generate(ctx, planPromptHeader+text)
	if err != nil {
		return plan.AIOutput{}, err
	}
	return plan.NormalizeText(raw), nil
}

// CreatePlanFromTranscript generates a fresh WorkPlan from transcript text.
func (p *Planner) CreatePlanFromTranscript(ctx context.Context, text string) (plan.WorkPlan, error) {
	out, _ := p.GenerateOutput(ctx, text)
	return WorkPlanFromOutput(out, 1), nil
}

// RefinePlan applies a user instruction to an existing plan. With a backend
// the model rewrites the plan; without one, tasks derived from the
// instruction are appended. Either way the version is bumped.
func (p *Planner) RefinePlan(ctx context.Context, wp plan.WorkPlan, userPrompt string) (plan.WorkPlan, error) {
	if p.HasBackendKey() {
		encoded, err := json.Marshal(wp)
		if err == nil {
			prompt := fmt.Sprintf(`Refine the work plan below according to the instruction.
Respond with one fenced json block holding the updated workplan object
({"tasks":[...],"lanes":[...]}) and nothing else.

Instruction: %s

Current plan:
%s
`, userPrompt, string(encoded))

			callCtx, cancel := context.WithTimeout(ctx, p.timeout)
			raw, err := p.backend.Generate(callCtx, prompt)
			cancel()
			if err == nil {
				out := plan.NormalizeText(raw)
				if len(out.Workplan.Tasks) > 0 {
					refined := WorkPlanFromOutput(out, wp.Version+1)
					refined.Title = wp.Title
					return refined, nil
				}
			} else {
				p.log.Warn("model refine failed, falling back to local refine", zap.Error(err))
			}
		}
	}

	// Local refine: derive tasks from the instruction and append.
	for _, d := range plan.DeriveWithKeywords(userPrompt, plan.DefaultMaxTasks, p.keywords) {
		wp.Steps = append(wp.Steps, plan.Step{
			ID:     d.ID,
			Text:   d.Title,
			Status: plan.StatusTodo,
		})
	}
	wp.Version++
	wp.UpdatedAt = time.Now().UnixMilli()
	return wp, nil
}

// SummarizePlan renders a markdown summary of a plan. forceLocal skips the
// model even when a key is configured.
func (p *Planner) SummarizePlan(ctx context.Context, wp plan.WorkPlan, forceLocal bool) (string, error) {
	if !forceLocal && p.HasBackendKey() {
		encoded, err := json.Marshal(wp)
		if err == nil {
			prompt := "Summarize this work plan as short markdown (a heading plus bullets). " +
				"Respond with markdown only.\n\n" + string(encoded)

			callCtx, cancel := context.WithTimeout(ctx, p.timeout)
			raw, err := p.backend.Generate(callCtx, prompt)
			cancel()
			if err == nil && strings.TrimSpace(raw) != "" {
				return strings.TrimSpace(raw), nil
			}
			if err != nil {
				p.log.Warn("model summarize failed, falling back to local summary", zap.Error(err))
			}
		}
	}
	return planSummary(wp), nil
}

// Transcribe forwards audio to the backend.
func (p *Planner) Transcribe(ctx context.Context, data []byte, mimeType string) (Transcription, error) {
	if p.backend == nil {
		return Transcription{}, ErrNoBackendKey
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.backend.Transcribe(ctx, data, mimeType)
}

// WorkPlanFromOutput converts a canonical AIOutput into the generator's
// native WorkPlan shape.
func WorkPlanFromOutput(out plan.AIOutput, version int) plan.WorkPlan {
	wp := plan.WorkPlan{
		Title:     "Idea Wall Plan",
		Summary:   out.SummaryMD,
		UpdatedAt: time.Now().UnixMilli(),
		Version:   version,
	}
	for _, t := range out.Workplan.Tasks {
		id := t.ID
		if id == "" {
			id = uuid.NewString()
		}
		wp.Steps = append(wp.Steps, plan.Step{
			ID:      id,
			Text:    t.Title,
			Status:  plan.StatusTodo,
			Owner:   t.Owner,
			DueDate: t.ETA,
			Notes:   t.Description,
		})
	}
	return wp
}
