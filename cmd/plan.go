package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ideawall/internal/generate"
	"ideawall/internal/plan"
	"ideawall/internal/store"
)

var (
	planWindow  time.Duration
	planRefine  string
	planSummary bool
	planJSON    bool
)

var planCmd = &cobra.Command{
	Use:   "plan <board>",
	Short: "Generate or refine a work plan from the board transcript",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		boardID := args[0]

		s, cfg, err := OpenStore()
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		planner, err := NewPlanner(ctx, cfg)
		if err != nil {
			return err
		}

		out, confidence, err := runPlan(ctx, s, planner, boardID)
		if err != nil {
			return err
		}

		if _, err := s.PutAIOutput(boardID, out); err != nil {
			return fmt.Errorf("persisting plan: %w", err)
		}

		if planJSON {
			data, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		}

		fmt.Println(out.SummaryMD)
		if planSummary {
			return nil
		}

		fmt.Printf("\nTasks (confidence %.1f):\n", confidence)
		for _, t := range out.Workplan.Tasks {
			owner := ""
			if t.Owner != "" {
				owner = " @" + t.Owner
			}
			fmt.Printf("  [%s] %-8s %s%s\n", t.Priority, t.Lane, t.Title, owner)
		}
		if len(out.WorkflowEdges) > 0 {
			fmt.Println("\nWorkflow:")
			for _, e := range out.WorkflowEdges {
				kind := e.Kind
				if kind == "" {
					kind = "follows"
				}
				fmt.Printf("  %s -%s-> %s\n", e.From, kind, e.To)
			}
		}
		return nil
	},
}

func runPlan(ctx context.Context, s *store.Store, planner *generate.Planner, boardID string) (out plan.AIOutput, confidence float64, err error) {
	if planRefine != "" {
		latest, err := s.LatestAIOutput(boardID)
		if err != nil {
			return out, 0, err
		}
		if latest == nil {
			return out, 0, fmt.Errorf("board %s has no plan to refine", boardID)
		}
		wp := generate.WorkPlanFromOutput(*latest, 1)
		refined, err := planner.RefinePlan(ctx, wp, planRefine)
		if err != nil {
			return out, 0, fmt.Errorf("refining plan: %w", err)
		}
		return plan.Normalize(refined), 0.9, nil
	}

	since := time.Now().Add(-planWindow).UnixMilli()
	entries, err := s.TranscriptSince(boardID, since)
	if err != nil {
		return out, 0, err
	}
	texts := make([]string, 0, len(entries))
	for _, e := range entries {
		texts = append(texts, e.Text)
	}
	transcript := strings.Join(texts, "\n")
	if strings.TrimSpace(transcript) == "" {
		logger.Warn("empty transcript window", zap.String("board", boardID))
	}

	out, confidence = planner.GenerateOutput(ctx, transcript)
	return out, confidence, nil
}

func init() {
	planCmd.Flags().DurationVar(&planWindow, "window", 10*time.Minute, "Transcript window to plan from")
	planCmd.Flags().StringVar(&planRefine, "refine", "", "Refine the latest plan with this instruction")
	planCmd.Flags().BoolVar(&planSummary, "summary", false, "Print only the plan summary")
	planCmd.Flags().BoolVar(&planJSON, "json", false, "Print the full plan as JSON")
	rootCmd.AddCommand(planCmd)
}
