package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"ideawall/internal/layout"
	"ideawall/internal/scene"
	"ideawall/internal/wall"
)

var (
	applyAt         string
	applyClearFirst bool
)

var applyCmd = &cobra.Command{
	Use:   "apply <board>",
	Short: "Materialize the latest plan onto the wall as notes and edges",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		boardID := args[0]

		s, cfg, err := OpenStore()
		if err != nil {
			return err
		}
		defer s.Close()

		latest, err := s.LatestAIOutput(boardID)
		if err != nil {
			return err
		}
		if latest == nil {
			return fmt.Errorf("board %s has no plan to apply (run 'ideawall plan' first)", boardID)
		}

		sc := scene.NewHeadless(boardID, s, logger)
		if err := sc.Start(cmd.Context()); err != nil {
			return fmt.Errorf("starting scene: %w", err)
		}
		if applyAt != "" {
			t, err := parseTransform(applyAt)
			if err != nil {
				return err
			}
			sc.PlaceBoard(t)
		}

		if applyClearFirst {
			if err := wall.NewReconciler(s, logger).ClearApplied(boardID); err != nil {
				return fmt.Errorf("clearing applied notes: %w", err)
			}
		}

		applier := wall.NewApplier(s, logger, cfg.Wall, cfg.Layout)
		if err := applier.Apply(boardID, sc.BoardTransform(), *latest); err != nil {
			switch {
			case errors.Is(err, wall.ErrNoTasks):
				return fmt.Errorf("latest plan for board %s has no tasks", boardID)
			case errors.Is(err, wall.ErrBoardNotPlaced):
				return fmt.Errorf("board %s is not placed (pass --at x,y,z)", boardID)
			}
			return err
		}

		notes, err := s.NotesForBoard(boardID)
		if err != nil {
			return err
		}
		fmt.Printf("Applied plan to board %s (%d notes on wall)\n", boardID, len(notes))
		return nil
	},
}

// parseTransform reads a "x,y,z" triple into an identity-oriented transform.
func parseTransform(raw string) (layout.Transform, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 3 {
		return layout.Transform{}, fmt.Errorf("expected --at x,y,z, got %q", raw)
	}
	var coords [3]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return layout.Transform{}, fmt.Errorf("parsing --at component %q: %w", p, err)
		}
		coords[i] = v
	}
	return layout.Transform{
		Position:    layout.Vec3{X: coords[0], Y: coords[1], Z: coords[2]},
		Orientation: layout.IdentityQuaternion(),
	}, nil
}

func init() {
	applyCmd.Flags().StringVar(&applyAt, "at", "", "Board transform as x,y,z world coordinates")
	applyCmd.Flags().BoolVar(&applyClearFirst, "clear-first", false, "Clear previously applied notes before applying")
	rootCmd.AddCommand(applyCmd)
}
