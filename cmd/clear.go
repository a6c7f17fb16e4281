package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"ideawall/internal/wall"
)

var clearAll bool

var clearCmd = &cobra.Command{
	Use:   "clear <board>",
	Short: "Remove applied plan notes from the wall",
	Long:  "Removes AI-generated notes and edges from a board. With --all, removes every note and edge; the transcript is always preserved.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		boardID := args[0]

		s, _, err := OpenStore()
		if err != nil {
			return err
		}
		defer s.Close()

		rec := wall.NewReconciler(s, logger)
		if clearAll {
			if err := rec.ClearWall(boardID); err != nil {
				return err
			}
			fmt.Printf("Cleared all notes and edges from board %s\n", boardID)
			return nil
		}
		if err := rec.ClearApplied(boardID); err != nil {
			return err
		}
		fmt.Printf("Cleared applied plan notes from board %s\n", boardID)
		return nil
	},
}

func init() {
	clearCmd.Flags().BoolVar(&clearAll, "all", false, "Clear every note and edge, not just applied ones")
	rootCmd.AddCommand(clearCmd)
}
