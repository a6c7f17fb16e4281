package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ideawall/internal/store"
)

var (
	noteColor string
	noteShape string
	noteSize  float64
	voteDelta int
)

var noteCmd = &cobra.Command{
	Use:   "note",
	Short: "Manage sticky notes on a board",
}

var noteAddCmd = &cobra.Command{
	Use:   "add <board> <text>",
	Short: "Add a sticky note to a board",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		boardID := args[0]
		text := strings.Join(args[1:], " ")

		s, _, err := OpenStore()
		if err != nil {
			return err
		}
		defer s.Close()

		id, err := s.AddNote(store.Note{
			BoardID: boardID,
			Text:    text,
			Color:   noteColor,
			Shape:   noteShape,
			Size:    noteSize,
		})
		if err != nil {
			return err
		}
		fmt.Println(id)
		return nil
	},
}

var noteListCmd = &cobra.Command{
	Use:   "list <board>",
	Short: "List notes on a board, top-voted first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, _, err := OpenStore()
		if err != nil {
			return err
		}
		defer s.Close()

		notes, err := s.TopVotedNotes(args[0], 0)
		if err != nil {
			return err
		}
		if len(notes) == 0 {
			fmt.Println("No notes.")
			return nil
		}
		for _, n := range notes {
			tag := ""
			if n.AIGenerated {
				tag = " [ai]"
			}
			fmt.Printf("%s  %+d  %s%s\n", shortID(n.ID), n.Votes, firstLine(n.Text), tag)
		}
		return nil
	},
}

var noteVoteCmd = &cobra.Command{
	Use:   "vote <note-id>",
	Short: "Vote a note up or down",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, _, err := OpenStore()
		if err != nil {
			return err
		}
		defer s.Close()
		return s.Vote(args[0], voteDelta)
	},
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func firstLine(text string) string {
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		return text[:i]
	}
	return text
}

func init() {
	noteAddCmd.Flags().StringVar(&noteColor, "color", "#FFE066", "Note color")
	noteAddCmd.Flags().StringVar(&noteShape, "shape", "square", "Note shape")
	noteAddCmd.Flags().Float64Var(&noteSize, "size", 0.18, "Note size in meters")
	noteVoteCmd.Flags().IntVar(&voteDelta, "delta", 1, "Vote delta (negative to downvote)")

	noteCmd.AddCommand(noteAddCmd, noteListCmd, noteVoteCmd)
	rootCmd.AddCommand(noteCmd)
}
