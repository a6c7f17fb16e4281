package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"ideawall/internal/store"
)

var (
	transcriptLang       string
	transcriptConfidence float64
	transcriptWindow     time.Duration
)

var transcriptCmd = &cobra.Command{
	Use:   "transcript",
	Short: "Manage the board transcript",
}

var transcriptAddCmd = &cobra.Command{
	Use:   "add <board> <text>",
	Short: "Append a segment to the board transcript",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, _, err := OpenStore()
		if err != nil {
			return err
		}
		defer s.Close()

		id, err := s.AppendTranscript(store.TranscriptEntry{
			BoardID:    args[0],
			Text:       strings.Join(args[1:], " "),
			Lang:       transcriptLang,
			Confidence: transcriptConfidence,
		})
		if err != nil {
			return err
		}
		fmt.Println(id)
		return nil
	},
}

var transcriptShowCmd = &cobra.Command{
	Use:   "show <board>",
	Short: "Print the board transcript, oldest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, _, err := OpenStore()
		if err != nil {
			return err
		}
		defer s.Close()

		var entries []store.TranscriptEntry
		if transcriptWindow > 0 {
			since := time.Now().Add(-transcriptWindow).UnixMilli()
			entries, err = s.TranscriptSince(args[0], since)
		} else {
			entries, err = s.TranscriptForBoard(args[0])
		}
		if err != nil {
			return err
		}
		for _, e := range entries {
			ts := time.UnixMilli(e.Ts).Format("15:04:05")
			fmt.Printf("%s  %s\n", ts, e.Text)
		}
		return nil
	},
}

func init() {
	transcriptAddCmd.Flags().StringVar(&transcriptLang, "lang", "en", "Segment language")
	transcriptAddCmd.Flags().Float64Var(&transcriptConfidence, "confidence", 1.0, "Recognition confidence")
	transcriptShowCmd.Flags().DurationVar(&transcriptWindow, "window", 0, "Only show segments within this window")

	transcriptCmd.AddCommand(transcriptAddCmd, transcriptShowCmd)
	rootCmd.AddCommand(transcriptCmd)
}
