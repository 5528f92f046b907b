package main

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/aretw0/branchtale/internal/cli"
	"github.com/aretw0/branchtale/internal/logging"
	"github.com/aretw0/branchtale/internal/presentation/tui"
	"github.com/aretw0/branchtale/pkg/persistence/middleware"
	"github.com/aretw0/branchtale/pkg/ports"
	"github.com/spf13/cobra"
)

var transcriptsCmd = &cobra.Command{
	Use:     "transcripts",
	Aliases: []string{"tr"},
	Short:   "Manage archived playthroughs",
	Long: `List, inspect, remove and replay finished sessions kept in the transcript store
selected by --store (or BRANCHTALE_STORE).`,
}

var transcriptsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List archived sessions, most recent first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(s ports.TranscriptStore) error {
			ids, err := s.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("error listing transcripts: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(ids) == 0 {
				fmt.Fprintln(out, "No transcripts found.")
				return nil
			}

			fmt.Fprintln(out, "Transcripts:")
			for _, id := range ids {
				tr, err := s.Load(cmd.Context(), id)
				if err != nil {
					fmt.Fprintf(out, "- %s (unreadable: %v)\n", id, err)
					continue
				}
				fmt.Fprintf(out, "- %s  %-13s %s  %d turn(s)\n", id, tr.Outcome, tr.EndedAt.Format("2006-01-02 15:04:05"), len(tr.Inputs))
			}
			return nil
		})
	},
}

var transcriptsShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Print an archived session as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(s ports.TranscriptStore) error {
			tr, err := s.Load(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("error loading transcript '%s': %w", args[0], err)
			}

			// Pretty print JSON
			data, err := json.MarshalIndent(tr, "", "  ")
			if err != nil {
				return fmt.Errorf("error marshaling transcript: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		})
	},
}

var transcriptsRmCmd = &cobra.Command{
	Use:   "rm <session-id>...",
	Short: "Remove one or more transcripts",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(s ports.TranscriptStore) error {
			failed := 0
			for _, id := range args {
				if err := s.Delete(cmd.Context(), id); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Error removing '%s': %v\n", id, err)
					failed++
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed transcript '%s'\n", id)
			}
			if failed > 0 {
				return fmt.Errorf("%d transcript(s) could not be removed", failed)
			}
			return nil
		})
	},
}

var transcriptsReplayCmd = &cobra.Command{
	Use:   "replay <session-id> [story]",
	Short: "Re-run an archived session and check it reaches the same ending",
	Long: `Re-run an archived session on the story and check it reaches the same ending.

Transcripts archived with BRANCHTALE_REDACT_PATTERNS may hold masked inputs
that can no longer be replayed. Those are reported and not verified.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		eng, err := cli.NewEngine(ctx, cli.EngineOptions{StoryPath: storyPath(args[1:])}, logging.NewNop())
		if err != nil {
			return err
		}

		return withStore(func(s ports.TranscriptStore) error {
			tr, err := s.Load(ctx, args[0])
			if err != nil {
				return fmt.Errorf("error loading transcript '%s': %w", args[0], err)
			}
			if tr.StoryID != eng.Story().ID {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: transcript was recorded on story '%s', replaying on '%s'\n", tr.StoryID, eng.Story().ID)
			}

			if slices.Contains(tr.Inputs, middleware.Redacted) {
				fmt.Fprintf(cmd.OutOrStdout(), "Transcript '%s' has redacted inputs %v; replay skipped.\n", tr.SessionID, tr.Inputs)
				return nil
			}

			sess, err := eng.Verify(ctx, tr)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %v -> %s\n", tui.OutcomeBadge(sess.Result.Outcome), sess.Inputs, sess.CurrentNodeID)
			fmt.Fprintln(cmd.OutOrStdout(), "Replay matches the archive.")
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(transcriptsCmd)
	transcriptsCmd.AddCommand(transcriptsLsCmd)
	transcriptsCmd.AddCommand(transcriptsShowCmd)
	transcriptsCmd.AddCommand(transcriptsRmCmd)
	transcriptsCmd.AddCommand(transcriptsReplayCmd)
}

// withStore opens the configured store for the duration of fn.
func withStore(fn func(ports.TranscriptStore) error) error {
	store, closeStore, err := cli.OpenStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	return fn(store)
}
