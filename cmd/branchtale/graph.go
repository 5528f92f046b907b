package main

import (
	"context"
	"fmt"

	"github.com/aretw0/branchtale/internal/cli"
	"github.com/aretw0/branchtale/internal/logging"
	"github.com/aretw0/branchtale/internal/presentation/graph"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph [story]",
	Short: "Export the story graph visualization",
	Long: `Outputs a Mermaid diagram (graph TD) of the story. With --transcript, the path
of an archived playthrough is highlighted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		eng, err := cli.NewEngine(ctx, cli.EngineOptions{StoryPath: storyPath(args)}, logging.NewNop())
		if err != nil {
			return err
		}

		var overlay *graph.GraphOverlay
		if id, _ := cmd.Flags().GetString("transcript"); id != "" {
			store, closeStore, err := cli.OpenStore(cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			tr, err := store.Load(ctx, id)
			if err != nil {
				return err
			}
			overlay = graph.OverlayFromTranscript(eng.Story(), tr)
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(eng.Story(), overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("transcript", "", "Highlight the path of an archived session")
}
