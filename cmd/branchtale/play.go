package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/branchtale/internal/cli"
	"github.com/spf13/cobra"
)

var playCmd = &cobra.Command{
	Use:   "play [story]",
	Short: "Play a story in the terminal",
	Long: `Plays one session of the story. Each prompt lists its choices; type the key
of a choice (case-insensitive). Anything else ends the story with INVALID_INPUT.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonMode, _ := cmd.Flags().GetBool("json")
		watchMode, _ := cmd.Flags().GetBool("watch")
		timeout, _ := cmd.Flags().GetDuration("timeout")
		sessionID, _ := cmd.Flags().GetString("session")
		start, _ := cmd.Flags().GetString("start")
		debug, _ := cmd.Flags().GetBool("debug")

		if !cmd.Flags().Changed("timeout") {
			timeout = cfg.TurnTimeout
		}

		store, closeStore, err := cli.OpenStore(cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return cli.Execute(ctx, cli.RunOptions{
			EngineOptions: cli.EngineOptions{
				StoryPath: storyPath(args),
				StartNode: start,
				Debug:     debug,
			},
			JSON:      jsonMode,
			Watch:     watchMode,
			Timeout:   timeout,
			SessionID: sessionID,
			Store:     store,
		})
	},
}

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().Bool("json", false, "Run in JSON mode (NDJSON input/output)")
	playCmd.Flags().BoolP("watch", "w", false, "Run in development mode with hot-reload")
	playCmd.Flags().Duration("timeout", 0, "Per-turn input timeout; a timed out turn counts as empty input")
	playCmd.Flags().String("session", "", "Session ID used for the archived transcript (default: generated)")
	playCmd.Flags().String("start", "", "Start node of a directory story")

	// 'play' is the default command.
	rootCmd.Args = playCmd.Args
	rootCmd.RunE = playCmd.RunE
	rootCmd.Flags().AddFlagSet(playCmd.Flags())
}
