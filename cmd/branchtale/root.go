package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/branchtale/internal/config"
	"github.com/aretw0/branchtale/internal/logging"
	"github.com/spf13/cobra"
)

// cfg is loaded from BRANCHTALE_* variables before any command runs.
var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "branchtale",
	Short: "branchtale plays branching text adventures",
	Long: `branchtale is a data-driven narrative engine. Stories are graphs of nodes and
choices written in YAML, JSON or a directory of Markdown files.
Without a story argument the built-in "Cave of Whispers" is played.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		cfg = loaded

		if cmd.Flags().Changed("store") {
			cfg.Store, _ = cmd.Flags().GetString("store")
			return cfg.Validate()
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("store", config.StoreMemory, "Transcript store: memory, file, redis or sqlite (env BRANCHTALE_STORE)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging to stderr")
}

// storyPath resolves the story from the first argument, falling back to BRANCHTALE_STORY.
func storyPath(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return cfg.Story
}

// newLogger builds the server logger from configuration.
func newLogger(cmd *cobra.Command) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		level = slog.LevelDebug
	}
	return logging.NewWithWriter(os.Stderr, level, logging.Format(cfg.LogFormat)), nil
}
