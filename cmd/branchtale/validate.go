package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/branchtale/internal/cli"
	"github.com/aretw0/branchtale/internal/logging"
	"github.com/aretw0/branchtale/internal/validator"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [story]",
	Short: "Check the story graph for consistency",
	Long: `Reports dangling targets, cycles, duplicate keys, choiceless nodes without an
ending and unknown outcome tags as errors; unreachable nodes and missing invalid
texts as warnings.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidate(cmd, storyPath(args))
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, path string) error {
	out := cmd.OutOrStdout()

	eng, err := cli.NewEngine(context.Background(), cli.EngineOptions{StoryPath: path}, logging.NewNop())
	if err != nil {
		var verr *validator.ValidationError
		if errors.As(err, &verr) {
			for _, v := range verr.Violations {
				fmt.Fprintf(out, "error: %s\n", v.Error())
			}
			return fmt.Errorf("validation failed: %d error(s)", len(verr.Violations))
		}
		return err
	}

	report := eng.Validation()
	for _, v := range report.Warnings {
		fmt.Fprintf(out, "warning: %s\n", v.Error())
	}
	fmt.Fprintf(out, "Story '%s' is valid! ✅\n", report.StoryID)
	return nil
}
