package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/aretw0/branchtale/pkg/ports"
)

// RunOptions contains all the configuration for the play command.
type RunOptions struct {
	EngineOptions

	JSON      bool
	Watch     bool
	Timeout   time.Duration
	SessionID string

	// Store archives finished playthroughs. Nil disables archiving.
	Store ports.TranscriptStore

	Stdin  io.Reader
	Stdout io.Writer
	Logger *slog.Logger
}

func (o *RunOptions) defaults() {
	if o.Stdin == nil {
		o.Stdin = os.Stdin
	}
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Logger == nil {
		o.Logger = createLogger(o.Debug)
	}
}

// Execute handles the play command, dispatching to Session or Watch mode.
func Execute(ctx context.Context, opts RunOptions) error {
	opts.defaults()

	if opts.Watch {
		if opts.JSON {
			return fmt.Errorf("--watch and --json cannot be used together")
		}
		if opts.StoryPath == "" {
			return fmt.Errorf("--watch needs a story path")
		}
		return RunWatch(ctx, opts)
	}

	_, err := RunSession(ctx, opts)
	return err
}
