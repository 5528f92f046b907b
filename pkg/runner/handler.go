package runner

import (
	"context"

	"github.com/aretw0/branchtale/pkg/domain"
)

// LineSource supplies one raw line of player input per call.
// It returns io.EOF once the stream is exhausted and ctx.Err() when ctx ends first.
type LineSource interface {
	Input(ctx context.Context) (string, error)
}

// LineSink presents narrative text to the player.
type LineSink interface {
	// Output presents a step result: the next prompt or the closing text.
	Output(ctx context.Context, res domain.StepResult) error

	// SystemOutput presents a meta-message (e.g. why a line was rejected) distinct from story content.
	SystemOutput(ctx context.Context, msg string) error
}

// IOHandler defines the strategy for interacting with the player.
// This allows switching between Text (CLI/TUI) and JSON (Structured) modes.
type IOHandler interface {
	LineSource
	LineSink
}

// ContentRenderer is a function that transforms the content before outputting it.
// This allows for TUI rendering (markdown to ANSI) without coupling the core package.
type ContentRenderer func(string) (string, error)
