package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/branchtale/internal/logging"
	"github.com/aretw0/branchtale/internal/presentation/tui"
	"github.com/aretw0/branchtale/pkg/domain"
)

// createLogger configures the application logger.
// In debug mode, it writes to Stderr (to separate from Stdout story UI).
func createLogger(debug bool) *slog.Logger {
	if debug {
		return logging.New(slog.LevelDebug)
	}
	return logging.NewNop()
}

// printSystemMessage prints a standardized system message.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}

func createDebugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(ctx context.Context, e *domain.NodeEvent) {
			logger.Debug("Enter Node", "node_id", e.NodeID, "terminal", e.Terminal, "session_id", e.SessionID)
		},
		OnStep: func(ctx context.Context, e *domain.StepEvent) {
			logger.Debug("Step", "from", e.FromNodeID, "key", e.Key, "kind", e.Result.Kind, "duration", e.Duration)
		},
		OnOutcome: func(ctx context.Context, e *domain.OutcomeEvent) {
			logger.Debug("Outcome", "node_id", e.NodeID, "outcome", e.Outcome, "turns", e.Turns)
		},
	}
}

func isInterrupted(err error) bool {
	return errors.Is(err, context.Canceled)
}

func handleExecutionError(err error) error {
	if err == nil || isInterrupted(err) {
		return nil // Exit 0 for interruptions
	}
	return err
}

// logCompletion reports how a playthrough ended.
func logCompletion(w io.Writer, sess *domain.Session, err error) {
	nodeID := ""
	if sess != nil {
		nodeID = sess.CurrentNodeID
	}

	switch {
	case err == nil && sess != nil && sess.Result != nil:
		fmt.Fprintf(w, "\n%s\n", tui.OutcomeBadge(sess.Result.Outcome))
		printSystemMessage(w, "Finished at '%s' node after %d turn(s).", nodeID, len(sess.Inputs))
	case isInterrupted(err):
		fmt.Fprintln(w, "[CTRL+C]")
		printSystemMessage(w, "Interrupted at '%s' node.", nodeID)
	}
}
