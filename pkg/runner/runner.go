package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/aretw0/branchtale/internal/logging"
	"github.com/aretw0/branchtale/pkg/domain"
	"github.com/aretw0/branchtale/pkg/input"
	"github.com/aretw0/branchtale/pkg/ports"
	"github.com/google/uuid"
)

// Engine is the subset of branchtale.Engine the Runner drives.
type Engine interface {
	Start(ctx context.Context, sessionID string) (*domain.Session, domain.StepResult, error)
	Advance(ctx context.Context, sess *domain.Session, raw string) (domain.StepResult, error)
}

// Runner owns one session and drives it to an ending using the provided IO.
// This allows for easy testing and integration with different frontends (CLI, TUI, websocket).
type Runner struct {
	// Handler is the strategy for IO. Defaults to a TextHandler on Stdin/Stdout.
	Handler IOHandler

	// Logger is used for internal debug logging.
	// If nil, a no-op logger is used.
	Logger *slog.Logger

	// Store archives the transcript once the session ends.
	// If nil, playthroughs are not recorded.
	Store ports.TranscriptStore

	// Timeout bounds each read. A read that times out counts as empty input.
	Timeout time.Duration

	// SessionID names the playthrough. Defaults to a fresh UUIDv7.
	SessionID string

	engine Engine
}

// NewRunner creates a new Runner.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{}
	for _, opt := range opts {
		opt(r)
	}
	if r.Logger == nil {
		r.Logger = logging.NewNop()
	}
	return r
}

// Run plays one session to completion and returns it.
// Narrative endings, including INVALID_INPUT, are reported through the session result, not as errors.
func (r *Runner) Run(ctx context.Context) (*domain.Session, error) {
	if r.engine == nil {
		return nil, fmt.Errorf("runner: no engine configured")
	}
	handler := r.resolveHandler()
	if r.SessionID == "" {
		r.SessionID = uuid.Must(uuid.NewV7()).String()
	}

	sess, res, err := r.engine.Start(ctx, r.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}
	log := r.Logger.With("session_id", sess.ID)

	if err := handler.Output(ctx, res); err != nil {
		return sess, fmt.Errorf("output error: %w", err)
	}

	for !res.IsTerminal() {
		line, err := r.read(ctx, handler)
		if err != nil {
			return sess, err
		}

		clean, err := input.Sanitize(line)
		if err != nil {
			log.Debug("input rejected", "err", err, "size", len(line))
			if err := handler.SystemOutput(ctx, fmt.Sprintf("Error: %v", err)); err != nil {
				return sess, fmt.Errorf("output error: %w", err)
			}
		}

		res, err = r.engine.Advance(ctx, sess, clean)
		if err != nil {
			return sess, fmt.Errorf("step error: %w", err)
		}
		log.Debug("step", "node_id", res.NodeID, "key", res.Key, "kind", res.Kind)

		if err := handler.Output(ctx, res); err != nil {
			return sess, fmt.Errorf("output error: %w", err)
		}
	}

	r.archive(ctx, log, sess)
	return sess, nil
}

// read returns one raw line. Absent input (EOF, timeout) is the empty string.
func (r *Runner) read(ctx context.Context, handler LineSource) (string, error) {
	inputCtx, cancel := ctx, context.CancelFunc(func() {})
	if r.Timeout > 0 {
		inputCtx, cancel = context.WithTimeout(ctx, r.Timeout)
	}
	defer cancel()

	line, err := handler.Input(inputCtx)
	switch {
	case err == nil:
		return line, nil
	case errors.Is(err, io.EOF):
		r.Logger.Debug("input closed")
		return "", nil
	case ctx.Err() != nil:
		return "", ctx.Err()
	case errors.Is(err, context.DeadlineExceeded):
		r.Logger.Debug("input timed out", "timeout", r.Timeout)
		return "", nil
	default:
		return "", fmt.Errorf("input error: %w", err)
	}
}

func (r *Runner) archive(ctx context.Context, log *slog.Logger, sess *domain.Session) {
	if r.Store == nil {
		return
	}
	tr := domain.NewTranscript(sess)
	if tr == nil {
		return
	}
	if err := r.Store.Save(ctx, tr); err != nil {
		log.Error("failed to archive transcript", "err", err)
		return
	}
	log.Debug("transcript archived")
}

// resolveHandler ensures a valid IOHandler is set.
func (r *Runner) resolveHandler() IOHandler {
	if r.Handler == nil {
		r.Handler = NewTextHandler(os.Stdin, os.Stdout)
	}
	return r.Handler
}
