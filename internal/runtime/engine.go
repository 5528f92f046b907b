package runtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/branchtale/pkg/domain"
)

// Engine advances sessions through a story graph.
// It holds no per-session state and is safe for concurrent use.
type Engine struct {
	logger *slog.Logger
	hooks  domain.LifecycleHooks
	now    func() time.Time
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithClock overrides the time source used for session timestamps.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates a new engine.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start creates a session positioned at the story's start node and returns the
// arrival result. A story whose start node is terminal finishes immediately.
func (e *Engine) Start(ctx context.Context, story *domain.Story, sessionID string) (*domain.Session, domain.StepResult, error) {
	res, err := Arrive(story, story.StartID, "")
	if err != nil {
		return nil, domain.StepResult{}, fmt.Errorf("start story %q: %w", story.ID, err)
	}

	sess := domain.NewSession(sessionID, story)
	sess.StartedAt = e.now()

	e.logger.Debug("session started", "session_id", sessionID, "story", story.ID, "node_id", story.StartID)
	e.emitNodeEnter(ctx, sess, res)

	if res.IsTerminal() {
		e.finish(ctx, sess, res)
	}
	return sess, res, nil
}

// Advance applies one raw input to the session, mutating it in place.
// Once a session has terminated, every further call returns ErrSessionAlreadyTerminal.
func (e *Engine) Advance(ctx context.Context, sess *domain.Session, raw string) (domain.StepResult, error) {
	if sess.Done() {
		return domain.StepResult{}, fmt.Errorf("%w: %s", domain.ErrSessionAlreadyTerminal, sess.ID)
	}
	if sess.Story == nil {
		return domain.StepResult{}, fmt.Errorf("session %s is not bound to a story", sess.ID)
	}

	began := time.Now()
	from := sess.CurrentNodeID
	res, err := Step(sess.Story, from, raw)
	if err != nil {
		return domain.StepResult{}, err
	}

	sess.Inputs = append(sess.Inputs, res.Key)
	if res.NodeID != from {
		sess.CurrentNodeID = res.NodeID
		sess.History = append(sess.History, res.NodeID)
		e.emitNodeEnter(ctx, sess, res)
	}

	e.logger.Debug("step",
		"session_id", sess.ID,
		"from", from,
		"key", res.Key,
		"kind", res.Kind,
		"node_id", res.NodeID)

	if e.hooks.OnStep != nil {
		e.hooks.OnStep(ctx, &domain.StepEvent{
			EventBase:  e.base(domain.EventStep, sess),
			FromNodeID: from,
			Key:        res.Key,
			Result:     res,
			Duration:   time.Since(began),
		})
	}

	if res.IsTerminal() {
		e.finish(ctx, sess, res)
	}
	return res, nil
}

func (e *Engine) finish(ctx context.Context, sess *domain.Session, res domain.StepResult) {
	sess.Status = domain.StatusTerminated
	sess.EndedAt = e.now()
	final := res
	sess.Result = &final

	e.logger.Info("session ended",
		"session_id", sess.ID,
		"outcome", res.Outcome,
		"node_id", res.NodeID,
		"turns", len(sess.Inputs))

	if e.hooks.OnOutcome != nil {
		e.hooks.OnOutcome(ctx, &domain.OutcomeEvent{
			EventBase: e.base(domain.EventOutcome, sess),
			NodeID:    res.NodeID,
			Outcome:   res.Outcome,
			Turns:     len(sess.Inputs),
		})
	}
}

func (e *Engine) emitNodeEnter(ctx context.Context, sess *domain.Session, res domain.StepResult) {
	if e.hooks.OnNodeEnter == nil {
		return
	}
	e.hooks.OnNodeEnter(ctx, &domain.NodeEvent{
		EventBase: e.base(domain.EventNodeEnter, sess),
		NodeID:    res.NodeID,
		Terminal:  res.IsTerminal(),
	})
}

func (e *Engine) base(t domain.EventType, sess *domain.Session) domain.EventBase {
	return domain.EventBase{
		Timestamp: e.now(),
		Type:      t,
		SessionID: sess.ID,
		StoryID:   sess.StoryID,
	}
}
