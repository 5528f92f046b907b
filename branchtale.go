package branchtale

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/aretw0/branchtale/internal/logging"
	"github.com/aretw0/branchtale/internal/runtime"
	"github.com/aretw0/branchtale/internal/validator"
	"github.com/aretw0/branchtale/pkg/adapters/file"
	loamAdapter "github.com/aretw0/branchtale/pkg/adapters/loam"
	"github.com/aretw0/branchtale/pkg/adapters/memory"
	"github.com/aretw0/branchtale/pkg/domain"
	"github.com/aretw0/branchtale/pkg/ports"
	"github.com/aretw0/branchtale/pkg/session"
)

// Engine is the high-level entry point for the branchtale library.
// It loads and validates a story, then hands out sessions bound to it.
// Safe for concurrent use.
type Engine struct {
	runtime *runtime.Engine
	loader  ports.StoryLoader
	hooks   domain.LifecycleHooks
	logger  *slog.Logger

	story  atomic.Pointer[domain.Story]
	report atomic.Pointer[validator.Report]

	Name string
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithLoader injects a custom StoryLoader, bypassing path-based detection.
func WithLoader(l ports.StoryLoader) Option {
	return func(e *Engine) {
		e.loader = l
	}
}

// WithStory serves an in-memory story.
func WithStory(story *domain.Story) Option {
	return func(e *Engine) {
		e.loader = memory.NewLoader(story)
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New initializes a new Engine and performs the first load.
//
// When no loader is injected, path selects one: a .yaml/.yml/.json file is read
// by the file adapter, a directory is opened as a Loam repository.
// New fails if the story has fatal validation errors.
func New(ctx context.Context, path string, opts ...Option) (*Engine, error) {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.loader == nil {
		loader, name, err := detectLoader(path)
		if err != nil {
			return nil, err
		}
		eng.loader = loader
		eng.Name = name
	} else if path != "" {
		eng.Name = filepath.Base(path)
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.Name != "" {
		eng.logger = eng.logger.With("story", eng.Name)
	}

	eng.runtime = runtime.NewEngine(
		runtime.WithLogger(eng.logger),
		runtime.WithLifecycleHooks(eng.hooks),
	)

	if err := eng.Reload(ctx); err != nil {
		return nil, err
	}
	return eng, nil
}

func detectLoader(path string) (ports.StoryLoader, string, error) {
	if path == "" {
		return nil, "", fmt.Errorf("path is required when no custom loader is provided")
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, "", fmt.Errorf("invalid path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open story: %w", err)
	}

	if info.IsDir() {
		loader, err := loamAdapter.Open(absPath)
		if err != nil {
			return nil, "", err
		}
		return loader, filepath.Base(absPath), nil
	}

	switch strings.ToLower(filepath.Ext(absPath)) {
	case ".yaml", ".yml", ".json":
		name := strings.TrimSuffix(filepath.Base(absPath), filepath.Ext(absPath))
		return file.NewLoader(absPath), name, nil
	}
	return nil, "", fmt.Errorf("unsupported story file %q (want .yaml, .yml, .json or a directory)", path)
}

// Reload reads the story again and validates it.
// On failure the previously loaded story stays in place.
func (e *Engine) Reload(ctx context.Context) error {
	story, err := e.loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load story: %w", err)
	}

	report := validator.Validate(story)
	for _, w := range report.Warnings {
		e.logger.Warn("story warning", "rule", w.Rule, "node_id", w.NodeID, "msg", w.Message)
	}
	if err := report.Err(); err != nil {
		e.logger.Error("story rejected", "errors", len(report.Errors))
		return err
	}

	e.story.Store(story)
	e.report.Store(report)
	e.logger.Info("story loaded", "story_id", story.ID, "nodes", len(story.Nodes))
	return nil
}

// Watch reloads the story whenever the loader reports a change.
// Each reload result (nil on success) is sent on the returned channel,
// which is closed when ctx is done.
func (e *Engine) Watch(ctx context.Context) (<-chan error, error) {
	w, ok := e.loader.(ports.Watchable)
	if !ok {
		return nil, fmt.Errorf("current loader does not support watching")
	}

	changes, err := w.Watch(ctx)
	if err != nil {
		return nil, err
	}

	results := make(chan error, 1)
	go func() {
		defer close(results)
		for range changes {
			err := e.Reload(ctx)
			select {
			case results <- err:
			case <-ctx.Done():
				return
			}
		}
	}()
	return results, nil
}

// Story returns the current validated story. Treat it as read-only.
func (e *Engine) Story() *domain.Story {
	return e.story.Load()
}

// Validation returns the report of the current story, including warnings.
func (e *Engine) Validation() *validator.Report {
	return e.report.Load()
}

// Start opens a session on the current story.
func (e *Engine) Start(ctx context.Context, sessionID string) (*domain.Session, domain.StepResult, error) {
	return e.runtime.Start(ctx, e.Story(), sessionID)
}

// Advance applies one raw input to a session the caller owns.
func (e *Engine) Advance(ctx context.Context, sess *domain.Session, raw string) (domain.StepResult, error) {
	return e.runtime.Advance(ctx, sess, raw)
}

// Step is the pure transition function on the current story.
func (e *Engine) Step(nodeID, raw string) (domain.StepResult, error) {
	return runtime.Step(e.Story(), nodeID, raw)
}

// Verify replays an archived transcript against the current story.
func (e *Engine) Verify(ctx context.Context, tr *domain.Transcript) (*domain.Session, error) {
	return e.runtime.Verify(ctx, e.Story(), tr)
}

// Sessions creates a manager that serves concurrent sessions on this engine.
// Sessions always start on the latest successfully loaded story.
func (e *Engine) Sessions(opts ...session.Option) *session.Manager {
	opts = append([]session.Option{session.WithLogger(e.logger)}, opts...)
	return session.NewManager(e.runtime, e.Story, opts...)
}

// Loader returns the underlying StoryLoader used by the engine.
func (e *Engine) Loader() ports.StoryLoader {
	return e.loader
}
