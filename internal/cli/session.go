package cli

import (
	"context"
	"os"

	"github.com/aretw0/branchtale"
	"github.com/aretw0/branchtale/internal/presentation/tui"
	"github.com/aretw0/branchtale/pkg/domain"
	"github.com/aretw0/branchtale/pkg/runner"
)

// RunSession plays a single session to its ending.
func RunSession(ctx context.Context, opts RunOptions) (*domain.Session, error) {
	opts.defaults()

	engine, err := NewEngine(ctx, opts.EngineOptions, opts.Logger)
	if err != nil {
		return nil, err
	}

	if !opts.JSON {
		printBanner(opts, engine.Story())
	}

	r := newRunner(engine, opts, newHandler(opts))
	sess, runErr := r.Run(ctx)

	if !opts.JSON {
		logCompletion(opts.Stdout, sess, runErr)
	}
	return sess, handleExecutionError(runErr)
}

func printBanner(opts RunOptions, story *domain.Story) {
	title := story.Title
	if title == "" {
		title = story.ID
	}
	tui.PrintBanner(opts.Stdout, title, branchtale.Version)
}

func newHandler(opts RunOptions) runner.IOHandler {
	if opts.JSON {
		return runner.NewJSONHandler(opts.Stdin, opts.Stdout)
	}

	var handlerOpts []runner.TextHandlerOption
	if f, ok := opts.Stdout.(*os.File); ok && tui.IsInteractive(f) {
		handlerOpts = append(handlerOpts, runner.WithTextHandlerRenderer(tui.NewRenderer()))
	}
	return runner.NewTextHandler(opts.Stdin, opts.Stdout, handlerOpts...)
}

func newRunner(engine *branchtale.Engine, opts RunOptions, handler runner.IOHandler) *runner.Runner {
	runnerOpts := []runner.Option{
		runner.WithEngine(engine),
		runner.WithInputHandler(handler),
		runner.WithLogger(opts.Logger),
		runner.WithTimeout(opts.Timeout),
	}
	if opts.SessionID != "" {
		runnerOpts = append(runnerOpts, runner.WithSessionID(opts.SessionID))
	}
	if opts.Store != nil {
		runnerOpts = append(runnerOpts, runner.WithStore(opts.Store))
	}
	return runner.NewRunner(runnerOpts...)
}
