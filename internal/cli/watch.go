package cli

import (
	"context"
	"fmt"

	"github.com/aretw0/branchtale"
	"github.com/aretw0/branchtale/pkg/domain"
	"github.com/aretw0/branchtale/pkg/runner"
)

type runResult struct {
	sess *domain.Session
	err  error
}

// RunWatch plays the story in development mode, restarting the playthrough
// whenever the story changes on disk and passes validation.
func RunWatch(ctx context.Context, opts RunOptions) error {
	opts.defaults()
	// Every restart is a new playthrough.
	opts.SessionID = ""

	engine, err := NewEngine(ctx, opts.EngineOptions, opts.Logger)
	if err != nil {
		return err
	}

	reloads, err := engine.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watch failed: %w", err)
	}

	opts.Logger.Info("Starting Watcher", "path", opts.StoryPath)
	printSystemMessage(opts.Stdout, "Watching '%s' for changes.", opts.StoryPath)

	// Reuse the same IO handler to avoid multiple Stdin pumps (ghost readers).
	handler := newHandler(opts)

	for {
		printBanner(opts, engine.Story())
		if !runWatchIteration(ctx, engine, opts, handler, reloads) {
			return nil
		}
		opts.Logger.Info("Watcher restarting")
	}
}

// runWatchIteration plays once. It reports whether the watcher should start over.
func runWatchIteration(ctx context.Context, engine *branchtale.Engine, opts RunOptions, handler runner.IOHandler, reloads <-chan error) bool {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan runResult, 1)
	go func() {
		sess, err := newRunner(engine, opts, handler).Run(runCtx)
		done <- runResult{sess, err}
	}()

	finished := false
	for {
		select {
		case <-ctx.Done():
			if !finished {
				cancel()
				res := <-done
				logCompletion(opts.Stdout, res.sess, context.Canceled)
			}
			opts.Logger.Info("Stopping watcher")
			return false

		case err, ok := <-reloads:
			if !ok {
				return false
			}
			if err != nil {
				opts.Logger.Warn("Reload rejected", "err", err)
				printSystemMessage(opts.Stdout, "Change rejected, keeping the previous story: %v", err)
				continue
			}
			fmt.Fprintln(opts.Stdout)
			printSystemMessage(opts.Stdout, "Change detected, restarting.")
			if !finished {
				cancel()
				<-done
			}
			return true

		case res := <-done:
			finished = true
			if res.err != nil && !isInterrupted(res.err) {
				opts.Logger.Error("Runtime error", "err", res.err)
			}
			logCompletion(opts.Stdout, res.sess, res.err)
			printSystemMessage(opts.Stdout, "Waiting for changes...")
		}
	}
}
