package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/branchtale/internal/cli"
	"github.com/aretw0/branchtale/internal/metrics"
	httpAdapter "github.com/aretw0/branchtale/pkg/adapters/http"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve [story]",
	Short: "Start the HTTP server",
	Long: `Serves concurrent sessions over a JSON API, streams session updates over SSE,
plays whole sessions over the /play websocket and exposes Prometheus metrics.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		if !cmd.Flags().Changed("addr") {
			addr = cfg.Addr
		}
		watch, _ := cmd.Flags().GetBool("watch")

		logger, err := newLogger(cmd)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		collector := metrics.New()
		engine, err := cli.NewEngine(ctx, cli.EngineOptions{
			StoryPath: storyPath(args),
			Hooks:     collector.Hooks(),
		}, logger)
		if err != nil {
			return err
		}

		if watch {
			reloads, err := engine.Watch(ctx)
			if err != nil {
				return err
			}
			go func() {
				for err := range reloads {
					if err != nil {
						logger.Warn("Reload rejected, serving previous story", "err", err)
						continue
					}
					logger.Info("Story reloaded", "story", engine.Story().ID)
				}
			}()
		}

		store, closeStore, err := cli.OpenStore(cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		srv := &http.Server{
			Addr: addr,
			Handler: httpAdapter.NewHandler(engine,
				httpAdapter.WithStore(store),
				httpAdapter.WithMetrics(collector.Handler()),
				httpAdapter.WithTurnTimeout(cfg.TurnTimeout),
				httpAdapter.WithLogger(logger),
			),
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("Starting branchtale Server", "addr", srv.Addr, "story", engine.Story().ID, "store", cfg.Store)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case <-ctx.Done():
			logger.Info("Start shutdown")

			// Give outstanding requests a deadline for completion.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("Graceful shutdown did not complete", "err", err)
				return srv.Close()
			}
			logger.Info("branchtale Server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "Address to listen on (env BRANCHTALE_ADDR)")
	serveCmd.Flags().BoolP("watch", "w", false, "Reload the story when it changes")
}
