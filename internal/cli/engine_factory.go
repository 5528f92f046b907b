package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aretw0/branchtale"
	"github.com/aretw0/branchtale/internal/stories"
	loamAdapter "github.com/aretw0/branchtale/pkg/adapters/loam"
	"github.com/aretw0/branchtale/pkg/domain"
)

// EngineOptions selects the story and the instrumentation of an engine.
type EngineOptions struct {
	// StoryPath is a .yaml/.yml/.json file or a directory of markdown nodes.
	// Empty means the built-in Cave of Whispers.
	StoryPath string

	// StartNode overrides the entry point of a directory story.
	StartNode string

	Debug bool
	Hooks domain.LifecycleHooks
}

// NewEngine initializes an engine with standard CLI conventions.
func NewEngine(ctx context.Context, opts EngineOptions, logger *slog.Logger) (*branchtale.Engine, error) {
	engineOpts := []branchtale.Option{
		branchtale.WithLogger(logger),
		branchtale.WithLifecycleHooks(opts.Hooks),
	}
	if opts.Debug {
		engineOpts = append(engineOpts, branchtale.WithLifecycleHooks(createDebugHooks(logger)))
	}

	path := opts.StoryPath
	switch {
	case path == "":
		path = "cave"
		engineOpts = append(engineOpts, branchtale.WithLoader(stories.CaveLoader()))
	case isDir(path):
		// Smart Convention: a repo without start.md may use main.md, index.md or <dir>.md.
		start := opts.StartNode
		if start == "" {
			if entry := determineEntryPoint(path); entry != domain.DefaultStartNodeID {
				start = entry
			}
		}
		if start != "" {
			loader, err := loamAdapter.Open(path, loamAdapter.WithStartNode(start))
			if err != nil {
				return nil, err
			}
			engineOpts = append(engineOpts, branchtale.WithLoader(loader))
		}
	}

	engine, err := branchtale.New(ctx, path, engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	return engine, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// determineEntryPoint picks the start node of a directory story by file name.
func determineEntryPoint(repoPath string) string {
	candidates := []string{
		domain.DefaultStartNodeID,
		"main",
		"index",
		filepath.Base(repoPath),
	}
	for _, id := range candidates {
		if hasNode(repoPath, id) {
			return id
		}
	}
	return domain.DefaultStartNodeID
}

// hasNode checks if a node exists as a file in the directory.
func hasNode(repoPath, nodeID string) bool {
	extensions := []string{".md", ".yaml", ".json"}
	for _, ext := range extensions {
		path := filepath.Join(repoPath, nodeID+ext)
		if _, err := os.Stat(path); err == nil {
			return true
		}
	}
	return false
}
