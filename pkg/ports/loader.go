package ports

import (
	"context"

	"github.com/aretw0/branchtale/pkg/domain"
)

// StoryLoader defines how the engine retrieves a story graph.
// This allows the storage layer (file, Loam, memory) to be decoupled.
type StoryLoader interface {
	// Load reads the whole graph. The result is not validated yet.
	Load(ctx context.Context) (*domain.Story, error)
}

// Watchable defines an interface for loaders that can notify about backend changes.
// This is typically used for hot-reload or dev-mode functionality.
type Watchable interface {
	// Watch returns a channel that is signaled when the underlying story changes.
	// The channel is closed when ctx is done.
	Watch(ctx context.Context) (<-chan struct{}, error)
}
