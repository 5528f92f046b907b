package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aretw0/branchtale/internal/dto"
	"github.com/aretw0/branchtale/pkg/domain"
	"github.com/aretw0/loam"
)

// Loader adapts a Loam repository to the branchtale StoryLoader interface.
// Every document in the repository is one node.
type Loader struct {
	Repo        *loam.TypedRepository[NodeMetadata]
	storyID     string
	startID     string
	invalidText string
}

// Option configures the Loader.
type Option func(*Loader)

// WithStoryID sets the story ID (default: "loam").
func WithStoryID(id string) Option {
	return func(l *Loader) {
		l.storyID = id
	}
}

// WithStartNode forces the start node, overriding any `start: true` frontmatter.
func WithStartNode(id string) Option {
	return func(l *Loader) {
		l.startID = id
	}
}

// WithInvalidText sets the story-wide fallback invalid-input text.
func WithInvalidText(text string) Option {
	return func(l *Loader) {
		l.invalidText = text
	}
}

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[NodeMetadata], opts ...Option) *Loader {
	l := &Loader{Repo: repo, storyID: "loam"}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Open initializes a read-only, strict Loam repository at path and wraps it.
// The story ID defaults to the directory name.
func Open(path string, opts ...Option) (*Loader, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	// The engine never modifies the story, so the repository is read-only.
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}

	typed := loam.NewTypedRepository[NodeMetadata](repo)
	opts = append([]Option{WithStoryID(filepath.Base(absPath))}, opts...)
	return New(typed, opts...), nil
}

// Load lists every document and assembles the story.
func (l *Loader) Load(ctx context.Context) (*domain.Story, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	story := domain.NewStory(l.storyID, l.startID)
	story.InvalidText = l.invalidText

	seen := make(map[string]string, len(docs))
	var marked []string

	for _, doc := range docs {
		// Use the ID from metadata if available, otherwise filename ID
		rawID := doc.Data.ID
		if rawID == "" {
			rawID = doc.ID
		}
		id := dto.TrimExtension(rawID)

		if existing, ok := seen[id]; ok {
			return nil, fmt.Errorf("collision detected: ID '%s' is defined in both '%s' and '%s'", id, existing, doc.ID)
		}
		seen[id] = doc.ID

		node, err := doc.Data.definition(id, strings.TrimSpace(doc.Content)).ToDomain(id)
		if err != nil {
			return nil, &dto.DecodeError{Source: doc.ID, NodeID: id, Err: err}
		}
		story.Nodes[id] = node

		if doc.Data.Start {
			marked = append(marked, id)
		}
	}

	if story.StartID == "" {
		switch len(marked) {
		case 0:
			story.StartID = domain.DefaultStartNodeID
		case 1:
			story.StartID = marked[0]
		default:
			return nil, fmt.Errorf("multiple start nodes: %s", strings.Join(marked, ", "))
		}
	}
	return story, nil
}

// Watch implements ports.Watchable.
func (l *Loader) Watch(ctx context.Context) (<-chan struct{}, error) {
	// Recursive doublestar pattern supported by Loam.
	events, err := l.Repo.Watch(ctx, "**/*.{md,json,yaml,yml}")
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan struct{}, 1)

	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-events:
				if !ok {
					return
				}
				// Loam debounces bursts itself; collapse whatever is left.
				select {
				case ch <- struct{}{}:
				default:
				}
			}
		}
	}()

	return ch, nil
}
