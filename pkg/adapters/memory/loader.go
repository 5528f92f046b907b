package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/branchtale/pkg/domain"
)

// Loader implements ports.StoryLoader and ports.Watchable with an in-memory story.
// Safe for concurrent use.
type Loader struct {
	mu       sync.RWMutex
	story    *domain.Story
	watchers []chan struct{}
}

// NewLoader creates a loader serving a copy of the given story.
func NewLoader(story *domain.Story) *Loader {
	return &Loader{story: story.Clone()}
}

// NewFromNodes creates a loader from domain nodes.
// This improves DX for tests that do not need a full story definition.
func NewFromNodes(startID string, nodes ...domain.Node) (*Loader, error) {
	story := domain.NewStory("memory", startID)
	for i := range nodes {
		n := nodes[i]
		if n.ID == "" {
			return nil, fmt.Errorf("node #%d missing ID", i+1)
		}
		story.Nodes[n.ID] = &n
	}
	return NewLoader(story), nil
}

// Load returns a deep copy of the current story.
func (l *Loader) Load(ctx context.Context) (*domain.Story, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.story == nil {
		return nil, fmt.Errorf("memory loader has no story")
	}
	return l.story.Clone(), nil
}

// Set replaces the story and notifies watchers.
func (l *Loader) Set(story *domain.Story) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.story = story.Clone()

	for _, ch := range l.watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Watch signals on every Set until ctx is done.
func (l *Loader) Watch(ctx context.Context) (<-chan struct{}, error) {
	ch := make(chan struct{}, 1)

	l.mu.Lock()
	l.watchers = append(l.watchers, ch)
	l.mu.Unlock()

	go func() {
		<-ctx.Done()
		l.mu.Lock()
		defer l.mu.Unlock()
		for i, w := range l.watchers {
			if w == ch {
				l.watchers = append(l.watchers[:i], l.watchers[i+1:]...)
				break
			}
		}
		close(ch)
	}()
	return ch, nil
}
