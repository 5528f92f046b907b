package dsl

import (
	"fmt"

	"github.com/aretw0/branchtale/pkg/adapters/memory"
	"github.com/aretw0/branchtale/pkg/domain"
)

// Builder manages the story construction.
type Builder struct {
	id          string
	title       string
	startID     string
	invalidText string
	order       []string
	nodes       map[string]*NodeBuilder
}

// New creates a new story builder.
func New(storyID string) *Builder {
	return &Builder{
		id:      storyID,
		startID: domain.DefaultStartNodeID,
		nodes:   make(map[string]*NodeBuilder),
	}
}

// Title sets the human-readable story title.
func (b *Builder) Title(title string) *Builder {
	b.title = title
	return b
}

// Start names the node every session begins at (default "start").
func (b *Builder) Start(id string) *Builder {
	b.startID = id
	return b
}

// InvalidText sets the story-wide fallback for unmatched input.
func (b *Builder) InvalidText(text string) *Builder {
	b.invalidText = text
	return b
}

// Add creates a new node in the story.
// If the node already exists, it returns the existing builder.
func (b *Builder) Add(id string) *NodeBuilder {
	if nb, ok := b.nodes[id]; ok {
		return nb
	}
	nb := &NodeBuilder{
		node: domain.Node{
			ID: id,
		},
		builder: b,
	}
	b.nodes[id] = nb
	b.order = append(b.order, id)
	return nb
}

// Story assembles the nodes into a story. It does not validate the graph.
func (b *Builder) Story() (*domain.Story, error) {
	if len(b.nodes) == 0 {
		return nil, fmt.Errorf("story %q has no nodes", b.id)
	}
	if b.id == "" {
		return nil, fmt.Errorf("story id is required")
	}

	nodes := make([]*domain.Node, 0, len(b.order))
	for _, id := range b.order {
		nodes = append(nodes, b.nodes[id].node.Clone())
	}
	story := domain.NewStory(b.id, b.startID, nodes...)
	story.Title = b.title
	story.InvalidText = b.invalidText
	return story, nil
}

// Build compiles the story into a memory loader.
func (b *Builder) Build() (*memory.Loader, error) {
	story, err := b.Story()
	if err != nil {
		return nil, fmt.Errorf("failed to build memory loader: %w", err)
	}
	return memory.NewLoader(story), nil
}
