package dsl

import (
	"github.com/aretw0/branchtale/pkg/adapters/memory"
	"github.com/aretw0/branchtale/pkg/domain"
)

// NodeBuilder provides a fluent API for configuring a node.
type NodeBuilder struct {
	node    domain.Node
	builder *Builder
}

// Prompt sets the text shown on arrival.
func (n *NodeBuilder) Prompt(text string) *NodeBuilder {
	n.node.Prompt = text
	return n
}

// On adds a choice leading to another node.
func (n *NodeBuilder) On(key, label, to string) *NodeBuilder {
	n.node.Choices = append(n.node.Choices, domain.Choice{Key: key, Label: label, To: to})
	return n
}

// OnEnd adds a choice that ends the story inline.
func (n *NodeBuilder) OnEnd(key, label string, tag domain.OutcomeTag, text string) *NodeBuilder {
	n.node.Choices = append(n.node.Choices, domain.Choice{
		Key:     key,
		Label:   label,
		Outcome: &domain.Outcome{Tag: tag, Text: text},
	})
	return n
}

// Invalid sets the closing text for input that matches no choice.
func (n *NodeBuilder) Invalid(text string) *NodeBuilder {
	n.node.InvalidText = text
	return n
}

// Ending marks the node as terminal with the given outcome.
func (n *NodeBuilder) Ending(tag domain.OutcomeTag) *NodeBuilder {
	n.node.Ending = tag
	return n
}

// Add is a shortcut back to the parent builder.
func (n *NodeBuilder) Add(id string) *NodeBuilder {
	return n.builder.Add(id)
}

// Build is a shortcut to the parent builder's Build.
func (n *NodeBuilder) Build() (*memory.Loader, error) {
	return n.builder.Build()
}
