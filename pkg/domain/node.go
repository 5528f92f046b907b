package domain

import (
	"fmt"
	"strings"
)

// Node represents one narrative beat in the story graph.
type Node struct {
	ID string `json:"id" yaml:"id"`

	// Prompt is shown to the player on arrival. For terminal nodes it is the closing text.
	Prompt string `json:"prompt" yaml:"prompt"`

	// Choices are evaluated in declaration order. Keys are matched after normalization.
	Choices []Choice `json:"choices,omitempty" yaml:"choices,omitempty"`

	// Ending classifies a terminal node. It must be empty for nodes that have choices.
	Ending OutcomeTag `json:"ending,omitempty" yaml:"ending,omitempty"`

	// InvalidText is the closing text used when input matches none of the choices.
	// Falls back to Story.InvalidText when empty.
	InvalidText string `json:"invalid_text,omitempty" yaml:"invalid_text,omitempty"`
}

// IsTerminal reports whether the story ends on arrival at this node.
func (n *Node) IsTerminal() bool {
	return len(n.Choices) == 0
}

// Display renders the prompt followed by the labelled options, one per line.
func (n *Node) Display() string {
	var sb strings.Builder
	sb.WriteString(strings.TrimRight(n.Prompt, "\n"))
	for _, c := range n.Choices {
		if c.Label == "" {
			continue
		}
		fmt.Fprintf(&sb, "\n  %s) %s", c.Key, c.Label)
	}
	return sb.String()
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	next := *n
	if n.Choices != nil {
		next.Choices = make([]Choice, len(n.Choices))
		for i, c := range n.Choices {
			if c.Outcome != nil {
				out := *c.Outcome
				c.Outcome = &out
			}
			next.Choices[i] = c
		}
	}
	return &next
}
