package runtime

import (
	"fmt"

	"github.com/aretw0/branchtale/pkg/domain"
	"github.com/aretw0/branchtale/pkg/input"
)

// Step resolves raw input against the choices of the given node.
//
// It never fails for narrative reasons: unmatched input yields a Terminal
// INVALID_INPUT result carrying the node's invalid text. Errors are reserved for
// caller misuse (unknown node, stepping from a terminal node) and for graphs that
// were not validated (dangling targets).
func Step(story *domain.Story, nodeID, raw string) (domain.StepResult, error) {
	node, ok := story.Node(nodeID)
	if !ok || node == nil {
		return domain.StepResult{}, fmt.Errorf("%w: %s", domain.ErrNodeNotFound, nodeID)
	}
	if node.IsTerminal() {
		return domain.StepResult{}, fmt.Errorf("%w: %s", domain.ErrNodeIsTerminal, nodeID)
	}

	key := input.Normalize(raw)
	choice, ok := match(node, key)
	if !ok {
		return domain.Terminal(node.ID, key, domain.OutcomeInvalidInput, story.InvalidTextFor(node)), nil
	}

	if choice.Outcome != nil {
		return domain.Terminal(node.ID, key, choice.Outcome.Tag, choice.Outcome.Text), nil
	}

	return Arrive(story, choice.To, key)
}

// Arrive computes the result of entering a node: Advance when it has choices,
// Terminal with its ending otherwise.
func Arrive(story *domain.Story, nodeID, key string) (domain.StepResult, error) {
	next, ok := story.Node(nodeID)
	if !ok || next == nil {
		return domain.StepResult{}, fmt.Errorf("%w: %s", domain.ErrNodeNotFound, nodeID)
	}
	if next.IsTerminal() {
		return domain.Terminal(next.ID, key, next.Ending, next.Display()), nil
	}
	return domain.Advance(next.ID, key, next.Display()), nil
}

func match(node *domain.Node, key string) (domain.Choice, bool) {
	if key == "" {
		return domain.Choice{}, false
	}
	for _, c := range node.Choices {
		if input.Normalize(c.Key) == key {
			return c, true
		}
	}
	return domain.Choice{}, false
}
