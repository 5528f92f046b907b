package validator

import (
	"fmt"
	"strings"

	"github.com/aretw0/branchtale/pkg/domain"
	"github.com/aretw0/branchtale/pkg/input"
)

// Report collects every violation found in a story.
type Report struct {
	StoryID  string      `json:"story_id"`
	Errors   []Violation `json:"errors,omitempty"`
	Warnings []Violation `json:"warnings,omitempty"`
}

// OK reports whether the story has no fatal violations.
func (r *Report) OK() bool {
	return len(r.Errors) == 0
}

// Err returns a *ValidationError when the report has fatal violations, nil otherwise.
func (r *Report) Err() error {
	if r.OK() {
		return nil
	}
	return &ValidationError{StoryID: r.StoryID, Violations: r.Errors}
}

func (r *Report) fail(rule Rule, nodeID, key, format string, args ...any) {
	r.Errors = append(r.Errors, Violation{Rule: rule, NodeID: nodeID, ChoiceKey: key, Message: fmt.Sprintf(format, args...)})
}

func (r *Report) warn(rule Rule, nodeID, format string, args ...any) {
	r.Warnings = append(r.Warnings, Violation{Rule: rule, NodeID: nodeID, Message: fmt.Sprintf(format, args...)})
}

// Validate checks the story graph and returns the full report.
// Nodes are visited in sorted order so reports are stable across runs.
func Validate(story *domain.Story) *Report {
	r := &Report{}
	if story == nil {
		r.fail(RuleMissingStart, "", "", "story is nil")
		return r
	}
	r.StoryID = story.ID

	if story.StartID == "" {
		r.fail(RuleMissingStart, "", "", "story has no start node")
	} else if _, ok := story.Node(story.StartID); !ok {
		r.fail(RuleMissingStart, story.StartID, "", "start node %q does not exist", story.StartID)
	}

	ids := story.NodeIDs()
	for _, id := range ids {
		checkNode(r, story, id)
	}

	checkCycles(r, story, ids)
	checkReachability(r, story, ids)
	return r
}

func checkNode(r *Report, story *domain.Story, id string) {
	n := story.Nodes[id]
	if n == nil {
		r.fail(RuleMalformedNode, id, "", "node is empty")
		return
	}
	if n.ID != id {
		r.fail(RuleMalformedNode, id, "", "node declares id %q but is registered as %q", n.ID, id)
	}

	if n.IsTerminal() {
		switch {
		case n.Ending == "":
			r.fail(RuleChoicelessNode, id, "", "node has no choices and no ending")
		case !n.Ending.IsAuthored():
			r.fail(RuleUnknownOutcome, id, "", "unknown ending %q (want WIN, SURVIVE or LOSS)", n.Ending)
		}
		return
	}

	if n.Ending != "" {
		r.fail(RuleChoicelessNode, id, "", "node has choices but also declares ending %q", n.Ending)
	}
	if story.InvalidTextFor(n) == "" {
		r.warn(RuleMissingInvalidText, id, "node has no invalid-input text and the story has no default")
	}

	seen := make(map[string]bool, len(n.Choices))
	for i, c := range n.Choices {
		key := input.Normalize(c.Key)
		switch {
		case key == "":
			r.fail(RuleDuplicateKey, id, "", "choice #%d has an empty key", i+1)
		case seen[key]:
			r.fail(RuleDuplicateKey, id, key, "key %q is declared more than once", key)
		}
		seen[key] = true

		switch {
		case c.To != "" && c.Outcome != nil:
			r.fail(RuleInvalidTarget, id, key, "choice targets both node %q and an inline outcome", c.To)
		case c.To == "" && c.Outcome == nil:
			r.fail(RuleInvalidTarget, id, key, "choice has no target")
		case c.Outcome != nil:
			if !c.Outcome.Tag.IsAuthored() {
				r.fail(RuleUnknownOutcome, id, key, "unknown outcome %q (want WIN, SURVIVE or LOSS)", c.Outcome.Tag)
			}
		default:
			if _, ok := story.Node(c.To); !ok {
				r.fail(RuleDanglingTarget, id, key, "target node %q does not exist", c.To)
			}
		}
	}
}

const (
	white = iota // unvisited
	grey         // on the current DFS path
	black        // finished
)

// checkCycles runs a colouring DFS from every unvisited node.
// Each back edge is reported once, with the path that closes the loop.
func checkCycles(r *Report, story *domain.Story, ids []string) {
	color := make(map[string]int, len(ids))
	var path []string

	var visit func(id string)
	visit = func(id string) {
		color[id] = grey
		path = append(path, id)
		if n := story.Nodes[id]; n != nil {
			for _, c := range n.Choices {
				if c.Outcome != nil || c.To == "" {
					continue
				}
				if _, ok := story.Nodes[c.To]; !ok {
					continue
				}
				switch color[c.To] {
				case grey:
					loop := append(cyclePath(path, c.To), c.To)
					r.fail(RuleCycle, id, input.Normalize(c.Key), "cycle detected: %s", strings.Join(loop, " -> "))
				case white:
					visit(c.To)
				}
			}
		}
		path = path[:len(path)-1]
		color[id] = black
	}

	for _, id := range ids {
		if color[id] == white {
			visit(id)
		}
	}
}

func cyclePath(path []string, from string) []string {
	for i, id := range path {
		if id == from {
			return append([]string(nil), path[i:]...)
		}
	}
	return append([]string(nil), path...)
}

func checkReachability(r *Report, story *domain.Story, ids []string) {
	if _, ok := story.Node(story.StartID); !ok {
		return
	}

	visited := map[string]bool{story.StartID: true}
	queue := []string{story.StartID}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		n := story.Nodes[current]
		if n == nil {
			continue
		}
		for _, c := range n.Choices {
			if c.To == "" || visited[c.To] {
				continue
			}
			if _, ok := story.Nodes[c.To]; !ok {
				continue
			}
			visited[c.To] = true
			queue = append(queue, c.To)
		}
	}

	for _, id := range ids {
		if !visited[id] {
			r.warn(RuleUnreachableNode, id, "node is not reachable from %q", story.StartID)
		}
	}
}
