package domain

import "sort"

// DefaultStartNodeID is used when a story does not name its start node.
const DefaultStartNodeID = "start"

// Story is the full narrative graph.
// Once validated it is treated as immutable and may be shared by any number of sessions.
type Story struct {
	ID      string           `json:"id" yaml:"id"`
	Title   string           `json:"title,omitempty" yaml:"title,omitempty"`
	StartID string           `json:"start" yaml:"start"`
	Nodes   map[string]*Node `json:"nodes" yaml:"nodes"`

	// InvalidText is the story-wide fallback for nodes without their own invalid text.
	InvalidText string `json:"invalid_text,omitempty" yaml:"invalid_text,omitempty"`
}

// NewStory builds a story from a list of nodes.
// Later nodes with a duplicate ID replace earlier ones.
func NewStory(id, startID string, nodes ...*Node) *Story {
	s := &Story{
		ID:      id,
		StartID: startID,
		Nodes:   make(map[string]*Node, len(nodes)),
	}
	for _, n := range nodes {
		s.Nodes[n.ID] = n
	}
	return s
}

// Node returns the node with the given ID.
func (s *Story) Node(id string) (*Node, bool) {
	n, ok := s.Nodes[id]
	return n, ok
}

// NodeIDs returns all node IDs in sorted order.
func (s *Story) NodeIDs() []string {
	ids := make([]string, 0, len(s.Nodes))
	for id := range s.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// InvalidTextFor resolves the invalid-input text for a node.
func (s *Story) InvalidTextFor(n *Node) string {
	if n.InvalidText != "" {
		return n.InvalidText
	}
	return s.InvalidText
}

// Clone returns a deep copy of the story.
func (s *Story) Clone() *Story {
	if s == nil {
		return nil
	}
	next := *s
	next.Nodes = make(map[string]*Node, len(s.Nodes))
	for id, n := range s.Nodes {
		next.Nodes[id] = n.Clone()
	}
	return &next
}
