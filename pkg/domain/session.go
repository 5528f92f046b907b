package domain

import "time"

// SessionStatus defines whether a playthrough is still running.
type SessionStatus string

const (
	StatusActive     SessionStatus = "active"     // Waiting for the next input
	StatusTerminated SessionStatus = "terminated" // Absorbing Done state reached
)

// Session captures one playthrough: its position and the inputs received so far.
// A Session is exclusively owned by whoever created it; it is never shared.
type Session struct {
	ID      string `json:"id"`
	StoryID string `json:"story_id"`

	// CurrentNodeID is the node awaiting input (or the node where the session ended).
	CurrentNodeID string `json:"current_node_id"`

	Status SessionStatus `json:"status"`

	// Inputs holds the normalized inputs received, in order.
	Inputs []string `json:"inputs"`

	// History lists the nodes entered, starting with the start node.
	History []string `json:"history"`

	// Result is the final step result once the session has terminated.
	Result *StepResult `json:"result,omitempty"`

	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at,omitzero"`

	// Story is the graph snapshot this session runs against.
	// Reloading a story does not affect sessions already in flight.
	Story *Story `json:"-"`
}

// NewSession creates a clean session positioned at the story's start node.
func NewSession(id string, story *Story) *Session {
	return &Session{
		ID:            id,
		StoryID:       story.ID,
		CurrentNodeID: story.StartID,
		Status:        StatusActive,
		Inputs:        []string{},
		History:       []string{story.StartID},
		StartedAt:     time.Now().UTC(),
		Story:         story,
	}
}

// Done reports whether the session reached the absorbing terminal state.
func (s *Session) Done() bool {
	return s.Status == StatusTerminated
}

// Snapshot returns a copy that can be mutated without affecting the original.
func (s *Session) Snapshot() *Session {
	if s == nil {
		return nil
	}
	next := *s
	next.Inputs = append([]string(nil), s.Inputs...)
	next.History = append([]string(nil), s.History...)
	if s.Result != nil {
		res := *s.Result
		next.Result = &res
	}
	return &next
}
