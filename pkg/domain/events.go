package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventNodeEnter EventType = "node_enter"
	EventStep      EventType = "step"
	EventOutcome   EventType = "outcome"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
	StoryID   string    `json:"story_id"`
}

// NodeEvent represents arrival at a node.
type NodeEvent struct {
	EventBase
	NodeID   string `json:"node_id"`
	Terminal bool   `json:"terminal"`
}

// StepEvent represents one processed input.
type StepEvent struct {
	EventBase
	FromNodeID string        `json:"from_node_id"`
	Key        string        `json:"key"`
	Result     StepResult    `json:"result"`
	Duration   time.Duration `json:"duration"`
}

// OutcomeEvent represents the end of a session.
type OutcomeEvent struct {
	EventBase
	NodeID  string     `json:"node_id"`
	Outcome OutcomeTag `json:"outcome"`
	Turns   int        `json:"turns"`
}

// LifecycleHooks defines callbacks for engine observability.
// Any hook may be nil.
type LifecycleHooks struct {
	OnNodeEnter func(context.Context, *NodeEvent)
	OnStep      func(context.Context, *StepEvent)
	OnOutcome   func(context.Context, *OutcomeEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnNodeEnter: chain(h.OnNodeEnter, other.OnNodeEnter),
		OnStep:      chain(h.OnStep, other.OnStep),
		OnOutcome:   chain(h.OnOutcome, other.OnOutcome),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
