package ports

import (
	"context"

	"github.com/aretw0/branchtale/pkg/domain"
)

// SessionService manages concurrent, independent sessions by ID.
// This is the primary interface used by adapters (e.g., HTTP, MCP) that serve many players.
type SessionService interface {
	// Start opens a new session on the current story and returns its arrival result.
	Start(ctx context.Context) (*domain.Session, domain.StepResult, error)

	// Step applies one raw input to a session and returns its updated snapshot.
	// Stepping a finished session returns domain.ErrSessionAlreadyTerminal.
	Step(ctx context.Context, sessionID, raw string) (*domain.Session, domain.StepResult, error)

	// Get returns a snapshot of an active or archived session.
	Get(ctx context.Context, sessionID string) (*domain.Session, error)

	// Story returns the story new sessions will be started on.
	Story() *domain.Story
}
