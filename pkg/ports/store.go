package ports

import (
	"context"

	"github.com/aretw0/branchtale/pkg/domain"
)

// TranscriptStore archives finished playthroughs.
// Transcripts are records, not checkpoints: sessions are never resumed from them.
type TranscriptStore interface {
	// Save persists the transcript under its session ID, replacing any previous one.
	Save(ctx context.Context, t *domain.Transcript) error

	// Load retrieves a transcript.
	// Returns domain.ErrTranscriptNotFound if it does not exist.
	Load(ctx context.Context, sessionID string) (*domain.Transcript, error)

	// List returns the session IDs of all archived transcripts, most recent first.
	List(ctx context.Context) ([]string, error)

	// Delete removes a transcript. Deleting a missing transcript is not an error.
	Delete(ctx context.Context, sessionID string) error
}
