package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/branchtale/pkg/domain"
	"github.com/aretw0/branchtale/pkg/ports"
)

// Redacted replaces an archived input that matched a redaction pattern.
const Redacted = "***"

type redactMiddleware struct {
	next     ports.TranscriptStore
	patterns []*regexp.Regexp
}

// NewRedactMiddleware masks archived inputs matching any of the patterns.
// Inputs are archived normalized, so patterns should match upper-case text.
func NewRedactMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid redaction pattern %q: %w", p, err)
		}
		patterns[i] = re
	}
	return func(next ports.TranscriptStore) ports.TranscriptStore {
		return &redactMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *redactMiddleware) Save(ctx context.Context, t *domain.Transcript) error {
	// Copy to avoid side effects on the caller's transcript.
	cloned := *t
	cloned.Inputs = make([]string, len(t.Inputs))
	for i, in := range t.Inputs {
		cloned.Inputs[i] = m.mask(in)
	}
	return m.next.Save(ctx, &cloned)
}

func (m *redactMiddleware) mask(in string) string {
	for _, p := range m.patterns {
		if p.MatchString(in) {
			return Redacted
		}
	}
	return in
}

func (m *redactMiddleware) Load(ctx context.Context, sessionID string) (*domain.Transcript, error) {
	return m.next.Load(ctx, sessionID)
}

func (m *redactMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *redactMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}
