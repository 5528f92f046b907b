package runtime

import (
	"context"
	"fmt"
	"slices"

	"github.com/aretw0/branchtale/pkg/domain"
)

// ReplayMismatchError reports that a recorded playthrough no longer produces
// the same ending against the current story.
type ReplayMismatchError struct {
	SessionID string
	Want      domain.OutcomeTag
	Got       domain.OutcomeTag
	WantPath  []string
	GotPath   []string
}

func (e *ReplayMismatchError) Error() string {
	return fmt.Sprintf("replay of %s diverged: recorded %s via %v, got %s via %v",
		e.SessionID, e.Want, e.WantPath, e.Got, e.GotPath)
}

// Replay runs inputs through a fresh session until it terminates.
// Inputs left over after termination are ignored. If inputs run out first,
// the session is returned still active.
func (e *Engine) Replay(ctx context.Context, story *domain.Story, sessionID string, inputs []string) (*domain.Session, error) {
	sess, res, err := e.Start(ctx, story, sessionID)
	if err != nil {
		return nil, err
	}
	for _, raw := range inputs {
		if res.IsTerminal() {
			break
		}
		if err := ctx.Err(); err != nil {
			return sess, err
		}
		if res, err = e.Advance(ctx, sess, raw); err != nil {
			return sess, err
		}
	}
	return sess, nil
}

// Verify replays a transcript and checks that it reaches the recorded ending
// through the recorded nodes.
func (e *Engine) Verify(ctx context.Context, story *domain.Story, tr *domain.Transcript) (*domain.Session, error) {
	sess, err := e.Replay(ctx, story, tr.SessionID, tr.Inputs)
	if err != nil {
		return nil, err
	}

	var got domain.OutcomeTag
	if sess.Result != nil {
		got = sess.Result.Outcome
	}
	if got != tr.Outcome || !slices.Equal(sess.History, tr.History) {
		return sess, &ReplayMismatchError{
			SessionID: tr.SessionID,
			Want:      tr.Outcome,
			Got:       got,
			WantPath:  tr.History,
			GotPath:   sess.History,
		}
	}
	return sess, nil
}
