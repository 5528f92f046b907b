package runtime_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/branchtale/internal/runtime"
	"github.com/aretw0/branchtale/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplay_Deterministic(t *testing.T) {
	story := cave(t)
	eng := runtime.NewEngine()
	ctx := context.Background()

	inputs := []string{"a", "  A", "b"}
	first, err := eng.Replay(ctx, story, "r1", inputs)
	require.NoError(t, err)
	second, err := eng.Replay(ctx, story, "r2", inputs)
	require.NoError(t, err)

	assert.Equal(t, first.History, second.History)
	assert.Equal(t, first.Inputs, second.Inputs)
	assert.Equal(t, *first.Result, *second.Result)
	assert.Equal(t, domain.OutcomeSurvive, first.Result.Outcome)
}

func TestReplay_LeftoverAndShortInputs(t *testing.T) {
	story := cave(t)
	eng := runtime.NewEngine()
	ctx := context.Background()

	sess, err := eng.Replay(ctx, story, "r", []string{"b", "A", "A"})
	require.NoError(t, err)
	assert.True(t, sess.Done())
	assert.Equal(t, []string{"B"}, sess.Inputs)

	sess, err = eng.Replay(ctx, story, "r", []string{"a"})
	require.NoError(t, err)
	assert.False(t, sess.Done())
	assert.Equal(t, "collapse", sess.CurrentNodeID)
}

func TestReplay_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := runtime.NewEngine().Replay(ctx, cave(t), "r", []string{"a"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestVerify(t *testing.T) {
	story := cave(t)
	eng := runtime.NewEngine()
	ctx := context.Background()

	played, err := eng.Replay(ctx, story, "v1", []string{"A", "B"})
	require.NoError(t, err)
	tr := domain.NewTranscript(played)
	require.NotNil(t, tr)

	_, err = eng.Verify(ctx, story, tr)
	require.NoError(t, err)

	tr.Outcome = domain.OutcomeWin
	_, err = eng.Verify(ctx, story, tr)
	var mismatch *runtime.ReplayMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, domain.OutcomeWin, mismatch.Want)
	assert.Equal(t, domain.OutcomeLoss, mismatch.Got)
}
