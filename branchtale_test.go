package branchtale_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/branchtale"
	"github.com/aretw0/branchtale/internal/stories"
	"github.com/aretw0/branchtale/internal/validator"
	"github.com/aretw0/branchtale/pkg/adapters/memory"
	"github.com/aretw0/branchtale/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCave(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cave.yaml")
	require.NoError(t, os.WriteFile(path, stories.CaveYAML(), 0644))
	return path
}

func TestFacade_FileStory(t *testing.T) {
	ctx := context.Background()
	eng, err := branchtale.New(ctx, writeCave(t))
	require.NoError(t, err)
	assert.Equal(t, "cave", eng.Name)
	assert.Equal(t, "cave-of-whispers", eng.Story().ID)
	assert.True(t, eng.Validation().OK())

	sess, res, err := eng.Start(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, domain.ResultAdvance, res.Kind)
	assert.Contains(t, res.Text, "Welcome to The Cave of Whispers!")

	for _, in := range []string{"a", " A ", "a"} {
		res, err = eng.Advance(ctx, sess, in)
		require.NoError(t, err)
	}
	assert.Equal(t, domain.OutcomeWin, res.Outcome)
	assert.Equal(t, []string{"entrance", "collapse", "crystal", "emerge"}, sess.History)

	_, err = eng.Advance(ctx, sess, "A")
	assert.ErrorIs(t, err, domain.ErrSessionAlreadyTerminal)
}

func TestFacade_LoamDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "start.md"), []byte(`---
choices:
  - key: Y
    to: end
---
Proceed?
`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "end.md"), []byte(`---
ending: WIN
---
Done.
`), 0644))

	eng, err := branchtale.New(context.Background(), dir)
	require.NoError(t, err)

	res, err := eng.Step("start", "y")
	require.NoError(t, err)
	assert.Equal(t, domain.Terminal("end", "Y", domain.OutcomeWin, "Done."), res)

	// No invalid text anywhere: accepted with a warning.
	assert.NotEmpty(t, eng.Validation().Warnings)
}

func TestFacade_RejectsInvalidStory(t *testing.T) {
	story := domain.NewStory("broken", "start",
		&domain.Node{ID: "start", Prompt: "?", Choices: []domain.Choice{{Key: "A", To: "nowhere"}}},
	)

	_, err := branchtale.New(context.Background(), "", branchtale.WithStory(story))
	require.Error(t, err)

	var verr *validator.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Has(validator.RuleDanglingTarget))
}

func TestFacade_RequiresPathOrLoader(t *testing.T) {
	_, err := branchtale.New(context.Background(), "")
	assert.Error(t, err)

	_, err = branchtale.New(context.Background(), filepath.Join(t.TempDir(), "story.txt"))
	assert.Error(t, err)
}

func TestFacade_ReloadKeepsPreviousOnFailure(t *testing.T) {
	ctx := context.Background()
	cave, err := stories.Cave()
	require.NoError(t, err)

	loader := memory.NewLoader(cave)
	eng, err := branchtale.New(ctx, "", branchtale.WithLoader(loader))
	require.NoError(t, err)

	broken := cave.Clone()
	broken.StartID = "missing"
	loader.Set(broken)

	require.Error(t, eng.Reload(ctx))
	assert.Equal(t, "entrance", eng.Story().StartID, "previous story stays in service")
}

func TestFacade_Watch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cave, err := stories.Cave()
	require.NoError(t, err)
	loader := memory.NewLoader(cave)

	eng, err := branchtale.New(ctx, "", branchtale.WithLoader(loader))
	require.NoError(t, err)

	results, err := eng.Watch(ctx)
	require.NoError(t, err)

	next := cave.Clone()
	next.Title = "The Cave, Revisited"
	loader.Set(next)

	select {
	case err := <-results:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for reload")
	}
	assert.Equal(t, "The Cave, Revisited", eng.Story().Title)
}

func TestFacade_WatchUnsupported(t *testing.T) {
	eng, err := branchtale.New(context.Background(), "", branchtale.WithLoader(stories.CaveLoader()))
	require.NoError(t, err)

	_, err = eng.Watch(context.Background())
	assert.Error(t, err)
}

func TestFacade_HooksAndSessions(t *testing.T) {
	ctx := context.Background()
	var outcomes []domain.OutcomeTag
	eng, err := branchtale.New(ctx, "", branchtale.WithLoader(stories.CaveLoader()),
		branchtale.WithLifecycleHooks(domain.LifecycleHooks{
			OnOutcome: func(_ context.Context, e *domain.OutcomeEvent) {
				outcomes = append(outcomes, e.Outcome)
			},
		}))
	require.NoError(t, err)

	mgr := eng.Sessions()
	sess, _, err := mgr.Start(ctx)
	require.NoError(t, err)

	_, res, err := mgr.Step(ctx, sess.ID, "B")
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeSurvive, res.Outcome)
	assert.Equal(t, []domain.OutcomeTag{domain.OutcomeSurvive}, outcomes)

	tr, err := mgr.Store().Load(ctx, sess.ID)
	require.NoError(t, err)

	replayed, err := eng.Verify(ctx, tr)
	require.NoError(t, err)
	assert.True(t, replayed.Done())
}

func TestVersion(t *testing.T) {
	assert.NotEmpty(t, branchtale.Version)
}
