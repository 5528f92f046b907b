package loam

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/branchtale/internal/dto"
	"github.com/aretw0/branchtale/internal/testutils"
	"github.com/aretw0/branchtale/pkg/domain"
	"github.com/aretw0/branchtale/pkg/ports"
	"github.com/aretw0/loam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var forkFiles = map[string]string{
	"start.md": `---
choices:
  - key: A
    label: Go left.
    to: left
  - key: B
    label: Go right.
    to:
      tag: LOSS
      text: A bear.
invalid_text: You trip.
---
A fork in the road.
`,
	"left.md": `---
ending: WIN
---
Gold!
`,
}

func forkStory() *domain.Story {
	return domain.NewStory("loam", "start",
		&domain.Node{ID: "start", Prompt: "A fork in the road.", InvalidText: "You trip.", Choices: []domain.Choice{
			{Key: "A", Label: "Go left.", To: "left"},
			{Key: "B", Label: "Go right.", Outcome: &domain.Outcome{Tag: domain.OutcomeLoss, Text: "A bear."}},
		}},
		&domain.Node{ID: "left", Prompt: "Gold!", Ending: domain.OutcomeWin},
	)
}

func TestLoader_Contract(t *testing.T) {
	// 1. Setup
	dir, repo := testutils.SetupTestRepo(t, loam.WithVersioning(false))
	testutils.WriteFiles(t, dir, forkFiles)

	// 2. Run Contract
	loader := New(loam.NewTypedRepository[NodeMetadata](repo))
	ports.RunStoryLoaderContract(t, loader, forkStory())
}

func TestLoader_StartMarker(t *testing.T) {
	dir, repo := testutils.SetupTestRepo(t, loam.WithVersioning(false))
	testutils.WriteFiles(t, dir, map[string]string{
		"mouth.md": "---\nstart: true\noptions:\n  - key: A\n    to: end\n---\nHello\n",
		"end.md":   "---\nending: SURVIVE\n---\nBye\n",
	})

	story, err := New(loam.NewTypedRepository[NodeMetadata](repo), WithStoryID("demo")).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "demo", story.ID)
	assert.Equal(t, "mouth", story.StartID)
	assert.Len(t, story.Nodes["mouth"].Choices, 1, "options are an alias for choices")
}

func TestLoader_ExplicitStartWins(t *testing.T) {
	dir, repo := testutils.SetupTestRepo(t, loam.WithVersioning(false))
	testutils.WriteFiles(t, dir, forkFiles)

	loader := New(loam.NewTypedRepository[NodeMetadata](repo), WithStartNode("left"), WithInvalidText("Nope."))
	story, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "left", story.StartID)
	assert.Equal(t, "Nope.", story.InvalidText)
}

func TestLoader_MultipleStartNodes(t *testing.T) {
	dir, repo := testutils.SetupTestRepo(t, loam.WithVersioning(false))
	testutils.WriteFiles(t, dir, map[string]string{
		"a.md": "---\nstart: true\nending: WIN\n---\nA\n",
		"b.md": "---\nstart: true\nending: WIN\n---\nB\n",
	})

	_, err := New(loam.NewTypedRepository[NodeMetadata](repo)).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "multiple start nodes")
}

func TestLoader_DetectsCollisions(t *testing.T) {
	dir, repo := testutils.SetupTestRepo(t, loam.WithVersioning(false))
	testutils.WriteFiles(t, dir, map[string]string{
		"foo.md":   "---\nid: foo\nending: WIN\n---\nExplicit ID\n",
		"foo.json": `{"id": "foo", "ending": "LOSS"}`,
	})

	_, err := New(loam.NewTypedRepository[NodeMetadata](repo)).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "collision detected")
}

func TestLoader_BadTarget(t *testing.T) {
	dir, repo := testutils.SetupTestRepo(t, loam.WithVersioning(false))
	testutils.WriteFiles(t, dir, map[string]string{
		"start.md": "---\nchoices:\n  - key: A\n    to: [1, 2]\n---\nHi\n",
	})

	_, err := New(loam.NewTypedRepository[NodeMetadata](repo)).Load(context.Background())
	var derr *dto.DecodeError
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, "start", derr.NodeID)
}

func TestLoader_Watch(t *testing.T) {
	dir, repo := testutils.SetupTestRepo(t, loam.WithVersioning(false))
	testutils.WriteFiles(t, dir, forkFiles)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loader := New(loam.NewTypedRepository[NodeMetadata](repo))
	ch, err := loader.Watch(ctx)
	require.NoError(t, err)

	// Give the watcher a moment to attach before touching files.
	time.Sleep(100 * time.Millisecond)
	testutils.WriteFiles(t, dir, map[string]string{"left.md": "---\nending: WIN\n---\nMore gold!\n"})

	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatal("expected a change signal")
	}

	story, err := loader.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "More gold!", story.Nodes["left"].Prompt)
}
