package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/branchtale/pkg/adapters/memory"
	"github.com/aretw0/branchtale/pkg/domain"
	"github.com/aretw0/branchtale/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func demoStory() *domain.Story {
	return domain.NewStory("demo", "start",
		&domain.Node{ID: "start", Prompt: "Go?", Choices: []domain.Choice{{Key: "A", To: "end"}}},
		&domain.Node{ID: "end", Prompt: "Done.", Ending: domain.OutcomeWin},
	)
}

func TestInMemoryLoader_Contract(t *testing.T) {
	story := demoStory()
	ports.RunStoryLoaderContract(t, memory.NewLoader(story), story)
}

func TestNewFromNodes(t *testing.T) {
	loader, err := memory.NewFromNodes("start",
		domain.Node{ID: "start", Choices: []domain.Choice{{Key: "A", To: "end"}}},
		domain.Node{ID: "end", Ending: domain.OutcomeLoss},
	)
	require.NoError(t, err)

	story, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"end", "start"}, story.NodeIDs())

	_, err = memory.NewFromNodes("start", domain.Node{Prompt: "no id"})
	assert.Error(t, err)
}

func TestLoader_LoadReturnsCopy(t *testing.T) {
	loader := memory.NewLoader(demoStory())

	first, err := loader.Load(context.Background())
	require.NoError(t, err)
	first.Nodes["start"].Prompt = "mutated"

	second, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Go?", second.Nodes["start"].Prompt)
}

func TestLoader_WatchSignalsOnSet(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	loader := memory.NewLoader(demoStory())

	ch, err := loader.Watch(ctx)
	require.NoError(t, err)

	next := demoStory()
	next.Nodes["start"].Prompt = "Changed"
	loader.Set(next)

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("expected a change signal")
	}

	story, _ := loader.Load(ctx)
	assert.Equal(t, "Changed", story.Nodes["start"].Prompt)

	cancel()
	assert.Eventually(t, func() bool {
		_, open := <-ch
		return !open
	}, time.Second, 10*time.Millisecond)
}
