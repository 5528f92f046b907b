package ports

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aretw0/branchtale/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTranscript(id string, ended time.Time) *domain.Transcript {
	return &domain.Transcript{
		SessionID: id,
		StoryID:   "cave",
		Inputs:    []string{"A", "B"},
		History:   []string{"entrance", "cave"},
		Outcome:   domain.OutcomeLoss,
		Text:      "You get lost in the dark.",
		StartedAt: ended.Add(-time.Minute),
		EndedAt:   ended,
	}
}

// RunTranscriptStoreContract runs a suite of tests to verify that a TranscriptStore
// implementation adheres to the defined interface contract.
func RunTranscriptStoreContract(t *testing.T, store TranscriptStore) {
	ctx := context.Background()
	prefix := "contract-" + time.Now().Format("20060102150405")
	now := time.Now().UTC().Truncate(time.Second)

	t.Run("Save and Load", func(t *testing.T) {
		// 1. Save
		tr := sampleTranscript(prefix+"-save", now)
		require.NoError(t, store.Save(ctx, tr), "Save should not return error")

		// 2. Load
		loaded, err := store.Load(ctx, tr.SessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, tr.StoryID, loaded.StoryID)
		assert.Equal(t, tr.Inputs, loaded.Inputs)
		assert.Equal(t, tr.History, loaded.History)
		assert.Equal(t, tr.Outcome, loaded.Outcome)
		assert.Equal(t, tr.Text, loaded.Text)
		assert.True(t, tr.EndedAt.Equal(loaded.EndedAt), "EndedAt should survive persistence")
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+prefix)
		assert.ErrorIs(t, err, domain.ErrTranscriptNotFound)
	})

	t.Run("Overwrite", func(t *testing.T) {
		tr := sampleTranscript(prefix+"-overwrite", now)
		require.NoError(t, store.Save(ctx, tr))

		tr.Outcome = domain.OutcomeWin
		require.NoError(t, store.Save(ctx, tr))

		loaded, err := store.Load(ctx, tr.SessionID)
		require.NoError(t, err)
		assert.Equal(t, domain.OutcomeWin, loaded.Outcome)
	})

	t.Run("Delete", func(t *testing.T) {
		tr := sampleTranscript(prefix+"-delete", now)
		require.NoError(t, store.Save(ctx, tr))

		require.NoError(t, store.Delete(ctx, tr.SessionID), "Delete should not return error")

		_, err := store.Load(ctx, tr.SessionID)
		assert.ErrorIs(t, err, domain.ErrTranscriptNotFound, "Load after Delete should return ErrTranscriptNotFound")

		assert.NoError(t, store.Delete(ctx, tr.SessionID), "Deleting twice is a no-op")
	})

	t.Run("List Most Recent First", func(t *testing.T) {
		var ids []string
		for i := range 3 {
			id := fmt.Sprintf("%s-list-%d", prefix, i)
			ids = append(ids, id)
			require.NoError(t, store.Save(ctx, sampleTranscript(id, now.Add(time.Duration(i)*time.Hour))))
		}
		defer func() {
			for _, id := range ids {
				_ = store.Delete(ctx, id)
			}
		}()

		listed, err := store.List(ctx)
		require.NoError(t, err)

		pos := make(map[string]int, len(listed))
		for i, id := range listed {
			pos[id] = i
		}
		for _, id := range ids {
			require.Contains(t, pos, id)
		}
		assert.Less(t, pos[ids[2]], pos[ids[1]])
		assert.Less(t, pos[ids[1]], pos[ids[0]])
	})
}

// RunStoryLoaderContract verifies that a StoryLoader returns a complete, consistent graph.
// want is the story the loader is expected to produce.
func RunStoryLoaderContract(t *testing.T, loader StoryLoader, want *domain.Story) {
	t.Helper()
	ctx := context.Background()

	t.Run("Load", func(t *testing.T) {
		story, err := loader.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, want.StartID, story.StartID)
		assert.Equal(t, want.NodeIDs(), story.NodeIDs())

		for _, id := range want.NodeIDs() {
			got, ok := story.Node(id)
			require.True(t, ok, "node %s missing", id)
			assert.Equal(t, want.Nodes[id], got, "node %s differs", id)
		}
	})

	t.Run("Load Twice Is Stable", func(t *testing.T) {
		a, err := loader.Load(ctx)
		require.NoError(t, err)
		b, err := loader.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})
}
