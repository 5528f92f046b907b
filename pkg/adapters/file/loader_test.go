package file_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/branchtale/internal/dto"
	"github.com/aretw0/branchtale/internal/validator"
	"github.com/aretw0/branchtale/pkg/adapters/file"
	"github.com/aretw0/branchtale/pkg/domain"
	"github.com/aretw0/branchtale/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const storyYAML = `
id: fork
start: start
invalid_text: Nothing happens.
nodes:
  start:
    prompt: |
      A fork in the road.
    choices:
      - key: a
        label: Go left.
        to: left
      - key: b
        label: Go right.
        to: {tag: LOSS, text: "A bear."}
  left:
    ending: WIN
    prompt: Gold!
`

const storyJSON = `{
  "id": "fork",
  "start": "start",
  "invalid_text": "Nothing happens.",
  "nodes": {
    "start": {
      "prompt": "A fork in the road.",
      "choices": [
        {"key": "a", "label": "Go left.", "to": "left"},
        {"key": "b", "label": "Go right.", "to": {"tag": "LOSS", "text": "A bear."}}
      ]
    },
    "left": {"ending": "WIN", "prompt": "Gold!"}
  }
}`

func forkStory() *domain.Story {
	s := domain.NewStory("fork", "start",
		&domain.Node{ID: "start", Prompt: "A fork in the road.", Choices: []domain.Choice{
			{Key: "a", Label: "Go left.", To: "left"},
			{Key: "b", Label: "Go right.", Outcome: &domain.Outcome{Tag: domain.OutcomeLoss, Text: "A bear."}},
		}},
		&domain.Node{ID: "left", Prompt: "Gold!", Ending: domain.OutcomeWin},
	)
	s.InvalidText = "Nothing happens."
	return s
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoader_Contract_YAML(t *testing.T) {
	ports.RunStoryLoaderContract(t, file.NewLoader(writeFile(t, "fork.yaml", storyYAML)), forkStory())
}

func TestLoader_Contract_JSON(t *testing.T) {
	ports.RunStoryLoaderContract(t, file.NewLoader(writeFile(t, "fork.json", storyJSON)), forkStory())
}

func TestLoader_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := file.NewLoader(filepath.Join(t.TempDir(), "missing.yaml")).Load(ctx)
	assert.Error(t, err)

	_, err = file.NewLoader(writeFile(t, "bad.yaml", "nodes: [unclosed")).Load(ctx)
	var derr *dto.DecodeError
	assert.True(t, errors.As(err, &derr))

	_, err = file.NewLoader(writeFile(t, "empty.yaml", "")).Load(ctx)
	assert.True(t, errors.As(err, &derr))
}

func TestLoader_IntegerNodeIDs(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"YAML", `
start: 1
nodes:
  1:
    prompt: Room one.
    invalid_text: You wait too long.
    choices:
      - key: A
        label: Next room.
        to: 2
  2:
    prompt: Room two.
    ending: WIN
`},
		{"JSON", `{
  "start": 1,
  "nodes": {
    "1": {"prompt": "Room one.", "invalid_text": "You wait too long.",
          "choices": [{"key": "A", "label": "Next room.", "to": 2}]},
    "2": {"prompt": "Room two.", "ending": "WIN"}
  }
}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			story, err := file.NewLoader(writeFile(t, "rooms."+strings.ToLower(tt.name), tt.content)).Load(context.Background())
			require.NoError(t, err)

			assert.Equal(t, "1", story.StartID)
			one, ok := story.Node("1")
			require.True(t, ok)
			require.Len(t, one.Choices, 1)
			assert.Equal(t, "2", one.Choices[0].To)
			assert.True(t, validator.Validate(story).OK())
		})
	}
}

func TestLoader_Watch(t *testing.T) {
	path := writeFile(t, "fork.yaml", storyYAML)
	loader := file.NewLoader(path)
	loader.Interval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := loader.Watch(ctx)
	require.NoError(t, err)

	// Bump both size and mtime so coarse filesystem clocks still register the change.
	require.NoError(t, os.WriteFile(path, []byte(storyYAML+"\ntitle: Fork\n"), 0644))
	future := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, future, future))

	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("expected a change signal")
	}

	story, err := loader.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Fork", story.Title)
}
