package runtime_test

import (
	"testing"

	"github.com/aretw0/branchtale/internal/runtime"
	"github.com/aretw0/branchtale/internal/stories"
	"github.com/aretw0/branchtale/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cave(t *testing.T) *domain.Story {
	t.Helper()
	story, err := stories.Cave()
	require.NoError(t, err)
	return story
}

func TestStep_Cave(t *testing.T) {
	story := cave(t)

	tests := []struct {
		name     string
		nodeID   string
		raw      string
		wantKind domain.ResultKind
		wantNode string
		wantTag  domain.OutcomeTag
		wantText string
	}{
		{"Lowercase advances", "entrance", "a", domain.ResultAdvance, "collapse", "", "The entrance collapses"},
		{"Padded advances", "entrance", "  A\n", domain.ResultAdvance, "collapse", "", "  A) Follow the whispers."},
		{"Walk away", "entrance", "b", domain.ResultTerminal, "entrance", domain.OutcomeSurvive, "walk away"},
		{"Lost in the dark", "collapse", "B", domain.ResultTerminal, "collapse", domain.OutcomeLoss, "lost in the dark"},
		{"Take the crystal", "crystal", "A", domain.ResultTerminal, "emerge", domain.OutcomeWin, "Congratulations"},
		{"Leave the crystal", "crystal", "B", domain.ResultTerminal, "crystal", domain.OutcomeSurvive, "mystery of the cave"},
		{"Unknown key", "entrance", "Q", domain.ResultTerminal, "entrance", domain.OutcomeInvalidInput, "stumble and fall"},
		{"Empty input", "collapse", "", domain.ResultTerminal, "collapse", domain.OutcomeInvalidInput, "consumed by the darkness"},
		{"Multi-character", "crystal", "AB", domain.ResultTerminal, "crystal", domain.OutcomeInvalidInput, "crystal's light fades"},
		{"Escape prefix", "entrance", "\x1bB", domain.ResultTerminal, "entrance", domain.OutcomeInvalidInput, "stumble and fall"},
		{"Whitespace only", "entrance", " \t\r\n", domain.ResultTerminal, "entrance", domain.OutcomeInvalidInput, "stumble and fall"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := runtime.Step(story, tt.nodeID, tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, res.Kind)
			assert.Equal(t, tt.wantNode, res.NodeID)
			assert.Equal(t, tt.wantTag, res.Outcome)
			assert.Contains(t, res.Text, tt.wantText)
		})
	}
}

func TestStep_MatchedKeyNeverInvalid(t *testing.T) {
	story := cave(t)
	for _, id := range story.NodeIDs() {
		node, _ := story.Node(id)
		for _, c := range node.Choices {
			res, err := runtime.Step(story, id, c.Key)
			require.NoError(t, err)
			assert.NotEqual(t, domain.OutcomeInvalidInput, res.Outcome, "%s/%s", id, c.Key)
			if c.IsInline() {
				assert.Equal(t, c.Outcome.Tag, res.Outcome)
			} else {
				assert.Equal(t, c.To, res.NodeID)
			}
		}
	}
}

func TestStep_StoryInvalidTextFallback(t *testing.T) {
	story := domain.NewStory("fallback", "door",
		&domain.Node{ID: "door", Prompt: "A door.", Choices: []domain.Choice{
			{Key: "o", To: "hall"},
		}},
		&domain.Node{ID: "hall", Prompt: "A hall.", Ending: domain.OutcomeWin},
	)
	story.InvalidText = "Nothing happens."

	res, err := runtime.Step(story, "door", "x")
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeInvalidInput, res.Outcome)
	assert.Equal(t, "Nothing happens.", res.Text)
	assert.Equal(t, "X", res.Key)

	// Authored keys are matched case-insensitively too.
	res, err = runtime.Step(story, "door", "O")
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeWin, res.Outcome)
	assert.Equal(t, "hall", res.NodeID)
}

func TestStep_Errors(t *testing.T) {
	story := cave(t)

	_, err := runtime.Step(story, "nowhere", "A")
	assert.ErrorIs(t, err, domain.ErrNodeNotFound)

	_, err = runtime.Step(story, "emerge", "A")
	assert.ErrorIs(t, err, domain.ErrNodeIsTerminal)
}
