package loam

import "github.com/aretw0/branchtale/internal/dto"

// NodeMetadata represents the frontmatter of a node document.
// The markdown body becomes the node prompt.
type NodeMetadata struct {
	ID          string                 `json:"id" mapstructure:"id"`
	Start       bool                   `json:"start" mapstructure:"start"`
	Ending      string                 `json:"ending" mapstructure:"ending"`
	InvalidText string                 `json:"invalid_text" mapstructure:"invalid_text"`
	Choices     []dto.ChoiceDefinition `json:"choices" mapstructure:"choices"`

	// Options is an alias for Choices.
	Options []dto.ChoiceDefinition `json:"options" mapstructure:"options"`
}

func (m NodeMetadata) definition(id, content string) dto.NodeDefinition {
	return dto.NodeDefinition{
		ID:          id,
		Prompt:      content,
		Choices:     append(append([]dto.ChoiceDefinition(nil), m.Choices...), m.Options...),
		Ending:      m.Ending,
		InvalidText: m.InvalidText,
		Start:       m.Start,
	}
}
