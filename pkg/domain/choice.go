package domain

// Choice maps a key to a target.
// Exactly one of To or Outcome must be set.
type Choice struct {
	Key string `json:"key" yaml:"key"`

	// Label is the option text displayed next to the key (e.g. "Enter the cave.").
	Label string `json:"label,omitempty" yaml:"label,omitempty"`

	// To references another node by ID.
	To string `json:"to,omitempty" yaml:"to,omitempty"`

	// Outcome ends the story inline without a dedicated node.
	Outcome *Outcome `json:"outcome,omitempty" yaml:"outcome,omitempty"`
}

// IsInline reports whether the choice resolves to an inline outcome.
func (c Choice) IsInline() bool {
	return c.Outcome != nil
}
