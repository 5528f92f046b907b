package domain

// OutcomeTag classifies how a playthrough ended.
type OutcomeTag string

const (
	OutcomeWin     OutcomeTag = "WIN"
	OutcomeSurvive OutcomeTag = "SURVIVE"
	OutcomeLoss    OutcomeTag = "LOSS"
	// OutcomeInvalidInput is emitted by the engine when input matches no choice.
	// It is a narrative branch of its own, not an error.
	OutcomeInvalidInput OutcomeTag = "INVALID_INPUT"
)

// Outcome is an ending classification plus its closing text.
type Outcome struct {
	Tag  OutcomeTag `json:"tag" yaml:"tag" mapstructure:"tag"`
	Text string     `json:"text" yaml:"text" mapstructure:"text"`
}

// IsAuthored reports whether the tag may be used by story authors.
// INVALID_INPUT is reserved for unmatched input.
func (t OutcomeTag) IsAuthored() bool {
	switch t {
	case OutcomeWin, OutcomeSurvive, OutcomeLoss:
		return true
	}
	return false
}
