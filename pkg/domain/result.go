package domain

// ResultKind distinguishes the two StepResult variants.
type ResultKind string

const (
	// ResultAdvance means the session moved to a node that has further choices.
	ResultAdvance ResultKind = "advance"
	// ResultTerminal means the session reached an ending.
	ResultTerminal ResultKind = "terminal"
)

// StepResult is the value produced by one engine step.
// Every input, valid or not, yields a StepResult.
type StepResult struct {
	Kind ResultKind `json:"kind"`

	// NodeID is the node entered. For inline outcomes and invalid input it is
	// the node the step was taken from.
	NodeID string `json:"node_id"`

	// Key is the normalized input that produced this result.
	Key string `json:"key,omitempty"`

	// Text is the next prompt (Advance) or the closing text (Terminal).
	Text string `json:"text"`

	// Outcome is set only for Terminal results.
	Outcome OutcomeTag `json:"outcome,omitempty"`
}

// Advance creates an Advance result.
func Advance(nodeID, key, prompt string) StepResult {
	return StepResult{Kind: ResultAdvance, NodeID: nodeID, Key: key, Text: prompt}
}

// Terminal creates a Terminal result.
func Terminal(nodeID, key string, tag OutcomeTag, text string) StepResult {
	return StepResult{Kind: ResultTerminal, NodeID: nodeID, Key: key, Text: text, Outcome: tag}
}

// IsTerminal reports whether the result ends the session.
func (r StepResult) IsTerminal() bool {
	return r.Kind == ResultTerminal
}
