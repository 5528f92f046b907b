package validator

import (
	"fmt"
	"strings"
)

// Rule names a single structural check.
type Rule string

const (
	RuleMissingStart       Rule = "missing_start"
	RuleMalformedNode      Rule = "malformed_node"
	RuleDanglingTarget     Rule = "dangling_target"
	RuleInvalidTarget      Rule = "invalid_target"
	RuleCycle              Rule = "cycle"
	RuleChoicelessNode     Rule = "choiceless_node"
	RuleDuplicateKey       Rule = "duplicate_key"
	RuleUnknownOutcome     Rule = "unknown_outcome"
	RuleUnreachableNode    Rule = "unreachable_node"
	RuleMissingInvalidText Rule = "missing_invalid_text"
)

// Violation describes one broken rule, located by node and (optionally) choice key.
type Violation struct {
	Rule      Rule   `json:"rule"`
	NodeID    string `json:"node_id,omitempty"`
	ChoiceKey string `json:"choice_key,omitempty"`
	Message   string `json:"message"`
}

func (v Violation) Error() string {
	var sb strings.Builder
	sb.WriteString(string(v.Rule))
	if v.NodeID != "" {
		fmt.Fprintf(&sb, " [node=%s", v.NodeID)
		if v.ChoiceKey != "" {
			fmt.Fprintf(&sb, " key=%s", v.ChoiceKey)
		}
		sb.WriteString("]")
	}
	sb.WriteString(": ")
	sb.WriteString(v.Message)
	return sb.String()
}

// ValidationError is returned when a story has at least one fatal violation.
type ValidationError struct {
	StoryID    string
	Violations []Violation
}

func (e *ValidationError) Error() string {
	lines := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		lines = append(lines, v.Error())
	}
	return fmt.Sprintf("story %q is invalid (%d errors):\n- %s", e.StoryID, len(e.Violations), strings.Join(lines, "\n- "))
}

// Unwrap exposes each violation so callers can match on them with errors.As.
func (e *ValidationError) Unwrap() []error {
	errs := make([]error, 0, len(e.Violations))
	for _, v := range e.Violations {
		errs = append(errs, v)
	}
	return errs
}

// Has reports whether the error contains a violation of the given rule.
func (e *ValidationError) Has(rule Rule) bool {
	for _, v := range e.Violations {
		if v.Rule == rule {
			return true
		}
	}
	return false
}
