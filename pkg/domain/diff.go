package domain

// SessionDiff represents the changes between two snapshots of a session.
// It is serialized to JSON for partial updates on SSE and websocket clients.
type SessionDiff struct {
	// SessionID is always present to identify the target.
	SessionID string `json:"session_id"`

	CurrentNodeID *string        `json:"current_node_id,omitempty"`
	Status        *SessionStatus `json:"status,omitempty"`

	// Inputs and History are append-only; only new entries are sent.
	Inputs  []string `json:"inputs,omitempty"`
	History []string `json:"history,omitempty"`

	// Result is set once, when the session terminates.
	Result *StepResult `json:"result,omitempty"`
}

// Diff calculates the difference between oldSess and newSess.
// If oldSess is nil, the diff represents the entire newSess (initial load).
// It returns nil when nothing changed.
func Diff(oldSess, newSess *Session) *SessionDiff {
	if newSess == nil {
		return nil
	}

	diff := &SessionDiff{SessionID: newSess.ID}

	// 1. Position and status
	if oldSess == nil || oldSess.CurrentNodeID != newSess.CurrentNodeID {
		id := newSess.CurrentNodeID
		diff.CurrentNodeID = &id
	}
	if oldSess == nil || oldSess.Status != newSess.Status {
		status := newSess.Status
		diff.Status = &status
	}

	// 2. Append-only logs
	diff.Inputs = appended(oldSess, newSess, func(s *Session) []string { return s.Inputs })
	diff.History = appended(oldSess, newSess, func(s *Session) []string { return s.History })

	// 3. Final result
	if newSess.Result != nil && (oldSess == nil || oldSess.Result == nil) {
		res := *newSess.Result
		diff.Result = &res
	}

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func appended(oldSess, newSess *Session, field func(*Session) []string) []string {
	next := field(newSess)
	if oldSess == nil {
		if len(next) == 0 {
			return nil
		}
		return append([]string(nil), next...)
	}
	prev := field(oldSess)
	if len(next) <= len(prev) {
		return nil
	}
	return append([]string(nil), next[len(prev):]...)
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *SessionDiff) IsEmpty() bool {
	return d.CurrentNodeID == nil &&
		d.Status == nil &&
		len(d.Inputs) == 0 &&
		len(d.History) == 0 &&
		d.Result == nil
}
