package domain

import "time"

// Transcript is the archived record of a finished playthrough.
// It is an audit record only: sessions are never resumed from it.
type Transcript struct {
	SessionID string     `json:"session_id"`
	StoryID   string     `json:"story_id"`
	Inputs    []string   `json:"inputs"`
	History   []string   `json:"history"`
	Outcome   OutcomeTag `json:"outcome"`
	Text      string     `json:"text"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   time.Time  `json:"ended_at"`
}

// NewTranscript builds a transcript from a terminated session.
// It returns nil if the session has not terminated.
func NewTranscript(s *Session) *Transcript {
	if s == nil || !s.Done() || s.Result == nil {
		return nil
	}
	return &Transcript{
		SessionID: s.ID,
		StoryID:   s.StoryID,
		Inputs:    append([]string(nil), s.Inputs...),
		History:   append([]string(nil), s.History...),
		Outcome:   s.Result.Outcome,
		Text:      s.Result.Text,
		StartedAt: s.StartedAt,
		EndedAt:   s.EndedAt,
	}
}
