package domain

import "errors"

// ErrNodeNotFound is returned when a node ID is not part of the story.
var ErrNodeNotFound = errors.New("node not found")

// ErrNodeIsTerminal is returned when a step is attempted from a node without choices.
var ErrNodeIsTerminal = errors.New("node is terminal")

// ErrSessionAlreadyTerminal is returned when stepping a session that already reached an outcome.
// It signals misuse by the caller, not a narrative condition.
var ErrSessionAlreadyTerminal = errors.New("session already terminal")

// ErrSessionNotFound is returned when a session ID is unknown.
var ErrSessionNotFound = errors.New("session not found")

// ErrTranscriptNotFound is returned when a transcript ID cannot be found in the store.
var ErrTranscriptNotFound = errors.New("transcript not found")
