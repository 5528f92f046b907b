package input

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"unicode/utf8"
)

var (
	// DefaultMaxInputSize is 4KB (conservative default)
	DefaultMaxInputSize = 4096
	// EnvMaxInputSize is the environment variable to override the default
	EnvMaxInputSize = "BRANCHTALE_MAX_INPUT_SIZE"
)

var (
	ErrInputTooLarge = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("input contains invalid UTF-8 sequences")
)

// Sanitize enforces the boundary checks on player input: a size limit and
// UTF-8 validity. Accepted input is returned unchanged; Normalize is the only
// transformation a line goes through.
//
// Rejected input becomes absent input: Sanitize returns "" with the reason, and
// callers step with it so the node's INVALID_INPUT ending fires.
func Sanitize(raw string) (string, error) {
	limit := MaxInputSize()
	if len(raw) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, len(raw), limit)
	}

	if !utf8.ValidString(raw) {
		return "", ErrInvalidUTF8
	}
	return raw, nil
}

// MaxInputSize returns the active input limit in bytes.
func MaxInputSize() int {
	if val := os.Getenv(EnvMaxInputSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxInputSize
}
