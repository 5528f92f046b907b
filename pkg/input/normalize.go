package input

import "strings"

// Normalize trims surrounding whitespace and upper-folds ASCII letters.
// Non-ASCII runes are left untouched so that "é" never matches "É".
// Absent input (EOF, timeout) is represented by the empty string.
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= 'a' && c <= 'z' {
			return upperASCII(s)
		}
	}
	return s
}

func upperASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - ('a' - 'A')
		}
	}
	return string(b)
}
