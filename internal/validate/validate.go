// Package validate contains the pure input-validation layer.
//
// Every function here is stateless and does no I/O: input in, a list of
// human-readable violations out (empty slice = valid). Returning the full
// list instead of failing on the first problem lets callers show a user
// every issue at once.
//
// Validation is deliberately front-loaded: every mutating endpoint runs it
// before touching storage, so database constraints (UNIQUE, NOT NULL) are a
// second, redundant line of defence — never the first.
package validate

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

const (
	MinHandleLength = 3
	MaxHandleLength = 20

	MinQuestionLength = 5
	MaxQuestionLength = 280

	MinAnswerLength = 1
	MaxAnswerLength = 1000
)

var handlePattern = regexp.MustCompile(`^[a-z0-9]+$`)

// reservedHandles can never be registered — they collide with routes or
// would be misleading as public handles.
var reservedHandles = map[string]bool{
	"api":       true,
	"admin":     true,
	"www":       true,
	"auth":      true,
	"login":     true,
	"logout":    true,
	"me":        true,
	"root":      true,
	"support":   true,
	"help":      true,
	"about":     true,
	"stats":     true,
	"activity":  true,
	"users":     true,
	"user":      true,
	"questions": true,
	"question":  true,
	"answers":   true,
	"answer":    true,
	"askbox":    true,
}

// NormalizeHandle is the canonical form a handle is stored and compared in:
// trimmed and lowercased. Uniqueness is case-insensitive because of this —
// "Alice" and "alice" are the same handle.
func NormalizeHandle(handle string) string {
	return strings.ToLower(strings.TrimSpace(handle))
}

// Handle validates a (raw, not-yet-normalized) handle and returns every rule
// it breaks. Rules: 3–20 chars, lowercase letters and digits only, not
// all-numeric, not a reserved word.
func Handle(handle string) []string {
	h := NormalizeHandle(handle)
	length := len([]rune(h))

	var violations []string
	if length < MinHandleLength {
		violations = append(violations,
			fmt.Sprintf("handle must be at least %d characters", MinHandleLength))
	}
	if length > MaxHandleLength {
		violations = append(violations,
			fmt.Sprintf("handle must be at most %d characters", MaxHandleLength))
	}
	if h != "" && !handlePattern.MatchString(h) {
		violations = append(violations,
			"handle may only contain lowercase letters and digits")
	}
	if h != "" && isAllDigits(h) {
		violations = append(violations, "handle cannot be all digits")
	}
	if reservedHandles[h] {
		violations = append(violations,
			fmt.Sprintf("handle %q is reserved", h))
	}
	return violations
}

// QuestionText validates anonymous question text: 5–280 runes, not a single
// repeated character, must contain at least one letter or digit.
func QuestionText(text string) []string {
	return textViolations("question", text, MinQuestionLength, MaxQuestionLength)
}

// AnswerText validates answer text: 1–1000 runes, same content rules as
// questions.
func AnswerText(text string) []string {
	return textViolations("answer", text, MinAnswerLength, MaxAnswerLength)
}

func textViolations(field, text string, min, max int) []string {
	trimmed := strings.TrimSpace(text)
	length := len([]rune(trimmed))

	var violations []string
	if length < min {
		violations = append(violations,
			fmt.Sprintf("%s must be at least %d characters", field, min))
	}
	if length > max {
		violations = append(violations,
			fmt.Sprintf("%s must be at most %d characters", field, max))
	}
	if trimmed != "" && isSingleRuneRepeated(trimmed) {
		violations = append(violations,
			fmt.Sprintf("%s cannot be a single repeated character", field))
	}
	if trimmed != "" && !hasAlphanumeric(trimmed) {
		violations = append(violations,
			fmt.Sprintf("%s must contain at least one letter or digit", field))
	}
	return violations
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// isSingleRuneRepeated reports whether the string is one rune repeated two
// or more times ("aaaaaaa", "??????"). Whitespace is ignored so "a a a a"
// counts too. A lone rune is not repetition.
func isSingleRuneRepeated(s string) bool {
	var first rune
	count := 0
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		if count == 0 {
			first = r
			count++
			continue
		}
		if r != first {
			return false
		}
		count++
	}
	return count >= 2
}

func hasAlphanumeric(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
