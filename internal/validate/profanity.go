package validate

import (
	"math/rand"
	"strings"
	"sync"
	"unicode"
)

// PROFANITY SCREENING:
// Submitted question text goes through a normalization pipeline before being
// matched against a fixed list of canonical words. Normalizing first means
// the word list stays small and readable — we never enumerate obfuscated
// variants, we undo the obfuscation instead:
//
//  1. lowercase
//  2. map common leet-speak substitutions back to letters (@→a, 3→e, ...)
//  3. drop everything that isn't a letter (punctuation becomes separators)
//  4. collapse repeated letters ("fuuuuck" → "fuck")
//
// This is a submission filter, not a security boundary: a determined user
// can always get around it, and that's fine.

// canonicalProfanity is the fixed list of blocked words, in clean canonical
// form. Matching happens against whole words of the normalized text.
var canonicalProfanity = []string{
	"fuck",
	"shit",
	"bitch",
	"asshole",
	"bastard",
	"cunt",
	"dick",
	"faggot",
	"nigger",
	"whore",
	"slut",
}

// leetReplacements maps obfuscation characters back to the letter they
// imitate. Applied before stripping non-letters so "sh!t" → "shit".
var leetReplacements = strings.NewReplacer(
	"@", "a",
	"4", "a",
	"3", "e",
	"!", "i",
	"1", "i",
	"0", "o",
	"$", "s",
	"5", "s",
	"7", "t",
	"+", "t",
)

// blockedWords is the canonical list pushed through the same repeat
// collapsing the submitted text gets, so doubled letters on either side
// compare equal ("asshole" and "aashole" both become "ashole").
var blockedWords = func() map[string]bool {
	m := make(map[string]bool, len(canonicalProfanity))
	for _, w := range canonicalProfanity {
		m[collapseRepeats(w)] = true
	}
	return m
}()

// ContainsProfanity reports whether the text contains a blocked word after
// obfuscation-tolerant normalization. Pure function, safe for concurrent use.
func ContainsProfanity(text string) bool {
	normalized := normalizeForScreening(text)
	for _, word := range strings.Fields(normalized) {
		if blockedWords[word] {
			return true
		}
	}
	return false
}

func normalizeForScreening(text string) string {
	cleaned := leetReplacements.Replace(strings.ToLower(text))

	// Keep letters, turn everything else into word separators.
	var b strings.Builder
	b.Grow(len(cleaned))
	for _, r := range cleaned {
		if unicode.IsLetter(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}

	return collapseRepeats(b.String())
}

// collapseRepeats reduces runs of the same letter to a single letter, so
// "shiiiit" normalizes to "shit". Spaces are preserved as separators.
func collapseRepeats(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	var prev rune = -1
	for _, r := range s {
		if r == prev && r != ' ' {
			continue
		}
		b.WriteRune(r)
		prev = r
	}
	return b.String()
}

// rejectionMessages are shown when a submission is blocked. The variety is
// purely cosmetic — none of them reveal which word matched.
var rejectionMessages = []string{
	"that question won't fly here, try rephrasing",
	"keep it civil — your question was not sent",
	"the inbox declined your question, mind the language",
	"that one's a bit much, tone it down and resubmit",
}

// MessagePicker picks a random rejection message, never repeating the
// previous pick. It carries its own rand source and lock instead of mutating
// package-level state, so it can be constructed where it's needed and shared
// across request goroutines.
type MessagePicker struct {
	mu   sync.Mutex
	rng  *rand.Rand
	last int
}

// NewMessagePicker creates a MessagePicker seeded with the given seed.
func NewMessagePicker(seed int64) *MessagePicker {
	return &MessagePicker{
		rng:  rand.New(rand.NewSource(seed)),
		last: -1,
	}
}

// Pick returns a rejection message different from the previous one.
func (p *MessagePicker) Pick() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	i := p.rng.Intn(len(rejectionMessages))
	if i == p.last {
		i = (i + 1) % len(rejectionMessages)
	}
	p.last = i
	return rejectionMessages[i]
}
