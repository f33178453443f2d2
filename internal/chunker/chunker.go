// Package chunker cuts long source material at natural boundaries so it
// fits a prompt budget, and produces short previews of posts.
package chunker

import (
	"strings"
	"unicode"
)

// DefaultPreviewWords is used by Preview when wordCount is not positive.
const DefaultPreviewWords = 25

// Chunk splits text into pieces of at most maxChars code points. Each split
// prefers, in order: a blank line, sentence-ending punctuation followed by
// whitespace, any whitespace, and finally a hard cut.
//
// maxChars <= 0 means unlimited.
func Chunk(text string, maxChars int) []string {
	if maxChars <= 0 || len([]rune(text)) <= maxChars {
		return []string{text}
	}

	var chunks []string
	remaining := []rune(text)

	for len(remaining) > maxChars {
		split := findSplit(remaining, maxChars)
		if chunk := strings.TrimSpace(string(remaining[:split])); chunk != "" {
			chunks = append(chunks, chunk)
		}
		remaining = []rune(strings.TrimSpace(string(remaining[split:])))
	}

	if tail := strings.TrimSpace(string(remaining)); tail != "" {
		chunks = append(chunks, tail)
	}
	return chunks
}

// findSplit returns the rune index at which to cut, at most maxChars.
func findSplit(runes []rune, maxChars int) int {
	candidate := runes[:maxChars]

	for i := len(candidate) - 2; i > 0; i-- {
		if candidate[i] == '\n' && candidate[i+1] == '\n' {
			return i + 2
		}
	}

	for i := len(candidate) - 2; i > 0; i-- {
		r := candidate[i]
		if (r == '.' || r == '!' || r == '?') && unicode.IsSpace(candidate[i+1]) {
			return i + 1
		}
	}

	for i := len(candidate) - 1; i > 0; i-- {
		if unicode.IsSpace(candidate[i]) {
			return i
		}
	}

	return maxChars
}

// Limit keeps the leading part of text that fits in maxChars, cut at the same
// boundaries Chunk uses. It reports whether anything was dropped.
func Limit(text string, maxChars int) (string, bool) {
	chunks := Chunk(text, maxChars)
	if len(chunks) <= 1 {
		return text, false
	}
	return chunks[0], true
}

// Preview returns the first wordCount words of text on one line, with an
// ellipsis when words were dropped.
func Preview(text string, wordCount int) string {
	if wordCount <= 0 {
		wordCount = DefaultPreviewWords
	}
	words := strings.Fields(text)
	if len(words) <= wordCount {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:wordCount], " ") + "…"
}
