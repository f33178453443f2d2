// Package postprocess strips model artifacts from generated post text.
//
// Every generator backend runs its raw output through Clean before the text
// becomes a draft, a revision or review feedback.
package postprocess

import (
	"regexp"
	"strings"
)

// Clean removes artifacts in four passes and returns the trimmed result:
//  1. reasoning blocks
//  2. a code fence wrapping the whole answer
//  3. a leading preamble ("Here is the revised post:")
//  4. quotes wrapping the whole answer
func Clean(text string) string {
	text = removeThinkingBlocks(text)
	text = removeCodeFence(text)
	text = removePreamble(text)
	text = removeQuoteWrapping(text)
	return strings.TrimSpace(text)
}

// RE2 has no backreferences, so each tag pair is spelled out.
var thinkingBlockRe = regexp.MustCompile(
	`(?is)<thinking>.*?</thinking>|<think>.*?</think>|<reasoning>.*?</reasoning>|<reflection>.*?</reflection>`,
)

// An opening tag with no close means the model was cut off mid-thought.
var truncatedThinkingRe = regexp.MustCompile(
	`(?is)(?:<thinking>|<think>|<reasoning>|<reflection>).*$`,
)

func removeThinkingBlocks(text string) string {
	text = thinkingBlockRe.ReplaceAllString(text, "")
	text = truncatedThinkingRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

var codeFenceRe = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*\\n(.*?)\\n?```$")

func removeCodeFence(text string) string {
	if m := codeFenceRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return text
}

// Anchored at the start and ending in a colon so a post that merely begins
// with "Here is" survives.
var preamblePatterns = []*regexp.Regexp{
	// "Here is / Here's [the|your] [revised|refined|improved|final|updated] post:"
	regexp.MustCompile(`(?i)^here(?:'s| is)(?: the| your)? (?:revised |refined |improved |final |updated |new )?(?:linkedin )?(?:post|draft|version|text)\s*:`),
	// "[The] [revised] post:" / "Revised draft:"
	regexp.MustCompile(`(?i)^(?:the )?(?:revised |refined |improved |final |updated )?(?:linkedin )?(?:post|draft)\s*:`),
	// "Certainly / Sure / Of course[,] here is [the] post:"
	regexp.MustCompile(`(?i)^(?:certainly|sure|of course|absolutely)[,.!]? here(?:'s| is)(?: the| your)? (?:revised |refined |improved |final |updated )?(?:linkedin )?(?:post|draft|version|text)\s*:`),
	// "Feedback:" in front of review comments
	regexp.MustCompile(`(?i)^(?:my )?feedback\s*:`),
}

func removePreamble(text string) string {
	for _, re := range preamblePatterns {
		if loc := re.FindStringIndex(text); loc != nil && loc[0] == 0 {
			text = strings.TrimSpace(text[loc[1]:])
		}
	}
	return text
}

// removeQuoteWrapping strips one matching pair of outer quotes:
//
//	"…"  '…'  «…»  “…”  ‘…’
func removeQuoteWrapping(text string) string {
	runes := []rune(text)
	n := len(runes)
	if n < 2 {
		return text
	}
	first, last := runes[0], runes[n-1]
	if (first == '"' && last == '"') ||
		(first == '\'' && last == '\'') ||
		(first == '«' && last == '»') ||
		(first == '“' && last == '”') ||
		(first == '‘' && last == '’') {
		return strings.TrimSpace(string(runes[1 : n-1]))
	}
	return text
}
