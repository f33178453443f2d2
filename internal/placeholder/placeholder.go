// Package placeholder shields parts of a post that a model must not rewrite
// (links, mentions, and during localization hashtags and inline code) by
// swapping them for numbered markers ([PH0], [PH1], …) before the text is
// sent out, then putting them back afterwards.
package placeholder

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Kind selects a class of content to protect.
type Kind int

const (
	URLs Kind = 1 << iota
	Mentions
	Hashtags
	Code
)

// Revision is the set protected while a draft is revised: hashtags stay
// editable since tag count is something the reviser has to fix.
const Revision = URLs | Mentions | Code

// Localization also freezes hashtags.
const Localization = URLs | Mentions | Hashtags | Code

var (
	reInlineCode  = regexp.MustCompile("`[^`\n]+`")
	reURL         = regexp.MustCompile(`https?://[^\s<>()]+[^\s<>().,;:!?'"]`)
	reMention     = regexp.MustCompile(`(?:^|\B)@[\p{L}\p{N}_][\p{L}\p{N}_.-]*`)
	reHashtag     = regexp.MustCompile(`#[\p{L}\p{N}_]+`)
	rePlaceholder = regexp.MustCompile(`\[PH(\d+)\]`)
)

// Protect replaces the selected kinds with markers in the order they are
// applied (code, URLs, mentions, hashtags) and returns the captured
// originals for Restore.
func Protect(text string, kinds Kind) (string, []string) {
	var markers []string

	replace := func(match string) string {
		id := fmt.Sprintf("[PH%d]", len(markers))
		markers = append(markers, match)
		return id
	}

	// URLs before hashtags so a fragment like page#intro stays in its link.
	if kinds&Code != 0 {
		text = reInlineCode.ReplaceAllStringFunc(text, replace)
	}
	if kinds&URLs != 0 {
		text = reURL.ReplaceAllStringFunc(text, replace)
	}
	if kinds&Mentions != 0 {
		text = reMention.ReplaceAllStringFunc(text, replace)
	}
	if kinds&Hashtags != 0 {
		text = reHashtag.ReplaceAllStringFunc(text, replace)
	}

	return text, markers
}

// Restore puts the originals back. Unknown indices are left as they are.
func Restore(text string, markers []string) string {
	return rePlaceholder.ReplaceAllStringFunc(text, func(match string) string {
		sub := rePlaceholder.FindStringSubmatch(match)
		idx, err := strconv.Atoi(sub[1])
		if err != nil || idx < 0 || idx >= len(markers) {
			return match
		}
		return markers[idx]
	})
}

// InstructionHint is appended to a prompt whenever markers are present.
func InstructionHint() string {
	return "Keep every [PHn] marker exactly as written. Do not translate, move or remove them."
}

// Validate returns the indices of markers missing from text.
func Validate(text string, markers []string) []int {
	var missing []int
	for i := range markers {
		if !strings.Contains(text, fmt.Sprintf("[PH%d]", i)) {
			missing = append(missing, i)
		}
	}
	return missing
}
