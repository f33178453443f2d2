// Package quality scores a post draft along independent structural axes:
// length, hashtag density and emoji density.
//
// Every evaluator is a pure function of its input text and thresholds. None of
// them fails: empty text yields a belowRange or missing verdict measured at 0.
package quality

import (
	"fmt"
	"math"
	"regexp"
	"unicode/utf8"
)

// Axis names one measured dimension.
type Axis string

const (
	AxisLength        Axis = "length"
	AxisTagDensity    Axis = "tagDensity"
	AxisSymbolDensity Axis = "symbolDensity"
)

// Axes lists every axis a complete review must evaluate.
var Axes = []Axis{AxisLength, AxisTagDensity, AxisSymbolDensity}

// Status classifies a measured value against an axis band.
type Status string

const (
	StatusGood                    Status = "good"
	StatusBelowRange              Status = "belowRange"
	StatusAboveRange              Status = "aboveRange"
	StatusAboveRangeButAcceptable Status = "aboveRangeButAcceptable"
	StatusMissing                 Status = "missing"
)

// Verdict is the result of evaluating one axis on one draft.
type Verdict struct {
	Axis          Axis    `json:"axis"`
	Status        Status  `json:"status"`
	MeasuredValue float64 `json:"measured_value"`
	Feedback      string  `json:"feedback"`
}

func (v Verdict) String() string {
	return fmt.Sprintf("%s=%s(%g)", v.Axis, v.Status, v.MeasuredValue)
}

var (
	// hashtagRe matches '#' followed by letters, digits or underscores in any script.
	hashtagRe = regexp.MustCompile(`#[\p{L}\p{N}_]+`)

	// emojiRe matches a single pictographic symbol. Ranges cover emoticons,
	// pictographs, transport, flags, dingbats and the supplemental blocks.
	emojiRe = regexp.MustCompile(`[\x{1F600}-\x{1F64F}\x{1F300}-\x{1F5FF}\x{1F680}-\x{1F6FF}\x{1F1E0}-\x{1F1FF}\x{1F900}-\x{1F9FF}\x{1FA70}-\x{1FAFF}\x{2600}-\x{26FF}\x{2700}-\x{27BF}]`)
)

// Evaluate runs every axis against text.
func Evaluate(text string, th Thresholds) []Verdict {
	return []Verdict{
		EvaluateLength(text, th),
		EvaluateTags(text, th),
		EvaluateSymbols(text, th),
	}
}

// CharCount counts characters (code points), not bytes.
func CharCount(text string) int {
	return utf8.RuneCountInString(text)
}

// EvaluateLength classifies the character count of text.
func EvaluateLength(text string, th Thresholds) Verdict {
	n := CharCount(text)
	band := th.LengthBand

	var status Status
	switch {
	case n > th.LengthCeiling:
		status = StatusAboveRange
	case band.Contains(n):
		status = StatusGood
	case n < band.Min:
		status = StatusBelowRange
	default:
		status = StatusAboveRangeButAcceptable
	}

	return Verdict{
		Axis:          AxisLength,
		Status:        status,
		MeasuredValue: float64(n),
		Feedback:      lengthFeedback(n, status, th),
	}
}

func lengthFeedback(n int, status Status, th Thresholds) string {
	band := th.LengthBand
	switch status {
	case StatusAboveRange:
		return fmt.Sprintf("Post is %d characters over the %d character limit. Must be shortened.", n-th.LengthCeiling, th.LengthCeiling)
	case StatusBelowRange:
		return fmt.Sprintf("Post is quite short (%d chars). Expand it to %d-%d characters for optimal engagement.", n, band.Min, band.Max)
	case StatusAboveRangeButAcceptable:
		return fmt.Sprintf("Post is long (%d chars). This is acceptable but posts around %d-%d chars tend to perform best.", n, band.Min, band.Max)
	default:
		return fmt.Sprintf("Post length is optimal (%d chars).", n)
	}
}

// Hashtags returns the hashtags found in text, in order of appearance.
func Hashtags(text string) []string {
	return hashtagRe.FindAllString(text, -1)
}

// EvaluateTags classifies the hashtag count of text.
func EvaluateTags(text string, th Thresholds) Verdict {
	n := len(Hashtags(text))
	band := th.TagBand

	var status Status
	switch {
	case n == 0:
		status = StatusMissing
	case n > th.TagCeiling:
		status = StatusAboveRange
	case band.Contains(n):
		status = StatusGood
	case n < band.Min:
		status = StatusBelowRange
	default:
		status = StatusAboveRangeButAcceptable
	}

	return Verdict{
		Axis:          AxisTagDensity,
		Status:        status,
		MeasuredValue: float64(n),
		Feedback:      tagFeedback(n, status, th),
	}
}

func tagFeedback(n int, status Status, th Thresholds) string {
	band := th.TagBand
	switch status {
	case StatusMissing:
		return fmt.Sprintf("No hashtags found. Add %d-%d relevant hashtags for better discoverability.", band.Min, band.Max)
	case StatusAboveRange:
		return fmt.Sprintf("Too many hashtags (%d). Keep %d-%d hashtags for optimal engagement.", n, band.Min, band.Max)
	case StatusBelowRange:
		return fmt.Sprintf("Only %d hashtag(s). Consider adding a few more (%d-%d total) for better reach.", n, band.Min, band.Max)
	case StatusAboveRangeButAcceptable:
		return fmt.Sprintf("Hashtag count is high (%d) but acceptable. %d-%d usually performs best.", n, band.Min, band.Max)
	default:
		return fmt.Sprintf("Hashtag usage is good (%d hashtags).", n)
	}
}

// Symbols returns the emoji-like glyphs found in text.
func Symbols(text string) []string {
	return emojiRe.FindAllString(text, -1)
}

// SymbolDensity returns matched symbols per character, as a percentage
// rounded to two decimals.
func SymbolDensity(text string) (count int, density float64) {
	count = len(Symbols(text))
	chars := CharCount(text)
	if chars == 0 {
		return count, 0
	}
	return count, round2(float64(count) / float64(chars) * 100)
}

// EvaluateSymbols classifies the emoji density of text.
func EvaluateSymbols(text string, th Thresholds) Verdict {
	count, density := SymbolDensity(text)
	band := th.SymbolDensityBand

	var status Status
	switch {
	case count == 0:
		status = StatusMissing
	case band.Contains(density):
		status = StatusGood
	case density < band.Min:
		status = StatusBelowRange
	default:
		status = StatusAboveRange
	}

	return Verdict{
		Axis:          AxisSymbolDensity,
		Status:        status,
		MeasuredValue: density,
		Feedback:      symbolFeedback(count, density, status),
	}
}

func symbolFeedback(count int, density float64, status Status) string {
	switch status {
	case StatusMissing:
		return "No emojis found. Consider adding a few emojis for visual appeal (but keep it professional)."
	case StatusAboveRange:
		return fmt.Sprintf("High emoji density (%.1f%%). Reduce emojis for a more professional tone.", density)
	case StatusBelowRange:
		return fmt.Sprintf("Low emoji usage (%d emoji(s)). This is fine for professional posts.", count)
	default:
		return fmt.Sprintf("Emoji usage is balanced (%d emoji(s), %.1f%% density).", count, density)
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
