// Package style maps user preferences onto a closed set of writing styles,
// post structures and tones, each resolved to a declarative Template that the
// generation stages hand to the generator.
package style

import "strings"

type WritingStyle string

const (
	StyleStorytelling WritingStyle = "storytelling"
	StyleTechnical    WritingStyle = "technical"
	StyleCasual       WritingStyle = "casual"
	StyleFormal       WritingStyle = "formal"
	StyleProfessional WritingStyle = "professional"
)

// WritingStyles lists every known style.
var WritingStyles = []WritingStyle{StyleStorytelling, StyleTechnical, StyleCasual, StyleFormal, StyleProfessional}

type PostStructure string

const (
	StructureStorytelling    PostStructure = "storytelling"
	StructureListBased       PostStructure = "list-based"
	StructureProblemSolution PostStructure = "problem-solution"
	StructureNarrative       PostStructure = "narrative"
	StructureCustom          PostStructure = "custom"
)

var PostStructures = []PostStructure{StructureStorytelling, StructureListBased, StructureProblemSolution, StructureNarrative, StructureCustom}

type Tone string

const (
	ToneEnthusiastic  Tone = "enthusiastic"
	ToneAnalytical    Tone = "analytical"
	ToneInspirational Tone = "inspirational"
	ToneProfessional  Tone = "professional"
)

var Tones = []Tone{ToneEnthusiastic, ToneAnalytical, ToneInspirational, ToneProfessional}

// Usage is how freely emoji or hashtags are used.
type Usage string

const (
	UsageNone     Usage = "none"
	UsageModerate Usage = "moderate"
	UsageFrequent Usage = "frequent"
)

var Usages = []Usage{UsageNone, UsageModerate, UsageFrequent}

type SentenceStructure string

const (
	SentencesShort SentenceStructure = "short"
	SentencesLong  SentenceStructure = "long"
	SentencesMixed SentenceStructure = "mixed"
)

var SentenceStructures = []SentenceStructure{SentencesShort, SentencesLong, SentencesMixed}

type HookStyle string

const (
	HookQuestion  HookStyle = "question"
	HookStatement HookStyle = "statement"
	HookStory     HookStyle = "story"
)

var HookStyles = []HookStyle{HookQuestion, HookStatement, HookStory}

// parse returns the member of known equal to s (case-insensitive), or
// fallback.
func parse[T ~string](s string, known []T, fallback T) T {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, k := range known {
		if string(k) == s {
			return k
		}
	}
	return fallback
}

func valid[T ~string](v T, known []T) bool {
	for _, k := range known {
		if k == v {
			return true
		}
	}
	return false
}

func ParseWritingStyle(s string) WritingStyle {
	return parse(s, WritingStyles, StyleProfessional)
}

func ParsePostStructure(s string) PostStructure {
	return parse(s, PostStructures, StructureCustom)
}

func ParseTone(s string) Tone {
	return parse(s, Tones, ToneProfessional)
}

func ParseUsage(s string) Usage {
	return parse(s, Usages, UsageModerate)
}

func ParseSentenceStructure(s string) SentenceStructure {
	return parse(s, SentenceStructures, SentencesMixed)
}

func ParseHookStyle(s string) HookStyle {
	return parse(s, HookStyles, HookStatement)
}
