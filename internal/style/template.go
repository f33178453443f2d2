package style

import (
	"fmt"
	"strings"
)

// Section is one required (or optional) part of a post, in output order.
type Section struct {
	Name     string
	Guidance string
	MinItems int
	MaxItems int
	Optional bool
}

// Template is the declarative record the generator receives in place of
// free-form style instructions.
type Template struct {
	Style     WritingStyle
	Structure PostStructure
	Tone      Tone
	// Sections in the order they must appear.
	Sections []Section
	// MinNarrativeFraction is the share of the post that must be narrative
	// prose rather than lists. Zero means no constraint.
	MinNarrativeFraction float64
	Guidelines           []string
	ToneGuidance         string
	Formatting           []string
	CustomInstructions   string
}

var styleGuidelines = map[WritingStyle][]string{
	StyleStorytelling: {
		"Build on personal moments, realizations and turning points.",
		"Name the emotion or lesson each moment produced.",
		"Stay conversational and reflective; paint concrete scenes.",
	},
	StyleTechnical: {
		"Lead with facts, data and a logical progression.",
		"Use precise terminology and explain it briefly.",
		"Include specific details, examples or metrics.",
	},
	StyleCasual: {
		"Write as if talking to a colleague; contractions are fine.",
		"Prefer relatable, everyday examples.",
		"Keep it light and approachable.",
	},
	StyleFormal: {
		"Use polished language without contractions or slang.",
		"Order arguments systematically.",
		"Keep a respectful, authoritative register.",
	},
	StyleProfessional: {
		"Balance credibility with approachability.",
		"Move from context to insight to an actionable takeaway.",
		"Support claims with a relevant example or case.",
	},
}

var toneGuidance = map[Tone]string{
	ToneEnthusiastic:  "Energetic and positive; let the excitement show.",
	ToneAnalytical:    "Objective and thorough; reason from data and logic.",
	ToneInspirational: "Uplifting; leave the reader wanting to act or reflect.",
	ToneProfessional:  "Credible and polished; respectful of the reader's time.",
}

var structureSections = map[PostStructure][]Section{
	StructureStorytelling: {
		{Name: "opening hook", Guidance: "One or two sentences on a personal moment or realization tied to the content."},
		{Name: "story", Guidance: "What happened, what the audience struggles with, why it matters now. Emotions and turning points."},
		{Name: "key takeaways", Guidance: "Concise, actionable bullets summarizing the main ideas.", MinItems: 3, MaxItems: 6},
		{Name: "closing", Guidance: "A question, call to action or reflection.", Optional: true},
	},
	StructureListBased: {
		{Name: "hook", Guidance: "An engaging statement or question."},
		{Name: "list", Guidance: "Clear, actionable items as bullets or numbers.", MinItems: 3, MaxItems: 7},
		{Name: "closing", Guidance: "Summary or call to action."},
	},
	StructureProblemSolution: {
		{Name: "problem", Guidance: "State the problem or challenge plainly."},
		{Name: "context", Guidance: "Why the problem matters."},
		{Name: "solution", Guidance: "The approach that addresses it."},
		{Name: "results", Guidance: "Outcomes or lessons learned."},
		{Name: "takeaways", Guidance: "What the reader can apply.", MinItems: 2, MaxItems: 5},
	},
	StructureNarrative: {
		{Name: "opening", Guidance: "Set the scene."},
		{Name: "journey", Guidance: "Walk through the experience in order."},
		{Name: "insights", Guidance: "What was learned along the way."},
		{Name: "reflection", Guidance: "Connect to broader implications."},
		{Name: "closing", Guidance: "A thought-provoking conclusion."},
	},
	StructureCustom: {
		{Name: "body", Guidance: "Follow the custom instructions; otherwise choose the structure that fits the content."},
	},
}

var defaultSections = []Section{
	{Name: "opening hook", Guidance: "An engaging first line."},
	{Name: "body", Guidance: "Clear paragraphs; bullets for any list of three or more items."},
	{Name: "closing", Guidance: "A strong conclusion or call to action."},
}

// Build resolves p and maps it onto its Template.
func Build(p Preferences) Template {
	p = Resolve(p)

	t := Template{
		Style:              p.WritingStyle,
		Structure:          p.PostStructure,
		Tone:               p.Tone,
		Guidelines:         styleGuidelines[p.WritingStyle],
		ToneGuidance:       toneGuidance[p.Tone],
		CustomInstructions: p.CustomInstructions,
		Formatting:         formatting(p),
	}

	sections, ok := structureSections[p.PostStructure]
	if !ok {
		sections = defaultSections
	}
	t.Sections = append([]Section(nil), sections...)
	if p.PostStructure == StructureStorytelling {
		t.MinNarrativeFraction = 0.5
	}
	return t
}

func formatting(p Preferences) []string {
	emoji := map[Usage]string{
		UsageNone:     "no emoji",
		UsageModerate: "a few emoji where they add meaning",
		UsageFrequent: "emoji used freely",
	}[p.EmojiUsage]
	tags := map[Usage]string{
		UsageNone:     "no hashtags",
		UsageModerate: "3-5 hashtags",
		UsageFrequent: "5-10 hashtags",
	}[p.HashtagUsage]
	sentences := map[SentenceStructure]string{
		SentencesShort: "short, punchy sentences",
		SentencesLong:  "longer, flowing sentences",
		SentencesMixed: "a mix of short and long sentences",
	}[p.SentenceStructure]

	return []string{
		fmt.Sprintf("length: %d-%d characters", p.PostLength.Min, p.PostLength.Max),
		"emoji: " + emoji,
		"hashtags: " + tags,
		"sentences: " + sentences,
		"opening hook: " + string(p.OpeningHookStyle),
	}
}

// String renders the template as labelled lines for the generator.
func (t Template) String() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Writing style: %s\n", t.Style)
	if t.Structure != "" {
		fmt.Fprintf(&sb, "Structure: %s\n", t.Structure)
	}
	fmt.Fprintf(&sb, "Tone: %s. %s\n", t.Tone, t.ToneGuidance)

	if t.CustomInstructions != "" {
		fmt.Fprintf(&sb, "Custom instructions (highest priority): %s\n", t.CustomInstructions)
	}

	sb.WriteString("Sections, in this order:\n")
	for i, s := range t.Sections {
		fmt.Fprintf(&sb, "%d. %s", i+1, s.Name)
		if s.Optional {
			sb.WriteString(" (optional)")
		}
		if s.MinItems > 0 {
			fmt.Fprintf(&sb, " [%d-%d bullets]", s.MinItems, s.MaxItems)
		}
		fmt.Fprintf(&sb, ": %s\n", s.Guidance)
	}
	if t.MinNarrativeFraction > 0 {
		fmt.Fprintf(&sb, "At least %.0f%% of the post is narrative prose placed before any list.\n", t.MinNarrativeFraction*100)
	}

	sb.WriteString("Style guidelines:\n")
	for _, g := range t.Guidelines {
		fmt.Fprintf(&sb, "- %s\n", g)
	}
	sb.WriteString("Formatting:\n")
	for _, f := range t.Formatting {
		fmt.Fprintf(&sb, "- %s\n", f)
	}
	return strings.TrimSpace(sb.String())
}
