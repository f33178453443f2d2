package refiner

import (
	"fmt"

	"github.com/valpere/postcraft/internal"
	"github.com/valpere/postcraft/internal/arbiter"
	"github.com/valpere/postcraft/internal/quality"
)

func buildInput(wc *internal.WorkContext, draft string, verdicts []quality.Verdict, feedback string, th quality.Thresholds) map[string]any {
	input := map[string]any{
		"draft":            draft,
		"required_changes": requiredChanges(verdicts),
		"must_keep":        mustKeep(verdicts),
		"targets": []string{
			fmt.Sprintf("length: %d-%d characters, never above %d", th.LengthBand.Min, th.LengthBand.Max, th.LengthCeiling),
			fmt.Sprintf("hashtags: %d-%d", th.TagBand.Min, th.TagBand.Max),
			fmt.Sprintf("emoji density: %g%%-%g%% of characters", th.SymbolDensityBand.Min, th.SymbolDensityBand.Max),
		},
	}
	if feedback != "" {
		input["reviewer_feedback"] = feedback
	}
	if tpl, ok := wc.Get(internal.KeyStyleTemplate); ok {
		input["style"] = tpl
	}
	return input
}

func requiredChanges(verdicts []quality.Verdict) []string {
	var out []string
	for _, v := range arbiter.Blocking(verdicts) {
		out = append(out, v.Feedback)
	}
	return out
}

func mustKeep(verdicts []quality.Verdict) []string {
	var out []string
	for _, v := range verdicts {
		if arbiter.Acceptable(v.Axis, v.Status) {
			out = append(out, fmt.Sprintf("%s is acceptable (%g), keep it that way", v.Axis, v.MeasuredValue))
		}
	}
	return out
}

const revisionInstructions = `You revise LinkedIn posts.

Apply every item under REQUIRED CHANGES. Keep everything under MUST KEEP
within its target. Use REVIEWER FEEDBACK where it does not conflict with the
required changes. Preserve the message, the facts and the tone of the draft.

Formatting:
- Lists, takeaways and steps are bullet points, one per line ("• item").
- Narrative sections stay as paragraphs and come before the bullet points.
- Hashtags go together on the last line.

Never add links to videos or articles, never name creators or authors and
never write phrases such as "Inspired by". The post must read as the
author's own content.

Output only the complete revised post. No preamble, notes or commentary.`
