// Package reviewer runs one review pass over the current draft: structural
// verdicts, qualitative feedback and the exit decision.
package reviewer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/valpere/postcraft/internal"
	"github.com/valpere/postcraft/internal/arbiter"
	"github.com/valpere/postcraft/internal/generator"
	"github.com/valpere/postcraft/internal/quality"
)

// Result bundles everything one review produces.
type Result struct {
	Verdicts []quality.Verdict
	Decision arbiter.Decision
	Feedback string
}

// Reviewer evaluates drafts. A nil generator disables qualitative feedback.
type Reviewer struct {
	gen        generator.Generator
	thresholds quality.Thresholds
	logger     *slog.Logger
}

// New creates a reviewer.
func New(gen generator.Generator, thresholds quality.Thresholds, logger *slog.Logger) *Reviewer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reviewer{gen: gen, thresholds: thresholds, logger: logger}
}

// Review evaluates wc.Draft. It reads wc but never writes to it.
//
// A failed feedback request leaves Feedback empty; the verdicts and the
// decision are computed regardless.
func (r *Reviewer) Review(ctx context.Context, wc *internal.WorkContext) Result {
	verdicts := quality.Evaluate(wc.Draft, r.thresholds)
	decision := arbiter.Decide(verdicts)

	return Result{
		Verdicts: verdicts,
		Decision: decision,
		Feedback: r.feedback(ctx, wc, verdicts),
	}
}

func (r *Reviewer) feedback(ctx context.Context, wc *internal.WorkContext, verdicts []quality.Verdict) string {
	if r.gen == nil {
		return ""
	}

	input := map[string]any{
		"draft":         wc.Draft,
		"quality_check": verdictLines(verdicts),
	}
	if tpl, ok := wc.Get(internal.KeyStyleTemplate); ok {
		input["style"] = tpl
	}

	text, err := r.gen.Generate(ctx, feedbackInstructions, input)
	if err != nil {
		var genErr *generator.GenerationError
		if !errors.As(err, &genErr) {
			genErr = &generator.GenerationError{Provider: r.gen.Name(), Err: err}
		}
		r.logger.Warn("review feedback unavailable, continuing with structural verdicts only",
			"provider", genErr.Provider,
			"error", genErr.Err,
		)
		return ""
	}
	return strings.TrimSpace(text)
}

func verdictLines(verdicts []quality.Verdict) []string {
	lines := make([]string, 0, len(verdicts))
	for _, v := range verdicts {
		lines = append(lines, fmt.Sprintf("%s: %s (%g). %s", v.Axis, v.Status, v.MeasuredValue, v.Feedback))
	}
	return lines
}

const feedbackInstructions = `You review LinkedIn posts before publication.

You receive the current draft and the results of automatic structural checks
(length, hashtags, emoji). Do not repeat those numbers. Comment on what the
checks cannot see: the opening hook, clarity, flow, whether lists are real
bullet points on separate lines, whether the closing invites a response, and
whether the post follows the requested style.

Rules:
- Never suggest adding links to videos, articles or other external sources.
- Never suggest naming creators or authors. The post must read as the
  author's own content.
- Give at most five concrete, actionable points as a short list.
- Do not rewrite the post and do not say whether it is finished.`
