// Package refiner produces a revised draft that addresses the blocking
// verdicts of the last review without breaking the axes that already pass.
package refiner

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/valpere/postcraft/internal"
	"github.com/valpere/postcraft/internal/arbiter"
	"github.com/valpere/postcraft/internal/generator"
	"github.com/valpere/postcraft/internal/placeholder"
	"github.com/valpere/postcraft/internal/quality"
)

// Refiner revises the current draft.
type Refiner interface {
	Refine(ctx context.Context, wc *internal.WorkContext, decision arbiter.Decision, verdicts []quality.Verdict, feedback string) (string, error)
}

// Options tunes an LLMRefiner.
type Options struct {
	Thresholds quality.Thresholds
	// RegressionRetries is how many extra candidates may be requested when a
	// candidate breaks an axis that passed before.
	RegressionRetries int
	Logger            *slog.Logger
}

// LLMRefiner revises drafts through a generator.
type LLMRefiner struct {
	gen        generator.Generator
	thresholds quality.Thresholds
	retries    int
	logger     *slog.Logger
}

// New creates a generator-backed refiner.
func New(gen generator.Generator, opts Options) *LLMRefiner {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Thresholds == (quality.Thresholds{}) {
		opts.Thresholds = quality.DefaultThresholds()
	}
	if opts.RegressionRetries < 0 {
		opts.RegressionRetries = 0
	}
	return &LLMRefiner{
		gen:        gen,
		thresholds: opts.Thresholds,
		retries:    opts.RegressionRetries,
		logger:     opts.Logger,
	}
}

// Refine returns wc.Draft byte for byte when decision accepts it. Otherwise
// it asks the generator for a revision and re-checks every axis locally;
// candidates that regress a passing axis are retried. When every candidate
// regresses, the best one replaces the draft only if it leaves fewer axes
// blocking than the draft had; otherwise the draft is kept.
func (r *LLMRefiner) Refine(ctx context.Context, wc *internal.WorkContext, decision arbiter.Decision, verdicts []quality.Verdict, feedback string) (string, error) {
	if decision.ShouldExit {
		return wc.Draft, nil
	}

	protected, markers := placeholder.Protect(wc.Draft, placeholder.Revision)
	input := buildInput(wc, protected, verdicts, feedback, r.thresholds)
	instructions := revisionInstructions
	if len(markers) > 0 {
		instructions += "\n" + placeholder.InstructionHint()
	}

	var (
		best      string
		bestScore = -1
	)
	for attempt := 0; attempt <= r.retries; attempt++ {
		out, err := r.gen.Generate(ctx, instructions, input)
		if err != nil {
			return "", err
		}
		candidate := placeholder.Restore(out, markers)
		if candidate == "" {
			return "", &generator.GenerationError{Provider: r.gen.Name(), Err: fmt.Errorf("empty revision")}
		}
		if missing := placeholder.Validate(out, markers); len(missing) > 0 {
			r.logger.Debug("revision dropped protected spans", "missing", len(missing))
		}

		after := quality.Evaluate(candidate, r.thresholds)
		regressed := Regressions(verdicts, after)
		if len(regressed) == 0 {
			return candidate, nil
		}

		score := len(arbiter.Blocking(after))
		if bestScore < 0 || score <= bestScore {
			best, bestScore = candidate, score
		}
		r.logger.Debug("revision regressed a passing axis",
			"attempt", attempt+1,
			"regressed", regressed,
		)
		input["previous_attempt_problems"] = regressionLines(regressed)
	}

	before := len(arbiter.Blocking(verdicts))
	if bestScore < before {
		r.logger.Warn("every revision candidate regressed, keeping the least blocked one",
			"candidates", r.retries+1,
			"blocking_before", before,
			"blocking_after", bestScore,
		)
		return best, nil
	}
	r.logger.Warn("every revision candidate regressed without improving, keeping the current draft",
		"candidates", r.retries+1,
		"blocking_before", before,
		"best_candidate_blocking", bestScore,
	)
	return wc.Draft, nil
}

// Regressions lists the axes acceptable in before and not acceptable in after.
func Regressions(before, after []quality.Verdict) []quality.Verdict {
	passed := make(map[quality.Axis]bool, len(before))
	for _, v := range before {
		passed[v.Axis] = arbiter.Acceptable(v.Axis, v.Status)
	}
	var out []quality.Verdict
	for _, v := range after {
		if passed[v.Axis] && !arbiter.Acceptable(v.Axis, v.Status) {
			out = append(out, v)
		}
	}
	return out
}

func regressionLines(verdicts []quality.Verdict) []string {
	lines := make([]string, 0, len(verdicts))
	for _, v := range verdicts {
		lines = append(lines, fmt.Sprintf("%s became %s: %s", v.Axis, v.Status, v.Feedback))
	}
	return lines
}
