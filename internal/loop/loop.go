// Package loop runs the bounded review/revise cycle over one draft.
//
// The cycle is a state machine: reviewing, deciding, then either exited or
// revising. A revision leads back to reviewing until MaxIterations revisions
// have been made; the last one goes straight to cap_reached, so a run makes
// at most MaxIterations reviews. A cap is a normal outcome that still returns
// the last draft.
package loop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/valpere/postcraft/internal"
	"github.com/valpere/postcraft/internal/refiner"
	"github.com/valpere/postcraft/internal/reviewer"
)

// DefaultMaxIterations is used when Config leaves MaxIterations at zero.
const DefaultMaxIterations = 5

// Termination reasons reported on LoopResult.
const (
	ReasonCapReached = "iteration cap reached"
	ReasonCancelled  = "cancelled"
)

// Reviewer is the review half of one cycle.
type Reviewer interface {
	Review(ctx context.Context, wc *internal.WorkContext) reviewer.Result
}

// Config bounds the loop.
type Config struct {
	MaxIterations int `mapstructure:"max_iterations" json:"max_iterations"`
}

// Loop is the refinement stage.
type Loop struct {
	reviewer      Reviewer
	refiner       refiner.Refiner
	maxIterations int
	logger        *slog.Logger
}

// New creates a loop. MaxIterations below 1 falls back to the default.
func New(rv Reviewer, rf refiner.Refiner, cfg Config, logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxIterations < 1 {
		cfg.MaxIterations = DefaultMaxIterations
	}
	return &Loop{
		reviewer:      rv,
		refiner:       rf,
		maxIterations: cfg.MaxIterations,
		logger:        logger,
	}
}

// Name identifies the stage in the pipeline.
func (l *Loop) Name() string { return "refinement" }

// Run refines wc.Draft and stores the LoopResult under KeyLoopResult.
func (l *Loop) Run(ctx context.Context, wc *internal.WorkContext) error {
	res, err := l.Refine(ctx, wc)
	if err != nil {
		return err
	}
	wc.Set(internal.KeyLoopResult, res)
	return nil
}

// Refine drives the machine until a terminal state. The only error it
// returns is a failed revision; cancellation and the cap both yield a result.
func (l *Loop) Refine(ctx context.Context, wc *internal.WorkContext) (internal.LoopResult, error) {
	run := &runState{maxIterations: l.maxIterations}
	m, err := newMachine(run)
	if err != nil {
		return internal.LoopResult{}, err
	}

	var last reviewer.Result
	start := time.Now()

	for !terminal(m.current()) {
		switch m.current() {
		case StateReviewing:
			if ctx.Err() != nil {
				err = m.send(eventCancel)
				break
			}
			last = l.reviewer.Review(ctx, wc)
			run.reviews++
			run.shouldExit = last.Decision.ShouldExit
			l.logger.Debug("review complete",
				"review", run.reviews,
				"iteration", run.iterations,
				"verdicts", last.Verdicts,
				"should_exit", last.Decision.ShouldExit,
				"reason", last.Decision.Reason,
			)
			err = m.send(eventReviewed)

		case StateDeciding:
			if ctx.Err() != nil {
				err = m.send(eventCancel)
				break
			}
			err = m.decide()

		case StateRevising:
			if ctx.Err() != nil {
				err = m.send(eventCancel)
				break
			}
			var draft string
			draft, err = l.refiner.Refine(ctx, wc, last.Decision, last.Verdicts, last.Feedback)
			if err != nil {
				if ctx.Err() != nil {
					err = m.send(eventCancel)
					break
				}
				return internal.LoopResult{}, fmt.Errorf("revision %d: %w", run.iterations+1, err)
			}
			run.iterations++
			v := wc.AppendVersion(draft, last.Feedback, run.iterations)
			l.logger.Debug("draft revised", "version", v.VersionNumber, "chars", len([]rune(draft)))
			err = m.afterRevision()
		}
		if err != nil {
			return internal.LoopResult{}, err
		}
	}

	res := internal.LoopResult{
		FinalDraft:     wc.Draft,
		IterationsUsed: run.iterations,
	}
	switch m.current() {
	case StateExited:
		res.ExitedEarly = true
		res.TerminationReason = last.Decision.Reason
	case StateCapReached:
		res.TerminationReason = fmt.Sprintf("%s (%d)", ReasonCapReached, l.maxIterations)
	case StateCancelled:
		res.Cancelled = true
		res.TerminationReason = ReasonCancelled
	}

	l.logger.Info("refinement finished",
		"state", m.current(),
		"iterations", res.IterationsUsed,
		"reviews", run.reviews,
		"exited_early", res.ExitedEarly,
		"reason", res.TerminationReason,
		"duration", time.Since(start),
	)
	return res, nil
}

// ResultFrom reads the LoopResult a Loop stored in wc.
func ResultFrom(wc *internal.WorkContext) (internal.LoopResult, error) {
	v, ok := wc.Get(internal.KeyLoopResult)
	if !ok {
		return internal.LoopResult{}, errors.New("refinement has not run")
	}
	res, ok := v.(internal.LoopResult)
	if !ok {
		return internal.LoopResult{}, fmt.Errorf("unexpected %s value %T", internal.KeyLoopResult, v)
	}
	return res, nil
}
