// Package orchestrator runs the post pipeline: an ordered list of named
// stages over one shared WorkContext, strictly one after another.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/valpere/postcraft/internal"
)

// ErrCancelled is returned when the caller cancels between stages.
var ErrCancelled = errors.New("pipeline cancelled")

// Stage is one unit of pipeline work.
type Stage interface {
	Name() string
	Run(ctx context.Context, wc *internal.WorkContext) error
}

type stageFunc struct {
	name string
	fn   func(ctx context.Context, wc *internal.WorkContext) error
}

func (s stageFunc) Name() string { return s.name }

func (s stageFunc) Run(ctx context.Context, wc *internal.WorkContext) error {
	return s.fn(ctx, wc)
}

// NewStage adapts a function to Stage.
func NewStage(name string, fn func(ctx context.Context, wc *internal.WorkContext) error) Stage {
	return stageFunc{name: name, fn: fn}
}

// StageFailure reports the stage that aborted the pipeline.
type StageFailure struct {
	Stage string
	Err   error
}

func (e *StageFailure) Error() string {
	return fmt.Sprintf("stage %q failed: %v", e.Stage, e.Err)
}

func (e *StageFailure) Unwrap() error { return e.Err }

type OrchestratorConfig struct {
	// StageTimeout bounds each stage. Zero means no limit beyond ctx.
	StageTimeout time.Duration
	// Timeouts overrides StageTimeout per stage name.
	Timeouts map[string]time.Duration
}

type Orchestrator struct {
	stages []Stage
	config OrchestratorConfig
	logger *slog.Logger
}

func New(stages []Stage, config OrchestratorConfig, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		stages: stages,
		config: config,
		logger: logger,
	}
}

// Stages returns the stage names in execution order.
func (o *Orchestrator) Stages() []string {
	names := make([]string, len(o.stages))
	for i, s := range o.stages {
		names[i] = s.Name()
	}
	return names
}

// Execute runs every stage in order on wc. The first failing stage stops the
// run with a *StageFailure; later stages are not executed. Cancellation is
// checked before each stage and once more after the last one.
func (o *Orchestrator) Execute(ctx context.Context, wc *internal.WorkContext) (*internal.WorkContext, error) {
	if wc == nil {
		wc = internal.NewWorkContext(nil)
	}

	for i, stage := range o.stages {
		if ctx.Err() != nil {
			o.logger.Info("pipeline cancelled", "before_stage", stage.Name())
			return wc, fmt.Errorf("%w before stage %q", ErrCancelled, stage.Name())
		}

		start := time.Now()
		o.logger.Debug("stage started", "stage", stage.Name(), "index", i)

		err := o.runStage(ctx, stage, wc)
		if err != nil {
			if ctx.Err() != nil {
				return wc, fmt.Errorf("%w during stage %q", ErrCancelled, stage.Name())
			}
			o.logger.Error("stage failed", "stage", stage.Name(), "error", err, "duration", time.Since(start))
			return wc, &StageFailure{Stage: stage.Name(), Err: err}
		}

		o.logger.Debug("stage finished", "stage", stage.Name(), "duration", time.Since(start))
	}

	if ctx.Err() != nil {
		return wc, fmt.Errorf("%w after the last stage", ErrCancelled)
	}
	return wc, nil
}

func (o *Orchestrator) runStage(ctx context.Context, stage Stage, wc *internal.WorkContext) error {
	timeout := o.config.StageTimeout
	if t, ok := o.config.Timeouts[stage.Name()]; ok {
		timeout = t
	}
	if timeout <= 0 {
		return stage.Run(ctx, wc)
	}

	stageCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := stage.Run(stageCtx, wc)
	if err == nil && errors.Is(stageCtx.Err(), context.DeadlineExceeded) {
		err = fmt.Errorf("timed out after %s", timeout)
	}
	return err
}
