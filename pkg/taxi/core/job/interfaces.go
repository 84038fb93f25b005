// Package job runs a named sequence of tasklet steps as one recorded run.
package job

import (
	"context"

	model "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/domain/model"
)

// Tasklet is the unit of work of a step. It reads and writes the run's state
// through rc and may update the read/write counts on step.
type Tasklet interface {
	Execute(ctx context.Context, rc *RunContext, step *model.StepExecution) (model.ExitStatus, error)
}

// TaskletFunc adapts a function to the Tasklet interface.
type TaskletFunc func(ctx context.Context, rc *RunContext, step *model.StepExecution) (model.ExitStatus, error)

// Execute calls f.
func (f TaskletFunc) Execute(ctx context.Context, rc *RunContext, step *model.StepExecution) (model.ExitStatus, error) {
	return f(ctx, rc, step)
}

// Step binds a tasklet to the name it is recorded under.
type Step struct {
	Name    string
	Tasklet Tasklet
}

// RunListener is notified around a run.
type RunListener interface {
	BeforeRun(ctx context.Context, run *model.RunExecution)
	AfterRun(ctx context.Context, run *model.RunExecution)
}

// StepListener is notified around each step.
type StepListener interface {
	BeforeStep(ctx context.Context, step *model.StepExecution)
	AfterStep(ctx context.Context, step *model.StepExecution)
}
