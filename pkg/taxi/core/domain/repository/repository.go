// Package repository declares how run history is persisted.
package repository

import (
	"context"
	"errors"

	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/domain/model"
)

// ErrRunExecutionNotFound is returned when no run matches a lookup.
var ErrRunExecutionNotFound = errors.New("run execution not found")

// ErrStepExecutionNotFound is returned when an update targets an unknown step.
var ErrStepExecutionNotFound = errors.New("step execution not found")

// ErrOptimisticLock is returned when an update carries a stale Version.
var ErrOptimisticLock = errors.New("optimistic locking failure")

// RunExecution persists runs.
type RunExecution interface {
	SaveRunExecution(ctx context.Context, run *model.RunExecution) error
	// UpdateRunExecution writes run and bumps its Version. The stored Version must
	// equal the one on run.
	UpdateRunExecution(ctx context.Context, run *model.RunExecution) error
	FindRunExecutionByID(ctx context.Context, id string) (*model.RunExecution, error)
	// FindLatestRunExecution returns the most recently created run of jobName, with its steps.
	FindLatestRunExecution(ctx context.Context, jobName string) (*model.RunExecution, error)
}

// StepExecution persists steps.
type StepExecution interface {
	SaveStepExecution(ctx context.Context, step *model.StepExecution) error
	UpdateStepExecution(ctx context.Context, step *model.StepExecution) error
	// FindStepExecutionsByRunID returns the steps of a run in creation order.
	FindStepExecutionsByRunID(ctx context.Context, runID string) ([]*model.StepExecution, error)
}

// RunRepository is the complete run history store.
type RunRepository interface {
	RunExecution
	StepExecution

	// Close releases resources held by the repository.
	Close() error
}
