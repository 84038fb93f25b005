// Package inmemory keeps run history in process memory. It is used when no
// database connection is configured for the run repository.
package inmemory

import (
	"context"
	"sort"
	"sync"

	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/domain/model"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/domain/repository"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/support/util/exception"
)

// RunRepository implements repository.RunRepository with maps. Stored values
// are copies, so callers cannot mutate history through returned pointers.
type RunRepository struct {
	mu    sync.RWMutex
	runs  map[string]model.RunExecution
	steps map[string]model.StepExecution
	order []string // run IDs in save order
}

// NewRunRepository creates an empty repository.
func NewRunRepository() *RunRepository {
	return &RunRepository{
		runs:  make(map[string]model.RunExecution),
		steps: make(map[string]model.StepExecution),
	}
}

func (r *RunRepository) SaveRunExecution(_ context.Context, run *model.RunExecution) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *run
	stored.StepExecutions = nil
	r.runs[run.ID] = stored
	r.order = append(r.order, run.ID)
	return nil
}

func (r *RunRepository) UpdateRunExecution(_ context.Context, run *model.RunExecution) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.runs[run.ID]
	if !ok {
		return repository.ErrRunExecutionNotFound
	}
	if current.Version != run.Version {
		return exception.Newf(exception.KindIO, "repository", "RunExecution (ID: %s) with version %d not found for update", run.ID, run.Version, repository.ErrOptimisticLock)
	}
	run.Version++
	stored := *run
	stored.StepExecutions = nil
	r.runs[run.ID] = stored
	return nil
}

func (r *RunRepository) FindRunExecutionByID(_ context.Context, id string) (*model.RunExecution, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored, ok := r.runs[id]
	if !ok {
		return nil, repository.ErrRunExecutionNotFound
	}
	return r.withSteps(stored), nil
}

// FindLatestRunExecution returns the last saved run of jobName.
func (r *RunRepository) FindLatestRunExecution(_ context.Context, jobName string) (*model.RunExecution, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := len(r.order) - 1; i >= 0; i-- {
		if stored := r.runs[r.order[i]]; stored.JobName == jobName {
			return r.withSteps(stored), nil
		}
	}
	return nil, repository.ErrRunExecutionNotFound
}

func (r *RunRepository) SaveStepExecution(_ context.Context, step *model.StepExecution) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.runs[step.RunExecutionID]; !ok {
		return repository.ErrRunExecutionNotFound
	}
	r.steps[step.ID] = *step
	return nil
}

func (r *RunRepository) UpdateStepExecution(_ context.Context, step *model.StepExecution) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.steps[step.ID]
	if !ok {
		return repository.ErrStepExecutionNotFound
	}
	if current.Version != step.Version {
		return exception.Newf(exception.KindIO, "repository", "StepExecution (ID: %s) with version %d not found for update", step.ID, step.Version, repository.ErrOptimisticLock)
	}
	step.Version++
	r.steps[step.ID] = *step
	return nil
}

func (r *RunRepository) FindStepExecutionsByRunID(_ context.Context, runID string) ([]*model.StepExecution, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.stepsOf(runID), nil
}

// withSteps must be called with r.mu held.
func (r *RunRepository) withSteps(stored model.RunExecution) *model.RunExecution {
	run := stored
	run.StepExecutions = r.stepsOf(run.ID)
	return &run
}

func (r *RunRepository) stepsOf(runID string) []*model.StepExecution {
	steps := make([]*model.StepExecution, 0)
	for _, s := range r.steps {
		if s.RunExecutionID == runID {
			cp := s
			steps = append(steps, &cp)
		}
	}
	sort.Slice(steps, func(i, j int) bool {
		a, b := steps[i].StartTime, steps[j].StartTime
		if a == nil || b == nil || a.Equal(*b) {
			return steps[i].ID < steps[j].ID
		}
		return a.Before(*b)
	})
	return steps
}

func (r *RunRepository) Close() error { return nil }

var _ repository.RunRepository = (*RunRepository)(nil)
