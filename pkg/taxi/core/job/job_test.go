package job_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/domain/model"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/job"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/metrics"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/infrastructure/repository/inmemory"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/support/util/exception"
)

type mockRecorder struct {
	mock.Mock
	metrics.NoOpMetricRecorder
}

func (m *mockRecorder) RecordRunEnd(ctx context.Context, run *model.RunExecution) {
	m.Called(run.Status)
}

func (m *mockRecorder) RecordModelScore(ctx context.Context, jobName string, rmse float64) {
	m.Called(jobName, rmse)
}

func (m *mockRecorder) RecordRows(ctx context.Context, jobName, stepName string, n int) {
	m.Called(stepName, n)
}

type recordingListener struct {
	events []string
}

func (l *recordingListener) BeforeRun(_ context.Context, run *model.RunExecution) {
	l.events = append(l.events, "before-run")
}

func (l *recordingListener) AfterRun(_ context.Context, run *model.RunExecution) {
	l.events = append(l.events, "after-run:"+run.Status.String())
}

func (l *recordingListener) BeforeStep(_ context.Context, step *model.StepExecution) {
	l.events = append(l.events, "before:"+step.StepName)
}

func (l *recordingListener) AfterStep(_ context.Context, step *model.StepExecution) {
	l.events = append(l.events, "after:"+step.StepName+":"+step.Status.String())
}

func step(name string, calls *[]string, err error) job.Step {
	return job.Step{Name: name, Tasklet: job.TaskletFunc(
		func(ctx context.Context, rc *job.RunContext, se *model.StepExecution) (model.ExitStatus, error) {
			*calls = append(*calls, name)
			return model.ExitStatusCompleted, err
		})}
}

func TestJob_RunsStepsInOrderAndRecordsRun(t *testing.T) {
	ctx := context.Background()
	repo := inmemory.NewRunRepository()
	var calls []string
	listener := &recordingListener{}

	score := job.Step{Name: "score", Tasklet: job.TaskletFunc(
		func(ctx context.Context, rc *job.RunContext, se *model.StepExecution) (model.ExitStatus, error) {
			calls = append(calls, "score")
			rmse := 3.5
			rc.Run.RMSE = &rmse
			se.ReadCount = 12
			return model.ExitStatusCompleted, nil
		})}

	rec := &mockRecorder{}
	rec.On("RecordRunEnd", model.StatusCompleted).Once()
	rec.On("RecordModelScore", "train", 3.5).Once()
	rec.On("RecordRows", "score", 12).Once()

	j := job.NewJob("train", []job.Step{step("load", &calls, nil), score}, repo, rec, nil,
		job.WithRunListeners(listener), job.WithStepListeners(listener))
	assert.Equal(t, []string{"load", "score"}, j.StepNames())

	run, err := j.Run(ctx, model.RunParameters{"input": "a.parquet"})
	require.NoError(t, err)
	assert.Equal(t, []string{"load", "score"}, calls)
	assert.Equal(t, model.StatusCompleted, run.Status)
	assert.Equal(t, []string{
		"before-run",
		"before:load", "after:load:COMPLETED",
		"before:score", "after:score:COMPLETED",
		"after-run:COMPLETED",
	}, listener.events)
	rec.AssertExpectations(t)

	stored, err := repo.FindLatestRunExecution(ctx, "train")
	require.NoError(t, err)
	assert.Equal(t, run.ID, stored.ID)
	assert.Equal(t, model.StatusCompleted, stored.Status)
	require.Len(t, stored.StepExecutions, 2)
	assert.Equal(t, model.StatusCompleted, stored.StepExecutions[1].Status)
	assert.Equal(t, 12, stored.StepExecutions[1].ReadCount)
	require.NotNil(t, stored.RMSE)
	assert.Equal(t, 3.5, *stored.RMSE)
}

func TestJob_StopsAtFirstFailure(t *testing.T) {
	ctx := context.Background()
	repo := inmemory.NewRunRepository()
	var calls []string
	boom := exception.New(exception.KindDataQuality, "validate", "trip_distance has negative values", nil, "trip_distance")

	j := job.NewJob("train", []job.Step{
		step("load", &calls, nil),
		step("validate", &calls, boom),
		step("derive", &calls, nil),
	}, repo, nil, nil)

	run, err := j.Run(ctx, nil)
	require.Error(t, err)
	assert.True(t, exception.IsDataQualityError(err))
	assert.Equal(t, []string{"load", "validate"}, calls)
	assert.Equal(t, model.StatusFailed, run.Status)
	assert.Equal(t, model.ExitStatusFailed, run.ExitStatus)
	assert.Contains(t, run.Failures, boom.Error())

	steps, err := repo.FindStepExecutionsByRunID(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, steps, 2)
	assert.Equal(t, model.StatusFailed, steps[1].Status)
}

func TestJob_CancellationStopsRun(t *testing.T) {
	repo := inmemory.NewRunRepository()
	ctx, cancel := context.WithCancel(context.Background())
	var calls []string

	first := job.Step{Name: "load", Tasklet: job.TaskletFunc(
		func(context.Context, *job.RunContext, *model.StepExecution) (model.ExitStatus, error) {
			calls = append(calls, "load")
			cancel()
			return model.ExitStatusCompleted, nil
		})}
	j := job.NewJob("predict", []job.Step{first, step("validate", &calls, nil)}, repo, nil, nil)

	run, err := j.Run(ctx, nil)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, []string{"load"}, calls)
	assert.Equal(t, model.StatusStopped, run.Status)

	stored, findErr := repo.FindRunExecutionByID(context.Background(), run.ID)
	require.NoError(t, findErr)
	assert.Equal(t, model.StatusStopped, stored.Status)
}

func TestJob_CancelledStepIsStopped(t *testing.T) {
	repo := inmemory.NewRunRepository()
	j := job.NewJob("train", []job.Step{{Name: "fit", Tasklet: job.TaskletFunc(
		func(context.Context, *job.RunContext, *model.StepExecution) (model.ExitStatus, error) {
			return model.ExitStatusStopped, context.Canceled
		})}}, repo, nil, nil)

	run, err := j.Run(context.Background(), nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, model.StatusStopped, run.Status)
	require.Len(t, run.StepExecutions, 1)
	assert.Equal(t, model.StatusStopped, run.StepExecutions[0].Status)
}

func TestJob_EachRunOwnsItsContext(t *testing.T) {
	repo := inmemory.NewRunRepository()
	var seen []*job.RunContext
	j := job.NewJob("train", []job.Step{{Name: "load", Tasklet: job.TaskletFunc(
		func(_ context.Context, rc *job.RunContext, _ *model.StepExecution) (model.ExitStatus, error) {
			assert.Nil(t, rc.Batch)
			seen = append(seen, rc)
			return model.ExitStatusCompleted, nil
		})}}, repo, nil, nil)

	first, err := j.Run(context.Background(), nil)
	require.NoError(t, err)
	second, err := j.Run(context.Background(), nil)
	require.NoError(t, err)

	require.Len(t, seen, 2)
	assert.NotSame(t, seen[0], seen[1])
	assert.NotEqual(t, first.ID, second.ID)
}

func TestRunContext_Param(t *testing.T) {
	rc := job.NewRunContext(model.NewRunExecution("train", model.RunParameters{"output": "out.csv", "empty": ""}))
	assert.Equal(t, "out.csv", rc.Param("output", "x"))
	assert.Equal(t, "x", rc.Param("empty", "x"))
	assert.Equal(t, "y", rc.Param("missing", "y"))
}
