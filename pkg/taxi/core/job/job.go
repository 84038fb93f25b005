package job

import (
	"context"
	"errors"

	model "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/domain/model"
	repository "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/domain/repository"
	metrics "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/metrics"
	exception "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/support/util/exception"
	logger "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/support/util/logger"
)

const moduleName = "job_runner"

// Job executes its steps strictly in order and records the run, each step,
// metrics and spans. The first failing step ends the run; nothing is retried.
type Job struct {
	name           string
	steps          []Step
	repo           repository.RunRepository
	metricRecorder metrics.MetricRecorder
	tracer         metrics.Tracer
	runListeners   []RunListener
	stepListeners  []StepListener
}

// Option configures a Job.
type Option func(*Job)

// WithRunListeners registers listeners notified before and after the run.
func WithRunListeners(l ...RunListener) Option {
	return func(j *Job) { j.runListeners = append(j.runListeners, l...) }
}

// WithStepListeners registers listeners notified before and after every step.
func WithStepListeners(l ...StepListener) Option {
	return func(j *Job) { j.stepListeners = append(j.stepListeners, l...) }
}

// NewJob creates a job. A nil recorder or tracer is replaced by its no-op.
func NewJob(
	name string,
	steps []Step,
	repo repository.RunRepository,
	metricRecorder metrics.MetricRecorder,
	tracer metrics.Tracer,
	opts ...Option,
) *Job {
	if metricRecorder == nil {
		metricRecorder = metrics.NewNoOpMetricRecorder()
	}
	if tracer == nil {
		tracer = metrics.NewNoOpTracer()
	}
	j := &Job{
		name:           name,
		steps:          steps,
		repo:           repo,
		metricRecorder: metricRecorder,
		tracer:         tracer,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Name returns the job name.
func (j *Job) Name() string { return j.name }

// StepNames returns the step names in execution order.
func (j *Job) StepNames() []string {
	names := make([]string, len(j.steps))
	for i, s := range j.steps {
		names[i] = s.Name
	}
	return names
}

// Run executes one run with params and returns it in its final state. The
// returned error is the failing step's error, the cancellation cause, or a
// failure to record the run before it started.
func (j *Job) Run(ctx context.Context, params model.RunParameters) (*model.RunExecution, error) {
	run := model.NewRunExecution(j.name, params)
	if err := j.repo.SaveRunExecution(ctx, run); err != nil {
		return run, exception.New(exception.KindIO, moduleName, "failed to record run of "+j.name, err)
	}
	logger.Infof("Starting Job '%s' (Execution ID: %s, Params: %s).", j.name, run.ID, run.Parameters)

	ctx, finishSpan := j.tracer.StartRunSpan(ctx, run)
	defer finishSpan()

	run.MarkAsStarted()
	if err := j.repo.UpdateRunExecution(ctx, run); err != nil {
		logger.Errorf("Job '%s': failed to update RunExecution (ID: %s) to STARTED: %v", j.name, run.ID, err)
	}
	j.metricRecorder.RecordRunStart(ctx, run)
	for _, l := range j.runListeners {
		l.BeforeRun(ctx, run)
	}

	rc := NewRunContext(run)
	runErr := j.runSteps(ctx, rc)

	if runErr == nil {
		run.MarkAsCompleted()
	}
	j.finish(ctx, run)
	return run, runErr
}

func (j *Job) runSteps(ctx context.Context, rc *RunContext) error {
	run := rc.Run
	for _, s := range j.steps {
		if err := ctx.Err(); err != nil {
			logger.Warnf("Context cancelled, interrupting Job '%s' before step '%s': %v", j.name, s.Name, err)
			run.AddFailureException(err)
			run.MarkAsStopped()
			j.tracer.RecordError(ctx, moduleName, err)
			return err
		}
		if err := j.runStep(ctx, rc, s); err != nil {
			return err
		}
	}
	return nil
}

func (j *Job) runStep(ctx context.Context, rc *RunContext, s Step) error {
	run := rc.Run
	step := model.NewStepExecution(run, s.Name)
	step.MarkAsStarted()
	if err := j.repo.SaveStepExecution(ctx, step); err != nil {
		wrapped := exception.New(exception.KindIO, moduleName, "failed to record step "+s.Name, err)
		logger.Errorf("Job '%s': %v", j.name, wrapped)
		step.MarkAsFailed(wrapped)
		run.MarkAsFailed(wrapped)
		j.tracer.RecordError(ctx, moduleName, wrapped)
		return wrapped
	}

	stepCtx, finishStepSpan := j.tracer.StartStepSpan(ctx, step)
	defer finishStepSpan()

	j.metricRecorder.RecordStepStart(stepCtx, j.name, step)
	for _, l := range j.stepListeners {
		l.BeforeStep(stepCtx, step)
	}

	exit, err := s.Tasklet.Execute(stepCtx, rc, step)
	switch {
	case err == nil:
		step.MarkAsCompleted(exit)
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		logger.Warnf("Job '%s': step '%s' interrupted: %v", j.name, s.Name, err)
		step.MarkAsStopped()
		run.AddFailureException(err)
		run.MarkAsStopped()
		j.tracer.RecordError(stepCtx, moduleName, err)
	default:
		logger.Errorf("Job '%s': step '%s' failed: %v", j.name, s.Name, err)
		step.MarkAsFailed(err)
		run.MarkAsFailed(err)
		j.tracer.RecordError(stepCtx, moduleName, err)
	}

	if updateErr := j.repo.UpdateStepExecution(context.WithoutCancel(stepCtx), step); updateErr != nil {
		logger.Errorf("Job '%s': failed to update StepExecution (ID: %s): %v", j.name, step.ID, updateErr)
	}
	j.metricRecorder.RecordStepEnd(stepCtx, j.name, step)
	if step.ReadCount > 0 {
		j.metricRecorder.RecordRows(stepCtx, j.name, s.Name, step.ReadCount)
	}
	for _, l := range j.stepListeners {
		l.AfterStep(stepCtx, step)
	}
	return err
}

// finish persists the final run state and flushes metrics. Both survive a
// cancelled ctx.
func (j *Job) finish(ctx context.Context, run *model.RunExecution) {
	ctx = context.WithoutCancel(ctx)
	if err := j.repo.UpdateRunExecution(ctx, run); err != nil {
		// Metadata store failures are not run failures.
		logger.Errorf("Job '%s': failed to update final RunExecution (ID: %s) state: %v", j.name, run.ID, err)
	}
	j.metricRecorder.RecordRunEnd(ctx, run)
	if run.RMSE != nil {
		j.metricRecorder.RecordModelScore(ctx, j.name, *run.RMSE)
	}
	if err := j.metricRecorder.Flush(ctx); err != nil {
		logger.Warnf("Job '%s': failed to flush metrics: %v", j.name, err)
	}
	for _, l := range j.runListeners {
		l.AfterRun(ctx, run)
	}
	logger.Infof("Job '%s' (Execution ID: %s) finished. Final Status: %s, Exit Status: %s, Duration: %s",
		j.name, run.ID, run.Status, run.ExitStatus, run.Duration())
}
