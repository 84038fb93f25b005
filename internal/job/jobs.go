// Package job assembles the training and prediction jobs from their tasklets.
package job

import (
	config "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/config"
	repository "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/domain/repository"
	corejob "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/job"
	metrics "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/metrics"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/validate"

	"github.com/aware37/projet-big-data-cytech-25-taxi/internal/step/tasklet"
)

// Job names, also used as metric job labels and span names.
const (
	TrainJobName   = "taxi-train"
	PredictJobName = "taxi-predict"
)

// Step names shared by both drivers.
const (
	StepLoad     = "load"
	StepValidate = "validate"
	StepDerive   = "derive"
	StepSplit    = "split"
	StepFit      = "fit"
	StepScore    = "score"
	StepPredict  = "predict"
	StepPersist  = "persist"
)

// TrainDeps are the collaborators of the training job.
type TrainDeps struct {
	Source    tasklet.PartitionSource
	Publisher tasklet.ModelPublisher
}

// PredictDeps are the collaborators of the prediction job.
type PredictDeps struct {
	Source tasklet.PartitionSource
	Loader tasklet.ModelLoader
	Sink   tasklet.PredictionSink
}

// TrainSteps returns load, validate, derive, split, fit, score and persist.
// Partitions are restricted to the training columns as they are read.
func TrainSteps(cfg *config.Config, deps TrainDeps) []corejob.Step {
	defaults := tasklet.DefaultTrainSettings(cfg)
	return []corejob.Step{
		{Name: StepLoad, Tasklet: tasklet.NewLoadTasklet(deps.Source, defaults, validate.RequiredColumns(validate.Train))},
		{Name: StepValidate, Tasklet: tasklet.NewValidateTasklet(validate.Train)},
		{Name: StepDerive, Tasklet: tasklet.DeriveTasklet{}},
		{Name: StepSplit, Tasklet: tasklet.SplitTasklet{}},
		{Name: StepFit, Tasklet: tasklet.NewFitTasklet(defaults, tasklet.ModelOptions(cfg.Taxi.Model)...)},
		{Name: StepScore, Tasklet: tasklet.ScoreTasklet{}},
		{Name: StepPersist, Tasklet: tasklet.NewPublishTasklet(deps.Publisher)},
	}
}

// PredictSteps returns load, validate, derive, split, predict and persist.
func PredictSteps(cfg *config.Config, deps PredictDeps) []corejob.Step {
	defaults := tasklet.DefaultPredictSettings(cfg)
	return []corejob.Step{
		{Name: StepLoad, Tasklet: tasklet.NewLoadTasklet(deps.Source, defaults, nil)},
		{Name: StepValidate, Tasklet: tasklet.NewValidateTasklet(validate.Infer)},
		{Name: StepDerive, Tasklet: tasklet.DeriveTasklet{}},
		{Name: StepSplit, Tasklet: tasklet.SplitTasklet{}},
		{Name: StepPredict, Tasklet: tasklet.NewPredictTasklet(deps.Loader)},
		{Name: StepPersist, Tasklet: tasklet.NewWritePredictionsTasklet(deps.Sink, defaults)},
	}
}

// NewTrainJob builds the training job.
func NewTrainJob(
	cfg *config.Config,
	deps TrainDeps,
	repo repository.RunRepository,
	recorder metrics.MetricRecorder,
	tracer metrics.Tracer,
	opts ...corejob.Option,
) *corejob.Job {
	return corejob.NewJob(TrainJobName, TrainSteps(cfg, deps), repo, recorder, tracer, opts...)
}

// NewPredictJob builds the prediction job.
func NewPredictJob(
	cfg *config.Config,
	deps PredictDeps,
	repo repository.RunRepository,
	recorder metrics.MetricRecorder,
	tracer metrics.Tracer,
	opts ...corejob.Option,
) *corejob.Job {
	return corejob.NewJob(PredictJobName, PredictSteps(cfg, deps), repo, recorder, tracer, opts...)
}
