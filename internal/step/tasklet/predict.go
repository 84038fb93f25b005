package tasklet

import (
	"context"

	model "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/domain/model"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/job"
	mlmodel "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/model"
	exception "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/support/util/exception"
)

// ModelLoader reads the published model.
type ModelLoader interface {
	LoadModel(ctx context.Context) (*mlmodel.Pipeline, error)
}

// PredictionSink writes one prediction per input row to path.
type PredictionSink interface {
	Write(ctx context.Context, path string, predictions []float64) error
}

// PredictTasklet loads the published model and predicts every row of rc.X.
type PredictTasklet struct {
	loader ModelLoader
}

// NewPredictTasklet creates a PredictTasklet.
func NewPredictTasklet(loader ModelLoader) *PredictTasklet {
	return &PredictTasklet{loader: loader}
}

// Execute implements job.Tasklet.
func (t *PredictTasklet) Execute(ctx context.Context, rc *job.RunContext, step *model.StepExecution) (model.ExitStatus, error) {
	if rc.X == nil {
		return model.ExitStatusFailed, exception.Newf(exception.KindModel, moduleName, "predict before split")
	}
	p, err := t.loader.LoadModel(ctx)
	if err != nil {
		return model.ExitStatusFailed, err
	}
	pred, err := p.Predict(rc.X)
	if err != nil {
		return model.ExitStatusFailed, err
	}
	rc.Pipeline = p
	rc.Predictions = pred
	step.ReadCount = rc.X.NumRows()
	return model.ExitStatusCompleted, nil
}

// WritePredictionsTasklet writes rc.Predictions to the output location.
type WritePredictionsTasklet struct {
	sink     PredictionSink
	defaults RunSettings
}

// NewWritePredictionsTasklet creates a WritePredictionsTasklet.
func NewWritePredictionsTasklet(sink PredictionSink, defaults RunSettings) *WritePredictionsTasklet {
	return &WritePredictionsTasklet{sink: sink, defaults: defaults}
}

// Execute implements job.Tasklet.
func (t *WritePredictionsTasklet) Execute(ctx context.Context, rc *job.RunContext, step *model.StepExecution) (model.ExitStatus, error) {
	if rc.Predictions == nil {
		return model.ExitStatusFailed, exception.Newf(exception.KindModel, moduleName, "persist before predict")
	}
	s, err := bindSettings(rc, t.defaults)
	if err != nil {
		return model.ExitStatusFailed, err
	}
	if s.Output == "" {
		return model.ExitStatusFailed, exception.Newf(exception.KindConfig, moduleName, "no output path given")
	}
	if err := t.sink.Write(ctx, s.Output, rc.Predictions); err != nil {
		return model.ExitStatusFailed, err
	}
	step.WriteCount = len(rc.Predictions)
	return model.ExitStatusCompleted, nil
}
