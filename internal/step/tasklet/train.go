package tasklet

import (
	"context"

	writer "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/component/writer"
	config "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/config"
	model "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/domain/model"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/job"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/features"
	mlmodel "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/model"
	exception "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/support/util/exception"
	logger "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/support/util/logger"
)

// ModelPublisher atomically replaces the published model and metrics pair.
type ModelPublisher interface {
	Publish(ctx context.Context, p *mlmodel.Pipeline, m writer.Metrics, runID string) error
}

// ModelOptions converts the configured hyperparameters to builder options.
func ModelOptions(mc config.ModelConfig) []mlmodel.Option {
	return []mlmodel.Option{mlmodel.WithParams(mlmodel.Params{
		MaxDepth:           mc.MaxDepth,
		LearningRate:       mc.LearningRate,
		MaxIter:            mc.MaxIter,
		MaxLeafNodes:       mc.MaxLeafNodes,
		MinSamplesLeaf:     mc.MinSamplesLeaf,
		MaxBins:            mc.MaxBins,
		L2Regularization:   mc.L2Regularization,
		EarlyStopping:      mc.EarlyStopping,
		ValidationFraction: mc.ValidationFraction,
		NIterNoChange:      mc.NIterNoChange,
		Tol:                mc.Tol,
		RandomState:        mc.RandomState,
	})}
}

// FitTasklet splits rc.X into train and test rows with a fixed seed and fits
// a fresh pipeline on the train rows.
type FitTasklet struct {
	defaults RunSettings
	opts     []mlmodel.Option
}

// NewFitTasklet creates a FitTasklet.
func NewFitTasklet(defaults RunSettings, opts ...mlmodel.Option) *FitTasklet {
	return &FitTasklet{defaults: defaults, opts: opts}
}

// Execute implements job.Tasklet.
func (t *FitTasklet) Execute(ctx context.Context, rc *job.RunContext, step *model.StepExecution) (model.ExitStatus, error) {
	if rc.X == nil {
		return model.ExitStatusFailed, exception.Newf(exception.KindModel, moduleName, "fit before split")
	}
	if rc.Y == nil {
		return model.ExitStatusFailed, exception.NewSchemaError(moduleName, []string{features.ColTotalAmount})
	}
	s, err := bindSettings(rc, t.defaults)
	if err != nil {
		return model.ExitStatusFailed, err
	}

	train, test, err := mlmodel.TrainTestSplit(rc.X.NumRows(), s.TestSize, s.Seed)
	if err != nil {
		return model.ExitStatusFailed, err
	}
	rc.TrainIndices, rc.TestIndices = train, test

	p, err := mlmodel.BuildModel(features.CategoricalColumns, features.NumericColumns(), t.opts...)
	if err != nil {
		return model.ExitStatusFailed, err
	}
	if err := ctx.Err(); err != nil {
		return model.ExitStatusStopped, err
	}
	if err := p.Fit(rc.X.Take(train), gather(rc.Y, train)); err != nil {
		return model.ExitStatusFailed, err
	}
	rc.Pipeline = p
	step.ReadCount = len(train)
	return model.ExitStatusCompleted, nil
}

// ScoreTasklet computes the RMSE of rc.Pipeline on the held-out rows.
type ScoreTasklet struct{}

// Execute implements job.Tasklet.
func (ScoreTasklet) Execute(_ context.Context, rc *job.RunContext, step *model.StepExecution) (model.ExitStatus, error) {
	if rc.Pipeline == nil {
		return model.ExitStatusFailed, exception.Newf(exception.KindModel, moduleName, "score before fit")
	}
	pred, err := rc.Pipeline.Predict(rc.X.Take(rc.TestIndices))
	if err != nil {
		return model.ExitStatusFailed, err
	}
	rmse, err := mlmodel.RMSE(gather(rc.Y, rc.TestIndices), pred)
	if err != nil {
		return model.ExitStatusFailed, err
	}
	rc.RMSE = rmse
	rc.Run.RMSE = &rmse
	step.ReadCount = len(rc.TestIndices)
	logger.Infof("RMSE on %d held-out rows: %.4f", len(rc.TestIndices), rmse)
	return model.ExitStatusCompleted, nil
}

// PublishTasklet persists the fitted pipeline and its metrics record.
type PublishTasklet struct {
	store ModelPublisher
}

// NewPublishTasklet creates a PublishTasklet.
func NewPublishTasklet(store ModelPublisher) *PublishTasklet {
	return &PublishTasklet{store: store}
}

// Execute implements job.Tasklet.
func (t *PublishTasklet) Execute(ctx context.Context, rc *job.RunContext, step *model.StepExecution) (model.ExitStatus, error) {
	if rc.Pipeline == nil || rc.Run.RMSE == nil {
		return model.ExitStatusFailed, exception.Newf(exception.KindModel, moduleName, "persist before score")
	}
	m := writer.Metrics{
		RMSE:     rc.RMSE,
		NRows:    len(rc.TrainIndices) + len(rc.TestIndices),
		Features: rc.FeatureNames,
	}
	if err := t.store.Publish(ctx, rc.Pipeline, m, rc.Run.ID); err != nil {
		return model.ExitStatusFailed, err
	}
	step.WriteCount = 1
	return model.ExitStatusCompleted, nil
}

func gather(v []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, j := range idx {
		out[i] = v[j]
	}
	return out
}
