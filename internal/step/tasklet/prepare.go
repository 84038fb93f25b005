package tasklet

import (
	"context"

	reader "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/component/reader"
	model "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/domain/model"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/job"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/features"
	mlmodel "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/model"
	exception "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/support/util/exception"
	logger "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/support/util/logger"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/table"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/validate"
)

// PartitionSource reads and concatenates input partitions.
type PartitionSource interface {
	ReadPartitions(ctx context.Context, paths []string, opts reader.ReadOptions) (*table.Table, error)
}

// LoadTasklet reads the input partitions into rc.Batch and applies the
// optional seeded row cap.
type LoadTasklet struct {
	source   PartitionSource
	defaults RunSettings
	keep     []string
}

// NewLoadTasklet creates a LoadTasklet. keep restricts every partition to
// those columns; nil keeps all of them.
func NewLoadTasklet(source PartitionSource, defaults RunSettings, keep []string) *LoadTasklet {
	return &LoadTasklet{source: source, defaults: defaults, keep: keep}
}

// Execute implements job.Tasklet.
func (t *LoadTasklet) Execute(ctx context.Context, rc *job.RunContext, step *model.StepExecution) (model.ExitStatus, error) {
	s, err := bindSettings(rc, t.defaults)
	if err != nil {
		return model.ExitStatusFailed, err
	}
	inputs := s.Inputs()
	if len(inputs) == 0 {
		return model.ExitStatusFailed, exception.Newf(exception.KindConfig, moduleName, "no input partitions given")
	}

	batch, err := t.source.ReadPartitions(ctx, inputs, reader.ReadOptions{KeepColumns: t.keep})
	if err != nil {
		return model.ExitStatusFailed, err
	}
	step.ReadCount = batch.NumRows()

	if s.MaxRows > 0 && batch.NumRows() > s.MaxRows {
		logger.Infof("Sampling %d of %d rows (seed %d).", s.MaxRows, batch.NumRows(), s.Seed)
		batch = batch.Take(mlmodel.SampleRows(batch.NumRows(), s.MaxRows, s.Seed))
	}
	rc.Batch = batch
	rc.Run.NRows = batch.NumRows()
	step.WriteCount = batch.NumRows()
	return model.ExitStatusCompleted, nil
}

// ValidateTasklet checks rc.Batch in the given mode.
type ValidateTasklet struct {
	mode validate.Mode
}

// NewValidateTasklet creates a ValidateTasklet.
func NewValidateTasklet(mode validate.Mode) *ValidateTasklet {
	return &ValidateTasklet{mode: mode}
}

// Execute implements job.Tasklet.
func (t *ValidateTasklet) Execute(_ context.Context, rc *job.RunContext, step *model.StepExecution) (model.ExitStatus, error) {
	if rc.Batch == nil {
		return model.ExitStatusFailed, exception.Newf(exception.KindModel, moduleName, "validate before load")
	}
	step.ReadCount = rc.Batch.NumRows()
	if err := validate.Validate(rc.Batch, t.mode); err != nil {
		return model.ExitStatusFailed, err
	}
	logger.Infof("Batch of %d rows passed %s validation.", rc.Batch.NumRows(), t.mode)
	return model.ExitStatusCompleted, nil
}

// DeriveTasklet adds the time features to rc.Batch, storing the result in rc.Features.
type DeriveTasklet struct{}

// Execute implements job.Tasklet.
func (DeriveTasklet) Execute(_ context.Context, rc *job.RunContext, step *model.StepExecution) (model.ExitStatus, error) {
	if rc.Batch == nil {
		return model.ExitStatusFailed, exception.Newf(exception.KindModel, moduleName, "derive before load")
	}
	out, err := features.AddTimeFeatures(rc.Batch)
	if err != nil {
		return model.ExitStatusFailed, err
	}
	rc.Features = out
	step.ReadCount = out.NumRows()
	return model.ExitStatusCompleted, nil
}

// SplitTasklet separates rc.Features into the model inputs and the target.
type SplitTasklet struct{}

// Execute implements job.Tasklet.
func (SplitTasklet) Execute(_ context.Context, rc *job.RunContext, step *model.StepExecution) (model.ExitStatus, error) {
	if rc.Features == nil {
		return model.ExitStatusFailed, exception.Newf(exception.KindModel, moduleName, "split before derive")
	}
	x, y, names, err := features.SplitXY(rc.Features)
	if err != nil {
		return model.ExitStatusFailed, err
	}
	rc.X, rc.Y, rc.FeatureNames = x, y, names
	step.ReadCount = x.NumRows()
	return model.ExitStatusCompleted, nil
}
