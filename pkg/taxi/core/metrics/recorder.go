// Package metrics declares the metric and tracing hooks the job engine calls.
// Backends live in pkg/taxi/infrastructure/metrics.
package metrics

import (
	"context"

	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/domain/model"
)

// MetricRecorder records run-level and step-level measurements.
type MetricRecorder interface {
	// RecordRunStart records that run has started.
	RecordRunStart(ctx context.Context, run *model.RunExecution)
	// RecordRunEnd records the outcome and duration of run.
	RecordRunEnd(ctx context.Context, run *model.RunExecution)
	// RecordStepStart records that a step of jobName has started.
	RecordStepStart(ctx context.Context, jobName string, step *model.StepExecution)
	// RecordStepEnd records the outcome and duration of a step of jobName.
	RecordStepEnd(ctx context.Context, jobName string, step *model.StepExecution)
	// RecordRows records the number of rows a step handled.
	RecordRows(ctx context.Context, jobName, stepName string, n int)
	// RecordModelScore records the held-out RMSE of a training run.
	RecordModelScore(ctx context.Context, jobName string, rmse float64)
	// Flush exports buffered measurements. Batch processes call it before exiting.
	Flush(ctx context.Context) error
}
