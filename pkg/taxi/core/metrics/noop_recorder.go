package metrics

import (
	"context"

	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/domain/model"
)

// NoOpMetricRecorder discards every measurement.
type NoOpMetricRecorder struct{}

func NewNoOpMetricRecorder() MetricRecorder { return &NoOpMetricRecorder{} }

func (r *NoOpMetricRecorder) RecordRunStart(context.Context, *model.RunExecution)           {}
func (r *NoOpMetricRecorder) RecordRunEnd(context.Context, *model.RunExecution)             {}
func (r *NoOpMetricRecorder) RecordStepStart(context.Context, string, *model.StepExecution) {}
func (r *NoOpMetricRecorder) RecordStepEnd(context.Context, string, *model.StepExecution)   {}
func (r *NoOpMetricRecorder) RecordRows(context.Context, string, string, int)               {}
func (r *NoOpMetricRecorder) RecordModelScore(context.Context, string, float64)             {}
func (r *NoOpMetricRecorder) Flush(context.Context) error                                   { return nil }

var _ MetricRecorder = (*NoOpMetricRecorder)(nil)

// NoOpTracer creates no spans.
type NoOpTracer struct{}

func NewNoOpTracer() Tracer { return &NoOpTracer{} }

func (t *NoOpTracer) StartRunSpan(ctx context.Context, _ *model.RunExecution) (context.Context, func()) {
	return ctx, func() {}
}

func (t *NoOpTracer) StartStepSpan(ctx context.Context, _ *model.StepExecution) (context.Context, func()) {
	return ctx, func() {}
}

func (t *NoOpTracer) RecordError(context.Context, string, error)                  {}
func (t *NoOpTracer) RecordEvent(context.Context, string, map[string]interface{}) {}
func (t *NoOpTracer) Shutdown(context.Context) error                              { return nil }

var _ Tracer = (*NoOpTracer)(nil)
