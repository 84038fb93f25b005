package metrics

import (
	"context"

	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/domain/model"
)

// Tracer opens spans around runs and steps.
type Tracer interface {
	// StartRunSpan starts a span for run. The returned function ends it.
	StartRunSpan(ctx context.Context, run *model.RunExecution) (context.Context, func())
	// StartStepSpan starts a child span for step. The returned function ends it.
	StartStepSpan(ctx context.Context, step *model.StepExecution) (context.Context, func())
	// RecordError marks the current span as failed.
	RecordError(ctx context.Context, module string, err error)
	// RecordEvent adds an event to the current span.
	RecordEvent(ctx context.Context, name string, attributes map[string]interface{})
	// Shutdown flushes pending spans.
	Shutdown(ctx context.Context) error
}
