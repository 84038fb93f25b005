package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/domain/model"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/metrics"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/support/util/exception"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/support/util/logger"
)

// OpenTelemetryTracer implements metrics.Tracer with the OpenTelemetry SDK.
type OpenTelemetryTracer struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
}

// NewOTLPSpanExporter creates an OTLP span exporter for protocol "grpc" or "http".
func NewOTLPSpanExporter(ctx context.Context, protocol, endpoint string) (sdktrace.SpanExporter, error) {
	switch protocol {
	case "", "grpc":
		return otlptracegrpc.New(ctx, otlptracegrpc.WithEndpoint(endpoint), otlptracegrpc.WithInsecure())
	case "http":
		return otlptracehttp.New(ctx, otlptracehttp.WithEndpoint(endpoint), otlptracehttp.WithInsecure())
	default:
		return nil, exception.Newf(exception.KindConfig, moduleName, "unsupported OTLP protocol %q", protocol)
	}
}

// NewOpenTelemetryTracer creates a tracer whose spans go through the given
// provider options (a batcher or a span processor, and a resource).
func NewOpenTelemetryTracer(opts ...sdktrace.TracerProviderOption) *OpenTelemetryTracer {
	provider := sdktrace.NewTracerProvider(opts...)
	return &OpenTelemetryTracer{
		provider: provider,
		tracer:   provider.Tracer(instrumentationName),
	}
}

// NewServiceResource describes the running process to the telemetry backend.
func NewServiceResource(serviceName string) *resource.Resource {
	return resource.NewSchemaless(attribute.String("service.name", serviceName))
}

func (t *OpenTelemetryTracer) StartRunSpan(ctx context.Context, run *model.RunExecution) (context.Context, func()) {
	ctx, span := t.tracer.Start(ctx, "run "+run.JobName, trace.WithAttributes(
		attribute.String("taxi.run.id", run.ID),
		attribute.String("taxi.job.name", run.JobName),
	))
	return ctx, func() {
		span.SetAttributes(attribute.String("taxi.run.status", run.Status.String()))
		span.End()
	}
}

func (t *OpenTelemetryTracer) StartStepSpan(ctx context.Context, step *model.StepExecution) (context.Context, func()) {
	ctx, span := t.tracer.Start(ctx, "step "+step.StepName, trace.WithAttributes(
		attribute.String("taxi.step.id", step.ID),
		attribute.String("taxi.step.name", step.StepName),
	))
	return ctx, func() {
		span.SetAttributes(
			attribute.String("taxi.step.status", step.Status.String()),
			attribute.Int("taxi.step.read_count", step.ReadCount),
			attribute.Int("taxi.step.write_count", step.WriteCount),
		)
		span.End()
	}
}

func (t *OpenTelemetryTracer) RecordError(ctx context.Context, module string, err error) {
	if err == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	span.RecordError(err, trace.WithAttributes(attribute.String("taxi.module", module)))
	span.SetStatus(codes.Error, err.Error())
}

func (t *OpenTelemetryTracer) RecordEvent(ctx context.Context, name string, attributes map[string]interface{}) {
	attrs := make([]attribute.KeyValue, 0, len(attributes))
	for k, v := range attributes {
		switch val := v.(type) {
		case string:
			attrs = append(attrs, attribute.String(k, val))
		case int:
			attrs = append(attrs, attribute.Int(k, val))
		case int64:
			attrs = append(attrs, attribute.Int64(k, val))
		case float64:
			attrs = append(attrs, attribute.Float64(k, val))
		case bool:
			attrs = append(attrs, attribute.Bool(k, val))
		default:
			attrs = append(attrs, attribute.String(k, fmt.Sprint(val)))
		}
	}
	trace.SpanFromContext(ctx).AddEvent(name, trace.WithAttributes(attrs...))
}

// Shutdown flushes pending spans and stops the provider.
func (t *OpenTelemetryTracer) Shutdown(ctx context.Context) error {
	if err := t.provider.Shutdown(ctx); err != nil {
		return exception.New(exception.KindIO, moduleName, "failed to shut down tracer provider", err)
	}
	logger.Debugf("OpenTelemetry tracer provider stopped.")
	return nil
}

var _ metrics.Tracer = (*OpenTelemetryTracer)(nil)
