package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"

	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/domain/model"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/metrics"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/support/util/exception"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/support/util/logger"
)

const instrumentationName = "github.com/aware37/projet-big-data-cytech-25-taxi"

// OTelRecorder implements metrics.MetricRecorder with OpenTelemetry instruments.
type OTelRecorder struct {
	provider *sdkmetric.MeterProvider

	runs         metric.Int64Counter
	runDuration  metric.Float64Histogram
	steps        metric.Int64Counter
	stepDuration metric.Float64Histogram
	rows         metric.Int64Counter
	rmse         metric.Float64Gauge
}

// NewOTLPMetricExporter creates an OTLP metric exporter for protocol "grpc" or "http".
// Connections are plaintext; endpoints are host:port.
func NewOTLPMetricExporter(ctx context.Context, protocol, endpoint string) (sdkmetric.Exporter, error) {
	switch protocol {
	case "", "grpc":
		return otlpmetricgrpc.New(ctx, otlpmetricgrpc.WithEndpoint(endpoint), otlpmetricgrpc.WithInsecure())
	case "http":
		return otlpmetrichttp.New(ctx, otlpmetrichttp.WithEndpoint(endpoint), otlpmetrichttp.WithInsecure())
	default:
		return nil, exception.Newf(exception.KindConfig, moduleName, "unsupported OTLP protocol %q", protocol)
	}
}

// NewOTelRecorder creates a recorder on a meter provider reading through reader.
func NewOTelRecorder(reader sdkmetric.Reader, res *resource.Resource) (*OTelRecorder, error) {
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader), sdkmetric.WithResource(res))
	meter := provider.Meter(instrumentationName)

	r := &OTelRecorder{provider: provider}
	var err error
	if r.runs, err = meter.Int64Counter("taxi.run.count", metric.WithDescription("Runs by job and status.")); err != nil {
		return nil, err
	}
	if r.runDuration, err = meter.Float64Histogram("taxi.run.duration", metric.WithUnit("s"), metric.WithDescription("Duration of runs.")); err != nil {
		return nil, err
	}
	if r.steps, err = meter.Int64Counter("taxi.step.count", metric.WithDescription("Steps by job, step and status.")); err != nil {
		return nil, err
	}
	if r.stepDuration, err = meter.Float64Histogram("taxi.step.duration", metric.WithUnit("s"), metric.WithDescription("Duration of steps.")); err != nil {
		return nil, err
	}
	if r.rows, err = meter.Int64Counter("taxi.step.rows", metric.WithDescription("Rows handled by step.")); err != nil {
		return nil, err
	}
	if r.rmse, err = meter.Float64Gauge("taxi.model.rmse", metric.WithDescription("Held-out RMSE of the last trained model.")); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *OTelRecorder) RecordRunStart(ctx context.Context, run *model.RunExecution) {
	r.runs.Add(ctx, 1, metric.WithAttributes(
		attribute.String("job_name", run.JobName),
		attribute.String("status", run.Status.String()),
	))
}

func (r *OTelRecorder) RecordRunEnd(ctx context.Context, run *model.RunExecution) {
	if run.EndTime == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("job_name", run.JobName),
		attribute.String("status", run.Status.String()),
	)
	r.runs.Add(ctx, 1, attrs)
	r.runDuration.Record(ctx, run.Duration().Seconds(), attrs)
}

func (r *OTelRecorder) RecordStepStart(ctx context.Context, jobName string, step *model.StepExecution) {
	r.steps.Add(ctx, 1, metric.WithAttributes(
		attribute.String("job_name", jobName),
		attribute.String("step_name", step.StepName),
		attribute.String("status", step.Status.String()),
	))
}

func (r *OTelRecorder) RecordStepEnd(ctx context.Context, jobName string, step *model.StepExecution) {
	if step.EndTime == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("job_name", jobName),
		attribute.String("step_name", step.StepName),
		attribute.String("status", step.Status.String()),
	)
	r.steps.Add(ctx, 1, attrs)
	if step.StartTime != nil {
		r.stepDuration.Record(ctx, step.EndTime.Sub(*step.StartTime).Seconds(), attrs)
	}
}

func (r *OTelRecorder) RecordRows(ctx context.Context, jobName, stepName string, n int) {
	r.rows.Add(ctx, int64(n), metric.WithAttributes(
		attribute.String("job_name", jobName),
		attribute.String("step_name", stepName),
	))
}

func (r *OTelRecorder) RecordModelScore(ctx context.Context, jobName string, rmse float64) {
	r.rmse.Record(ctx, rmse, metric.WithAttributes(attribute.String("job_name", jobName)))
}

// Flush forces an export of everything recorded so far.
func (r *OTelRecorder) Flush(ctx context.Context) error {
	if err := r.provider.ForceFlush(ctx); err != nil {
		return exception.New(exception.KindIO, moduleName, "failed to flush OpenTelemetry metrics", err)
	}
	return nil
}

// Shutdown flushes and stops the meter provider.
func (r *OTelRecorder) Shutdown(ctx context.Context) error {
	if err := r.provider.Shutdown(ctx); err != nil {
		return fmt.Errorf("meter provider shutdown: %w", err)
	}
	logger.Debugf("OpenTelemetry meter provider stopped.")
	return nil
}

var _ metrics.MetricRecorder = (*OTelRecorder)(nil)
