package metrics

import (
	"context"
	"strings"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"

	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/config"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/metrics"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/support/util/exception"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/support/util/logger"
)

// BackendParams are the dependencies of the backend constructors.
type BackendParams struct {
	fx.In
	Lifecycle fx.Lifecycle
	Cfg       *config.Config
	// JobName labels pushed metrics and names the traced service when none is configured.
	JobName string `name:"jobName"`
}

// NewMetricRecorder selects the recorder named by taxi.metrics.backend.
func NewMetricRecorder(p BackendParams) (metrics.MetricRecorder, error) {
	mc := p.Cfg.Taxi.Metrics
	switch strings.ToLower(mc.Backend) {
	case "", "none":
		return metrics.NewNoOpMetricRecorder(), nil
	case "prometheus":
		logger.Infof("Metrics: Prometheus recorder (pushgateway: %q).", mc.PushgatewayURL)
		return NewPrometheusRecorder(mc.PushgatewayURL, p.JobName), nil
	case "otel":
		exporter, err := NewOTLPMetricExporter(context.Background(), mc.OTLPProtocol, mc.OTLPEndpoint)
		if err != nil {
			return nil, exception.New(exception.KindConfig, moduleName, "failed to create OTLP metric exporter", err)
		}
		rec, err := NewOTelRecorder(sdkmetric.NewPeriodicReader(exporter), NewServiceResource(serviceName(p)))
		if err != nil {
			return nil, exception.New(exception.KindConfig, moduleName, "failed to create OpenTelemetry instruments", err)
		}
		p.Lifecycle.Append(fx.Hook{OnStop: rec.Shutdown})
		logger.Infof("Metrics: OpenTelemetry recorder exporting to %s over %s.", mc.OTLPEndpoint, mc.OTLPProtocol)
		return rec, nil
	default:
		return nil, exception.Newf(exception.KindConfig, moduleName, "unknown metrics backend %q", mc.Backend)
	}
}

// NewTracer returns an OTLP-exporting tracer when tracing is enabled, otherwise a no-op.
func NewTracer(p BackendParams) (metrics.Tracer, error) {
	tc := p.Cfg.Taxi.Tracing
	if !tc.Enabled {
		return metrics.NewNoOpTracer(), nil
	}
	exporter, err := NewOTLPSpanExporter(context.Background(), tc.OTLPProtocol, tc.OTLPEndpoint)
	if err != nil {
		return nil, exception.New(exception.KindConfig, moduleName, "failed to create OTLP span exporter", err)
	}
	tracer := NewOpenTelemetryTracer(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(NewServiceResource(serviceName(p))),
	)
	p.Lifecycle.Append(fx.Hook{OnStop: tracer.Shutdown})
	logger.Infof("Tracing: exporting spans to %s over %s.", tc.OTLPEndpoint, tc.OTLPProtocol)
	return tracer, nil
}

func serviceName(p BackendParams) string {
	if p.Cfg.Taxi.Tracing.ServiceName != "" {
		return p.Cfg.Taxi.Tracing.ServiceName
	}
	return p.JobName
}

// Module provides the configured MetricRecorder and Tracer.
var Module = fx.Options(
	fx.Provide(NewMetricRecorder),
	fx.Provide(NewTracer),
)
