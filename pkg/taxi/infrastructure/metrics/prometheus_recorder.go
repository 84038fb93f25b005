// Package metrics implements the metric and tracing backends: Prometheus with
// an optional Pushgateway, OpenTelemetry metrics over OTLP and an OpenTelemetry
// tracer over OTLP.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/domain/model"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/metrics"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/support/util/exception"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/support/util/logger"
)

const moduleName = "metrics"

// PrometheusRecorder implements metrics.MetricRecorder on a private registry.
// Batch processes are short-lived, so Flush pushes the registry to a Pushgateway
// when one is configured.
type PrometheusRecorder struct {
	registry       *prometheus.Registry
	pushgatewayURL string
	pushJob        string

	runDurationSeconds  *prometheus.HistogramVec
	runStatusCounter    *prometheus.CounterVec
	stepDurationSeconds *prometheus.HistogramVec
	stepStatusCounter   *prometheus.CounterVec
	rowsTotal           *prometheus.CounterVec
	modelRMSE           *prometheus.GaugeVec
	lastSuccess         *prometheus.GaugeVec
}

// NewPrometheusRecorder creates a recorder. An empty pushgatewayURL makes Flush a no-op.
func NewPrometheusRecorder(pushgatewayURL, pushJob string) *PrometheusRecorder {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &PrometheusRecorder{
		registry:       registry,
		pushgatewayURL: pushgatewayURL,
		pushJob:        pushJob,
		runDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "taxi_run_duration_seconds",
			Help:    "Duration of training and prediction runs.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800, 3600},
		}, []string{"job_name", "status"}),
		runStatusCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taxi_run_status_total",
			Help: "Runs by job and status.",
		}, []string{"job_name", "status"}),
		stepDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "taxi_step_duration_seconds",
			Help:    "Duration of run steps.",
			Buckets: prometheus.DefBuckets,
		}, []string{"job_name", "step_name", "status"}),
		stepStatusCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taxi_step_status_total",
			Help: "Steps by job, step and status.",
		}, []string{"job_name", "step_name", "status"}),
		rowsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taxi_step_rows_total",
			Help: "Rows handled by step.",
		}, []string{"job_name", "step_name"}),
		modelRMSE: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "taxi_model_rmse",
			Help: "Held-out RMSE of the last trained model.",
		}, []string{"job_name"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "taxi_run_last_success_timestamp_seconds",
			Help: "Unix time of the last completed run.",
		}, []string{"job_name"}),
	}

	registry.MustRegister(
		r.runDurationSeconds,
		r.runStatusCounter,
		r.stepDurationSeconds,
		r.stepStatusCounter,
		r.rowsTotal,
		r.modelRMSE,
		r.lastSuccess,
	)
	return r
}

// GetRegistry returns the registry, for serving or testing.
func (r *PrometheusRecorder) GetRegistry() *prometheus.Registry {
	return r.registry
}

func (r *PrometheusRecorder) RecordRunStart(_ context.Context, run *model.RunExecution) {
	r.runStatusCounter.WithLabelValues(run.JobName, run.Status.String()).Inc()
	logger.Debugf("Metrics: run '%s' of %s started.", run.ID, run.JobName)
}

func (r *PrometheusRecorder) RecordRunEnd(_ context.Context, run *model.RunExecution) {
	if run.EndTime == nil {
		return
	}
	r.runStatusCounter.WithLabelValues(run.JobName, run.Status.String()).Inc()
	r.runDurationSeconds.WithLabelValues(run.JobName, run.Status.String()).Observe(run.Duration().Seconds())
	if run.Status == model.StatusCompleted {
		r.lastSuccess.WithLabelValues(run.JobName).Set(float64(run.EndTime.Unix()))
	}
	logger.Debugf("Metrics: run '%s' of %s ended (%s) after %.3fs.", run.ID, run.JobName, run.Status, run.Duration().Seconds())
}

func (r *PrometheusRecorder) RecordStepStart(_ context.Context, jobName string, step *model.StepExecution) {
	r.stepStatusCounter.WithLabelValues(jobName, step.StepName, step.Status.String()).Inc()
}

func (r *PrometheusRecorder) RecordStepEnd(_ context.Context, jobName string, step *model.StepExecution) {
	if step.EndTime == nil {
		return
	}
	r.stepStatusCounter.WithLabelValues(jobName, step.StepName, step.Status.String()).Inc()
	if step.StartTime != nil {
		r.stepDurationSeconds.WithLabelValues(jobName, step.StepName, step.Status.String()).
			Observe(step.EndTime.Sub(*step.StartTime).Seconds())
	}
}

func (r *PrometheusRecorder) RecordRows(_ context.Context, jobName, stepName string, n int) {
	r.rowsTotal.WithLabelValues(jobName, stepName).Add(float64(n))
}

func (r *PrometheusRecorder) RecordModelScore(_ context.Context, jobName string, rmse float64) {
	r.modelRMSE.WithLabelValues(jobName).Set(rmse)
}

// Flush pushes every collected metric to the Pushgateway, replacing the previous
// push of the same job.
func (r *PrometheusRecorder) Flush(ctx context.Context) error {
	if r.pushgatewayURL == "" {
		return nil
	}
	if err := push.New(r.pushgatewayURL, r.pushJob).Gatherer(r.registry).PushContext(ctx); err != nil {
		return exception.New(exception.KindIO, moduleName, "failed to push metrics to "+r.pushgatewayURL, err)
	}
	logger.Debugf("Metrics pushed to %s (job %s).", r.pushgatewayURL, r.pushJob)
	return nil
}

var _ metrics.MetricRecorder = (*PrometheusRecorder)(nil)
