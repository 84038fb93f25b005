package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/domain/model"
)

func finishedRun(t *testing.T) (*model.RunExecution, *model.StepExecution) {
	t.Helper()
	run := model.NewRunExecution("taxi-train", nil)
	run.MarkAsStarted()
	step := model.NewStepExecution(run, "fit")
	step.MarkAsStarted()
	time.Sleep(time.Millisecond)
	step.MarkAsCompleted(model.ExitStatusCompleted)
	run.MarkAsCompleted()
	return run, step
}

func TestPrometheusRecorder_Records(t *testing.T) {
	ctx := context.Background()
	r := NewPrometheusRecorder("", "taxi-train")
	run, step := finishedRun(t)

	r.RecordRunEnd(ctx, run)
	r.RecordStepEnd(ctx, run.JobName, step)
	r.RecordRows(ctx, run.JobName, "load", 120)
	r.RecordRows(ctx, run.JobName, "load", 30)
	r.RecordModelScore(ctx, run.JobName, 4.5)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.runStatusCounter.WithLabelValues("taxi-train", "COMPLETED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.stepStatusCounter.WithLabelValues("taxi-train", "fit", "COMPLETED")))
	assert.Equal(t, 150.0, testutil.ToFloat64(r.rowsTotal.WithLabelValues("taxi-train", "load")))
	assert.Equal(t, 4.5, testutil.ToFloat64(r.modelRMSE.WithLabelValues("taxi-train")))
	assert.Equal(t, float64(run.EndTime.Unix()), testutil.ToFloat64(r.lastSuccess.WithLabelValues("taxi-train")))

	assert.NoError(t, r.Flush(ctx))
}

func TestPrometheusRecorder_FlushPushesToGateway(t *testing.T) {
	var (
		mu   sync.Mutex
		path string
		body string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		b, _ := io.ReadAll(req.Body)
		mu.Lock()
		path, body = req.URL.Path, string(b)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	r := NewPrometheusRecorder(srv.URL, "taxi-train")
	r.RecordModelScore(context.Background(), "taxi-train", 2.0)
	require.NoError(t, r.Flush(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "/metrics/job/taxi-train", path)
	assert.True(t, strings.Contains(body, "taxi_model_rmse"))
}

func TestPrometheusRecorder_FlushFailureIsIOError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := NewPrometheusRecorder(srv.URL, "taxi-train").Flush(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "IOError")
}

func TestOTelRecorder_CollectsInstruments(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	rec, err := NewOTelRecorder(reader, NewServiceResource("taxi-test"))
	require.NoError(t, err)

	run, step := finishedRun(t)
	rec.RecordRunStart(ctx, run)
	rec.RecordStepEnd(ctx, run.JobName, step)
	rec.RecordRows(ctx, run.JobName, "load", 42)
	rec.RecordModelScore(ctx, run.JobName, 3.0)
	rec.RecordRunEnd(ctx, run)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	names := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			names[m.Name] = true
		}
	}
	for _, want := range []string{"taxi.run.count", "taxi.run.duration", "taxi.step.count", "taxi.step.duration", "taxi.step.rows", "taxi.model.rmse"} {
		assert.True(t, names[want], want)
	}
	require.NoError(t, rec.Shutdown(ctx))
}

func TestOpenTelemetryTracer_Spans(t *testing.T) {
	ctx := context.Background()
	sr := tracetest.NewSpanRecorder()
	tracer := NewOpenTelemetryTracer(sdktrace.WithSpanProcessor(sr))

	run := model.NewRunExecution("taxi-predict", nil)
	runCtx, endRun := tracer.StartRunSpan(ctx, run)
	step := model.NewStepExecution(run, "predict")
	stepCtx, endStep := tracer.StartStepSpan(runCtx, step)
	tracer.RecordEvent(stepCtx, "rows", map[string]interface{}{"n": 10, "path": "out.csv"})
	tracer.RecordError(stepCtx, "writer", errors.New("disk full"))
	endStep()
	endRun()

	ended := sr.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, "step predict", ended[0].Name())
	assert.Equal(t, "run taxi-predict", ended[1].Name())
	assert.Equal(t, ended[1].SpanContext().SpanID(), ended[0].Parent().SpanID())
	assert.Equal(t, "Error", ended[0].Status().Code.String())
	require.NoError(t, tracer.Shutdown(ctx))
}

func TestOTLPExporters_RejectUnknownProtocol(t *testing.T) {
	_, err := NewOTLPMetricExporter(context.Background(), "carrier-pigeon", "localhost:4317")
	assert.Error(t, err)
	_, err = NewOTLPSpanExporter(context.Background(), "carrier-pigeon", "localhost:4317")
	assert.Error(t, err)
}
