package job

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	reader "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/component/reader"
	writer "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/component/writer"
	config "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/config"
	model "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/domain/model"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/features"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/infrastructure/repository/inmemory"
	mlmodel "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/model"
	exception "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/support/util/exception"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/table"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/validate"

	"github.com/aware37/projet-big-data-cytech-25-taxi/internal/step/tasklet"
)

type stubSource struct {
	batch *table.Table
	paths []string
	keep  []string
}

func (s *stubSource) ReadPartitions(_ context.Context, paths []string, opts reader.ReadOptions) (*table.Table, error) {
	s.paths, s.keep = paths, opts.KeepColumns
	return s.batch, nil
}

// memoryStore publishes to and loads from memory.
type memoryStore struct {
	model   *mlmodel.Pipeline
	metrics *writer.Metrics
	written []float64
	path    string
}

func (m *memoryStore) Publish(_ context.Context, p *mlmodel.Pipeline, metrics writer.Metrics, _ string) error {
	m.model, m.metrics = p, &metrics
	return nil
}

func (m *memoryStore) LoadModel(context.Context) (*mlmodel.Pipeline, error) {
	if m.model == nil {
		return nil, exception.NewIOError("writer", "artifacts/model.gob", assert.AnError)
	}
	return m.model, nil
}

func (m *memoryStore) Write(_ context.Context, path string, predictions []float64) error {
	m.path, m.written = path, predictions
	return nil
}

func testConfig() *config.Config {
	cfg := config.NewConfig()
	cfg.Taxi.Training.Inputs = []string{"data/2025-01.parquet"}
	cfg.Taxi.Prediction.Inputs = []string{"data/2025-02.parquet"}
	cfg.Taxi.Model.MaxIter = 15
	cfg.Taxi.Model.MinSamplesLeaf = 2
	cfg.Taxi.Model.LearningRate = 0.3
	return cfg
}

func batch(t *testing.T, n int, withTarget bool, negativeDistanceAt int) *table.Table {
	t.Helper()
	rng := rand.New(rand.NewSource(11))
	base := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	cols := map[string][]float64{}
	names := []string{"passenger_count", "trip_distance", "rate_code_id", "payment_type_id", "pu_location_id", "do_location_id", features.ColTotalAmount, "extra"}
	for _, name := range names {
		cols[name] = make([]float64, n)
	}
	pickup := make([]time.Time, n)
	dropoff := make([]time.Time, n)
	for i := 0; i < n; i++ {
		d := rng.Float64() * 10
		pickup[i] = base.Add(time.Duration(i) * 17 * time.Minute)
		dropoff[i] = pickup[i].Add(time.Duration(4+3*d) * time.Minute)
		cols["passenger_count"][i] = 1
		cols["trip_distance"][i] = d
		cols["rate_code_id"][i] = 1
		cols["payment_type_id"][i] = float64(1 + i%2)
		cols["pu_location_id"][i] = float64(100 + i%3)
		cols["do_location_id"][i] = float64(200 + i%3)
		cols[features.ColTotalAmount][i] = 4 + 2.5*d
	}
	if negativeDistanceAt >= 0 {
		cols["trip_distance"][negativeDistanceAt] = -1
	}
	out := []*table.Column{table.NewTime(features.ColPickup, pickup), table.NewTime(features.ColDropoff, dropoff)}
	for _, name := range names {
		if name == features.ColTotalAmount && !withTarget {
			continue
		}
		out = append(out, table.NewFloat(name, cols[name]))
	}
	tbl, err := table.New(out...)
	require.NoError(t, err)
	return tbl
}

func stepNames(run *model.RunExecution) []string {
	var out []string
	for _, s := range run.StepExecutions {
		out = append(out, s.StepName)
	}
	return out
}

func TestTrainThenPredict(t *testing.T) {
	cfg := testConfig()
	store := &memoryStore{}
	repo := inmemory.NewRunRepository()

	trainSrc := &stubSource{batch: batch(t, 200, true, -1)}
	train := NewTrainJob(cfg, TrainDeps{Source: trainSrc, Publisher: store}, repo, nil, nil)
	assert.Equal(t, []string{StepLoad, StepValidate, StepDerive, StepSplit, StepFit, StepScore, StepPersist}, train.StepNames())

	run, err := train.Run(context.Background(), model.RunParameters{tasklet.ParamMaxRows: "150"})
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, run.Status)
	assert.Equal(t, []string{"data/2025-01.parquet"}, trainSrc.paths)
	assert.Equal(t, validate.RequiredColumns(validate.Train), trainSrc.keep)

	require.NotNil(t, store.metrics)
	assert.Equal(t, 150, store.metrics.NRows)
	assert.Equal(t, features.FeatureColumns, store.metrics.Features)
	require.NotNil(t, run.RMSE)
	assert.Equal(t, *run.RMSE, store.metrics.RMSE)

	stored, err := repo.FindLatestRunExecution(context.Background(), TrainJobName)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, stored.Status)
	assert.Len(t, stored.StepExecutions, 7)

	predictSrc := &stubSource{batch: batch(t, 40, false, -1)}
	predict := NewPredictJob(cfg, PredictDeps{Source: predictSrc, Loader: store, Sink: store}, repo, nil, nil)
	run, err = predict.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, run.Status)
	assert.Nil(t, predictSrc.keep)
	assert.Len(t, store.written, 40)
	assert.Equal(t, cfg.Taxi.Paths.PredictionsFile, store.path)
	assert.Nil(t, run.RMSE)
}

func TestTrainJob_ValidationFailureStopsBeforeFit(t *testing.T) {
	store := &memoryStore{}
	job := NewTrainJob(testConfig(), TrainDeps{Source: &stubSource{batch: batch(t, 50, true, 7)}, Publisher: store},
		inmemory.NewRunRepository(), nil, nil)

	run, err := job.Run(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, exception.IsDataQualityError(err))
	assert.Equal(t, model.StatusFailed, run.Status)
	assert.Equal(t, []string{StepLoad, StepValidate}, stepNames(run))
	assert.Nil(t, store.metrics)
	assert.Nil(t, run.RMSE)
}

func TestPredictJob_MissingModelFails(t *testing.T) {
	store := &memoryStore{}
	job := NewPredictJob(testConfig(), PredictDeps{Source: &stubSource{batch: batch(t, 10, false, -1)}, Loader: store, Sink: store},
		inmemory.NewRunRepository(), nil, nil)

	run, err := job.Run(context.Background(), model.RunParameters{tasklet.ParamOutput: "out.csv"})
	require.Error(t, err)
	assert.True(t, exception.IsIOError(err))
	assert.Equal(t, model.StatusFailed, run.Status)
	assert.Equal(t, []string{StepLoad, StepValidate, StepDerive, StepSplit, StepPredict}, stepNames(run))
	assert.Nil(t, store.written)
}

func TestPredictJob_RejectsNegativeDistance(t *testing.T) {
	store := &memoryStore{}
	job := NewPredictJob(testConfig(), PredictDeps{Source: &stubSource{batch: batch(t, 10, false, 0)}, Loader: store, Sink: store},
		inmemory.NewRunRepository(), nil, nil)

	_, err := job.Run(context.Background(), nil)
	assert.True(t, exception.IsDataQualityError(err))
}
