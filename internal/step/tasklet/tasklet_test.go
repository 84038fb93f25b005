package tasklet

import (
	"context"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	reader "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/component/reader"
	writer "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/component/writer"
	model "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/domain/model"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/job"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/features"
	mlmodel "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/model"
	exception "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/support/util/exception"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/table"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/validate"
)

type mockSource struct{ mock.Mock }

func (m *mockSource) ReadPartitions(ctx context.Context, paths []string, opts reader.ReadOptions) (*table.Table, error) {
	args := m.Called(ctx, paths, opts)
	t, _ := args.Get(0).(*table.Table)
	return t, args.Error(1)
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) Publish(ctx context.Context, p *mlmodel.Pipeline, metrics writer.Metrics, runID string) error {
	return m.Called(ctx, p, metrics, runID).Error(0)
}

type mockLoader struct{ mock.Mock }

func (m *mockLoader) LoadModel(ctx context.Context) (*mlmodel.Pipeline, error) {
	args := m.Called(ctx)
	p, _ := args.Get(0).(*mlmodel.Pipeline)
	return p, args.Error(1)
}

type mockSink struct{ mock.Mock }

func (m *mockSink) Write(ctx context.Context, path string, predictions []float64) error {
	return m.Called(ctx, path, predictions).Error(0)
}

// trips returns n synthetic trips whose fare grows with distance.
func trips(t *testing.T, n int, withTarget bool) *table.Table {
	t.Helper()
	rng := rand.New(rand.NewSource(7))
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	pickup := make([]time.Time, n)
	dropoff := make([]time.Time, n)
	passengers := make([]float64, n)
	distance := make([]float64, n)
	rate := make([]float64, n)
	payment := make([]float64, n)
	pu := make([]float64, n)
	do := make([]float64, n)
	total := make([]float64, n)
	for i := 0; i < n; i++ {
		pickup[i] = base.Add(time.Duration(rng.Intn(30*24*60)) * time.Minute)
		distance[i] = rng.Float64() * 15
		dropoff[i] = pickup[i].Add(time.Duration(3+distance[i]*3) * time.Minute)
		passengers[i] = float64(1 + rng.Intn(4))
		rate[i] = float64(1 + rng.Intn(2))
		payment[i] = float64(1 + rng.Intn(2))
		pu[i] = float64(100 + rng.Intn(5))
		do[i] = float64(200 + rng.Intn(5))
		total[i] = 3 + 2.8*distance[i]
	}
	cols := []*table.Column{
		table.NewTime(features.ColPickup, pickup),
		table.NewTime(features.ColDropoff, dropoff),
		table.NewFloat("passenger_count", passengers),
		table.NewFloat("trip_distance", distance),
		table.NewFloat("rate_code_id", rate),
		table.NewFloat("payment_type_id", payment),
		table.NewFloat("pu_location_id", pu),
		table.NewFloat("do_location_id", do),
	}
	if withTarget {
		cols = append(cols, table.NewFloat(features.ColTotalAmount, total))
	}
	out, err := table.New(cols...)
	require.NoError(t, err)
	return out
}

func newRunContext(params model.RunParameters) (*job.RunContext, *model.StepExecution) {
	run := model.NewRunExecution("test", params)
	return job.NewRunContext(run), model.NewStepExecution(run, "step")
}

// smallModel keeps fits fast on a few hundred rows.
var smallModel = []mlmodel.Option{mlmodel.WithMaxIter(20), mlmodel.WithMinSamplesLeaf(2), mlmodel.WithLearningRate(0.3)}

func TestRunSettings_Inputs(t *testing.T) {
	s := RunSettings{Input: " a.parquet, ,s3://b/c ,"}
	assert.Equal(t, []string{"a.parquet", "s3://b/c"}, s.Inputs())
	assert.Empty(t, RunSettings{}.Inputs())
}

func TestLoadTasklet_ParamsOverrideDefaultsAndCapRows(t *testing.T) {
	src := &mockSource{}
	keep := validate.RequiredColumns(validate.Train)
	src.On("ReadPartitions", mock.Anything, []string{"p1.parquet", "p2.csv"}, reader.ReadOptions{KeepColumns: keep}).
		Return(trips(t, 50, true), nil).Once()

	tk := NewLoadTasklet(src, RunSettings{Input: "default.parquet", Seed: 42}, keep)
	rc, step := newRunContext(model.RunParameters{ParamInput: "p1.parquet,p2.csv", ParamMaxRows: "20"})

	exit, err := tk.Execute(context.Background(), rc, step)
	require.NoError(t, err)
	assert.Equal(t, model.ExitStatusCompleted, exit)
	assert.Equal(t, 20, rc.Batch.NumRows())
	assert.Equal(t, 20, rc.Run.NRows)
	assert.Equal(t, 50, step.ReadCount)
	src.AssertExpectations(t)

	// Same seed, same sample.
	rc2, step2 := newRunContext(model.RunParameters{ParamInput: "p1.parquet,p2.csv", ParamMaxRows: "20"})
	src.On("ReadPartitions", mock.Anything, mock.Anything, mock.Anything).Return(trips(t, 50, true), nil).Once()
	_, err = tk.Execute(context.Background(), rc2, step2)
	require.NoError(t, err)
	a, _ := rc.Batch.Column("trip_distance")
	b, _ := rc2.Batch.Column("trip_distance")
	assert.Equal(t, a.Floats, b.Floats)
}

func TestLoadTasklet_CapAboveRowCountKeepsEveryRow(t *testing.T) {
	src := &mockSource{}
	src.On("ReadPartitions", mock.Anything, []string{"in.csv"}, reader.ReadOptions{}).Return(trips(t, 10, false), nil)

	tk := NewLoadTasklet(src, RunSettings{Input: "in.csv", MaxRows: 100}, nil)
	rc, step := newRunContext(nil)
	_, err := tk.Execute(context.Background(), rc, step)
	require.NoError(t, err)
	assert.Equal(t, 10, rc.Batch.NumRows())
}

func TestLoadTasklet_Errors(t *testing.T) {
	src := &mockSource{}
	tk := NewLoadTasklet(src, RunSettings{}, nil)

	rc, step := newRunContext(nil)
	_, err := tk.Execute(context.Background(), rc, step)
	assert.True(t, exception.IsConfigError(err))

	rc, step = newRunContext(model.RunParameters{ParamInput: "a.csv", ParamMaxRows: "many"})
	_, err = tk.Execute(context.Background(), rc, step)
	assert.True(t, exception.IsConfigError(err))

	rc, step = newRunContext(model.RunParameters{ParamInput: "a.csv", ParamMaxRows: "-1"})
	_, err = tk.Execute(context.Background(), rc, step)
	assert.True(t, exception.IsConfigError(err))

	ioErr := exception.NewIOError("reader", "a.csv", assert.AnError)
	src.On("ReadPartitions", mock.Anything, []string{"a.csv"}, reader.ReadOptions{}).Return(nil, ioErr)
	rc, step = newRunContext(model.RunParameters{ParamInput: "a.csv"})
	exit, err := tk.Execute(context.Background(), rc, step)
	assert.True(t, exception.IsIOError(err))
	assert.Equal(t, model.ExitStatusFailed, exit)
	assert.Nil(t, rc.Batch)
}

func TestValidateTasklet_Modes(t *testing.T) {
	rc, step := newRunContext(nil)
	rc.Batch = trips(t, 5, false)

	_, err := NewValidateTasklet(validate.Train).Execute(context.Background(), rc, step)
	require.Error(t, err)
	assert.True(t, exception.IsSchemaError(err))
	assert.Equal(t, []string{features.ColTotalAmount}, exception.MissingColumns(err))

	exit, err := NewValidateTasklet(validate.Infer).Execute(context.Background(), rc, step)
	require.NoError(t, err)
	assert.Equal(t, model.ExitStatusCompleted, exit)
}

func TestValidateTasklet_BeforeLoad(t *testing.T) {
	rc, step := newRunContext(nil)
	_, err := NewValidateTasklet(validate.Infer).Execute(context.Background(), rc, step)
	assert.ErrorIs(t, err, exception.ErrModel)
}

func TestDeriveAndSplit_ScenarioA(t *testing.T) {
	pickup := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	batch, err := table.New(
		table.NewTime(features.ColPickup, []time.Time{pickup}),
		table.NewTime(features.ColDropoff, []time.Time{pickup.Add(10 * time.Minute)}),
		table.NewFloat("passenger_count", []float64{1}),
		table.NewFloat("trip_distance", []float64{2.5}),
		table.NewFloat("rate_code_id", []float64{1}),
		table.NewFloat("payment_type_id", []float64{1}),
		table.NewFloat("pu_location_id", []float64{100}),
		table.NewFloat("do_location_id", []float64{200}),
		table.NewFloat(features.ColTotalAmount, []float64{15}),
	)
	require.NoError(t, err)
	rc, step := newRunContext(nil)
	rc.Batch = batch

	_, err = DeriveTasklet{}.Execute(context.Background(), rc, step)
	require.NoError(t, err)
	_, err = SplitTasklet{}.Execute(context.Background(), rc, step)
	require.NoError(t, err)

	assert.Equal(t, features.FeatureColumns, rc.X.Names())
	assert.Equal(t, features.FeatureColumns, rc.FeatureNames)
	assert.Equal(t, []float64{15}, rc.Y)
	for name, want := range map[string]float64{
		features.ColTripDurationMin: 10,
		features.ColPickupHour:      10,
		features.ColPickupDayOfWeek: 2,
		features.ColPickupDay:       1,
	} {
		c, ok := rc.X.Column(name)
		require.True(t, ok, name)
		assert.Equal(t, want, c.Floats[0], name)
	}
}

func TestSplitTasklet_WithoutTarget(t *testing.T) {
	rc, step := newRunContext(nil)
	rc.Batch = trips(t, 4, false)
	_, err := DeriveTasklet{}.Execute(context.Background(), rc, step)
	require.NoError(t, err)
	_, err = SplitTasklet{}.Execute(context.Background(), rc, step)
	require.NoError(t, err)
	assert.Nil(t, rc.Y)
	assert.Equal(t, 4, rc.X.NumRows())

	_, err = NewFitTasklet(RunSettings{TestSize: 0.2}).Execute(context.Background(), rc, step)
	assert.True(t, exception.IsSchemaError(err))
}

func prepared(t *testing.T, n int, withTarget bool, params model.RunParameters) (*job.RunContext, *model.StepExecution) {
	t.Helper()
	rc, step := newRunContext(params)
	rc.Batch = trips(t, n, withTarget)
	_, err := DeriveTasklet{}.Execute(context.Background(), rc, step)
	require.NoError(t, err)
	_, err = SplitTasklet{}.Execute(context.Background(), rc, step)
	require.NoError(t, err)
	return rc, step
}

func TestFitScorePublish(t *testing.T) {
	rc, step := prepared(t, 300, true, model.RunParameters{ParamTestSize: "0.25"})

	exit, err := NewFitTasklet(RunSettings{TestSize: 0.2, Seed: 42}, smallModel...).Execute(context.Background(), rc, step)
	require.NoError(t, err)
	assert.Equal(t, model.ExitStatusCompleted, exit)
	assert.Len(t, rc.TestIndices, 75)
	assert.Len(t, rc.TrainIndices, 225)
	require.NotNil(t, rc.Pipeline)
	assert.True(t, rc.Pipeline.Fitted())

	_, err = ScoreTasklet{}.Execute(context.Background(), rc, step)
	require.NoError(t, err)
	require.NotNil(t, rc.Run.RMSE)
	assert.Equal(t, rc.RMSE, *rc.Run.RMSE)
	assert.False(t, math.IsNaN(rc.RMSE))
	assert.Less(t, rc.RMSE, 10.0)

	pub := &mockPublisher{}
	pub.On("Publish", mock.Anything, rc.Pipeline, writer.Metrics{
		RMSE:     rc.RMSE,
		NRows:    300,
		Features: features.FeatureColumns,
	}, rc.Run.ID).Return(nil).Once()
	_, err = NewPublishTasklet(pub).Execute(context.Background(), rc, step)
	require.NoError(t, err)
	pub.AssertExpectations(t)
}

func TestFitTasklet_SplitIsSeeded(t *testing.T) {
	rc1, step1 := prepared(t, 100, true, nil)
	rc2, step2 := prepared(t, 100, true, nil)
	fit := NewFitTasklet(RunSettings{TestSize: 0.2, Seed: 3}, smallModel...)

	_, err := fit.Execute(context.Background(), rc1, step1)
	require.NoError(t, err)
	_, err = fit.Execute(context.Background(), rc2, step2)
	require.NoError(t, err)
	assert.Equal(t, rc1.TestIndices, rc2.TestIndices)
}

func TestFitTasklet_InvalidTestSize(t *testing.T) {
	rc, step := prepared(t, 20, true, model.RunParameters{ParamTestSize: "1.5"})
	_, err := NewFitTasklet(RunSettings{TestSize: 0.2}, smallModel...).Execute(context.Background(), rc, step)
	assert.True(t, exception.IsConfigError(err))
	assert.Nil(t, rc.Pipeline)
}

func TestPublishTasklet_FailureLeavesRunUnscored(t *testing.T) {
	rc, step := newRunContext(nil)
	_, err := NewPublishTasklet(&mockPublisher{}).Execute(context.Background(), rc, step)
	assert.ErrorIs(t, err, exception.ErrModel)
}

func fittedPipeline(t *testing.T) *mlmodel.Pipeline {
	t.Helper()
	rc, _ := prepared(t, 200, true, nil)
	p, err := mlmodel.BuildModel(features.CategoricalColumns, features.NumericColumns(), smallModel...)
	require.NoError(t, err)
	require.NoError(t, p.Fit(rc.X, rc.Y))
	return p
}

func TestPredictAndWrite(t *testing.T) {
	p := fittedPipeline(t)
	rc, step := prepared(t, 30, false, model.RunParameters{ParamOutput: "s3://out/preds.parquet"})

	loader := &mockLoader{}
	loader.On("LoadModel", mock.Anything).Return(p, nil)
	_, err := NewPredictTasklet(loader).Execute(context.Background(), rc, step)
	require.NoError(t, err)
	require.Len(t, rc.Predictions, 30)

	want, err := p.Predict(rc.X)
	require.NoError(t, err)
	assert.Equal(t, want, rc.Predictions)

	sink := &mockSink{}
	sink.On("Write", mock.Anything, "s3://out/preds.parquet", rc.Predictions).Return(nil).Once()
	_, err = NewWritePredictionsTasklet(sink, RunSettings{Output: "artifacts/predictions.csv"}).Execute(context.Background(), rc, step)
	require.NoError(t, err)
	assert.Equal(t, 30, step.WriteCount)
	sink.AssertExpectations(t)
}

func TestPredictTasklet_MissingArtifact(t *testing.T) {
	rc, step := prepared(t, 5, false, nil)
	loader := &mockLoader{}
	loader.On("LoadModel", mock.Anything).Return(nil, exception.NewIOError("writer", "artifacts/model.gob", assert.AnError))

	_, err := NewPredictTasklet(loader).Execute(context.Background(), rc, step)
	assert.True(t, exception.IsIOError(err))
	assert.Nil(t, rc.Predictions)
}

func TestWritePredictionsTasklet_NoOutput(t *testing.T) {
	rc, step := newRunContext(nil)
	rc.Predictions = []float64{1}
	_, err := NewWritePredictionsTasklet(&mockSink{}, RunSettings{}).Execute(context.Background(), rc, step)
	assert.True(t, exception.IsConfigError(err))
}
