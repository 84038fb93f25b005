package writer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/adapter/storage"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/adapter/storage/local"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/component/reader"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/config"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/model"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/support/util/exception"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/table"
)

func newResolver() *storage.Resolver {
	return storage.NewResolver(local.NewLocalProvider(config.NewConfig()))
}

func fittedPipeline(t *testing.T, offset float64) (*model.Pipeline, *table.Table) {
	t.Helper()
	n := 60
	dist := make([]float64, n)
	code := make([]float64, n)
	y := make([]float64, n)
	for i := range dist {
		dist[i] = float64(i % 12)
		code[i] = float64(1 + i%2)
		y[i] = offset + 2*dist[i]
	}
	x, err := table.New(table.NewFloat("trip_distance", dist), table.NewFloat("rate_code_id", code))
	require.NoError(t, err)
	p, err := model.BuildModel([]string{"rate_code_id"}, []string{"trip_distance"}, model.WithMaxIter(10))
	require.NoError(t, err)
	require.NoError(t, p.Fit(x, y))
	return p, x
}

func newStore(t *testing.T, dir string) *ArtifactStore {
	t.Helper()
	s, err := NewArtifactStore(newResolver(), config.PathsConfig{ArtifactsDir: dir, ModelFile: "model.gob", MetricsFile: "metrics.json"})
	require.NoError(t, err)
	return s
}

func TestArtifactStore_PublishAndLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "artifacts")
	store := newStore(t, dir)
	p, x := fittedPipeline(t, 3)

	m := Metrics{RMSE: 1.25, NRows: 60, Features: []string{"trip_distance", "rate_code_id"}}
	require.NoError(t, store.Publish(context.Background(), p, m, "run-1"))

	loaded, err := store.LoadModel(context.Background())
	require.NoError(t, err)
	want, err := p.Predict(x)
	require.NoError(t, err)
	got, err := loaded.Predict(x)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	gotMetrics, err := store.LoadMetrics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, m, *gotMetrics)

	doc, err := os.ReadFile(filepath.Join(dir, "metrics.json"))
	require.NoError(t, err)
	assert.Contains(t, string(doc), "\n  \"rmse\": 1.25,")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestArtifactStore_FailedPublishKeepsPreviousPair(t *testing.T) {
	dir := t.TempDir()
	store := newStore(t, dir)
	first, x := fittedPipeline(t, 3)
	require.NoError(t, store.Publish(context.Background(), first, Metrics{RMSE: 1}, "run-1"))

	// A directory squatting on the metrics temporary makes its upload fail.
	require.NoError(t, os.Mkdir(filepath.Join(dir, "metrics.json.tmp-run-2"), 0755))
	second, _ := fittedPipeline(t, 500)
	err := store.Publish(context.Background(), second, Metrics{RMSE: 2}, "run-2")
	require.Error(t, err)
	assert.True(t, exception.IsIOError(err))

	loaded, err := store.LoadModel(context.Background())
	require.NoError(t, err)
	want, _ := first.Predict(x)
	got, _ := loaded.Predict(x)
	assert.Equal(t, want, got)

	m, err := store.LoadMetrics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1.0, m.RMSE)

	_, err = os.Stat(filepath.Join(dir, "model.gob.tmp-run-2"))
	assert.True(t, os.IsNotExist(err))
}

// blockMetrics turns the published metrics path into a non-empty directory so
// that moving the metrics temporary into place fails after the model moved.
func blockMetrics(t *testing.T, dir string) {
	t.Helper()
	path := filepath.Join(dir, "metrics.json")
	require.NoError(t, os.RemoveAll(path))
	require.NoError(t, os.MkdirAll(filepath.Join(path, "occupied"), 0755))
}

func TestArtifactStore_FailedMetricsMoveRestoresPreviousModel(t *testing.T) {
	dir := t.TempDir()
	store := newStore(t, dir)
	first, x := fittedPipeline(t, 3)
	require.NoError(t, store.Publish(context.Background(), first, Metrics{RMSE: 1}, "run-1"))

	blockMetrics(t, dir)
	second, _ := fittedPipeline(t, 500)
	err := store.Publish(context.Background(), second, Metrics{RMSE: 2}, "run-2")
	require.Error(t, err)
	assert.True(t, exception.IsIOError(err))

	loaded, err := store.LoadModel(context.Background())
	require.NoError(t, err)
	want, _ := first.Predict(x)
	got, _ := loaded.Predict(x)
	assert.Equal(t, want, got)

	for _, leftover := range []string{"model.gob.bak-run-2", "model.gob.tmp-run-2", "metrics.json.tmp-run-2"} {
		_, err = os.Stat(filepath.Join(dir, leftover))
		assert.True(t, os.IsNotExist(err), leftover)
	}
}

func TestArtifactStore_FailedFirstPublishLeavesNoModel(t *testing.T) {
	dir := t.TempDir()
	store := newStore(t, dir)
	blockMetrics(t, dir)

	p, _ := fittedPipeline(t, 3)
	require.Error(t, store.Publish(context.Background(), p, Metrics{RMSE: 1}, "run-1"))

	_, err := os.Stat(filepath.Join(dir, "model.gob"))
	assert.True(t, os.IsNotExist(err))
}

func TestArtifactStore_SuccessfulPublishRemovesBackup(t *testing.T) {
	dir := t.TempDir()
	store := newStore(t, dir)
	first, _ := fittedPipeline(t, 3)
	second, x := fittedPipeline(t, 500)
	require.NoError(t, store.Publish(context.Background(), first, Metrics{RMSE: 1}, "run-1"))
	require.NoError(t, store.Publish(context.Background(), second, Metrics{RMSE: 2}, "run-2"))

	loaded, err := store.LoadModel(context.Background())
	require.NoError(t, err)
	want, _ := second.Predict(x)
	got, _ := loaded.Predict(x)
	assert.Equal(t, want, got)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestArtifactStore_Errors(t *testing.T) {
	_, err := NewArtifactStore(newResolver(), config.PathsConfig{ArtifactsDir: "a", ModelFile: "x", MetricsFile: "x"})
	assert.True(t, exception.IsConfigError(err))

	store := newStore(t, t.TempDir())
	_, err = store.LoadModel(context.Background())
	assert.True(t, exception.IsIOError(err))

	unfitted, err := model.BuildModel([]string{"a"}, []string{"b"})
	require.NoError(t, err)
	assert.Error(t, store.Publish(context.Background(), unfitted, Metrics{}, ""))
}

func TestPredictionWriter_CSV(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out", "predictions.csv")
	w := NewPredictionWriter(newResolver(), "SNAPPY")
	require.NoError(t, w.Write(context.Background(), out, []float64{12.5, 7, 31.25}))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "prediction_total_amount\n12.5\n7\n31.25\n", string(data))
}

func TestPredictionWriter_ParquetRoundTrip(t *testing.T) {
	out := filepath.Join(t.TempDir(), "predictions.parquet")
	w := NewPredictionWriter(newResolver(), "GZIP")
	require.NoError(t, w.Write(context.Background(), out, []float64{1.5, 2.5}))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	tbl, err := reader.DecodeParquet(data)
	require.NoError(t, err)
	assert.Equal(t, []string{PredictionColumn}, tbl.Names())
	col, _ := tbl.Column(PredictionColumn)
	assert.Equal(t, []float64{1.5, 2.5}, col.Floats)
}

func TestPredictionWriter_ParquetSizeStaysProportional(t *testing.T) {
	w := NewPredictionWriter(newResolver(), "NONE")
	n := 50000
	predictions := make([]float64, n)
	for i := range predictions {
		predictions[i] = float64(i) * 0.37
	}

	doc, err := w.encodeParquet(predictions)
	require.NoError(t, err)
	// One float64 per row plus page and footer overhead.
	assert.Less(t, len(doc)/n, 16)

	tbl, err := reader.DecodeParquet(doc)
	require.NoError(t, err)
	col, _ := tbl.Column(PredictionColumn)
	assert.Equal(t, predictions, col.Floats)
}

func TestPredictionWriter_RejectsUnknownCodec(t *testing.T) {
	w := NewPredictionWriter(newResolver(), "LZ5")
	err := w.Write(context.Background(), filepath.Join(t.TempDir(), "p.parquet"), []float64{1})
	assert.True(t, exception.IsIOError(err))
}
