package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/support/util/exception"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/table"
)

func mustTable(t *testing.T, cols ...*table.Column) *table.Table {
	t.Helper()
	tbl, err := table.New(cols...)
	require.NoError(t, err)
	return tbl
}

func TestNewPreprocessor_RejectsOverlapAndEmpty(t *testing.T) {
	_, err := NewPreprocessor(nil, nil)
	assert.True(t, exception.IsConfigError(err))

	_, err = NewPreprocessor([]string{"a", "b"}, []string{"b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "column b")
}

func TestPreprocessor_ImputesWithFitTimeStatistics(t *testing.T) {
	nan := math.NaN()
	train := mustTable(t,
		table.NewFloat("num", []float64{1, 4, nan, 10, 2}),
		table.NewFloat("cat", []float64{3, 1, 3, nan, 1}),
	)
	p, err := NewPreprocessor([]string{"cat"}, []string{"num"})
	require.NoError(t, err)
	require.NoError(t, p.Fit(train))

	assert.Equal(t, []float64{3}, p.Medians) // (2+4)/2
	assert.Equal(t, []float64{1}, p.Modes)   // tie between 1 and 3 goes to the smaller
	assert.Equal(t, [][]float64{{1, 3}}, p.Categories)

	m, err := p.Transform(train)
	require.NoError(t, err)
	require.Len(t, m, 2)
	assert.Equal(t, []float64{1, 4, 3, 10, 2}, m[0])
	assert.Equal(t, []float64{1, 0, 1, 0, 0}, m[1])
}

func TestPreprocessor_UnseenCategoryEncodesAsSentinel(t *testing.T) {
	p, err := NewPreprocessor([]string{"cat"}, nil)
	require.NoError(t, err)
	require.NoError(t, p.Fit(mustTable(t, table.NewFloat("cat", []float64{5, 7, 9}))))

	m, err := p.Transform(mustTable(t, table.NewFloat("cat", []float64{7, 42, 5})))
	require.NoError(t, err)
	assert.Equal(t, []float64{1, UnknownCategory, 0}, m[0])
}

func TestPreprocessor_TransformDoesNotRefit(t *testing.T) {
	p, err := NewPreprocessor(nil, []string{"num"})
	require.NoError(t, err)
	require.NoError(t, p.Fit(mustTable(t, table.NewFloat("num", []float64{1, 2, 3}))))

	m, err := p.Transform(mustTable(t, table.NewFloat("num", []float64{math.NaN(), 100, 200})))
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 100, 200}, m[0])
}

func TestPreprocessor_Errors(t *testing.T) {
	p, err := NewPreprocessor([]string{"cat"}, []string{"num"})
	require.NoError(t, err)

	_, err = p.Transform(mustTable(t, table.NewFloat("num", []float64{1})))
	assert.ErrorIs(t, err, exception.ErrModel)

	err = p.Fit(mustTable(t, table.NewFloat("num", []float64{1})))
	assert.True(t, exception.IsSchemaError(err))
	assert.Equal(t, []string{"cat"}, exception.MissingColumns(err))
}

func TestMedianAndMode_AllMissing(t *testing.T) {
	assert.Equal(t, 0.0, median([]float64{math.NaN(), math.NaN()}))
	assert.Equal(t, 0.0, mostFrequent(nil))
	assert.Equal(t, 2.5, median([]float64{4, 1, 3, 2}))
}
