package table

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable(t *testing.T) *Table {
	t.Helper()
	tb, err := New(
		NewFloat("trip_distance", []float64{1.5, 0, math.NaN()}),
		NewTime("tpep_pickup_datetime", []time.Time{
			time.Date(2025, 1, 6, 8, 0, 0, 0, time.UTC),
			{},
			time.Date(2025, 1, 7, 9, 30, 0, 0, time.UTC),
		}),
		NewString("store_and_fwd_flag", []string{"N", "", "Y"}),
	)
	require.NoError(t, err)
	return tb
}

func TestNew_RejectsMismatchedLengthsAndDuplicates(t *testing.T) {
	_, err := New(NewFloat("a", []float64{1}), NewFloat("b", []float64{1, 2}))
	assert.Error(t, err)

	_, err = New(NewFloat("a", []float64{1}), NewFloat("a", []float64{2}))
	assert.Error(t, err)
}

func TestColumn_IsNullFollowsTypeConvention(t *testing.T) {
	tb := sampleTable(t)

	dist, _ := tb.Column("trip_distance")
	assert.Equal(t, 1, dist.NullCount())
	assert.True(t, dist.IsNull(2))

	pickup, _ := tb.Column("tpep_pickup_datetime")
	assert.True(t, pickup.IsNull(1))

	flag, _ := tb.Column("store_and_fwd_flag")
	assert.True(t, flag.IsNull(1))
	assert.False(t, flag.IsNull(0))
}

func TestSelect_OrderAndMissing(t *testing.T) {
	tb := sampleTable(t)

	sel, err := tb.Select("store_and_fwd_flag", "trip_distance")
	require.NoError(t, err)
	assert.Equal(t, []string{"store_and_fwd_flag", "trip_distance"}, sel.Names())
	assert.Equal(t, 3, sel.NumRows())

	_, err = tb.Select("trip_distance", "total_amount", "fare_amount")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "total_amount, fare_amount")
	assert.Equal(t, []string{"total_amount"}, tb.Missing("trip_distance", "total_amount"))
}

func TestWith_DoesNotMutateReceiver(t *testing.T) {
	tb := sampleTable(t)

	out, err := tb.With(
		NewFloat("pickup_hour", []float64{8, math.NaN(), 9}),
		NewFloat("trip_distance", []float64{9, 9, 9}),
	)
	require.NoError(t, err)

	assert.Equal(t, 3, tb.NumCols())
	assert.False(t, tb.Has("pickup_hour"))
	orig, _ := tb.Column("trip_distance")
	assert.Equal(t, 1.5, orig.Floats[0])

	assert.Equal(t, []string{"trip_distance", "tpep_pickup_datetime", "store_and_fwd_flag", "pickup_hour"}, out.Names())
	repl, _ := out.Column("trip_distance")
	assert.Equal(t, 9.0, repl.Floats[0])

	_, err = tb.With(NewFloat("short", []float64{1}))
	assert.Error(t, err)
}

func TestRename(t *testing.T) {
	tb, err := New(NewFloat("PULocationID", []float64{1}), NewFloat("total_amount", []float64{2}))
	require.NoError(t, err)

	out, err := tb.Rename(map[string]string{"PULocationID": "pu_location_id", "Airport_fee": "airport_fee"})
	require.NoError(t, err)
	assert.Equal(t, []string{"pu_location_id", "total_amount"}, out.Names())
	assert.Equal(t, []string{"PULocationID", "total_amount"}, tb.Names())

	_, err = tb.Rename(map[string]string{"PULocationID": "total_amount"})
	assert.Error(t, err)
}

func TestTakeAndHead(t *testing.T) {
	tb := sampleTable(t)

	out := tb.Take([]int{2, 0})
	assert.Equal(t, 2, out.NumRows())
	flag, _ := out.Column("store_and_fwd_flag")
	assert.Equal(t, []string{"Y", "N"}, flag.Strings)

	assert.Equal(t, 3, tb.Head(10).NumRows())
	assert.Equal(t, 1, tb.Head(1).NumRows())
}

func TestConcat_UnionOfColumnsFillsMissing(t *testing.T) {
	a, err := New(NewFloat("trip_distance", []float64{1, 2}), NewFloat("airport_fee", []float64{0, 1.75}))
	require.NoError(t, err)
	b, err := New(NewFloat("trip_distance", []float64{3}), NewString("store_and_fwd_flag", []string{"N"}))
	require.NoError(t, err)

	out, err := Concat(a, b)
	require.NoError(t, err)
	assert.Equal(t, 3, out.NumRows())
	assert.Equal(t, []string{"trip_distance", "airport_fee", "store_and_fwd_flag"}, out.Names())

	fee, _ := out.Column("airport_fee")
	assert.True(t, fee.IsNull(2))
	flag, _ := out.Column("store_and_fwd_flag")
	assert.Equal(t, []string{"", "", "N"}, flag.Strings)

	c, err := New(NewString("trip_distance", []string{"x"}))
	require.NoError(t, err)
	_, err = Concat(a, c)
	assert.Error(t, err)
}

func TestAsFloatAndAsTime(t *testing.T) {
	c := NewString("passenger_count", []string{"1", "", " 2.5 "})
	v, err := c.AsFloat()
	require.NoError(t, err)
	assert.Equal(t, 1.0, v[0])
	assert.True(t, math.IsNaN(v[1]))
	assert.Equal(t, 2.5, v[2])

	_, err = NewString("x", []string{"abc"}).AsFloat()
	assert.Error(t, err)

	ts, err := NewString("tpep_pickup_datetime", []string{"2025-01-06 08:15:00", "", "2025-01-06T08:15:00Z"}).AsTime()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 6, 8, 15, 0, 0, time.UTC), ts[0])
	assert.True(t, ts[1].IsZero())
	assert.True(t, ts[2].Equal(ts[0]))

	_, err = NewString("tpep_pickup_datetime", []string{"yesterday"}).AsTime()
	assert.Error(t, err)

	_, err = NewFloat("tpep_pickup_datetime", []float64{1}).AsTime()
	assert.Error(t, err)
}
