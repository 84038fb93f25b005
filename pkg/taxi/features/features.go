// Package features derives the time features of a trip batch and splits it into
// the fixed-order model inputs and the optional target.
package features

import (
	"math"
	"time"

	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/support/util/exception"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/table"
)

const moduleName = "features"

// Derived column names.
const (
	ColTripDurationMin = "trip_duration_min"
	ColPickupHour      = "pickup_hour"
	ColPickupDayOfWeek = "pickup_dayofweek"
	ColPickupDay       = "pickup_day"

	ColPickup      = "tpep_pickup_datetime"
	ColDropoff     = "tpep_dropoff_datetime"
	ColTotalAmount = "total_amount"
)

// FeatureColumns is the model input contract. Training and inference must use
// exactly this set in exactly this order.
var FeatureColumns = []string{
	"passenger_count",
	"trip_distance",
	ColTripDurationMin,
	ColPickupHour,
	ColPickupDayOfWeek,
	ColPickupDay,
	"rate_code_id",
	"payment_type_id",
	"pu_location_id",
	"do_location_id",
}

// CategoricalColumns are encoded as categories rather than treated as magnitudes.
var CategoricalColumns = []string{
	"rate_code_id",
	"payment_type_id",
	"pu_location_id",
	"do_location_id",
}

// NumericColumns returns the feature columns that are not categorical, in feature order.
func NumericColumns() []string {
	cat := make(map[string]struct{}, len(CategoricalColumns))
	for _, c := range CategoricalColumns {
		cat[c] = struct{}{}
	}
	var out []string
	for _, c := range FeatureColumns {
		if _, ok := cat[c]; !ok {
			out = append(out, c)
		}
	}
	return out
}

// AddTimeFeatures returns a copy of t with both timestamp columns coerced to
// times and four derived columns added:
//   - trip_duration_min: dropoff minus pickup in whole seconds, divided by 60, floored at 0
//   - pickup_hour:       0..23
//   - pickup_dayofweek:  Monday = 0 .. Sunday = 6
//   - pickup_day:        day of month, 1..31
//
// Rows with a missing timestamp get missing derived values. Derived columns that
// already exist are recomputed from the timestamps. t is not modified.
func AddTimeFeatures(t *table.Table) (*table.Table, error) {
	pickup, err := timeColumn(t, ColPickup)
	if err != nil {
		return nil, err
	}
	dropoff, err := timeColumn(t, ColDropoff)
	if err != nil {
		return nil, err
	}

	n := t.NumRows()
	duration := make([]float64, n)
	hour := make([]float64, n)
	dow := make([]float64, n)
	day := make([]float64, n)

	for i := 0; i < n; i++ {
		p, d := pickup[i], dropoff[i]
		if p.IsZero() {
			hour[i], dow[i], day[i] = math.NaN(), math.NaN(), math.NaN()
		} else {
			hour[i] = float64(p.Hour())
			dow[i] = float64(mondayFirst(p.Weekday()))
			day[i] = float64(p.Day())
		}
		if p.IsZero() || d.IsZero() {
			duration[i] = math.NaN()
			continue
		}
		seconds := d.Sub(p) / time.Second
		duration[i] = math.Max(float64(seconds)/60.0, 0)
	}

	return t.With(
		table.NewTime(ColPickup, pickup),
		table.NewTime(ColDropoff, dropoff),
		table.NewFloat(ColTripDurationMin, duration),
		table.NewFloat(ColPickupHour, hour),
		table.NewFloat(ColPickupDayOfWeek, dow),
		table.NewFloat(ColPickupDay, day),
	)
}

// SplitXY selects the feature columns, coerced to floats, in FeatureColumns order.
// y is a copy of total_amount when the column is present and nil otherwise.
func SplitXY(t *table.Table) (x *table.Table, y []float64, featureCols []string, err error) {
	if missing := t.Missing(FeatureColumns...); len(missing) > 0 {
		return nil, nil, nil, exception.NewSchemaError(moduleName, missing)
	}

	cols := make([]*table.Column, len(FeatureColumns))
	for i, name := range FeatureColumns {
		c, _ := t.Column(name)
		v, err := c.AsFloat()
		if err != nil {
			return nil, nil, nil, exception.NewParseError(moduleName, name, err)
		}
		cols[i] = table.NewFloat(name, v)
	}
	x, err = table.New(cols...)
	if err != nil {
		return nil, nil, nil, exception.New(exception.KindSchema, moduleName, "cannot assemble feature table", err)
	}

	if c, ok := t.Column(ColTotalAmount); ok {
		v, err := c.AsFloat()
		if err != nil {
			return nil, nil, nil, exception.NewParseError(moduleName, ColTotalAmount, err)
		}
		y = append([]float64(nil), v...)
	}

	return x, y, append([]string(nil), FeatureColumns...), nil
}

func timeColumn(t *table.Table, name string) ([]time.Time, error) {
	c, ok := t.Column(name)
	if !ok {
		return nil, exception.NewSchemaError(moduleName, []string{name})
	}
	v, err := c.AsTime()
	if err != nil {
		return nil, exception.NewParseError(moduleName, name, err)
	}
	return v, nil
}

// mondayFirst converts Go's Sunday-first weekday numbering.
func mondayFirst(d time.Weekday) int {
	return (int(d) + 6) % 7
}
