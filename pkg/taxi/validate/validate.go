// Package validate checks that a trip batch has the columns and values the
// training and prediction drivers rely on.
package validate

import (
	"fmt"
	"math"

	"github.com/hashicorp/go-multierror"

	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/support/util/exception"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/table"
)

const moduleName = "validate"

// Mode selects which column set and value checks apply.
type Mode int

const (
	// Train requires the target column and checks it for missing values.
	Train Mode = iota
	// Infer requires only the feature inputs.
	Infer
)

func (m Mode) String() string {
	if m == Train {
		return "train"
	}
	return "infer"
}

// Column names checked here.
const (
	ColPickup      = "tpep_pickup_datetime"
	ColDropoff     = "tpep_dropoff_datetime"
	ColPassengers  = "passenger_count"
	ColDistance    = "trip_distance"
	ColRateCode    = "rate_code_id"
	ColPaymentType = "payment_type_id"
	ColPULocation  = "pu_location_id"
	ColDOLocation  = "do_location_id"
	ColTotalAmount = "total_amount"
)

// InferRequiredColumns are the columns every batch must carry.
var InferRequiredColumns = []string{
	ColPickup,
	ColDropoff,
	ColPassengers,
	ColDistance,
	ColRateCode,
	ColPaymentType,
	ColPULocation,
	ColDOLocation,
}

// TrainRequiredColumns adds the regression target to InferRequiredColumns.
var TrainRequiredColumns = append(append([]string(nil), InferRequiredColumns...), ColTotalAmount)

// RequiredColumns returns the column set of mode. The returned slice is a copy.
func RequiredColumns(mode Mode) []string {
	if mode == Train {
		return append([]string(nil), TrainRequiredColumns...)
	}
	return append([]string(nil), InferRequiredColumns...)
}

// ValidateTrain validates a training batch.
func ValidateTrain(t *table.Table) error { return Validate(t, Train) }

// ValidateInfer validates a prediction batch.
func ValidateInfer(t *table.Table) error { return Validate(t, Infer) }

// Validate checks t without modifying it.
//
// A batch missing required columns fails with a single schema error naming every
// missing column in required order; value checks are not attempted. Otherwise
// every violated value invariant is reported, aggregated:
//   - train: total_amount has no missing values
//   - both:  trip_distance is never negative
func Validate(t *table.Table, mode Mode) error {
	if missing := t.Missing(RequiredColumns(mode)...); len(missing) > 0 {
		return exception.NewSchemaError(moduleName, missing)
	}

	var errs *multierror.Error

	if mode == Train {
		target, err := floats(t, ColTotalAmount)
		if err != nil {
			return err
		}
		if n := countNaN(target); n > 0 {
			errs = multierror.Append(errs, exception.NewDataQualityError(moduleName, ColTotalAmount,
				rows(n)+" a missing total_amount"))
		}
	}

	distance, err := floats(t, ColDistance)
	if err != nil {
		return err
	}
	if n := countNegative(distance); n > 0 {
		errs = multierror.Append(errs, exception.NewDataQualityError(moduleName, ColDistance,
			rows(n)+" a negative trip_distance"))
	}

	return errs.ErrorOrNil()
}

func floats(t *table.Table, name string) ([]float64, error) {
	c, _ := t.Column(name)
	v, err := c.AsFloat()
	if err != nil {
		return nil, exception.NewParseError(moduleName, name, err)
	}
	return v, nil
}

func countNaN(v []float64) int {
	n := 0
	for _, x := range v {
		if math.IsNaN(x) {
			n++
		}
	}
	return n
}

// countNegative ignores missing values.
func countNegative(v []float64) int {
	n := 0
	for _, x := range v {
		if x < 0 {
			n++
		}
	}
	return n
}

func rows(n int) string {
	if n == 1 {
		return "1 row has"
	}
	return fmt.Sprintf("%d rows have", n)
}
