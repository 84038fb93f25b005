package model

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/support/util/exception"
)

// RMSE is the root of the mean squared difference between yTrue and yPred.
// It is undefined for empty or unequal inputs.
func RMSE(yTrue, yPred []float64) (float64, error) {
	if len(yTrue) == 0 {
		return 0, exception.Newf(exception.KindDataQuality, moduleName, "rmse is undefined on an empty set")
	}
	if len(yTrue) != len(yPred) {
		return 0, exception.Newf(exception.KindModel, moduleName, "rmse inputs differ in length: %d vs %d", len(yTrue), len(yPred))
	}
	return floats.Distance(yTrue, yPred, 2) / math.Sqrt(float64(len(yTrue))), nil
}
