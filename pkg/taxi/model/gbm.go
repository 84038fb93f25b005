package model

import (
	"gonum.org/v1/gonum/stat"

	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/support/util/exception"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/support/util/logger"
)

// Regressor is a histogram gradient boosting regressor with squared-error loss.
type Regressor struct {
	Params    Params
	Baseline  float64
	Trees     []Tree
	NFeatures int
	// TrainScores and ValidationScores hold the negative half squared error after
	// each iteration, starting with the baseline. ValidationScores is empty when
	// early stopping was off.
	TrainScores      []float64
	ValidationScores []float64
}

// NewRegressor returns an unfitted regressor.
func NewRegressor(params Params) *Regressor {
	return &Regressor{Params: params}
}

// Fitted reports whether Fit has completed.
func (r *Regressor) Fitted() bool { return r.NFeatures > 0 }

// NIter returns the number of boosting iterations actually run.
func (r *Regressor) NIter() int { return len(r.Trees) }

// Fit trains on the column-major matrix x and target y, discarding earlier state.
func (r *Regressor) Fit(x [][]float64, y []float64) error {
	if err := r.Params.validate(); err != nil {
		return err
	}
	if len(x) == 0 {
		return exception.Newf(exception.KindModel, moduleName, "no feature columns")
	}
	n := len(y)
	if n == 0 {
		return exception.Newf(exception.KindDataQuality, moduleName, "cannot fit on an empty training set")
	}
	for f := range x {
		if len(x[f]) != n {
			return exception.Newf(exception.KindModel, moduleName, "feature %d has %d rows, target has %d", f, len(x[f]), n)
		}
	}

	r.Trees = nil
	r.TrainScores = nil
	r.ValidationScores = nil
	r.NFeatures = 0

	trainRows, valRows := allRows(n), []int(nil)
	early := r.Params.earlyStopping(n)
	if early {
		var err error
		trainRows, valRows, err = TrainTestSplit(n, r.Params.ValidationFraction, r.Params.RandomState)
		if err != nil {
			early = false
			trainRows, valRows = allRows(n), nil
		}
	}

	xTrain, yTrain := gatherRows(x, y, trainRows)
	mapper := fitBinMapper(xTrain, r.Params.MaxBins, r.Params.RandomState)
	binnedTrain := mapper.transform(xTrain)

	var binnedVal [][]uint8
	var yVal []float64
	if early {
		var xVal [][]float64
		xVal, yVal = gatherRows(x, y, valRows)
		binnedVal = mapper.transform(xVal)
	}

	nBins := make([]int, len(x))
	for f := range nBins {
		nBins[f] = mapper.nBins(f)
	}

	r.Baseline = stat.Mean(yTrain, nil)
	rawTrain := filled(len(yTrain), r.Baseline)
	var rawVal []float64
	if early {
		rawVal = filled(len(yVal), r.Baseline)
		r.ValidationScores = append(r.ValidationScores, negHalfSquaredError(yVal, rawVal))
	}
	r.TrainScores = append(r.TrainScores, negHalfSquaredError(yTrain, rawTrain))

	gradients := make([]float64, len(yTrain))
	indices := make([]int, len(yTrain))

	for iter := 0; iter < r.Params.MaxIter; iter++ {
		for i := range gradients {
			gradients[i] = rawTrain[i] - yTrain[i]
			indices[i] = i
		}
		g := &grower{
			binned:     binnedTrain,
			thresholds: mapper.Thresholds,
			nBins:      nBins,
			gradients:  gradients,
			indices:    indices,
			params:     r.Params,
			shrinkage:  r.Params.LearningRate,
		}
		tree, leaves := g.grow()
		r.Trees = append(r.Trees, *tree)

		for _, leaf := range leaves {
			for _, idx := range indices[leaf.start:leaf.end] {
				rawTrain[idx] += leaf.value
			}
		}
		r.TrainScores = append(r.TrainScores, negHalfSquaredError(yTrain, rawTrain))

		if early {
			for i := range rawVal {
				rawVal[i] += tree.predictBinned(binnedVal, i)
			}
			r.ValidationScores = append(r.ValidationScores, negHalfSquaredError(yVal, rawVal))
			if r.shouldStop(r.ValidationScores) {
				logger.Debugf("Early stopping at iteration %d.", iter+1)
				break
			}
		}

		if tree.LeafCount() == 1 {
			logger.Debugf("Boosting stopped at iteration %d: no admissible split.", iter+1)
			break
		}
	}

	r.NFeatures = len(x)
	logger.Debugf("Regressor fitted: %d trees, %d training rows, %d validation rows.", len(r.Trees), len(yTrain), len(yVal))
	return nil
}

// shouldStop is true when none of the last NIterNoChange scores improved on the
// score NIterNoChange+1 iterations ago by more than Tol.
func (r *Regressor) shouldStop(scores []float64) bool {
	k := r.Params.NIterNoChange
	if len(scores) <= k {
		return false
	}
	reference := scores[len(scores)-k-1]
	for _, s := range scores[len(scores)-k:] {
		if s > reference+r.Params.Tol {
			return false
		}
	}
	return true
}

// Predict returns one prediction per row of the column-major matrix x.
func (r *Regressor) Predict(x [][]float64) ([]float64, error) {
	if !r.Fitted() {
		return nil, exception.Newf(exception.KindModel, moduleName, "regressor used before fit")
	}
	if len(x) != r.NFeatures {
		return nil, exception.Newf(exception.KindModel, moduleName, "expected %d features, got %d", r.NFeatures, len(x))
	}
	n := len(x[0])
	out := filled(n, r.Baseline)
	for t := range r.Trees {
		tree := &r.Trees[t]
		for i := 0; i < n; i++ {
			out[i] += tree.predictRaw(x, i)
		}
	}
	return out, nil
}

func negHalfSquaredError(y, raw []float64) float64 {
	if len(y) == 0 {
		return 0
	}
	s := 0.0
	for i := range y {
		d := raw[i] - y[i]
		s += d * d
	}
	return -0.5 * s / float64(len(y))
}

func allRows(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func filled(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func gatherRows(x [][]float64, y []float64, rows []int) ([][]float64, []float64) {
	xs := make([][]float64, len(x))
	for f, col := range x {
		c := make([]float64, len(rows))
		for i, r := range rows {
			c[i] = col[r]
		}
		xs[f] = c
	}
	ys := make([]float64, len(rows))
	for i, r := range rows {
		ys[i] = y[r]
	}
	return xs, ys
}
