// Package model implements the fare regression pipeline: median and
// most-frequent imputation, ordinal encoding of categorical columns, and a
// histogram gradient boosting regressor with least-squares loss.
package model

import (
	"strings"

	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/support/util/exception"
)

const moduleName = "model"

// Params are the regressor hyperparameters.
type Params struct {
	MaxDepth           int     // Edges from the root to the deepest leaf. 0 means unlimited.
	LearningRate       float64 // Shrinkage applied to every leaf value.
	MaxIter            int     // Maximum number of boosting iterations (one tree each).
	MaxLeafNodes       int     // Leaves per tree. 0 means unlimited.
	MinSamplesLeaf     int     // Smallest admissible leaf.
	MaxBins            int     // Histogram bins per feature, at most 255.
	L2Regularization   float64 // Added to the hessian sum of every node.
	EarlyStopping      string  // "auto" (enabled above 10 000 samples), "on" or "off".
	ValidationFraction float64 // Share of training rows held out when early stopping.
	NIterNoChange      int     // Iterations without improvement before stopping.
	Tol                float64 // Minimum improvement of the validation loss.
	RandomState        int64   // Seed for binning subsamples and the validation split.
}

// earlyStoppingAutoThreshold is the sample count above which "auto" enables early stopping.
const earlyStoppingAutoThreshold = 10000

// binningSubsample bounds the rows used to compute bin thresholds.
const binningSubsample = 200000

// DefaultParams returns max_depth 8, learning_rate 0.05, max_iter 400 and seed 42,
// with the remaining values at their conventional defaults.
func DefaultParams() Params {
	return Params{
		MaxDepth:           8,
		LearningRate:       0.05,
		MaxIter:            400,
		MaxLeafNodes:       31,
		MinSamplesLeaf:     20,
		MaxBins:            255,
		L2Regularization:   0,
		EarlyStopping:      "auto",
		ValidationFraction: 0.1,
		NIterNoChange:      10,
		Tol:                1e-7,
		RandomState:        42,
	}
}

// Option mutates Params.
type Option func(*Params)

// WithMaxDepth limits the depth of each tree.
func WithMaxDepth(d int) Option {
	return func(p *Params) { p.MaxDepth = d }
}

// WithLearningRate sets the shrinkage applied to every leaf value.
func WithLearningRate(lr float64) Option {
	return func(p *Params) { p.LearningRate = lr }
}

// WithMaxIter sets the maximum number of boosting iterations.
func WithMaxIter(n int) Option {
	return func(p *Params) { p.MaxIter = n }
}

// WithMaxLeafNodes limits the number of leaves of each tree.
func WithMaxLeafNodes(n int) Option {
	return func(p *Params) { p.MaxLeafNodes = n }
}

// WithMinSamplesLeaf sets the minimum number of training rows per leaf.
func WithMinSamplesLeaf(n int) Option {
	return func(p *Params) { p.MinSamplesLeaf = n }
}

// WithMaxBins caps the number of histogram bins per feature.
func WithMaxBins(n int) Option {
	return func(p *Params) { p.MaxBins = n }
}

// WithL2Regularization sets the L2 penalty on leaf values.
func WithL2Regularization(v float64) Option {
	return func(p *Params) { p.L2Regularization = v }
}

// WithEarlyStopping sets the early stopping mode: "auto", "on" or "off".
func WithEarlyStopping(mode string) Option {
	return func(p *Params) { p.EarlyStopping = mode }
}

// WithValidationFraction sets the share of rows held out for early stopping.
func WithValidationFraction(f float64) Option {
	return func(p *Params) { p.ValidationFraction = f }
}

// WithNIterNoChange sets how many iterations without improvement stop the fit.
func WithNIterNoChange(n int) Option {
	return func(p *Params) { p.NIterNoChange = n }
}

// WithTol sets the minimum validation loss improvement that counts.
func WithTol(tol float64) Option {
	return func(p *Params) { p.Tol = tol }
}

// WithRandomState seeds binning subsamples and the early stopping split.
func WithRandomState(seed int64) Option {
	return func(p *Params) { p.RandomState = seed }
}

// WithParams replaces every hyperparameter at once.
func WithParams(params Params) Option { return func(p *Params) { *p = params } }

func (p Params) validate() error {
	switch {
	case p.MaxDepth < 0:
		return exception.Newf(exception.KindConfig, moduleName, "max_depth must be >= 0, got %d", p.MaxDepth)
	case p.LearningRate <= 0:
		return exception.Newf(exception.KindConfig, moduleName, "learning_rate must be > 0, got %v", p.LearningRate)
	case p.MaxIter < 1:
		return exception.Newf(exception.KindConfig, moduleName, "max_iter must be >= 1, got %d", p.MaxIter)
	case p.MaxLeafNodes != 0 && p.MaxLeafNodes < 2:
		return exception.Newf(exception.KindConfig, moduleName, "max_leaf_nodes must be >= 2, got %d", p.MaxLeafNodes)
	case p.MinSamplesLeaf < 1:
		return exception.Newf(exception.KindConfig, moduleName, "min_samples_leaf must be >= 1, got %d", p.MinSamplesLeaf)
	case p.MaxBins < 2 || p.MaxBins > 255:
		return exception.Newf(exception.KindConfig, moduleName, "max_bins must be in [2, 255], got %d", p.MaxBins)
	case p.L2Regularization < 0:
		return exception.Newf(exception.KindConfig, moduleName, "l2_regularization must be >= 0, got %v", p.L2Regularization)
	case p.ValidationFraction <= 0 || p.ValidationFraction >= 1:
		return exception.Newf(exception.KindConfig, moduleName, "validation_fraction must be in (0, 1), got %v", p.ValidationFraction)
	case p.NIterNoChange < 1:
		return exception.Newf(exception.KindConfig, moduleName, "n_iter_no_change must be >= 1, got %d", p.NIterNoChange)
	}
	switch strings.ToLower(p.EarlyStopping) {
	case "auto", "on", "off", "true", "false":
	default:
		return exception.Newf(exception.KindConfig, moduleName, "early_stopping must be auto, on or off, got %q", p.EarlyStopping)
	}
	return nil
}

// earlyStopping resolves the mode for a training set of n rows.
func (p Params) earlyStopping(n int) bool {
	switch strings.ToLower(p.EarlyStopping) {
	case "on", "true":
		return true
	case "off", "false":
		return false
	default:
		return n > earlyStoppingAutoThreshold
	}
}
