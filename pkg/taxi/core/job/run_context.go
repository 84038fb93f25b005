package job

import (
	model "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/domain/model"
	mlmodel "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/model"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/table"
)

// RunContext is the state one run passes from step to step. It is created per
// run and never shared between runs.
type RunContext struct {
	Run *model.RunExecution

	// Batch is the concatenated input, after the optional row cap.
	Batch *table.Table
	// Features is Batch with the derived time features added.
	Features *table.Table

	X            *table.Table
	Y            []float64
	FeatureNames []string

	TrainIndices []int
	TestIndices  []int

	Pipeline    *mlmodel.Pipeline
	Predictions []float64
	RMSE        float64
}

// NewRunContext returns an empty context bound to run.
func NewRunContext(run *model.RunExecution) *RunContext {
	return &RunContext{Run: run}
}

// Param returns the run parameter key, or def when unset.
func (rc *RunContext) Param(key, def string) string {
	if v, ok := rc.Run.Parameters[key]; ok && v != "" {
		return v
	}
	return def
}
