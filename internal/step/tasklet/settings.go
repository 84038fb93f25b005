// Package tasklet holds the steps of the training and prediction jobs. Each
// step reads what earlier steps left on the run context and leaves its own
// result there for the next one.
package tasklet

import (
	"strings"

	config "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/config"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/job"
	configbinder "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/support/util/configbinder"
	exception "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/support/util/exception"
)

const moduleName = "tasklet"

// Run parameter keys. The binaries fill them from their flags.
const (
	ParamInput    = "input"
	ParamOutput   = "output"
	ParamTestSize = "test_size"
	ParamMaxRows  = "max_rows"
	ParamSeed     = "seed"
)

// RunSettings are the per-run knobs of a driver, bound from the run parameters
// over the configured defaults.
type RunSettings struct {
	Input    string  `yaml:"input"` // comma separated
	Output   string  `yaml:"output"`
	TestSize float64 `yaml:"test_size"`
	MaxRows  int     `yaml:"max_rows"`
	Seed     int64   `yaml:"seed"`
}

// Inputs splits Input into its non-empty paths.
func (s RunSettings) Inputs() []string {
	var out []string
	for _, p := range strings.Split(s.Input, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// DefaultTrainSettings returns the training defaults from cfg.
func DefaultTrainSettings(cfg *config.Config) RunSettings {
	t := cfg.Taxi.Training
	return RunSettings{
		Input:    strings.Join(t.Inputs, ","),
		TestSize: t.TestSize,
		MaxRows:  t.MaxRows,
		Seed:     t.Seed,
	}
}

// DefaultPredictSettings returns the prediction defaults from cfg.
func DefaultPredictSettings(cfg *config.Config) RunSettings {
	return RunSettings{
		Input:   strings.Join(cfg.Taxi.Prediction.Inputs, ","),
		Output:  cfg.Taxi.Paths.PredictionsFile,
		MaxRows: cfg.Taxi.Training.MaxRows,
		Seed:    cfg.Taxi.Training.Seed,
	}
}

// bindSettings overlays the run parameters on defaults.
func bindSettings(rc *job.RunContext, defaults RunSettings) (RunSettings, error) {
	s := defaults
	props := make(map[string]string, len(rc.Run.Parameters))
	for k, v := range rc.Run.Parameters {
		if v != "" {
			props[k] = v
		}
	}
	if err := configbinder.BindProperties(props, &s); err != nil {
		return s, exception.New(exception.KindConfig, moduleName, "invalid run parameters", err)
	}
	if s.MaxRows < 0 {
		return s, exception.Newf(exception.KindConfig, moduleName, "max_rows must be >= 0, got %d", s.MaxRows)
	}
	return s, nil
}
