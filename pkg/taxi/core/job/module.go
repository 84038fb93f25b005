package job

import (
	"go.uber.org/fx"
)

const (
	// RunListenerGroup collects RunListener implementations.
	RunListenerGroup = "run_listeners"
	// StepListenerGroup collects StepListener implementations.
	StepListenerGroup = "step_listeners"
)

// Listeners gathers every listener registered in the container.
type Listeners struct {
	fx.In
	Run  []RunListener  `group:"run_listeners"`
	Step []StepListener `group:"step_listeners"`
}

// Options turns the gathered listeners into job options.
func (l Listeners) Options() []Option {
	return []Option{WithRunListeners(l.Run...), WithStepListeners(l.Step...)}
}
