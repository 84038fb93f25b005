package logging

import (
	"go.uber.org/fx"

	job "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/job"
)

// Module registers the logging listeners in the listener groups.
var Module = fx.Options(
	fx.Provide(fx.Annotate(NewLoggingRunListener, fx.ResultTags(`group:"`+job.RunListenerGroup+`"`))),
	fx.Provide(fx.Annotate(NewLoggingStepListener, fx.ResultTags(`group:"`+job.StepListenerGroup+`"`))),
)
