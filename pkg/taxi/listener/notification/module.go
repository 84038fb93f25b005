package notification

import (
	"go.uber.org/fx"

	job "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/job"
)

// Module provides the log notifier and registers its run listener.
var Module = fx.Options(
	fx.Provide(NewLogNotifier),
	fx.Provide(fx.Annotate(NewRunListener, fx.ResultTags(`group:"`+job.RunListenerGroup+`"`))),
)
