package logger

import "go.uber.org/fx"

// Module wires the fx event logger.
var Module = fx.Options(
	fx.WithLogger(NewFxLoggerAdapter),
)
