package migration

import "go.uber.org/fx"

// Module provides the migration Runner.
var Module = fx.Options(
	fx.Provide(NewMigratorProvider),
	fx.Provide(NewRunner),
)
