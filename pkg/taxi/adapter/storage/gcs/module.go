package gcs

import "go.uber.org/fx"

// Module contributes the GCS provider to the storage resolver.
var Module = fx.Options(
	fx.Provide(fx.Annotate(
		NewGCSProvider,
		fx.ResultTags(`group:"storage_providers"`),
	)),
)
