package s3

import "go.uber.org/fx"

// Module contributes the S3 provider to the storage resolver.
var Module = fx.Options(
	fx.Provide(fx.Annotate(
		NewS3Provider,
		fx.ResultTags(`group:"storage_providers"`),
	)),
)
