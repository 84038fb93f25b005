package postgres

import (
	"go.uber.org/fx"

	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/adapter/database"
)

// Module contributes the postgres DBProvider to the db_providers group.
var Module = fx.Options(
	fx.Provide(
		fx.Annotate(
			NewProvider,
			fx.ResultTags(`group:"`+database.DBProviderGroup+`"`),
		),
	),
)
