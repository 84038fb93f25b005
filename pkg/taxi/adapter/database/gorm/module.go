package gorm

import (
	"context"

	"go.uber.org/fx"

	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/adapter/database"
)

// Module provides the connection resolver and closes every pool on shutdown.
// Dialect modules (sqlite, postgres, mysql) contribute the providers.
var Module = fx.Options(
	fx.Provide(
		NewGormDBConnectionResolver,
		func(r *GormDBConnectionResolver) database.DBConnectionResolver { return r },
	),
	fx.Invoke(func(lc fx.Lifecycle, r *GormDBConnectionResolver) {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return r.CloseAll()
			},
		})
	}),
)
