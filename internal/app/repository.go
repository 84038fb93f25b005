package app

import (
	"context"

	"go.uber.org/fx"

	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/adapter/database"
	migration "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/component/tasklet/migration"
	config "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/config"
	repository "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/domain/repository"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/infrastructure/repository/inmemory"
	sqlrepo "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/infrastructure/repository/sql"
	logger "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/support/util/logger"
)

// SchemaMigrator brings a connection's run history schema up to date.
type SchemaMigrator interface {
	Migrate(ctx context.Context, dbName string) error
}

type repositoryParams struct {
	fx.In
	Cfg        *config.Config
	DBResolver database.DBConnectionResolver
	Runner     *migration.Runner
	AppCtx     context.Context `name:"appCtx"`
}

func newRunRepository(p repositoryParams) (repository.RunRepository, error) {
	return SelectRunRepository(p.AppCtx, p.Cfg, p.DBResolver, p.Runner)
}

// SelectRunRepository returns the SQL repository on run_repository_db_ref after
// migrating its schema, or an in-memory repository when no connection is named.
func SelectRunRepository(
	ctx context.Context,
	cfg *config.Config,
	dbResolver database.DBConnectionResolver,
	migrator SchemaMigrator,
) (repository.RunRepository, error) {
	ref := cfg.Taxi.Infrastructure.RunRepositoryDBRef
	if ref == "" {
		logger.Infof("No run repository connection configured, keeping run history in memory.")
		return inmemory.NewRunRepository(), nil
	}
	if err := migrator.Migrate(ctx, ref); err != nil {
		return nil, err
	}
	logger.Infof("Recording run history on connection '%s'.", ref)
	return sqlrepo.NewSQLRunRepository(dbResolver, ref), nil
}
