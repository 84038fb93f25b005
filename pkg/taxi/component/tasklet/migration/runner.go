package migration

import (
	"context"
	"io/fs"

	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/adapter/database"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/support/util/logger"
)

// Runner brings a named connection's run-history schema up to date.
type Runner struct {
	dbResolver       database.DBConnectionResolver
	migratorProvider MigratorProvider
	migrationFS      fs.FS
}

// NewRunner creates a Runner over the embedded migrations.
func NewRunner(dbResolver database.DBConnectionResolver, migratorProvider MigratorProvider) *Runner {
	return &Runner{
		dbResolver:       dbResolver,
		migratorProvider: migratorProvider,
		migrationFS:      RunHistoryFS(),
	}
}

// Migrate applies pending migrations to the connection called dbName. The
// migration directory is the connection's database type.
func (r *Runner) Migrate(ctx context.Context, dbName string) error {
	conn, err := r.dbResolver.ResolveDBConnection(ctx, dbName)
	if err != nil {
		return err
	}
	if err := r.migratorProvider.NewMigrator(conn).Up(ctx, r.migrationFS, conn.Type(), MigrationsTable); err != nil {
		return err
	}
	logger.Infof("Run history schema is up to date on '%s'.", dbName)
	return nil
}
