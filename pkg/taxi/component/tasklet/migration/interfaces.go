// Package migration applies the embedded run-history schema to the configured
// database through golang-migrate.
package migration

import (
	"context"
	"io/fs"

	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/adapter/database"
)

// MigrationsTable tracks applied run-history migrations.
const MigrationsTable = "taxi_schema_migrations"

// Migrator applies the migrations found under path in migrationFS.
type Migrator interface {
	// Up applies all pending migrations. Nothing to apply is not an error.
	Up(ctx context.Context, migrationFS fs.FS, path string, tableName string) error
	// Down rolls back every applied migration.
	Down(ctx context.Context, migrationFS fs.FS, path string, tableName string) error
}

// MigratorProvider creates a Migrator bound to one connection.
type MigratorProvider interface {
	NewMigrator(dbConn database.DBConnection) Migrator
}
