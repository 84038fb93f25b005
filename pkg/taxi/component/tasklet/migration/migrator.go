package migration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/adapter/database"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/support/util/exception"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/support/util/logger"
)

const moduleName = "migration"

type migratorImpl struct {
	dbConn database.DBConnection
	dbType string
}

// NewMigrator returns a Migrator running against dbConn.
func NewMigrator(dbConn database.DBConnection) Migrator {
	return &migratorImpl{dbConn: dbConn, dbType: dbConn.Type()}
}

type migratorProviderImpl struct{}

// NewMigratorProvider returns the golang-migrate MigratorProvider.
func NewMigratorProvider() MigratorProvider {
	return &migratorProviderImpl{}
}

func (p *migratorProviderImpl) NewMigrator(dbConn database.DBConnection) Migrator {
	return NewMigrator(dbConn)
}

func (m *migratorImpl) databaseDriver(sqlDB *sql.DB, tableName string) (migratedb.Driver, error) {
	switch m.dbType {
	case "postgres":
		return postgres.WithInstance(sqlDB, &postgres.Config{MigrationsTable: tableName})
	case "mysql":
		return mysql.WithInstance(sqlDB, &mysql.Config{MigrationsTable: tableName})
	case "sqlite":
		return sqlite.WithInstance(sqlDB, &sqlite.Config{MigrationsTable: tableName})
	default:
		return nil, fmt.Errorf("unsupported database type for migration: %s", m.dbType)
	}
}

func (m *migratorImpl) newMigrate(migrationFS fs.FS, path string, tableName string) (*migrate.Migrate, error) {
	sqlDB, err := m.dbConn.GetSQLDB()
	if err != nil {
		return nil, err
	}
	sourceDriver, err := iofs.New(migrationFS, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open migrations at %s: %w", path, err)
	}
	dbDriver, err := m.databaseDriver(sqlDB, tableName)
	if err != nil {
		return nil, err
	}
	return migrate.NewWithInstance("iofs", sourceDriver, m.dbType, dbDriver)
}

func (m *migratorImpl) run(ctx context.Context, migrationFS fs.FS, path, command, tableName string) error {
	logger.Infof("Executing migration '%s' (connection: %s, path: %s, table: %s)", command, m.dbConn.Name(), path, tableName)

	mInstance, err := m.newMigrate(migrationFS, path, tableName)
	if err != nil {
		return exception.New(exception.KindIO, moduleName, "failed to prepare migration", err)
	}
	// Close also closes the pooled *sql.DB. The resolver reopens it on next use.
	defer func() {
		srcErr, dbErr := mInstance.Close()
		if srcErr != nil || dbErr != nil {
			logger.Debugf("Closing migration instance: source=%v database=%v", srcErr, dbErr)
		}
	}()

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			mInstance.GracefulStop <- true
		case <-done:
		}
	}()
	defer close(done)

	switch command {
	case "up":
		err = mInstance.Up()
	case "down":
		err = mInstance.Down()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		if version, dirty, vErr := mInstance.Version(); vErr == nil {
			logger.Errorf("Migration '%s' failed at version %d (dirty: %t).", command, version, dirty)
		}
		return exception.New(exception.KindIO, moduleName, fmt.Sprintf("migration '%s' failed on %s", command, m.dbType), err)
	}
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Debugf("Migration '%s': schema already up to date.", command)
	}
	logger.Infof("Migration '%s' completed successfully.", command)
	return nil
}

func (m *migratorImpl) Up(ctx context.Context, migrationFS fs.FS, path string, tableName string) error {
	return m.run(ctx, migrationFS, path, "up", tableName)
}

func (m *migratorImpl) Down(ctx context.Context, migrationFS fs.FS, path string, tableName string) error {
	return m.run(ctx, migrationFS, path, "down", tableName)
}
