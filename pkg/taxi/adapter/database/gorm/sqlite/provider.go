// Package sqlite provides the gorm DBProvider for SQLite files, the default
// store for local run history.
package sqlite

import (
	"errors"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/adapter/database"
	gormadapter "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/adapter/database/gorm"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/config"
)

// DBType is the taxi.database.<name>.type value handled here.
const DBType = "sqlite"

func init() {
	gormadapter.RegisterDialector(DBType, func(cfg database.DatabaseConfig) (gorm.Dialector, error) {
		dsn, err := ConnectionString(cfg)
		if err != nil {
			return nil, err
		}
		return sqlite.Open(dsn), nil
	})
}

// ConnectionString returns the database file path. Foreign keys are switched on
// for file databases so step rows cannot outlive their run.
func ConnectionString(c database.DatabaseConfig) (string, error) {
	if c.Database == "" {
		return "", errors.New("SQLite database path cannot be empty")
	}
	if c.Database == ":memory:" {
		return c.Database, nil
	}
	return c.Database + "?_foreign_keys=on", nil
}

// NewProvider creates the SQLite DBProvider.
func NewProvider(cfg *config.Config) database.DBProvider {
	return gormadapter.NewBaseProvider(cfg, DBType)
}
