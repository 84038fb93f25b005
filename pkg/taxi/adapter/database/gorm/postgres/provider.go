// Package postgres provides the gorm DBProvider for PostgreSQL.
package postgres

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/adapter/database"
	gormadapter "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/adapter/database/gorm"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/config"
)

const DBType = "postgres"

func init() {
	gormadapter.RegisterDialector(DBType, func(cfg database.DatabaseConfig) (gorm.Dialector, error) {
		return postgres.Open(ConnectionString(cfg)), nil
	})
}

// ConnectionString builds a keyword/value DSN. sslmode defaults to disable.
func ConnectionString(c database.DatabaseConfig) string {
	sslmode := c.Sslmode
	if sslmode == "" {
		sslmode = "disable"
	}
	port := c.Port
	if port == 0 {
		port = 5432
	}
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, port, c.User, c.Password, c.Database, sslmode)
	if c.Schema != "" {
		dsn += " search_path=" + c.Schema
	}
	return dsn
}

// NewProvider creates the PostgreSQL DBProvider.
func NewProvider(cfg *config.Config) database.DBProvider {
	return gormadapter.NewBaseProvider(cfg, DBType)
}
