// Package database declares the connection contracts used by the run repository
// and the schema migrations. Concrete gorm-backed providers live in the gorm
// subpackages, one per dialect.
package database

import (
	"context"
	"database/sql"

	"gorm.io/gorm"

	coreAdapter "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/adapter"
)

const moduleName = "database"

// DBProviderGroup is the fx value group every DBProvider is contributed to.
const DBProviderGroup = "db_providers"

// DBExecutor runs entity-level queries against one connection.
type DBExecutor interface {
	// ExecuteUpdate performs "CREATE", "UPDATE" or "DELETE" on model. For UPDATE, query
	// is an additional WHERE condition.
	ExecuteUpdate(ctx context.Context, model interface{}, operation string, tableName string, query map[string]interface{}) (rowsAffected int64, err error)
	// ExecuteQueryAdvanced fills target with the rows matching query, ordered and limited.
	ExecuteQueryAdvanced(ctx context.Context, target interface{}, query map[string]interface{}, orderBy string, limit int) error
	// IsTableNotExistError reports whether err means the queried table is missing.
	IsTableNotExistError(err error) bool
}

// DBConnection is a named, pooled database connection.
type DBConnection interface {
	coreAdapter.ResourceConnection
	DBExecutor
	// Config returns the settings the connection was opened with.
	Config() DatabaseConfig
	// GetSQLDB returns the underlying *sql.DB.
	GetSQLDB() (*sql.DB, error)
	// GormDB returns the gorm handle.
	GormDB() *gorm.DB
}

// DBProvider opens and caches connections of one database type.
type DBProvider interface {
	coreAdapter.ResourceProvider
	// GetConnection returns the cached connection called name, opening it on first use.
	GetConnection(name string) (DBConnection, error)
	// ForceReconnect closes and reopens the connection called name.
	ForceReconnect(name string) (DBConnection, error)
}

// DBConnectionResolver resolves a healthy connection by name.
type DBConnectionResolver interface {
	ResolveDBConnection(ctx context.Context, name string) (DBConnection, error)
}
