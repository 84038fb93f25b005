// Package mysql provides the gorm DBProvider for MySQL.
package mysql

import (
	"fmt"

	drivermysql "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/adapter/database"
	gormadapter "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/adapter/database/gorm"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/config"
)

const DBType = "mysql"

func init() {
	gormadapter.RegisterDialector(DBType, func(cfg database.DatabaseConfig) (gorm.Dialector, error) {
		return mysql.Open(ConnectionString(cfg)), nil
	})
}

// ConnectionString builds a go-sql-driver DSN. DATETIME columns scan into
// time.Time and migration files may hold several statements.
func ConnectionString(c database.DatabaseConfig) string {
	port := c.Port
	if port == 0 {
		port = 3306
	}
	dsn := drivermysql.NewConfig()
	dsn.User = c.User
	dsn.Passwd = c.Password
	dsn.Net = "tcp"
	dsn.Addr = fmt.Sprintf("%s:%d", c.Host, port)
	dsn.DBName = c.Database
	dsn.ParseTime = true
	dsn.MultiStatements = true
	dsn.Params = map[string]string{"charset": "utf8mb4"}
	return dsn.FormatDSN()
}

// NewProvider creates the MySQL DBProvider.
func NewProvider(cfg *config.Config) database.DBProvider {
	return gormadapter.NewBaseProvider(cfg, DBType)
}
