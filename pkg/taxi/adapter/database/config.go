package database

import (
	"github.com/mitchellh/mapstructure"

	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/config"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/support/util/exception"
)

// PoolConfig holds database connection pool settings.
type PoolConfig struct {
	MaxOpenConns           int `yaml:"max_open_conns"`
	MaxIdleConns           int `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int `yaml:"conn_max_lifetime_minutes"`
}

// DatabaseConfig holds the settings of one named connection under taxi.database.
type DatabaseConfig struct {
	Type     string     `yaml:"type"`     // "sqlite", "postgres" or "mysql".
	Host     string     `yaml:"host"`     // Database host address.
	Port     int        `yaml:"port"`     // Database port number.
	Database string     `yaml:"database"` // Database name, or the file path for sqlite.
	User     string     `yaml:"user"`
	Password string     `yaml:"password"`
	Schema   string     `yaml:"schema,omitempty"` // Search path for PostgreSQL.
	Sslmode  string     `yaml:"sslmode"`
	Pool     PoolConfig `yaml:"pool"`
}

// LookupConfig decodes the connection called name from cfg.Taxi.Database.
func LookupConfig(cfg *config.Config, name string) (DatabaseConfig, error) {
	var dbConfig DatabaseConfig
	raw, ok := cfg.Taxi.Database[name]
	if !ok {
		return dbConfig, exception.Newf(exception.KindConfig, moduleName, "database configuration '%s' not found under taxi.database", name)
	}
	if err := DecodeConfig(raw, &dbConfig); err != nil {
		return dbConfig, exception.New(exception.KindConfig, moduleName, "failed to decode database config for '"+name+"'", err)
	}
	if dbConfig.Type == "" {
		return dbConfig, exception.Newf(exception.KindConfig, moduleName, "database configuration '%s' has no type", name)
	}
	return dbConfig, nil
}

// DecodeConfig decodes a raw YAML map into out using the yaml field names.
// Numbers given as strings (from ${VAR} expansion) are converted.
func DecodeConfig(raw interface{}, out *DatabaseConfig) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "yaml",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}
