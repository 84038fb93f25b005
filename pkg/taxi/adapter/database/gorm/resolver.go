package gorm

import (
	"context"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/fx"

	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/adapter/database"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/config"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/support/util/exception"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/support/util/logger"
)

// GormDBConnectionResolver picks the provider for a named connection by its configured type.
type GormDBConnectionResolver struct {
	dbProviders map[string]database.DBProvider
	cfg         *config.Config
}

// ResolverParams collects every DBProvider contributed to the db_providers group.
type ResolverParams struct {
	fx.In
	DBProviders []database.DBProvider `group:"db_providers"`
	Cfg         *config.Config
}

// NewGormDBConnectionResolver indexes the providers by type.
func NewGormDBConnectionResolver(p ResolverParams) *GormDBConnectionResolver {
	providerMap := make(map[string]database.DBProvider, len(p.DBProviders))
	for _, provider := range p.DBProviders {
		providerMap[provider.Type()] = provider
	}
	return &GormDBConnectionResolver{dbProviders: providerMap, cfg: p.Cfg}
}

// ResolveDBConnection returns the connection called name, reconnecting once when
// the pooled connection no longer answers a ping.
func (r *GormDBConnectionResolver) ResolveDBConnection(ctx context.Context, name string) (database.DBConnection, error) {
	dbConfig, err := database.LookupConfig(r.cfg, name)
	if err != nil {
		return nil, err
	}
	provider, ok := r.dbProviders[dbConfig.Type]
	if !ok {
		return nil, exception.Newf(exception.KindConfig, moduleName, "no DBProvider for type '%s' (connection '%s')", dbConfig.Type, name)
	}

	conn, err := provider.GetConnection(name)
	if err != nil {
		return nil, err
	}
	sqlDB, err := conn.GetSQLDB()
	if err != nil {
		return nil, exception.New(exception.KindIO, moduleName, "connection '"+name+"' has no pool", err)
	}
	if pingErr := sqlDB.PingContext(ctx); pingErr != nil {
		logger.Warnf("DB connection '%s' is invalid (%v). Attempting to reconnect.", name, pingErr)
		return provider.ForceReconnect(name)
	}
	return conn, nil
}

// CloseAll closes the connections of every provider.
func (r *GormDBConnectionResolver) CloseAll() error {
	var result *multierror.Error
	for _, provider := range r.dbProviders {
		if err := provider.CloseAll(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

var _ database.DBConnectionResolver = (*GormDBConnectionResolver)(nil)
