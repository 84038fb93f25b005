package dashboard

import (
	"context"
	"database/sql"
	"errors"
	"net"
	"net/http"
	"time"

	"go.uber.org/fx"

	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/config"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/support/util/logger"
)

func newWarehouseDB(lc fx.Lifecycle, cfg *config.Config) (*sql.DB, error) {
	db, err := OpenWarehouse(cfg.Taxi.Dashboard.WarehouseDSN)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{OnStop: func(context.Context) error { return db.Close() }})
	return db, nil
}

func newCache(lc fx.Lifecycle, cfg *config.Config) (Cache, error) {
	url := cfg.Taxi.Dashboard.RedisURL
	if url == "" {
		logger.Infof("Dashboard: redis_url not set, result cache disabled.")
		return NoCache{}, nil
	}
	c, err := NewRedisCache(url)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{OnStop: func(context.Context) error { return c.Close() }})
	return c, nil
}

func newService(w *Warehouse, c Cache, cfg *config.Config) *Service {
	return NewService(w, c, time.Duration(cfg.Taxi.Dashboard.CacheTTLSeconds)*time.Second)
}

// startHTTPServer serves the API on listen_addr for the lifetime of the container.
func startHTTPServer(lc fx.Lifecycle, s *Server, cfg *config.Config, shutdowner fx.Shutdowner) {
	srv := &http.Server{
		Addr:         cfg.Taxi.Dashboard.ListenAddr,
		Handler:      s.Routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			logger.Infof("Dashboard API listening on %s.", ln.Addr())
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Errorf("Dashboard API stopped: %v", err)
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Infof("Dashboard API shutting down.")
			return srv.Shutdown(ctx)
		},
	})
}

// Module wires the warehouse pool, the optional Redis cache and the HTTP server.
var Module = fx.Options(
	fx.Provide(newWarehouseDB),
	fx.Provide(NewWarehouse),
	fx.Provide(newCache),
	fx.Provide(newService),
	fx.Provide(NewServer),
	fx.Invoke(startHTTPServer),
)
