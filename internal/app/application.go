// Package app assembles the fx containers behind the taxi binaries.
package app

import (
	"context"

	"go.uber.org/fx"

	gormadapter "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/adapter/database/gorm"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/adapter/database/gorm/mysql"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/adapter/database/gorm/postgres"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/adapter/database/gorm/sqlite"
	storage "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/adapter/storage"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/adapter/storage/gcs"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/adapter/storage/local"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/adapter/storage/s3"
	migration "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/component/tasklet/migration"
	config "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/config"
	model "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/domain/model"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/dashboard"
	inframetrics "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/infrastructure/metrics"
	logginglistener "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/listener/logging"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/listener/notification"
	logger "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/support/util/logger"

	appjob "github.com/aware37/projet-big-data-cytech-25-taxi/internal/job"
)

const moduleName = "app"

// Settings are what a binary hands to the container.
type Settings struct {
	// JobName labels metrics, spans and the fx container logs.
	JobName        string
	EnvFilePath    string
	EmbeddedConfig config.EmbeddedConfig
	// Params are the run parameters taken from the command line.
	Params model.RunParameters
	// Overrides are applied to the loaded configuration before it is validated again.
	Overrides []func(*config.Config)
}

// baseOptions are shared by every binary: configuration, logging and metrics.
func baseOptions(appCtx context.Context, s Settings) []fx.Option {
	return []fx.Option{
		fx.Supply(
			s.EmbeddedConfig,
			fx.Annotate(s.EnvFilePath, fx.ResultTags(`name:"envFilePath"`)),
			fx.Annotate(s.JobName, fx.ResultTags(`name:"jobName"`)),
			fx.Annotate(appCtx, fx.As(new(context.Context)), fx.ResultTags(`name:"appCtx"`)),
		),
		logger.Module,
		config.Module,
		fx.Decorate(applyOverrides(s.Overrides)),
		inframetrics.Module,
	}
}

// applyOverrides returns an fx decorator that layers command-line values over the loaded config.
func applyOverrides(overrides []func(*config.Config)) func(*config.Config) (*config.Config, error) {
	return func(cfg *config.Config) (*config.Config, error) {
		if len(overrides) == 0 {
			return cfg, nil
		}
		for _, o := range overrides {
			o(cfg)
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}
}

// batchOptions add storage, run history and the listeners used by the jobs.
func batchOptions(s Settings) []fx.Option {
	params := s.Params
	if params == nil {
		params = model.RunParameters{}
	}
	return []fx.Option{
		fx.Supply(params),
		storage.Module,
		local.Module,
		s3.Module,
		gcs.Module,
		gormadapter.Module,
		sqlite.Module,
		postgres.Module,
		mysql.Module,
		migration.Module,
		fx.Provide(newRunRepository),
		logginglistener.Module,
		notification.Module,
	}
}

func trainOptions(appCtx context.Context, s Settings) []fx.Option {
	opts := append(baseOptions(appCtx, s), batchOptions(s)...)
	return append(opts,
		appjob.TrainModule,
		fx.Supply(ScheduledLaunch),
		fx.Invoke(startJob),
	)
}

func predictOptions(appCtx context.Context, s Settings) []fx.Option {
	opts := append(baseOptions(appCtx, s), batchOptions(s)...)
	return append(opts,
		appjob.PredictModule,
		fx.Supply(SingleLaunch),
		fx.Invoke(startJob),
	)
}

func dashboardOptions(appCtx context.Context, s Settings) []fx.Option {
	return append(baseOptions(appCtx, s), dashboard.Module)
}

// NewTrainApplication builds the container of taxi-train. It runs the
// training job once, or on every tick of schedule.cron when one is set.
func NewTrainApplication(appCtx context.Context, s Settings) *fx.App {
	return fx.New(trainOptions(appCtx, s)...)
}

// NewPredictApplication builds the container of taxi-predict. It runs the
// prediction job once.
func NewPredictApplication(appCtx context.Context, s Settings) *fx.App {
	return fx.New(predictOptions(appCtx, s)...)
}

// NewDashboardApplication builds the container of taxi-dashboard.
func NewDashboardApplication(appCtx context.Context, s Settings) *fx.App {
	return fx.New(dashboardOptions(appCtx, s)...)
}
