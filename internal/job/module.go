package job

import (
	"go.uber.org/fx"

	storage "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/adapter/storage"
	reader "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/component/reader"
	writer "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/component/writer"
	config "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/config"
	repository "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/domain/repository"
	corejob "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/job"
	metrics "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/metrics"
)

// JobParams are the shared collaborators of both jobs.
type JobParams struct {
	fx.In
	Cfg       *config.Config
	Resolver  *storage.Resolver
	Store     *writer.ArtifactStore
	Repo      repository.RunRepository
	Recorder  metrics.MetricRecorder
	Tracer    metrics.Tracer
	Listeners corejob.Listeners
}

func newArtifactStore(resolver *storage.Resolver, cfg *config.Config) (*writer.ArtifactStore, error) {
	return writer.NewArtifactStore(resolver, cfg.Taxi.Paths)
}

func provideTrainJob(p JobParams) *corejob.Job {
	deps := TrainDeps{
		Source:    reader.NewPartitionReader(p.Resolver),
		Publisher: p.Store,
	}
	return NewTrainJob(p.Cfg, deps, p.Repo, p.Recorder, p.Tracer, p.Listeners.Options()...)
}

func providePredictJob(p JobParams) *corejob.Job {
	deps := PredictDeps{
		Source: reader.NewPartitionReader(p.Resolver),
		Loader: p.Store,
		Sink:   writer.NewPredictionWriter(p.Resolver, p.Cfg.Taxi.Paths.CompressionType),
	}
	return NewPredictJob(p.Cfg, deps, p.Repo, p.Recorder, p.Tracer, p.Listeners.Options()...)
}

// TrainModule provides the training job as *corejob.Job.
var TrainModule = fx.Options(
	fx.Provide(newArtifactStore),
	fx.Provide(provideTrainJob),
)

// PredictModule provides the prediction job as *corejob.Job.
var PredictModule = fx.Options(
	fx.Provide(newArtifactStore),
	fx.Provide(providePredictJob),
)
