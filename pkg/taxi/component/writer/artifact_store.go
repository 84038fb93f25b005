// Package writer persists the outputs of a run: the model artifact with its
// metrics record, and prediction tables.
package writer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"

	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/adapter/storage"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/config"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/model"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/support/util/exception"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/support/util/logger"
)

const moduleName = "writer"

// Metrics is the record published next to the model.
type Metrics struct {
	RMSE     float64  `json:"rmse"`
	NRows    int      `json:"n_rows"`
	Features []string `json:"features"`
}

// ArtifactStore publishes and loads the model artifact and its metrics record.
type ArtifactStore struct {
	resolver *storage.Resolver
	model    storage.Location
	metrics  storage.Location
}

// NewArtifactStore places model_file and metrics_file under artifacts_dir.
func NewArtifactStore(resolver *storage.Resolver, paths config.PathsConfig) (*ArtifactStore, error) {
	dir, err := storage.ParseLocation(paths.ArtifactsDir)
	if err != nil {
		return nil, exception.New(exception.KindConfig, moduleName, "invalid artifacts_dir", err)
	}
	if paths.ModelFile == "" || paths.MetricsFile == "" || paths.ModelFile == paths.MetricsFile {
		return nil, exception.Newf(exception.KindConfig, moduleName,
			"model_file and metrics_file must be distinct and non-empty (got %q, %q)", paths.ModelFile, paths.MetricsFile)
	}
	return &ArtifactStore{
		resolver: resolver,
		model:    dir.Join(paths.ModelFile),
		metrics:  dir.Join(paths.MetricsFile),
	}, nil
}

// ModelLocation returns where the model artifact is published.
func (s *ArtifactStore) ModelLocation() storage.Location { return s.model }

// MetricsLocation returns where the metrics record is published.
func (s *ArtifactStore) MetricsLocation() storage.Location { return s.metrics }

// Publish replaces the published model and metrics pair.
//
// Both documents are serialized first, then written in full to temporary
// objects next to their destinations, and only then moved into place, model
// first. The previous model is moved aside before it is replaced and restored
// when the metrics cannot be moved in, so a failed publish always leaves the
// previous pair (or no pair) behind.
func (s *ArtifactStore) Publish(ctx context.Context, p *model.Pipeline, m Metrics, runID string) error {
	if runID == "" {
		runID = uuid.NewString()
	}

	var modelBuf bytes.Buffer
	if err := p.Save(&modelBuf); err != nil {
		return err
	}
	metricsDoc, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return exception.New(exception.KindIO, moduleName, "failed to encode metrics", err)
	}

	tmpModel := s.suffixed(s.model, "tmp", runID)
	tmpMetrics := s.suffixed(s.metrics, "tmp", runID)

	if err := s.resolver.Put(ctx, tmpModel, &modelBuf, "application/octet-stream"); err != nil {
		s.discard(tmpModel)
		return exception.NewIOError(moduleName, s.model.String(), err)
	}
	if err := s.resolver.Put(ctx, tmpMetrics, bytes.NewReader(append(metricsDoc, '\n')), "application/json"); err != nil {
		s.discard(tmpModel, tmpMetrics)
		return exception.NewIOError(moduleName, s.metrics.String(), err)
	}

	backup, hasBackup := s.suffixed(s.model, "bak", runID), s.exists(ctx, s.model)
	if hasBackup {
		if err := s.resolver.Rename(ctx, s.model, backup); err != nil {
			s.discard(tmpModel, tmpMetrics)
			return exception.NewIOError(moduleName, s.model.String(), err)
		}
	}

	if err := s.resolver.Rename(ctx, tmpModel, s.model); err != nil {
		if hasBackup {
			s.restoreModel(backup, true)
		}
		s.discard(tmpModel, tmpMetrics)
		return exception.NewIOError(moduleName, s.model.String(), err)
	}
	if err := s.resolver.Rename(ctx, tmpMetrics, s.metrics); err != nil {
		s.restoreModel(backup, hasBackup)
		s.discard(tmpMetrics)
		return exception.NewIOError(moduleName, s.metrics.String(), err)
	}
	if hasBackup {
		s.discard(backup)
	}

	logger.Infof("Model saved -> %s", s.model)
	logger.Infof("Metrics saved -> %s", s.metrics)
	return nil
}

// restoreModel puts the previous model back, or removes the new one when
// there was no previous model.
func (s *ArtifactStore) restoreModel(backup storage.Location, hasBackup bool) {
	ctx := context.Background()
	if !hasBackup {
		s.discard(s.model)
		return
	}
	if err := s.resolver.Rename(ctx, backup, s.model); err != nil {
		logger.Errorf("Failed to restore previous model from %s: %v", backup, err)
	}
}

func (s *ArtifactStore) exists(ctx context.Context, loc storage.Location) bool {
	rc, err := s.resolver.Open(ctx, loc)
	if err != nil {
		return false
	}
	rc.Close()
	return true
}

// LoadModel reads the published model.
func (s *ArtifactStore) LoadModel(ctx context.Context) (*model.Pipeline, error) {
	rc, err := s.resolver.Open(ctx, s.model)
	if err != nil {
		return nil, exception.NewIOError(moduleName, s.model.String(), err)
	}
	defer rc.Close()

	p, err := model.Load(rc)
	if err != nil {
		return nil, exception.NewIOError(moduleName, s.model.String(), err)
	}
	logger.Infof("Loaded model from %s (%s)", s.model, p)
	return p, nil
}

// LoadMetrics reads the published metrics record.
func (s *ArtifactStore) LoadMetrics(ctx context.Context) (*Metrics, error) {
	rc, err := s.resolver.Open(ctx, s.metrics)
	if err != nil {
		return nil, exception.NewIOError(moduleName, s.metrics.String(), err)
	}
	defer rc.Close()

	var m Metrics
	if err := json.NewDecoder(rc).Decode(&m); err != nil {
		return nil, exception.NewIOError(moduleName, s.metrics.String(), err)
	}
	return &m, nil
}

func (s *ArtifactStore) suffixed(loc storage.Location, kind, runID string) storage.Location {
	out := loc
	out.Key = fmt.Sprintf("%s.%s-%s", loc.Key, kind, runID)
	return out
}

// discard removes temporaries and backups on a best-effort basis. It uses a fresh context
// so cleanup still runs after the run context is cancelled.
func (s *ArtifactStore) discard(locs ...storage.Location) {
	var result *multierror.Error
	for _, loc := range locs {
		if err := s.resolver.Delete(context.Background(), loc); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		logger.Warnf("Failed to remove temporary artifacts: %v", err)
	}
}
