// Package gcs implements the storage adapter for Google Cloud Storage.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	storageAdapter "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/adapter/storage"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/config"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/support/util/logger"
)

// ProviderType defines the type identifier for this provider.
const ProviderType = "gcs"

type gcsAdapter struct {
	client *storage.Client
	name   string
}

var _ storageAdapter.StorageConnection = (*gcsAdapter)(nil)

// clientOptions maps the configuration to client options. A custom endpoint
// (an emulator) disables authentication.
func clientOptions(cfg config.GCSConfig) []option.ClientOption {
	var opts []option.ClientOption
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint), option.WithoutAuthentication())
	} else if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	return opts
}

// NewGCSAdapter creates a storage client.
func NewGCSAdapter(ctx context.Context, cfg config.GCSConfig, name string) (storageAdapter.StorageConnection, error) {
	client, err := storage.NewClient(ctx, clientOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("gcs storage adapter '%s': failed to create client: %w", name, err)
	}
	return &gcsAdapter{client: client, name: name}, nil
}

func (a *gcsAdapter) Close() error {
	if err := a.client.Close(); err != nil {
		return fmt.Errorf("failed to close gcs client '%s': %w", a.name, err)
	}
	logger.Debugf("GCS storage adapter '%s' closed.", a.name)
	return nil
}

func (a *gcsAdapter) Type() string { return ProviderType }

func (a *gcsAdapter) Name() string { return a.name }

// Upload writes the object; it becomes visible only when the writer closes successfully.
func (a *gcsAdapter) Upload(ctx context.Context, bucket, objectName string, data io.Reader, contentType string) error {
	w := a.client.Bucket(bucket).Object(objectName).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, data); err != nil {
		w.Close()
		return fmt.Errorf("failed to upload gs://%s/%s: %w", bucket, objectName, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize gs://%s/%s: %w", bucket, objectName, err)
	}
	logger.Debugf("Uploaded gs://%s/%s.", bucket, objectName)
	return nil
}

func (a *gcsAdapter) Download(ctx context.Context, bucket, objectName string) (io.ReadCloser, error) {
	r, err := a.client.Bucket(bucket).Object(objectName).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get gs://%s/%s: %w", bucket, objectName, err)
	}
	return r, nil
}

func (a *gcsAdapter) ListObjects(ctx context.Context, bucket, prefix string, fn func(objectName string) error) error {
	it := a.client.Bucket(bucket).Objects(ctx, &storage.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to list gs://%s/%s: %w", bucket, prefix, err)
		}
		if err := fn(attrs.Name); err != nil {
			return err
		}
	}
}

func (a *gcsAdapter) DeleteObject(ctx context.Context, bucket, objectName string) error {
	err := a.client.Bucket(bucket).Object(objectName).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		logger.Warnf("Attempted to delete non-existent object gs://%s/%s.", bucket, objectName)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete gs://%s/%s: %w", bucket, objectName, err)
	}
	return nil
}

// Rename copies server side and deletes the source.
func (a *gcsAdapter) Rename(ctx context.Context, bucket, from, to string) error {
	b := a.client.Bucket(bucket)
	if _, err := b.Object(to).CopierFrom(b.Object(from)).Run(ctx); err != nil {
		return fmt.Errorf("failed to copy gs://%s/%s to %s: %w", bucket, from, to, err)
	}
	return a.DeleteObject(ctx, bucket, from)
}

// GCSProvider owns the lazily created GCS connection.
type GCSProvider struct {
	cfg  config.GCSConfig
	conn storageAdapter.StorageConnection
	mu   sync.Mutex
}

// NewGCSProvider creates a provider from storage.gcs.
func NewGCSProvider(cfg *config.Config) storageAdapter.StorageProvider {
	return &GCSProvider{cfg: cfg.Taxi.Storage.GCS}
}

func (p *GCSProvider) GetConnection(ctx context.Context) (storageAdapter.StorageConnection, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn != nil {
		return p.conn, nil
	}
	conn, err := NewGCSAdapter(ctx, p.cfg, ProviderType)
	if err != nil {
		return nil, err
	}
	p.conn = conn
	return conn, nil
}

func (p *GCSProvider) CloseAll() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn == nil {
		return nil
	}
	err := p.conn.Close()
	p.conn = nil
	return err
}

func (p *GCSProvider) Type() string { return ProviderType }

func (p *GCSProvider) Scheme() string { return storageAdapter.SchemeGCS }
