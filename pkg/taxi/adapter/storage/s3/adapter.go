// Package s3 implements the storage adapter for S3-compatible object stores
// (MinIO, AWS S3) on top of minio-go.
package s3

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	storageAdapter "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/adapter/storage"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/config"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/support/util/logger"
)

// ProviderType defines the type identifier for this provider.
const ProviderType = "s3"

type s3Adapter struct {
	client *minio.Client
	name   string
}

var _ storageAdapter.StorageConnection = (*s3Adapter)(nil)

// ParseEndpoint splits an endpoint URL such as http://localhost:9000 into the
// host:port minio-go expects and whether TLS is used. A bare host defaults to TLS.
func ParseEndpoint(endpointURL string) (host string, secure bool, err error) {
	if endpointURL == "" {
		return "", false, fmt.Errorf("object store endpoint is empty")
	}
	if !strings.Contains(endpointURL, "://") {
		return endpointURL, true, nil
	}
	u, err := url.Parse(endpointURL)
	if err != nil {
		return "", false, fmt.Errorf("invalid object store endpoint '%s': %w", endpointURL, err)
	}
	switch u.Scheme {
	case "http":
		secure = false
	case "https":
		secure = true
	default:
		return "", false, fmt.Errorf("unsupported endpoint scheme '%s' in '%s'", u.Scheme, endpointURL)
	}
	if u.Host == "" {
		return "", false, fmt.Errorf("missing host in endpoint '%s'", endpointURL)
	}
	return u.Host, secure, nil
}

// NewS3Adapter creates a client for the configured endpoint. No request is
// made until the first operation.
func NewS3Adapter(cfg config.ObjectStoreConfig, name string) (storageAdapter.StorageConnection, error) {
	host, secure, err := ParseEndpoint(cfg.EndpointURL)
	if err != nil {
		return nil, err
	}
	client, err := minio.New(host, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("s3 storage adapter '%s': failed to create client for '%s': %w", name, cfg.EndpointURL, err)
	}
	logger.Debugf("S3 storage adapter '%s' targets %s (tls=%t).", name, host, secure)
	return &s3Adapter{client: client, name: name}, nil
}

func (a *s3Adapter) Close() error {
	logger.Debugf("S3 storage adapter '%s' closed.", a.name)
	return nil
}

func (a *s3Adapter) Type() string { return ProviderType }

func (a *s3Adapter) Name() string { return a.name }

// Upload streams data with an unknown size; minio-go switches to multipart as needed.
func (a *s3Adapter) Upload(ctx context.Context, bucket, objectName string, data io.Reader, contentType string) error {
	_, err := a.client.PutObject(ctx, bucket, objectName, data, -1, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("failed to upload s3://%s/%s: %w", bucket, objectName, err)
	}
	logger.Debugf("Uploaded s3://%s/%s.", bucket, objectName)
	return nil
}

// Download stats the object first so that a missing key fails here rather than on first read.
func (a *s3Adapter) Download(ctx context.Context, bucket, objectName string) (io.ReadCloser, error) {
	obj, err := a.client.GetObject(ctx, bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get s3://%s/%s: %w", bucket, objectName, err)
	}
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, fmt.Errorf("failed to get s3://%s/%s: %w", bucket, objectName, err)
	}
	return obj, nil
}

func (a *s3Adapter) ListObjects(ctx context.Context, bucket, prefix string, fn func(objectName string) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	for info := range a.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if info.Err != nil {
			return fmt.Errorf("failed to list s3://%s/%s: %w", bucket, prefix, info.Err)
		}
		if strings.HasSuffix(info.Key, "/") {
			continue
		}
		if err := fn(info.Key); err != nil {
			return err
		}
	}
	return nil
}

func (a *s3Adapter) DeleteObject(ctx context.Context, bucket, objectName string) error {
	if err := a.client.RemoveObject(ctx, bucket, objectName, minio.RemoveObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			logger.Warnf("Attempted to delete non-existent object s3://%s/%s.", bucket, objectName)
			return nil
		}
		return fmt.Errorf("failed to delete s3://%s/%s: %w", bucket, objectName, err)
	}
	logger.Debugf("Deleted s3://%s/%s.", bucket, objectName)
	return nil
}

// Rename copies server side and removes the source. Readers may briefly see both objects.
func (a *s3Adapter) Rename(ctx context.Context, bucket, from, to string) error {
	_, err := a.client.CopyObject(ctx,
		minio.CopyDestOptions{Bucket: bucket, Object: to},
		minio.CopySrcOptions{Bucket: bucket, Object: from},
	)
	if err != nil {
		return fmt.Errorf("failed to copy s3://%s/%s to %s: %w", bucket, from, to, err)
	}
	return a.DeleteObject(ctx, bucket, from)
}

// S3Provider owns the lazily created S3 connection.
type S3Provider struct {
	cfg  config.ObjectStoreConfig
	conn storageAdapter.StorageConnection
	mu   sync.Mutex
}

// NewS3Provider creates a provider from storage.object_store.
func NewS3Provider(cfg *config.Config) storageAdapter.StorageProvider {
	return &S3Provider{cfg: cfg.Taxi.Storage.ObjectStore}
}

func (p *S3Provider) GetConnection(ctx context.Context) (storageAdapter.StorageConnection, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn != nil {
		return p.conn, nil
	}
	conn, err := NewS3Adapter(p.cfg, ProviderType)
	if err != nil {
		return nil, err
	}
	p.conn = conn
	return conn, nil
}

func (p *S3Provider) CloseAll() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn == nil {
		return nil
	}
	err := p.conn.Close()
	p.conn = nil
	return err
}

func (p *S3Provider) Type() string { return ProviderType }

func (p *S3Provider) Scheme() string { return storageAdapter.SchemeS3 }
