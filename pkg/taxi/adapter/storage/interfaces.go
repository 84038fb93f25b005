// Package storage defines the common interfaces for the storage adapters and
// resolves partition, artifact and output locations to the adapter that serves them.
// Locations are plain paths for the local file system, s3://bucket/key for
// S3-compatible object stores and gs://bucket/key for Google Cloud Storage.
package storage

import (
	"context"
	"io"

	coreAdapter "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/adapter"
)

// StorageExecutor defines generic storage operations.
type StorageExecutor interface {
	// Upload uploads data to the specified bucket and object name.
	// 'data' is the stream of data to upload. 'contentType' is the MIME type of the data.
	Upload(ctx context.Context, bucket, objectName string, data io.Reader, contentType string) error
	// Download downloads data from the specified bucket and object name.
	// It returns a ReadCloser which must be closed by the caller after use.
	Download(ctx context.Context, bucket, objectName string) (io.ReadCloser, error)
	// ListObjects lists objects within the specified bucket and prefix.
	// The 'fn' callback function is called for each object name found.
	ListObjects(ctx context.Context, bucket, prefix string, fn func(objectName string) error) error
	// DeleteObject deletes the specified object from the bucket. Deleting a
	// missing object is not an error.
	DeleteObject(ctx context.Context, bucket, objectName string) error
	// Rename moves an object within a bucket, replacing any object at the destination.
	Rename(ctx context.Context, bucket, from, to string) error
}

// StorageConnection represents a generic data storage connection.
type StorageConnection interface {
	coreAdapter.ResourceConnection // Inherits Close(), Type(), Name()
	StorageExecutor                // Inherits Upload(), Download(), ListObjects(), DeleteObject()
}

// StorageProvider owns the single connection of one location scheme.
type StorageProvider interface {
	coreAdapter.ResourceProvider
	// Scheme returns the location scheme served by this provider ("file", "s3", "gs").
	Scheme() string
	// GetConnection returns the provider's connection, creating it on first use.
	GetConnection(ctx context.Context) (StorageConnection, error)
}
