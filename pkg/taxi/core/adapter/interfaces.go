// Package adapter declares the contracts shared by every resource adapter
// (databases, object stores, the local file system).
package adapter

// ResourceConnection represents a generic connection to any resource (e.g., database, storage).
type ResourceConnection interface {
	// Close closes the resource connection.
	Close() error
	// Type returns the type of the resource (e.g., "postgres", "s3").
	Type() string
	// Name returns the connection name (e.g., "metadata", "warehouse").
	Name() string
}

// ResourceProvider creates and caches connections of one resource type.
type ResourceProvider interface {
	// CloseAll closes all connections managed by this provider.
	CloseAll() error
	// Type returns the type of resource handled by this provider (e.g., "database", "s3").
	Type() string
}
