// Package local provides a local file system implementation of the storage adapter interfaces.
package local

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	storageAdapter "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/adapter/storage"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/config"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/support/util/logger"
)

const (
	// ProviderType defines the type identifier for this local storage provider.
	ProviderType = "local"
)

// localAdapter implements the storage.StorageConnection interface for local file system operations.
// The bucket argument of every operation is a sub-directory of BaseDir.
type localAdapter struct {
	baseDir string
	name    string
}

// Verify that localAdapter implements the storage.StorageConnection interface.
var _ storageAdapter.StorageConnection = (*localAdapter)(nil)

// NewLocalAdapter creates a new localAdapter instance.
// An empty baseDir resolves paths as given; otherwise paths are joined to
// baseDir and may not escape it. A missing baseDir is created.
func NewLocalAdapter(baseDir, name string) (storageAdapter.StorageConnection, error) {
	if baseDir != "" {
		info, err := os.Stat(baseDir)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("local storage adapter '%s': failed to stat BaseDir '%s': %w", name, baseDir, err)
			}
			if err := os.MkdirAll(baseDir, 0755); err != nil {
				return nil, fmt.Errorf("local storage adapter '%s': failed to create BaseDir '%s': %w", name, baseDir, err)
			}
		} else if !info.IsDir() {
			return nil, fmt.Errorf("local storage adapter '%s': BaseDir '%s' is not a directory", name, baseDir)
		}
	}
	return &localAdapter{baseDir: baseDir, name: name}, nil
}

// Close does nothing for the local file system adapter as it holds no special resources.
func (a *localAdapter) Close() error {
	logger.Debugf("Local storage adapter '%s' closed.", a.name)
	return nil
}

// Type returns the type of the adapter, which is "local".
func (a *localAdapter) Type() string {
	return ProviderType
}

// Name returns the name of this connection.
func (a *localAdapter) Name() string {
	return a.name
}

// Upload writes data to a sibling temporary file and renames it into place,
// creating parent directories as needed.
func (a *localAdapter) Upload(ctx context.Context, bucket, objectName string, data io.Reader, contentType string) error {
	fullPath, err := a.resolvePath(bucket, objectName)
	if err != nil {
		return fmt.Errorf("failed to resolve path for upload: %w", err)
	}

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory '%s': %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(fullPath)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file in '%s': %w", dir, err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	if _, err := io.Copy(tmp, data); err != nil {
		cleanup()
		return fmt.Errorf("failed to write data to file '%s': %w", fullPath, err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("failed to sync file '%s': %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close file '%s': %w", tmpName, err)
	}
	if err := os.Rename(tmpName, fullPath); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move '%s' to '%s': %w", tmpName, fullPath, err)
	}
	logger.Debugf("Uploaded data to '%s' (local adapter '%s').", fullPath, a.name)
	return nil
}

// Download opens the file. The returned io.ReadCloser must be closed by the caller.
func (a *localAdapter) Download(ctx context.Context, bucket, objectName string) (io.ReadCloser, error) {
	fullPath, err := a.resolvePath(bucket, objectName)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path for download: %w", err)
	}

	file, err := os.Open(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file '%s': %w", fullPath, err)
	}
	logger.Debugf("Opened '%s' (local adapter '%s').", fullPath, a.name)
	return file, nil
}

// ListObjects walks the directory named by prefix (or the single file it
// names) and reports every regular file with the same key convention that
// Download accepts. A missing prefix lists nothing.
func (a *localAdapter) ListObjects(ctx context.Context, bucket, prefix string, fn func(objectName string) error) error {
	root, err := a.resolvePath(bucket, prefix)
	if err != nil {
		return fmt.Errorf("failed to resolve base path for listing: %w", err)
	}
	base, err := a.resolvePath(bucket, "")
	if err != nil {
		return fmt.Errorf("failed to resolve base path for listing: %w", err)
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == root {
				return fs.SkipAll
			}
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		objectName := path
		if a.baseDir != "" {
			if objectName, err = filepath.Rel(base, path); err != nil {
				return fmt.Errorf("failed to get relative path for '%s' from '%s': %w", path, base, err)
			}
		}
		return fn(objectName)
	})
	if err != nil {
		return fmt.Errorf("failed to list objects under '%s': %w", root, err)
	}
	logger.Debugf("Listed objects under '%s' (local adapter '%s').", root, a.name)
	return nil
}

// DeleteObject deletes the file. A missing file is logged and ignored.
func (a *localAdapter) DeleteObject(ctx context.Context, bucket, objectName string) error {
	fullPath, err := a.resolvePath(bucket, objectName)
	if err != nil {
		return fmt.Errorf("failed to resolve path for delete: %w", err)
	}

	if err := os.Remove(fullPath); err != nil {
		if os.IsNotExist(err) {
			logger.Warnf("Attempted to delete non-existent object '%s' (local adapter '%s').", fullPath, a.name)
			return nil
		}
		return fmt.Errorf("failed to delete file '%s': %w", fullPath, err)
	}
	logger.Debugf("Deleted object '%s' (local adapter '%s').", fullPath, a.name)
	return nil
}

// Rename is an os.Rename, atomic on the same file system.
func (a *localAdapter) Rename(ctx context.Context, bucket, from, to string) error {
	src, err := a.resolvePath(bucket, from)
	if err != nil {
		return fmt.Errorf("failed to resolve path for rename: %w", err)
	}
	dst, err := a.resolvePath(bucket, to)
	if err != nil {
		return fmt.Errorf("failed to resolve path for rename: %w", err)
	}
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("failed to move '%s' to '%s': %w", src, dst, err)
	}
	logger.Debugf("Moved '%s' to '%s' (local adapter '%s').", src, dst, a.name)
	return nil
}

// resolvePath resolves the full path of a file, keeping it inside baseDir when one is set.
func (a *localAdapter) resolvePath(bucket, objectName string) (string, error) {
	fullPath := filepath.Join(bucket, objectName)
	if a.baseDir == "" {
		if fullPath == "" {
			fullPath = "."
		}
		return fullPath, nil
	}
	fullPath = filepath.Join(a.baseDir, fullPath)

	absBaseDir, err := filepath.Abs(a.baseDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path for BaseDir '%s': %w", a.baseDir, err)
	}
	absFullPath, err := filepath.Abs(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path for '%s': %w", fullPath, err)
	}
	if absFullPath != absBaseDir && !strings.HasPrefix(absFullPath, absBaseDir+string(filepath.Separator)) {
		return "", fmt.Errorf("resolved path '%s' is outside of BaseDir '%s'", fullPath, a.baseDir)
	}
	return fullPath, nil
}

// LocalProvider implements the storage.StorageProvider interface for the file scheme.
type LocalProvider struct {
	baseDir string
	conn    storageAdapter.StorageConnection
	mu      sync.Mutex
}

// NewLocalProvider creates a new LocalProvider bounded by storage.local_base_dir.
func NewLocalProvider(cfg *config.Config) storageAdapter.StorageProvider {
	return &LocalProvider{baseDir: cfg.Taxi.Storage.LocalBaseDir}
}

// GetConnection returns the local connection, creating it on first use.
func (p *LocalProvider) GetConnection(ctx context.Context) (storageAdapter.StorageConnection, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn != nil {
		return p.conn, nil
	}
	conn, err := NewLocalAdapter(p.baseDir, ProviderType)
	if err != nil {
		return nil, fmt.Errorf("failed to create local adapter: %w", err)
	}
	p.conn = conn
	logger.Debugf("Created new local storage connection (base dir '%s').", p.baseDir)
	return conn, nil
}

// CloseAll closes the connection managed by this provider.
func (p *LocalProvider) CloseAll() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn == nil {
		return nil
	}
	err := p.conn.Close()
	p.conn = nil
	return err
}

// Type returns the type of resource handled by this provider, which is "local".
func (p *LocalProvider) Type() string {
	return ProviderType
}

// Scheme returns storage.SchemeFile.
func (p *LocalProvider) Scheme() string {
	return storageAdapter.SchemeFile
}
