package storage

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/fx"

	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/support/util/logger"
)

// Resolver routes a Location to the provider registered for its scheme.
// Connections are created lazily, so local-only runs never touch object store
// configuration or credentials.
type Resolver struct {
	providers map[string]StorageProvider
}

// ResolverParams collects the providers contributed by the adapter modules.
type ResolverParams struct {
	fx.In
	Providers []StorageProvider `group:"storage_providers"`
}

// NewResolver indexes providers by scheme. A later provider for the same scheme wins.
func NewResolver(providers ...StorageProvider) *Resolver {
	r := &Resolver{providers: make(map[string]StorageProvider, len(providers))}
	for _, p := range providers {
		r.providers[p.Scheme()] = p
	}
	return r
}

// NewResolverFromParams is the fx constructor of Resolver.
func NewResolverFromParams(p ResolverParams) *Resolver {
	return NewResolver(p.Providers...)
}

// Resolve returns the connection serving loc.
func (r *Resolver) Resolve(ctx context.Context, loc Location) (StorageConnection, error) {
	p, ok := r.providers[loc.Scheme]
	if !ok {
		return nil, fmt.Errorf("no storage provider registered for scheme '%s' (location '%s')", loc.Scheme, loc)
	}
	conn, err := p.GetConnection(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get '%s' storage connection: %w", loc.Scheme, err)
	}
	return conn, nil
}

// Open downloads the object at loc. The caller closes the reader.
func (r *Resolver) Open(ctx context.Context, loc Location) (io.ReadCloser, error) {
	conn, err := r.Resolve(ctx, loc)
	if err != nil {
		return nil, err
	}
	return conn.Download(ctx, loc.Bucket, loc.Key)
}

// Put uploads data to loc.
func (r *Resolver) Put(ctx context.Context, loc Location, data io.Reader, contentType string) error {
	conn, err := r.Resolve(ctx, loc)
	if err != nil {
		return err
	}
	return conn.Upload(ctx, loc.Bucket, loc.Key, data, contentType)
}

// Delete removes the object at loc.
func (r *Resolver) Delete(ctx context.Context, loc Location) error {
	conn, err := r.Resolve(ctx, loc)
	if err != nil {
		return err
	}
	return conn.DeleteObject(ctx, loc.Bucket, loc.Key)
}

// Rename moves from to to. Both must be served by the same connection and bucket.
func (r *Resolver) Rename(ctx context.Context, from, to Location) error {
	if from.Scheme != to.Scheme || from.Bucket != to.Bucket {
		return fmt.Errorf("cannot rename '%s' to '%s' across buckets", from, to)
	}
	conn, err := r.Resolve(ctx, from)
	if err != nil {
		return err
	}
	return conn.Rename(ctx, from.Bucket, from.Key, to.Key)
}

// Expand turns each path into the objects it names. Single objects are kept
// as given. Local directories, remote prefixes (a trailing slash or a key
// without extension) are listed and every object whose extension is in exts
// is returned, sorted by key. Input order is preserved across paths.
func (r *Resolver) Expand(ctx context.Context, paths []string, exts ...string) ([]Location, error) {
	var out []Location
	for _, p := range paths {
		loc, err := ParseLocation(p)
		if err != nil {
			return nil, err
		}
		if loc.IsRemote() && !loc.IsPrefix() && loc.Ext() != "" {
			out = append(out, loc)
			continue
		}

		conn, err := r.Resolve(ctx, loc)
		if err != nil {
			return nil, err
		}
		prefix := loc.Key
		if loc.IsRemote() && prefix != "" && !strings.HasSuffix(prefix, "/") {
			prefix += "/"
		}

		var keys []string
		err = conn.ListObjects(ctx, loc.Bucket, prefix, func(objectName string) error {
			keys = append(keys, objectName)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list '%s': %w", p, err)
		}

		// A local path that lists as itself is a plain file.
		if !loc.IsRemote() && (len(keys) == 0 || (len(keys) == 1 && keys[0] == loc.Key)) {
			out = append(out, loc)
			continue
		}

		sort.Strings(keys)
		n := 0
		for _, k := range keys {
			child := Location{Scheme: loc.Scheme, Bucket: loc.Bucket, Key: k}
			if hasExt(child.Ext(), exts) {
				out = append(out, child)
				n++
			}
		}
		if n == 0 {
			return nil, fmt.Errorf("no %v objects under '%s'", exts, p)
		}
		logger.Infof("Expanded '%s' to %d objects.", p, n)
	}
	return out, nil
}

func hasExt(ext string, exts []string) bool {
	if len(exts) == 0 {
		return true
	}
	for _, e := range exts {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

// CloseAll closes every provider's connection.
func (r *Resolver) CloseAll() error {
	var result *multierror.Error
	for scheme, p := range r.providers {
		if err := p.CloseAll(); err != nil {
			result = multierror.Append(result, fmt.Errorf("failed to close '%s' storage: %w", scheme, err))
		}
	}
	return result.ErrorOrNil()
}

// Module provides the Resolver and closes it when the application stops.
var Module = fx.Options(
	fx.Provide(NewResolverFromParams),
	fx.Invoke(func(lc fx.Lifecycle, r *Resolver) {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return r.CloseAll()
			},
		})
	}),
)
