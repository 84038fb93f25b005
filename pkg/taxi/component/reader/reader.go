// Package reader loads trip partitions from local or object storage into a
// single in-memory table.
package reader

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/adapter/storage"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/support/util/exception"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/support/util/logger"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/table"
)

const moduleName = "reader"

// Supported partition formats, by file extension.
const (
	ExtParquet = ".parquet"
	ExtCSV     = ".csv"
)

// ProviderRenames maps the trip record provider's column names to the
// snake_case names used throughout the pipeline.
var ProviderRenames = map[string]string{
	"VendorID":     "vendor_id",
	"RatecodeID":   "rate_code_id",
	"PULocationID": "pu_location_id",
	"DOLocationID": "do_location_id",
	"payment_type": "payment_type_id",
	"Airport_fee":  "airport_fee",
}

// ReadOptions tune ReadPartitions.
type ReadOptions struct {
	// KeepColumns restricts every partition to these columns, when present.
	// Empty keeps all columns.
	KeepColumns []string
}

// PartitionReader reads partitions through the storage resolver.
type PartitionReader struct {
	resolver *storage.Resolver
}

// NewPartitionReader creates a PartitionReader.
func NewPartitionReader(resolver *storage.Resolver) *PartitionReader {
	return &PartitionReader{resolver: resolver}
}

// ReadPartitions reads every path in order and concatenates the partitions.
// Directories and object prefixes are expanded to the parquet and CSV files
// they contain. Any unreadable partition fails the whole read.
func (r *PartitionReader) ReadPartitions(ctx context.Context, paths []string, opts ReadOptions) (*table.Table, error) {
	if len(paths) == 0 {
		return nil, exception.Newf(exception.KindConfig, moduleName, "no input partitions given")
	}
	locs, err := r.resolver.Expand(ctx, paths, ExtParquet, ExtCSV)
	if err != nil {
		return nil, exception.New(exception.KindIO, moduleName, "failed to resolve input partitions", err)
	}

	parts := make([]*table.Table, 0, len(locs))
	for _, loc := range locs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		t, err := r.ReadPartition(ctx, loc)
		if err != nil {
			return nil, err
		}
		if len(opts.KeepColumns) > 0 {
			t = t.Keep(opts.KeepColumns...)
		}
		logger.Infof("Read %d rows from %s", t.NumRows(), loc)
		parts = append(parts, t)
	}

	out, err := table.Concat(parts...)
	if err != nil {
		return nil, exception.New(exception.KindIO, moduleName, "failed to concatenate partitions", err)
	}
	logger.Infof("Concatenated %d partitions: %d rows, %d columns", len(parts), out.NumRows(), out.NumCols())
	return out, nil
}

// ReadPartition reads one partition and applies ProviderRenames.
func (r *PartitionReader) ReadPartition(ctx context.Context, loc storage.Location) (*table.Table, error) {
	rc, err := r.resolver.Open(ctx, loc)
	if err != nil {
		return nil, exception.NewIOError(moduleName, loc.String(), err)
	}
	defer rc.Close()

	var t *table.Table
	switch loc.Ext() {
	case ExtCSV:
		t, err = DecodeCSV(rc)
	default:
		var data []byte
		if data, err = io.ReadAll(rc); err == nil {
			t, err = DecodeParquet(data)
		}
	}
	if err != nil {
		return nil, exception.NewIOError(moduleName, loc.String(), err)
	}

	renamed, err := t.Rename(renamesFor(t))
	if err != nil {
		return nil, exception.NewIOError(moduleName, loc.String(), err)
	}
	return renamed, nil
}

// renamesFor drops renames whose target already exists in t.
func renamesFor(t *table.Table) map[string]string {
	out := make(map[string]string, len(ProviderRenames))
	for from, to := range ProviderRenames {
		if t.Has(from) && !t.Has(to) {
			out[from] = to
		}
	}
	return out
}

// ReadBytes decodes an in-memory partition; ext selects the format.
func ReadBytes(data []byte, ext string) (*table.Table, error) {
	switch ext {
	case ExtCSV:
		return DecodeCSV(bytes.NewReader(data))
	case ExtParquet:
		return DecodeParquet(data)
	default:
		return nil, fmt.Errorf("unsupported partition format '%s'", ext)
	}
}
