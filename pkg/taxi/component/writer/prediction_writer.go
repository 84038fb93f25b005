package writer

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/xitongsys/parquet-go/parquet"
	pwriter "github.com/xitongsys/parquet-go/writer"

	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/adapter/storage"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/support/util/exception"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/support/util/logger"
)

// PredictionColumn is the single column of a prediction table.
const PredictionColumn = "prediction_total_amount"

// predictionRow is the parquet schema of a prediction table.
type predictionRow struct {
	PredictionTotalAmount float64 `parquet:"name=prediction_total_amount,type=DOUBLE"`
}

// PredictionWriter writes one prediction per input row, in input order.
type PredictionWriter struct {
	resolver        *storage.Resolver
	compressionType string
}

// NewPredictionWriter creates a PredictionWriter. compressionType applies to
// parquet outputs ("SNAPPY", "GZIP", "NONE").
func NewPredictionWriter(resolver *storage.Resolver, compressionType string) *PredictionWriter {
	return &PredictionWriter{resolver: resolver, compressionType: compressionType}
}

// Write encodes predictions by the extension of path (.parquet, otherwise CSV)
// and uploads the whole document at once.
func (w *PredictionWriter) Write(ctx context.Context, path string, predictions []float64) error {
	loc, err := storage.ParseLocation(path)
	if err != nil {
		return exception.New(exception.KindConfig, moduleName, "invalid output path", err)
	}

	var doc []byte
	contentType := "text/csv"
	if loc.Ext() == ".parquet" {
		doc, err = w.encodeParquet(predictions)
		contentType = "application/octet-stream"
	} else {
		doc, err = encodeCSV(predictions)
	}
	if err != nil {
		return exception.NewIOError(moduleName, loc.String(), err)
	}

	if err := w.resolver.Put(ctx, loc, bytes.NewReader(doc), contentType); err != nil {
		return exception.NewIOError(moduleName, loc.String(), err)
	}
	logger.Infof("Wrote %d predictions -> %s", len(predictions), loc)
	return nil
}

func encodeCSV(predictions []float64) ([]byte, error) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	if err := cw.Write([]string{PredictionColumn}); err != nil {
		return nil, err
	}
	rec := make([]string, 1)
	for _, v := range predictions {
		rec[0] = strconv.FormatFloat(v, 'g', -1, 64)
		if err := cw.Write(rec); err != nil {
			return nil, err
		}
	}
	cw.Flush()
	return buf.Bytes(), cw.Error()
}

// parquetParallelism is the number of goroutines parquet-go marshals rows with.
// It also scales the page flush threshold, so it must stay small.
const parquetParallelism = 4

func (w *PredictionWriter) encodeParquet(predictions []float64) (doc []byte, err error) {
	codec, err := getCompressionCodec(w.compressionType)
	if err != nil {
		return nil, err
	}

	buf := new(bytes.Buffer)
	pw, err := pwriter.NewParquetWriterFromWriter(buf, new(predictionRow), parquetParallelism)
	if err != nil {
		return nil, fmt.Errorf("failed to create parquet writer: %w", err)
	}
	pw.CompressionType = codec

	var multiErr error
	for _, v := range predictions {
		if err := pw.Write(predictionRow{PredictionTotalAmount: v}); err != nil {
			multiErr = multierror.Append(multiErr, fmt.Errorf("failed to write prediction: %w", err))
			break
		}
	}

	// WriteStop can panic inside the library; surface it as an error.
	func() {
		defer func() {
			if r := recover(); r != nil {
				multiErr = multierror.Append(multiErr, fmt.Errorf("parquet writer panicked during WriteStop: %v", r))
			}
		}()
		if err := pw.WriteStop(); err != nil {
			multiErr = multierror.Append(multiErr, fmt.Errorf("failed to stop parquet writer: %w", err))
		}
	}()
	if multiErr != nil {
		return nil, multiErr
	}
	return buf.Bytes(), nil
}

// getCompressionCodec returns the Parquet compression codec from a string.
func getCompressionCodec(compressionType string) (parquet.CompressionCodec, error) {
	switch strings.ToUpper(compressionType) {
	case "SNAPPY":
		return parquet.CompressionCodec_SNAPPY, nil
	case "GZIP":
		return parquet.CompressionCodec_GZIP, nil
	case "NONE", "":
		return parquet.CompressionCodec_UNCOMPRESSED, nil
	default:
		return 0, fmt.Errorf("unsupported compression type: %s", compressionType)
	}
}
