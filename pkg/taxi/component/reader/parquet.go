package reader

import (
	"fmt"
	"math"
	"time"

	"github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go/common"
	"github.com/xitongsys/parquet-go/parquet"
	preader "github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/types"

	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/support/util/logger"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/table"
)

// parquetParallelism is the number of goroutines parquet-go uses per column read.
const parquetParallelism = 4

// kind is how a parquet leaf column maps onto a table column.
type kind int

const (
	kindFloat kind = iota
	kindTime
	kindString
)

// leaf describes one flat parquet column.
type leaf struct {
	name    string
	kind    kind
	unit    time.Duration // for INT64/INT32 timestamps and dates
	int96   bool
	decimal int32 // scale of DECIMAL columns stored as integers
}

// DecodeParquet reads every flat column of a parquet file held in memory.
// Nested and repeated columns are skipped with a warning.
func DecodeParquet(data []byte) (t *table.Table, err error) {
	// parquet-go panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			t, err = nil, fmt.Errorf("parquet reader panicked: %v", r)
		}
	}()

	pr, err := preader.NewParquetColumnReader(buffer.NewBufferFileFromBytes(data), parquetParallelism)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer pr.ReadStop()

	n := pr.GetNumRows()
	leaves, err := leafColumns(pr.Footer.Schema)
	if err != nil {
		return nil, err
	}

	root := pr.SchemaHandler.GetRootExName()
	cols := make([]*table.Column, 0, len(leaves))
	for _, l := range leaves {
		if l == nil {
			continue
		}
		values, _, _, err := pr.ReadColumnByPath(common.PathToStr([]string{root, l.name}), n)
		if err != nil {
			return nil, fmt.Errorf("failed to read parquet column %s: %w", l.name, err)
		}
		if int64(len(values)) != n {
			return nil, fmt.Errorf("parquet column %s has %d values for %d rows", l.name, len(values), n)
		}
		col, err := l.column(values)
		if err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}
	return table.New(cols...)
}

// leafColumns returns one entry per leaf column in schema order. Entries are
// nil for columns that are skipped.
func leafColumns(schema []*parquet.SchemaElement) ([]*leaf, error) {
	if len(schema) == 0 {
		return nil, fmt.Errorf("parquet file has no schema")
	}
	var out []*leaf
	var walk func(i, depth int, skip bool) int
	walk = func(i, depth int, skip bool) int {
		el := schema[i]
		children := int(el.GetNumChildren())
		repeated := el.IsSetRepetitionType() && el.GetRepetitionType() == parquet.FieldRepetitionType_REPEATED
		if children == 0 {
			if skip || depth > 1 || repeated {
				logger.Warnf("Skipping nested or repeated parquet column '%s'.", el.GetName())
				out = append(out, nil)
			} else {
				out = append(out, describe(el))
			}
			return i + 1
		}
		next := i + 1
		for c := 0; c < children; c++ {
			next = walk(next, depth+1, skip || depth >= 1 || repeated)
		}
		return next
	}

	root := schema[0]
	next := 1
	for c := 0; c < int(root.GetNumChildren()); c++ {
		if next >= len(schema) {
			return nil, fmt.Errorf("malformed parquet schema")
		}
		next = walk(next, 1, false)
	}
	return out, nil
}

func describe(el *parquet.SchemaElement) *leaf {
	l := &leaf{name: el.GetName(), kind: kindFloat}

	if el.IsSetLogicalType() {
		lt := el.GetLogicalType()
		switch {
		case lt.IsSetTIMESTAMP():
			l.kind = kindTime
			switch unit := lt.GetTIMESTAMP().GetUnit(); {
			case unit.IsSetMILLIS():
				l.unit = time.Millisecond
			case unit.IsSetNANOS():
				l.unit = time.Nanosecond
			default:
				l.unit = time.Microsecond
			}
			return l
		case lt.IsSetDATE():
			l.kind, l.unit = kindTime, 24*time.Hour
			return l
		case lt.IsSetSTRING():
			l.kind = kindString
			return l
		}
	}
	if el.IsSetConvertedType() {
		switch el.GetConvertedType() {
		case parquet.ConvertedType_TIMESTAMP_MILLIS:
			l.kind, l.unit = kindTime, time.Millisecond
			return l
		case parquet.ConvertedType_TIMESTAMP_MICROS:
			l.kind, l.unit = kindTime, time.Microsecond
			return l
		case parquet.ConvertedType_DATE:
			l.kind, l.unit = kindTime, 24*time.Hour
			return l
		case parquet.ConvertedType_UTF8, parquet.ConvertedType_ENUM:
			l.kind = kindString
			return l
		case parquet.ConvertedType_DECIMAL:
			l.decimal = el.GetScale()
		}
	}

	switch el.GetType() {
	case parquet.Type_INT96:
		l.kind, l.int96 = kindTime, true
	case parquet.Type_BYTE_ARRAY, parquet.Type_FIXED_LEN_BYTE_ARRAY:
		l.kind = kindString
	}
	return l
}

// column converts raw column values. nil values are missing.
func (l *leaf) column(values []interface{}) (*table.Column, error) {
	switch l.kind {
	case kindTime:
		out := make([]time.Time, len(values))
		for i, v := range values {
			if v == nil {
				continue
			}
			if l.int96 {
				s, ok := v.(string)
				if !ok {
					return nil, fmt.Errorf("parquet column %s: unexpected INT96 value %T", l.name, v)
				}
				out[i] = types.INT96ToTime(s).UTC()
				continue
			}
			x, ok := asInt64(v)
			if !ok {
				return nil, fmt.Errorf("parquet column %s: unexpected timestamp value %T", l.name, v)
			}
			out[i] = time.Unix(0, 0).UTC().Add(time.Duration(x) * l.unit)
		}
		return table.NewTime(l.name, out), nil

	case kindString:
		out := make([]string, len(values))
		for i, v := range values {
			if v == nil {
				continue
			}
			out[i] = fmt.Sprint(v)
		}
		return table.NewString(l.name, out), nil

	default:
		out := make([]float64, len(values))
		scale := math.Pow10(int(l.decimal))
		for i, v := range values {
			if v == nil {
				out[i] = math.NaN()
				continue
			}
			f, ok := asFloat(v)
			if !ok {
				return nil, fmt.Errorf("parquet column %s: unexpected numeric value %T", l.name, v)
			}
			if l.decimal > 0 {
				f /= scale
			}
			out[i] = f
		}
		return table.NewFloat(l.name, out), nil
	}
}

func asInt64(v interface{}) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int32:
		return int64(x), true
	default:
		return 0, false
	}
}

func asFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int64:
		return float64(x), true
	case int32:
		return float64(x), true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}
