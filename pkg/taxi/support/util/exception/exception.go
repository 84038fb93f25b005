// Package exception defines the error taxonomy of the taxi pipeline.
// Every failure a run can report is a *TaxiError carrying a Kind, the module where
// it occurred and, for schema and data problems, the offending column names.
// None of these errors is retried: a run stops at the first one.
package exception

import (
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// Kind classifies a TaxiError.
type Kind string

const (
	// KindSchema reports required columns that are absent from a batch.
	KindSchema Kind = "SchemaError"
	// KindDataQuality reports values that violate a data invariant.
	KindDataQuality Kind = "DataQualityError"
	// KindParse reports a column that cannot be coerced to its expected type.
	KindParse Kind = "ParseError"
	// KindIO reports unreadable inputs and unwritable outputs.
	KindIO Kind = "IOError"
	// KindConfig reports invalid configuration or arguments.
	KindConfig Kind = "ConfigError"
	// KindModel reports misuse of the model pipeline, such as predicting before fitting.
	KindModel Kind = "ModelError"
)

// Sentinel errors matched by errors.Is against any TaxiError of the same kind.
var (
	ErrSchema      = errors.New(string(KindSchema))
	ErrDataQuality = errors.New(string(KindDataQuality))
	ErrParse       = errors.New(string(KindParse))
	ErrIO          = errors.New(string(KindIO))
	ErrConfig      = errors.New(string(KindConfig))
	ErrModel       = errors.New(string(KindModel))
)

var sentinels = map[Kind]error{
	KindSchema:      ErrSchema,
	KindDataQuality: ErrDataQuality,
	KindParse:       ErrParse,
	KindIO:          ErrIO,
	KindConfig:      ErrConfig,
	KindModel:       ErrModel,
}

// TaxiError is the error type returned by every taxi package.
type TaxiError struct {
	// Kind is the error category.
	Kind Kind
	// Module indicates where the error occurred (e.g., "validate", "features", "reader").
	Module string
	// Message is a concise description of the error.
	Message string
	// Columns lists the columns involved, in the order they were checked.
	Columns []string
	// OriginalErr is the wrapped original error.
	OriginalErr error
	// StackTrace is the stack at construction time (for debugging).
	StackTrace string
}

// New creates a TaxiError.
func New(kind Kind, module, message string, originalErr error, columns ...string) *TaxiError {
	buf := make([]byte, 2048)
	n := runtime.Stack(buf, false)

	var cols []string
	if len(columns) > 0 {
		cols = append(cols, columns...)
	}
	return &TaxiError{
		Kind:        kind,
		Module:      module,
		Message:     message,
		Columns:     cols,
		OriginalErr: originalErr,
		StackTrace:  string(buf[:n]),
	}
}

// Newf creates a TaxiError without columns using a format string.
// A trailing error argument is wrapped rather than formatted.
func Newf(kind Kind, module, format string, a ...interface{}) *TaxiError {
	var originalErr error
	if len(a) > 0 {
		if err, ok := a[len(a)-1].(error); ok && strings.Count(format, "%") < len(a) {
			originalErr = err
			a = a[:len(a)-1]
		}
	}
	return New(kind, module, fmt.Sprintf(format, a...), originalErr)
}

// NewSchemaError reports the missing columns of a batch.
func NewSchemaError(module string, missing []string) *TaxiError {
	return New(KindSchema, module, fmt.Sprintf("missing columns: %s", strings.Join(missing, ", ")), nil, missing...)
}

// NewDataQualityError reports a violated invariant on a column.
func NewDataQualityError(module, column, message string) *TaxiError {
	return New(KindDataQuality, module, message, nil, column)
}

// NewParseError reports a column that could not be coerced.
func NewParseError(module, column string, err error) *TaxiError {
	return New(KindParse, module, fmt.Sprintf("cannot parse column %s", column), err, column)
}

// NewIOError reports a failed read or write of path.
func NewIOError(module, path string, err error) *TaxiError {
	return New(KindIO, module, fmt.Sprintf("i/o failure on %s", path), err)
}

// Error implements the error interface.
func (e *TaxiError) Error() string {
	if e.OriginalErr != nil {
		return fmt.Sprintf("%s [%s] %s: %v", e.Kind, e.Module, e.Message, e.OriginalErr)
	}
	return fmt.Sprintf("%s [%s] %s", e.Kind, e.Module, e.Message)
}

// Unwrap returns the original error for errors.Unwrap.
func (e *TaxiError) Unwrap() error {
	return e.OriginalErr
}

// Is reports whether target is the sentinel of this error's kind.
func (e *TaxiError) Is(target error) bool {
	if s, ok := sentinels[e.Kind]; ok && s == target {
		return true
	}
	if te, ok := target.(*TaxiError); ok {
		return te.Kind == e.Kind && te.Module == e.Module && te.Message == e.Message
	}
	return false
}

// IsSchemaError reports whether err is or wraps a schema error.
func IsSchemaError(err error) bool { return errors.Is(err, ErrSchema) }

// IsDataQualityError reports whether err is or wraps a data quality error.
func IsDataQualityError(err error) bool { return errors.Is(err, ErrDataQuality) }

// IsParseError reports whether err is or wraps a parse error.
func IsParseError(err error) bool { return errors.Is(err, ErrParse) }

// IsIOError reports whether err is or wraps an I/O error.
func IsIOError(err error) bool { return errors.Is(err, ErrIO) }

// IsConfigError reports whether err is or wraps a configuration error.
func IsConfigError(err error) bool { return errors.Is(err, ErrConfig) }

// KindOf returns the kind of the first TaxiError in err's chain, or "" if there is none.
func KindOf(err error) Kind {
	for _, te := range flatten(err) {
		return te.Kind
	}
	return ""
}

// Columns returns the columns named by every TaxiError of the given kind in err,
// including errors aggregated in a *multierror.Error. Duplicates are dropped and
// the order of first appearance is kept.
func Columns(err error, kind Kind) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, te := range flatten(err) {
		if te.Kind != kind {
			continue
		}
		for _, c := range te.Columns {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			out = append(out, c)
		}
	}
	return out
}

// MissingColumns returns the columns reported missing by schema errors in err.
func MissingColumns(err error) []string {
	return Columns(err, KindSchema)
}

// Kinds returns the sorted distinct kinds present in err.
func Kinds(err error) []Kind {
	set := make(map[Kind]struct{})
	for _, te := range flatten(err) {
		set[te.Kind] = struct{}{}
	}
	out := make([]Kind, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// flatten walks err, expanding multierror aggregates, and collects every TaxiError.
func flatten(err error) []*TaxiError {
	if err == nil {
		return nil
	}
	var merr *multierror.Error
	if errors.As(err, &merr) {
		var out []*TaxiError
		for _, e := range merr.Errors {
			out = append(out, flatten(e)...)
		}
		return out
	}
	var te *TaxiError
	if errors.As(err, &te) {
		return []*TaxiError{te}
	}
	return nil
}

// ExtractErrorMessage returns the Message of a TaxiError, or err.Error() otherwise.
func ExtractErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var te *TaxiError
	if errors.As(err, &te) {
		return te.Message
	}
	return err.Error()
}
