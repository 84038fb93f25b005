package model

import (
	"fmt"
	"math"
	"sort"

	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/support/util/exception"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/table"
)

// UnknownCategory encodes a categorical value not seen at fit time.
const UnknownCategory = -1.0

// Preprocessor turns a feature table into a dense matrix: numeric columns with
// missing values replaced by the fit-time median, then categorical columns with
// missing values replaced by the fit-time most frequent value and encoded as the
// index of the value among the sorted fit-time categories.
type Preprocessor struct {
	Numeric     []string
	Categorical []string

	Medians    []float64   // one per numeric column
	Modes      []float64   // one per categorical column
	Categories [][]float64 // sorted distinct values, one slice per categorical column
	Fitted     bool
}

// NewPreprocessor validates the column sets. They must be disjoint and not both empty.
func NewPreprocessor(categorical, numeric []string) (*Preprocessor, error) {
	if len(categorical)+len(numeric) == 0 {
		return nil, exception.Newf(exception.KindConfig, moduleName, "no feature columns given")
	}
	seen := make(map[string]string)
	for _, group := range []struct {
		kind string
		cols []string
	}{{"numeric", numeric}, {"categorical", categorical}} {
		for _, c := range group.cols {
			if prev, dup := seen[c]; dup {
				return nil, exception.Newf(exception.KindConfig, moduleName,
					"column %s listed as %s and %s", c, prev, group.kind)
			}
			seen[c] = group.kind
		}
	}
	return &Preprocessor{
		Numeric:     append([]string(nil), numeric...),
		Categorical: append([]string(nil), categorical...),
	}, nil
}

// OutputColumns returns the matrix column order: numeric then categorical.
func (p *Preprocessor) OutputColumns() []string {
	return append(append([]string(nil), p.Numeric...), p.Categorical...)
}

// Fit learns medians, modes and category lists from x.
func (p *Preprocessor) Fit(x *table.Table) error {
	numeric, err := floatColumns(x, p.Numeric)
	if err != nil {
		return err
	}
	categorical, err := floatColumns(x, p.Categorical)
	if err != nil {
		return err
	}

	p.Medians = make([]float64, len(numeric))
	for i, v := range numeric {
		p.Medians[i] = median(v)
	}

	p.Modes = make([]float64, len(categorical))
	p.Categories = make([][]float64, len(categorical))
	for i, v := range categorical {
		p.Modes[i] = mostFrequent(v)
		p.Categories[i] = distinctSorted(v, p.Modes[i])
	}
	p.Fitted = true
	return nil
}

// Transform returns the column-major matrix of x. It does not modify x.
func (p *Preprocessor) Transform(x *table.Table) ([][]float64, error) {
	if !p.Fitted {
		return nil, exception.Newf(exception.KindModel, moduleName, "preprocessor used before fit")
	}
	numeric, err := floatColumns(x, p.Numeric)
	if err != nil {
		return nil, err
	}
	categorical, err := floatColumns(x, p.Categorical)
	if err != nil {
		return nil, err
	}

	out := make([][]float64, 0, len(numeric)+len(categorical))
	for i, v := range numeric {
		col := make([]float64, len(v))
		for r, val := range v {
			if math.IsNaN(val) {
				val = p.Medians[i]
			}
			col[r] = val
		}
		out = append(out, col)
	}
	for i, v := range categorical {
		col := make([]float64, len(v))
		cats := p.Categories[i]
		for r, val := range v {
			if math.IsNaN(val) {
				val = p.Modes[i]
			}
			col[r] = encode(cats, val)
		}
		out = append(out, col)
	}
	return out, nil
}

func encode(cats []float64, v float64) float64 {
	j := sort.SearchFloat64s(cats, v)
	if j < len(cats) && cats[j] == v {
		return float64(j)
	}
	return UnknownCategory
}

func floatColumns(x *table.Table, names []string) ([][]float64, error) {
	if missing := x.Missing(names...); len(missing) > 0 {
		return nil, exception.NewSchemaError(moduleName, missing)
	}
	out := make([][]float64, len(names))
	for i, name := range names {
		c, _ := x.Column(name)
		v, err := c.AsFloat()
		if err != nil {
			return nil, exception.NewParseError(moduleName, name, err)
		}
		out[i] = v
	}
	return out, nil
}

// nonMissing returns a sorted copy of v without NaN.
func nonMissing(v []float64) []float64 {
	out := make([]float64, 0, len(v))
	for _, x := range v {
		if !math.IsNaN(x) {
			out = append(out, x)
		}
	}
	sort.Float64s(out)
	return out
}

// median averages the two middle values for an even count. An all-missing
// column has median 0.
func median(v []float64) float64 {
	s := nonMissing(v)
	n := len(s)
	if n == 0 {
		return 0
	}
	return (s[(n-1)/2] + s[n/2]) / 2
}

// mostFrequent breaks ties towards the smallest value. An all-missing column
// has mode 0.
func mostFrequent(v []float64) float64 {
	s := nonMissing(v)
	if len(s) == 0 {
		return 0
	}
	best, bestCount := s[0], 0
	for i := 0; i < len(s); {
		j := i
		for j < len(s) && s[j] == s[i] {
			j++
		}
		if j-i > bestCount {
			best, bestCount = s[i], j-i
		}
		i = j
	}
	return best
}

// distinctSorted returns the sorted distinct non-missing values of v. fill is
// included because missing values are replaced by it before encoding.
func distinctSorted(v []float64, fill float64) []float64 {
	s := nonMissing(v)
	if len(s) < len(v) {
		s = append(s, fill)
		sort.Float64s(s)
	}
	out := s[:0:0]
	for i, x := range s {
		if i == 0 || x != s[i-1] {
			out = append(out, x)
		}
	}
	return out
}

func (p *Preprocessor) String() string {
	return fmt.Sprintf("Preprocessor(numeric=%v, categorical=%v, fitted=%t)", p.Numeric, p.Categorical, p.Fitted)
}
