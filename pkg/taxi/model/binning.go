package model

import (
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// binMapper maps raw feature values to at most MaxBins ordered bins.
// Value x of feature f falls into bin b where b is the number of thresholds
// strictly below x.
type binMapper struct {
	Thresholds [][]float64
}

// fitBinMapper computes per-feature thresholds from (a seeded subsample of) x.
// A feature with few distinct values gets the midpoints between consecutive
// values; otherwise thresholds are evenly spaced quantiles.
func fitBinMapper(x [][]float64, maxBins int, seed int64) *binMapper {
	m := &binMapper{Thresholds: make([][]float64, len(x))}
	if len(x) == 0 {
		return m
	}
	n := len(x[0])
	rows := []int(nil)
	if n > binningSubsample {
		rows = rand.New(rand.NewSource(seed)).Perm(n)[:binningSubsample]
	}

	for f, col := range x {
		var values []float64
		if rows == nil {
			values = append([]float64(nil), col...)
		} else {
			values = make([]float64, len(rows))
			for i, r := range rows {
				values[i] = col[r]
			}
		}
		sort.Float64s(values)
		m.Thresholds[f] = thresholds(values, maxBins)
	}
	return m
}

func thresholds(sorted []float64, maxBins int) []float64 {
	distinct := make([]float64, 0, maxBins)
	for i, v := range sorted {
		if i == 0 || v != sorted[i-1] {
			distinct = append(distinct, v)
			if len(distinct) > maxBins {
				break
			}
		}
	}
	if len(distinct) <= maxBins {
		out := make([]float64, 0, len(distinct))
		for i := 1; i < len(distinct); i++ {
			out = append(out, (distinct[i-1]+distinct[i])/2)
		}
		return out
	}

	out := make([]float64, 0, maxBins-1)
	for k := 1; k < maxBins; k++ {
		q := stat.Quantile(float64(k)/float64(maxBins), stat.LinInterp, sorted, nil)
		if len(out) == 0 || q > out[len(out)-1] {
			out = append(out, q)
		}
	}
	return out
}

// nBins returns the number of bins of feature f.
func (m *binMapper) nBins(f int) int {
	return len(m.Thresholds[f]) + 1
}

// transform bins every value of the column-major matrix x.
func (m *binMapper) transform(x [][]float64) [][]uint8 {
	out := make([][]uint8, len(x))
	for f, col := range x {
		th := m.Thresholds[f]
		b := make([]uint8, len(col))
		for i, v := range col {
			b[i] = uint8(sort.SearchFloat64s(th, v))
		}
		out[f] = b
	}
	return out
}
