package model

import (
	"math"
	"math/rand"

	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/support/util/exception"
)

// SampleRows draws k distinct row indices out of n, in draw order. The result is
// deterministic for a seed. When k >= n every index is returned, shuffled.
func SampleRows(n, k int, seed int64) []int {
	rng := rand.New(rand.NewSource(seed))
	perm := rng.Perm(n)
	if k >= n {
		return perm
	}
	return perm[:k]
}

// TrainTestSplit shuffles n row indices with seed and holds out ceil(testSize*n)
// of them. Both parts must be non-empty.
func TrainTestSplit(n int, testSize float64, seed int64) (train, test []int, err error) {
	if !(testSize > 0 && testSize < 1) {
		return nil, nil, exception.Newf(exception.KindConfig, moduleName, "test size must be in (0, 1), got %v", testSize)
	}
	nTest := int(math.Ceil(testSize * float64(n)))
	nTrain := n - nTest
	if nTest < 1 || nTrain < 1 {
		return nil, nil, exception.Newf(exception.KindDataQuality, moduleName,
			"cannot split %d rows with test size %v into non-empty train and test sets", n, testSize)
	}
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	return perm[nTest:], perm[:nTest], nil
}
