// Package model_selection provides seeded train/test splitting and k-fold
// cross-validation splitters.
package model_selection

import (
	"math"
	"math/rand/v2"

	"github.com/YuminosukeSato/scoreforest/core/dataset"
	"github.com/YuminosukeSato/scoreforest/pkg/errors"
	"github.com/YuminosukeSato/scoreforest/pkg/log"
)

// Permutation returns a seeded permutation of 0..n-1.
// The same (n, seed) always yields the same permutation.
func Permutation(n int, seed int64) []int {
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	r := rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
	r.Shuffle(len(indices), func(i, j int) {
		indices[i], indices[j] = indices[j], indices[i]
	})
	return indices
}

// TrainTestSplitIndices partitions 0..n-1 into disjoint train and test index
// sets. The first round(testFraction*n) entries of a seeded permutation form
// the test set, the rest the training set. Both keep permutation order.
//
// testFraction must lie in the open interval (0, 1). Depending on rounding,
// one side may be empty for very small n.
func TrainTestSplitIndices(n int, testFraction float64, seed int64) (train, test []int, err error) {
	if math.IsNaN(testFraction) || testFraction <= 0 || testFraction >= 1 {
		return nil, nil, errors.NewInvalidFractionError("TrainTestSplit", testFraction)
	}
	if n < 0 {
		return nil, nil, errors.NewValueError("TrainTestSplit", "n must be non-negative")
	}

	perm := Permutation(n, seed)
	nTest := int(math.Round(testFraction * float64(n)))

	test = append(make([]int, 0, nTest), perm[:nTest]...)
	train = append(make([]int, 0, n-nTest), perm[nTest:]...)
	return train, test, nil
}

// TrainTestSplit splits a dataset into training and test datasets using
// TrainTestSplitIndices.
func TrainTestSplit(ds *dataset.Dataset, testFraction float64, seed int64) (train, test *dataset.Dataset, err error) {
	trainIdx, testIdx, err := TrainTestSplitIndices(ds.NumRows(), testFraction, seed)
	if err != nil {
		return nil, nil, err
	}
	if train, err = ds.Subset(trainIdx); err != nil {
		return nil, nil, err
	}
	if test, err = ds.Subset(testIdx); err != nil {
		return nil, nil, err
	}

	log.GetLoggerWithName("model_selection").Debug("Split dataset",
		log.OperationKey, log.OperationSplit,
		log.SamplesKey, ds.NumRows(),
		log.TestFractionKey, testFraction,
		log.RandomSeedKey, seed,
		"train", train.NumRows(),
		"test", test.NumRows(),
	)
	return train, test, nil
}
