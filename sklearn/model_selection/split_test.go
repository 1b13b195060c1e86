package model_selection

import (
	"math"
	"reflect"
	"sort"
	"testing"

	"github.com/YuminosukeSato/scoreforest/core/dataset"
	"github.com/YuminosukeSato/scoreforest/pkg/errors"
)

func TestTrainTestSplitIndicesPartition(t *testing.T) {
	tests := []struct {
		n        int
		fraction float64
		seed     int64
		wantTest int
	}{
		{n: 10, fraction: 0.2, seed: 17, wantTest: 2},
		{n: 101, fraction: 0.25, seed: 42, wantTest: 25},
		{n: 4, fraction: 0.5, seed: 0, wantTest: 2},
		{n: 3, fraction: 0.1, seed: 1, wantTest: 0},
		{n: 0, fraction: 0.5, seed: 1, wantTest: 0},
	}

	for _, tt := range tests {
		train, test, err := TrainTestSplitIndices(tt.n, tt.fraction, tt.seed)
		if err != nil {
			t.Fatalf("n=%d: %v", tt.n, err)
		}
		if len(test) != tt.wantTest {
			t.Errorf("n=%d fraction=%v: test size %d, want %d", tt.n, tt.fraction, len(test), tt.wantTest)
		}

		// 互いに素かつ網羅的
		all := append(append([]int(nil), train...), test...)
		sort.Ints(all)
		if len(all) != tt.n {
			t.Fatalf("n=%d: union has %d indices", tt.n, len(all))
		}
		for i, v := range all {
			if v != i {
				t.Fatalf("n=%d: union is not 0..n-1 (position %d holds %d)", tt.n, i, v)
			}
		}
	}
}

func TestTrainTestSplitIndicesDeterministic(t *testing.T) {
	trainA, testA, _ := TrainTestSplitIndices(50, 0.3, 7)
	trainB, testB, _ := TrainTestSplitIndices(50, 0.3, 7)
	if !reflect.DeepEqual(trainA, trainB) || !reflect.DeepEqual(testA, testB) {
		t.Error("equal seeds must give identical splits")
	}

	_, testC, _ := TrainTestSplitIndices(50, 0.3, 8)
	if reflect.DeepEqual(testA, testC) {
		t.Error("different seeds should give different splits")
	}
}

func TestTrainTestSplitInvalidFraction(t *testing.T) {
	for _, f := range []float64{0, 1, -0.1, 1.5, math.NaN()} {
		_, _, err := TrainTestSplitIndices(10, f, 0)
		var fracErr *errors.InvalidFractionError
		if !errors.As(err, &fracErr) {
			t.Errorf("fraction %v: expected InvalidFractionError, got %v", f, err)
		}
	}
}

func TestTrainTestSplitDataset(t *testing.T) {
	rows := make([][]float64, 20)
	labels := make([]float64, 20)
	for i := range rows {
		rows[i] = []float64{float64(i)}
		labels[i] = float64(i * 10)
	}
	ds, err := dataset.New(rows, labels, []string{"x"}, "y")
	if err != nil {
		t.Fatal(err)
	}

	train, test, err := TrainTestSplit(ds, 0.2, 17)
	if err != nil {
		t.Fatalf("TrainTestSplit: %v", err)
	}
	if train.NumRows() != 16 || test.NumRows() != 4 {
		t.Fatalf("sizes = %d/%d, want 16/4", train.NumRows(), test.NumRows())
	}
	// 行とラベルの対応が保たれている
	for i := 0; i < test.NumRows(); i++ {
		if test.Label(i) != test.At(i, 0)*10 {
			t.Errorf("row %d lost its label", i)
		}
	}
}

func TestKFold(t *testing.T) {
	kf := NewKFold(3, true, 5)
	folds, err := kf.Split(10)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(folds) != 3 {
		t.Fatalf("got %d folds", len(folds))
	}

	seen := make(map[int]int)
	for i, f := range folds {
		if len(f.TrainIndices)+len(f.TestIndices) != 10 {
			t.Errorf("fold %d does not cover every sample", i)
		}
		for _, idx := range f.TestIndices {
			seen[idx]++
		}
	}
	for i := 0; i < 10; i++ {
		if seen[i] != 1 {
			t.Errorf("index %d appears in %d test folds", i, seen[i])
		}
	}
	if len(folds[0].TestIndices) != 4 || len(folds[2].TestIndices) != 3 {
		t.Error("the first n%k folds should be one larger")
	}

	if _, err := NewKFold(5, false, 0).Split(3); err == nil {
		t.Error("expected error when n < k")
	}
}
