package dataset

import (
	"math"
	"strings"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scoreforest/pkg/errors"
)

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name    string
		rows    [][]float64
		labels  []float64
		names   []string
		wantErr interface{}
	}{
		{
			name:    "ragged rows",
			rows:    [][]float64{{1, 2}, {3}},
			labels:  []float64{1, 2},
			wantErr: &errors.DimensionError{},
		},
		{
			name:    "label length mismatch",
			rows:    [][]float64{{1}, {2}},
			labels:  []float64{1},
			wantErr: &errors.DimensionError{},
		},
		{
			name:    "name count mismatch",
			rows:    [][]float64{{1, 2}},
			labels:  []float64{1},
			names:   []string{"a"},
			wantErr: &errors.ValidationError{},
		},
		{
			name:    "NaN feature",
			rows:    [][]float64{{1}, {math.NaN()}},
			labels:  []float64{1, 2},
			wantErr: &errors.NumericalInstabilityError{},
		},
		{
			name:    "Inf label",
			rows:    [][]float64{{1}},
			labels:  []float64{math.Inf(1)},
			wantErr: &errors.NumericalInstabilityError{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.rows, tt.labels, tt.names, "y")
			if err == nil {
				t.Fatal("expected error")
			}
			switch tt.wantErr.(type) {
			case *errors.DimensionError:
				var target *errors.DimensionError
				if !errors.As(err, &target) {
					t.Errorf("expected DimensionError, got %v", err)
				}
			case *errors.ValidationError:
				var target *errors.ValidationError
				if !errors.As(err, &target) {
					t.Errorf("expected ValidationError, got %v", err)
				}
			case *errors.NumericalInstabilityError:
				var target *errors.NumericalInstabilityError
				if !errors.As(err, &target) {
					t.Errorf("expected NumericalInstabilityError, got %v", err)
				}
			}
		})
	}
}

func TestDatasetIsImmutable(t *testing.T) {
	rows := [][]float64{{1, 2}, {3, 4}}
	labels := []float64{10, 20}
	names := []string{"a", "b"}

	ds, err := New(rows, labels, names, "pts")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// 入力の変更は Dataset に影響しない
	rows[0][0] = 99
	labels[0] = 99
	names[0] = "z"
	if ds.At(0, 0) != 1 || ds.Label(0) != 10 || ds.FeatureNames()[0] != "a" {
		t.Error("Dataset must copy its inputs")
	}

	// アクセサの戻り値の変更も影響しない
	ds.Row(1)[0] = -1
	ds.Labels()[1] = -1
	ds.Matrix().Set(0, 1, -1)
	if ds.At(1, 0) != 3 || ds.Label(1) != 20 || ds.At(0, 1) != 2 {
		t.Error("accessors must return copies")
	}

	if ds.NumRows() != 2 || ds.NumFeatures() != 2 || ds.LabelName() != "pts" {
		t.Errorf("unexpected shape %dx%d label %q", ds.NumRows(), ds.NumFeatures(), ds.LabelName())
	}
}

func TestEmptyDataset(t *testing.T) {
	ds, err := New(nil, nil, []string{"a", "b"}, "y")
	if err != nil {
		t.Fatalf("empty dataset should be valid: %v", err)
	}
	if ds.NumRows() != 0 || ds.NumFeatures() != 2 {
		t.Errorf("shape = %dx%d, want 0x2", ds.NumRows(), ds.NumFeatures())
	}
	if ds.Matrix() != nil || ds.LabelVec() != nil {
		t.Error("empty dataset has no gonum representation")
	}
}

func TestDefaultNames(t *testing.T) {
	ds, err := New([][]float64{{1, 2, 3}}, []float64{0}, nil, "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got := strings.Join(ds.FeatureNames(), ",")
	if got != "x0,x1,x2" || ds.LabelName() != "y" {
		t.Errorf("names = %s label = %s", got, ds.LabelName())
	}
}

func TestFromMatrix(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6})
	y := mat.NewVecDense(3, []float64{7, 8, 9})

	ds, err := FromMatrix(X, y, []string{"a", "b"}, "c")
	if err != nil {
		t.Fatalf("FromMatrix: %v", err)
	}
	if !mat.Equal(ds.Matrix(), X) || !mat.Equal(ds.LabelVec(), y) {
		t.Error("round trip through Dataset should preserve values")
	}

	if _, err := FromMatrix(X, mat.NewVecDense(2, nil), nil, "c"); err == nil {
		t.Error("expected error for label length mismatch")
	}
}

func TestSubset(t *testing.T) {
	ds, _ := New([][]float64{{1}, {2}, {3}}, []float64{10, 20, 30}, []string{"a"}, "y")

	sub, err := ds.Subset([]int{2, 0, 2})
	if err != nil {
		t.Fatalf("Subset: %v", err)
	}
	want := []float64{30, 10, 30}
	for i, w := range want {
		if sub.Label(i) != w || sub.At(i, 0) != w/10 {
			t.Errorf("row %d = (%v, %v), want (%v, %v)", i, sub.At(i, 0), sub.Label(i), w/10, w)
		}
	}

	if _, err := ds.Subset([]int{3}); err == nil {
		t.Error("expected error for out of range index")
	}
}
