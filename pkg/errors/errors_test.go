package errors

import (
	"fmt"
	"math"
	"strings"
	"testing"
)

func TestNewModelError(t *testing.T) {
	tests := []struct {
		name     string
		op       string
		kind     string
		err      error
		wantMsg  string
		hasStack bool
	}{
		{
			name:     "with original error",
			op:       "Fit",
			kind:     "tree construction failed",
			err:      fmt.Errorf("test error"),
			wantMsg:  "scoreforest: Fit: tree construction failed: test error",
			hasStack: true,
		},
		{
			name:     "without original error",
			op:       "Predict",
			kind:     "not fitted",
			err:      nil,
			wantMsg:  "scoreforest: Predict: not fitted",
			hasStack: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewModelError(tt.op, tt.kind, tt.err)

			// 基本的なエラーメッセージの確認
			if err.Error() != tt.wantMsg {
				t.Errorf("Error() = %v, want %v", err.Error(), tt.wantMsg)
			}

			// スタックトレースの存在確認
			if tt.hasStack {
				formatted := fmt.Sprintf("%+v", err)
				if !strings.Contains(formatted, "errors_test.go") {
					t.Error("Expected stack trace to contain test file name")
				}
			}

			var modelErr *ModelError
			if !As(err, &modelErr) {
				t.Error("Error should be castable to *ModelError")
			}
		})
	}
}

func TestEngineErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "invalid fraction",
			err:  NewInvalidFractionError("TrainTestSplit", 1.5),
			want: "scoreforest: TrainTestSplit: test fraction must be in (0, 1), got 1.5",
		},
		{
			name: "empty dataset",
			err:  NewEmptyDatasetError("RandomForestRegressor.Fit"),
			want: "scoreforest: RandomForestRegressor.Fit: dataset has no rows",
		},
		{
			name: "feature count mismatch for matrix",
			err:  NewFeatureCountMismatchError("Predict", -1, 3, 2),
			want: "scoreforest: Predict: input has 2 features, model was trained on 3",
		},
		{
			name: "feature count mismatch for row",
			err:  NewFeatureCountMismatchError("PredictRows", 4, 3, 5),
			want: "scoreforest: PredictRows: row 4 has 5 features, model was trained on 3",
		},
		{
			name: "length mismatch",
			err:  NewLengthMismatchError("MAE", 3, 2),
			want: "scoreforest: MAE: length mismatch (y_true=3, y_pred=2)",
		},
		{
			name: "empty metric input",
			err:  NewLengthMismatchError("R2Score", 0, 0),
			want: "scoreforest: R2Score: empty input (y_true=0, y_pred=0)",
		},
		{
			name: "degenerate variance",
			err:  NewDegenerateLabelVarianceError("R2Score", 5),
			want: "scoreforest: R2Score: y_true has zero variance (all 5) and predictions differ from it",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.want {
				t.Errorf("Error() = %q, want %q", tt.err.Error(), tt.want)
			}
		})
	}
}

func TestEngineErrorsAreMatchable(t *testing.T) {
	var fracErr *InvalidFractionError
	if !As(Wrap(NewInvalidFractionError("split", 0), "splitting"), &fracErr) {
		t.Error("wrapped InvalidFractionError should be castable")
	}

	var emptyErr *EmptyDatasetError
	err := NewEmptyDatasetError("Fit")
	if !As(err, &emptyErr) {
		t.Error("EmptyDatasetError should be castable")
	}
	if !Is(err, ErrEmptyData) {
		t.Error("EmptyDatasetError should match ErrEmptyData")
	}

	var mismatch *FeatureCountMismatchError
	if !As(NewFeatureCountMismatchError("Predict", 2, 4, 1), &mismatch) {
		t.Fatal("FeatureCountMismatchError should be castable")
	}
	if mismatch.Row != 2 || mismatch.Expected != 4 || mismatch.Got != 1 {
		t.Errorf("unexpected fields: %+v", mismatch)
	}

	var degenerate *DegenerateLabelVarianceError
	if !As(NewDegenerateLabelVarianceError("R2Score", 1), &degenerate) {
		t.Error("DegenerateLabelVarianceError should be castable")
	}
}

func TestNewNotFittedError(t *testing.T) {
	err := NewNotFittedError("RandomForestRegressor", "Predict")

	want := "scoreforest: RandomForestRegressor: this model is not fitted yet. Call Fit() before using Predict()"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var notFittedErr *NotFittedError
	if !As(err, &notFittedErr) {
		t.Error("Error should be castable to *NotFittedError")
	}
}

func TestNewDimensionError(t *testing.T) {
	err := NewDimensionError("dataset.New", 10, 9, 0)

	want := "scoreforest: dataset.New: dimension mismatch on axis 0 (rows). Expected 10, got 9"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var dimErr *DimensionError
	if !As(err, &dimErr) {
		t.Error("Error should be castable to *DimensionError")
	}
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("min_samples_split", "must be at least 2", 1)

	want := "scoreforest: validation failed for parameter 'min_samples_split': must be at least 2 (got: 1)"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}
}

func TestUndefinedMetricWarning(t *testing.T) {
	w := NewUndefinedMetricWarning("r2", "zero variance in y_true", 0)
	want := "'r2' is ill-defined and being set to 0.000000 due to zero variance in y_true."
	if w.Error() != want {
		t.Errorf("Error() = %q, want %q", w.Error(), want)
	}
}

func TestWarnDispatch(t *testing.T) {
	var got []error
	SetWarningHandler(func(w error) { got = append(got, w) })
	defer SetWarningHandler(nil)

	Warn(NewUndefinedMetricWarning("r2", "test", 0))
	if len(got) != 1 {
		t.Fatalf("expected 1 warning through fallback handler, got %d", len(got))
	}

	var viaZerolog int
	SetZerologWarnFunc(func(error) { viaZerolog++ })
	defer SetZerologWarnFunc(nil)

	Warn(NewUndefinedMetricWarning("r2", "test", 0))
	if viaZerolog != 1 || len(got) != 1 {
		t.Errorf("zerolog sink should take precedence: zerolog=%d fallback=%d", viaZerolog, len(got))
	}
}

func TestWrapf(t *testing.T) {
	wrapped := Wrapf(ErrEmptyData, "in %s: expected %d, got %d", "Fit", 10, 0)

	if !Is(wrapped, ErrEmptyData) {
		t.Error("Expected Is(wrapped, ErrEmptyData) to be true")
	}

	expectedMsg := "in Fit: expected 10, got 0"
	if !strings.Contains(wrapped.Error(), expectedMsg) {
		t.Errorf("Expected wrapped error to contain %q", expectedMsg)
	}
}

func TestCheckNumericalStability(t *testing.T) {
	if err := CheckNumericalStability("row", []float64{1, 2, 3}, 0); err != nil {
		t.Errorf("finite values should pass, got %v", err)
	}

	err := CheckNumericalStability("row", []float64{1, math.NaN()}, 7)
	var numErr *NumericalInstabilityError
	if !As(err, &numErr) {
		t.Fatalf("expected NumericalInstabilityError, got %v", err)
	}
	if numErr.Index != 7 {
		t.Errorf("Index = %d, want 7", numErr.Index)
	}

	if err := CheckScalar("label", math.Inf(-1), 3); err == nil {
		t.Error("-Inf should be rejected")
	}
}
