package model

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

func TestBaseEstimatorState(t *testing.T) {
	var e BaseEstimator
	if e.IsFitted() {
		t.Fatal("zero value should not be fitted")
	}
	e.SetFitted()
	if !e.IsFitted() {
		t.Fatal("SetFitted should mark the estimator as fitted")
	}
	e.Reset()
	if e.IsFitted() {
		t.Fatal("Reset should clear the fitted state")
	}
}

func TestBaseEstimatorID(t *testing.T) {
	var a, b BaseEstimator
	if a.ID() == "" || a.ID() != a.ID() {
		t.Error("ID should be stable once generated")
	}
	if a.ID() == b.ID() {
		t.Error("distinct estimators should get distinct IDs")
	}
}

type snapshot struct {
	Name   string
	Values []float64
}

func TestPersistenceRoundTrip(t *testing.T) {
	in := snapshot{Name: "forest", Values: []float64{1.5, -2, 3}}

	var buf bytes.Buffer
	if err := SaveModelToWriter(in, &buf); err != nil {
		t.Fatalf("SaveModelToWriter: %v", err)
	}
	var out snapshot
	if err := LoadModelFromReader(&out, &buf); err != nil {
		t.Fatalf("LoadModelFromReader: %v", err)
	}
	if out.Name != in.Name || len(out.Values) != 3 || out.Values[1] != -2 {
		t.Errorf("got %+v, want %+v", out, in)
	}

	path := filepath.Join(t.TempDir(), "model.gob")
	if err := SaveModel(in, path); err != nil {
		t.Fatalf("SaveModel: %v", err)
	}
	var fromFile snapshot
	if err := LoadModel(&fromFile, path); err != nil {
		t.Fatalf("LoadModel: %v", err)
	}
	if fromFile.Name != "forest" {
		t.Errorf("got %+v", fromFile)
	}

	if err := LoadModel(&fromFile, filepath.Join(t.TempDir(), "missing.gob")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestBaseEstimatorCheckFitted(t *testing.T) {
	var e BaseEstimator
	err := e.CheckFitted("RandomForestRegressor", "Predict")
	if err == nil || !strings.Contains(err.Error(), "RandomForestRegressor") {
		t.Fatalf("expected NotFittedError, got %v", err)
	}
	if e.State().String() != "not_fitted" {
		t.Errorf("State = %s", e.State())
	}
	e.SetFitted()
	if err := e.CheckFitted("RandomForestRegressor", "Predict"); err != nil {
		t.Errorf("fitted estimator: %v", err)
	}
	if e.State() != Fitted {
		t.Errorf("State = %s, want fitted", e.State())
	}
}
