package ensemble

import (
	"fmt"
	"io"

	"github.com/YuminosukeSato/scoreforest/core/model"
	"github.com/YuminosukeSato/scoreforest/pkg/errors"
	"github.com/YuminosukeSato/scoreforest/sklearn/tree"
)

// snapshotVersion は保存形式のバージョン
const snapshotVersion = 1

// forestSnapshot はgobで保存される学習済みフォレストの内容
type forestSnapshot struct {
	Version       int
	Params        ForestParams
	Trees         []*tree.Tree
	NFeatures     int
	FeatureNames  []string
	OOBPrediction []float64
	OOBScore      float64
	OOBError      string
}

// Save は学習済みフォレストを w に書き出す
func (f *RandomForestRegressor) Save(w io.Writer) error {
	if err := f.CheckFitted("RandomForestRegressor", "Save"); err != nil {
		return err
	}
	return model.SaveModelToWriter(f.snapshot(), w)
}

// SaveFile は学習済みフォレストをファイルに保存する
func (f *RandomForestRegressor) SaveFile(path string) error {
	if err := f.CheckFitted("RandomForestRegressor", "SaveFile"); err != nil {
		return err
	}
	return model.SaveModel(f.snapshot(), path)
}

func (f *RandomForestRegressor) snapshot() forestSnapshot {
	snap := forestSnapshot{
		Version:       snapshotVersion,
		Params:        f.Params(),
		Trees:         f.trees,
		NFeatures:     f.nFeatures,
		FeatureNames:  f.featureNames,
		OOBPrediction: f.oobPrediction,
		OOBScore:      f.oobScoreValue,
	}
	if f.oobErr != nil {
		snap.OOBError = f.oobErr.Error()
	}
	return snap
}

// Load は Save で書き出したフォレストを読み込む
func Load(r io.Reader, options ...Option) (*RandomForestRegressor, error) {
	var snap forestSnapshot
	if err := model.LoadModelFromReader(&snap, r); err != nil {
		return nil, err
	}
	return fromSnapshot(snap, options)
}

// LoadFile は SaveFile で保存したフォレストを読み込む
func LoadFile(path string, options ...Option) (*RandomForestRegressor, error) {
	var snap forestSnapshot
	if err := model.LoadModel(&snap, path); err != nil {
		return nil, err
	}
	return fromSnapshot(snap, options)
}

func fromSnapshot(snap forestSnapshot, options []Option) (*RandomForestRegressor, error) {
	if snap.Version != snapshotVersion {
		return nil, errors.NewValueError("ensemble.Load", fmt.Sprintf("unsupported model version %d", snap.Version))
	}
	if len(snap.Trees) == 0 {
		return nil, errors.NewValueError("ensemble.Load", "model contains no trees")
	}
	if snap.NFeatures < 1 {
		return nil, errors.NewValueError("ensemble.Load", fmt.Sprintf("model has %d features", snap.NFeatures))
	}
	for i, t := range snap.Trees {
		if t == nil || t.NFeatures != snap.NFeatures {
			return nil, errors.NewValueError("ensemble.Load", fmt.Sprintf("tree %d is malformed", i))
		}
		if err := t.Validate(); err != nil {
			return nil, errors.Wrapf(err, "ensemble.Load: tree %d", i)
		}
	}

	p := snap.Params
	f := &RandomForestRegressor{
		nEstimators:     p.NEstimators,
		params:          p.Tree,
		maxFeaturesSqrt: p.MaxFeaturesSqrt,
		randomState:     p.RandomState,
		bootstrap:       p.Bootstrap,
		oobScore:        p.OOBScore,
	}
	for _, opt := range options {
		opt(f)
	}
	f.trees = snap.Trees
	f.nFeatures = snap.NFeatures
	f.featureNames = snap.FeatureNames
	f.oobPrediction = snap.OOBPrediction
	f.oobScoreValue = snap.OOBScore
	if snap.OOBError != "" {
		f.oobErr = errors.New(snap.OOBError)
	}
	f.SetFitted()
	return f, nil
}
