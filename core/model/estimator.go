package model

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scoreforest/core/dataset"
)

// Fitter は学習可能なモデルのインターフェース
type Fitter interface {
	// Fit はモデルを訓練データで学習させる
	Fit(ds *dataset.Dataset) error
}

// Predictor は予測可能なモデルのインターフェース
type Predictor interface {
	// Predict は入力データの各行に対する予測値を返す
	Predict(X mat.Matrix) (*mat.VecDense, error)
}

// Regressor は回帰モデルのインターフェース
type Regressor interface {
	Fitter
	Predictor
	// Score はデータセットに対する決定係数（R²）を計算する
	Score(ds *dataset.Dataset) (float64, error)
	// FeatureImportances は正規化された不純度減少量ベースの特徴量重要度を返す
	FeatureImportances() ([]float64, error)
}
