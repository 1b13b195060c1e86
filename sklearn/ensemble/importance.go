package ensemble

import (
	"github.com/YuminosukeSato/scoreforest/sklearn/tree"
)

// FeatureImportances は全ての木の全ての分割ノードについて
// ImpurityDecrease*Samples を特徴量ごとに合計し、総和で正規化した値を返す。
// 総和がゼロ（全ての木が葉のみ）の場合は全てゼロ。木の順序には依存しない。
func (f *RandomForestRegressor) FeatureImportances() ([]float64, error) {
	if err := f.CheckFitted("RandomForestRegressor", "FeatureImportances"); err != nil {
		return nil, err
	}
	total := make([]float64, f.nFeatures)
	for _, t := range f.trees {
		t.AddImpurityContributions(total)
	}
	return tree.Normalize(total), nil
}
