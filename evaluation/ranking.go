package evaluation

import (
	"sort"

	"github.com/YuminosukeSato/scoreforest/pkg/errors"
)

// FeatureImportance pairs a feature name with its normalized importance.
type FeatureImportance struct {
	Feature    string
	Importance float64
}

// RankImportances orders features by descending importance. Equal
// importances keep their original column order.
func RankImportances(names []string, importances []float64) ([]FeatureImportance, error) {
	if len(names) != len(importances) {
		return nil, errors.NewDimensionError("RankImportances", len(names), len(importances), 1)
	}
	ranked := make([]FeatureImportance, len(names))
	for i := range names {
		ranked[i] = FeatureImportance{Feature: names[i], Importance: importances[i]}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Importance > ranked[j].Importance
	})
	return ranked, nil
}

// Top returns at most n leading entries. n <= 0 returns all of them.
func Top(ranked []FeatureImportance, n int) []FeatureImportance {
	if n <= 0 || n >= len(ranked) {
		return ranked
	}
	return ranked[:n]
}
