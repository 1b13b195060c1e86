package tree

import (
	"math"

	"github.com/YuminosukeSato/scoreforest/pkg/errors"
)

// TreeParams は木の成長を制御するハイパーパラメータです。
type TreeParams struct {
	// MaxFeatures は各ノードで検討する特徴量の数。0 または特徴量数以上なら全特徴量
	MaxFeatures int
	// MaxDepth は最大深さ。負の値は無制限
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
}

// DefaultTreeParams は全特徴量・深さ無制限・MinSamplesSplit=2・MinSamplesLeaf=1 を返します。
func DefaultTreeParams() TreeParams {
	return TreeParams{
		MaxFeatures:     0,
		MaxDepth:        -1,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
	}
}

// Validate はパラメータの範囲を検証します。
func (p TreeParams) Validate() error {
	if p.MaxFeatures < 0 {
		return errors.NewValidationError("max_features", "must be non-negative", p.MaxFeatures)
	}
	if p.MinSamplesSplit < 2 {
		return errors.NewValidationError("min_samples_split", "must be at least 2", p.MinSamplesSplit)
	}
	if p.MinSamplesLeaf < 1 {
		return errors.NewValidationError("min_samples_leaf", "must be at least 1", p.MinSamplesLeaf)
	}
	return nil
}

// EffectiveMaxFeatures は nFeatures 個の特徴量に対して実際に検討する数を返します。
func (p TreeParams) EffectiveMaxFeatures(nFeatures int) int {
	if p.MaxFeatures <= 0 || p.MaxFeatures > nFeatures {
		return nFeatures
	}
	return p.MaxFeatures
}

// SqrtFeatures は max(1, floor(sqrt(nFeatures))) を返します。
func SqrtFeatures(nFeatures int) int {
	n := int(math.Sqrt(float64(nFeatures)))
	if n < 1 {
		n = 1
	}
	return n
}
