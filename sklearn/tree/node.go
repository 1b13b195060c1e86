// Package tree は回帰用のCART決定木を提供します。
//
// ノードは配列（アリーナ）に格納され、インデックス0が根です。分割ノードは
// 特徴量・閾値・左右の子のインデックス・不純度減少量・到達サンプル数を保持し、
// 葉ノードは到達したサンプルのラベル平均を保持します。値が閾値以下の行は左へ進みます。
package tree

import (
	"fmt"

	"github.com/YuminosukeSato/scoreforest/pkg/errors"
)

// Node は木の1ノードです。Leaf が true の場合は Value のみが意味を持ちます。
type Node struct {
	Leaf bool
	// Value は到達したサンプルのラベル平均（葉では予測値）
	Value float64

	Feature   int
	Threshold float64
	Left      int
	Right     int

	// ImpurityDecrease は親の不純度から子の重み付き不純度を引いた値
	ImpurityDecrease float64
	// Samples はノードに到達したサンプル数（ブートストラップの重複を含む）
	Samples  int
	Impurity float64
}

// Tree は学習済みの回帰木です。
type Tree struct {
	Nodes     []Node
	NFeatures int
	Seed      uint64
	Params    TreeParams
	// SampleIndices は学習に使った行（重複可）
	SampleIndices []int
}

// PredictRow は1行の予測値を返します。row の長さは NFeatures であること。
func (t *Tree) PredictRow(row []float64) float64 {
	i := 0
	for {
		n := &t.Nodes[i]
		if n.Leaf {
			return n.Value
		}
		if row[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// Validate は木の構造を検査します。分割ノードの子は自身より後ろの有効な
// インデックスを指し、特徴量は [0, NFeatures) であること。読み込んだ木を
// PredictRow に渡す前に使います。
func (t *Tree) Validate() error {
	if len(t.Nodes) == 0 {
		return errors.NewValueError("tree.Validate", "tree has no nodes")
	}
	for i := range t.Nodes {
		n := &t.Nodes[i]
		if n.Leaf {
			continue
		}
		if n.Left <= i || n.Left >= len(t.Nodes) || n.Right <= i || n.Right >= len(t.Nodes) {
			return errors.NewValueError("tree.Validate",
				fmt.Sprintf("node %d has children %d, %d outside (%d, %d)", i, n.Left, n.Right, i, len(t.Nodes)))
		}
		if n.Feature < 0 || n.Feature >= t.NFeatures {
			return errors.NewValueError("tree.Validate",
				fmt.Sprintf("node %d splits on feature %d, tree has %d", i, n.Feature, t.NFeatures))
		}
	}
	return nil
}

// ImpurityContributions は特徴量ごとの ImpurityDecrease*Samples の合計（未正規化）を返します。
func (t *Tree) ImpurityContributions(nFeatures int) []float64 {
	out := make([]float64, nFeatures)
	t.AddImpurityContributions(out)
	return out
}

// AddImpurityContributions は dst に ImpurityContributions を加算します。
func (t *Tree) AddImpurityContributions(dst []float64) {
	for i := range t.Nodes {
		n := &t.Nodes[i]
		if n.Leaf {
			continue
		}
		dst[n.Feature] += n.ImpurityDecrease * float64(n.Samples)
	}
}

// Depth は根から最も深い葉までの辺の数を返します（根のみの木は0）。
func (t *Tree) Depth() int {
	if len(t.Nodes) == 0 {
		return 0
	}
	type item struct{ node, depth int }
	maxDepth := 0
	stack := []item{{0, 0}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := &t.Nodes[it.node]
		if n.Leaf {
			if it.depth > maxDepth {
				maxDepth = it.depth
			}
			continue
		}
		stack = append(stack, item{n.Left, it.depth + 1}, item{n.Right, it.depth + 1})
	}
	return maxDepth
}

// NumLeaves は葉の数を返します。
func (t *Tree) NumLeaves() int {
	count := 0
	for i := range t.Nodes {
		if t.Nodes[i].Leaf {
			count++
		}
	}
	return count
}

// MixSeed は seed と k から新しいシードを導出します（splitmix64）。
// 森の i 番目の木のシードや、子ノードのシードの導出に使います。
func MixSeed(seed, k uint64) uint64 {
	z := seed + (k+1)*0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
