package tree

import (
	"fmt"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/YuminosukeSato/scoreforest/core/dataset"
	"github.com/YuminosukeSato/scoreforest/pkg/errors"
)

// relativeTolerance scales with the node impurity: decreases closer than this
// are ties, and a best decrease below it is not a positive improvement.
const relativeTolerance = 1e-10

// Build grows a regression tree on the rows of ds listed in sampleIndices
// (repeats allowed). seed drives per-node feature subsampling: the root uses
// seed and each child mixes its parent's seed with its side.
func Build(ds *dataset.Dataset, sampleIndices []int, params TreeParams, seed uint64) (*Tree, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if len(sampleIndices) == 0 {
		return nil, errors.NewEmptyDatasetError("tree.Build")
	}
	if ds.NumFeatures() == 0 {
		return nil, errors.NewValidationError("n_features", "must be at least 1", 0)
	}
	n := ds.NumRows()
	for _, i := range sampleIndices {
		if i < 0 || i >= n {
			return nil, errors.NewValueError("tree.Build", fmt.Sprintf("sample index %d out of range [0, %d)", i, n))
		}
	}

	idx := append([]int(nil), sampleIndices...)
	b := &builder{
		ds:          ds,
		params:      params,
		nFeatures:   ds.NumFeatures(),
		maxFeatures: params.EffectiveMaxFeatures(ds.NumFeatures()),
		vals:        make([]float64, len(idx)),
		perm:        make([]int, len(idx)),
		ys:          make([]float64, len(idx)),
		nodes:       make([]Node, 1, 2*len(idx)/params.MinSamplesLeaf+1),
	}

	stack := []frame{{node: 0, idx: idx, depth: 0, seed: seed}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		stack = b.grow(f, stack)
	}

	return &Tree{
		Nodes:         b.nodes,
		NFeatures:     b.nFeatures,
		Seed:          seed,
		Params:        params,
		SampleIndices: append([]int(nil), sampleIndices...),
	}, nil
}

type builder struct {
	ds          *dataset.Dataset
	params      TreeParams
	nFeatures   int
	maxFeatures int
	nodes       []Node

	// 特徴量ごとに再利用するバッファ
	vals []float64
	perm []int
	ys   []float64
}

type frame struct {
	node  int
	idx   []int
	depth int
	seed  uint64
}

type split struct {
	feature   int
	threshold float64
	decrease  float64
}

// grow turns f.node into a leaf or a split node and pushes its children.
func (b *builder) grow(f frame, stack []frame) []frame {
	mean, impurity, constant := b.nodeStats(f.idx)
	nSamples := len(f.idx)

	leaf := Node{Leaf: true, Value: mean, Samples: nSamples, Impurity: impurity}
	if constant ||
		(b.params.MaxDepth >= 0 && f.depth >= b.params.MaxDepth) ||
		nSamples < b.params.MinSamplesSplit ||
		nSamples < 2 {
		b.nodes[f.node] = leaf
		return stack
	}

	best, ok := b.bestSplit(f.idx, mean, impurity, f.seed)
	if !ok {
		b.nodes[f.node] = leaf
		return stack
	}

	left := make([]int, 0, nSamples)
	right := make([]int, 0, nSamples)
	for _, i := range f.idx {
		if b.ds.At(i, best.feature) <= best.threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	l := len(b.nodes)
	b.nodes = append(b.nodes, Node{}, Node{})
	b.nodes[f.node] = Node{
		Value:            mean,
		Feature:          best.feature,
		Threshold:        best.threshold,
		Left:             l,
		Right:            l + 1,
		ImpurityDecrease: best.decrease,
		Samples:          nSamples,
		Impurity:         impurity,
	}

	return append(stack,
		frame{node: l + 1, idx: right, depth: f.depth + 1, seed: MixSeed(f.seed, 2)},
		frame{node: l, idx: left, depth: f.depth + 1, seed: MixSeed(f.seed, 1)},
	)
}

// nodeStats returns the label mean, the mean squared deviation from it, and
// whether every label is identical (impurity exactly zero).
func (b *builder) nodeStats(idx []int) (mean, impurity float64, constant bool) {
	first := b.ds.Label(idx[0])
	constant = true
	sum := 0.0
	for _, i := range idx {
		y := b.ds.Label(i)
		sum += y
		if y != first {
			constant = false
		}
	}
	if constant {
		return first, 0, true
	}
	mean = sum / float64(len(idx))
	for _, i := range idx {
		d := b.ds.Label(i) - mean
		impurity += d * d
	}
	return mean, impurity / float64(len(idx)), false
}

// candidateFeatures draws maxFeatures distinct features with a node-local RNG
// and returns them in ascending order. The stream (seed, ^seed) is distinct
// from the (seed, seed) stream the forest uses for the bootstrap sample.
func (b *builder) candidateFeatures(seed uint64) []int {
	if b.maxFeatures >= b.nFeatures {
		features := make([]int, b.nFeatures)
		for j := range features {
			features[j] = j
		}
		return features
	}
	r := rand.New(rand.NewPCG(seed, ^seed))
	features := r.Perm(b.nFeatures)[:b.maxFeatures]
	sort.Ints(features)
	return features
}

// bestSplit scans midpoints between consecutive distinct sorted values of each
// candidate feature. Features are visited in ascending order and thresholds in
// ascending order, and only a strictly larger decrease replaces the current
// best, so ties resolve to the lowest feature and then the lowest threshold.
func (b *builder) bestSplit(idx []int, mean, impurity float64, seed uint64) (split, bool) {
	n := len(idx)
	nf := float64(n)
	minLeaf := b.params.MinSamplesLeaf
	tol := relativeTolerance * impurity

	best := split{feature: -1}
	vals := b.vals[:n]
	perm := b.perm[:n]
	ys := b.ys[:n]

	for _, j := range b.candidateFeatures(seed) {
		for k, i := range idx {
			vals[k] = b.ds.At(i, j)
		}
		floats.Argsort(vals, perm)
		if vals[n-1] == vals[0] {
			continue
		}

		// 数値誤差を抑えるためノード平均で中心化した値で集計する
		totalSum, totalSq := 0.0, 0.0
		for k, p := range perm {
			y := b.ds.Label(idx[p]) - mean
			ys[k] = y
			totalSum += y
			totalSq += y * y
		}

		leftSum, leftSq := 0.0, 0.0
		for k := 1; k < n; k++ {
			y := ys[k-1]
			leftSum += y
			leftSq += y * y

			if vals[k] == vals[k-1] {
				continue
			}
			if k < minLeaf || n-k < minLeaf {
				continue
			}

			nl, nr := float64(k), float64(n-k)
			rightSum, rightSq := totalSum-leftSum, totalSq-leftSq
			sse := (leftSq - leftSum*leftSum/nl) + (rightSq - rightSum*rightSum/nr)
			decrease := impurity - sse/nf

			if decrease > best.decrease+tol {
				best = split{
					feature:   j,
					threshold: midpoint(vals[k-1], vals[k]),
					decrease:  decrease,
				}
			}
		}
	}

	return best, best.feature >= 0
}

// midpoint returns a threshold t with lo <= t < hi.
func midpoint(lo, hi float64) float64 {
	t := lo + (hi-lo)/2
	if t >= hi {
		return lo
	}
	return t
}
