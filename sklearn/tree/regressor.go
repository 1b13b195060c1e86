package tree

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scoreforest/core/dataset"
	"github.com/YuminosukeSato/scoreforest/core/model"
	"github.com/YuminosukeSato/scoreforest/metrics"
	"github.com/YuminosukeSato/scoreforest/pkg/errors"
)

// DecisionTreeRegressor は単一のCART回帰木を学習する推定器です。
type DecisionTreeRegressor struct {
	model.BaseEstimator

	params      TreeParams
	randomState int64

	tree *Tree
}

var _ model.Regressor = (*DecisionTreeRegressor)(nil)

// Option は DecisionTreeRegressor の設定オプション
type Option func(*DecisionTreeRegressor)

// NewDecisionTreeRegressor は新しい DecisionTreeRegressor を作成
func NewDecisionTreeRegressor(options ...Option) *DecisionTreeRegressor {
	dt := &DecisionTreeRegressor{params: DefaultTreeParams()}
	for _, opt := range options {
		opt(dt)
	}
	return dt
}

// WithMaxDepth は最大深さを設定（負の値は無制限）
func WithMaxDepth(depth int) Option {
	return func(dt *DecisionTreeRegressor) {
		dt.params.MaxDepth = depth
	}
}

// WithMinSamplesSplit は分割に必要な最小サンプル数を設定
func WithMinSamplesSplit(n int) Option {
	return func(dt *DecisionTreeRegressor) {
		dt.params.MinSamplesSplit = n
	}
}

// WithMinSamplesLeaf は葉の最小サンプル数を設定
func WithMinSamplesLeaf(n int) Option {
	return func(dt *DecisionTreeRegressor) {
		dt.params.MinSamplesLeaf = n
	}
}

// WithMaxFeatures は各ノードで検討する特徴量数を設定（0は全特徴量）
func WithMaxFeatures(n int) Option {
	return func(dt *DecisionTreeRegressor) {
		dt.params.MaxFeatures = n
	}
}

// WithRandomState は特徴量サンプリングの乱数シードを設定
func WithRandomState(seed int64) Option {
	return func(dt *DecisionTreeRegressor) {
		dt.randomState = seed
	}
}

// Fit はデータセットの全行で木を学習
func (dt *DecisionTreeRegressor) Fit(ds *dataset.Dataset) error {
	if ds.NumRows() == 0 {
		return errors.NewEmptyDatasetError("DecisionTreeRegressor.Fit")
	}
	if ds.NumFeatures() == 0 {
		return errors.NewValidationError("n_features", "must be at least 1", 0)
	}
	idx := make([]int, ds.NumRows())
	for i := range idx {
		idx[i] = i
	}
	t, err := Build(ds, idx, dt.params, uint64(dt.randomState))
	if err != nil {
		return err
	}
	dt.tree = t
	dt.SetFitted()
	return nil
}

// Predict は各行の予測値を返す
func (dt *DecisionTreeRegressor) Predict(X mat.Matrix) (*mat.VecDense, error) {
	if err := dt.CheckFitted("DecisionTreeRegressor", "Predict"); err != nil {
		return nil, err
	}
	if d, ok := X.(*mat.Dense); X == nil || (ok && d == nil) {
		return nil, errors.NewValueError("DecisionTreeRegressor.Predict", "input matrix is nil")
	}
	rows, cols := X.Dims()
	if cols != dt.tree.NFeatures {
		return nil, errors.NewFeatureCountMismatchError("DecisionTreeRegressor.Predict", -1, dt.tree.NFeatures, cols)
	}
	out := mat.NewVecDense(rows, nil)
	row := make([]float64, cols)
	for i := 0; i < rows; i++ {
		mat.Row(row, i, X)
		out.SetVec(i, dt.tree.PredictRow(row))
	}
	return out, nil
}

// Score はデータセットに対する決定係数（R²）を返す
func (dt *DecisionTreeRegressor) Score(ds *dataset.Dataset) (float64, error) {
	if ds.NumRows() == 0 {
		return 0, errors.NewLengthMismatchError("DecisionTreeRegressor.Score", 0, 0)
	}
	if err := dt.CheckFitted("DecisionTreeRegressor", "Score"); err != nil {
		return 0, err
	}
	if ds.NumFeatures() != dt.tree.NFeatures {
		return 0, errors.NewFeatureCountMismatchError("DecisionTreeRegressor.Score", -1, dt.tree.NFeatures, ds.NumFeatures())
	}
	pred := mat.NewVecDense(ds.NumRows(), nil)
	for i := 0; i < ds.NumRows(); i++ {
		pred.SetVec(i, dt.tree.PredictRow(ds.RowView(i)))
	}
	return metrics.R2Score(ds.LabelVec(), pred)
}

// FeatureImportances は正規化された不純度減少量ベースの重要度を返す
func (dt *DecisionTreeRegressor) FeatureImportances() ([]float64, error) {
	if err := dt.CheckFitted("DecisionTreeRegressor", "FeatureImportances"); err != nil {
		return nil, err
	}
	return Normalize(dt.tree.ImpurityContributions(dt.tree.NFeatures)), nil
}

// Tree は学習済みの木を返す
func (dt *DecisionTreeRegressor) Tree() *Tree {
	return dt.tree
}

// Depth は木の深さを返す（未学習なら0）
func (dt *DecisionTreeRegressor) Depth() int {
	if dt.tree == nil {
		return 0
	}
	return dt.tree.Depth()
}

// NumLeaves は葉の数を返す（未学習なら0）
func (dt *DecisionTreeRegressor) NumLeaves() int {
	if dt.tree == nil {
		return 0
	}
	return dt.tree.NumLeaves()
}

// Normalize は合計が1になるように v をスケールした新しいスライスを返す。
// 合計がゼロの場合は全てゼロ。
func Normalize(v []float64) []float64 {
	out := make([]float64, len(v))
	total := 0.0
	for _, x := range v {
		total += x
	}
	if total <= 0 {
		return out
	}
	for i, x := range v {
		out[i] = x / total
	}
	return out
}
