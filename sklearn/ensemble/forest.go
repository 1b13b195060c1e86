// Package ensemble はバギングによる回帰フォレストを提供します。
//
// 各木はブートストラップ標本と木ごとに導出したシードで独立に学習され、
// 予測は全ての木の葉の値の単純平均です。
package ensemble

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scoreforest/core/dataset"
	"github.com/YuminosukeSato/scoreforest/core/model"
	"github.com/YuminosukeSato/scoreforest/core/parallel"
	"github.com/YuminosukeSato/scoreforest/metrics"
	"github.com/YuminosukeSato/scoreforest/pkg/errors"
	"github.com/YuminosukeSato/scoreforest/pkg/log"
	"github.com/YuminosukeSato/scoreforest/sklearn/tree"
)

// predictParallelThreshold 未満の行数では予測を逐次に行う
const predictParallelThreshold = 256

// RandomForestRegressor はランダムフォレスト回帰モデル
type RandomForestRegressor struct {
	model.BaseEstimator

	// ハイパーパラメータ
	nEstimators     int
	params          tree.TreeParams
	maxFeaturesSqrt bool
	randomState     int64
	bootstrap       bool
	nJobs           int
	oobScore        bool
	progress        func(done, total int)
	logger          log.Logger

	// 学習結果
	trees         []*tree.Tree
	nFeatures     int
	featureNames  []string
	oobPrediction []float64
	oobScoreValue float64
	oobErr        error
}

var _ model.Regressor = (*RandomForestRegressor)(nil)

// NewRandomForestRegressor は新しい RandomForestRegressor を作成
func NewRandomForestRegressor(options ...Option) *RandomForestRegressor {
	f := &RandomForestRegressor{
		nEstimators: 100,
		params:      tree.DefaultTreeParams(),
		bootstrap:   true,
	}
	for _, opt := range options {
		opt(f)
	}
	return f
}

// ForestParams はフォレストの設定値
type ForestParams struct {
	NEstimators     int
	Tree            tree.TreeParams
	MaxFeaturesSqrt bool
	RandomState     int64
	Bootstrap       bool
	OOBScore        bool
}

// Params は現在の設定値を返す
func (f *RandomForestRegressor) Params() ForestParams {
	return ForestParams{
		NEstimators:     f.nEstimators,
		Tree:            f.params,
		MaxFeaturesSqrt: f.maxFeaturesSqrt,
		RandomState:     f.randomState,
		Bootstrap:       f.bootstrap,
		OOBScore:        f.oobScore,
	}
}

func (f *RandomForestRegressor) getLogger() log.Logger {
	base := f.logger
	if base == nil {
		base = log.GetLoggerWithName("ensemble")
	}
	return base.With(
		log.ModelNameKey, "RandomForestRegressor",
		log.EstimatorIDKey, f.ID(),
	)
}

// Fit はフォレストを学習する
func (f *RandomForestRegressor) Fit(ds *dataset.Dataset) error {
	return f.FitContext(context.Background(), ds)
}

// FitContext は ctx のキャンセルに対応した Fit
//
// 木 i のシードは tree.MixSeed(randomState, i) で、その同じシードから
// ブートストラップ標本（サイズ n、復元抽出）と木の構築を行う。木はワーカープールで
// 並列に構築され、各ワーカーは自分のスロットにのみ書き込む。最初のエラー
// （回復したパニックを含む）で学習全体を中止し、部分的なフォレストは残さない。
func (f *RandomForestRegressor) FitContext(ctx context.Context, ds *dataset.Dataset) (err error) {
	defer errors.Recover(&err, "RandomForestRegressor.Fit")

	if f.nEstimators < 1 {
		return errors.NewValidationError("n_estimators", "must be at least 1", f.nEstimators)
	}
	if err := f.params.Validate(); err != nil {
		return err
	}
	n, nf := ds.NumRows(), ds.NumFeatures()
	if n == 0 {
		return errors.NewEmptyDatasetError("RandomForestRegressor.Fit")
	}
	if nf == 0 {
		return errors.NewValidationError("n_features", "must be at least 1", nf)
	}

	params := f.params
	if f.maxFeaturesSqrt {
		params.MaxFeatures = tree.SqrtFeatures(nf)
	}
	workers := parallel.Workers(f.nJobs, f.nEstimators)

	logger := f.getLogger()
	logger.Info("Training started",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, n,
		log.FeaturesKey, nf,
		log.TreesKey, f.nEstimators,
		log.RandomSeedKey, f.randomState,
		log.WorkersKey, workers,
	)
	start := time.Now()

	trees := make([]*tree.Tree, f.nEstimators)
	var (
		progressMu sync.Mutex
		done       int
	)
	err = parallel.ForEach(ctx, f.nEstimators, workers, func(_ context.Context, i int) error {
		seed := tree.MixSeed(uint64(f.randomState), uint64(i))
		t, err := tree.Build(ds, f.sampleIndices(n, seed), params, seed)
		if err != nil {
			return errors.NewModelError("RandomForestRegressor.Fit", fmt.Sprintf("building tree %d", i), err)
		}
		trees[i] = t

		logger.Debug("Tree built",
			log.TreeIndexKey, i,
			log.NodesKey, len(t.Nodes),
			log.DepthKey, t.Depth(),
		)

		if f.progress != nil {
			progressMu.Lock()
			done++
			f.progress(done, f.nEstimators)
			progressMu.Unlock()
		}
		return nil
	})
	if err != nil {
		f.clear()
		logger.Error("Training failed", err, log.OperationKey, log.OperationFit)
		return err
	}

	f.trees = trees
	f.nFeatures = nf
	f.featureNames = ds.FeatureNames()
	f.oobPrediction, f.oobScoreValue, f.oobErr = nil, 0, nil
	f.SetFitted()

	if f.oobScore {
		f.computeOOB(ds)
	}

	fields := []any{
		log.OperationKey, log.OperationFit,
		log.DurationMsKey, time.Since(start).Milliseconds(),
		log.TreesKey, len(trees),
	}
	if f.oobScore && f.oobErr == nil {
		fields = append(fields, log.OOBScoreKey, f.oobScoreValue)
	}
	logger.Info("Training completed", fields...)
	return nil
}

// sampleIndices はシード seed のブートストラップ標本を返す。ブートストラップが
// 無効な場合は 0..n-1 をそのまま返す。
func (f *RandomForestRegressor) sampleIndices(n int, seed uint64) []int {
	idx := make([]int, n)
	if !f.bootstrap {
		for i := range idx {
			idx[i] = i
		}
		return idx
	}
	r := rand.New(rand.NewPCG(seed, seed))
	for i := range idx {
		idx[i] = r.IntN(n)
	}
	return idx
}

func (f *RandomForestRegressor) clear() {
	f.trees = nil
	f.nFeatures = 0
	f.featureNames = nil
	f.oobPrediction, f.oobScoreValue, f.oobErr = nil, 0, nil
	f.Reset()
}

// Predict は各行について全ての木の予測値の平均を返す
func (f *RandomForestRegressor) Predict(X mat.Matrix) (*mat.VecDense, error) {
	if err := f.CheckFitted("RandomForestRegressor", "Predict"); err != nil {
		return nil, err
	}
	if isNilMatrix(X) {
		return nil, errors.NewValueError("RandomForestRegressor.Predict", "input matrix is nil")
	}
	rows, cols := X.Dims()
	if cols != f.nFeatures {
		return nil, errors.NewFeatureCountMismatchError("RandomForestRegressor.Predict", -1, f.nFeatures, cols)
	}

	out := make([]float64, rows)
	parallel.ParallelizeWithThreshold(rows, predictParallelThreshold, func(start, end int) {
		row := make([]float64, cols)
		for i := start; i < end; i++ {
			mat.Row(row, i, X)
			out[i] = f.predictRow(row)
		}
	})
	return mat.NewVecDense(rows, out), nil
}

// PredictRows は行スライスに対する予測値を返す
func (f *RandomForestRegressor) PredictRows(rows [][]float64) ([]float64, error) {
	if err := f.CheckFitted("RandomForestRegressor", "PredictRows"); err != nil {
		return nil, err
	}
	for i, row := range rows {
		if len(row) != f.nFeatures {
			return nil, errors.NewFeatureCountMismatchError("RandomForestRegressor.PredictRows", i, f.nFeatures, len(row))
		}
	}

	out := make([]float64, len(rows))
	parallel.ParallelizeWithThreshold(len(rows), predictParallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			out[i] = f.predictRow(rows[i])
		}
	})
	return out, nil
}

// predictRow は木の順に葉の値を合計して平均する
func (f *RandomForestRegressor) predictRow(row []float64) float64 {
	sum := 0.0
	for _, t := range f.trees {
		sum += t.PredictRow(row)
	}
	return sum / float64(len(f.trees))
}

// Score はデータセットに対する決定係数（R²）を返す
func (f *RandomForestRegressor) Score(ds *dataset.Dataset) (float64, error) {
	if ds.NumRows() == 0 {
		return 0, errors.NewLengthMismatchError("RandomForestRegressor.Score", 0, 0)
	}
	pred, err := f.PredictRows(ds.Rows())
	if err != nil {
		return 0, err
	}
	return metrics.R2Score(ds.LabelVec(), mat.NewVecDense(len(pred), pred))
}

// isNilMatrix は nil と、インターフェースに包まれた nil の *mat.Dense を検出する
func isNilMatrix(X mat.Matrix) bool {
	if X == nil {
		return true
	}
	d, ok := X.(*mat.Dense)
	return ok && d == nil
}

// Trees は学習済みの木を構築順に返す
func (f *RandomForestRegressor) Trees() []*tree.Tree {
	return append([]*tree.Tree(nil), f.trees...)
}

// NumFeatures は学習時の特徴量数を返す
func (f *RandomForestRegressor) NumFeatures() int {
	return f.nFeatures
}

// FeatureNames は学習時の特徴量名を返す
func (f *RandomForestRegressor) FeatureNames() []string {
	return append([]string(nil), f.featureNames...)
}
