package ensemble

import (
	"github.com/YuminosukeSato/scoreforest/pkg/log"
)

// Option は RandomForestRegressor の設定オプション
type Option func(*RandomForestRegressor)

// WithNEstimators は木の本数を設定（デフォルト100）
func WithNEstimators(n int) Option {
	return func(f *RandomForestRegressor) {
		f.nEstimators = n
	}
}

// WithMaxDepth は木の最大深さを設定（負の値は無制限、デフォルト無制限）
func WithMaxDepth(depth int) Option {
	return func(f *RandomForestRegressor) {
		f.params.MaxDepth = depth
	}
}

// WithMinSamplesSplit は分割に必要な最小サンプル数を設定（デフォルト2）
func WithMinSamplesSplit(n int) Option {
	return func(f *RandomForestRegressor) {
		f.params.MinSamplesSplit = n
	}
}

// WithMinSamplesLeaf は葉の最小サンプル数を設定（デフォルト1）
func WithMinSamplesLeaf(n int) Option {
	return func(f *RandomForestRegressor) {
		f.params.MinSamplesLeaf = n
	}
}

// WithMaxFeatures は各ノードで検討する特徴量数を設定（0は全特徴量、デフォルト）
func WithMaxFeatures(n int) Option {
	return func(f *RandomForestRegressor) {
		f.params.MaxFeatures = n
		f.maxFeaturesSqrt = false
	}
}

// WithMaxFeaturesSqrt は各ノードで floor(sqrt(特徴量数)) 個を検討する
func WithMaxFeaturesSqrt() Option {
	return func(f *RandomForestRegressor) {
		f.params.MaxFeatures = 0
		f.maxFeaturesSqrt = true
	}
}

// WithRandomState は乱数シードを設定（デフォルト0）
func WithRandomState(seed int64) Option {
	return func(f *RandomForestRegressor) {
		f.randomState = seed
	}
}

// WithBootstrap はブートストラップサンプリングの有無を設定（デフォルトtrue）
func WithBootstrap(bootstrap bool) Option {
	return func(f *RandomForestRegressor) {
		f.bootstrap = bootstrap
	}
}

// WithNJobs は木を並列に構築するワーカー数を設定（0以下はGOMAXPROCS）
func WithNJobs(n int) Option {
	return func(f *RandomForestRegressor) {
		f.nJobs = n
	}
}

// WithOOBScore はOOB（out-of-bag）予測とスコアの計算を有効にする
func WithOOBScore(enabled bool) Option {
	return func(f *RandomForestRegressor) {
		f.oobScore = enabled
	}
}

// WithProgress は木が1本完成するたびに呼ばれるコールバックを設定
// done は単調増加し、最後の呼び出しでは done == total
func WithProgress(fn func(done, total int)) Option {
	return func(f *RandomForestRegressor) {
		f.progress = fn
	}
}

// WithLogger はロガーを差し替える（デフォルトは log.GetLoggerWithName("ensemble")）
func WithLogger(logger log.Logger) Option {
	return func(f *RandomForestRegressor) {
		f.logger = logger
	}
}
