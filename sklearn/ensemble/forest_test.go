package ensemble

import (
	"bytes"
	"context"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scoreforest/core/dataset"
	"github.com/YuminosukeSato/scoreforest/core/model"
	"github.com/YuminosukeSato/scoreforest/pkg/errors"
	"github.com/YuminosukeSato/scoreforest/pkg/log"
	"github.com/YuminosukeSato/scoreforest/sklearn/tree"
)

// makeGames は試合ごとの成績を模したデータを生成する
func makeGames(t *testing.T, n int, seed uint64) *dataset.Dataset {
	t.Helper()
	r := rand.New(rand.NewPCG(seed, seed))
	rows := make([][]float64, n)
	labels := make([]float64, n)
	for i := range rows {
		rush := 50 + r.Float64()*150
		pass := 150 + r.Float64()*250
		turnovers := float64(r.IntN(4))
		noise := r.Float64() * 10
		rows[i] = []float64{rush, pass, turnovers, noise}
		labels[i] = 0.05*rush + 0.06*pass - 3*turnovers + r.NormFloat64()
	}
	ds, err := dataset.New(rows, labels, []string{"rush_yds", "pass_yds", "turnovers", "noise"}, "points")
	require.NoError(t, err)
	return ds
}

func TestForest_SingleStump(t *testing.T) {
	ds, err := dataset.New([][]float64{{1}, {2}, {3}, {4}}, []float64{10, 20, 30, 40}, nil, "y")
	require.NoError(t, err)

	f := NewRandomForestRegressor(
		WithNEstimators(1),
		WithMaxDepth(1),
		WithBootstrap(false),
	)
	require.NoError(t, f.Fit(ds))

	trees := f.Trees()
	require.Len(t, trees, 1)
	assert.Equal(t, 2.5, trees[0].Nodes[0].Threshold)

	pred, err := f.PredictRows([][]float64{{1}, {2}, {3}, {4}})
	require.NoError(t, err)
	assert.Equal(t, []float64{15, 15, 35, 35}, pred)
}

func TestForest_EmptyDataset(t *testing.T) {
	ds, err := dataset.New(nil, nil, []string{"a"}, "y")
	require.NoError(t, err)

	err = NewRandomForestRegressor().Fit(ds)
	var empty *errors.EmptyDatasetError
	assert.True(t, errors.As(err, &empty), "got %v", err)
}

func TestForest_NoFeatures(t *testing.T) {
	ds, err := dataset.New([][]float64{{}, {}, {}}, []float64{1, 2, 3}, nil, "y")
	require.NoError(t, err)

	f := NewRandomForestRegressor(WithNEstimators(2))
	err = f.Fit(ds)
	var validation *errors.ValidationError
	require.True(t, errors.As(err, &validation), "got %v", err)
	assert.Equal(t, "n_features", validation.ParamName)
	assert.False(t, f.IsFitted())

	// 学習済みモデルでも特徴量ゼロのデータは不一致として扱う
	require.NoError(t, f.Fit(makeGames(t, 20, 1)))
	_, err = f.Score(ds)
	var mismatch *errors.FeatureCountMismatchError
	require.True(t, errors.As(err, &mismatch), "got %v", err)
	assert.Equal(t, 0, mismatch.Got)

	var typedNil *mat.Dense
	_, err = f.Predict(typedNil)
	var value *errors.ValueError
	assert.True(t, errors.As(err, &value), "got %v", err)
}

func TestForest_InvalidParams(t *testing.T) {
	ds := makeGames(t, 20, 1)
	tests := []struct {
		name string
		opt  Option
	}{
		{name: "no trees", opt: WithNEstimators(0)},
		{name: "min samples split", opt: WithMinSamplesSplit(1)},
		{name: "min samples leaf", opt: WithMinSamplesLeaf(0)},
		{name: "negative max features", opt: WithMaxFeatures(-2)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewRandomForestRegressor(tt.opt).Fit(ds)
			var validation *errors.ValidationError
			assert.True(t, errors.As(err, &validation), "got %v", err)
		})
	}
}

func TestForest_NotFitted(t *testing.T) {
	f := NewRandomForestRegressor()
	var notFitted *errors.NotFittedError

	_, err := f.Predict(mat.NewDense(1, 1, nil))
	assert.True(t, errors.As(err, &notFitted))
	_, err = f.FeatureImportances()
	assert.True(t, errors.As(err, &notFitted))
	assert.Error(t, f.Save(&bytes.Buffer{}))
}

func TestForest_FeatureCountMismatch(t *testing.T) {
	ds := makeGames(t, 40, 2)
	f := NewRandomForestRegressor(WithNEstimators(5))
	require.NoError(t, f.Fit(ds))

	var mismatch *errors.FeatureCountMismatchError

	_, err := f.Predict(mat.NewDense(2, 3, nil))
	require.True(t, errors.As(err, &mismatch), "got %v", err)
	assert.Equal(t, -1, mismatch.Row)
	assert.Equal(t, 4, mismatch.Expected)
	assert.Equal(t, 3, mismatch.Got)

	_, err = f.PredictRows([][]float64{{1, 2, 3, 4}, {1, 2}})
	require.True(t, errors.As(err, &mismatch), "got %v", err)
	assert.Equal(t, 1, mismatch.Row)
}

func TestForest_Deterministic(t *testing.T) {
	ds := makeGames(t, 120, 3)

	fit := func(jobs int, seed int64) []float64 {
		f := NewRandomForestRegressor(
			WithNEstimators(20),
			WithMaxFeaturesSqrt(),
			WithRandomState(seed),
			WithNJobs(jobs),
		)
		require.NoError(t, f.Fit(ds))
		pred, err := f.Predict(ds.Matrix())
		require.NoError(t, err)
		return pred.RawVector().Data
	}

	serial := fit(1, 42)
	assert.Equal(t, serial, fit(8, 42), "worker count must not change the forest")
	assert.NotEqual(t, serial, fit(1, 43), "a different seed should change the forest")
}

func TestForest_PredictMatchesTreeAverage(t *testing.T) {
	ds := makeGames(t, 300, 4)
	f := NewRandomForestRegressor(WithNEstimators(7), WithRandomState(9))
	require.NoError(t, f.Fit(ds))

	// 300行は並列予測の閾値を超える
	pred, err := f.Predict(ds.Matrix())
	require.NoError(t, err)

	for i := 0; i < ds.NumRows(); i += 37 {
		sum := 0.0
		for _, tr := range f.Trees() {
			sum += tr.PredictRow(ds.Row(i))
		}
		assert.InDelta(t, sum/7, pred.AtVec(i), 1e-12)
	}
}

func TestForest_FeatureImportances(t *testing.T) {
	ds := makeGames(t, 200, 5)
	f := NewRandomForestRegressor(WithNEstimators(25), WithRandomState(1))
	require.NoError(t, f.Fit(ds))

	imp, err := f.FeatureImportances()
	require.NoError(t, err)
	require.Len(t, imp, 4)

	sum := 0.0
	for _, v := range imp {
		assert.GreaterOrEqual(t, v, 0.0)
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	// pass_yds の係数と分散が最も大きい
	assert.Greater(t, imp[1], imp[3])
}

func TestForest_ConstantLabel(t *testing.T) {
	rows := [][]float64{{1, 5}, {2, 4}, {3, 3}, {4, 2}, {5, 1}}
	ds, err := dataset.New(rows, []float64{21, 21, 21, 21, 21}, nil, "points")
	require.NoError(t, err)

	f := NewRandomForestRegressor(WithNEstimators(10))
	require.NoError(t, f.Fit(ds))

	for _, tr := range f.Trees() {
		assert.Len(t, tr.Nodes, 1)
		assert.True(t, tr.Nodes[0].Leaf)
	}
	imp, err := f.FeatureImportances()
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, imp)

	pred, err := f.PredictRows([][]float64{{100, -100}})
	require.NoError(t, err)
	assert.Equal(t, 21.0, pred[0])

	// 全予測が定数と一致するので R² は 0
	score, err := f.Score(ds)
	require.NoError(t, err)
	assert.Equal(t, 0.0, score)
}

func TestForest_DepthMonotonicity(t *testing.T) {
	rows := make([][]float64, 50)
	labels := make([]float64, 50)
	for i := range rows {
		rows[i] = []float64{float64(i)}
		labels[i] = float64(2*i) - 7
	}
	ds, err := dataset.New(rows, labels, nil, "y")
	require.NoError(t, err)

	prev := math.Inf(1)
	for depth := 0; depth <= 6; depth++ {
		f := NewRandomForestRegressor(WithNEstimators(3), WithBootstrap(false), WithMaxDepth(depth))
		require.NoError(t, f.Fit(ds))
		pred, err := f.Predict(ds.Matrix())
		require.NoError(t, err)

		mae := 0.0
		for i := range labels {
			mae += math.Abs(pred.AtVec(i) - labels[i])
		}
		mae /= float64(len(labels))
		assert.LessOrEqual(t, mae, prev+1e-9, "depth %d", depth)
		prev = mae
	}
}

func TestForest_Progress(t *testing.T) {
	ds := makeGames(t, 60, 6)
	var calls []int
	f := NewRandomForestRegressor(
		WithNEstimators(12),
		WithNJobs(4),
		WithProgress(func(done, total int) {
			assert.Equal(t, 12, total)
			calls = append(calls, done)
		}),
	)
	require.NoError(t, f.Fit(ds))

	require.Len(t, calls, 12)
	for i, done := range calls {
		assert.Equal(t, i+1, done)
	}
}

func TestForest_OOBScore(t *testing.T) {
	ds := makeGames(t, 300, 7)
	f := NewRandomForestRegressor(WithNEstimators(40), WithOOBScore(true), WithRandomState(3))
	require.NoError(t, f.Fit(ds))

	score, err := f.OOBScore()
	require.NoError(t, err)
	assert.Greater(t, score, 0.5)
	assert.LessOrEqual(t, score, 1.0)

	oob, err := f.OOBPrediction()
	require.NoError(t, err)
	require.Len(t, oob, 300)
	// 40本あれば全ての行がいずれかの木のOOBになる（失敗確率はおよそ 300*0.634^40）
	for i, v := range oob {
		assert.False(t, math.IsNaN(v), "row %d has no OOB prediction", i)
	}

	noBootstrap := NewRandomForestRegressor(WithNEstimators(3), WithOOBScore(true), WithBootstrap(false))
	require.NoError(t, noBootstrap.Fit(ds))
	_, err = noBootstrap.OOBScore()
	assert.Error(t, err)

	_, err = NewRandomForestRegressor(WithNEstimators(2)).OOBScore()
	assert.Error(t, err)
}

func TestForest_SaveLoad(t *testing.T) {
	ds := makeGames(t, 80, 8)
	f := NewRandomForestRegressor(WithNEstimators(8), WithMaxDepth(6), WithOOBScore(true))
	require.NoError(t, f.Fit(ds))

	var buf bytes.Buffer
	require.NoError(t, f.Save(&buf))

	loaded, err := Load(&buf)
	require.NoError(t, err)
	assert.Equal(t, f.Params(), loaded.Params())
	assert.Equal(t, f.FeatureNames(), loaded.FeatureNames())

	want, err := f.Predict(ds.Matrix())
	require.NoError(t, err)
	got, err := loaded.Predict(ds.Matrix())
	require.NoError(t, err)
	assert.Equal(t, want.RawVector().Data, got.RawVector().Data)

	wantOOB, _ := f.OOBScore()
	gotOOB, err := loaded.OOBScore()
	require.NoError(t, err)
	assert.Equal(t, wantOOB, gotOOB)

	path := t.TempDir() + "/forest.gob"
	require.NoError(t, f.SaveFile(path))
	fromFile, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, fromFile.Trees(), 8)

	_, err = Load(bytes.NewReader([]byte("not a model")))
	assert.Error(t, err)
}

func TestForest_LoadRejectsCorruptTrees(t *testing.T) {
	ds := makeGames(t, 60, 12)
	f := NewRandomForestRegressor(WithNEstimators(3), WithMaxDepth(3), WithBootstrap(false))
	require.NoError(t, f.Fit(ds))
	require.False(t, f.Trees()[0].Nodes[0].Leaf)

	tests := []struct {
		name    string
		corrupt func(n *tree.Node)
	}{
		{name: "child points at root", corrupt: func(n *tree.Node) { n.Left = 0 }},
		{name: "child out of range", corrupt: func(n *tree.Node) { n.Right = 1 << 20 }},
		{name: "negative feature", corrupt: func(n *tree.Node) { n.Feature = -1 }},
		{name: "feature out of range", corrupt: func(n *tree.Node) { n.Feature = 4 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := f.snapshot()
			trees := make([]*tree.Tree, len(snap.Trees))
			for i, orig := range snap.Trees {
				c := *orig
				c.Nodes = append([]tree.Node(nil), orig.Nodes...)
				trees[i] = &c
			}
			tt.corrupt(&trees[1].Nodes[0])
			snap.Trees = trees

			var buf bytes.Buffer
			require.NoError(t, model.SaveModelToWriter(snap, &buf))
			_, err := Load(&buf)
			var value *errors.ValueError
			require.True(t, errors.As(err, &value), "got %v", err)
			assert.Contains(t, err.Error(), "tree 1")
		})
	}

	// 元のフォレストは変更されていない
	var buf bytes.Buffer
	require.NoError(t, f.Save(&buf))
	_, err := Load(&buf)
	assert.NoError(t, err)
}

func TestForest_CancelledFitKeepsNoPartialForest(t *testing.T) {
	ds := makeGames(t, 50, 9)
	f := NewRandomForestRegressor(WithNEstimators(10))
	require.NoError(t, f.Fit(ds))
	require.True(t, f.IsFitted())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := f.FitContext(ctx, ds)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, f.IsFitted())
	assert.Empty(t, f.Trees())
}

func TestForest_Logging(t *testing.T) {
	testLogger, _ := log.NewTestLogger(log.LevelDebug)
	ds := makeGames(t, 30, 10)

	f := NewRandomForestRegressor(WithNEstimators(4), WithLogger(testLogger))
	require.NoError(t, f.Fit(ds))

	assert.True(t, testLogger.ContainsMessage("Training started"))
	assert.True(t, testLogger.ContainsMessage("Training completed"))
	assert.True(t, testLogger.ContainsField(log.ModelNameKey, "RandomForestRegressor"))
	assert.True(t, testLogger.ContainsField(log.SamplesKey, 30.0))
	assert.True(t, testLogger.ContainsField(log.EstimatorIDKey, f.ID()))

	entries, err := testLogger.GetLogEntries()
	require.NoError(t, err)
	built := 0
	for _, e := range entries {
		if e["message"] == "Tree built" {
			built++
		}
	}
	assert.Equal(t, 4, built)
}
