package ensemble

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scoreforest/core/dataset"
	"github.com/YuminosukeSato/scoreforest/metrics"
	"github.com/YuminosukeSato/scoreforest/pkg/errors"
)

// computeOOB は各行について、その行をブートストラップ標本に含まない木だけの
// 平均予測を求め、それらが存在する行の R² を OOB スコアとする。
func (f *RandomForestRegressor) computeOOB(ds *dataset.Dataset) {
	if !f.bootstrap {
		f.oobErr = errors.NewValueError("RandomForestRegressor.OOBScore", "out-of-bag estimation requires bootstrap")
		return
	}

	n := ds.NumRows()
	sums := make([]float64, n)
	counts := make([]int, n)
	inBag := make([]bool, n)

	for _, t := range f.trees {
		for i := range inBag {
			inBag[i] = false
		}
		for _, i := range t.SampleIndices {
			inBag[i] = true
		}
		for i := 0; i < n; i++ {
			if inBag[i] {
				continue
			}
			sums[i] += t.PredictRow(ds.RowView(i))
			counts[i]++
		}
	}

	pred := make([]float64, n)
	var yTrue, yPred []float64
	for i := range pred {
		if counts[i] == 0 {
			pred[i] = math.NaN()
			continue
		}
		pred[i] = sums[i] / float64(counts[i])
		yTrue = append(yTrue, ds.Label(i))
		yPred = append(yPred, pred[i])
	}
	f.oobPrediction = pred

	if len(yTrue) == 0 {
		f.oobErr = errors.NewValueError("RandomForestRegressor.OOBScore",
			"no sample was left out of every bootstrap; increase n_estimators")
		return
	}
	if len(yTrue) < n {
		f.getLogger().Warn("Some samples have no out-of-bag prediction",
			"oob_samples", len(yTrue),
		)
	}

	f.oobScoreValue, f.oobErr = metrics.R2Score(
		mat.NewVecDense(len(yTrue), yTrue),
		mat.NewVecDense(len(yPred), yPred),
	)
}

// OOBPrediction は各訓練行のOOB予測を返す。OOB木が存在しない行は NaN。
func (f *RandomForestRegressor) OOBPrediction() ([]float64, error) {
	if err := f.checkOOB("OOBPrediction"); err != nil {
		return nil, err
	}
	if f.oobPrediction == nil {
		return nil, f.oobErr
	}
	return append([]float64(nil), f.oobPrediction...), nil
}

// OOBScore はOOB予測の R² を返す
func (f *RandomForestRegressor) OOBScore() (float64, error) {
	if err := f.checkOOB("OOBScore"); err != nil {
		return 0, err
	}
	if f.oobErr != nil {
		return 0, f.oobErr
	}
	return f.oobScoreValue, nil
}

func (f *RandomForestRegressor) checkOOB(method string) error {
	if err := f.CheckFitted("RandomForestRegressor", method); err != nil {
		return err
	}
	if !f.oobScore {
		return errors.NewValueError("RandomForestRegressor."+method, "fit with WithOOBScore(true) to compute out-of-bag estimates")
	}
	return nil
}
