// Package metrics は回帰モデルの評価指標を提供します。
package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/scoreforest/pkg/errors"
)

// vecLen は nil を長さ0として扱う
func vecLen(v *mat.VecDense) int {
	if v == nil {
		return 0
	}
	return v.Len()
}

// checkPair は長さの一致と非空を検証する
func checkPair(op string, yTrue, yPred *mat.VecDense) (int, error) {
	nTrue, nPred := vecLen(yTrue), vecLen(yPred)
	if nTrue == 0 || nPred == 0 || nTrue != nPred {
		return 0, errors.NewLengthMismatchError(op, nTrue, nPred)
	}
	return nTrue, nil
}

// MSE は平均二乗誤差（Mean Squared Error）を計算する
func MSE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("MSE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	// MSE = (1/n) * Σ(yTrue - yPred)²
	var sum float64
	for i := 0; i < n; i++ {
		diff := yTrue.AtVec(i) - yPred.AtVec(i)
		sum += diff * diff
	}

	return sum / float64(n), nil
}

// RMSE は平方根平均二乗誤差（Root Mean Squared Error）を計算する
func RMSE(yTrue, yPred *mat.VecDense) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE は平均絶対誤差（Mean Absolute Error）を計算する
func MAE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("MAE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	// MAE = (1/n) * Σ|yTrue - yPred|
	var sum float64
	for i := 0; i < n; i++ {
		sum += math.Abs(yTrue.AtVec(i) - yPred.AtVec(i))
	}

	return sum / float64(n), nil
}

// R2Score は決定係数（R²）を計算する
//
// yTrue の分散がゼロ（全て同じ値）の場合、全ての予測値がその値と一致すれば
// UndefinedMetricWarning を発行して 0.0 を返し、そうでなければ
// DegenerateLabelVarianceError を返す。
func R2Score(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("R2Score", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	// 全変動が0かどうかは値の一致で厳密に判定する
	first := yTrue.AtVec(0)
	constant := true
	for i := 1; i < n; i++ {
		if yTrue.AtVec(i) != first {
			constant = false
			break
		}
	}
	if constant {
		for i := 0; i < n; i++ {
			if yPred.AtVec(i) != first {
				return 0, errors.NewDegenerateLabelVarianceError("R2Score", first)
			}
		}
		errors.Warn(errors.NewUndefinedMetricWarning("r2", "zero variance in y_true", 0))
		return 0, nil
	}

	yMean := stat.Mean(mat.Col(nil, 0, yTrue), nil)

	// 全変動（TSS）と残差変動（RSS）を計算
	var tss, rss float64
	for i := 0; i < n; i++ {
		yTrueVal := yTrue.AtVec(i)
		yPredVal := yPred.AtVec(i)

		tss += (yTrueVal - yMean) * (yTrueVal - yMean)
		rss += (yTrueVal - yPredVal) * (yTrueVal - yPredVal)
	}

	// R² = 1 - RSS/TSS
	return 1 - rss/tss, nil
}

// Round は v を小数点以下 places 桁に丸める（表示用）
func Round(v float64, places int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
