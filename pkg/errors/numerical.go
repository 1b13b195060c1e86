package errors

import (
	"math"
)

// CheckNumericalStability はvaluesにNaNまたはInfが含まれていればエラーを返します。
// index はエラーに記録される位置情報（行番号など）です。
func CheckNumericalStability(operation string, values []float64, index int) error {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return NewNumericalInstabilityError(operation, values, index)
		}
	}
	return nil
}

// CheckScalar は単一の値のNaN/Infを検査します。
func CheckScalar(operation string, value float64, index int) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return NewNumericalInstabilityError(operation, []float64{value}, index)
	}
	return nil
}
