// Package dataset はフォレストの学習・評価に用いる検証済みの表形式データを提供します。
//
// Dataset は構築後に変更されません。コンストラクタは入力をコピーし、アクセサは
// コピーまたは読み取り専用のビュー（その旨を明記）を返します。
package dataset

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scoreforest/pkg/errors"
)

// Dataset は特徴量行列とラベル列の組です。
// 全ての値は有限（NaN/Infを含まない）であることが保証されます。
type Dataset struct {
	data         []float64 // 行優先 (row-major)
	labels       []float64
	nRows        int
	nFeatures    int
	featureNames []string
	labelName    string
}

// New は行スライスとラベルから Dataset を構築します。
// featureNames が nil の場合は "x0", "x1", ... が割り当てられます。
// 行数ゼロも有効な Dataset です（学習時に拒否されます）。
func New(rows [][]float64, labels []float64, featureNames []string, labelName string) (*Dataset, error) {
	nFeatures := len(featureNames)
	if len(rows) > 0 {
		nFeatures = len(rows[0])
	}
	if len(labels) != len(rows) {
		return nil, errors.NewDimensionError("dataset.New", len(rows), len(labels), 0)
	}

	data := make([]float64, 0, len(rows)*nFeatures)
	for i, row := range rows {
		if len(row) != nFeatures {
			return nil, errors.NewDimensionError(fmt.Sprintf("dataset.New: row %d", i), nFeatures, len(row), 1)
		}
		if err := errors.CheckNumericalStability("dataset.New", row, i); err != nil {
			return nil, err
		}
		data = append(data, row...)
	}
	return build(data, labels, len(rows), nFeatures, featureNames, labelName)
}

// FromMatrix は gonum の行列とベクトルから Dataset を構築します。
// X が nil の場合は行数ゼロの Dataset になります。
func FromMatrix(X mat.Matrix, y mat.Vector, featureNames []string, labelName string) (*Dataset, error) {
	if X == nil {
		if y != nil && y.Len() > 0 {
			return nil, errors.NewDimensionError("dataset.FromMatrix", 0, y.Len(), 0)
		}
		return build(nil, nil, 0, len(featureNames), featureNames, labelName)
	}

	r, c := X.Dims()
	if y == nil || y.Len() != r {
		got := 0
		if y != nil {
			got = y.Len()
		}
		return nil, errors.NewDimensionError("dataset.FromMatrix", r, got, 0)
	}

	data := make([]float64, r*c)
	for i := 0; i < r; i++ {
		row := data[i*c : (i+1)*c]
		for j := 0; j < c; j++ {
			row[j] = X.At(i, j)
		}
		if err := errors.CheckNumericalStability("dataset.FromMatrix", row, i); err != nil {
			return nil, err
		}
	}
	labels := make([]float64, r)
	for i := range labels {
		labels[i] = y.AtVec(i)
	}
	return build(data, labels, r, c, featureNames, labelName)
}

// build は所有権を受け取ったスライスから Dataset を組み立てます。
func build(data, labels []float64, nRows, nFeatures int, featureNames []string, labelName string) (*Dataset, error) {
	for i, v := range labels {
		if err := errors.CheckScalar("dataset labels", v, i); err != nil {
			return nil, err
		}
	}

	var names []string
	switch {
	case featureNames == nil:
		names = make([]string, nFeatures)
		for j := range names {
			names[j] = fmt.Sprintf("x%d", j)
		}
	case len(featureNames) != nFeatures:
		return nil, errors.NewValidationError("featureNames",
			fmt.Sprintf("expected %d names", nFeatures), len(featureNames))
	default:
		names = append([]string(nil), featureNames...)
	}
	if labelName == "" {
		labelName = "y"
	}

	return &Dataset{
		data:         data,
		labels:       append([]float64(nil), labels...),
		nRows:        nRows,
		nFeatures:    nFeatures,
		featureNames: names,
		labelName:    labelName,
	}, nil
}

// NumRows は行数を返します。
func (d *Dataset) NumRows() int { return d.nRows }

// NumFeatures は特徴量の数を返します。
func (d *Dataset) NumFeatures() int { return d.nFeatures }

// At は行 i・特徴量 j の値を返します。
func (d *Dataset) At(i, j int) float64 {
	return d.data[i*d.nFeatures+j]
}

// Label は行 i のラベルを返します。
func (d *Dataset) Label(i int) float64 {
	return d.labels[i]
}

// Row は行 i のコピーを返します。
func (d *Dataset) Row(i int) []float64 {
	return append([]float64(nil), d.RowView(i)...)
}

// RowView は行 i の読み取り専用ビューを返します。呼び出し側は変更してはいけません。
func (d *Dataset) RowView(i int) []float64 {
	return d.data[i*d.nFeatures : (i+1)*d.nFeatures : (i+1)*d.nFeatures]
}

// Rows は全行のコピーを返します。
func (d *Dataset) Rows() [][]float64 {
	rows := make([][]float64, d.nRows)
	for i := range rows {
		rows[i] = d.Row(i)
	}
	return rows
}

// Labels はラベル列のコピーを返します。
func (d *Dataset) Labels() []float64 {
	return append([]float64(nil), d.labels...)
}

// FeatureNames は特徴量名のコピーを返します。
func (d *Dataset) FeatureNames() []string {
	return append([]string(nil), d.featureNames...)
}

// LabelName はラベル列の名前を返します。
func (d *Dataset) LabelName() string { return d.labelName }

// Matrix は特徴量行列のコピーを返します。行数ゼロの場合は nil です
// （gonum はゼロ次元の行列を表現できないため）。
func (d *Dataset) Matrix() *mat.Dense {
	if d.nRows == 0 || d.nFeatures == 0 {
		return nil
	}
	return mat.NewDense(d.nRows, d.nFeatures, append([]float64(nil), d.data...))
}

// LabelVec はラベル列のコピーをベクトルとして返します。行数ゼロの場合は nil です。
func (d *Dataset) LabelVec() *mat.VecDense {
	if d.nRows == 0 {
		return nil
	}
	return mat.NewVecDense(d.nRows, d.Labels())
}

// Subset は indices の行から新しい Dataset を構築します。indices は重複を許します。
func (d *Dataset) Subset(indices []int) (*Dataset, error) {
	data := make([]float64, 0, len(indices)*d.nFeatures)
	labels := make([]float64, len(indices))
	for k, i := range indices {
		if i < 0 || i >= d.nRows {
			return nil, errors.NewValueError("Dataset.Subset",
				fmt.Sprintf("index %d out of range [0, %d)", i, d.nRows))
		}
		data = append(data, d.RowView(i)...)
		labels[k] = d.labels[i]
	}
	return &Dataset{
		data:         data,
		labels:       labels,
		nRows:        len(indices),
		nFeatures:    d.nFeatures,
		featureNames: d.featureNames, // 不変なので共有してよい
		labelName:    d.labelName,
	}, nil
}
