package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/scoreforest/pkg/errors"
)

// MissingPolicy は欠損値・非有限値の扱いを表します。
type MissingPolicy int

const (
	// MissingError は欠損セルを行・列付きのエラーとして拒否します（デフォルト）。
	MissingError MissingPolicy = iota
	// MissingZero は欠損セルと ±Inf を 0 に置き換えます。
	MissingZero
)

// ParseMissingPolicy は "error" / "zero" を MissingPolicy に変換します。
func ParseMissingPolicy(s string) (MissingPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "error":
		return MissingError, nil
	case "zero":
		return MissingZero, nil
	default:
		return MissingError, errors.NewValidationError("missing", "must be 'error' or 'zero'", s)
	}
}

func (p MissingPolicy) String() string {
	if p == MissingZero {
		return "zero"
	}
	return "error"
}

// CSVOptions は ReadCSV の列選択と欠損値ポリシーです。
type CSVOptions struct {
	// Features は使用する特徴量列。空の場合はラベル以外の全列を使います。
	Features []string
	// Label はラベル列の名前（必須）。
	Label string
	// Missing は欠損値ポリシー。
	Missing MissingPolicy
}

var missingTokens = map[string]bool{
	"":     true,
	"na":   true,
	"nan":  true,
	"null": true,
	"none": true,
}

// ReadCSV はヘッダ付きCSVを読み込み Dataset を構築します。
// 列名は前後の空白を除去したうえで大文字小文字を区別せずに照合します。
func ReadCSV(r io.Reader, opts CSVOptions) (*Dataset, error) {
	if strings.TrimSpace(opts.Label) == "" {
		return nil, errors.NewValidationError("label", "label column is required", opts.Label)
	}

	reader, header, err := readHeader(r)
	if err != nil {
		return nil, err
	}

	labelCol, ok := header.lookup(opts.Label)
	if !ok {
		return nil, errors.NewValueError("dataset.ReadCSV", fmt.Sprintf("label column %q not found", opts.Label))
	}

	var featureCols []int
	if len(opts.Features) == 0 {
		for i := range header.names {
			if i != labelCol {
				featureCols = append(featureCols, i)
			}
		}
	} else {
		if featureCols, err = header.columns(opts.Features); err != nil {
			return nil, err
		}
		for _, col := range featureCols {
			if col == labelCol {
				return nil, errors.NewValueError("dataset.ReadCSV", fmt.Sprintf("column %q is both feature and label", header.names[col]))
			}
		}
	}

	var (
		rows   [][]float64
		labels []float64
	)
	err = readRecords(reader, func(line int, record []string) error {
		row, err := header.parseRow(line, record, featureCols, opts.Missing)
		if err != nil {
			return err
		}
		y, err := parseCell(record[labelCol], opts.Missing)
		if err != nil {
			return errors.Wrapf(err, "dataset.ReadCSV: line %d, column %q", line, header.names[labelCol])
		}
		rows = append(rows, row)
		labels = append(labels, y)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return New(rows, labels, header.selectNames(featureCols), header.names[labelCol])
}

// ReadFeatures はヘッダ付きCSVから指定した特徴量列だけを読み込みます（予測用）。
// ラベル列は不要で、存在しても無視されます。
func ReadFeatures(r io.Reader, features []string, missing MissingPolicy) ([][]float64, error) {
	if len(features) == 0 {
		return nil, errors.NewValidationError("features", "at least one feature column is required", features)
	}

	reader, header, err := readHeader(r)
	if err != nil {
		return nil, err
	}
	featureCols, err := header.columns(features)
	if err != nil {
		return nil, err
	}

	var rows [][]float64
	err = readRecords(reader, func(line int, record []string) error {
		row, err := header.parseRow(line, record, featureCols, missing)
		if err != nil {
			return err
		}
		rows = append(rows, row)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// csvHeader はヘッダ行の列名と正規化済みの索引です。
type csvHeader struct {
	names []string
	index map[string]int
}

func readHeader(r io.Reader) (*csv.Reader, *csvHeader, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	record, err := reader.Read()
	if err == io.EOF {
		return nil, nil, errors.NewValueError("dataset.ReadCSV", "missing header row")
	}
	if err != nil {
		return nil, nil, errors.Wrap(err, "dataset.ReadCSV: reading header")
	}

	h := &csvHeader{names: make([]string, len(record)), index: make(map[string]int, len(record))}
	for i, name := range record {
		h.names[i] = strings.TrimSpace(name)
		key := normalizeColumn(name)
		if _, dup := h.index[key]; dup {
			return nil, nil, errors.NewValueError("dataset.ReadCSV", fmt.Sprintf("duplicate column %q", h.names[i]))
		}
		h.index[key] = i
	}
	return reader, h, nil
}

func (h *csvHeader) lookup(name string) (int, bool) {
	col, ok := h.index[normalizeColumn(name)]
	return col, ok
}

func (h *csvHeader) columns(names []string) ([]int, error) {
	cols := make([]int, len(names))
	for i, name := range names {
		col, ok := h.lookup(name)
		if !ok {
			return nil, errors.NewValueError("dataset.ReadCSV", fmt.Sprintf("feature column %q not found", name))
		}
		cols[i] = col
	}
	return cols, nil
}

func (h *csvHeader) selectNames(cols []int) []string {
	names := make([]string, len(cols))
	for i, col := range cols {
		names[i] = h.names[col]
	}
	return names
}

func (h *csvHeader) parseRow(line int, record []string, cols []int, missing MissingPolicy) ([]float64, error) {
	row := make([]float64, len(cols))
	for j, col := range cols {
		v, err := parseCell(record[col], missing)
		if err != nil {
			return nil, errors.Wrapf(err, "dataset.ReadCSV: line %d, column %q", line, h.names[col])
		}
		row[j] = v
	}
	return row, nil
}

// readRecords はデータ行を順に fn へ渡します。line はファイル上の行番号（ヘッダが1行目）。
func readRecords(reader *csv.Reader, fn func(line int, record []string) error) error {
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrapf(err, "dataset.ReadCSV: line %d", line)
		}
		if err := fn(line, record); err != nil {
			return err
		}
	}
}

// ReadCSVFile は path のCSVファイルを ReadCSV で読み込みます。
func ReadCSVFile(path string, opts CSVOptions) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	//nolint:errcheck // read only
	defer f.Close()
	return ReadCSV(f, opts)
}

func normalizeColumn(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func parseCell(raw string, policy MissingPolicy) (float64, error) {
	s := strings.TrimSpace(raw)
	if missingTokens[strings.ToLower(s)] {
		if policy == MissingZero {
			return 0, nil
		}
		return 0, errors.NewValueError("parse", fmt.Sprintf("missing value %q", raw))
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.NewValueError("parse", fmt.Sprintf("not a number: %q", raw))
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		if policy == MissingZero {
			return 0, nil
		}
		return 0, errors.NewValueError("parse", fmt.Sprintf("non-finite value %q", raw))
	}
	return v, nil
}
