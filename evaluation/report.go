package evaluation

import (
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/YuminosukeSato/scoreforest/metrics"
)

// Display precision of the report.
const (
	MAEPlaces        = 2
	R2Places         = 4
	ImportancePlaces = 4
)

// DefaultTopN is the number of features listed per model.
const DefaultTopN = 15

// NewTableStyle returns the rounded, colorless style used by every report table.
func NewTableStyle() table.Style {
	style := table.StyleRounded
	style.Format.Header = text.FormatDefault
	style.Title.Format = text.FormatDefault
	style.Options.SeparateRows = false
	return style
}

func newTable(w io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(NewTableStyle())
	t.SetTitle(title)
	return t
}

// RenderReport writes the model comparison and the top topN features of each
// model to w. topN <= 0 lists every feature.
func RenderReport(w io.Writer, report *Report, topN int) {
	fmt.Fprintf(w, "Features: %v\nLabel: %s\nSplit: %d train / %d test (test fraction %g, seed %d)\n\n",
		report.FeatureNames, report.LabelName,
		report.TrainSamples, report.TestSamples, report.TestFraction, report.SplitSeed)

	summary := newTable(w, "Model comparison")
	summary.AppendHeader(table.Row{"Model", "Trees", "Max depth", "Min split", "MAE", "R2", "RMSE", "OOB R2"})
	summary.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
		{Number: 7, Align: text.AlignRight},
		{Number: 8, Align: text.AlignRight},
	})
	for _, res := range report.Results {
		oob := "-"
		if res.HasOOB {
			oob = formatFloat(res.OOBScore, R2Places)
		}
		summary.AppendRow(table.Row{
			res.Config.Name,
			res.Config.NEstimators,
			formatDepth(res.Config.MaxDepth),
			res.Config.MinSamplesSplit,
			formatFloat(res.MAE, MAEPlaces),
			formatFloat(res.R2, R2Places),
			formatFloat(res.RMSE, MAEPlaces),
			oob,
		})
	}
	summary.Render()

	for _, res := range report.Results {
		fmt.Fprintln(w)
		RenderImportances(w, fmt.Sprintf("Top features (%s)", res.Config.Name), Top(res.Importances, topN))
	}
}

// RenderImportances writes a ranked importance table to w.
func RenderImportances(w io.Writer, title string, ranked []FeatureImportance) {
	t := newTable(w, title)
	t.AppendHeader(table.Row{"#", "Feature", "Importance"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
	})
	for i, fi := range ranked {
		t.AppendRow(table.Row{i + 1, fi.Feature, formatFloat(fi.Importance, ImportancePlaces)})
	}
	t.Render()
}

// RenderCV writes per-fold scores and their means to w.
func RenderCV(w io.Writer, cv *CVResult) {
	t := newTable(w, fmt.Sprintf("Cross-validation (%s, %d folds)", cv.Model, len(cv.Folds)))
	t.AppendHeader(table.Row{"Fold", "Train", "Test", "MAE", "R2", "RMSE"})
	for _, f := range cv.Folds {
		t.AppendRow(table.Row{
			f.Fold + 1, f.TrainSize, f.TestSize,
			formatFloat(f.MAE, MAEPlaces),
			formatFloat(f.R2, R2Places),
			formatFloat(f.RMSE, MAEPlaces),
		})
	}
	t.AppendFooter(table.Row{
		"mean", "", "",
		formatFloat(cv.MeanMAE, MAEPlaces),
		formatFloat(cv.MeanR2, R2Places),
		formatFloat(cv.MeanRMSE, MAEPlaces),
	})
	t.Render()
}

func formatFloat(v float64, places int) string {
	return strconv.FormatFloat(metrics.Round(v, places), 'f', places, 64)
}

func formatDepth(depth int) string {
	if depth < 0 {
		return "none"
	}
	return strconv.Itoa(depth)
}
