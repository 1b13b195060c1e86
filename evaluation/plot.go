package evaluation

import (
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/scoreforest/pkg/errors"
)

// PlotImportances saves a horizontal bar chart of ranked importances to path.
// The image format follows the file extension (.png, .svg, .pdf, ...). The
// most important feature is drawn at the top.
func PlotImportances(path string, ranked []FeatureImportance, title string) error {
	if len(ranked) == 0 {
		return errors.NewValueError("PlotImportances", "no feature importances to plot")
	}

	n := len(ranked)
	values := make(plotter.Values, n)
	names := make([]string, n)
	for i, fi := range ranked {
		values[n-1-i] = fi.Importance
		names[n-1-i] = fi.Feature
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Importance"
	p.X.Min = 0
	p.Add(plotter.NewGrid())

	bars, err := plotter.NewBarChart(values, vg.Points(14))
	if err != nil {
		return errors.Wrap(err, "building importance bars")
	}
	bars.Horizontal = true
	bars.LineStyle.Width = vg.Length(0)
	bars.Color = plotter.DefaultLineStyle.Color
	p.Add(bars)
	p.NominalY(names...)

	height := vg.Length(n)*vg.Points(22) + 2*vg.Inch
	if err := p.Save(8*vg.Inch, height, path); err != nil {
		return errors.Wrapf(err, "saving plot to %s", path)
	}
	return nil
}
