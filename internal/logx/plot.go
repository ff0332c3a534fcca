package logx

import (
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// SaveReturnsPlot writes a learning curve of average training return per
// epoch to path.
func SaveReturnsPlot(path string, returns []float64) error {
	p := plot.New()
	p.Title.Text = "Average training return"
	p.X.Label.Text = "epoch"
	p.Y.Label.Text = "return"

	pts := make(plotter.XYs, len(returns))
	for i, r := range returns {
		pts[i].X = float64(i + 1)
		pts[i].Y = r
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	p.Add(line)
	return p.Save(8*vg.Inch, 5*vg.Inch, path)
}
