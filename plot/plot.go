// Package plot renders confusion-matrix heatmaps and the accuracy bar chart
// with gonum/plot. The image format follows the file extension.
package plot

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strconv"

	"github.com/YuminosukeSato/playertier/evaluation"
	"github.com/YuminosukeSato/playertier/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var (
	width  = 6 * vg.Inch
	height = 5 * vg.Inch
)

// confusionGrid adapts a confusion matrix to plotter.GridXYZ. Column c is
// the predicted class; row r counts from the bottom, so the first true
// class is drawn at the top.
type confusionGrid struct {
	counts [][]int
}

func (g confusionGrid) Dims() (c, r int) { return len(g.counts), len(g.counts) }
func (g confusionGrid) X(c int) float64  { return float64(c) }
func (g confusionGrid) Y(r int) float64  { return float64(r) }
func (g confusionGrid) Z(c, r int) float64 {
	return float64(g.counts[len(g.counts)-1-r][c])
}

// ConfusionHeatmap draws counts (rows true, columns predicted) with the
// count written in every cell.
func ConfusionHeatmap(path, title string, counts [][]int, classNames []string) error {
	n := len(counts)
	if n == 0 || len(classNames) != n {
		return errors.NewDimensionError("plot.ConfusionHeatmap", len(classNames), n, 0)
	}
	for _, row := range counts {
		if len(row) != n {
			return errors.NewDimensionError("plot.ConfusionHeatmap", n, len(row), 1)
		}
	}

	grid := confusionGrid{counts: counts}
	hm := plotter.NewHeatMap(grid, palette.Heat(16, 1))
	if hm.Max == hm.Min {
		hm.Max = hm.Min + 1
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Predicted"
	p.Y.Label.Text = "Actual"
	p.Add(hm)

	var xys plotter.XYs
	var labels []string
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			xys = append(xys, plotter.XY{X: float64(c), Y: float64(r)})
			labels = append(labels, strconv.Itoa(int(grid.Z(c, r))))
		}
	}
	cellLabels, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: labels})
	if err != nil {
		return errors.Wrap(err, "cell labels")
	}
	p.Add(cellLabels)

	reversed := make([]string, n)
	for i, name := range classNames {
		reversed[n-1-i] = name
	}
	p.NominalX(classNames...)
	p.NominalY(reversed...)

	return save(p, path)
}

// AccuracyBars draws one bar per model, in the given order.
func AccuracyBars(path string, names []string, accuracies []float64) error {
	if len(names) == 0 || len(names) != len(accuracies) {
		return errors.NewDimensionError("plot.AccuracyBars", len(names), len(accuracies), 0)
	}

	bars, err := plotter.NewBarChart(plotter.Values(accuracies), vg.Points(24))
	if err != nil {
		return errors.Wrap(err, "bar chart")
	}
	bars.Color = color.RGBA{R: 70, G: 130, B: 180, A: 255}

	p := plot.New()
	p.Title.Text = "Model accuracy"
	p.Y.Label.Text = "Accuracy"
	p.Y.Min, p.Y.Max = 0, 1.05
	p.Add(bars)

	xys := make(plotter.XYs, len(accuracies))
	labels := make([]string, len(accuracies))
	for i, a := range accuracies {
		xys[i] = plotter.XY{X: float64(i), Y: a}
		labels[i] = fmt.Sprintf("%.3f", a)
	}
	values, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: labels})
	if err != nil {
		return errors.Wrap(err, "bar labels")
	}
	p.Add(values)
	p.NominalX(names...)

	return save(p, path)
}

// Run writes confusion_<key>.png for every successful classifier and
// accuracy.png with the ranked classifiers into dir.
func Run(dir string, classNames []string, run *evaluation.Run) error {
	for _, res := range run.Results {
		if res.Failed || res.Confusion == nil {
			continue
		}
		path := filepath.Join(dir, "confusion_"+res.Key+".png")
		if err := ConfusionHeatmap(path, res.Name+" confusion matrix", res.Confusion.Counts, classNames); err != nil {
			return errors.Wrapf(err, "plot %s", res.Key)
		}
	}

	var names []string
	var accuracies []float64
	for _, e := range run.Ranking.Entries {
		if e.Failed {
			continue
		}
		names = append(names, e.Name)
		accuracies = append(accuracies, e.Accuracy)
	}
	if len(names) == 0 {
		return nil
	}
	return AccuracyBars(filepath.Join(dir, "accuracy.png"), names, accuracies)
}

func save(p *plot.Plot, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "create %s", filepath.Dir(path))
	}
	if err := p.Save(width, height, path); err != nil {
		return errors.Wrapf(err, "save %s", path)
	}
	return nil
}
