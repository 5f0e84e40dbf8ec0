package cli

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// WriteChart renders an HTML scatter chart of the first two dimensions: one
// series per cluster plus a series of centroids. One-dimensional data is
// plotted against zero.
func WriteChart(w io.Writer, report *Report) error {
	run := report.Run
	if centroidDim(run.Centroids) == 0 {
		return fmt.Errorf("run %s has no centroids to plot", run.ID)
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "k-means clusters",
			Subtitle: fmt.Sprintf("%s, k=%d, %s after %d iterations", run.Source, run.K, run.State, run.Iterations),
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "x0"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "x1"}),
	)

	if len(report.Labels) == len(report.Data) {
		series := make([][]opts.ScatterData, len(run.Centroids))
		for i, v := range report.Data {
			label := report.Labels[i]
			if label < 0 || label >= len(series) {
				continue
			}
			series[label] = append(series[label], opts.ScatterData{Value: point(v)})
		}
		for i, data := range series {
			scatter.AddSeries(fmt.Sprintf("Cluster %d", i), data)
		}
	}

	centroids := make([]opts.ScatterData, 0, len(run.Centroids))
	for _, c := range run.Centroids {
		centroids = append(centroids, opts.ScatterData{Value: point(c), SymbolSize: 16})
	}
	scatter.AddSeries("Centroids", centroids, charts.WithItemStyleOpts(opts.ItemStyle{Color: "black"}))

	return scatter.Render(w)
}

func point(v []float64) []interface{} {
	switch len(v) {
	case 0:
		return []interface{}{0.0, 0.0}
	case 1:
		return []interface{}{v[0], 0.0}
	default:
		return []interface{}{v[0], v[1]}
	}
}
