package report

import (
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/coloc.report/internal/coloc"
)

// WriteIntervalChart renders an HTML bar chart of total colocalized
// frames per identity tuple, a quick visual check of which particle
// combinations dominate the cell.
func WriteIntervalChart(w io.Writer, res *coloc.Result, label string) error {
	totals := map[string]int{}
	var order []string
	for _, iv := range res.Intervals {
		key := iv.IDs.Key()
		if _, seen := totals[key]; !seen {
			order = append(order, key)
		}
		totals[key] += iv.Frames()
	}

	data := make([]opts.BarData, 0, len(order))
	for _, key := range order {
		data = append(data, opts.BarData{Value: totals[key]})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Colocalized frames per identity combination",
			Subtitle: label,
		}),
	)
	bar.SetXAxis(order).AddSeries("frames", data)
	return bar.Render(w)
}
