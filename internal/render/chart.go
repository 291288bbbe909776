package render

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

const (
	chartWidth  = "900px"
	chartHeight = "500px"
	lineWidth   = 2
)

// chartSeries defines a single line series to plot.
type chartSeries struct {
	Name      string
	ValueFunc func(BenchRow) float64
	Dashed    bool
}

// HeightChart builds a line chart of height, black-height, and the height
// bound against tree size.
func HeightChart(rows []BenchRow) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "ordtree bench",
			Width:     chartWidth,
			Height:    chartHeight,
		}),
		charts.WithTitleOpts(opts.Title{Title: "Tree depth by size"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Size"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Nodes on path"}),
	)

	labels := make([]string, len(rows))
	for i, row := range rows {
		labels[i] = humanize.Comma(int64(row.Size))
	}

	line.SetXAxis(labels)

	series := []chartSeries{
		{Name: "Height", ValueFunc: func(row BenchRow) float64 { return float64(row.Height) }},
		{Name: "Black-height", ValueFunc: func(row BenchRow) float64 { return float64(row.BlackHeight) }},
		{Name: "2·log2(n+1)", ValueFunc: func(row BenchRow) float64 { return HeightBound(row.Size) }, Dashed: true},
	}

	for _, s := range series {
		data := make([]opts.LineData, len(rows))
		for i, row := range rows {
			data[i] = opts.LineData{Value: s.ValueFunc(row)}
		}

		lineStyle := opts.LineStyle{Width: lineWidth}
		if s.Dashed {
			lineStyle.Type = "dashed"
		}

		line.AddSeries(s.Name, data, charts.WithLineStyleOpts(lineStyle))
	}

	return line
}

// WriteHeightChart renders the height chart as a standalone HTML page.
func WriteHeightChart(out io.Writer, rows []BenchRow) error {
	err := HeightChart(rows).Render(out)
	if err != nil {
		return fmt.Errorf("render height chart: %w", err)
	}

	return nil
}
