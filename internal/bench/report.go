package bench

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/jedib0t/go-pretty/v6/table"
)

const (
	chartWidth  = "1200px"
	chartHeight = "500px"
	chartTheme  = "dark"
	chartText   = "#e6edf3"
	chartMuted  = "#8b949e"
	chartAxis   = "#30363d"
	chartGrid   = "#21262d"
	chartBg     = "#0d1117"
	siDigits    = 3
)

// seriesColors cycles per algorithm.
var seriesColors = []string{"#5470c6", "#91cc75", "#fac858", "#ee6666"}

// WriteTable renders the report as a text table.
func WriteTable(w io.Writer, report *Report) error {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.SetTitle(fmt.Sprintf("%s workload, %s intervals, %s queries",
		report.Workload, humanize.Comma(int64(report.Intervals)), humanize.Comma(int64(report.Queries))))
	tbl.AppendHeader(table.Row{"Algorithm", "Scenario", "Ops", "Elapsed", "ns/op", "p50", "p99", "ops/s", "Hits"})

	for _, res := range report.Results {
		tbl.AppendRow(table.Row{
			res.Algorithm.String(),
			string(res.Scenario),
			humanize.Comma(int64(res.Ops)),
			res.Elapsed.Round(time.Microsecond).String(),
			humanize.CommafWithDigits(res.NsPerOp(), 1),
			latency(res.Latency.Count, res.Latency.P50),
			latency(res.Latency.Count, res.Latency.P99),
			humanize.SIWithDigits(res.OpsPerSec(), siDigits, ""),
			humanize.Comma(int64(res.Hits)),
		})
	}

	tbl.AppendFooter(table.Row{"", "", "", "", "", "", "", "Total", fmt.Sprintf("%d results", len(report.Results))})

	_, err := fmt.Fprintln(w, tbl.Render())

	return err
}

func latency(samples int, d time.Duration) string {
	if samples == 0 {
		return "-"
	}

	return d.String()
}

// NewChart builds a bar chart of mean latency per scenario, one series per
// algorithm.
func NewChart(report *Report) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:           chartWidth,
			Height:          chartHeight,
			BackgroundColor: chartBg,
			Theme:           chartTheme,
			PageTitle:       "Interval index benchmark",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:         "Mean latency per operation",
			Subtitle:      fmt.Sprintf("%s workload, %d intervals", report.Workload, report.Intervals),
			Left:          "center",
			TitleStyle:    &opts.TextStyle{Color: chartText},
			SubtitleStyle: &opts.TextStyle{Color: chartMuted},
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{
			Show:      opts.Bool(true),
			Top:       "10%",
			Left:      "center",
			TextStyle: &opts.TextStyle{Color: chartMuted},
		}),
		charts.WithXAxisOpts(opts.XAxis{
			AxisLabel: &opts.AxisLabel{Color: chartMuted},
			AxisLine:  &opts.AxisLine{LineStyle: &opts.LineStyle{Color: chartAxis}},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name:      "ns/op",
			Type:      "log",
			AxisLabel: &opts.AxisLabel{Color: chartMuted},
			SplitLine: &opts.SplitLine{Show: opts.Bool(true), LineStyle: &opts.LineStyle{Color: chartGrid}},
		}),
	)

	scenarios := Scenarios()
	labels := make([]string, len(scenarios))

	for i, s := range scenarios {
		labels[i] = string(s)
	}

	bar.SetXAxis(labels)

	for idx, algo := range reportAlgorithms(report) {
		data := make([]opts.BarData, len(scenarios))

		for i, s := range scenarios {
			res, _ := report.Lookup(algo, s)
			data[i] = opts.BarData{Value: res.NsPerOp()}
		}

		color := seriesColors[idx%len(seriesColors)]
		bar.AddSeries(algo.String(), data, charts.WithItemStyleOpts(opts.ItemStyle{Color: color}))
	}

	return bar
}

// WriteChart renders the latency chart as a standalone HTML page.
func WriteChart(w io.Writer, report *Report) error {
	return NewChart(report).Render(w)
}
