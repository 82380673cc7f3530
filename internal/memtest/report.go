package memtest

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
)

// WriteTable renders the summary of a memory test.
func WriteTable(w io.Writer, report *Report) error {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.SetTitle(fmt.Sprintf("memtest: %s", report.Algorithm))

	var load time.Duration
	for _, s := range report.Samples {
		load += s.Load
	}

	tbl.AppendRows([]table.Row{
		{"Trees", humanize.Comma(int64(report.Trees()))},
		{"Intervals per tree", humanize.Comma(int64(report.Intervals))},
		{"Budget", humanize.IBytes(report.Budget)},
		{"Baseline heap", humanize.IBytes(report.Baseline)},
		{"Used", humanize.IBytes(report.Used())},
		{"Per tree", humanize.IBytes(report.PerTree())},
		{"Per interval", fmt.Sprintf("%.1f B", report.PerInterval())},
		{"Total load time", load.Round(time.Millisecond).String()},
		{"Stopped", string(report.Reason)},
	})

	_, err := fmt.Fprintln(w, tbl.Render())

	return err
}
