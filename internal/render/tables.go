package render

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/Sumatoshi-tech/ordtree/internal/workload"
)

// BenchRow is the measurement of one tree size.
type BenchRow struct {
	Size           int
	InsertTime     float64 // seconds for all inserts
	EraseTime      float64 // seconds for all erases
	Height         int
	BlackHeight    int
	HeapBefore     uint64
	HeapHibernated uint64
	Hibernated     bool
}

// HeightBound is the red-black height limit 2*log2(n+1).
func HeightBound(size int) float64 {
	return 2 * math.Log2(float64(size)+1)
}

func newTable(out io.Writer) table.Writer {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(out)
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false

	return tbl
}

// CheckTable writes the summary of a randomized run.
func CheckTable(out io.Writer, report *workload.CheckReport) {
	tbl := newTable(out)
	tbl.SetTitle("randomized check, seed " + strconv.FormatInt(report.Seed, 10))
	tbl.AppendHeader(table.Row{"Metric", "Value"})
	tbl.AppendRows([]table.Row{
		{"operations", humanize.Comma(int64(report.Ops))},
		{"inserts", humanize.Comma(int64(report.Inserts))},
		{"duplicate inserts", humanize.Comma(int64(report.Duplicates))},
		{"erases", humanize.Comma(int64(report.Erases))},
		{"erase misses", humanize.Comma(int64(report.EraseMisses))},
		{"finds", humanize.Comma(int64(report.Finds))},
		{"verifications", humanize.Comma(int64(report.Verifications))},
		{"final size", humanize.Comma(int64(report.FinalLen))},
		{"height", fmt.Sprintf("%d (bound %.1f)", report.Height, HeightBound(report.FinalLen))},
		{"black-height", report.BlackHeight},
		{"duration", report.Duration.String()},
	})
	tbl.Render()
}

// BenchTable writes one row per measured size.
func BenchTable(out io.Writer, rows []BenchRow) {
	tbl := newTable(out)
	tbl.AppendHeader(table.Row{"Size", "Insert/op", "Erase/op", "Height", "Bound", "Black-height", "Heap", "Hibernated"})

	for _, row := range rows {
		hibernated := "-"
		if row.Hibernated {
			hibernated = humanize.Bytes(row.HeapHibernated)
		}

		tbl.AppendRow(table.Row{
			humanize.Comma(int64(row.Size)),
			perOp(row.InsertTime, row.Size),
			perOp(row.EraseTime, row.Size),
			row.Height,
			fmt.Sprintf("%.1f", HeightBound(row.Size)),
			row.BlackHeight,
			humanize.Bytes(row.HeapBefore),
			hibernated,
		})
	}

	tbl.Render()
}

func perOp(seconds float64, size int) string {
	if size == 0 {
		return "-"
	}

	return fmt.Sprintf("%.0fns", seconds*1e9/float64(size))
}

// ReplayReport writes a pass/fail line for a replay, followed by any failures.
func ReplayReport(out io.Writer, report *workload.Report, colorize bool) {
	pass := color.New(color.FgGreen)
	fail := color.New(color.FgRed)
	hint := color.New(color.FgCyan)

	for _, c := range []*color.Color{pass, fail, hint} {
		if colorize {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	name := report.Name
	if name == "" {
		name = "script"
	}

	if !report.Failed() {
		pass.Fprintf(out, "PASS %s: %d steps, %d mutations verified\n", name, report.Steps, report.Verified)

		return
	}

	fail.Fprintf(out, "FAIL %s: %d of %d steps did not match\n", name, len(report.Failures), report.Steps)

	for _, failure := range report.Failures {
		fail.Fprintf(out, "  - step %d (%s): %s\n", failure.Step, failure.Op, failure.Message)

		if failure.Diff != "" {
			hint.Fprint(out, indent(failure.Diff, "      "))
		}
	}
}

func indent(text, prefix string) string {
	var out []byte

	startOfLine := true

	for idx := range len(text) {
		if startOfLine {
			out = append(out, prefix...)
		}

		out = append(out, text[idx])
		startOfLine = text[idx] == '\n'
	}

	return string(out)
}
