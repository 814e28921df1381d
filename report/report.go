// Package report formats benchmark series, their metrics and comparisons
// into fixed-width text reports.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/weiihann/benchscope/compare"
	"github.com/weiihann/benchscope/metrics"
	"github.com/weiihann/benchscope/series"
)

// cellWidth is the minimum padded width of a table cell. A table whose
// widest cell does not fit widens every column of that table instead.
const cellWidth = 21

// absent marks a missing optional value in a table cell.
const absent = "-"

const (
	colNetwork    = "Network(ms)"
	colThroughput = "Throughput(qps)"
	colNormalized = "Normalized"
	colPerWriter  = "PerWriter(ms)"
)

var seriesColumns = []string{
	series.ColumnWriters,
	series.ColumnClient,
	series.ColumnServer,
	colNetwork,
	series.ColumnEndToEnd,
	colThroughput,
	colNormalized,
	colPerWriter,
	series.ColumnEndToEndStdDev,
	series.ColumnServerStdDev,
	series.ColumnClientStdDev,
}

// Formatter renders reports. The zero value labels comparison sides with the
// series names.
type Formatter struct {
	LabelA string
	LabelB string
}

// Format renders the report of a single series.
func Format(s *series.Series, d *metrics.Derived) string {
	return Formatter{}.Format(s, d)
}

// FormatComparison renders the report of a two-series comparison.
func FormatComparison(a, b *series.Series, da, db *metrics.Derived, res *compare.Result) string {
	return Formatter{}.FormatComparison(a, b, da, db, res)
}

// Format renders the report of a single series.
func (f Formatter) Format(s *series.Series, d *metrics.Derived) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "== Benchmark Report: %s ==\n\n", s.Name())
	writeSeries(&sb, s, d)

	return sb.String()
}

// FormatComparison renders both series sections, the aligned delta table and
// the overhead and scaling analysis.
func (f Formatter) FormatComparison(
	a, b *series.Series, da, db *metrics.Derived, res *compare.Result,
) string {
	labelA, labelB := f.labels(a, b)

	var sb strings.Builder

	fmt.Fprintf(&sb, "== Benchmark Comparison: %s vs %s ==\n\n", labelA, labelB)
	fmt.Fprintf(&sb, "A: %s (%s)\n", labelA, a.Name())
	fmt.Fprintf(&sb, "B: %s (%s)\n\n", labelB, b.Name())

	fmt.Fprintf(&sb, "-- A: %s --\n\n", labelA)
	writeSeries(&sb, a, da)
	sb.WriteString("\n")

	fmt.Fprintf(&sb, "-- B: %s --\n\n", labelB)
	writeSeries(&sb, b, db)
	sb.WriteString("\n")

	sb.WriteString("-- Aligned --\n\n")
	aligned := table{header: []string{
		series.ColumnWriters, "A(ms)", "B(ms)", "Delta(ms)", "PerWriterA(ms)", "PerWriterB(ms)",
	}}
	for _, p := range res.AlignedPoints {
		aligned.add(fmt.Sprint(p.LoadLevel), raw(p.A), raw(p.B), num(p.DeltaMs),
			num(p.PerLoadA), num(p.PerLoadB))
	}
	aligned.write(&sb)

	o := res.FixedOverhead
	sb.WriteString("\nFixed overhead estimate (A - B)\n")
	writeField(&sb, "Mean", formatMs(o.MeanMs))
	writeField(&sb, "Min", fmt.Sprintf("%s (at %d writers)", formatMs(o.Min.DeltaMs), o.Min.LoadLevel))
	writeField(&sb, "Max", fmt.Sprintf("%s (at %d writers)", formatMs(o.Max.DeltaMs), o.Max.LoadLevel))

	sb.WriteString("\nScaling ratio (last / first load level)\n")
	writeField(&sb, "A", formatRatio(res.ScalingRatioA))
	writeField(&sb, "B", formatRatio(res.ScalingRatioB))
	writeField(&sb, "Divergence", formatRatio(res.ScalingDivergence))

	sb.WriteString("\nDropped load levels: ")
	if len(res.DroppedLoadLevels) == 0 {
		sb.WriteString("none\n")
	} else {
		sb.WriteString(joinInts(res.DroppedLoadLevels) + "\n")
	}

	writeWarnings(&sb, res.Warnings)

	return sb.String()
}

func (f Formatter) labels(a, b *series.Series) (string, string) {
	labelA, labelB := f.LabelA, f.LabelB
	if labelA == "" {
		labelA = a.Name()
	}
	if labelB == "" {
		labelB = b.Name()
	}

	return labelA, labelB
}

// GenerateJSON writes v as indented JSON to w.
func GenerateJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}

// writeSeries writes the series table and analysis. Measured columns are
// printed in shortest round-trip form so ParseTable recovers them exactly;
// derived columns are rounded for reading.
func writeSeries(sb *strings.Builder, s *series.Series, d *metrics.Derived) {
	t := table{header: seriesColumns}

	for i, p := range d.Points {
		dp := s.Point(i)
		t.add(
			fmt.Sprint(p.LoadLevel),
			raw(dp.ClientQueryTimeMs),
			raw(dp.ServerLatencyMs),
			num(p.Breakdown.Network),
			raw(dp.EndToEndLatencyMs),
			num(p.ThroughputQPS),
			num(p.NormalizedLatency),
			num(p.LatencyPerUnitLoad),
			optional(dp.EndToEndStdDev),
			optional(dp.ServerStdDev),
			optional(dp.ClientStdDev),
		)
	}
	t.write(sb)

	sb.WriteString("\nAnalysis\n")
	writeField(sb, "Load range", fmt.Sprintf("%d - %d writers", d.BaselineLoadLevel, d.PeakLoadLevel))
	writeField(sb, "Baseline latency",
		fmt.Sprintf("%s (at %d writers)", formatMs(d.BaselineLatencyMs), d.BaselineLoadLevel))
	writeField(sb, "Peak latency",
		fmt.Sprintf("%s (at %d writers)", formatMs(d.PeakLatencyMs), d.PeakLoadLevel))
	writeField(sb, "Scaling ratio", formatRatio(d.ScalingRatio))
	writeField(sb, "Server share", formatPercent(d.MeanServerShare))
	writeField(sb, "Client share", formatPercent(d.MeanClientShare))

	writeWarnings(sb, d.Warnings)
}

func writeWarnings(sb *strings.Builder, warnings []series.Warning) {
	if len(warnings) == 0 {
		sb.WriteString("\nWarnings: none\n")

		return
	}

	sb.WriteString("\nWarnings\n")
	for _, w := range warnings {
		fmt.Fprintf(sb, "  - %s\n", w)
	}
}

// table is a fixed-width text table. Every column of one table shares the
// same width so column offsets never depend on the values.
type table struct {
	header []string
	rows   [][]string
}

func (t *table) add(cells ...string) {
	t.rows = append(t.rows, cells)
}

// width is cellWidth, or the widest cell plus one separating space.
func (t *table) width() int {
	w := cellWidth
	for _, c := range t.header {
		w = max(w, len(c)+1)
	}
	for _, r := range t.rows {
		for _, c := range r {
			w = max(w, len(c)+1)
		}
	}

	return w
}

func (t *table) write(sb *strings.Builder) {
	w := t.width()

	writeRow(sb, w, t.header)

	last := 0
	for _, r := range append([][]string{t.header}, t.rows...) {
		last = max(last, len(r[len(r)-1]))
	}
	sb.WriteString(strings.Repeat("-", w*(len(t.header)-1)+last))
	sb.WriteString("\n")

	for _, r := range t.rows {
		writeRow(sb, w, r)
	}
}

func writeRow(sb *strings.Builder, width int, cells []string) {
	for i, c := range cells {
		sb.WriteString(c)
		if i < len(cells)-1 {
			sb.WriteString(strings.Repeat(" ", width-len(c)))
		}
	}

	sb.WriteString("\n")
}

func writeField(sb *strings.Builder, name, value string) {
	fmt.Fprintf(sb, "  %-18s %s\n", name+":", value)
}

func num(v float64) string {
	return fmt.Sprintf("%.3f", v)
}

// raw prints v in the shortest form that parses back to the same float64.
func raw(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func optional(v *float64) string {
	if v == nil {
		return absent
	}

	return raw(*v)
}

func formatMs(v float64) string {
	return fmt.Sprintf("%.2f ms", v)
}

func formatRatio(v float64) string {
	return fmt.Sprintf("%.2fx", v)
}

func formatPercent(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}

func joinInts(vs []int) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = fmt.Sprint(v)
	}

	return strings.Join(parts, ", ")
}
