package chart

import (
	"fmt"
	"slices"

	"github.com/weiihann/benchscope/compare"
	"github.com/weiihann/benchscope/metrics"
	"github.com/weiihann/benchscope/series"
)

const xLabel = "Number of Writers"

// Comparison bundles the inputs of the comparison charts.
type Comparison struct {
	A, B           *metrics.Derived
	Result         *compare.Result
	LabelA, LabelB string
}

func (c Comparison) labels() (string, string) {
	a, b := c.LabelA, c.LabelB
	if a == "" {
		a = c.A.Series
	}
	if b == "" {
		b = c.B.Series
	}

	return a, b
}

// BuildSeries builds one single-series chart.
func BuildSeries(kind Kind, s *series.Series, d *metrics.Derived) (Spec, error) {
	index := slices.Index(SeriesCatalog, kind)
	if index < 0 {
		return Spec{}, fmt.Errorf("unknown series chart %q", kind)
	}

	spec := Spec{
		Kind:       kind,
		Index:      index + 1,
		XLabel:     xLabel,
		LoadLevels: s.LoadLevels(),
	}

	raw := s.Points()

	switch kind {
	case KindEndToEndLatency:
		spec.Title = "End-to-End Search Latency vs Number of Writers"
		spec.YLabel = "Latency (ms)"
		spec.addCurve("End-to-End Latency", RolePrimary, raw,
			func(p series.DataPoint) (float64, *float64) { return p.EndToEndLatencyMs, p.EndToEndStdDev },
			"%.1fms")

	case KindServerLatency:
		spec.Title = "Server Processing Latency vs Number of Writers"
		spec.YLabel = "Latency (ms)"
		spec.addCurve("Server Processing Latency", RoleServer, raw,
			func(p series.DataPoint) (float64, *float64) { return p.ServerLatencyMs, p.ServerStdDev },
			"%.1fms")

	case KindClientQueryTime:
		spec.Title = "Client Query Generation Time vs Number of Writers"
		spec.YLabel = "Time (ms)"
		spec.addCurve("Client Query Generation", RoleClient, raw,
			func(p series.DataPoint) (float64, *float64) { return p.ClientQueryTimeMs, p.ClientStdDev },
			"%.1fms")

	case KindLatencyBreakdown:
		spec.Title = "Search Latency Breakdown (Stacked)"
		spec.YLabel = "Time (ms)"
		spec.Categorical = true
		spec.Series = breakdownSeries(d)
		for _, w := range d.Warnings {
			if w.Kind != series.WarnIncompleteDecomposition {
				continue
			}
			if p, ok := d.At(w.LoadLevel); ok {
				spec.annotate(p.LoadLevel, p.Breakdown.Network, "residual %.1fms")
			}
		}

	case KindNormalizedScaling:
		spec.Title = "Performance Scaling Factor"
		spec.YLabel = fmt.Sprintf("Normalized Latency (relative to %d writers)", d.BaselineLoadLevel)
		spec.Categorical = true
		spec.Series = scalingSeries(d)
		for _, p := range d.Points {
			spec.annotate(p.LoadLevel, p.NormalizedLatency, "%.2fx")
		}

	case KindThroughput:
		spec.Title = "Search Throughput vs Number of Writers"
		spec.YLabel = "Queries per Second"

		points := make([]Point, len(d.Points))
		for i, p := range d.Points {
			points[i] = Point{LoadLevel: p.LoadLevel, Value: p.ThroughputQPS}
			spec.annotate(p.LoadLevel, p.ThroughputQPS, "%.2f q/s")
		}

		spec.Series = []Series{{
			Name:   "Search Throughput",
			Role:   RoleThroughput,
			Mark:   MarkLine,
			Fill:   true,
			Points: points,
		}}
	}

	return spec, nil
}

// BuildSeriesCatalog builds every single-series chart in catalog order.
func BuildSeriesCatalog(s *series.Series, d *metrics.Derived) []Spec {
	specs := make([]Spec, 0, len(SeriesCatalog))
	for _, kind := range SeriesCatalog {
		// Catalog kinds are always known.
		spec, _ := BuildSeries(kind, s, d)
		specs = append(specs, spec)
	}

	return specs
}

// BuildComparison builds one comparison chart. KindCompareStability returns
// ErrNoStdDev unless every aligned point has std-dev on both sides.
func BuildComparison(kind Kind, c Comparison) (Spec, error) {
	index := slices.Index(ComparisonCatalog, kind)
	if index < 0 {
		return Spec{}, fmt.Errorf("unknown comparison chart %q", kind)
	}

	labelA, labelB := c.labels()

	spec := Spec{
		Kind:       kind,
		Index:      index + 1,
		XLabel:     xLabel,
		LoadLevels: unionLoadLevels(c.A, c.B),
	}

	pair := func(f func(metrics.Point) float64) {
		spec.Series = []Series{
			derivedLine(labelA, RolePrimary, c.A, f),
			derivedLine(labelB, RoleSecondary, c.B, f),
		}
	}

	switch kind {
	case KindCompareEndToEnd:
		spec.Title = "End-to-End Latency Comparison"
		spec.YLabel = "End-to-End Latency (ms)"
		pair(func(p metrics.Point) float64 { return p.EndToEndLatencyMs })

	case KindCompareServerLatency:
		spec.Title = "Server Latency Comparison"
		spec.YLabel = "Server Latency (ms)"
		pair(func(p metrics.Point) float64 { return p.Breakdown.Server })

	case KindCompareFixedOverhead:
		spec.Title = "Fixed Overhead Estimation"
		spec.YLabel = "Latency Difference (ms)"
		spec.Categorical = true
		spec.LoadLevels = alignedLoadLevels(c.Result)

		bars := make([]Point, len(c.Result.AlignedPoints))
		for i, p := range c.Result.AlignedPoints {
			bars[i] = Point{LoadLevel: p.LoadLevel, Value: p.DeltaMs}
			spec.annotate(p.LoadLevel, p.DeltaMs, "%.1fms")
		}

		mean := c.Result.FixedOverhead.MeanMs
		spec.Series = []Series{
			{Name: "Latency Difference", Role: RoleOverhead, Mark: MarkBar, Points: bars},
			reference(fmt.Sprintf("Average: %.2f ms", mean), RoleOverheadMean, mean),
		}

	case KindCompareNormalizedScaling:
		spec.Title = "Performance Scaling (Normalized)"
		spec.YLabel = "Normalized Latency"
		pair(func(p metrics.Point) float64 { return p.NormalizedLatency })
		spec.Series = append(spec.Series, reference("Baseline", RoleBaseline, 1))

	case KindCompareScalingEfficiency:
		spec.Title = "Scaling Efficiency"
		spec.YLabel = "Latency per Writer (ms)"
		pair(func(p metrics.Point) float64 { return p.LatencyPerUnitLoad })

	case KindCompareStability:
		if !c.Result.HasStdDev() {
			return Spec{}, ErrNoStdDev
		}

		spec.Title = "Performance Stability"
		spec.YLabel = "Standard Deviation (ms)"
		spec.LoadLevels = alignedLoadLevels(c.Result)

		sa := Series{Name: labelA, Role: RolePrimary, Mark: MarkLine}
		sb := Series{Name: labelB, Role: RoleSecondary, Mark: MarkLine}
		for _, p := range c.Result.AlignedPoints {
			sa.Points = append(sa.Points, Point{LoadLevel: p.LoadLevel, Value: *p.StdDevA})
			sb.Points = append(sb.Points, Point{LoadLevel: p.LoadLevel, Value: *p.StdDevB})
		}
		spec.Series = []Series{sa, sb}
	}

	return spec, nil
}

// BuildComparisonCatalog builds every applicable comparison chart in catalog
// order. The stability chart is omitted when std-dev data is missing.
func BuildComparisonCatalog(c Comparison) []Spec {
	specs := make([]Spec, 0, len(ComparisonCatalog))
	for _, kind := range ComparisonCatalog {
		spec, err := BuildComparison(kind, c)
		if err != nil {
			continue
		}
		specs = append(specs, spec)
	}

	return specs
}

func (s *Spec) addCurve(
	name string, role Role, raw []series.DataPoint,
	value func(series.DataPoint) (float64, *float64), label string,
) {
	points := make([]Point, len(raw))
	for i, p := range raw {
		v, e := value(p)
		points[i] = Point{LoadLevel: p.LoadLevel, Value: v}
		if e != nil {
			points[i].Err = series.Float(*e)
		}
		s.annotate(p.LoadLevel, v, label)
	}

	s.Series = append(s.Series, Series{
		Name:   name,
		Role:   role,
		Mark:   MarkLine,
		Fill:   true,
		Points: points,
	})
}

func (s *Spec) annotate(loadLevel int, value float64, format string) {
	s.Annotations = append(s.Annotations, Annotation{
		LoadLevel: loadLevel,
		Value:     value,
		Text:      fmt.Sprintf(format, value),
	})
}

func breakdownSeries(d *metrics.Derived) []Series {
	client := Series{Name: "Client Query Generation", Role: RoleClient, Mark: MarkStackedBar}
	server := Series{Name: "Server Processing", Role: RoleServer, Mark: MarkStackedBar}
	network := Series{Name: "Network + Parsing", Role: RoleNetwork, Mark: MarkStackedBar}

	for _, p := range d.Points {
		client.Points = append(client.Points, Point{LoadLevel: p.LoadLevel, Value: p.Breakdown.Client})
		server.Points = append(server.Points, Point{LoadLevel: p.LoadLevel, Value: p.Breakdown.Server})
		network.Points = append(network.Points, Point{LoadLevel: p.LoadLevel, Value: p.Breakdown.Network})
	}

	return []Series{client, server, network}
}

func scalingSeries(d *metrics.Derived) []Series {
	bars := Series{Name: "Normalized Latency", Role: RoleTierGood, Mark: MarkBar}

	for _, p := range d.Points {
		bars.Points = append(bars.Points, Point{
			LoadLevel: p.LoadLevel,
			Value:     p.NormalizedLatency,
			Role:      tierRole(p.Tier),
		})
	}

	return []Series{
		bars,
		reference(fmt.Sprintf("Baseline (%d writers)", d.BaselineLoadLevel), RoleBaseline, 1),
	}
}

func tierRole(t metrics.Tier) Role {
	switch t {
	case metrics.TierGood:
		return RoleTierGood
	case metrics.TierElevated:
		return RoleTierElevated
	default:
		return RoleTierDegraded
	}
}

func derivedLine(name string, role Role, d *metrics.Derived, f func(metrics.Point) float64) Series {
	s := Series{Name: name, Role: role, Mark: MarkLine, Points: make([]Point, len(d.Points))}
	for i, p := range d.Points {
		s.Points[i] = Point{LoadLevel: p.LoadLevel, Value: f(p)}
	}

	return s
}

func reference(name string, role Role, value float64) Series {
	return Series{Name: name, Role: role, Mark: MarkReference, Points: []Point{{Value: value}}}
}

func unionLoadLevels(a, b *metrics.Derived) []int {
	var levels []int
	for _, p := range a.Points {
		levels = append(levels, p.LoadLevel)
	}
	for _, p := range b.Points {
		levels = append(levels, p.LoadLevel)
	}

	slices.Sort(levels)

	return slices.Compact(levels)
}

func alignedLoadLevels(r *compare.Result) []int {
	levels := make([]int, len(r.AlignedPoints))
	for i, p := range r.AlignedPoints {
		levels[i] = p.LoadLevel
	}

	return levels
}
