package chart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiihann/benchscope/compare"
	"github.com/weiihann/benchscope/fixture"
	"github.com/weiihann/benchscope/metrics"
	"github.com/weiihann/benchscope/series"
)

func mustSeries(t *testing.T, name string, rows ...[4]float64) *series.Series {
	t.Helper()

	points := make([]series.DataPoint, len(rows))
	for i, r := range rows {
		points[i] = series.DataPoint{
			LoadLevel:         int(r[0]),
			EndToEndLatencyMs: r[1],
			ServerLatencyMs:   r[2],
			ClientQueryTimeMs: r[3],
		}
	}

	s, err := series.New(name, points)
	require.NoError(t, err)

	return s
}

func mustCompute(t *testing.T, s *series.Series) *metrics.Derived {
	t.Helper()

	d, err := metrics.Compute(s)
	require.NoError(t, err)

	return d
}

func exampleComparison(t *testing.T) Comparison {
	t.Helper()

	a := mustSeries(t, "a.csv", [4]float64{3, 100, 60, 30}, [4]float64{25, 400, 250, 80})
	b := mustSeries(t, "b.csv", [4]float64{3, 80, 60, 15}, [4]float64{25, 340, 250, 70})

	res, err := compare.Compare(a, b)
	require.NoError(t, err)

	return Comparison{A: mustCompute(t, a), B: mustCompute(t, b), Result: res}
}

func TestSeriesCatalog(t *testing.T) {
	s, err := fixture.NewGenerator(fixture.DefaultConfig()).Series()
	require.NoError(t, err)

	specs := BuildSeriesCatalog(s, mustCompute(t, s))
	require.Len(t, specs, len(SeriesCatalog))

	want := []string{
		"1_end_to_end_latency.png",
		"2_server_latency.png",
		"3_client_query_time.png",
		"4_latency_breakdown.png",
		"5_normalized_scaling.png",
		"6_throughput.png",
	}

	for i, spec := range specs {
		assert.Equal(t, want[i], spec.FileName())
		assert.NotEmpty(t, spec.Title)
		assert.Equal(t, "Number of Writers", spec.XLabel)
		assert.NotEmpty(t, spec.Series)
	}
}

func TestEndToEndCurve(t *testing.T) {
	s := mustSeries(t, "a", [4]float64{3, 100, 60, 30}, [4]float64{25, 400, 250, 80})

	spec, err := BuildSeries(KindEndToEndLatency, s, mustCompute(t, s))
	require.NoError(t, err)

	require.Len(t, spec.Series, 1)
	line := spec.Series[0]
	assert.Equal(t, RolePrimary, line.Role)
	assert.Equal(t, MarkLine, line.Mark)
	assert.Equal(t, []Point{{LoadLevel: 3, Value: 100}, {LoadLevel: 25, Value: 400}}, line.Points)
	assert.Equal(t, "100.0ms", spec.Annotations[0].Text)
	assert.Equal(t, 25.0, spec.X(25))
}

func TestErrorBarsFromStdDev(t *testing.T) {
	s, err := series.New("a", []series.DataPoint{
		{LoadLevel: 3, EndToEndLatencyMs: 100, ServerLatencyMs: 50, ServerStdDev: series.Float(2.5)},
	})
	require.NoError(t, err)

	spec, err := BuildSeries(KindServerLatency, s, mustCompute(t, s))
	require.NoError(t, err)
	require.NotNil(t, spec.Series[0].Points[0].Err)
	assert.Equal(t, 2.5, *spec.Series[0].Points[0].Err)

	spec, err = BuildSeries(KindEndToEndLatency, s, mustCompute(t, s))
	require.NoError(t, err)
	assert.Nil(t, spec.Series[0].Points[0].Err)
}

func TestBreakdownStacksToEndToEnd(t *testing.T) {
	s := mustSeries(t, "a", [4]float64{3, 100, 80, 30}, [4]float64{10, 200, 120, 40})

	spec, err := BuildSeries(KindLatencyBreakdown, s, mustCompute(t, s))
	require.NoError(t, err)

	require.Len(t, spec.Series, 3)
	assert.True(t, spec.Categorical)
	assert.Equal(t, 1.0, spec.X(10))

	for i, load := range []int{3, 10} {
		sum := 0.0
		for _, ser := range spec.Series {
			assert.Equal(t, MarkStackedBar, ser.Mark)
			sum += ser.Points[i].Value
		}
		p, _ := s.Lookup(load)
		assert.Equal(t, p.EndToEndLatencyMs, sum)
	}

	// Negative residual is drawn as is and flagged.
	assert.Equal(t, -10.0, spec.Series[2].Points[0].Value)
	require.Len(t, spec.Annotations, 1)
	assert.Equal(t, Annotation{LoadLevel: 3, Value: -10, Text: "residual -10.0ms"}, spec.Annotations[0])
}

func TestNormalizedScalingTiers(t *testing.T) {
	s := mustSeries(t, "a",
		[4]float64{3, 100, 50, 20},
		[4]float64{5, 150, 50, 20},
		[4]float64{10, 200, 50, 20},
		[4]float64{25, 300, 50, 20},
	)

	spec, err := BuildSeries(KindNormalizedScaling, s, mustCompute(t, s))
	require.NoError(t, err)

	require.Len(t, spec.Series, 2)
	bars, baseline := spec.Series[0], spec.Series[1]

	roles := make([]Role, len(bars.Points))
	for i, p := range bars.Points {
		roles[i] = p.Role
	}
	assert.Equal(t, []Role{RoleTierGood, RoleTierGood, RoleTierElevated, RoleTierDegraded}, roles)

	assert.Equal(t, MarkReference, baseline.Mark)
	assert.Equal(t, 1.0, baseline.Points[0].Value)
	assert.Equal(t, "Baseline (3 writers)", baseline.Name)
	assert.Equal(t, "3.00x", spec.Annotations[3].Text)
}

func TestThroughputAnnotations(t *testing.T) {
	s := mustSeries(t, "a", [4]float64{3, 100, 60, 30})

	spec, err := BuildSeries(KindThroughput, s, mustCompute(t, s))
	require.NoError(t, err)

	assert.Equal(t, 10.0, spec.Series[0].Points[0].Value)
	assert.Equal(t, "10.00 q/s", spec.Annotations[0].Text)
}

func TestUnknownKind(t *testing.T) {
	s := mustSeries(t, "a", [4]float64{3, 100, 60, 30})

	_, err := BuildSeries(KindCompareEndToEnd, s, mustCompute(t, s))
	assert.Error(t, err)

	_, err = BuildComparison(KindThroughput, exampleComparison(t))
	assert.Error(t, err)
}

func TestComparisonCatalogWithoutStdDev(t *testing.T) {
	specs := BuildComparisonCatalog(exampleComparison(t))

	require.Len(t, specs, len(ComparisonCatalog)-1)
	for _, spec := range specs {
		assert.NotEqual(t, KindCompareStability, spec.Kind)
	}

	_, err := BuildComparison(KindCompareStability, exampleComparison(t))
	assert.ErrorIs(t, err, ErrNoStdDev)
}

func TestComparisonCatalogWithStdDev(t *testing.T) {
	cfgA := fixture.DefaultConfig()
	cfgA.OverheadMs = 40
	cfgB := fixture.DefaultConfig()
	cfgB.Seed = 7

	a, err := fixture.NewGenerator(cfgA).Series()
	require.NoError(t, err)
	b, err := fixture.NewGenerator(cfgB).Series()
	require.NoError(t, err)

	res, err := compare.Compare(a, b)
	require.NoError(t, err)

	specs := BuildComparisonCatalog(Comparison{
		A: mustCompute(t, a), B: mustCompute(t, b), Result: res,
		LabelA: "Multiple Server Restarts", LabelB: "Single Server (Plan A)",
	})
	require.Len(t, specs, len(ComparisonCatalog))

	last := specs[len(specs)-1]
	assert.Equal(t, "6_compare_stability.png", last.FileName())
	assert.Equal(t, "Multiple Server Restarts", last.Series[0].Name)
	assert.Equal(t, "Single Server (Plan A)", last.Series[1].Name)
	assert.Equal(t, *res.AlignedPoints[0].StdDevB, last.Series[1].Points[0].Value)
}

func TestFixedOverheadChart(t *testing.T) {
	spec, err := BuildComparison(KindCompareFixedOverhead, exampleComparison(t))
	require.NoError(t, err)

	require.Len(t, spec.Series, 2)
	assert.Equal(t, []Point{{LoadLevel: 3, Value: 20}, {LoadLevel: 25, Value: 60}}, spec.Series[0].Points)
	assert.Equal(t, RoleOverhead, spec.Series[0].Role)
	assert.Equal(t, "Average: 40.00 ms", spec.Series[1].Name)
	assert.Equal(t, 40.0, spec.Series[1].Points[0].Value)
	assert.Equal(t, []int{3, 25}, spec.LoadLevels)
}

func TestComparisonOverlayDefaultsToSeriesNames(t *testing.T) {
	spec, err := BuildComparison(KindCompareNormalizedScaling, exampleComparison(t))
	require.NoError(t, err)

	require.Len(t, spec.Series, 3)
	assert.Equal(t, "a.csv", spec.Series[0].Name)
	assert.Equal(t, RoleSecondary, spec.Series[1].Role)
	assert.Equal(t, 4.25, spec.Series[1].Points[1].Value)
	assert.Equal(t, RoleBaseline, spec.Series[2].Role)
}

func TestSpecsDoNotShareState(t *testing.T) {
	c := exampleComparison(t)

	s1, err := BuildComparison(KindCompareEndToEnd, c)
	require.NoError(t, err)
	s2, err := BuildComparison(KindCompareEndToEnd, c)
	require.NoError(t, err)

	s1.Series[0].Points[0].Value = -1
	assert.Equal(t, 100.0, s2.Series[0].Points[0].Value)
	assert.Equal(t, 100.0, c.A.Points[0].EndToEndLatencyMs)
}

func TestStyleForIsPure(t *testing.T) {
	roles := []Role{
		RolePrimary, RoleSecondary, RoleBaseline, RoleClient, RoleServer, RoleNetwork,
		RoleThroughput, RoleTierGood, RoleTierElevated, RoleTierDegraded, RoleOverhead, RoleOverheadMean,
	}

	for _, r := range roles {
		assert.Equal(t, StyleFor(r), StyleFor(r), "role %s", r)
	}

	assert.NotEqual(t, StyleFor(RolePrimary).Color, StyleFor(RoleSecondary).Color)
	assert.True(t, StyleFor(RoleBaseline).Dashed)
	assert.Equal(t, MarkerNone, StyleFor(RoleBaseline).Marker)
}
