package compare

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiihann/benchscope/fixture"
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

func exampleA(t *testing.T) *series.Series {
	return mustSeries(t, "restarts.csv", [4]float64{3, 100, 60, 30}, [4]float64{25, 400, 250, 80})
}

func exampleB(t *testing.T) *series.Series {
	return mustSeries(t, "single.csv", [4]float64{3, 80, 60, 15}, [4]float64{25, 340, 250, 70})
}

func TestCompareExample(t *testing.T) {
	r, err := Compare(exampleA(t), exampleB(t))
	require.NoError(t, err)

	assert.Equal(t, []float64{20, 60}, r.Deltas())
	assert.Equal(t, 40.0, r.FixedOverhead.MeanMs)
	assert.Equal(t, Extreme{DeltaMs: 20, LoadLevel: 3}, r.FixedOverhead.Min)
	assert.Equal(t, Extreme{DeltaMs: 60, LoadLevel: 25}, r.FixedOverhead.Max)
	assert.Equal(t, 4.0, r.ScalingRatioA)
	assert.Equal(t, 4.25, r.ScalingRatioB)
	assert.Equal(t, 0.25, r.ScalingDivergence)
	assert.Empty(t, r.DroppedLoadLevels)
	assert.Empty(t, r.Warnings)

	assert.Equal(t, "restarts.csv", r.NameA)
	assert.Equal(t, 100.0/3, r.AlignedPoints[0].PerLoadA)
	assert.Equal(t, 250.0, r.AlignedPoints[1].ServerB)
}

func TestComparePartialOverlap(t *testing.T) {
	a := mustSeries(t, "a", [4]float64{3, 100, 60, 30}, [4]float64{10, 200, 120, 40})
	b := mustSeries(t, "b", [4]float64{3, 90, 60, 20}, [4]float64{25, 300, 200, 50})

	r, err := Compare(a, b)
	require.NoError(t, err)

	require.Len(t, r.AlignedPoints, 1)
	assert.Equal(t, 3, r.AlignedPoints[0].LoadLevel)
	assert.Equal(t, []int{10, 25}, r.DroppedLoadLevels)
	assert.Equal(t, 10.0, r.FixedOverhead.MeanMs)

	require.Len(t, r.Warnings, 2)
	assert.Equal(t, series.WarnDroppedLoadLevel, r.Warnings[0].Kind)
	assert.Equal(t, "only present in a", r.Warnings[0].Detail)
	assert.Equal(t, "only present in b", r.Warnings[1].Detail)

	// Scaling ratios ignore alignment.
	assert.Equal(t, 2.0, r.ScalingRatioA)
	assert.InDelta(t, 300.0/90, r.ScalingRatioB, 1e-12)
}

func TestCompareNoOverlap(t *testing.T) {
	a := mustSeries(t, "a", [4]float64{3, 100, 60, 30})
	b := mustSeries(t, "b", [4]float64{5, 100, 60, 30})

	_, err := Compare(a, b)
	require.ErrorIs(t, err, series.ErrNoOverlap)

	var oErr *series.OverlapError
	require.ErrorAs(t, err, &oErr)
	assert.Equal(t, []int{3}, oErr.LoadLevelsA)
	assert.Equal(t, []int{5}, oErr.LoadLevelsB)
}

func TestCompareEmpty(t *testing.T) {
	_, err := Compare(&series.Series{}, exampleB(t))
	assert.ErrorIs(t, err, series.ErrEmptySeries)
}

func TestCompareAntiSymmetric(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		cfgA := fixture.DefaultConfig()
		cfgA.Seed = seed
		cfgA.OverheadMs = 35
		cfgB := fixture.DefaultConfig()
		cfgB.Seed = seed + 100

		a, err := fixture.NewGenerator(cfgA).Series()
		require.NoError(t, err)
		b, err := fixture.NewGenerator(cfgB).Series()
		require.NoError(t, err)

		ab, err := Compare(a, b)
		require.NoError(t, err)
		ba, err := Compare(b, a)
		require.NoError(t, err)

		require.Len(t, ba.AlignedPoints, len(ab.AlignedPoints))
		for i := range ab.AlignedPoints {
			assert.Equal(t, ab.AlignedPoints[i].DeltaMs, -ba.AlignedPoints[i].DeltaMs)
		}
		assert.Equal(t, ab.ScalingDivergence, ba.ScalingDivergence)
	}
}

func TestCompareWithSelf(t *testing.T) {
	s, err := fixture.NewGenerator(fixture.DefaultConfig()).Series()
	require.NoError(t, err)

	r, err := Compare(s, s)
	require.NoError(t, err)

	assert.Equal(t, 0.0, r.FixedOverhead.MeanMs)
	assert.Equal(t, 0.0, r.ScalingDivergence)
	assert.Len(t, r.AlignedPoints, s.Len())
	assert.True(t, r.HasStdDev())
}

func TestCompareDoesNotMutateInputs(t *testing.T) {
	a, b := exampleA(t), exampleB(t)
	before := a.Points()

	r1, err := Compare(a, b)
	require.NoError(t, err)
	r2, err := Compare(a, b)
	require.NoError(t, err)

	r1.AlignedPoints[0].DeltaMs = 1e9

	assert.Equal(t, before, a.Points())
	assert.Equal(t, 20.0, r2.AlignedPoints[0].DeltaMs)
}

func TestStdDevAlignment(t *testing.T) {
	a, err := series.New("a", []series.DataPoint{
		{LoadLevel: 3, EndToEndLatencyMs: 100, EndToEndStdDev: series.Float(4)},
	})
	require.NoError(t, err)
	b, err := series.New("b", []series.DataPoint{
		{LoadLevel: 3, EndToEndLatencyMs: 90},
	})
	require.NoError(t, err)

	r, err := Compare(a, b)
	require.NoError(t, err)
	assert.Nil(t, r.AlignedPoints[0].StdDevA)
	assert.False(t, r.HasStdDev())
}
