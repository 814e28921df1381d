// Package compare aligns two benchmark series by load level and estimates
// how far apart the two measurement methodologies are.
package compare

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/weiihann/benchscope/series"
)

// AlignedPoint pairs the measurements of A and B at one load level.
type AlignedPoint struct {
	LoadLevel int `json:"writers"`
	// End-to-end latency of each side and DeltaMs = A - B.
	A       float64 `json:"a_ms"`
	B       float64 `json:"b_ms"`
	DeltaMs float64 `json:"delta_ms"`

	ServerA float64 `json:"server_a_ms"`
	ServerB float64 `json:"server_b_ms"`
	// Per-writer latency of each side.
	PerLoadA float64 `json:"per_writer_a_ms"`
	PerLoadB float64 `json:"per_writer_b_ms"`
	// Nil unless both sides recorded an end-to-end std-dev.
	StdDevA *float64 `json:"std_dev_a,omitempty"`
	StdDevB *float64 `json:"std_dev_b,omitempty"`
}

// Extreme is a delta together with the load level it was observed at.
type Extreme struct {
	DeltaMs   float64 `json:"delta_ms"`
	LoadLevel int     `json:"writers"`
}

// Overhead summarizes the per-point deltas: latency present in A but not B.
type Overhead struct {
	MeanMs float64 `json:"mean_ms"`
	Min    Extreme `json:"min"`
	Max    Extreme `json:"max"`
}

// Result is the outcome of comparing series A against series B.
type Result struct {
	NameA string `json:"a"`
	NameB string `json:"b"`

	AlignedPoints     []AlignedPoint   `json:"aligned_points"`
	DroppedLoadLevels []int            `json:"dropped_load_levels"`
	FixedOverhead     Overhead         `json:"fixed_overhead_estimate"`
	ScalingRatioA     float64          `json:"scaling_ratio_a"`
	ScalingRatioB     float64          `json:"scaling_ratio_b"`
	ScalingDivergence float64          `json:"scaling_divergence"`
	Warnings          []series.Warning `json:"warnings,omitempty"`
}

// HasStdDev reports whether every aligned point carries std-dev on both sides.
func (r *Result) HasStdDev() bool {
	if len(r.AlignedPoints) == 0 {
		return false
	}

	for _, p := range r.AlignedPoints {
		if p.StdDevA == nil || p.StdDevB == nil {
			return false
		}
	}

	return true
}

// Deltas returns DeltaMs of every aligned point in load-level order.
func (r *Result) Deltas() []float64 {
	out := make([]float64, len(r.AlignedPoints))
	for i, p := range r.AlignedPoints {
		out[i] = p.DeltaMs
	}

	return out
}

// Compare aligns a and b on load level. Levels present in only one series
// are listed in DroppedLoadLevels and excluded from every aligned statistic.
// Scaling ratios use each series' own first and last points, regardless of
// alignment.
func Compare(a, b *series.Series) (*Result, error) {
	ratioA, err := scalingRatio(a)
	if err != nil {
		return nil, fmt.Errorf("series A: %w", err)
	}

	ratioB, err := scalingRatio(b)
	if err != nil {
		return nil, fmt.Errorf("series B: %w", err)
	}

	r := &Result{
		NameA:             a.Name(),
		NameB:             b.Name(),
		ScalingRatioA:     ratioA,
		ScalingRatioB:     ratioB,
		ScalingDivergence: math.Abs(ratioA - ratioB),
		DroppedLoadLevels: []int{},
	}

	levelsA, levelsB := a.LoadLevels(), b.LoadLevels()
	i, j := 0, 0

	for i < len(levelsA) || j < len(levelsB) {
		switch {
		case j >= len(levelsB) || (i < len(levelsA) && levelsA[i] < levelsB[j]):
			r.drop(levelsA[i], a.Name())
			i++

		case i >= len(levelsA) || levelsB[j] < levelsA[i]:
			r.drop(levelsB[j], b.Name())
			j++

		default:
			r.AlignedPoints = append(r.AlignedPoints, align(a.Point(i), b.Point(j)))
			i++
			j++
		}
	}

	if len(r.AlignedPoints) == 0 {
		return nil, &series.OverlapError{
			A:           a.Name(),
			B:           b.Name(),
			LoadLevelsA: levelsA,
			LoadLevelsB: levelsB,
		}
	}

	deltas := r.Deltas()
	minIdx, maxIdx := floats.MinIdx(deltas), floats.MaxIdx(deltas)

	r.FixedOverhead = Overhead{
		MeanMs: stat.Mean(deltas, nil),
		Min:    Extreme{DeltaMs: deltas[minIdx], LoadLevel: r.AlignedPoints[minIdx].LoadLevel},
		Max:    Extreme{DeltaMs: deltas[maxIdx], LoadLevel: r.AlignedPoints[maxIdx].LoadLevel},
	}

	return r, nil
}

func (r *Result) drop(loadLevel int, only string) {
	r.DroppedLoadLevels = append(r.DroppedLoadLevels, loadLevel)
	r.Warnings = append(r.Warnings, series.Warning{
		Kind:      series.WarnDroppedLoadLevel,
		LoadLevel: loadLevel,
		Detail:    "only present in " + only,
	})
}

func align(pa, pb series.DataPoint) AlignedPoint {
	ap := AlignedPoint{
		LoadLevel: pa.LoadLevel,
		A:         pa.EndToEndLatencyMs,
		B:         pb.EndToEndLatencyMs,
		DeltaMs:   pa.EndToEndLatencyMs - pb.EndToEndLatencyMs,
		ServerA:   pa.ServerLatencyMs,
		ServerB:   pb.ServerLatencyMs,
		PerLoadA:  pa.EndToEndLatencyMs / float64(pa.LoadLevel),
		PerLoadB:  pb.EndToEndLatencyMs / float64(pb.LoadLevel),
	}

	if pa.EndToEndStdDev != nil && pb.EndToEndStdDev != nil {
		ap.StdDevA = series.Float(*pa.EndToEndStdDev)
		ap.StdDevB = series.Float(*pb.EndToEndStdDev)
	}

	return ap
}

func scalingRatio(s *series.Series) (float64, error) {
	first, err := s.First()
	if err != nil {
		return 0, err
	}

	if first.EndToEndLatencyMs <= 0 {
		return 0, &series.MeasurementError{
			Series:    s.Name(),
			LoadLevel: first.LoadLevel,
			Field:     "baseline end-to-end latency",
			Value:     first.EndToEndLatencyMs,
		}
	}

	last, _ := s.Last()

	return last.EndToEndLatencyMs / first.EndToEndLatencyMs, nil
}
