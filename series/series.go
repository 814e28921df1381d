// Package series holds the measurement model for a load-scaling benchmark
// run: one DataPoint per writer count, ordered by load level.
package series

import (
	"fmt"
	"math"
	"sort"
)

// DataPoint is one measurement at a given load level. Latencies are in
// milliseconds. Std-dev fields are nil when the run recorded a single sample.
type DataPoint struct {
	LoadLevel         int      `json:"writers"`
	EndToEndLatencyMs float64  `json:"end_to_end_latency_ms"`
	ServerLatencyMs   float64  `json:"server_latency_ms"`
	ClientQueryTimeMs float64  `json:"client_query_time_ms"`
	EndToEndStdDev    *float64 `json:"end_to_end_std_dev,omitempty"`
	ServerStdDev      *float64 `json:"server_std_dev,omitempty"`
	ClientStdDev      *float64 `json:"client_std_dev,omitempty"`
}

// NetworkTimeMs is the part of the end-to-end latency not accounted for by
// client query generation or server processing. It may be negative.
func (p DataPoint) NetworkTimeMs() float64 {
	return p.EndToEndLatencyMs - p.ClientQueryTimeMs - p.ServerLatencyMs
}

// HasStdDev reports whether all three std-dev fields are present.
func (p DataPoint) HasStdDev() bool {
	return p.EndToEndStdDev != nil && p.ServerStdDev != nil &&
		p.ClientStdDev != nil
}

func (p DataPoint) clone() DataPoint {
	p.EndToEndStdDev = cloneFloat(p.EndToEndStdDev)
	p.ServerStdDev = cloneFloat(p.ServerStdDev)
	p.ClientStdDev = cloneFloat(p.ClientStdDev)

	return p
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}

	c := *v

	return &c
}

// Float returns a pointer to v. Handy for filling optional std-dev fields.
func Float(v float64) *float64 {
	return &v
}

// Series is an immutable, load-ordered collection of data points from one
// benchmark run. The zero value is an empty series.
type Series struct {
	name   string
	points []DataPoint
}

// New validates points and returns a Series sorted by ascending load level.
// The input slice is copied and never retained.
func New(name string, points []DataPoint) (*Series, error) {
	if len(points) == 0 {
		return nil, &InputError{Path: name, Reason: "no data rows", Err: ErrEmptySeries}
	}

	sorted := make([]DataPoint, len(points))
	for i, p := range points {
		sorted[i] = p.clone()
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].LoadLevel < sorted[j].LoadLevel
	})

	for i, p := range sorted {
		if err := validatePoint(p); err != nil {
			err.Path = name

			return nil, err
		}

		if i > 0 && sorted[i-1].LoadLevel == p.LoadLevel {
			return nil, &InputError{
				Path:      name,
				Column:    ColumnWriters,
				LoadLevel: p.LoadLevel,
				Reason:    "duplicate load level",
				Err:       ErrMalformedInput,
			}
		}
	}

	return &Series{name: name, points: sorted}, nil
}

func validatePoint(p DataPoint) *InputError {
	bad := func(column string, reason string) *InputError {
		return &InputError{
			Column:    column,
			LoadLevel: p.LoadLevel,
			Reason:    reason,
			Err:       ErrMalformedInput,
		}
	}

	if p.LoadLevel <= 0 {
		return bad(ColumnWriters, fmt.Sprintf("load level must be positive, got %d", p.LoadLevel))
	}

	checks := []struct {
		column string
		value  *float64
	}{
		{ColumnEndToEnd, &p.EndToEndLatencyMs},
		{ColumnServer, &p.ServerLatencyMs},
		{ColumnClient, &p.ClientQueryTimeMs},
		{ColumnEndToEndStdDev, p.EndToEndStdDev},
		{ColumnServerStdDev, p.ServerStdDev},
		{ColumnClientStdDev, p.ClientStdDev},
	}

	for _, c := range checks {
		if c.value == nil {
			continue
		}

		v := *c.value
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return bad(c.column, fmt.Sprintf("non-finite value %g", v))
		}
		if v < 0 {
			return bad(c.column, fmt.Sprintf("negative value %g", v))
		}
	}

	return nil
}

// Name identifies the series, usually the path it was loaded from.
func (s *Series) Name() string {
	if s == nil {
		return ""
	}

	return s.name
}

// Len returns the number of points.
func (s *Series) Len() int {
	if s == nil {
		return 0
	}

	return len(s.points)
}

// Point returns the i-th point in load-level order.
func (s *Series) Point(i int) DataPoint {
	return s.points[i].clone()
}

// Points returns a copy of all points in load-level order.
func (s *Series) Points() []DataPoint {
	if s == nil {
		return nil
	}

	out := make([]DataPoint, len(s.points))
	for i, p := range s.points {
		out[i] = p.clone()
	}

	return out
}

// Lookup returns the point measured at loadLevel.
func (s *Series) Lookup(loadLevel int) (DataPoint, bool) {
	if s == nil {
		return DataPoint{}, false
	}

	i := sort.Search(len(s.points), func(i int) bool {
		return s.points[i].LoadLevel >= loadLevel
	})
	if i < len(s.points) && s.points[i].LoadLevel == loadLevel {
		return s.points[i].clone(), true
	}

	return DataPoint{}, false
}

// LoadLevels returns the load levels in ascending order.
func (s *Series) LoadLevels() []int {
	if s == nil {
		return nil
	}

	out := make([]int, len(s.points))
	for i, p := range s.points {
		out[i] = p.LoadLevel
	}

	return out
}

// First returns the baseline point, the lowest load level.
func (s *Series) First() (DataPoint, error) {
	if s.Len() == 0 {
		return DataPoint{}, &InputError{Path: s.Name(), Reason: "no data rows", Err: ErrEmptySeries}
	}

	return s.points[0].clone(), nil
}

// Last returns the point at the highest load level.
func (s *Series) Last() (DataPoint, error) {
	if s.Len() == 0 {
		return DataPoint{}, &InputError{Path: s.Name(), Reason: "no data rows", Err: ErrEmptySeries}
	}

	return s.points[len(s.points)-1].clone(), nil
}

// HasStdDev reports whether every point carries std-dev data.
func (s *Series) HasStdDev() bool {
	if s.Len() == 0 {
		return false
	}

	for _, p := range s.points {
		if !p.HasStdDev() {
			return false
		}
	}

	return true
}
