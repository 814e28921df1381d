// Package chart builds declarative chart descriptions from benchmark series,
// their derived metrics and comparisons. A Spec carries no rendering state;
// package render turns it into an image.
package chart

import (
	"errors"
	"fmt"
	"image/color"
	"slices"
)

// ErrNoStdDev is returned for charts that need std-dev data the input lacks.
var ErrNoStdDev = errors.New("chart needs std-dev data")

// Kind identifies a chart in the catalog.
type Kind string

// Single-series catalog.
const (
	KindEndToEndLatency   Kind = "end_to_end_latency"
	KindServerLatency     Kind = "server_latency"
	KindClientQueryTime   Kind = "client_query_time"
	KindLatencyBreakdown  Kind = "latency_breakdown"
	KindNormalizedScaling Kind = "normalized_scaling"
	KindThroughput        Kind = "throughput"
)

// Comparison catalog.
const (
	KindCompareEndToEnd          Kind = "compare_end_to_end"
	KindCompareServerLatency     Kind = "compare_server_latency"
	KindCompareFixedOverhead     Kind = "compare_fixed_overhead"
	KindCompareNormalizedScaling Kind = "compare_normalized_scaling"
	KindCompareScalingEfficiency Kind = "compare_scaling_efficiency"
	KindCompareStability         Kind = "compare_stability"
)

// SeriesCatalog lists the single-series charts in output order.
var SeriesCatalog = []Kind{
	KindEndToEndLatency,
	KindServerLatency,
	KindClientQueryTime,
	KindLatencyBreakdown,
	KindNormalizedScaling,
	KindThroughput,
}

// ComparisonCatalog lists the comparison charts in output order.
var ComparisonCatalog = []Kind{
	KindCompareEndToEnd,
	KindCompareServerLatency,
	KindCompareFixedOverhead,
	KindCompareNormalizedScaling,
	KindCompareScalingEfficiency,
	KindCompareStability,
}

// Mark is how a series is drawn.
type Mark string

const (
	MarkLine       Mark = "line"
	MarkBar        Mark = "bar"
	MarkStackedBar Mark = "stacked-bar"
	// MarkReference is a horizontal line at the value of the series' only
	// point.
	MarkReference Mark = "reference"
)

// Point is one value of a chart series.
type Point struct {
	LoadLevel int
	Value     float64
	// Err is the symmetric error bar half-height, nil when unknown.
	Err *float64
	// Role overrides the series role for this point. Only bars honour it.
	Role Role
}

// Series is a named sequence of points sharing a role and a mark.
type Series struct {
	Name   string
	Role   Role
	Mark   Mark
	Fill   bool
	Points []Point
}

// Annotation is a text label anchored at a data coordinate.
type Annotation struct {
	LoadLevel int
	Value     float64
	Text      string
}

// Spec fully describes one chart.
type Spec struct {
	Kind  Kind
	Index int
	Title string

	XLabel string
	YLabel string
	// LoadLevels are the x ticks. When Categorical is set they are spaced
	// evenly instead of by value.
	LoadLevels  []int
	Categorical bool

	Series      []Series
	Annotations []Annotation
}

// FileName returns the PNG file name of the chart, prefixed by its catalog
// position.
func (s Spec) FileName() string {
	return fmt.Sprintf("%d_%s.png", s.Index, s.Kind)
}

// X returns the x coordinate of loadLevel.
func (s Spec) X(loadLevel int) float64 {
	if !s.Categorical {
		return float64(loadLevel)
	}

	if i := slices.Index(s.LoadLevels, loadLevel); i >= 0 {
		return float64(i)
	}

	return -1
}

// Role names the visual identity of a series or bar.
type Role string

const (
	RolePrimary      Role = "primary"
	RoleSecondary    Role = "secondary"
	RoleBaseline     Role = "reference-baseline"
	RoleClient       Role = "client"
	RoleServer       Role = "server"
	RoleNetwork      Role = "network"
	RoleThroughput   Role = "throughput"
	RoleTierGood     Role = "tier-good"
	RoleTierElevated Role = "tier-elevated"
	RoleTierDegraded Role = "tier-degraded"
	RoleOverhead     Role = "overhead"
	RoleOverheadMean Role = "overhead-mean"
)

// Marker is a point glyph shape.
type Marker string

const (
	MarkerNone     Marker = ""
	MarkerCircle   Marker = "circle"
	MarkerSquare   Marker = "square"
	MarkerTriangle Marker = "triangle"
	MarkerDiamond  Marker = "diamond"
)

// Style is the visual encoding of a role.
type Style struct {
	Color  color.RGBA
	Marker Marker
	Dashed bool
}

var (
	blue   = color.RGBA{R: 0x2E, G: 0x86, B: 0xAB, A: 0xFF}
	red    = color.RGBA{R: 0xE6, G: 0x39, B: 0x46, A: 0xFF}
	green  = color.RGBA{R: 0x06, G: 0xA7, B: 0x7D, A: 0xFF}
	steel  = color.RGBA{R: 0x45, G: 0x7B, B: 0x9D, A: 0xFF}
	orange = color.RGBA{R: 0xF1, G: 0x8F, B: 0x01, A: 0xFF}
	purple = color.RGBA{R: 0xA2, G: 0x3B, B: 0x72, A: 0xFF}
	gray   = color.RGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xFF}
)

// StyleFor returns the style of a role. Unknown roles get gray circles.
func StyleFor(r Role) Style {
	switch r {
	case RolePrimary:
		return Style{Color: blue, Marker: MarkerCircle}
	case RoleSecondary:
		return Style{Color: red, Marker: MarkerSquare}
	case RoleBaseline:
		return Style{Color: gray, Dashed: true}
	case RoleClient:
		return Style{Color: green, Marker: MarkerTriangle}
	case RoleServer:
		return Style{Color: red, Marker: MarkerSquare}
	case RoleNetwork:
		return Style{Color: steel}
	case RoleThroughput:
		return Style{Color: purple, Marker: MarkerDiamond}
	case RoleTierGood:
		return Style{Color: blue}
	case RoleTierElevated:
		return Style{Color: orange}
	case RoleTierDegraded:
		return Style{Color: red}
	case RoleOverhead:
		return Style{Color: orange}
	case RoleOverheadMean:
		return Style{Color: red, Dashed: true}
	default:
		return Style{Color: gray, Marker: MarkerCircle}
	}
}
