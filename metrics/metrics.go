// Package metrics derives per-point and aggregate scaling metrics from a
// benchmark series.
package metrics

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/weiihann/benchscope/series"
)

// Scaling tier thresholds on normalized latency.
const (
	GoodScalingLimit     = 1.5
	ElevatedScalingLimit = 2.5
)

// residualTolerance absorbs float64 rounding when deciding whether a
// network residual is negative.
const residualTolerance = 1e-9

// maxResidualNudges bounds the ulp search in Decompose.
const maxResidualNudges = 64

// Tier buckets a normalized latency for display.
type Tier string

const (
	TierGood     Tier = "good"
	TierElevated Tier = "elevated"
	TierDegraded Tier = "degraded"
)

// TierOf returns the tier of a normalized latency.
func TierOf(normalized float64) Tier {
	switch {
	case normalized <= GoodScalingLimit:
		return TierGood
	case normalized <= ElevatedScalingLimit:
		return TierElevated
	default:
		return TierDegraded
	}
}

// Breakdown splits an end-to-end latency into its phases. Network is the
// residual and may be negative; Client+Server+Network equals the end-to-end
// latency exactly.
type Breakdown struct {
	Client  float64 `json:"client_ms"`
	Server  float64 `json:"server_ms"`
	Network float64 `json:"network_ms"`
}

// Total returns Client+Server+Network.
func (b Breakdown) Total() float64 {
	return b.Client + b.Server + b.Network
}

// Point holds the metrics derived for one load level.
type Point struct {
	LoadLevel          int       `json:"writers"`
	EndToEndLatencyMs  float64   `json:"end_to_end_latency_ms"`
	NormalizedLatency  float64   `json:"normalized_latency"`
	LatencyPerUnitLoad float64   `json:"latency_per_writer_ms"`
	ThroughputQPS      float64   `json:"throughput_qps"`
	Breakdown          Breakdown `json:"breakdown"`
	ServerShare        float64   `json:"server_share"`
	ClientShare        float64   `json:"client_share"`
	Tier               Tier      `json:"tier"`
}

// Derived is the full metric set for one series. It shares no memory with
// the series it was computed from.
type Derived struct {
	Series            string           `json:"series"`
	Points            []Point          `json:"points"`
	BaselineLoadLevel int              `json:"baseline_writers"`
	BaselineLatencyMs float64          `json:"baseline_latency_ms"`
	PeakLoadLevel     int              `json:"peak_writers"`
	PeakLatencyMs     float64          `json:"peak_latency_ms"`
	ScalingRatio      float64          `json:"scaling_ratio"`
	MeanServerShare   float64          `json:"mean_server_share"`
	MeanClientShare   float64          `json:"mean_client_share"`
	HasStdDev         bool             `json:"has_std_dev"`
	Warnings          []series.Warning `json:"warnings,omitempty"`
}

// At returns the metrics computed for loadLevel.
func (d *Derived) At(loadLevel int) (Point, bool) {
	for _, p := range d.Points {
		if p.LoadLevel == loadLevel {
			return p, true
		}
	}

	return Point{}, false
}

// Compute derives metrics for s. The baseline is the lowest load level,
// not the fastest point.
func Compute(s *series.Series) (*Derived, error) {
	baseline, err := s.First()
	if err != nil {
		return nil, err
	}

	if baseline.EndToEndLatencyMs <= 0 {
		return nil, &series.MeasurementError{
			Series:    s.Name(),
			LoadLevel: baseline.LoadLevel,
			Field:     "baseline end-to-end latency",
			Value:     baseline.EndToEndLatencyMs,
		}
	}

	last, _ := s.Last()

	d := &Derived{
		Series:            s.Name(),
		Points:            make([]Point, 0, s.Len()),
		BaselineLoadLevel: baseline.LoadLevel,
		BaselineLatencyMs: baseline.EndToEndLatencyMs,
		PeakLoadLevel:     last.LoadLevel,
		PeakLatencyMs:     last.EndToEndLatencyMs,
		ScalingRatio:      last.EndToEndLatencyMs / baseline.EndToEndLatencyMs,
		HasStdDev:         s.HasStdDev(),
	}

	serverShares := make([]float64, 0, s.Len())
	clientShares := make([]float64, 0, s.Len())

	for _, p := range s.Points() {
		throughput, err := Throughput(p)
		if err != nil {
			return nil, withSeries(err, s.Name())
		}

		perLoad, err := LatencyPerUnitLoad(p)
		if err != nil {
			return nil, withSeries(err, s.Name())
		}

		normalized := p.EndToEndLatencyMs / baseline.EndToEndLatencyMs

		pt := Point{
			LoadLevel:          p.LoadLevel,
			EndToEndLatencyMs:  p.EndToEndLatencyMs,
			NormalizedLatency:  normalized,
			LatencyPerUnitLoad: perLoad,
			ThroughputQPS:      throughput,
			Breakdown:          Decompose(p),
			ServerShare:        p.ServerLatencyMs / p.EndToEndLatencyMs,
			ClientShare:        p.ClientQueryTimeMs / p.EndToEndLatencyMs,
			Tier:               TierOf(normalized),
		}

		d.Points = append(d.Points, pt)
		d.Warnings = append(d.Warnings, Inspect(p)...)
		serverShares = append(serverShares, pt.ServerShare)
		clientShares = append(clientShares, pt.ClientShare)
	}

	d.MeanServerShare = stat.Mean(serverShares, nil)
	d.MeanClientShare = stat.Mean(clientShares, nil)

	return d, nil
}

func withSeries(err error, name string) error {
	var mErr *series.MeasurementError
	if errors.As(err, &mErr) {
		mErr.Series = name
	}

	return err
}

// Throughput returns queries per second for a point, 1000/latency.
func Throughput(p series.DataPoint) (float64, error) {
	if p.EndToEndLatencyMs <= 0 {
		return 0, &series.MeasurementError{
			LoadLevel: p.LoadLevel,
			Field:     "end-to-end latency",
			Value:     p.EndToEndLatencyMs,
		}
	}

	return 1000.0 / p.EndToEndLatencyMs, nil
}

// LatencyPerUnitLoad returns end-to-end latency divided by the writer count.
func LatencyPerUnitLoad(p series.DataPoint) (float64, error) {
	if p.LoadLevel <= 0 {
		return 0, &series.MeasurementError{
			LoadLevel: p.LoadLevel,
			Field:     "load level",
			Value:     float64(p.LoadLevel),
		}
	}

	return p.EndToEndLatencyMs / float64(p.LoadLevel), nil
}

// Decompose splits p into client, server and network phases. The network
// residual is nudged ulp by ulp towards the value whose sum
// Client+Server+Network lands closest to the end-to-end latency. The sum is
// exact when some float64 residual reaches it; otherwise (a rounding tie on
// an odd target, for example) it is one ulp away. The bound holds whenever
// the residual is no larger in magnitude than the end-to-end latency.
func Decompose(p series.DataPoint) Breakdown {
	b := Breakdown{
		Client: p.ClientQueryTimeMs,
		Server: p.ServerLatencyMs,
	}
	b.Network = p.EndToEndLatencyMs - (b.Client + b.Server)

	target := p.EndToEndLatencyMs
	best := b

	var prev float64
	for range maxResidualNudges {
		miss := b.Total() - target
		if miss == 0 {
			return b
		}
		if math.Abs(miss) < math.Abs(best.Total()-target) {
			best = b
		}

		dir := math.Inf(-1)
		if miss < 0 {
			dir = math.Inf(1)
		}
		// Both neighbours of the target have been tried.
		if prev != 0 && dir != prev {
			break
		}
		prev = dir

		b.Network = math.Nextafter(b.Network, dir)
	}

	return best
}

// Inspect returns the data-quality warnings for a single point.
func Inspect(p series.DataPoint) []series.Warning {
	var warnings []series.Warning

	if p.ServerLatencyMs > p.EndToEndLatencyMs {
		warnings = append(warnings, series.Warning{
			Kind:      series.WarnServerExceedsEndToEnd,
			LoadLevel: p.LoadLevel,
			Detail: fmt.Sprintf("server %.2fms exceeds end-to-end %.2fms",
				p.ServerLatencyMs, p.EndToEndLatencyMs),
		})
	}

	if network := Decompose(p).Network; network < -residualTolerance {
		warnings = append(warnings, series.Warning{
			Kind:      series.WarnIncompleteDecomposition,
			LoadLevel: p.LoadLevel,
			Detail:    fmt.Sprintf("network residual is %.2fms", network),
		})
	}

	return warnings
}
