// Package fixture generates deterministic synthetic benchmark series for
// tests and demos. The same Config and Seed always yield the same series.
package fixture

import (
	"fmt"
	"io"
	"math"
	mrand "math/rand"
	"slices"
	"strings"

	"github.com/weiihann/benchscope/dataset"
	"github.com/weiihann/benchscope/series"
)

// Config controls series generation.
type Config struct {
	Name string
	// LoadLevels defaults to DefaultLoadLevels when empty.
	LoadLevels    []int
	BaseLatencyMs float64
	// Growth is one of "linear", "power-law", "exponential".
	Growth string
	// Rate is the growth parameter: slope per writer for linear, exponent for
	// power-law, per-writer rate for exponential.
	Rate float64
	// ServerShare and ClientShare are the mean fractions of end-to-end
	// latency spent on the server and generating the query.
	ServerShare float64
	ClientShare float64
	// Noise is the relative jitter applied to every latency component.
	Noise float64
	// OverheadMs is added to every end-to-end latency, modelling a fixed
	// per-trial cost such as server startup.
	OverheadMs float64
	StdDev     bool
	Seed       int64
}

// Growth models accepted by Config.Growth.
var growthModels = []string{"linear", "power-law", "exponential"}

// DefaultLoadLevels are the writer counts of a typical scaling run.
var DefaultLoadLevels = []int{3, 5, 10, 15, 20, 25}

// DefaultConfig returns a config resembling a real search benchmark.
func DefaultConfig() Config {
	return Config{
		Name:          "synthetic",
		BaseLatencyMs: 120,
		Growth:        "linear",
		Rate:          0.12,
		ServerShare:   0.6,
		ClientShare:   0.25,
		Noise:         0.05,
		StdDev:        true,
		Seed:          1,
	}
}

// Summary describes a generated series.
type Summary struct {
	Points       int
	MinLatencyMs float64
	MaxLatencyMs float64
}

// Generator produces deterministic series from a Config.
type Generator struct {
	cfg Config
	rng *mrand.Rand
}

// NewGenerator creates a Generator from the given Config.
func NewGenerator(cfg Config) *Generator {
	if len(cfg.LoadLevels) == 0 {
		cfg.LoadLevels = DefaultLoadLevels
	}

	return &Generator{
		cfg: cfg,
		rng: mrand.New(mrand.NewSource(cfg.Seed)),
	}
}

// Series generates a validated series.
func (g *Generator) Series() (*series.Series, error) {
	if g.cfg.BaseLatencyMs <= 0 {
		return nil, fmt.Errorf("base latency must be positive, got %g", g.cfg.BaseLatencyMs)
	}

	if !slices.Contains(growthModels, g.cfg.Growth) {
		return nil, fmt.Errorf("unknown growth model %q, want one of %s",
			g.cfg.Growth, strings.Join(growthModels, ", "))
	}

	base := g.cfg.LoadLevels[0]
	for _, l := range g.cfg.LoadLevels {
		base = min(base, l)
	}

	points := make([]series.DataPoint, 0, len(g.cfg.LoadLevels))

	for _, load := range g.cfg.LoadLevels {
		e2e := g.cfg.BaseLatencyMs * g.growth(load, base)
		server := round2(g.jitter(e2e * g.cfg.ServerShare))
		client := round2(g.jitter(e2e * g.cfg.ClientShare))
		e2e = round2(g.jitter(e2e) + g.cfg.OverheadMs)

		p := series.DataPoint{
			LoadLevel:         load,
			EndToEndLatencyMs: e2e,
			ServerLatencyMs:   server,
			ClientQueryTimeMs: client,
		}

		if g.cfg.StdDev {
			spread := math.Max(g.cfg.Noise, 0.01)
			p.EndToEndStdDev = series.Float(round2(e2e * spread * g.rng.Float64()))
			p.ServerStdDev = series.Float(round2(server * spread * g.rng.Float64()))
			p.ClientStdDev = series.Float(round2(client * spread * g.rng.Float64()))
		}

		points = append(points, p)
	}

	return series.New(g.cfg.Name, points)
}

// Generate writes the series as CSV to w and returns a Summary.
func (g *Generator) Generate(w io.Writer) (Summary, error) {
	s, err := g.Series()
	if err != nil {
		return Summary{}, fmt.Errorf("generate series: %w", err)
	}

	if err := dataset.WriteCSV(w, s); err != nil {
		return Summary{}, fmt.Errorf("write csv: %w", err)
	}

	summary := Summary{
		Points:       s.Len(),
		MinLatencyMs: math.Inf(1),
		MaxLatencyMs: math.Inf(-1),
	}
	for _, p := range s.Points() {
		summary.MinLatencyMs = math.Min(summary.MinLatencyMs, p.EndToEndLatencyMs)
		summary.MaxLatencyMs = math.Max(summary.MaxLatencyMs, p.EndToEndLatencyMs)
	}

	return summary, nil
}

// growth returns the latency multiplier at load relative to base.
func (g *Generator) growth(load, base int) float64 {
	delta := float64(load - base)

	switch g.cfg.Growth {
	case "power-law":
		return math.Pow(float64(load)/float64(base), g.cfg.Rate)

	case "exponential":
		return math.Exp(g.cfg.Rate * delta)

	default:
		return 1 + g.cfg.Rate*delta
	}
}

func (g *Generator) jitter(v float64) float64 {
	if g.cfg.Noise <= 0 {
		return v
	}

	return math.Max(0, v*(1+g.cfg.Noise*(2*g.rng.Float64()-1)))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
