// Package export exposes derived benchmark metrics as Prometheus gauges and
// writes them in the text exposition format, for node_exporter's textfile
// collector or any other scraper that reads files.
package export

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/weiihann/benchscope/compare"
	"github.com/weiihann/benchscope/metrics"
)

const namespace = "benchscope"

// Exporter holds one private registry of benchmark gauges.
type Exporter struct {
	logger   *slog.Logger
	registry *prometheus.Registry

	EndToEndLatency   *prometheus.GaugeVec
	Throughput        *prometheus.GaugeVec
	NormalizedLatency *prometheus.GaugeVec
	ScalingRatio      *prometheus.GaugeVec

	FixedOverhead     *prometheus.GaugeVec
	ScalingDivergence *prometheus.GaugeVec
}

// NewExporter registers the gauges on a fresh registry.
func NewExporter(logger *slog.Logger) *Exporter {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Exporter{
		logger:   logger.With("component", "export"),
		registry: reg,

		EndToEndLatency: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "end_to_end_latency_ms",
			Help:      "End-to-end latency per load level in milliseconds.",
		}, []string{"series", "writers"}),

		Throughput: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "throughput_qps",
			Help:      "Queries per second per load level.",
		}, []string{"series", "writers"}),

		NormalizedLatency: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "normalized_latency",
			Help:      "End-to-end latency relative to the lowest load level.",
		}, []string{"series", "writers"}),

		ScalingRatio: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scaling_ratio",
			Help:      "Latency at the highest load level over the lowest.",
		}, []string{"series"}),

		FixedOverhead: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "fixed_overhead_ms",
			Help:      "Mean end-to-end latency difference between two series.",
		}, []string{"a", "b"}),

		ScalingDivergence: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scaling_divergence",
			Help:      "Absolute difference of the scaling ratios of two series.",
		}, []string{"a", "b"}),
	}
}

// Registry returns the registry holding the gauges.
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

// Observe sets the per-series gauges from d.
func (e *Exporter) Observe(d *metrics.Derived) {
	for _, p := range d.Points {
		writers := strconv.Itoa(p.LoadLevel)

		e.EndToEndLatency.WithLabelValues(d.Series, writers).Set(p.EndToEndLatencyMs)
		e.Throughput.WithLabelValues(d.Series, writers).Set(p.ThroughputQPS)
		e.NormalizedLatency.WithLabelValues(d.Series, writers).Set(p.NormalizedLatency)
	}

	e.ScalingRatio.WithLabelValues(d.Series).Set(d.ScalingRatio)
}

// ObserveComparison sets the comparison gauges from r.
func (e *Exporter) ObserveComparison(r *compare.Result) {
	e.FixedOverhead.WithLabelValues(r.NameA, r.NameB).Set(r.FixedOverhead.MeanMs)
	e.ScalingDivergence.WithLabelValues(r.NameA, r.NameB).Set(r.ScalingDivergence)
}

// WriteTextfile writes every observed gauge to path atomically.
func (e *Exporter) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, e.registry); err != nil {
		return fmt.Errorf("write textfile: %w", err)
	}

	e.logger.Info("wrote metrics textfile", "path", path)

	return nil
}

// WriteTextfile observes ds on a fresh Exporter and writes them to path.
func WriteTextfile(path string, logger *slog.Logger, ds ...*metrics.Derived) error {
	e := NewExporter(logger)
	for _, d := range ds {
		e.Observe(d)
	}

	return e.WriteTextfile(path)
}
