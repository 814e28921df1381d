package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/weiihann/benchscope/chart"
	"github.com/weiihann/benchscope/compare"
	"github.com/weiihann/benchscope/config"
	"github.com/weiihann/benchscope/console"
	"github.com/weiihann/benchscope/dataset"
	"github.com/weiihann/benchscope/export"
	"github.com/weiihann/benchscope/fixture"
	"github.com/weiihann/benchscope/metrics"
	"github.com/weiihann/benchscope/render"
	"github.com/weiihann/benchscope/report"
	"github.com/weiihann/benchscope/series"
)

// loaded is one input file with its derived metrics.
type loaded struct {
	series  *series.Series
	derived *metrics.Derived
}

func load(ctx context.Context, logger *slog.Logger, path string) (loaded, error) {
	s, err := dataset.NewLoader(logger).Load(ctx, path)
	if err != nil {
		return loaded{}, err
	}

	d, err := metrics.Compute(s)
	if err != nil {
		return loaded{}, fmt.Errorf("compute metrics: %w", err)
	}

	logger.DebugContext(ctx, "computed metrics",
		slog.String("series", s.Name()),
		slog.Int("points", s.Len()),
		slog.Float64("scaling_ratio", d.ScalingRatio),
	)

	return loaded{series: s, derived: d}, nil
}

func runPlot(ctx context.Context, logger *slog.Logger, out *console.Printer, cfg config.Config, path string) error {
	in, err := load(ctx, logger, path)
	if err != nil {
		return err
	}

	out.Title("Benchmark: " + in.series.Name())
	printWarnings(out, in.derived.Warnings)

	r, err := render.Setup(cfg.RenderOptions(), logger)
	if err != nil {
		return err
	}

	specs := chart.BuildSeriesCatalog(in.series, in.derived)
	written, renderErr := r.RenderAll(ctx, specs, cfg.OutputDir)
	printArtifacts(out, written)

	if err := writeOutputs(logger, out, cfg, report.Format(in.series, in.derived), in.derived); err != nil {
		return err
	}

	if renderErr != nil {
		return fmt.Errorf("rendered %d of %d charts: %w", len(written), len(specs), renderErr)
	}

	return nil
}

func runSummary(ctx context.Context, logger *slog.Logger, out *console.Printer, cfg config.Config, path string) error {
	in, err := load(ctx, logger, path)
	if err != nil {
		return err
	}

	r, err := render.Setup(cfg.RenderOptions(), logger)
	if err != nil {
		return err
	}

	text := report.Format(in.series, in.derived)
	out.Info("%s", strings.TrimRight(text, "\n"))
	printWarnings(out, in.derived.Warnings)

	dest := filepath.Join(cfg.OutputDir, "summary.png")
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	if err := r.RenderDashboard(chart.BuildSeriesCatalog(in.series, in.derived), dest, cfg.Dashboard.Columns); err != nil {
		return err
	}
	out.Artifact(dest)

	return writeOutputs(logger, out, cfg, text, in.derived)
}

func runCompare(ctx context.Context, logger *slog.Logger, out *console.Printer, cfg config.Config, pathA, pathB string) error {
	var a, b loaded

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		a, err = load(gctx, logger, pathA)
		if err != nil {
			return fmt.Errorf("load a: %w", err)
		}

		return nil
	})
	g.Go(func() error {
		var err error
		b, err = load(gctx, logger, pathB)
		if err != nil {
			return fmt.Errorf("load b: %w", err)
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	res, err := compare.Compare(a.series, b.series)
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "compared runs",
		slog.String("a", a.series.Name()),
		slog.String("b", b.series.Name()),
		slog.Int("aligned", len(res.AlignedPoints)),
		slog.Float64("overhead_ms", res.FixedOverhead.MeanMs),
	)

	out.Title(fmt.Sprintf("Comparison: %s vs %s", cfg.Labels.A, cfg.Labels.B))
	printWarnings(out, a.derived.Warnings)
	printWarnings(out, b.derived.Warnings)
	printWarnings(out, res.Warnings)

	r, err := render.Setup(cfg.RenderOptions(), logger)
	if err != nil {
		return err
	}

	specs := chart.BuildComparisonCatalog(chart.Comparison{
		A:      a.derived,
		B:      b.derived,
		Result: res,
		LabelA: cfg.Labels.A,
		LabelB: cfg.Labels.B,
	})

	written, renderErr := r.RenderAll(ctx, specs, cfg.OutputDir)
	printArtifacts(out, written)

	if renderErr == nil && cfg.Dashboard.Enabled {
		dest := filepath.Join(cfg.OutputDir, "comparison.png")
		if err := r.RenderDashboard(specs, dest, cfg.Dashboard.Columns); err != nil {
			return err
		}
		out.Artifact(dest)
	}

	text := report.Formatter{LabelA: cfg.Labels.A, LabelB: cfg.Labels.B}.
		FormatComparison(a.series, b.series, a.derived, b.derived, res)

	if err := writeComparisonOutputs(logger, out, cfg, text, a.derived, b.derived, res); err != nil {
		return err
	}

	if renderErr != nil {
		return fmt.Errorf("rendered %d of %d charts: %w", len(written), len(specs), renderErr)
	}

	return nil
}

// generateConfig holds the flags of the generate command.
type generateConfig struct {
	out         string
	writers     []int
	baseLatency float64
	growth      string
	rate        float64
	noise       float64
	overhead    float64
	noStdDev    bool
	seed        int64
}

func runGenerate(ctx context.Context, logger *slog.Logger, out *console.Printer, cfg generateConfig) error {
	fc := fixture.DefaultConfig()
	fc.Name = strings.TrimSuffix(filepath.Base(cfg.out), filepath.Ext(cfg.out))
	fc.LoadLevels = cfg.writers
	fc.BaseLatencyMs = cfg.baseLatency
	fc.Growth = cfg.growth
	fc.Rate = cfg.rate
	fc.Noise = cfg.noise
	fc.OverheadMs = cfg.overhead
	fc.StdDev = !cfg.noStdDev
	fc.Seed = cfg.seed

	var buf bytes.Buffer

	summary, err := fixture.NewGenerator(fc).Generate(&buf)
	if err != nil {
		return err
	}

	if err := writeFile(cfg.out, buf.Bytes()); err != nil {
		return err
	}

	logger.InfoContext(ctx, "generated series",
		slog.String("path", cfg.out),
		slog.Int("points", summary.Points),
		slog.Float64("min_latency_ms", summary.MinLatencyMs),
		slog.Float64("max_latency_ms", summary.MaxLatencyMs),
	)
	out.Artifact(cfg.out)

	return nil
}

// writeOutputs writes the report, the optional JSON and the optional
// textfile for a single run.
func writeOutputs(
	logger *slog.Logger,
	out *console.Printer,
	cfg config.Config,
	text string,
	d *metrics.Derived,
) error {
	if err := writeReport(out, cfg, text, d); err != nil {
		return err
	}

	if cfg.TextfilePath == "" {
		return nil
	}

	if err := export.WriteTextfile(cfg.TextfilePath, logger, d); err != nil {
		return err
	}
	out.Artifact(cfg.TextfilePath)

	return nil
}

func writeComparisonOutputs(
	logger *slog.Logger,
	out *console.Printer,
	cfg config.Config,
	text string,
	a, b *metrics.Derived,
	res *compare.Result,
) error {
	payload := struct {
		A          *metrics.Derived `json:"a"`
		B          *metrics.Derived `json:"b"`
		Comparison *compare.Result  `json:"comparison"`
	}{a, b, res}

	if err := writeReport(out, cfg, text, payload); err != nil {
		return err
	}

	if cfg.TextfilePath == "" {
		return nil
	}

	e := export.NewExporter(logger)
	e.Observe(a)
	e.Observe(b)
	e.ObserveComparison(res)

	if err := e.WriteTextfile(cfg.TextfilePath); err != nil {
		return err
	}
	out.Artifact(cfg.TextfilePath)

	return nil
}

func writeReport(out *console.Printer, cfg config.Config, text string, payload any) error {
	path := filepath.Join(cfg.OutputDir, cfg.ReportName)
	if err := writeFile(path, []byte(text)); err != nil {
		return err
	}
	out.Artifact(path)

	if !cfg.JSON {
		return nil
	}

	var buf bytes.Buffer
	if err := report.GenerateJSON(&buf, payload); err != nil {
		return err
	}

	jsonPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".json"
	if err := writeFile(jsonPath, buf.Bytes()); err != nil {
		return err
	}
	out.Artifact(jsonPath)

	return nil
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	return nil
}

func printWarnings(out *console.Printer, warnings []series.Warning) {
	for _, w := range warnings {
		out.Warning(w)
	}
}

func printArtifacts(out *console.Printer, paths []string) {
	for _, p := range paths {
		out.Artifact(p)
	}
}
