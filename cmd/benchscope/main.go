// Package main provides the CLI entry point for benchscope, a tool that
// turns benchmark scaling runs into charts, reports and comparisons.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/weiihann/benchscope/config"
	"github.com/weiihann/benchscope/console"
)

func main() {
	level := new(slog.LevelVar)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	root := newRootCmd(logger, level)
	if err := root.Execute(); err != nil {
		console.New(os.Stderr).Error(err)
		os.Exit(1)
	}
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	outputDir  string
	textfile   string
	json       bool
	verbose    bool
}

// load resolves the config file and applies flag overrides.
func (g *globalFlags) load(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("output-dir") {
		cfg.OutputDir = g.outputDir
	}
	if flags.Changed("textfile") {
		cfg.TextfilePath = g.textfile
	}
	if flags.Changed("json") {
		cfg.JSON = g.json
	}

	return cfg, cfg.Validate()
}

func newRootCmd(logger *slog.Logger, level *slog.LevelVar) *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "benchscope",
		Short: "Benchmark scaling charts, reports and comparisons",
		Long: `Benchscope reads per-load-level latency measurements (CSV or JSON),
derives scaling metrics, renders charts and writes a fixed-width text report.
Two runs measured with different methodologies can be compared to estimate
their fixed per-trial overhead.`,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			if g.verbose {
				level.Set(slog.LevelDebug)
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "",
		"Path to a YAML config file")
	pf.StringVarP(&g.outputDir, "output-dir", "o", "",
		"Directory for charts and reports (overrides config)")
	pf.StringVar(&g.textfile, "textfile", "",
		"Write Prometheus textfile metrics to this path")
	pf.BoolVar(&g.json, "json", false,
		"Also write metrics as JSON")
	pf.BoolVarP(&g.verbose, "verbose", "v", false,
		"Enable debug logging")

	root.AddCommand(
		newPlotCmd(logger, g),
		newSummaryCmd(logger, g),
		newCompareCmd(logger, g),
		newGenerateCmd(logger),
	)

	return root
}

func newPlotCmd(logger *slog.Logger, g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "plot <results.csv>",
		Short: "Render one chart per metric and a text report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Arguments are valid past this point; failures are not usage errors.
			cmd.SilenceUsage = true

			cfg, err := g.load(cmd)
			if err != nil {
				return err
			}

			return runPlot(cmd.Context(), logger, console.New(cmd.OutOrStdout()), cfg, args[0])
		},
	}
}

func newSummaryCmd(logger *slog.Logger, g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "summary <results.csv>",
		Short: "Render a single dashboard image and print the report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			cfg, err := g.load(cmd)
			if err != nil {
				return err
			}

			return runSummary(cmd.Context(), logger, console.New(cmd.OutOrStdout()), cfg, args[0])
		},
	}
}

func newCompareCmd(logger *slog.Logger, g *globalFlags) *cobra.Command {
	var labelA, labelB string

	cmd := &cobra.Command{
		Use:   "compare <a.csv> <b.csv>",
		Short: "Compare two runs measured with different methodologies",
		Long: `Align two runs on their load levels, estimate the fixed overhead
present in A but not in B, and compare how each run scales.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			cfg, err := g.load(cmd)
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("label-a") {
				cfg.Labels.A = labelA
			}
			if cmd.Flags().Changed("label-b") {
				cfg.Labels.B = labelB
			}

			return runCompare(cmd.Context(), logger, console.New(cmd.OutOrStdout()), cfg, args[0], args[1])
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&labelA, "label-a", "",
		"Legend label of the first run (overrides config)")
	flags.StringVar(&labelB, "label-b", "",
		"Legend label of the second run (overrides config)")

	return cmd
}

func newGenerateCmd(logger *slog.Logger) *cobra.Command {
	var cfg generateConfig

	cmd := &cobra.Command{
		Use:   "generate <out.csv>",
		Short: "Write a deterministic synthetic benchmark run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			cfg.out = args[0]

			return runGenerate(cmd.Context(), logger, console.New(cmd.OutOrStdout()), cfg)
		},
	}

	flags := cmd.Flags()
	flags.IntSliceVar(&cfg.writers, "writers", nil,
		"Load levels to generate (default 3,5,10,15,20,25)")
	flags.Float64Var(&cfg.baseLatency, "base-latency", 120,
		"End-to-end latency at the lowest load level in ms")
	flags.StringVar(&cfg.growth, "growth", "linear",
		"Latency growth model: linear, power-law, exponential")
	flags.Float64Var(&cfg.rate, "rate", 0.12,
		"Growth parameter of the model")
	flags.Float64Var(&cfg.noise, "noise", 0.05,
		"Relative jitter applied to every latency")
	flags.Float64Var(&cfg.overhead, "overhead", 0,
		"Fixed latency added to every trial in ms")
	flags.BoolVar(&cfg.noStdDev, "no-stddev", false,
		"Omit the std-dev columns")
	flags.Int64Var(&cfg.seed, "seed", 1,
		"Random seed")

	return cmd
}
