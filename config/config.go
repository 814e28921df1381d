// Package config loads benchscope settings from an optional YAML file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/weiihann/benchscope/render"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Config holds every setting of a benchscope run.
type Config struct {
	OutputDir  string `yaml:"output_dir" validate:"required"`
	ReportName string `yaml:"report_name" validate:"required"`
	// JSON additionally writes metrics as JSON next to the report.
	JSON bool `yaml:"json"`

	Chart     Chart     `yaml:"chart"`
	Dashboard Dashboard `yaml:"dashboard"`
	Labels    Labels    `yaml:"labels"`

	// TextfilePath enables the Prometheus textfile when set.
	TextfilePath string `yaml:"textfile_path"`
}

// Chart controls image output.
type Chart struct {
	WidthIn  float64 `yaml:"width_in" validate:"gt=0,lte=100"`
	HeightIn float64 `yaml:"height_in" validate:"gt=0,lte=100"`
	DPI      int     `yaml:"dpi" validate:"gte=36,lte=1200"`
	Typeface string  `yaml:"typeface" validate:"required"`
	Variant  string  `yaml:"variant" validate:"oneof=Sans Serif Mono"`
	Grid     bool    `yaml:"grid"`
	Parallel bool    `yaml:"parallel"`
}

// Dashboard controls the tiled overview image.
type Dashboard struct {
	Enabled bool `yaml:"enabled"`
	Columns int  `yaml:"columns" validate:"gte=1,lte=6"`
}

// Labels name the two sides of a comparison.
type Labels struct {
	A string `yaml:"a" validate:"required"`
	B string `yaml:"b" validate:"required"`
}

// Default returns the built-in configuration.
func Default() Config {
	opts := render.DefaultOptions()

	return Config{
		OutputDir:  "benchmark_results",
		ReportName: "report.txt",
		Chart: Chart{
			WidthIn:  opts.WidthIn,
			HeightIn: opts.HeightIn,
			DPI:      opts.DPI,
			Typeface: opts.Typeface,
			Variant:  opts.Variant,
			Grid:     opts.Grid,
			Parallel: opts.Parallel,
		},
		Dashboard: Dashboard{
			Enabled: true,
			Columns: 3,
		},
		Labels: Labels{
			A: "Multiple Server Restarts",
			B: "Single Server (Plan A)",
		},
	}
}

// Load reads path over Default and validates the result. An empty path
// returns the validated defaults.
func Load(path string) (Config, error) {
	if path == "" {
		cfg := Default()

		return cfg, cfg.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}

	return cfg, nil
}

// Parse decodes YAML over Default and validates the result. Unknown keys are
// rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode yaml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	return nil
}

// RenderOptions converts the chart settings for render.Setup.
func (c Config) RenderOptions() render.Options {
	return render.Options{
		WidthIn:  c.Chart.WidthIn,
		HeightIn: c.Chart.HeightIn,
		DPI:      c.Chart.DPI,
		Typeface: c.Chart.Typeface,
		Variant:  c.Chart.Variant,
		Grid:     c.Chart.Grid,
		Parallel: c.Chart.Parallel,
	}
}
