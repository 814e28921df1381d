// Package dataset loads benchmark result files into validated series.
package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/weiihann/benchscope/series"
)

// Loader reads result files produced by the benchmark driver.
type Loader struct {
	Logger *slog.Logger
}

// NewLoader creates a Loader that logs through logger.
func NewLoader(logger *slog.Logger) *Loader {
	return &Loader{Logger: logger.With(slog.String("component", "dataset"))}
}

// Load reads path and returns its series, named after the file without its
// extension. The format is chosen by file extension: .json for a JSON array
// of rows, anything else is CSV.
func (l *Loader) Load(ctx context.Context, path string) (*series.Series, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open results %s: %w", path, err)
	}
	defer f.Close()

	var s *series.Series

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		s, err = ParseJSON(path, f)
	default:
		s, err = ParseCSV(path, f)
	}

	if err != nil {
		return nil, err
	}

	// Errors cite the full path; the series itself is named after the file.
	s, err = series.New(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)), s.Points())
	if err != nil {
		return nil, err
	}

	l.Logger.DebugContext(ctx, "loaded results",
		slog.String("path", path),
		slog.Int("points", s.Len()),
		slog.Bool("std_dev", s.HasStdDev()),
	)

	return s, nil
}

type jsonRow struct {
	Writers        *int     `json:"Writers"`
	EndToEnd       *float64 `json:"EndToEndLatency(ms)"`
	Server         *float64 `json:"ServerLatency(ms)"`
	Client         *float64 `json:"ClientQueryTime(ms)"`
	EndToEndStdDev *float64 `json:"EndToEndStdDev"`
	ServerStdDev   *float64 `json:"ServerStdDev"`
	ClientStdDev   *float64 `json:"ClientStdDev"`
}

// ParseJSON decodes a JSON array of rows keyed by the CSV column names.
func ParseJSON(name string, r io.Reader) (*series.Series, error) {
	var rows []jsonRow
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return nil, &series.InputError{
			Path:   name,
			Reason: fmt.Sprintf("decode JSON: %v", err),
			Err:    series.ErrMalformedInput,
		}
	}

	points := make([]series.DataPoint, 0, len(rows))

	for i, row := range rows {
		missing := func(column string) error {
			return &series.InputError{
				Path:   name,
				Row:    i + 1,
				Column: column,
				Reason: "missing required field",
				Err:    series.ErrMalformedInput,
			}
		}

		switch {
		case row.Writers == nil:
			return nil, missing(series.ColumnWriters)
		case row.EndToEnd == nil:
			return nil, missing(series.ColumnEndToEnd)
		case row.Server == nil:
			return nil, missing(series.ColumnServer)
		case row.Client == nil:
			return nil, missing(series.ColumnClient)
		}

		points = append(points, series.DataPoint{
			LoadLevel:         *row.Writers,
			EndToEndLatencyMs: *row.EndToEnd,
			ServerLatencyMs:   *row.Server,
			ClientQueryTimeMs: *row.Client,
			EndToEndStdDev:    row.EndToEndStdDev,
			ServerStdDev:      row.ServerStdDev,
			ClientStdDev:      row.ClientStdDev,
		})
	}

	return series.New(name, points)
}
