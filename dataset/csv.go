package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/weiihann/benchscope/series"
)

var requiredColumns = []string{
	series.ColumnWriters,
	series.ColumnEndToEnd,
	series.ColumnServer,
	series.ColumnClient,
}

var stdDevColumns = []string{
	series.ColumnEndToEndStdDev,
	series.ColumnServerStdDev,
	series.ColumnClientStdDev,
}

// ParseCSV reads a header row followed by one row per load level.
// Column order is free and unknown columns are ignored. Empty std-dev
// cells are treated as absent.
func ParseCSV(name string, r io.Reader) (*series.Series, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &series.InputError{Path: name, Reason: "missing header", Err: series.ErrEmptySeries}
	}
	if err != nil {
		return nil, csvError(name, err)
	}

	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.TrimSpace(col)] = i
	}

	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, &series.InputError{
				Path:   name,
				Row:    1,
				Column: col,
				Reason: "missing required column",
				Err:    series.ErrMalformedInput,
			}
		}
	}

	var points []series.DataPoint

	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, csvError(name, err)
		}

		line, _ := cr.FieldPos(0)

		p, err := parseRecord(name, line, index, record)
		if err != nil {
			return nil, err
		}

		points = append(points, p)
	}

	return series.New(name, points)
}

func parseRecord(name string, line int, index map[string]int, record []string) (series.DataPoint, error) {
	cell := func(col string) (string, bool) {
		i, ok := index[col]
		if !ok || i >= len(record) {
			return "", false
		}

		return strings.TrimSpace(record[i]), true
	}

	bad := func(col, reason string) error {
		return &series.InputError{
			Path:   name,
			Row:    line,
			Column: col,
			Reason: reason,
			Err:    series.ErrMalformedInput,
		}
	}

	number := func(col string) (float64, error) {
		raw, ok := cell(col)
		if !ok || raw == "" {
			return 0, bad(col, "empty cell")
		}

		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0, bad(col, fmt.Sprintf("non-numeric value %q", raw))
		}

		return v, nil
	}

	optional := func(col string) (*float64, error) {
		raw, ok := cell(col)
		if !ok || raw == "" {
			return nil, nil
		}

		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, bad(col, fmt.Sprintf("non-numeric value %q", raw))
		}

		return &v, nil
	}

	var (
		p   series.DataPoint
		err error
	)

	raw, _ := cell(series.ColumnWriters)
	if p.LoadLevel, err = strconv.Atoi(raw); err != nil {
		return p, bad(series.ColumnWriters, fmt.Sprintf("non-integer value %q", raw))
	}

	if p.EndToEndLatencyMs, err = number(series.ColumnEndToEnd); err != nil {
		return p, err
	}
	if p.ServerLatencyMs, err = number(series.ColumnServer); err != nil {
		return p, err
	}
	if p.ClientQueryTimeMs, err = number(series.ColumnClient); err != nil {
		return p, err
	}

	stdDevs := []**float64{&p.EndToEndStdDev, &p.ServerStdDev, &p.ClientStdDev}
	for i, col := range stdDevColumns {
		if *stdDevs[i], err = optional(col); err != nil {
			return p, err
		}
	}

	return p, nil
}

func csvError(name string, err error) error {
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return &series.InputError{
			Path:   name,
			Row:    parseErr.Line,
			Reason: parseErr.Err.Error(),
			Err:    series.ErrMalformedInput,
		}
	}

	return fmt.Errorf("read %s: %w", name, err)
}

// WriteCSV writes s in the input format. Std-dev columns are included only
// when every point carries them.
func WriteCSV(w io.Writer, s *series.Series) error {
	withStdDev := s.HasStdDev()

	header := append([]string{}, requiredColumns...)
	if withStdDev {
		header = append(header, stdDevColumns...)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, p := range s.Points() {
		row := []string{
			strconv.Itoa(p.LoadLevel),
			formatFloat(p.EndToEndLatencyMs),
			formatFloat(p.ServerLatencyMs),
			formatFloat(p.ClientQueryTimeMs),
		}
		if withStdDev {
			row = append(row,
				formatFloat(*p.EndToEndStdDev),
				formatFloat(*p.ServerStdDev),
				formatFloat(*p.ClientStdDev),
			)
		}

		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write writers=%d: %w", p.LoadLevel, err)
		}
	}

	cw.Flush()

	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
