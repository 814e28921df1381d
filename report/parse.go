package report

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/weiihann/benchscope/series"
)

// ParseTable reads the measured columns of the first series table in a
// report produced by Format or FormatComparison. Measured values, std-devs
// included, come back exactly as they went in.
func ParseTable(name string, r io.Reader) (*series.Series, error) {
	sc := bufio.NewScanner(r)

	var (
		index  map[string]int
		points []series.DataPoint
		line   int
	)

	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())

		if index == nil {
			if isSeriesHeader(fields) {
				index = make(map[string]int, len(fields))
				for i, f := range fields {
					index[f] = i
				}
				// Skip the rule under the header.
				sc.Scan()
				line++
			}

			continue
		}

		if len(fields) == 0 {
			break
		}

		p, err := parseRow(name, line, index, fields)
		if err != nil {
			return nil, err
		}

		points = append(points, p)
	}

	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read report %s: %w", name, err)
	}

	if index == nil {
		return nil, &series.InputError{
			Path:   name,
			Reason: "no series table found",
			Err:    series.ErrMalformedInput,
		}
	}

	return series.New(name, points)
}

func isSeriesHeader(fields []string) bool {
	if len(fields) != len(seriesColumns) {
		return false
	}

	for i, f := range fields {
		if f != seriesColumns[i] {
			return false
		}
	}

	return true
}

func parseRow(name string, line int, index map[string]int, fields []string) (series.DataPoint, error) {
	if len(fields) != len(index) {
		return series.DataPoint{}, &series.InputError{
			Path:   name,
			Row:    line,
			Reason: fmt.Sprintf("expected %d cells, got %d", len(index), len(fields)),
			Err:    series.ErrMalformedInput,
		}
	}

	load, err := strconv.Atoi(fields[index[series.ColumnWriters]])
	if err != nil {
		return series.DataPoint{}, &series.InputError{
			Path:   name,
			Row:    line,
			Column: series.ColumnWriters,
			Reason: fmt.Sprintf("not an integer: %q", fields[index[series.ColumnWriters]]),
			Err:    series.ErrMalformedInput,
		}
	}

	p := series.DataPoint{LoadLevel: load}

	targets := []struct {
		column string
		dst    *float64
	}{
		{series.ColumnEndToEnd, &p.EndToEndLatencyMs},
		{series.ColumnServer, &p.ServerLatencyMs},
		{series.ColumnClient, &p.ClientQueryTimeMs},
	}

	for _, t := range targets {
		v, err := parseCell(name, line, load, t.column, fields[index[t.column]])
		if err != nil {
			return series.DataPoint{}, err
		}

		*t.dst = v
	}

	stdDevs := []struct {
		column string
		dst    **float64
	}{
		{series.ColumnEndToEndStdDev, &p.EndToEndStdDev},
		{series.ColumnServerStdDev, &p.ServerStdDev},
		{series.ColumnClientStdDev, &p.ClientStdDev},
	}

	for _, t := range stdDevs {
		cell := fields[index[t.column]]
		if cell == absent {
			continue
		}

		v, err := parseCell(name, line, load, t.column, cell)
		if err != nil {
			return series.DataPoint{}, err
		}

		*t.dst = series.Float(v)
	}

	return p, nil
}

func parseCell(name string, line, load int, column, cell string) (float64, error) {
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return 0, &series.InputError{
			Path:      name,
			Row:       line,
			Column:    column,
			LoadLevel: load,
			Reason:    fmt.Sprintf("not a number: %q", cell),
			Err:       series.ErrMalformedInput,
		}
	}

	return v, nil
}
