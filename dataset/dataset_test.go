package dataset

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiihann/benchscope/series"
)

const sampleCSV = `Writers,EndToEndLatency(ms),ServerLatency(ms),ClientQueryTime(ms),EndToEndStdDev,ServerStdDev,ClientStdDev
25,400,250,80,12.5,8,3
3,100,60,30,2.5,1.5,0.5
`

func TestParseCSV(t *testing.T) {
	s, err := ParseCSV("run.csv", strings.NewReader(sampleCSV))
	require.NoError(t, err)

	require.Equal(t, []int{3, 25}, s.LoadLevels())

	p := s.Point(0)
	assert.Equal(t, 100.0, p.EndToEndLatencyMs)
	assert.Equal(t, 60.0, p.ServerLatencyMs)
	assert.Equal(t, 30.0, p.ClientQueryTimeMs)
	require.NotNil(t, p.EndToEndStdDev)
	assert.Equal(t, 2.5, *p.EndToEndStdDev)
	assert.True(t, s.HasStdDev())
}

func TestParseCSVWithoutStdDev(t *testing.T) {
	input := "ClientQueryTime(ms), Writers, EndToEndLatency(ms), ServerLatency(ms), Note\n" +
		"30, 3, 100, 60, warm\n"

	s, err := ParseCSV("run.csv", strings.NewReader(input))
	require.NoError(t, err)

	p := s.Point(0)
	assert.Equal(t, 3, p.LoadLevel)
	assert.Equal(t, 30.0, p.ClientQueryTimeMs)
	assert.Nil(t, p.EndToEndStdDev)
	assert.False(t, s.HasStdDev())
}

func TestParseCSVErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
		row     int
		column  string
	}{
		{
			name:    "empty file",
			input:   "",
			wantErr: series.ErrEmptySeries,
		},
		{
			name:    "header only",
			input:   "Writers,EndToEndLatency(ms),ServerLatency(ms),ClientQueryTime(ms)\n",
			wantErr: series.ErrEmptySeries,
		},
		{
			name:    "missing column",
			input:   "Writers,EndToEndLatency(ms),ServerLatency(ms)\n3,100,60\n",
			wantErr: series.ErrMalformedInput,
			row:     1,
			column:  series.ColumnClient,
		},
		{
			name: "non-numeric latency",
			input: "Writers,EndToEndLatency(ms),ServerLatency(ms),ClientQueryTime(ms)\n" +
				"3,100,60,30\n" +
				"10,fast,60,30\n",
			wantErr: series.ErrMalformedInput,
			row:     3,
			column:  series.ColumnEndToEnd,
		},
		{
			name: "non-integer writers",
			input: "Writers,EndToEndLatency(ms),ServerLatency(ms),ClientQueryTime(ms)\n" +
				"3.5,100,60,30\n",
			wantErr: series.ErrMalformedInput,
			row:     2,
			column:  series.ColumnWriters,
		},
		{
			name: "duplicate writers",
			input: "Writers,EndToEndLatency(ms),ServerLatency(ms),ClientQueryTime(ms)\n" +
				"3,100,60,30\n" +
				"3,110,60,30\n",
			wantErr: series.ErrMalformedInput,
			column:  series.ColumnWriters,
		},
		{
			name: "bad std dev",
			input: "Writers,EndToEndLatency(ms),ServerLatency(ms),ClientQueryTime(ms),ServerStdDev\n" +
				"3,100,60,30,n/a\n",
			wantErr: series.ErrMalformedInput,
			row:     2,
			column:  series.ColumnServerStdDev,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCSV("bad.csv", strings.NewReader(tt.input))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)

			var inputErr *series.InputError
			require.True(t, errors.As(err, &inputErr))
			assert.Equal(t, "bad.csv", inputErr.Path)
			assert.Equal(t, tt.row, inputErr.Row)
			assert.Equal(t, tt.column, inputErr.Column)
		})
	}
}

func TestParseJSON(t *testing.T) {
	input := `[
		{"Writers": 25, "EndToEndLatency(ms)": 400, "ServerLatency(ms)": 250, "ClientQueryTime(ms)": 80},
		{"Writers": 3, "EndToEndLatency(ms)": 100, "ServerLatency(ms)": 60, "ClientQueryTime(ms)": 30, "EndToEndStdDev": 1.5}
	]`

	s, err := ParseJSON("run.json", strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []int{3, 25}, s.LoadLevels())
	require.NotNil(t, s.Point(0).EndToEndStdDev)
	assert.Equal(t, 1.5, *s.Point(0).EndToEndStdDev)
}

func TestParseJSONMissingField(t *testing.T) {
	input := `[{"Writers": 3, "EndToEndLatency(ms)": 100, "ServerLatency(ms)": 60}]`

	_, err := ParseJSON("run.json", strings.NewReader(input))
	require.ErrorIs(t, err, series.ErrMalformedInput)

	var inputErr *series.InputError
	require.True(t, errors.As(err, &inputErr))
	assert.Equal(t, series.ColumnClient, inputErr.Column)
	assert.Equal(t, 1, inputErr.Row)
}

func TestParseJSONInvalid(t *testing.T) {
	_, err := ParseJSON("run.json", strings.NewReader(`not json at all`))
	assert.ErrorIs(t, err, series.ErrMalformedInput)
}

func TestLoaderDispatchesOnExtension(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "run.csv")
	jsonPath := filepath.Join(dir, "run.json")

	require.NoError(t, os.WriteFile(csvPath, []byte(sampleCSV), 0o644))
	require.NoError(t, os.WriteFile(jsonPath, []byte(
		`[{"Writers": 3, "EndToEndLatency(ms)": 100, "ServerLatency(ms)": 60, "ClientQueryTime(ms)": 30}]`,
	), 0o644))

	loader := NewLoader(slog.New(slog.NewTextHandler(io.Discard, nil)))

	s, err := loader.Load(context.Background(), csvPath)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, "run", s.Name())

	s, err = loader.Load(context.Background(), jsonPath)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len())

	_, err = loader.Load(context.Background(), filepath.Join(dir, "missing.csv"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWriteCSVRoundTrip(t *testing.T) {
	orig, err := ParseCSV("run.csv", strings.NewReader(sampleCSV))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, orig))

	back, err := ParseCSV("copy.csv", &buf)
	require.NoError(t, err)
	assert.Equal(t, orig.Points(), back.Points())
}
