package console

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/weiihann/benchscope/series"
)

func TestPlainOutput(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf)

	p.Title("Benchmark Summary")
	p.Info("data points: %d", 6)
	p.Artifact("out/1_end_to_end_latency.png")
	p.Warning(series.Warning{Kind: series.WarnIncompleteDecomposition, LoadLevel: 3, Detail: "network residual -10"})

	want := "== Benchmark Summary ==\n" +
		"data points: 6\n" +
		"  wrote out/1_end_to_end_latency.png\n" +
		"warning: IncompleteDecomposition at writers=3: network residual -10\n"
	assert.Equal(t, want, buf.String())
}

func TestErrorCarriesKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{
			&series.InputError{Path: "run.csv", Row: 4, Column: series.ColumnEndToEnd, Reason: "not a number", Err: series.ErrMalformedInput},
			"error: MalformedInput: malformed input (run.csv, row 4, column EndToEndLatency(ms)): not a number\n",
		},
		{
			fmt.Errorf("load a: %w", series.ErrNoOverlap),
			"error: NoOverlap: load a: no overlapping load levels\n",
		},
		{
			fmt.Errorf("boom"),
			"error: error: boom\n",
		},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		New(&buf).Error(tt.err)
		assert.Equal(t, tt.want, buf.String())
	}
}
