package series

import (
	"errors"
	"fmt"
	"strings"
)

// Column names of the tabular input format.
const (
	ColumnWriters        = "Writers"
	ColumnEndToEnd       = "EndToEndLatency(ms)"
	ColumnServer         = "ServerLatency(ms)"
	ColumnClient         = "ClientQueryTime(ms)"
	ColumnEndToEndStdDev = "EndToEndStdDev"
	ColumnServerStdDev   = "ServerStdDev"
	ColumnClientStdDev   = "ClientStdDev"
)

var (
	// ErrMalformedInput covers missing columns, non-numeric cells and
	// duplicate load levels.
	ErrMalformedInput = errors.New("malformed input")

	// ErrEmptySeries indicates an input without data rows.
	ErrEmptySeries = errors.New("empty series")

	// ErrDegenerateMeasurement indicates a zero or negative latency feeding a
	// division.
	ErrDegenerateMeasurement = errors.New("degenerate measurement")

	// ErrNoOverlap indicates two series share no load level.
	ErrNoOverlap = errors.New("no overlapping load levels")
)

// InputError locates a structural problem in an input file.
// Zero-valued fields are omitted from the message.
type InputError struct {
	Path      string
	Row       int
	Column    string
	LoadLevel int
	Reason    string
	Err       error
}

func (e *InputError) Error() string {
	var loc []string
	if e.Path != "" {
		loc = append(loc, e.Path)
	}
	if e.Row > 0 {
		loc = append(loc, fmt.Sprintf("row %d", e.Row))
	}
	if e.Column != "" {
		loc = append(loc, fmt.Sprintf("column %s", e.Column))
	}
	if e.LoadLevel > 0 {
		loc = append(loc, fmt.Sprintf("writers=%d", e.LoadLevel))
	}

	msg := e.Err.Error()
	if len(loc) > 0 {
		msg += " (" + strings.Join(loc, ", ") + ")"
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}

	return msg
}

func (e *InputError) Unwrap() error {
	return e.Err
}

// MeasurementError reports a value that cannot be divided by.
type MeasurementError struct {
	Series    string
	LoadLevel int
	Field     string
	Value     float64
}

func (e *MeasurementError) Error() string {
	msg := fmt.Sprintf("%s: %s is %g at writers=%d",
		ErrDegenerateMeasurement, e.Field, e.Value, e.LoadLevel)
	if e.Series != "" {
		msg += " in " + e.Series
	}

	return msg
}

func (e *MeasurementError) Unwrap() error {
	return ErrDegenerateMeasurement
}

// OverlapError reports two series without a common load level.
type OverlapError struct {
	A, B        string
	LoadLevelsA []int
	LoadLevelsB []int
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("%s: %s has writers %v, %s has writers %v",
		ErrNoOverlap, e.A, e.LoadLevelsA, e.B, e.LoadLevelsB)
}

func (e *OverlapError) Unwrap() error {
	return ErrNoOverlap
}

// Kind returns the short name of the error kind wrapped by err, or "error"
// for anything else.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrMalformedInput):
		return "MalformedInput"
	case errors.Is(err, ErrEmptySeries):
		return "EmptySeries"
	case errors.Is(err, ErrDegenerateMeasurement):
		return "DegenerateMeasurement"
	case errors.Is(err, ErrNoOverlap):
		return "NoOverlap"
	default:
		return "error"
	}
}
