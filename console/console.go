// Package console prints run progress for humans: titles, written
// artifacts, data-quality warnings and errors. Output is styled only when
// the destination is a terminal.
package console

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/weiihann/benchscope/series"
)

var (
	colorTitle   = lipgloss.Color("#2E86AB")
	colorSuccess = lipgloss.Color("#06A77D")
	colorWarning = lipgloss.Color("#F18F01")
	colorError   = lipgloss.Color("#E63946")
	colorMuted   = lipgloss.Color("#6C757D")
)

// Printer writes progress lines to one destination.
type Printer struct {
	w      io.Writer
	styled bool

	title   lipgloss.Style
	success lipgloss.Style
	warning lipgloss.Style
	err     lipgloss.Style
	muted   lipgloss.Style
}

// New returns a Printer for w.
func New(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)

	return &Printer{
		w:       w,
		styled:  isTerminal(w),
		title:   r.NewStyle().Bold(true).Foreground(colorTitle),
		success: r.NewStyle().Foreground(colorSuccess),
		warning: r.NewStyle().Foreground(colorWarning),
		err:     r.NewStyle().Bold(true).Foreground(colorError),
		muted:   r.NewStyle().Foreground(colorMuted),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Title prints a section heading.
func (p *Printer) Title(text string) {
	if p.styled {
		fmt.Fprintln(p.w, p.title.Render(text))

		return
	}

	fmt.Fprintf(p.w, "== %s ==\n", text)
}

// Info prints a plain line.
func (p *Printer) Info(format string, args ...any) {
	text := fmt.Sprintf(format, args...)
	if p.styled {
		text = p.muted.Render(text)
	}

	fmt.Fprintln(p.w, text)
}

// Artifact reports a written file.
func (p *Printer) Artifact(path string) {
	if p.styled {
		fmt.Fprintf(p.w, "  %s %s\n", p.success.Render("✓"), path)

		return
	}

	fmt.Fprintf(p.w, "  wrote %s\n", path)
}

// Warning reports a data-quality anomaly.
func (p *Printer) Warning(w series.Warning) {
	line := "warning: " + w.String()
	if p.styled {
		line = p.warning.Render(line)
	}

	fmt.Fprintln(p.w, line)
}

// Error reports a failure with its kind, for example
// "error: MalformedInput: malformed input (run.csv, row 4, ...)".
func (p *Printer) Error(err error) {
	line := fmt.Sprintf("error: %s: %v", series.Kind(err), err)
	if p.styled {
		line = p.err.Render(line)
	}

	fmt.Fprintln(p.w, line)
}
