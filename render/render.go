// Package render draws chart specs as PNG images with gonum/plot.
package render

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/font"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/weiihann/benchscope/chart"
)

// ErrNotSetUp is returned when a Renderer is used without Setup.
var ErrNotSetUp = errors.New("renderer not set up")

// Options is the process-wide rendering configuration.
type Options struct {
	WidthIn  float64
	HeightIn float64
	DPI      int
	Typeface string
	Variant  string
	Grid     bool
	// Parallel renders catalog charts concurrently in RenderAll.
	Parallel bool
}

// DefaultOptions returns 10x6 inch charts at 150 DPI in Liberation Sans.
func DefaultOptions() Options {
	return Options{
		WidthIn:  10,
		HeightIn: 6,
		DPI:      150,
		Typeface: "Liberation",
		Variant:  "Sans",
		Grid:     true,
		Parallel: true,
	}
}

// dashboardScale is the size of one dashboard tile relative to a single
// chart.
const dashboardScale = 0.55

// Renderer draws specs. It holds no per-chart state and is safe for
// concurrent use once set up.
type Renderer struct {
	logger *slog.Logger
	opts   Options
	font   font.Font
	ready  bool
}

// Setup validates opts and returns a Renderer. It is the only place
// rendering configuration is decided.
func Setup(opts Options, logger *slog.Logger) (*Renderer, error) {
	if opts.WidthIn <= 0 || opts.HeightIn <= 0 {
		return nil, fmt.Errorf("chart size must be positive, got %gx%g in", opts.WidthIn, opts.HeightIn)
	}

	if opts.DPI <= 0 {
		return nil, fmt.Errorf("dpi must be positive, got %d", opts.DPI)
	}

	fnt := font.Font{
		Typeface: font.Typeface(opts.Typeface),
		Variant:  font.Variant(opts.Variant),
	}
	if !font.DefaultCache.Has(fnt) {
		return nil, fmt.Errorf("font %s %s is not available", opts.Typeface, opts.Variant)
	}

	return &Renderer{
		logger: logger.With("component", "render"),
		opts:   opts,
		font:   fnt,
		ready:  true,
	}, nil
}

func (r *Renderer) check() error {
	if r == nil || !r.ready {
		return ErrNotSetUp
	}

	return nil
}

// Render writes spec as a PNG file at dest.
func (r *Renderer) Render(spec chart.Spec, dest string) (err error) {
	if err := r.check(); err != nil {
		return err
	}

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create chart file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close chart file: %w", cerr)
		}
	}()

	if err := r.Encode(f, spec); err != nil {
		return fmt.Errorf("render %s: %w", spec.Kind, err)
	}

	r.logger.Debug("rendered chart", "path", dest, "kind", spec.Kind)

	return nil
}

// Encode writes spec as PNG to w.
func (r *Renderer) Encode(w io.Writer, spec chart.Spec) error {
	if err := r.check(); err != nil {
		return err
	}

	p, err := r.Plot(spec, r.opts.WidthIn)
	if err != nil {
		return err
	}

	img := vgimg.NewWith(
		vgimg.UseWH(vg.Length(r.opts.WidthIn)*vg.Inch, vg.Length(r.opts.HeightIn)*vg.Inch),
		vgimg.UseDPI(r.opts.DPI),
	)
	p.Draw(draw.New(img))

	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(w); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}

	return nil
}

// RenderDashboard tiles specs row-major into one PNG with cols columns.
func (r *Renderer) RenderDashboard(specs []chart.Spec, dest string, cols int) (err error) {
	if err := r.check(); err != nil {
		return err
	}

	if len(specs) == 0 {
		return errors.New("dashboard needs at least one chart")
	}

	if cols <= 0 {
		return fmt.Errorf("dashboard columns must be positive, got %d", cols)
	}

	cols = min(cols, len(specs))
	rows := (len(specs) + cols - 1) / cols
	tileW := r.opts.WidthIn * dashboardScale

	plots := make([][]*plot.Plot, rows)
	for j := range plots {
		plots[j] = make([]*plot.Plot, cols)
	}

	for i, spec := range specs {
		p, err := r.Plot(spec, tileW)
		if err != nil {
			return fmt.Errorf("dashboard %s: %w", spec.Kind, err)
		}
		plots[i/cols][i%cols] = p
	}

	img := vgimg.NewWith(
		vgimg.UseWH(
			vg.Length(tileW*float64(cols))*vg.Inch,
			vg.Length(r.opts.HeightIn*dashboardScale*float64(rows))*vg.Inch,
		),
		vgimg.UseDPI(r.opts.DPI),
	)
	dc := draw.New(img)

	tiles := draw.Tiles{
		Rows:      rows,
		Cols:      cols,
		PadX:      vg.Millimeter * 4,
		PadY:      vg.Millimeter * 4,
		PadTop:    vg.Millimeter * 2,
		PadBottom: vg.Millimeter * 2,
		PadLeft:   vg.Millimeter * 2,
		PadRight:  vg.Millimeter * 2,
	}

	canvases := plot.Align(plots, tiles, dc)
	for j := range plots {
		for i, p := range plots[j] {
			if p != nil {
				p.Draw(canvases[j][i])
			}
		}
	}

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create dashboard file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close dashboard file: %w", cerr)
		}
	}()

	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(f); err != nil {
		return fmt.Errorf("encode dashboard: %w", err)
	}

	r.logger.Debug("rendered dashboard", "path", dest, "charts", len(specs))

	return nil
}

// Plot builds the gonum plot of spec for a chart widthIn inches wide.
func (r *Renderer) Plot(spec chart.Spec, widthIn float64) (*plot.Plot, error) {
	if err := r.check(); err != nil {
		return nil, err
	}

	p := plot.New()
	p.Title.Text = spec.Title
	p.X.Label.Text = spec.XLabel
	p.Y.Label.Text = spec.YLabel
	p.Legend.Top = true
	p.Legend.Left = true
	r.applyFont(p)

	if r.opts.Grid {
		grid := plotter.NewGrid()
		grid.Vertical.Color = color.Gray{Y: 0xDD}
		grid.Horizontal.Color = color.Gray{Y: 0xDD}
		p.Add(grid)
	}

	p.X.Tick.Marker = ticks(spec)

	barWidth := r.barWidth(spec, widthIn)
	stacks := make(map[float64]*plotter.BarChart)

	var refs []float64

	for _, s := range spec.Series {
		var err error

		switch s.Mark {
		case chart.MarkLine:
			err = addLine(p, spec, s)
		case chart.MarkBar:
			err = addBars(p, spec, s, barWidth, nil)
		case chart.MarkStackedBar:
			err = addBars(p, spec, s, barWidth, stacks)
		case chart.MarkReference:
			refs = append(refs, addReference(p, s))
		default:
			err = fmt.Errorf("unknown mark %q", s.Mark)
		}

		if err != nil {
			return nil, fmt.Errorf("series %q: %w", s.Name, err)
		}
	}

	if len(spec.Annotations) > 0 {
		labels, err := r.annotations(spec)
		if err != nil {
			return nil, err
		}
		p.Add(labels)
	}

	// Reference lines are not data rangers; keep them in view.
	for _, v := range refs {
		p.Y.Min = math.Min(p.Y.Min, v)
		p.Y.Max = math.Max(p.Y.Max, v)
	}

	if spec.Categorical && len(spec.LoadLevels) > 0 {
		p.X.Min = -0.5
		p.X.Max = float64(len(spec.LoadLevels)) - 0.5
	}

	return p, nil
}

func (r *Renderer) applyFont(p *plot.Plot) {
	p.Title.TextStyle.Font = font.From(r.font, vg.Points(14))
	p.X.Label.TextStyle.Font = font.From(r.font, vg.Points(12))
	p.Y.Label.TextStyle.Font = font.From(r.font, vg.Points(12))
	p.X.Tick.Label.Font = font.From(r.font, vg.Points(10))
	p.Y.Tick.Label.Font = font.From(r.font, vg.Points(10))
	p.Legend.TextStyle.Font = font.From(r.font, vg.Points(10))
}

func (r *Renderer) barWidth(spec chart.Spec, widthIn float64) vg.Length {
	n := max(len(spec.LoadLevels), 1)
	// Roughly 80% of the width is data area; bars take 60% of a slot.
	slot := vg.Length(widthIn) * vg.Inch * 0.8 / vg.Length(n)

	return slot * 0.6
}

func (r *Renderer) annotations(spec chart.Spec) (*plotter.Labels, error) {
	xys := make(plotter.XYs, len(spec.Annotations))
	texts := make([]string, len(spec.Annotations))
	for i, a := range spec.Annotations {
		xys[i] = plotter.XY{X: spec.X(a.LoadLevel), Y: a.Value}
		texts[i] = a.Text
	}

	labels, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: texts})
	if err != nil {
		return nil, fmt.Errorf("annotations: %w", err)
	}

	for i := range labels.TextStyle {
		labels.TextStyle[i].Font = font.From(r.font, vg.Points(8))
		labels.TextStyle[i].XAlign = draw.XCenter
	}
	labels.Offset = vg.Point{Y: vg.Points(4)}

	return labels, nil
}

func ticks(spec chart.Spec) plot.ConstantTicks {
	out := make(plot.ConstantTicks, len(spec.LoadLevels))
	for i, l := range spec.LoadLevels {
		out[i] = plot.Tick{Value: spec.X(l), Label: strconv.Itoa(l)}
	}

	return out
}

type errorPoints struct {
	plotter.XYs
	plotter.YErrors
}

func addLine(p *plot.Plot, spec chart.Spec, s chart.Series) error {
	style := chart.StyleFor(s.Role)

	xys := make(plotter.XYs, len(s.Points))
	withErr := len(s.Points) > 0
	for i, pt := range s.Points {
		xys[i] = plotter.XY{X: spec.X(pt.LoadLevel), Y: pt.Value}
		withErr = withErr && pt.Err != nil
	}

	line, points, err := plotter.NewLinePoints(xys)
	if err != nil {
		return err
	}

	line.Color = style.Color
	line.Width = vg.Points(2)
	if style.Dashed {
		line.Dashes = []vg.Length{vg.Points(6), vg.Points(4)}
	}
	if s.Fill {
		line.FillColor = color.NRGBA{R: style.Color.R, G: style.Color.G, B: style.Color.B, A: 0x33}
	}

	thumbs := []plot.Thumbnailer{line}
	p.Add(line)

	if shape := glyph(style.Marker); shape != nil {
		points.Shape = shape
		points.Color = style.Color
		points.Radius = vg.Points(3.5)
		p.Add(points)
		thumbs = append(thumbs, points)
	}

	if withErr {
		errs := make(plotter.YErrors, len(s.Points))
		for i, pt := range s.Points {
			errs[i].Low, errs[i].High = *pt.Err, *pt.Err
		}

		bars, err := plotter.NewYErrorBars(errorPoints{XYs: xys, YErrors: errs})
		if err != nil {
			return err
		}
		bars.Color = style.Color
		p.Add(bars)
	}

	p.Legend.Add(s.Name, thumbs...)

	return nil
}

// addBars draws one bar per point so each bar can carry its own role and x
// position. Bars sharing an x position stack when stacks is non-nil.
func addBars(p *plot.Plot, spec chart.Spec, s chart.Series, width vg.Length, stacks map[float64]*plotter.BarChart) error {
	var first *plotter.BarChart

	for _, pt := range s.Points {
		bar, err := plotter.NewBarChart(plotter.Values{pt.Value}, width)
		if err != nil {
			return err
		}

		role := s.Role
		if pt.Role != "" {
			role = pt.Role
		}

		x := spec.X(pt.LoadLevel)
		bar.XMin = x
		bar.Color = chart.StyleFor(role).Color
		bar.LineStyle.Width = vg.Points(0.8)

		if stacks != nil {
			if below, ok := stacks[x]; ok {
				bar.StackOn(below)
			}
			stacks[x] = bar
		}

		p.Add(bar)
		if first == nil {
			first = bar
		}
	}

	if first != nil {
		p.Legend.Add(s.Name, first)
	}

	return nil
}

func addReference(p *plot.Plot, s chart.Series) float64 {
	var v float64
	if len(s.Points) > 0 {
		v = s.Points[0].Value
	}

	style := chart.StyleFor(s.Role)

	fn := plotter.NewFunction(func(float64) float64 { return v })
	fn.Color = style.Color
	fn.Width = vg.Points(1.5)
	fn.Samples = 2
	if style.Dashed {
		fn.Dashes = []vg.Length{vg.Points(6), vg.Points(4)}
	}

	p.Add(fn)
	p.Legend.Add(s.Name, fn)

	return v
}

func glyph(m chart.Marker) draw.GlyphDrawer {
	switch m {
	case chart.MarkerCircle:
		return draw.CircleGlyph{}
	case chart.MarkerSquare:
		return draw.BoxGlyph{}
	case chart.MarkerTriangle:
		return draw.PyramidGlyph{}
	case chart.MarkerDiamond:
		return draw.SquareGlyph{}
	default:
		return nil
	}
}
