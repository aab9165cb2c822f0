// Package plot renders the k-distance diagnostic and 2-D cluster scatter
// plots as PNG images.
package plot

import (
	"fmt"
	"image/color"
	"io"
	"os"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/TrevorS/dbscan"
	"github.com/TrevorS/dbscan/internal/csvio"
)

// dpi makes one vg.Point one pixel, so Width and Height are pixel sizes.
const dpi = 72

// NoiseColor is used for samples whose cid is negative.
var NoiseColor = color.NRGBA{A: 77}

// Options controls the k-distance plot.
type Options struct {
	Width  int
	Height int
	Title  string
}

// ScatterOptions controls the scatter plot.
type ScatterOptions struct {
	Width     int
	Height    int
	Title     string
	PointSize float64 // glyph radius in pixels
}

// Sample is one point of a scatter plot.
type Sample struct {
	Cid  int
	X, Y float64
}

// Samples projects labeled rows onto the coordinate columns xCol and yCol
// (0-based, the cid column excluded).
func Samples(rows []csvio.LabeledRow, xCol, yCol int) ([]Sample, error) {
	if xCol < 0 || yCol < 0 {
		return nil, fmt.Errorf("%w: column indexes must be >= 0", dbscan.ErrInvalidInput)
	}
	out := make([]Sample, len(rows))
	for i, r := range rows {
		if xCol >= len(r.Coords) || yCol >= len(r.Coords) {
			return nil, fmt.Errorf("%w: row %d: x/y column out of bounds for %d data columns",
				dbscan.ErrInvalidInput, i+1, len(r.Coords))
		}
		out[i] = Sample{Cid: r.Cid, X: r.Coords[xCol], Y: r.Coords[yCol]}
	}
	return out, nil
}

// ColorFor maps a cid onto a deterministic palette color; negative cids
// (noise) are translucent black.
func ColorFor(cid int) color.Color {
	if cid < 0 {
		return NoiseColor
	}
	return plotutil.Color(cid)
}

// padRange widens [lo, hi] by 5% on both sides, or by 1 when it is empty.
func padRange(lo, hi float64) (float64, float64) {
	span := hi - lo
	if span < 0 {
		span = -span
	}
	m := span * 0.05
	if span == 0 {
		m = 1
	}
	return lo - m, hi + m
}

// KDistance renders values, sorted descending, as a line of k-distance
// against sorted index.
func KDistance(w io.Writer, values []float64, opts Options) error {
	if len(values) == 0 {
		return fmt.Errorf("%w: no k-distances to plot", dbscan.ErrInvalidInput)
	}
	sorted := dbscan.SortedKDistances(values)

	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = "sorted index"
	p.Y.Label.Text = "k-distance"
	p.X.Min, p.X.Max = 0, float64(len(sorted))
	p.Y.Min, p.Y.Max = padRange(floats.Min(sorted), floats.Max(sorted))
	p.Add(plotter.NewGrid())

	xys := make(plotter.XYs, len(sorted))
	for i, v := range sorted {
		xys[i].X = float64(i)
		xys[i].Y = v
	}
	line, err := plotter.NewLine(xys)
	if err != nil {
		return fmt.Errorf("%w: %w", dbscan.ErrInvalidInput, err)
	}
	line.Color = color.RGBA{B: 255, A: 255}
	p.Add(line)

	return render(w, p, opts.Width, opts.Height)
}

// Scatter renders samples colored by cid. Noise is drawn first so that
// cluster members stay visible on top of it.
func Scatter(w io.Writer, samples []Sample, opts ScatterOptions) error {
	if len(samples) == 0 {
		return fmt.Errorf("%w: no samples to plot", dbscan.ErrInvalidInput)
	}

	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"

	xs := make([]float64, len(samples))
	ys := make([]float64, len(samples))
	groups := map[int]plotter.XYs{}
	var cids []int
	for i, s := range samples {
		xs[i], ys[i] = s.X, s.Y
		id := s.Cid
		if id < 0 {
			id = -1
		}
		if _, ok := groups[id]; !ok {
			cids = append(cids, id)
		}
		groups[id] = append(groups[id], plotter.XY{X: s.X, Y: s.Y})
	}
	p.X.Min, p.X.Max = padRange(floats.Min(xs), floats.Max(xs))
	p.Y.Min, p.Y.Max = padRange(floats.Min(ys), floats.Max(ys))

	slices.Sort(cids)
	radius := vg.Length(opts.PointSize)
	if radius <= 0 {
		radius = 2
	}
	for _, id := range cids {
		sc, err := plotter.NewScatter(groups[id])
		if err != nil {
			return fmt.Errorf("%w: %w", dbscan.ErrInvalidInput, err)
		}
		sc.GlyphStyle.Color = ColorFor(id)
		sc.GlyphStyle.Radius = radius
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(sc)
	}

	return render(w, p, opts.Width, opts.Height)
}

func render(w io.Writer, p *plot.Plot, width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: image size must be positive, got %dx%d", dbscan.ErrInvalidInput, width, height)
	}
	c := vgimg.NewWith(
		vgimg.UseWH(vg.Length(width), vg.Length(height)),
		vgimg.UseDPI(dpi),
		vgimg.UseBackgroundColor(color.White),
	)
	p.Draw(draw.New(c))
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(w); err != nil {
		return fmt.Errorf("%w: %w", dbscan.ErrIO, err)
	}
	return nil
}

// SavePNG creates path and renders into it with fn.
func SavePNG(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %w", dbscan.ErrIO, err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %w", dbscan.ErrIO, err)
	}
	return nil
}
