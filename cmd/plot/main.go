// Command plot renders a labeled CSV file (cid,x1,...,xD) as a 2-D scatter
// plot, one color per cluster id.
//
// Usage:
//
//	plot [flags] <input.csv> <output.png>
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/TrevorS/dbscan/internal/cli"
	"github.com/TrevorS/dbscan/internal/csvio"
	"github.com/TrevorS/dbscan/internal/plot"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	return cli.Report(stderr, "plot", plotMain(args, stdout, stderr))
}

func plotMain(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("plot", flag.ContinueOnError)
	fs.SetOutput(stderr)
	xCol := fs.Int("x-col", 0, "coordinate column for the x axis (0-based, cid excluded)")
	yCol := fs.Int("y-col", 1, "coordinate column for the y axis (0-based, cid excluded)")
	width := fs.Int("width", 1000, "image width in pixels")
	height := fs.Int("height", 800, "image height in pixels")
	pointSize := fs.Float64("point-size", 2, "glyph radius in pixels")
	title := fs.String("title", "Clustering Plot", "plot title")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: plot [flags] <input.csv> <output.png>")
		fs.PrintDefaults()
	}

	pos, err := cli.Parse(fs, args)
	if err != nil {
		if err == flag.ErrHelp {
			return err
		}
		return cli.Usagef("%v", err)
	}
	if len(pos) != 2 {
		fs.Usage()
		return cli.Usagef("expected 2 arguments, got %d", len(pos))
	}

	rows, err := csvio.ReadLabeled(pos[0])
	if err != nil {
		return err
	}
	samples, err := plot.Samples(rows, *xCol, *yCol)
	if err != nil {
		return err
	}
	err = plot.SavePNG(pos[1], func(w io.Writer) error {
		return plot.Scatter(w, samples, plot.ScatterOptions{
			Width:     *width,
			Height:    *height,
			Title:     *title,
			PointSize: *pointSize,
		})
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "plotted %d samples to %s\n", len(samples), pos[1])
	return nil
}
