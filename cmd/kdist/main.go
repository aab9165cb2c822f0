// Command kdist plots the sorted k-distance curve of a point CSV file and
// suggests an eps at its knee.
//
// Usage:
//
//	kdist [flags] <input.csv> <output.png>
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/TrevorS/dbscan"
	"github.com/TrevorS/dbscan/internal/cli"
	"github.com/TrevorS/dbscan/internal/config"
	"github.com/TrevorS/dbscan/internal/csvio"
	"github.com/TrevorS/dbscan/internal/plot"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	return cli.Report(stderr, "kdist", kdistMain(args, stdout, stderr))
}

func kdistMain(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("kdist", flag.ContinueOnError)
	fs.SetOutput(stderr)
	k := fs.Int("k", 4, "k for k-distance (k-th nearest neighbor, excluding self)")
	width := fs.Int("width", 1200, "image width in pixels")
	height := fs.Int("height", 800, "image height in pixels")
	title := fs.String("title", "k-distance plot", "plot title")
	workers := fs.Int("workers", 0, "goroutines for the k-distance queries (0 = all CPUs)")
	engine := fs.String("engine", "auto", "region-query engine: auto, reference, rtree, kdtree or balltree")
	configPath := fs.String("config", "", "YAML config file")
	verbose := fs.Bool("v", false, "debug logging")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: kdist [flags] <input.csv> <output.png>")
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
	input, output := pos[0], pos[1]

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if cli.IsSet(fs, "k") {
		cfg.KDist.K = *k
	}
	if cli.IsSet(fs, "workers") {
		cfg.KDist.Workers = *workers
	}
	if cli.IsSet(fs, "engine") {
		cfg.Clustering.Engine = *engine
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger, err := cli.Logger(stderr, cfg, *verbose)
	if err != nil {
		return err
	}

	points, err := csvio.ReadPoints(input)
	if err != nil {
		return err
	}
	set, err := dbscan.NewPointSet(points)
	if err != nil {
		return err
	}
	if set.Len() < 2 {
		return fmt.Errorf("%w: at least 2 points are required", dbscan.ErrInvalidInput)
	}
	if cfg.KDist.K < 1 || cfg.KDist.K >= set.Len() {
		return fmt.Errorf("%w: k must be in 1..=N-1; got k=%d, N=%d", dbscan.ErrInvalidInput, cfg.KDist.K, set.Len())
	}

	eng, err := dbscan.NewEngine(cfg.DBSCAN(), set.Dims())
	if err != nil {
		return err
	}
	if err := eng.Init(set); err != nil {
		return err
	}
	values, err := dbscan.KDistancesParallel(context.Background(), eng, cfg.KDist.K, cfg.KDist.Workers)
	if err != nil {
		return err
	}
	logger.Debug("k-distances computed", "points", set.Len(), "k", cfg.KDist.K)

	err = plot.SavePNG(output, func(w io.Writer) error {
		return plot.KDistance(w, values, plot.Options{Width: *width, Height: *height, Title: *title})
	})
	if err != nil {
		return err
	}

	sorted := dbscan.SortedKDistances(values)
	eps, knee := dbscan.SuggestEps(sorted)
	asc := slices.Clone(values)
	slices.Sort(asc)
	fmt.Fprintf(stdout, "k=%d points=%d p50=%g p90=%g max=%g\n", cfg.KDist.K, len(values),
		stat.Quantile(0.5, stat.Empirical, asc, nil),
		stat.Quantile(0.9, stat.Empirical, asc, nil),
		asc[len(asc)-1])
	fmt.Fprintf(stdout, "suggested eps=%g (knee at sorted index %d)\n", eps, knee)
	return nil
}
