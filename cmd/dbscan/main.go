// Command dbscan clusters a point CSV file and writes cid,x1,...,xD rows.
//
// Usage:
//
//	dbscan [flags] <input.csv> <output.csv> <minPts> <eps>
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"

	"github.com/TrevorS/dbscan"
	"github.com/TrevorS/dbscan/internal/cli"
	"github.com/TrevorS/dbscan/internal/config"
	"github.com/TrevorS/dbscan/internal/csvio"
	"github.com/TrevorS/dbscan/internal/telemetry"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	return cli.Report(stderr, "dbscan", clusterMain(args, stdout, stderr))
}

func clusterMain(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("dbscan", flag.ContinueOnError)
	fs.SetOutput(stderr)
	engine := fs.String("engine", "auto", "region-query engine: auto, reference, rtree, kdtree or balltree")
	configPath := fs.String("config", "", "YAML config file")
	metricsFile := fs.String("metrics-file", "", "write Prometheus metrics to this textfile after the run")
	verify := fs.Bool("verify", false, "re-check the clustering invariants after the run")
	verbose := fs.Bool("v", false, "debug logging")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: dbscan [flags] <input.csv> <output.csv> <minPts> <eps>")
		fs.PrintDefaults()
	}

	pos, err := cli.Parse(fs, args)
	if err != nil {
		if err == flag.ErrHelp {
			return err
		}
		return cli.Usagef("%v", err)
	}
	if len(pos) != 4 {
		fs.Usage()
		return cli.Usagef("expected 4 arguments, got %d", len(pos))
	}
	input, output := pos[0], pos[1]
	minPts, err := strconv.ParseUint(pos[2], 10, 0)
	if err != nil {
		return cli.Usagef("minPts: invalid unsigned integer %q", pos[2])
	}
	eps, err := strconv.ParseFloat(pos[3], 64)
	if err != nil {
		return cli.Usagef("eps: invalid number %q", pos[3])
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if cli.IsSet(fs, "engine") {
		cfg.Clustering.Engine = *engine
	}
	if cli.IsSet(fs, "metrics-file") {
		cfg.Metrics.File = *metricsFile
	}
	if cli.IsSet(fs, "verify") {
		cfg.Clustering.Verify = *verify
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger, err := cli.Logger(stderr, cfg, *verbose)
	if err != nil {
		return err
	}

	dc := cfg.DBSCAN()
	dc.Eps = eps
	dc.MinPts = int(minPts)
	dc.Logger = logger

	var collector *telemetry.PrometheusCollector
	if cfg.Metrics.File != "" {
		collector = telemetry.NewPrometheusCollector("dbscan")
		dc.Metrics = collector
	}

	points, err := csvio.ReadPoints(input)
	if err != nil {
		return err
	}
	set, err := dbscan.NewPointSet(points)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	res, engineUsed, err := cluster(ctx, set, dc)
	if err != nil {
		return err
	}
	if cfg.Clustering.Verify {
		if err := dbscan.Validate(engineUsed, dc.Eps, dc.MinPts, res.Classes); err != nil {
			return err
		}
		logger.Info("clustering verified", "points", set.Len())
	}

	if err := csvio.WriteLabeled(output, set, res.Classes); err != nil {
		return err
	}
	if collector != nil {
		if err := collector.WriteTextfile(cfg.Metrics.File); err != nil {
			return err
		}
	}
	fmt.Fprintf(stdout, "points=%d clusters=%d noise=%d\n", set.Len(), res.NumClusters, res.NoiseCount)
	return nil
}

// cluster runs DBSCAN and also returns the engine, which -verify reuses.
func cluster(ctx context.Context, set *dbscan.PointSet, dc dbscan.Config) (*dbscan.Result, dbscan.RegionQuery, error) {
	engine, err := dbscan.NewEngine(dc, set.Dims())
	if err != nil {
		return nil, nil, err
	}
	d, err := dbscan.NewDriver(engine, set, dc.Eps, dc.MinPts,
		dbscan.WithLogger(dc.Logger),
		dbscan.WithMetrics(dc.Metrics),
		dbscan.WithContext(ctx),
	)
	if err != nil {
		return nil, nil, err
	}
	res, err := d.Run()
	return res, engine, err
}
