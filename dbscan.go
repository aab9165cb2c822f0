package dbscan

import (
	"context"
	"fmt"
	"math"
)

// Config controls DBSCAN clustering behavior.
// Start with [DefaultConfig] and override the fields you need.
type Config struct {
	// Eps is the neighborhood radius under Euclidean distance. Two points
	// are neighbors when their distance is <= Eps.
	// Must be finite and > 0. Default: 0.5.
	Eps float64

	// MinPts is the smallest neighborhood size, the point itself included,
	// for a point to be core. Must be >= 1. Default: 5.
	MinPts int

	// Engine selects the region-query engine.
	// "auto" uses the R-tree up to MaxRTreeDims dimensions, the KD-tree up
	// to 60 and the ball tree above. "reference" precomputes every pairwise distance (O(n²) memory)
	// and is meant for verification. Default: "auto".
	Engine EngineKind

	// NodeCapacity is the maximum fan-out of an R-tree node.
	// Only used by the R-tree engine. Default: 16.
	NodeCapacity int

	// LeafSize controls the maximum number of points in a KD-tree or ball
	// tree leaf node. Only used by those engines. Default: 40.
	LeafSize int

	// Logger receives engine and run events. Default: discard.
	Logger *Logger

	// Metrics receives region-query and run metrics. Default: no-op.
	Metrics MetricsCollector

	// Context cancels a running clustering. Default: context.Background().
	Context context.Context
}

// Result contains the output of DBSCAN clustering.
type Result struct {
	// Classes is the label of every point, indexed by PointRef.
	Classes Classes

	// Labels assigns each point to a cluster (0-indexed cluster ID) or -1 for
	// noise.
	Labels []int

	// NumClusters is the number of clusters K; ids are exactly 0..K-1.
	NumClusters int

	// Core reports, per point, whether its ε-neighborhood holds at least
	// MinPts points.
	Core []bool

	// ClusterSizes[k] is the number of points labeled k.
	ClusterSizes []int

	// NoiseCount is the number of points labeled noise.
	NoiseCount int
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		Eps:          0.5,
		MinPts:       5,
		Engine:       EngineAuto,
		NodeCapacity: DefaultNodeCapacity,
		LeafSize:     DefaultLeafSize,
	}
}

// validateConfig checks that cfg fields are valid and returns a descriptive error if not.
func validateConfig(cfg *Config) error {
	if !(cfg.Eps > 0) || math.IsInf(cfg.Eps, 1) {
		return fmt.Errorf("%w: Eps must be a finite value > 0, got %v", ErrInvalidInput, cfg.Eps)
	}
	if cfg.MinPts < 1 {
		return fmt.Errorf("%w: MinPts must be >= 1, got %d", ErrInvalidInput, cfg.MinPts)
	}
	if _, err := ParseEngineKind(string(cfg.Engine)); err != nil {
		return err
	}
	if cfg.NodeCapacity < 2 {
		return fmt.Errorf("%w: NodeCapacity must be >= 2, got %d", ErrInvalidInput, cfg.NodeCapacity)
	}
	if cfg.LeafSize < 1 {
		return fmt.Errorf("%w: LeafSize must be >= 1, got %d", ErrInvalidInput, cfg.LeafSize)
	}
	return nil
}

// applyDefaults fills in zero-valued config fields with their defaults.
// Eps and MinPts have no zero default: zero is rejected by validateConfig.
func applyDefaults(cfg *Config) {
	if cfg.Engine == "" {
		cfg.Engine = EngineAuto
	}
	if cfg.NodeCapacity == 0 {
		cfg.NodeCapacity = DefaultNodeCapacity
	}
	if cfg.LeafSize == 0 {
		cfg.LeafSize = DefaultLeafSize
	}
	if cfg.Logger == nil {
		cfg.Logger = NoopLogger()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = NoopMetricsCollector{}
	}
	if cfg.Context == nil {
		cfg.Context = context.Background()
	}
}

// newResult derives the summary fields of a Result from the final labels.
func newResult(classes Classes, core []bool, sizes []int) *Result {
	r := &Result{
		Classes:      classes,
		Labels:       classes.Ints(),
		NumClusters:  len(sizes),
		Core:         core,
		ClusterSizes: sizes,
	}
	if r.ClusterSizes == nil {
		r.ClusterSizes = []int{}
	}
	for _, l := range classes {
		if l.IsNoise() {
			r.NoiseCount++
		}
	}
	return r
}

// Cluster performs DBSCAN clustering on the given data.
// Each element is a point (float64 slice); all points must have the same
// dimensionality. Returns an error if the config or the data is invalid.
func Cluster(data [][]float64, cfg Config) (*Result, error) {
	applyDefaults(&cfg)
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	set, err := NewPointSetFromRows(data)
	if err != nil {
		return nil, err
	}
	return ClusterSet(set, cfg)
}

// ClusterSet performs DBSCAN clustering on an existing PointSet, building
// the engine selected by cfg.Engine.
func ClusterSet(set *PointSet, cfg Config) (*Result, error) {
	applyDefaults(&cfg)
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	if set == nil {
		return nil, fmt.Errorf("%w: nil point set", ErrInvalidInput)
	}

	engine, err := NewEngine(cfg, set.Dims())
	if err != nil {
		return nil, err
	}

	d, err := NewDriver(engine, set, cfg.Eps, cfg.MinPts,
		WithLogger(cfg.Logger),
		WithMetrics(cfg.Metrics),
		WithContext(cfg.Context),
	)
	if err != nil {
		return nil, err
	}
	return d.Run()
}
