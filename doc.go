// Package dbscan implements Density-Based Spatial Clustering of Applications
// with Noise (DBSCAN) over D-dimensional Euclidean points.
//
// A point is core when at least MinPts points, itself included, lie within
// Eps of it. Clusters are the maximal sets of points density-reachable from
// a core point; every other point is noise.
//
// Basic usage:
//
//	cfg := dbscan.DefaultConfig()
//	cfg.Eps = 0.3
//	cfg.MinPts = 10
//	result, err := dbscan.Cluster(data, cfg)
//	// result.Labels[i] is the cluster ID for point i (-1 = noise)
//	// result.Core[i] reports whether point i is a core point
//
// # Region-query engines
//
// The clustering loop only talks to a [RegionQuery]. Four engines are
// provided:
//
//	cfg.Engine = dbscan.EngineRTree     // STR bulk-loaded R-tree, 1..16 dimensions
//	cfg.Engine = dbscan.EngineKDTree    // KD-tree, any dimension
//	cfg.Engine = dbscan.EngineBallTree  // ball tree, any dimension
//	cfg.Engine = dbscan.EngineReference // sorted distance lists, O(n²) memory
//
// By default (Engine: "auto"), Cluster uses the R-tree up to [MaxRTreeDims],
// the KD-tree up to 60 dimensions and the ball tree above. Every engine returns the same neighborhoods, so the
// clustering does not depend on the choice.
//
// For finer control, build the pieces yourself:
//
//	set, err := dbscan.NewPointSet(points)
//	engine := dbscan.NewRTreeEngine(0)
//	d, err := dbscan.NewDriver(engine, set, eps, minPts, dbscan.WithLogger(logger))
//	result, err := d.Run()
//
// # Choosing Eps
//
// [KDistances] and [SuggestEps] implement the k-distance heuristic: sort the
// distance of every point to its k-th nearest neighbor in descending order
// and pick the value at the knee of the curve, with k = MinPts-1.
package dbscan
