package dbscan

// RegionQuery is the neighborhood oracle the DBSCAN driver consumes.
//
// An engine is bound to one PointSet by Init and is read-only afterwards,
// so any number of goroutines may query it concurrently.
type RegionQuery interface {
	// Init binds the engine to set and builds its index. It must be called
	// exactly once, before any query.
	Init(set *PointSet) error

	// Set returns the point set bound by Init, or nil before Init.
	Set() *PointSet

	// Region returns every ref q with Dist(p, q) <= eps, sorted by ref.
	// p is matched by coordinates, not by ref.
	Region(p Point, eps float64) ([]PointRef, error)

	// KDist returns the distance from ref to its k-th nearest neighbor,
	// excluding ref itself by identity. Coincident points count.
	KDist(ref PointRef, k int) (float64, error)
}

// Neighbor is one result of a nearest-neighbor query.
type Neighbor struct {
	Ref  PointRef
	Dist float64
}

// NearestNeighbors is implemented by engines that can answer k-NN queries
// for arbitrary coordinates.
type NearestNeighbors interface {
	// KNearest returns the k points nearest to p in ascending distance order
	// (ties broken by ref). Fewer than k results are returned when the set is
	// smaller than k.
	KNearest(p Point, k int) ([]Neighbor, error)
}
