package dbscan

import "slices"

// pruneSlack inflates ε² when pruning in squared space, so that every point
// with Dist(p, q) <= ε survives to the exact check even after rounding.
const pruneSlack = 1 + 1e-9

// RTreeEngine answers region queries with an STR-packed R-tree. It accepts
// point sets of dimension 1..MaxRTreeDims.
type RTreeEngine struct {
	set      *PointSet
	tree     *RTree
	capacity int
}

// NewRTreeEngine returns an uninitialized R-tree engine. A nodeCapacity of
// zero selects DefaultNodeCapacity.
func NewRTreeEngine(nodeCapacity int) *RTreeEngine {
	if nodeCapacity <= 0 {
		nodeCapacity = DefaultNodeCapacity
	}
	return &RTreeEngine{capacity: nodeCapacity}
}

// Init bulk loads the tree from set.
func (e *RTreeEngine) Init(set *PointSet) error {
	if e.set != nil {
		return ErrAlreadyInitialized
	}
	if set == nil {
		return ErrNotInitialized
	}
	if set.Dims() > MaxRTreeDims {
		return &UnsupportedDimensionError{Engine: EngineRTree, Dimension: set.Dims(), Max: MaxRTreeDims}
	}
	e.tree = NewRTree(set.Data(), set.Len(), set.Dims(), e.capacity)
	e.set = set
	return nil
}

// Set returns the bound point set.
func (e *RTreeEngine) Set() *PointSet { return e.set }

// Tree exposes the underlying index, or nil before Init.
func (e *RTreeEngine) Tree() *RTree { return e.tree }

// Region prunes in squared space and accepts with Dist <= eps, the same
// predicate every engine applies.
func (e *RTreeEngine) Region(p Point, eps float64) ([]PointRef, error) {
	if err := checkQuery(e.set, p, eps); err != nil {
		return nil, err
	}
	var out []PointRef
	e.tree.Search(p, eps*eps*pruneSlack, func(idx int, _ float64) {
		if Dist(p, e.set.At(PointRef(idx))) <= eps {
			out = append(out, PointRef(idx))
		}
	})
	slices.Sort(out)
	return out, nil
}

// KDist streams neighbors of ref nearest first, skipping ref itself.
func (e *RTreeEngine) KDist(ref PointRef, k int) (float64, error) {
	if err := checkKDist(e.set, ref, k); err != nil {
		return 0, err
	}
	p := e.set.At(ref)
	it := e.tree.Nearest(p)
	seen := 0
	for {
		idx, _, ok := it.Next()
		if !ok {
			return 0, ErrInvalidK
		}
		if PointRef(idx) == ref {
			continue
		}
		seen++
		if seen == k {
			return Dist(p, e.set.At(PointRef(idx))), nil
		}
	}
}

// KNearest returns the k points nearest to p. p need not be in the set.
func (e *RTreeEngine) KNearest(p Point, k int) ([]Neighbor, error) {
	if err := checkQuery(e.set, p, 0); err != nil {
		return nil, err
	}
	if k < 1 {
		return nil, ErrInvalidK
	}
	indices, _ := e.tree.KNearest(p, k)
	out := make([]Neighbor, len(indices))
	for i, idx := range indices {
		ref := PointRef(idx)
		out[i] = Neighbor{Ref: ref, Dist: Dist(p, e.set.At(ref))}
	}
	return out, nil
}
