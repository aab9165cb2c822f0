package dbscan

import (
	"runtime"
	"slices"
	"sort"
)

// neighborList is the full point set sorted by ascending distance from one
// coordinate vector, ties broken by ref.
type neighborList []Neighbor

// ReferenceEngine answers region queries from precomputed, distance-sorted
// neighbor lists. Build is Θ(N² log N) time and Θ(N²) memory; a query is a
// binary search plus the size of the answer. It is the oracle the spatial
// engines are tested against.
//
// Points sharing coordinates share one list, and only coordinates present
// in the set can be queried.
type ReferenceEngine struct {
	set   *PointSet
	lists []neighborList // one per distinct coordinate vector
	owner []int          // ref -> index into lists
}

// NewReferenceEngine returns an uninitialized reference engine.
func NewReferenceEngine() *ReferenceEngine {
	return &ReferenceEngine{}
}

// Init builds one sorted neighbor list per distinct point of set.
func (e *ReferenceEngine) Init(set *PointSet) error {
	if e.set != nil {
		return ErrAlreadyInitialized
	}
	if set == nil {
		return ErrNotInitialized
	}

	n := set.Len()
	dist := ComputePairwiseDistancesParallel(set, runtime.NumCPU())
	lists := make([]neighborList, 0, set.Distinct())
	owner := make([]int, n)

	set.ascendDistinct(func(_ Point, refs []PointRef) bool {
		row := dist[int(refs[0])*n : (int(refs[0])+1)*n]
		list := make(neighborList, n)
		for i, d := range row {
			list[i] = Neighbor{Ref: PointRef(i), Dist: d}
		}
		sort.Slice(list, func(i, j int) bool {
			if list[i].Dist == list[j].Dist {
				return list[i].Ref < list[j].Ref
			}
			return list[i].Dist < list[j].Dist
		})
		for _, r := range refs {
			owner[r] = len(lists)
		}
		lists = append(lists, list)
		return true
	})

	e.set = set
	e.lists = lists
	e.owner = owner
	return nil
}

// Set returns the bound point set.
func (e *ReferenceEngine) Set() *PointSet { return e.set }

// Region returns the prefix of p's sorted list whose distances are <= eps.
func (e *ReferenceEngine) Region(p Point, eps float64) ([]PointRef, error) {
	if err := checkQuery(e.set, p, eps); err != nil {
		return nil, err
	}
	ref, ok := e.set.Lookup(p)
	if !ok {
		return nil, ErrPointNotIndexed
	}
	list := e.lists[e.owner[ref]]

	// Length of the longest prefix with Dist <= eps.
	k := sort.Search(len(list), func(i int) bool { return list[i].Dist > eps })

	out := make([]PointRef, k)
	for i := 0; i < k; i++ {
		out[i] = list[i].Ref
	}
	slices.Sort(out)
	return out, nil
}

// KDist walks ref's sorted list, skipping ref itself.
func (e *ReferenceEngine) KDist(ref PointRef, k int) (float64, error) {
	if err := checkKDist(e.set, ref, k); err != nil {
		return 0, err
	}
	seen := 0
	for _, nb := range e.lists[e.owner[ref]] {
		if nb.Ref == ref {
			continue
		}
		seen++
		if seen == k {
			return nb.Dist, nil
		}
	}
	return 0, ErrInvalidK
}

// KNearest returns the k nearest points to p, which must be in the set.
func (e *ReferenceEngine) KNearest(p Point, k int) ([]Neighbor, error) {
	if err := checkQuery(e.set, p, 0); err != nil {
		return nil, err
	}
	if k < 1 {
		return nil, ErrInvalidK
	}
	ref, ok := e.set.Lookup(p)
	if !ok {
		return nil, ErrPointNotIndexed
	}
	list := e.lists[e.owner[ref]]
	k = min(k, len(list))
	return append([]Neighbor(nil), list[:k]...), nil
}
