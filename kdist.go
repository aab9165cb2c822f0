package dbscan

import (
	"fmt"
	"math"
	"slices"
	"sort"
)

// KDistances returns kDist(ref, k) for every ref of the engine's point set,
// in ref order.
func KDistances(engine RegionQuery, k int) ([]float64, error) {
	set := engine.Set()
	if set == nil {
		return nil, ErrNotInitialized
	}
	if err := checkK(set.Len(), k); err != nil {
		return nil, err
	}
	out := make([]float64, set.Len())
	for i := range out {
		d, err := engine.KDist(PointRef(i), k)
		if err != nil {
			return nil, err
		}
		out[i] = d
	}
	return out, nil
}

func checkK(n, k int) error {
	if n < 2 {
		return fmt.Errorf("%w: k-distance needs at least 2 points, got %d", ErrInvalidInput, n)
	}
	if k < 1 || k >= n {
		return fmt.Errorf("%w: k must be in [1, %d], got %d", ErrInvalidK, n-1, k)
	}
	return nil
}

// KDistancesFromMatrix computes k-distances from a flat n*n distance matrix.
// core[i] is the distance to the k-th nearest neighbor of point i, the
// diagonal excluded.
func KDistancesFromMatrix(distMatrix []float64, n, k int) ([]float64, error) {
	if len(distMatrix) != n*n {
		return nil, fmt.Errorf("%w: distMatrix length %d does not match n*n = %d (n=%d)", ErrInvalidInput, len(distMatrix), n*n, n)
	}
	if err := checkK(n, k); err != nil {
		return nil, err
	}

	out := make([]float64, n)
	neighbors := make([]float64, 0, n-1)
	for i := 0; i < n; i++ {
		neighbors = neighbors[:0]
		for j := 0; j < n; j++ {
			if j != i {
				neighbors = append(neighbors, distMatrix[i*n+j])
			}
		}
		sort.Float64s(neighbors)
		out[i] = neighbors[k-1]
	}
	return out, nil
}

// SortedKDistances returns a copy of values sorted descending, the order in
// which a k-distance plot is drawn.
func SortedKDistances(values []float64) []float64 {
	sorted := slices.Clone(values)
	slices.SortFunc(sorted, func(a, b float64) int {
		switch {
		case a > b:
			return -1
		case a < b:
			return 1
		}
		return 0
	})
	return sorted
}

// SuggestEps picks the knee of a descending k-distance curve: the sample
// farthest from the chord joining the first and last samples. It returns
// the k-distance at the knee and its index. Flat or too-short curves yield
// the first value.
func SuggestEps(sorted []float64) (eps float64, index int) {
	n := len(sorted)
	if n == 0 {
		return 0, -1
	}
	if n < 3 {
		return sorted[0], 0
	}

	x1, y1 := 0.0, sorted[0]
	x2, y2 := float64(n-1), sorted[n-1]
	dx, dy := x2-x1, y2-y1
	norm := math.Hypot(dx, dy)

	best := -1.0
	for i, y := range sorted {
		// Perpendicular distance from (i, y) to the chord.
		d := math.Abs(dy*float64(i)-dx*y+x2*y1-y2*x1) / norm
		if d > best {
			best = d
			index = i
		}
	}
	return sorted[index], index
}
