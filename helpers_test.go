package dbscan

import (
	"math"
	"slices"
	"sort"
	"testing"

	"github.com/TrevorS/dbscan/testutil"
)

// allEngines returns one fresh, unbound engine per kind.
func allEngines() map[EngineKind]RegionQuery {
	return map[EngineKind]RegionQuery{
		EngineReference: NewReferenceEngine(),
		EngineRTree:     NewRTreeEngine(4),
		EngineKDTree:    NewKDTreeEngine(3),
		EngineBallTree:  NewBallTreeEngine(3),
	}
}

// engineKinds lists every concrete engine in a fixed order.
var engineKinds = []EngineKind{EngineReference, EngineRTree, EngineKDTree, EngineBallTree}

func mustPointSet(t testing.TB, rows [][]float64) *PointSet {
	t.Helper()
	set, err := NewPointSetFromRows(rows)
	if err != nil {
		t.Fatalf("NewPointSetFromRows: %v", err)
	}
	return set
}

func mustInit(t testing.TB, e RegionQuery, set *PointSet) RegionQuery {
	t.Helper()
	if err := e.Init(set); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return e
}

// gridData returns a (side x side) 2-D grid with spacing 1. Many pairs sit
// at exactly distance 1, which exercises the eps boundary.
func gridData(side int) [][]float64 {
	var data [][]float64
	for i := 0; i < side; i++ {
		for j := 0; j < side; j++ {
			data = append(data, []float64{float64(i), float64(j)})
		}
	}
	return data
}

// blobData returns three Gaussian blobs with uniform noise and a few exact
// duplicates.
func blobData(seed int64, dims int) [][]float64 {
	rng := testutil.NewRNG(seed)
	centers := make([][]float64, 3)
	for c := range centers {
		centers[c] = make([]float64, dims)
		for d := range centers[c] {
			centers[c][d] = float64(c*10 + d%3)
		}
	}
	data, _ := testutil.Blobs(rng, centers, 40, 0.8)
	noisy, _, err := testutil.AddUniformNoise(rng, data, testutil.NoiseFraction(0.15))
	if err != nil {
		panic(err)
	}
	for i := 0; i < 5; i++ {
		noisy = append(noisy, append([]float64(nil), noisy[i*7]...))
	}
	return noisy
}

// bruteRegion is the definition of a region query.
func bruteRegion(set *PointSet, p Point, eps float64) []PointRef {
	var out []PointRef
	for i := 0; i < set.Len(); i++ {
		if Dist(p, set.At(PointRef(i))) <= eps {
			out = append(out, PointRef(i))
		}
	}
	return out
}

// bruteKDist is the k-th smallest distance from ref to every other ref.
func bruteKDist(set *PointSet, ref PointRef, k int) float64 {
	var ds []float64
	for i := 0; i < set.Len(); i++ {
		if PointRef(i) != ref {
			ds = append(ds, Dist(set.At(ref), set.At(PointRef(i))))
		}
	}
	sort.Float64s(ds)
	return ds[k-1]
}

// partition turns labels into a canonical set of clusters: each cluster is
// a sorted ref list, and clusters are ordered by their smallest ref.
// Noise is returned separately.
func partition(classes Classes) (clusters [][]PointRef, noise []PointRef) {
	for _, m := range classes.Members() {
		if len(m) > 0 {
			clusters = append(clusters, m)
		}
	}
	slices.SortFunc(clusters, func(a, b []PointRef) int { return int(a[0] - b[0]) })
	for i, l := range classes {
		if l.IsNoise() {
			noise = append(noise, PointRef(i))
		}
	}
	return clusters, noise
}

// labelsEquivalent checks if two label arrays are equivalent under label
// permutation. Noise (-1) must match exactly.
func labelsEquivalent(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}

	mapping := make(map[int]int)
	reverse := make(map[int]int)
	for i := range a {
		if a[i] == -1 && b[i] == -1 {
			continue
		}
		if a[i] == -1 || b[i] == -1 {
			return false
		}
		if mapped, ok := mapping[a[i]]; ok {
			if mapped != b[i] {
				return false
			}
		} else {
			mapping[a[i]] = b[i]
		}
		if mapped, ok := reverse[b[i]]; ok {
			if mapped != a[i] {
				return false
			}
		} else {
			reverse[b[i]] = a[i]
		}
	}
	return true
}

// checkResultProperties verifies the quantified clustering invariants
// against a brute-force neighborhood computation.
func checkResultProperties(t *testing.T, set *PointSet, eps float64, minPts int, res *Result) {
	t.Helper()
	n := set.Len()
	if len(res.Classes) != n || len(res.Labels) != n || len(res.Core) != n {
		t.Fatalf("result sizes: classes=%d labels=%d core=%d, want %d",
			len(res.Classes), len(res.Labels), len(res.Core), n)
	}

	neighbors := make([][]PointRef, n)
	for i := range neighbors {
		neighbors[i] = bruteRegion(set, set.At(PointRef(i)), eps)
	}

	used := make([]int, res.NumClusters)
	noise := 0
	for i, l := range res.Classes {
		switch l.Kind {
		case Unclassified:
			t.Fatalf("point %d left unclassified", i)
		case NoiseKind:
			noise++
		case ClassifiedKind:
			if l.ID < 0 || l.ID >= res.NumClusters {
				t.Fatalf("point %d has id %d outside 0..%d", i, l.ID, res.NumClusters-1)
			}
			used[l.ID]++
		}
		if res.Labels[i] != l.Int() {
			t.Errorf("Labels[%d] = %d, want %d", i, res.Labels[i], l.Int())
		}
	}
	for id, c := range used {
		if c == 0 {
			t.Errorf("cluster %d is empty", id)
		}
		if res.ClusterSizes[id] != c {
			t.Errorf("ClusterSizes[%d] = %d, want %d", id, res.ClusterSizes[id], c)
		}
	}
	if res.NoiseCount != noise {
		t.Errorf("NoiseCount = %d, want %d", res.NoiseCount, noise)
	}

	for i := 0; i < n; i++ {
		isCore := len(neighbors[i]) >= minPts
		if res.Core[i] != isCore {
			t.Errorf("Core[%d] = %v, want %v", i, res.Core[i], isCore)
		}
		if isCore && !res.Classes[i].IsClassified() {
			t.Errorf("core point %d is noise", i)
		}
	}
	for i, l := range res.Classes {
		if !l.IsClassified() {
			continue
		}
		reached := false
		for _, q := range neighbors[i] {
			if len(neighbors[q]) >= minPts && res.Classes[q] == l {
				reached = true
				break
			}
		}
		if !reached {
			t.Errorf("point %d (%v) has no core point of its cluster within eps", i, l)
		}
	}
}

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}
