package dbscan

import (
	"math"
	"sort"
	"testing"

	"github.com/TrevorS/dbscan/testutil"
)

func flatten(rows [][]float64) []float64 {
	var out []float64
	for _, r := range rows {
		out = append(out, r...)
	}
	return out
}

// --- Construction tests ---

func TestRTree_Construction_Invariants(t *testing.T) {
	rng := testutil.NewRNG(11)
	for _, dims := range []int{1, 2, 3, 7} {
		for _, n := range []int{1, 5, 16, 17, 300} {
			rows := rng.UniformPoints(n, dims, -10, 10)
			tree := NewRTree(flatten(rows), n, dims, 4)

			if tree.NumPoints() != n || tree.NumFeatures() != dims {
				t.Fatalf("n=%d dims=%d: NumPoints=%d NumFeatures=%d", n, dims, tree.NumPoints(), tree.NumFeatures())
			}
			if len(tree.levels[len(tree.levels)-1]) != 1 {
				t.Fatalf("n=%d dims=%d: top level has %d nodes, want 1", n, dims, len(tree.levels[len(tree.levels)-1]))
			}

			// entries is a permutation of 0..n-1.
			seen := make([]bool, n)
			for _, e := range tree.entries {
				if seen[e] {
					t.Fatalf("entry %d appears twice", e)
				}
				seen[e] = true
			}

			for lvl, nodes := range tree.levels {
				for i, nd := range nodes {
					if nd.end-nd.start > tree.capacity || nd.end <= nd.start {
						t.Fatalf("level %d node %d has %d children", lvl, i, nd.end-nd.start)
					}
					for c := nd.start; c < nd.end; c++ {
						var lo, hi []float64
						if lvl == 0 {
							p := tree.point(tree.entries[c])
							lo, hi = p, p
						} else {
							child := tree.levels[lvl-1][c]
							lo, hi = child.lo, child.hi
						}
						for d := 0; d < dims; d++ {
							if lo[d] < nd.lo[d] || hi[d] > nd.hi[d] {
								t.Fatalf("level %d node %d does not enclose child %d", lvl, i, c)
							}
						}
					}
				}
			}
		}
	}
}

func TestRTree_Height(t *testing.T) {
	tests := []struct {
		n, capacity, want int
	}{
		{1, 4, 1},
		{4, 4, 1},
		{5, 4, 2},
		{16, 4, 2},
		{17, 4, 3},
		{64, 4, 3},
	}
	for _, tt := range tests {
		rows := make([][]float64, tt.n)
		for i := range rows {
			rows[i] = []float64{float64(i)}
		}
		tree := NewRTree(flatten(rows), tt.n, 1, tt.capacity)
		if got := tree.Height(); got != tt.want {
			t.Errorf("n=%d capacity=%d: Height = %d, want %d", tt.n, tt.capacity, got, tt.want)
		}
	}
}

func TestRTree_Empty(t *testing.T) {
	tree := NewRTree(nil, 0, 2, 8)
	if tree.Height() != 0 {
		t.Errorf("Height = %d, want 0", tree.Height())
	}
	tree.Search([]float64{0, 0}, 100, func(int, float64) { t.Error("Search on empty tree called fn") })
	if _, _, ok := tree.Nearest([]float64{0, 0}).Next(); ok {
		t.Error("Nearest on empty tree returned a point")
	}
}

func TestRTree_CapacityClamped(t *testing.T) {
	tree := NewRTree([]float64{0, 1, 2}, 3, 1, 0)
	if tree.capacity != 2 {
		t.Errorf("capacity = %d, want 2", tree.capacity)
	}
}

// --- Query tests ---

func TestRTree_SearchMatchesBruteForce(t *testing.T) {
	rng := testutil.NewRNG(12)
	rows := rng.UniformPoints(500, 3, 0, 10)
	tree := NewRTree(flatten(rows), len(rows), 3, 8)

	for q := 0; q < 20; q++ {
		query := rows[rng.Intn(len(rows))]
		sqRadius := 2.0
		var got []int
		tree.Search(query, sqRadius, func(idx int, sqDist float64) {
			if sqDist != SquaredDist(query, rows[idx]) {
				t.Errorf("reported sqDist %g for %d, want %g", sqDist, idx, SquaredDist(query, rows[idx]))
			}
			got = append(got, idx)
		})
		sort.Ints(got)

		var want []int
		for i, r := range rows {
			if SquaredDist(query, r) <= sqRadius {
				want = append(want, i)
			}
		}
		if len(got) != len(want) {
			t.Fatalf("query %d: %d results, want %d", q, len(got), len(want))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("query %d: result %d = %d, want %d", q, i, got[i], want[i])
			}
		}
	}
}

func TestRTree_NearestStreamsInOrder(t *testing.T) {
	// Integer grid with duplicates: many exact distance ties.
	var rows [][]float64
	for i := 0; i < 6; i++ {
		for j := 0; j < 6; j++ {
			rows = append(rows, []float64{float64(i), float64(j)})
		}
	}
	rows = append(rows, []float64{2, 2}, []float64{3, 3})
	tree := NewRTree(flatten(rows), len(rows), 2, 3)

	query := []float64{2.5, 2.5}
	it := tree.Nearest(query)

	type result struct {
		idx  int
		dist float64
	}
	var got []result
	for {
		idx, d, ok := it.Next()
		if !ok {
			break
		}
		got = append(got, result{idx, d})
	}
	if len(got) != len(rows) {
		t.Fatalf("iterator returned %d points, want %d", len(got), len(rows))
	}
	for i, r := range got {
		if want := math.Sqrt(SquaredDist(query, rows[r.idx])); r.dist != want {
			t.Errorf("result %d: dist %g, want %g", i, r.dist, want)
		}
		if i == 0 {
			continue
		}
		prev := got[i-1]
		if r.dist < prev.dist || (r.dist == prev.dist && r.idx < prev.idx) {
			t.Fatalf("results %d and %d out of (dist, index) order: %v then %v", i-1, i, prev, r)
		}
	}
}

func TestRTree_KNearest(t *testing.T) {
	rows := [][]float64{{0}, {10}, {3}, {4}, {-2}}
	tree := NewRTree(flatten(rows), len(rows), 1, 2)

	idx, dist := tree.KNearest([]float64{3.4}, 3)
	wantIdx := []int{2, 3, 0}
	wantDist := []float64{0.4, 0.6, 3.4}
	if len(idx) != 3 {
		t.Fatalf("KNearest returned %d results", len(idx))
	}
	for i := range wantIdx {
		if idx[i] != wantIdx[i] {
			t.Errorf("idx[%d] = %d, want %d", i, idx[i], wantIdx[i])
		}
		if !almostEqual(dist[i], wantDist[i], 1e-12) {
			t.Errorf("dist[%d] = %g, want %g", i, dist[i], wantDist[i])
		}
	}

	idx, _ = tree.KNearest([]float64{0}, 10)
	if len(idx) != len(rows) {
		t.Errorf("KNearest(k > n) returned %d results, want %d", len(idx), len(rows))
	}
}
