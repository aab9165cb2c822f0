package dbscan

import (
	"sort"
	"testing"

	"github.com/TrevorS/dbscan/testutil"
)

func TestBallTree_Construction_BallsEncloseTheirPoints(t *testing.T) {
	rng := testutil.NewRNG(31)
	rows := rng.UniformPoints(300, 3, -20, 20)
	tree := NewBallTree(flatten(rows), len(rows), 3, 8)

	if tree.NumPoints() != len(rows) || tree.NumFeatures() != 3 {
		t.Fatalf("NumPoints=%d NumFeatures=%d", tree.NumPoints(), tree.NumFeatures())
	}
	if tree.NumNodes() != len(tree.NodeDataArray()) {
		t.Errorf("NumNodes=%d, len(NodeDataArray)=%d", tree.NumNodes(), len(tree.NodeDataArray()))
	}

	for id, nd := range tree.NodeDataArray() {
		if nd.IsLeaf && nd.IdxEnd-nd.IdxStart > 8 {
			t.Errorf("leaf %d holds %d points, want <= 8", id, nd.IdxEnd-nd.IdxStart)
		}
		c := tree.centroid(id)
		for i := nd.IdxStart; i < nd.IdxEnd; i++ {
			if d := Dist(c, rows[tree.IdxArray()[i]]); d > tree.Radius(id) {
				t.Errorf("node %d: point at %g outside radius %g", id, d, tree.Radius(id))
			}
		}
	}
}

func TestBallTree_KNN_BruteForceMatch(t *testing.T) {
	rng := testutil.NewRNG(32)
	rows := rng.UniformPoints(150, 6, 0, 1)
	rows = append(rows, rows[0], rows[0])
	data := flatten(rows)
	n, dims := len(rows), 6

	for _, leafSize := range []int{1, 7, 200} {
		tree := NewBallTree(data, n, dims, leafSize)
		for _, k := range []int{1, 2, 9, n} {
			for q := 0; q < n; q += 3 {
				gotIdx, gotDist := tree.QueryKNN(rows[q], k)
				wantIdx, wantDist := bruteForceKNN(data, n, dims, rows[q], k)
				if !knnResultsMatch(gotIdx, gotDist, wantIdx, wantDist) {
					t.Fatalf("leafSize=%d k=%d query %d: got %v %v, want %v %v",
						leafSize, k, q, gotIdx, gotDist, wantIdx, wantDist)
				}
			}
		}
	}
}

func TestBallTree_QueryRadiusMatchesBruteForce(t *testing.T) {
	rows := gridData(12)
	tree := NewBallTree(flatten(rows), len(rows), 2, 5)

	for _, radius := range []float64{0, 1, 1.5, 2} {
		for q := 0; q < len(rows); q += 7 {
			var got []int
			tree.QueryRadius(rows[q], radius, func(idx int, d float64) {
				if d != Dist(rows[q], rows[idx]) {
					t.Errorf("reported dist %g for %d", d, idx)
				}
				got = append(got, idx)
			})
			sort.Ints(got)

			var want []int
			for i, r := range rows {
				if Dist(rows[q], r) <= radius {
					want = append(want, i)
				}
			}
			if len(got) != len(want) {
				t.Fatalf("radius=%g query %d: got %v, want %v", radius, q, got, want)
			}
			for i := range want {
				if got[i] != want[i] {
					t.Fatalf("radius=%g query %d: got %v, want %v", radius, q, got, want)
				}
			}
		}
	}
}

func TestBallTree_Empty(t *testing.T) {
	tree := NewBallTree(nil, 0, 2, 4)
	if idx, _ := tree.QueryKNN([]float64{0, 0}, 3); len(idx) != 0 {
		t.Errorf("QueryKNN on empty tree = %v", idx)
	}
	tree.QueryRadius([]float64{0, 0}, 5, func(int, float64) { t.Error("QueryRadius on empty tree called fn") })
}
