package dbscan

import (
	"container/heap"
	"math"
	"slices"
	"sort"
)

// ballSlack widens ball lower bounds so that rounding in the centroid
// distance and radius never prunes a point that is in range.
const ballSlack = 1e-9

// BallTree is a ball tree spatial index for Euclidean radius and
// nearest-neighbor queries. Each node stores a centroid and radius defining
// an enclosing ball for its points.
//
// The tree is stored as a complete binary tree in array form:
//   - node i has children at 2*i+1 and 2*i+2
//   - centroids[node*dims .. (node+1)*dims) is the centroid of node
type BallTree struct {
	data      []float64 // flat row-major point data (n * dims)
	n         int       // number of points
	dims      int       // dimensionality
	leafSize  int
	idxArray  []int      // permutation: tree-order position → original index
	nodes     []NodeData // one entry per tree node
	radii     []float64
	centroids []float64
	numNodes  int
}

// NewBallTree builds a ball tree from flat row-major data with n points
// of dimensionality dims. leafSize controls the max points per leaf node.
func NewBallTree(data []float64, n, dims, leafSize int) *BallTree {
	if leafSize < 1 {
		leafSize = 1
	}

	dataCopy := make([]float64, n*dims)
	copy(dataCopy, data)
	idxArray := make([]int, n)
	for i := range idxArray {
		idxArray[i] = i
	}

	maxNodes := kdMaxNodes(n, leafSize) // reuse the same upper bound
	t := &BallTree{
		data:      dataCopy,
		n:         n,
		dims:      dims,
		leafSize:  leafSize,
		idxArray:  idxArray,
		nodes:     make([]NodeData, maxNodes),
		radii:     make([]float64, maxNodes),
		centroids: make([]float64, maxNodes*dims),
	}

	if n > 0 {
		t.buildNode(0, 0, n)
		t.numNodes = kdCountNodes(t.nodes, 0, len(t.nodes))
	}

	return t
}

// buildNode recursively builds the ball tree for points in idxArray[start:end].
func (t *BallTree) buildNode(nodeID, start, end int) {
	for nodeID >= len(t.nodes) {
		t.nodes = append(t.nodes, NodeData{})
		t.radii = append(t.radii, 0)
		t.centroids = append(t.centroids, make([]float64, t.dims)...)
	}

	t.computeCentroid(nodeID, start, end)

	// Radius: max distance from centroid to any point in this node.
	centroid := t.centroid(nodeID)
	var radius float64
	for i := start; i < end; i++ {
		if d := Dist(centroid, t.point(t.idxArray[i])); d > radius {
			radius = d
		}
	}
	t.radii[nodeID] = radius

	count := end - start
	if count <= t.leafSize {
		t.nodes[nodeID] = NodeData{IdxStart: start, IdxEnd: end, IsLeaf: true}
		return
	}
	t.nodes[nodeID] = NodeData{IdxStart: start, IdxEnd: end, IsLeaf: false}

	splitDim := t.findSpreadDim(start, end)
	t.sortByDim(start, end, splitDim)
	mid := start + count/2

	t.buildNode(2*nodeID+1, start, mid)
	t.buildNode(2*nodeID+2, mid, end)
}

// computeCentroid stores the mean of points idxArray[start:end].
func (t *BallTree) computeCentroid(nodeID, start, end int) {
	c := t.centroid(nodeID)
	clear(c)
	for i := start; i < end; i++ {
		for d, v := range t.point(t.idxArray[i]) {
			c[d] += v
		}
	}
	count := float64(end - start)
	for d := range c {
		c[d] /= count
	}
}

// findSpreadDim returns the dimension with the greatest spread among
// points in idxArray[start:end].
func (t *BallTree) findSpreadDim(start, end int) int {
	bestDim := 0
	bestSpread := -1.0
	for d := 0; d < t.dims; d++ {
		minVal := math.Inf(1)
		maxVal := math.Inf(-1)
		for i := start; i < end; i++ {
			v := t.data[t.idxArray[i]*t.dims+d]
			minVal = min(minVal, v)
			maxVal = max(maxVal, v)
		}
		if spread := maxVal - minVal; spread > bestSpread {
			bestSpread = spread
			bestDim = d
		}
	}
	return bestDim
}

// sortByDim sorts idxArray[start:end] by the given dimension, ties by index.
func (t *BallTree) sortByDim(start, end, dim int) {
	sub := t.idxArray[start:end]
	dims := t.dims
	data := t.data
	sort.Slice(sub, func(i, j int) bool {
		a, b := data[sub[i]*dims+dim], data[sub[j]*dims+dim]
		if a != b {
			return a < b
		}
		return sub[i] < sub[j]
	})
}

func (t *BallTree) Data() []float64           { return t.data }
func (t *BallTree) NumPoints() int            { return t.n }
func (t *BallTree) NumFeatures() int          { return t.dims }
func (t *BallTree) NumNodes() int             { return t.numNodes }
func (t *BallTree) IdxArray() []int           { return t.idxArray }
func (t *BallTree) NodeDataArray() []NodeData { return t.nodes[:t.numNodes] }

// Radius returns the radius of the ball enclosing node.
func (t *BallTree) Radius(node int) float64 { return t.radii[node] }

func (t *BallTree) validNode(nodeID int) bool {
	if nodeID >= len(t.nodes) {
		return false
	}
	node := t.nodes[nodeID]
	return !(node.IdxStart == node.IdxEnd && nodeID != 0)
}

// QueryRadius calls fn for every point whose distance to query is <= radius.
func (t *BallTree) QueryRadius(query []float64, radius float64, fn func(index int, dist float64)) {
	if t.n == 0 {
		return
	}
	t.radiusSearch(0, query, radius, fn)
}

func (t *BallTree) radiusSearch(nodeID int, query []float64, radius float64, fn func(int, float64)) {
	if !t.validNode(nodeID) {
		return
	}
	if t.minDistPoint(nodeID, query) > radius {
		return
	}
	node := t.nodes[nodeID]
	if node.IsLeaf {
		for i := node.IdxStart; i < node.IdxEnd; i++ {
			ptIdx := t.idxArray[i]
			if d := Dist(query, t.point(ptIdx)); d <= radius {
				fn(ptIdx, d)
			}
		}
		return
	}
	t.radiusSearch(2*nodeID+1, query, radius, fn)
	t.radiusSearch(2*nodeID+2, query, radius, fn)
}

// QueryKNN finds the k nearest neighbors of query, sorted by ascending
// distance with ties broken by index.
func (t *BallTree) QueryKNN(query []float64, k int) ([]int, []float64) {
	h := &knnHeap{}
	if t.n > 0 && k > 0 {
		t.knnSearch(0, query, k, h)
	}

	nResults := h.Len()
	idx := make([]int, nResults)
	dist := make([]float64, nResults)
	for i := nResults - 1; i >= 0; i-- {
		item := heap.Pop(h).(knnItem)
		idx[i] = item.index
		dist[i] = math.Sqrt(item.dist)
	}
	return idx, dist
}

// knnSearch performs a single-tree KNN traversal. The heap holds squared
// distances, like KDTree.
func (t *BallTree) knnSearch(nodeID int, query []float64, k int, h *knnHeap) {
	if !t.validNode(nodeID) {
		return
	}
	node := t.nodes[nodeID]

	if node.IsLeaf {
		for i := node.IdxStart; i < node.IdxEnd; i++ {
			ptIdx := t.idxArray[i]
			item := knnItem{index: ptIdx, dist: SquaredDist(query, t.point(ptIdx))}
			if h.Len() < k {
				heap.Push(h, item)
			} else if h.worse((*h)[0], item) {
				(*h)[0] = item
				heap.Fix(h, 0)
			}
		}
		return
	}

	left := 2*nodeID + 1
	right := 2*nodeID + 2
	leftDist := t.minDistPoint(left, query)
	rightDist := t.minDistPoint(right, query)

	nearChild, farChild := left, right
	farDist := rightDist
	if rightDist < leftDist {
		nearChild, farChild = right, left
		farDist = leftDist
	}

	t.knnSearch(nearChild, query, k, h)

	if h.Len() < k || (*h)[0].dist >= farDist*farDist {
		t.knnSearch(farChild, query, k, h)
	}
}

// minDistPoint returns a lower bound on the distance between point and any
// point in node: the distance to the centroid minus the radius, shrunk by
// ballSlack.
func (t *BallTree) minDistPoint(node int, point []float64) float64 {
	if node >= len(t.nodes) {
		return math.Inf(1)
	}
	d := Dist(point, t.centroid(node))
	r := t.radii[node]
	return max(0, d-r-ballSlack*(d+r))
}

func (t *BallTree) centroid(node int) []float64 {
	return t.centroids[node*t.dims : (node+1)*t.dims]
}

func (t *BallTree) point(i int) []float64 {
	return t.data[i*t.dims : (i+1)*t.dims]
}

// BallTreeEngine answers region queries with a ball tree. Like the KD-tree
// engine it has no dimension limit.
type BallTreeEngine struct {
	set      *PointSet
	tree     *BallTree
	leafSize int
}

// NewBallTreeEngine returns an uninitialized ball tree engine. A leafSize of
// zero selects DefaultLeafSize.
func NewBallTreeEngine(leafSize int) *BallTreeEngine {
	if leafSize <= 0 {
		leafSize = DefaultLeafSize
	}
	return &BallTreeEngine{leafSize: leafSize}
}

// Init builds the tree from set.
func (e *BallTreeEngine) Init(set *PointSet) error {
	if e.set != nil {
		return ErrAlreadyInitialized
	}
	if set == nil {
		return ErrNotInitialized
	}
	e.tree = NewBallTree(set.Data(), set.Len(), set.Dims(), e.leafSize)
	e.set = set
	return nil
}

// Set returns the bound point set.
func (e *BallTreeEngine) Set() *PointSet { return e.set }

// Tree exposes the underlying index, or nil before Init.
func (e *BallTreeEngine) Tree() *BallTree { return e.tree }

// Region returns every ref within eps of p, sorted by ref.
func (e *BallTreeEngine) Region(p Point, eps float64) ([]PointRef, error) {
	if err := checkQuery(e.set, p, eps); err != nil {
		return nil, err
	}
	var out []PointRef
	e.tree.QueryRadius(p, eps, func(idx int, _ float64) {
		out = append(out, PointRef(idx))
	})
	slices.Sort(out)
	return out, nil
}

// KDist queries the k+1 nearest points and skips ref itself.
func (e *BallTreeEngine) KDist(ref PointRef, k int) (float64, error) {
	if err := checkKDist(e.set, ref, k); err != nil {
		return 0, err
	}
	p := e.set.At(ref)
	indices, dists := e.tree.QueryKNN(p, k+1)
	seen := 0
	for i, idx := range indices {
		if PointRef(idx) == ref {
			continue
		}
		seen++
		if seen == k {
			return dists[i], nil
		}
	}
	return 0, ErrInvalidK
}

// KNearest returns the k points nearest to p. p need not be in the set.
func (e *BallTreeEngine) KNearest(p Point, k int) ([]Neighbor, error) {
	if err := checkQuery(e.set, p, 0); err != nil {
		return nil, err
	}
	if k < 1 {
		return nil, ErrInvalidK
	}
	indices, dists := e.tree.QueryKNN(p, k)
	out := make([]Neighbor, len(indices))
	for i, idx := range indices {
		out[i] = Neighbor{Ref: PointRef(idx), Dist: dists[i]}
	}
	return out, nil
}
