package dbscan

import (
	"container/heap"
	"math"
	"slices"
	"sort"
)

// DefaultLeafSize is the default maximum number of points per KD-tree leaf.
const DefaultLeafSize = 40

// NodeData describes one KD-tree node: the range of idxArray it covers and
// whether it is a leaf.
type NodeData struct {
	IdxStart int
	IdxEnd   int
	IsLeaf   bool
}

// KDTree is a KD-tree spatial index for Euclidean radius and nearest-neighbor
// queries. Points are stored in a flat row-major array and reordered
// internally via an index permutation array.
//
// The tree is stored as a complete binary tree in array form:
//   - node i has children at 2*i+1 and 2*i+2
//   - node bounds are stored as min/max per dimension per node
type KDTree struct {
	data     []float64 // flat row-major point data (n * dims)
	n        int       // number of points
	dims     int       // dimensionality
	leafSize int
	idxArray []int      // permutation: tree-order position → original index
	nodes    []NodeData // one entry per tree node
	// nodeBoundsMin[node*dims + j] = min value of feature j in node
	nodeBoundsMin []float64
	// nodeBoundsMax[node*dims + j] = max value of feature j in node
	nodeBoundsMax []float64
	numNodes      int
}

// NewKDTree builds a KD-tree from flat row-major data with n points of
// dimensionality dims. leafSize controls the max points per leaf node.
func NewKDTree(data []float64, n, dims, leafSize int) *KDTree {
	if leafSize < 1 {
		leafSize = 1
	}

	dataCopy := make([]float64, n*dims)
	copy(dataCopy, data)
	idxArray := make([]int, n)
	for i := range idxArray {
		idxArray[i] = i
	}

	// The median split may not be perfectly balanced, so the bound is generous.
	maxNodes := kdMaxNodes(n, leafSize)

	t := &KDTree{
		data:          dataCopy,
		n:             n,
		dims:          dims,
		leafSize:      leafSize,
		idxArray:      idxArray,
		nodes:         make([]NodeData, maxNodes),
		nodeBoundsMin: make([]float64, maxNodes*dims),
		nodeBoundsMax: make([]float64, maxNodes*dims),
	}

	if n > 0 {
		t.buildNode(0, 0, n)
		t.numNodes = kdCountNodes(t.nodes, 0, len(t.nodes))
	}

	return t
}

// kdMaxNodes returns an upper bound on the number of nodes needed for a
// binary tree with n points and the given leaf size.
func kdMaxNodes(n, leafSize int) int {
	if n == 0 {
		return 1
	}
	// Depth of tree: ceil(log2(ceil(n/leafSize))) + 1.
	leaves := (n + leafSize - 1) / leafSize
	depth := 0
	v := 1
	for v < leaves {
		v *= 2
		depth++
	}
	return (1 << (depth + 1)) - 1 + 2
}

// kdCountNodes counts how many nodes were actually initialized by the build.
func kdCountNodes(nodes []NodeData, nodeID, maxNodes int) int {
	if nodeID >= maxNodes {
		return 0
	}
	if nodes[nodeID].IdxStart == 0 && nodes[nodeID].IdxEnd == 0 && nodeID != 0 {
		return 0
	}
	count := 1
	if !nodes[nodeID].IsLeaf {
		count += kdCountNodes(nodes, 2*nodeID+1, maxNodes)
		count += kdCountNodes(nodes, 2*nodeID+2, maxNodes)
	}
	return count
}

// buildNode recursively builds the tree for points in idxArray[start:end].
func (t *KDTree) buildNode(nodeID, start, end int) {
	for nodeID >= len(t.nodes) {
		t.nodes = append(t.nodes, NodeData{})
		t.nodeBoundsMin = append(t.nodeBoundsMin, make([]float64, t.dims)...)
		t.nodeBoundsMax = append(t.nodeBoundsMax, make([]float64, t.dims)...)
	}

	t.computeNodeBounds(nodeID, start, end)

	count := end - start
	if count <= t.leafSize {
		t.nodes[nodeID] = NodeData{IdxStart: start, IdxEnd: end, IsLeaf: true}
		return
	}

	// Find dimension with greatest spread.
	splitDim := 0
	maxSpread := -1.0
	for d := 0; d < t.dims; d++ {
		spread := t.nodeBoundsMax[nodeID*t.dims+d] - t.nodeBoundsMin[nodeID*t.dims+d]
		if spread > maxSpread {
			maxSpread = spread
			splitDim = d
		}
	}

	t.sortByDimension(start, end, splitDim)
	mid := start + count/2

	t.nodes[nodeID] = NodeData{IdxStart: start, IdxEnd: end, IsLeaf: false}

	t.buildNode(2*nodeID+1, start, mid)
	t.buildNode(2*nodeID+2, mid, end)
}

// computeNodeBounds computes min/max per dimension for points idxArray[start:end].
func (t *KDTree) computeNodeBounds(nodeID, start, end int) {
	base := nodeID * t.dims
	for d := 0; d < t.dims; d++ {
		t.nodeBoundsMin[base+d] = math.Inf(1)
		t.nodeBoundsMax[base+d] = math.Inf(-1)
	}
	for i := start; i < end; i++ {
		ptIdx := t.idxArray[i]
		for d := 0; d < t.dims; d++ {
			v := t.data[ptIdx*t.dims+d]
			if v < t.nodeBoundsMin[base+d] {
				t.nodeBoundsMin[base+d] = v
			}
			if v > t.nodeBoundsMax[base+d] {
				t.nodeBoundsMax[base+d] = v
			}
		}
	}
}

// sortByDimension sorts idxArray[start:end] by the given dimension, ties
// broken by index so builds are deterministic.
func (t *KDTree) sortByDimension(start, end, dim int) {
	sub := t.idxArray[start:end]
	dims := t.dims
	data := t.data
	sort.Slice(sub, func(i, j int) bool {
		a, b := data[sub[i]*dims+dim], data[sub[j]*dims+dim]
		if a == b {
			return sub[i] < sub[j]
		}
		return a < b
	})
}

func (t *KDTree) Data() []float64           { return t.data }
func (t *KDTree) NumPoints() int            { return t.n }
func (t *KDTree) NumFeatures() int          { return t.dims }
func (t *KDTree) IdxArray() []int           { return t.idxArray }
func (t *KDTree) NodeDataArray() []NodeData { return t.nodes[:t.numNodes] }

// validNode reports whether nodeID was populated by the build.
func (t *KDTree) validNode(nodeID int) bool {
	if nodeID >= len(t.nodes) {
		return false
	}
	node := t.nodes[nodeID]
	return !(node.IdxStart == node.IdxEnd && nodeID != 0)
}

// QueryRadius calls fn for every point whose squared distance to query is
// <= sqRadius.
func (t *KDTree) QueryRadius(query []float64, sqRadius float64, fn func(index int, sqDist float64)) {
	if t.n == 0 {
		return
	}
	t.radiusSearch(0, query, sqRadius, fn)
}

func (t *KDTree) radiusSearch(nodeID int, query []float64, sqRadius float64, fn func(int, float64)) {
	if !t.validNode(nodeID) {
		return
	}
	if t.minSqDistPoint(nodeID, query) > sqRadius {
		return
	}
	node := t.nodes[nodeID]
	if node.IsLeaf {
		for i := node.IdxStart; i < node.IdxEnd; i++ {
			ptIdx := t.idxArray[i]
			if d := SquaredDist(query, t.point(ptIdx)); d <= sqRadius {
				fn(ptIdx, d)
			}
		}
		return
	}
	t.radiusSearch(2*nodeID+1, query, sqRadius, fn)
	t.radiusSearch(2*nodeID+2, query, sqRadius, fn)
}

// QueryKNN finds the k nearest neighbors for each row in queryData. Results
// are sorted by ascending distance, ties broken by index.
func (t *KDTree) QueryKNN(queryData []float64, queryRows, k int) ([][]int, [][]float64) {
	indices := make([][]int, queryRows)
	distances := make([][]float64, queryRows)

	for q := 0; q < queryRows; q++ {
		query := queryData[q*t.dims : (q+1)*t.dims]
		h := &knnHeap{}
		heap.Init(h)
		if t.n > 0 {
			t.knnSearch(0, query, k, h)
		}

		// The heap holds squared distances; pop worst-first.
		nResults := h.Len()
		idx := make([]int, nResults)
		dist := make([]float64, nResults)
		for i := nResults - 1; i >= 0; i-- {
			item := heap.Pop(h).(knnItem)
			idx[i] = item.index
			dist[i] = math.Sqrt(item.dist)
		}
		indices[q] = idx
		distances[q] = dist
	}

	return indices, distances
}

// knnSearch performs a single-tree KNN traversal using a max-heap of size k
// keyed on squared distance.
func (t *KDTree) knnSearch(nodeID int, query []float64, k int, h *knnHeap) {
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

	leftDist := t.minSqDistPoint(left, query)
	rightDist := t.minSqDistPoint(right, query)

	nearChild, farChild := left, right
	farDist := rightDist
	if rightDist < leftDist {
		nearChild, farChild = right, left
		farDist = leftDist
	}

	t.knnSearch(nearChild, query, k, h)

	// Equal bounds may still hold a lower-index tie, so only strictly
	// farther children are pruned.
	if h.Len() < k || (*h)[0].dist >= farDist {
		t.knnSearch(farChild, query, k, h)
	}
}

// minSqDistPoint returns a lower bound on the squared distance between a
// point and any point in the given node.
func (t *KDTree) minSqDistPoint(node int, point []float64) float64 {
	if node >= len(t.nodes) {
		return math.Inf(1)
	}
	base := node * t.dims
	return minSquaredDistToBox(point,
		t.nodeBoundsMin[base:base+t.dims],
		t.nodeBoundsMax[base:base+t.dims])
}

func (t *KDTree) point(i int) []float64 {
	return t.data[i*t.dims : (i+1)*t.dims]
}

// --- max-heap for KNN queries ---

type knnItem struct {
	index int
	dist  float64
}

// knnHeap is a max-heap of knnItem (worst neighbor on top) used as a
// bounded priority queue for KNN queries.
type knnHeap []knnItem

// worse reports whether a ranks after b in (distance, index) order.
func (h knnHeap) worse(a, b knnItem) bool {
	if a.dist != b.dist {
		return a.dist > b.dist
	}
	return a.index > b.index
}

func (h knnHeap) Len() int            { return len(h) }
func (h knnHeap) Less(i, j int) bool  { return h.worse(h[i], h[j]) } // max-heap
func (h knnHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *knnHeap) Push(x interface{}) { *h = append(*h, x.(knnItem)) }
func (h *knnHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// KDTreeEngine answers region queries with a KD-tree. It has no dimension
// limit and serves as the fallback when the R-tree cannot.
type KDTreeEngine struct {
	set      *PointSet
	tree     *KDTree
	leafSize int
}

// NewKDTreeEngine returns an uninitialized KD-tree engine. A leafSize of zero
// selects DefaultLeafSize.
func NewKDTreeEngine(leafSize int) *KDTreeEngine {
	if leafSize <= 0 {
		leafSize = DefaultLeafSize
	}
	return &KDTreeEngine{leafSize: leafSize}
}

// Init builds the tree from set.
func (e *KDTreeEngine) Init(set *PointSet) error {
	if e.set != nil {
		return ErrAlreadyInitialized
	}
	if set == nil {
		return ErrNotInitialized
	}
	e.tree = NewKDTree(set.Data(), set.Len(), set.Dims(), e.leafSize)
	e.set = set
	return nil
}

// Set returns the bound point set.
func (e *KDTreeEngine) Set() *PointSet { return e.set }

// Tree exposes the underlying index, or nil before Init.
func (e *KDTreeEngine) Tree() *KDTree { return e.tree }

// Region returns every ref within eps of p, sorted by ref.
func (e *KDTreeEngine) Region(p Point, eps float64) ([]PointRef, error) {
	if err := checkQuery(e.set, p, eps); err != nil {
		return nil, err
	}
	var out []PointRef
	e.tree.QueryRadius(p, eps*eps*pruneSlack, func(idx int, _ float64) {
		if Dist(p, e.set.At(PointRef(idx))) <= eps {
			out = append(out, PointRef(idx))
		}
	})
	slices.Sort(out)
	return out, nil
}

// KDist queries the k+1 nearest points and skips ref itself. When ref is not
// among them, all k+1 lie at distance zero and the k-th is the answer.
func (e *KDTreeEngine) KDist(ref PointRef, k int) (float64, error) {
	if err := checkKDist(e.set, ref, k); err != nil {
		return 0, err
	}
	p := e.set.At(ref)
	indices, _ := e.tree.QueryKNN(p, 1, k+1)
	seen := 0
	for _, idx := range indices[0] {
		if PointRef(idx) == ref {
			continue
		}
		seen++
		if seen == k {
			return Dist(p, e.set.At(PointRef(idx))), nil
		}
	}
	return 0, ErrInvalidK
}

// KNearest returns the k points nearest to p. p need not be in the set.
func (e *KDTreeEngine) KNearest(p Point, k int) ([]Neighbor, error) {
	if err := checkQuery(e.set, p, 0); err != nil {
		return nil, err
	}
	if k < 1 {
		return nil, ErrInvalidK
	}
	indices, _ := e.tree.QueryKNN(p, 1, k)
	out := make([]Neighbor, len(indices[0]))
	for i, idx := range indices[0] {
		ref := PointRef(idx)
		out[i] = Neighbor{Ref: ref, Dist: Dist(p, e.set.At(ref))}
	}
	return out, nil
}
