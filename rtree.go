package dbscan

import (
	"container/heap"
	"math"
	"sort"
)

const (
	// MaxRTreeDims is the largest dimension the R-tree engine accepts.
	MaxRTreeDims = 16

	// DefaultNodeCapacity is the default maximum fan-out of an R-tree node.
	DefaultNodeCapacity = 16
)

// rtreeNode is one bounding box of the tree. For leaves, [start, end) is a
// range of RTree.entries; for inner nodes it is a range of the level below.
type rtreeNode struct {
	lo, hi     []float64
	start, end int
}

// RTree is a static bounding-box R-tree over points, bulk loaded with
// Sort-Tile-Recursive packing. Points are stored in a flat row-major array
// and referenced through an entry permutation, like KDTree.
//
// The tree is stored level by level:
//   - levels[0] holds the leaves, levels[len-1] holds the single root
//   - the children of every node are contiguous in the level below
type RTree struct {
	data     []float64 // flat row-major point data (n * dims)
	n        int
	dims     int
	capacity int
	entries  []int // leaf-order position → original point index
	levels   [][]rtreeNode
}

// NewRTree bulk loads an R-tree from flat row-major data with n points of
// dimensionality dims. capacity bounds the number of children per node;
// values below 2 are raised to 2.
func NewRTree(data []float64, n, dims, capacity int) *RTree {
	if capacity < 2 {
		capacity = 2
	}

	dataCopy := make([]float64, n*dims)
	copy(dataCopy, data)
	entries := make([]int, n)
	for i := range entries {
		entries[i] = i
	}

	t := &RTree{
		data:     dataCopy,
		n:        n,
		dims:     dims,
		capacity: capacity,
		entries:  entries,
	}
	if n == 0 {
		return t
	}

	strPack(entries, 0, dims, capacity, func(item, d int) float64 {
		return dataCopy[item*dims+d]
	})
	t.levels = append(t.levels, t.packLeaves())

	for len(t.levels[len(t.levels)-1]) > 1 {
		top := len(t.levels) - 1
		t.levels[top] = t.sortLevel(t.levels[top])
		t.levels = append(t.levels, t.packLevel(t.levels[top]))
	}
	return t
}

// strPack reorders items so that every run of capacity consecutive items is
// spatially compact: sort on dimension dim, cut into vertical slabs holding
// a whole number of pages, and recurse into each slab on the next dimension.
func strPack(items []int, dim, dims, capacity int, key func(item, d int) float64) {
	sort.Slice(items, func(i, j int) bool {
		ki, kj := key(items[i], dim), key(items[j], dim)
		if ki == kj {
			return items[i] < items[j]
		}
		return ki < kj
	})
	if dim == dims-1 || len(items) <= capacity {
		return
	}

	pages := ceilDiv(len(items), capacity)
	slabs := int(math.Ceil(math.Pow(float64(pages), 1/float64(dims-dim))))
	slabSize := ceilDiv(pages, slabs) * capacity
	for start := 0; start < len(items); start += slabSize {
		end := min(start+slabSize, len(items))
		strPack(items[start:end], dim+1, dims, capacity, key)
	}
}

func ceilDiv(a, b int) int { return (a + b - 1) / b }

// packLeaves groups consecutive entries into leaves.
func (t *RTree) packLeaves() []rtreeNode {
	leaves := make([]rtreeNode, 0, ceilDiv(t.n, t.capacity))
	for start := 0; start < t.n; start += t.capacity {
		end := min(start+t.capacity, t.n)
		nd := t.newNode(start, end)
		for i := start; i < end; i++ {
			nd.extendPoint(t.point(t.entries[i]))
		}
		leaves = append(leaves, nd)
	}
	return leaves
}

// sortLevel returns the nodes of one level in STR order of their centers.
// Their own child ranges point into the level below and stay valid.
func (t *RTree) sortLevel(level []rtreeNode) []rtreeNode {
	order := make([]int, len(level))
	for i := range order {
		order[i] = i
	}
	strPack(order, 0, t.dims, t.capacity, func(item, d int) float64 {
		return (level[item].lo[d] + level[item].hi[d]) / 2
	})
	sorted := make([]rtreeNode, len(level))
	for pos, i := range order {
		sorted[pos] = level[i]
	}
	return sorted
}

// packLevel groups consecutive nodes of a level into parents.
func (t *RTree) packLevel(level []rtreeNode) []rtreeNode {
	parents := make([]rtreeNode, 0, ceilDiv(len(level), t.capacity))
	for start := 0; start < len(level); start += t.capacity {
		end := min(start+t.capacity, len(level))
		nd := t.newNode(start, end)
		for i := start; i < end; i++ {
			nd.extendPoint(level[i].lo)
			nd.extendPoint(level[i].hi)
		}
		parents = append(parents, nd)
	}
	return parents
}

func (t *RTree) newNode(start, end int) rtreeNode {
	nd := rtreeNode{
		lo:    make([]float64, t.dims),
		hi:    make([]float64, t.dims),
		start: start,
		end:   end,
	}
	for d := 0; d < t.dims; d++ {
		nd.lo[d] = math.Inf(1)
		nd.hi[d] = math.Inf(-1)
	}
	return nd
}

func (nd *rtreeNode) extendPoint(p []float64) {
	for d, v := range p {
		if v < nd.lo[d] {
			nd.lo[d] = v
		}
		if v > nd.hi[d] {
			nd.hi[d] = v
		}
	}
}

func (t *RTree) point(i int) []float64 {
	return t.data[i*t.dims : (i+1)*t.dims]
}

// NumPoints returns the number of indexed points.
func (t *RTree) NumPoints() int { return t.n }

// NumFeatures returns the dimensionality of each point.
func (t *RTree) NumFeatures() int { return t.dims }

// Height returns the number of levels, leaves included. An empty tree has
// height 0.
func (t *RTree) Height() int { return len(t.levels) }

// Search calls fn for every indexed point whose squared distance to query
// is <= sqRadius, in no particular order.
func (t *RTree) Search(query []float64, sqRadius float64, fn func(index int, sqDist float64)) {
	if len(t.levels) == 0 {
		return
	}
	type frame struct{ level, node int }
	stack := []frame{{level: len(t.levels) - 1, node: 0}}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		nd := &t.levels[f.level][f.node]
		if minSquaredDistToBox(query, nd.lo, nd.hi) > sqRadius {
			continue
		}
		if f.level == 0 {
			for i := nd.start; i < nd.end; i++ {
				idx := t.entries[i]
				if d := SquaredDist(query, t.point(idx)); d <= sqRadius {
					fn(idx, d)
				}
			}
			continue
		}
		for c := nd.start; c < nd.end; c++ {
			stack = append(stack, frame{level: f.level - 1, node: c})
		}
	}
}

// Nearest returns a lazy stream over every indexed point in ascending
// distance from query, ties broken by point index. Each call to Next does
// only the work needed to produce the next neighbor.
func (t *RTree) Nearest(query []float64) *NeighborIterator {
	it := &NeighborIterator{tree: t, query: query}
	if len(t.levels) > 0 {
		top := len(t.levels) - 1
		root := &t.levels[top][0]
		heap.Push(&it.queue, nnItem{
			sqDist: minSquaredDistToBox(query, root.lo, root.hi),
			level:  top,
			index:  0,
		})
	}
	return it
}

// KNearest returns the k points nearest to query as (index, distance) pairs.
func (t *RTree) KNearest(query []float64, k int) (indices []int, distances []float64) {
	it := t.Nearest(query)
	for len(indices) < k {
		idx, d, ok := it.Next()
		if !ok {
			break
		}
		indices = append(indices, idx)
		distances = append(distances, d)
	}
	return indices, distances
}

// NeighborIterator walks an RTree best-first. Node boxes are queued by
// their lower-bound distance, so points leave the queue in ascending order.
type NeighborIterator struct {
	tree  *RTree
	query []float64
	queue nnQueue
}

// Next returns the next nearest point index and its Euclidean distance.
// ok is false once every point has been returned.
func (it *NeighborIterator) Next() (index int, dist float64, ok bool) {
	t := it.tree
	for it.queue.Len() > 0 {
		item := heap.Pop(&it.queue).(nnItem)
		if item.level < 0 {
			return item.index, math.Sqrt(item.sqDist), true
		}

		nd := &t.levels[item.level][item.index]
		if item.level == 0 {
			for i := nd.start; i < nd.end; i++ {
				idx := t.entries[i]
				heap.Push(&it.queue, nnItem{
					sqDist: SquaredDist(it.query, t.point(idx)),
					level:  -1,
					index:  idx,
				})
			}
			continue
		}
		below := t.levels[item.level-1]
		for c := nd.start; c < nd.end; c++ {
			heap.Push(&it.queue, nnItem{
				sqDist: minSquaredDistToBox(it.query, below[c].lo, below[c].hi),
				level:  item.level - 1,
				index:  c,
			})
		}
	}
	return 0, 0, false
}

// --- min-heap for best-first search ---

// nnItem is either a node (level >= 0, index into that level) or a point
// (level == -1, index is the point index).
type nnItem struct {
	sqDist float64
	level  int
	index  int
}

type nnQueue []nnItem

func (q nnQueue) Len() int { return len(q) }
func (q nnQueue) Less(i, j int) bool {
	if q[i].sqDist != q[j].sqDist {
		return q[i].sqDist < q[j].sqDist
	}
	// Expand nodes before emitting points at the same distance so that
	// equidistant points come out in index order.
	if (q[i].level < 0) != (q[j].level < 0) {
		return q[i].level >= 0
	}
	return q[i].index < q[j].index
}
func (q nnQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *nnQueue) Push(x interface{}) { *q = append(*q, x.(nnItem)) }
func (q *nnQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}
