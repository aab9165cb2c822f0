package dbscan

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/google/btree"
)

// Point is an ordered sequence of D coordinates.
type Point []float64

// PointRef is a handle to exactly one point of a PointSet: its row index.
// Two rows with identical coordinates are distinct refs.
type PointRef int

// Equal reports whether p and q have the same dimension and bitwise-identical
// coordinates. NaN equals NaN with the same payload; -0 and +0 differ.
func (p Point) Equal(q Point) bool {
	if len(p) != len(q) {
		return false
	}
	for i := range p {
		if math.Float64bits(p[i]) != math.Float64bits(q[i]) {
			return false
		}
	}
	return true
}

// Key returns a hashable encoding of the coordinate bit patterns. Keys are
// stable across processes and equal iff the points are Equal.
func (p Point) Key() string {
	buf := make([]byte, 8*len(p))
	for i, v := range p {
		binary.BigEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return string(buf)
}

// ComparePoints orders points lexicographically under the IEEE-754 total
// order of each coordinate. It returns 0 exactly when a.Equal(b).
func ComparePoints(a, b Point) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		ka, kb := totalOrderKey(a[i]), totalOrderKey(b[i])
		if ka < kb {
			return -1
		}
		if ka > kb {
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}

// totalOrderKey maps a float64 onto a uint64 whose unsigned order matches
// the IEEE-754 totalOrder predicate.
func totalOrderKey(f float64) uint64 {
	u := math.Float64bits(f)
	if u>>63 == 1 {
		return ^u
	}
	return u | 1<<63
}

// coordEntry groups every ref that shares one coordinate vector.
type coordEntry struct {
	coords Point
	refs   []PointRef
}

// PointSet is an immutable collection of same-dimension points. It owns a
// flat row-major copy of the coordinates; engines and the driver only ever
// hand out PointRefs into it.
type PointSet struct {
	data     []float64 // flat row-major, n * dims
	n        int
	dims     int
	index    *btree.BTreeG[*coordEntry]
	distinct int
}

// NewPointSet validates points and copies them into a PointSet.
// Every point must have the same dimension D >= 1 and finite coordinates.
func NewPointSet(points []Point) (*PointSet, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: empty point set", ErrInvalidInput)
	}
	dims := len(points[0])
	if dims == 0 {
		return nil, fmt.Errorf("%w: point dimension must be >= 1", ErrInvalidInput)
	}

	s := &PointSet{
		data: make([]float64, len(points)*dims),
		n:    len(points),
		dims: dims,
		index: btree.NewG[*coordEntry](16, func(a, b *coordEntry) bool {
			return ComparePoints(a.coords, b.coords) < 0
		}),
	}
	for i, p := range points {
		if len(p) != dims {
			return nil, fmt.Errorf("%w: point %d has dimension %d, expected %d", ErrInvalidInput, i, len(p), dims)
		}
		for j, v := range p {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: point %d coordinate %d is not finite (%v)", ErrInvalidInput, i, j, v)
			}
		}
		copy(s.data[i*dims:], p)

		ref := PointRef(i)
		probe := &coordEntry{coords: s.At(ref)}
		if e, ok := s.index.Get(probe); ok {
			e.refs = append(e.refs, ref)
			continue
		}
		probe.refs = []PointRef{ref}
		s.index.ReplaceOrInsert(probe)
		s.distinct++
	}
	return s, nil
}

// Len returns the number of points, duplicates included.
func (s *PointSet) Len() int { return s.n }

// Dims returns the dimension shared by every point.
func (s *PointSet) Dims() int { return s.dims }

// Distinct returns the number of distinct coordinate vectors.
func (s *PointSet) Distinct() int { return s.distinct }

// Data returns the flat row-major coordinate storage. It must not be modified.
func (s *PointSet) Data() []float64 { return s.data }

// At returns a read-only view of the coordinates of ref.
func (s *PointSet) At(ref PointRef) Point {
	i := int(ref)
	return Point(s.data[i*s.dims : (i+1)*s.dims : (i+1)*s.dims])
}

// Contains reports whether ref denotes a point of s.
func (s *PointSet) Contains(ref PointRef) bool {
	return ref >= 0 && int(ref) < s.n
}

// Lookup returns the lowest ref whose coordinates are bitwise equal to p.
func (s *PointSet) Lookup(p Point) (PointRef, bool) {
	e, ok := s.index.Get(&coordEntry{coords: p})
	if !ok {
		return 0, false
	}
	return e.refs[0], true
}

// Duplicates returns every ref whose coordinates are bitwise equal to p, in
// ascending order. The returned slice must not be modified.
func (s *PointSet) Duplicates(p Point) []PointRef {
	e, ok := s.index.Get(&coordEntry{coords: p})
	if !ok {
		return nil
	}
	return e.refs
}

// ascendDistinct calls fn once per distinct coordinate vector in total order.
func (s *PointSet) ascendDistinct(fn func(coords Point, refs []PointRef) bool) {
	s.index.Ascend(func(e *coordEntry) bool {
		return fn(e.coords, e.refs)
	})
}

// Points returns a copy of every point in ref order.
func (s *PointSet) Points() []Point {
	out := make([]Point, s.n)
	for i := range out {
		out[i] = append(Point(nil), s.At(PointRef(i))...)
	}
	return out
}

// NewPointSetFromRows is a convenience wrapper over NewPointSet for
// [][]float64 input.
func NewPointSetFromRows(rows [][]float64) (*PointSet, error) {
	points := make([]Point, len(rows))
	for i, r := range rows {
		points[i] = Point(r)
	}
	return NewPointSet(points)
}
