package dbscan

import "fmt"

// LabelKind distinguishes the three states a point can be in.
type LabelKind uint8

const (
	// Unclassified is the initial state of every point.
	Unclassified LabelKind = iota
	// ClassifiedKind marks a point that belongs to a cluster.
	ClassifiedKind
	// NoiseKind marks a point that belongs to no cluster.
	NoiseKind
)

// Label is the classification of one point: Unclassified, Classified(id)
// or Noise. The zero value is Unclassified.
type Label struct {
	Kind LabelKind
	ID   int // cluster id; meaningful only for ClassifiedKind
}

// Noise is the label of points that belong to no cluster.
var Noise = Label{Kind: NoiseKind}

// Classified returns the label of a point in cluster id.
func Classified(id int) Label { return Label{Kind: ClassifiedKind, ID: id} }

// IsClassified reports whether l carries a cluster id.
func (l Label) IsClassified() bool { return l.Kind == ClassifiedKind }

// IsNoise reports whether l is Noise.
func (l Label) IsNoise() bool { return l.Kind == NoiseKind }

// Int returns the cluster id for Classified labels and -1 otherwise, which
// is the encoding used by the labeled CSV output.
func (l Label) Int() int {
	if l.Kind == ClassifiedKind {
		return l.ID
	}
	return -1
}

func (l Label) String() string {
	switch l.Kind {
	case ClassifiedKind:
		return fmt.Sprintf("Classified(%d)", l.ID)
	case NoiseKind:
		return "Noise"
	default:
		return "Unclassified"
	}
}

// Classes maps every PointRef of a run to its Label. It is indexed by ref
// and therefore total over the point set.
type Classes []Label

// Get returns the label of ref, or Unclassified when ref is out of range.
func (c Classes) Get(ref PointRef) Label {
	if ref < 0 || int(ref) >= len(c) {
		return Label{}
	}
	return c[ref]
}

// Ints returns the -1/cid encoding of every label, in ref order.
func (c Classes) Ints() []int {
	out := make([]int, len(c))
	for i, l := range c {
		out[i] = l.Int()
	}
	return out
}

// Members groups refs by cluster id. The result has one entry per cluster
// id in [0, max id]; noise is not included.
func (c Classes) Members() [][]PointRef {
	maxID := -1
	for _, l := range c {
		if l.IsClassified() && l.ID > maxID {
			maxID = l.ID
		}
	}
	out := make([][]PointRef, maxID+1)
	for i, l := range c {
		if l.IsClassified() {
			out[l.ID] = append(out[l.ID], PointRef(i))
		}
	}
	return out
}
