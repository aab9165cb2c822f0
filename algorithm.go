package dbscan

import "fmt"

// EngineKind selects the region-query engine used by Cluster.
type EngineKind string

const (
	EngineAuto      EngineKind = "auto"
	EngineReference EngineKind = "reference"
	EngineRTree     EngineKind = "rtree"
	EngineKDTree    EngineKind = "kdtree"
	EngineBallTree  EngineKind = "balltree"
)

// ParseEngineKind converts a flag or config value into an EngineKind. The
// empty string means EngineAuto.
func ParseEngineKind(s string) (EngineKind, error) {
	switch k := EngineKind(s); k {
	case "":
		return EngineAuto, nil
	case EngineAuto, EngineReference, EngineRTree, EngineKDTree, EngineBallTree:
		return k, nil
	default:
		return "", fmt.Errorf("%w: unknown engine %q (want auto, reference, rtree, kdtree or balltree)", ErrInvalidInput, s)
	}
}

// kdTreeMaxAutoDims is the largest dimension for which EngineAuto picks the
// KD-tree over the ball tree.
const kdTreeMaxAutoDims = 60

// RTreeValidDims reports whether the R-tree engine accepts dims.
func RTreeValidDims(dims int) bool {
	return dims >= 1 && dims <= MaxRTreeDims
}

// selectEngine resolves EngineAuto into a concrete engine based on the data
// dimensionality, and validates that user-forced choices can serve it.
func selectEngine(kind EngineKind, dims int) (EngineKind, error) {
	if kind == EngineAuto || kind == "" {
		switch {
		case RTreeValidDims(dims):
			return EngineRTree, nil
		case dims <= kdTreeMaxAutoDims:
			return EngineKDTree, nil
		default:
			return EngineBallTree, nil
		}
	}

	switch kind {
	case EngineRTree:
		if !RTreeValidDims(dims) {
			return "", &UnsupportedDimensionError{Engine: EngineRTree, Dimension: dims, Max: MaxRTreeDims}
		}
	case EngineReference, EngineKDTree, EngineBallTree:
	default:
		return "", fmt.Errorf("%w: unknown engine %q", ErrInvalidInput, kind)
	}
	return kind, nil
}

// NewEngine returns an uninitialized engine for cfg.Engine and data of the
// given dimension.
func NewEngine(cfg Config, dims int) (RegionQuery, error) {
	kind, err := selectEngine(cfg.Engine, dims)
	if err != nil {
		return nil, err
	}
	switch kind {
	case EngineReference:
		return NewReferenceEngine(), nil
	case EngineKDTree:
		return NewKDTreeEngine(cfg.LeafSize), nil
	case EngineBallTree:
		return NewBallTreeEngine(cfg.LeafSize), nil
	default:
		return NewRTreeEngine(cfg.NodeCapacity), nil
	}
}
