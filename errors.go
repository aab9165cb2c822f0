package dbscan

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by this package (and by the internal
// CSV and plotting glue) matches exactly one of these via errors.Is.
var (
	// ErrInvalidInput reports malformed data or an out-of-range parameter.
	ErrInvalidInput = errors.New("invalid input")

	// ErrIO reports a file that cannot be read or written.
	ErrIO = errors.New("i/o failure")

	// ErrEngineMisuse reports a violated region-query precondition.
	ErrEngineMisuse = errors.New("engine misuse")

	// ErrUnsupported reports a configuration an engine cannot serve.
	ErrUnsupported = errors.New("unsupported")
)

var (
	// ErrInvalidK is returned when k is outside [1, N-1].
	ErrInvalidK = fmt.Errorf("%w: k out of range", ErrInvalidInput)

	// ErrNotInitialized is returned by queries issued before Init.
	ErrNotInitialized = fmt.Errorf("%w: engine not initialized", ErrEngineMisuse)

	// ErrAlreadyInitialized is returned by a second call to Init.
	ErrAlreadyInitialized = fmt.Errorf("%w: engine already initialized", ErrEngineMisuse)

	// ErrPointNotIndexed is returned by engines that only answer queries for
	// coordinates present in their point set.
	ErrPointNotIndexed = fmt.Errorf("%w: point not in the indexed set", ErrEngineMisuse)
)

// DimensionMismatchError indicates a query point whose arity differs from
// the engine's dimension.
type DimensionMismatchError struct {
	Expected int
	Actual   int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// Is reports the error as ErrEngineMisuse.
func (e *DimensionMismatchError) Is(target error) bool { return target == ErrEngineMisuse }

// UnsupportedDimensionError indicates a dimension outside an engine's
// supported range.
type UnsupportedDimensionError struct {
	Engine    EngineKind
	Dimension int
	Max       int
}

func (e *UnsupportedDimensionError) Error() string {
	return fmt.Sprintf("%s engine supports dimensions 1..%d, got %d; use the %s or %s engine instead",
		e.Engine, e.Max, e.Dimension, EngineReference, EngineKDTree)
}

// Is reports the error as ErrUnsupported.
func (e *UnsupportedDimensionError) Is(target error) bool { return target == ErrUnsupported }

// checkQuery validates the arguments shared by every Region implementation.
func checkQuery(set *PointSet, p Point, eps float64) error {
	if set == nil {
		return ErrNotInitialized
	}
	if len(p) != set.Dims() {
		return &DimensionMismatchError{Expected: set.Dims(), Actual: len(p)}
	}
	if !(eps >= 0) {
		return fmt.Errorf("%w: eps must be >= 0, got %v", ErrInvalidInput, eps)
	}
	return nil
}

// checkKDist validates the arguments shared by every KDist implementation.
func checkKDist(set *PointSet, ref PointRef, k int) error {
	if set == nil {
		return ErrNotInitialized
	}
	if !set.Contains(ref) {
		return fmt.Errorf("%w: ref %d outside point set of size %d", ErrEngineMisuse, ref, set.Len())
	}
	if k < 1 || k >= set.Len() {
		return fmt.Errorf("%w: k must be in [1, %d], got %d", ErrInvalidK, set.Len()-1, k)
	}
	return nil
}
