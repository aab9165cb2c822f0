package dbscan

import "math"

// Dist returns the Euclidean (L2) distance between a and b.
// Both slices must have the same length.
func Dist(a, b []float64) float64 {
	return math.Sqrt(SquaredDist(a, b))
}

// SquaredDist returns the squared Euclidean distance between a and b. The
// spatial indexes compare against eps² in this reduced space to skip sqrt.
func SquaredDist(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// minSquaredDistToBox returns a lower bound, in squared-distance space, on
// the distance between point and any point inside the axis-aligned box
// [lo, hi]. It is 0 when point lies inside the box.
func minSquaredDistToBox(point, lo, hi []float64) float64 {
	var rdist float64
	for j := range point {
		var d float64
		if point[j] < lo[j] {
			d = lo[j] - point[j]
		} else if point[j] > hi[j] {
			d = point[j] - hi[j]
		}
		rdist += d * d
	}
	return rdist
}

// ComputePairwiseDistances computes the full n*n distance matrix of s.
// Returns flat []float64 of length n*n in row-major order.
func ComputePairwiseDistances(s *PointSet) []float64 {
	n := s.Len()
	result := make([]float64, n*n)

	for i := 0; i < n; i++ {
		a := s.At(PointRef(i))
		for j := i + 1; j < n; j++ {
			d := Dist(a, s.At(PointRef(j)))
			result[i*n+j] = d
			result[j*n+i] = d
		}
	}

	return result
}
