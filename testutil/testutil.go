package testutil

import (
	"errors"
	"math"
	"math/rand"
	"sync"

	"gonum.org/v1/gonum/floats"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns a pseudo-random number in [0,1).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// NormFloat64 returns a standard normal sample.
func (r *RNG) NormFloat64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.NormFloat64()
}

// UniformPoints returns n points drawn uniformly from [lo, hi)^dims.
func (r *RNG) UniformPoints(n, dims int, lo, hi float64) [][]float64 {
	out := make([][]float64, n)
	for i := range out {
		p := make([]float64, dims)
		for j := range p {
			p[j] = lo + (hi-lo)*r.Float64()
		}
		out[i] = p
	}
	return out
}

// Blobs draws perCenter isotropic Gaussian points around every center.
// labels[i] is the index of the center point i was drawn from.
func Blobs(rng *RNG, centers [][]float64, perCenter int, stddev float64) (data [][]float64, labels []int) {
	for c, center := range centers {
		for i := 0; i < perCenter; i++ {
			p := make([]float64, len(center))
			for j, v := range center {
				p[j] = v + stddev*rng.NormFloat64()
			}
			data = append(data, p)
			labels = append(labels, c)
		}
	}
	return data, labels
}

// UniformBounds returns the per-dimension minimum and maximum of data.
func UniformBounds(data [][]float64) (mins, maxs []float64, err error) {
	if len(data) == 0 || len(data[0]) == 0 {
		return nil, nil, errors.New("testutil: data must be a non-empty N×D matrix")
	}
	dims := len(data[0])
	column := make([]float64, len(data))
	mins = make([]float64, dims)
	maxs = make([]float64, dims)
	for j := 0; j < dims; j++ {
		for i, row := range data {
			if len(row) != dims {
				return nil, nil, errors.New("testutil: ragged data")
			}
			column[i] = row[j]
		}
		mins[j] = floats.Min(column)
		maxs[j] = floats.Max(column)
	}
	return mins, maxs, nil
}

// NoiseAmount says how many noise points AddUniformNoise appends: either a
// fraction of the input rows or an exact count.
type NoiseAmount struct {
	fraction float64
	count    int
	isCount  bool
}

// NoiseFraction adds round(p*N) points; p must be in [0, 1].
func NoiseFraction(p float64) NoiseAmount { return NoiseAmount{fraction: p} }

// NoiseCount adds exactly n points.
func NoiseCount(n int) NoiseAmount { return NoiseAmount{count: n, isCount: true} }

// AddUniformNoise appends points sampled uniformly over the bounding box of
// data. It returns the extended data and the indexes of the new rows.
// data itself is not modified.
func AddUniformNoise(rng *RNG, data [][]float64, amount NoiseAmount) ([][]float64, []int, error) {
	mins, maxs, err := UniformBounds(data)
	if err != nil {
		return nil, nil, err
	}

	n := len(data)
	var k int
	if amount.isCount {
		if amount.count < 0 {
			return nil, nil, errors.New("testutil: noise count must be non-negative")
		}
		k = amount.count
	} else {
		if !(amount.fraction >= 0 && amount.fraction <= 1) {
			return nil, nil, errors.New("testutil: noise fraction must be within [0, 1]")
		}
		k = int(math.Round(amount.fraction * float64(n)))
	}

	out := make([][]float64, n, n+k)
	for i, row := range data {
		out[i] = append([]float64(nil), row...)
	}
	added := make([]int, k)
	for i := 0; i < k; i++ {
		p := make([]float64, len(mins))
		for j := range p {
			p[j] = mins[j] + (maxs[j]-mins[j])*rng.Float64()
		}
		out = append(out, p)
		added[i] = n + i
	}
	return out, added, nil
}
