package dbscan

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ComputePairwiseDistancesParallel computes the full n×n distance matrix of s
// using multiple goroutines. numWorkers controls the degree of parallelism;
// if <= 1, it falls back to single-threaded ComputePairwiseDistances.
//
// The result is bitwise identical to ComputePairwiseDistances: a flat []float64
// of length n×n in row-major order.
func ComputePairwiseDistancesParallel(s *PointSet, numWorkers int) []float64 {
	n := s.Len()
	if numWorkers <= 1 || n <= 1 {
		return ComputePairwiseDistances(s)
	}

	result := make([]float64, n*n)

	// Each worker handles a contiguous range of "source" rows and computes
	// dist(i,j) for all j > i. The (i,j) and (j,i) slots written by one
	// worker are never written by another.
	var wg sync.WaitGroup

	rowsPerWorker := (n + numWorkers - 1) / numWorkers

	for w := 0; w < numWorkers; w++ {
		startRow := w * rowsPerWorker
		endRow := min(startRow+rowsPerWorker, n)
		if startRow >= n {
			break
		}

		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				a := s.At(PointRef(i))
				for j := i + 1; j < n; j++ {
					d := Dist(a, s.At(PointRef(j)))
					result[i*n+j] = d
					result[j*n+i] = d
				}
			}
		}(startRow, endRow)
	}

	wg.Wait()
	return result
}

// KDistancesParallel is KDistances fanned out over numWorkers goroutines.
// Each worker writes a disjoint range of the result. 0 means
// runtime.NumCPU(). The first engine error cancels the remaining work.
func KDistancesParallel(ctx context.Context, engine RegionQuery, k, numWorkers int) ([]float64, error) {
	set := engine.Set()
	if set == nil {
		return nil, ErrNotInitialized
	}
	n := set.Len()
	if err := checkK(n, k); err != nil {
		return nil, err
	}
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	if numWorkers == 1 {
		return KDistances(engine, k)
	}

	out := make([]float64, n)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(numWorkers)

	rowsPerWorker := (n + numWorkers - 1) / numWorkers
	for start := 0; start < n; start += rowsPerWorker {
		end := min(start+rowsPerWorker, n)
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				d, err := engine.KDist(PointRef(i), k)
				if err != nil {
					return err
				}
				out[i] = d
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
