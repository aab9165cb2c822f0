// Package testutil provides seeded data generators for tests and benchmarks.
//
// This package is intended for use in tests and benchmarks only.
//
// # Random Data
//
//	rng := testutil.NewRNG(seed)
//	data, labels := testutil.Blobs(rng, centers, 100, 0.3)
//
// # Uniform Noise
//
//	noisy, added, err := testutil.AddUniformNoise(rng, data, testutil.NoiseFraction(0.1))
package testutil
