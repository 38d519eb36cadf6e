// Wayfinder - Tourism Personalization and Recommendation Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package clustering

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/tomtom215/wayfinder/internal/recommend"
)

// Clusterer partitions feature vectors into k groups. Implementations must
// be deterministic for identical input.
type Clusterer interface {
	// Fit returns one label per vector in [0, k) and k centroids.
	Fit(ctx context.Context, vectors [][]float64, k int) (labels []int, centroids [][]float64, err error)
}

// KMeansConfig contains k-means hyperparameters.
type KMeansConfig struct {
	// MaxIterations bounds the Lloyd iterations.
	// Default: 50.
	MaxIterations int `json:"max_iterations" koanf:"max_iterations"`

	// Tolerance stops iterating once no centroid moves further than this.
	// Default: 1e-6.
	Tolerance float64 `json:"tolerance" koanf:"tolerance"`

	// Seed for reproducible initialization.
	// If 0, uses a default seed.
	Seed int64 `json:"seed" koanf:"seed"`
}

// DefaultKMeansConfig returns default k-means configuration.
func DefaultKMeansConfig() KMeansConfig {
	return KMeansConfig{
		MaxIterations: 50,
		Tolerance:     1e-6,
		Seed:          42,
	}
}

// KMeans implements Lloyd's algorithm with k-means++ seeding.
type KMeans struct {
	config KMeansConfig
}

// NewKMeans creates a k-means clusterer. Zero fields take defaults.
func NewKMeans(cfg KMeansConfig) *KMeans {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = 50
	}
	if cfg.Tolerance <= 0 {
		cfg.Tolerance = 1e-6
	}
	if cfg.Seed == 0 {
		cfg.Seed = 42
	}
	return &KMeans{config: cfg}
}

// Fit clusters vectors into k groups. Every vector must have the same
// dimension and there must be at least k vectors.
func (m *KMeans) Fit(ctx context.Context, vectors [][]float64, k int) ([]int, [][]float64, error) {
	n := len(vectors)
	if k < 1 {
		return nil, nil, fmt.Errorf("%w: k must be positive, got %d", recommend.ErrInvalidArgument, k)
	}
	if n < k {
		return nil, nil, fmt.Errorf("%w: need at least %d vectors, got %d", recommend.ErrInvalidArgument, k, n)
	}
	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) != dim {
			return nil, nil, fmt.Errorf("%w: vector %d has dimension %d, want %d", recommend.ErrInvalidArgument, i, len(v), dim)
		}
	}

	//nolint:gosec // G404: math/rand is acceptable for clustering initialization (not security)
	rng := rand.New(rand.NewSource(m.config.Seed))
	centroids := seedCentroids(vectors, k, rng)

	labels := make([]int, n)
	for i := range labels {
		labels[i] = -1
	}

	for iter := 0; iter < m.config.MaxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		changed := false
		for i, v := range vectors {
			if c := nearest(v, centroids); c != labels[i] {
				labels[i] = c
				changed = true
			}
		}
		if !changed {
			break
		}

		shift := updateCentroids(vectors, labels, centroids)
		if shift <= m.config.Tolerance {
			break
		}
	}

	return labels, centroids, nil
}

// seedCentroids picks k initial centroids with k-means++: each next centroid
// is sampled with probability proportional to its squared distance from
// the nearest centroid chosen so far.
func seedCentroids(vectors [][]float64, k int, rng *rand.Rand) [][]float64 {
	n := len(vectors)
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, cloneVector(vectors[rng.Intn(n)]))

	dist := make([]float64, n)
	for len(centroids) < k {
		total := 0.0
		for i, v := range vectors {
			d := squaredDistance(v, centroids[nearest(v, centroids)])
			dist[i] = d
			total += d
		}

		next := -1
		if total > 0 {
			r := rng.Float64() * total
			for i, d := range dist {
				if d == 0 {
					continue
				}
				next = i
				if r -= d; r <= 0 {
					break
				}
			}
		}
		if next < 0 {
			// every vector coincides with a centroid
			next = rng.Intn(n)
		}
		centroids = append(centroids, cloneVector(vectors[next]))
	}
	return centroids
}

// updateCentroids recomputes each centroid as the mean of its members and
// returns the largest centroid movement. Empty clusters keep their centroid.
func updateCentroids(vectors [][]float64, labels []int, centroids [][]float64) float64 {
	dim := len(centroids[0])
	sums := make([][]float64, len(centroids))
	counts := make([]int, len(centroids))
	for c := range sums {
		sums[c] = make([]float64, dim)
	}
	for i, v := range vectors {
		c := labels[i]
		counts[c]++
		for d, x := range v {
			sums[c][d] += x
		}
	}

	maxShift := 0.0
	for c := range centroids {
		if counts[c] == 0 {
			continue
		}
		for d := range sums[c] {
			sums[c][d] /= float64(counts[c])
		}
		if shift := math.Sqrt(squaredDistance(sums[c], centroids[c])); shift > maxShift {
			maxShift = shift
		}
		centroids[c] = sums[c]
	}
	return maxShift
}

// nearest returns the index of the closest centroid; ties go to the lowest index.
func nearest(v []float64, centroids [][]float64) int {
	best, bestDist := 0, math.Inf(1)
	for c, centroid := range centroids {
		if d := squaredDistance(v, centroid); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

func squaredDistance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

func cloneVector(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}
