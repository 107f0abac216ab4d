package landmass

import (
	"math"

	"github.com/paulmach/orb"
)

const (
	kmeansIterations = 50
	kmeansTolerance  = 0.001
)

// islandK picks the number of sub-clusters for a detailed cluster of n points.
func islandK(n int) int {
	k := int(math.Floor(math.Sqrt(float64(n) / 2)))
	return max(3, min(8, k))
}

// kmeans partitions points into at most k groups. Centroids start at the
// first k points so the result only depends on input order. Empty groups are
// dropped from the result.
func kmeans(points []orb.Point, k int) [][]orb.Point {
	if len(points) <= k {
		out := make([][]orb.Point, len(points))
		for i, p := range points {
			out[i] = []orb.Point{p}
		}
		return out
	}

	centroids := append([]orb.Point(nil), points[:k]...)
	for iter := 0; iter < kmeansIterations; iter++ {
		groups := assignNearest(points, centroids)

		// An empty group is reseeded at the previous first centroid.
		next := make([]orb.Point, k)
		converged := true
		for c, g := range groups {
			next[c] = centroids[0]
			if len(g) > 0 {
				next[c] = mean(g)
			}
			if math.Abs(next[c][0]-centroids[c][0]) >= kmeansTolerance ||
				math.Abs(next[c][1]-centroids[c][1]) >= kmeansTolerance {
				converged = false
			}
		}
		if converged {
			break
		}
		centroids = next
	}

	out := [][]orb.Point{}
	for _, g := range assignNearest(points, centroids) {
		if len(g) > 0 {
			out = append(out, g)
		}
	}
	return out
}

// assignNearest groups points by closest centroid; ties go to the lower index.
func assignNearest(points, centroids []orb.Point) [][]orb.Point {
	groups := make([][]orb.Point, len(centroids))
	for _, p := range points {
		best, bestDist := 0, math.Inf(1)
		for c, centroid := range centroids {
			if d := sqDist(p, centroid); d < bestDist {
				best, bestDist = c, d
			}
		}
		groups[best] = append(groups[best], p)
	}
	return groups
}

func mean(points []orb.Point) orb.Point {
	var sum orb.Point
	for _, p := range points {
		sum[0] += p[0]
		sum[1] += p[1]
	}
	n := float64(len(points))
	return orb.Point{sum[0] / n, sum[1] / n}
}
