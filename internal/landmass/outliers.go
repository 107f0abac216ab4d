package landmass

import (
	"math"

	"github.com/paulmach/orb"
)

const outlierSigmas = 2.5

// findOutliers returns the points whose distance from the cluster centroid
// exceeds the mean distance by more than 2.5 standard deviations, and that
// standard deviation.
func findOutliers(points []orb.Point) ([]orb.Point, float64) {
	if len(points) == 0 {
		return nil, 0
	}
	var cx, cy float64
	for _, p := range points {
		cx += p[0]
		cy += p[1]
	}
	n := float64(len(points))
	centroid := orb.Point{cx / n, cy / n}

	dists := make([]float64, len(points))
	var mean float64
	for i, p := range points {
		dists[i] = math.Hypot(p[0]-centroid[0], p[1]-centroid[1])
		mean += dists[i]
	}
	mean /= n

	var variance float64
	for _, d := range dists {
		variance += (d - mean) * (d - mean)
	}
	std := math.Sqrt(variance / n)

	var out []orb.Point
	for i, p := range points {
		if dists[i] > mean+outlierSigmas*std {
			out = append(out, p)
		}
	}
	return out, std
}

// groupNearby greedily gathers points lying within radius of an unvisited
// seed, visiting seeds in input order.
func groupNearby(points []orb.Point, radius float64) [][]orb.Point {
	visited := make([]bool, len(points))
	var groups [][]orb.Point
	for i, seed := range points {
		if visited[i] {
			continue
		}
		visited[i] = true
		group := []orb.Point{seed}
		for j := i + 1; j < len(points); j++ {
			if visited[j] {
				continue
			}
			if math.Hypot(points[j][0]-seed[0], points[j][1]-seed[1]) <= radius {
				visited[j] = true
				group = append(group, points[j])
			}
		}
		groups = append(groups, group)
	}
	return groups
}
