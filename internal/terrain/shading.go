package terrain

import (
	"math"
	"sort"
)

const (
	lightX = -0.7
	lightY = -0.7
)

// Shadow returns the hill shading intensity of a cell in [0, 1], lit from the
// top left. Cells on the last row or column have no shadow.
func Shadow(grid *DensityGrid, row, col int) float64 {
	if row >= grid.Rows-1 || col >= grid.Cols-1 {
		return 0
	}
	current := grid.At(row, col)
	dx := grid.At(row, col+1) - current
	dy := grid.At(row+1, col) - current

	magnitude := math.Sqrt(dx*dx + dy*dy)
	if magnitude == 0 {
		return 0
	}
	dot := dx/magnitude*lightX + dy/magnitude*lightY
	return math.Max(0, math.Min(1, (dot+1)/2))
}

// DensityPeaks finds interior local maxima of at least minDensity, strongest
// first, dropping peaks within five cells of a stronger one.
//
// Deprecated: use Engine.DetectSettlements for settlement placement.
func DensityPeaks(grid *DensityGrid, minDensity float64) []DensityPeak {
	peaks := []DensityPeak{}
	if grid.Empty() {
		return peaks
	}
	for row := 1; row < grid.Rows-1; row++ {
		for col := 1; col < grid.Cols-1; col++ {
			value := grid.At(row, col)
			if value < minDensity || !isLocalMax(grid, row, col, value) {
				continue
			}
			x, y := grid.CellCenter(row, col)
			peaks = append(peaks, DensityPeak{X: x, Y: y, Density: value})
		}
	}

	sort.SliceStable(peaks, func(i, j int) bool {
		return peaks[i].Density > peaks[j].Density
	})

	minDistance := grid.CellSize * 5
	filtered := []DensityPeak{}
	for _, p := range peaks {
		tooClose := false
		for _, kept := range filtered {
			if math.Hypot(p.X-kept.X, p.Y-kept.Y) < minDistance {
				tooClose = true
				break
			}
		}
		if !tooClose {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

func isLocalMax(grid *DensityGrid, row, col int, value float64) bool {
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			if (dr != 0 || dc != 0) && grid.At(row+dr, col+dc) > value {
				return false
			}
		}
	}
	return true
}
