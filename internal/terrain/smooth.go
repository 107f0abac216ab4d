package terrain

// DefaultSmoothingPasses is the number of box blur passes applied to the
// terrain grid.
const DefaultSmoothingPasses = 3

// Smooth applies passes rounds of a 3x3 box blur to the interior cells of
// grid and returns a new grid with regenerated contours. Border cells keep
// their values. grid is not modified.
func Smooth(grid *DensityGrid, passes int) *DensityGrid {
	if grid.Empty() {
		return emptyGrid()
	}
	cols, rows := grid.Cols, grid.Rows
	values := append([]float64(nil), grid.Values...)
	next := make([]float64, len(values))

	for pass := 0; pass < passes; pass++ {
		copy(next, values)
		for row := 1; row < rows-1; row++ {
			for col := 1; col < cols-1; col++ {
				sum := 0.0
				for dr := -1; dr <= 1; dr++ {
					for dc := -1; dc <= 1; dc++ {
						sum += values[(row+dr)*cols+col+dc]
					}
				}
				next[row*cols+col] = sum / 9
			}
		}
		values, next = next, values
	}

	return &DensityGrid{
		Cols:     cols,
		Rows:     rows,
		CellSize: grid.CellSize,
		Values:   values,
		Contours: Contours(values, cols, rows, ElevationThresholds()),
	}
}
