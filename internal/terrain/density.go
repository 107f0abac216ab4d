package terrain

import (
	"context"
	"math"
	"runtime"

	"worldmap-server/internal/pointcloud"

	"golang.org/x/sync/errgroup"
)

// Kernel parameterizes one density estimate. A point contributes
// Gain·exp(-d²/2bw²) to a cell when d² < Cutoff·bw², with
// bw = Bandwidth·min(width, height).
type Kernel struct {
	Resolution float64
	Bandwidth  float64
	Cutoff     float64
	Gain       float64
}

var (
	TerrainKernel    = Kernel{Resolution: 200, Bandwidth: 0.035, Cutoff: 9, Gain: 1}
	SettlementKernel = Kernel{Resolution: 400, Bandwidth: 0.01, Cutoff: 4, Gain: 2}
)

func (k Kernel) bandwidth(width, height float64) float64 {
	return k.Bandwidth * math.Min(width, height)
}

// Engine runs the density side of world generation. The zero value is not
// useful; use NewEngine.
type Engine struct {
	Padding         float64
	SmoothingPasses int
	Workers         int
}

func NewEngine(padding float64, smoothingPasses, workers int) *Engine {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Engine{Padding: padding, SmoothingPasses: smoothingPasses, Workers: workers}
}

// TerrainGrid is the smoothed coarse grid used for biomes and contours.
func (e *Engine) TerrainGrid(ctx context.Context, points []pointcloud.Point, width, height float64) (*DensityGrid, error) {
	grid, err := e.estimate(ctx, TerrainKernel, points, width, height)
	if err != nil {
		return nil, err
	}
	return Smooth(grid, e.SmoothingPasses), nil
}

// SettlementGrid is the fine grid backing the surface settlement style.
func (e *Engine) SettlementGrid(ctx context.Context, points []pointcloud.Point, width, height float64) (*DensityGrid, error) {
	return e.Estimate(ctx, SettlementKernel, points, width, height)
}

// Estimate computes a normalized kernel density grid. Invalid viewports give
// an empty grid and no error; the only error is ctx's.
func (e *Engine) Estimate(ctx context.Context, k Kernel, points []pointcloud.Point, width, height float64) (*DensityGrid, error) {
	grid, err := e.estimate(ctx, k, points, width, height)
	if err != nil || grid.Empty() {
		return grid, err
	}
	grid.Contours = Contours(grid.Values, grid.Cols, grid.Rows, ElevationThresholds())
	return grid, nil
}

// estimate is Estimate without contours, for grids that are smoothed next.
func (e *Engine) estimate(ctx context.Context, k Kernel, points []pointcloud.Point, width, height float64) (*DensityGrid, error) {
	if !validViewport(width, height) {
		return emptyGrid(), nil
	}

	cellSize := math.Max(width, height) / k.Resolution
	cols := max(1, int(math.Ceil(width/cellSize)))
	rows := max(1, int(math.Ceil(height/cellSize)))

	xs, ys := NewProjection(points, width, height, e.Padding).ProjectAll(points)
	bw := k.bandwidth(width, height)
	bwSq := bw * bw
	cutoff := bwSq * k.Cutoff

	values := make([]float64, rows*cols)

	workers := e.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for row := 0; row < rows; row++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			y := float64(row)*cellSize + cellSize/2
			line := values[row*cols : (row+1)*cols]
			for col := range line {
				x := float64(col)*cellSize + cellSize/2
				density := 0.0
				for i := range xs {
					dx := x - xs[i]
					dy := y - ys[i]
					distSq := dx*dx + dy*dy
					if distSq < cutoff {
						density += math.Exp(-distSq/(2*bwSq)) * k.Gain
					}
				}
				line[col] = density
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	grid := &DensityGrid{Cols: cols, Rows: rows, CellSize: cellSize, Values: values}
	if max := grid.Max(); max > 0 {
		for i := range values {
			values[i] /= max
		}
	}
	return grid, nil
}

func validViewport(width, height float64) bool {
	return width > 0 && height > 0 && !math.IsInf(width, 0) && !math.IsInf(height, 0) &&
		!math.IsNaN(width) && !math.IsNaN(height)
}
