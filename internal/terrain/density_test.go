package terrain

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"

	"worldmap-server/internal/pointcloud"
)

// anchored returns points with two anchors at (0,0) and (1000,1000) first, so
// a 1100x1100 viewport with the default padding maps data 1:1 onto pixels
// (y inverted).
func anchored(extra ...pointcloud.Point) []pointcloud.Point {
	pts := []pointcloud.Point{{ID: -1, X: 0, Y: 0}, {ID: -2, X: 1000, Y: 1000}}
	return append(pts, extra...)
}

func TestProjectionMapsExtentsToPaddedViewport(t *testing.T) {
	pts := []pointcloud.Point{{ID: 1, X: -1, Y: 10}, {ID: 2, X: 3, Y: 20}}
	p := NewProjection(pts, 400, 300, 50)

	x, y := p.Project(pts[0])
	if x != 50 || y != 250 {
		t.Errorf("Project(min) = (%v, %v), want (50, 250)", x, y)
	}
	x, y = p.Project(pts[1])
	if x != 350 || y != 50 {
		t.Errorf("Project(max) = (%v, %v), want (350, 50)", x, y)
	}
}

func TestProjectionCollapsedDomainUsesMidpoint(t *testing.T) {
	pts := []pointcloud.Point{{ID: 1, X: 5, Y: 5}}
	x, y := NewProjection(pts, 400, 300, 50).Project(pts[0])
	if x != 200 || y != 150 {
		t.Errorf("Project = (%v, %v), want (200, 150)", x, y)
	}
}

func TestEstimateGridDimensions(t *testing.T) {
	e := NewEngine(DefaultPadding, DefaultSmoothingPasses, 2)
	grid, err := e.Estimate(context.Background(), TerrainKernel, anchored(), 400, 300)
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}
	if grid.Cols != 200 || grid.Rows != 150 || grid.CellSize != 2 {
		t.Errorf("grid = %dx%d cell %v, want 200x150 cell 2", grid.Cols, grid.Rows, grid.CellSize)
	}
	if len(grid.Values) != grid.Cols*grid.Rows {
		t.Errorf("len(values) = %d, want %d", len(grid.Values), grid.Cols*grid.Rows)
	}
	if len(grid.Contours) != 10 {
		t.Errorf("contours = %d, want 10", len(grid.Contours))
	}

	fine, err := e.Estimate(context.Background(), SettlementKernel, anchored(), 400, 300)
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}
	if fine.Cols != 400 || fine.Rows != 300 {
		t.Errorf("settlement grid = %dx%d, want 400x300", fine.Cols, fine.Rows)
	}
}

func TestEstimateNormalizesToOne(t *testing.T) {
	e := NewEngine(DefaultPadding, 0, 0)
	pts := anchored(
		pointcloud.Point{ID: 1, X: 100, Y: 100},
		pointcloud.Point{ID: 2, X: 102, Y: 100},
		pointcloud.Point{ID: 3, X: 101, Y: 102},
	)
	for _, k := range []Kernel{TerrainKernel, SettlementKernel} {
		grid, err := e.Estimate(context.Background(), k, pts, 1100, 1100)
		if err != nil {
			t.Fatalf("Estimate: %v", err)
		}
		if got := grid.Max(); got != 1 {
			t.Errorf("max = %v, want 1", got)
		}
		for _, v := range grid.Values {
			if v < 0 || v > 1 {
				t.Fatalf("value %v outside [0,1]", v)
			}
		}
	}
}

func TestEstimateTrianglePeak(t *testing.T) {
	e := NewEngine(DefaultPadding, 0, 0)
	pts := anchored(
		pointcloud.Point{ID: 1, X: 99, Y: 99},
		pointcloud.Point{ID: 2, X: 101, Y: 99},
		pointcloud.Point{ID: 3, X: 100, Y: 101},
	)
	grid, err := e.Estimate(context.Background(), TerrainKernel, pts, 1100, 1100)
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}

	best, bestRow, bestCol := -1.0, 0, 0
	for row := 0; row < grid.Rows; row++ {
		for col := 0; col < grid.Cols; col++ {
			if v := grid.At(row, col); v > best {
				best, bestRow, bestCol = v, row, col
			}
		}
	}
	x, y := grid.CellCenter(bestRow, bestCol)
	// data (100, 100) lands on pixel (150, 950)
	if math.Abs(x-150) > 2*grid.CellSize || math.Abs(y-950) > 2*grid.CellSize {
		t.Errorf("peak at (%v, %v), want near (150, 950)", x, y)
	}
	if got := NaturalBiomes.Classify(best).Name; got != "peaks" {
		t.Errorf("natural biome at peak = %s, want peaks", got)
	}
	greyscale := &Settings{TerrainStyle: StyleGreyscale}
	if got := BiomeFor(best, greyscale).Name; got != "metropolis" {
		t.Errorf("urban biome at peak = %s, want metropolis", got)
	}
}

func TestEstimateNoPointsIsAllZero(t *testing.T) {
	e := NewEngine(DefaultPadding, DefaultSmoothingPasses, 0)
	grid, err := e.TerrainGrid(context.Background(), nil, 400, 400)
	if err != nil {
		t.Fatalf("TerrainGrid: %v", err)
	}
	if grid.Empty() {
		t.Fatal("grid is empty, want 200x200 zeros")
	}
	if got := grid.Max(); got != 0 {
		t.Errorf("max = %v, want 0", got)
	}
	if got := e.DetectSettlements(nil, 400, 400); len(got) != 0 {
		t.Errorf("settlements = %d, want 0", len(got))
	}
}

func TestEstimateDegenerateViewport(t *testing.T) {
	e := NewEngine(DefaultPadding, DefaultSmoothingPasses, 0)
	pts := anchored()
	for _, dims := range [][2]float64{{0, 100}, {100, -1}, {math.Inf(1), 100}, {100, math.NaN()}} {
		grid, err := e.TerrainGrid(context.Background(), pts, dims[0], dims[1])
		if err != nil {
			t.Fatalf("TerrainGrid(%v): %v", dims, err)
		}
		if !grid.Empty() || len(grid.Values) != 0 || len(grid.Contours) != 0 || grid.CellSize != 1 {
			t.Errorf("TerrainGrid(%v) = %+v, want empty grid", dims, grid)
		}
	}
}

func TestEstimateIsDeterministicAcrossWorkerCounts(t *testing.T) {
	pts := anchored()
	for i := 0; i < 200; i++ {
		pts = append(pts, pointcloud.Point{ID: int64(i), X: float64(i*37%1000) + 0.25, Y: float64(i*91%1000) - 0.5})
	}
	serial, err := NewEngine(DefaultPadding, 3, 1).TerrainGrid(context.Background(), pts, 640, 480)
	if err != nil {
		t.Fatalf("TerrainGrid: %v", err)
	}
	parallel, err := NewEngine(DefaultPadding, 3, 8).TerrainGrid(context.Background(), pts, 640, 480)
	if err != nil {
		t.Fatalf("TerrainGrid: %v", err)
	}
	for i := range serial.Values {
		if serial.Values[i] != parallel.Values[i] {
			t.Fatalf("cell %d: serial %v != parallel %v", i, serial.Values[i], parallel.Values[i])
		}
	}
}

func TestEstimateHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewEngine(DefaultPadding, 0, 2).Estimate(ctx, TerrainKernel, anchored(), 400, 400)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Estimate error = %v, want context.Canceled", err)
	}
}

func TestSmoothLeavesBorderAndRegeneratesContours(t *testing.T) {
	grid := &DensityGrid{
		Cols:     3,
		Rows:     3,
		CellSize: 1,
		Values:   []float64{1, 0, 0, 0, 9, 0, 0, 0, 0.5},
	}
	smoothed := Smooth(grid, 1)

	if got := smoothed.At(1, 1); math.Abs(got-(10.5/9)) > 1e-12 {
		t.Errorf("center = %v, want %v", got, 10.5/9)
	}
	for _, i := range []int{0, 1, 2, 3, 5, 6, 7, 8} {
		if smoothed.Values[i] != grid.Values[i] {
			t.Errorf("border cell %d changed: %v -> %v", i, grid.Values[i], smoothed.Values[i])
		}
	}
	if grid.Values[4] != 9 {
		t.Error("Smooth modified its input")
	}
	if len(smoothed.Contours) != 10 {
		t.Errorf("contours = %d, want 10", len(smoothed.Contours))
	}
}

func TestSmoothZeroPassesKeepsValues(t *testing.T) {
	grid := &DensityGrid{Cols: 2, Rows: 2, CellSize: 1, Values: []float64{0.1, 0.2, 0.3, 0.4}}
	got := Smooth(grid, 0)
	for i := range grid.Values {
		if got.Values[i] != grid.Values[i] {
			t.Fatalf("value %d = %v, want %v", i, got.Values[i], grid.Values[i])
		}
	}
	if !Smooth(emptyGrid(), 3).Empty() {
		t.Error("smoothing an empty grid produced cells")
	}
}

func TestTerrainGridContoursComeFromSmoothedValues(t *testing.T) {
	e := NewEngine(DefaultPadding, DefaultSmoothingPasses, 2)
	pts := anchored(pointcloud.Point{ID: 1, X: 400, Y: 400}, pointcloud.Point{ID: 2, X: 420, Y: 410})

	raw, err := e.estimate(context.Background(), TerrainKernel, pts, 600, 400)
	if err != nil {
		t.Fatal(err)
	}
	if raw.Contours != nil {
		t.Errorf("estimate traced %d contour levels for a grid that is smoothed next", len(raw.Contours))
	}

	grid, err := e.TerrainGrid(context.Background(), pts, 600, 400)
	if err != nil {
		t.Fatal(err)
	}
	want := Smooth(raw, DefaultSmoothingPasses)
	if !reflect.DeepEqual(grid.Values, want.Values) || !reflect.DeepEqual(grid.Contours, want.Contours) {
		t.Error("TerrainGrid differs from smoothing the raw estimate")
	}

	full, err := e.Estimate(context.Background(), TerrainKernel, pts, 600, 400)
	if err != nil {
		t.Fatal(err)
	}
	if len(full.Contours) != 10 {
		t.Errorf("Estimate contours = %d, want 10", len(full.Contours))
	}
}
