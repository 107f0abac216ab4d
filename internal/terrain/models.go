package terrain

import (
	"worldmap-server/internal/pointcloud"

	"github.com/paulmach/orb"
)

// DensityGrid is a normalized density field laid over a viewport. Values are
// row-major: the cell at (row, col) is Values[row*Cols+col].
type DensityGrid struct {
	Cols     int       `json:"cols"`
	Rows     int       `json:"rows"`
	CellSize float64   `json:"cell_size"`
	Values   []float64 `json:"values"`
	Contours []Contour `json:"contours"`
}

func emptyGrid() *DensityGrid {
	return &DensityGrid{CellSize: 1, Values: []float64{}, Contours: []Contour{}}
}

// Empty reports whether the grid is the zero-sized "not yet renderable" grid.
func (g *DensityGrid) Empty() bool {
	return g == nil || g.Cols == 0 || g.Rows == 0
}

func (g *DensityGrid) At(row, col int) float64 {
	return g.Values[row*g.Cols+col]
}

func (g *DensityGrid) Max() float64 {
	max := 0.0
	for _, v := range g.Values {
		if v > max {
			max = v
		}
	}
	return max
}

// CellCenter returns the pixel coordinates of the center of a cell.
func (g *DensityGrid) CellCenter(row, col int) (x, y float64) {
	return float64(col)*g.CellSize + g.CellSize/2, float64(row)*g.CellSize + g.CellSize/2
}

// Contour is the iso-density region at Threshold. Coordinates are in grid
// cell units; multiply by the grid's CellSize to get pixels.
type Contour struct {
	Threshold float64          `json:"value"`
	Polygons  orb.MultiPolygon `json:"coordinates"`
}

type Biome struct {
	Name       string         `json:"name"`
	MinDensity float64        `json:"min_density"`
	MaxDensity float64        `json:"max_density"`
	Color      pointcloud.RGB `json:"color"`
	Elevation  float64        `json:"elevation"`
}

type SettlementType string

const (
	SettlementVillage    SettlementType = "village"
	SettlementTown       SettlementType = "town"
	SettlementCity       SettlementType = "city"
	SettlementMetropolis SettlementType = "metropolis"
)

// Settlement is a marker for a local concentration of points, in screen space.
type Settlement struct {
	X    float64        `json:"x"`
	Y    float64        `json:"y"`
	Size int            `json:"size"`
	Type SettlementType `json:"type"`
}

// SurfaceTier classifies a cell of the fine settlement grid. Its vocabulary is
// deliberately separate from SettlementType.
type SurfaceTier string

const (
	TierNone    SurfaceTier = "none"
	TierHouse   SurfaceTier = "house"
	TierVillage SurfaceTier = "village"
	TierCity    SurfaceTier = "city"
)

// DensityPeak is a local maximum of a density grid, in pixels.
type DensityPeak struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Density float64 `json:"density"`
}

// BiomeRegion is the contour band covering one biome's density range.
type BiomeRegion struct {
	Biome    string    `json:"biome"`
	Contours []Contour `json:"contours"`
}
