package terrain

import (
	"image/color"
	"sort"

	"worldmap-server/internal/pointcloud"
)

const (
	MaxSettlements    = 50
	minSettlementSize = 3
)

// DetectSettlements greedily groups points that lie within two settlement
// bandwidths of a seed point. Points are visited in input order, so the
// result depends on it. Neighbours of a seed are consumed even when the seed
// ends up too small to form a settlement; such a seed stays available to
// later seeds.
func (e *Engine) DetectSettlements(points []pointcloud.Point, width, height float64) []Settlement {
	settlements := []Settlement{}
	if len(points) == 0 || !validViewport(width, height) {
		return settlements
	}

	xs, ys := NewProjection(points, width, height, e.Padding).ProjectAll(points)
	bw := SettlementKernel.bandwidth(width, height)
	radiusSq := bw * bw * 4

	processed := make([]bool, len(points))
	for i := range points {
		if processed[i] {
			continue
		}
		px, py := xs[i], ys[i]
		size := 1
		sumX, sumY := px, py
		for j := range points {
			if j == i || processed[j] {
				continue
			}
			dx := px - xs[j]
			dy := py - ys[j]
			if dx*dx+dy*dy < radiusSq {
				size++
				sumX += xs[j]
				sumY += ys[j]
				processed[j] = true
			}
		}
		if size < minSettlementSize {
			continue
		}
		processed[i] = true
		settlements = append(settlements, Settlement{
			X:    sumX / float64(size),
			Y:    sumY / float64(size),
			Size: size,
			Type: settlementType(size),
		})
	}

	sort.SliceStable(settlements, func(a, b int) bool {
		return settlements[a].Size > settlements[b].Size
	})
	if len(settlements) > MaxSettlements {
		settlements = settlements[:MaxSettlements]
	}
	return settlements
}

func settlementType(size int) SettlementType {
	switch {
	case size >= 30:
		return SettlementMetropolis
	case size >= 15:
		return SettlementCity
	case size >= 8:
		return SettlementTown
	}
	return SettlementVillage
}

// TierStyle is how a surface tier is drawn and listed in the legend.
type TierStyle struct {
	Tier  SurfaceTier
	Label string
	Color color.NRGBA
}

var surfaceTiers = []TierStyle{
	{Tier: TierHouse, Label: "Houses", Color: color.NRGBA{R: 160, G: 82, B: 45, A: 128}},
	{Tier: TierVillage, Label: "Villages", Color: color.NRGBA{R: 128, G: 128, B: 128, A: 153}},
	{Tier: TierCity, Label: "Cities", Color: color.NRGBA{R: 106, G: 90, B: 205, A: 179}},
}

// SurfaceTiers lists the drawable surface tiers from sparsest to densest.
func SurfaceTiers() []TierStyle {
	return append([]TierStyle(nil), surfaceTiers...)
}

// SurfaceTier classifies one cell of the settlement grid.
func (r Resolved) SurfaceTier(d float64) SurfaceTier {
	switch {
	case d < r.HouseThreshold:
		return TierNone
	case d < r.VillageThreshold:
		return TierHouse
	case d < r.CityThreshold:
		return TierVillage
	}
	return TierCity
}

// ClassifySurface returns the tier of every cell of grid, row-major.
func ClassifySurface(grid *DensityGrid, r Resolved) []SurfaceTier {
	if grid.Empty() {
		return []SurfaceTier{}
	}
	tiers := make([]SurfaceTier, len(grid.Values))
	for i, v := range grid.Values {
		tiers[i] = r.SurfaceTier(v)
	}
	return tiers
}

func tierStyle(t SurfaceTier) (TierStyle, bool) {
	for _, s := range surfaceTiers {
		if s.Tier == t {
			return s, true
		}
	}
	return TierStyle{}, false
}

// MarkerStyle is how a discrete settlement is stamped on an exported map.
type MarkerStyle struct {
	Type        SettlementType
	Label       string
	Radius      float64
	StrokeWidth float64
	Fill        color.NRGBA
	Stroke      color.NRGBA
}

var markerStyles = []MarkerStyle{
	{Type: SettlementVillage, Label: "Villages", Radius: 2.5, StrokeWidth: 0.5, Fill: gray(0xcc), Stroke: gray(0x66)},
	{Type: SettlementTown, Label: "Towns", Radius: 4, StrokeWidth: 1, Fill: gray(0xdd), Stroke: gray(0x55)},
	{Type: SettlementCity, Label: "Cities", Radius: 6, StrokeWidth: 1.5, Fill: gray(0xee), Stroke: gray(0x44)},
	{Type: SettlementMetropolis, Label: "Metropolis", Radius: 8, StrokeWidth: 2, Fill: gray(0xff), Stroke: gray(0x33)},
}

func gray(v uint8) color.NRGBA {
	return color.NRGBA{R: v, G: v, B: v, A: 255}
}

// MarkerTypes lists marker styles from smallest to largest settlement.
func MarkerTypes() []MarkerStyle {
	return append([]MarkerStyle(nil), markerStyles...)
}

func markerStyle(t SettlementType) MarkerStyle {
	for _, s := range markerStyles {
		if s.Type == t {
			return s
		}
	}
	return markerStyles[0]
}
