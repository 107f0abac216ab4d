package terrain

import "math"

type TerrainStyle string

const (
	StyleIsland    TerrainStyle = "island"
	StyleGreyscale TerrainStyle = "greyscale"
)

type SettlementStyle string

const (
	SettlementStylePoints  SettlementStyle = "points"
	SettlementStyleSurface SettlementStyle = "surface"
)

// Settings is the user-facing terrain configuration. Pointer fields are
// optional; Resolve fills them in.
type Settings struct {
	OceanThreshold        float64  `json:"ocean_threshold"`
	ShallowWaterThreshold *float64 `json:"shallow_water_threshold,omitempty"`
	BeachThreshold        *float64 `json:"beach_threshold,omitempty"`
	DesertThreshold       float64  `json:"desert_threshold"`
	ForestThreshold       float64  `json:"forest_threshold"`
	MountainThreshold     float64  `json:"mountain_threshold"`

	ContourOpacity *float64 `json:"contour_opacity,omitempty"`
	PointSize      *float64 `json:"point_size,omitempty"`
	LabelOpacity   *float64 `json:"label_opacity,omitempty"`

	TerrainStyle      TerrainStyle    `json:"terrain_style,omitempty"`
	ShowSettlements   *bool           `json:"show_settlements,omitempty"`
	SettlementOpacity *float64        `json:"settlement_opacity,omitempty"`
	SettlementStyle   SettlementStyle `json:"settlement_style,omitempty"`
	HouseThreshold    *float64        `json:"house_threshold,omitempty"`
	VillageThreshold  *float64        `json:"village_threshold,omitempty"`
	CityThreshold     *float64        `json:"city_threshold,omitempty"`
}

// Resolved is Settings with every default applied.
type Resolved struct {
	Palette           Palette
	Style             TerrainStyle
	ShowSettlements   bool
	SettlementStyle   SettlementStyle
	SettlementOpacity float64
	HouseThreshold    float64
	VillageThreshold  float64
	CityThreshold     float64
	ContourOpacity    float64
	PointSize         float64
	LabelOpacity      float64
}

// SurfaceOverlay reports whether the settlement surface is composited onto
// the terrain raster.
func (r Resolved) SurfaceOverlay() bool {
	return r.Style == StyleIsland && r.ShowSettlements && r.SettlementStyle == SettlementStyleSurface
}

// Resolve derives the effective configuration. Without settings the fixed
// natural palette is used. With settings, greyscale selects the urban palette
// and anything else builds a custom natural palette; a missing or zero
// shallow water threshold becomes 5x the ocean threshold and a missing or
// zero beach threshold 20x.
func Resolve(s *Settings) Resolved {
	r := Resolved{
		Palette:           NaturalBiomes,
		ShowSettlements:   true,
		SettlementStyle:   SettlementStylePoints,
		SettlementOpacity: 0.7,
		HouseThreshold:    0.1,
		VillageThreshold:  0.3,
		CityThreshold:     0.6,
		ContourOpacity:    0.3,
		PointSize:         3,
		LabelOpacity:      0.8,
	}
	if s == nil {
		return r
	}

	r.Style = s.TerrainStyle
	if s.TerrainStyle == StyleGreyscale {
		r.Palette = UrbanBiomes
	} else {
		shallow := nonZeroOr(s.ShallowWaterThreshold, s.OceanThreshold*5)
		beach := nonZeroOr(s.BeachThreshold, s.OceanThreshold*20)
		r.Palette = customNaturalPalette(s.OceanThreshold, shallow, beach,
			s.DesertThreshold, s.ForestThreshold, s.MountainThreshold)
	}

	if s.ShowSettlements != nil {
		r.ShowSettlements = *s.ShowSettlements
	}
	if s.SettlementStyle != "" {
		r.SettlementStyle = s.SettlementStyle
	}
	r.SettlementOpacity = valueOr(s.SettlementOpacity, r.SettlementOpacity)
	r.HouseThreshold = valueOr(s.HouseThreshold, r.HouseThreshold)
	r.VillageThreshold = valueOr(s.VillageThreshold, r.VillageThreshold)
	r.CityThreshold = valueOr(s.CityThreshold, r.CityThreshold)
	r.ContourOpacity = valueOr(s.ContourOpacity, r.ContourOpacity)
	r.PointSize = valueOr(s.PointSize, r.PointSize)
	r.LabelOpacity = valueOr(s.LabelOpacity, r.LabelOpacity)
	return r
}

func valueOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func nonZeroOr(v *float64, def float64) float64 {
	if v == nil || *v == 0 || math.IsNaN(*v) {
		return def
	}
	return *v
}
