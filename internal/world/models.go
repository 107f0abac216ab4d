package world

import (
	"math"

	"worldmap-server/internal/landmass"
	"worldmap-server/internal/shared/errors"
	"worldmap-server/internal/terrain"
)

type Mode string

const (
	ModeTerrain  Mode = "terrain"
	ModeLandmass Mode = "landmass"
)

type GenerateRequest struct {
	DatasetID           int               `json:"dataset_id"`
	Width               float64           `json:"width"`
	Height              float64           `json:"height"`
	Mode                Mode              `json:"mode"`
	Settings            *terrain.Settings `json:"settings,omitempty"`
	IncludeBiomeRegions bool              `json:"include_biome_regions"`
	// PeakThreshold, when set, lists density peaks at or above it.
	PeakThreshold *float64 `json:"peak_threshold,omitempty"`
}

// Validate defaults the mode to terrain. Non-positive sizes are accepted and
// produce an empty world.
func (r *GenerateRequest) Validate(maxViewport int) error {
	if r.DatasetID <= 0 {
		return errors.Validation("dataset_id is required")
	}
	for name, v := range map[string]float64{"width": r.Width, "height": r.Height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.Validationf("%s must be a finite number", name)
		}
		if v > float64(maxViewport) {
			return errors.Validationf("%s must be at most %d", name, maxViewport)
		}
	}
	if t := r.PeakThreshold; t != nil && (math.IsNaN(*t) || *t < 0 || *t > 1) {
		return errors.Validation("peak_threshold must be between 0 and 1")
	}
	switch r.Mode {
	case "":
		r.Mode = ModeTerrain
	case ModeTerrain, ModeLandmass:
	default:
		return errors.Validationf("unknown mode %q", r.Mode)
	}
	return nil
}

type World struct {
	DatasetID         int                    `json:"dataset_id"`
	Width             float64                `json:"width"`
	Height            float64                `json:"height"`
	Mode              Mode                   `json:"mode"`
	Density           *terrain.DensityGrid   `json:"density,omitempty"`
	Settlements       []terrain.Settlement   `json:"settlements"`
	SettlementSurface *terrain.DensityGrid   `json:"settlement_surface,omitempty"`
	SurfaceTiers      []terrain.SurfaceTier  `json:"surface_tiers,omitempty"`
	BiomeRegions      []terrain.BiomeRegion  `json:"biome_regions,omitempty"`
	Peaks             []terrain.DensityPeak  `json:"peaks,omitempty"`
	Legend            *terrain.Legend        `json:"legend,omitempty"`
	Polygons          []*landmass.MapPolygon `json:"polygons,omitempty"`
	Stats             Stats                  `json:"stats"`
}

type Stats struct {
	Points      int             `json:"points"`
	Settlements int             `json:"settlements"`
	GridCached  bool            `json:"grid_cached"`
	Landmass    *landmass.Stats `json:"landmass,omitempty"`
	ElapsedMS   int64           `json:"elapsed_ms"`
}
