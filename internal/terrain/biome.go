package terrain

import "worldmap-server/internal/pointcloud"

// Palette is an ordered partition of [0, 1] into biomes.
type Palette []Biome

var hex = pointcloud.MustHex

var NaturalBiomes = Palette{
	{Name: "ocean", MinDensity: 0, MaxDensity: 0.001, Color: hex("#0A0F1B"), Elevation: 0},
	{Name: "shallow_water", MinDensity: 0.001, MaxDensity: 0.01, Color: hex("#2e5a8f"), Elevation: 0.05},
	{Name: "beach", MinDensity: 0.01, MaxDensity: 0.05, Color: hex("#f4e4c1"), Elevation: 0.1},
	{Name: "desert", MinDensity: 0.05, MaxDensity: 0.15, Color: hex("#e8d4a0"), Elevation: 0.2},
	{Name: "savanna", MinDensity: 0.15, MaxDensity: 0.25, Color: hex("#c5b783"), Elevation: 0.3},
	{Name: "grassland", MinDensity: 0.25, MaxDensity: 0.35, Color: hex("#8fb171"), Elevation: 0.4},
	{Name: "forest", MinDensity: 0.35, MaxDensity: 0.5, Color: hex("#5a8a4c"), Elevation: 0.5},
	{Name: "hills", MinDensity: 0.5, MaxDensity: 0.7, Color: hex("#7a9b76"), Elevation: 0.7},
	{Name: "mountains", MinDensity: 0.7, MaxDensity: 0.85, Color: hex("#8b9391"), Elevation: 0.9},
	{Name: "peaks", MinDensity: 0.85, MaxDensity: 1.0, Color: hex("#e8e8e8"), Elevation: 1.0},
}

var UrbanBiomes = Palette{
	{Name: "ocean", MinDensity: 0, MaxDensity: 0.001, Color: hex("#0A0F1B"), Elevation: 0},
	{Name: "shallow_water", MinDensity: 0.001, MaxDensity: 0.01, Color: hex("#2a3f52"), Elevation: 0.05},
	{Name: "land", MinDensity: 0.01, MaxDensity: 0.1, Color: hex("#3d4a57"), Elevation: 0.1},
	{Name: "village", MinDensity: 0.1, MaxDensity: 0.25, Color: hex("#4a5663"), Elevation: 0.2},
	{Name: "town", MinDensity: 0.25, MaxDensity: 0.4, Color: hex("#5a6673"), Elevation: 0.3},
	{Name: "outskirts", MinDensity: 0.4, MaxDensity: 0.55, Color: hex("#6a7683"), Elevation: 0.4},
	{Name: "city", MinDensity: 0.55, MaxDensity: 0.7, Color: hex("#7a8693"), Elevation: 0.6},
	{Name: "downtown", MinDensity: 0.7, MaxDensity: 0.85, Color: hex("#8a96a3"), Elevation: 0.8},
	{Name: "metropolis", MinDensity: 0.85, MaxDensity: 1.0, Color: hex("#9aa6b3"), Elevation: 1.0},
}

// customOceanColor differs from the fixed palettes' ocean on purpose: custom
// thresholds render a lighter sea.
var customOceanColor = hex("#1e3a5f")

// customNaturalPalette builds the natural palette from explicit cut points.
// Intermediate boundaries are midpoints between neighbouring cut points.
func customNaturalPalette(ocean, shallow, beach, desert, forest, mountain float64) Palette {
	n := NaturalBiomes
	return Palette{
		{Name: "ocean", MinDensity: 0, MaxDensity: ocean, Color: customOceanColor, Elevation: 0},
		{Name: "shallow_water", MinDensity: ocean, MaxDensity: shallow, Color: n[1].Color, Elevation: 0.05},
		{Name: "beach", MinDensity: shallow, MaxDensity: beach, Color: n[2].Color, Elevation: 0.1},
		{Name: "desert", MinDensity: beach, MaxDensity: desert, Color: n[3].Color, Elevation: 0.2},
		{Name: "savanna", MinDensity: desert, MaxDensity: (desert + forest) / 2, Color: n[4].Color, Elevation: 0.3},
		{Name: "grassland", MinDensity: (desert + forest) / 2, MaxDensity: forest, Color: n[5].Color, Elevation: 0.4},
		{Name: "forest", MinDensity: forest, MaxDensity: (forest + mountain) / 2, Color: n[6].Color, Elevation: 0.5},
		{Name: "hills", MinDensity: (forest + mountain) / 2, MaxDensity: mountain, Color: n[7].Color, Elevation: 0.7},
		{Name: "mountains", MinDensity: mountain, MaxDensity: (mountain + 1) / 2, Color: n[8].Color, Elevation: 0.9},
		{Name: "peaks", MinDensity: (mountain + 1) / 2, MaxDensity: 1.0, Color: n[9].Color, Elevation: 1.0},
	}
}

// Classify returns the first biome whose [min, max) range holds d, or the
// last biome when none does.
func (p Palette) Classify(d float64) Biome {
	for _, b := range p {
		if d >= b.MinDensity && d < b.MaxDensity {
			return b
		}
	}
	return p[len(p)-1]
}

// BiomeFor classifies d under optional settings.
func BiomeFor(d float64, s *Settings) Biome {
	return Resolve(s).Palette.Classify(d)
}

// BiomeRegions returns, per non-ocean biome of the palette, the contour band
// between its lower and upper bound. Biomes with no area are left out.
func BiomeRegions(grid *DensityGrid, r Resolved) []BiomeRegion {
	if grid.Empty() {
		return []BiomeRegion{}
	}
	regions := make([]BiomeRegion, 0, len(r.Palette))
	for i, b := range r.Palette {
		if i == 0 {
			continue
		}
		contours := Contours(grid.Values, grid.Cols, grid.Rows, []float64{b.MinDensity, b.MaxDensity})
		if !hasArea(contours) {
			continue
		}
		regions = append(regions, BiomeRegion{Biome: b.Name, Contours: contours})
	}
	return regions
}

func hasArea(contours []Contour) bool {
	for _, c := range contours {
		if len(c.Polygons) > 0 {
			return true
		}
	}
	return false
}
