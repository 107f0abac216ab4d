package terrain

import (
	"testing"

	"worldmap-server/internal/pointcloud"
)

func ptr[T any](v T) *T { return &v }

func TestPalettesPartitionUnitInterval(t *testing.T) {
	for name, p := range map[string]Palette{"natural": NaturalBiomes, "urban": UrbanBiomes} {
		if p[0].MinDensity != 0 || p[len(p)-1].MaxDensity != 1 {
			t.Errorf("%s: range [%v, %v], want [0, 1]", name, p[0].MinDensity, p[len(p)-1].MaxDensity)
		}
		for i := 1; i < len(p); i++ {
			if p[i].MinDensity != p[i-1].MaxDensity {
				t.Errorf("%s: gap between %s and %s", name, p[i-1].Name, p[i].Name)
			}
		}
		for d := 0.0; d <= 1.0; d += 0.0005 {
			matches := 0
			for _, b := range p {
				if d >= b.MinDensity && d < b.MaxDensity {
					matches++
				}
			}
			if matches > 1 {
				t.Fatalf("%s: %v falls in %d biomes", name, d, matches)
			}
		}
	}
	if len(NaturalBiomes) != 10 || len(UrbanBiomes) != 9 {
		t.Errorf("palette sizes = %d, %d, want 10, 9", len(NaturalBiomes), len(UrbanBiomes))
	}
}

func TestClassifyBoundaries(t *testing.T) {
	tests := []struct {
		palette Palette
		d       float64
		want    string
	}{
		{NaturalBiomes, 0, "ocean"},
		{NaturalBiomes, 0.000999, "ocean"},
		{NaturalBiomes, 0.001, "shallow_water"},
		{NaturalBiomes, 0.5, "hills"},
		{NaturalBiomes, 0.8499, "mountains"},
		{NaturalBiomes, 0.85, "peaks"},
		{NaturalBiomes, 1.0, "peaks"},
		{UrbanBiomes, 0.0005, "ocean"},
		{UrbanBiomes, 0.1, "village"},
		{UrbanBiomes, 1.0, "metropolis"},
	}
	for _, tt := range tests {
		if got := tt.palette.Classify(tt.d).Name; got != tt.want {
			t.Errorf("Classify(%v) = %s, want %s", tt.d, got, tt.want)
		}
	}
}

func TestResolveSelectsPalette(t *testing.T) {
	if got := Resolve(nil).Palette[0].Color; got != NaturalBiomes[0].Color {
		t.Errorf("nil settings ocean = %v, want fixed natural palette", got)
	}
	grey := Resolve(&Settings{TerrainStyle: StyleGreyscale, OceanThreshold: 0.5})
	if len(grey.Palette) != len(UrbanBiomes) || grey.Palette[2].Name != "land" {
		t.Errorf("greyscale palette = %v", grey.Palette)
	}
	custom := Resolve(&Settings{TerrainStyle: StyleIsland, OceanThreshold: 0.01})
	if got := custom.Palette[0].Color; got != pointcloud.MustHex("#1e3a5f") {
		t.Errorf("custom ocean = %v, want #1e3a5f", got)
	}
}

func TestCustomPaletteInterpolation(t *testing.T) {
	s := &Settings{
		OceanThreshold:    0.02,
		DesertThreshold:   0.2,
		ForestThreshold:   0.4,
		MountainThreshold: 0.6,
	}
	p := Resolve(s).Palette

	want := []struct {
		name     string
		min, max float64
	}{
		{"ocean", 0, 0.02},
		{"shallow_water", 0.02, 0.1},
		{"beach", 0.1, 0.4},
		{"desert", 0.4, 0.2},
		{"savanna", 0.2, 0.30000000000000004},
		{"grassland", 0.30000000000000004, 0.4},
		{"forest", 0.4, 0.5},
		{"hills", 0.5, 0.6},
		{"mountains", 0.6, 0.8},
		{"peaks", 0.8, 1},
	}
	for i, w := range want {
		b := p[i]
		if b.Name != w.name || b.MinDensity != w.min || b.MaxDensity != w.max {
			t.Errorf("biome %d = %s [%v, %v), want %s [%v, %v)", i, b.Name, b.MinDensity, b.MaxDensity, w.name, w.min, w.max)
		}
	}
	if got := BiomeFor(0.45, s).Name; got != "forest" {
		t.Errorf("BiomeFor(0.45) = %s, want forest", got)
	}
	if got := BiomeFor(1.0, s).Name; got != "peaks" {
		t.Errorf("BiomeFor(1.0) = %s, want peaks", got)
	}
}

func TestResolveFallbackDerivation(t *testing.T) {
	s := &Settings{
		OceanThreshold:        0.01,
		ShallowWaterThreshold: ptr(0.0),
		BeachThreshold:        ptr(0.3),
		DesertThreshold:       0.4,
		ForestThreshold:       0.5,
		MountainThreshold:     0.7,
	}
	p := Resolve(s).Palette
	if p[1].MaxDensity != 0.05 {
		t.Errorf("shallow water upper bound = %v, want 5x ocean", p[1].MaxDensity)
	}
	if p[2].MaxDensity != 0.3 {
		t.Errorf("beach upper bound = %v, want explicit 0.3", p[2].MaxDensity)
	}
}

func TestResolveSettlementDefaults(t *testing.T) {
	r := Resolve(nil)
	if !r.ShowSettlements || r.SettlementStyle != SettlementStylePoints || r.SettlementOpacity != 0.7 {
		t.Errorf("defaults = %+v", r)
	}
	if r.HouseThreshold != 0.1 || r.VillageThreshold != 0.3 || r.CityThreshold != 0.6 {
		t.Errorf("tier thresholds = %v %v %v", r.HouseThreshold, r.VillageThreshold, r.CityThreshold)
	}
	if r.SurfaceOverlay() {
		t.Error("surface overlay enabled without settings")
	}

	s := &Settings{
		TerrainStyle:    StyleIsland,
		SettlementStyle: SettlementStyleSurface,
		HouseThreshold:  ptr(0.0),
	}
	r = Resolve(s)
	if !r.SurfaceOverlay() {
		t.Error("surface overlay disabled for island + surface")
	}
	if r.HouseThreshold != 0 {
		t.Errorf("explicit zero house threshold replaced by %v", r.HouseThreshold)
	}
	s.ShowSettlements = ptr(false)
	if Resolve(s).SurfaceOverlay() {
		t.Error("surface overlay enabled with settlements hidden")
	}
}

func TestBiomeRegionsSkipOcean(t *testing.T) {
	values := []float64{
		0, 0, 0, 0,
		0, 0.6, 0.6, 0,
		0, 0.6, 0.6, 0,
		0, 0, 0, 0,
	}
	grid := &DensityGrid{Cols: 4, Rows: 4, CellSize: 1, Values: values}
	regions := BiomeRegions(grid, Resolve(nil))
	if len(regions) == 0 {
		t.Fatal("no regions")
	}
	for _, r := range regions {
		if r.Biome == "ocean" {
			t.Error("ocean region emitted")
		}
		if len(r.Contours) != 2 {
			t.Errorf("%s: %d contours, want 2", r.Biome, len(r.Contours))
		}
	}
	if got := BiomeRegions(emptyGrid(), Resolve(nil)); len(got) != 0 {
		t.Errorf("empty grid regions = %d", len(got))
	}
}
