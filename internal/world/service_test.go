package world

import (
	"bytes"
	"context"
	"image/png"
	"io"
	"log/slog"
	"math"
	"testing"

	"worldmap-server/internal/landmass"
	"worldmap-server/internal/pointcloud"
	"worldmap-server/internal/shared/errors"
	"worldmap-server/internal/terrain"
)

type fakeSource map[int]*pointcloud.Set

func (f fakeSource) Load(_ context.Context, id int) (*pointcloud.Set, error) {
	set, ok := f[id]
	if !ok {
		return nil, errors.NotFoundf("dataset %d not found", id)
	}
	return set, nil
}

// twoBlobs is two dense 6x6 lattices on opposite corners of the data space,
// each its own high cluster, grouped together as one detailed cluster.
func twoBlobs() *pointcloud.Set {
	set := &pointcloud.Set{}
	var left, right []int64
	for i := 0; i < 72; i++ {
		id := int64(i + 1)
		x, y := float64(i%6)*0.1, float64((i/6)%6)*0.1
		if i >= 36 {
			x += 10
			y += 10
			right = append(right, id)
		} else {
			left = append(left, id)
		}
		set.Points = append(set.Points, pointcloud.Point{ID: id, X: x, Y: y})
	}
	set.Clusters = []pointcloud.Cluster{
		{ID: "0", Level: pointcloud.LevelHigh, Members: left},
		{ID: "1", Level: pointcloud.LevelHigh, Members: right},
		{ID: "0", Level: pointcloud.LevelDetailed, Members: append(append([]int64{}, left...), right...)},
	}
	return set
}

func ptr[T any](v T) *T { return &v }

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	synth, err := landmass.New(landmass.DefaultConfig(1))
	if err != nil {
		t.Fatal(err)
	}
	engine := terrain.NewEngine(terrain.DefaultPadding, terrain.DefaultSmoothingPasses, 2)
	return NewService(fakeSource{1: twoBlobs()}, engine, synth, terrain.NewCache(), 4096, discard())
}

func terrainRequest() GenerateRequest {
	return GenerateRequest{DatasetID: 1, Width: 400, Height: 300, Mode: ModeTerrain}
}

func TestGenerateTerrainReusesCachedGrid(t *testing.T) {
	svc := newTestService(t)

	first, err := svc.Generate(context.Background(), terrainRequest())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if first.Density == nil || first.Density.Empty() {
		t.Fatal("terrain world has no density grid")
	}
	if first.Stats.GridCached {
		t.Error("first generation reported a cached grid")
	}
	if first.Stats.Points != 72 || first.Stats.Settlements != len(first.Settlements) {
		t.Errorf("stats = %+v", first.Stats)
	}
	if len(first.Settlements) == 0 {
		t.Error("no settlements detected in dense blobs")
	}
	if first.SettlementSurface != nil || first.Polygons != nil || first.BiomeRegions != nil {
		t.Error("terrain world carries data it was not asked for")
	}

	second, err := svc.Generate(context.Background(), terrainRequest())
	if err != nil {
		t.Fatal(err)
	}
	if !second.Stats.GridCached || second.Density != first.Density {
		t.Error("second generation did not reuse the cached grid")
	}

	svc.PurgeCache()
	third, _ := svc.Generate(context.Background(), terrainRequest())
	if third.Stats.GridCached {
		t.Error("grid still cached after purge")
	}
}

func TestGenerateTerrainSurfaceAndRegions(t *testing.T) {
	svc := newTestService(t)
	req := terrainRequest()
	req.Settings = &terrain.Settings{
		OceanThreshold:    0.05,
		DesertThreshold:   0.3,
		ForestThreshold:   0.5,
		MountainThreshold: 0.8,
		SettlementStyle:   terrain.SettlementStyleSurface,
	}
	req.IncludeBiomeRegions = true

	w, err := svc.Generate(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if w.SettlementSurface == nil {
		t.Fatal("surface style did not produce a settlement surface")
	}
	if got, want := len(w.SurfaceTiers), w.SettlementSurface.Cols*w.SettlementSurface.Rows; got != want {
		t.Errorf("len(SurfaceTiers) = %d, want %d", got, want)
	}
	if len(w.BiomeRegions) == 0 {
		t.Error("no biome regions returned")
	}
}

func TestGenerateTerrainPeaksAndLegend(t *testing.T) {
	svc := newTestService(t)
	req := terrainRequest()
	threshold := 0.01
	req.PeakThreshold = &threshold

	w, err := svc.Generate(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if len(w.Peaks) == 0 {
		t.Fatal("no density peaks returned")
	}
	if w.Peaks[0].Density != w.Density.Max() {
		t.Errorf("strongest peak = %v, want grid max %v", w.Peaks[0].Density, w.Density.Max())
	}
	for i := 1; i < len(w.Peaks); i++ {
		if w.Peaks[i-1].Density < w.Peaks[i].Density {
			t.Fatal("peaks are not sorted by density")
		}
	}
	if w.Legend == nil || len(w.Legend.Biomes) != 10 || len(w.Legend.Settlements) != 4 {
		t.Errorf("legend = %+v", w.Legend)
	}
}

func TestGenerateLandmass(t *testing.T) {
	svc := newTestService(t)
	req := terrainRequest()
	req.Mode = ModeLandmass

	w, err := svc.Generate(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if w.Density != nil {
		t.Error("landmass world carries a density grid")
	}
	if w.Stats.Landmass == nil || w.Stats.Landmass.Continents != 2 {
		t.Fatalf("landmass stats = %+v", w.Stats.Landmass)
	}
	for i := 1; i < len(w.Polygons); i++ {
		if w.Polygons[i-1].Area < w.Polygons[i].Area {
			t.Fatal("polygons are not sorted by area")
		}
	}
}

func TestGenerateRejectsBadRequests(t *testing.T) {
	svc := newTestService(t)
	tests := []struct {
		name string
		req  GenerateRequest
		want errors.ErrorType
	}{
		{"unknown dataset", GenerateRequest{DatasetID: 9, Width: 10, Height: 10}, errors.ErrorTypeNotFound},
		{"missing dataset", GenerateRequest{Width: 10, Height: 10}, errors.ErrorTypeValidation},
		{"non-finite width", GenerateRequest{DatasetID: 1, Width: math.Inf(1), Height: 10}, errors.ErrorTypeValidation},
		{"oversized height", GenerateRequest{DatasetID: 1, Width: 10, Height: 5000}, errors.ErrorTypeValidation},
		{"unknown mode", GenerateRequest{DatasetID: 1, Width: 10, Height: 10, Mode: "voxel"}, errors.ErrorTypeValidation},
		{"peak threshold above one", GenerateRequest{DatasetID: 1, Width: 10, Height: 10, PeakThreshold: ptr(1.5)}, errors.ErrorTypeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Generate(context.Background(), tt.req)
			if got := errors.GetType(err); got != tt.want {
				t.Errorf("error type = %s (%v), want %s", got, err, tt.want)
			}
		})
	}
}

func TestGenerateNonPositiveViewportIsEmpty(t *testing.T) {
	svc := newTestService(t)
	w, err := svc.Generate(context.Background(), GenerateRequest{DatasetID: 1, Width: 0, Height: -5})
	if err != nil {
		t.Fatal(err)
	}
	if w.Mode != ModeTerrain || !w.Density.Empty() || len(w.Settlements) != 0 {
		t.Errorf("world = %+v", w)
	}
}

func TestGenerateCancelled(t *testing.T) {
	svc := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Generate(ctx, terrainRequest())
	if got := errors.GetType(err); got != errors.ErrorTypeCancelled {
		t.Errorf("error type = %s (%v), want cancelled", got, err)
	}
}

func TestRenderMap(t *testing.T) {
	svc := newTestService(t)

	plain, err := svc.RenderMap(context.Background(), terrainRequest(), false)
	if err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(bytes.NewReader(plain))
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 400 || b.Dy() != 300 {
		t.Errorf("bounds = %v", b)
	}
	if hits, _ := svc.cache.Stats(); hits != 0 {
		t.Errorf("hits = %d before any repeat", hits)
	}

	dotted, err := svc.RenderMap(context.Background(), terrainRequest(), true)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(plain, dotted) {
		t.Error("settlement markers did not change the map")
	}

	again, _ := svc.RenderMap(context.Background(), terrainRequest(), false)
	if !bytes.Equal(plain, again) {
		t.Error("markers leaked into the cached raster")
	}

	if _, err := svc.RenderMap(context.Background(), GenerateRequest{DatasetID: 1, Width: 0, Height: 10}, false); errors.GetType(err) != errors.ErrorTypeValidation {
		t.Errorf("zero-width map: err = %v", err)
	}
}

func TestRenderLegend(t *testing.T) {
	svc := newTestService(t)
	data, err := svc.RenderLegend(GenerateRequest{Width: 500})
	if err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 500 || b.Dy() != terrain.LegendHeight {
		t.Errorf("bounds = %v", b)
	}
}
