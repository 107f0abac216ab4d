package world

import (
	"bytes"
	"context"
	stderrors "errors"
	"image"
	"image/png"
	"log/slog"
	"math"
	"time"

	"worldmap-server/internal/landmass"
	"worldmap-server/internal/pointcloud"
	"worldmap-server/internal/shared/errors"
	"worldmap-server/internal/terrain"
)

// DatasetSource loads the point cloud a world is generated from.
type DatasetSource interface {
	Load(ctx context.Context, id int) (*pointcloud.Set, error)
}

type Service struct {
	datasets    DatasetSource
	engine      *terrain.Engine
	synth       *landmass.Synthesizer
	cache       *terrain.Cache
	maxViewport int
	logger      *slog.Logger
	now         func() time.Time
}

func NewService(
	datasets DatasetSource,
	engine *terrain.Engine,
	synth *landmass.Synthesizer,
	cache *terrain.Cache,
	maxViewport int,
	logger *slog.Logger,
) *Service {
	logger.Debug("Initializing world service",
		"padding", engine.Padding,
		"smoothing_passes", engine.SmoothingPasses,
		"workers", engine.Workers,
		"max_viewport", maxViewport)

	return &Service{
		datasets:    datasets,
		engine:      engine,
		synth:       synth,
		cache:       cache,
		maxViewport: maxViewport,
		logger:      logger,
		now:         time.Now,
	}
}

// Generate builds the world data for one request.
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (*World, error) {
	if err := req.Validate(s.maxViewport); err != nil {
		return nil, err
	}
	logger := s.logger.With(
		"component", "world_service",
		"operation", "generate",
		"dataset_id", req.DatasetID,
		"mode", req.Mode,
		"width", req.Width,
		"height", req.Height,
	)
	start := time.Now()

	set, err := s.datasets.Load(ctx, req.DatasetID)
	if err != nil {
		return nil, err
	}

	w := &World{
		DatasetID: req.DatasetID,
		Width:     req.Width,
		Height:    req.Height,
		Mode:      req.Mode,
	}
	w.Settlements = s.engine.DetectSettlements(set.Points, req.Width, req.Height)

	switch req.Mode {
	case ModeTerrain:
		if err := s.fillTerrain(ctx, w, set, req); err != nil {
			return nil, generationError(err)
		}
	case ModeLandmass:
		polygons, stats, err := s.synth.Generate(ctx, set)
		if err != nil {
			return nil, generationError(err)
		}
		if stats.HullFallbacks > 0 || stats.Skipped > 0 {
			logger.Warn("Degenerate landmass outlines", "hull_fallbacks", stats.HullFallbacks, "skipped", stats.Skipped)
		}
		w.Polygons = polygons
		w.Stats.Landmass = &stats
	}

	w.Stats.Points = len(set.Points)
	w.Stats.Settlements = len(w.Settlements)
	w.Stats.ElapsedMS = time.Since(start).Milliseconds()

	logger.Info("World generated",
		"points", w.Stats.Points,
		"settlements", w.Stats.Settlements,
		"polygons", len(w.Polygons),
		"grid_cached", w.Stats.GridCached,
		"elapsed_ms", w.Stats.ElapsedMS)
	return w, nil
}

func (s *Service) fillTerrain(ctx context.Context, w *World, set *pointcloud.Set, req GenerateRequest) error {
	key := gridKey(set, req)
	grid, cached, err := s.terrainGrid(ctx, set, key)
	if err != nil {
		return err
	}
	w.Density = grid
	w.Stats.GridCached = cached

	r := terrain.Resolve(req.Settings)
	if r.SettlementStyle == terrain.SettlementStyleSurface {
		surface, err := s.settlementGrid(ctx, set, key)
		if err != nil {
			return err
		}
		w.SettlementSurface = surface
		w.SurfaceTiers = terrain.ClassifySurface(surface, r)
	}
	if req.IncludeBiomeRegions {
		w.BiomeRegions = terrain.BiomeRegions(grid, r)
	}
	if req.PeakThreshold != nil {
		w.Peaks = terrain.DensityPeaks(grid, *req.PeakThreshold)
	}
	legend := terrain.BuildLegend(r)
	w.Legend = &legend
	return nil
}

func gridKey(set *pointcloud.Set, req GenerateRequest) terrain.GridKey {
	return terrain.GridKey{PointSet: set.Hash(), Width: req.Width, Height: req.Height}
}

func (s *Service) terrainGrid(ctx context.Context, set *pointcloud.Set, key terrain.GridKey) (*terrain.DensityGrid, bool, error) {
	if grid, ok := s.cache.TerrainGrid(key); ok {
		return grid, true, nil
	}
	grid, err := s.engine.TerrainGrid(ctx, set.Points, key.Width, key.Height)
	if err != nil {
		return nil, false, err
	}
	s.cache.StoreTerrainGrid(key, grid)
	return grid, false, nil
}

func (s *Service) settlementGrid(ctx context.Context, set *pointcloud.Set, key terrain.GridKey) (*terrain.DensityGrid, error) {
	if grid, ok := s.cache.SettlementGrid(key); ok {
		return grid, nil
	}
	grid, err := s.engine.SettlementGrid(ctx, set.Points, key.Width, key.Height)
	if err != nil {
		return nil, err
	}
	s.cache.StoreSettlementGrid(key, grid)
	return grid, nil
}

// RenderMap returns the terrain raster as PNG. With dots, settlement markers
// are drawn on top when the resolved settings show them as points.
func (s *Service) RenderMap(ctx context.Context, req GenerateRequest, dots bool) ([]byte, error) {
	if err := req.Validate(s.maxViewport); err != nil {
		return nil, err
	}
	if pixels(req.Width) == 0 || pixels(req.Height) == 0 {
		return nil, errors.Validation("width and height must be positive to render a map")
	}
	logger := s.logger.With("component", "world_service", "operation", "render_map", "dataset_id", req.DatasetID)

	set, err := s.datasets.Load(ctx, req.DatasetID)
	if err != nil {
		return nil, err
	}

	key := gridKey(set, req)
	rasterKey := terrain.RasterKey{Grid: key, Settings: req.Settings}
	r := terrain.Resolve(req.Settings)

	img, ok := s.cache.Raster(rasterKey)
	if !ok {
		grid, _, err := s.terrainGrid(ctx, set, key)
		if err != nil {
			return nil, generationError(err)
		}
		var surface *terrain.DensityGrid
		if r.SurfaceOverlay() {
			if surface, err = s.settlementGrid(ctx, set, key); err != nil {
				return nil, generationError(err)
			}
		}
		img = terrain.RenderTerrain(grid, surface, r, pixels(req.Width), pixels(req.Height))
		s.cache.StoreRaster(rasterKey, img)
	}

	if dots && r.ShowSettlements && r.SettlementStyle == terrain.SettlementStylePoints {
		img = cloneRGBA(img)
		terrain.DrawSettlementMarkers(img, s.engine.DetectSettlements(set.Points, req.Width, req.Height))
	}

	data, err := encodePNG(img)
	if err != nil {
		return nil, errors.WrapInternal("failed to encode map", err)
	}
	logger.Debug("Map rendered", "cached", ok, "bytes", len(data))
	return data, nil
}

// RenderLegend returns the legend that accompanies a map export as PNG.
func (s *Service) RenderLegend(req GenerateRequest) ([]byte, error) {
	if pixels(req.Width) == 0 || req.Width > float64(s.maxViewport) {
		return nil, errors.Validationf("width must be between 1 and %d", s.maxViewport)
	}
	img := terrain.RenderLegend(terrain.Resolve(req.Settings), pixels(req.Width), s.now())
	data, err := encodePNG(img)
	if err != nil {
		return nil, errors.WrapInternal("failed to encode legend", err)
	}
	return data, nil
}

func (s *Service) PurgeCache() {
	hits, lookups := s.cache.Stats()
	s.cache.Purge()
	s.logger.Info("Generation cache purged", "component", "world_service", "hits", hits, "lookups", lookups)
}

func generationError(err error) error {
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return errors.WrapCancelled("generation cancelled", err)
	}
	return errors.WrapInternal("generation failed", err)
}

func pixels(v float64) int {
	if v <= 0 || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0
	}
	return int(math.Ceil(v))
}

func cloneRGBA(src *image.RGBA) *image.RGBA {
	dst := image.NewRGBA(src.Bounds())
	copy(dst.Pix, src.Pix)
	return dst
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
