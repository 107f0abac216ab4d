package terrain

import (
	"image"
	"reflect"
	"sync"
)

// GridKey identifies a density grid: the points it was estimated from and
// the viewport.
type GridKey struct {
	PointSet uint64
	Width    float64
	Height   float64
}

// RasterKey identifies a rendered terrain raster. Settings are compared by
// value, so two distinct but equal Settings hit the same slot.
type RasterKey struct {
	Grid     GridKey
	Settings *Settings
}

func (k RasterKey) equal(o RasterKey) bool {
	return k.Grid == o.Grid && reflect.DeepEqual(k.Settings, o.Settings)
}

// Cache memoizes the most recent terrain grid, settlement grid and raster.
// Each slot holds exactly one entry and is overwritten on a key change. It is
// safe for concurrent use. Cached values are shared and must not be mutated.
type Cache struct {
	mu sync.Mutex

	terrainKey  GridKey
	terrain     *DensityGrid
	surfaceKey  GridKey
	surface     *DensityGrid
	rasterKey   RasterKey
	raster      *image.RGBA
	hits, calls int
}

func NewCache() *Cache {
	return &Cache{}
}

func (c *Cache) TerrainGrid(key GridKey) (*DensityGrid, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lookupGrid(c.terrain, c.terrainKey, key)
}

func (c *Cache) StoreTerrainGrid(key GridKey, grid *DensityGrid) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.terrainKey, c.terrain = key, grid
}

func (c *Cache) SettlementGrid(key GridKey) (*DensityGrid, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lookupGrid(c.surface, c.surfaceKey, key)
}

func (c *Cache) StoreSettlementGrid(key GridKey, grid *DensityGrid) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.surfaceKey, c.surface = key, grid
}

func (c *Cache) Raster(key RasterKey) (*image.RGBA, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.raster == nil || !c.rasterKey.equal(key) {
		return nil, false
	}
	c.hits++
	return c.raster, true
}

// StoreRaster keeps img under key. The settings are copied so later changes
// by the caller do not alter the key.
func (c *Cache) StoreRaster(key RasterKey, img *image.RGBA) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key.Settings = cloneSettings(key.Settings)
	c.rasterKey, c.raster = key, img
}

// Purge empties every slot.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.terrain, c.surface, c.raster = nil, nil, nil
	c.terrainKey, c.surfaceKey, c.rasterKey = GridKey{}, GridKey{}, RasterKey{}
}

// Stats returns the number of lookups and hits since creation.
func (c *Cache) Stats() (hits, lookups int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.calls
}

func (c *Cache) lookupGrid(grid *DensityGrid, stored, key GridKey) (*DensityGrid, bool) {
	c.calls++
	if grid == nil || stored != key {
		return nil, false
	}
	c.hits++
	return grid, true
}

func cloneSettings(s *Settings) *Settings {
	if s == nil {
		return nil
	}
	out := *s
	out.ShallowWaterThreshold = cloneFloat(s.ShallowWaterThreshold)
	out.BeachThreshold = cloneFloat(s.BeachThreshold)
	out.ContourOpacity = cloneFloat(s.ContourOpacity)
	out.PointSize = cloneFloat(s.PointSize)
	out.LabelOpacity = cloneFloat(s.LabelOpacity)
	out.SettlementOpacity = cloneFloat(s.SettlementOpacity)
	out.HouseThreshold = cloneFloat(s.HouseThreshold)
	out.VillageThreshold = cloneFloat(s.VillageThreshold)
	out.CityThreshold = cloneFloat(s.CityThreshold)
	if s.ShowSettlements != nil {
		v := *s.ShowSettlements
		out.ShowSettlements = &v
	}
	return &out
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	f := *v
	return &f
}
