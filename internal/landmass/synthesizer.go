// Package landmass turns clustered point clouds into organic continent,
// island and atoll outlines.
package landmass

import (
	"context"
	"fmt"
	"runtime"
	"sort"

	"worldmap-server/internal/pointcloud"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"golang.org/x/sync/errgroup"
)

// LevelParams shape the outline of one landmass level.
type LevelParams struct {
	Hull      HullParams
	Intensity float64
}

type Config struct {
	Seed           int64
	NoiseKind      string
	NoiseScale     float64
	NoiseAmplitude float64
	Workers        int

	Continent LevelParams
	Island    LevelParams
	Atoll     LevelParams
}

func DefaultConfig(seed int64) Config {
	return Config{
		Seed:           seed,
		NoiseKind:      NoiseSimplex,
		NoiseScale:     0.05,
		NoiseAmplitude: 0.15,
		Continent:      LevelParams{Hull: HullParams{Concavity: 2.0, LengthThreshold: 0.3}, Intensity: 1.5},
		Island:         LevelParams{Hull: HullParams{Concavity: 1.5, LengthThreshold: 0.2}, Intensity: 0.8},
		Atoll:          LevelParams{Hull: HullParams{Concavity: 1.0, LengthThreshold: 0.15}, Intensity: 0.4},
	}
}

type Synthesizer struct {
	cfg   Config
	noise Noise
}

// New seeds the noise source once; every Generate call on the returned
// Synthesizer is deterministic for the same input.
func New(cfg Config) (*Synthesizer, error) {
	noise, err := NewNoise(cfg.NoiseKind, cfg.Seed)
	if err != nil {
		return nil, err
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	return &Synthesizer{cfg: cfg, noise: noise}, nil
}

func (s *Synthesizer) Config() Config {
	return s.cfg
}

// outline is the result of wrapping one group of points.
type outline struct {
	ring     orb.Ring
	fellBack bool
	// group is the k-means group an island came from, counting skipped ones.
	group int
}

// Generate builds continents from high-level clusters, islands from k-means
// sub-clusters of detailed clusters and atolls from detailed-cluster
// outliers. The flat result is ordered by area, largest first.
func (s *Synthesizer) Generate(ctx context.Context, set *pointcloud.Set) ([]*MapPolygon, Stats, error) {
	var stats Stats
	if set == nil || len(set.Points) == 0 {
		return []*MapPolygon{}, stats, nil
	}

	high := clusterRefs(set, pointcloud.LevelHigh)
	detailed := clusterRefs(set, pointcloud.LevelDetailed)

	continents, err := s.continents(ctx, set, high, &stats)
	if err != nil {
		return nil, stats, err
	}
	islands, err := s.islands(ctx, set, detailed, &stats)
	if err != nil {
		return nil, stats, err
	}
	atolls, err := s.atolls(ctx, set, detailed, &stats)
	if err != nil {
		return nil, stats, err
	}

	for _, island := range islands {
		if len(island.Points) == 0 {
			continue
		}
		for _, c := range continents {
			if planar.RingContains(closed(c.Points), island.Points[0]) {
				c.Children = append(c.Children, island)
				break
			}
		}
	}

	all := make([]*MapPolygon, 0, len(continents)+len(islands)+len(atolls))
	all = append(all, continents...)
	all = append(all, islands...)
	all = append(all, atolls...)
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Area > all[j].Area
	})

	stats.Continents = len(continents)
	stats.Islands = len(islands)
	stats.Atolls = len(atolls)
	return all, stats, nil
}

func (s *Synthesizer) continents(ctx context.Context, set *pointcloud.Set, clusters []*pointcloud.Cluster, stats *Stats) ([]*MapPolygon, error) {
	results := make([]*outline, len(clusters))
	err := s.forEach(ctx, len(clusters), func(i int) error {
		pts := set.MemberCoords(*clusters[i])
		if len(pts) < 3 {
			return nil
		}
		ring, fellBack := Hull(pts, s.cfg.Continent.Hull)
		results[i] = &outline{ring: s.perturb(ring, s.cfg.Continent.Intensity), fellBack: fellBack}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var out []*MapPolygon
	for i, r := range results {
		if p := s.collect(r, clusters[i], LevelContinent, fmt.Sprintf("continent-%s", clusters[i].ID), stats); p != nil {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Synthesizer) islands(ctx context.Context, set *pointcloud.Set, clusters []*pointcloud.Cluster, stats *Stats) ([]*MapPolygon, error) {
	results := make([][]*outline, len(clusters))
	err := s.forEach(ctx, len(clusters), func(i int) error {
		pts := set.MemberCoords(*clusters[i])
		if len(pts) < 3 {
			return nil
		}
		for group, sub := range kmeans(pts, islandK(len(pts))) {
			if err := ctx.Err(); err != nil {
				return err
			}
			if len(sub) < 3 {
				continue
			}
			ring, fellBack := Hull(sub, s.cfg.Island.Hull)
			results[i] = append(results[i], &outline{ring: s.perturb(ring, s.cfg.Island.Intensity), fellBack: fellBack, group: group})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var out []*MapPolygon
	for i, rs := range results {
		for _, r := range rs {
			id := fmt.Sprintf("island-%s-%d", clusters[i].ID, r.group)
			if p := s.collect(r, clusters[i], LevelIsland, id, stats); p != nil {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

func (s *Synthesizer) atolls(ctx context.Context, set *pointcloud.Set, clusters []*pointcloud.Cluster, stats *Stats) ([]*MapPolygon, error) {
	results := make([][]*outline, len(clusters))
	err := s.forEach(ctx, len(clusters), func(i int) error {
		pts := set.MemberCoords(*clusters[i])
		if len(pts) < 3 {
			return nil
		}
		outliers, std := findOutliers(pts)
		for _, group := range groupNearby(outliers, std*0.5) {
			if len(group) < 3 {
				results[i] = append(results[i], &outline{ring: s.atollRing(group[0])})
				continue
			}
			ring, fellBack := Hull(group, s.cfg.Atoll.Hull)
			results[i] = append(results[i], &outline{ring: s.perturb(ring, s.cfg.Atoll.Intensity), fellBack: fellBack})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var out []*MapPolygon
	for i, rs := range results {
		for idx, r := range rs {
			id := fmt.Sprintf("atoll-%s-%d", clusters[i].ID, idx)
			if p := s.collect(r, clusters[i], LevelAtoll, id, stats); p != nil {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

// collect turns an outline into a polygon, counting degenerate outlines as
// skipped.
func (s *Synthesizer) collect(r *outline, c *pointcloud.Cluster, level Level, id string, stats *Stats) *MapPolygon {
	if r == nil {
		stats.Skipped++
		return nil
	}
	if r.fellBack {
		stats.HullFallbacks++
	}
	area := Area(r.ring)
	if len(r.ring) < 3 || area == 0 || !finite(r.ring) {
		stats.Skipped++
		return nil
	}
	return &MapPolygon{
		ID:        id,
		Points:    r.ring,
		Cluster:   c,
		ClusterID: c.ID,
		Level:     level,
		Area:      area,
	}
}

// forEach runs fn for 0..n-1 on at most Workers goroutines. Each fn writes
// only its own result slot.
func (s *Synthesizer) forEach(ctx context.Context, n int, fn func(i int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(i)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func clusterRefs(set *pointcloud.Set, level pointcloud.ClusterLevel) []*pointcloud.Cluster {
	var out []*pointcloud.Cluster
	for i := range set.Clusters {
		if set.Clusters[i].Level == level {
			out = append(out, &set.Clusters[i])
		}
	}
	return out
}

func closed(r orb.Ring) orb.Ring {
	if len(r) == 0 || r[0] == r[len(r)-1] {
		return r
	}
	out := make(orb.Ring, len(r), len(r)+1)
	copy(out, r)
	return append(out, r[0])
}
