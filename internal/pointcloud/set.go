package pointcloud

import (
	"encoding/binary"
	"math"

	"worldmap-server/internal/shared/errors"

	"github.com/cespare/xxhash/v2"
	"github.com/paulmach/orb"
)

// Set is a point cloud with its cluster hierarchy. Point order is significant:
// settlement detection and member collection both follow it.
type Set struct {
	Points   []Point   `json:"points"`
	Clusters []Cluster `json:"clusters"`
}

func (s *Set) Validate() error {
	ids := make(map[int64]struct{}, len(s.Points))
	for i, p := range s.Points {
		if math.IsNaN(p.X) || math.IsInf(p.X, 0) || math.IsNaN(p.Y) || math.IsInf(p.Y, 0) {
			return errors.Validationf("point %d (index %d) has non-finite coordinates", p.ID, i)
		}
		if _, dup := ids[p.ID]; dup {
			return errors.Validationf("duplicate point id %d", p.ID)
		}
		ids[p.ID] = struct{}{}
	}

	type levelKey struct {
		level ClusterLevel
		point int64
	}
	owner := make(map[levelKey]string)
	clusterIDs := make(map[ClusterLevel]map[string]struct{})

	for _, c := range s.Clusters {
		if c.ID == "" {
			return errors.Validation("cluster id is required")
		}
		if !c.Level.Valid() {
			return errors.Validationf("cluster %s has unknown level %q", c.ID, c.Level)
		}
		if clusterIDs[c.Level] == nil {
			clusterIDs[c.Level] = make(map[string]struct{})
		}
		if _, dup := clusterIDs[c.Level][c.ID]; dup {
			return errors.Validationf("duplicate cluster %s at level %s", c.ID, c.Level)
		}
		clusterIDs[c.Level][c.ID] = struct{}{}

		for _, m := range c.Members {
			if _, ok := ids[m]; !ok {
				return errors.Validationf("cluster %s references unknown point %d", c.ID, m)
			}
			k := levelKey{c.Level, m}
			if prev, taken := owner[k]; taken && prev != c.ID {
				return errors.Validationf("point %d belongs to clusters %s and %s at level %s", m, prev, c.ID, c.Level)
			}
			owner[k] = c.ID
		}
	}
	return nil
}

// ClustersAt returns the clusters of one level in input order.
func (s *Set) ClustersAt(level ClusterLevel) []Cluster {
	var out []Cluster
	for _, c := range s.Clusters {
		if c.Level == level {
			out = append(out, c)
		}
	}
	return out
}

// MemberCoords returns the coordinates of the cluster's members, following the
// order of s.Points rather than the order of c.Members.
func (s *Set) MemberCoords(c Cluster) []orb.Point {
	members := make(map[int64]struct{}, len(c.Members))
	for _, id := range c.Members {
		members[id] = struct{}{}
	}
	coords := make([]orb.Point, 0, len(c.Members))
	for _, p := range s.Points {
		if _, ok := members[p.ID]; ok {
			coords = append(coords, p.Coord())
		}
	}
	return coords
}

// Hash fingerprints the points (ids, coordinates and order). Clusters do not
// affect density output and are left out.
func (s *Set) Hash() uint64 {
	return HashPoints(s.Points)
}

func HashPoints(points []Point) uint64 {
	d := xxhash.New()
	var buf [24]byte
	for _, p := range points {
		binary.LittleEndian.PutUint64(buf[0:8], uint64(p.ID))
		binary.LittleEndian.PutUint64(buf[8:16], math.Float64bits(p.X))
		binary.LittleEndian.PutUint64(buf[16:24], math.Float64bits(p.Y))
		_, _ = d.Write(buf[:])
	}
	return d.Sum64()
}
