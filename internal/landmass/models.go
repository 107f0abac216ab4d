package landmass

import (
	"encoding/json"

	"worldmap-server/internal/pointcloud"

	"github.com/paulmach/orb"
)

type Level string

const (
	LevelContinent Level = "continent"
	LevelIsland    Level = "island"
	LevelAtoll     Level = "atoll"
)

// MapPolygon is one landmass outline in data space. Points is an open ring;
// the closing edge is implied. Only continents have children, and a child
// island is also present in the flat output of Generate.
type MapPolygon struct {
	ID        string              `json:"id"`
	Points    orb.Ring            `json:"points"`
	Cluster   *pointcloud.Cluster `json:"-"`
	ClusterID string              `json:"cluster_id"`
	Level     Level               `json:"level"`
	Area      float64             `json:"area"`
	Children  []*MapPolygon       `json:"-"`
}

// MarshalJSON writes children as a list of ids.
func (p *MapPolygon) MarshalJSON() ([]byte, error) {
	type alias MapPolygon
	out := struct {
		*alias
		Children []string `json:"children,omitempty"`
	}{alias: (*alias)(p)}
	for _, c := range p.Children {
		out.Children = append(out.Children, c.ID)
	}
	return json.Marshal(out)
}

// Stats summarizes one Generate call.
type Stats struct {
	Continents    int `json:"continents"`
	Islands       int `json:"islands"`
	Atolls        int `json:"atolls"`
	HullFallbacks int `json:"hull_fallbacks"`
	Skipped       int `json:"skipped"`
}
