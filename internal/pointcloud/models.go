package pointcloud

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// Point is a single 2-D projected record. Coordinates are in data space.
type Point struct {
	ID int64   `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

func (p Point) Coord() orb.Point {
	return orb.Point{p.X, p.Y}
}

type ClusterLevel string

const (
	LevelHigh     ClusterLevel = "High"
	LevelMedium   ClusterLevel = "Medium"
	LevelDetailed ClusterLevel = "Detailed"
)

func (l ClusterLevel) Valid() bool {
	switch l {
	case LevelHigh, LevelMedium, LevelDetailed:
		return true
	}
	return false
}

// Cluster is the membership of a group of points at one hierarchy level.
type Cluster struct {
	ID       string       `json:"cluster_id"`
	Level    ClusterLevel `json:"cluster_level"`
	Name     string       `json:"name,omitempty"`
	Members  []int64      `json:"members"`
	Centroid orb.Point    `json:"centroid"`
	Color    RGB          `json:"color"`
}

// RGB is an opaque 8-bit color. It marshals as "#rrggbb".
type RGB struct {
	R, G, B uint8
}

func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func (c RGB) String() string {
	return c.Hex()
}

func (c RGB) MarshalText() ([]byte, error) {
	return []byte(c.Hex()), nil
}

func (c *RGB) UnmarshalText(text []byte) error {
	parsed, err := ParseHex(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseHex parses "#rrggbb" or "#rgb".
func ParseHex(s string) (RGB, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return RGB{}, fmt.Errorf("invalid hex color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

// MustHex is ParseHex for package-level color tables.
func MustHex(s string) RGB {
	c, err := ParseHex(s)
	if err != nil {
		panic(err)
	}
	return c
}
