package terrain

import (
	"worldmap-server/internal/pointcloud"

	"github.com/paulmach/orb"
)

// DefaultPadding is the pixel margin kept between the outermost points and
// the viewport edge.
const DefaultPadding = 50

// Scale maps a domain interval linearly onto a range interval. A collapsed
// domain maps every value to the middle of the range.
type Scale struct {
	DomainMin, DomainMax float64
	RangeMin, RangeMax   float64
}

func (s Scale) Apply(v float64) float64 {
	span := s.DomainMax - s.DomainMin
	if span == 0 {
		return (s.RangeMin + s.RangeMax) / 2
	}
	return s.RangeMin + (v-s.DomainMin)/span*(s.RangeMax-s.RangeMin)
}

// Projection maps data-space points onto the viewport. The y axis is inverted
// so that data "up" is screen "up".
type Projection struct {
	X Scale
	Y Scale
}

func NewProjection(points []pointcloud.Point, width, height, padding float64) Projection {
	mp := make(orb.MultiPoint, len(points))
	for i, p := range points {
		mp[i] = p.Coord()
	}
	var bound orb.Bound
	if len(mp) > 0 {
		bound = mp.Bound()
	}
	return Projection{
		X: Scale{DomainMin: bound.Min.X(), DomainMax: bound.Max.X(), RangeMin: padding, RangeMax: width - padding},
		Y: Scale{DomainMin: bound.Min.Y(), DomainMax: bound.Max.Y(), RangeMin: height - padding, RangeMax: padding},
	}
}

func (p Projection) Project(pt pointcloud.Point) (x, y float64) {
	return p.X.Apply(pt.X), p.Y.Apply(pt.Y)
}

// ProjectAll returns the screen coordinates of points, index-aligned.
func (p Projection) ProjectAll(points []pointcloud.Point) (xs, ys []float64) {
	xs = make([]float64, len(points))
	ys = make([]float64, len(points))
	for i, pt := range points {
		xs[i], ys[i] = p.Project(pt)
	}
	return xs, ys
}
