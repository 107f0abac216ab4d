package terrain

import (
	"math"

	"github.com/paulmach/orb"
)

// ElevationThresholds returns the ten elevation line levels 0, 0.1, ... 0.9.
func ElevationThresholds() []float64 {
	t := make([]float64, 10)
	for i := range t {
		t[i] = float64(i) * 0.1
	}
	return t
}

type vertex [2]float64

// segment tables for the 16 marching squares cases; coordinates are offsets
// from the current cell in half-cell steps.
var marchingCases = [16][][2]vertex{
	{},
	{{{1.0, 1.5}, {0.5, 1.0}}},
	{{{1.5, 1.0}, {1.0, 1.5}}},
	{{{1.5, 1.0}, {0.5, 1.0}}},
	{{{1.0, 0.5}, {1.5, 1.0}}},
	{{{1.0, 1.5}, {0.5, 1.0}}, {{1.0, 0.5}, {1.5, 1.0}}},
	{{{1.0, 0.5}, {1.0, 1.5}}},
	{{{1.0, 0.5}, {0.5, 1.0}}},
	{{{0.5, 1.0}, {1.0, 0.5}}},
	{{{1.0, 1.5}, {1.0, 0.5}}},
	{{{0.5, 1.0}, {1.0, 0.5}}, {{1.5, 1.0}, {1.0, 1.5}}},
	{{{1.5, 1.0}, {1.0, 0.5}}},
	{{{0.5, 1.0}, {1.5, 1.0}}},
	{{{1.0, 1.5}, {1.5, 1.0}}},
	{{{0.5, 1.0}, {1.0, 1.5}}},
	{},
}

// Contours extracts one contour per threshold from a row-major grid of
// cols×rows values. Rings are closed, counter-clockwise polygons carry the
// holes they contain, and vertices are linearly interpolated between cells.
func Contours(values []float64, cols, rows int, thresholds []float64) []Contour {
	out := make([]Contour, 0, len(thresholds))
	if cols <= 0 || rows <= 0 {
		return out
	}
	for _, t := range thresholds {
		out = append(out, contour(values, cols, rows, t))
	}
	return out
}

func contour(values []float64, cols, rows int, threshold float64) Contour {
	var polygons []orb.Polygon
	var holes []orb.Ring

	tracer := &ringTracer{
		values:    values,
		dx:        cols,
		dy:        rows,
		threshold: threshold,
		byStart:   make(map[int]*fragment),
		byEnd:     make(map[int]*fragment),
	}
	tracer.trace(func(ring []vertex) {
		tracer.smooth(ring)
		r := make(orb.Ring, len(ring))
		for i, v := range ring {
			r[i] = orb.Point{v[0], v[1]}
		}
		if signedArea(ring) > 0 {
			polygons = append(polygons, orb.Polygon{r})
		} else {
			holes = append(holes, r)
		}
	})

	for _, hole := range holes {
		for i := range polygons {
			if ringContainsRing(polygons[i][0], hole) != -1 {
				polygons[i] = append(polygons[i], hole)
				break
			}
		}
	}

	mp := orb.MultiPolygon(polygons)
	if mp == nil {
		mp = orb.MultiPolygon{}
	}
	return Contour{Threshold: threshold, Polygons: mp}
}

type fragment struct {
	start, end int
	ring       []vertex
}

type ringTracer struct {
	values    []float64
	dx, dy    int
	threshold float64
	byStart   map[int]*fragment
	byEnd     map[int]*fragment
	x, y      int
}

func (t *ringTracer) above(i int) int {
	if t.values[i] >= t.threshold {
		return 1
	}
	return 0
}

func (t *ringTracer) emit(c int, done func([]vertex)) {
	for _, line := range marchingCases[c] {
		t.stitch(line, done)
	}
}

// trace walks the grid padded by one virtual row/column of below-threshold
// cells on every side, so every ring it reports is closed.
func (t *ringTracer) trace(done func([]vertex)) {
	dx, dy := t.dx, t.dy

	t.x, t.y = -1, -1
	t1 := t.above(0)
	t.emit(t1<<1, done)
	for t.x++; t.x < dx-1; t.x++ {
		t0 := t1
		t1 = t.above(t.x + 1)
		t.emit(t0|t1<<1, done)
	}
	t.emit(t1, done)

	for t.y++; t.y < dy-1; t.y++ {
		t.x = -1
		t1 = t.above(t.y*dx + dx)
		t2 := t.above(t.y * dx)
		t.emit(t1<<1|t2<<2, done)
		for t.x++; t.x < dx-1; t.x++ {
			t0 := t1
			t1 = t.above(t.y*dx + dx + t.x + 1)
			t3 := t2
			t2 = t.above(t.y*dx + t.x + 1)
			t.emit(t0|t1<<1|t2<<2|t3<<3, done)
		}
		t.emit(t1|t2<<3, done)
	}

	t.x = -1
	t2 := t.above(t.y * dx)
	t.emit(t2<<2, done)
	for t.x++; t.x < dx-1; t.x++ {
		t3 := t2
		t2 = t.above(t.y*dx + t.x + 1)
		t.emit(t2<<2|t3<<3, done)
	}
	t.emit(t2<<3, done)
}

func (t *ringTracer) index(v vertex) int {
	return int(v[0]*2 + v[1]*float64(t.dx+1)*4)
}

func (t *ringTracer) stitch(line [2]vertex, done func([]vertex)) {
	start := vertex{line[0][0] + float64(t.x), line[0][1] + float64(t.y)}
	end := vertex{line[1][0] + float64(t.x), line[1][1] + float64(t.y)}
	startIndex, endIndex := t.index(start), t.index(end)

	if f, ok := t.byEnd[startIndex]; ok {
		if g, ok := t.byStart[endIndex]; ok {
			delete(t.byEnd, f.end)
			delete(t.byStart, g.start)
			if f == g {
				f.ring = append(f.ring, end)
				done(f.ring)
				return
			}
			merged := &fragment{start: f.start, end: g.end, ring: append(f.ring, g.ring...)}
			t.byStart[merged.start] = merged
			t.byEnd[merged.end] = merged
			return
		}
		delete(t.byEnd, f.end)
		f.ring = append(f.ring, end)
		f.end = endIndex
		t.byEnd[endIndex] = f
		return
	}

	if f, ok := t.byStart[endIndex]; ok {
		if g, ok := t.byEnd[startIndex]; ok {
			delete(t.byStart, f.start)
			delete(t.byEnd, g.end)
			if f == g {
				f.ring = append(f.ring, end)
				done(f.ring)
				return
			}
			merged := &fragment{start: g.start, end: f.end, ring: append(g.ring, f.ring...)}
			t.byStart[merged.start] = merged
			t.byEnd[merged.end] = merged
			return
		}
		delete(t.byStart, f.start)
		f.ring = append([]vertex{start}, f.ring...)
		f.start = startIndex
		t.byStart[startIndex] = f
		return
	}

	f := &fragment{start: startIndex, end: endIndex, ring: []vertex{start, end}}
	t.byStart[startIndex] = f
	t.byEnd[endIndex] = f
}

// smooth moves ring vertices that sit on cell edges to the linearly
// interpolated threshold crossing.
func (t *ringTracer) smooth(ring []vertex) {
	for i := range ring {
		x, y := ring[i][0], ring[i][1]
		xt, yt := int(x), int(y)
		v1 := t.valueAt(xt, yt)
		if x > 0 && x < float64(t.dx) && float64(xt) == x {
			ring[i][0] = interpolate(x, t.valueAt(xt-1, yt), v1, t.threshold)
		}
		if y > 0 && y < float64(t.dy) && float64(yt) == y {
			ring[i][1] = interpolate(y, t.valueAt(xt, yt-1), v1, t.threshold)
		}
	}
}

// valueAt returns the cell value, or -Inf for cells outside the grid.
func (t *ringTracer) valueAt(col, row int) float64 {
	if col < 0 || row < 0 || col >= t.dx || row >= t.dy {
		return math.Inf(-1)
	}
	v := t.values[row*t.dx+col]
	if math.IsNaN(v) {
		return math.Inf(-1)
	}
	return v
}

func interpolate(x, v0, v1, threshold float64) float64 {
	a := threshold - v0
	b := v1 - v0
	var d float64
	if !math.IsInf(a, 0) || !math.IsInf(b, 0) {
		d = a / b
	} else {
		d = sign(a) / sign(b)
	}
	if math.IsNaN(d) {
		return x
	}
	return x + d - 0.5
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return v
}

// signedArea is positive for rings the tracer emits around above-threshold
// regions and negative for holes.
func signedArea(ring []vertex) float64 {
	n := len(ring)
	area := ring[n-1][1]*ring[0][0] - ring[n-1][0]*ring[0][1]
	for i := 1; i < n; i++ {
		area += ring[i-1][1]*ring[i][0] - ring[i-1][0]*ring[i][1]
	}
	return area
}

// ringContainsRing returns 1 if hole lies inside ring, -1 if outside and 0 if
// every vertex of hole is on ring's boundary.
func ringContainsRing(ring, hole orb.Ring) int {
	for _, p := range hole {
		if c := ringContainsPoint(ring, p); c != 0 {
			return c
		}
	}
	return 0
}

func ringContainsPoint(ring orb.Ring, p orb.Point) int {
	x, y := p[0], p[1]
	contains := -1
	for i, j := 0, len(ring)-1; i < len(ring); j, i = i, i+1 {
		pi, pj := ring[i], ring[j]
		if onSegment(pi, pj, p) {
			return 0
		}
		if (pi[1] > y) != (pj[1] > y) && x < (pj[0]-pi[0])*(y-pi[1])/(pj[1]-pi[1])+pi[0] {
			contains = -contains
		}
	}
	return contains
}

func onSegment(a, b, c orb.Point) bool {
	if (b[0]-a[0])*(c[1]-a[1]) != (c[0]-a[0])*(b[1]-a[1]) {
		return false
	}
	i := 0
	if a[0] == b[0] {
		i = 1
	}
	return (a[i] <= c[i] && c[i] <= b[i]) || (b[i] <= c[i] && c[i] <= a[i])
}
