package landmass

import (
	"errors"
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

var ErrDegenerateHull = errors.New("landmass: degenerate hull")

// HullParams tune the concave hull. An edge is only dug into while it is
// longer than LengthThreshold; a point qualifies when it is closer to the
// edge than len/Concavity.
type HullParams struct {
	Concavity       float64
	LengthThreshold float64
}

// Hull wraps points in a concave hull, falling back to their convex hull when
// the concave hull is degenerate. Fewer than three points are returned
// unchanged. fellBack reports whether the convex hull was used.
func Hull(points []orb.Point, p HullParams) (ring orb.Ring, fellBack bool) {
	if len(points) < 3 {
		return append(orb.Ring(nil), points...), false
	}
	ring, err := ConcaveHull(points, p.Concavity, p.LengthThreshold)
	if err == nil {
		return ring, false
	}
	return ConvexHull(points), true
}

// ConvexHull returns the counter-clockwise convex hull of points as an open
// ring (Andrew's monotone chain). Collinear input yields two points.
func ConvexHull(points []orb.Point) orb.Ring {
	pts := append([]orb.Point(nil), points...)
	sort.Slice(pts, func(i, j int) bool {
		if pts[i][0] != pts[j][0] {
			return pts[i][0] < pts[j][0]
		}
		return pts[i][1] < pts[j][1]
	})
	pts = dedupe(pts)
	if len(pts) < 3 {
		return orb.Ring(pts)
	}

	hull := make(orb.Ring, 0, 2*len(pts))
	for _, p := range pts {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(pts) - 2; i >= 0; i-- {
		p := pts[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	return hull[:len(hull)-1]
}

func dedupe(sorted []orb.Point) []orb.Point {
	out := sorted[:0]
	for i, p := range sorted {
		if i == 0 || p != sorted[i-1] {
			out = append(out, p)
		}
	}
	return out
}

func cross(o, a, b orb.Point) float64 {
	return (a[0]-o[0])*(b[1]-o[1]) - (a[1]-o[1])*(b[0]-o[0])
}

type hullNode struct {
	p          orb.Point
	prev, next *hullNode
}

func insertAfter(p orb.Point, prev *hullNode) *hullNode {
	n := &hullNode{p: p}
	if prev == nil {
		n.prev, n.next = n, n
		return n
	}
	n.next = prev.next
	n.prev = prev
	prev.next.prev = n
	prev.next = n
	return n
}

// ConcaveHull starts from the convex hull and repeatedly bends edges inwards
// to the nearest interior point that keeps the outline simple.
func ConcaveHull(points []orb.Point, concavity, lengthThreshold float64) (orb.Ring, error) {
	convex := ConvexHull(points)
	if len(convex) < 3 {
		return nil, ErrDegenerateHull
	}

	onHull := make(map[orb.Point]bool, len(convex))
	for _, p := range convex {
		onHull[p] = true
	}
	var inner []orb.Point
	seen := make(map[orb.Point]bool, len(points))
	for _, p := range points {
		if onHull[p] || seen[p] {
			continue
		}
		seen[p] = true
		inner = append(inner, p)
	}
	used := make([]bool, len(inner))

	var last *hullNode
	queue := make([]*hullNode, 0, len(convex))
	for _, p := range convex {
		last = insertAfter(p, last)
		queue = append(queue, last)
	}

	concavity = math.Max(0, concavity)
	sqConcavity := concavity * concavity
	sqLenThreshold := lengthThreshold * lengthThreshold

	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]

		a, b := node.p, node.next.p
		sqLen := sqDist(a, b)
		if sqLen < sqLenThreshold {
			continue
		}
		maxSqLen := sqLen / sqConcavity

		i := findCandidate(inner, used, node.prev.p, a, b, node.next.next.p, maxSqLen, last)
		if i < 0 {
			continue
		}
		p := inner[i]
		if math.Min(sqDist(p, a), sqDist(p, b)) > maxSqLen {
			continue
		}
		used[i] = true
		queue = append(queue, node, insertAfter(p, node))
	}

	ring := orb.Ring{}
	n := last
	for {
		ring = append(ring, n.p)
		n = n.next
		if n == last {
			break
		}
	}

	if len(ring) < 3 || math.Abs(planar.Area(ring)) == 0 || !finite(ring) {
		return nil, ErrDegenerateHull
	}
	return ring, nil
}

// findCandidate returns the index of the unused inner point closest to edge
// b-c that is closer to it than to the neighbouring edges a-b and c-d and
// whose connections to b and c cross no hull edge, or -1.
func findCandidate(inner []orb.Point, used []bool, a, b, c, d orb.Point, maxSqDist float64, start *hullNode) int {
	type candidate struct {
		idx  int
		dist float64
	}
	var candidates []candidate
	for i, p := range inner {
		if used[i] {
			continue
		}
		if dist := sqSegDist(p, b, c); dist <= maxSqDist {
			candidates = append(candidates, candidate{i, dist})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].dist < candidates[j].dist
	})

	for _, cand := range candidates {
		p := inner[cand.idx]
		if cand.dist < sqSegDist(p, a, b) && cand.dist < sqSegDist(p, c, d) &&
			noIntersections(b, p, start) && noIntersections(c, p, start) {
			return cand.idx
		}
	}
	return -1
}

func noIntersections(a, b orb.Point, start *hullNode) bool {
	n := start
	for {
		if intersects(n.p, n.next.p, a, b) {
			return false
		}
		n = n.next
		if n == start {
			return true
		}
	}
}

func intersects(p1, q1, p2, q2 orb.Point) bool {
	return p1 != q2 && q1 != p2 &&
		(orient(p1, q1, p2) > 0) != (orient(p1, q1, q2) > 0) &&
		(orient(p2, q2, p1) > 0) != (orient(p2, q2, q1) > 0)
}

func orient(p, r, q orb.Point) float64 {
	return (q[1]-p[1])*(r[0]-q[0]) - (q[0]-p[0])*(r[1]-q[1])
}

func sqDist(a, b orb.Point) float64 {
	dx, dy := a[0]-b[0], a[1]-b[1]
	return dx*dx + dy*dy
}

// sqSegDist is the squared distance from p to segment a-b.
func sqSegDist(p, a, b orb.Point) float64 {
	x, y := a[0], a[1]
	dx, dy := b[0]-x, b[1]-y
	if dx != 0 || dy != 0 {
		t := ((p[0]-x)*dx + (p[1]-y)*dy) / (dx*dx + dy*dy)
		if t > 1 {
			x, y = b[0], b[1]
		} else if t > 0 {
			x += dx * t
			y += dy * t
		}
	}
	dx, dy = p[0]-x, p[1]-y
	return dx*dx + dy*dy
}

func finite(r orb.Ring) bool {
	for _, p := range r {
		if math.IsNaN(p[0]) || math.IsNaN(p[1]) || math.IsInf(p[0], 0) || math.IsInf(p[1], 0) {
			return false
		}
	}
	return true
}

// Area is the absolute shoelace area of r, independent of winding.
func Area(r orb.Ring) float64 {
	if len(r) < 3 {
		return 0
	}
	return math.Abs(planar.Area(r))
}
