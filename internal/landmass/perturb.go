package landmass

import (
	"math"

	"github.com/paulmach/orb"
)

// perturb resamples every edge of ring and pushes each sample along the edge
// normal by a noise-driven offset, then relaxes the result. Zero-length
// edges contribute nothing.
func (s *Synthesizer) perturb(ring orb.Ring, intensity float64) orb.Ring {
	ring = openRing(ring)
	n := len(ring)
	if n < 2 {
		return ring
	}

	out := make(orb.Ring, 0, n*4)
	for i := 0; i < n; i++ {
		a, b := ring[i], ring[(i+1)%n]
		dx, dy := b[0]-a[0], b[1]-a[1]
		length := math.Hypot(dx, dy)
		if length == 0 {
			continue
		}
		nx, ny := -dy/length, dx/length

		subdivisions := max(2, int(math.Floor(length*10)))
		for j := 0; j < subdivisions; j++ {
			t := float64(j) / float64(subdivisions)
			x, y := a[0]+dx*t, a[1]+dy*t
			offset := s.noise.Eval2(x*s.cfg.NoiseScale, y*s.cfg.NoiseScale) * s.cfg.NoiseAmplitude * intensity
			out = append(out, orb.Point{x + nx*offset, y + ny*offset})
		}
	}
	return smoothRing(out, 0.3)
}

// smoothRing moves each vertex towards its neighbours:
// p' = p*(1-2f) + (prev+next)*f.
func smoothRing(ring orb.Ring, factor float64) orb.Ring {
	n := len(ring)
	if n < 3 {
		return ring
	}
	out := make(orb.Ring, n)
	for i, p := range ring {
		prev, next := ring[(i-1+n)%n], ring[(i+1)%n]
		out[i] = orb.Point{
			p[0]*(1-2*factor) + (prev[0]+next[0])*factor,
			p[1]*(1-2*factor) + (prev[1]+next[1])*factor,
		}
	}
	return out
}

func openRing(r orb.Ring) orb.Ring {
	if len(r) > 1 && r[0] == r[len(r)-1] {
		return r[:len(r)-1]
	}
	return r
}

// atollRing builds a small noisy circle around center. Its radius and
// segment count are drawn from the noise field at the center so they are
// stable for a given seed.
func (s *Synthesizer) atollRing(center orb.Point) orb.Ring {
	x, y := center[0]*s.cfg.NoiseScale, center[1]*s.cfg.NoiseScale
	t := unit(s.noise.Eval2(x+17.3, y-4.1))
	t2 := unit(s.noise.Eval2(x-31.7, y+9.9))

	radius := 0.3 + t*0.2
	segments := 16 + min(7, int(math.Floor(t2*8)))

	ring := make(orb.Ring, 0, segments)
	for i := 0; i < segments; i++ {
		angle := float64(i) / float64(segments) * 2 * math.Pi
		cos, sin := math.Cos(angle), math.Sin(angle)
		r := radius * (1 + s.noise.Eval2(cos*2, sin*2)*0.3)
		ring = append(ring, orb.Point{center[0] + cos*r, center[1] + sin*r})
	}
	return smoothRing(ring, 0.2)
}

// unit maps a noise sample from [-1, 1] onto [0, 1].
func unit(v float64) float64 {
	return math.Max(0, math.Min(1, (v+1)/2))
}
