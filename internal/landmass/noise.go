package landmass

import (
	"fmt"

	"github.com/aquilax/go-perlin"
	"github.com/ojrac/opensimplex-go"
)

// Noise is a seeded 2-D gradient noise source returning values in about
// [-1, 1]. Implementations must be safe for concurrent reads.
type Noise interface {
	Eval2(x, y float64) float64
}

const (
	NoiseSimplex = "simplex"
	NoisePerlin  = "perlin"
)

// NewNoise returns the noise source of the given kind seeded once with seed.
func NewNoise(kind string, seed int64) (Noise, error) {
	switch kind {
	case "", NoiseSimplex:
		return opensimplex.New(seed), nil
	case NoisePerlin:
		return perlinNoise{perlin.NewPerlin(2, 2, 3, seed)}, nil
	}
	return nil, fmt.Errorf("unknown noise kind %q", kind)
}

type perlinNoise struct {
	p *perlin.Perlin
}

func (n perlinNoise) Eval2(x, y float64) float64 {
	return n.p.Noise2D(x, y)
}
