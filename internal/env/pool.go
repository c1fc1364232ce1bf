package env

import (
	"math/rand"

	"github.com/san-kum/crowdsim/internal/geom"
)

// A Pool hands out destination points. Points are reusable: picking
// one never removes it.
type Pool struct {
	points []geom.Vec
}

// NewPool wraps the environment's destination points.
func NewPool(points []geom.Vec) *Pool {
	return &Pool{points: points}
}

func (p *Pool) Len() int { return len(p.points) }

// Points returns a copy of the pool contents.
func (p *Pool) Points() []geom.Vec {
	out := make([]geom.Vec, len(p.points))
	copy(out, p.points)
	return out
}

// Pick draws a destination uniformly at random. When the pool has more
// than one point, the point equal to exclude is never returned, so an
// arriving agent is always sent somewhere new.
func (p *Pool) Pick(rng *rand.Rand, exclude geom.Vec) geom.Vec {
	if len(p.points) == 0 {
		return exclude
	}
	if len(p.points) == 1 {
		return p.points[0]
	}
	for {
		c := p.points[rng.Intn(len(p.points))]
		if c != exclude {
			return c
		}
	}
}
