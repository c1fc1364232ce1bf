package agent

import (
	"math/rand"

	"github.com/san-kum/crowdsim/internal/config"
	"github.com/san-kum/crowdsim/internal/env"
	"github.com/san-kum/crowdsim/internal/geom"
)

// spawnRetries bounds the placement attempts per agent before giving
// up on it.
const spawnRetries = 96

// Spawn places up to cfg.PersonCount agents into the environment by
// rejection sampling: a candidate position is accepted only if it
// clears all walls, obstacles and previously placed agents. When free
// space runs out the returned registry simply holds fewer agents; the
// shortfall is the second result, never an error.
func Spawn(cfg config.Config, e *env.Environment, pool *env.Pool, rng *rand.Rand) (*Registry, int) {
	agents := make([]*Agent, 0, cfg.PersonCount)
	shortfall := 0

	for i := 0; i < cfg.PersonCount; i++ {
		pos, ok := findSpot(cfg, e, agents, rng)
		if !ok {
			shortfall++
			continue
		}
		agents = append(agents, &Agent{
			ID:       len(agents),
			Pos:      pos,
			Radius:   cfg.AgentRadius,
			MaxSpeed: cfg.AgentMaxSpeed,
			Dest:     pool.Pick(rng, pos),
		})
	}

	return NewRegistry(agents), shortfall
}

func findSpot(cfg config.Config, e *env.Environment, placed []*Agent, rng *rand.Rand) (geom.Vec, bool) {
	margin := cfg.AgentRadius * 1.5
	w := e.Bounds.Width() - 2*margin
	h := e.Bounds.Height() - 2*margin
	if w <= 0 || h <= 0 {
		return geom.Vec{}, false
	}

	for try := 0; try < spawnRetries; try++ {
		p := geom.Vec{
			X: e.Bounds.Min.X + margin + rng.Float64()*w,
			Y: e.Bounds.Min.Y + margin + rng.Float64()*h,
		}
		if !e.Accessible(p, cfg.AgentRadius) {
			continue
		}
		clear := true
		for _, a := range placed {
			if p.Dist(a.Pos) < a.Radius+cfg.AgentRadius {
				clear = false
				break
			}
		}
		if clear {
			return p, true
		}
	}
	return geom.Vec{}, false
}
