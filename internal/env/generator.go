package env

import (
	"math/rand"

	"github.com/san-kum/crowdsim/internal/config"
	"github.com/san-kum/crowdsim/internal/geom"
)

const (
	// placementRetries bounds the rejection-sampling attempts per
	// obstacle before it is skipped.
	placementRetries = 64

	// obstacleMargin is the minimum boundary-to-boundary gap kept
	// between placed obstacles and between obstacles and walls.
	obstacleMargin = 0.5
)

// Generate builds an Environment from the config using the given rng.
// It is deterministic for a fixed config and rng seed. Obstacles that
// cannot be placed within the retry budget are skipped and counted in
// ObstacleShortfall rather than failing the generation.
func Generate(cfg config.Config, rng *rand.Rand) *Environment {
	bounds := geom.Rect{Max: geom.Vec{X: cfg.Width, Y: cfg.Height}}
	e := &Environment{
		Bounds: bounds,
		Walls: []geom.Segment{
			{A: bounds.Min, B: geom.Vec{X: bounds.Max.X, Y: bounds.Min.Y}},
			{A: geom.Vec{X: bounds.Max.X, Y: bounds.Min.Y}, B: bounds.Max},
			{A: bounds.Max, B: geom.Vec{X: bounds.Min.X, Y: bounds.Max.Y}},
			{A: geom.Vec{X: bounds.Min.X, Y: bounds.Max.Y}, B: bounds.Min},
		},
	}

	for i := 0; i < cfg.ObstacleCount; i++ {
		ob, ok := placeObstacle(cfg, rng, e)
		if !ok {
			e.ObstacleShortfall++
			continue
		}
		e.Obstacles = append(e.Obstacles, ob)
	}

	e.Destinations = sampleDestinations(cfg, rng, e)
	return e
}

func placeObstacle(cfg config.Config, rng *rand.Rand, e *Environment) (Obstacle, bool) {
	for try := 0; try < placementRetries; try++ {
		// size varies around the configured average
		r := cfg.ObstacleAvgRadius * (0.6 + 0.8*rng.Float64())

		shape := cfg.ObstacleShape
		if shape == config.ShapeRandom {
			if rng.Intn(2) == 0 {
				shape = config.ShapeCircle
			} else {
				shape = config.ShapeRectangle
			}
		}

		var ob Obstacle
		switch shape {
		case config.ShapeCircle:
			c := randomPointInside(rng, e.Bounds, r+obstacleMargin)
			ob = Obstacle{Kind: KindCircle, Circle: geom.Circle{Center: c, Radius: r}}
		default:
			w := r * (0.8 + 1.4*rng.Float64())
			h := r * (0.8 + 1.4*rng.Float64())
			half := geom.Vec{X: w, Y: h}
			c := randomPointInside(rng, e.Bounds, half.Len()+obstacleMargin)
			ob = Obstacle{Kind: KindRect, Rect: geom.Rect{Min: c.Sub(half), Max: c.Add(half)}}
		}

		if fits(ob, e) {
			return ob, true
		}
	}
	return Obstacle{}, false
}

func randomPointInside(rng *rand.Rand, bounds geom.Rect, margin float64) geom.Vec {
	w := bounds.Width() - 2*margin
	h := bounds.Height() - 2*margin
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return geom.Vec{
		X: bounds.Min.X + margin + rng.Float64()*w,
		Y: bounds.Min.Y + margin + rng.Float64()*h,
	}
}

func fits(ob Obstacle, e *Environment) bool {
	bc := ob.boundingCircle()

	// keep a walkable corridor along every wall
	for _, w := range e.Walls {
		if w.Dist(bc.Center) < bc.Radius+obstacleMargin {
			return false
		}
	}

	for _, other := range e.Obstacles {
		oc := other.boundingCircle()
		if bc.Overlaps(oc, obstacleMargin) {
			return false
		}
	}
	return true
}

// sampleDestinations spreads destination points along the wall
// segments, nudged inward so agents can stand on them. Zero-length
// walls are skipped.
func sampleDestinations(cfg config.Config, rng *rand.Rand, e *Environment) []geom.Vec {
	var usable []geom.Segment
	total := 0.0
	for _, w := range e.Walls {
		if w.Len() == 0 {
			continue
		}
		usable = append(usable, w)
		total += w.Len()
	}
	if len(usable) == 0 || total == 0 {
		return []geom.Vec{e.Bounds.Center()}
	}

	inset := cfg.AgentRadius * 3
	center := e.Bounds.Center()

	dests := make([]geom.Vec, 0, cfg.DestinationCount)
	for i := 0; i < cfg.DestinationCount; i++ {
		w := usable[i%len(usable)]
		for try := 0; try < placementRetries; try++ {
			p := w.Point(rng.Float64())
			// pull the point off the wall toward the arena interior
			p = p.Add(center.Sub(p).Norm().Scale(inset))
			if e.Clearance(p) > cfg.AgentRadius {
				dests = append(dests, p)
				break
			}
		}
	}

	if len(dests) == 0 {
		dests = append(dests, center)
	}
	return dests
}
