// Package env holds the static simulation environment: boundary walls,
// obstacles and the destination pool. An Environment is generated once
// per reset and never mutated during a run.
package env

import "github.com/san-kum/crowdsim/internal/geom"

// ObstacleKind tags the obstacle variant.
type ObstacleKind int

const (
	KindCircle ObstacleKind = iota
	KindRect
)

func (k ObstacleKind) String() string {
	switch k {
	case KindCircle:
		return "circle"
	case KindRect:
		return "rectangle"
	}
	return "unknown"
}

// An Obstacle is either a circle or an axis-aligned rectangle.
// Exactly one of Circle/Rect is meaningful, selected by Kind.
type Obstacle struct {
	Kind   ObstacleKind
	Circle geom.Circle
	Rect   geom.Rect
}

// Clearance returns the gap between the obstacle boundary and p,
// negative when p is inside the obstacle.
func (o Obstacle) Clearance(p geom.Vec) float64 {
	switch o.Kind {
	case KindCircle:
		return o.Circle.Clearance(p)
	case KindRect:
		return o.Rect.Clearance(p)
	}
	return 0
}

// ClosestPoint returns the point on or inside the obstacle closest to p.
func (o Obstacle) ClosestPoint(p geom.Vec) geom.Vec {
	switch o.Kind {
	case KindCircle:
		d := p.Sub(o.Circle.Center)
		if d.Len() <= o.Circle.Radius {
			return p
		}
		return o.Circle.Center.Add(d.Norm().Scale(o.Circle.Radius))
	case KindRect:
		return o.Rect.ClosestPoint(p)
	}
	return p
}

// boundingCircle returns the smallest circle centered on the obstacle
// center that contains it. Used for overlap rejection.
func (o Obstacle) boundingCircle() geom.Circle {
	switch o.Kind {
	case KindCircle:
		return o.Circle
	case KindRect:
		half := o.Rect.Max.Sub(o.Rect.Min).Scale(0.5)
		return geom.Circle{Center: o.Rect.Center(), Radius: half.Len()}
	}
	return geom.Circle{}
}

// An Environment is the immutable arena for one run.
type Environment struct {
	Bounds    geom.Rect
	Walls     []geom.Segment
	Obstacles []Obstacle

	// Destinations is the reusable pool of target points along walls.
	Destinations []geom.Vec

	// ObstacleShortfall counts obstacles skipped after the placement
	// retry budget ran out.
	ObstacleShortfall int
}

// Clearance returns the smallest gap between p and any wall or
// obstacle. A point with clearance below an agent radius collides.
func (e *Environment) Clearance(p geom.Vec) float64 {
	best := e.Bounds.Clearance(p)
	if best > 0 {
		// outside the arena entirely
		return -best
	}
	best = -best
	for _, w := range e.Walls {
		if d := w.Dist(p); d < best {
			best = d
		}
	}
	for _, o := range e.Obstacles {
		if d := o.Clearance(p); d < best {
			best = d
		}
	}
	return best
}

// Accessible reports whether a disc of the given radius centered at p
// fits without touching any wall or obstacle.
func (e *Environment) Accessible(p geom.Vec, radius float64) bool {
	return e.Clearance(p) >= radius
}
