package sim

import (
	"github.com/san-kum/crowdsim/internal/agent"
	"github.com/san-kum/crowdsim/internal/env"
	"github.com/san-kum/crowdsim/internal/geom"
)

// A Point is a serializable 2D position.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func pt(v geom.Vec) Point { return Point{X: v.X, Y: v.Y} }

// A Snapshot is the immutable state of the simulation at one tick
// boundary. It holds no references into live registry state and is
// safe to hand to publishers without synchronization.
type Snapshot struct {
	Time         float64       `json:"time"`
	Running      bool          `json:"isRunning"`
	Agents       []AgentState  `json:"agents"`
	Environment  EnvState      `json:"environment"`
	Destinations []Point       `json:"destinations"`
}

type AgentState struct {
	ID       int   `json:"id"`
	Position Point `json:"position"`
}

type EnvState struct {
	Walls     []WallState     `json:"walls"`
	Obstacles []ObstacleState `json:"obstacles"`
}

type WallState struct {
	Start Point `json:"start"`
	End   Point `json:"end"`
}

// ObstacleState is the tagged wire form of an obstacle: Radius is set
// for circles, Width/Height for rectangles.
type ObstacleState struct {
	Type   string  `json:"type"`
	Center Point   `json:"center"`
	Radius float64 `json:"radius,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
}

func buildSnapshot(t float64, running bool, e *env.Environment, reg *agent.Registry) Snapshot {
	snap := Snapshot{
		Time:    t,
		Running: running,
	}

	snap.Agents = make([]AgentState, 0, reg.Len())
	for _, ap := range reg.Positions() {
		snap.Agents = append(snap.Agents, AgentState{ID: ap.ID, Position: pt(ap.Pos)})
	}

	snap.Environment.Walls = make([]WallState, 0, len(e.Walls))
	for _, w := range e.Walls {
		snap.Environment.Walls = append(snap.Environment.Walls, WallState{Start: pt(w.A), End: pt(w.B)})
	}

	snap.Environment.Obstacles = make([]ObstacleState, 0, len(e.Obstacles))
	for _, o := range e.Obstacles {
		switch o.Kind {
		case env.KindCircle:
			snap.Environment.Obstacles = append(snap.Environment.Obstacles, ObstacleState{
				Type:   env.KindCircle.String(),
				Center: pt(o.Circle.Center),
				Radius: o.Circle.Radius,
			})
		case env.KindRect:
			snap.Environment.Obstacles = append(snap.Environment.Obstacles, ObstacleState{
				Type:   env.KindRect.String(),
				Center: pt(o.Rect.Center()),
				Width:  o.Rect.Width(),
				Height: o.Rect.Height(),
			})
		}
	}

	snap.Destinations = make([]Point, 0, len(e.Destinations))
	for _, d := range e.Destinations {
		snap.Destinations = append(snap.Destinations, pt(d))
	}

	return snap
}
