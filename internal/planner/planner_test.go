package planner

import (
	"math"
	"math/rand"
	"testing"

	"github.com/san-kum/crowdsim/internal/agent"
	"github.com/san-kum/crowdsim/internal/config"
	"github.com/san-kum/crowdsim/internal/env"
	"github.com/san-kum/crowdsim/internal/geom"
)

const (
	dt         = 0.05
	arrivalTol = 0.3
	sepEpsilon = 0.05
)

func emptyArena(t *testing.T, w, h float64) *env.Environment {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Width = w
	cfg.Height = h
	cfg.ObstacleCount = 0
	return env.Generate(cfg, rand.New(rand.NewSource(1)))
}

func newAgent(id int, pos, dest geom.Vec) *agent.Agent {
	return &agent.Agent{
		ID:       id,
		Pos:      pos,
		Dest:     dest,
		Radius:   0.25,
		MaxSpeed: 1.4,
	}
}

// advance runs plan+integrate for one tick, mirroring the simulator.
func advance(p *Planner, agents []*agent.Agent, e *env.Environment) {
	p.Plan(agents, e, arrivalTol, dt)
	for _, a := range agents {
		a.Pos = e.Bounds.ClampPoint(a.Pos.Add(a.Vel.Scale(dt)), a.Radius)
	}
}

func TestHeadOnPairAvoidsAndArrives(t *testing.T) {
	e := emptyArena(t, 24, 16)
	p := New()

	// near head-on course; tiny lateral offset as in any real spawn
	a := newAgent(0, geom.Vec{X: 4, Y: 8.1}, geom.Vec{X: 20, Y: 8.1})
	b := newAgent(1, geom.Vec{X: 20, Y: 7.9}, geom.Vec{X: 4, Y: 7.9})
	agents := []*agent.Agent{a, b}

	minSep := math.Inf(1)
	arrivedAt := -1

	for tick := 0; tick < 1000; tick++ {
		advance(p, agents, e)

		sep := a.Pos.Dist(b.Pos) - a.Radius - b.Radius
		if sep < minSep {
			minSep = sep
		}
		if a.Arrived(arrivalTol) && b.Arrived(arrivalTol) {
			arrivedAt = tick
			break
		}
	}

	if minSep < -sepEpsilon {
		t.Errorf("agents penetrated by %f", -minSep)
	}
	if arrivedAt < 0 {
		t.Error("agents did not both arrive within 1000 ticks")
	}
}

func TestPlannerAlwaysReturnsVelocity(t *testing.T) {
	e := emptyArena(t, 10, 10)
	p := New()

	// deliberately over-constrained: a tight ring all heading for the
	// center
	var agents []*agent.Agent
	center := geom.Vec{X: 5, Y: 5}
	for i := 0; i < 12; i++ {
		ang := float64(i) * 2 * math.Pi / 12
		pos := center.Add(geom.Vec{X: math.Cos(ang), Y: math.Sin(ang)}.Scale(0.6))
		agents = append(agents, newAgent(i, pos, center))
	}

	for tick := 0; tick < 50; tick++ {
		p.Plan(agents, e, arrivalTol, dt)
		for i, a := range agents {
			if !a.Vel.IsFinite() {
				t.Fatalf("tick %d: agent %d velocity not finite: %v", tick, i, a.Vel)
			}
			if a.Vel.Len() > a.MaxSpeed*1.001 {
				t.Fatalf("tick %d: agent %d exceeds max speed: %f", tick, i, a.Vel.Len())
			}
			a.Pos = e.Bounds.ClampPoint(a.Pos.Add(a.Vel.Scale(dt)), a.Radius)
		}
	}
}

func TestCoincidentAgentsSeparateDeterministically(t *testing.T) {
	e := emptyArena(t, 10, 10)

	run := func() (geom.Vec, geom.Vec) {
		p := New()
		a := newAgent(0, geom.Vec{X: 5, Y: 5}, geom.Vec{X: 8, Y: 5})
		b := newAgent(1, geom.Vec{X: 5, Y: 5}, geom.Vec{X: 2, Y: 5})
		agents := []*agent.Agent{a, b}
		for tick := 0; tick < 20; tick++ {
			advance(p, agents, e)
		}
		return a.Pos, b.Pos
	}

	a1, b1 := run()
	a2, b2 := run()

	if a1 != a2 || b1 != b2 {
		t.Error("coincident resolution is not deterministic")
	}
	if a1.Dist(b1) == 0 {
		t.Error("coincident agents never separated")
	}
}

func TestObstacleAvoidance(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Width = 24
	cfg.Height = 16
	cfg.ObstacleCount = 0
	e := env.Generate(cfg, rand.New(rand.NewSource(1)))
	e.Obstacles = append(e.Obstacles, env.Obstacle{
		Kind:   env.KindCircle,
		Circle: geom.Circle{Center: geom.Vec{X: 12, Y: 8}, Radius: 1.5},
	})

	p := New()
	a := newAgent(0, geom.Vec{X: 4, Y: 8.3}, geom.Vec{X: 20, Y: 8.3})
	agents := []*agent.Agent{a}

	minClear := math.Inf(1)
	arrived := false

	for tick := 0; tick < 2000; tick++ {
		advance(p, agents, e)

		if c := e.Obstacles[0].Clearance(a.Pos); c < minClear {
			minClear = c
		}
		if a.Arrived(arrivalTol) {
			arrived = true
			break
		}
	}

	if minClear < a.Radius-sepEpsilon {
		t.Errorf("agent cut into obstacle clearance: %f", minClear)
	}
	if !arrived {
		t.Error("agent did not reach its destination within 2000 ticks")
	}
}

func TestDesiredVelocityZeroAtDestination(t *testing.T) {
	a := newAgent(0, geom.Vec{X: 5, Y: 5}, geom.Vec{X: 5.1, Y: 5})
	got := desiredVelocity(a, arrivalTol)
	if got != (geom.Vec{}) {
		t.Errorf("expected zero desired velocity inside tolerance, got %v", got)
	}

	far := newAgent(1, geom.Vec{X: 0, Y: 0}, geom.Vec{X: 10, Y: 0})
	v := desiredVelocity(far, arrivalTol)
	if math.Abs(v.Len()-far.MaxSpeed) > 1e-9 {
		t.Errorf("desired speed %f, want max speed %f", v.Len(), far.MaxSpeed)
	}
}

func TestWallKeepsAgentInside(t *testing.T) {
	e := emptyArena(t, 12, 12)
	p := New()

	// destination tight against the wall: the wall constraint should
	// stop the agent short of contact
	a := newAgent(0, geom.Vec{X: 6, Y: 6}, geom.Vec{X: 11.5, Y: 6})
	agents := []*agent.Agent{a}

	for tick := 0; tick < 600; tick++ {
		advance(p, agents, e)
	}

	if a.Pos.X > 12-a.Radius+sepEpsilon {
		t.Errorf("agent pressed into the wall: x=%f", a.Pos.X)
	}
}
