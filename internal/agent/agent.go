// Package agent holds the pedestrian agents and their registry.
package agent

import "github.com/san-kum/crowdsim/internal/geom"

// An Agent is one simulated pedestrian. All fields are mutated by the
// planner and integrator every tick; agents are destroyed and
// recreated wholesale on reset.
type Agent struct {
	ID       int
	Pos      geom.Vec
	Vel      geom.Vec
	PrefVel  geom.Vec
	Radius   float64
	MaxSpeed float64
	Dest     geom.Vec
}

// Arrived reports whether the agent is within tol of its destination.
func (a *Agent) Arrived(tol float64) bool {
	return a.Pos.Dist(a.Dest) <= tol
}

// A Registry owns the active agents for one run.
type Registry struct {
	agents []*Agent
}

func NewRegistry(agents []*Agent) *Registry {
	return &Registry{agents: agents}
}

func (r *Registry) Len() int { return len(r.agents) }

// All returns the live agent slice. Callers must hold the simulation
// lock while iterating.
func (r *Registry) All() []*Agent { return r.agents }

// Positions returns a detached copy of (id, position) pairs, safe to
// hand out without synchronization.
func (r *Registry) Positions() []AgentPos {
	out := make([]AgentPos, len(r.agents))
	for i, a := range r.agents {
		out[i] = AgentPos{ID: a.ID, Pos: a.Pos}
	}
	return out
}

// AgentPos is an immutable (id, position) pair for snapshots.
type AgentPos struct {
	ID  int
	Pos geom.Vec
}
