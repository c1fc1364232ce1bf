// Package planner computes collision-avoidant velocities for all
// agents once per tick. Each agent builds half-plane velocity
// constraints from its neighbors, obstacles and walls, then picks the
// feasible velocity closest to its desired one. Pair constraints split
// the avoidance effort evenly between the two agents so that both
// sides, computing independently, agree without oscillation; obstacle
// and wall constraints put the full effort on the moving agent.
package planner

import (
	"math"
	"sort"

	"github.com/san-kum/crowdsim/internal/agent"
	"github.com/san-kum/crowdsim/internal/env"
	"github.com/san-kum/crowdsim/internal/geom"
)

const (
	// DefaultHorizon is the lookahead window for agent pairs.
	DefaultHorizon = 2.0

	// DefaultObstacleHorizon is the lookahead window against static
	// geometry. Shorter: obstacles never move toward anyone.
	DefaultObstacleHorizon = 1.0
)

type Planner struct {
	Horizon         float64
	ObstacleHorizon float64
}

func New() *Planner {
	return &Planner{
		Horizon:         DefaultHorizon,
		ObstacleHorizon: DefaultObstacleHorizon,
	}
}

// a constraint is a half-plane plus the predicted time to collision
// used for ordering.
type constraint struct {
	halfPlane
	tti float64
}

// Plan updates PrefVel and Vel on every agent. New velocities are
// computed for all agents against the current tick's state and applied
// only afterwards, so the computation is simultaneous. It always
// produces a velocity for every agent.
func (p *Planner) Plan(agents []*agent.Agent, e *env.Environment, arrivalTol, dt float64) {
	newVels := make([]geom.Vec, len(agents))

	for i, a := range agents {
		a.PrefVel = desiredVelocity(a, arrivalTol)
		newVels[i] = p.planOne(a, agents, e, dt)
	}

	for i, a := range agents {
		a.Vel = newVels[i]
	}
}

func desiredVelocity(a *agent.Agent, arrivalTol float64) geom.Vec {
	to := a.Dest.Sub(a.Pos)
	if to.Len() <= arrivalTol {
		return geom.Vec{}
	}
	return to.Norm().Scale(a.MaxSpeed)
}

func (p *Planner) planOne(a *agent.Agent, agents []*agent.Agent, e *env.Environment, dt float64) geom.Vec {
	hard := p.staticConstraints(a, e, dt)
	soft := p.pairConstraints(a, agents, dt)

	// soonest predicted collision first
	sort.SliceStable(soft, func(i, j int) bool { return soft[i].tti < soft[j].tti })

	lines := make([]halfPlane, 0, len(hard)+len(soft))
	for _, c := range hard {
		lines = append(lines, c.halfPlane)
	}
	for _, c := range soft {
		lines = append(lines, c.halfPlane)
	}

	vel, fail := solve(lines, a.MaxSpeed, a.PrefVel, false)
	if fail < len(lines) {
		// over-constrained (dense crowding): minimize the worst
		// violation instead of failing to plan
		vel = relax(lines, len(hard), fail, a.MaxSpeed, vel)
	}
	return vel
}

// pairConstraints builds one half-plane per neighbor within
// interaction range, with responsibility split evenly.
func (p *Planner) pairConstraints(a *agent.Agent, agents []*agent.Agent, dt float64) []constraint {
	var out []constraint
	for _, b := range agents {
		if b.ID == a.ID {
			continue
		}
		combR := a.Radius + b.Radius
		rng := 2*combR + p.Horizon*(a.MaxSpeed+b.MaxSpeed)
		relPos := b.Pos.Sub(a.Pos)
		if relPos.Len() > rng {
			continue
		}

		relVel := a.Vel.Sub(b.Vel)
		hp, tti := p.velocityObstacle(relPos, relVel, combR, p.Horizon, dt, pairAxis(a, b))
		// each side absorbs half the correction
		hp.point = a.Vel.Add(hp.point.Scale(0.5))
		out = append(out, constraint{halfPlane: hp, tti: tti})
	}
	return out
}

// staticConstraints builds one-sided half-planes against obstacles and
// walls; the agent bears full avoidance responsibility.
func (p *Planner) staticConstraints(a *agent.Agent, e *env.Environment, dt float64) []constraint {
	rng := a.Radius + p.ObstacleHorizon*a.MaxSpeed
	var out []constraint

	add := func(closest geom.Vec) {
		relPos := closest.Sub(a.Pos)
		if relPos.Len() > rng {
			return
		}
		hp, tti := p.velocityObstacle(relPos, a.Vel, a.Radius, p.ObstacleHorizon, dt, geom.Vec{X: 1})
		hp.point = a.Vel.Add(hp.point)
		out = append(out, constraint{halfPlane: hp, tti: tti})
	}

	for _, o := range e.Obstacles {
		add(o.ClosestPoint(a.Pos))
	}
	for _, w := range e.Walls {
		add(w.ClosestPoint(a.Pos))
	}

	// hard constraints stay in soonest-first order too
	sort.SliceStable(out, func(i, j int) bool { return out[i].tti < out[j].tti })
	return out
}

// velocityObstacle derives the half-plane cutting off relative
// velocities that lead to a collision within horizon tau. The returned
// point is the correction u: the smallest change to the relative
// velocity that escapes the obstacle; callers scale it by their share
// of responsibility and translate by the agent's velocity. When the
// pair already overlaps the correction resolves the overlap within one
// time step. fallbackAxis is used when the two positions coincide
// exactly.
func (p *Planner) velocityObstacle(relPos, relVel geom.Vec, combR, tau, dt float64, fallbackAxis geom.Vec) (halfPlane, float64) {
	distSq := relPos.LenSq()
	combRSq := combR * combR

	if distSq == 0 {
		// exactly coincident: separate along a deterministic axis
		invT := 1 / dt
		unitW := fallbackAxis.Scale(-1)
		u := unitW.Scale(combR * invT)
		return halfPlane{point: u, dir: geom.Vec{X: unitW.Y, Y: -unitW.X}}, 0
	}

	if distSq > combRSq {
		// no current overlap: truncated cone with horizon tau
		w := relVel.Sub(relPos.Scale(1 / tau))
		wLenSq := w.LenSq()
		dot := w.Dot(relPos)

		var dir, u geom.Vec
		if dot < 0 && dot*dot > combRSq*wLenSq {
			// project on the cutoff arc
			wLen := math.Sqrt(wLenSq)
			unitW := w.Scale(1 / wLen)
			dir = geom.Vec{X: unitW.Y, Y: -unitW.X}
			u = unitW.Scale(combR/tau - wLen)
		} else {
			// project on the nearer leg
			leg := math.Sqrt(distSq - combRSq)
			if relPos.Cross(w) > 0 {
				dir = geom.Vec{
					X: relPos.X*leg - relPos.Y*combR,
					Y: relPos.X*combR + relPos.Y*leg,
				}.Scale(1 / distSq)
			} else {
				dir = geom.Vec{
					X: relPos.X*leg + relPos.Y*combR,
					Y: -relPos.X*combR + relPos.Y*leg,
				}.Scale(-1 / distSq)
			}
			u = dir.Scale(relVel.Dot(dir)).Sub(relVel)
		}
		return halfPlane{point: u, dir: dir}, timeToCollision(relPos, relVel, combR)
	}

	// already overlapping: push apart within one step
	invT := 1 / dt
	w := relVel.Sub(relPos.Scale(invT))
	wLen := w.Len()
	var unitW geom.Vec
	if wLen > 0 {
		unitW = w.Scale(1 / wLen)
	} else {
		unitW = relPos.Norm().Scale(-1)
	}
	dir := geom.Vec{X: unitW.Y, Y: -unitW.X}
	u := unitW.Scale(combR*invT - wLen)
	return halfPlane{point: u, dir: dir}, 0
}

// timeToCollision estimates when the gap closes under the current
// relative velocity, for constraint ordering only.
func timeToCollision(relPos, relVel geom.Vec, combR float64) float64 {
	gap := relPos.Len() - combR
	if gap <= 0 {
		return 0
	}
	// closing speed along the line of centers
	closing := relVel.Dot(relPos.Norm())
	if closing <= 1e-9 {
		return math.Inf(1)
	}
	return gap / closing
}

// pairAxis gives a deterministic separation axis for coincident
// agents, derived from id order so both sides pick opposite signs.
func pairAxis(a, b *agent.Agent) geom.Vec {
	if a.ID < b.ID {
		return geom.Vec{X: 1}
	}
	return geom.Vec{X: -1}
}
