package planner

import (
	"math"

	"github.com/san-kum/crowdsim/internal/geom"
)

const lpEpsilon = 1e-5

// A halfPlane permits velocities v with dir x (v - point) <= 0, i.e.
// everything to the left of the directed line through point.
type halfPlane struct {
	point geom.Vec
	dir   geom.Vec
}

func (h halfPlane) violation(v geom.Vec) float64 {
	return h.dir.Cross(h.point.Sub(v))
}

// solveLine optimizes along constraint line no subject to all earlier
// constraints and the speed disc. Reports false when the feasible
// interval on the line is empty.
func solveLine(lines []halfPlane, no int, radius float64, optVel geom.Vec, dirOpt bool) (geom.Vec, bool) {
	ln := lines[no]
	dot := ln.point.Dot(ln.dir)
	disc := dot*dot + radius*radius - ln.point.LenSq()
	if disc < 0 {
		// max-speed disc misses this line entirely
		return geom.Vec{}, false
	}

	sqrtDisc := math.Sqrt(disc)
	tLeft := -dot - sqrtDisc
	tRight := -dot + sqrtDisc

	for i := 0; i < no; i++ {
		denom := ln.dir.Cross(lines[i].dir)
		numer := lines[i].dir.Cross(ln.point.Sub(lines[i].point))

		if math.Abs(denom) <= lpEpsilon {
			// parallel lines
			if numer < 0 {
				return geom.Vec{}, false
			}
			continue
		}

		t := numer / denom
		if denom >= 0 {
			if t < tRight {
				tRight = t
			}
		} else {
			if t > tLeft {
				tLeft = t
			}
		}
		if tLeft > tRight {
			return geom.Vec{}, false
		}
	}

	var t float64
	if dirOpt {
		if optVel.Dot(ln.dir) > 0 {
			t = tRight
		} else {
			t = tLeft
		}
	} else {
		t = ln.dir.Dot(optVel.Sub(ln.point))
		if t < tLeft {
			t = tLeft
		} else if t > tRight {
			t = tRight
		}
	}
	return ln.point.Add(ln.dir.Scale(t)), true
}

// solve finds the velocity inside the speed disc satisfying the
// half-plane constraints in order, as close as possible to optVel.
// It returns the velocity and the index of the first constraint that
// made the program infeasible (len(lines) when fully feasible).
func solve(lines []halfPlane, radius float64, optVel geom.Vec, dirOpt bool) (geom.Vec, int) {
	var result geom.Vec
	switch {
	case dirOpt:
		// optVel is a unit direction; optimize as far as possible
		result = optVel.Scale(radius)
	case optVel.LenSq() > radius*radius:
		result = optVel.Norm().Scale(radius)
	default:
		result = optVel
	}

	for i := range lines {
		if lines[i].violation(result) > 0 {
			temp := result
			v, ok := solveLine(lines, i, radius, optVel, dirOpt)
			if !ok {
				return temp, i
			}
			result = v
		}
	}
	return result, len(lines)
}

// relax handles the infeasible case starting at constraint begin: it
// progressively permits equal violation of the soft constraints while
// keeping the hard (obstacle) constraints intact, converging on the
// velocity minimizing the maximum violation. Always yields a result.
func relax(lines []halfPlane, hard, begin int, radius float64, result geom.Vec) geom.Vec {
	distance := 0.0

	for i := begin; i < len(lines); i++ {
		if lines[i].violation(result) <= distance {
			continue
		}

		projLines := make([]halfPlane, hard)
		copy(projLines, lines[:hard])

		for j := hard; j < i; j++ {
			var nl halfPlane
			det := lines[i].dir.Cross(lines[j].dir)
			if math.Abs(det) <= lpEpsilon {
				if lines[i].dir.Dot(lines[j].dir) > 0 {
					// same direction
					continue
				}
				nl.point = lines[i].point.Add(lines[j].point).Scale(0.5)
			} else {
				s := lines[j].dir.Cross(lines[i].point.Sub(lines[j].point)) / det
				nl.point = lines[i].point.Add(lines[i].dir.Scale(s))
			}
			nl.dir = lines[j].dir.Sub(lines[i].dir).Norm()
			projLines = append(projLines, nl)
		}

		temp := result
		v, fail := solve(projLines, radius, lines[i].dir.Perp(), true)
		if fail < len(projLines) {
			// this should not happen except for numerical reasons
			result = temp
		} else {
			result = v
		}
		distance = lines[i].violation(result)
	}
	return result
}
