package geom

import "math"

// A Vec is a simple 2D vector.
type Vec struct {
	X float64
	Y float64
}

func (v Vec) Add(w Vec) Vec       { return Vec{v.X + w.X, v.Y + w.Y} }
func (v Vec) Sub(w Vec) Vec       { return Vec{v.X - w.X, v.Y - w.Y} }
func (v Vec) Scale(s float64) Vec { return Vec{v.X * s, v.Y * s} }
func (v Vec) Dot(w Vec) float64   { return v.X*w.X + v.Y*w.Y }
func (v Vec) Cross(w Vec) float64 { return v.X*w.Y - v.Y*w.X }
func (v Vec) Len() float64        { return math.Hypot(v.X, v.Y) }
func (v Vec) LenSq() float64      { return v.X*v.X + v.Y*v.Y }
func (v Vec) Dist(w Vec) float64  { return v.Sub(w).Len() }

// Norm returns the unit vector in the direction of v, or the zero
// vector when v has no direction.
func (v Vec) Norm() Vec {
	l := v.Len()
	if l == 0 {
		return Vec{}
	}
	return Vec{v.X / l, v.Y / l}
}

// Perp returns v rotated 90 degrees counterclockwise.
func (v Vec) Perp() Vec { return Vec{-v.Y, v.X} }

// Clamp limits the length of v to max.
func (v Vec) Clamp(max float64) Vec {
	l := v.Len()
	if l <= max || l == 0 {
		return v
	}
	return v.Scale(max / l)
}

// IsFinite reports whether both components are finite numbers.
func (v Vec) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) &&
		!math.IsNaN(v.Y) && !math.IsInf(v.Y, 0)
}

// A Segment is a line segment between two points.
type Segment struct {
	A Vec
	B Vec
}

// Len returns the segment length.
func (s Segment) Len() float64 { return s.A.Dist(s.B) }

// Point returns the point at parameter t along the segment,
// (1-t)*A + t*B.
func (s Segment) Point(t float64) Vec {
	return Vec{(1-t)*s.A.X + t*s.B.X, (1-t)*s.A.Y + t*s.B.Y}
}

// ClosestPoint returns the point on the segment closest to p.
func (s Segment) ClosestPoint(p Vec) Vec {
	ab := s.B.Sub(s.A)
	abSq := ab.LenSq()
	if abSq == 0 {
		return s.A
	}
	t := p.Sub(s.A).Dot(ab) / abSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return s.A.Add(ab.Scale(t))
}

// Dist returns the distance from p to the segment.
func (s Segment) Dist(p Vec) float64 {
	return p.Dist(s.ClosestPoint(p))
}

// A Circle is a center and a radius.
type Circle struct {
	Center Vec
	Radius float64
}

// Clearance returns the gap between the circle boundary and p.
// Negative when p is inside the circle.
func (c Circle) Clearance(p Vec) float64 {
	return p.Dist(c.Center) - c.Radius
}

// Overlaps reports whether two circles come closer than margin
// boundary to boundary.
func (c Circle) Overlaps(o Circle, margin float64) bool {
	return c.Center.Dist(o.Center) < c.Radius+o.Radius+margin
}

// A Rect is an axis-aligned rectangle.
type Rect struct {
	Min Vec
	Max Vec
}

func (r Rect) Width() float64  { return r.Max.X - r.Min.X }
func (r Rect) Height() float64 { return r.Max.Y - r.Min.Y }

func (r Rect) Center() Vec {
	return Vec{(r.Min.X + r.Max.X) / 2, (r.Min.Y + r.Max.Y) / 2}
}

// Contains reports whether p lies inside the rectangle.
func (r Rect) Contains(p Vec) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// ClosestPoint returns the point inside the rectangle closest to p.
func (r Rect) ClosestPoint(p Vec) Vec {
	return Vec{clamp(p.X, r.Min.X, r.Max.X), clamp(p.Y, r.Min.Y, r.Max.Y)}
}

// Clearance returns the distance from p to the rectangle boundary.
// Negative when p is inside.
func (r Rect) Clearance(p Vec) float64 {
	if !r.Contains(p) {
		return p.Dist(r.ClosestPoint(p))
	}
	d := p.X - r.Min.X
	if v := r.Max.X - p.X; v < d {
		d = v
	}
	if v := p.Y - r.Min.Y; v < d {
		d = v
	}
	if v := r.Max.Y - p.Y; v < d {
		d = v
	}
	return -d
}

// ClampPoint pulls p inside the rectangle shrunk by margin on every
// side. Safety backstop after integration.
func (r Rect) ClampPoint(p Vec, margin float64) Vec {
	return Vec{
		clamp(p.X, r.Min.X+margin, r.Max.X-margin),
		clamp(p.Y, r.Min.Y+margin, r.Max.Y-margin),
	}
}

func clamp(v, lo, hi float64) float64 {
	if lo > hi {
		return (lo + hi) / 2
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
